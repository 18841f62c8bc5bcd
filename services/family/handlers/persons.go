// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/silsila-app/silsila/services/family/datatypes"
	"github.com/silsila-app/silsila/services/family/observability"
	"github.com/silsila-app/silsila/services/family/store"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreatePerson handles POST /v1/members.
func CreatePerson(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreatePersonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("create", outcomeInvalid)
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("create", outcomeInvalid)
			return
		}

		person, err := s.Create(c.Request.Context(), req.Attrs(), req.Relations())
		if err != nil {
			slog.Error("create person failed", "error", err)
			observability.RecordMutation("create", respondError(c, err))
			return
		}

		observability.RecordMutation("create", outcomeSuccess)
		c.JSON(http.StatusCreated, person)
	}
}

// ListPersons handles GET /v1/members.
//
// Defaults to approved records; ?status=pending|rejected|all widens the
// view for moderators.
func ListPersons(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := datatypes.StatusApproved
		switch statusParam := c.Query("status"); statusParam {
		case "", "approved":
		case "all":
			filter = ""
		default:
			status := datatypes.Status(statusParam)
			if !status.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + statusParam})
				observability.RecordQuery("list", outcomeInvalid)
				return
			}
			filter = status
		}

		persons, err := s.List(c.Request.Context(), filter)
		if err != nil {
			slog.Error("list persons failed", "error", err)
			observability.RecordQuery("list", respondError(c, err))
			return
		}
		if persons == nil {
			persons = []*datatypes.Person{}
		}

		observability.RecordQuery("list", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"members": persons, "count": len(persons)})
	}
}

// GetPerson handles GET /v1/members/:id.
func GetPerson(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		person, err := s.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			observability.RecordQuery("get", respondError(c, err))
			return
		}
		observability.RecordQuery("get", outcomeSuccess)
		c.JSON(http.StatusOK, person)
	}
}

// UpdatePerson handles PUT /v1/members/:id. Scalar attributes only;
// relationship changes go through the relation endpoints.
func UpdatePerson(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdatePersonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("update", outcomeInvalid)
			return
		}

		person, err := s.Update(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			slog.Error("update person failed", "person_id", c.Param("id"), "error", err)
			observability.RecordMutation("update", respondError(c, err))
			return
		}

		observability.RecordMutation("update", outcomeSuccess)
		c.JSON(http.StatusOK, person)
	}
}

// DeletePerson handles DELETE /v1/members/:id. The cascade scrubs every
// reference to the person from the rest of the graph.
func DeletePerson(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := s.Delete(c.Request.Context(), id); err != nil {
			slog.Error("delete person failed", "person_id", id, "error", err)
			observability.RecordMutation("delete", respondError(c, err))
			return
		}

		slog.Info("person deleted via API", "person_id", id)
		observability.RecordMutation("delete", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
	}
}

// SetProminent handles POST /v1/members/:id/prominent.
func SetProminent(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ProminentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("prominent", outcomeInvalid)
			return
		}

		person, err := s.SetProminent(c.Request.Context(), c.Param("id"), req.Prominent)
		if err != nil {
			observability.RecordMutation("prominent", respondError(c, err))
			return
		}

		observability.RecordMutation("prominent", outcomeSuccess)
		c.JSON(http.StatusOK, person)
	}
}

// ListProminent handles GET /v1/prominent.
func ListProminent(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		persons, err := s.ListProminent(c.Request.Context())
		if err != nil {
			observability.RecordQuery("prominent", respondError(c, err))
			return
		}
		if persons == nil {
			persons = []*datatypes.Person{}
		}
		observability.RecordQuery("prominent", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"members": persons, "count": len(persons)})
	}
}
