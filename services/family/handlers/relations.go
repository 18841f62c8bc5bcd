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

// LinkRelation handles POST /v1/relations.
func LinkRelation(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("link", outcomeInvalid)
			return
		}

		kind := datatypes.RelationKind(req.Kind)
		err := s.Link(c.Request.Context(), kind, req.PersonA, req.PersonB)
		if err != nil {
			slog.Error("link relation failed",
				"kind", req.Kind, "a", req.PersonA, "b", req.PersonB, "error", err)
			observability.RecordMutation("link", respondError(c, err))
			return
		}

		observability.RecordMutation("link", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"status": "linked", "kind": req.Kind})
	}
}

// UnlinkRelation handles DELETE /v1/relations.
func UnlinkRelation(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.LinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("unlink", outcomeInvalid)
			return
		}

		kind := datatypes.RelationKind(req.Kind)
		err := s.Unlink(c.Request.Context(), kind, req.PersonA, req.PersonB)
		if err != nil {
			observability.RecordMutation("unlink", respondError(c, err))
			return
		}

		observability.RecordMutation("unlink", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"status": "unlinked", "kind": req.Kind})
	}
}

// AttachChild handles POST /v1/members/:id/children/:childId,
// attaching an existing child to an existing parent.
func AttachChild(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		parentID := c.Param("id")
		childID := c.Param("childId")

		child, err := s.AddChildByID(c.Request.Context(), parentID, childID)
		if err != nil {
			slog.Error("attach child failed",
				"parent_id", parentID, "child_id", childID, "error", err)
			observability.RecordMutation("add_child", respondError(c, err))
			return
		}

		observability.RecordMutation("add_child", outcomeSuccess)
		c.JSON(http.StatusOK, child)
	}
}

// AddChild handles POST /v1/members/addChild: create a new child under a
// parent referenced by name or id, with mother inference.
func AddChild(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AddChildRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("add_child", outcomeInvalid)
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("add_child", outcomeInvalid)
			return
		}
		if req.ParentID == "" && req.ParentName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parentId or parentName is required"})
			observability.RecordMutation("add_child", outcomeInvalid)
			return
		}

		child, err := s.AddChild(c.Request.Context(), req)
		if err != nil {
			observability.RecordMutation("add_child", respondError(c, err))
			return
		}

		observability.RecordMutation("add_child", outcomeSuccess)
		c.JSON(http.StatusCreated, child)
	}
}

// AddSpouse handles POST /v1/members/addSpouse.
func AddSpouse(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AddSpouseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("link", outcomeInvalid)
			return
		}

		err := s.AddSpouse(c.Request.Context(), req.PersonID, req.SpouseID)
		if err != nil {
			observability.RecordMutation("link", respondError(c, err))
			return
		}

		observability.RecordMutation("link", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"status": "linked", "kind": string(datatypes.RelationSpouse)})
	}
}
