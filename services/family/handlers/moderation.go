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

// ListPending handles GET /v1/moderation/pending.
func ListPending(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := s.ListPending(c.Request.Context())
		if err != nil {
			observability.RecordQuery("pending", respondError(c, err))
			return
		}
		if pending == nil {
			pending = []*datatypes.Person{}
		}

		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.PendingRecords.Set(float64(len(pending)))
		}
		observability.RecordQuery("pending", outcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"pending": pending, "count": len(pending)})
	}
}

// Moderate handles POST /v1/moderation/:id, applying an approve or
// reject decision to a pending record.
func Moderate(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ModerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			observability.RecordMutation("moderate", outcomeInvalid)
			return
		}

		person, err := s.Moderate(c.Request.Context(), c.Param("id"), datatypes.Status(req.Decision))
		if err != nil {
			slog.Error("moderation failed",
				"person_id", c.Param("id"), "decision", req.Decision, "error", err)
			observability.RecordMutation("moderate", respondError(c, err))
			return
		}

		observability.RecordMutation("moderate", outcomeSuccess)
		c.JSON(http.StatusOK, person)
	}
}
