// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/silsila-app/silsila/services/family/observability"
	"github.com/silsila-app/silsila/services/family/store"
)

// counterRequest is the POST /v1/counter body. A missing or zero delta
// counts as a single increment.
type counterRequest struct {
	Delta int64 `json:"delta"`
}

// GetCounter handles GET /v1/counter.
func GetCounter(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := s.Counter(c.Request.Context())
		if err != nil {
			observability.RecordQuery("counter", respondError(c, err))
			return
		}
		observability.RecordQuery("counter", outcomeSuccess)
		c.JSON(http.StatusOK, state)
	}
}

// IncrementCounter handles POST /v1/counter.
func IncrementCounter(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := counterRequest{Delta: 1}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.Delta == 0 {
				req.Delta = 1
			}
		}

		state, err := s.IncrementCounter(c.Request.Context(), req.Delta)
		if err != nil {
			respondError(c, err)
			return
		}

		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.CounterIncrementsTotal.Inc()
		}
		c.JSON(http.StatusOK, state)
	}
}
