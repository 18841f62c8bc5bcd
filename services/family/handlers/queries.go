// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Traversal query handlers. Each loads one snapshot and runs the walk
// against it, so the response reflects a single consistent version of
// the graph even while writes land concurrently.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/silsila-app/silsila/services/family/datatypes"
	"github.com/silsila-app/silsila/services/family/observability"
	"github.com/silsila-app/silsila/services/family/store"
	"github.com/silsila-app/silsila/services/family/tree"
)

// Ancestry handles GET /v1/members/:id/ancestry. An optional ?depth=N
// caps how many generations each line ascends.
func Ancestry(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		depth := 0
		if depthParam := c.Query("depth"); depthParam != "" {
			parsed, err := strconv.Atoi(depthParam)
			if err != nil || parsed < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be a positive integer"})
				observability.RecordQuery("ancestry", outcomeInvalid)
				return
			}
			depth = parsed
		}

		snapshot, err := s.Snapshot(c.Request.Context())
		if err != nil {
			slog.Error("snapshot failed", "error", err)
			observability.RecordQuery("ancestry", respondError(c, err))
			return
		}

		view, err := tree.AncestorChain(snapshot, c.Param("id"), depth)
		if err != nil {
			observability.RecordQuery("ancestry", respondError(c, err))
			return
		}

		observability.RecordQuery("ancestry", outcomeSuccess)
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.QueryDurationSeconds.
				WithLabelValues("ancestry").Observe(time.Since(start).Seconds())
			observability.DefaultMetrics.TraversalPersons.
				WithLabelValues("ancestry").Observe(float64(len(view.Entries)))
		}
		c.JSON(http.StatusOK, view)
	}
}

// Family handles GET /v1/members/:id/family: the one-hop view around a
// person. An optional ?relations= comma list (parents, children,
// spouses, siblings, step_parents, step_children, half_siblings)
// restricts which groups are expanded; omitted means all of them.
func Family(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categories []datatypes.RelationCategory
		if relationsParam := c.Query("relations"); relationsParam != "" {
			for _, token := range strings.Split(relationsParam, ",") {
				token = strings.TrimSpace(token)
				if token == "" {
					continue
				}
				category := datatypes.RelationCategory(token)
				if !category.Valid() {
					c.JSON(http.StatusBadRequest, gin.H{"error": "unknown relation category " + token})
					observability.RecordQuery("family", outcomeInvalid)
					return
				}
				categories = append(categories, category)
			}
		}

		snapshot, err := s.Snapshot(c.Request.Context())
		if err != nil {
			observability.RecordQuery("family", respondError(c, err))
			return
		}

		view, err := tree.Subtree(snapshot, c.Param("id"), categories)
		if err != nil {
			observability.RecordQuery("family", respondError(c, err))
			return
		}

		observability.RecordQuery("family", outcomeSuccess)
		c.JSON(http.StatusOK, view)
	}
}

// Graph handles GET /v1/members/:id/graph: the full connected component
// reachable from a person. ?status= filters the output (default
// approved, "all" disables the filter); the walk always traverses the
// whole component.
func Graph(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		filter := datatypes.StatusApproved
		switch statusParam := c.Query("status"); statusParam {
		case "", "approved":
		case "all":
			filter = ""
		default:
			status := datatypes.Status(statusParam)
			if !status.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + statusParam})
				observability.RecordQuery("traversal", outcomeInvalid)
				return
			}
			filter = status
		}

		snapshot, err := s.Snapshot(c.Request.Context())
		if err != nil {
			observability.RecordQuery("traversal", respondError(c, err))
			return
		}

		result, err := tree.FullTraversal(snapshot, c.Param("id"), filter)
		if err != nil {
			observability.RecordQuery("traversal", respondError(c, err))
			return
		}

		observability.RecordQuery("traversal", outcomeSuccess)
		if observability.DefaultMetrics != nil {
			observability.DefaultMetrics.QueryDurationSeconds.
				WithLabelValues("traversal").Observe(time.Since(start).Seconds())
			observability.DefaultMetrics.TraversalPersons.
				WithLabelValues("traversal").Observe(float64(len(result.Persons)))
		}
		c.JSON(http.StatusOK, result)
	}
}

// Search handles GET /v1/search.
//
// Query parameters: name, dob (YYYY-MM-DD), gender, bio, and ancestors
// (comma-separated paternal line, nearest first). A single hit returns
// the expanded family view; multiple hits return candidates for the
// caller to disambiguate.
func Search(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		criteria := datatypes.SearchCriteria{
			Name:      strings.TrimSpace(c.Query("name")),
			Gender:    datatypes.Gender(c.Query("gender")),
			Biography: strings.TrimSpace(c.Query("bio")),
		}
		if criteria.Gender != "" && !criteria.Gender.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown gender " + string(criteria.Gender)})
			observability.RecordQuery("search", outcomeInvalid)
			return
		}
		if dobParam := c.Query("dob"); dobParam != "" {
			dob, err := time.Parse("2006-01-02", dobParam)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "dob must be YYYY-MM-DD"})
				observability.RecordQuery("search", outcomeInvalid)
				return
			}
			criteria.DateOfBirth = &dob
		}
		if ancestorsParam := c.Query("ancestors"); ancestorsParam != "" {
			for _, name := range strings.Split(ancestorsParam, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					criteria.AncestorNames = append(criteria.AncestorNames, trimmed)
				}
			}
		}

		snapshot, err := s.Snapshot(c.Request.Context())
		if err != nil {
			observability.RecordQuery("search", respondError(c, err))
			return
		}

		result, err := tree.Search(snapshot, criteria)
		if err != nil {
			observability.RecordQuery("search", respondError(c, err))
			return
		}

		observability.RecordQuery("search", outcomeSuccess)
		c.JSON(http.StatusOK, result)
	}
}
