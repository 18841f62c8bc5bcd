// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the gin handlers for the family REST API.
//
// Handlers are thin: bind and validate the request, call the store or a
// traversal, map the error taxonomy onto HTTP status codes. All domain
// rules live in the store and tree packages.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/silsila-app/silsila/services/family/datatypes"
)

// Outcome labels for the mutation/query metrics.
const (
	outcomeSuccess   = "success"
	outcomeNotFound  = "not_found"
	outcomeInvalid   = "invalid"
	outcomeAmbiguous = "ambiguous"
	outcomeError     = "error"
)

// respondError maps the domain error taxonomy onto HTTP responses and
// returns the metrics outcome label.
//
// Ambiguity is 409 with the candidate list in the body so the caller can
// re-submit with a disambiguator. Store unavailability is 503 and
// retryable; every other domain error is the caller's fault (400/404).
func respondError(c *gin.Context, err error) string {
	if ambiguousErr, ok := datatypes.AsAmbiguous(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":      ambiguousErr.Error(),
			"subject":    ambiguousErr.Subject,
			"candidates": ambiguousErr.Candidates,
		})
		return outcomeAmbiguous
	}

	switch {
	case errors.Is(err, datatypes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return outcomeNotFound
	case errors.Is(err, datatypes.ErrInvalidRelation),
		errors.Is(err, datatypes.ErrInvalidTransition),
		errors.Is(err, datatypes.ErrNoMotherCandidate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return outcomeInvalid
	case errors.Is(err, datatypes.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable, retry later"})
		return outcomeError
	case errors.Is(err, datatypes.ErrConstraintViolation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return outcomeError
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return outcomeError
	}
}
