// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the family service.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer token from the Authorization
// header, validates it with the configured AuthProvider, and stores the
// resulting AuthInfo in the gin context for downstream handlers. Public
// read endpoints skip the middleware entirely; the moderation and
// mutation groups require it.
//
// # Default Behavior
//
// With NopAuthProvider (the default), every request authenticates as
// "local-user" with the moderator role. This lets the service run
// standalone with no identity infrastructure. Deployments that need real
// auth supply their own AuthProvider.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// authInfoKey is the gin context key for storing AuthInfo.
const authInfoKey = "silsila_auth_info"

// AuthInfo describes an authenticated caller.
type AuthInfo struct {
	// UserID is the stable identity of the caller.
	UserID string

	// Roles the caller holds. The moderation endpoints require
	// RoleModerator.
	Roles []string
}

// RoleModerator grants access to the moderation endpoints.
const RoleModerator = "moderator"

// HasRole reports whether the caller holds the given role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates bearer tokens.
type AuthProvider interface {
	// Validate checks token and returns the caller's identity.
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// ErrInvalidToken is returned by providers for unusable tokens.
var ErrInvalidToken = errors.New("invalid token")

// NopAuthProvider accepts every request as a local moderator. Default
// for standalone deployments.
type NopAuthProvider struct{}

// Validate always succeeds with a fixed local identity.
func (NopAuthProvider) Validate(_ context.Context, _ string) (*AuthInfo, error) {
	return &AuthInfo{
		UserID: "local-user",
		Roles:  []string{RoleModerator},
	}, nil
}

// SetAuthInfo stores the authenticated user info in the gin context.
func SetAuthInfo(c *gin.Context, info *AuthInfo) {
	c.Set(authInfoKey, info)
}

// GetAuthInfo retrieves the authenticated user info, if any.
func GetAuthInfo(c *gin.Context) (*AuthInfo, bool) {
	value, exists := c.Get(authInfoKey)
	if !exists {
		return nil, false
	}
	info, ok := value.(*AuthInfo)
	return info, ok
}

// AuthMiddleware authenticates requests via the given provider.
//
// The token comes from "Authorization: Bearer <token>". A missing header
// is passed through with an empty token so NopAuthProvider deployments
// work without any header at all; real providers reject empty tokens.
func AuthMiddleware(provider AuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		header := c.GetHeader("Authorization")
		if header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					gin.H{"error": "malformed Authorization header"})
				return
			}
			token = parts[1]
		}

		info, err := provider.Validate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": "authentication failed"})
			return
		}

		SetAuthInfo(c, info)
		c.Next()
	}
}

// RequireRole gates a route group on a role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, ok := GetAuthInfo(c)
		if !ok || !info.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				gin.H{"error": "insufficient privileges"})
			return
		}
		c.Next()
	}
}
