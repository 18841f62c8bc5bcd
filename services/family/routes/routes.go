// Copyright (C) 2025 Silsila Project (maintainers@silsila.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/silsila-app/silsila/services/family/handlers"
	"github.com/silsila-app/silsila/services/family/middleware"
	"github.com/silsila-app/silsila/services/family/store"
)

// SetupRoutes registers the family API on router.
//
// Read endpoints are open; mutations and moderation run behind the auth
// middleware, with moderation additionally gated on the moderator role.
func SetupRoutes(router *gin.Engine, s *store.Store, authProvider middleware.AuthProvider) {
	if authProvider == nil {
		authProvider = middleware.NopAuthProvider{}
	}

	router.GET("/health", handlers.HealthCheck)

	// API version 1 group
	v1 := router.Group("/v1")
	{
		members := v1.Group("/members")
		{
			members.GET("", handlers.ListPersons(s))
			members.GET("/:id", handlers.GetPerson(s))
			members.GET("/:id/ancestry", handlers.Ancestry(s))
			members.GET("/:id/family", handlers.Family(s))
			members.GET("/:id/graph", handlers.Graph(s))

			authed := members.Group("", middleware.AuthMiddleware(authProvider))
			{
				authed.POST("", handlers.CreatePerson(s))
				authed.PUT("/:id", handlers.UpdatePerson(s))
				authed.DELETE("/:id", handlers.DeletePerson(s))
				authed.POST("/:id/prominent", handlers.SetProminent(s))
				authed.POST("/addChild", handlers.AddChild(s))
				authed.POST("/addSpouse", handlers.AddSpouse(s))
				authed.POST("/:id/children/:childId", handlers.AttachChild(s))
			}
		}

		relations := v1.Group("/relations", middleware.AuthMiddleware(authProvider))
		{
			relations.POST("", handlers.LinkRelation(s))
			relations.DELETE("", handlers.UnlinkRelation(s))
		}

		moderation := v1.Group("/moderation",
			middleware.AuthMiddleware(authProvider),
			middleware.RequireRole(middleware.RoleModerator))
		{
			moderation.GET("/pending", handlers.ListPending(s))
			moderation.POST("/:id", handlers.Moderate(s))
		}

		v1.GET("/search", handlers.Search(s))
		v1.GET("/prominent", handlers.ListProminent(s))

		counter := v1.Group("/counter")
		{
			counter.GET("", handlers.GetCounter(s))
			counter.POST("", handlers.IncrementCounter(s))
		}
	}
}
