// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the watchdog admin API on the given router.
func SetupRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		watchdog := v1.Group("/watchdog")
		{
			watchdog.GET("/status", h.HandleStatus)
			watchdog.POST("/check", h.HandleCheck)
			watchdog.POST("/backup", h.HandleBackup)
			watchdog.GET("/backup/export", h.HandleExport)
			watchdog.POST("/testfile", h.HandleTestFile)
			watchdog.POST("/settings", h.HandleSettings)
		}
	}
}
