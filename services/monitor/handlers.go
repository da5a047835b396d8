// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServiceVersion is the watchdog service version.
const ServiceVersion = "1.0.0"

// ErrorResponse is the JSON error body returned by the admin API.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}

// SettingsRequest is the body of POST /v1/watchdog/settings.
type SettingsRequest struct {
	// OutFilePath is the flat-file backup target. Absent leaves the
	// stored path untouched; blank clears it (appdata mode).
	OutFilePath *string `json:"out_file_path"`

	// IntervalMinutes is the polling period; values below one are
	// clamped to one.
	IntervalMinutes int `json:"interval_minutes"`

	// Enabled toggles scheduled checks when present.
	Enabled *bool `json:"enabled,omitempty"`
}

// Handlers contains the HTTP handlers for the watchdog admin API.
type Handlers struct {
	monitor *Monitor
}

// NewHandlers creates handlers over the given monitor.
func NewHandlers(monitor *Monitor) *Handlers {
	return &Handlers{monitor: monitor}
}

// HandleStatus handles GET /v1/watchdog/status.
//
// Response:
//
//	200 OK: StatusMeta
func (h *Handlers) HandleStatus(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleStatus")

	meta := h.monitor.StatusMeta(c.Request.Context())
	logger.Debug("Served status", "enabled", meta.Enabled)
	c.JSON(http.StatusOK, meta)
}

// HandleCheck handles POST /v1/watchdog/check.
//
// Description:
//
//	Runs one check-and-reconnect cycle on demand: a health probe,
//	followed by a configuration restore only when the probe failed.
//
// Response:
//
//	200 OK: Result with refreshed status metadata
func (h *Handlers) HandleCheck(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCheck")

	result := h.monitor.CheckAndReconnect(c.Request.Context())
	logger.Info("Manual check finished", "ok", result.OK, "action", result.Action)
	c.JSON(http.StatusOK, result)
}

// HandleBackup handles POST /v1/watchdog/backup.
//
// Description:
//
//	Captures the live connector configuration and writes both backup
//	forms: the canonical snapshot and the flat out file.
//
// Response:
//
//	200 OK: Result
//	500 Internal Server Error: Result with failure message
func (h *Handlers) HandleBackup(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleBackup")

	result := h.monitor.BackupNow(c.Request.Context())
	if !result.OK {
		logger.Error("Manual backup failed", "message", result.Message)
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	logger.Info("Manual backup saved", "path", result.Path)
	c.JSON(http.StatusOK, result)
}

// HandleExport handles GET /v1/watchdog/backup/export.
//
// Description:
//
//	Returns the canonical snapshot as downloadable JSON, capturing a
//	fresh one when none is stored yet.
//
// Response:
//
//	200 OK: application/json snapshot
//	500 Internal Server Error: ErrorResponse
func (h *Handlers) HandleExport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleExport")

	payload, err := h.monitor.BackupJSON(c.Request.Context())
	if err != nil {
		logger.Error("Backup export failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to export backup",
			Code:  "EXPORT_FAILED",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="onlyoffice_backup.json"`)
	c.Data(http.StatusOK, "application/json", payload)
}

// HandleTestFile handles POST /v1/watchdog/testfile.
//
// Response:
//
//	200 OK: Result of the read/write diagnostic
func (h *Handlers) HandleTestFile(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleTestFile")

	result := h.monitor.TestOutFileAccess(c.Request.Context())
	logger.Info("File test finished", "ok", result.OK, "path", result.Path)
	c.JSON(http.StatusOK, result)
}

// HandleSettings handles POST /v1/watchdog/settings.
//
// Request Body:
//
//	SettingsRequest
//
// Response:
//
//	200 OK: Result
//	400 Bad Request: ErrorResponse
func (h *Handlers) HandleSettings(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSettings")

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	result := h.monitor.UpdateSettings(c.Request.Context(), req.OutFilePath, req.IntervalMinutes)
	if req.Enabled != nil {
		h.monitor.SetEnabled(c.Request.Context(), *req.Enabled)
	}

	logger.Info("Settings updated",
		"path_provided", req.OutFilePath != nil, "interval_minutes", req.IntervalMinutes)
	c.JSON(http.StatusOK, result)
}

// HealthCheck handles GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": ServiceVersion})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
