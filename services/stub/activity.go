// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *server) logActivity(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Action   string `json:"action"`
		Details  string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	row := ActivityLog{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Username:  req.Username,
		Action:    req.Action,
		Details:   req.Details,
		Timestamp: time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		// The audit trail must not break the action it records.
		s.logger.Warn("activity log write failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "failed", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged"})
}

func (s *server) listActivity(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	var rows []ActivityLog
	if err := s.db.Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, wireLogs(rows))
}

func (s *server) listUserActivity(c *gin.Context) {
	var rows []ActivityLog
	err := s.db.Where("user_id = ?", c.Param("id")).
		Order("timestamp DESC").Find(&rows).Error
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, wireLogs(rows))
}

func wireLogs(rows []ActivityLog) []gin.H {
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.wire())
	}
	return out
}
