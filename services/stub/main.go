// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command stub is a self-contained license backend for development and
// demos. It serves the same REST surface the MineDeck client expects,
// backed by a local SQLite file, so the deck can be exercised without
// the production API.
//
// Configuration is environment-only:
//
//	STUB_ADDR        listen address (default ":8000")
//	STUB_DB          sqlite path (default "minedeck_stub.db")
//	STUB_JWT_SECRET  token signing secret (default is dev-only)
//	STUB_UPLOAD_DIR  attachment directory (default "uploads")
//	OPENAI_API_KEY   enables /api/ai/analyze when set
package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AleutianAI/minedeck/pkg/logging"
)

type server struct {
	db        *gorm.DB
	logger    *logging.Logger
	jwtSecret []byte
	uploadDir string
	openAIKey string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Service: "minedeck-stub"})
	defer logger.Close()

	db, err := gorm.Open(sqlite.Open(envOr("STUB_DB", "minedeck_stub.db")), &gorm.Config{})
	if err != nil {
		logger.Error("open database failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(&License{}, &LicenseFile{}, &User{}, &ActivityLog{}); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	uploadDir := envOr("STUB_UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0750); err != nil {
		logger.Error("create upload dir failed", "dir", uploadDir, "error", err)
		os.Exit(1)
	}

	s := &server{
		db:        db,
		logger:    logger,
		jwtSecret: []byte(envOr("STUB_JWT_SECRET", "minedeck-dev-secret")),
		uploadDir: uploadDir,
		openAIKey: os.Getenv("OPENAI_API_KEY"),
	}
	s.seedAdmin()

	addr := envOr("STUB_ADDR", ":8000")
	logger.Info("stub backend listening", "addr", addr, "ai_enabled", s.openAIKey != "")
	if err := s.router().Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func (s *server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	r.POST("/auth/login", s.login)
	r.POST("/auth/register", s.register)
	r.GET("/auth/users", s.listUsers)
	r.PUT("/auth/users/:id", s.updateUser)
	r.DELETE("/auth/users/:id", s.deleteUser)

	r.POST("/activity/log", s.logActivity)
	r.GET("/activity/logs", s.listActivity)
	r.GET("/activity/logs/user/:id", s.listUserActivity)

	r.GET("/licenses", s.listLicenses)
	r.POST("/licenses", s.createLicense)
	// Fixed paths are registered before the :id routes so gin does not
	// swallow them as IDs.
	r.POST("/licenses/batch-delete", s.batchDelete)
	r.GET("/licenses/export", s.exportCSV)
	r.GET("/licenses/template", s.templateCSV)
	r.POST("/licenses/import", s.importCSV)
	r.PUT("/licenses/:id", s.updateLicense)
	r.DELETE("/licenses/:id", s.deleteLicense)
	r.POST("/licenses/:id/files", s.uploadFile)
	r.GET("/licenses/:id/files", s.listFiles)
	r.DELETE("/files/:id", s.deleteFile)
	r.Static("/files", s.uploadDir)

	r.POST("/api/ai/analyze", s.analyze)
	return r
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}
