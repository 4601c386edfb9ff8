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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// safeFilename strips anything that could escape the upload directory.
func safeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unnamed_file"
	}
	return b.String()
}

func (s *server) uploadFile(c *gin.Context) {
	licenseID := c.Param("id")

	var l License
	if err := s.db.First(&l, "id = ?", licenseID).Error; err != nil {
		c.String(http.StatusNotFound, "License not found")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	fileID := uuid.NewString()
	stored := fileID + "_" + safeFilename(header.Filename)
	dst, err := os.Create(filepath.Join(s.uploadDir, stored))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	rec := LicenseFile{
		ID:         fileID,
		LicenseID:  licenseID,
		Filename:   header.Filename,
		FilePath:   "/files/" + stored,
		UploadDate: time.Now(),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       rec.ID,
		"filename": rec.Filename,
		"url":      rec.FilePath,
	})
}

func (s *server) listFiles(c *gin.Context) {
	var files []LicenseFile
	err := s.db.Where("license_id = ?", c.Param("id")).
		Order("upload_date DESC").Find(&files).Error
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(files))
	for _, f := range files {
		out = append(out, gin.H{
			"id":       f.ID,
			"filename": f.Filename,
			"url":      f.FilePath,
			"date":     f.UploadDate.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) deleteFile(c *gin.Context) {
	var rec LicenseFile
	if err := s.db.First(&rec, "id = ?", c.Param("id")).Error; err == nil {
		stored := strings.TrimPrefix(rec.FilePath, "/files/")
		_ = os.Remove(filepath.Join(s.uploadDir, stored))
	}
	if err := s.db.Delete(&LicenseFile{}, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
