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
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *server) listLicenses(c *gin.Context) {
	var rows []License
	if err := s.db.Find(&rows).Error; err != nil {
		// Mirrors the production API's quirk of reporting database
		// trouble as an object with HTTP 200; clients detect the shape.
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, l := range rows {
		out = append(out, l.wire())
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) createLicense(c *gin.Context) {
	var req struct {
		Company       string   `json:"company" binding:"required"`
		Country       string   `json:"country" binding:"required"`
		Region        string   `json:"region"`
		Commodity     string   `json:"commodity"`
		LicenseType   string   `json:"licenseType"`
		Status        string   `json:"status"`
		Lat           *float64 `json:"lat"`
		Lng           *float64 `json:"lng"`
		PhoneNumber   string   `json:"phoneNumber"`
		ContactPerson string   `json:"contactPerson"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = "Operating"
	}

	l := License{
		ID:            uuid.NewString(),
		Company:       req.Company,
		Country:       req.Country,
		Region:        req.Region,
		Commodity:     req.Commodity,
		LicenseType:   req.LicenseType,
		Status:        req.Status,
		Lat:           req.Lat,
		Lng:           req.Lng,
		PhoneNumber:   req.PhoneNumber,
		ContactPerson: req.ContactPerson,
	}
	if err := s.db.Create(&l).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, l.wire())
}

// updateLicense applies a partial update. The interesting fields are
// the marketplace ones: capacity, pricePerTon, and the one-shot publish
// trigger. Publish only succeeds once capacity and price are present.
func (s *server) updateLicense(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	var l License
	if err := s.db.First(&l, "id = ?", c.Param("id")).Error; err != nil {
		c.String(http.StatusNotFound, "License not found")
		return
	}

	if v, ok := asFloat(fields["capacity"]); ok {
		l.Capacity = &v
	}
	if v, ok := asFloat(fields["pricePerTon"]); ok {
		l.PricePerTon = &v
	}
	if v, ok := fields["status"].(string); ok {
		l.Status = v
	}
	if v, ok := fields["commodity"].(string); ok {
		l.Commodity = v
	}
	if v, ok := fields["licenseType"].(string); ok {
		l.LicenseType = v
	}
	if v, ok := fields["comment"].(string); ok {
		l.Comment = v
	}
	if v, ok := fields["contactPerson"].(string); ok {
		l.ContactPerson = v
	}
	if v, ok := fields["phoneNumber"].(string); ok {
		l.PhoneNumber = v
	}

	published := false
	if v, ok := fields["publish"].(bool); ok && v {
		if l.Capacity != nil && l.PricePerTon != nil {
			l.Published = true
			published = true
		}
	}

	if err := s.db.Save(&l).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"published": published})
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (s *server) deleteLicense(c *gin.Context) {
	res := s.db.Delete(&License{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		c.String(http.StatusInternalServerError, res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		c.String(http.StatusNotFound, fmt.Sprintf("License %s not found", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_id": c.Param("id")})
}

func (s *server) batchDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_count": 0})
		return
	}
	res := s.db.Delete(&License{}, "id IN ?", req.IDs)
	if res.Error != nil {
		c.String(http.StatusInternalServerError, res.Error.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_count": res.RowsAffected})
}

var csvHeader = []string{
	"id", "company", "country", "region", "commodity", "license_type",
	"status", "lat", "lng", "phone_number", "contact_person", "date_issued",
}

func (s *server) exportCSV(c *gin.Context) {
	var rows []License
	if err := s.db.Find(&rows).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=licenses_export.csv")

	w := csv.NewWriter(c.Writer)
	_ = w.Write(csvHeader)
	for _, l := range rows {
		date := ""
		if l.DateIssued != nil {
			date = l.DateIssued.Format("2006-01-02")
		}
		_ = w.Write([]string{
			l.ID, l.Company, l.Country, l.Region, l.Commodity, l.LicenseType,
			l.Status, floatField(l.Lat), floatField(l.Lng),
			l.PhoneNumber, l.ContactPerson, date,
		})
	}
	w.Flush()
}

func floatField(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func (s *server) templateCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=import_template.csv")

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"company", "country", "region", "commodity", "license_type",
		"status", "lat", "lng", "phone_number", "contact_person",
	})
	_ = w.Write([]string{
		"Example Mining Co", "Ghana", "Ashanti", "Gold", "Large Scale",
		"Operating", "6.5", "-1.5", "+233...", "John Doe",
	})
	w.Flush()
}

func (s *server) importCSV(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "No valid rows found or file is empty"})
		return
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	get := func(row []string, name, fallback string) string {
		i, ok := col[name]
		if !ok || i >= len(row) || row[i] == "" {
			return fallback
		}
		return row[i]
	}

	var batch []License
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		// Rows without a company or position are skipped, not rejected.
		if get(row, "company", "") == "" || get(row, "lat", "") == "" || get(row, "lng", "") == "" {
			continue
		}
		lat, latErr := strconv.ParseFloat(get(row, "lat", "0"), 64)
		lng, lngErr := strconv.ParseFloat(get(row, "lng", "0"), 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		batch = append(batch, License{
			ID:            uuid.NewString(),
			Company:       get(row, "company", ""),
			Country:       get(row, "country", "Ghana"),
			Region:        get(row, "region", ""),
			Commodity:     get(row, "commodity", ""),
			LicenseType:   get(row, "license_type", "Unknown"),
			Status:        get(row, "status", "Unknown"),
			Lat:           &lat,
			Lng:           &lng,
			PhoneNumber:   get(row, "phone_number", ""),
			ContactPerson: get(row, "contact_person", ""),
		})
	}

	if len(batch) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "No valid rows found or file is empty"})
		return
	}
	if err := s.db.Create(&batch).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "imported_count": len(batch)})
}
