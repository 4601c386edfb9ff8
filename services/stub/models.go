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
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// License is a mining license record. Column names stay snake_case in
// the database while the wire format is camelCase, matching the
// production API.
type License struct {
	ID            string `gorm:"primaryKey;size:255"`
	Company       string
	Country       string
	Region        string
	Commodity     string
	LicenseType   string
	Status        string
	Lat           *float64
	Lng           *float64
	PhoneNumber   string
	ContactPerson string

	// Marketplace fields, set through partial updates.
	Capacity    *float64
	PricePerTon *float64
	Comment     string
	Published   bool

	DateIssued *time.Time
}

// wire renders the record in the camelCase shape clients expect.
func (l License) wire() gin.H {
	var date any
	if l.DateIssued != nil {
		date = l.DateIssued.Format("2006-01-02")
	}
	return gin.H{
		"id":            l.ID,
		"company":       l.Company,
		"licenseType":   l.LicenseType,
		"commodity":     l.Commodity,
		"status":        l.Status,
		"date":          date,
		"country":       l.Country,
		"region":        l.Region,
		"lat":           l.Lat,
		"lng":           l.Lng,
		"phoneNumber":   l.PhoneNumber,
		"contactPerson": l.ContactPerson,
	}
}

// LicenseFile is a dossier attachment row.
type LicenseFile struct {
	ID         string `gorm:"primaryKey;size:255"`
	LicenseID  string `gorm:"index;size:255"`
	Filename   string
	FilePath   string
	UploadDate time.Time
}

// User is a backend account.
type User struct {
	ID           string `gorm:"primaryKey;size:255"`
	Username     string `gorm:"uniqueIndex;size:255"`
	PasswordHash string
	Role         string `gorm:"size:50;default:user"`
	CreatedAt    time.Time
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// ActivityLog is one audit trail row.
type ActivityLog struct {
	ID        string `gorm:"primaryKey;size:255"`
	UserID    string `gorm:"index;size:255"`
	Username  string
	Action    string
	Details   string
	Timestamp time.Time
}

func (a ActivityLog) wire() gin.H {
	return gin.H{
		"id":        a.ID,
		"user_id":   a.UserID,
		"username":  a.Username,
		"action":    a.Action,
		"details":   a.Details,
		"timestamp": a.Timestamp.Format(time.RFC3339),
	}
}
