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
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

type sessionClaims struct {
	Role string `json:"role"`
	ID   string `json:"id"`
	jwt.RegisteredClaims
}

func (s *server) issueToken(u User) (string, error) {
	claims := sessionClaims{
		Role: u.Role,
		ID:   u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// seedAdmin creates the default admin account on first run.
func (s *server) seedAdmin() {
	var count int64
	s.db.Model(&User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return
	}
	admin := User{ID: uuid.NewString(), Username: "admin", Role: "admin"}
	if err := admin.SetPassword("admin123"); err != nil {
		s.logger.Error("seed admin failed", "error", err)
		return
	}
	if err := s.db.Create(&admin).Error; err != nil {
		s.logger.Error("seed admin failed", "error", err)
		return
	}
	s.logger.Info("default admin created", "username", "admin")
}

func (s *server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "username and password are required")
		return
	}

	var user User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.String(http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := user.CheckPassword(req.Password); err != nil {
		c.String(http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		c.String(http.StatusInternalServerError, "token generation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"username":     user.Username,
		"role":         user.Role,
		"id":           user.ID,
	})
}

func (s *server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	var existing User
	err := s.db.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		c.String(http.StatusBadRequest, "Username already taken")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	user := User{ID: uuid.NewString(), Username: req.Username, Role: req.Role}
	if err := user.SetPassword(req.Password); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.db.Create(&user).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "username": user.Username, "role": user.Role})
}

func (s *server) listUsers(c *gin.Context) {
	var users []User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":         u.ID,
			"username":   u.Username,
			"role":       u.Role,
			"created_at": u.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) updateUser(c *gin.Context) {
	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	var user User
	if err := s.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
	}
	if err := s.db.Save(&user).Error; err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *server) deleteUser(c *gin.Context) {
	res := s.db.Delete(&User{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		c.String(http.StatusInternalServerError, res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
