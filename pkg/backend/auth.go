// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backend

import (
	"context"
	"net/http"
)

// Session is the backend's answer to a successful login. The client
// persists it locally and replays the token on every request.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	UserID      string `json:"id"`
}

// User is a backend account row (admin surface).
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// UserUpdate is a partial account update; nil fields are left untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Login exchanges credentials for a bearer session and installs the token
// on the client.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var sess Session
	payload := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", payload, &sess); err != nil {
		return Session{}, err
	}
	c.SetToken(sess.AccessToken)
	return sess, nil
}

// Register creates an account. Role is "admin" or "user".
func (c *Client) Register(ctx context.Context, username, password, role string) error {
	payload := map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	}
	return c.doJSON(ctx, "register", http.MethodPost, "/auth/register", payload, nil)
}

// Users lists all accounts, newest first.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.doJSON(ctx, "list users", http.MethodGet, "/auth/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser applies a partial account update.
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) error {
	return c.doJSON(ctx, "update user", http.MethodPut, "/auth/users/"+id, update, nil)
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete user", http.MethodDelete, "/auth/users/"+id, nil, nil)
}
