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
	"fmt"
	"net/http"
)

// ActivityEntry is one audit trail row.
type ActivityEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// LogActivity appends an audit trail entry.
//
// Callers treat this as fire-and-forget: a lost audit row must never block
// the action it describes, so failures are logged and swallowed at the
// call site.
func (c *Client) LogActivity(ctx context.Context, userID, username, action, details string) error {
	payload := map[string]string{
		"user_id":  userID,
		"username": username,
		"action":   action,
		"details":  details,
	}
	return c.doJSON(ctx, "log activity", http.MethodPost, "/activity/log", payload, nil)
}

// ActivityLogs fetches the newest audit entries, up to limit (backend
// default when limit <= 0).
func (c *Client) ActivityLogs(ctx context.Context, limit int) ([]ActivityEntry, error) {
	path := "/activity/logs"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var entries []ActivityEntry
	if err := c.doJSON(ctx, "list activity", http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// UserActivityLogs fetches the audit entries for one account.
func (c *Client) UserActivityLogs(ctx context.Context, userID string) ([]ActivityEntry, error) {
	var entries []ActivityEntry
	if err := c.doJSON(ctx, "list user activity", http.MethodGet, "/activity/logs/user/"+userID, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
