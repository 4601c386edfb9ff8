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

// Analyze sends a free-text query to the backend's AI analysis endpoint
// and returns the analysis text.
//
// The model behind the endpoint is the backend's concern; the client only
// sees {status, analysis|message}.
func (c *Client) Analyze(ctx context.Context, query string) (string, error) {
	const op = "ai analyze"

	var out struct {
		Status   string `json:"status"`
		Analysis string `json:"analysis"`
		Message  string `json:"message"`
	}
	payload := map[string]string{"query": query}
	if err := c.doJSON(ctx, op, http.MethodPost, "/api/ai/analyze", payload, &out); err != nil {
		return "", err
	}
	if out.Status != "success" {
		return "", &APIError{Type: ErrStatus, Op: op, Message: out.Message}
	}
	return out.Analysis, nil
}
