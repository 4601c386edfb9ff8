// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backend is the HTTP client for the licenses backend.
//
// # Description
//
// The backend is an external collaborator: license storage, auth, file
// storage, activity logs, and the AI analysis endpoint all live behind its
// REST surface. This package wraps that surface with typed methods and a
// structured error type so callers can distinguish transport failures from
// non-success statuses from malformed payloads.
//
// Every method takes a context and returns an explicit error; nothing is
// retried here. The UI decides whether a failure becomes a transient notice
// (mutations) or a persistent inline error state (reads).
//
// # Thread Safety
//
// Client is safe for concurrent use after construction. SetToken must not
// race with in-flight requests; in practice it is called once after login.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// Error Types
// =============================================================================

// ErrorType categorizes request failures for programmatic handling.
type ErrorType int

const (
	// ErrConnection indicates the backend was not reachable.
	ErrConnection ErrorType = iota

	// ErrStatus indicates the backend answered with a non-success status.
	ErrStatus

	// ErrDecode indicates the response body had an unexpected shape.
	ErrDecode
)

// String returns the error type as a string for logging.
func (t ErrorType) String() string {
	switch t {
	case ErrConnection:
		return "CONNECTION_FAILED"
	case ErrStatus:
		return "BAD_STATUS"
	case ErrDecode:
		return "INVALID_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// APIError provides structured error information for backend calls.
type APIError struct {
	// Type categorizes the error.
	Type ErrorType

	// Op is the logical operation, e.g. "list licenses".
	Op string

	// StatusCode is the HTTP status for ErrStatus errors, zero otherwise.
	StatusCode int

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Client
// =============================================================================

// Client talks to the licenses backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:8000".
//
// The default timeout is generous because CSV export/import can move whole
// datasets in one request.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetToken installs the bearer token sent with subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHTTPClient overrides the underlying HTTP client (tests).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// do issues a request and returns the raw response. Non-2xx statuses are
// converted to an APIError after draining a short error body excerpt.
func (c *Client) do(ctx context.Context, op, method, path string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &APIError{Type: ErrConnection, Op: op, Message: "build request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Type: ErrConnection, Op: op, Message: "backend unreachable", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		msg := string(bytes.TrimSpace(excerpt))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Type: ErrStatus, Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out (skipped when out is nil).
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return &APIError{Type: ErrDecode, Op: op, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, op, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Type: ErrDecode, Op: op, Message: "decode response", Err: err}
	}
	return nil
}
