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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Error Type Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	assert.Equal(t, "CONNECTION_FAILED", ErrConnection.String())
	assert.Equal(t, "BAD_STATUS", ErrStatus.String())
	assert.Equal(t, "INVALID_RESPONSE", ErrDecode.String())
	assert.Equal(t, "UNKNOWN", ErrorType(99).String())
}

func TestAPIError_Error(t *testing.T) {
	withStatus := &APIError{Type: ErrStatus, Op: "list licenses", StatusCode: 500, Message: "boom"}
	assert.Equal(t, "list licenses: boom (HTTP 500)", withStatus.Error())

	withoutStatus := &APIError{Type: ErrConnection, Op: "login", Message: "backend unreachable"}
	assert.Equal(t, "login: backend unreachable", withoutStatus.Error())
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &APIError{Err: inner}
	assert.ErrorIs(t, err, inner)
}

// =============================================================================
// Licenses Tests
// =============================================================================

func TestLicenses_DecodesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licenses", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"1","company":"Zephyr Mining","lat":6.5,"lng":-1.5}]`))
	}))
	defer srv.Close()

	records, err := New(srv.URL).Licenses(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Zephyr Mining", records[0].Company)
	assert.True(t, records[0].HasCoordinates())
}

func TestLicenses_ObjectBodyIsDecodeError(t *testing.T) {
	// Some backend failure modes answer HTTP 200 with an error object.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"database unavailable"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Licenses(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrDecode, apiErr.Type)
}

func TestLicenses_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Licenses(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrStatus, apiErr.Type)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "nope")
}

func TestLicenses_ConnectionError(t *testing.T) {
	// A closed server gives a refused connection.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).Licenses(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrConnection, apiErr.Type)
}

func TestCreateLicense_ValidatesBeforeSending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid request must not reach the network")
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateLicense(context.Background(), CreateLicenseRequest{Company: "No Country"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrDecode, apiErr.Type)

	bad := 200.0
	_, err = New(srv.URL).CreateLicense(context.Background(), CreateLicenseRequest{
		Company: "X", Country: "Ghana", Lat: &bad,
	})
	assert.Error(t, err, "latitude out of range")
}

func TestUpdateLicense_SendsFieldsAndReadsPublished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/licenses/lic-7", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"capacity": 100.0, "publish": true}, body)

		_ = json.NewEncoder(w).Encode(map[string]any{"published": true})
	}))
	defer srv.Close()

	result, err := New(srv.URL).UpdateLicense(context.Background(), "lic-7",
		map[string]any{"capacity": 100.0, "publish": true})
	require.NoError(t, err)
	assert.True(t, result.Published)
}

func TestBatchDelete_ReturnsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licenses/batch-delete", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body["ids"])

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "deleted_count": 2})
	}))
	defer srv.Close()

	n, err := New(srv.URL).BatchDelete(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExport_StreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/licenses/export", r.URL.Path)
		_, _ = w.Write([]byte("id,company\n1,Zephyr\n"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, New(srv.URL).Export(context.Background(), &buf))
	assert.Equal(t, "id,company\n1,Zephyr\n", buf.String())
}

func TestImport_SuccessAndFailureEnvelopes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "rows.csv", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "imported_count": 3})
	}))
	defer srv.Close()

	n, err := New(srv.URL).Import(context.Background(), "rows.csv", strings.NewReader("company\nA\nB\nC\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Import errors come back as HTTP 200 with a status envelope.
	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "bad header"})
	}))
	defer failSrv.Close()

	_, err = New(failSrv.URL).Import(context.Background(), "rows.csv", strings.NewReader("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrStatus, apiErr.Type)
	assert.Contains(t, apiErr.Message, "bad header")
}

// =============================================================================
// Auth Tests
// =============================================================================

func TestLogin_InstallsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-123",
				"token_type":   "bearer",
				"username":     "ama",
				"role":         "admin",
				"id":           "9",
			})
		case "/licenses":
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	sess, err := c.Login(context.Background(), "ama", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ama", sess.Username)
	assert.Equal(t, "9", sess.UserID)

	_, err = c.Licenses(context.Background())
	require.NoError(t, err)
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), "x", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
