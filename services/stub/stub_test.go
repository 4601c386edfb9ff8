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
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/AleutianAI/minedeck/pkg/logging"
)

func newTestServer(t *testing.T) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// A named shared-cache database keeps gorm's connection pool on the
	// same in-memory store.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&License{}, &LicenseFile{}, &User{}, &ActivityLog{}))

	logger := logging.New(logging.Config{Quiet: true})
	t.Cleanup(func() { _ = logger.Close() })

	s := &server{
		db:        db,
		logger:    logger,
		jwtSecret: []byte("test-secret"),
		uploadDir: t.TempDir(),
	}
	s.seedAdmin()
	return s, s.router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// =============================================================================
// Auth Tests
// =============================================================================

func TestLogin_SeededAdmin(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin", "password": "admin123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "admin", body["username"])
	assert.Equal(t, "admin", body["role"])
}

func TestLogin_WrongPassword(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"username": "admin", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestRegister_DefaultsRoleAndRejectsDuplicates(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "ama", "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user", decode(t, w)["role"])

	w = doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "ama", "password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username already taken")
}

func TestDeleteUser_NotFound(t *testing.T) {
	_, r := newTestServer(t)
	w := doJSON(t, r, http.MethodDelete, "/auth/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUser_ChangesRoleAndPassword(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "kofi", "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/auth/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	var id string
	for _, u := range users {
		if u["username"] == "kofi" {
			id, _ = u["id"].(string)
		}
	}
	require.NotEmpty(t, id)

	w = doJSON(t, r, http.MethodPut, "/auth/users/"+id, map[string]string{
		"role": "admin", "password": "rotated",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "updated", decode(t, w)["status"])

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"username": "kofi", "password": "rotated",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", decode(t, w)["role"])
}

func TestUpdateUser_NotFound(t *testing.T) {
	_, r := newTestServer(t)
	w := doJSON(t, r, http.MethodPut, "/auth/users/ghost", map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// License Tests
// =============================================================================

func createTestLicense(t *testing.T, r *gin.Engine, company string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/licenses", map[string]any{
		"company": company, "country": "Ghana", "commodity": "Gold",
		"lat": 6.5, "lng": -1.5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	id, _ := decode(t, w)["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateLicense_DefaultsStatusOperating(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/licenses", map[string]any{
		"company": "Zephyr Mining", "country": "Ghana",
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Operating", body["status"])
	assert.Equal(t, "Zephyr Mining", body["company"])
	assert.NotEmpty(t, body["id"])
}

func TestCreateLicense_RequiresCompanyAndCountry(t *testing.T) {
	_, r := newTestServer(t)
	w := doJSON(t, r, http.MethodPost, "/licenses", map[string]any{"company": "No Country"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLicenses_ReturnsArray(t *testing.T) {
	_, r := newTestServer(t)
	createTestLicense(t, r, "A")
	createTestLicense(t, r, "B")

	w := doJSON(t, r, http.MethodGet, "/licenses", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)
	assert.Contains(t, out[0], "licenseType", "wire format is camelCase")
}

func TestUpdateLicense_PublishRequiresCapacityAndPrice(t *testing.T) {
	_, r := newTestServer(t)
	id := createTestLicense(t, r, "Marketplace Co")

	// Publish before quantity and price are set: refused, not an error.
	w := doJSON(t, r, http.MethodPut, "/licenses/"+id, map[string]any{"publish": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["published"])

	w = doJSON(t, r, http.MethodPut, "/licenses/"+id, map[string]any{
		"capacity": 500.0, "pricePerTon": 42.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPut, "/licenses/"+id, map[string]any{"publish": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["published"])
}

func TestUpdateLicense_AcceptsStringNumbers(t *testing.T) {
	_, r := newTestServer(t)
	id := createTestLicense(t, r, "String Numbers Co")

	w := doJSON(t, r, http.MethodPut, "/licenses/"+id, map[string]any{
		"capacity": "250", "pricePerTon": "10.5", "publish": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["published"])
}

func TestUpdateLicense_NotFound(t *testing.T) {
	_, r := newTestServer(t)
	w := doJSON(t, r, http.MethodPut, "/licenses/ghost", map[string]any{"comment": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLicense(t *testing.T) {
	_, r := newTestServer(t)
	id := createTestLicense(t, r, "Doomed Co")

	w := doJSON(t, r, http.MethodDelete, "/licenses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["deleted_id"])

	w = doJSON(t, r, http.MethodDelete, "/licenses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchDelete(t *testing.T) {
	_, r := newTestServer(t)
	a := createTestLicense(t, r, "A")
	b := createTestLicense(t, r, "B")
	createTestLicense(t, r, "Survivor")

	w := doJSON(t, r, http.MethodPost, "/licenses/batch-delete", map[string]any{
		"ids": []string{a, b, "ghost"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["deleted_count"])

	w = doJSON(t, r, http.MethodPost, "/licenses/batch-delete", map[string]any{"ids": []string{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["deleted_count"])
}

// =============================================================================
// Activity Tests
// =============================================================================

func TestActivity_LogAndList(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/activity/log", map[string]string{
		"user_id": "7", "username": "ama", "action": "login", "details": "cli",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logged", decode(t, w)["status"])

	doJSON(t, r, http.MethodPost, "/activity/log", map[string]string{
		"user_id": "8", "username": "kofi", "action": "delete_license",
	})

	w = doJSON(t, r, http.MethodGet, "/activity/logs?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)

	w = doJSON(t, r, http.MethodGet, "/activity/logs/user/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "ama", logs[0]["username"])
}

// =============================================================================
// CSV Tests
// =============================================================================

func TestExportCSV_HeaderAndRows(t *testing.T) {
	_, r := newTestServer(t)
	createTestLicense(t, r, "CSV Co")

	w := doJSON(t, r, http.MethodGet, "/licenses/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "licenses_export.csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Contains(t, lines[1], "CSV Co")
}

func TestImportCSV_SkipsIncompleteRows(t *testing.T) {
	_, r := newTestServer(t)

	csvBody := strings.Join([]string{
		"company,country,lat,lng,commodity",
		"Good Co,Ghana,6.5,-1.5,Gold",
		",Ghana,6.5,-1.5,Gold",        // no company, skipped
		"No Position Co,Ghana,,,Gold", // no coordinates, skipped
		"Bad Coords Co,Ghana,abc,def,Gold",
		"Also Good Co,,5.1,-0.2,Bauxite", // empty country defaults to Ghana
	}, "\n")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "import.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/licenses/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["imported_count"])

	// Defaults applied to the imported rows.
	list := doJSON(t, r, http.MethodGet, "/licenses", nil)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &rows))
	for _, row := range rows {
		if row["company"] == "Also Good Co" {
			assert.Equal(t, "Ghana", row["country"])
			assert.Equal(t, "Unknown", row["licenseType"])
		}
	}
}

func TestImportCSV_EmptyFileIsErrorEnvelope(t *testing.T) {
	_, r := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_, err := mw.CreateFormFile("file", "empty.csv")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/licenses/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Import failures come back HTTP 200 with a status envelope.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

// =============================================================================
// File Tests
// =============================================================================

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "site_photo.jpg", safeFilename("site photo.jpg"))
	assert.Equal(t, "..etcpasswd", safeFilename("../etc/passwd"))
	assert.Equal(t, "unnamed_file", safeFilename("///"))
}

func TestFileUploadListDelete(t *testing.T) {
	_, r := newTestServer(t)
	id := createTestLicense(t, r, "Dossier Co")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "site visit.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/licenses/"+id+"/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	uploaded := decode(t, w)
	fileID, _ := uploaded["id"].(string)
	require.NotEmpty(t, fileID)
	assert.Equal(t, "site visit.pdf", uploaded["filename"])

	list := doJSON(t, r, http.MethodGet, "/licenses/"+id+"/files", nil)
	var files []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &files))
	require.Len(t, files, 1)

	w = doJSON(t, r, http.MethodDelete, "/files/"+fileID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	list = doJSON(t, r, http.MethodGet, "/licenses/"+id+"/files", nil)
	files = nil
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &files))
	assert.Empty(t, files)
}

func TestFileUpload_UnknownLicense(t *testing.T) {
	_, r := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/licenses/ghost/files", strings.NewReader(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =============================================================================
// AI Tests
// =============================================================================

func TestAnalyze_UnconfiguredServer(t *testing.T) {
	_, r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/ai/analyze", map[string]string{"query": "top commodities?"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "not configured")
}
