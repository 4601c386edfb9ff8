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
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/minedeck/pkg/license"
)

var validate = validator.New()

// CreateLicenseRequest is the payload for creating a license record.
// Validation mirrors what the backend enforces so obviously bad input
// fails before the network round trip.
type CreateLicenseRequest struct {
	Company       string   `json:"company" validate:"required"`
	Country       string   `json:"country" validate:"required"`
	Region        string   `json:"region,omitempty"`
	Commodity     string   `json:"commodity,omitempty"`
	LicenseType   string   `json:"licenseType,omitempty"`
	Status        string   `json:"status,omitempty"`
	Lat           *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng           *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PhoneNumber   string   `json:"phoneNumber,omitempty"`
	ContactPerson string   `json:"contactPerson,omitempty"`
}

// UpdateResult is the backend's answer to a partial update. Published is
// set when the update's publish trigger caused the record to be exported
// externally.
type UpdateResult struct {
	Published bool `json:"published"`
}

// Licenses fetches all license records.
//
// Description:
//
//	The backend returns a bare JSON array. Some failure modes return an
//	object instead (e.g. {"error": ...} with HTTP 200), so the shape is
//	checked explicitly: a non-array payload is an ErrDecode, not a panic
//	deep inside the view layer.
//
// Outputs:
//
//	[]license.Record - The server's records, in server order.
//	error - *APIError on transport, status, or shape failures.
func (c *Client) Licenses(ctx context.Context) ([]license.Record, error) {
	const op = "list licenses"

	resp, err := c.do(ctx, op, http.MethodGet, "/licenses", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &APIError{Type: ErrDecode, Op: op, Message: "decode response", Err: err}
	}
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &APIError{Type: ErrDecode, Op: op, Message: "expected array, got object"}
	}

	var records []license.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &APIError{Type: ErrDecode, Op: op, Message: "decode records", Err: err}
	}
	return records, nil
}

// CreateLicense creates a record and returns the backend's echo, which
// carries the assigned id.
func (c *Client) CreateLicense(ctx context.Context, req CreateLicenseRequest) (license.Record, error) {
	const op = "create license"

	if err := validate.Struct(req); err != nil {
		return license.Record{}, &APIError{Type: ErrDecode, Op: op, Message: "invalid request", Err: err}
	}

	var created license.Record
	if err := c.doJSON(ctx, op, http.MethodPost, "/licenses", req, &created); err != nil {
		return license.Record{}, err
	}
	return created, nil
}

// UpdateLicense sends a translated annotation patch as a partial update.
// The fields map uses the backend's external field names.
func (c *Client) UpdateLicense(ctx context.Context, id string, fields map[string]any) (UpdateResult, error) {
	var result UpdateResult
	err := c.doJSON(ctx, "update license", http.MethodPut, "/licenses/"+id, fields, &result)
	return result, err
}

// DeleteLicense deletes a single record.
func (c *Client) DeleteLicense(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete license", http.MethodDelete, "/licenses/"+id, nil, nil)
}

// BatchDelete deletes many records in one request and returns the count
// the backend reports as deleted.
//
// One request for the whole id list avoids partial-failure ambiguity: the
// operation is all-or-nothing from the client's perspective.
func (c *Client) BatchDelete(ctx context.Context, ids []string) (int, error) {
	var out struct {
		DeletedCount int `json:"deleted_count"`
	}
	payload := map[string][]string{"ids": ids}
	if err := c.doJSON(ctx, "batch delete licenses", http.MethodPost, "/licenses/batch-delete", payload, &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

// Export streams the CSV export into w.
func (c *Client) Export(ctx context.Context, w io.Writer) error {
	const op = "export licenses"

	resp, err := c.do(ctx, op, http.MethodGet, "/licenses/export", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &APIError{Type: ErrConnection, Op: op, Message: "stream export", Err: err}
	}
	return nil
}

// Template streams the CSV import template into w.
func (c *Client) Template(ctx context.Context, w io.Writer) error {
	const op = "download template"

	resp, err := c.do(ctx, op, http.MethodGet, "/licenses/template", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &APIError{Type: ErrConnection, Op: op, Message: "stream template", Err: err}
	}
	return nil
}

// Import uploads a CSV file for bulk creation and returns the imported
// row count.
func (c *Client) Import(ctx context.Context, filename string, r io.Reader) (int, error) {
	const op = "import licenses"

	// Import files are small CSVs; buffering the form keeps the request
	// body seekable and the code simple.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return 0, &APIError{Type: ErrConnection, Op: op, Message: "build upload", Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return 0, &APIError{Type: ErrConnection, Op: op, Message: "read import file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return 0, &APIError{Type: ErrConnection, Op: op, Message: "build upload", Err: err}
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/licenses/import", mw.FormDataContentType(), &buf)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var out struct {
		Status        string `json:"status"`
		ImportedCount int    `json:"imported_count"`
		Message       string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, &APIError{Type: ErrDecode, Op: op, Message: "decode response", Err: err}
	}
	if out.Status != "success" {
		return 0, &APIError{Type: ErrStatus, Op: op, Message: fmt.Sprintf("import failed: %s", out.Message)}
	}
	return out.ImportedCount, nil
}
