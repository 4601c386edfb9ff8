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
	"io"
	"mime/multipart"
	"net/http"
)

// File is one document attached to a license record.
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Date     string `json:"date"`
}

// Files lists the documents attached to a license, newest first.
func (c *Client) Files(ctx context.Context, licenseID string) ([]File, error) {
	var files []File
	if err := c.doJSON(ctx, "list files", http.MethodGet, "/licenses/"+licenseID+"/files", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// UploadFile attaches a document to a license record.
func (c *Client) UploadFile(ctx context.Context, licenseID, filename string, r io.Reader) (File, error) {
	const op = "upload file"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return File{}, &APIError{Type: ErrConnection, Op: op, Message: "build upload", Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return File{}, &APIError{Type: ErrConnection, Op: op, Message: "read file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return File{}, &APIError{Type: ErrConnection, Op: op, Message: "build upload", Err: err}
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/licenses/"+licenseID+"/files", mw.FormDataContentType(), &buf)
	if err != nil {
		return File{}, err
	}
	defer resp.Body.Close()

	var uploaded File
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return File{}, &APIError{Type: ErrDecode, Op: op, Message: "decode response", Err: err}
	}
	return uploaded, nil
}

// DeleteFile removes an attached document.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, "delete file", http.MethodDelete, "/files/"+fileID, nil, nil)
}
