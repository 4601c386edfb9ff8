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
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

// analyze answers a free-form question about the license data. The
// dataset summary rides along in the prompt; per-record context would
// blow the token budget on large datasets.
func (s *server) analyze(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "query is required")
		return
	}

	if s.openAIKey == "" {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": "AI analysis is not configured on this server",
		})
		return
	}

	summary, err := s.datasetSummary()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	client := openai.NewClient(s.openAIKey)
	resp, err := client.CreateChatCompletion(c.Request.Context(), openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a mining license analyst. Answer using only the " +
					"dataset summary provided. Be concise.\n\n" + summary,
			},
			{Role: openai.ChatMessageRoleUser, Content: req.Query},
		},
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if len(resp.Choices) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "empty model response"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"analysis": resp.Choices[0].Message.Content,
	})
}

// datasetSummary aggregates the license table into prompt-sized facts.
func (s *server) datasetSummary() (string, error) {
	var total int64
	if err := s.db.Model(&License{}).Count(&total).Error; err != nil {
		return "", err
	}

	type bucket struct {
		Name  string
		Count int64
	}
	groupCounts := func(column string) ([]bucket, error) {
		var buckets []bucket
		err := s.db.Model(&License{}).
			Select(column + " AS name, COUNT(*) AS count").
			Group(column).Order("count DESC").Limit(15).
			Scan(&buckets).Error
		return buckets, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total licenses: %d\n", total)
	for _, column := range []string{"commodity", "country", "region", "status", "license_type"} {
		buckets, err := groupCounts(column)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s counts:", column)
		for _, bk := range buckets {
			name := bk.Name
			if name == "" {
				name = "unknown"
			}
			fmt.Fprintf(&b, " %s=%d", name, bk.Count)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
