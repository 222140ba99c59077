// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"strings"
)

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is external-origin file content carried opaquely by the core.
// Conversion from raw bytes to extracted text (or a binary marker) happens
// in the UI layer before message construction; the core never interprets
// attachment bytes.
type Attachment struct {
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	SizeBytes     int64  `json:"sizeBytes"`
	ExtractedText string `json:"extractedText,omitempty"`
	IsBinary      bool   `json:"isBinary,omitempty"`
	Base64Payload string `json:"base64Payload,omitempty"`
}

// attachmentsHeader delimits serialized attachments inside outbound user
// content.
const attachmentsHeader = "--- ATTACHED FILES ---"

// ComposeContent returns the outbound content for a user message: the typed
// text, followed by every attachment serialized under a delimited block.
// Binary attachments contribute a marker line instead of text.
func ComposeContent(text string, attachments []Attachment) string {
	if len(attachments) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(attachmentsHeader)
	sb.WriteString("\n")

	for _, a := range attachments {
		sb.WriteString("\n[File: ")
		sb.WriteString(a.Name)
		sb.WriteString(" (")
		sb.WriteString(a.MimeType)
		sb.WriteString(", ")
		sb.WriteString(strconv.FormatInt(a.SizeBytes, 10))
		sb.WriteString(" bytes)]\n")
		if a.IsBinary {
			sb.WriteString("(binary file content omitted)\n")
		} else {
			sb.WriteString(a.ExtractedText)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
