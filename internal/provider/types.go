// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import "fmt"

// Schema identifies the request shape a destination expects.
type Schema string

const (
	// SchemaBuiltin is the local backend: {"messages": [...]}.
	SchemaBuiltin Schema = "builtin"
	// SchemaOpenAI is the chat-completions shape with bearer auth:
	// {"model", "messages", "stream": true}.
	SchemaOpenAI Schema = "openai"
)

// Route describes one destination in the model lookup table.
type Route struct {
	// Model is the identifier users select.
	Model string
	// Endpoint is the full URL requests are POSTed to.
	Endpoint string
	// Schema selects the request shape.
	Schema Schema
	// APIKey is sent as a bearer token for schemas that require auth.
	APIKey string
}

// ChatMessage is one outbound message. Both supported schemas use the same
// role names, so normalization is a straight copy of role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// builtinRequest is the body for SchemaBuiltin destinations.
type builtinRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// openaiRequest is the body for SchemaOpenAI destinations.
type openaiRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// DispatchError is a terminal failure acquiring the response stream:
// a non-success HTTP status from the destination.
type DispatchError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("dispatch failed (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("dispatch failed (HTTP %d)", e.Status)
}
