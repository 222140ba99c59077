// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider dispatches chat requests to the configured LLM backends.
//
// A Dispatcher maps the selected model identifier to a Route (endpoint,
// wire schema, credentials) via a static lookup table; an unrecognized
// identifier falls back to the default route instead of failing. The
// dispatcher normalizes history into the destination's message format,
// strips the opening greeting, issues a streaming POST, and hands the raw
// response body back without buffering it.
//
// Two wire schemas are supported:
//
//   - builtin: POST {"messages": [...]} to the local endpoint
//   - openai: POST {"model", "messages", "stream": true} with bearer auth
//     to a chat-completions endpoint
//
// A non-2xx status or an absent body is a terminal error for the stream
// cycle; dispatch is never retried automatically.
package provider
