// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import "encoding/json"

// DoneSentinel is the payload backends send to terminate a stream.
const DoneSentinel = "[DONE]"

// deltaPayload covers the two JSON shapes backends stream deltas in: the
// flat-text shape {"response": "..."} and the chat-completion-delta shape
// {"choices":[{"delta":{"content":"..."}}]}.
type deltaPayload struct {
	Response string `json:"response"`
	Choices  []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Extract interprets a single event payload.
//
// Returns done=true for the end-of-stream sentinel. Otherwise the payload
// is decoded as JSON and probed for a top-level "response" field first,
// then choices[0].delta.content; the first match is the delta. A payload
// that fails to decode or matches neither shape yields ("", false) and is
// dropped without error so one malformed frame can never abort the stream.
func Extract(payload string) (delta string, done bool) {
	if payload == DoneSentinel {
		return "", true
	}

	var p deltaPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", false
	}

	if p.Response != "" {
		return p.Response, false
	}
	if len(p.Choices) > 0 {
		return p.Choices[0].Delta.Content, false
	}
	return "", false
}
