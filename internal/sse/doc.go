// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse parses server-sent event streams from LLM backends.
//
// Backends deliver responses as a byte stream of double-newline delimited
// events, each carrying one or more "data:" lines. The stream arrives in
// arbitrary chunks that may split an event at any byte offset, so parsing
// is split into two layers:
//
//   - Parser: reassembles the growing raw buffer into complete events,
//     holding back any trailing partial event until its boundary arrives.
//   - Extract: interprets a single event payload as a text delta or the
//     end-of-stream sentinel.
//
// # Usage
//
// Feed chunks as they arrive, then flush at end of input:
//
//	p := sse.NewParser()
//	for each chunk {
//	    for _, ev := range p.Feed(chunk) {
//	        delta, done := sse.Extract(ev)
//	        ...
//	    }
//	}
//	events := p.Flush()
//
// Malformed payloads are dropped silently; a bad frame never aborts the
// stream.
package sse
