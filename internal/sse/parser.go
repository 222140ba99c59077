// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import "strings"

// eventBoundary separates events after carriage returns are normalized away.
const eventBoundary = "\n\n"

// dataPrefix marks the lines of an event that carry payload content.
// All other fields (event:, id:, retry:, comments) are ignored.
const dataPrefix = "data:"

// Consume scans the entire buffered text accumulated so far and returns the
// payloads of every complete event plus the unconsumed remainder.
//
// The function is split-point independent: for any chunking of the input,
// calling Consume(remainder+next) per chunk yields the same event sequence
// as a single whole-buffer call. An event is returned only once its full
// terminating boundary has been observed; the trailing partial event stays
// in the remainder.
//
// Within an event, each data line contributes its content left-trimmed of
// one leading space; multiple data lines join with a newline. Events with
// no data lines are dropped.
func Consume(buffer string) (events []string, remainder string) {
	// Normalize CRLF and bare CR so the boundary is always "\n\n".
	normalized := strings.ReplaceAll(buffer, "\r", "")

	for {
		end := strings.Index(normalized, eventBoundary)
		if end == -1 {
			return events, normalized
		}

		rawEvent := normalized[:end]
		normalized = normalized[end+len(eventBoundary):]

		var dataLines []string
		for _, line := range strings.Split(rawEvent, "\n") {
			if strings.HasPrefix(line, dataPrefix) {
				data := line[len(dataPrefix):]
				data = strings.TrimPrefix(data, " ")
				dataLines = append(dataLines, data)
			}
		}

		if len(dataLines) > 0 {
			events = append(events, strings.Join(dataLines, "\n"))
		}
	}
}

// Parser reassembles a chunked event stream, carrying the partial remainder
// between feeds. The zero value is ready to use.
type Parser struct {
	remainder string
}

// NewParser creates a new stream parser.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends a newly received chunk to the buffered remainder and returns
// every event completed by it.
func (p *Parser) Feed(chunk string) []string {
	events, remainder := Consume(p.remainder + chunk)
	p.remainder = remainder
	return events
}

// Flush forces emission of a final pending event at end of input by
// terminating the buffer with an event boundary. After Flush the parser is
// empty and may be reused.
func (p *Parser) Flush() []string {
	if p.remainder == "" {
		return nil
	}
	events, _ := Consume(p.remainder + eventBoundary)
	p.remainder = ""
	return events
}

// Pending returns the buffered text still awaiting an event boundary.
func (p *Parser) Pending() string {
	return p.remainder
}
