// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sdetchat/sdetchat-tui/internal/model"
)

// maxErrorBody caps how much of an error response is read for diagnostics.
const maxErrorBody = 64 * 1024

// ErrNoBody indicates the destination answered without a response body.
var ErrNoBody = errors.New("response has no body")

// ErrNoRoutes indicates the dispatcher has an empty lookup table.
var ErrNoRoutes = errors.New("no provider routes configured")

// sharedStreamingClient is used for all dispatches. Streaming responses
// must not carry an overall timeout: a reply streams for as long as the
// backend keeps producing tokens.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Dispatcher routes chat requests to destinations by model identifier.
type Dispatcher struct {
	mu           sync.RWMutex
	routes       map[string]Route
	defaultModel string

	// limiter paces outbound requests so rapid regenerate mashing cannot
	// burst the backend.
	limiter *rate.Limiter
	client  *http.Client
}

// NewDispatcher builds a dispatcher from the route table. defaultModel
// names the fallback route for unrecognized identifiers and must appear in
// routes.
func NewDispatcher(routes []Route, defaultModel string) (*Dispatcher, error) {
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}

	table := make(map[string]Route, len(routes))
	for _, r := range routes {
		table[r.Model] = r
	}
	if _, ok := table[defaultModel]; !ok {
		return nil, fmt.Errorf("default model %q has no route", defaultModel)
	}

	return &Dispatcher{
		routes:       table,
		defaultModel: defaultModel,
		limiter:      rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
		client:       sharedStreamingClient,
	}, nil
}

// SetRoutes replaces the lookup table, keeping the previous table when the
// new one would be invalid. Used by config reload.
func (d *Dispatcher) SetRoutes(routes []Route, defaultModel string) error {
	table := make(map[string]Route, len(routes))
	for _, r := range routes {
		table[r.Model] = r
	}
	if _, ok := table[defaultModel]; !ok {
		return fmt.Errorf("default model %q has no route", defaultModel)
	}

	d.mu.Lock()
	d.routes = table
	d.defaultModel = defaultModel
	d.mu.Unlock()
	return nil
}

// Resolve maps a model identifier to its route, falling back to the
// default route for unrecognized identifiers.
func (d *Dispatcher) Resolve(modelID string) Route {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if r, ok := d.routes[modelID]; ok {
		return r
	}
	return d.routes[d.defaultModel]
}

// Models lists the configured model identifiers, default first.
func (d *Dispatcher) Models() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := []string{d.defaultModel}
	for id := range d.routes {
		if id != d.defaultModel {
			out = append(out, id)
		}
	}
	return out
}

// DefaultModel returns the fallback model identifier.
func (d *Dispatcher) DefaultModel() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.defaultModel
}

// Dispatch issues a streaming chat request for the given history and
// returns the raw response body. The caller owns the body and must close
// it. The opening greeting is stripped if still at position 0; it is never
// sent to a backend.
func (d *Dispatcher) Dispatch(ctx context.Context, history []model.Message, modelID string) (io.ReadCloser, error) {
	route := d.Resolve(modelID)
	outbound := normalize(history)

	body, err := encodeRequest(route, outbound)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, route.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if route.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+route.APIKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &DispatchError{Status: resp.StatusCode, Body: string(detail)}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}

	return resp.Body, nil
}

// normalize builds the outbound message list: greeting stripped, role and
// content order preserved, attachments serialized into user content.
func normalize(history []model.Message) []ChatMessage {
	msgs := history
	if len(msgs) > 0 && msgs[0].Role == model.RoleAssistant && msgs[0].Content == model.Greeting {
		msgs = msgs[1:]
	}

	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		content := m.Content
		if m.Role == model.RoleUser {
			content = model.ComposeContent(m.Content, m.Attachments)
		}
		out = append(out, ChatMessage{Role: m.Role.String(), Content: content})
	}
	return out
}

// encodeRequest marshals the schema-specific request body.
func encodeRequest(route Route, msgs []ChatMessage) ([]byte, error) {
	switch route.Schema {
	case SchemaOpenAI:
		return json.Marshal(openaiRequest{
			Model:    route.Model,
			Messages: msgs,
			Stream:   true,
		})
	default:
		return json.Marshal(builtinRequest{Messages: msgs})
	}
}
