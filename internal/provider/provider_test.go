// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdetchat/sdetchat-tui/internal/model"
)

// capturedRequest records what the fake backend saw.
type capturedRequest struct {
	header http.Header
	body   []byte
}

func newCaptureServer(t *testing.T, status int, reply string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.header = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		captured.body = body
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func dispatcherFor(t *testing.T, routes []Route, defaultModel string) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(routes, defaultModel)
	require.NoError(t, err)
	return d
}

func TestNewDispatcherRejectsMissingDefault(t *testing.T) {
	_, err := NewDispatcher([]Route{{Model: "a", Endpoint: "http://x"}}, "b")
	assert.Error(t, err)

	_, err = NewDispatcher(nil, "a")
	assert.ErrorIs(t, err, ErrNoRoutes)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	d := dispatcherFor(t, []Route{
		{Model: "sdet-builtin", Endpoint: "http://local", Schema: SchemaBuiltin},
		{Model: "gpt-4o-mini", Endpoint: "http://remote", Schema: SchemaOpenAI},
	}, "sdet-builtin")

	assert.Equal(t, "http://remote", d.Resolve("gpt-4o-mini").Endpoint)
	assert.Equal(t, "http://local", d.Resolve("no-such-model").Endpoint)
	assert.Equal(t, "http://local", d.Resolve("").Endpoint)
}

func TestDispatchStripsGreeting(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, "data: [DONE]\n\n")
	d := dispatcherFor(t, []Route{
		{Model: "sdet-builtin", Endpoint: srv.URL, Schema: SchemaBuiltin},
	}, "sdet-builtin")

	s := model.NewSession()
	s.AppendUser("run the tests", nil)

	body, err := d.Dispatch(context.Background(), s.History, "sdet-builtin")
	require.NoError(t, err)
	body.Close()

	var req builtinRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.Len(t, req.Messages, 1, "greeting must not be sent to the backend")
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "run the tests", req.Messages[0].Content)
}

func TestDispatchOpenAISchema(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, "data: [DONE]\n\n")
	d := dispatcherFor(t, []Route{
		{Model: "gpt-4o-mini", Endpoint: srv.URL, Schema: SchemaOpenAI, APIKey: "sk-test"},
	}, "gpt-4o-mini")

	history := []model.Message{model.NewUserMessage("hello", nil)}
	body, err := d.Dispatch(context.Background(), history, "gpt-4o-mini")
	require.NoError(t, err)
	body.Close()

	assert.Equal(t, "Bearer sk-test", captured.header.Get("Authorization"))
	assert.Equal(t, "text/event-stream", captured.header.Get("Accept"))
	assert.Equal(t, "application/json", captured.header.Get("Content-Type"))

	var req openaiRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.True(t, req.Stream, "openai dispatch must request streaming")
}

func TestDispatchSerializesAttachments(t *testing.T) {
	srv, captured := newCaptureServer(t, http.StatusOK, "")
	d := dispatcherFor(t, []Route{
		{Model: "sdet-builtin", Endpoint: srv.URL, Schema: SchemaBuiltin},
	}, "sdet-builtin")

	history := []model.Message{
		model.NewUserMessage("review this", []model.Attachment{
			{Name: "main_test.go", MimeType: "text/x-go", ExtractedText: "func TestMain(t *testing.T) {}"},
		}),
	}
	body, err := d.Dispatch(context.Background(), history, "sdet-builtin")
	require.NoError(t, err)
	body.Close()

	var req builtinRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "--- ATTACHED FILES ---")
	assert.Contains(t, req.Messages[0].Content, "main_test.go")
	assert.Contains(t, req.Messages[0].Content, "func TestMain")
}

func TestDispatchNonSuccessStatus(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusTooManyRequests, `{"error":"quota"}`)
	d := dispatcherFor(t, []Route{
		{Model: "sdet-builtin", Endpoint: srv.URL, Schema: SchemaBuiltin},
	}, "sdet-builtin")

	_, err := d.Dispatch(context.Background(), []model.Message{model.NewUserMessage("hi", nil)}, "sdet-builtin")
	require.Error(t, err)

	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, http.StatusTooManyRequests, de.Status)
	assert.Contains(t, de.Body, "quota")
}

func TestDispatchReturnsUnbufferedBody(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusOK, "data: {\"response\": \"Hel\"}\n\ndata: [DONE]\n\n")
	d := dispatcherFor(t, []Route{
		{Model: "sdet-builtin", Endpoint: srv.URL, Schema: SchemaBuiltin},
	}, "sdet-builtin")

	body, err := d.Dispatch(context.Background(), []model.Message{model.NewUserMessage("hi", nil)}, "sdet-builtin")
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[DONE]")
}

func TestSetRoutesRejectsMissingDefault(t *testing.T) {
	d := dispatcherFor(t, []Route{
		{Model: "a", Endpoint: "http://a", Schema: SchemaBuiltin},
	}, "a")

	err := d.SetRoutes([]Route{{Model: "b", Endpoint: "http://b"}}, "c")
	assert.Error(t, err)
	assert.Equal(t, "http://a", d.Resolve("a").Endpoint, "failed reload must keep old table")

	require.NoError(t, d.SetRoutes([]Route{{Model: "b", Endpoint: "http://b"}}, "b"))
	assert.Equal(t, "http://b", d.Resolve("anything").Endpoint)
}

func TestModelsListsDefaultFirst(t *testing.T) {
	d := dispatcherFor(t, []Route{
		{Model: "a", Endpoint: "http://a"},
		{Model: "b", Endpoint: "http://b"},
	}, "b")

	models := d.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "b", models[0])
}
