// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream drives one full request/response cycle: reserve quota,
// append a placeholder assistant message, pump the frame parser and delta
// extractor over the response body, update the placeholder incrementally,
// and finalize or fail it.
//
// Exactly one cycle runs at a time. Send, Regenerate, and EditResubmit are
// no-ops returning ErrBusy while a cycle is in flight. There is no
// cancellation: once a cycle reaches Streaming it runs until the backend
// terminates the stream or the read fails.
package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/sdetchat/sdetchat-tui/internal/model"
	"github.com/sdetchat/sdetchat-tui/internal/quota"
	"github.com/sdetchat/sdetchat-tui/internal/sse"
	"github.com/sdetchat/sdetchat-tui/internal/store"
)

// ErrorMarker replaces the placeholder content when a cycle fails. It is
// committed and persisted like any other assistant content so the failure
// stays visible across restarts.
const ErrorMarker = "Error processing request."

// readChunkSize is the per-iteration read from the response body. Reads
// are the cycle's single blocking point.
const readChunkSize = 4096

var (
	// ErrBusy is returned when a cycle is already in flight.
	ErrBusy = errors.New("a response is already being generated")
	// ErrQuotaExhausted is returned when the quota gate refuses the
	// reservation. No history mutation has happened when it is returned.
	ErrQuotaExhausted = errors.New("request quota exhausted")
	// ErrGreetingPinned is returned for edit/regenerate aimed at the
	// opening greeting.
	ErrGreetingPinned = errors.New("the opening greeting cannot be modified")
)

// =============================================================================
// STATE MACHINE
// =============================================================================

// State identifies where the active cycle is.
type State int

const (
	StateIdle State = iota
	StateReserving
	StateDispatching
	StateStreaming
	StateFinalizing
	StateError
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReserving:
		return "reserving"
	case StateDispatching:
		return "dispatching"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Dispatcher acquires a streaming response body for a message history.
type Dispatcher interface {
	Dispatch(ctx context.Context, history []model.Message, modelID string) (io.ReadCloser, error)
}

// Callbacks notify the presentation layer. Both are optional. OnUpdate
// fires after every delta with the full accumulated text; earlier spans of
// markdown can change meaning as more characters arrive, so consumers must
// re-render the whole message, not append. OnDone fires exactly once per
// cycle, after persistence, with the final committed content.
type Callbacks struct {
	OnUpdate func(sessionID string, index int, content string)
	OnDone   func(sessionID string, index int, content string, err error)
}

// Orchestrator owns the busy flag and the per-cycle stream state.
type Orchestrator struct {
	sessions   *store.SessionStore
	gate       *quota.Gate
	dispatcher Dispatcher
	callbacks  Callbacks

	busy atomic.Bool

	mu    sync.Mutex
	state State
}

// New builds an orchestrator over the given collaborators.
func New(sessions *store.SessionStore, gate *quota.Gate, dispatcher Dispatcher, callbacks Callbacks) *Orchestrator {
	return &Orchestrator{
		sessions:   sessions,
		gate:       gate,
		dispatcher: dispatcher,
		callbacks:  callbacks,
		state:      StateIdle,
	}
}

// Busy reports whether a cycle is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// State returns the active cycle's state, StateIdle when none.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// =============================================================================
// USER ACTIONS
// =============================================================================

// Send appends a user message to the session and runs a stream cycle to
// produce the reply. It blocks until the cycle finishes; callers drive it
// from their own goroutine. On ErrBusy or ErrQuotaExhausted nothing has
// been mutated. An unknown session id is a no-op: no quota is spent and
// no request is issued.
func (o *Orchestrator) Send(ctx context.Context, sessionID, content string, attachments []model.Attachment, modelID string) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.release()

	if o.sessions.Get(sessionID) == nil {
		return nil
	}

	o.setState(StateReserving)
	if !o.gate.TryReserve() {
		return ErrQuotaExhausted
	}

	if _, ok := o.sessions.AppendUser(sessionID, content, attachments); !ok {
		return nil
	}
	return o.runCycle(ctx, sessionID, modelID)
}

// Regenerate removes the assistant message at index and runs a fresh cycle
// in its place. Messages after index are left alone; the new reply is
// appended at the end of history.
func (o *Orchestrator) Regenerate(ctx context.Context, sessionID string, index int, modelID string) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.release()

	if o.sessions.Get(sessionID) == nil {
		return nil
	}
	if o.sessions.IsGreeting(sessionID, index) {
		return ErrGreetingPinned
	}

	o.setState(StateReserving)
	if !o.gate.TryReserve() {
		return ErrQuotaExhausted
	}

	if !o.sessions.RemoveForRegenerate(sessionID, index) {
		return nil
	}
	return o.runCycle(ctx, sessionID, modelID)
}

// EditResubmit overwrites the user message at index, discards everything
// after it, and runs a cycle to continue the forked conversation. A quota
// refusal aborts before the edit is committed; the typed text is dropped.
func (o *Orchestrator) EditResubmit(ctx context.Context, sessionID string, index int, newContent, modelID string) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.release()

	if o.sessions.Get(sessionID) == nil {
		return nil
	}
	if o.sessions.IsGreeting(sessionID, index) {
		return ErrGreetingPinned
	}

	o.setState(StateReserving)
	if !o.gate.TryReserve() {
		return ErrQuotaExhausted
	}

	if !o.sessions.EditMessage(sessionID, index, newContent) {
		return nil
	}
	return o.runCycle(ctx, sessionID, modelID)
}

func (o *Orchestrator) release() {
	o.setState(StateIdle)
	o.busy.Store(false)
}

// =============================================================================
// STREAM CYCLE
// =============================================================================

// runCycle appends the placeholder, dispatches, pumps the stream, and
// finalizes. The finalize step always runs: success commits the
// accumulated text, any dispatch or read failure commits ErrorMarker
// instead, so the outcome is durably visible either way.
func (o *Orchestrator) runCycle(ctx context.Context, sessionID, modelID string) error {
	placeholder, ok := o.sessions.AppendPlaceholder(sessionID)
	if !ok {
		return nil
	}

	history := o.sessions.HistoryBefore(sessionID, placeholder)

	o.setState(StateDispatching)
	body, err := o.dispatcher.Dispatch(ctx, history, modelID)
	if err != nil {
		log.Printf("stream: dispatch failed: %v", err)
		o.setState(StateError)
		o.finalize(sessionID, placeholder, ErrorMarker, err)
		return err
	}
	defer body.Close()

	o.setState(StateStreaming)
	accumulated, err := o.pump(body, sessionID, placeholder)
	if err != nil {
		log.Printf("stream: read failed: %v", err)
		o.setState(StateError)
		o.finalize(sessionID, placeholder, ErrorMarker, err)
		return err
	}

	o.finalize(sessionID, placeholder, accumulated, nil)
	return nil
}

// pump reads the body chunk by chunk until the done sentinel or stream
// closure, feeding each chunk through the frame parser and appending every
// extracted delta to the accumulated text.
func (o *Orchestrator) pump(body io.Reader, sessionID string, index int) (string, error) {
	var parser sse.Parser
	var accumulated string
	buf := make([]byte, readChunkSize)

	for {
		n, readErr := body.Read(buf)

		var events []string
		if n > 0 {
			events = parser.Feed(string(buf[:n]))
		}
		if readErr != nil {
			events = append(events, parser.Flush()...)
		}

		done := false
		for _, payload := range events {
			delta, terminated := sse.Extract(payload)
			if terminated {
				done = true
				break
			}
			if delta == "" {
				continue
			}
			accumulated += delta
			o.sessions.UpdateStreaming(sessionID, index, accumulated)
			if o.callbacks.OnUpdate != nil {
				o.callbacks.OnUpdate(sessionID, index, accumulated)
			}
		}

		if done || errors.Is(readErr, io.EOF) {
			return accumulated, nil
		}
		if readErr != nil {
			return accumulated, readErr
		}
	}
}

// finalize commits the final content, persists, and notifies. This is the
// only guaranteed-cleanup point in the cycle.
func (o *Orchestrator) finalize(sessionID string, index int, content string, cause error) {
	o.setState(StateFinalizing)
	o.sessions.Commit(sessionID, index, content)
	if o.callbacks.OnDone != nil {
		o.callbacks.OnDone(sessionID, index, content, cause)
	}
}
