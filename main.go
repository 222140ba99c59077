// sdetchat TUI - a terminal chat client for your SDET coding agent.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sdetchat/sdetchat-tui/internal/config"
	"github.com/sdetchat/sdetchat-tui/internal/kv"
	"github.com/sdetchat/sdetchat-tui/internal/provider"
	"github.com/sdetchat/sdetchat-tui/internal/quota"
	"github.com/sdetchat/sdetchat-tui/internal/store"
	"github.com/sdetchat/sdetchat-tui/internal/stream"
	"github.com/sdetchat/sdetchat-tui/internal/ui/chat"
	"github.com/sdetchat/sdetchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("sdetchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	kvStore, closeStore, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	sessions := store.New(kvStore)
	gate := quota.NewGate(kvStore, cfg.Quota.Limit)

	dispatcher, err := provider.NewDispatcher(routesFrom(cfg), cfg.DefaultModel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	orchestrator := stream.New(sessions, gate, dispatcher, stream.Callbacks{
		OnUpdate: func(sessionID string, index int, content string) {
			send(chat.StreamDeltaMsg{SessionID: sessionID, Index: index, Content: content})
		},
		OnDone: func(sessionID string, index int, content string, err error) {
			send(chat.StreamDoneMsg{SessionID: sessionID, Index: index, Content: content, Err: err})
		},
	})

	chatModel := chat.New(sessions, gate, orchestrator, dispatcher.Models(), styles.NewTheme())
	program := tea.NewProgram(chatModel, tea.WithAltScreen())

	programMu.Lock()
	programRef = program
	programMu.Unlock()

	// Route library logging away from the alternate screen.
	if logFile := openLogFile(cfg); logFile != nil {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	watcher := watchConfig(dispatcher)
	if watcher != nil {
		defer watcher.Close()
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// send forwards an orchestrator callback into the Bubble Tea loop.
func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// openStore selects the persistence backend from config.
func openStore(cfg *config.Config) (kv.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(cfg.Storage.Backend) {
	case "memory":
		return kv.NewMemory(), noop, nil

	case "sqlite":
		dir, err := cfg.DataDir()
		if err != nil {
			return nil, noop, err
		}
		s, err := kv.NewSQLiteStore(filepath.Join(dir, "sdetchat.db"))
		if err != nil {
			return nil, noop, fmt.Errorf("could not open sqlite store: %w", err)
		}
		return s, func() { s.Close() }, nil

	default:
		dir, err := cfg.DataDir()
		if err != nil {
			return nil, noop, err
		}
		s, err := kv.NewFileStore(dir)
		if err != nil {
			return nil, noop, fmt.Errorf("could not open file store: %w", err)
		}
		return s, noop, nil
	}
}

// routesFrom maps the config provider table to dispatcher routes.
func routesFrom(cfg *config.Config) []provider.Route {
	routes := make([]provider.Route, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		routes = append(routes, provider.Route{
			Model:    p.Model,
			Endpoint: p.Endpoint,
			Schema:   provider.Schema(strings.ToLower(p.Schema)),
			APIKey:   p.APIKey,
		})
	}
	return routes
}

// watchConfig hot-reloads the provider table when the config file changes.
// Quota and storage settings apply on next start.
func watchConfig(dispatcher *provider.Dispatcher) *config.Watcher {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(path, func(cfg *config.Config) {
		config.SetGlobal(cfg)
		if err := dispatcher.SetRoutes(routesFrom(cfg), cfg.DefaultModel); err != nil {
			log.Printf("main: config reload kept previous routes: %v", err)
		}
	})
	if err != nil {
		log.Printf("main: config watcher unavailable: %v", err)
		return nil
	}
	if err := watcher.Watch(); err != nil {
		log.Printf("main: config watcher unavailable: %v", err)
		watcher.Close()
		return nil
	}
	return watcher
}

// openLogFile opens the debug log in the data directory. A nil return
// leaves logging on stderr.
func openLogFile(cfg *config.Config) *os.File {
	dir, err := cfg.DataDir()
	if err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "sdetchat.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil
	}
	return f
}
