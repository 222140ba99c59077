// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdetchat/sdetchat-tui/internal/util"
)

// FileStore persists each key as a file under a base directory, written
// atomically so a crash never leaves a half-written value.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed store rooted at baseDir, creating the
// directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// GetString returns the stored value and whether the key was present.
func (s *FileStore) GetString(key string) (string, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// SetString stores value under key, overwriting any previous value.
func (s *FileStore) SetString(key, value string) error {
	return util.AtomicWriteFile(s.path(key), []byte(value), 0600)
}

// path maps a key to a file name, flattening separators so a key can never
// escape the base directory.
func (s *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.baseDir, safe)
}
