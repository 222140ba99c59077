// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"path/filepath"
	"testing"
)

// storeUnderTest exercises the Store contract shared by all backends.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()

	if _, ok := s.GetString("absent"); ok {
		t.Error("GetString(absent) reported present")
	}

	if err := s.SetString("k", "v1"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if v, ok := s.GetString("k"); !ok || v != "v1" {
		t.Errorf("GetString(k) = (%q, %v), want ('v1', true)", v, ok)
	}

	// Overwrite
	if err := s.SetString("k", "v2"); err != nil {
		t.Fatalf("SetString overwrite: %v", err)
	}
	if v, _ := s.GetString("k"); v != "v2" {
		t.Errorf("GetString(k) after overwrite = %q, want 'v2'", v)
	}

	// Empty values are legal and distinct from absence.
	if err := s.SetString("empty", ""); err != nil {
		t.Fatalf("SetString empty: %v", err)
	}
	if v, ok := s.GetString("empty"); !ok || v != "" {
		t.Errorf("GetString(empty) = (%q, %v), want ('', true)", v, ok)
	}
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemory())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	storeUnderTest(t, s)
}

func TestFileStoreKeyFlattening(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.SetString("../escape", "x"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if v, ok := s.GetString("../escape"); !ok || v != "x" {
		t.Errorf("GetString = (%q, %v), want ('x', true)", v, ok)
	}
	// Nothing may land outside the base directory.
	if _, err := filepath.Glob(filepath.Join(dir, "..", "escape")); err != nil {
		t.Fatalf("glob: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	storeUnderTest(t, s)
}

func TestSQLiteStoreReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s1.SetString("durable", "yes"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, ok := s2.GetString("durable"); !ok || v != "yes" {
		t.Errorf("GetString after reopen = (%q, %v), want ('yes', true)", v, ok)
	}
}
