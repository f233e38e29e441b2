/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"printtiler/internal/domain"
)

func sampleState() domain.StoredState {
	return domain.StoredState{
		PageSetup: domain.DefaultPageSetup(),
		Images: []domain.StoredImage{
			{ID: "a", Src: "a.png", X: 0, Y: 0, Width: 100, Height: 50},
			{ID: "b", Src: "b.png", X: 100, Y: 10, Width: 20, Height: 20},
		},
		Unit: domain.UnitInch,
	}
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	fs, err := Open(BackendFile, filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	db, err := Open(BackendSQLite, filepath.Join(dir, "db", "state.sqlite"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{"file": fs, "sqlite": db}
}

func TestStateRoundTripAllBackends(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		want := sampleState()
		if err := SaveState(ctx, s, want); err != nil {
			t.Fatalf("%s: save: %v", name, err)
		}
		got, err := LoadState(ctx, s)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if got.PageSetup != want.PageSetup || got.Unit != want.Unit || len(got.Images) != 2 || got.Images[1] != want.Images[1] {
			t.Fatalf("%s: round trip mismatch: %+v", name, got)
		}
		if err := s.Delete(ctx, domain.StateKey); err != nil {
			t.Fatalf("%s: delete: %v", name, err)
		}
		if _, err := LoadState(ctx, s); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound after delete, got %v", name, err)
		}
		if err := s.Delete(ctx, domain.StateKey); err != nil {
			t.Fatalf("%s: deleting a missing key failed: %v", name, err)
		}
	}
}

func TestLoadStateRejectsSchemaViolation(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		bad := []byte(`{"pageSetup":{"width":"wide"},"images":[{"id":"x"}]}`)
		if err := s.Set(ctx, domain.StateKey, bad); err != nil {
			t.Fatalf("%s: set: %v", name, err)
		}
		if _, err := LoadState(ctx, s); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s: expected ErrInvalidState, got %v", name, err)
		}
	}
}

func TestSaveStateRejectsEmptySource(t *testing.T) {
	st := sampleState()
	st.Images[0].Src = ""
	s, _ := NewFileStore(t.TempDir())
	if err := SaveState(context.Background(), s, st); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestFileStoreBackupsAndCorruptionRecovery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	if err := s.Set(ctx, "k", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("set 1: %v", err)
	}
	if err := s.Set(ctx, "k", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("set 2: %v", err)
	}
	if n := len(s.backups("k")); n != 1 {
		t.Fatalf("expected 1 backup, got %d", n)
	}

	// corrupt current file; Get must fall back to the backup
	if err := os.WriteFile(filepath.Join(dir, "k.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get after corruption: %v", err)
	}
	if string(got) != `{"v":1}` {
		t.Fatalf("expected backup content, got %s", got)
	}
}

func TestFileStorePrunesBackups(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { tick = tick.Add(time.Second); return tick }
	for i := 0; i < MaxBackups+5; i++ {
		if err := s.Set(ctx, "k", []byte(`{}`)); err != nil {
			t.Fatalf("set %d: %v", i, err)
		}
	}
	if n := len(s.backups("k")); n != MaxBackups {
		t.Fatalf("expected %d backups, got %d", MaxBackups, n)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := len(s.backups("k")); n != 0 {
		t.Fatalf("delete left %d backups", n)
	}
}

func TestSQLiteReopenKeepsValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.sqlite")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, err := s.SchemaVersion(ctx); err != nil || v != schemaVersion {
		t.Fatalf("schema version = %d, %v", v, err)
	}
	_ = s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("get after reopen = %q, %v", got, err)
	}
}
