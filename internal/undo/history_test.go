/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func snap(s string, ts time.Time) Snapshot { return Snapshot{Blob: []byte(s), TS: ts} }

func TestUndoRedoBasic(t *testing.T) {
	h := NewHistory(Config{MaxBytes: 1024, MaxDepth: 10, MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	h.Record(snap("a", t0))
	h.Record(snap("b", t0.Add(20*time.Millisecond)))
	if _, u, r := h.Stats(); u != 2 || r != 0 {
		t.Fatalf("expected 2 undo entries, got undo=%d redo=%d", u, r)
	}
	s, ok := h.Undo(snap("c", time.Time{}))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = h.Redo(s)
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("unexpected availability after redo")
	}
}

func TestUndoOnEmpty(t *testing.T) {
	h := NewHistory(Config{})
	if _, ok := h.Undo(snap("x", time.Now())); ok {
		t.Fatalf("undo on empty history succeeded")
	}
	if _, ok := h.Redo(snap("x", time.Now())); ok {
		t.Fatalf("redo on empty history succeeded")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	h := NewHistory(Config{})
	t0 := time.Now()
	h.Record(snap("a", t0))
	h.Undo(snap("b", t0))
	if !h.CanRedo() {
		t.Fatalf("expected redo after undo")
	}
	h.Record(snap("b", t0.Add(time.Second)))
	if h.CanRedo() {
		t.Fatalf("record did not clear redo stack")
	}
	if tb, _, _ := h.Stats(); tb != 1 {
		t.Fatalf("byte accounting off after redo drop: %d", tb)
	}
}

func TestCoalesceKeepsEarliest(t *testing.T) {
	h := NewHistory(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	h.Record(snap("1", t0))
	h.Record(snap("2", t0.Add(10*time.Millisecond)))
	h.Record(snap("3", t0.Add(40*time.Millisecond)))
	if _, u, _ := h.Stats(); u != 1 {
		t.Fatalf("expected coalesced to 1 entry, got %d", u)
	}
	s, _ := h.Undo(snap("4", t0))
	if string(s.Blob) != "1" {
		t.Fatalf("expected earliest state '1', got %q", string(s.Blob))
	}
}

func TestCaps(t *testing.T) {
	h := NewHistory(Config{MaxBytes: 20, MaxDepth: 2, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		h.Record(snap("xxxxx", t0.Add(time.Duration(i)*time.Second)))
	}
	tb, u, _ := h.Stats()
	if u != 2 || tb != 10 {
		t.Fatalf("depth cap not enforced: bytes=%d undo=%d", tb, u)
	}

	h = NewHistory(Config{MaxBytes: 8})
	for i := 0; i < 5; i++ {
		h.Record(snap("xxxx", t0.Add(time.Duration(i)*time.Second)))
	}
	if tb, _, _ := h.Stats(); tb > 8 {
		t.Fatalf("byte cap not enforced: %d", tb)
	}
	h.Clear()
	if tb, u, r := h.Stats(); tb != 0 || u != 0 || r != 0 {
		t.Fatalf("clear left state: %d %d %d", tb, u, r)
	}
}
