/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"printtiler/internal/domain"
	"printtiler/internal/tiles"
)

func newWorkspace(t *testing.T) *Workspace {
	t.Helper()
	n := 0
	w, err := New(domain.DefaultPageSetup(), domain.UnitMillimetre, WithIDFunc(func() string {
		n++
		return fmt.Sprintf("img-%d", n)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func add(t *testing.T, w *Workspace, x, y, width, height float64) string {
	t.Helper()
	id, err := w.Add(domain.ImagePlacement{Src: "x.png", X: x, Y: y, Width: width, Height: height})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return id
}

func assertNormalized(t *testing.T, w *Workspace) {
	t.Helper()
	box, ok := tiles.BoundingBox(w.Placements())
	if !ok {
		return
	}
	if box.X != 0 || box.Y != 0 {
		t.Fatalf("placements not normalised: box origin (%g, %g)", box.X, box.Y)
	}
}

func TestMutationsNormalize(t *testing.T) {
	w := newWorkspace(t)
	a := add(t, w, 50, 40, 100, 100)
	assertNormalized(t, w)
	b := add(t, w, -30, 10, 10, 10)
	assertNormalized(t, w)
	if err := w.Move(b, -100, -100); err != nil {
		t.Fatalf("Move: %v", err)
	}
	assertNormalized(t, w)
	pa, _ := w.Placement(a)
	pb, _ := w.Placement(b)
	// b is now the top-left most image; a keeps its offset relative to b
	if pb.X != 0 || pb.Y != 0 || pa.X != 130 || pa.Y != 90 {
		t.Fatalf("unexpected positions a=%+v b=%+v", pa, pb)
	}
	if err := w.Remove(b); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	assertNormalized(t, w)
	if pa, _ := w.Placement(a); pa.X != 0 || pa.Y != 0 {
		t.Fatalf("a not moved to origin after remove: %+v", pa)
	}
}

func TestUnknownIDAndInvalidSize(t *testing.T) {
	w := newWorkspace(t)
	if err := w.Move("nope", 1, 1); !errors.Is(err, ErrUnknownImage) {
		t.Fatalf("expected ErrUnknownImage, got %v", err)
	}
	if _, err := w.Add(domain.ImagePlacement{Width: 0, Height: 5}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	id := add(t, w, 0, 0, 10, 10)
	gen := w.Generation()
	if err := w.Resize(id, math.NaN(), 5, false); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if w.Generation() != gen {
		t.Fatalf("failed mutation bumped the generation")
	}
	if _, err := w.Add(domain.ImagePlacement{ID: id, Width: 5, Height: 5}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestResizeKeepAspect(t *testing.T) {
	w := newWorkspace(t)
	id := add(t, w, 0, 0, 40, 20)
	if err := w.Resize(id, 80, 0, true); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if p, _ := w.Placement(id); p.Width != 80 || p.Height != 40 {
		t.Fatalf("aspect not kept: %+v", p)
	}
	if err := w.Resize(id, 10, 70, false); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if p, _ := w.Placement(id); p.Width != 10 || p.Height != 70 {
		t.Fatalf("free resize ignored: %+v", p)
	}
}

func TestLayoutCachedPerGeneration(t *testing.T) {
	w := newWorkspace(t)
	if _, err := w.Layout(); !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	add(t, w, 0, 0, 1000, 200)
	l1, err := w.Layout()
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if l1.Generation != w.Generation() || len(l1.Tiles) != l1.Grid.Count() {
		t.Fatalf("inconsistent layout %+v", l1)
	}
	if !l1.Counts.PreferRotated() || !l1.Grid.Rotated || l1.Grid.Count() != 6 {
		t.Fatalf("expected rotated 6-tile grid, got %+v", l1.Grid)
	}
	l2, _ := w.Layout()
	if &l2.Tiles[0] != &l1.Tiles[0] {
		t.Fatalf("layout recomputed without a change")
	}
	if err := w.SetPageSetup(domain.PageSetup{Width: 500, Height: 500, Margin: 10}); err != nil {
		t.Fatalf("SetPageSetup: %v", err)
	}
	l3, _ := w.Layout()
	if l3.Generation == l1.Generation || l3.Grid.Count() != 3 {
		t.Fatalf("layout not recomputed for new page: %+v", l3.Grid)
	}
}

func TestSetPageSetupRejectsInvalid(t *testing.T) {
	w := newWorkspace(t)
	err := w.SetPageSetup(domain.PageSetup{Width: 10, Height: 10, Margin: 6})
	if !errors.Is(err, domain.ErrInvalidPageSetup) {
		t.Fatalf("expected ErrInvalidPageSetup, got %v", err)
	}
	if err := w.SetUnit("furlong"); err == nil {
		t.Fatalf("expected unit error")
	}
	if err := w.SetUnit(domain.UnitInch); err != nil || w.Unit() != domain.UnitInch {
		t.Fatalf("SetUnit: %v", err)
	}
}

func TestUndoRedo(t *testing.T) {
	w := newWorkspace(t)
	id := add(t, w, 0, 0, 10, 10)
	add(t, w, 20, 0, 10, 10)
	if err := w.Resize(id, 30, 30, false); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if !w.Undo() {
		t.Fatalf("undo failed")
	}
	if p, _ := w.Placement(id); p.Width != 10 {
		t.Fatalf("undo did not restore size: %+v", p)
	}
	if !w.Undo() || len(w.Placements()) != 1 {
		t.Fatalf("second undo did not remove the added image")
	}
	if !w.Redo() || len(w.Placements()) != 2 {
		t.Fatalf("redo did not re-add the image")
	}
	if !w.Redo() {
		t.Fatalf("second redo failed")
	}
	if p, _ := w.Placement(id); p.Width != 30 {
		t.Fatalf("redo did not reapply size: %+v", p)
	}
	if w.CanRedo() {
		t.Fatalf("redo stack should be empty")
	}
}

func TestOnChange(t *testing.T) {
	w := newWorkspace(t)
	var gens []uint64
	remove := w.OnChange(func(g uint64) { gens = append(gens, g) })
	add(t, w, 0, 0, 5, 5)
	remove()
	add(t, w, 0, 0, 5, 5)
	if len(gens) != 1 || gens[0] != 1 {
		t.Fatalf("unexpected notifications %v", gens)
	}
}
