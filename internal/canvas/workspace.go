/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas holds the editable set of image placements together with the
// page setup, and derives the tile layout from them.
//
// Every mutation normalises the placements so the smallest X and Y are 0,
// bumps a generation counter and invalidates the cached layout.
package canvas

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"printtiler/internal/domain"
	applog "printtiler/internal/log"
	"printtiler/internal/tiles"
	"printtiler/internal/undo"
)

var (
	// ErrNoImages is returned by Layout when there is nothing to tile.
	ErrNoImages = errors.New("canvas: no images placed")
	// ErrUnknownImage is returned for placement ids that are not on the canvas.
	ErrUnknownImage = errors.New("canvas: unknown image")
	// ErrInvalidSize is returned for non-positive or non-finite sizes.
	ErrInvalidSize = errors.New("canvas: invalid size")
)

// MinSize is the smallest width or height a placement can be resized to, in millimetres.
const MinSize = 1.0

// Layout is the tiling derived from one generation of the workspace.
type Layout struct {
	Generation uint64
	Box        domain.Rect
	Grid       tiles.Grid
	Counts     tiles.TileCounts
	Tiles      []tiles.Tile
}

type cachedLayout struct {
	gen    uint64
	layout Layout
	err    error
}

// Option configures New.
type Option func(*Workspace)

// WithHistory sets the undo history limits.
func WithHistory(cfg undo.Config) Option {
	return func(w *Workspace) { w.history = undo.NewHistory(cfg) }
}

// WithIDFunc replaces the placement id generator.
func WithIDFunc(fn func() string) Option {
	return func(w *Workspace) { w.newID = fn }
}

// Workspace is safe for concurrent use.
type Workspace struct {
	mu      sync.Mutex
	page    domain.PageSetup
	unit    domain.Unit
	images  []domain.ImagePlacement
	pixels  map[string]image.Image
	gen     uint64
	cache   *cachedLayout
	history *undo.History
	newID   func() string

	nextListener int
	listeners    map[int]func(gen uint64)

	log *slog.Logger
}

// New returns an empty workspace for the given page.
func New(page domain.PageSetup, unit domain.Unit, opts ...Option) (*Workspace, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if unit == "" {
		unit = domain.UnitInch
	}
	w := &Workspace{
		page:      page,
		unit:      unit,
		pixels:    make(map[string]image.Image),
		listeners: make(map[int]func(uint64)),
		newID:     func() string { return uuid.NewString() },
		log:       applog.WithComponent("canvas"),
	}
	for _, o := range opts {
		o(w)
	}
	if w.history == nil {
		w.history = undo.NewHistory(undo.Config{MaxDepth: 100})
	}
	return w, nil
}

func (w *Workspace) Page() domain.PageSetup {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.page
}

func (w *Workspace) Unit() domain.Unit {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unit
}

func (w *Workspace) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen
}

// Placements returns a copy of the current placements in insertion order.
func (w *Workspace) Placements() []domain.ImagePlacement {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.ImagePlacement(nil), w.images...)
}

// Placement returns one placement by id.
func (w *Workspace) Placement(id string) (domain.ImagePlacement, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexLocked(id)
	if i < 0 {
		return domain.ImagePlacement{}, false
	}
	return w.images[i], true
}

// OnChange registers fn to be called after every committed change with the
// new generation. The returned func removes it.
func (w *Workspace) OnChange(fn func(gen uint64)) (remove func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextListener
	w.nextListener++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

// Add places p on the canvas and returns its id. An empty ID is replaced by a fresh UUID.
func (w *Workspace) Add(p domain.ImagePlacement) (string, error) {
	if !validSize(p.Width, p.Height) {
		return "", fmt.Errorf("%w: %gx%g", ErrInvalidSize, p.Width, p.Height)
	}
	var id string
	err := w.mutate("add", func() error {
		if p.ID == "" {
			p.ID = w.newID()
		}
		if w.indexLocked(p.ID) >= 0 {
			return fmt.Errorf("canvas: duplicate image id %q", p.ID)
		}
		if p.Image != nil {
			w.pixels[p.ID] = p.Image
		}
		w.images = append(w.images, p)
		id = p.ID
		return nil
	})
	return id, err
}

// Remove deletes a placement.
func (w *Workspace) Remove(id string) error {
	return w.mutate("remove", func() error {
		i := w.indexLocked(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownImage, id)
		}
		w.images = append(w.images[:i], w.images[i+1:]...)
		return nil
	})
}

// Move shifts a placement by dx, dy.
func (w *Workspace) Move(id string, dx, dy float64) error {
	return w.mutate("move", func() error {
		i := w.indexLocked(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownImage, id)
		}
		w.images[i].X += dx
		w.images[i].Y += dy
		return nil
	})
}

// MoveTo places the top-left corner of a placement at x, y before normalisation.
func (w *Workspace) MoveTo(id string, x, y float64) error {
	return w.mutate("move", func() error {
		i := w.indexLocked(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownImage, id)
		}
		w.images[i].X, w.images[i].Y = x, y
		return nil
	})
}

// Resize sets the placed size. With keepAspect the height follows the width.
func (w *Workspace) Resize(id string, width, height float64, keepAspect bool) error {
	return w.mutate("resize", func() error {
		i := w.indexLocked(id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownImage, id)
		}
		p := &w.images[i]
		if keepAspect && p.Width > 0 {
			height = width * p.Height / p.Width
		}
		if !validSize(width, height) {
			return fmt.Errorf("%w: %gx%g", ErrInvalidSize, width, height)
		}
		p.Width, p.Height = width, height
		return nil
	})
}

// SetPageSetup replaces the page setup after validating it.
func (w *Workspace) SetPageSetup(p domain.PageSetup) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return w.mutate("page", func() error {
		w.page = p
		return nil
	})
}

// SetUnit changes the display unit.
func (w *Workspace) SetUnit(u domain.Unit) error {
	if _, err := domain.ParseUnit(string(u)); err != nil {
		return err
	}
	return w.mutate("unit", func() error {
		w.unit = u
		return nil
	})
}

// Layout returns the tiling for the current generation, computing it at most
// once per generation. Without placements it returns ErrNoImages.
func (w *Workspace) Layout() (Layout, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c := w.cache; c != nil && c.gen == w.gen {
		return c.layout, c.err
	}
	l, err := computeLayout(w.images, w.page)
	l.Generation = w.gen
	w.cache = &cachedLayout{gen: w.gen, layout: l, err: err}
	return l, err
}

func computeLayout(images []domain.ImagePlacement, page domain.PageSetup) (Layout, error) {
	box, ok := tiles.BoundingBox(images)
	if !ok {
		return Layout{}, ErrNoImages
	}
	g, counts, err := tiles.Best(box, page)
	if err != nil {
		return Layout{Box: box}, err
	}
	return Layout{Box: box, Grid: g, Counts: counts, Tiles: g.Tiles(box)}, nil
}

// Snapshot returns the persistable state.
func (w *Workspace) Snapshot() domain.StoredState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.storedLocked()
}

// Apply replaces the whole state. Pixels are reattached from images by id,
// falling back to pixels already known to the workspace. History is cleared.
func (w *Workspace) Apply(st domain.StoredState, images map[string]image.Image) error {
	if err := st.PageSetup.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	for id, img := range images {
		w.pixels[id] = img
	}
	w.applyLocked(st)
	w.gen++
	gen := w.gen
	w.mu.Unlock()
	w.history.Clear()
	w.notify(gen)
	return nil
}

// Undo reverts the last committed change.
func (w *Workspace) Undo() bool {
	return w.step(w.history.Undo, "undo")
}

// Redo reapplies the last undone change.
func (w *Workspace) Redo() bool {
	return w.step(w.history.Redo, "redo")
}

func (w *Workspace) step(fn func(undo.Snapshot) (undo.Snapshot, bool), op string) bool {
	w.mu.Lock()
	cur, err := w.blobLocked()
	if err != nil {
		w.mu.Unlock()
		w.log.Error("snapshot failed", slog.String("op", op), slog.Any("err", err))
		return false
	}
	s, ok := fn(cur)
	if !ok {
		w.mu.Unlock()
		return false
	}
	var st domain.StoredState
	if err := json.Unmarshal(s.Blob, &st); err != nil {
		w.mu.Unlock()
		w.log.Error("history entry unreadable", slog.String("op", op), slog.Any("err", err))
		return false
	}
	w.applyLocked(st)
	w.gen++
	gen := w.gen
	w.mu.Unlock()
	w.log.Debug(op, slog.Uint64("gen", gen))
	w.notify(gen)
	return true
}

// CanUndo and CanRedo report history availability.
func (w *Workspace) CanUndo() bool { return w.history.CanUndo() }
func (w *Workspace) CanRedo() bool { return w.history.CanRedo() }

// mutate runs fn under the lock, then normalises, records the prior state and
// notifies listeners. fn returning an error leaves the workspace untouched.
func (w *Workspace) mutate(op string, fn func() error) error {
	w.mu.Lock()
	before, err := w.blobLocked()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	saved := append([]domain.ImagePlacement(nil), w.images...)
	page, unit := w.page, w.unit
	if err := fn(); err != nil {
		w.images, w.page, w.unit = saved, page, unit
		w.mu.Unlock()
		return err
	}
	tiles.Normalize(w.images)
	w.gen++
	gen := w.gen
	w.mu.Unlock()

	w.history.Record(before)
	w.log.Debug("mutation", slog.String("op", op), slog.Uint64("gen", gen))
	w.notify(gen)
	return nil
}

// touch bumps the generation for live edits that are not recorded in history.
func (w *Workspace) touch(fn func()) {
	w.mu.Lock()
	fn()
	tiles.Normalize(w.images)
	w.gen++
	gen := w.gen
	w.mu.Unlock()
	w.notify(gen)
}

func (w *Workspace) notify(gen uint64) {
	w.mu.Lock()
	fns := make([]func(uint64), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(gen)
	}
}

func (w *Workspace) indexLocked(id string) int {
	for i := range w.images {
		if w.images[i].ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) storedLocked() domain.StoredState {
	st := domain.StoredState{PageSetup: w.page, Unit: w.unit, Images: make([]domain.StoredImage, 0, len(w.images))}
	for _, p := range w.images {
		st.Images = append(st.Images, domain.StoredFromPlacement(p))
	}
	return st
}

func (w *Workspace) blobLocked() (undo.Snapshot, error) {
	b, err := json.Marshal(w.storedLocked())
	if err != nil {
		return undo.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return undo.Snapshot{Blob: b, TS: time.Now()}, nil
}

func (w *Workspace) applyLocked(st domain.StoredState) {
	w.page = st.PageSetup
	if st.Unit != "" {
		w.unit = st.Unit
	}
	w.images = make([]domain.ImagePlacement, 0, len(st.Images))
	for _, si := range st.Images {
		p := si.Placement()
		p.Image = w.pixels[p.ID]
		w.images = append(w.images, p)
	}
	tiles.Normalize(w.images)
}

func validSize(width, height float64) bool {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < MinSize {
			return false
		}
	}
	return true
}
