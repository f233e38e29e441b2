/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"

	"printtiler/internal/domain"
	"printtiler/internal/imageload"
	"printtiler/internal/storage"
)

// PixelLoader returns the decoded pixels for an image source.
type PixelLoader func(src string) (image.Image, error)

// LoadFromFile is the default PixelLoader.
func LoadFromFile(src string) (image.Image, error) {
	l, err := imageload.Load(src)
	if err != nil {
		return nil, err
	}
	return l.Image, nil
}

// Save writes the current state to s.
func (w *Workspace) Save(ctx context.Context, s storage.Store) error {
	return storage.SaveState(ctx, s, w.Snapshot())
}

// Restore loads the stored state, reloads every image through load and applies
// it. It reports false without error when nothing is stored. Any other failure
// deletes the stored state so a broken entry is not retried forever.
func (w *Workspace) Restore(ctx context.Context, s storage.Store, load PixelLoader) (bool, error) {
	if load == nil {
		load = LoadFromFile
	}
	l := w.log.With(slog.String("op", "restore"))
	err := w.restore(ctx, s, load)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	l.Error("failed to restore state", slog.Any("err", err))
	if derr := s.Delete(ctx, domain.StateKey); derr != nil {
		l.Warn("delete stored state failed", slog.Any("err", derr))
	}
	return false, err
}

func (w *Workspace) restore(ctx context.Context, s storage.Store, load PixelLoader) error {
	st, err := storage.LoadState(ctx, s)
	if err != nil {
		return err
	}
	pixels := make(map[string]image.Image, len(st.Images))
	for _, im := range st.Images {
		img, err := load(im.Src)
		if err != nil {
			return fmt.Errorf("reload %s: %w", im.Src, err)
		}
		pixels[im.ID] = img
	}
	return w.Apply(st, pixels)
}

// Autosave saves the workspace to a store once changes have been quiet for a delay.
type Autosave struct {
	w      *Workspace
	store  storage.Store
	ctx    context.Context
	remove func()
	call   func(func())

	mu      sync.Mutex
	pending bool
	saves   int
	lastErr error
}

// EnableAutosave registers a debounced save on every change. Stop flushes
// pending changes and unregisters.
func (w *Workspace) EnableAutosave(ctx context.Context, s storage.Store, delay time.Duration) *Autosave {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	a := &Autosave{w: w, store: s, ctx: ctx, call: debounce.New(delay)}
	a.remove = w.OnChange(func(uint64) {
		a.mu.Lock()
		a.pending = true
		a.mu.Unlock()
		a.call(a.flush)
	})
	return a
}

func (a *Autosave) flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.pending {
		return
	}
	a.pending = false
	if err := a.w.Save(a.ctx, a.store); err != nil {
		a.lastErr = err
		a.w.log.Warn("autosave failed", slog.Any("err", err))
		return
	}
	a.saves++
}

// Stop unregisters the change listener and writes any pending change.
func (a *Autosave) Stop() error {
	a.remove()
	a.flush()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Saves returns how many saves have completed.
func (a *Autosave) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}
