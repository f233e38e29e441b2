/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"encoding/json"
	"log/slog"
	"time"

	"printtiler/internal/domain"
	"printtiler/internal/drag"
	"printtiler/internal/undo"
)

// DragMode selects what a drag does to its placement.
type DragMode int

const (
	DragMove DragMode = iota
	// DragResize moves the bottom-right corner.
	DragResize
)

func (m DragMode) String() string {
	if m == DragResize {
		return "resize"
	}
	return "move"
}

// KeyFreeAspect held during a resize drag releases the aspect ratio lock.
const KeyFreeAspect = "Shift"

// DragTarget is the per-session context of a workspace drag.
type DragTarget struct {
	ID   string
	Mode DragMode

	last    domain.Point
	start   domain.ImagePlacement
	before  undo.Snapshot
	known   bool
	changed bool
}

// Target returns a fresh context for one drag of placement id.
func Target(id string, mode DragMode) *DragTarget {
	return &DragTarget{ID: id, Mode: mode}
}

// DragKeys names the keys that end a drag. Empty fields use the drag defaults.
type DragKeys struct {
	Confirm string
	Cancel  string
}

func (k DragKeys) withDefaults() DragKeys {
	if k.Confirm == "" {
		k.Confirm = drag.KeyConfirm
	}
	if k.Cancel == "" {
		k.Cancel = drag.KeyCancel
	}
	return k
}

// DragHandler returns a Starter whose sessions edit placements live. Pointer-up
// and the confirm key commit the change as one undo step; the cancel key
// restores the state from before the drag. held may be nil.
func (w *Workspace) DragHandler(src drag.InputSource, held *drag.PressedKeys, keys DragKeys) drag.Starter[*DragTarget] {
	keys = keys.withDefaults()
	return drag.NewHandler(src, func(down, move *drag.PointerEvent, up drag.Event, t *DragTarget) {
		switch {
		case up != nil:
			if k, ok := up.(drag.KeyEvent); ok && k.Key == keys.Cancel {
				w.cancelDrag(t)
				return
			}
			w.commitDrag(t)
		case move != nil:
			w.dragMove(*move, t, held)
		case down != nil:
			w.beginDrag(*down, t)
		}
	}, drag.WithKeys(keys.Confirm, keys.Cancel))
}

func (w *Workspace) beginDrag(down drag.PointerEvent, t *DragTarget) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t.last = domain.Point{X: down.X, Y: down.Y}
	i := w.indexLocked(t.ID)
	if i < 0 {
		w.log.Warn("drag on unknown image", slog.String("id", t.ID))
		return
	}
	before, err := w.blobLocked()
	if err != nil {
		w.log.Error("drag snapshot failed", slog.Any("err", err))
		return
	}
	t.known = true
	t.start = w.images[i]
	t.before = before
}

func (w *Workspace) dragMove(ev drag.PointerEvent, t *DragTarget, held *drag.PressedKeys) {
	if !t.known {
		return
	}
	dx, dy := ev.X-t.last.X, ev.Y-t.last.Y
	t.last = domain.Point{X: ev.X, Y: ev.Y}
	w.touch(func() {
		i := w.indexLocked(t.ID)
		if i < 0 {
			return
		}
		p := &w.images[i]
		switch t.Mode {
		case DragResize:
			width := max(MinSize, p.Width+dx)
			height := max(MinSize, p.Height+dy)
			if !held.Has(KeyFreeAspect) && t.start.Width > 0 {
				height = max(MinSize, width*t.start.Height/t.start.Width)
			}
			p.Width, p.Height = width, height
		default:
			p.X += dx
			p.Y += dy
		}
		t.changed = true
	})
}

func (w *Workspace) commitDrag(t *DragTarget) {
	if !t.known || !t.changed {
		return
	}
	t.before.TS = time.Now()
	w.history.Record(t.before)
	w.log.Debug("drag committed", slog.String("id", t.ID), slog.String("mode", t.Mode.String()))
}

func (w *Workspace) cancelDrag(t *DragTarget) {
	if !t.known || !t.changed {
		return
	}
	var st domain.StoredState
	if err := json.Unmarshal(t.before.Blob, &st); err != nil {
		w.log.Error("drag snapshot unreadable", slog.Any("err", err))
		return
	}
	w.touch(func() { w.applyLocked(st) })
	w.log.Debug("drag cancelled", slog.String("id", t.ID), slog.String("mode", t.Mode.String()))
}
