/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"sync"
)

// Surface is an in-process InputSource. Input adapters (or tests) feed events
// through PointerMove, PointerUp, KeyDown and KeyUp; listeners are called in
// registration order. A listener removed while an event is being dispatched
// is not called for that event.
type Surface struct {
	mu    sync.Mutex
	moves listeners[PointerEvent]
	ups   listeners[PointerEvent]
	downs listeners[KeyEvent]
	keyUp listeners[KeyEvent]
}

var _ InputSource = (*Surface)(nil)
var _ KeySource = (*Surface)(nil)

// NewSurface returns an empty surface.
func NewSurface() *Surface { return &Surface{} }

func (s *Surface) OnPointerMove(fn func(PointerEvent)) func() { return add(&s.mu, &s.moves, fn) }
func (s *Surface) OnPointerUp(fn func(PointerEvent)) func()   { return add(&s.mu, &s.ups, fn) }
func (s *Surface) OnKeyDown(fn func(KeyEvent)) func()         { return add(&s.mu, &s.downs, fn) }
func (s *Surface) OnKeyUp(fn func(KeyEvent)) func()           { return add(&s.mu, &s.keyUp, fn) }

func (s *Surface) PointerMove(ev PointerEvent) { dispatch(&s.mu, &s.moves, ev) }
func (s *Surface) PointerUp(ev PointerEvent)   { dispatch(&s.mu, &s.ups, ev) }
func (s *Surface) KeyDown(ev KeyEvent)         { dispatch(&s.mu, &s.downs, ev) }
func (s *Surface) KeyUp(ev KeyEvent)           { dispatch(&s.mu, &s.keyUp, ev) }

// Listeners returns the number of registered listeners of every kind.
func (s *Surface) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.moves.fns) + len(s.ups.fns) + len(s.downs.fns) + len(s.keyUp.fns)
}

type listeners[E any] struct {
	next int
	ids  []int
	fns  map[int]func(E)
}

func add[E any](mu *sync.Mutex, l *listeners[E], fn func(E)) func() {
	mu.Lock()
	defer mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(E))
	}
	l.next++
	id := l.next
	l.ids = append(l.ids, id)
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			delete(l.fns, id)
			for i, v := range l.ids {
				if v == id {
					l.ids = append(l.ids[:i:i], l.ids[i+1:]...)
					break
				}
			}
		})
	}
}

func dispatch[E any](mu *sync.Mutex, l *listeners[E], ev E) {
	mu.Lock()
	ids := append([]int(nil), l.ids...)
	mu.Unlock()
	for _, id := range ids {
		mu.Lock()
		fn, ok := l.fns[id]
		mu.Unlock()
		if ok {
			fn(ev)
		}
	}
}
