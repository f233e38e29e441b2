/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"log/slog"

	applog "printtiler/internal/log"
)

// Handler receives the phases of a session. Exactly one of down, move and up
// is set per call, except that down is also set on later calls when the
// handler was created WithDownRedelivery. ctx is the value passed to the
// Starter and is the same for every call of a session.
type Handler[C any] func(down, move *PointerEvent, up Event, ctx C)

// Starter begins a session for a pointer-down event.
type Starter[C any] func(down PointerEvent, ctx C) *Session[C]

// Option configures NewHandler.
type Option func(*options)

type options struct {
	confirm   string
	cancel    string
	redeliver bool
}

// WithKeys replaces the keys that end a session. An empty string disables that key.
func WithKeys(confirm, cancel string) Option {
	return func(o *options) {
		o.confirm = confirm
		o.cancel = cancel
	}
}

// WithDownRedelivery passes the original down event on every move and up call
// instead of nil.
func WithDownRedelivery() Option {
	return func(o *options) { o.redeliver = true }
}

// NewHandler wraps h into a Starter that runs sessions on src.
func NewHandler[C any](src InputSource, h Handler[C], opts ...Option) Starter[C] {
	o := options{confirm: KeyConfirm, cancel: KeyCancel}
	for _, opt := range opts {
		opt(&o)
	}
	return func(down PointerEvent, ctx C) *Session[C] {
		s := &Session[C]{
			opts:    o,
			handler: h,
			down:    down,
			ctx:     ctx,
			active:  true,
			log:     applog.WithComponent("drag").With(slog.Int("pointer", down.PointerID)),
		}
		s.removers = []func(){
			src.OnKeyDown(s.handleKey),
			src.OnPointerMove(s.handleMove),
			src.OnPointerUp(s.handleUp),
		}
		s.log.Debug("drag begin", slog.Float64("x", down.X), slog.Float64("y", down.Y))
		h(&s.down, nil, nil, ctx)
		return s
	}
}

// Session is one begin→move*→end interaction bound to a single pointer.
type Session[C any] struct {
	opts     options
	handler  Handler[C]
	down     PointerEvent
	ctx      C
	lastMove *PointerEvent
	end      Event
	active   bool
	removers []func()
	log      *slog.Logger
}

func (s *Session[C]) PointerID() int { return s.down.PointerID }
func (s *Session[C]) Down() PointerEvent { return s.down }
func (s *Session[C]) Context() C { return s.ctx }
func (s *Session[C]) Active() bool { return s.active }

// LastMove returns the most recent move event delivered to the handler.
func (s *Session[C]) LastMove() (PointerEvent, bool) {
	if s.lastMove == nil {
		return PointerEvent{}, false
	}
	return *s.lastMove, true
}

// End returns the event that ended the session, or nil while it is active.
func (s *Session[C]) End() Event { return s.end }

// Abort ends an active session as if the cancel key had been pressed.
func (s *Session[C]) Abort() {
	s.finish(KeyEvent{Key: s.opts.cancel})
}

func (s *Session[C]) downArg() *PointerEvent {
	if s.opts.redeliver {
		return &s.down
	}
	return nil
}

func (s *Session[C]) handleKey(ev KeyEvent) {
	if ev.Key == "" || (ev.Key != s.opts.confirm && ev.Key != s.opts.cancel) {
		return
	}
	s.finish(ev)
}

func (s *Session[C]) handleMove(ev PointerEvent) {
	if !s.active || ev.PointerID != s.down.PointerID {
		return
	}
	s.lastMove = &ev
	s.handler(s.downArg(), &ev, nil, s.ctx)
}

func (s *Session[C]) handleUp(ev PointerEvent) {
	if ev.PointerID != s.down.PointerID {
		return
	}
	s.finish(ev)
}

func (s *Session[C]) finish(ev Event) {
	if !s.active {
		return
	}
	s.active = false
	s.end = ev
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
	s.log.Debug("drag end", slog.Any("event", ev))
	s.handler(s.downArg(), nil, ev, s.ctx)
}
