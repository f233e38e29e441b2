/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drag turns raw pointer and keyboard input into drag sessions.
//
// A handler created with NewHandler is attached to a pointer-down source. Each
// pointer-down starts a Session that calls the handler once with the down
// event, once per matching pointer move, and exactly once with the event that
// ended it: the matching pointer-up, or a key-down of the confirm or cancel key.
// Listeners are registered on an InputSource when the session begins and are
// all removed when it ends.
package drag

// Event is either a PointerEvent or a KeyEvent.
type Event interface{ isEvent() }

// PointerEvent is a pointer position in caller coordinates.
// PointerID tells concurrent pointers (fingers, pens, mice) apart.
type PointerEvent struct {
	PointerID int     `json:"pointer"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// KeyEvent carries a key name such as "Enter", "Escape" or "Shift".
type KeyEvent struct {
	Key string `json:"key"`
}

func (PointerEvent) isEvent() {}
func (KeyEvent) isEvent()     {}

// Default keys that end a session.
const (
	KeyConfirm = "Enter"
	KeyCancel  = "Escape"
)

// InputSource is the registry of process-wide input listeners.
// Each On* call returns a function that removes the listener; calling it more
// than once is harmless.
type InputSource interface {
	OnPointerMove(fn func(PointerEvent)) (remove func())
	OnPointerUp(fn func(PointerEvent)) (remove func())
	OnKeyDown(fn func(KeyEvent)) (remove func())
}

// KeySource is an input source that also reports key releases.
type KeySource interface {
	OnKeyDown(fn func(KeyEvent)) (remove func())
	OnKeyUp(fn func(KeyEvent)) (remove func())
}
