/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"sort"
	"sync"
)

// PressedKeys tracks which keys are currently held down.
type PressedKeys struct {
	mu   sync.Mutex
	keys map[string]struct{}
	stop []func()
}

// TrackKeys starts tracking key state on src until Close is called.
func TrackKeys(src KeySource) *PressedKeys {
	p := &PressedKeys{keys: make(map[string]struct{})}
	p.stop = []func(){
		src.OnKeyDown(func(ev KeyEvent) {
			p.mu.Lock()
			p.keys[ev.Key] = struct{}{}
			p.mu.Unlock()
		}),
		src.OnKeyUp(func(ev KeyEvent) {
			p.mu.Lock()
			delete(p.keys, ev.Key)
			p.mu.Unlock()
		}),
	}
	return p
}

// Has reports whether key is held. A nil tracker holds nothing.
func (p *PressedKeys) Has(key string) bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.keys[key]
	return ok
}

// Keys returns the held keys in sorted order.
func (p *PressedKeys) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.keys))
	for k := range p.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close stops listening.
func (p *PressedKeys) Close() {
	for _, stop := range p.stop {
		stop()
	}
	p.stop = nil
}
