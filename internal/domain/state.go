/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// StateKey is the key under which the workspace state is persisted.
const StateKey = "print-tiler-state"

// StoredImage is an ImagePlacement without pixel data; Src is reloaded on restore.
type StoredImage struct {
	ID     string  `json:"id"`
	Src    string  `json:"src"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// StoredState is the persisted form of a workspace.
type StoredState struct {
	PageSetup PageSetup     `json:"pageSetup"`
	Images    []StoredImage `json:"images"`
	Unit      Unit          `json:"unit"`
}

// StoredFromPlacement drops the pixel reference.
func StoredFromPlacement(p ImagePlacement) StoredImage {
	return StoredImage{ID: p.ID, Src: p.Src, X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Placement turns a stored image back into a placement without pixels.
func (s StoredImage) Placement() ImagePlacement {
	return ImagePlacement{ID: s.ID, Src: s.Src, X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}
