/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tiles

import (
	"math"

	"printtiler/internal/domain"
)

// BoundingBox returns the rectangle enclosing every placement.
// The second result is false when placements is empty; there is no box then and
// the caller must not compute a grid.
func BoundingBox(placements []domain.ImagePlacement) (domain.Rect, bool) {
	if len(placements) == 0 {
		return domain.Rect{}, false
	}
	top, right, bottom, left := math.Inf(1), math.Inf(-1), math.Inf(-1), math.Inf(1)
	for _, p := range placements {
		top = min(top, p.Y)
		right = max(right, p.X+p.Width)
		bottom = max(bottom, p.Y+p.Height)
		left = min(left, p.X)
	}
	return domain.Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, true
}

// Normalize shifts all placements so the smallest X and the smallest Y are 0.
// It returns the applied shift. Empty input is left untouched.
func Normalize(placements []domain.ImagePlacement) (dx, dy float64) {
	box, ok := BoundingBox(placements)
	if !ok || (box.X == 0 && box.Y == 0) {
		return 0, 0
	}
	for i := range placements {
		placements[i].X -= box.X
		placements[i].Y -= box.Y
	}
	return -box.X, -box.Y
}
