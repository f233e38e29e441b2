/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tiles

import (
	"strconv"

	"printtiler/internal/domain"
)

// Tile is one page of a grid. Content is the canvas area printed inside the
// page margins; consecutive tiles advance by content minus overlap so each
// seam is printed on both neighbours.
type Tile struct {
	Row, Col int
	Content  domain.Rect

	Left, Right, Top, Bottom bool // a neighbour exists on that side
}

// Label names the tile with a row letter and a 1-based column, e.g. "B3".
func (t Tile) Label() string {
	return rowName(t.Row) + strconv.Itoa(t.Col+1)
}

func rowName(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}

// Tiles enumerates the grid row by row for the bounding box it was computed from.
// Every page keeps an overlap band on each side that has a neighbour, so
// adjacent tiles share 2*Overlap and the grid is centred on the box.
func (g Grid) Tiles(box domain.Rect) []Tile {
	stepX := g.ContentWidth - 2*g.Overlap
	stepY := g.ContentHeight - 2*g.Overlap
	x0 := box.X - g.OffsetX
	y0 := box.Y - g.OffsetY

	out := make([]Tile, 0, g.Count())
	for r := 0; r < g.Down; r++ {
		for c := 0; c < g.Across; c++ {
			out = append(out, Tile{
				Row: r,
				Col: c,
				Content: domain.Rect{
					X:      x0 + float64(c)*stepX,
					Y:      y0 + float64(r)*stepY,
					Width:  g.ContentWidth,
					Height: g.ContentHeight,
				},
				Left:   c > 0,
				Right:  c < g.Across-1,
				Top:    r > 0,
				Bottom: r < g.Down-1,
			})
		}
	}
	return out
}
