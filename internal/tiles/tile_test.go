/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tiles

import (
	"testing"

	"printtiler/internal/domain"
)

func TestTilesCoverBoundingBox(t *testing.T) {
	box := domain.Rect{X: 0, Y: 0, Width: 1000, Height: 200}
	g, err := ComputeGrid(box, letterLandscape(), false)
	if err != nil {
		t.Fatalf("ComputeGrid: %v", err)
	}
	ts := g.Tiles(box)
	if len(ts) != g.Count() {
		t.Fatalf("got %d tiles, want %d", len(ts), g.Count())
	}
	first, last := ts[0], ts[len(ts)-1]
	if first.Content.X != box.X-g.OffsetX || first.Content.Y != box.Y-g.OffsetY {
		t.Fatalf("first tile origin %+v", first.Content)
	}
	if first.Content.X > box.X || first.Content.Y > box.Y {
		t.Fatalf("first tile starts inside the box: %+v", first.Content)
	}
	if last.Content.Right() < box.Right() || last.Content.Bottom() < box.Bottom() {
		t.Fatalf("last tile %+v does not reach box corner (%g,%g)", last.Content, box.Right(), box.Bottom())
	}
	// adjacent tiles share both of their overlap bands
	if d := ts[0].Content.Right() - ts[1].Content.X; !near(d, 2*g.Overlap) {
		t.Fatalf("horizontal seam overlap = %g, want %g", d, 2*g.Overlap)
	}
	if d := ts[0].Content.Bottom() - ts[g.Across].Content.Y; !near(d, 2*g.Overlap) {
		t.Fatalf("vertical seam overlap = %g, want %g", d, 2*g.Overlap)
	}
	// unused page area is split evenly around the box
	if l, r := box.X-first.Content.X, last.Content.Right()-box.Right(); !near(l, r) {
		t.Fatalf("horizontal margins %g left, %g right", l, r)
	}
	if top, bot := box.Y-first.Content.Y, last.Content.Bottom()-box.Bottom(); !near(top, bot) {
		t.Fatalf("vertical margins %g top, %g bottom", top, bot)
	}
	// the cut line a tile draws on its right falls where its neighbour cuts on the left
	if a, b := ts[0].Content.Right()-g.Overlap, ts[1].Content.X+g.Overlap; !near(a, b) {
		t.Fatalf("cut lines at %g and %g do not meet", a, b)
	}
	if first.Left || first.Top || !first.Right || !first.Bottom {
		t.Fatalf("first tile neighbours wrong: %+v", first)
	}
	if last.Right || last.Bottom || !last.Left || !last.Top {
		t.Fatalf("last tile neighbours wrong: %+v", last)
	}
}

func TestTileLabel(t *testing.T) {
	cases := map[Tile]string{
		{Row: 0, Col: 0}:  "A1",
		{Row: 1, Col: 4}:  "B5",
		{Row: 25, Col: 0}: "Z1",
		{Row: 26, Col: 1}: "AA2",
		{Row: 27, Col: 0}: "AB1",
	}
	for tile, want := range cases {
		if got := tile.Label(); got != want {
			t.Fatalf("Label(%d,%d) = %q, want %q", tile.Row, tile.Col, got, want)
		}
	}
}
