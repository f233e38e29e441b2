/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tiles

import (
	"math/rand"
	"testing"

	"printtiler/internal/domain"
)

func TestBoundingBoxExample(t *testing.T) {
	ps := []domain.ImagePlacement{
		{X: 0, Y: 0, Width: 100, Height: 50},
		{X: 80, Y: 30, Width: 50, Height: 50},
	}
	box, ok := BoundingBox(ps)
	if !ok {
		t.Fatalf("expected a box")
	}
	if box != (domain.Rect{X: 0, Y: 0, Width: 130, Height: 80}) {
		t.Fatalf("unexpected box: %+v", box)
	}
}

func TestBoundingBoxEmpty(t *testing.T) {
	if _, ok := BoundingBox(nil); ok {
		t.Fatalf("empty input must not produce a box")
	}
}

func TestBoundingBoxMatchesExtremes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(6)
		ps := make([]domain.ImagePlacement, n)
		for i := range ps {
			ps[i] = domain.ImagePlacement{
				X:      rng.Float64()*400 - 200,
				Y:      rng.Float64()*400 - 200,
				Width:  1 + rng.Float64()*300,
				Height: 1 + rng.Float64()*300,
			}
		}
		box, ok := BoundingBox(ps)
		if !ok {
			t.Fatalf("no box for %d placements", n)
		}
		minX, minY := ps[0].X, ps[0].Y
		maxX, maxY := ps[0].X+ps[0].Width, ps[0].Y+ps[0].Height
		for _, p := range ps[1:] {
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X+p.Width)
			maxY = max(maxY, p.Y+p.Height)
		}
		if box.X != minX || box.Y != minY || box.Width != maxX-minX || box.Height != maxY-minY {
			t.Fatalf("box %+v does not match extremes x=[%g,%g] y=[%g,%g]", box, minX, maxX, minY, maxY)
		}
		// order must not matter
		rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
		if again, _ := BoundingBox(ps); again != box {
			t.Fatalf("box depends on order: %+v vs %+v", again, box)
		}
	}
}

func TestNormalizeMovesOriginToZero(t *testing.T) {
	ps := []domain.ImagePlacement{
		{X: 12, Y: -4, Width: 10, Height: 10},
		{X: 30, Y: 8, Width: 10, Height: 10},
	}
	dx, dy := Normalize(ps)
	if dx != -12 || dy != 4 {
		t.Fatalf("shift = (%g,%g)", dx, dy)
	}
	if ps[0].X != 0 || ps[0].Y != 0 || ps[1].X != 18 || ps[1].Y != 12 {
		t.Fatalf("unexpected placements after normalize: %+v", ps)
	}
	if dx, dy := Normalize(ps); dx != 0 || dy != 0 {
		t.Fatalf("normalize must be idempotent, got shift (%g,%g)", dx, dy)
	}
	if dx, dy := Normalize(nil); dx != 0 || dy != 0 {
		t.Fatalf("empty normalize shifted (%g,%g)", dx, dy)
	}
}
