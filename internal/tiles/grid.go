/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tiles

import (
	"errors"
	"fmt"
	"math"

	"printtiler/internal/domain"
)

var (
	// ErrEmptyBox means a grid was requested for a missing or degenerate bounding box.
	ErrEmptyBox = errors.New("tiles: empty bounding box")
	// ErrOverlapTooLarge means the overlap consumes the page content so no tile count can cover the box.
	ErrOverlapTooLarge = errors.New("tiles: overlap too large for page content")
)

// Grid describes the tiling of one bounding box.
type Grid struct {
	// ContentWidth and ContentHeight are the page size minus margins in the chosen orientation.
	ContentWidth  float64
	ContentHeight float64
	Across        int
	Down          int
	// TiledWidth is the box width plus one overlap band per seam.
	TiledWidth  float64
	TiledHeight float64
	// OffsetX and OffsetY centre the tiled region inside the across×down page grid.
	OffsetX float64
	OffsetY float64
	Overlap float64
	Rotated bool
}

// Count returns the number of pages.
func (g Grid) Count() int { return g.Across * g.Down }

// Covers reports whether n tiles of the given content length, sharing overlap
// at every seam, cover extent. This is the termination test of the tile search.
func Covers(n int, content, overlap, extent float64) bool {
	seams := float64(n - 1)
	return extent+overlap*seams <= content*float64(n)-overlap*seams
}

// ComputeGrid finds the minimal tile grid covering box on the given page.
// When rotated is true the page is used with width and height swapped.
func ComputeGrid(box domain.Rect, page domain.PageSetup, rotated bool) (Grid, error) {
	if !usable(box) {
		return Grid{}, fmt.Errorf("%w: %+v", ErrEmptyBox, box)
	}
	if err := page.Validate(); err != nil {
		return Grid{}, err
	}
	cw, ch := page.ContentSize(rotated)

	across, tiledW, err := search(box.Width, cw, page.Overlap)
	if err != nil {
		return Grid{}, fmt.Errorf("across: %w", err)
	}
	down, tiledH, err := search(box.Height, ch, page.Overlap)
	if err != nil {
		return Grid{}, fmt.Errorf("down: %w", err)
	}

	return Grid{
		ContentWidth:  cw,
		ContentHeight: ch,
		Across:        across,
		Down:          down,
		TiledWidth:    tiledW,
		TiledHeight:   tiledH,
		OffsetX:       (cw*float64(across) - tiledW - page.Overlap*float64(across-1)) / 2,
		OffsetY:       (ch*float64(down) - tiledH - page.Overlap*float64(down-1)) / 2,
		Overlap:       page.Overlap,
		Rotated:       rotated,
	}, nil
}

// MaxTilesPerAxis caps the tile count in one direction. Larger grids are
// rejected with ErrOverlapTooLarge before searching.
const MaxTilesPerAxis = 10000

// search increments the tile count from 1 until Covers holds and returns the
// count with the tiled extent for that count.
func search(extent, content, overlap float64) (int, float64, error) {
	if content <= overlap {
		return 0, 0, fmt.Errorf("%w: content %g <= overlap %g", ErrOverlapTooLarge, content, overlap)
	}
	// Each extra tile adds content-2*overlap of reach; a single tile needs no seam.
	if extent > content {
		gain := content - 2*overlap
		if gain <= 0 {
			return 0, 0, fmt.Errorf("%w: content %g cannot advance past overlap %g", ErrOverlapTooLarge, content, overlap)
		}
		if need := math.Ceil((extent - 2*overlap) / gain); need > MaxTilesPerAxis {
			return 0, 0, fmt.Errorf("%w: %g tiles needed for %g with content %g and overlap %g",
				ErrOverlapTooLarge, need, extent, content, overlap)
		}
	}
	n := 0
	tiled := math.Inf(1)
	for tiled > content*float64(n)-overlap*float64(n-1) {
		n++
		tiled = extent + overlap*float64(n-1)
	}
	return n, tiled, nil
}

func usable(r domain.Rect) bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// TileCounts holds the page count for both orientations.
type TileCounts struct {
	Normal  int
	Rotated int
}

// PreferRotated is true only when the rotated orientation needs strictly fewer pages.
func (c TileCounts) PreferRotated() bool { return c.Rotated < c.Normal }

// Counts computes across*down for the page as configured and rotated.
func Counts(box domain.Rect, page domain.PageSetup) (TileCounts, error) {
	n, err := ComputeGrid(box, page, false)
	if err != nil {
		return TileCounts{}, err
	}
	r, err := ComputeGrid(box, page, true)
	if err != nil {
		return TileCounts{}, err
	}
	return TileCounts{Normal: n.Count(), Rotated: r.Count()}, nil
}

// Best returns the grid for the cheaper orientation, preferring the normal one on a tie.
func Best(box domain.Rect, page domain.PageSetup) (Grid, TileCounts, error) {
	c, err := Counts(box, page)
	if err != nil {
		return Grid{}, TileCounts{}, err
	}
	g, err := ComputeGrid(box, page, c.PreferRotated())
	return g, c, err
}
