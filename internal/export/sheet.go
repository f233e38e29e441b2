/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a tile layout to printable files.
package export

import (
	"errors"
	"fmt"

	"printtiler/internal/canvas"
	"printtiler/internal/domain"
	"printtiler/internal/tiles"
)

// ErrNothingToExport is returned when there are no placements.
var ErrNothingToExport = errors.New("export: nothing to export")

// Sheet is everything a renderer needs: the page, the grid, its tiles and the placements.
type Sheet struct {
	Page       domain.PageSetup
	Grid       tiles.Grid
	Tiles      []tiles.Tile
	Placements []domain.ImagePlacement
}

// NewSheet computes the preferred-orientation layout for placements on page.
func NewSheet(page domain.PageSetup, placements []domain.ImagePlacement) (Sheet, error) {
	box, ok := tiles.BoundingBox(placements)
	if !ok {
		return Sheet{}, ErrNothingToExport
	}
	g, _, err := tiles.Best(box, page)
	if err != nil {
		return Sheet{}, fmt.Errorf("layout: %w", err)
	}
	return Sheet{Page: page, Grid: g, Tiles: g.Tiles(box), Placements: placements}, nil
}

// FromWorkspace uses the workspace's cached layout.
func FromWorkspace(w *canvas.Workspace) (Sheet, error) {
	l, err := w.Layout()
	if errors.Is(err, canvas.ErrNoImages) {
		return Sheet{}, ErrNothingToExport
	}
	if err != nil {
		return Sheet{}, fmt.Errorf("layout: %w", err)
	}
	return Sheet{Page: w.Page(), Grid: l.Grid, Tiles: l.Tiles, Placements: w.Placements()}, nil
}

// PageSize returns the physical size of every output page in millimetres.
func (s Sheet) PageSize() (w, h float64) {
	return s.Page.PageSize(s.Grid.Rotated)
}

// visible lists the placements that intersect the tile content, with the
// placement rect translated into page coordinates (origin at the page corner).
func (s Sheet) visible(t tiles.Tile) []placed {
	var out []placed
	for _, p := range s.Placements {
		if _, ok := p.Rect().Intersect(t.Content); !ok {
			continue
		}
		out = append(out, placed{
			ImagePlacement: p,
			Page: domain.Rect{
				X:      s.Page.Margin + p.X - t.Content.X,
				Y:      s.Page.Margin + p.Y - t.Content.Y,
				Width:  p.Width,
				Height: p.Height,
			},
		})
	}
	return out
}

type placed struct {
	domain.ImagePlacement
	Page domain.Rect
}

// cutLines returns the seam lines of a tile in page coordinates: for every
// side with a neighbour, the inner edge of the overlap band.
func (s Sheet) cutLines(t tiles.Tile) [][4]float64 {
	m := s.Page.Margin
	cw, ch := s.Grid.ContentWidth, s.Grid.ContentHeight
	ov := s.Grid.Overlap
	pw, ph := s.PageSize()
	var lines [][4]float64
	if t.Left {
		lines = append(lines, [4]float64{m + ov, 0, m + ov, ph})
	}
	if t.Right {
		lines = append(lines, [4]float64{m + cw - ov, 0, m + cw - ov, ph})
	}
	if t.Top {
		lines = append(lines, [4]float64{0, m + ov, pw, m + ov})
	}
	if t.Bottom {
		lines = append(lines, [4]float64{0, m + ch - ov, pw, m + ch - ov})
	}
	return lines
}
