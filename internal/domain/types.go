/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the value types shared by layout, interaction, storage and export.
// All lengths are float64 millimetres unless a field says otherwise.

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// ErrInvalidPageSetup is returned by PageSetup.Validate.
var ErrInvalidPageSetup = errors.New("invalid page setup")

// Point is a position on the composite canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle covering [X, X+Width) × [Y, Y+Height).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.Right(), o.Right())
	maxY := max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Intersect returns the overlapping area of r and o and whether it is non-empty.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.Right(), o.Right())
	y1 := min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// Inset shrinks the rect by d on every side (negative grows).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// PageSetup describes the printable medium.
// Margin is unprintable on every edge; Overlap is the band shared by adjacent tiles.
// CutMarkColor is cosmetic and only used by exporters.
type PageSetup struct {
	Width        float64 `json:"width" yaml:"width"`
	Height       float64 `json:"height" yaml:"height"`
	Margin       float64 `json:"margin" yaml:"margin"`
	Overlap      float64 `json:"overlap" yaml:"overlap"`
	CutMarkColor string  `json:"cutMarkColor" yaml:"cut_mark_color"`
}

// DefaultPageSetup is US Letter in landscape with a half inch margin and a quarter inch overlap.
func DefaultPageSetup() PageSetup {
	return PageSetup{
		Width:        11 * MillimetresPerInch,
		Height:       8.5 * MillimetresPerInch,
		Margin:       0.5 * MillimetresPerInch,
		Overlap:      0.25 * MillimetresPerInch,
		CutMarkColor: "#ff0000",
	}
}

// Validate checks width, height > 2*margin and overlap >= 0.
func (p PageSetup) Validate() error {
	if p.Margin < 0 {
		return fmt.Errorf("%w: negative margin %g", ErrInvalidPageSetup, p.Margin)
	}
	if p.Width <= 2*p.Margin || p.Height <= 2*p.Margin {
		return fmt.Errorf("%w: page %gx%g leaves no content area with margin %g", ErrInvalidPageSetup, p.Width, p.Height, p.Margin)
	}
	if p.Overlap < 0 {
		return fmt.Errorf("%w: negative overlap %g", ErrInvalidPageSetup, p.Overlap)
	}
	return nil
}

// ContentSize returns the page size minus margins, swapped when rotated.
func (p PageSetup) ContentSize(rotated bool) (w, h float64) {
	w = p.Width - 2*p.Margin
	h = p.Height - 2*p.Margin
	if rotated {
		return h, w
	}
	return w, h
}

// PageSize returns the physical page size, swapped when rotated.
func (p PageSetup) PageSize(rotated bool) (w, h float64) {
	if rotated {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// ImagePlacement is one image positioned on the composite canvas.
// Width and Height are the placed size and independent of the native resolution.
// Image holds decoded pixels owned by the image loader and is never serialized.
type ImagePlacement struct {
	ID     string      `json:"id"`
	Src    string      `json:"src"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Image  image.Image `json:"-"`
}

// Rect returns the area the placement covers on the canvas.
func (p ImagePlacement) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Color is an 8-bit RGBA colour.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
