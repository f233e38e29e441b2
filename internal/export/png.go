/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/remeh/sizedwaitgroup"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"printtiler/internal/domain"
	applog "printtiler/internal/log"
	"printtiler/internal/tiles"
)

// DefaultDPI is used when PNGOptions.DPI is not set.
const DefaultDPI = 150

// PNGOptions controls raster export.
type PNGOptions struct {
	DPI      int
	CutMarks bool
	Labels   bool
	// Prefix names the output files <Prefix>-<label>.png; default "tile".
	Prefix string
	// Workers bounds concurrent tile renders; 0 means GOMAXPROCS.
	Workers int
}

// ExportPNG renders each tile to its own PNG in outDir and returns the written paths.
func ExportPNG(s Sheet, outDir string, opt PNGOptions) ([]string, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "png").With(slog.String("out", outDir))
	if len(s.Tiles) == 0 {
		return nil, ErrNothingToExport
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	prefix := opt.Prefix
	if prefix == "" {
		prefix = "tile"
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	paths := make([]string, len(s.Tiles))
	errs := make([]error, len(s.Tiles))
	swg := sizedwaitgroup.New(workers)
	for i, t := range s.Tiles {
		swg.Add()
		go func() {
			defer swg.Done()
			p := filepath.Join(outDir, fmt.Sprintf("%s-%s.png", prefix, t.Label()))
			errs[i] = writePNG(p, s.renderTile(t, float64(dpi), opt))
			paths[i] = p
		}()
	}
	swg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	l.Info("png tiles written", slog.Int("count", len(paths)), slog.Int("dpi", dpi))
	return paths, nil
}

// RenderTile rasterises tile index i at dpi.
func (s Sheet) RenderTile(i int, dpi float64, opt PNGOptions) (*image.RGBA, error) {
	if i < 0 || i >= len(s.Tiles) {
		return nil, fmt.Errorf("tile index %d out of range", i)
	}
	return s.renderTile(s.Tiles[i], dpi, opt), nil
}

func (s Sheet) renderTile(t tiles.Tile, dpi float64, opt PNGOptions) *image.RGBA {
	px := func(mm float64) int { return int(math.Round(mm / domain.MillimetresPerInch * dpi)) }
	pw, ph := s.PageSize()
	dst := image.NewRGBA(image.Rect(0, 0, px(pw), px(ph)))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)

	m := s.Page.Margin
	content := image.Rect(px(m), px(m), px(m+s.Grid.ContentWidth), px(m+s.Grid.ContentHeight))
	clip := dst.SubImage(content).(*image.RGBA)
	for _, p := range s.visible(t) {
		dr := image.Rect(px(p.Page.X), px(p.Page.Y), px(p.Page.X+p.Page.Width), px(p.Page.Y+p.Page.Height))
		if p.Image == nil {
			strokeRect(clip, dr, color.RGBA{R: 128, G: 128, B: 128, A: 255})
			continue
		}
		xdraw.CatmullRom.Scale(clip, dr, p.Image, p.Image.Bounds(), xdraw.Over, nil)
	}

	if opt.CutMarks {
		c := cutColor(s.Page)
		col := color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		for _, ln := range s.cutLines(t) {
			dashed(dst, px(ln[0]), px(ln[1]), px(ln[2]), px(ln[3]), col)
		}
	}
	if opt.Labels {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.RGBA{R: 80, G: 80, B: 80, A: 255}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(px(m), max(13, px(m)-4)),
		}
		d.DrawString(t.Label())
	}
	return dst
}

// dashed draws an axis-aligned dashed line.
func dashed(dst *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	const on, period = 6, 9
	if x0 == x1 {
		for y := min(y0, y1); y < max(y0, y1); y++ {
			if y%period < on {
				dst.Set(x0, y, c)
			}
		}
		return
	}
	for x := min(x0, x1); x < max(x0, x1); x++ {
		if x%period < on {
			dst.Set(x, y0, c)
		}
	}
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
