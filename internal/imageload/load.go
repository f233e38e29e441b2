/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imageload decodes image files and derives their natural placed size.
package imageload

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"

	// stdlib decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// extra decoders
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"printtiler/internal/domain"
	applog "printtiler/internal/log"
)

// DefaultDPI is the assumed resolution of images that carry none.
const DefaultDPI = 96.0

// ErrEmptyImage is returned for images with zero width or height.
var ErrEmptyImage = errors.New("imageload: image has no pixels")

// Loaded is a decoded image file.
type Loaded struct {
	Path   string
	Format string
	Image  image.Image
	Bytes  int64
}

// Bounds returns the native pixel size.
func (l Loaded) Bounds() (w, h int) {
	b := l.Image.Bounds()
	return b.Dx(), b.Dy()
}

// NaturalSize returns the placed size in millimetres at the given dpi (DefaultDPI when <= 0).
func (l Loaded) NaturalSize(dpi float64) (w, h float64) {
	pw, ph := l.Bounds()
	return NaturalSize(pw, ph, dpi)
}

// NaturalSize converts a pixel size to millimetres at dpi.
func NaturalSize(pxW, pxH int, dpi float64) (w, h float64) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return float64(pxW) / dpi * domain.MillimetresPerInch, float64(pxH) / dpi * domain.MillimetresPerInch
}

// Load opens and decodes path.
func Load(path string) (Loaded, error) {
	l := applog.WithOperation(applog.WithComponent("imageload"), "load").With(slog.String("path", path))
	f, err := os.Open(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}
	img, format, err := Decode(f)
	if err != nil {
		l.Warn("decode failed", slog.Any("err", err))
		return Loaded{}, fmt.Errorf("decode %s: %w", path, err)
	}
	l.Debug("image loaded", slog.String("format", format), slog.Int("w", img.Bounds().Dx()), slog.Int("h", img.Bounds().Dy()))
	return Loaded{Path: path, Format: format, Image: img, Bytes: size}, nil
}

// Decode reads any registered format from r.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, format, ErrEmptyImage
	}
	return img, format, nil
}

// Placement builds a placement for the loaded image at its natural size.
func (l Loaded) Placement(id string, dpi float64) domain.ImagePlacement {
	w, h := l.NaturalSize(dpi)
	return domain.ImagePlacement{ID: id, Src: l.Path, Width: w, Height: h, Image: l.Image}
}
