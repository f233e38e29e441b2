/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"printtiler/internal/domain"
	applog "printtiler/internal/log"
)

// PDFOptions controls PDF export. All geometry is in millimetres.
type PDFOptions struct {
	CutMarks bool
	Labels   bool
	// Guides outlines the printable content area of each page.
	Guides bool
	Title  string
}

// ExportPDF writes one page per tile to outPath.
func ExportPDF(s Sheet, outPath string, opt PDFOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf").With(slog.String("out", outPath))
	if len(s.Tiles) == 0 {
		return ErrNothingToExport
	}
	pw, ph := s.PageSize()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	title := opt.Title
	if title == "" {
		title = "Tiled print"
	}
	pdf.SetTitle(title, false)
	pdf.SetCreator("printtiler", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 8)

	cut := cutColor(s.Page)
	registered := make(map[string]bool)
	for _, t := range s.Tiles {
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: pw, Ht: ph})

		pdf.ClipRect(s.Page.Margin, s.Page.Margin, s.Grid.ContentWidth, s.Grid.ContentHeight, false)
		for _, p := range s.visible(t) {
			if p.Image == nil {
				l.Warn("image has no pixels; drawing outline", slog.String("id", p.ID), slog.String("src", p.Src))
				pdf.SetDrawColor(128, 128, 128)
				pdf.Rect(p.Page.X, p.Page.Y, p.Page.Width, p.Page.Height, "D")
				continue
			}
			if !registered[p.ID] {
				var buf bytes.Buffer
				if err := png.Encode(&buf, p.Image); err != nil {
					pdf.ClipEnd()
					return fmt.Errorf("encode %s: %w", p.ID, err)
				}
				pdf.RegisterImageOptionsReader(p.ID, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
				registered[p.ID] = true
			}
			pdf.ImageOptions(p.ID, p.Page.X, p.Page.Y, p.Page.Width, p.Page.Height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		pdf.ClipEnd()

		if opt.Guides {
			pdf.SetDrawColor(160, 160, 160)
			pdf.SetLineWidth(0.1)
			pdf.Rect(s.Page.Margin, s.Page.Margin, s.Grid.ContentWidth, s.Grid.ContentHeight, "D")
		}
		if opt.CutMarks {
			pdf.SetDrawColor(int(cut.R), int(cut.G), int(cut.B))
			pdf.SetLineWidth(0.2)
			pdf.SetDashPattern([]float64{2, 1}, 0)
			for _, ln := range s.cutLines(t) {
				pdf.Line(ln[0], ln[1], ln[2], ln[3])
			}
			pdf.SetDashPattern(nil, 0)
		}
		if opt.Labels {
			pdf.SetTextColor(80, 80, 80)
			pdf.Text(s.Page.Margin, s.Page.Margin*0.75, fmt.Sprintf("%s  (%d/%d)", t.Label(), t.Row*s.Grid.Across+t.Col+1, len(s.Tiles)))
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Info("pdf written", slog.Int("pages", len(s.Tiles)), slog.Bool("rotated", s.Grid.Rotated))
	return nil
}

func cutColor(p domain.PageSetup) domain.Color {
	c, err := domain.ParseHexColor(p.CutMarkColor)
	if err != nil {
		return domain.Color{R: 255, A: 255}
	}
	return c
}
