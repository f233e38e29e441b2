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
	"path/filepath"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetPrint writes a PDF with cut marks and labels.
	PresetPrint PresetName = "print"
	// PresetPreview writes low resolution PNG tiles.
	PresetPreview PresetName = "preview"
)

// BatchOptions controls Batch. OutDir receives tiles.pdf and a png/ subfolder.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // pdf, png; empty means preset defaults
	DPIOverride int
	Labels      *bool // overrides the preset default when set
	OutDir      string
	Title       string
	Workers     int // concurrent png renders
}

// BatchResult lists written files.
type BatchResult struct {
	PDF  string
	PNGs []string
}

// Batch runs every format of a preset.
func Batch(s Sheet, opt BatchOptions) (BatchResult, error) {
	var res BatchResult
	if opt.OutDir == "" {
		return res, fmt.Errorf("output directory is required")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	labels := opt.Preset != PresetPreview
	if opt.Labels != nil {
		labels = *opt.Labels
	}
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pdf":
			out := filepath.Join(opt.OutDir, "tiles.pdf")
			po := PDFOptions{CutMarks: true, Labels: labels, Guides: opt.Preset == PresetPreview, Title: opt.Title}
			if err := ExportPDF(s, out, po); err != nil {
				return res, fmt.Errorf("pdf: %w", err)
			}
			res.PDF = out
		case "png":
			po := PNGOptions{DPI: presetDPI(opt.Preset), CutMarks: true, Labels: labels, Workers: opt.Workers}
			if opt.DPIOverride > 0 {
				po.DPI = opt.DPIOverride
			}
			paths, err := ExportPNG(s, filepath.Join(opt.OutDir, "png"), po)
			if err != nil {
				return res, fmt.Errorf("png: %w", err)
			}
			res.PNGs = paths
		default:
			return res, fmt.Errorf("unknown format: %s", f)
		}
	}
	return res, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPreview:
		return []string{"png"}
	default:
		return []string{"pdf"}
	}
}

func presetDPI(p PresetName) int {
	if p == PresetPreview {
		return 72
	}
	return 300
}
