/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"printtiler/internal/canvas"
	"printtiler/internal/domain"
	"printtiler/internal/export"
)

// layoutReport is the JSON form of the layout command. Lengths are millimetres.
type layoutReport struct {
	Generation uint64      `json:"generation"`
	Box        domain.Rect `json:"box"`
	Normal     int         `json:"normalCount"`
	Rotated    int         `json:"rotatedCount"`
	UseRotated bool        `json:"useRotated"`
	Across     int         `json:"across"`
	Down       int         `json:"down"`
	OffsetX    float64     `json:"offsetX"`
	OffsetY    float64     `json:"offsetY"`
	TiledW     float64     `json:"tiledWidth"`
	TiledH     float64     `json:"tiledHeight"`
	Tiles      []tileJSON  `json:"tiles"`
}

type tileJSON struct {
	Label   string      `json:"label"`
	Content domain.Rect `json:"content"`
}

func (c *CLI) layoutCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show the tile grid for the current canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				l, err := s.ws.Layout()
				if errors.Is(err, canvas.ErrNoImages) {
					fmt.Fprintln(cmd.OutOrStdout(), "No images placed.")
					return nil
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeLayoutJSON(cmd, l)
				}
				printLayout(cmd, s.ws.Unit(), l, len(s.ws.Placements()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON (millimetres)")
	return cmd
}

func writeLayoutJSON(cmd *cobra.Command, l canvas.Layout) error {
	r := layoutReport{
		Generation: l.Generation,
		Box:        l.Box,
		Normal:     l.Counts.Normal,
		Rotated:    l.Counts.Rotated,
		UseRotated: l.Grid.Rotated,
		Across:     l.Grid.Across,
		Down:       l.Grid.Down,
		OffsetX:    l.Grid.OffsetX,
		OffsetY:    l.Grid.OffsetY,
		TiledW:     l.Grid.TiledWidth,
		TiledH:     l.Grid.TiledHeight,
	}
	for _, t := range l.Tiles {
		r.Tiles = append(r.Tiles, tileJSON{Label: t.Label(), Content: t.Content})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func printLayout(cmd *cobra.Command, u domain.Unit, l canvas.Layout, images int) {
	out := cmd.OutOrStdout()
	orient := "normal"
	if l.Grid.Rotated {
		orient = "rotated"
	}
	fmt.Fprintf(out, "Images:  %d\n", images)
	fmt.Fprintf(out, "Canvas:  %s x %s\n", u.Format(l.Box.Width), u.Format(l.Box.Height))
	fmt.Fprintf(out, "Pages:   %d normal, %d rotated (using %s)\n", l.Counts.Normal, l.Counts.Rotated, orient)
	fmt.Fprintf(out, "Grid:    %d across x %d down\n", l.Grid.Across, l.Grid.Down)
	fmt.Fprintf(out, "Offset:  %s, %s\n", u.Format(l.Grid.OffsetX), u.Format(l.Grid.OffsetY))
	for _, t := range l.Tiles {
		fmt.Fprintf(out, "  %-4s x=%s y=%s\n", t.Label(), u.Format(t.Content.X), u.Format(t.Content.Y))
	}
}

func (c *CLI) exportCommand() *cobra.Command {
	var opt export.BatchOptions
	var preset string
	var noLabels bool
	cmd := &cobra.Command{
		Use:   "export <out-dir>",
		Short: "Render the tiles to PDF or PNG",
		Long: `Render the tiles to files in <out-dir>.

Presets:
  print    tiles.pdf with cut marks and labels
  preview  png/tile-<label>.png at 72 dpi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt.Preset = export.PresetName(preset)
			opt.OutDir = args[0]
			if opt.DPIOverride == 0 && opt.Preset == export.PresetPrint {
				opt.DPIOverride = c.cfg.Export.DPI
			}
			labels := c.cfg.Export.Labels && !noLabels
			opt.Labels = &labels
			return c.withSession(cmd.Context(), func(s *session) error {
				sheet, err := export.FromWorkspace(s.ws)
				if err != nil {
					return err
				}
				began := time.Now()
				res, err := export.Batch(sheet, opt)
				if err != nil {
					return err
				}
				took := time.Since(began).Round(time.Millisecond)
				files := res.PNGs
				if res.PDF != "" {
					files = append([]string{res.PDF}, files...)
				}
				for _, f := range files {
					size := "?"
					if st, err := os.Stat(f); err == nil {
						size = humanize.Bytes(uint64(st.Size()))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", filepath.Clean(f), size)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d tiles in %s\n", len(sheet.Tiles), durafmt.Parse(took).LimitFirstN(2))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&preset, "preset", string(export.PresetPrint), "export preset: print or preview")
	cmd.Flags().StringSliceVar(&opt.Formats, "format", nil, "formats to write: pdf, png (default from preset)")
	cmd.Flags().IntVar(&opt.DPIOverride, "dpi", 0, "raster resolution for png output")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "omit tile labels")
	cmd.Flags().StringVar(&opt.Title, "title", "", "PDF document title")
	cmd.Flags().IntVarP(&opt.Workers, "jobs", "j", 0, "concurrent png renders (default: number of CPUs)")
	return cmd
}
