/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"printtiler/internal/config"
	"printtiler/internal/domain"
	"printtiler/internal/imageload"
)

func (c *CLI) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config and start an empty canvas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "Config exists at", path)
			} else {
				if err := config.Save(c.cfg); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote config to", path)
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				if err := s.ws.Apply(domain.StoredState{PageSetup: c.cfg.Page, Unit: c.cfg.General.Unit}, nil); err != nil {
					return err
				}
				return s.ws.Save(cmd.Context(), s.store)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func (c *CLI) addCommand() *cobra.Command {
	var x, y, width, dpi float64
	cmd := &cobra.Command{
		Use:   "add <image>...",
		Short: "Place images on the canvas at their natural size",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dpi <= 0 {
				dpi = c.cfg.General.ImageDPI
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				u := s.ws.Unit()
				for _, arg := range args {
					abs, err := filepath.Abs(arg)
					if err != nil {
						return err
					}
					img, err := imageload.Load(abs)
					if err != nil {
						return err
					}
					p := img.Placement("", dpi)
					p.X, p.Y = u.ToMillimetres(x), u.ToMillimetres(y)
					if width > 0 {
						mm := u.ToMillimetres(width)
						p.Height = p.Height * mm / p.Width
						p.Width = mm
					}
					id, err := s.ws.Add(p)
					if err != nil {
						return err
					}
					pw, ph := img.Bounds()
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %dx%d px  %s  %s x %s\n",
						id, filepath.Base(abs), pw, ph, humanize.Bytes(uint64(img.Bytes)), u.Format(p.Width), u.Format(p.Height))
				}
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "left edge in the display unit")
	cmd.Flags().Float64Var(&y, "y", 0, "top edge in the display unit")
	cmd.Flags().Float64Var(&width, "width", 0, "placed width in the display unit; height keeps the aspect ratio")
	cmd.Flags().Float64Var(&dpi, "dpi", 0, "image resolution used for the natural size (default from config)")
	return cmd
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove placed images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				for _, id := range args {
					if err := s.ws.Remove(id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (c *CLI) moveCommand() *cobra.Command {
	var dx, dy float64
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Shift an image by a distance in the display unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				u := s.ws.Unit()
				return s.ws.Move(args[0], u.ToMillimetres(dx), u.ToMillimetres(dy))
			})
		},
	}
	cmd.Flags().Float64Var(&dx, "dx", 0, "horizontal shift")
	cmd.Flags().Float64Var(&dy, "dy", 0, "vertical shift")
	return cmd
}

func (c *CLI) resizeCommand() *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "resize <id>",
		Short: "Change the placed size of an image",
		Long:  "Change the placed size of an image. Without --height the aspect ratio is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				return errors.New("--width is required")
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				u := s.ws.Unit()
				return s.ws.Resize(args[0], u.ToMillimetres(width), u.ToMillimetres(height), height <= 0)
			})
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "new width in the display unit")
	cmd.Flags().Float64Var(&height, "height", 0, "new height in the display unit")
	return cmd
}

func (c *CLI) pageCommand() *cobra.Command {
	var width, height, margin, overlap float64
	var color, unit string
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Show or change the page setup",
		Long: `Show or change the page setup. Lengths are read in the display unit;
--unit switches the display unit first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd.Context(), func(s *session) error {
				if unit != "" {
					u, err := domain.ParseUnit(unit)
					if err != nil {
						return err
					}
					if err := s.ws.SetUnit(u); err != nil {
						return err
					}
				}
				u := s.ws.Unit()
				p := s.ws.Page()
				set := func(name string, dst *float64, v float64) {
					if cmd.Flags().Changed(name) {
						*dst = u.ToMillimetres(v)
					}
				}
				set("width", &p.Width, width)
				set("height", &p.Height, height)
				set("margin", &p.Margin, margin)
				set("overlap", &p.Overlap, overlap)
				if color != "" {
					if _, err := domain.ParseHexColor(color); err != nil {
						return err
					}
					p.CutMarkColor = color
				}
				if p != s.ws.Page() {
					if err := s.ws.SetPageSetup(p); err != nil {
						return err
					}
				}
				printPage(cmd, u, p)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "page width")
	cmd.Flags().Float64Var(&height, "height", 0, "page height")
	cmd.Flags().Float64Var(&margin, "margin", 0, "unprintable margin on every edge")
	cmd.Flags().Float64Var(&overlap, "overlap", 0, "band shared by neighbouring tiles")
	cmd.Flags().StringVar(&color, "cut-color", "", "cut mark colour as #rrggbb")
	cmd.Flags().StringVar(&unit, "unit", "", "display unit: mm or in")
	return cmd
}

func printPage(cmd *cobra.Command, u domain.Unit, p domain.PageSetup) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Page:    %s x %s\n", u.Format(p.Width), u.Format(p.Height))
	fmt.Fprintf(out, "Margin:  %s\n", u.Format(p.Margin))
	fmt.Fprintf(out, "Overlap: %s\n", u.Format(p.Overlap))
	fmt.Fprintf(out, "Cut:     %s\n", p.CutMarkColor)
}

