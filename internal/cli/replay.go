/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"printtiler/internal/canvas"
	"printtiler/internal/drag"
)

// ScriptEvent is one line of a replay script. Coordinates use the display unit.
//
//	{"type":"down","pointer":1,"x":1,"y":1,"image":"#0","mode":"resize"}
//	{"type":"move","pointer":1,"x":2,"y":1.5}
//	{"type":"keydown","key":"Shift"}
//	{"type":"up","pointer":1,"x":2,"y":1.5}
//
// Image is a placement id or #n for the n-th placement.
type ScriptEvent struct {
	Type    string  `json:"type"`
	Pointer int     `json:"pointer"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Key     string  `json:"key,omitempty"`
	Image   string  `json:"image,omitempty"`
	Mode    string  `json:"mode,omitempty"`
}

// ParseScript reads JSON lines; blank lines and lines starting with // are skipped.
func ParseScript(r io.Reader) ([]ScriptEvent, error) {
	var out []ScriptEvent
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		var ev ScriptEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch ev.Type {
		case "down", "move", "up", "keydown", "keyup":
		default:
			return nil, fmt.Errorf("line %d: unknown event type %q", line, ev.Type)
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplayStats summarises a replay.
type ReplayStats struct {
	Sessions  int
	Committed int
	Cancelled int
	Open      int
}

// Replay feeds events through an in-process input surface into workspace drags.
// Sessions still open when it returns, including after an error, are aborted,
// which restores their pre-drag state.
func Replay(ws *canvas.Workspace, events []ScriptEvent, keys canvas.DragKeys) (stats ReplayStats, err error) {
	src := drag.NewSurface()
	held := drag.TrackKeys(src)
	defer held.Close()
	start := ws.DragHandler(src, held, keys)
	u := ws.Unit()
	pt := func(ev ScriptEvent) drag.PointerEvent {
		return drag.PointerEvent{PointerID: ev.Pointer, X: u.ToMillimetres(ev.X), Y: u.ToMillimetres(ev.Y)}
	}
	cancel := keys.Cancel
	if cancel == "" {
		cancel = drag.KeyCancel
	}

	var sessions []*drag.Session[*canvas.DragTarget]
	defer func() {
		for _, s := range sessions {
			if s.Active() {
				stats.Open++
				s.Abort()
				continue
			}
			if k, ok := s.End().(drag.KeyEvent); ok && k.Key == cancel {
				stats.Cancelled++
			} else {
				stats.Committed++
			}
		}
	}()

	for i, ev := range events {
		switch ev.Type {
		case "down":
			id, err := resolveImage(ws, ev.Image)
			if err != nil {
				return stats, fmt.Errorf("event %d: %w", i+1, err)
			}
			mode := canvas.DragMove
			if ev.Mode == "resize" {
				mode = canvas.DragResize
			}
			sessions = append(sessions, start(pt(ev), canvas.Target(id, mode)))
			stats.Sessions++
		case "move":
			src.PointerMove(pt(ev))
		case "up":
			src.PointerUp(pt(ev))
		case "keydown":
			src.KeyDown(drag.KeyEvent{Key: ev.Key})
		case "keyup":
			src.KeyUp(drag.KeyEvent{Key: ev.Key})
		}
	}
	return stats, nil
}

func resolveImage(ws *canvas.Workspace, ref string) (string, error) {
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.Atoi(ref[1:])
		ps := ws.Placements()
		if err != nil || n < 0 || n >= len(ps) {
			return "", fmt.Errorf("no image %s", ref)
		}
		return ps[n].ID, nil
	}
	if _, ok := ws.Placement(ref); !ok {
		return "", fmt.Errorf("%w: %s", canvas.ErrUnknownImage, ref)
	}
	return ref, nil
}

func (c *CLI) replayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script.jsonl>",
		Short: "Drive drag interactions from a JSON-lines event script",
		Long: `Drive drag interactions from a JSON-lines event script, "-" reads stdin.
Each "down" event starts a move or resize drag of one image; pointer-up or the
confirm key commits it and the cancel key restores the image.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			events, err := ParseScript(r)
			if err != nil {
				return err
			}
			return c.withSession(cmd.Context(), func(s *session) error {
				keys := canvas.DragKeys{Confirm: c.cfg.Input.ConfirmKey, Cancel: c.cfg.Input.CancelKey}
				st, err := Replay(s.ws, events, keys)
				if err != nil {
					return err
				}
				u := s.ws.Unit()
				fmt.Fprintf(cmd.OutOrStdout(), "%d drags: %d committed, %d cancelled, %d aborted\n",
					st.Sessions, st.Committed, st.Cancelled, st.Open)
				for _, p := range s.ws.Placements() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s  at %s, %s  size %s x %s\n", p.ID,
						u.Format(p.X), u.Format(p.Y), u.Format(p.Width), u.Format(p.Height))
				}
				return nil
			})
		},
	}
}

