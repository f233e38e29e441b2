/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a report file and a last-chance save of the workspace.
package crash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"printtiler/internal/canvas"
	applog "printtiler/internal/log"
	"printtiler/internal/storage"
	"printtiler/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Target describes what to rescue. Every field is optional.
type Target struct {
	Workspace *canvas.Workspace
	Store     storage.Store
	// Dir receives the crash report and state snapshot; os.TempDir() when empty.
	Dir string
}

// Recover captures a panic, logs it with a stack trace, writes a report file,
// saves a snapshot of the workspace and exits with code 2.
//
// Usage: defer crash.Recover(&crash.Target{...})
func Recover(t *Target) {
	if r := recover(); r != nil {
		handle(t, r, debug.Stack())
	}
}

func handle(t *Target, r any, stack []byte) {
	l := applog.WithComponent("crash")
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))
	if t == nil {
		t = &Target{}
	}
	reportPath, err := writeReport(t.dir(), r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if t.Workspace != nil {
		if path, err := writeSnapshot(t.dir(), t.Workspace); err != nil {
			l.Error("crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("crash snapshot written", slog.String("path", path))
		}
		if t.Store != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := t.Workspace.Save(ctx, t.Store); err != nil {
				l.Error("crash save failed", slog.Any("err", err))
			}
			cancel()
		}
	}
	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func (t *Target) dir() string {
	if t.Dir == "" {
		return os.TempDir()
	}
	_ = os.MkdirAll(t.Dir, 0o755)
	return t.Dir
}

func stamp() string { return time.Now().Format("20060102-150405") }

func writeReport(dir string, panicVal any, stack []byte) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp()))
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "printtiler crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}

func writeSnapshot(dir string, w *canvas.Workspace) (string, error) {
	data, err := json.MarshalIndent(w.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.state.json", stamp()))
	return path, os.WriteFile(path, data, 0o644)
}
