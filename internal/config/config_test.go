/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"printtiler/internal/domain"
)

func withConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if content != "" {
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	t.Setenv(EnvConfigFile, p)
	return p
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Page != domain.DefaultPageSetup() || cfg.General.Unit != domain.UnitInch {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
}

func TestLoadMergesFile(t *testing.T) {
	withConfigFile(t, `
general:
  unit: MM
page:
  margin: 5
  cut_mark_color: "#00ff00"
storage:
  backend: sqlite
export:
  dpi: 600
  labels: false
`)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.Unit != domain.UnitMillimetre || cfg.Page.Margin != 5 || cfg.Page.CutMarkColor != "#00ff00" {
		t.Fatalf("file values not merged: %#v", cfg)
	}
	if cfg.Page.Width != domain.DefaultPageSetup().Width {
		t.Fatalf("unset page width should keep the default, got %g", cfg.Page.Width)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Export.DPI != 600 || cfg.Export.Labels {
		t.Fatalf("storage/export not merged: %#v", cfg)
	}
	p, err := cfg.StoragePath()
	if err != nil || filepath.Base(p) != "state.sqlite" {
		t.Fatalf("StoragePath = %q, %v", p, err)
	}
}

func TestLoadReportsBrokenFile(t *testing.T) {
	withConfigFile(t, "page: [unclosed")
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Page != domain.DefaultPageSetup() {
		t.Fatalf("defaults not returned with parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	withConfigFile(t, "")
	t.Setenv(EnvPageOverlap, "10")
	t.Setenv(EnvUnit, "mm")
	t.Setenv(EnvStoragePath, "/tmp/ptl-state")
	t.Setenv(EnvAutosaveMs, "notanumber")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Page.Overlap != 10 || cfg.General.Unit != domain.UnitMillimetre || cfg.Storage.Path != "/tmp/ptl-state" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.AutosaveMs != Defaults().AutosaveMs {
		t.Fatalf("bad integer override should be ignored, got %d", cfg.AutosaveMs)
	}
	if name, ok := EnvOverrideFor("page.overlap"); !ok || name != EnvPageOverlap {
		t.Fatalf("EnvOverrideFor(page.overlap) = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("page.width"); ok {
		t.Fatalf("page.width is not overridden")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	withConfigFile(t, "")
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/ptl.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/ptl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if o := cfg.Logging.LogOptions(); o.Level != "error" || !o.AddSource {
		t.Fatalf("LogOptions = %#v", o)
	}
}

func TestSaveThenLoad(t *testing.T) {
	withConfigFile(t, "")
	cfg := Defaults()
	cfg.Page.Overlap = 3
	cfg.Input.CancelKey = "q"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Page.Overlap != 3 || got.Input.CancelKey != "q" {
		t.Fatalf("saved values not loaded: %#v", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Page.Margin = 200
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidPageSetup) {
		t.Fatalf("expected page error, got %v", err)
	}
	cfg = Defaults()
	cfg.Storage.Backend = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected backend error")
	}
	cfg = Defaults()
	cfg.Input.CancelKey = cfg.Input.ConfirmKey
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected key clash error")
	}
	cfg = Defaults()
	cfg.Page.CutMarkColor = "red"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected colour error")
	}
}
