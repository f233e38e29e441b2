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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"printtiler/internal/domain"
	applog "printtiler/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
// Page lengths are millimetres; general.unit only affects display.
type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	General       GeneralConfig    `yaml:"general"`
	Page          domain.PageSetup `yaml:"page"`
	Input         InputConfig      `yaml:"input"`
	Storage       StorageConfig    `yaml:"storage"`
	Export        ExportConfig     `yaml:"export"`
	AutosaveMs    int              `yaml:"autosave_ms"`
	Logging       LoggingConfig    `yaml:"logging"`
}

type GeneralConfig struct {
	Unit domain.Unit `yaml:"unit"`
	// DPI assumed for images that are added at their natural size.
	ImageDPI float64 `yaml:"image_dpi"`
}

// InputConfig names the keys that end a drag.
type InputConfig struct {
	ConfirmKey string `yaml:"confirm_key"`
	CancelKey  string `yaml:"cancel_key"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // "file" | "sqlite"
	Path    string `yaml:"path"`    // empty means the per-user data dir
}

type ExportConfig struct {
	DPI    int  `yaml:"dpi"`
	Labels bool `yaml:"labels"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// LogOptions converts the logging section for applog.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     l.Level,
		Format:    l.Format,
		AddSource: l.Source,
		File:      l.File,
	}
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Unit: domain.UnitInch, ImageDPI: 96},
		Page:          domain.DefaultPageSetup(),
		Input:         InputConfig{ConfirmKey: "Enter", CancelKey: "Escape"},
		Storage:       StorageConfig{Backend: "file"},
		Export:        ExportConfig{DPI: 300, Labels: true},
		AutosaveMs:    500,
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "PTL_CONFIG"
	EnvUnit           = "PTL_UNIT"
	EnvPageWidth      = "PTL_PAGE_WIDTH"
	EnvPageHeight     = "PTL_PAGE_HEIGHT"
	EnvPageMargin     = "PTL_PAGE_MARGIN"
	EnvPageOverlap    = "PTL_PAGE_OVERLAP"
	EnvCutMarkColor   = "PTL_CUT_MARK_COLOR"
	EnvStorageBackend = "PTL_STORAGE_BACKEND"
	EnvStoragePath    = "PTL_STORAGE_PATH"
	EnvExportDPI      = "PTL_EXPORT_DPI"
	EnvAutosaveMs     = "PTL_AUTOSAVE_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PTL_LOG_LEVEL"
	EnvLogFormat = "PTL_LOG_FORMAT"
	EnvLogSource = "PTL_LOG_SOURCE"
	EnvLogFile   = "PTL_LOG_FILE"
)

// envKeys maps dotted config keys to their override variable.
var envKeys = map[string]string{
	"general.unit":        EnvUnit,
	"page.width":          EnvPageWidth,
	"page.height":         EnvPageHeight,
	"page.margin":         EnvPageMargin,
	"page.overlap":        EnvPageOverlap,
	"page.cut_mark_color": EnvCutMarkColor,
	"storage.backend":     EnvStorageBackend,
	"storage.path":        EnvStoragePath,
	"export.dpi":          EnvExportDPI,
	"autosave_ms":         EnvAutosaveMs,
	"logging.level":       EnvLogLevel,
	"logging.format":      EnvLogFormat,
	"logging.source":      EnvLogSource,
	"logging.file":        EnvLogFile,
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PrintTiler")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PrintTiler")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "printtiler")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "printtiler")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the config file path; PTL_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StoragePath resolves the storage location for the configured backend.
// Without an explicit path it lives next to the config file.
func (c AppConfig) StoragePath() (string, error) {
	if p := strings.TrimSpace(c.Storage.Path); p != "" {
		return p, nil
	}
	cfgPath, err := ConfigPath()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(cfgPath)
	if strings.EqualFold(c.Storage.Backend, "sqlite") {
		return filepath.Join(dir, "state.sqlite"), nil
	}
	return filepath.Join(dir, "state"), nil
}

// Load reads the user config file (if present), applies defaults and merges environment overrides.
// A file that cannot be parsed is reported but the defaults are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var perr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			perr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, perr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the values a run depends on.
func (c AppConfig) Validate() error {
	if _, err := domain.ParseUnit(string(c.General.Unit)); err != nil {
		return err
	}
	if err := c.Page.Validate(); err != nil {
		return err
	}
	if _, err := domain.ParseHexColor(c.Page.CutMarkColor); err != nil {
		return fmt.Errorf("page.cut_mark_color: %w", err)
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	if c.Input.ConfirmKey != "" && c.Input.ConfirmKey == c.Input.CancelKey {
		return errors.New("input: confirm and cancel keys must differ")
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Unit != "" {
		dst.General.Unit = domain.Unit(strings.ToLower(string(src.General.Unit)))
	}
	if src.General.ImageDPI > 0 {
		dst.General.ImageDPI = src.General.ImageDPI
	}
	if src.Page.Width != 0 {
		dst.Page.Width = src.Page.Width
	}
	if src.Page.Height != 0 {
		dst.Page.Height = src.Page.Height
	}
	if src.Page.Margin != 0 {
		dst.Page.Margin = src.Page.Margin
	}
	if src.Page.Overlap != 0 {
		dst.Page.Overlap = src.Page.Overlap
	}
	if src.Page.CutMarkColor != "" {
		dst.Page.CutMarkColor = src.Page.CutMarkColor
	}
	if src.Input.ConfirmKey != "" {
		dst.Input.ConfirmKey = src.Input.ConfirmKey
	}
	if src.Input.CancelKey != "" {
		dst.Input.CancelKey = src.Input.CancelKey
	}
	if strings.TrimSpace(src.Storage.Backend) != "" {
		dst.Storage.Backend = strings.ToLower(strings.TrimSpace(src.Storage.Backend))
	}
	if strings.TrimSpace(src.Storage.Path) != "" {
		dst.Storage.Path = strings.TrimSpace(src.Storage.Path)
	}
	if src.Export.DPI != 0 {
		dst.Export.DPI = src.Export.DPI
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Export.Labels = src.Export.Labels
	if src.AutosaveMs != 0 {
		dst.AutosaveMs = src.AutosaveMs
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(name string) string { return strings.TrimSpace(os.Getenv(name)) }
	float := func(name string, dst *float64) {
		if v := env(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	integer := func(name string, dst *int) {
		if v := env(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	if v := env(EnvUnit); v != "" {
		cfg.General.Unit = domain.Unit(strings.ToLower(v))
	}
	float(EnvPageWidth, &cfg.Page.Width)
	float(EnvPageHeight, &cfg.Page.Height)
	float(EnvPageMargin, &cfg.Page.Margin)
	float(EnvPageOverlap, &cfg.Page.Overlap)
	if v := env(EnvCutMarkColor); v != "" {
		cfg.Page.CutMarkColor = v
	}
	if v := env(EnvStorageBackend); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := env(EnvStoragePath); v != "" {
		cfg.Storage.Path = v
	}
	integer(EnvExportDPI, &cfg.Export.DPI)
	integer(EnvAutosaveMs, &cfg.AutosaveMs)
	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
