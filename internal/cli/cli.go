/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the printtiler command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"printtiler/internal/canvas"
	"printtiler/internal/config"
	"printtiler/internal/crash"
	applog "printtiler/internal/log"
	"printtiler/internal/storage"
	"printtiler/internal/version"
)

// CLI holds shared state for all commands.
type CLI struct {
	cfg     config.AppConfig
	verbose bool
	store   string
	backend string

	// Crash is filled in once a workspace is open so a panic can rescue it.
	Crash *crash.Target
	log   *slog.Logger
}

// New returns a CLI with default configuration; the real config is loaded
// before each command runs.
func New() *CLI {
	return &CLI{cfg: config.Defaults(), Crash: &crash.Target{}, log: applog.WithComponent("cli")}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "printtiler",
		Short: "Arrange images on a canvas and split it into printable page tiles",
		Long: `printtiler keeps a canvas of placed images and computes how many pages of a
given size, margin and overlap are needed to print it, choosing the page
orientation that needs fewer sheets. The canvas state is kept between runs.`,
		Version:           version.String(),
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.store, "store", "", "state location (directory for file backend, database for sqlite)")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "state backend: file or sqlite")

	root.AddCommand(c.versionCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.resizeCommand())
	root.AddCommand(c.pageCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.replayCommand())
	return root
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		// keep going on defaults; a broken file should not lock the user out
		c.log.Warn("config load failed", slog.Any("err", err))
	}
	if c.backend != "" {
		cfg.Storage.Backend = c.backend
	}
	if c.store != "" {
		cfg.Storage.Path = c.store
	}
	opts := cfg.Logging.LogOptions()
	if c.verbose {
		opts.Level = "debug"
	}
	opts.Writer = cmd.ErrOrStderr()
	applog.Init(opts)
	c.log = applog.WithComponent("cli")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.cfg = cfg
	if p, err := config.ConfigPath(); err == nil {
		c.Crash.Dir = filepath.Join(filepath.Dir(p), "crash")
	}
	return nil
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "printtiler", version.String())
		},
	}
}

// session is an open workspace bound to its store.
type session struct {
	ws    *canvas.Workspace
	store storage.Store
	auto  *canvas.Autosave
}

// open restores the workspace from the configured store.
func (c *CLI) open(ctx context.Context) (*session, error) {
	path, err := c.cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	st, err := storage.Open(c.cfg.Storage.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	ws, err := canvas.New(c.cfg.Page, c.cfg.General.Unit)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if _, err := ws.Restore(ctx, st, canvas.LoadFromFile); err != nil {
		c.log.Warn("starting with an empty canvas", slog.Any("err", err))
	}
	c.Crash.Workspace, c.Crash.Store = ws, st
	s := &session{ws: ws, store: st}
	s.auto = ws.EnableAutosave(ctx, st, time.Duration(c.cfg.AutosaveMs)*time.Millisecond)
	return s, nil
}

// close flushes pending saves and closes the store.
func (s *session) close() error {
	err := s.auto.Stop()
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// withSession opens the workspace, runs fn and always flushes and closes.
func (c *CLI) withSession(ctx context.Context, fn func(*session) error) (err error) {
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil && cerr != nil {
			err = fmt.Errorf("save state: %w", cerr)
		}
	}()
	return fn(s)
}
