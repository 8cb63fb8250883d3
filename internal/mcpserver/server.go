// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/linter"
	"github.com/davetashner/lintlab/internal/simulate"
)

// Options configures the tools behind the server.
type Options struct {
	Settings config.Settings
	// Linter runs simulations. Nil means an invoker built from Settings.
	Linter linter.Linter
}

// New creates a new MCP server with lintlab's tools registered.
func New(version string, opts Options) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lintlab",
		Title:   "lintlab: linter configuration workbench",
		Version: version,
	}, nil)

	registerTools(server, newHandlers(opts))
	return server
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, opts Options, transport mcp.Transport) error {
	server := New(version, opts)
	return server.Run(ctx, transport)
}

func newHandlers(opts Options) *handlers {
	if opts.Settings.Binary == "" {
		opts.Settings = config.DefaultSettings()
	}
	l := opts.Linter
	if l == nil {
		inv := linter.New(opts.Settings.Binary, opts.Settings.ViolationExitCodes, nil)
		inv.ExtraArgs = opts.Settings.ExtraArgs
		l = inv
	}
	defaults := opts.Settings.Defaults()
	return &handlers{
		settings: opts.Settings,
		defaults: defaults,
		sim: simulate.New(l, simulate.Options{
			Defaults:     defaults,
			PreviewLimit: opts.Settings.PreviewLimit,
			RuleTimeout:  opts.Settings.RuleTimeout,
		}),
	}
}
