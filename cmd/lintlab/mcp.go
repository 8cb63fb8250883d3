// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/mcpserver"
)

// mcpCmd is the parent command for MCP-related subcommands.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
	Long:  "Commands for running lintlab as an MCP server, exposing config inspection and rule simulation tools to AI agents.",
}

// mcpServeCmd runs the MCP server over stdio.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout, exposing lintlab's read-only tools:
  - get_config:          Read the workspace's linter configuration
  - preview_rule_change: Diff a rule change without writing it
  - simulate_rule:       Count the violations enabling a rule would add
  - find_safe_rules:     List rules that could be enabled with no violations

No tool writes the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		return mcpserver.Run(cmd.Context(), Version, mcpserver.Options{
			Settings: settings,
			Linter:   newLinter(settings),
		}, &mcp.StdioTransport{})
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
}
