package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/session"
	"github.com/davetashner/lintlab/internal/simulate"
)

// GetConfigInput is the input schema for the get_config MCP tool.
type GetConfigInput struct {
	Path string `json:"path" jsonschema:"Workspace root (defaults to current directory)"`
}

// PreviewInput is the input schema for the preview_rule_change MCP tool.
type PreviewInput struct {
	Path      string `json:"path" jsonschema:"Workspace root (defaults to current directory)"`
	RuleID    string `json:"rule_id" jsonschema:"Rule identifier"`
	Action    string `json:"action" jsonschema:"One of: enable, disable, severity, param"`
	OptIn     bool   `json:"opt_in,omitempty" jsonschema:"Treat the rule as opt-in (enable/disable only)"`
	Severity  string `json:"severity,omitempty" jsonschema:"New severity for action=severity: warning, error, hint"`
	Parameter string `json:"parameter,omitempty" jsonschema:"Parameter name for action=param"`
	Value     string `json:"value,omitempty" jsonschema:"Parameter value for action=param, as a YAML scalar or list"`
}

// SimulateInput is the input schema for the simulate_rule MCP tool.
type SimulateInput struct {
	Path   string `json:"path" jsonschema:"Workspace root (defaults to current directory)"`
	RuleID string `json:"rule_id" jsonschema:"Rule to simulate enabling"`
	OptIn  bool   `json:"opt_in,omitempty" jsonschema:"The rule is opt-in and must be listed in opt_in_rules"`
}

// SafeRulesInput is the input schema for the find_safe_rules MCP tool.
type SafeRulesInput struct {
	Path       string `json:"path" jsonschema:"Workspace root (defaults to current directory)"`
	Rules      string `json:"rules,omitempty" jsonschema:"Comma-separated disabled rules to try (default: the config's disabled_rules)"`
	OptInRules string `json:"opt_in_rules,omitempty" jsonschema:"Comma-separated opt-in rules to try"`
}

// ConfigView is the get_config result.
type ConfigView struct {
	Path          string              `json:"path"`
	Exists        bool                `json:"exists"`
	DisabledRules []string            `json:"disabled_rules"`
	OptInRules    []string            `json:"opt_in_rules"`
	Included      []string            `json:"included,omitempty"`
	Excluded      []string            `json:"excluded,omitempty"`
	Rules         map[string]RuleView `json:"rules,omitempty"`
}

// RuleView is one entry of the rules mapping.
type RuleView struct {
	Enabled    *bool          `json:"enabled,omitempty"`
	Severity   string         `json:"severity,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

type handlers struct {
	settings config.Settings
	defaults config.Defaults
	sim      *simulate.Simulator
}

// registerTools adds all lintlab tools to the MCP server. None of them
// write the config file.
func registerTools(server *mcp.Server, h *handlers) {
	readOnly := &mcp.ToolAnnotations{
		ReadOnlyHint:    true,
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_config",
		Description: "Read the workspace's linter configuration: disabled and opt-in rules, paths and per-rule settings.",
		Annotations: readOnly,
	}, h.handleGetConfig)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preview_rule_change",
		Description: "Show the diff a rule change would make to the linter configuration, without writing it.",
		Annotations: readOnly,
	}, h.handlePreview)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate_rule",
		Description: "Run the linter with one rule enabled on a temporary copy of the configuration and report the violations it would add.",
		Annotations: readOnly,
	}, h.handleSimulate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_safe_rules",
		Description: "Simulate each disabled or opt-in rule in turn and list the ones that could be enabled with zero violations.",
		Annotations: readOnly,
	}, h.handleFindSafeRules)
}

func (h *handlers) open(path string) (*session.Session, error) {
	root, err := ResolveWorkspace(path)
	if err != nil {
		return nil, err
	}
	return session.Open(session.Options{
		WorkspaceRoot: root,
		Settings:      h.settings,
		Defaults:      h.defaults,
	})
}

func (h *handlers) handleGetConfig(_ context.Context, _ *mcp.CallToolRequest, input GetConfigInput) (*mcp.CallToolResult, any, error) {
	s, err := h.open(input.Path)
	if err != nil {
		return nil, nil, err
	}
	snap := s.Snapshot()
	cfg := snap.Config
	view := ConfigView{
		Path:          s.Path(),
		Exists:        snap.Exists,
		DisabledRules: nonNil(cfg.DisabledRules),
		OptInRules:    nonNil(cfg.OptInRules),
		Included:      cfg.Included,
		Excluded:      cfg.Excluded,
	}
	if len(cfg.Rules) > 0 {
		view.Rules = make(map[string]RuleView, len(cfg.Rules))
		for id, rs := range cfg.Rules {
			view.Rules[id] = RuleView{Enabled: rs.Enabled, Severity: string(rs.Severity), Parameters: rs.Parameters}
		}
	}
	return jsonResult(view)
}

func (h *handlers) handlePreview(_ context.Context, _ *mcp.CallToolRequest, input PreviewInput) (*mcp.CallToolResult, any, error) {
	if input.RuleID == "" {
		return nil, nil, fmt.Errorf("rule_id is required")
	}
	mutate, err := mutation(input)
	if err != nil {
		return nil, nil, err
	}
	s, err := h.open(input.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Apply(mutate); err != nil {
		return nil, nil, err
	}
	if err := config.Validate(s.Config()); err != nil {
		return nil, nil, err
	}
	d, err := s.Preview()
	if err != nil {
		return nil, nil, fmt.Errorf("preview failed: %w", err)
	}
	return jsonResult(struct {
		Summary string `json:"summary"`
		Empty   bool   `json:"empty"`
		Diff    any    `json:"diff"`
	}{d.Summary(), d.Empty(), d})
}

// mutation maps a preview request onto a config mutation.
func mutation(in PreviewInput) (func(*config.Config) (*config.Config, error), error) {
	switch in.Action {
	case "enable", "disable":
		enabled := in.Action == "enable"
		return func(c *config.Config) (*config.Config, error) {
			return config.SetEnabled(c, in.RuleID, enabled, in.OptIn)
		}, nil
	case "severity":
		sev, err := finding.ParseSeverity(in.Severity)
		if err != nil {
			return nil, err
		}
		return func(c *config.Config) (*config.Config, error) {
			return config.SetSeverity(c, in.RuleID, sev)
		}, nil
	case "param":
		if in.Parameter == "" {
			return nil, fmt.Errorf("parameter is required for action=param")
		}
		var value any
		if err := yaml.Unmarshal([]byte(in.Value), &value); err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", in.Value, err)
		}
		return func(c *config.Config) (*config.Config, error) {
			return config.SetParameter(c, in.RuleID, in.Parameter, value)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported action %q (supported: enable, disable, severity, param)", in.Action)
	}
}

func (h *handlers) handleSimulate(ctx context.Context, _ *mcp.CallToolRequest, input SimulateInput) (*mcp.CallToolResult, any, error) {
	if input.RuleID == "" {
		return nil, nil, fmt.Errorf("rule_id is required")
	}
	s, err := h.open(input.Path)
	if err != nil {
		return nil, nil, err
	}
	res, err := h.sim.Simulate(ctx, simulate.Request{
		RuleID:        input.RuleID,
		Base:          s.Snapshot().Config,
		OptIn:         input.OptIn,
		WorkspaceRoot: s.Root(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("simulation failed: %w", err)
	}
	return jsonResult(res)
}

func (h *handlers) handleFindSafeRules(ctx context.Context, _ *mcp.CallToolRequest, input SafeRulesInput) (*mcp.CallToolResult, any, error) {
	s, err := h.open(input.Path)
	if err != nil {
		return nil, nil, err
	}
	base := s.Snapshot().Config
	req := simulate.BatchRequest{
		Disabled:      base.DisabledRules,
		Base:          base,
		WorkspaceRoot: s.Root(),
	}
	if input.Rules != "" {
		req.Disabled = splitAndTrim(input.Rules)
	}
	if input.OptInRules != "" {
		req.OptIn = splitAndTrim(input.OptInRules)
	}

	res, err := h.sim.FindSafeRules(ctx, req, func(p simulate.Progress) {
		slog.Debug("safe rule discovery", "rule", p.RuleID, "completed", p.Completed, "total", p.Total)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("discovery failed: %w", err)
	}
	return jsonResult(struct {
		Safe []string `json:"safe"`
		*simulate.BatchResult
	}{nonNil(res.SafeRules()), res})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("formatting failed: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
