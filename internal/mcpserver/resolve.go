// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes lintlab's read-only operations as tools over stdio transport.
package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveWorkspace resolves a workspace path to an absolute,
// symlink-resolved directory. It returns an error if the path does not
// exist or is not a directory.
func ResolveWorkspace(path string) (string, error) {
	if path == "" {
		path = "."
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("invalid path %q", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", path)
	}
	return absPath, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace from each element.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
