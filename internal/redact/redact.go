// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package redact strips credentials from strings before they reach the
// terminal or the logs. Linter stderr and remote config URLs are the usual
// carriers.
package redact

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output.
var sensitiveEnvVars = []string{
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"GITLAB_TOKEN",
	"CI_JOB_TOKEN",
	"LINTLAB_REMOTE_TOKEN",
}

// urlUserinfo matches the user:password@ part of a URL.
var urlUserinfo = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/@\s:]+:[^/@\s]+@`)

var (
	cachedSecrets []string
	cacheOnce     sync.Once
)

func loadSecrets() {
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if len(val) >= 4 {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
}

func resetCache() {
	cachedSecrets = nil
	cacheOnce = sync.Once{}
}

// String replaces known secret values and URL credentials with
// "[REDACTED]". Secret values are read from the environment once.
func String(s string) string {
	cacheOnce.Do(loadSecrets)
	for _, secret := range cachedSecrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return urlUserinfo.ReplaceAllString(s, "${1}[REDACTED]@")
}
