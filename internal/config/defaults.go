// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"path/filepath"
	"strings"
)

// builtinExcluded are directories no workspace wants linted.
var builtinExcluded = []string{".build", ".git", "Carthage", "DerivedData", "Pods"}

// Defaults holds the workspace-independent values shared by the impact
// simulator and the post-commit analyzer. It is built once at startup and
// passed to both; the zero value has no exclusions.
type Defaults struct {
	excluded []string
}

// NewDefaults returns the built-in exclusions plus extra, without duplicates.
func NewDefaults(extra ...string) Defaults {
	return Defaults{excluded: union(builtinExcluded, extra)}
}

// Excluded returns a copy of the default exclusion list.
func (d Defaults) Excluded() []string {
	return cloneStrings(d.excluded)
}

// IsExcluded reports whether a workspace-relative path falls under one of
// the default exclusions. Entries match a whole path segment, a path prefix
// or, when they contain wildcards, a filepath.Match pattern.
func (d Defaults) IsExcluded(rel string) bool {
	rel = filepath.ToSlash(filepath.Clean(rel))
	segments := strings.Split(rel, "/")
	for _, e := range d.excluded {
		e = strings.TrimSuffix(filepath.ToSlash(e), "/")
		if rel == e || strings.HasPrefix(rel, e+"/") {
			return true
		}
		if !strings.Contains(e, "/") {
			for _, s := range segments {
				if s == e {
					return true
				}
			}
		}
		if ok, _ := filepath.Match(e, rel); ok {
			return true
		}
	}
	return false
}
