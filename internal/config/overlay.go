// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

// Serialize renders cfg as configuration text.
//
// With an empty overlay the output is canonical. Otherwise overlay is the
// text cfg was originally loaded from: every top-level key, sequence item
// and rule entry whose value is unchanged is copied from it verbatim along
// with its comments, and only the touched spans are re-rendered. Serializing
// an unmodified config over its own text returns that text byte for byte.
func Serialize(cfg *Config, overlay []byte) ([]byte, error) {
	if len(overlay) == 0 {
		return Canonical(cfg)
	}
	old, err := Parse(overlay)
	if err != nil {
		return nil, err
	}
	if cfg.Equal(old) {
		return append([]byte(nil), overlay...), nil
	}
	doc, err := newLineDoc(overlay, old)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return Canonical(cfg)
	}
	return doc.render(cfg)
}

// span is a run of whole lines: comments directly above an element, the
// element itself, and the blank or comment lines that follow it.
type span struct {
	lead []string
	body []string
	tail []string
}

func (s span) all() []string {
	out := make([]string, 0, len(s.lead)+len(s.body)+len(s.tail))
	out = append(out, s.lead...)
	out = append(out, s.body...)
	return append(out, s.tail...)
}

type child struct {
	key  string
	span span
}

type topEntry struct {
	key     string
	keyNode *yaml.Node
	valNode *yaml.Node
	span    span

	// Set when the value is a block sequence or the block rules mapping.
	header   []string
	children []child
	prefix   string
}

type lineDoc struct {
	eol      string
	old      *Config
	preamble []string
	entries  []*topEntry
}

// newLineDoc indexes text, which parsed to old, by structural path. It
// returns nil when the document cannot be edited line by line, such as a
// flow-style root.
func newLineDoc(text []byte, old *Config) (*lineDoc, error) {
	root, err := parseRoot(text)
	if err != nil {
		return nil, err
	}

	d := &lineDoc{eol: "\n", old: old}
	if bytes.Contains(text, []byte("\r\n")) {
		d.eol = "\r\n"
	}
	lines := splitLines(text)
	if root == nil {
		d.preamble = lines
		return d, nil
	}
	if root.Style&yaml.FlowStyle != 0 {
		return nil, nil
	}

	var starts []int
	for i := 0; i < len(root.Content); i += 2 {
		starts = append(starts, root.Content[i].Line-1)
	}
	if !increasing(starts) {
		return nil, nil
	}
	pre, spans := splitSpans(lines, 0, len(lines), starts)
	d.preamble = pre

	for i, sp := range spans {
		e := &topEntry{
			key:     root.Content[2*i].Value,
			keyNode: root.Content[2*i],
			valNode: root.Content[2*i+1],
			span:    sp,
		}
		indexChildren(e, lines, starts[i])
		d.entries = append(d.entries, e)
	}
	return d, nil
}

// indexChildren splits the body of a block sequence or of the block rules
// mapping into per-item spans.
func indexChildren(e *topEntry, lines []string, keyLine int) {
	v := e.valNode
	if v.Style&yaml.FlowStyle != 0 || len(v.Content) == 0 {
		return
	}

	var nodes []*yaml.Node
	switch {
	case v.Kind == yaml.SequenceNode && isKnownKey(e.key) && e.key != KeyRules && e.key != KeyReporter:
		nodes = v.Content
	case v.Kind == yaml.MappingNode && e.key == KeyRules:
		for i := 0; i < len(v.Content); i += 2 {
			nodes = append(nodes, v.Content[i])
		}
	default:
		return
	}

	starts := make([]int, len(nodes))
	for i, n := range nodes {
		starts[i] = n.Line - 1
	}
	if !increasing(starts) || starts[0] <= keyLine {
		return
	}

	end := keyLine + len(e.span.body)
	pre, spans := splitSpans(lines, keyLine+1, end, starts)
	e.header = append(append([]string(nil), e.span.body[0]), pre...)
	for i, sp := range spans {
		e.children = append(e.children, child{key: nodes[i].Value, span: sp})
	}
	first := lines[starts[0]]
	if col := nodes[0].Column - 1; col > 0 && col <= len(first) {
		e.prefix = first[:col]
	}
}

// splitSpans partitions lines[from:end] around the element start lines.
// Comment lines directly above an element and indented no deeper than it are
// its lead; everything between an element's last content line and the next
// lead is its tail. The lines before the first lead are returned separately.
func splitSpans(lines []string, from, end int, starts []int) ([]string, []span) {
	if len(starts) == 0 {
		return lines[from:end], nil
	}
	ends := make([]int, len(starts))
	for i, s := range starts {
		next := end
		if i+1 < len(starts) {
			next = starts[i+1]
		}
		last := s
		for j := s + 1; j < next; j++ {
			if !isBlank(lines[j]) && !isComment(lines[j]) {
				last = j
			}
		}
		ends[i] = last + 1
	}

	leadStart := func(i int) int {
		lo := from
		if i > 0 {
			lo = ends[i-1]
		}
		depth := indent(lines[starts[i]])
		j := starts[i]
		for j > lo && isComment(lines[j-1]) && indent(lines[j-1]) <= depth {
			j--
		}
		return j
	}

	spans := make([]span, len(starts))
	for i, s := range starts {
		tailEnd := end
		if i+1 < len(starts) {
			tailEnd = leadStart(i + 1)
		}
		spans[i] = span{
			lead: lines[leadStart(i):s],
			body: lines[s:ends[i]],
			tail: lines[ends[i]:tailEnd],
		}
	}
	return lines[from:leadStart(0)], spans
}

func (d *lineDoc) render(cfg *Config) ([]byte, error) {
	w := &lineWriter{eol: d.eol}
	w.write(d.preamble...)

	present := make(map[string]bool)
	keys := presentKeys(cfg)
	for _, k := range keys {
		present[k] = true
	}

	done := make(map[string]bool)
	for _, e := range d.entries {
		done[e.key] = true
		if d.unchanged(cfg, e.key) {
			w.write(e.span.all()...)
			continue
		}
		if !present[e.key] {
			if hasComment(e.span.tail) {
				w.write(e.span.tail...)
			}
			continue
		}
		body, err := d.renderChanged(cfg, e)
		if err != nil {
			return nil, err
		}
		w.write(e.span.lead...)
		w.write(body...)
		w.write(e.span.tail...)
	}

	for _, k := range keys {
		if done[k] {
			continue
		}
		v, _, err := valueNode(cfg, k)
		if err != nil {
			return nil, err
		}
		out, err := d.renderPair(k, v, "")
		if err != nil {
			return nil, err
		}
		w.write(out...)
	}
	return w.buf.Bytes(), nil
}

var emptyEq = cmpopts.EquateEmpty()

func (d *lineDoc) unchanged(cfg *Config, key string) bool {
	old := d.old
	switch key {
	case KeyDisabledRules:
		return cmp.Equal(old.DisabledRules, cfg.DisabledRules, emptyEq)
	case KeyOptInRules:
		return cmp.Equal(old.OptInRules, cfg.OptInRules, emptyEq)
	case KeyIncluded:
		return cmp.Equal(old.Included, cfg.Included, emptyEq)
	case KeyExcluded:
		return cmp.Equal(old.Excluded, cfg.Excluded, emptyEq)
	case KeyReporter:
		return old.Reporter == cfg.Reporter
	case KeyRules:
		return cmp.Equal(old.Rules, cfg.Rules, compareOpts...)
	default:
		a, _ := old.extra(key)
		b, ok := cfg.extra(key)
		return ok && nodeText(a) == nodeText(b)
	}
}

func (d *lineDoc) renderChanged(cfg *Config, e *topEntry) ([]string, error) {
	if len(e.children) > 0 {
		switch e.key {
		case KeyDisabledRules:
			return d.renderItems(e, cfg.DisabledRules), nil
		case KeyOptInRules:
			return d.renderItems(e, cfg.OptInRules), nil
		case KeyIncluded:
			return d.renderItems(e, cfg.Included), nil
		case KeyExcluded:
			return d.renderItems(e, cfg.Excluded), nil
		case KeyRules:
			return d.renderRules(e, cfg.Rules)
		}
	}

	v, _, err := valueNode(cfg, e.key)
	if err != nil {
		return nil, err
	}
	cp := *v
	if e.valNode.Kind == yaml.SequenceNode && e.valNode.Style&yaml.FlowStyle != 0 && cp.Kind == yaml.SequenceNode {
		cp.Style = yaml.FlowStyle
	}
	if cp.Kind == yaml.ScalarNode || cp.Style&yaml.FlowStyle != 0 {
		cp.LineComment = e.valNode.LineComment
		if cp.LineComment == "" {
			cp.LineComment = e.keyNode.LineComment
		}
	}
	return d.renderPair(e.key, &cp, "")
}

// renderItems keeps the span of every surviving item, drops removed items
// with their comments and appends new items using the existing item prefix.
func (d *lineDoc) renderItems(e *topEntry, items []string) []string {
	out := append([]string(nil), e.header...)
	used := make([]bool, len(e.children))
	for _, it := range items {
		idx := -1
		for j, c := range e.children {
			if !used[j] && c.key == it {
				idx = j
				break
			}
		}
		if idx >= 0 {
			used[idx] = true
			out = append(out, e.children[idx].span.all()...)
			continue
		}
		out = append(out, e.prefix+scalarText(it)+d.eol)
	}
	return out
}

func (d *lineDoc) renderRules(e *topEntry, rules map[string]RuleSettings) ([]string, error) {
	out := append([]string(nil), e.header...)
	seen := make(map[string]bool)
	for _, c := range e.children {
		seen[c.key] = true
		rs, ok := rules[c.key]
		if !ok {
			continue
		}
		if cmp.Equal(d.old.Rules[c.key], rs, compareOpts...) {
			out = append(out, c.span.all()...)
			continue
		}
		n, err := ruleNode(rs)
		if err != nil {
			return nil, err
		}
		body, err := d.renderPair(c.key, n, e.prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, c.span.lead...)
		out = append(out, body...)
		out = append(out, c.span.tail...)
	}

	var added []string
	for id := range rules {
		if !seen[id] {
			added = append(added, id)
		}
	}
	sort.Strings(added)
	for _, id := range added {
		n, err := ruleNode(rules[id])
		if err != nil {
			return nil, err
		}
		body, err := d.renderPair(id, n, e.prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, body...)
	}
	return out, nil
}

// renderPair renders a single key: value mapping, each line prefixed with
// indent and terminated with the document's line ending.
func (d *lineDoc) renderPair(key string, v *yaml.Node, indent string) ([]string, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{strNode(key), v}}
	text, err := encode(m)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, l := range splitLines(text) {
		out = append(out, indent+strings.TrimSuffix(l, "\n")+d.eol)
	}
	return out, nil
}

func scalarText(s string) string {
	out, err := encode(strNode(s))
	if err != nil {
		return s
	}
	return strings.TrimSuffix(string(out), "\n")
}

type lineWriter struct {
	buf bytes.Buffer
	eol string
}

// write appends whole lines, terminating the previous line first if the
// original text ended without a newline.
func (w *lineWriter) write(lines ...string) {
	for _, l := range lines {
		if w.buf.Len() > 0 && !bytes.HasSuffix(w.buf.Bytes(), []byte("\n")) {
			w.buf.WriteString(w.eol)
		}
		w.buf.WriteString(l)
	}
}

func splitLines(text []byte) []string {
	parts := strings.SplitAfter(string(text), "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

func isComment(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "#") }

func hasComment(lines []string) bool {
	for _, l := range lines {
		if isComment(l) {
			return true
		}
	}
	return false
}

func indent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func increasing(xs []int) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
