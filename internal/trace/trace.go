// Package trace renders the ordered workflow steps returned by the agent:
// per-step expand/collapse state, display formatting and a per-type tally.
package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lojasmm/supportdemo/internal/agentapi"
)

// Trace holds one response's steps in execution order together with the
// set of expanded step indices. It is not safe for concurrent use; callers
// hold the owning session's lock.
type Trace struct {
	steps    []agentapi.WorkflowStep
	expanded []bool
}

// New starts with every step collapsed. steps is not copied and must not be
// modified afterwards.
func New(steps []agentapi.WorkflowStep) *Trace {
	return &Trace{
		steps:    steps,
		expanded: make([]bool, len(steps)),
	}
}

func (t *Trace) Len() int { return len(t.steps) }

func (t *Trace) Steps() []agentapi.WorkflowStep { return t.steps }

// Toggle flips step i. Out-of-range indices are ignored.
func (t *Trace) Toggle(i int) {
	if i < 0 || i >= len(t.expanded) {
		return
	}
	t.expanded[i] = !t.expanded[i]
}

func (t *Trace) Expanded(i int) bool {
	return i >= 0 && i < len(t.expanded) && t.expanded[i]
}

// ExpandedSet returns the expanded indices in ascending order.
func (t *Trace) ExpandedSet() []int {
	set := []int{}
	for i, on := range t.expanded {
		if on {
			set = append(set, i)
		}
	}
	return set
}

func (t *Trace) ExpandAll() {
	for i := range t.expanded {
		t.expanded[i] = true
	}
}

func (t *Trace) CollapseAll() {
	for i := range t.expanded {
		t.expanded[i] = false
	}
}

// Summary counts steps by type.
type Summary struct {
	Total            int `json:"total"`
	Categorize       int `json:"categorize"`
	AnalyzeSentiment int `json:"analyze_sentiment"`
	Route            int `json:"route"`
	Handle           int `json:"handle"`
	Other            int `json:"other"`
}

func (t *Trace) Summary() Summary {
	s := Summary{Total: len(t.steps)}
	for _, step := range t.steps {
		switch step.StepType {
		case agentapi.StepCategorize:
			s.Categorize++
		case agentapi.StepAnalyzeSentiment:
			s.AnalyzeSentiment++
		case agentapi.StepRoute:
			s.Route++
		case agentapi.StepHandle:
			s.Handle++
		default:
			s.Other++
		}
	}
	return s
}

// FormatStepName turns "analyze_sentiment" into "Analyze Sentiment":
// underscores become spaces and the first letter of every word is upper-cased.
// The rest of each word is left as is.
func FormatStepName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")

	var b strings.Builder
	b.Grow(len(name))
	inWord := false
	for _, r := range name {
		word := isWordRune(r)
		if word && !inWord {
			r = unicode.ToUpper(r)
		}
		inWord = word
		b.WriteRune(r)
	}
	return b.String()
}

// isWordRune matches the ASCII word class: letters, digits and underscore.
func isWordRune(r rune) bool {
	return r < utf8.RuneSelf && (r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
}

// PrettyPayload indents a JSON payload with two spaces, keeping key order.
// A missing payload prints as {}.
func PrettyPayload(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
