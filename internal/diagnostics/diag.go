package diagnostics

import (
	"fmt"
	"strings"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Summary)
	}
	return fmt.Sprintf("[%s] %s: %s (%s)", d.Severity, d.Code, d.Summary, d.Detail)
}

// List is an ordered collection of findings, typically from one validation pass.
type List []Diagnostic

func (l *List) Add(sev Severity, code, summary string, evidence map[string]any) {
	*l = append(*l, Diagnostic{Severity: sev, Code: code, Summary: summary, Evidence: evidence})
}

// Errors returns only the error-severity entries.
func (l List) Errors() List {
	var out List
	for _, d := range l {
		if d.Severity == Err {
			out = append(out, d)
		}
	}
	return out
}

func (l List) String() string {
	parts := make([]string, 0, len(l))
	for _, d := range l {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}
