// Package relevance implements the keyword gate deciding whether a notice
// proceeds past initial triage.
package relevance

import (
	"regexp"
	"strings"
)

// DefaultKeywords is the monitoring/observability vocabulary the filter
// matches against notice subjects.
var DefaultKeywords = []string{
	"zabbix",
	"splunk",
	"monitoramento",
	"observabilidade",
	"noc",
	"grafana",
	"appdynamics",
	"tecnologia",
}

// Filter is a pure, total predicate over notice subject text.
type Filter struct {
	expr *regexp.Regexp
}

// NewFilter compiles a case-insensitive word-boundary matcher for keywords.
// An empty list falls back to DefaultKeywords.
func NewFilter(keywords []string) *Filter {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	escaped := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(kw))
	}
	return &Filter{
		expr: regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`),
	}
}

// Matches reports whether the subject mentions any configured keyword as a
// whole word. Empty or malformed input simply yields false.
func (f *Filter) Matches(objeto string) bool {
	if f == nil || f.expr == nil || objeto == "" {
		return false
	}
	return f.expr.MatchString(objeto)
}
