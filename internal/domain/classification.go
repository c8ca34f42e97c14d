package domain

import (
	"sort"
	"strings"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank orders severities from none (0) to critical (4). Unknown values rank as none.
func (s Severity) Rank() int {
	return severityRank[s]
}

func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	_, ok := severityRank[sev]
	return sev, ok
}

// Source records which classifier produced a verdict.
type Source string

const (
	SourceML       Source = "ml"
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

const (
	CategoryThreat     = "threat"
	CategoryHateSpeech = "hate_speech"
	CategoryHarassment = "harassment"
	CategoryOffensive  = "offensive"
	CategoryProfanity  = "profanity"
	CategorySpam       = "spam"
)

// Verdict is the outcome of classifying one piece of text.
type Verdict struct {
	IsHateSpeech            bool     `json:"is_hate_speech"`
	Confidence              float64  `json:"confidence"`
	Categories              []string `json:"categories"`
	Severity                Severity `json:"severity"`
	RequiresImmediateAction bool     `json:"requires_immediate_action"`
	Source                  Source   `json:"source"`
}

func (v Verdict) HasCategory(category string) bool {
	for _, c := range v.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeCategory lowercases and trims a label and drops commas, which
// separate labels in storage.
func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(c, ",", "")))
}

// NormalizeCategories normalizes, deduplicates and sorts category labels.
func NormalizeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = NormalizeCategory(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func JoinCategories(categories []string) string {
	return strings.Join(NormalizeCategories(categories), ",")
}

func SplitCategories(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeCategories(strings.Split(raw, ","))
}
