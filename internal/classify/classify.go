// Package classify infers chunk metadata from keyword heuristics. False
// positives and negatives are acceptable; classification never fails.
package classify

import (
	"strings"

	"github.com/codeshield-ai/codeshield/internal/domain"
)

// Metadata is the inferred labeling for one chunk of policy text.
type Metadata struct {
	Language string
	Topic    string
	Type     domain.PracticeType
	Severity domain.Severity
}

// topicKeywords are checked in priority order; the first match wins.
// Order matters because content often mentions several of these at once.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{"jwt", []string{"jwt", "token"}},
	{"password_hashing", []string{"password", "hash"}},
	{"encryption", []string{"encrypt", "crypto"}},
	{"authentication", []string{"auth", "authentication"}},
}

var forbiddenKeywords = []string{"forbidden", "must not", "never", "avoid"}

var criticalKeywords = []string{"critical", "vulnerability", "exploit"}

// Classify infers language, topic, practice type and severity for a chunk.
// sourceHint is typically the originating filename or source tag.
func Classify(content, sourceHint string) Metadata {
	meta := Metadata{
		Language: domain.LanguageAll,
		Topic:    "general",
		Type:     domain.PracticeTypeSecure,
		Severity: domain.SeverityWarning,
	}

	hint := strings.ToLower(sourceHint)
	switch {
	case containsAny(hint, "node", "js", "javascript"):
		meta.Language = "javascript"
	case containsAny(hint, "python", "py"):
		meta.Language = "python"
	case strings.Contains(hint, "go"):
		meta.Language = "go"
	}

	lower := strings.ToLower(content)
	for _, tk := range topicKeywords {
		if containsAny(lower, tk.keywords...) {
			meta.Topic = tk.topic
			break
		}
	}

	if containsAny(lower, forbiddenKeywords...) {
		meta.Type = domain.PracticeTypeForbidden
	}
	if containsAny(lower, criticalKeywords...) {
		meta.Severity = domain.SeverityCritical
	}

	return meta
}

// DetectLanguageFromPath infers a programming language from a file path.
// Unrecognized extensions map to "all" so the chunk matches any language
// filter.
func DetectLanguageFromPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case hasAnySuffix(lower, ".js", ".jsx", ".ts", ".tsx"):
		return "javascript"
	case strings.HasSuffix(lower, ".py"):
		return "python"
	case strings.HasSuffix(lower, ".go"):
		return "go"
	case strings.HasSuffix(lower, ".java"):
		return "java"
	case strings.HasSuffix(lower, ".rb"):
		return "ruby"
	case strings.HasSuffix(lower, ".cs"):
		return "csharp"
	}
	return domain.LanguageAll
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
