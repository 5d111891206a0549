package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/photo-editor/pkg/types"
)

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseSceneDescription parses a vision model reply. Models often wrap JSON in
// fences or answer in prose; prose is kept as the summary rather than failing.
func ParseSceneDescription(raw string) *types.SceneDescription {
	cleaned := SanitizeModelJSON(raw)

	if strings.HasPrefix(cleaned, "{") {
		var result types.SceneDescription
		if err := json.Unmarshal([]byte(cleaned), &result); err == nil && !result.Empty() {
			return &result
		}
	}

	text := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "`"))
	if strings.HasPrefix(text, "{") || text == "" {
		return &types.SceneDescription{}
	}
	if i := strings.IndexAny(text, "\n"); i >= 0 {
		text = text[:i]
	}
	return &types.SceneDescription{Summary: text}
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from a JSON reply
func SanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
