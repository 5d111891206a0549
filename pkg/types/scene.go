package types

import "strings"

// SceneDescription is what a vision model reports about an image. It is used
// to build an edit prompt when the user leaves the prompt empty.
type SceneDescription struct {
	Subject string   `json:"subject"`
	Setting string   `json:"setting"`
	Style   string   `json:"style"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Empty reports whether the model gave nothing usable
func (d SceneDescription) Empty() bool {
	return d.Subject == "" && d.Setting == "" && d.Summary == ""
}

// Sentence renders the description as one short phrase,
// e.g. "a red bicycle, in a city street, film photography"
func (d SceneDescription) Sentence() string {
	if d.Summary != "" {
		return strings.TrimSuffix(strings.TrimSpace(d.Summary), ".")
	}
	var parts []string
	if d.Subject != "" {
		parts = append(parts, d.Subject)
	}
	if d.Setting != "" {
		parts = append(parts, "in "+d.Setting)
	}
	if d.Style != "" {
		parts = append(parts, d.Style)
	}
	return strings.Join(parts, ", ")
}
