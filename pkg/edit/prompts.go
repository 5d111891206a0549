package edit

import (
	"fmt"
	"strings"

	"github.com/menta2k/photo-editor/pkg/types"
)

// DescribePrompt asks a vision model for a scene description
const DescribePrompt = `You describe photos for an image editor.

Return JSON only:
{
  "subject": "main subject, a few words",
  "setting": "where the scene takes place, a few words",
  "style": "photographic style or medium, a few words",
  "summary": "one neutral sentence (<= 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

RULES
- Be literal and brief. Do not guess real identities.
- Tags: lowercase, concise, no duplicates.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const (
	enhancePrompt = "Enhance this photo: improve sharpness, exposure and color balance while keeping the composition and content unchanged."

	inpaintPrompt = "Semi-transparent brush strokes mark a region of this photo. Edit only the marked region, remove the strokes, and leave everything else unchanged."

	outpaintPrompt = "This photo sits centered on a larger canvas with solid padding. Fill the padding by extending the scene naturally so the result reads as one seamless photo."

	defaultInpaintInstruction = "fill it with background that matches its surroundings"
)

// BuildPrompt combines the operation template, the user's instruction and an
// optional scene description into the prompt sent to the editor.
func BuildPrompt(op Operation, userPrompt string, scene *types.SceneDescription) string {
	userPrompt = strings.TrimSpace(userPrompt)

	var b strings.Builder
	switch op {
	case Enhance:
		b.WriteString(enhancePrompt)
	case Inpaint:
		b.WriteString(inpaintPrompt)
		instruction := userPrompt
		if instruction == "" {
			instruction = defaultInpaintInstruction
		}
		fmt.Fprintf(&b, " In the marked region: %s.", strings.TrimSuffix(instruction, "."))
		userPrompt = ""
	case Outpaint:
		b.WriteString(outpaintPrompt)
	}

	if userPrompt != "" {
		b.WriteString(" ")
		b.WriteString(userPrompt)
	}
	if scene != nil && !scene.Empty() {
		fmt.Fprintf(&b, " The photo shows %s.", scene.Sentence())
	}
	return b.String()
}

// normalizeTags lowercases, dedupes and limits tags to 5 entries
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}
