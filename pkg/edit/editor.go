// Package edit prepares images for the remote AI editor and applies its
// result: enhance sends the image as is, inpaint burns the mask strokes in,
// outpaint expands the canvas first.
package edit

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/client"
	"github.com/menta2k/photo-editor/pkg/mask"
	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/types"
	"github.com/menta2k/photo-editor/pkg/upload"
)

// Operation is the kind of AI edit
type Operation int

const (
	Enhance Operation = iota
	Inpaint
	Outpaint
)

func (o Operation) String() string {
	switch o {
	case Enhance:
		return "enhance"
	case Inpaint:
		return "inpaint"
	case Outpaint:
		return "outpaint"
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// ParseOperation parses "enhance", "inpaint" or "outpaint"
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enhance":
		return Enhance, nil
	case "inpaint", "mask":
		return Inpaint, nil
	case "outpaint", "expand":
		return Outpaint, nil
	}
	return 0, fmt.Errorf("unknown edit operation %q", s)
}

// Request describes one AI edit
type Request struct {
	Op     Operation
	Prompt string
	Image  types.Image
	// Strokes is used by Inpaint
	Strokes []mask.Stroke
	// TargetRatio and Fill are used by Outpaint
	TargetRatio float64
	Fill        color.Color
}

// credentialed is implemented by editors that know whether they can
// authenticate before making a request
type credentialed interface {
	HasCredential() bool
}

// Editor runs AI edits
type Editor struct {
	remote      client.ImageEditor
	proc        *processing.Processor
	vision      client.VisionClient
	visionModel string
}

// Option configures an Editor
type Option func(*Editor)

// WithAssist enables prompt assist: when the user prompt is empty the image
// is described by model through vc and the description is added to the prompt.
func WithAssist(vc client.VisionClient, model string) Option {
	return func(e *Editor) {
		e.vision = vc
		e.visionModel = model
	}
}

// NewEditor creates an Editor using remote for the actual edit
func NewEditor(remote client.ImageEditor, proc *processing.Processor, opts ...Option) *Editor {
	if proc == nil {
		proc = processing.NewProcessor()
	}
	e := &Editor{remote: remote, proc: proc}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare builds the image sent to the remote editor for req
func (e *Editor) Prepare(ctx context.Context, req Request) (types.Image, error) {
	switch req.Op {
	case Enhance:
		return req.Image, nil
	case Inpaint:
		if len(req.Strokes) == 0 {
			return types.Image{}, fmt.Errorf("inpaint needs at least one mask stroke")
		}
		return e.proc.Composite(ctx, req.Image, req.Strokes, 0, 0)
	case Outpaint:
		return e.proc.Expand(ctx, req.Image, req.TargetRatio, req.Fill)
	}
	return types.Image{}, fmt.Errorf("unknown edit operation %v", req.Op)
}

// Apply runs req against the remote editor and returns the edited image. A
// missing credential is reported before any processing or network call.
func (e *Editor) Apply(ctx context.Context, req Request) (types.Image, error) {
	if e.remote == nil {
		return types.Image{}, fmt.Errorf("%w: no editor configured", types.ErrMissingCredential)
	}
	if c, ok := e.remote.(credentialed); ok && !c.HasCredential() {
		return types.Image{}, fmt.Errorf("%w: AI editing is not configured", types.ErrMissingCredential)
	}
	if req.Image.Raster == nil {
		return types.Image{}, fmt.Errorf("no image to edit")
	}

	prepared, err := e.Prepare(ctx, req)
	if err != nil {
		return types.Image{}, err
	}
	payload, err := e.proc.PrepareForEdit(prepared)
	if err != nil {
		return types.Image{}, err
	}

	prompt := BuildPrompt(req.Op, req.Prompt, e.describe(ctx, req))
	logging.Logger().Info("requesting AI edit", "op", req.Op, "bytes", len(payload))
	logging.Logger().Debug("edit prompt", "prompt", prompt)

	out, err := e.remote.RequestEdit(ctx, payload, prompt)
	if err != nil {
		return types.Image{}, err
	}

	img, err := processing.DecodeImage(out, upload.Sniff(out))
	if err != nil {
		return types.Image{}, fmt.Errorf("%w: response is not a readable image: %v", types.ErrRemoteEditFailed, err)
	}
	return img, nil
}

// Describe asks the assist model about img. It returns nil when assist is off.
func (e *Editor) Describe(ctx context.Context, img types.Image) (*types.SceneDescription, error) {
	if e.vision == nil {
		return nil, nil
	}
	b64, err := e.proc.PrepareImageForModel(img.Raster, "jpg", 768, 85)
	if err != nil {
		return nil, err
	}
	d, err := e.vision.DescribeImage(ctx, e.visionModel, DescribePrompt, b64)
	if err != nil {
		return nil, err
	}
	d.Tags = normalizeTags(d.Tags)
	return d, nil
}

// describe runs prompt assist when the user gave no prompt. Failures are
// logged and ignored.
func (e *Editor) describe(ctx context.Context, req Request) *types.SceneDescription {
	if e.vision == nil || strings.TrimSpace(req.Prompt) != "" {
		return nil
	}
	d, err := e.Describe(ctx, req.Image)
	if err != nil {
		logging.Logger().Warn("prompt assist failed", "error", err)
		return nil
	}
	return d
}
