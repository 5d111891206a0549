package client

import (
	"context"

	"github.com/menta2k/photo-editor/pkg/types"
)

// ImageEditor is the remote generative-image service. It receives the
// prepared image and a text prompt and returns the edited image bytes.
type ImageEditor interface {
	RequestEdit(ctx context.Context, image []byte, prompt string) ([]byte, error)
}

// VisionClient describes images for prompt assist
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	DescribeImage(ctx context.Context, model, prompt, imgB64 string) (*types.SceneDescription, error)
}
