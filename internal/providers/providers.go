// AngelaMos | 2026
// providers.go

// Package providers holds the thin HTTP clients for the hosted models
// the pipeline depends on: entity extraction, 2D image generation, and
// image-to-3D conversion. Each client owns its http.Client and timeout;
// callers add their own deadline via ctx when they need a tighter one.
package providers

import "context"

type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// MeshQuality selects the 3D conversion pipeline. The two pipelines
// differ in price and output fidelity.
type MeshQuality string

const (
	MeshQualityPointAware MeshQuality = "point-aware"
	MeshQualityFast       MeshQuality = "fast"
)

type MeshGenerator interface {
	GenerateMesh(
		ctx context.Context,
		imagePNG []byte,
		quality MeshQuality,
	) ([]byte, error)
}
