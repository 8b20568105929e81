// AngelaMos | 2026
// threed.go

package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/carterperez-dev/sculptor/internal/config"
)

const (
	fastPath       = "/v2beta/3d/stable-fast-3d"
	pointAwarePath = "/v2beta/3d/stable-point-aware-3d"
)

// StabilityMesh converts a PNG into a glTF binary through the Stability
// 3D endpoints. The point-aware pipeline carries fixed tuning fields;
// the fast pipeline takes only the image.
type StabilityMesh struct {
	cfg    config.ThreeDProviderConfig
	client *http.Client
}

func NewStabilityMesh(cfg config.ThreeDProviderConfig) *StabilityMesh {
	return &StabilityMesh{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *StabilityMesh) GenerateMesh(
	ctx context.Context,
	imagePNG []byte,
	quality MeshQuality,
) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create image form part: %w", err)
	}
	if _, err := part.Write(imagePNG); err != nil {
		return nil, fmt.Errorf("write image form part: %w", err)
	}

	path := fastPath
	if quality != MeshQualityFast {
		path = pointAwarePath

		fields := map[string]string{
			"texture_resolution": "2048",
			"foreground_ratio":   "1.0",
			"remesh":             "quad",
			"vertex_count":       "10000",
			"output_format":      "glb",
		}
		for name, value := range fields {
			if err := writer.WriteField(name, value); err != nil {
				return nil, fmt.Errorf("write form field %s: %w", name, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimRight(m.cfg.BaseURL, "/")+path,
		&buf,
	)
	if err != nil {
		return nil, fmt.Errorf("create mesh request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mesh request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf(
			"mesh provider: status=%d body=%s",
			resp.StatusCode,
			string(errBody),
		)
	}

	glb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mesh response: %w", err)
	}

	if len(glb) == 0 {
		return nil, fmt.Errorf("mesh provider: empty response body")
	}

	return glb, nil
}
