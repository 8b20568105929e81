// AngelaMos | 2026
// image.go

package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/carterperez-dev/sculptor/internal/config"
)

// DalleGenerator renders a PNG from a text prompt through an
// OpenAI-compatible images endpoint. The response is requested as
// b64_json so the bytes come back inline instead of via a signed URL.
type DalleGenerator struct {
	cfg    config.ImageProviderConfig
	client *http.Client
}

func NewDalleGenerator(cfg config.ImageProviderConfig) *DalleGenerator {
	return &DalleGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	Quality        string `json:"quality"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func (g *DalleGenerator) GenerateImage(
	ctx context.Context,
	prompt string,
) ([]byte, error) {
	body := imageGenerationRequest{
		Model:          g.cfg.Model,
		Prompt:         prompt,
		N:              1,
		Size:           g.cfg.Size,
		Quality:        g.cfg.Quality,
		ResponseFormat: "b64_json",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimRight(g.cfg.BaseURL, "/")+"/v1/images/generations",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf(
			"image provider: status=%d body=%s",
			resp.StatusCode,
			string(errBody),
		)
	}

	var imgResp imageGenerationResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgResp); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}

	if len(imgResp.Data) == 0 || imgResp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image provider: empty response data")
	}

	raw, err := base64.StdEncoding.DecodeString(imgResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}

	return raw, nil
}
