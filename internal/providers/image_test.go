// AngelaMos | 2026
// image_test.go

package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sculptor/internal/config"
)

func testImageConfig(baseURL string) config.ImageProviderConfig {
	return config.ImageProviderConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "dall-e-3",
		Size:    "1024x1024",
		Quality: "hd",
		Timeout: 5 * time.Second,
	}
}

func TestDalleGeneratorGenerateImage(t *testing.T) {
	pngBytes := []byte("fake-png-bytes")
	var gotReq imageGenerationRequest

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/images/generations", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			resp := map[string]any{
				"data": []map[string]any{
					{"b64_json": base64.StdEncoding.EncodeToString(pngBytes)},
				},
			}
			//nolint:errcheck // test server
			_ = json.NewEncoder(w).Encode(resp)
		},
	))
	defer srv.Close()

	gen := NewDalleGenerator(testImageConfig(srv.URL))

	png, err := gen.GenerateImage(context.Background(), "Alice, watercolor")
	require.NoError(t, err)

	assert.Equal(t, pngBytes, png)
	assert.Equal(t, "Alice, watercolor", gotReq.Prompt)
	assert.Equal(t, "dall-e-3", gotReq.Model)
	assert.Equal(t, "1024x1024", gotReq.Size)
	assert.Equal(t, "hd", gotReq.Quality)
	assert.Equal(t, "b64_json", gotReq.ResponseFormat)
	assert.Equal(t, 1, gotReq.N)
}

func TestDalleGeneratorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "content policy violation", http.StatusBadRequest)
		},
	))
	defer srv.Close()

	gen := NewDalleGenerator(testImageConfig(srv.URL))

	_, err := gen.GenerateImage(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
}

func TestDalleGeneratorEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			//nolint:errcheck // test server
			_, _ = w.Write([]byte(`{"data":[]}`))
		},
	))
	defer srv.Close()

	gen := NewDalleGenerator(testImageConfig(srv.URL))

	_, err := gen.GenerateImage(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response data")
}
