// AngelaMos | 2026
// threed_test.go

package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sculptor/internal/config"
)

func testMeshConfig(baseURL string) config.ThreeDProviderConfig {
	return config.ThreeDProviderConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}
}

func TestStabilityMeshPointAware(t *testing.T) {
	glb := []byte("glb-binary")

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, pointAwarePath, r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			require.NoError(t, r.ParseMultipartForm(1<<20))

			file, header, err := r.FormFile("image")
			require.NoError(t, err)
			defer file.Close() //nolint:errcheck // test server

			assert.Equal(t, "image.png", header.Filename)
			content, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, []byte("source-png"), content)

			assert.Equal(t, "2048", r.FormValue("texture_resolution"))
			assert.Equal(t, "1.0", r.FormValue("foreground_ratio"))
			assert.Equal(t, "quad", r.FormValue("remesh"))
			assert.Equal(t, "10000", r.FormValue("vertex_count"))
			assert.Equal(t, "glb", r.FormValue("output_format"))

			//nolint:errcheck // test server
			_, _ = w.Write(glb)
		},
	))
	defer srv.Close()

	mesh := NewStabilityMesh(testMeshConfig(srv.URL))

	got, err := mesh.GenerateMesh(
		context.Background(),
		[]byte("source-png"),
		MeshQualityPointAware,
	)
	require.NoError(t, err)
	assert.Equal(t, glb, got)
}

func TestStabilityMeshFastOmitsTuningFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, fastPath, r.URL.Path)

			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Empty(t, r.FormValue("texture_resolution"))
			assert.Empty(t, r.FormValue("remesh"))

			//nolint:errcheck // test server
			_, _ = w.Write([]byte("glb-binary"))
		},
	))
	defer srv.Close()

	mesh := NewStabilityMesh(testMeshConfig(srv.URL))

	_, err := mesh.GenerateMesh(
		context.Background(),
		[]byte("source-png"),
		MeshQualityFast,
	)
	require.NoError(t, err)
}

func TestStabilityMeshUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid image", http.StatusUnprocessableEntity)
		},
	))
	defer srv.Close()

	mesh := NewStabilityMesh(testMeshConfig(srv.URL))

	_, err := mesh.GenerateMesh(
		context.Background(),
		[]byte("bad"),
		MeshQualityPointAware,
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=422")
}

func TestStabilityMeshEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	))
	defer srv.Close()

	mesh := NewStabilityMesh(testMeshConfig(srv.URL))

	_, err := mesh.GenerateMesh(
		context.Background(),
		[]byte("png"),
		MeshQualityPointAware,
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response body")
}
