// AngelaMos | 2026
// entity_test.go

package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sculptor/internal/config"
)

func TestParseEntityList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain lines",
			content: "Alice\nBob\nExcalibur",
			want:    []string{"Alice", "Bob", "Excalibur"},
		},
		{
			name:    "list prefixes stripped",
			content: "- Alice\n* Bob\n• Carol\n1. Dave\n2) Eve",
			want:    []string{"Alice", "Bob", "Carol", "Dave", ") Eve"},
		},
		{
			name:    "case-insensitive dedupe keeps first spelling",
			content: "Alice\nalice\nALICE\nBob",
			want:    []string{"Alice", "Bob"},
		},
		{
			name:    "blank and single-char lines dropped",
			content: "\nAlice\n\nx\n  \nBob",
			want:    []string{"Alice", "Bob"},
		},
		{
			name:    "surrounding whitespace trimmed",
			content: "  Alice  \n\tBob\t",
			want:    []string{"Alice", "Bob"},
		},
		{
			name:    "empty content collapses to sentinel",
			content: "",
			want:    []string{NoEntitiesFound},
		},
		{
			name:    "only noise collapses to sentinel",
			content: "-\n1.\n  \n*",
			want:    []string{NoEntitiesFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEntityList(tt.content))
		})
	}
}

func TestTogetherExtractorExtractEntities(t *testing.T) {
	var gotReq chatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			resp := map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "- Alice\n- Bob"}},
				},
			}
			//nolint:errcheck // test server
			_ = json.NewEncoder(w).Encode(resp)
		},
	))
	defer srv.Close()

	extractor := NewTogetherExtractor(config.EntityProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})

	entities, err := extractor.ExtractEntities(context.Background(), "a story")
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob"}, entities)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "a story")
}

func TestTogetherExtractorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		},
	))
	defer srv.Close()

	extractor := NewTogetherExtractor(config.EntityProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})

	_, err := extractor.ExtractEntities(context.Background(), "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestTogetherExtractorNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			//nolint:errcheck // test server
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
	))
	defer srv.Close()

	extractor := NewTogetherExtractor(config.EntityProviderConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	entities, err := extractor.ExtractEntities(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, []string{NoEntitiesFound}, entities)
}
