// AngelaMos | 2026
// entity.go

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/carterperez-dev/sculptor/internal/config"
)

// NoEntitiesFound is the sentinel returned as the sole list element when
// extraction succeeds but yields nothing usable. Clients display it
// as-is; it is part of the API surface.
const NoEntitiesFound = "No entities found"

const entitySystemPrompt = "You are a precise entity extraction " +
	"assistant. Extract only character names and object names from the " +
	"text. Return each name on a new line without any numbering, " +
	"bullets, or extra text."

const entityPromptTemplate = `Extract a list of all unique characters and objects from the following text.
Return only the names, one per line, without numbering or additional text.

Text:
%s

Characters and Objects:`

// TogetherExtractor extracts entities through a Together-compatible
// chat completions endpoint.
type TogetherExtractor struct {
	cfg    config.EntityProviderConfig
	client *http.Client
}

func NewTogetherExtractor(cfg config.EntityProviderConfig) *TogetherExtractor {
	return &TogetherExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *TogetherExtractor) ExtractEntities(
	ctx context.Context,
	text string,
) ([]string, error) {
	body := chatCompletionRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: entitySystemPrompt},
			{Role: "user", Content: fmt.Sprintf(entityPromptTemplate, text)},
		},
		MaxTokens:   500,
		Temperature: 0.1,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		strings.TrimRight(e.cfg.BaseURL, "/")+"/v1/chat/completions",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf(
			"entity provider: status=%d body=%s",
			resp.StatusCode,
			string(errBody),
		)
	}

	var chatResp chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return []string{NoEntitiesFound}, nil
	}

	return ParseEntityList(chatResp.Choices[0].Message.Content), nil
}

// ParseEntityList turns raw model output into a clean entity list: one
// entity per line, list prefixes stripped, duplicates removed
// case-insensitively keeping the first-seen spelling. An empty result
// collapses to the NoEntitiesFound sentinel.
func ParseEntityList(content string) []string {
	seen := make(map[string]struct{})
	entities := []string{}

	for _, line := range strings.Split(content, "\n") {
		cleaned := strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789. ")
		if len(cleaned) <= 1 {
			continue
		}

		key := strings.ToLower(cleaned)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		entities = append(entities, cleaned)
	}

	if len(entities) == 0 {
		return []string{NoEntitiesFound}
	}
	return entities
}
