package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-pkgz/requester"
)

const pasteEndpoint = "/api/documents"

// pasteClient uploads text to a nekobin-compatible paste service.
type pasteClient struct {
	baseURL   string
	requester *requester.Requester
}

func newPasteClient(baseURL string, httpClient *http.Client) *pasteClient {
	return &pasteClient{baseURL: baseURL, requester: requester.New(*httpClient)}
}

// paste uploads content and returns the shareable URL built from the document
// key in the response.
func (p *pasteClient) paste(ctx context.Context, content string) (string, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return "", fmt.Errorf("failed to encode paste payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+pasteEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create paste request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.requester.Do(req)
	if err != nil {
		return "", fmt.Errorf("paste request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("paste service returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Result struct {
			Key string `json:"key"`
		} `json:"result"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode paste response: %w", err)
	}
	if parsed.Result.Key == "" {
		return "", fmt.Errorf("paste response has no document key")
	}
	return p.baseURL + "/" + parsed.Result.Key, nil
}
