package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ModelCatalog lists the models an OpenAI-compatible server exposes on
// /v1/models.
type ModelCatalog struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewModelCatalog creates a catalog client for one server.
func NewModelCatalog(baseURL, apiKey string) *ModelCatalog {
	return &ModelCatalog{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  http.DefaultClient,
	}
}

// ModelInfo is one entry of the /v1/models listing.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelsResponse represents the response from the /v1/models endpoint.
type ModelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// List returns the ids of every model the server serves.
func (m *ModelCatalog) List(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/v1/models", m.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", m.APIKey))

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var models ModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}
	ids := make([]string, len(models.Data))
	for i, model := range models.Data {
		ids[i] = model.ID
	}
	return ids, nil
}

// Require returns an error unless the server lists the named model. Servers
// that host a single model without listing it answer 404; that counts as
// reachable.
func (m *ModelCatalog) Require(ctx context.Context, model string) error {
	ids, err := m.List(ctx)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	}
	for _, id := range ids {
		if id == model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not served by %s (available: %v)", model, m.BaseURL, ids)
}
