package catalog_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcdev12/binaryquiz/go/clients"
	"github.com/mcdev12/binaryquiz/go/internal/models"
)

// CatalogClient talks to the remote quiz catalog. Metadata lives under the API
// URL, images are served relative to the base URL.
type CatalogClient struct {
	api    *clients.BaseClient
	assets *clients.BaseClient
}

func NewCatalogClient(apiURL, baseURL string) *CatalogClient {
	client := &CatalogClient{
		api:    clients.NewBaseClient(strings.TrimRight(apiURL, "/")),
		assets: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
	}

	client.api.SetHeader(AcceptHeader, JSONMimeType)

	return client
}

// SetTimeout bounds every catalog and asset request.
func (c *CatalogClient) SetTimeout(timeout time.Duration) {
	c.api.SetTimeout(timeout)
	c.assets.SetTimeout(timeout)
}

// SetHTTPClient swaps the transport for both endpoints.
func (c *CatalogClient) SetHTTPClient(client *http.Client) {
	c.api.SetHTTPClient(client)
	c.assets.SetHTTPClient(client)
}

// ListQuizzes returns every quiz known to the catalog.
func (c *CatalogClient) ListQuizzes(ctx context.Context) ([]models.Quiz, error) {
	body, err := c.api.Get(ctx, QuizzesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	var quizzes []models.Quiz
	if err := json.Unmarshal(body, &quizzes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quizzes: %w", err)
	}

	return quizzes, nil
}

// StartSession asks the catalog for a shuffled round queue of at most limit rounds.
func (c *CatalogClient) StartSession(ctx context.Context, quizID string, limit int) ([]models.RoundDefinition, error) {
	endpoint := fmt.Sprintf(StartSessionEndpoint, url.PathEscape(quizID)) + "?limit=" + fmt.Sprint(limit)
	body, err := c.api.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to start session for quiz %s: %w", quizID, err)
	}

	var rounds []models.RoundDefinition
	if err := json.Unmarshal(body, &rounds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round queue: %w", err)
	}

	for i, r := range rounds {
		if !r.CorrectLabel.Valid() {
			return nil, fmt.Errorf("round %d has invalid label %q", i, r.CorrectLabel)
		}
	}

	return rounds, nil
}

// Fetch downloads the raw image bytes behind an image ref.
func (c *CatalogClient) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := c.assets.Get(ctx, AssetPath(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset %s: %w", ref, err)
	}
	return data, nil
}

// AssetPath turns a catalog image ref into a path below the base URL. Refs are
// relative ("static/quizzes/..."), a leading slash is tolerated.
func AssetPath(ref string) string {
	return "/" + strings.TrimLeft(ref, "/")
}
