package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/course-conditions/internal/config"
)

// Provider pushes user attribute changes to the identity provider's admin
// API. The stored profile is the source of truth; the provider's copy is
// advisory, so callers treat failures as non-fatal.
type Provider struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewProvider creates a client for the identity provider's admin API
func NewProvider(cfg *config.AuthConfig, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL: cfg.ProviderBaseURL,
		client:  &http.Client{Timeout: cfg.ProviderTimeout},
		logger:  logger,
	}
}

// UpdateDisplayName sets the user's display name on the provider's own
// profile record
func (p *Provider) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	if p.baseURL == "" {
		p.logger.Debug("identity provider propagation disabled, skipping display name update", "user_id", userID)
		return nil
	}

	body, err := json.Marshal(map[string]string{"displayName": displayName})
	if err != nil {
		return fmt.Errorf("marshaling display name update: %w", err)
	}

	url := fmt.Sprintf("%s/users/%s", p.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building display name request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}
	return nil
}
