package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/iltoga/businesssuite-desktop/internal/models"
)

// HTTPBackend talks to the CRM backend's reminder endpoints under a single
// allowed origin. Requests to any other origin are impossible by
// construction.
type HTTPBackend struct {
	origin string
	client *http.Client
}

// NewHTTPBackend creates a backend rooted at the given origin
// (scheme://host, no trailing slash).
func NewHTTPBackend(origin string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		origin: strings.TrimRight(origin, "/"),
		client: client,
	}
}

// FetchUnread calls GET /api/reminders/unread/.
func (b *HTTPBackend) FetchUnread(ctx context.Context, token string) (*models.UnreadSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.origin+"/api/reminders/unread/", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch unread: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unread endpoint returned %d", resp.StatusCode)
	}

	var snapshot models.UnreadSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode unread response: %w", err)
	}
	if snapshot.Count < 0 {
		snapshot.Count = 0
	}
	return &snapshot, nil
}

// MarkRead calls POST /api/reminders/{id}/read/.
func (b *HTTPBackend) MarkRead(ctx context.Context, token string, id int, metadata map[string]string) error {
	var body bytes.Buffer
	if len(metadata) > 0 {
		if err := json.NewEncoder(&body).Encode(metadata); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}

	url := fmt.Sprintf("%s/api/reminders/%d/read/", b.origin, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mark-read endpoint returned %d", resp.StatusCode)
	}
	return nil
}
