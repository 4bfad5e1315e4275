package calendarsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrTokenRevoked means the doctor revoked the provider grant; the
	// connection must be marked expired and excluded from overlays.
	ErrTokenRevoked = errors.New("provider token revoked")
)

// BusyRange is one busy span as reported by the provider.
type BusyRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Provider is the external calendar pull API. Webhook subscriptions and the
// OAuth connect flow live with the collaborator that creates connections;
// this engine only ever pulls busy ranges.
type Provider interface {
	FreeBusy(ctx context.Context, conn *Connection, from, to time.Time) ([]BusyRange, *string, error)
}

// HTTPProvider pulls free/busy data over the provider's REST API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type freeBusyResponse struct {
	Busy      []BusyRange `json:"busy"`
	SyncToken *string     `json:"nextSyncToken"`
}

func (p *HTTPProvider) FreeBusy(ctx context.Context, conn *Connection, from, to time.Time) ([]BusyRange, *string, error) {
	q := url.Values{}
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", to.UTC().Format(time.RFC3339))
	if conn.SyncToken != nil {
		q.Set("syncToken", *conn.SyncToken)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/freeBusy?%s",
		p.baseURL, url.PathEscape(conn.AccountEmail), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build freebusy request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("freebusy request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, nil, ErrTokenRevoked
	case resp.StatusCode != http.StatusOK:
		return nil, nil, fmt.Errorf("freebusy request: unexpected status %d", resp.StatusCode)
	}

	var body freeBusyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decode freebusy response: %w", err)
	}

	return body.Busy, body.SyncToken, nil
}
