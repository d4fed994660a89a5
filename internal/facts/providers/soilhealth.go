package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/agrimind/agri-advisor/internal/facts"
)

// SoilHealthProvider implements facts.SoilProvider. The central Soil Health
// Card portal has no stable public JSON API, so the base URL points at
// whatever departmental export or mirror is configured; with no base URL the
// lookup is a no-op and the card stays null.
type SoilHealthProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewSoilHealthProvider(client *http.Client, baseURL string) *SoilHealthProvider {
	return &SoilHealthProvider{
		name:    "soilhealth",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("soilhealth"),
	}
}

func (p *SoilHealthProvider) Name() string {
	return p.name
}

// FetchSoilHealthCard looks up a record by identifier. A nil card with nil
// error means the record is simply not available, which callers treat as a
// valid state.
func (p *SoilHealthProvider) FetchSoilHealthCard(ctx context.Context, cardID string) (facts.SoilHealthCard, error) {
	if cardID == "" || p.baseURL == "" {
		return nil, nil
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/cards/%s", p.baseURL, url.PathEscape(cardID))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var card facts.SoilHealthCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, err
	}
	return card, nil
}
