package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/agrimind/agri-advisor/internal/facts"
)

const defaultSachetBase = "https://sachet.ndma.gov.in/api"

// SachetProvider implements facts.AlertsProvider against the NDMA SACHET
// public alert feed, bounded by a radius around the given point.
type SachetProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewSachetProvider(client *http.Client, baseURL string) *SachetProvider {
	if baseURL == "" {
		baseURL = defaultSachetBase
	}
	return &SachetProvider{
		name:    "sachet",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("sachet"),
	}
}

func (p *SachetProvider) Name() string {
	return p.name
}

// FetchAlerts returns the alert records within radiusKm of the location.
// Alert payloads are passed through as received; this service does not
// interpret them.
func (p *SachetProvider) FetchAlerts(ctx context.Context, loc facts.Coordinates, radiusKm int) ([]facts.Alert, error) {
	if radiusKm <= 0 {
		radiusKm = facts.DefaultAlertRadiusKm
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", loc.Lat))
		values.Set("lon", fmt.Sprintf("%f", loc.Lon))
		values.Set("radius", strconv.Itoa(radiusKm))

		u := fmt.Sprintf("%s/alerts?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Alerts []facts.Alert `json:"alerts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if payload.Alerts == nil {
		return []facts.Alert{}, nil
	}
	return payload.Alerts, nil
}
