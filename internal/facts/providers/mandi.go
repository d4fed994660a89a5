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

// MandiProvider implements facts.MarketProvider against a data.gov.in style
// mandi price feed. With no base URL configured it returns the empty market
// record without a network call.
type MandiProvider struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewMandiProvider(client *http.Client, baseURL, apiKey string) *MandiProvider {
	return &MandiProvider{
		name:    "mandi",
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		circuit: newBreaker("mandi"),
	}
}

func (p *MandiProvider) Name() string {
	return p.name
}

// FetchMarketPrices returns the latest price and history for the
// commodity/district pair. Price fields stay null/empty when the feed is
// unavailable.
func (p *MandiProvider) FetchMarketPrices(ctx context.Context, commodity, district string) (facts.Market, error) {
	market := facts.Market{
		Commodity: commodity,
		District:  district,
		Prices:    []facts.MarketPrice{},
	}

	if p.baseURL == "" {
		return market, nil
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("commodity", commodity)
		if district != "" {
			values.Set("district", district)
		}
		values.Set("format", "json")
		if p.apiKey != "" {
			values.Set("api-key", p.apiKey)
		}

		u := fmt.Sprintf("%s/prices?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return market, err
	}
	defer resp.Body.Close()

	var payload struct {
		LatestPrice *float64            `json:"latest_price"`
		Prices      []facts.MarketPrice `json:"prices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return market, err
	}

	market.LatestPrice = payload.LatestPrice
	if payload.Prices != nil {
		market.Prices = payload.Prices
	}
	return market, nil
}
