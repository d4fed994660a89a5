package facts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProviderDown = errors.New("provider down")

type stubWeather struct {
	forecast ForecastData
	hist     map[string]any
	err      error
}

func (s *stubWeather) FetchForecast(ctx context.Context, loc Coordinates, days int) (ForecastData, error) {
	return s.forecast, s.err
}

func (s *stubWeather) FetchHistorical(ctx context.Context, loc Coordinates, startDate, endDate string) (map[string]any, error) {
	return s.hist, s.err
}

type stubAlerts struct {
	alerts []Alert
	err    error
}

func (s *stubAlerts) FetchAlerts(ctx context.Context, loc Coordinates, radiusKm int) ([]Alert, error) {
	return s.alerts, s.err
}

type stubSoil struct {
	card  SoilHealthCard
	err   error
	calls int
}

func (s *stubSoil) FetchSoilHealthCard(ctx context.Context, cardID string) (SoilHealthCard, error) {
	s.calls++
	return s.card, s.err
}

type stubMarket struct {
	market       Market
	err          error
	gotCommodity string
	gotDistrict  string
}

func (s *stubMarket) FetchMarketPrices(ctx context.Context, commodity, district string) (Market, error) {
	s.gotCommodity = commodity
	s.gotDistrict = district
	if s.err != nil {
		return Market{Commodity: commodity, District: district, Prices: []MarketPrice{}}, s.err
	}
	return s.market, nil
}

type stubResolver struct {
	district string
	err      error
	calls    int
}

func (s *stubResolver) District(loc Coordinates) (string, error) {
	s.calls++
	return s.district, s.err
}

func failingService() (*Service, *stubSoil, *stubMarket) {
	soil := &stubSoil{err: errProviderDown}
	market := &stubMarket{err: errProviderDown}
	svc := NewService(
		&stubWeather{err: errProviderDown},
		&stubAlerts{err: errProviderDown},
		soil,
		market,
		nil,
		ServiceConfig{},
		nil,
	)
	return svc, soil, market
}

func TestAssembleAllProvidersFailKeepsShape(t *testing.T) {
	svc, _, _ := failingService()

	loc := Coordinates{Lat: 30.9, Lon: 75.8}
	inputs := FarmerInputsFromMap(map[string]any{
		"commodity":           "wheat",
		"district":            "Ludhiana",
		"soil_health_card_id": "SHC-1",
	})

	bundle := svc.Assemble(context.Background(), loc, inputs)

	assert.Equal(t, loc, bundle.Location)
	assert.NotNil(t, bundle.Weather.Forecast)
	assert.Empty(t, bundle.Weather.Forecast)
	assert.NotNil(t, bundle.Weather.Hourly)
	assert.NotNil(t, bundle.Historical)
	assert.Empty(t, bundle.Historical)
	assert.NotNil(t, bundle.Alerts)
	assert.Len(t, bundle.Alerts, 0)
	assert.Nil(t, bundle.SoilHealthCard)
	assert.Equal(t, "wheat", bundle.Market.Commodity)
	assert.Equal(t, "Ludhiana", bundle.Market.District)
	assert.Nil(t, bundle.Market.LatestPrice)
	assert.NotNil(t, bundle.Market.Prices)
	assert.Len(t, bundle.Market.Prices, 0)
	assert.Equal(t, StaticFertilizerInfo(), bundle.Fertilizer)

	// Every documented top-level key must survive serialization.
	out, err := json.Marshal(bundle)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	for _, key := range []string{
		"location", "weather", "historical_weather", "alerts",
		"soil_health_card", "market", "fertilizer", "farmer_inputs",
	} {
		assert.Contains(t, decoded, key)
	}
}

func TestAssembleMergesSuccessfulProviders(t *testing.T) {
	price := 2125.0
	soil := &stubSoil{card: SoilHealthCard{"ph": 7.4}}
	market := &stubMarket{market: Market{
		Commodity:   "wheat",
		District:    "Ludhiana",
		LatestPrice: &price,
		Prices:      []MarketPrice{{Date: "2024-11-02", Price: 2100}},
	}}

	svc := NewService(
		&stubWeather{
			forecast: ForecastData{
				Daily:  map[string]any{"temperature_2m_max": []any{31.5}},
				Hourly: map[string]any{"precipitation": []any{0.2}},
			},
			hist: map[string]any{"temperature_2m": []any{18.0}},
		},
		&stubAlerts{alerts: []Alert{{"event": "flood watch"}}},
		soil,
		market,
		nil,
		ServiceConfig{},
		nil,
	)

	inputs := FarmerInputsFromMap(map[string]any{"soil_health_card_id": "SHC-1"})
	bundle := svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, inputs)

	assert.Equal(t, map[string]any{"temperature_2m_max": []any{31.5}}, bundle.Weather.Forecast)
	assert.Equal(t, map[string]any{"precipitation": []any{0.2}}, bundle.Weather.Hourly)
	assert.Equal(t, map[string]any{"temperature_2m": []any{18.0}}, bundle.Historical)
	assert.Len(t, bundle.Alerts, 1)
	assert.Equal(t, SoilHealthCard{"ph": 7.4}, bundle.SoilHealthCard)
	require.NotNil(t, bundle.Market.LatestPrice)
	assert.Equal(t, price, *bundle.Market.LatestPrice)
	assert.Equal(t, 1, soil.calls)
}

func TestAssembleAlertsFailureYieldsEmptySequence(t *testing.T) {
	svc := NewService(
		&stubWeather{},
		&stubAlerts{err: errProviderDown},
		&stubSoil{},
		&stubMarket{},
		nil,
		ServiceConfig{},
		nil,
	)

	bundle := svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, FarmerInputs{})

	assert.NotNil(t, bundle.Alerts)
	assert.Len(t, bundle.Alerts, 0)
}

func TestAssembleSoilSkippedWithoutIdentifier(t *testing.T) {
	svc, soil, _ := failingService()

	bundle := svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, FarmerInputs{})

	assert.Zero(t, soil.calls)
	assert.Nil(t, bundle.SoilHealthCard)
}

func TestAssembleDefaultsCommodity(t *testing.T) {
	svc, _, market := failingService()

	svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, FarmerInputs{})

	assert.Equal(t, DefaultCommodity, market.gotCommodity)
}

func TestAssembleResolvesDistrictWhenAbsent(t *testing.T) {
	resolver := &stubResolver{district: "Ludhiana"}
	market := &stubMarket{}
	svc := NewService(&stubWeather{}, &stubAlerts{}, &stubSoil{}, market, resolver, ServiceConfig{}, nil)

	svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, FarmerInputs{})

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "Ludhiana", market.gotDistrict)
}

// hangingResolver blocks until released, simulating a stalled geocoder
// backend.
type hangingResolver struct {
	release chan struct{}
}

func (h *hangingResolver) District(loc Coordinates) (string, error) {
	<-h.release
	return "", errors.New("released")
}

func TestAssembleBoundedByBudgetsWhenResolverHangs(t *testing.T) {
	resolver := &hangingResolver{release: make(chan struct{})}
	defer close(resolver.release)

	market := &stubMarket{}
	svc := NewService(&stubWeather{}, &stubAlerts{}, &stubSoil{}, market, resolver, ServiceConfig{
		WeatherTimeout: 100 * time.Millisecond,
		AuxTimeout:     100 * time.Millisecond,
	}, nil)

	done := make(chan FactBundle, 1)
	go func() {
		done <- svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, FarmerInputs{})
	}()

	select {
	case bundle := <-done:
		assert.Equal(t, "", market.gotDistrict)
		assert.NotNil(t, bundle.Market.Prices)
	case <-time.After(2 * time.Second):
		t.Fatal("Assemble did not return after all provider budgets expired")
	}
}

func TestAssembleSkipsResolverWhenDistrictGiven(t *testing.T) {
	resolver := &stubResolver{district: "Amritsar"}
	market := &stubMarket{}
	svc := NewService(&stubWeather{}, &stubAlerts{}, &stubSoil{}, market, resolver, ServiceConfig{}, nil)

	inputs := FarmerInputsFromMap(map[string]any{"district": "Ludhiana"})
	svc.Assemble(context.Background(), Coordinates{Lat: 30.9, Lon: 75.8}, inputs)

	assert.Zero(t, resolver.calls)
	assert.Equal(t, "Ludhiana", market.gotDistrict)
}
