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

const (
	defaultOpenMeteoBase = "https://api.open-meteo.com/v1"

	forecastHourlyVars = "temperature_2m,precipitation,relativehumidity_2m,soil_moisture_0_1cm"
	forecastDailyVars  = "temperature_2m_max,temperature_2m_min,precipitation_sum"
	archiveHourlyVars  = "temperature_2m,precipitation"

	// All series are requested in the regional timezone so dates line up
	// with the farmer's calendar.
	weatherTimezone = "Asia/Kolkata"
)

// OpenMeteoProvider implements facts.ForecastProvider against Open-Meteo's
// forecast and archive endpoints.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = defaultOpenMeteoBase
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchForecast requests the fixed hourly and daily variable sets for the
// given horizon.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc facts.Coordinates, days int) (facts.ForecastData, error) {
	if days <= 0 {
		days = facts.DefaultForecastDays
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("hourly", forecastHourlyVars)
		values.Set("daily", forecastDailyVars)
		values.Set("timezone", weatherTimezone)
		values.Set("forecast_days", strconv.Itoa(days))

		u := fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return facts.ForecastData{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily  map[string]any `json:"daily"`
		Hourly map[string]any `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return facts.ForecastData{}, err
	}

	return facts.ForecastData{Daily: payload.Daily, Hourly: payload.Hourly}, nil
}

// FetchHistorical requests hourly temperature and precipitation over the
// inclusive date range from the archive endpoint.
func (p *OpenMeteoProvider) FetchHistorical(ctx context.Context, loc facts.Coordinates, startDate, endDate string) (map[string]any, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("start_date", startDate)
		values.Set("end_date", endDate)
		values.Set("hourly", archiveHourlyVars)
		values.Set("timezone", weatherTimezone)

		u := fmt.Sprintf("%s/archive?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly map[string]any `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return payload.Hourly, nil
}
