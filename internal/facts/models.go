package facts

import (
	"encoding/json"
	"fmt"
	"time"
)

// Defaults applied when the farmer did not supply the matching input.
const (
	DefaultCommodity = "wheat"
	DefaultHistStart = "2024-01-01"
	DefaultHistEnd   = "2024-12-31"

	DefaultForecastDays  = 7
	DefaultAlertRadiusKm = 50
)

// Coordinates identifies the farm location all providers are queried for.
// Both values are required; no range validation is applied beyond presence.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in stores.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f:%.4f", c.Lat, c.Lon)
}

// FarmerInputs is a typed view over the open-ended farmer_inputs object.
// Known keys are bound to fields; the raw map is kept so unknown keys are
// echoed back into the bundle verbatim.
type FarmerInputs struct {
	HistStart        string
	HistEnd          string
	Commodity        string
	District         string
	SoilHealthCardID string

	raw map[string]any
}

// FarmerInputsFromMap builds a FarmerInputs view over an already-decoded
// farmer_inputs object.
func FarmerInputsFromMap(m map[string]any) FarmerInputs {
	return FarmerInputs{
		HistStart:        stringValue(m, "hist_start"),
		HistEnd:          stringValue(m, "hist_end"),
		Commodity:        stringValue(m, "commodity"),
		District:         stringValue(m, "district"),
		SoilHealthCardID: stringValue(m, "soil_health_card_id"),
		raw:              m,
	}
}

func (f *FarmerInputs) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = FarmerInputs{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*f = FarmerInputsFromMap(m)
	return nil
}

// MarshalJSON echoes the original object verbatim so the model sees exactly
// what the farmer sent, including keys this service never reads.
func (f FarmerInputs) MarshalJSON() ([]byte, error) {
	if f.raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f.raw)
}

// CommodityOrDefault returns the requested commodity, or the default crop
// when none was given.
func (f FarmerInputs) CommodityOrDefault() string {
	if f.Commodity != "" {
		return f.Commodity
	}
	return DefaultCommodity
}

// HistWindow returns the historical weather date range, falling back to the
// fixed one-year default window.
func (f FarmerInputs) HistWindow() (start, end string) {
	start, end = f.HistStart, f.HistEnd
	if start == "" {
		start = DefaultHistStart
	}
	if end == "" {
		end = DefaultHistEnd
	}
	return start, end
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ForecastData holds the forecast provider's daily and hourly series exactly
// as returned upstream; values pass through to the bundle untouched.
type ForecastData struct {
	Daily  map[string]any `json:"daily"`
	Hourly map[string]any `json:"hourly"`
}

// WeatherSection is the bundle's forecast view: daily series under
// "forecast", hourly series under "hourly".
type WeatherSection struct {
	Forecast map[string]any `json:"forecast"`
	Hourly   map[string]any `json:"hourly"`
}

// Alert is a single disaster-alert record, passed through as received.
type Alert map[string]any

// SoilHealthCard is a soil record looked up by a farmer-provided identifier.
// A nil card marshals to JSON null; absence is a valid, expected state.
type SoilHealthCard map[string]any

// MarketPrice is one entry in a commodity's price history.
type MarketPrice struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	Mandi string  `json:"mandi,omitempty"`
}

// Market is the mandi snapshot for a commodity/district pair. LatestPrice
// stays null and Prices empty when the price source is unavailable.
type Market struct {
	Commodity   string        `json:"commodity"`
	District    string        `json:"district"`
	LatestPrice *float64      `json:"latest_price"`
	Prices      []MarketPrice `json:"prices"`
}

// FertilizerInfo is a static informational note, not user-specific.
type FertilizerInfo struct {
	DBT    string `json:"dbt"`
	Source string `json:"source"`
}

// StaticFertilizerInfo returns the fixed fertilizer/subsidy note included in
// every bundle.
func StaticFertilizerInfo() FertilizerInfo {
	return FertilizerInfo{
		DBT:    "Check Department of Fertilizers DBT pages for current subsidy and eligibility rules.",
		Source: "https://fert.nic.in",
	}
}

// FactBundle is the merged document handed to the model as context. Every
// field is always present: a failing provider degrades its value to the
// documented placeholder, never removes the key.
type FactBundle struct {
	Location       Coordinates    `json:"location"`
	Weather        WeatherSection `json:"weather"`
	Historical     map[string]any `json:"historical_weather"`
	Alerts         []Alert        `json:"alerts"`
	SoilHealthCard SoilHealthCard `json:"soil_health_card"`
	Market         Market         `json:"market"`
	Fertilizer     FertilizerInfo `json:"fertilizer"`
	FarmerInputs   FarmerInputs   `json:"farmer_inputs"`
}

// BundleSnapshot is one assembled bundle kept in the tracked-location
// history store.
type BundleSnapshot struct {
	Location  Coordinates `json:"location"`
	Timestamp time.Time   `json:"timestamp"` // always UTC
	Bundle    FactBundle  `json:"bundle"`
}
