package facts

import (
	"context"
)

// ForecastProvider abstracts the weather source used for both the forecast
// and the historical archive series.
type ForecastProvider interface {
	FetchForecast(ctx context.Context, loc Coordinates, days int) (ForecastData, error)
	FetchHistorical(ctx context.Context, loc Coordinates, startDate, endDate string) (map[string]any, error)
}

// AlertsProvider abstracts the regional disaster-alert source.
type AlertsProvider interface {
	FetchAlerts(ctx context.Context, loc Coordinates, radiusKm int) ([]Alert, error)
}

// SoilProvider looks up soil health card records by identifier.
type SoilProvider interface {
	FetchSoilHealthCard(ctx context.Context, cardID string) (SoilHealthCard, error)
}

// MarketProvider looks up the latest price and price history for a
// commodity/district pair.
type MarketProvider interface {
	FetchMarketPrices(ctx context.Context, commodity, district string) (Market, error)
}

// DistrictResolver maps coordinates to an administrative district, best
// effort. Used to default the mandi district when the farmer omitted one.
type DistrictResolver interface {
	District(loc Coordinates) (string, error)
}

// Store is the contract the in-memory snapshot store (and any future
// persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Coordinates, snap BundleSnapshot)
	GetLatest(loc Coordinates) (BundleSnapshot, error)
	GetHistory(loc Coordinates) ([]BundleSnapshot, error)
}
