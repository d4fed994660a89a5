package facts

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceConfig carries the tunables of the assembly fan-out.
type ServiceConfig struct {
	ForecastDays   int
	WeatherTimeout time.Duration // primary weather provider budget
	AuxTimeout     time.Duration // per-call budget for the auxiliary providers
}

// Service assembles fact bundles by fanning out to the configured providers.
// Provider failures are absorbed into placeholders; Assemble itself has no
// failure mode.
type Service struct {
	weather  ForecastProvider
	alerts   AlertsProvider
	soil     SoilProvider
	market   MarketProvider
	resolver DistrictResolver // optional

	days           int
	weatherTimeout time.Duration
	auxTimeout     time.Duration

	log *logrus.Entry
}

// NewService creates a new Service. resolver may be nil when no geocoding
// credential is configured.
func NewService(weather ForecastProvider, alerts AlertsProvider, soil SoilProvider, market MarketProvider, resolver DistrictResolver, cfg ServiceConfig, log *logrus.Entry) *Service {
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	if cfg.WeatherTimeout <= 0 {
		cfg.WeatherTimeout = 10 * time.Second
	}
	if cfg.AuxTimeout <= 0 {
		cfg.AuxTimeout = 8 * time.Second
	}
	if log == nil {
		log = logrus.WithField("component", "facts")
	}
	return &Service{
		weather:        weather,
		alerts:         alerts,
		soil:           soil,
		market:         market,
		resolver:       resolver,
		days:           cfg.ForecastDays,
		weatherTimeout: cfg.WeatherTimeout,
		auxTimeout:     cfg.AuxTimeout,
		log:            log,
	}
}

// Assemble fetches from all providers concurrently and merges the results
// into a fully-shaped bundle. Each fetch runs under its own deadline, so
// total latency is bounded by the slowest single provider, and one hanging
// upstream cannot stall the rest. Every field keeps its placeholder when the
// matching provider fails.
func (s *Service) Assemble(ctx context.Context, loc Coordinates, inputs FarmerInputs) FactBundle {
	bundle := FactBundle{
		Location: loc,
		Weather: WeatherSection{
			Forecast: map[string]any{},
			Hourly:   map[string]any{},
		},
		Historical: map[string]any{},
		Alerts:     []Alert{},
		Market: Market{
			Commodity: inputs.CommodityOrDefault(),
			District:  inputs.District,
			Prices:    []MarketPrice{},
		},
		Fertilizer:   StaticFertilizerInfo(),
		FarmerInputs: inputs,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	run := func(name string, timeout time.Duration, fetch func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := fetch(cctx); err != nil {
				// Log and continue; the bundle keeps its placeholder.
				s.log.WithField("provider", name).Warnf("fetch failed for %s: %v", loc.Key(), err)
			}
		}()
	}

	run("forecast", s.weatherTimeout, func(cctx context.Context) error {
		data, err := s.weather.FetchForecast(cctx, loc, s.days)
		if err != nil {
			return err
		}
		mu.Lock()
		bundle.Weather = WeatherSection{
			Forecast: orEmpty(data.Daily),
			Hourly:   orEmpty(data.Hourly),
		}
		mu.Unlock()
		return nil
	})

	run("historical", s.auxTimeout, func(cctx context.Context) error {
		start, end := inputs.HistWindow()
		hourly, err := s.weather.FetchHistorical(cctx, loc, start, end)
		if err != nil {
			return err
		}
		mu.Lock()
		bundle.Historical = orEmpty(hourly)
		mu.Unlock()
		return nil
	})

	run("alerts", s.auxTimeout, func(cctx context.Context) error {
		alerts, err := s.alerts.FetchAlerts(cctx, loc, DefaultAlertRadiusKm)
		if err != nil {
			return err
		}
		if alerts == nil {
			alerts = []Alert{}
		}
		mu.Lock()
		bundle.Alerts = alerts
		mu.Unlock()
		return nil
	})

	// No identifier means no lookup: the card stays null and no network
	// call is made.
	if inputs.SoilHealthCardID != "" {
		run("soilhealth", s.auxTimeout, func(cctx context.Context) error {
			card, err := s.soil.FetchSoilHealthCard(cctx, inputs.SoilHealthCardID)
			if err != nil {
				return err
			}
			mu.Lock()
			bundle.SoilHealthCard = card
			mu.Unlock()
			return nil
		})
	}

	run("mandi", s.auxTimeout, func(cctx context.Context) error {
		district := inputs.District
		if district == "" && s.resolver != nil {
			d, err := s.resolveDistrict(cctx, loc)
			if err != nil {
				s.log.WithField("provider", "geocoder").Warnf("district lookup failed for %s: %v", loc.Key(), err)
			} else {
				district = d
			}
		}

		market, err := s.market.FetchMarketPrices(cctx, inputs.CommodityOrDefault(), district)
		if err != nil {
			return err
		}
		if market.Prices == nil {
			market.Prices = []MarketPrice{}
		}
		mu.Lock()
		bundle.Market = market
		mu.Unlock()
		return nil
	})

	wg.Wait()

	return bundle
}

// resolveDistrict races the geocoder lookup against the caller's deadline.
// The resolver interface takes no context, so on expiry the in-flight call is
// abandoned and the district stays empty; the goroutine drains into a
// buffered channel and exits on its own.
func (s *Service) resolveDistrict(ctx context.Context, loc Coordinates) (string, error) {
	type result struct {
		district string
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := s.resolver.District(loc)
		ch <- result{district: d, err: err}
	}()

	select {
	case res := <-ch:
		return res.district, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
