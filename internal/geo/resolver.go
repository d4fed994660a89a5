package geo

import (
	"errors"

	"github.com/kelvins/geocoder"
	"github.com/sirupsen/logrus"

	"github.com/agrimind/agri-advisor/internal/facts"
)

var errNoDistrict = errors.New("no district in geocoder response")

// Resolver reverse-geocodes coordinates to an administrative district so the
// mandi lookup has a sensible default when the farmer did not name one.
// Lookups are best effort; callers fall back to an empty district.
type Resolver struct {
	log *logrus.Entry
}

// NewResolver configures the geocoding backend with the given credential.
// The geocoder package keys requests off a package-level credential, so the
// key is installed once here at construction.
func NewResolver(apiKey string, log *logrus.Entry) *Resolver {
	geocoder.ApiKey = apiKey
	if log == nil {
		log = logrus.WithField("component", "geo")
	}
	return &Resolver{log: log}
}

// District implements facts.DistrictResolver.
func (r *Resolver) District(loc facts.Coordinates) (string, error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{
		Latitude:  loc.Lat,
		Longitude: loc.Lon,
	})
	if err != nil {
		return "", err
	}

	for _, addr := range addresses {
		if addr.District != "" {
			return addr.District, nil
		}
		if addr.City != "" {
			return addr.City, nil
		}
	}
	return "", errNoDistrict
}
