package visits

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Locator resolves a client address to coarse geolocation. A nil
// Location with a nil error means the address could not be located;
// errors are never fatal for callers.
type Locator interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// NoopLocator always reports no location. Used when no geo API key is
// configured.
type NoopLocator struct{}

func (NoopLocator) Lookup(_ context.Context, _ string) (*Location, error) {
	return nil, nil
}

// HTTPLocator queries an ip2location.io-compatible JSON endpoint.
type HTTPLocator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPLocator creates a locator against the given API base URL.
func NewHTTPLocator(baseURL, apiKey string) *HTTPLocator {
	return &HTTPLocator{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type geoResponse struct {
	CountryName string  `json:"country_name"`
	RegionName  string  `json:"region_name"`
	CityName    string  `json:"city_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TimeZone    string  `json:"time_zone"`
}

func (l *HTTPLocator) Lookup(ctx context.Context, ip string) (*Location, error) {
	params := url.Values{}
	params.Set("key", l.apiKey)
	params.Set("ip", ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
	}

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return nil, fmt.Errorf("decoding geo response: %w", err)
	}

	if geo.CountryName == "" {
		return nil, nil
	}

	return &Location{
		Country:   geo.CountryName,
		Region:    geo.RegionName,
		City:      geo.CityName,
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
		Timezone:  geo.TimeZone,
	}, nil
}

// Compile-time checks.
var (
	_ Locator = (*HTTPLocator)(nil)
	_ Locator = NoopLocator{}
)
