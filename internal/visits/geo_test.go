package visits_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linkpulse/linkpulse/internal/visits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPLocator(t *testing.T) {
	ctx := context.Background()

	t.Run("maps a successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret", r.URL.Query().Get("key"))
			assert.Equal(t, "203.0.113.9", r.URL.Query().Get("ip"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"country_name": "Netherlands",
				"region_name": "North Holland",
				"city_name": "Amsterdam",
				"latitude": 52.37,
				"longitude": 4.89,
				"time_zone": "+02:00"
			}`))
		}))
		defer server.Close()

		locator := visits.NewHTTPLocator(server.URL, "secret")

		location, err := locator.Lookup(ctx, "203.0.113.9")

		require.NoError(t, err)
		require.NotNil(t, location)
		assert.Equal(t, "Netherlands", location.Country)
		assert.Equal(t, "North Holland", location.Region)
		assert.Equal(t, "Amsterdam", location.City)
		assert.InDelta(t, 52.37, location.Latitude, 0.001)
		assert.InDelta(t, 4.89, location.Longitude, 0.001)
		assert.Equal(t, "+02:00", location.Timezone)
	})

	t.Run("empty country means no location", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"country_name": ""}`))
		}))
		defer server.Close()

		locator := visits.NewHTTPLocator(server.URL, "secret")

		location, err := locator.Lookup(ctx, "10.0.0.1")

		require.NoError(t, err)
		assert.Nil(t, location)
	})

	t.Run("non-200 response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		locator := visits.NewHTTPLocator(server.URL, "bad-key")

		_, err := locator.Lookup(ctx, "203.0.113.9")

		assert.ErrorContains(t, err, "status 403")
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		locator := visits.NewHTTPLocator(server.URL, "secret")

		_, err := locator.Lookup(ctx, "203.0.113.9")

		assert.ErrorContains(t, err, "decoding geo response")
	})
}

func TestNoopLocator(t *testing.T) {
	location, err := visits.NoopLocator{}.Lookup(context.Background(), "203.0.113.9")

	assert.NoError(t, err)
	assert.Nil(t, location)
}
