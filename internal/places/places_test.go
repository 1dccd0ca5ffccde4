package places

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPlace = `{
  "status": "OK",
  "result": {
    "formatted_address": "3347 Michelson Dr, Irvine, CA 92612, USA",
    "address_components": [
      {"long_name": "Michelson Drive", "short_name": "Michelson Dr", "types": ["route"]},
      {"long_name": "3347", "short_name": "3347", "types": ["street_number"]},
      {"long_name": "Irvine", "short_name": "Irvine", "types": ["locality", "political"]},
      {"long_name": "Orange County", "short_name": "Orange County", "types": ["administrative_area_level_2", "political"]},
      {"long_name": "California", "short_name": "CA", "types": ["administrative_area_level_1", "political"]},
      {"long_name": "United States", "short_name": "US", "types": ["country", "political"]},
      {"long_name": "92612", "short_name": "92612", "types": ["postal_code"]}
    ]
  }
}`

const cityOnly = `{
  "status": "OK",
  "result": {
    "formatted_address": "Berlin, Germany",
    "address_components": [
      {"long_name": "Berlin", "short_name": "Berlin", "types": ["locality", "political"]},
      {"long_name": "Germany", "short_name": "DE", "types": ["country", "political"]}
    ]
  }
}`

func newServer(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("place_id") {
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		case "unknown":
			_, _ = w.Write([]byte(`{"status": "NOT_FOUND"}`))
		default:
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.SetBaseURL(srv.URL)
	return c
}

func TestResolveCompleteAddress(t *testing.T) {
	c := newServer(t, fullPlace)
	check, err := c.Resolve(context.Background(), "abc")
	require.NoError(t, err)

	assert.True(t, check.IsValid)
	assert.Empty(t, check.MissingComponents)
	assert.Equal(t, "3347 Michelson Drive", check.ValidatedAddress.Address1)
	assert.Equal(t, "Irvine", check.ValidatedAddress.City)
	assert.Equal(t, "California", check.ValidatedAddress.State)
	assert.Equal(t, "92612", check.ValidatedAddress.ZipCode)
	assert.Equal(t, "US", check.ValidatedAddress.Country)
	assert.Equal(t, "3347 Michelson Dr, Irvine, CA 92612, USA", check.ValidatedAddress.FormattedAddress)
}

func TestResolveReportsMissing(t *testing.T) {
	c := newServer(t, cityOnly)
	check, err := c.Resolve(context.Background(), "abc")
	require.NoError(t, err)

	assert.False(t, check.IsValid)
	assert.Equal(t, []string{"street address", "state/province", "postal code"}, check.MissingComponents)
}

func TestResolveErrors(t *testing.T) {
	c := newServer(t, fullPlace)

	_, err := c.Resolve(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrInvalidPlace)

	_, err = c.Resolve(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPlace)

	noKey := NewClient("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err = noKey.Resolve(context.Background(), "abc")
	assert.Error(t, err)
}
