package geonames

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-api/internal/geo"
	"geo-api/internal/providers/httpx"
	"geo-api/internal/resolver"
)

func server(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo", r.URL.Query().Get("username"))
		assert.Equal(t, "51.5", r.URL.Query().Get("lat"))
		assert.Equal(t, "-0.12", r.URL.Query().Get("lng"))
		b, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(b))
	}))
}

var london = geo.New(51.5, -0.12)

func TestWeather(t *testing.T) {
	srv := server(t, map[string]string{
		"/findNearByWeatherJSON": `{"weatherObservation":{"lat":51.47,"lng":-0.45,"datetime":"2024-03-30 12:20:00",
			"temperature":"11","humidity":76,"windSpeed":"09","dewPoint":"7","stationName":"London / Heathrow Airport","clouds":"few clouds"}}`,
	})
	defer srv.Close()
	c := New(srv.URL, "demo", httpx.Options{Timeout: time.Second})

	w, err := c.Weather(context.Background(), london)
	require.NoError(t, err)
	assert.Equal(t, 11.0, w.Temperature)
	assert.Equal(t, 9.0, w.WindSpeed)
	assert.Equal(t, "London / Heathrow Airport", w.StationName)
}

func TestWeatherMissingObservation(t *testing.T) {
	srv := server(t, map[string]string{"/findNearByWeatherJSON": `{}`})
	defer srv.Close()
	c := New(srv.URL, "demo", httpx.Options{Timeout: time.Second})

	_, err := c.Weather(context.Background(), london)
	assert.ErrorIs(t, err, resolver.ErrEmpty)
}

func TestStatusPayloadIsUnavailable(t *testing.T) {
	srv := server(t, map[string]string{
		"/findNearByWeatherJSON": `{"status":{"message":"the daily limit of 20000 credits for demo has been exceeded","value":18}}`,
	})
	defer srv.Close()
	c := New(srv.URL, "demo", httpx.Options{Timeout: time.Second})

	_, err := c.Weather(context.Background(), london)
	assert.ErrorIs(t, err, resolver.ErrUnavailable)
	assert.Contains(t, err.Error(), "daily limit")
}

func TestPlacesOfInterestDedupe(t *testing.T) {
	srv := server(t, map[string]string{
		"/findNearbyPOIsOSMJSON": `{"poi":[
			{"name":"Nelson's Column","typeClass":"historic","typeName":"monument","distance":"0.05","lat":"51.5077","lng":"-0.1279"},
			{"name":" Nelson's Column ","typeClass":"tourism","typeName":"attraction","distance":"0.06"},
			{"name":"","typeClass":"amenity","typeName":"bench","distance":"0.1"},
			{"typeClass":"amenity","typeName":"bench","distance":"0.2"},
			"junk"
		]}`,
	})
	defer srv.Close()
	c := New(srv.URL, "demo", httpx.Options{Timeout: time.Second})

	rows, err := c.PlacesOfInterest(context.Background(), london)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Nelson's Column", rows[0].Name)
	assert.Equal(t, "historic", rows[0].TypeClass)
	assert.Equal(t, 51.5077, rows[0].Lat)
	assert.Equal(t, "bench", rows[1].Name)
}

func TestWikiSummaries(t *testing.T) {
	srv := server(t, map[string]string{
		"/findNearbyWikipediaJSON": `{"geonames":[
			{"title":"Trafalgar Square","summary":"Public square","lang":"en","rank":100,"distance":"0.1","wikipediaUrl":"en.wikipedia.org/wiki/Trafalgar_Square"},
			{"title":"Charing Cross","lang":"en"}
		]}`,
	})
	defer srv.Close()
	c := New(srv.URL, "demo", httpx.Options{Timeout: time.Second})

	rows, err := c.WikiSummaries(context.Background(), london)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(100), rows[0].Rank)
	assert.Equal(t, int64(-1), rows[1].Rank)
	assert.Equal(t, 0.1, rows[0].Distance)
}

func TestWikiEmpty(t *testing.T) {
	srv := server(t, map[string]string{"/findNearbyWikipediaJSON": `{"geonames":[]}`})
	defer srv.Close()
	c := New(srv.URL, "demo", httpx.Options{Timeout: time.Second})

	rows, err := c.WikiSummaries(context.Background(), london)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
