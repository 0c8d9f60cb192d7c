package astro

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

const ascendantBody = `{
  "date": {"unix": 1711800000}, "start": {"unix": 1711756800}, "end": {"unix": 1711843200},
  "interval": {"days": 0.041666666666666664},
  "currentIndex": 1,
  "values": {"as": [10.5, 25.25, 40.0], "su": [9.1, 9.2, 9.3], "mo": [200.1, 200.6, 201.2]},
  "sunRiseSets": [{"key": "rise", "value": 2460399.7340}, {"key": "max", "value": 40.2}, {"key": "other", "value": 1}],
  "moon": {"phase": 3, "waxing": false, "sunAngle": 231.4,
           "phases": [{"num": 4, "jd": 2460404.5}, {"num": 7, "jd": 2460410.5}, {"num": 0, "jd": 1}]}
}`

func TestJulianRoundTrip(t *testing.T) {
	assert.Equal(t, 2440587.5, JulianDay(0))
	assert.Equal(t, 2451545.0, JulianDay(946728000)) // J2000.0
	for _, ts := range []int64{0, 946728000, 1711800000, -86400} {
		assert.Equal(t, ts, UnixFromJulian(JulianDay(ts)))
	}
}

func TestParse(t *testing.T) {
	r, err := httpx.Object("astro", []byte(ascendantBody))
	require.NoError(t, err)
	a := Parse(r)

	assert.Equal(t, int64(1711800000), a.Time)
	assert.Equal(t, int64(1711756800), a.Start)
	assert.Equal(t, uint32(3600), a.IntervalSecs)
	require.NotNil(t, a.Ascendant)
	assert.Equal(t, 25.25, a.Ascendant.Lng)
	require.NotNil(t, a.Sun)
	assert.Equal(t, 9.2, a.Sun.Lng)
	require.NotNil(t, a.Sun.Rise)
	assert.Equal(t, UnixFromJulian(2460399.7340), *a.Sun.Rise)
	assert.Nil(t, a.Sun.Set)
	assert.Equal(t, 40.2, a.Sun.Max)
	require.NotNil(t, a.Moon)
	assert.Equal(t, uint8(3), a.Moon.Phase)
	require.Len(t, a.Moon.Phases, 1)
	assert.Equal(t, uint8(4), a.Moon.Phases[0].Num)
	assert.Equal(t, UnixFromJulian(2460404.5), a.Moon.Phases[0].Ts)
	assert.Nil(t, a.AgeSecs)
}

func TestParseSampleArrays(t *testing.T) {
	r, err := httpx.Object("astro", []byte(`{"date":{"unix":1},"currentIndex":0,
		"values":[{"as":1.5,"su":2.5,"mo":3.5},{"as":4.5,"su":5.5,"mo":6.5}],
		"moon":{"nextPhases":[{"num":1,"jd":2440588.5}]}}`))
	require.NoError(t, err)
	a := Parse(r)
	assert.Equal(t, []float64{1.5, 4.5}, a.Ascendant.Positions)
	assert.Equal(t, 3.5, a.Moon.Lng)
	require.Len(t, a.Moon.Phases, 1)
	assert.Equal(t, int64(86400), a.Moon.Phases[0].Ts)
}

func TestAstroSendsJulianDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ascendant", r.URL.Path)
		assert.Equal(t, "su,mo", r.URL.Query().Get("bodies"))
		assert.Equal(t, "2451545", r.URL.Query().Get("jd"))
		_, _ = w.Write([]byte(ascendantBody))
	}))
	defer srv.Close()
	c := New(srv.URL, httpx.Options{Timeout: time.Second})

	ts := int64(946728000)
	a, err := c.Astro(context.Background(), geo.New(51.5, -0.12), &ts)
	require.NoError(t, err)
	assert.Equal(t, int64(1711800000), a.Time)
}

func TestAstroMissingValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"date":{"unix":1}}`))
	}))
	defer srv.Close()
	c := New(srv.URL, httpx.Options{Timeout: time.Second})

	_, err := c.Astro(context.Background(), geo.New(51.5, -0.12), nil)
	assert.ErrorIs(t, err, resolver.ErrMalformed)
}
