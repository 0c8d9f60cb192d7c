package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-api/internal/cache"
	"geo-api/internal/geo"
	"geo-api/internal/model"
)

var london = geo.New(51.5, -0.12)

func TestWeatherMissThenHit(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store, mem := newTestStore(&now)
	w := &fakeWeather{out: model.WeatherReport{StationName: "London / Heathrow", Temperature: 11}}
	r := New(store, Providers{Weather: w}, Options{Now: func() time.Time { return now }})

	first, ok, cached := r.Weather.Resolve(ctx, london)
	require.True(t, ok)
	assert.False(t, cached)
	assert.Equal(t, 1, w.calls)

	_, err := mem.Get(ctx, "weather_51.5_-0.1")
	require.NoError(t, err, "stored under the 1dp key")

	now = now.Add(WeatherTTL - time.Second)
	second, ok, cached := r.Weather.Resolve(ctx, geo.New(51.53, -0.08))
	require.True(t, ok)
	assert.True(t, cached)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, w.calls)

	now = now.Add(time.Second)
	_, ok, cached = r.Weather.Resolve(ctx, london)
	require.True(t, ok)
	assert.False(t, cached, "expired after 30 minutes")
	assert.Equal(t, 2, w.calls)
}

func TestFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store, mem := newTestStore(&now)
	w := &fakeWeather{err: fmt.Errorf("geonames: %w", ErrUnavailable)}
	r := New(store, Providers{Weather: w}, Options{})

	_, ok, cached := r.Weather.Resolve(ctx, london)
	assert.False(t, ok)
	assert.False(t, cached)
	_, ok, _ = r.Weather.Resolve(ctx, london)
	assert.False(t, ok)
	assert.Equal(t, 2, w.calls)
	assert.Equal(t, 0, mem.Len())

	_, _, err := r.Weather.Lookup(ctx, london)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, "unavailable", Kind(err))
}

func TestMissingProviderIsUnavailable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store, _ := newTestStore(&now)
	r := New(store, Providers{}, Options{})

	_, _, err := r.Wiki.Lookup(context.Background(), london)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, ok, _ := r.Zones.Resolve(context.Background(), ZonesReq{Coord: london, Km: 5, Limit: 20})
	assert.False(t, ok)
}

func TestEmptyListNotCached(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store, mem := newTestStore(&now)
	lists := &fakeLists{}
	r := New(store, Providers{POI: lists, Wiki: lists}, Options{})

	items, ok, cached := r.POI.Resolve(ctx, london)
	assert.True(t, ok)
	assert.False(t, cached)
	assert.Empty(t, items)
	assert.Equal(t, 0, mem.Len())

	lists.wiki = []model.WikipediaSummary{{Title: "Charing Cross"}}
	_, _, _ = r.Wiki.Resolve(ctx, london)
	_, err := mem.Get(ctx, "wiki_51.500_-0.120")
	assert.NoError(t, err)
}

func TestCacheOutageFallsThrough(t *testing.T) {
	ctx := context.Background()
	w := &fakeWeather{out: model.WeatherReport{StationName: "x"}}
	r := New(cache.NewStore(downBackend{}, 0), Providers{Weather: w}, Options{})

	for i := 0; i < 2; i++ {
		v, ok, cached := r.Weather.Resolve(ctx, london)
		require.True(t, ok)
		assert.False(t, cached)
		assert.Equal(t, "x", v.StationName)
	}
	assert.Equal(t, 2, w.calls)
}

type downBackend struct{}

func (downBackend) Get(context.Context, string) (string, error) { return "", errors.New("down") }
func (downBackend) Set(context.Context, string, string, time.Duration) error {
	return errors.New("down")
}
func (downBackend) Del(context.Context, string) error { return errors.New("down") }

func TestSingleFlightCoalescesColdKey(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store, _ := newTestStore(&now)
	w := &fakeWeather{out: model.WeatherReport{StationName: "x"}, delay: 100 * time.Millisecond}
	r := New(store, Providers{Weather: w}, Options{SingleFlight: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, _ := r.Weather.Resolve(ctx, london)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, w.calls)
}

func TestZonesKeyUsesClampedLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store, mem := newTestStore(&now)
	z := &fakeZones{zones: []model.PcZone{{PC: "SW1A 2AA"}}}
	r := New(store, Providers{Zones: z}, Options{})

	q := ZonesReq{Coord: london, Km: 5, Limit: 5000}.Normalize(5)
	assert.Equal(t, MaxZoneLimit, q.Limit)
	_, ok, _ := r.Zones.Resolve(ctx, q)
	require.True(t, ok)
	assert.Equal(t, 1000, z.lastLimit)
	_, err := mem.Get(ctx, "pzones_51.500000_-0.120000_5_1000")
	assert.NoError(t, err)

	assert.Equal(t, 2, ZonesReq{Limit: -3}.Normalize(10).Limit)
	assert.Equal(t, 10.0, ZonesReq{}.Normalize(10).Km)
}

func TestAstroKeyAndAge(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store, _ := newTestStore(&now)
	a := &fakeAstro{out: model.AstroData{Time: now.Unix(), IntervalSecs: 3600}}
	r := New(store, Providers{Astro: a}, Options{Now: func() time.Time { return now }})

	ts := int64(1_700_000_100)
	assert.Equal(t, "astro_data_51.50_-0.12_944444", AstroKey(AstroReq{Coord: london, Unix: &ts}))
	assert.Equal(t, "astro_data_51.50_-0.12_c", AstroKey(AstroReq{Coord: london}))

	fresh, ok, cached := r.Astro.Resolve(ctx, AstroReq{Coord: london, Unix: &ts})
	require.True(t, ok)
	assert.False(t, cached)
	assert.Nil(t, fresh.AgeSecs)
	require.NotNil(t, a.last)
	assert.Equal(t, ts, *a.last)

	now = now.Add(90 * time.Second)
	ts2 := ts + 60 // same half-hour bucket
	hit, ok, cached := r.Astro.Resolve(ctx, AstroReq{Coord: london, Unix: &ts2})
	require.True(t, ok)
	assert.True(t, cached)
	require.NotNil(t, hit.AgeSecs)
	assert.Equal(t, int64(90), *hit.AgeSecs)
	assert.Equal(t, 1, a.calls)
}
