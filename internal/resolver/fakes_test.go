package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"geo-api/internal/cache"
	"geo-api/internal/geo"
	"geo-api/internal/model"
)

type fakeGeoTime struct {
	mu       sync.Mutex
	place    model.PlaceSnapshot
	tz       *model.TzSnapshot
	err      error
	geoCalls int
	tzCalls  int
	lastZone string
	lastDate string
}

func (f *fakeGeoTime) GeoTime(_ context.Context, _ geo.Coordinate, dt string) (model.PlaceSnapshot, *model.TzSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geoCalls++
	f.lastDate = dt
	if f.err != nil {
		return model.PlaceSnapshot{}, nil, f.err
	}
	var tz *model.TzSnapshot
	if f.tz != nil {
		c := f.tz.Clone()
		tz = &c
	}
	return f.place, tz, nil
}

func (f *fakeGeoTime) Timezone(_ context.Context, _ geo.Coordinate, zone, dt string) (model.TzSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tzCalls++
	f.lastZone = zone
	f.lastDate = dt
	if f.err != nil || f.tz == nil {
		return model.TzSnapshot{}, fmt.Errorf("fake tz: %w", ErrUnavailable)
	}
	return f.tz.Clone(), nil
}

type fakeZones struct {
	mu        sync.Mutex
	zones     []model.PcZone
	rows      []model.PcRow
	saved     map[string][]string
	zoneCalls int
	pcCalls   int
	lastLimit int
}

func (f *fakeZones) NearbyZones(_ context.Context, _ geo.Coordinate, _ float64, limit int) ([]model.PcZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.zoneCalls++
	f.lastLimit = limit
	out := make([]model.PcZone, len(f.zones))
	copy(out, f.zones)
	return out, nil
}

func (f *fakeZones) NearbyPostcodes(_ context.Context, _ geo.Coordinate, _ float64, limit int) ([]model.PcRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pcCalls++
	f.lastLimit = limit
	return append([]model.PcRow(nil), f.rows...), nil
}

func (f *fakeZones) ZoneByCode(_ context.Context, pc string) (model.PcZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, z := range f.zones {
		if z.PC == pc {
			return z, nil
		}
	}
	return model.PcZone{}, fmt.Errorf("zone %s: %w", pc, ErrEmpty)
}

func (f *fakeZones) SaveAddresses(_ context.Context, pc string, addresses []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string][]string{}
	}
	f.saved[pc] = addresses
	return nil
}

type fakeAddresses struct {
	mu    sync.Mutex
	out   map[string][]string
	err   error
	calls int
}

func (f *fakeAddresses) Addresses(_ context.Context, pc string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out[pc], nil
}

type fakeWeather struct {
	mu    sync.Mutex
	out   model.WeatherReport
	err   error
	calls int
	delay time.Duration
}

func (f *fakeWeather) Weather(ctx context.Context, _ geo.Coordinate) (model.WeatherReport, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out, f.err
}

type fakeLists struct {
	mu        sync.Mutex
	poi       []model.PlaceOfInterest
	wiki      []model.WikipediaSummary
	poiCalls  int
	wikiCalls int
}

func (f *fakeLists) PlacesOfInterest(context.Context, geo.Coordinate) ([]model.PlaceOfInterest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.poiCalls++
	return f.poi, nil
}

func (f *fakeLists) WikiSummaries(context.Context, geo.Coordinate) ([]model.WikipediaSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wikiCalls++
	return f.wiki, nil
}

type fakeAstro struct {
	out   model.AstroData
	calls int
	last  *int64
}

func (f *fakeAstro) Astro(_ context.Context, _ geo.Coordinate, ts *int64) (model.AstroData, error) {
	f.calls++
	f.last = ts
	return f.out, nil
}

func newTestStore(now *time.Time) (*cache.Store, *cache.MemoryBackend) {
	mem := cache.NewMemoryBackend().WithClock(func() time.Time { return *now })
	return cache.NewStore(mem, time.Second), mem
}
