package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundFixed(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		places int
		want   string
	}{
		{"half rounds away from zero", 2.675, 2, "2.68"},
		{"negative half rounds away from zero", -0.125, 2, "-0.13"},
		{"below half", 51.123454, 5, "51.12345"},
		{"exact half at five places", 51.123455, 5, "51.12346"},
		{"pads fraction digits", 51.5, 5, "51.50000"},
		{"one place", -0.12, 1, "-0.1"},
		{"negative zero collapses", -0.001, 2, "0.00"},
		{"no exponent for tiny values", 1e-9, 3, "0.000"},
		{"zero places", 179.5, 0, "180"},
		{"places clamped high", 1.123456789, 12, "1.1234568"},
		{"places clamped low", 1.6, -3, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoundFixed(tt.v, tt.places))
		})
	}
}

func TestDeriveKey(t *testing.T) {
	c := New(51.5, -0.12)
	assert.Equal(t, "place_51.50000_-0.12000", DeriveKey("place", c, 5))
	assert.Equal(t, "weather_51.5_-0.1", DeriveKey("weather", c, 1))
	assert.Equal(t, "pzones_51.500000_-0.120000_5_20", DeriveKey("pzones", c, 6, WithRadius(5), WithLimit(20)))
	assert.Equal(t, "pc_51.500000_-0.120000_15_1", DeriveKey("pc", c, 6, WithLimit(1), WithRadius(15)), "radius always precedes limit")
	assert.Equal(t, "pc_51.500000_-0.120000_2.5", DeriveKey("pc", c, 6, WithRadius(2.5)))
	assert.Equal(t, "pc_51.500000_-0.120000_10", DeriveKey("pc", c, 6, WithLimit(10)))
}

func TestDeriveKeyCollidesWithinTolerance(t *testing.T) {
	pairs := []struct {
		a, b   Coordinate
		places int
	}{
		{New(51.5012, -0.1204), New(51.4996, -0.1151), 2},
		{New(51.54, -0.12), New(51.46, -0.149), 1},
		{New(40.712801, -74.006049), New(40.712799, -74.005951), 4},
	}
	for _, p := range pairs {
		assert.Equal(t, DeriveKey("d", p.a, p.places), DeriveKey("d", p.b, p.places))
	}
	assert.NotEqual(t, DeriveKey("d", New(51.5, -0.12), 3), DeriveKey("d", New(51.501, -0.12), 3))
}

func TestDeriveKeyIgnoresAltitude(t *testing.T) {
	a := NewWithAltitude(10, 20, 350)
	b := New(10, 20)
	assert.Equal(t, DeriveKey("place", a, 5), DeriveKey("place", b, 5))
}

func TestApproxKey(t *testing.T) {
	assert.Equal(t, "-33.87_151.21", ApproxKey(New(-33.8688, 151.2093), 2))
}
