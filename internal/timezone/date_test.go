package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-31":          time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		"2024-03-31T12:30:00": time.Date(2024, 3, 31, 12, 30, 0, 0, time.UTC),
		"2024-03-31 12:30":    time.Date(2024, 3, 31, 12, 30, 0, 0, time.UTC),
		" 2024-07-01 ":        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}

	for _, bad := range []string{"", "x", "not a date", "2024-13-45"} {
		_, ok := ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "c", DateKey(""))
	assert.Equal(t, "c", DateKey("garbage"))
	assert.Equal(t, "2024-03-31", DateKey(" 2024-03-31 "))
}

func TestIsValidZoneName(t *testing.T) {
	for _, zn := range []string{"Europe/London", "America/Argentina/Buenos_Aires", "Etc/GMT+5", "UTC"} {
		assert.True(t, IsValidZoneName(zn), zn)
	}
	for _, zn := range []string{"", "London", "/Europe", "Europe/", "Europe/Lon don", "Europe/London;drop"} {
		assert.False(t, IsValidZoneName(zn), zn)
	}
}

func TestFinderZoneName(t *testing.T) {
	var nilFinder *Finder
	assert.Equal(t, "", nilFinder.ZoneName(51.5, -0.12))

	if testing.Short() {
		t.Skip("loads timezone polygons")
	}
	f, err := DefaultFinder()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", f.ZoneName(51.5, -0.12))
	assert.Equal(t, "Asia/Tokyo", f.ZoneName(35.68, 139.69))
}
