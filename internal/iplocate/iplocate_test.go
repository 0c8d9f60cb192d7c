package iplocate

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded-for first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.3"}, "10.0.0.2:1234", "198.51.100.3"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"forwarded header", map[string]string{"Forwarded": `for="192.0.2.60";proto=http`}, "10.0.0.2:1234", "192.0.2.60"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote addr ipv6", nil, "[2001:db8::1]:443", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/gtz", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestOpenCorruptDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a maxmind database"), 0o644))
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestNilLocator(t *testing.T) {
	var l *Locator
	_, err := l.Locate("8.8.8.8")
	assert.ErrorIs(t, err, ErrNoLocation)
	assert.NoError(t, l.Close())
}

func TestFromHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/gtz", nil)
	_, ok := FromHeaders(r)
	assert.False(t, ok)

	r.Header.Set("X-EO-Geo-Latitude", "51.5")
	r.Header.Set("X-EO-Geo-Longitude", "not-a-number")
	r.Header.Set("CF-IPLatitude", "48.85")
	r.Header.Set("CF-IPLongitude", "2.35")
	c, ok := FromHeaders(r)
	require.True(t, ok)
	assert.Equal(t, 48.85, c.Lat)
	assert.Equal(t, 2.35, c.Lng)

	r = httptest.NewRequest("GET", "/gtz", nil)
	r.Header.Set("X-EO-Geo-Latitude", "95")
	r.Header.Set("X-EO-Geo-Longitude", "0")
	_, ok = FromHeaders(r)
	assert.False(t, ok)
}
