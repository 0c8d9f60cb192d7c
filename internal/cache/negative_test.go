package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckKey(t *testing.T) {
	cases := map[string]string{
		"SW1A 1AA":    "address_check_SW1A_1AA",
		" SW1A  1AA ": "address_check_SW1A_1AA",
		"EC1A\t1BB":   "address_check_EC1A_1BB",
		"M1":          "address_check_M1",
	}
	for in, want := range cases {
		assert.Equal(t, want, CheckKey(in), in)
	}
}

func TestNegativeRegistryRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	mem := NewMemoryBackend().WithClock(func() time.Time { return now })
	r := NewNegativeRegistry(NewStore(mem, 0), 0)
	assert.Equal(t, DefaultCheckTTL, r.TTL())

	assert.False(t, r.HasBeenChecked(ctx, "SW1A 1AA"))
	require.True(t, r.MarkChecked(ctx, "SW1A 1AA", 0))
	assert.True(t, r.HasBeenChecked(ctx, "SW1A 1AA"))
	assert.True(t, r.HasBeenChecked(ctx, "SW1A  1AA"), "identity is normalized")

	raw, err := mem.Get(ctx, "address_check_SW1A_1AA")
	require.NoError(t, err)
	assert.Equal(t, "1", raw)

	now = now.Add(DefaultCheckTTL)
	assert.False(t, r.HasBeenChecked(ctx, "SW1A 1AA"), "marker expires after ttl")
}

func TestNegativeRegistryBackendDown(t *testing.T) {
	ctx := context.Background()
	r := NewNegativeRegistry(NewStore(&brokenBackend{}, 0), time.Hour)
	assert.False(t, r.MarkChecked(ctx, "SW1A 1AA", 0))
	assert.False(t, r.HasBeenChecked(ctx, "SW1A 1AA"))

	var nilReg *NegativeRegistry
	assert.False(t, nilReg.HasBeenChecked(ctx, "x"))
}
