package utils

import (
	"context"
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-api/internal/config"
)

func TestBuildPostgresDSN(t *testing.T) {
	c := config.PostgresConfig{Host: "db", Port: "5432", User: "geo", Password: "p@ss", DB: "geoapi", SSLMode: "disable"}
	assert.Equal(t, "postgres://geo:p%40ss@db:5432/geoapi?sslmode=disable", BuildPostgresDSN(c))

	c.Password = ""
	assert.Equal(t, "postgres://geo@db:5432/geoapi?sslmode=disable", BuildPostgresDSN(c))
}

func TestDisabledBackends(t *testing.T) {
	assert.Nil(t, OpenRedis(config.RedisConfig{}))

	db, err := OpenPostgres(context.Background(), config.PostgresConfig{})
	assert.NoError(t, err)
	assert.Nil(t, db)

	mc, err := OpenMongo(context.Background(), config.MongoConfig{})
	assert.NoError(t, err)
	assert.Nil(t, mc)
}

func TestOpenRedis(t *testing.T) {
	rc := OpenRedis(config.RedisConfig{Host: "127.0.0.1", Port: "6390", DB: 2})
	require.NotNil(t, rc)
	defer rc.Close()
	assert.Equal(t, "127.0.0.1:6390", rc.Options().Addr)
	assert.Equal(t, 2, rc.Options().DB)
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "keys", "server.key")

	require.NoError(t, EnsureSelfSignedCert(cert, key, "geo.local"))
	pair, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Certificate)

	// 已存在时不重新生成
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
	again, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	assert.Equal(t, pair.Certificate[0], again.Certificate[0])
}
