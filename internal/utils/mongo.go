package utils

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geo-api/internal/config"
)

// OpenMongo：连接邮编区数据库；未配置 URI 时返回 nil
func OpenMongo(ctx context.Context, c config.MongoConfig) (*mongo.Client, error) {
	if !c.Enabled() {
		return nil, nil
	}
	opts := options.Client().
		ApplyURI(c.URI).
		SetCompressors([]string{"zstd", "snappy", "zlib"})
	if c.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.ConnectTimeout)
	}
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	if c.MinPoolSize > 0 {
		opts.SetMinPoolSize(c.MinPoolSize)
	}
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	return client, nil
}
