package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Options groups the connection settings for the document store.
type Options struct {
	URL             string
	ConnectTimeout  time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(ctx context.Context, opts Options) (*mongo.Client, error) {
	client, err := mongo.Connect(
		options.Client().
			ApplyURI(opts.URL).
			SetConnectTimeout(opts.ConnectTimeout).
			SetMaxPoolSize(opts.MaxPoolSize).
			SetMinPoolSize(opts.MinPoolSize).
			SetMaxConnIdleTime(opts.MaxConnIdleTime).
			SetRetryWrites(true).
			SetRetryReads(true),
	)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
