package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultConnectTimeout   = 5 * time.Second
	defaultOperationTimeout = 10 * time.Second
)

// SetupMongo connects to the document database described by cfg and verifies
// connectivity with a ping. It does not create collections; unique indexes
// are ensured by the resource handlers at startup.
// The caller owns the returned client and must call CloseMongo on shutdown.
func SetupMongo(cfg *MongoConfig, log *slog.Logger) (*mongo.Database, *mongo.Client, error) {
	if cfg == nil {
		return nil, nil, errors.New("mongo config is nil")
	}
	if log == nil {
		log = slog.Default()
	}

	connectTimeout := defaultConnectTimeout
	if cfg.ConnectTimeout != "" {
		if d, err := time.ParseDuration(cfg.ConnectTimeout); err == nil && d > 0 {
			connectTimeout = d
		}
	}
	operationTimeout := defaultOperationTimeout
	if cfg.OperationTimeout != "" {
		if d, err := time.ParseDuration(cfg.OperationTimeout); err == nil && d > 0 {
			operationTimeout = d
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(operationTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	log.Info("mongodb connection established", slog.String("database", cfg.Database))
	return client.Database(cfg.Database), client, nil
}

// CloseMongo disconnects the client with a bounded deadline.
func CloseMongo(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("close mongodb connection: %w", err)
	}
	return nil
}
