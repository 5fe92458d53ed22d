package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"mynature/internal/logger"
)

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Log.Info("mongodb connected", zap.String("uri_host", hostOf(uri)))
	return client, nil
}

func hostOf(uri string) string {
	opts := options.Client().ApplyURI(uri)
	if len(opts.Hosts) == 0 {
		return ""
	}
	return opts.Hosts[0]
}
