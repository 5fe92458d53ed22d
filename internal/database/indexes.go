package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"mynature/internal/logger"
)

func EnsureProductIndexes(db *mongo.Database) error {
	return createIndexes(db, "products", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("active_newest"),
		},
		{
			Keys:    bson.D{{Key: "category_id", Value: 1}},
			Options: options.Index().SetName("category_id_index"),
		},
	})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	if err := createIndexes(db, "orders", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_index"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
	}); err != nil {
		return err
	}

	return createIndexes(db, "order_items", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetName("order_id_index"),
		},
	})
}

func EnsureAdminIndexes(db *mongo.Database) error {
	if err := createIndexes(db, "admin_users", []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
	}); err != nil {
		return err
	}

	// Expired session documents are reaped by the TTL monitor.
	return createIndexes(db, "admin_sessions", []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("expires_at_ttl").
				SetExpireAfterSeconds(0),
		},
	})
}

func createIndexes(db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		logger.Log.Error("index creation failed", zap.String("collection", collection), zap.Error(err))
		return err
	}
	logger.Log.Info("indexes ensured", zap.String("collection", collection), zap.Strings("indexes", names))
	return nil
}
