package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func EnsureUserIndexes(db *mongo.Database, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	identifierIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "emailOrPhone", Value: 1}},
		Options: options.Index().
			SetName("emailOrPhone_unique").
			SetUnique(true),
	}

	log.Info("creating index", zap.String("collection", "users"), zap.String("index", "emailOrPhone_unique"))
	if _, err := indexes.CreateOne(ctx, identifierIndex); err != nil {
		log.Error("index creation failed", zap.String("index", "emailOrPhone_unique"), zap.Error(err))
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	ownerIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "createdBy", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("createdBy_createdAt"),
	}

	log.Info("creating index", zap.String("collection", "products"), zap.String("index", "createdBy_createdAt"))
	if _, err := indexes.CreateOne(ctx, ownerIndex); err != nil {
		log.Error("index creation failed", zap.String("index", "createdBy_createdAt"), zap.Error(err))
		return err
	}
	return nil
}
