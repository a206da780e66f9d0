package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the lookup indexes for token scoping, owner dashboards and login.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(OrdersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "accessToken", Value: 1}}},
		{Keys: bson.D{{Key: "ownerID", Value: 1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating %s indexes: %w", OrdersCollection, err)
	}

	_, err = db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating %s indexes: %w", UsersCollection, err)
	}
	return nil
}
