package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexSpecs lists the indexes each collection needs. Creating an index that
// already exists with the same definition is a no-op in MongoDB.
func indexSpecs() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		VehiclesCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "license_plate", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ServiceRecordsCollection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "service_date", Value: -1}}},
		},
		PredictionsCollection: {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
			{Keys: bson.D{{Key: "predicted_date", Value: 1}}},
			{Keys: bson.D{{Key: "notification_status", Value: 1}}},
			{
				Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "maintenance_type", Value: 1}},
				Options: options.Index().
					SetName("uniq_active_prediction").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"is_active": true}),
			},
		},
	}
}

// EnsureIndexes creates the indexes for all collections of database.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for name, specs := range indexSpecs() {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
