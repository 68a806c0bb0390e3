package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection wraps the vehicles collection.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("vehicle ID %q: %w", id, ErrInvalidID)
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		return nil, notFound(err, "vehicle")
	}

	return &vehicle, nil
}

// FindActiveVehicleIDs returns the hex IDs of all vehicles not soft-deleted.
func (c *MongoVehicleCollection) FindActiveVehicleIDs(ctx context.Context) ([]string, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := c.Collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID.Hex())
	}
	return ids, nil
}

// UpdateMileage sets the current odometer reading and stamps the update time.
func (c *MongoVehicleCollection) UpdateMileage(ctx context.Context, id primitive.ObjectID, mileage int) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"current_mileage":     mileage,
		"last_mileage_update": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("vehicle: %w", ErrNotFound)
	}

	return nil
}
