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

// MongoServiceRecordCollection wraps the servicerecords collection.
type MongoServiceRecordCollection struct {
	Collection *mongo.Collection
}

// InsertServiceRecord inserts a service record and fills in its ID.
func (c *MongoServiceRecordCollection) InsertServiceRecord(ctx context.Context, record *models.ServiceRecord) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := c.Collection.InsertOne(ctx, record)
	return err
}

// FindServiceRecordByID finds a service record by its ID.
func (c *MongoServiceRecordCollection) FindServiceRecordByID(ctx context.Context, id string) (*models.ServiceRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("service record ID %q: %w", id, ErrInvalidID)
	}
	var record models.ServiceRecord
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record); err != nil {
		return nil, notFound(err, "service record")
	}
	return &record, nil
}

// FindServiceRecords returns a vehicle's history, newest first.
func (c *MongoServiceRecordCollection) FindServiceRecords(ctx context.Context, vehicleID primitive.ObjectID) ([]models.ServiceRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "service_date", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.ServiceRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FindLatestServiceRecord returns the most recent record of serviceType for
// the vehicle, or nil when there is none.
func (c *MongoServiceRecordCollection) FindLatestServiceRecord(ctx context.Context, vehicleID primitive.ObjectID, serviceType string) (*models.ServiceRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "service_date", Value: -1}})
	var record models.ServiceRecord
	err := c.Collection.FindOne(ctx, bson.M{"vehicle_id": vehicleID, "service_type": serviceType}, opts).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindHighestServiceMileage returns the largest mileage_at_service recorded
// for the vehicle. ok is false when the vehicle has no records.
func (c *MongoServiceRecordCollection) FindHighestServiceMileage(ctx context.Context, vehicleID primitive.ObjectID) (int, bool, error) {
	if c.Collection == nil {
		return 0, false, ErrNilCollection
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "mileage_at_service", Value: -1}})
	var record models.ServiceRecord
	err := c.Collection.FindOne(ctx, bson.M{"vehicle_id": vehicleID}, opts).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return record.MileageAtService, true, nil
}

// DeleteServiceRecord deletes a service record by its ID.
func (c *MongoServiceRecordCollection) DeleteServiceRecord(ctx context.Context, id primitive.ObjectID) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("service record: %w", ErrNotFound)
	}
	return nil
}
