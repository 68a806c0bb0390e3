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

// MongoPredictionCollection wraps the maintenancepredictions collection.
//
// ReplaceActivePrediction runs inside a multi-document transaction when
// UseTransactions is set; that requires a replica set or sharded cluster.
// Without it the deactivate and insert run back to back, and the partial
// unique index from EnsureIndexes rejects a second active prediction.
type MongoPredictionCollection struct {
	Collection      *mongo.Collection
	Client          *mongo.Client
	UseTransactions bool
}

// FindPredictionByID finds a prediction by its ID.
func (c *MongoPredictionCollection) FindPredictionByID(ctx context.Context, id string) (*models.MaintenancePrediction, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("prediction ID %q: %w", id, ErrInvalidID)
	}
	var p models.MaintenancePrediction
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p); err != nil {
		return nil, notFound(err, "prediction")
	}
	return &p, nil
}

// FindPredictions lists a vehicle's predictions, soonest due date first.
func (c *MongoPredictionCollection) FindPredictions(ctx context.Context, vehicleID primitive.ObjectID, activeOnly bool) ([]models.MaintenancePrediction, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{"vehicle_id": vehicleID}
	if activeOnly {
		filter["is_active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "predicted_date", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	predictions := []models.MaintenancePrediction{}
	if err := cursor.All(ctx, &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// FindActivePrediction returns the active prediction for (vehicle, type), or
// nil when none exists.
func (c *MongoPredictionCollection) FindActivePrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string) (*models.MaintenancePrediction, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{"vehicle_id": vehicleID, "maintenance_type": maintenanceType, "is_active": true}
	opts := options.FindOne().SetSort(bson.D{{Key: "calculated_at", Value: -1}})
	var p models.MaintenancePrediction
	err := c.Collection.FindOne(ctx, filter, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindDismissedPrediction returns the latest cancelled prediction for
// (vehicle, type) at predictedMileage, or nil when the driver never
// dismissed that due reading.
func (c *MongoPredictionCollection) FindDismissedPrediction(ctx context.Context, vehicleID primitive.ObjectID, maintenanceType string, predictedMileage int) (*models.MaintenancePrediction, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{
		"vehicle_id":          vehicleID,
		"maintenance_type":    maintenanceType,
		"predicted_mileage":   predictedMileage,
		"notification_status": models.StatusCancelled,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "calculated_at", Value: -1}})
	var p models.MaintenancePrediction
	err := c.Collection.FindOne(ctx, filter, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ReplaceActivePrediction deactivates every active prediction for the
// prediction's (vehicle, type) and inserts it as the new active one.
func (c *MongoPredictionCollection) ReplaceActivePrediction(ctx context.Context, p *models.MaintenancePrediction) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.IsActive = true

	if !c.UseTransactions || c.Client == nil {
		return c.replace(ctx, p)
	}

	sess, err := c.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, c.replace(sc, p)
	})
	return err
}

func (c *MongoPredictionCollection) replace(ctx context.Context, p *models.MaintenancePrediction) error {
	_, err := c.Collection.UpdateMany(ctx,
		bson.M{"vehicle_id": p.VehicleID, "maintenance_type": p.MaintenanceType, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return fmt.Errorf("deactivate predictions: %w", err)
	}
	if _, err := c.Collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// MarkPredictionNotified records a delivered alert on the active prediction id.
func (c *MongoPredictionCollection) MarkPredictionNotified(ctx context.Context, id primitive.ObjectID, sentAt time.Time, mileage int) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id, "is_active": true}, bson.M{"$set": bson.M{
		"notification_status":    models.StatusSent,
		"last_notification_sent": sentAt,
		"last_notified_mileage":  mileage,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("active prediction: %w", ErrNotFound)
	}
	return nil
}

// ClosePrediction deactivates a single prediction with a terminal status
// (completed or cancelled).
func (c *MongoPredictionCollection) ClosePrediction(ctx context.Context, id primitive.ObjectID, status models.NotificationStatus) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid notification status %q", status)
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_active":           false,
		"notification_status": status,
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("prediction: %w", ErrNotFound)
	}
	return nil
}
