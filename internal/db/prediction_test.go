package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPrediction(vehicleID primitive.ObjectID, mileage int, date time.Time) *models.MaintenancePrediction {
	return &models.MaintenancePrediction{
		VehicleID:          vehicleID,
		MaintenanceType:    models.ServiceOilChange,
		PredictedDate:      date,
		PredictedMileage:   mileage,
		CalculatedAt:       time.Now().UTC(),
		NotificationStatus: models.StatusPending,
		ConfidenceLevel:    0.5,
	}
}

func TestMongoPredictionCollection_ReplaceActivePrediction(t *testing.T) {
	_, database := startMongo(t)
	ctx := context.Background()

	coll := &MongoPredictionCollection{Collection: database.Collection(PredictionsCollection)}
	vehicleID := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, coll.ReplaceActivePrediction(ctx, newPrediction(vehicleID, 5000, now.Add(48*time.Hour))))
	require.NoError(t, coll.ReplaceActivePrediction(ctx, newPrediction(vehicleID, 10000, now.Add(24*time.Hour))))

	active, err := coll.Collection.CountDocuments(ctx, bson.M{"vehicle_id": vehicleID, "is_active": true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	total, err := coll.Collection.CountDocuments(ctx, bson.M{"vehicle_id": vehicleID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "superseded prediction must be kept as history")

	current, err := coll.FindActivePrediction(ctx, vehicleID, models.ServiceOilChange)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, 10000, current.PredictedMileage)

	all, err := coll.FindPredictions(ctx, vehicleID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].PredictedDate.Before(all[1].PredictedDate), "expected due date ascending order")

	activeOnly, err := coll.FindPredictions(ctx, vehicleID, true)
	require.NoError(t, err)
	assert.Len(t, activeOnly, 1)
}

func TestMongoPredictionCollection_UniqueActiveIndex(t *testing.T) {
	_, database := startMongo(t)
	ctx := context.Background()

	coll := database.Collection(PredictionsCollection)
	vehicleID := primitive.NewObjectID()

	first := newPrediction(vehicleID, 5000, time.Now())
	first.IsActive = true
	_, err := coll.InsertOne(ctx, first)
	require.NoError(t, err)

	second := newPrediction(vehicleID, 5000, time.Now())
	second.IsActive = true
	_, err = coll.InsertOne(ctx, second)
	assert.Error(t, err, "a second active prediction for the same key must be rejected")

	inactive := newPrediction(vehicleID, 5000, time.Now())
	_, err = coll.InsertOne(ctx, inactive)
	assert.NoError(t, err, "inactive history is not constrained")
}

func TestMongoPredictionCollection_ClosePrediction(t *testing.T) {
	_, database := startMongo(t)
	ctx := context.Background()

	coll := &MongoPredictionCollection{Collection: database.Collection(PredictionsCollection)}
	p := newPrediction(primitive.NewObjectID(), 5000, time.Now())
	require.NoError(t, coll.ReplaceActivePrediction(ctx, p))

	require.NoError(t, coll.ClosePrediction(ctx, p.ID, models.StatusCancelled))

	got, err := coll.FindPredictionByID(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, models.StatusCancelled, got.NotificationStatus)

	err = coll.ClosePrediction(ctx, primitive.NewObjectID(), models.StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)

	err = coll.ClosePrediction(ctx, p.ID, "bogus")
	assert.Error(t, err)
}

func TestMongoPredictionCollection_MarkPredictionNotified(t *testing.T) {
	_, database := startMongo(t)
	ctx := context.Background()

	coll := &MongoPredictionCollection{Collection: database.Collection(PredictionsCollection)}
	p := newPrediction(primitive.NewObjectID(), 5000, time.Now())
	require.NoError(t, coll.ReplaceActivePrediction(ctx, p))

	sentAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, coll.MarkPredictionNotified(ctx, p.ID, sentAt, 4700))

	got, err := coll.FindActivePrediction(ctx, p.VehicleID, models.ServiceOilChange)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusSent, got.NotificationStatus)
	require.NotNil(t, got.LastNotificationSent)
	assert.True(t, sentAt.Equal(*got.LastNotificationSent))
	assert.Equal(t, 4700, got.LastNotifiedMileage)

	require.NoError(t, coll.ClosePrediction(ctx, p.ID, models.StatusCancelled))
	err = coll.MarkPredictionNotified(ctx, p.ID, sentAt, 4700)
	assert.ErrorIs(t, err, ErrNotFound, "a closed prediction is not marked")
}

func TestMongoPredictionCollection_FindDismissedPrediction(t *testing.T) {
	_, database := startMongo(t)
	ctx := context.Background()

	coll := &MongoPredictionCollection{Collection: database.Collection(PredictionsCollection)}
	vehicleID := primitive.NewObjectID()
	p := newPrediction(vehicleID, 5000, time.Now())
	require.NoError(t, coll.ReplaceActivePrediction(ctx, p))

	got, err := coll.FindDismissedPrediction(ctx, vehicleID, models.ServiceOilChange, 5000)
	require.NoError(t, err)
	assert.Nil(t, got, "an active prediction is not dismissed")

	require.NoError(t, coll.ClosePrediction(ctx, p.ID, models.StatusCancelled))

	got, err = coll.FindDismissedPrediction(ctx, vehicleID, models.ServiceOilChange, 5000)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)

	got, err = coll.FindDismissedPrediction(ctx, vehicleID, models.ServiceOilChange, 10000)
	require.NoError(t, err)
	assert.Nil(t, got, "dismissal is bound to the due reading")
}
