package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared with the existing web application.
const (
	VehiclesCollection       = "vehicles"
	UsersCollection          = "users"
	ServiceRecordsCollection = "servicerecords"
	PredictionsCollection    = "maintenancepredictions"
)

var (
	// ErrNotFound is returned when a lookup by ID matches no document.
	ErrNotFound = errors.New("document not found")
	// ErrNilCollection is returned when a wrapper was built without a collection.
	ErrNilCollection = errors.New("mongo collection is nil")
	// ErrInvalidID is returned when an ID is not a valid ObjectID hex string.
	ErrInvalidID = errors.New("invalid object id")
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017/motarilog"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// NewStore builds a Store over the standard collections of database.
func NewStore(client *mongo.Client, database *mongo.Database, useTransactions bool) *Store {
	return &Store{
		Vehicles:       &MongoVehicleCollection{Collection: database.Collection(VehiclesCollection)},
		Users:          &MongoUserCollection{Collection: database.Collection(UsersCollection)},
		ServiceRecords: &MongoServiceRecordCollection{Collection: database.Collection(ServiceRecordsCollection)},
		Predictions: &MongoPredictionCollection{
			Collection:      database.Collection(PredictionsCollection),
			Client:          client,
			UseTransactions: useTransactions,
		},
	}
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
