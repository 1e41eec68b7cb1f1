package requestRepo

import (
	"context"
	"fmt"
	"time"

	"fixhive/database"
	"fixhive/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoRequestRepo implements RequestRepository using MongoDB.
type MongoRequestRepo struct {
	coll *mongo.Collection
}

// NewMongoRequestRepo creates a new instance of RequestRepository using MongoDB.
func NewMongoRequestRepo() RequestRepository {
	coll := database.DB().Collection("technician_requests")
	repo := &MongoRequestRepo{coll: coll}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("request repo: index creation failed", zap.Error(err))
	}
	return repo
}

func (r *MongoRequestRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bookingId", Value: 1}, {Key: "technicianId", Value: 1}, {Key: "requestedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) Insert(ctx context.Context, req *models.BookingTechnicianRequest) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert technician request: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetForPair(ctx context.Context, bookingID, technicianID string) (*models.BookingTechnicianRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{"bookingId": bookingID, "technicianId": technicianID}
	opts := options.FindOne().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	var req models.BookingTechnicianRequest
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&req); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch request for booking %s / technician %s: %w", bookingID, technicianID, err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) MarkResponded(ctx context.Context, bookingID, technicianID string, from, to models.RequestStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{
		"bookingId":    bookingID,
		"technicianId": technicianID,
		"status":       from,
	}
	update := bson.M{"$set": bson.M{
		"status":      to,
		"respondedAt": at,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to flip request %s/%s to %s: %w", bookingID, technicianID, to, err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// ExpirePending only flips rows still PENDING, so a request accepted between
// the sweep's read and write is left untouched.
func (r *MongoRequestRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	filter := bson.M{
		"status":    models.RequestPending,
		"expiresAt": bson.M{"$lt": now},
	}
	update := bson.M{"$set": bson.M{"status": models.RequestExpired}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending requests: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoRequestRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.BookingTechnicianRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"bookingId": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for booking %s: %w", bookingID, err)
	}
	defer cursor.Close(ctx)
	var requests []models.BookingTechnicianRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}
