package searchRepo

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

// MongoSearchStateRepo implements SearchStateRepository using MongoDB.
type MongoSearchStateRepo struct {
	coll *mongo.Collection
}

// NewMongoSearchStateRepo creates a new instance of SearchStateRepository using MongoDB.
func NewMongoSearchStateRepo() SearchStateRepository {
	coll := database.DB().Collection("technician_search_states")
	repo := &MongoSearchStateRepo{coll: coll}
	if err := repo.ensureIndexes(); err != nil {
		zap.L().Warn("search repo: index creation failed", zap.Error(err))
	}
	return repo
}

func (r *MongoSearchStateRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "completed", Value: 1}, {Key: "lastSearchAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoSearchStateRepo) Get(ctx context.Context, bookingID string) (*models.TechnicianSearchState, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var state models.TechnicianSearchState
	if err := r.coll.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&state); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch search state for booking %s: %w", bookingID, err)
	}
	return &state, nil
}

// Save replaces the whole snapshot under an optimistic version guard. A brand
// new state (version 1) is inserted; the unique bookingId index turns a
// concurrent first insert into a version conflict instead of a duplicate.
func (r *MongoSearchStateRepo) Save(ctx context.Context, state *models.TechnicianSearchState) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if state.Version <= 1 {
		if _, err := r.coll.InsertOne(ctx, state); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to insert search state for booking %s: %w", state.BookingID, err)
		}
		return nil
	}

	filter := bson.M{"bookingId": state.BookingID, "version": state.Version - 1}
	res, err := r.coll.ReplaceOne(ctx, filter, state)
	if err != nil {
		return fmt.Errorf("failed to replace search state for booking %s: %w", state.BookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *MongoSearchStateRepo) FindIncomplete(ctx context.Context, cutoff time.Time) ([]models.TechnicianSearchState, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	filter := bson.M{
		"completed":    false,
		"lastSearchAt": bson.M{"$gte": cutoff},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find incomplete search states: %w", err)
	}
	defer cursor.Close(ctx)
	var states []models.TechnicianSearchState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, fmt.Errorf("failed to decode search states: %w", err)
	}
	return states, nil
}
