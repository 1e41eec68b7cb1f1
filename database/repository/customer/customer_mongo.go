package customerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixhive/database"
	"fixhive/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no customer matches the given ID.
var ErrNotFound = errors.New("customer not found")

// CustomerRepository exposes the narrow customer lookups the booking flow
// needs; account management lives elsewhere.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*models.Customer, error)
}

// MongoCustomerRepo implements CustomerRepository using MongoDB.
type MongoCustomerRepo struct {
	coll *mongo.Collection
}

// NewMongoCustomerRepo creates a new instance of CustomerRepository using MongoDB.
func NewMongoCustomerRepo() CustomerRepository {
	return &MongoCustomerRepo{coll: database.DB().Collection("customers")}
}

func (r *MongoCustomerRepo) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var customer models.Customer
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&customer); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer with id %s: %w", id, err)
	}
	return &customer, nil
}
