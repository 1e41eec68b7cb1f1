package technicianRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SearchWithinRadius runs a single $geoNear pass over the technician index,
// restricted to eligible technicians. Results come back nearest-first with the
// computed distance in metres.
func (r *MongoTechnicianRepo) SearchWithinRadius(ctx context.Context, criteria GeoSearchCriteria) ([]TechnicianWithDistance, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if !criteria.Center.Valid() {
		return nil, fmt.Errorf("invalid search center coordinates")
	}

	var pipeline mongo.Pipeline

	// $geoNear must come first to filter+sort by distance.
	pipeline = append(pipeline, bson.D{
		{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: criteria.Center.Coordinates},
			}},
			{Key: "distanceField", Value: "distance"},
			{Key: "spherical", Value: true},
			{Key: "maxDistance", Value: criteria.RadiusKm * 1000},
		}},
	})

	matchFilter := bson.M{
		"approvalStatus": criteria.ApprovalStatus,
		"balance":        bson.M{"$gte": criteria.MinBalance},
	}
	if len(criteria.Availabilities) > 0 {
		matchFilter["availability"] = bson.M{"$in": criteria.Availabilities}
	}
	if criteria.CategoryID != "" {
		matchFilter["specialties"] = criteria.CategoryID
	}
	pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchFilter}})

	// Higher-tier subscribers first, then nearest, then track record.
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "subscriptionTier", Value: -1},
		{Key: "distance", Value: 1},
		{Key: "rating", Value: -1},
	}}})

	if criteria.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: criteria.Limit}})
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("geo search query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []TechnicianWithDistance
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode technicians: %w", err)
	}
	return results, nil
}
