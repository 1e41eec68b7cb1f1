package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fixhive/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ApplyTransition flips the status with a compare-and-swap on the expected
// From value and writes the audit row in the same unit of work. When the flip
// must also release the assigned technician (cancellation of an in-progress
// job), everything runs inside one Mongo transaction.
func (r *MongoBookingRepo) ApplyTransition(ctx context.Context, t StatusTransition) error {
	now := time.Now()

	setFields := bson.M{
		"status":    t.To,
		"updatedAt": now,
	}
	for k, v := range t.Set {
		setFields[k] = v
	}
	if t.ClearTechnician {
		setFields["technicianId"] = ""
	}

	filter := bson.M{"id": t.BookingID, "status": t.From}
	update := bson.M{"$set": setFields}

	applyFn := func(sc context.Context) error {
		res, err := r.bookingColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("status flip failed for booking %s: %w", t.BookingID, err)
		}
		if res.MatchedCount == 0 {
			return ErrStatusConflict
		}
		if _, err := r.logColl.InsertOne(sc, t.Log); err != nil {
			return fmt.Errorf("status log insert failed for booking %s: %w", t.BookingID, err)
		}
		if t.ReleaseTechnicianID != "" {
			techFilter := bson.M{"id": t.ReleaseTechnicianID, "availability": models.AvailabilityOnJob}
			techUpdate := bson.M{"$set": bson.M{"availability": models.AvailabilityFree, "updatedAt": now}}
			if _, err := r.techColl.UpdateOne(sc, techFilter, techUpdate); err != nil {
				return fmt.Errorf("technician release failed: %w", err)
			}
		}
		return nil
	}

	if t.ReleaseTechnicianID == "" {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return applyFn(ctx)
	}

	client := r.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := applyFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return err
		}
		return fmt.Errorf("transition transaction failed: %w", err)
	}
	return nil
}
