package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"fixhive/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Claim performs the single-winner conditional update: the technician slot is
// written only while it is still empty and the booking awaits confirmation.
// Under concurrent accept attempts exactly one UpdateOne matches; every other
// caller observes MatchedCount == 0 and gets ErrAlreadyAssigned.
func (r *MongoBookingRepo) Claim(ctx context.Context, bookingID, technicianID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":           bookingID,
		"technicianId": "",
		"status":       models.BookingAwaitingConfirm,
	}
	update := bson.M{"$set": bson.M{
		"technicianId": technicianID,
		"updatedAt":    time.Now(),
	}}
	res, err := r.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("claim update failed for booking %s: %w", bookingID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Zero rows: either lost the race or this is a retry of our own claim.
	booking, err := r.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.TechnicianID == technicianID {
		return nil
	}
	return ErrAlreadyAssigned
}

// FinalizeAssignment applies every post-claim write in one Mongo transaction:
// booking to IN_PROGRESS with the initial quote, winner request ACCEPTED,
// sibling PENDING requests REJECTED, technician ONJOB, audit row inserted.
// Safe to retry for the same (booking, technician) pair.
func (r *MongoBookingRepo) FinalizeAssignment(ctx context.Context, p FinalizeAssignmentParams) error {
	client := r.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	now := time.Now()
	p.Quote.RecomputeTotal()

	txnFn := func(sc mongo.SessionContext) error {
		bookingFilter := bson.M{"id": p.BookingID, "technicianId": p.TechnicianID}
		bookingUpdate := bson.M{"$set": bson.M{
			"status":     models.BookingInProgress,
			"quote":      p.Quote,
			"finalPrice": p.Quote.TotalAmount,
			"updatedAt":  now,
		}}
		res, err := r.bookingColl.UpdateOne(sc, bookingFilter, bookingUpdate)
		if err != nil {
			return fmt.Errorf("booking update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("booking %s is not claimed by technician %s: %w", p.BookingID, p.TechnicianID, ErrStatusConflict)
		}

		winnerFilter := bson.M{
			"bookingId":    p.BookingID,
			"technicianId": p.TechnicianID,
			"status":       bson.M{"$in": []models.RequestStatus{models.RequestPending, models.RequestAccepted}},
		}
		winnerUpdate := bson.M{"$set": bson.M{
			"status":      models.RequestAccepted,
			"respondedAt": now,
		}}
		if _, err := r.requestColl.UpdateOne(sc, winnerFilter, winnerUpdate); err != nil {
			return fmt.Errorf("winner request update failed: %w", err)
		}

		siblingFilter := bson.M{
			"bookingId":    p.BookingID,
			"technicianId": bson.M{"$ne": p.TechnicianID},
			"status":       models.RequestPending,
		}
		siblingUpdate := bson.M{"$set": bson.M{
			"status":      models.RequestRejected,
			"respondedAt": now,
		}}
		if _, err := r.requestColl.UpdateMany(sc, siblingFilter, siblingUpdate); err != nil {
			return fmt.Errorf("sibling rejection failed: %w", err)
		}

		techUpdate := bson.M{"$set": bson.M{
			"availability": models.AvailabilityOnJob,
			"updatedAt":    now,
		}}
		if _, err := r.techColl.UpdateOne(sc, bson.M{"id": p.TechnicianID}, techUpdate); err != nil {
			return fmt.Errorf("technician availability flip failed: %w", err)
		}

		// Deterministic log ID keeps retries from duplicating the audit row.
		logEntry := p.Log
		logEntry.ID = fmt.Sprintf("%s:assigned:%s", p.BookingID, p.TechnicianID)
		if _, err := r.logColl.InsertOne(sc, logEntry); err != nil {
			if !mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("status log insert failed: %w", err)
			}
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("assignment transaction failed: %w", err)
	}
	return nil
}

// ReleaseAssignment undoes a claim whose finalization could not be completed:
// the slot is cleared and the booking returns to AWAITING_CONFIRM so another
// technician can still take it.
func (r *MongoBookingRepo) ReleaseAssignment(ctx context.Context, bookingID, technicianID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID, "technicianId": technicianID}
	update := bson.M{"$set": bson.M{
		"technicianId": "",
		"status":       models.BookingAwaitingConfirm,
		"updatedAt":    time.Now(),
	}}
	if _, err := r.bookingColl.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release assignment for booking %s: %w", bookingID, err)
	}

	// Guarded: only undo an availability flip we may have applied.
	techFilter := bson.M{"id": technicianID, "availability": models.AvailabilityOnJob}
	techUpdate := bson.M{"$set": bson.M{"availability": models.AvailabilityFree, "updatedAt": time.Now()}}
	if _, err := r.techColl.UpdateOne(ctx, techFilter, techUpdate); err != nil {
		return fmt.Errorf("failed to release technician %s: %w", technicianID, err)
	}
	return nil
}
