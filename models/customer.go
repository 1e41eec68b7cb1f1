package models

import "time"

// Customer holds the subset of a customer account the booking flow needs.
// Account management itself lives in the auth service, not here.
type Customer struct {
	ID        string    `bson:"id" json:"id"`
	FullName  string    `bson:"fullName" json:"fullName"`
	Phone     string    `bson:"phone" json:"phone"`
	FCMToken  string    `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
