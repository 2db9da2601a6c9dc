package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking links a user to a purchased tour.
type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Price     float64            `bson:"price" json:"price"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	Paid      bool               `bson:"paid" json:"paid"`
}

// CheckoutSession is the reference returned by the payment collaborator.
// The application only forwards it to the caller.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// BookingRepository defines the booking queries that fall outside the generic
// resource handler.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]Booking, error)
}
