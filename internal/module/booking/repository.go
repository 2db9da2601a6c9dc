package booking

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Collection is the bookings collection name.
const Collection = "bookings"

// mongoBookingRepository implements domain.BookingRepository on MongoDB.
type mongoBookingRepository struct {
	coll *mongo.Collection
}

// NewRepository creates a new booking repository.
func NewRepository(db *mongo.Database) domain.BookingRepository {
	return &mongoBookingRepository{coll: db.Collection(Collection)}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	res, err := r.coll.InsertOne(ctx, booking)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		booking.ID = id
	}
	return nil
}

func (r *mongoBookingRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Booking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user": userID})
	if err != nil {
		return nil, err
	}
	bookings := []domain.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
