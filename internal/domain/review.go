package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review represents a user's review of a tour. Tour and User are parent
// references; TourInfo and UserInfo are filled in by relation expansion and
// never stored.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Review    string             `bson:"review" json:"review"`
	Rating    float64            `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour"`
	User      primitive.ObjectID `bson:"user" json:"user"`

	TourInfo *ReviewTourInfo `bson:"tourInfo,omitempty" json:"tourInfo,omitempty"`
	UserInfo *ReviewUserInfo `bson:"userInfo,omitempty" json:"userInfo,omitempty"`
}

// ReviewTourInfo is the expanded tour reference on a review.
type ReviewTourInfo struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// ReviewUserInfo is the expanded user reference on a review. Only public
// fields are projected; never the email address.
type ReviewUserInfo struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Photo string             `bson:"photo,omitempty" json:"photo,omitempty"`
}

// RatingsSummary is the recomputed review aggregate for a tour.
type RatingsSummary struct {
	Quantity int64
	Average  float64
}

// ReviewRepository defines the review queries that fall outside the generic
// resource handler.
type ReviewRepository interface {
	// CalcRatings aggregates count and average rating over all reviews of the
	// tour. It returns ok=false when the tour has no reviews left.
	CalcRatings(ctx context.Context, tourID primitive.ObjectID) (summary RatingsSummary, ok bool, err error)
	ListByTour(ctx context.Context, tourID primitive.ObjectID) ([]Review, error)
}
