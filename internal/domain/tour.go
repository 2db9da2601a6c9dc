package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tour difficulty levels.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// Tour represents a bookable tour. RatingsAverage and RatingsQuantity form a
// denormalized cache derived from the tour's reviews; they are recomputed
// whenever a review is written.
type Tour struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Slug            string             `bson:"slug,omitempty" json:"slug,omitempty"`
	Duration        float64            `bson:"duration" json:"duration"`
	MaxGroupSize    int                `bson:"maxGroupSize" json:"maxGroupSize"`
	Difficulty      string             `bson:"difficulty" json:"difficulty"`
	RatingsAverage  float64            `bson:"ratingsAverage" json:"ratingsAverage"`
	RatingsQuantity int64              `bson:"ratingsQuantity" json:"ratingsQuantity"`
	Price           float64            `bson:"price" json:"price"`
	PriceDiscount   float64            `bson:"priceDiscount,omitempty" json:"priceDiscount,omitempty"`
	Summary         string             `bson:"summary" json:"summary"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageCover      string             `bson:"imageCover" json:"imageCover"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt,omitempty" json:"-"`
	StartDates      []time.Time        `bson:"startDates,omitempty" json:"startDates,omitempty"`
	SecretTour      bool               `bson:"secretTour,omitempty" json:"-"`
}

// TourStats is one row of the grouped-by-difficulty statistics aggregation.
type TourStats struct {
	Difficulty string  `bson:"_id" json:"difficulty"`
	NumTours   int64   `bson:"numTours" json:"numTours"`
	NumRatings int64   `bson:"numRatings" json:"numRatings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// MonthlyPlanEntry is one row of the monthly tour-start aggregation for a
// given year.
type MonthlyPlanEntry struct {
	Month         int      `bson:"month" json:"month"`
	NumTourStarts int64    `bson:"numTourStarts" json:"numTourStarts"`
	Tours         []string `bson:"tours" json:"tours"`
}

// TourRepository defines the tour queries that fall outside the generic
// resource handler.
type TourRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*Tour, error)
	GetBySlug(ctx context.Context, slug string) (*Tour, error)
	ListAll(ctx context.Context) ([]Tour, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]Tour, error)
	Stats(ctx context.Context) ([]TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error)
	// UpdateRatings writes the review aggregate back onto the tour.
	UpdateRatings(ctx context.Context, tourID primitive.ObjectID, quantity int64, average float64) error
}
