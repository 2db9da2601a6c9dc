package tour

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Collection is the tours collection name.
const Collection = "tours"

// mongoTourRepository implements domain.TourRepository on MongoDB.
type mongoTourRepository struct {
	coll *mongo.Collection
}

// NewRepository creates a new tour repository.
func NewRepository(db *mongo.Database) domain.TourRepository {
	return &mongoTourRepository{coll: db.Collection(Collection)}
}

// publicFilter hides secret tours from the public queries.
func publicFilter() bson.M {
	return bson.M{"secretTour": bson.M{"$ne": true}}
}

func (r *mongoTourRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Tour, error) {
	var tour domain.Tour
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&tour); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &tour, nil
}

func (r *mongoTourRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	filter := publicFilter()
	filter["slug"] = slug

	var tour domain.Tour
	if err := r.coll.FindOne(ctx, filter).Decode(&tour); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewAppError(domain.CodeNotFound, "there is no tour with that name", err)
		}
		return nil, err
	}
	return &tour, nil
}

func (r *mongoTourRepository) ListAll(ctx context.Context) ([]domain.Tour, error) {
	cursor, err := r.coll.Find(ctx, publicFilter())
	if err != nil {
		return nil, err
	}
	tours := []domain.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *mongoTourRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Tour, error) {
	if len(ids) == 0 {
		return []domain.Tour{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	tours := []domain.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// Stats groups well-rated tours by difficulty with rating and price
// aggregates.
func (r *mongoTourRepository) Stats(ctx context.Context) ([]domain.TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": 4.5}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	stats := []domain.TourStats{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// MonthlyPlan unwinds the start dates of the given year into a busiest-month
// ranking.
func (r *mongoTourRepository) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{
			"startDates": bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.M{"numTourStarts": -1}}},
		{{Key: "$limit", Value: 12}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	plan := []domain.MonthlyPlanEntry{}
	if err := cursor.All(ctx, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *mongoTourRepository) UpdateRatings(ctx context.Context, tourID primitive.ObjectID, quantity int64, average float64) error {
	_, err := r.coll.UpdateByID(ctx, tourID, bson.M{
		"$set": bson.M{
			"ratingsQuantity": quantity,
			"ratingsAverage":  average,
		},
	})
	return err
}
