package review

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Collection is the reviews collection name.
const Collection = "reviews"

// mongoReviewRepository implements domain.ReviewRepository on MongoDB.
type mongoReviewRepository struct {
	coll *mongo.Collection
}

// NewRepository creates a new review repository.
func NewRepository(db *mongo.Database) domain.ReviewRepository {
	return &mongoReviewRepository{coll: db.Collection(Collection)}
}

// CalcRatings aggregates the review count and average rating for one tour.
func (r *mongoReviewRepository) CalcRatings(ctx context.Context, tourID primitive.ObjectID) (domain.RatingsSummary, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingsSummary{}, false, err
	}

	var rows []struct {
		NRating   int64   `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.RatingsSummary{}, false, err
	}
	if len(rows) == 0 {
		return domain.RatingsSummary{}, false, nil
	}

	return domain.RatingsSummary{
		Quantity: rows[0].NRating,
		Average:  rows[0].AvgRating,
	}, true, nil
}

// ListByTour returns a tour's reviews with the reviewer joined in, newest
// first, for the detail page.
func (r *mongoReviewRepository) ListByTour(ctx context.Context, tourID primitive.ObjectID) ([]domain.Review, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users",
			"let":  bson.M{"ref": "$user"},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{"$eq": []any{"$_id", "$$ref"}}}},
				{"$project": bson.M{"_id": 1, "name": 1, "photo": 1}},
			},
			"as": "userInfo",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$userInfo",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	reviews := []domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
