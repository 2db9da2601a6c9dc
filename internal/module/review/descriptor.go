package review

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/simp-lee/tourbase/internal/resource"
)

func floatPtr(f float64) *float64 { return &f }

// DefaultAverageRating is what a tour's rating cache resets to when its last
// review disappears. It matches the tour descriptor's ratingsAverage default.
const DefaultAverageRating = 4.5

// Descriptor declares the review resource. The tour+user unique index
// enforces one review per user per tour; the expansions embed the tour name
// and the reviewer's public profile on reads.
func Descriptor() resource.Descriptor {
	return resource.Descriptor{
		Name:       "review",
		Collection: Collection,
		Rules: []resource.FieldRule{
			{Name: "review", Kind: resource.KindString, Required: true, Trim: true},
			{Name: "rating", Kind: resource.KindNumber, Required: true, Min: floatPtr(1), Max: floatPtr(5)},
			{Name: "tour", Kind: resource.KindObjectID, Required: true},
			{Name: "user", Kind: resource.KindObjectID, Required: true},
		},
		UniqueFields: []string{"tour+user"},
		Populates: []resource.Populate{
			{
				LocalField: "tour",
				From:       "tours",
				As:         "tourInfo",
				Project:    bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: 1}},
				Single:     true,
			},
			{
				LocalField: "user",
				From:       "users",
				As:         "userInfo",
				Project:    bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: 1}, {Key: "photo", Value: 1}},
				Single:     true,
			},
		},
	}
}
