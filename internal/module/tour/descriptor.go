package tour

import (
	"context"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/resource"
)

func floatPtr(f float64) *float64 { return &f }

// Descriptor declares the tour resource: its field constraints, defaults,
// and the discount-below-price cross rule.
func Descriptor() resource.Descriptor {
	return resource.Descriptor{
		Name:       "tour",
		Collection: Collection,
		Rules: []resource.FieldRule{
			{Name: "name", Kind: resource.KindString, Required: true, MinLen: 10, MaxLen: 40, Trim: true},
			{Name: "slug", Kind: resource.KindString},
			{Name: "duration", Kind: resource.KindNumber, Required: true, Min: floatPtr(1)},
			{Name: "maxGroupSize", Kind: resource.KindInt, Required: true, Min: floatPtr(1)},
			{Name: "difficulty", Kind: resource.KindString, Required: true, Enum: []string{
				domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyDifficult,
			}},
			{Name: "ratingsAverage", Kind: resource.KindNumber, Min: floatPtr(1), Max: floatPtr(5)},
			{Name: "ratingsQuantity", Kind: resource.KindInt, Min: floatPtr(0)},
			{Name: "price", Kind: resource.KindNumber, Required: true, Min: floatPtr(0)},
			{Name: "priceDiscount", Kind: resource.KindNumber, Min: floatPtr(0)},
			{Name: "summary", Kind: resource.KindString, Required: true, Trim: true},
			{Name: "description", Kind: resource.KindString, Trim: true},
			{Name: "imageCover", Kind: resource.KindString, Required: true},
			{Name: "images", Kind: resource.KindStringSlice},
			{Name: "startDates", Kind: resource.KindTimeSlice},
			{Name: "secretTour", Kind: resource.KindBool},
		},
		CrossRules: []resource.CrossRule{
			{
				Name: "priceDiscount",
				Check: func(doc bson.M) string {
					discount, ok := asFloat(doc["priceDiscount"])
					if !ok || discount == 0 {
						return ""
					}
					price, ok := asFloat(doc["price"])
					if ok && discount >= price {
						return "discount price should be below the regular price"
					}
					return ""
				},
			},
		},
		Defaults: map[string]any{
			"ratingsAverage":  4.5,
			"ratingsQuantity": int64(0),
			"secretTour":      false,
		},
		UniqueFields: []string{"name"},
	}
}

// slugHook derives the URL slug from the tour name before every write, so
// renames keep the detail page reachable.
func slugHook(ctx context.Context, doc bson.M) error {
	if name, ok := doc["name"].(string); ok && name != "" {
		doc["slug"] = Slugify(name)
	}
	return nil
}

// Slugify lowercases the name and replaces every non-alphanumeric run with a
// single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}
