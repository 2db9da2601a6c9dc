package resource

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
)

func f64(v float64) *float64 { return &v }

func testDescriptor() *Descriptor {
	return &Descriptor{
		Name:       "widget",
		Collection: "widgets",
		Rules: []FieldRule{
			{Name: "name", Kind: KindString, Required: true, MinLen: 3, MaxLen: 10, Trim: true},
			{Name: "grade", Kind: KindString, Enum: []string{"easy", "medium", "difficult"}},
			{Name: "price", Kind: KindNumber, Required: true, Min: f64(0)},
			{Name: "discount", Kind: KindNumber, Min: f64(0)},
			{Name: "count", Kind: KindInt, Min: f64(1)},
			{Name: "hidden", Kind: KindBool},
			{Name: "startsAt", Kind: KindTime},
			{Name: "owner", Kind: KindObjectID},
			{Name: "tags", Kind: KindStringSlice},
			{Name: "dates", Kind: KindTimeSlice},
		},
		CrossRules: []CrossRule{
			{
				Name: "discount",
				Check: func(doc bson.M) string {
					discount, _ := doc["discount"].(float64)
					price, _ := doc["price"].(float64)
					if discount != 0 && discount >= price {
						return "discount should be below the regular price"
					}
					return ""
				},
			},
		},
		Defaults: map[string]any{
			"hidden": false,
			"count":  int64(1),
		},
	}
}

func TestCastAndValidate_ValidCreate(t *testing.T) {
	d := testDescriptor()
	doc := bson.M{
		"name":     "  Gizmo  ",
		"grade":    "easy",
		"price":    float64(100),
		"discount": float64(20),
		"count":    float64(3),
		"hidden":   true,
		"startsAt": "2026-07-01T00:00:00Z",
		"owner":    "64a1f2e3d4c5b6a798010203",
		"tags":     []any{"alpha", "beta"},
		"dates":    []any{"2026-07-01", "2026-08-01"},
	}

	if err := d.CastAndValidate(doc, doc); err != nil {
		t.Fatalf("CastAndValidate: %v", err)
	}

	if doc["name"] != "Gizmo" {
		t.Errorf("name = %q; want trimmed", doc["name"])
	}
	if doc["count"] != int64(3) {
		t.Errorf("count = %v (%T); want int64(3)", doc["count"], doc["count"])
	}
	if _, ok := doc["startsAt"].(time.Time); !ok {
		t.Errorf("startsAt = %T; want time.Time", doc["startsAt"])
	}
	if _, ok := doc["owner"].(primitive.ObjectID); !ok {
		t.Errorf("owner = %T; want ObjectID", doc["owner"])
	}
	tags, ok := doc["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "alpha" {
		t.Errorf("tags = %v", doc["tags"])
	}
	dates, ok := doc["dates"].([]any)
	if !ok || len(dates) != 2 {
		t.Fatalf("dates = %v", doc["dates"])
	}
	if _, ok := dates[0].(time.Time); !ok {
		t.Errorf("dates[0] = %T; want time.Time", dates[0])
	}
}

func TestCastAndValidate_UnknownFieldsDropped(t *testing.T) {
	d := testDescriptor()
	doc := bson.M{
		"name":    "Gizmo",
		"price":   float64(10),
		"__proto": "polluted",
		"role":    "admin",
	}

	if err := d.CastAndValidate(doc, doc); err != nil {
		t.Fatalf("CastAndValidate: %v", err)
	}
	if _, ok := doc["__proto"]; ok {
		t.Error("unknown field survived")
	}
	if _, ok := doc["role"]; ok {
		t.Error("unknown field survived")
	}
}

func TestCastAndValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		doc     bson.M
		wantMsg string
	}{
		{"missing_required", bson.M{"price": float64(5)}, "name is required"},
		{"too_short", bson.M{"name": "ab", "price": float64(5)}, "at least 3 characters"},
		{"too_long", bson.M{"name": strings.Repeat("x", 11), "price": float64(5)}, "at most 10 characters"},
		{"bad_enum", bson.M{"name": "Gizmo", "price": float64(5), "grade": "impossible"}, "must be one of"},
		{"number_below_min", bson.M{"name": "Gizmo", "price": float64(-1)}, "price must be at least 0"},
		{"not_a_number", bson.M{"name": "Gizmo", "price": "cheap"}, "price must be a number"},
		{"fractional_int", bson.M{"name": "Gizmo", "price": float64(5), "count": 2.5}, "count must be an integer"},
		{"bad_bool", bson.M{"name": "Gizmo", "price": float64(5), "hidden": "yes"}, "hidden must be a boolean"},
		{"bad_date", bson.M{"name": "Gizmo", "price": float64(5), "startsAt": "tomorrow"}, "startsAt must be a valid date"},
		{"bad_object_id", bson.M{"name": "Gizmo", "price": float64(5), "owner": "nope"}, "owner must be a valid identifier"},
		{"mixed_slice", bson.M{"name": "Gizmo", "price": float64(5), "tags": []any{"ok", 3}}, "tags must contain only strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDescriptor()
			err := d.CastAndValidate(tt.doc, tt.doc)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !domain.IsValidation(err) {
				t.Errorf("error is not a validation error: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q; want it to mention %q", err.Error(), tt.wantMsg)
			}
			if !strings.Contains(err.Error(), "invalid input data") {
				t.Errorf("error = %q; want the folded prefix", err.Error())
			}
		})
	}
}

func TestCastAndValidate_MultipleViolationsJoined(t *testing.T) {
	d := testDescriptor()
	doc := bson.M{"name": "ab", "price": float64(-1)}

	err := d.CastAndValidate(doc, doc)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "at least 3 characters") || !strings.Contains(msg, "price must be at least 0") {
		t.Errorf("error = %q; want both violations folded in", msg)
	}
}

func TestCastAndValidate_CrossRuleSeesMergedCandidate(t *testing.T) {
	d := testDescriptor()
	// Patch touches only the discount; the stored price comes from candidate.
	patch := bson.M{"discount": float64(150)}
	candidate := bson.M{"name": "Gizmo", "price": float64(100), "discount": float64(150)}

	err := d.CastAndValidate(patch, candidate)
	if err == nil {
		t.Fatal("expected a cross-rule violation")
	}
	if !strings.Contains(err.Error(), "discount should be below the regular price") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCastAndValidate_ObjectIDPassthrough(t *testing.T) {
	d := testDescriptor()
	id := primitive.NewObjectID()
	doc := bson.M{"name": "Gizmo", "price": float64(5), "owner": id}

	if err := d.CastAndValidate(doc, doc); err != nil {
		t.Fatalf("CastAndValidate: %v", err)
	}
	if doc["owner"] != id {
		t.Errorf("owner = %v; want passthrough", doc["owner"])
	}
}

func TestSplitComposite(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"email", []string{"email"}},
		{"tour+user", []string{"tour", "user"}},
		{"a+b+c", []string{"a", "b", "c"}},
		{"+a+", []string{"a"}},
	}

	for _, tt := range tests {
		got := splitComposite(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitComposite(%q) = %v; want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitComposite(%q) = %v; want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	d := testDescriptor()
	doc := bson.M{"name": "Gizmo", "price": float64(5), "hidden": true}

	d.ApplyDefaults(doc)

	if doc["hidden"] != true {
		t.Error("present field overwritten by default")
	}
	if doc["count"] != int64(1) {
		t.Errorf("count = %v; want default applied", doc["count"])
	}
}
