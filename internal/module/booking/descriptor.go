package booking

import "github.com/simp-lee/tourbase/internal/resource"

func floatPtr(f float64) *float64 { return &f }

// Descriptor declares the booking resource for the admin CRUD routes.
// Bookings normally enter the system through the checkout flow; the CRUD
// surface exists for manual corrections.
func Descriptor() resource.Descriptor {
	return resource.Descriptor{
		Name:       "booking",
		Collection: Collection,
		Rules: []resource.FieldRule{
			{Name: "tour", Kind: resource.KindObjectID, Required: true},
			{Name: "user", Kind: resource.KindObjectID, Required: true},
			{Name: "price", Kind: resource.KindNumber, Required: true, Min: floatPtr(0)},
			{Name: "paid", Kind: resource.KindBool},
		},
		Defaults: map[string]any{
			"paid": true,
		},
	}
}
