package domain

import (
	"go.mongodb.org/mongo-driver/bson"
)

// QueryPlan is the resolved filter, sort, projection, and pagination for one
// list request. It is produced by the query translator from raw query
// parameters and consumed by repositories; building it performs no I/O.
type QueryPlan struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.D
	Page       int64
	Limit      int64
	Skip       int64
}
