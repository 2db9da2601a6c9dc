package pkg

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Pagination defaults. Out-of-range or non-numeric page/limit values fall
// back to these rather than failing the request.
const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 100
)

// versionMarker is the internal document version field excluded from
// responses unless the client asks for an explicit field set.
const versionMarker = "__v"

// reservedParams lists query parameter names used for pagination, sorting,
// and projection. Every other parameter becomes a filter term.
var reservedParams = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
}

// comparisonOps maps the bracket-suffix operators accepted in query strings
// (e.g. price[gte]=100) to their driver form.
var comparisonOps = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
}

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// BuildQueryPlan translates raw query parameters into a QueryPlan. base is an
// optional fixed filter (e.g. only reviews of one tour) that cannot be
// overridden by client-supplied terms. The translation is pure: it performs
// no I/O and never fails; malformed values degrade to defaults or are
// dropped.
func BuildQueryPlan(values url.Values, base bson.M) domain.QueryPlan {
	plan := domain.QueryPlan{
		Filter:     buildFilter(values, base),
		Sort:       buildSort(values.Get("sort")),
		Projection: buildProjection(values.Get("fields")),
		Page:       DefaultPage,
		Limit:      DefaultLimit,
	}

	if page, ok := parsePositiveInt(values.Get("page")); ok {
		plan.Page = page
	}
	if limit, ok := parsePositiveInt(values.Get("limit")); ok {
		plan.Limit = limit
	}
	plan.Skip = (plan.Page - 1) * plan.Limit

	return plan
}

// buildFilter turns the non-reserved query parameters into a filter document.
// A bare key means equality; a key with a comparison suffix (price[gte])
// contributes to an operator document on that field. An empty result matches
// all non-excluded records.
func buildFilter(values url.Values, base bson.M) bson.M {
	filter := bson.M{}

	for key, vals := range values {
		if reservedParams[key] || len(vals) == 0 || vals[0] == "" {
			continue
		}

		field, op := splitOperator(key)
		if !validFieldName.MatchString(field) {
			continue
		}
		value := coerceValue(vals[0])

		if op == "" {
			filter[field] = value
			continue
		}

		ops, _ := filter[field].(bson.M)
		if ops == nil {
			ops = bson.M{}
		}
		ops[op] = value
		filter[field] = ops
	}

	// The base filter wins over anything the client sent.
	for key, value := range base {
		filter[key] = value
	}

	return filter
}

// splitOperator splits "price[gte]" into ("price", "$gte"). Keys without a
// recognized bracket suffix are returned unchanged with an empty operator.
func splitOperator(key string) (field, op string) {
	if !strings.HasSuffix(key, "]") {
		return key, ""
	}
	open := strings.LastIndex(key, "[")
	if open <= 0 {
		return key, ""
	}
	suffix := key[open+1 : len(key)-1]
	mapped, ok := comparisonOps[suffix]
	if !ok {
		return key, ""
	}
	return key[:open], mapped
}

// coerceValue converts a raw query value into the most specific type the
// collaborator can compare: number, boolean, or string.
func coerceValue(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

// buildSort parses a comma-separated sort key list. A leading minus means
// descending. The identity field is always appended as an ascending
// tie-break so that ordering (and therefore pagination) is stable.
func buildSort(raw string) bson.D {
	sort := bson.D{}
	sawID := false

	for _, part := range strings.Split(raw, ",") {
		field := strings.TrimSpace(part)
		order := 1
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			order = -1
		}
		if !validFieldName.MatchString(field) {
			continue
		}
		sort = append(sort, bson.E{Key: field, Value: order})
		if field == "_id" {
			sawID = true
		}
	}

	if !sawID {
		sort = append(sort, bson.E{Key: "_id", Value: 1})
	}
	return sort
}

// buildProjection parses the comma-separated fields list into a projection.
// Entries with a leading minus form an exclusion list; plain entries form an
// inclusion list. Inclusion and exclusion are mutually exclusive: the mode
// of the first valid entry wins and mismatched entries are dropped. Without
// a fields key, everything except the internal version marker is returned.
func buildProjection(raw string) bson.D {
	if strings.TrimSpace(raw) == "" {
		return bson.D{{Key: versionMarker, Value: 0}}
	}

	projection := bson.D{}
	exclude := false

	for _, part := range strings.Split(raw, ",") {
		field := strings.TrimSpace(part)
		neg := strings.HasPrefix(field, "-")
		if neg {
			field = field[1:]
		}
		if !validFieldName.MatchString(field) {
			continue
		}
		if len(projection) == 0 {
			exclude = neg
		} else if neg != exclude {
			continue
		}
		value := 1
		if exclude {
			value = 0
		}
		projection = append(projection, bson.E{Key: field, Value: value})
	}

	if len(projection) == 0 {
		return bson.D{{Key: versionMarker, Value: 0}}
	}
	return projection
}

// parsePositiveInt parses a pagination parameter. Anything non-numeric or
// not strictly positive reports ok=false so the caller falls back to the
// default.
func parsePositiveInt(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
