package resource

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// Handler provides the five standard operations (list, get-one, create,
// update, delete) for one resource, parameterized by its Descriptor. Writes
// operate on plain documents so descriptor rules and hooks see the record
// explicitly; reads decode into T.
type Handler[T any] struct {
	desc  Descriptor
	coll  *mongo.Collection
	hooks hookSet

	// baseFilter supplies a fixed filter merged into every query, e.g.
	// "only reviews of the tour in the route" or "no secret tours".
	baseFilter func(c *gin.Context) bson.M
	// prepareCreate lets a module inject request-derived fields into the
	// candidate document before validation (nested-route parent ids, the
	// authenticated user).
	prepareCreate func(c *gin.Context, doc bson.M) error
}

// Option configures a Handler.
type Option[T any] func(*Handler[T])

// WithBaseFilter sets the per-request base filter.
func WithBaseFilter[T any](fn func(c *gin.Context) bson.M) Option[T] {
	return func(h *Handler[T]) { h.baseFilter = fn }
}

// WithPrepareCreate sets the create-body preparation step.
func WithPrepareCreate[T any](fn func(c *gin.Context, doc bson.M) error) Option[T] {
	return func(h *Handler[T]) { h.prepareCreate = fn }
}

// WithBeforeHook registers a before-persist hook for the given phase.
func WithBeforeHook[T any](phase Phase, hook BeforeHook) Option[T] {
	return func(h *Handler[T]) {
		h.hooks.before[phase] = append(h.hooks.before[phase], hook)
	}
}

// WithAfterHook registers an after-persist hook for the given phase.
func WithAfterHook[T any](phase Phase, hook AfterHook) Option[T] {
	return func(h *Handler[T]) {
		h.hooks.after[phase] = append(h.hooks.after[phase], hook)
	}
}

// NewHandler creates a generic resource handler for the descriptor's
// collection.
func NewHandler[T any](db *mongo.Database, desc Descriptor, opts ...Option[T]) *Handler[T] {
	h := &Handler[T]{
		desc:  desc,
		coll:  db.Collection(desc.Collection),
		hooks: newHookSet(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EnsureIndexes creates the unique indexes declared by the descriptor.
func (h *Handler[T]) EnsureIndexes(ctx context.Context) error {
	if len(h.desc.UniqueFields) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(h.desc.UniqueFields))
	for _, field := range h.desc.UniqueFields {
		keys := bson.D{}
		// A composite unique field is declared as "a+b".
		for _, part := range splitComposite(field) {
			keys = append(keys, bson.E{Key: part, Value: 1})
		}
		models = append(models, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true),
		})
	}
	_, err := h.coll.Indexes().CreateMany(ctx, models)
	return err
}

// List handles GET /<resources>. It never errors on zero matches; a page
// beyond the available records yields an empty result set.
func (h *Handler[T]) List(c *gin.Context) {
	ctx := c.Request.Context()
	plan := pkg.BuildQueryPlan(c.Request.URL.Query(), h.resolveBase(c))

	total, err := h.coll.CountDocuments(ctx, plan.Filter)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	docs, err := h.find(ctx, plan)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, total, docs)
}

// GetOne handles GET /<resources>/:id, applying relation expansion when the
// descriptor declares any.
func (h *Handler[T]) GetOne(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	filter := h.resolveBase(c)
	filter["_id"] = id

	doc, err := h.findOne(ctx, filter)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, doc)
}

// Create handles POST /<resources>. The created record is returned including
// server-assigned fields (identifier, defaults, derived fields).
func (h *Handler[T]) Create(c *gin.Context) {
	ctx := c.Request.Context()

	doc := bson.M{}
	if err := c.ShouldBindJSON(&doc); err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid request body", err))
		return
	}

	if h.prepareCreate != nil {
		if err := h.prepareCreate(c, doc); err != nil {
			pkg.Error(c, err)
			return
		}
	}

	h.desc.ApplyDefaults(doc)
	if err := h.desc.CastAndValidate(doc, doc); err != nil {
		pkg.Error(c, err)
		return
	}
	if err := h.hooks.runBefore(ctx, PhaseCreate, doc); err != nil {
		pkg.Error(c, err)
		return
	}
	doc["createdAt"] = time.Now().UTC()

	res, err := h.coll.InsertOne(ctx, doc)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	doc["_id"] = res.InsertedID

	h.hooks.runAfter(ctx, PhaseCreate, h.desc.Name, doc)

	created, err := h.findOne(ctx, bson.M{"_id": res.InsertedID})
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, created)
}

// Update handles PATCH /<resources>/:id: partial field replacement with the
// descriptor rules re-run against the merged document. The post-update
// record is returned.
func (h *Handler[T]) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	patch := bson.M{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid request body", err))
		return
	}
	delete(patch, "_id")
	delete(patch, "id")
	delete(patch, "createdAt")

	filter := h.resolveBase(c)
	filter["_id"] = id

	existing := bson.M{}
	if err := h.coll.FindOne(ctx, filter).Decode(&existing); err != nil {
		pkg.Error(c, err)
		return
	}

	candidate := bson.M{}
	for key, value := range existing {
		candidate[key] = value
	}
	for key, value := range patch {
		candidate[key] = value
	}

	if err := h.desc.CastAndValidate(patch, candidate); err != nil {
		pkg.Error(c, err)
		return
	}
	if err := h.hooks.runBefore(ctx, PhaseUpdate, candidate); err != nil {
		pkg.Error(c, err)
		return
	}

	update := bson.M{}
	for key, value := range candidate {
		if key == "_id" || key == "createdAt" {
			continue
		}
		update[key] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated T
	if err := h.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": update}, opts).Decode(&updated); err != nil {
		pkg.Error(c, err)
		return
	}

	h.hooks.runAfter(ctx, PhaseUpdate, h.desc.Name, candidate)

	pkg.Success(c, updated)
}

// Delete handles DELETE /<resources>/:id and signals success with no body.
func (h *Handler[T]) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	filter := h.resolveBase(c)
	filter["_id"] = id

	deleted := bson.M{}
	if err := h.coll.FindOneAndDelete(ctx, filter).Decode(&deleted); err != nil {
		pkg.Error(c, err)
		return
	}

	h.hooks.runAfter(ctx, PhaseDelete, h.desc.Name, deleted)

	pkg.NoContent(c)
}

func (h *Handler[T]) resolveBase(c *gin.Context) bson.M {
	if h.baseFilter == nil {
		return bson.M{}
	}
	base := h.baseFilter(c)
	if base == nil {
		return bson.M{}
	}
	return base
}

func (h *Handler[T]) pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// find runs the query plan, via an aggregation pipeline when relation
// expansion is declared, or a plain find otherwise.
func (h *Handler[T]) find(ctx context.Context, plan domain.QueryPlan) ([]T, error) {
	docs := []T{}

	if len(h.desc.Populates) > 0 {
		cursor, err := h.coll.Aggregate(ctx, h.buildPipeline(plan, true))
		if err != nil {
			return nil, err
		}
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	}

	opts := options.Find().
		SetSort(plan.Sort).
		SetSkip(plan.Skip).
		SetLimit(plan.Limit).
		SetProjection(plan.Projection)
	cursor, err := h.coll.Find(ctx, plan.Filter, opts)
	if err != nil {
		return nil, err
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (h *Handler[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T

	if len(h.desc.Populates) > 0 {
		plan := domain.QueryPlan{Filter: filter}
		cursor, err := h.coll.Aggregate(ctx, h.buildPipeline(plan, false))
		if err != nil {
			return nil, err
		}
		var docs []T
		if err := cursor.All(ctx, &docs); err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, domain.ErrNotFound
		}
		return &docs[0], nil
	}

	if err := h.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// buildPipeline renders a query plan plus the descriptor's relation
// expansions into an aggregation pipeline. The pagination window is only
// applied for list queries.
func (h *Handler[T]) buildPipeline(plan domain.QueryPlan, window bool) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: plan.Filter}},
	}
	if len(plan.Sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: plan.Sort}})
	}
	if window {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: plan.Skip}},
			bson.D{{Key: "$limit", Value: plan.Limit}},
		)
	}
	for _, p := range h.desc.Populates {
		match := "$eq"
		if !p.Single {
			match = "$in"
		}
		lookup := bson.M{
			"from": p.From,
			"let":  bson.M{"ref": "$" + p.LocalField},
			"pipeline": []bson.M{
				{"$match": bson.M{"$expr": bson.M{match: []any{"$_id", "$$ref"}}}},
				{"$project": p.Project},
			},
			"as": p.As,
		}
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: lookup}})
		if p.Single {
			pipeline = append(pipeline, bson.D{{Key: "$unwind", Value: bson.M{
				"path":                       "$" + p.As,
				"preserveNullAndEmptyArrays": true,
			}}})
		}
	}

	// The projection runs last: an inclusion list that omits the local
	// reference field must not strip it before the lookups resolve.
	if len(plan.Projection) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: plan.Projection}})
	}

	return pipeline
}

func splitComposite(field string) []string {
	var parts []string
	start := 0
	for i := 0; i <= len(field); i++ {
		if i == len(field) || field[i] == '+' {
			if i > start {
				parts = append(parts, field[start:i])
			}
			start = i + 1
		}
	}
	return parts
}
