package user

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Collection is the users collection name.
const Collection = "users"

// mongoUserRepository implements domain.UserRepository on MongoDB.
type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewRepository creates a new user repository.
func NewRepository(db *mongo.Database) domain.UserRepository {
	return &mongoUserRepository{coll: db.Collection(Collection)}
}

// activeFilter excludes soft-deactivated accounts from every lookup.
func activeFilter() bson.M {
	return bson.M{"active": bson.M{"$ne": false}}
}

// EnsureIndexes creates the unique email index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewAppError(domain.CodeDuplicate, "an account with this email already exists", err)
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	filter := activeFilter()
	filter["_id"] = id
	return r.findOne(ctx, filter)
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	filter := activeFilter()
	filter["email"] = email
	return r.findOne(ctx, filter)
}

func (r *mongoUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	filter := activeFilter()
	filter["passwordResetToken"] = tokenHash
	filter["passwordResetExpires"] = bson.M{"$gt": now}
	return r.findOne(ctx, filter)
}

func (r *mongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, changedAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"password":          passwordHash,
			"passwordChangedAt": changedAt,
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	}
	return r.updateOne(ctx, id, update)
}

func (r *mongoUserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"passwordResetToken":   tokenHash,
			"passwordResetExpires": expires,
		},
	}
	return r.updateOne(ctx, id, update)
}

func (r *mongoUserRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	}
	return r.updateOne(ctx, id, update)
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error) {
	filter := activeFilter()
	filter["_id"] = id

	var updated domain.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M(fields)}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.NewAppError(domain.CodeDuplicate, "an account with this email already exists", err)
		}
		return nil, err
	}
	return &updated, nil
}

func (r *mongoUserRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"active": false}})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
