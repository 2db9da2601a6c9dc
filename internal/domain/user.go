package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles. Role membership is checked by the auth guard; there is no
// separate permission store.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// User represents an account in the system. The password hash and the
// active flag are never serialized to clients.
type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	Email                string             `bson:"email" json:"email"`
	Photo                string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role                 string             `bson:"role" json:"role"`
	Password             string             `bson:"password,omitempty" json:"-"`
	PasswordChangedAt    time.Time          `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   string             `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires time.Time          `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               *bool              `bson:"active,omitempty" json:"-"`
	CreatedAt            time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// ChangedPasswordAfter reports whether the user's credentials changed after
// the given token issue time. A zero PasswordChangedAt means the password was
// never changed, so any token remains valid on this axis.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	// Issue timestamps have second precision; truncate before comparing so a
	// token minted in the same second as the change is not rejected.
	return issuedAt.Truncate(time.Second).Before(u.PasswordChangedAt.Truncate(time.Second))
}

// UserRepository defines the data access interface for users used outside the
// generic resource handler (authentication and self-service flows).
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	// GetByEmail returns the user including the password hash.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByResetToken looks up a user by the SHA-256 hash of a reset token,
	// ignoring entries whose reset window has expired.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	// UpdatePassword stores a new password hash and stamps passwordChangedAt,
	// clearing any outstanding reset token.
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, changedAt time.Time) error
	// SetResetToken stores the hashed reset token and its expiry.
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	// ClearResetToken removes a previously stored reset token.
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	// UpdateProfile updates the self-service fields (name, email, photo).
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*User, error)
	// Deactivate soft-deletes the account; inactive users are excluded from
	// all finds.
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}
