package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Identity represents an account in the identity store. The Role field is
// the role claim; an empty value means no claim has been assigned yet and
// resolves to RoleUser for authorization purposes.
type Identity struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Email         string        `bson:"email"`
	DisplayName   string        `bson:"display_name"`
	PasswordHash  string        `bson:"password_hash"`
	EmailVerified bool          `bson:"email_verified"`
	Role          Role          `bson:"role,omitempty"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

// ResolvedRole returns the role claim, defaulting to RoleUser when no claim
// has been set.
func (i *Identity) ResolvedRole() Role {
	if i.Role == "" {
		return RoleUser
	}
	return i.Role
}
