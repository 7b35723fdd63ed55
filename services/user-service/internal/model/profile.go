package model

import "time"

// Profile is the denormalized mirror of an identity kept in the record
// store, keyed by the identity id. Its role field trails the role claim on
// the identity: every role mutation writes the claim first, then the
// profile, so on partial failure the claim stays authoritative.
type Profile struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name"`
	Role        Role      `bson:"role"`
	CreatedAt   time.Time `bson:"created_at"`
	CreatedBy   string    `bson:"created_by"`
	UpdatedAt   time.Time `bson:"updated_at,omitempty"`
	UpdatedBy   string    `bson:"updated_by,omitempty"`
}
