package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuditAction identifies the kind of privileged mutation an audit entry
// records.
type AuditAction string

const (
	AuditActionCreateInstructor  AuditAction = "create_instructor"
	AuditActionSetUserRole       AuditAction = "set_user_role"
	AuditActionReconcileUserRole AuditAction = "reconcile_user_role"
)

// AuditDetails carries the action-specific fields of an audit entry.
type AuditDetails struct {
	TargetID    string `bson:"target_id"`
	Email       string `bson:"email,omitempty"`
	DisplayName string `bson:"display_name,omitempty"`
	OldRole     string `bson:"old_role,omitempty"`
	NewRole     string `bson:"new_role,omitempty"`
}

// AuditEntry is an immutable record of a privileged mutation. Entries are
// append-only: this service never updates or deletes them.
type AuditEntry struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	ActorID   string        `bson:"actor_id"`
	Action    AuditAction   `bson:"action"`
	Details   AuditDetails  `bson:"details"`
	Timestamp time.Time     `bson:"timestamp"`
	IPAddress string        `bson:"ip_address,omitempty"`
	RequestID string        `bson:"request_id,omitempty"`
}
