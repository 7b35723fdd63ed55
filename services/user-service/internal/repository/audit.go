package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
)

// AuditRepository is the write-only sink for audit entries. No read or
// query contract is exposed here; consumers of the audit data live outside
// this service.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
}

const auditCollection = "audit_logs"

type auditMongoRepository struct {
	db *mongo.Database
}

// NewAuditMongoRepository creates a MongoDB repository for the append-only
// audit log and ensures the actor/timestamp indexes exist.
func NewAuditMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AuditRepository {
	collection := db.Collection(auditCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "actor_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create audit log indexes")
	}

	return &auditMongoRepository{db: db}
}

func (r *auditMongoRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	result, err := r.db.Collection(auditCollection).InsertOne(ctx, entry)
	if err != nil {
		return err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		entry.ID = objectID
	} else {
		return errors.New("failed to convert inserted ID to ObjectID")
	}

	return nil
}
