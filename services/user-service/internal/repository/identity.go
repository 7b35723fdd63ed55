package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
)

// IdentityRepository defines the interface for identity store operations.
// The role claim lives on the identity and is the authoritative role.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity *model.Identity) (*model.Identity, error)
	GetIdentity(ctx context.Context, id string) (*model.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error)
	SetRoleClaim(ctx context.Context, id string, role model.Role) error
	SetEmailVerified(ctx context.Context, id string, verified bool) error
}

const identityCollection = "identities"

type identityMongoRepository struct {
	db *mongo.Database
}

// NewIdentityMongoRepository creates a MongoDB repository for identities
// and ensures the unique email index exists.
func NewIdentityMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) IdentityRepository {
	collection := db.Collection(identityCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create identity indexes")
	}

	return &identityMongoRepository{db: db}
}

func (r *identityMongoRepository) CreateIdentity(
	ctx context.Context,
	identity *model.Identity,
) (*model.Identity, error) {
	now := time.Now()
	identity.CreatedAt = now
	identity.UpdatedAt = now

	result, err := r.db.Collection(identityCollection).InsertOne(ctx, identity)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		identity.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return identity, nil
}

func (r *identityMongoRepository) GetIdentity(ctx context.Context, id string) (*model.Identity, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(identityCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var identity model.Identity
	if err := result.Decode(&identity); err != nil {
		return nil, err
	}

	return &identity, nil
}

func (r *identityMongoRepository) GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error) {
	result := r.db.Collection(identityCollection).FindOne(ctx, bson.M{"email": email})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var identity model.Identity
	if err := result.Decode(&identity); err != nil {
		return nil, err
	}

	return &identity, nil
}

func (r *identityMongoRepository) SetRoleClaim(ctx context.Context, id string, role model.Role) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(identityCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *identityMongoRepository) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(identityCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"email_verified": verified, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}
