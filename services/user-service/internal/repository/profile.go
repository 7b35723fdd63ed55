package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/jirapatw/courselab-api/services/user-service/internal/model"
)

// ProfileRepository defines the interface for the record store holding the
// denormalized profile mirror of each identity.
type ProfileRepository interface {
	SetProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateRole(ctx context.Context, id string, params UpdateProfileRoleParams) error
}

// UpdateProfileRoleParams defines the fields written when the mirrored role
// changes.
type UpdateProfileRoleParams struct {
	Role      model.Role
	UpdatedBy string
}

const profileCollection = "profiles"

type profileMongoRepository struct {
	db *mongo.Database
}

// NewProfileMongoRepository creates a MongoDB repository for profiles.
func NewProfileMongoRepository(db *mongo.Database) ProfileRepository {
	return &profileMongoRepository{db: db}
}

func (r *profileMongoRepository) SetProfile(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.Collection(profileCollection).InsertOne(ctx, profile)
	return err
}

func (r *profileMongoRepository) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	result := r.db.Collection(profileCollection).FindOne(ctx, bson.M{"_id": id})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileMongoRepository) UpdateRole(
	ctx context.Context,
	id string,
	params UpdateProfileRoleParams,
) error {
	result, err := r.db.Collection(profileCollection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"role":       params.Role,
			"updated_at": time.Now(),
			"updated_by": params.UpdatedBy,
		}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}
