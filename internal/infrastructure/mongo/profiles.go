package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/go-account-api/internal/domain"
)

const profileCollection = "profiles"

type ProfileRepo struct {
	coll *mongo.Collection
}

func NewProfileRepo(db *mongo.Database) *ProfileRepo {
	return &ProfileRepo{coll: db.Collection(profileCollection)}
}

func (r *ProfileRepo) Put(ctx context.Context, p *domain.Profile) error {
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ProfileID}, p, options.Replace().SetUpsert(true))
	return err
}

func (r *ProfileRepo) Get(ctx context.Context, profileID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.coll.FindOne(ctx, bson.M{"_id": profileID}).Decode(&p); err != nil {
		return nil, findErr(err, "profile", profileID)
	}
	return &p, nil
}

func (r *ProfileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []domain.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return out, nil
}

func (r *ProfileRepo) Delete(ctx context.Context, profileID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": profileID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("profile %s: %w", profileID, domain.ErrNotFound)
	}
	return nil
}
