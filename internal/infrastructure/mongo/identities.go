package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/go-account-api/internal/domain"
)

const identityCollection = "identities"

func ensureIdentityIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phoneNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	if _, err := db.Collection(identityCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create identity indexes: %w", err)
	}
	return nil
}

// IdentityRepo relies on sparse unique indexes for identifier uniqueness and
// on the version field for optimistic concurrency.
type IdentityRepo struct {
	coll collection
}

func NewIdentityRepo(db *mongo.Database) *IdentityRepo {
	return &IdentityRepo{coll: db.Collection(identityCollection)}
}

func (r *IdentityRepo) Get(ctx context.Context, identityID string) (*domain.Identity, error) {
	var ident domain.Identity
	if err := r.coll.FindOne(ctx, bson.M{"_id": identityID}).Decode(&ident); err != nil {
		return nil, findErr(err, "identity", identityID)
	}
	return &ident, nil
}

func (r *IdentityRepo) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	var ident domain.Identity
	if err := r.coll.FindOne(ctx, bson.M{"phoneNumber": phone}).Decode(&ident); err != nil {
		return nil, findErr(err, "identity", "by phone")
	}
	return &ident, nil
}

func (r *IdentityRepo) List(ctx context.Context) ([]domain.Identity, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []domain.Identity
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode identities: %w", err)
	}
	return out, nil
}

func (r *IdentityRepo) Insert(ctx context.Context, ident *domain.Identity) error {
	ident.Version = 1
	if _, err := r.coll.InsertOne(ctx, ident); err != nil {
		ident.Version = 0
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		return err
	}
	return nil
}

// Update applies the identity only while the stored version matches.
func (r *IdentityRepo) Update(ctx context.Context, ident *domain.Identity) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": ident.IdentityID, "version": ident.Version},
		identityUpdate(ident),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, ident.IdentityID); err != nil {
			return err
		}
		return fmt.Errorf("identity %s changed concurrently: %w", ident.IdentityID, domain.ErrConflict)
	}
	ident.Version++
	return nil
}

// identityUpdate builds the update document; absent identifiers are unset so
// the sparse unique indexes ignore them.
func identityUpdate(ident *domain.Identity) bson.M {
	set := bson.M{
		"verified":  ident.Verified,
		"updatedAt": ident.UpdatedAt,
	}
	unset := bson.M{}
	if ident.Email != nil {
		set["email"] = *ident.Email
	} else {
		unset["email"] = ""
	}
	if ident.PhoneNumber != nil {
		set["phoneNumber"] = *ident.PhoneNumber
	} else {
		unset["phoneNumber"] = ""
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
