package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/go-account-api/internal/domain"
)

const addressCollection = "addresses"

func ensureAddressIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(addressCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isDefault", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create address indexes: %w", err)
	}
	return nil
}

type AddressRepo struct {
	coll *mongo.Collection
}

func NewAddressRepo(db *mongo.Database) *AddressRepo {
	return &AddressRepo{coll: db.Collection(addressCollection)}
}

func (r *AddressRepo) Put(ctx context.Context, a *domain.Address) error {
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": a.AddressID}, a, options.Replace().SetUpsert(true))
	return err
}

func (r *AddressRepo) Get(ctx context.Context, addressID string) (*domain.Address, error) {
	var a domain.Address
	if err := r.coll.FindOne(ctx, bson.M{"_id": addressID}).Decode(&a); err != nil {
		return nil, findErr(err, "address", addressID)
	}
	return &a, nil
}

// List returns the owner's addresses, or every address when ownerID is empty.
func (r *AddressRepo) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["userId"] = ownerID
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []domain.Address
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	return out, nil
}

func (r *AddressRepo) Delete(ctx context.Context, addressID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": addressID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("address %s: %w", addressID, domain.ErrNotFound)
	}
	return nil
}

func (r *AddressRepo) ClearDefault(ctx context.Context, ownerID, exceptID string) error {
	_, err := r.coll.UpdateMany(ctx, defaultFilter(ownerID, exceptID), bson.M{"$set": bson.M{"isDefault": false}})
	return err
}

// defaultFilter matches the owner's default addresses other than exceptID.
// An empty ownerID matches addresses without an owner.
func defaultFilter(ownerID, exceptID string) bson.M {
	filter := bson.M{"isDefault": true, "_id": bson.M{"$ne": exceptID}}
	if ownerID == "" {
		filter["userId"] = bson.M{"$exists": false}
	} else {
		filter["userId"] = ownerID
	}
	return filter
}
