package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/go-account-api/internal/domain"
)

const challengeCollection = "otp_challenges"

// challengeDoc adds a BSON date mirror of ExpiresAt for the TTL index.
type challengeDoc struct {
	domain.OTPChallenge `bson:",inline"`
	ExpireAt            time.Time `bson:"expireAt"`
}

func ensureChallengeIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(challengeCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expireAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create challenge indexes: %w", err)
	}
	return nil
}

type ChallengeRepo struct {
	coll collection
}

func NewChallengeRepo(db *mongo.Database) *ChallengeRepo {
	return &ChallengeRepo{coll: db.Collection(challengeCollection)}
}

func (r *ChallengeRepo) Put(ctx context.Context, c *domain.OTPChallenge) error {
	doc := challengeDoc{OTPChallenge: *c, ExpireAt: time.Unix(c.ExpiresAt, 0).UTC()}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.Destination}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *ChallengeRepo) Get(ctx context.Context, destination string) (*domain.OTPChallenge, error) {
	var doc challengeDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": destination}).Decode(&doc); err != nil {
		return nil, findErr(err, "challenge", "for destination")
	}
	return &doc.OTPChallenge, nil
}

func (r *ChallengeRepo) IncrementAttempts(ctx context.Context, destination string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": destination}, bson.M{"$inc": bson.M{"attempts": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("challenge: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ChallengeRepo) Delete(ctx context.Context, destination string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": destination})
	return err
}

// Consume deletes the challenge only while it still holds codeHash, so of two
// concurrent checks with the right code exactly one succeeds. The other gets
// domain.ErrNotFound.
func (r *ChallengeRepo) Consume(ctx context.Context, destination, codeHash string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": destination, "codeHash": codeHash})
	if err != nil {
		return err
	}
	if res.DeletedCount != 1 {
		return fmt.Errorf("challenge already consumed: %w", domain.ErrNotFound)
	}
	return nil
}
