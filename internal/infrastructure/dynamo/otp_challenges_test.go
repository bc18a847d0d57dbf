package dynamo

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-account-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// challengeDynamo deletes conditionally on the stored code hash.
type challengeDynamo struct {
	API
	hashes  map[string]string
	deletes []*dynamodb.DeleteItemInput
}

func (f *challengeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	dest := in.Key["destination"].(*types.AttributeValueMemberS).Value
	stored, ok := f.hashes[dest]
	if in.ConditionExpression != nil {
		want := in.ExpressionAttributeValues[":h"].(*types.AttributeValueMemberS).Value
		if !ok || stored != want {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	delete(f.hashes, dest)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestChallengeRepo_ConsumeOnlyOnce(t *testing.T) {
	fake := &challengeDynamo{hashes: map[string]string{"+919876543210": "hash-1"}}
	repo := NewChallengeRepo(fake, "otp_challenges")
	ctx := context.Background()

	require.NoError(t, repo.Consume(ctx, "+919876543210", "hash-1"))
	assert.ErrorIs(t, repo.Consume(ctx, "+919876543210", "hash-1"), domain.ErrNotFound)

	require.Len(t, fake.deletes, 2)
	in := fake.deletes[0]
	assert.Equal(t, "attribute_exists(#d) AND #h = :h", aws.ToString(in.ConditionExpression))
	assert.Equal(t, fieldCodeHash, in.ExpressionAttributeNames["#h"])
}

func TestChallengeRepo_ConsumeKeepsReissuedCode(t *testing.T) {
	fake := &challengeDynamo{hashes: map[string]string{"+919876543210": "hash-2"}}
	repo := NewChallengeRepo(fake, "otp_challenges")

	err := repo.Consume(context.Background(), "+919876543210", "hash-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "hash-2", fake.hashes["+919876543210"])
}

func TestChallengeRepo_DeleteIsUnconditional(t *testing.T) {
	fake := &challengeDynamo{hashes: map[string]string{}}
	repo := NewChallengeRepo(fake, "otp_challenges")

	require.NoError(t, repo.Delete(context.Background(), "+919876543210"))
	assert.Nil(t, fake.deletes[0].ConditionExpression)
}
