package dynamo

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-account-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_VerifiedFlag(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldVerified: true})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": fieldVerified}, ue.Names)
	flag, ok := ue.Values[":v0"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	assert.True(t, flag.Value)
}

func TestBuildUpdateExpr_IdentityFieldsSorted(t *testing.T) {
	fields := map[string]interface{}{
		fieldVersion:     int64(3),
		fieldPhoneNumber: "9876543210",
		fieldEmail:       "a@b.com",
	}
	first, err := buildUpdateExpr(fields)
	require.NoError(t, err)
	again, err := buildUpdateExpr(fields)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", first.Expr)
	assert.Equal(t, fieldEmail, first.Names["#f0"])
	assert.Equal(t, fieldPhoneNumber, first.Names["#f1"])
	assert.Equal(t, fieldVersion, first.Names["#f2"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, first.Values[":v2"])
}

func TestBuildUpdateExpr_NothingToSet(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestUpdateItem_RemovesAbsentEmailAndGuardsVersion(t *testing.T) {
	repo := NewIdentityRepo(newFakeDynamo(), "identities", "identity_keys")
	ident := &domain.Identity{
		IdentityID:  "id-1",
		PhoneNumber: strPtr("9876543210"),
		Verified:    true,
		UpdatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Version:     4,
	}

	item, err := repo.updateItem(ident)
	require.NoError(t, err)
	require.NotNil(t, item.Update)
	u := item.Update

	assert.Equal(t, "identities", aws.ToString(u.TableName))
	assert.Equal(t, strKey("identity_id", "id-1"), u.Key)
	// phone_number, updated_at, verified, version in sorted order.
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2, #f3 = :v3 REMOVE #r0", aws.ToString(u.UpdateExpression))
	assert.Equal(t, fieldPhoneNumber, u.ExpressionAttributeNames["#f0"])
	assert.Equal(t, fieldVersion, u.ExpressionAttributeNames["#f3"])
	assert.Equal(t, fieldEmail, u.ExpressionAttributeNames["#r0"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "5"}, u.ExpressionAttributeValues[":v3"])

	assert.Equal(t, "#ver = :expected", aws.ToString(u.ConditionExpression))
	assert.Equal(t, fieldVersion, u.ExpressionAttributeNames["#ver"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "4"}, u.ExpressionAttributeValues[":expected"])
}

func TestUpdateItem_BothIdentifiersSetWithoutRemove(t *testing.T) {
	repo := NewIdentityRepo(newFakeDynamo(), "identities", "identity_keys")
	ident := &domain.Identity{IdentityID: "id-2", PhoneNumber: strPtr("9876543210"), Email: strPtr("a@b.com"), Version: 1}

	item, err := repo.updateItem(ident)
	require.NoError(t, err)
	assert.NotContains(t, aws.ToString(item.Update.UpdateExpression), "REMOVE")
	assert.Equal(t, fieldEmail, item.Update.ExpressionAttributeNames["#f0"])
}

func TestMapWriteErr_CancelledTransaction(t *testing.T) {
	code := "ConditionalCheckFailed"
	tce := &types.TransactionCanceledException{CancellationReasons: []types.CancellationReason{{}, {Code: &code}}}

	assert.ErrorIs(t, mapWriteErr(tce, domain.ErrConflict), domain.ErrConflict)
	assert.NoError(t, mapWriteErr(nil, domain.ErrConflict))

	other := errors.New("throttled")
	assert.Equal(t, other, mapWriteErr(other, domain.ErrConflict))
}
