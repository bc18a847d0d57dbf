package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-account-api/internal/domain"
)

const (
	keyAttr     = "lookup_key"
	phonePrefix = "phone#"
	emailPrefix = "email#"
)

// identityKey is a uniqueness marker: one item per phone number and per email,
// pointing back at the owning identity.
type identityKey struct {
	LookupKey  string `dynamodbav:"lookup_key"`
	IdentityID string `dynamodbav:"identity_id"`
}

// IdentityRepo stores identities in one table and their unique identifiers in
// a second table. Every write touches both in a single transaction, so two
// identities can never claim the same phone number or email.
type IdentityRepo struct {
	client    API
	tableName string
	keysTable string
}

func NewIdentityRepo(client API, tableName, keysTable string) *IdentityRepo {
	return &IdentityRepo{client: client, tableName: tableName, keysTable: keysTable}
}

func (r *IdentityRepo) Get(ctx context.Context, identityID string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("identity_id", identityID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, notFound("identity", identityID)
	}
	var ident domain.Identity
	if err := attributevalue.UnmarshalMap(out.Item, &ident); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &ident, nil
}

// FindByPhone resolves the phone marker and loads the identity it points at.
func (r *IdentityRepo) FindByPhone(ctx context.Context, phone string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.keysTable),
		Key:            strKey(keyAttr, phonePrefix+phone),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identity with phone: %w", domain.ErrNotFound)
	}
	var k identityKey
	if err := attributevalue.UnmarshalMap(out.Item, &k); err != nil {
		return nil, fmt.Errorf("unmarshal identity key: %w", err)
	}
	return r.Get(ctx, k.IdentityID)
}

func (r *IdentityRepo) List(ctx context.Context) ([]domain.Identity, error) {
	var out []domain.Identity
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Identity
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal identities: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Insert creates the identity and claims its identifiers. Any identifier that
// is already claimed cancels the transaction with domain.ErrConflict.
func (r *IdentityRepo) Insert(ctx context.Context, ident *domain.Identity) error {
	ident.Version = 1
	item, err := attributevalue.MarshalMap(ident)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	items := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "identity_id"},
		},
	}}
	if p := ident.PhoneValue(); p != "" {
		items = append(items, r.claim(phonePrefix+p, ident.IdentityID))
	}
	if e := ident.EmailValue(); e != "" {
		items = append(items, r.claim(emailPrefix+e, ident.IdentityID))
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		ident.Version = 0
		return mapWriteErr(err, domain.ErrConflict)
	}
	return nil
}

// Update writes the identity if its stored version still equals ident.Version,
// moving identifier markers when the phone number or email changed.
// A concurrent writer or a taken identifier yields domain.ErrConflict.
func (r *IdentityRepo) Update(ctx context.Context, ident *domain.Identity) error {
	current, err := r.Get(ctx, ident.IdentityID)
	if err != nil {
		return err
	}
	if current.Version != ident.Version {
		return fmt.Errorf("identity %s changed concurrently: %w", ident.IdentityID, domain.ErrConflict)
	}

	update, err := r.updateItem(ident)
	if err != nil {
		return err
	}
	items := []types.TransactWriteItem{update}
	items = append(items, r.moveKey(phonePrefix, current.PhoneValue(), ident.PhoneValue(), ident.IdentityID)...)
	items = append(items, r.moveKey(emailPrefix, current.EmailValue(), ident.EmailValue(), ident.IdentityID)...)

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return mapWriteErr(err, domain.ErrConflict)
	}
	ident.Version++
	return nil
}

func (r *IdentityRepo) updateItem(ident *domain.Identity) (types.TransactWriteItem, error) {
	fields := map[string]interface{}{
		fieldVerified:  ident.Verified,
		fieldUpdatedAt: ident.UpdatedAt,
		fieldVersion:   ident.Version + 1,
	}
	var removes []string
	if p := ident.PhoneValue(); p != "" {
		fields[fieldPhoneNumber] = p
	} else {
		removes = append(removes, fieldPhoneNumber)
	}
	if e := ident.EmailValue(); e != "" {
		fields[fieldEmail] = e
	} else {
		removes = append(removes, fieldEmail)
	}

	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	expr := ue.Expr
	if len(removes) > 0 {
		parts := make([]string, len(removes))
		for i, attr := range removes {
			name := fmt.Sprintf("#r%d", i)
			ue.Names[name] = attr
			parts[i] = name
		}
		expr += " REMOVE " + strings.Join(parts, ", ")
	}
	ue.Names["#ver"] = fieldVersion
	ue.Values[":expected"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ident.Version)}

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey("identity_id", ident.IdentityID),
			UpdateExpression:          aws.String(expr),
			ConditionExpression:       aws.String("#ver = :expected"),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		},
	}, nil
}

// claim puts a marker that must not exist yet.
func (r *IdentityRepo) claim(key, identityID string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(r.keysTable),
			Item: map[string]types.AttributeValue{
				keyAttr:       &types.AttributeValueMemberS{Value: key},
				"identity_id": &types.AttributeValueMemberS{Value: identityID},
			},
			ConditionExpression:      aws.String("attribute_not_exists(#k)"),
			ExpressionAttributeNames: map[string]string{"#k": keyAttr},
		},
	}
}

// release deletes a marker only while it still belongs to identityID.
func (r *IdentityRepo) release(key, identityID string) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName:           aws.String(r.keysTable),
			Key:                 strKey(keyAttr, key),
			ConditionExpression: aws.String("identity_id = :id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":id": &types.AttributeValueMemberS{Value: identityID},
			},
		},
	}
}

func (r *IdentityRepo) moveKey(prefix, from, to, identityID string) []types.TransactWriteItem {
	if from == to {
		return nil
	}
	var items []types.TransactWriteItem
	if from != "" {
		items = append(items, r.release(prefix+from, identityID))
	}
	if to != "" {
		items = append(items, r.claim(prefix+to, identityID))
	}
	return items
}
