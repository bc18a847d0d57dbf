package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-account-api/internal/domain"
)

const addressOwnerIndex = "user_id-index"

// AddressRepo stores addresses keyed by address_id with a sparse GSI on user_id.
type AddressRepo struct {
	client    API
	tableName string
}

func NewAddressRepo(client API, tableName string) *AddressRepo {
	return &AddressRepo{client: client, tableName: tableName}
}

func (r *AddressRepo) Put(ctx context.Context, a *domain.Address) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AddressRepo) Get(ctx context.Context, addressID string) (*domain.Address, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("address_id", addressID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, notFound("address", addressID)
	}
	var a domain.Address
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return &a, nil
}

// List returns the owner's addresses, or every address when ownerID is empty.
func (r *AddressRepo) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	if ownerID == "" {
		return r.scan(ctx, nil)
	}
	var out []domain.Address
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(addressOwnerIndex),
		KeyConditionExpression:    aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: ownerID}},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Address
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal addresses: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (r *AddressRepo) Delete(ctx context.Context, addressID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("address_id", addressID),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "address_id"},
	})
	if conditionFailed(err) {
		return notFound("address", addressID)
	}
	return err
}

// ClearDefault unsets is_default on every default address of the owner except
// exceptID. An empty ownerID targets addresses that have no owner.
func (r *AddressRepo) ClearDefault(ctx context.Context, ownerID, exceptID string) error {
	var defaults []domain.Address
	var err error
	if ownerID == "" {
		defaults, err = r.scan(ctx, &dynamodb.ScanInput{
			FilterExpression:         aws.String("#def = :t AND attribute_not_exists(#uid)"),
			ExpressionAttributeNames: map[string]string{"#def": fieldIsDefault, "#uid": fieldUserID},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t": &types.AttributeValueMemberBOOL{Value: true},
			},
		})
	} else {
		defaults, err = r.List(ctx, ownerID)
	}
	if err != nil {
		return err
	}

	for _, a := range defaults {
		if !a.IsDefault || a.AddressID == exceptID {
			continue
		}
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey("address_id", a.AddressID),
			UpdateExpression:          aws.String("SET #def = :f"),
			ConditionExpression:       aws.String("attribute_exists(address_id)"),
			ExpressionAttributeNames:  map[string]string{"#def": fieldIsDefault},
			ExpressionAttributeValues: map[string]types.AttributeValue{":f": &types.AttributeValueMemberBOOL{Value: false}},
		})
		// A concurrently deleted address has nothing left to clear.
		if err != nil && !conditionFailed(err) {
			return fmt.Errorf("clear default on %s: %w", a.AddressID, err)
		}
	}
	return nil
}

func (r *AddressRepo) scan(ctx context.Context, in *dynamodb.ScanInput) ([]domain.Address, error) {
	if in == nil {
		in = &dynamodb.ScanInput{}
	}
	in.TableName = aws.String(r.tableName)
	var out []domain.Address
	p := dynamodb.NewScanPaginator(r.client, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Address
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal addresses: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}
