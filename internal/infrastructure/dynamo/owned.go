package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/walleto-api/internal/domain"
)

// ownedTable holds the operations shared by ledger tables: every item has a
// string hash key and a user_id attribute, and every access is scoped to its owner.
type ownedTable[T any] struct {
	client    *dynamodb.Client
	tableName string
	pk        string
	entity    string
}

func (t ownedTable[T]) put(ctx context.Context, v *T) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", t.entity, err)
	}
	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item:      item,
	})
	return err
}

// get returns the item only when it belongs to userID; otherwise ErrNotFound.
func (t ownedTable[T]) get(ctx context.Context, userID, id string) (*T, error) {
	out, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(t.tableName),
		Key:       strKey(t.pk, id),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil || !ownedBy(out.Item, userID) {
		return nil, fmt.Errorf("%s not found: %w", t.entity, domain.ErrNotFound)
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (t ownedTable[T]) listByUser(ctx context.Context, userID string) ([]T, error) {
	items, err := queryAll(ctx, t.client, &dynamodb.QueryInput{
		TableName:                 aws.String(t.tableName),
		IndexName:                 aws.String(indexUserID),
		KeyConditionExpression:    aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.entity, err)
	}
	list := []T{}
	if err := attributevalue.UnmarshalListOfMaps(items, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// update applies a SET expression to an item owned by userID and returns the new item.
func (t ownedTable[T]) update(ctx context.Context, userID, id string, updates map[string]interface{}) (*T, error) {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	ue.Values[":owner"] = strVal(userID)
	out, err := t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.tableName),
		Key:                       strKey(t.pk, id),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("user_id = :owner"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("%s not found: %w", t.entity, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Attributes, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (t ownedTable[T]) delete(ctx context.Context, userID, id string) error {
	_, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(t.tableName),
		Key:                       strKey(t.pk, id),
		ConditionExpression:       aws.String("user_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":owner": strVal(userID)},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%s not found: %w", t.entity, domain.ErrNotFound)
	}
	return err
}

func ownedBy(item map[string]types.AttributeValue, userID string) bool {
	v, ok := item["user_id"].(*types.AttributeValueMemberS)
	return ok && v.Value == userID
}
