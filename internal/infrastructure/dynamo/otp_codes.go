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

// OTPCodeRepo stores one-time codes.
// PK: code_id. GSI scope-index on scope (address#purpose). expires_at is the TTL attribute.
type OTPCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPCodeRepo(client *dynamodb.Client, tableName string) *OTPCodeRepo {
	return &OTPCodeRepo{client: client, tableName: tableName}
}

func (r *OTPCodeRepo) Put(ctx context.Context, c *domain.OneTimeCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal otp code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(code_id)"),
	})
	return err
}

// DeletePending removes every unverified code for scope and returns how many were removed.
func (r *OTPCodeRepo) DeletePending(ctx context.Context, scope string) (int, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexScope),
		KeyConditionExpression: aws.String("#s = :s"),
		FilterExpression:       aws.String("verified = :f"),
		ProjectionExpression:   aws.String("code_id"),
		ExpressionAttributeNames: map[string]string{
			"#s": "scope",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": strVal(scope),
			":f": boolVal(false),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("query pending codes: %w", err)
	}
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, it := range items {
		keys = append(keys, map[string]types.AttributeValue{"code_id": it["code_id"]})
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}

// Consume flips verified=true on the unexpired, unverified code matching scope and code.
// The flip is conditional, so two concurrent verifications of the same code
// cannot both succeed. Returns false when no such code exists.
func (r *OTPCodeRepo) Consume(ctx context.Context, scope, code string, now time.Time) (bool, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexScope),
		KeyConditionExpression: aws.String("#s = :s"),
		FilterExpression:       aws.String("#c = :c AND verified = :f AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{
			"#s": "scope",
			"#c": "code",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":   strVal(scope),
			":c":   strVal(code),
			":f":   boolVal(false),
			":now": unixVal(now),
		},
	})
	if err != nil {
		return false, fmt.Errorf("query code: %w", err)
	}

	for _, it := range items {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(r.tableName),
			Key:                 map[string]types.AttributeValue{"code_id": it["code_id"]},
			UpdateExpression:    aws.String("SET verified = :t"),
			ConditionExpression: aws.String("verified = :f AND expires_at > :now"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":t":   boolVal(true),
				":f":   boolVal(false),
				":now": unixVal(now),
			},
		})
		if err == nil {
			return true, nil
		}
		if !isConditionFailed(err) {
			return false, fmt.Errorf("mark code verified: %w", err)
		}
	}
	return false, nil
}

// DeleteExpired removes every code whose expiry is before now, verified or not.
func (r *OTPCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	keys, err := scanKeys(ctx, r.client, r.tableName, "code_id",
		"expires_at < :now", nil,
		map[string]types.AttributeValue{":now": unixVal(now)},
	)
	if err != nil {
		return 0, err
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}
