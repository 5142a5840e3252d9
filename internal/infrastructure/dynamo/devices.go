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

// TrustedDeviceRepo provides typed DynamoDB operations for the trusted_devices table.
// PK: token_hash. GSI user_id-index.
type TrustedDeviceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTrustedDeviceRepo(client *dynamodb.Client, tableName string) *TrustedDeviceRepo {
	return &TrustedDeviceRepo{client: client, tableName: tableName}
}

func (r *TrustedDeviceRepo) Put(ctx context.Context, d *domain.TrustedDevice) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal trusted device: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(token_hash)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("device token collision: %w", domain.ErrConflict)
	}
	return err
}

// Touch refreshes last_used_at on an active, unexpired device owned by userID.
// It returns false without error when no such device exists. Expiry is left untouched.
func (r *TrustedDeviceRepo) Touch(ctx context.Context, tokenHash, userID string, now time.Time) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("token_hash", tokenHash),
		UpdateExpression:         aws.String("SET last_used_at = :now"),
		ConditionExpression:      aws.String("user_id = :u AND #a = :t AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{"#a": fieldActive},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": unixVal(now),
			":u":   strVal(userID),
			":t":   boolVal(true),
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("touch trusted device: %w", err)
	}
	return true, nil
}

// Revoke deactivates an active device owned by userID. It returns false when
// the device is unknown, belongs to someone else or was already revoked.
func (r *TrustedDeviceRepo) Revoke(ctx context.Context, tokenHash, userID string) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("token_hash", tokenHash),
		UpdateExpression:         aws.String("SET #a = :f"),
		ConditionExpression:      aws.String("user_id = :u AND #a = :t"),
		ExpressionAttributeNames: map[string]string{"#a": fieldActive},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": strVal(userID),
			":t": boolVal(true),
			":f": boolVal(false),
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("revoke trusted device: %w", err)
	}
	return true, nil
}

// ListActive returns the user's active, unexpired devices.
func (r *TrustedDeviceRepo) ListActive(ctx context.Context, userID string, now time.Time) ([]domain.TrustedDevice, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexUserID),
		KeyConditionExpression:   aws.String("user_id = :u"),
		FilterExpression:         aws.String("#a = :t AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{"#a": fieldActive},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":   strVal(userID),
			":t":   boolVal(true),
			":now": unixVal(now),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list trusted devices: %w", err)
	}
	devices := []domain.TrustedDevice{}
	if err := attributevalue.UnmarshalListOfMaps(items, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// DeleteExpired removes devices whose expiry is before now.
func (r *TrustedDeviceRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	keys, err := scanKeys(ctx, r.client, r.tableName, "token_hash",
		"expires_at < :now", nil,
		map[string]types.AttributeValue{":now": unixVal(now)},
	)
	if err != nil {
		return 0, err
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}
