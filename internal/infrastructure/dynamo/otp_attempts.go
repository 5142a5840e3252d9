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

// AttemptRepo is the append-only attempt ledger.
// PK: attempt_id. GSI scope-created_at-index on (scope = address#action, created_at).
type AttemptRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttemptRepo(client *dynamodb.Client, tableName string) *AttemptRepo {
	return &AttemptRepo{client: client, tableName: tableName}
}

func (r *AttemptRepo) Put(ctx context.Context, a *domain.AttemptRecord) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// CountSince counts attempts for scope created strictly after since.
func (r *AttemptRepo) CountSince(ctx context.Context, scope string, since time.Time) (int, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexScopeCreatedAt),
		KeyConditionExpression: aws.String("#s = :s AND created_at > :since"),
		Select:                 types.SelectCount,
		ExpressionAttributeNames: map[string]string{
			"#s": "scope",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s":     strVal(scope),
			":since": unixVal(since),
		},
	}
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("count attempts: %w", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

// DeleteOlderThan purges attempts created before cutoff.
func (r *AttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	keys, err := scanKeys(ctx, r.client, r.tableName, "attempt_id",
		"created_at < :cutoff", nil,
		map[string]types.AttributeValue{":cutoff": unixVal(cutoff)},
	)
	if err != nil {
		return 0, err
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}
