package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jinzhu/now"
	"github.com/walleto-api/internal/domain"
)

// TransactionRepo stores ledger transactions.
// PK: transaction_id. GSI user_id-transaction_date-index for newest-first listings and monthly sums.
type TransactionRepo struct {
	t ownedTable[domain.Transaction]
}

func NewTransactionRepo(client *dynamodb.Client, tableName string) *TransactionRepo {
	return &TransactionRepo{t: ownedTable[domain.Transaction]{client: client, tableName: tableName, pk: "transaction_id", entity: "transaction"}}
}

func (r *TransactionRepo) Put(ctx context.Context, tx *domain.Transaction) error {
	return r.t.put(ctx, tx)
}

func (r *TransactionRepo) Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	return r.t.get(ctx, userID, transactionID)
}

func (r *TransactionRepo) Delete(ctx context.Context, userID, transactionID string) error {
	return r.t.delete(ctx, userID, transactionID)
}

// Replace overwrites a transaction owned by tx.UserID.
func (r *TransactionRepo) Replace(ctx context.Context, tx *domain.Transaction) error {
	item, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = r.t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.t.tableName),
		Item:                      item,
		ConditionExpression:       aws.String("user_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":owner": strVal(tx.UserID)},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("transaction not found: %w", domain.ErrNotFound)
	}
	return err
}

// List returns the user's transactions newest first, filtered and paged by f.
func (r *TransactionRepo) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.t.tableName),
		IndexName:                 aws.String(indexUserDate),
		KeyConditionExpression:    aws.String("user_id = :u"),
		ScanIndexForward:          aws.Bool(false),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	}
	var conds []string
	if f.Type != "" {
		conds = append(conds, "transaction_type = :type")
		input.ExpressionAttributeValues[":type"] = strVal(string(f.Type))
	}
	if f.CategoryID != "" {
		conds = append(conds, "category_id = :cat")
		input.ExpressionAttributeValues[":cat"] = strVal(f.CategoryID)
	}
	if f.AccountID != "" {
		conds = append(conds, "account_id = :acc")
		input.ExpressionAttributeValues[":acc"] = strVal(f.AccountID)
	}
	if len(conds) > 0 {
		input.FilterExpression = aws.String(strings.Join(conds, " AND "))
	}

	items, err := queryAll(ctx, r.t.client, input)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if f.Skip >= len(items) {
		return []domain.Transaction{}, nil
	}
	items = items[f.Skip:]
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	list := []domain.Transaction{}
	if err := attributevalue.UnmarshalListOfMaps(items, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Recent returns the n newest transactions.
func (r *TransactionRepo) Recent(ctx context.Context, userID string, n int) ([]domain.Transaction, error) {
	out, err := r.t.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.t.tableName),
		IndexName:                 aws.String(indexUserDate),
		KeyConditionExpression:    aws.String("user_id = :u"),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(n)),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	list := []domain.Transaction{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SumAmount totals the amounts of one transaction type within a calendar month,
// optionally restricted to a category.
func (r *TransactionRepo) SumAmount(ctx context.Context, userID string, f domain.SumFilter) (float64, error) {
	start, end := monthBounds(f.Year, f.Month)
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.t.tableName),
		IndexName:              aws.String(indexUserDate),
		KeyConditionExpression: aws.String("user_id = :u AND transaction_date BETWEEN :start AND :end"),
		FilterExpression:       aws.String("transaction_type = :type"),
		ProjectionExpression:   aws.String("#amt"),
		ExpressionAttributeNames: map[string]string{
			"#amt": "amount",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u":     strVal(userID),
			":start": unixVal(start),
			":end":   unixVal(end),
			":type":  strVal(string(f.Type)),
		},
	}
	if f.CategoryID != nil {
		input.FilterExpression = aws.String("transaction_type = :type AND category_id = :cat")
		input.ExpressionAttributeValues[":cat"] = strVal(*f.CategoryID)
	}
	items, err := queryAll(ctx, r.t.client, input)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	var rows []struct {
		Amount float64 `dynamodbav:"amount"`
	}
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return 0, err
	}
	total := 0.0
	for _, row := range rows {
		total += row.Amount
	}
	return total, nil
}

// monthBounds returns the first and last second of the given UTC month.
func monthBounds(year, month int) (time.Time, time.Time) {
	ref := now.With(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
	return ref.BeginningOfMonth(), ref.EndOfMonth()
}
