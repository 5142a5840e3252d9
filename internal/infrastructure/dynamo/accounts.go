package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/walleto-api/internal/domain"
)

// AccountRepo stores financial accounts. PK: account_id. GSI user_id-index.
type AccountRepo struct {
	t ownedTable[domain.Account]
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{t: ownedTable[domain.Account]{client: client, tableName: tableName, pk: "account_id", entity: "account"}}
}

func (r *AccountRepo) Put(ctx context.Context, a *domain.Account) error { return r.t.put(ctx, a) }

func (r *AccountRepo) Get(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return r.t.get(ctx, userID, accountID)
}

func (r *AccountRepo) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	return r.t.listByUser(ctx, userID)
}

func (r *AccountRepo) Update(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Type != nil {
		updates["account_type"] = string(*patch.Type)
	}
	if patch.Balance != nil {
		updates[fieldBalance] = *patch.Balance
	}
	if patch.Currency != nil {
		updates["currency"] = *patch.Currency
	}
	if patch.Active != nil {
		updates[fieldActive] = *patch.Active
	}
	return r.t.update(ctx, userID, accountID, updates)
}

func (r *AccountRepo) Delete(ctx context.Context, userID, accountID string) error {
	return r.t.delete(ctx, userID, accountID)
}

// AdjustBalance atomically adds delta to the account balance.
func (r *AccountRepo) AdjustBalance(ctx context.Context, userID, accountID string, delta float64) error {
	_, err := r.t.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.t.tableName),
		Key:                 strKey("account_id", accountID),
		UpdateExpression:    aws.String("ADD #b :d"),
		ConditionExpression: aws.String("user_id = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#b": fieldBalance,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d":     &types.AttributeValueMemberN{Value: strconv.FormatFloat(delta, 'f', -1, 64)},
			":owner": strVal(userID),
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	return err
}
