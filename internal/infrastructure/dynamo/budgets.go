package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/walleto-api/internal/domain"
)

// BudgetRepo stores monthly category budgets. PK: budget_id. GSI user_id-index.
type BudgetRepo struct {
	t ownedTable[domain.Budget]
}

func NewBudgetRepo(client *dynamodb.Client, tableName string) *BudgetRepo {
	return &BudgetRepo{t: ownedTable[domain.Budget]{client: client, tableName: tableName, pk: "budget_id", entity: "budget"}}
}

func (r *BudgetRepo) Put(ctx context.Context, b *domain.Budget) error { return r.t.put(ctx, b) }

func (r *BudgetRepo) Get(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	return r.t.get(ctx, userID, budgetID)
}

func (r *BudgetRepo) ListByUser(ctx context.Context, userID string) ([]domain.Budget, error) {
	return r.t.listByUser(ctx, userID)
}

func (r *BudgetRepo) Update(ctx context.Context, userID, budgetID string, patch domain.BudgetPatch) (*domain.Budget, error) {
	updates := map[string]interface{}{}
	if patch.Amount != nil {
		updates["amount"] = *patch.Amount
	}
	if patch.AlertThreshold != nil {
		updates["alert_threshold"] = *patch.AlertThreshold
	}
	return r.t.update(ctx, userID, budgetID, updates)
}

func (r *BudgetRepo) Delete(ctx context.Context, userID, budgetID string) error {
	return r.t.delete(ctx, userID, budgetID)
}
