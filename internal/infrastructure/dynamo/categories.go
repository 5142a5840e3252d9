package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/walleto-api/internal/domain"
)

// CategoryRepo stores spending categories. PK: category_id. GSI user_id-index.
type CategoryRepo struct {
	t ownedTable[domain.Category]
}

func NewCategoryRepo(client *dynamodb.Client, tableName string) *CategoryRepo {
	return &CategoryRepo{t: ownedTable[domain.Category]{client: client, tableName: tableName, pk: "category_id", entity: "category"}}
}

func (r *CategoryRepo) Put(ctx context.Context, c *domain.Category) error { return r.t.put(ctx, c) }

func (r *CategoryRepo) Get(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	return r.t.get(ctx, userID, categoryID)
}

func (r *CategoryRepo) ListByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	return r.t.listByUser(ctx, userID)
}

func (r *CategoryRepo) Update(ctx context.Context, userID, categoryID string, patch domain.CategoryPatch) (*domain.Category, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Icon != nil {
		updates["icon"] = *patch.Icon
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	return r.t.update(ctx, userID, categoryID, updates)
}

func (r *CategoryRepo) Delete(ctx context.Context, userID, categoryID string) error {
	return r.t.delete(ctx, userID, categoryID)
}
