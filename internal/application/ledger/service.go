package ledger

import (
	"context"
	"time"

	"github.com/walleto-api/internal/domain"
)

// Service is the per-user ledger: accounts, categories, budgets, transactions and the dashboard.
// Every operation is scoped to userID; items owned by someone else read as ErrNotFound.
type Service interface {
	CreateAccount(ctx context.Context, userID string, req domain.CreateAccountRequest) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	TotalBalance(ctx context.Context, userID string) (float64, error)

	CreateCategory(ctx context.Context, userID string, req domain.CreateCategoryRequest) (*domain.Category, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, patch domain.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error

	CreateBudget(ctx context.Context, userID string, req domain.CreateBudgetRequest) (*domain.Budget, error)
	// ListBudgets returns the budgets of one month with their spending. Zero month or
	// year default to the current one.
	ListBudgets(ctx context.Context, userID string, month, year int) ([]domain.BudgetWithSpending, error)
	GetBudget(ctx context.Context, userID, budgetID string) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, patch domain.BudgetPatch) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error

	CreateTransaction(ctx context.Context, userID string, req domain.CreateTransactionRequest) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionWithDetails, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, patch domain.TransactionPatch) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	MonthlySummary(ctx context.Context, userID string, month, year int) (*domain.MonthlySummary, error)
	// SumAmount totals one transaction type for a month, optionally for a single category.
	SumAmount(ctx context.Context, userID string, f domain.SumFilter) (float64, error)

	Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error)
}

type accountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, userID, accountID string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Account, error)
	Update(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error)
	Delete(ctx context.Context, userID, accountID string) error
	AdjustBalance(ctx context.Context, userID, accountID string, delta float64) error
}

type categoryStore interface {
	Put(ctx context.Context, c *domain.Category) error
	Get(ctx context.Context, userID, categoryID string) (*domain.Category, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Category, error)
	Update(ctx context.Context, userID, categoryID string, patch domain.CategoryPatch) (*domain.Category, error)
	Delete(ctx context.Context, userID, categoryID string) error
}

type budgetStore interface {
	Put(ctx context.Context, b *domain.Budget) error
	Get(ctx context.Context, userID, budgetID string) (*domain.Budget, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Budget, error)
	Update(ctx context.Context, userID, budgetID string, patch domain.BudgetPatch) (*domain.Budget, error)
	Delete(ctx context.Context, userID, budgetID string) error
}

type transactionStore interface {
	Put(ctx context.Context, tx *domain.Transaction) error
	Get(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	Replace(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, userID, transactionID string) error
	List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error)
	Recent(ctx context.Context, userID string, n int) ([]domain.Transaction, error)
	SumAmount(ctx context.Context, userID string, f domain.SumFilter) (float64, error)
}

type service struct {
	accounts     accountStore
	categories   categoryStore
	budgets      budgetStore
	transactions transactionStore
	now          func() time.Time
}

type ServiceDeps struct {
	AccountRepo     accountStore
	CategoryRepo    categoryStore
	BudgetRepo      budgetStore
	TransactionRepo transactionStore
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts:     deps.AccountRepo,
		categories:   deps.CategoryRepo,
		budgets:      deps.BudgetRepo,
		transactions: deps.TransactionRepo,
		now:          now,
	}
}

// currentPeriod fills a zero month or year with the current UTC one.
func (s *service) currentPeriod(month, year int) (int, int) {
	t := s.now().UTC()
	if month == 0 {
		month = int(t.Month())
	}
	if year == 0 {
		year = t.Year()
	}
	return month, year
}
