package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walleto-api/internal/domain"
)

// memLedger implements every ledger store over maps keyed by id.
type memLedger struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	categories   map[string]*domain.Category
	budgets      map[string]*domain.Budget
	transactions map[string]*domain.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts:     map[string]*domain.Account{},
		categories:   map[string]*domain.Category{},
		budgets:      map[string]*domain.Budget{},
		transactions: map[string]*domain.Transaction{},
	}
}

type memAccounts struct{ *memLedger }
type memCategories struct{ *memLedger }
type memBudgets struct{ *memLedger }
type memTransactions struct{ *memLedger }

func (m memAccounts) Put(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.AccountID] = &cp
	return nil
}

func (m memAccounts) Get(_ context.Context, userID, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m memAccounts) ListByUser(_ context.Context, userID string) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Account{}
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m memAccounts) Update(_ context.Context, userID, id string, p domain.AccountPatch) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	cp := *a
	return &cp, nil
}

func (m memAccounts) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m memAccounts) AdjustBalance(_ context.Context, userID, id string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return domain.ErrNotFound
	}
	a.Balance += delta
	return nil
}

func (m memCategories) Put(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.categories[c.CategoryID] = &cp
	return nil
}

func (m memCategories) Get(_ context.Context, userID, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCategories) ListByUser(_ context.Context, userID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Category{}
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m memCategories) Update(_ context.Context, userID, id string, p domain.CategoryPatch) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	cp := *c
	return &cp, nil
}

func (m memCategories) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return domain.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m memBudgets) Put(_ context.Context, b *domain.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.budgets[b.BudgetID] = &cp
	return nil
}

func (m memBudgets) Get(_ context.Context, userID, id string) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m memBudgets) ListByUser(_ context.Context, userID string) ([]domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Budget{}
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m memBudgets) Update(_ context.Context, userID, id string, p domain.BudgetPatch) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	cp := *b
	return &cp, nil
}

func (m memBudgets) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.budgets, id)
	return nil
}

func (m memTransactions) Put(_ context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.transactions[tx.TransactionID] = &cp
	return nil
}

func (m memTransactions) Get(_ context.Context, userID, id string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m memTransactions) Replace(ctx context.Context, tx *domain.Transaction) error {
	if _, err := m.Get(ctx, tx.UserID, tx.TransactionID); err != nil {
		return err
	}
	return m.Put(ctx, tx)
}

func (m memTransactions) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

func (m memTransactions) sorted(userID string) []domain.Transaction {
	out := []domain.Transaction{}
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.After(out[j].TransactionDate) })
	return out
}

func (m memTransactions) List(_ context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Transaction{}
	for _, tx := range m.sorted(userID) {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.AccountID != "" && (tx.AccountID == nil || *tx.AccountID != f.AccountID) {
			continue
		}
		if f.CategoryID != "" && (tx.CategoryID == nil || *tx.CategoryID != f.CategoryID) {
			continue
		}
		out = append(out, tx)
	}
	if f.Skip >= len(out) {
		return []domain.Transaction{}, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m memTransactions) Recent(_ context.Context, userID string, n int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(userID)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m memTransactions) SumAmount(_ context.Context, userID string, f domain.SumFilter) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, tx := range m.sorted(userID) {
		d := tx.TransactionDate.UTC()
		if tx.Type != f.Type || int(d.Month()) != f.Month || d.Year() != f.Year {
			continue
		}
		if f.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *f.CategoryID) {
			continue
		}
		total += tx.Amount
	}
	return total, nil
}

// --- harness ---

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService() (Service, *memLedger) {
	m := newMemLedger()
	return NewService(ServiceDeps{
		AccountRepo:     memAccounts{m},
		CategoryRepo:    memCategories{m},
		BudgetRepo:      memBudgets{m},
		TransactionRepo: memTransactions{m},
		Now:             func() time.Time { return fixedNow },
	}), m
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func mustAccount(t *testing.T, svc Service, userID string, balance float64) *domain.Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), userID, domain.CreateAccountRequest{
		Name: "Checking", Type: domain.AccountChecking, Balance: balance,
	})
	require.NoError(t, err)
	return a
}

func mustCategory(t *testing.T, svc Service, userID, name string) *domain.Category {
	t.Helper()
	c, err := svc.CreateCategory(context.Background(), userID, domain.CreateCategoryRequest{Name: name})
	require.NoError(t, err)
	return c
}

func balanceOf(t *testing.T, svc Service, userID, accountID string) float64 {
	t.Helper()
	a, err := svc.GetAccount(context.Background(), userID, accountID)
	require.NoError(t, err)
	return a.Balance
}

// --- accounts ---

func TestCreateAccount_Defaults(t *testing.T) {
	svc, _ := newTestService()
	a := mustAccount(t, svc, "u1", 10)
	assert.Equal(t, domain.DefaultCurrency, a.Currency)
	assert.True(t, a.Active)
}

func TestTotalBalance_ActiveOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	mustAccount(t, svc, "u1", 100)
	closed := mustAccount(t, svc, "u1", 50)
	mustAccount(t, svc, "u2", 999)

	inactive := false
	_, err := svc.UpdateAccount(ctx, "u1", closed.AccountID, domain.AccountPatch{Active: &inactive})
	require.NoError(t, err)

	total, err := svc.TotalBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)

	all, err := svc.ListAccounts(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetAccount_OtherUser(t *testing.T) {
	svc, _ := newTestService()
	a := mustAccount(t, svc, "u1", 0)

	_, err := svc.GetAccount(context.Background(), "u2", a.AccountID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- categories ---

func TestCreateCategory_UniqueName(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	c := mustCategory(t, svc, "u1", "Food")
	assert.Equal(t, domain.DefaultCategoryColor, c.Color)

	_, err := svc.CreateCategory(ctx, "u1", domain.CreateCategoryRequest{Name: "food"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.CreateCategory(ctx, "u2", domain.CreateCategoryRequest{Name: "Food"})
	assert.NoError(t, err, "names are unique per user")
}

func TestUpdateCategory_RenameConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	mustCategory(t, svc, "u1", "Food")
	rent := mustCategory(t, svc, "u1", "Rent")

	_, err := svc.UpdateCategory(ctx, "u1", rent.CategoryID, domain.CategoryPatch{Name: strPtr("Food")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := svc.UpdateCategory(ctx, "u1", rent.CategoryID, domain.CategoryPatch{Name: strPtr("Rent")})
	require.NoError(t, err, "keeping its own name is allowed")
	assert.Equal(t, "Rent", updated.Name)
}

// --- transactions ---

func TestTransactions_BalanceLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustAccount(t, svc, "u1", 100)

	income, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		AccountID: strPtr(a.AccountID), Type: domain.TransactionIncome, Amount: 50, Description: "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, balanceOf(t, svc, "u1", a.AccountID))
	assert.Equal(t, fixedNow, income.TransactionDate)

	expense, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		AccountID: strPtr(a.AccountID), Type: domain.TransactionExpense, Amount: 30, Description: "food",
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, balanceOf(t, svc, "u1", a.AccountID))

	_, err = svc.UpdateTransaction(ctx, "u1", expense.TransactionID, domain.TransactionPatch{Amount: floatPtr(40)})
	require.NoError(t, err)
	assert.Equal(t, 110.0, balanceOf(t, svc, "u1", a.AccountID))

	flip := domain.TransactionIncome
	_, err = svc.UpdateTransaction(ctx, "u1", expense.TransactionID, domain.TransactionPatch{Type: &flip})
	require.NoError(t, err)
	assert.Equal(t, 190.0, balanceOf(t, svc, "u1", a.AccountID))

	require.NoError(t, svc.DeleteTransaction(ctx, "u1", expense.TransactionID))
	assert.Equal(t, 150.0, balanceOf(t, svc, "u1", a.AccountID))
}

func TestUpdateTransaction_MovesBetweenAccounts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	from := mustAccount(t, svc, "u1", 100)
	to := mustAccount(t, svc, "u1", 100)

	tx, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		AccountID: strPtr(from.AccountID), Type: domain.TransactionExpense, Amount: 25, Description: "x",
	})
	require.NoError(t, err)

	_, err = svc.UpdateTransaction(ctx, "u1", tx.TransactionID, domain.TransactionPatch{AccountID: strPtr(to.AccountID)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, balanceOf(t, svc, "u1", from.AccountID))
	assert.Equal(t, 75.0, balanceOf(t, svc, "u1", to.AccountID))

	detached, err := svc.UpdateTransaction(ctx, "u1", tx.TransactionID, domain.TransactionPatch{AccountID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, detached.AccountID)
	assert.Equal(t, 100.0, balanceOf(t, svc, "u1", to.AccountID))
}

func TestCreateTransaction_ForeignRefs(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()
	other := mustAccount(t, svc, "u2", 0)
	otherCat := mustCategory(t, svc, "u2", "Food")

	_, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		AccountID: strPtr(other.AccountID), Type: domain.TransactionExpense, Amount: 1, Description: "x",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		CategoryID: strPtr(otherCat.CategoryID), Type: domain.TransactionExpense, Amount: 1, Description: "x",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, m.transactions)
}

func TestListTransactions_LimitsAndDetails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	cat := mustCategory(t, svc, "u1", "Food")
	for i := 0; i < 3; i++ {
		_, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
			CategoryID:      strPtr(cat.CategoryID),
			Type:            domain.TransactionExpense,
			Amount:          float64(i + 1),
			Description:     "x",
			TransactionDate: timePtr(fixedNow.Add(time.Duration(i) * time.Hour)),
		})
		require.NoError(t, err)
	}

	list, err := svc.ListTransactions(ctx, "u1", domain.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 3.0, list[0].Amount, "newest first")
	require.NotNil(t, list[0].CategoryName)
	assert.Equal(t, "Food", *list[0].CategoryName)

	page, err := svc.ListTransactions(ctx, "u1", domain.TransactionFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 2.0, page[0].Amount)

	_, err = svc.ListTransactions(ctx, "u1", domain.TransactionFilter{Limit: domain.MaxTransactionLimit + 1})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestMonthlySummary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	create := func(typ domain.TransactionType, amount float64, at time.Time) {
		_, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
			Type: typ, Amount: amount, Description: "x", TransactionDate: timePtr(at),
		})
		require.NoError(t, err)
	}
	create(domain.TransactionIncome, 1000, fixedNow)
	create(domain.TransactionExpense, 250, fixedNow)
	create(domain.TransactionExpense, 999, fixedNow.AddDate(0, -1, 0))

	sum, err := svc.MonthlySummary(ctx, "u1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.MonthlySummary{Month: 3, Year: 2025, Income: 1000, Expenses: 250, Net: 750}, *sum)
}

// --- budgets ---

func TestBudgets_UniqueAndSpending(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	food := mustCategory(t, svc, "u1", "Food")

	b, err := svc.CreateBudget(ctx, "u1", domain.CreateBudgetRequest{CategoryID: food.CategoryID, Amount: 200, Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAlertThreshold, b.AlertThreshold)

	_, err = svc.CreateBudget(ctx, "u1", domain.CreateBudgetRequest{CategoryID: food.CategoryID, Amount: 300, Month: 3, Year: 2025})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.CreateBudget(ctx, "u1", domain.CreateBudgetRequest{CategoryID: "missing", Amount: 300, Month: 3, Year: 2025})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		CategoryID: strPtr(food.CategoryID), Type: domain.TransactionExpense, Amount: 250, Description: "groceries",
	})
	require.NoError(t, err)

	list, err := svc.ListBudgets(ctx, "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, 250.0, got.Spent)
	assert.Equal(t, -50.0, got.Remaining)
	assert.Equal(t, 125.0, got.Percentage)
	assert.True(t, got.IsOverBudget)
	assert.Equal(t, "Food", got.CategoryName)

	other, err := svc.ListBudgets(ctx, "u1", 4, 2025)
	require.NoError(t, err)
	assert.Empty(t, other)
}

// --- dashboard ---

func TestDashboard(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustAccount(t, svc, "u1", 0)
	food := mustCategory(t, svc, "u1", "Food")

	_, err := svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		AccountID: strPtr(a.AccountID), Type: domain.TransactionIncome, Amount: 2000, Description: "salary",
		TransactionDate: timePtr(fixedNow.Add(-time.Hour)),
	})
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, "u1", domain.CreateTransactionRequest{
		AccountID: strPtr(a.AccountID), CategoryID: strPtr(food.CategoryID), Type: domain.TransactionExpense, Amount: 500, Description: "food",
	})
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, d.TotalBalance)
	assert.Equal(t, 2000.0, d.MonthlyIncome)
	assert.Equal(t, 500.0, d.MonthlyExpenses)
	assert.Equal(t, 75.0, d.SavingsRate)
	require.Len(t, d.RecentTransactions, 2)

	newest := d.RecentTransactions[0]
	assert.Equal(t, -500.0, newest.Amount)
	assert.Equal(t, "Food", newest.Category)
	assert.Equal(t, "2025-03-15", newest.Date)

	oldest := d.RecentTransactions[1]
	assert.Equal(t, "Uncategorized", oldest.Category)
	assert.Equal(t, "gray", oldest.CategoryColor)
	assert.Equal(t, "FiDollarSign", oldest.CategoryIcon)
}

func TestSavingsRate_NoIncome(t *testing.T) {
	assert.Zero(t, savingsRate(0, 100))
	assert.Equal(t, -50.0, savingsRate(100, 150))
}
