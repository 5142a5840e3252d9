package ledger

import (
	"context"

	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/pkg/id"
)

func (s *service) CreateAccount(ctx context.Context, userID string, req domain.CreateAccountRequest) (*domain.Account, error) {
	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	now := s.now().UTC()
	a := &domain.Account{
		AccountID: id.New(),
		UserID:    userID,
		Name:      req.Name,
		Type:      req.Type,
		Balance:   req.Balance,
		Currency:  currency,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]domain.Account, error) {
	all, err := s.accounts.ListByUser(ctx, userID)
	if err != nil || !activeOnly {
		return all, err
	}
	active := make([]domain.Account, 0, len(all))
	for _, a := range all {
		if a.Active {
			active = append(active, a)
		}
	}
	return active, nil
}

func (s *service) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return s.accounts.Get(ctx, userID, accountID)
}

func (s *service) UpdateAccount(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error) {
	return s.accounts.Update(ctx, userID, accountID, patch)
}

func (s *service) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return s.accounts.Delete(ctx, userID, accountID)
}

// TotalBalance sums the balances of active accounts.
func (s *service) TotalBalance(ctx context.Context, userID string) (float64, error) {
	accounts, err := s.ListAccounts(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, a := range accounts {
		total += a.Balance
	}
	return total, nil
}
