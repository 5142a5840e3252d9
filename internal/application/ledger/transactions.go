package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/pkg/id"
)

func (s *service) CreateTransaction(ctx context.Context, userID string, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	if err := s.checkRefs(ctx, userID, req.AccountID, req.CategoryID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	date := now
	if req.TransactionDate != nil {
		date = req.TransactionDate.UTC()
	}
	tx := &domain.Transaction{
		TransactionID:   id.New(),
		UserID:          userID,
		AccountID:       nonEmpty(req.AccountID),
		CategoryID:      nonEmpty(req.CategoryID),
		Type:            req.Type,
		Amount:          req.Amount,
		Description:     req.Description,
		Notes:           req.Notes,
		TransactionDate: date,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.transactions.Put(ctx, tx); err != nil {
		return nil, err
	}
	if tx.AccountID != nil {
		if err := s.accounts.AdjustBalance(ctx, userID, *tx.AccountID, tx.Type.SignedAmount(tx.Amount)); err != nil {
			s.rollbackCreate(ctx, tx)
			return nil, err
		}
	}
	return tx, nil
}

func (s *service) rollbackCreate(ctx context.Context, tx *domain.Transaction) {
	if err := s.transactions.Delete(ctx, tx.UserID, tx.TransactionID); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.TransactionID).Msg("rollback of unbalanced transaction failed")
	}
}

func (s *service) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.TransactionWithDetails, error) {
	if f.Skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrBadRequest)
	}
	switch {
	case f.Limit == 0:
		f.Limit = domain.DefaultTransactionLimit
	case f.Limit < 0 || f.Limit > domain.MaxTransactionLimit:
		return nil, fmt.Errorf("limit must be between 1 and %d: %w", domain.MaxTransactionLimit, domain.ErrBadRequest)
	}
	list, err := s.transactions.List(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	cats, accts, err := s.lookups(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TransactionWithDetails, 0, len(list))
	for _, tx := range list {
		d := domain.TransactionWithDetails{Transaction: tx}
		if tx.CategoryID != nil {
			if c, ok := cats[*tx.CategoryID]; ok {
				d.CategoryName, d.CategoryColor, d.CategoryIcon = &c.Name, &c.Color, c.Icon
			}
		}
		if tx.AccountID != nil {
			if a, ok := accts[*tx.AccountID]; ok {
				d.AccountName = &a.Name
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *service) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	return s.transactions.Get(ctx, userID, transactionID)
}

// UpdateTransaction applies patch and moves the balance effect: the old effect is
// reversed on the old account and the new one applied to the new account.
// An empty account_id or category_id in the patch detaches the transaction.
func (s *service) UpdateTransaction(ctx context.Context, userID, transactionID string, patch domain.TransactionPatch) (*domain.Transaction, error) {
	old, err := s.transactions.Get(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, userID, patch.AccountID, patch.CategoryID); err != nil {
		return nil, err
	}

	next := *old
	if patch.AccountID != nil {
		next.AccountID = nonEmpty(patch.AccountID)
	}
	if patch.CategoryID != nil {
		next.CategoryID = nonEmpty(patch.CategoryID)
	}
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.Amount != nil {
		next.Amount = *patch.Amount
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Notes != nil {
		next.Notes = patch.Notes
	}
	if patch.TransactionDate != nil {
		next.TransactionDate = patch.TransactionDate.UTC()
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.transactions.Replace(ctx, &next); err != nil {
		return nil, err
	}
	if err := s.moveBalance(ctx, userID, old, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *service) moveBalance(ctx context.Context, userID string, old, next *domain.Transaction) error {
	oldEffect := old.Type.SignedAmount(old.Amount)
	newEffect := next.Type.SignedAmount(next.Amount)
	sameAccount := equalRef(old.AccountID, next.AccountID)
	if sameAccount && oldEffect == newEffect {
		return nil
	}
	if sameAccount {
		if next.AccountID == nil {
			return nil
		}
		return s.adjust(ctx, userID, *next.AccountID, newEffect-oldEffect)
	}
	if old.AccountID != nil {
		if err := s.adjust(ctx, userID, *old.AccountID, -oldEffect); err != nil {
			return err
		}
	}
	if next.AccountID != nil {
		return s.adjust(ctx, userID, *next.AccountID, newEffect)
	}
	return nil
}

// adjust tolerates an account that no longer exists.
func (s *service) adjust(ctx context.Context, userID, accountID string, delta float64) error {
	err := s.accounts.AdjustBalance(ctx, userID, accountID, delta)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Str("account_id", accountID).Msg("balance adjustment skipped for missing account")
		return nil
	}
	return err
}

func (s *service) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	tx, err := s.transactions.Get(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.transactions.Delete(ctx, userID, transactionID); err != nil {
		return err
	}
	if tx.AccountID != nil {
		return s.adjust(ctx, userID, *tx.AccountID, -tx.Type.SignedAmount(tx.Amount))
	}
	return nil
}

func (s *service) MonthlySummary(ctx context.Context, userID string, month, year int) (*domain.MonthlySummary, error) {
	month, year = s.currentPeriod(month, year)
	income, err := s.transactions.SumAmount(ctx, userID, domain.SumFilter{Type: domain.TransactionIncome, Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	expenses, err := s.transactions.SumAmount(ctx, userID, domain.SumFilter{Type: domain.TransactionExpense, Month: month, Year: year})
	if err != nil {
		return nil, err
	}
	return &domain.MonthlySummary{
		Month:    month,
		Year:     year,
		Income:   income,
		Expenses: expenses,
		Net:      income - expenses,
	}, nil
}

func (s *service) SumAmount(ctx context.Context, userID string, f domain.SumFilter) (float64, error) {
	f.Month, f.Year = s.currentPeriod(f.Month, f.Year)
	return s.transactions.SumAmount(ctx, userID, f)
}

// checkRefs verifies that non-empty account and category references belong to userID.
func (s *service) checkRefs(ctx context.Context, userID string, accountID, categoryID *string) error {
	if accountID != nil && *accountID != "" {
		if _, err := s.accounts.Get(ctx, userID, *accountID); err != nil {
			return err
		}
	}
	if categoryID != nil && *categoryID != "" {
		if _, err := s.categories.Get(ctx, userID, *categoryID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) lookups(ctx context.Context, userID string) (map[string]domain.Category, map[string]domain.Account, error) {
	cats, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	accts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	byCat := make(map[string]domain.Category, len(cats))
	for _, c := range cats {
		byCat[c.CategoryID] = c
	}
	byAcct := make(map[string]domain.Account, len(accts))
	for _, a := range accts {
		byAcct[a.AccountID] = a
	}
	return byCat, byAcct, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func equalRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
