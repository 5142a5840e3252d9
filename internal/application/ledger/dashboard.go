package ledger

import (
	"context"

	"github.com/walleto-api/internal/domain"
)

const (
	recentTransactions = 10

	uncategorizedName  = "Uncategorized"
	uncategorizedColor = "gray"
	uncategorizedIcon  = "FiDollarSign"
)

func (s *service) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	total, err := s.TotalBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := s.MonthlySummary(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	recent, err := s.recent(ctx, userID)
	if err != nil {
		return nil, err
	}
	budgets, err := s.ListBudgets(ctx, userID, summary.Month, summary.Year)
	if err != nil {
		return nil, err
	}
	return &domain.Dashboard{
		TotalBalance:       total,
		MonthlyIncome:      summary.Income,
		MonthlyExpenses:    summary.Expenses,
		SavingsRate:        savingsRate(summary.Income, summary.Expenses),
		RecentTransactions: recent,
		Budgets:            budgets,
	}, nil
}

func savingsRate(income, expenses float64) float64 {
	if income <= 0 {
		return 0
	}
	return (income - expenses) / income * 100
}

func (s *service) recent(ctx context.Context, userID string) ([]domain.RecentTransaction, error) {
	list, err := s.transactions.Recent(ctx, userID, recentTransactions)
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Category, len(cats))
	for _, c := range cats {
		byID[c.CategoryID] = c
	}

	out := make([]domain.RecentTransaction, 0, len(list))
	for _, tx := range list {
		rt := domain.RecentTransaction{
			ID:            tx.TransactionID,
			Description:   tx.Description,
			Amount:        tx.Type.SignedAmount(tx.Amount),
			Category:      uncategorizedName,
			CategoryColor: uncategorizedColor,
			CategoryIcon:  uncategorizedIcon,
			Date:          tx.TransactionDate.UTC().Format("2006-01-02"),
			Type:          string(tx.Type),
		}
		if tx.CategoryID != nil {
			if c, ok := byID[*tx.CategoryID]; ok {
				rt.Category = c.Name
				if c.Color != "" {
					rt.CategoryColor = c.Color
				}
				if c.Icon != nil && *c.Icon != "" {
					rt.CategoryIcon = *c.Icon
				}
			}
		}
		out = append(out, rt)
	}
	return out, nil
}
