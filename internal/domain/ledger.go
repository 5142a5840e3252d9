package domain

import "time"

type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountCash       AccountType = "cash"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// SignedAmount returns the effect a transaction of this type has on an account balance.
func (t TransactionType) SignedAmount(amount float64) float64 {
	if t == TransactionExpense {
		return -amount
	}
	return amount
}

type Account struct {
	AccountID string      `json:"id" dynamodbav:"account_id"`
	UserID    string      `json:"user_id" dynamodbav:"user_id"`
	Name      string      `json:"name" dynamodbav:"name"`
	Type      AccountType `json:"account_type" dynamodbav:"account_type"`
	Balance   float64     `json:"balance" dynamodbav:"balance"`
	Currency  string      `json:"currency" dynamodbav:"currency"`
	Active    bool        `json:"is_active" dynamodbav:"active"`
	CreatedAt time.Time   `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateAccountRequest struct {
	Name     string      `json:"name" validate:"required,min=1,max=100"`
	Type     AccountType `json:"account_type" validate:"required,oneof=checking savings credit_card cash"`
	Balance  float64     `json:"balance"`
	Currency string      `json:"currency" validate:"omitempty,len=3"`
}

type AccountPatch struct {
	Name     *string      `json:"name" validate:"omitempty,min=1,max=100"`
	Type     *AccountType `json:"account_type" validate:"omitempty,oneof=checking savings credit_card cash"`
	Balance  *float64     `json:"balance"`
	Currency *string      `json:"currency" validate:"omitempty,len=3"`
	Active   *bool        `json:"is_active"`
}

type Category struct {
	CategoryID string    `json:"id" dynamodbav:"category_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Icon       *string   `json:"icon" dynamodbav:"icon"`
	Color      string    `json:"color" dynamodbav:"color"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

const (
	DefaultCategoryColor = "purple"
	DefaultCurrency      = "USD"
)

type CreateCategoryRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=100"`
	Icon  *string `json:"icon" validate:"omitempty,max=50"`
	Color string  `json:"color" validate:"omitempty,max=50"`
}

type CategoryPatch struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Icon  *string `json:"icon" validate:"omitempty,max=50"`
	Color *string `json:"color" validate:"omitempty,max=50"`
}

type Budget struct {
	BudgetID       string    `json:"id" dynamodbav:"budget_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	CategoryID     string    `json:"category_id" dynamodbav:"category_id"`
	Amount         float64   `json:"amount" dynamodbav:"amount"`
	Month          int       `json:"month" dynamodbav:"month"`
	Year           int       `json:"year" dynamodbav:"year"`
	AlertThreshold int       `json:"alert_threshold" dynamodbav:"alert_threshold"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

const DefaultAlertThreshold = 80

type CreateBudgetRequest struct {
	CategoryID     string  `json:"category_id" validate:"required"`
	Amount         float64 `json:"amount" validate:"gt=0"`
	Month          int     `json:"month" validate:"min=1,max=12"`
	Year           int     `json:"year" validate:"min=2020,max=2100"`
	AlertThreshold *int    `json:"alert_threshold" validate:"omitempty,min=0,max=100"`
}

type BudgetPatch struct {
	Amount         *float64 `json:"amount" validate:"omitempty,gt=0"`
	AlertThreshold *int     `json:"alert_threshold" validate:"omitempty,min=0,max=100"`
}

// BudgetWithSpending is a budget joined with its category and the month's expense total.
type BudgetWithSpending struct {
	Budget
	Spent         float64 `json:"spent"`
	Remaining     float64 `json:"remaining"`
	Percentage    float64 `json:"percentage"`
	IsOverBudget  bool    `json:"is_over_budget"`
	CategoryName  string  `json:"category_name"`
	CategoryColor string  `json:"category_color"`
}

type Transaction struct {
	TransactionID   string          `json:"id" dynamodbav:"transaction_id"`
	UserID          string          `json:"user_id" dynamodbav:"user_id"`
	AccountID       *string         `json:"account_id" dynamodbav:"account_id"`
	CategoryID      *string         `json:"category_id" dynamodbav:"category_id"`
	Type            TransactionType `json:"transaction_type" dynamodbav:"transaction_type"`
	Amount          float64         `json:"amount" dynamodbav:"amount"`
	Description     string          `json:"description" dynamodbav:"description"`
	Notes           *string         `json:"notes" dynamodbav:"notes"`
	TransactionDate time.Time       `json:"transaction_date" dynamodbav:"transaction_date,unixtime"`
	CreatedAt       time.Time       `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" dynamodbav:"updated_at"`
}

type CreateTransactionRequest struct {
	AccountID       *string         `json:"account_id"`
	CategoryID      *string         `json:"category_id"`
	Type            TransactionType `json:"transaction_type" validate:"required,oneof=income expense"`
	Amount          float64         `json:"amount" validate:"gt=0"`
	Description     string          `json:"description" validate:"required,min=1,max=200"`
	Notes           *string         `json:"notes" validate:"omitempty,max=1000"`
	TransactionDate *time.Time      `json:"transaction_date"`
}

type TransactionPatch struct {
	AccountID       *string          `json:"account_id"`
	CategoryID      *string          `json:"category_id"`
	Type            *TransactionType `json:"transaction_type" validate:"omitempty,oneof=income expense"`
	Amount          *float64         `json:"amount" validate:"omitempty,gt=0"`
	Description     *string          `json:"description" validate:"omitempty,min=1,max=200"`
	Notes           *string          `json:"notes" validate:"omitempty,max=1000"`
	TransactionDate *time.Time       `json:"transaction_date"`
}

// TransactionWithDetails is a transaction joined with its category and account names.
type TransactionWithDetails struct {
	Transaction
	CategoryName  *string `json:"category_name"`
	CategoryColor *string `json:"category_color"`
	CategoryIcon  *string `json:"category_icon"`
	AccountName   *string `json:"account_name"`
}

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	Skip       int
	Limit      int
	Type       TransactionType
	CategoryID string
	AccountID  string
}

const (
	DefaultTransactionLimit = 100
	MaxTransactionLimit     = 500
)

// SumFilter selects the transactions summed by SumAmount.
type SumFilter struct {
	Type       TransactionType
	CategoryID *string
	Month      int
	Year       int
}

type MonthlySummary struct {
	Month    int     `json:"month"`
	Year     int     `json:"year"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// RecentTransaction is the dashboard rendering of a transaction.
type RecentTransaction struct {
	ID            string  `json:"id"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	CategoryColor string  `json:"category_color"`
	CategoryIcon  string  `json:"category_icon"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
}

type Dashboard struct {
	TotalBalance       float64              `json:"total_balance"`
	MonthlyIncome      float64              `json:"monthly_income"`
	MonthlyExpenses    float64              `json:"monthly_expenses"`
	SavingsRate        float64              `json:"savings_rate"`
	RecentTransactions []RecentTransaction  `json:"recent_transactions"`
	Budgets            []BudgetWithSpending `json:"budgets"`
}
