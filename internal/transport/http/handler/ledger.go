package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/walleto-api/internal/application/ledger"
	"github.com/walleto-api/internal/domain"
)

// LedgerHandler serves accounts, categories, budgets, transactions and the dashboard.
// Every route is scoped to the caller; another user's ids read as 404.
type LedgerHandler struct {
	svc ledger.Service
}

func NewLedgerHandler(svc ledger.Service) *LedgerHandler { return &LedgerHandler{svc: svc} }

// ── accounts ──

func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req domain.CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.CreateAccount(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	activeOnly := true
	if raw := r.URL.Query().Get("active_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "query parameter 'active_only' must be a boolean")
			return
		}
		activeOnly = v
	}
	list, err := h.svc.ListAccounts(r.Context(), userID, activeOnly)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.GetAccount(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *LedgerHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var patch domain.AccountPatch
	if !decode(w, r, &patch) {
		return
	}
	a, err := h.svc.UpdateAccount(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *LedgerHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Account deleted successfully"})
}

// ── categories ──

func (h *LedgerHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req domain.CreateCategoryRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *LedgerHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListCategories(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LedgerHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetCategory(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *LedgerHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var patch domain.CategoryPatch
	if !decode(w, r, &patch) {
		return
	}
	c, err := h.svc.UpdateCategory(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *LedgerHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Category deleted successfully"})
}

// ── budgets ──

func (h *LedgerHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req domain.CreateBudgetRequest
	if !decode(w, r, &req) {
		return
	}
	b, err := h.svc.CreateBudget(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *LedgerHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	month, year, ok := period(w, r)
	if !ok {
		return
	}
	list, err := h.svc.ListBudgets(r.Context(), userID, month, year)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LedgerHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.GetBudget(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *LedgerHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var patch domain.BudgetPatch
	if !decode(w, r, &patch) {
		return
	}
	b, err := h.svc.UpdateBudget(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *LedgerHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBudget(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Budget deleted successfully"})
}

// ── transactions ──

func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req domain.CreateTransactionRequest
	if !decode(w, r, &req) {
		return
	}
	tx, err := h.svc.CreateTransaction(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	skip, err := queryInt(r, "skip", 0, 0, math.MaxInt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", domain.DefaultTransactionLimit, 1, domain.MaxTransactionLimit)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	typ := domain.TransactionType(q.Get("type"))
	if typ != "" && typ != domain.TransactionIncome && typ != domain.TransactionExpense {
		writeError(w, http.StatusUnprocessableEntity, "query parameter 'type' must be income or expense")
		return
	}
	list, err := h.svc.ListTransactions(r.Context(), userID, domain.TransactionFilter{
		Skip:       skip,
		Limit:      limit,
		Type:       typ,
		CategoryID: q.Get("category_id"),
		AccountID:  q.Get("account_id"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	tx, err := h.svc.GetTransaction(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var patch domain.TransactionPatch
	if !decode(w, r, &patch) {
		return
	}
	tx, err := h.svc.UpdateTransaction(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Transaction deleted successfully"})
}

func (h *LedgerHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	month, year, ok := period(w, r)
	if !ok {
		return
	}
	sum, err := h.svc.MonthlySummary(r.Context(), userID, month, year)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *LedgerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// period reads optional month and year query parameters; zero means current.
func period(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	month, err := queryInt(r, "month", 0, 1, 12)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return 0, 0, false
	}
	year, err := queryInt(r, "year", 0, 2020, 2100)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return 0, 0, false
	}
	return month, year, true
}
