package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/splitease/splitease/internal/ledger"
	"github.com/splitease/splitease/internal/middleware"
	"github.com/splitease/splitease/internal/models"
	"github.com/splitease/splitease/internal/storage"
)

type expenseRequest struct {
	GroupID     string           `json:"groupId"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Category    string           `json:"category"`
	Date        int64            `json:"date"`
	SplitType   models.SplitType `json:"splitType"`

	// SplitBetween lists participants for an equal split.
	SplitBetween []string `json:"splitBetween,omitempty"`
	// CustomAmounts maps participant to owed amount for a custom split.
	CustomAmounts map[string]float64 `json:"customAmounts,omitempty"`
	// Items carries the receipt lines for an itemized split.
	Items []itemRequest `json:"items,omitempty"`
}

type itemRequest struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
	AllocatedTo []string `json:"allocatedTo"`
}

type settleRequest struct {
	// Settled defaults to true when omitted.
	Settled *bool `json:"settled"`
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		respondError(w, http.StatusBadRequest, "description is required")
		return
	}

	userID := middleware.GetUserID(r.Context())
	group, err := h.requireMembership(r.Context(), req.GroupID, userID)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	expense := &models.Expense{
		GroupID:     req.GroupID,
		PaidBy:      userID,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
	}
	if expense.Category == "" {
		expense.Category = models.DefaultCategory
	}
	if expense.Date == 0 {
		expense.Date = time.Now().Unix()
	}

	if err := applySplit(expense, &req, group); err != nil {
		respondMappedError(w, err)
		return
	}

	if err := h.store.CreateExpense(r.Context(), expense); err != nil {
		respondMappedError(w, err)
		return
	}

	created, err := h.store.GetExpense(r.Context(), expense.ID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.store.ListExpensesForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (h *Handler) listGroupExpenses(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if _, err := h.requireMembership(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondMappedError(w, err)
		return
	}

	expenses, err := h.store.ListExpensesByGroup(r.Context(), groupID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if expenses == nil {
		expenses = []*models.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	expense, _, err := h.loadExpenseForMember(r, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

// updateExpense edits an expense. The split inputs of equal and custom
// expenses can be changed here; itemized expenses change their split only
// through the item endpoints, which keep the amount derived.
func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	expense, group, err := h.loadExpenseForModify(r, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondMappedError(w, err)
		return
	}

	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Description != "" {
		expense.Description = req.Description
	}
	if req.Category != "" {
		expense.Category = req.Category
	}
	if req.Date != 0 {
		expense.Date = req.Date
	}

	resplit := req.Amount != 0 || len(req.SplitBetween) > 0 || len(req.CustomAmounts) > 0 || req.SplitType != ""
	if resplit || len(req.Items) > 0 {
		if expense.SplitType == models.SplitItemized || req.SplitType == models.SplitItemized || len(req.Items) > 0 {
			respondError(w, http.StatusBadRequest, "itemized splits are edited through the item endpoints")
			return
		}
		if req.SplitType == "" {
			req.SplitType = expense.SplitType
		}
		if req.Amount == 0 {
			req.Amount = expense.Amount
		}
		if err := applySplit(expense, &req, group); err != nil {
			respondMappedError(w, err)
			return
		}
	} else {
		// Leave the share rows untouched.
		expense.Shares = nil
	}

	if err := h.store.UpdateExpense(r.Context(), expense); err != nil {
		respondMappedError(w, err)
		return
	}

	updated, err := h.store.GetExpense(r.Context(), expense.ID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	expense, _, err := h.loadExpenseForModify(r, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if err := h.store.DeleteExpense(r.Context(), expense.ID); err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// settleExpense toggles the settled flag, removing or restoring the expense
// in balance aggregation.
func (h *Handler) settleExpense(w http.ResponseWriter, r *http.Request) {
	expense, _, err := h.loadExpenseForMember(r, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondMappedError(w, err)
		return
	}

	var req settleRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	settled := true
	if req.Settled != nil {
		settled = *req.Settled
	}

	if err := h.store.SetExpenseSettled(r.Context(), expense.ID, settled); err != nil {
		respondMappedError(w, err)
		return
	}
	expense.Settled = settled
	respondJSON(w, http.StatusOK, expense)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "item name is required")
		return
	}

	h.mutateItems(w, r, func(items []models.ExpenseItem) ([]models.ExpenseItem, error) {
		return append(items, models.ExpenseItem{
			Name:        req.Name,
			Price:       req.Price,
			Quantity:    req.Quantity,
			AllocatedTo: req.AllocatedTo,
		}), nil
	})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mutateItems(w, r, func(items []models.ExpenseItem) ([]models.ExpenseItem, error) {
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if req.Name != "" {
				items[i].Name = req.Name
			}
			if req.Price != 0 {
				items[i].Price = req.Price
			}
			if req.Quantity != 0 {
				items[i].Quantity = req.Quantity
			}
			if req.AllocatedTo != nil {
				items[i].AllocatedTo = req.AllocatedTo
			}
			return items, nil
		}
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	})
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	h.mutateItems(w, r, func(items []models.ExpenseItem) ([]models.ExpenseItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	})
}

// mutateItems applies an edit to an itemized expense's item list, re-derives
// the shares and total, and persists the whole result in one transaction so
// the stored amount can never drift from the stored items.
func (h *Handler) mutateItems(w http.ResponseWriter, r *http.Request, edit func([]models.ExpenseItem) ([]models.ExpenseItem, error)) {
	expense, group, err := h.loadExpenseForModify(r, chi.URLParam(r, "expenseID"))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if expense.SplitType != models.SplitItemized {
		respondError(w, http.StatusBadRequest, "expense is not itemized")
		return
	}

	items, err := edit(expense.Items)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if len(items) == 0 {
		respondError(w, http.StatusBadRequest, "an itemized expense needs at least one item")
		return
	}

	for _, item := range items {
		if err := validateParticipants(group, item.AllocatedTo); err != nil {
			respondMappedError(w, err)
			return
		}
	}

	ledgerItems := make([]ledger.Item, len(items))
	for i, item := range items {
		ledgerItems[i] = ledger.Item{
			Name:        item.Name,
			Price:       item.Price,
			Quantity:    item.Quantity,
			AllocatedTo: item.AllocatedTo,
		}
	}
	shares, total, err := ledger.SharesFromItems(ledgerItems)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	if err := h.store.ReplaceExpenseItems(r.Context(), expense.ID, items, toExpenseShares(expense.ID, shares), total); err != nil {
		respondMappedError(w, err)
		return
	}

	updated, err := h.store.GetExpense(r.Context(), expense.ID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// applySplit computes and attaches the expense's shares from the request,
// validating that every participant belongs to the group. The split variant
// is itemized whenever items are present; flat requests default to an equal
// split when splitType is omitted.
func applySplit(expense *models.Expense, req *expenseRequest, group *models.Group) error {
	splitType := req.SplitType
	if len(req.Items) > 0 {
		splitType = models.SplitItemized
	} else if splitType == "" {
		splitType = models.SplitEqual
	}

	switch splitType {
	case models.SplitEqual:
		if err := validateParticipants(group, req.SplitBetween); err != nil {
			return err
		}
		shares, err := ledger.EqualShares(req.Amount, req.SplitBetween)
		if err != nil {
			return err
		}
		expense.Amount = req.Amount
		expense.SplitType = models.SplitEqual
		expense.Shares = toExpenseShares(expense.ID, shares)
		expense.Items = nil

	case models.SplitCustom:
		participants := make([]string, 0, len(req.CustomAmounts))
		for userID := range req.CustomAmounts {
			participants = append(participants, userID)
		}
		if err := validateParticipants(group, participants); err != nil {
			return err
		}
		shares, err := ledger.CustomShares(req.Amount, req.CustomAmounts)
		if err != nil {
			return err
		}
		expense.Amount = req.Amount
		expense.SplitType = models.SplitCustom
		expense.Shares = toExpenseShares(expense.ID, shares)
		expense.Items = nil

	case models.SplitItemized:
		ledgerItems := make([]ledger.Item, len(req.Items))
		for i, item := range req.Items {
			if err := validateParticipants(group, item.AllocatedTo); err != nil {
				return err
			}
			ledgerItems[i] = ledger.Item{
				Name:        item.Name,
				Price:       item.Price,
				Quantity:    item.Quantity,
				AllocatedTo: item.AllocatedTo,
			}
		}
		shares, total, err := ledger.SharesFromItems(ledgerItems)
		if err != nil {
			return err
		}
		expense.Amount = total
		expense.SplitType = models.SplitItemized
		expense.Shares = toExpenseShares(expense.ID, shares)
		expense.Items = make([]models.ExpenseItem, len(req.Items))
		for i, item := range req.Items {
			expense.Items[i] = models.ExpenseItem{
				Name:        item.Name,
				Price:       item.Price,
				Quantity:    item.Quantity,
				AllocatedTo: item.AllocatedTo,
			}
		}

	default:
		return fmt.Errorf("%w: %q", ledger.ErrInvalidSplit, req.SplitType)
	}
	return nil
}

func validateParticipants(group *models.Group, userIDs []string) error {
	for _, id := range userIDs {
		if !group.HasMember(id) {
			return fmt.Errorf("%w: user %s is not a member of the group", errForbidden, id)
		}
	}
	return nil
}

func toExpenseShares(expenseID string, shares []ledger.Share) []models.ExpenseShare {
	out := make([]models.ExpenseShare, len(shares))
	for i, s := range shares {
		out[i] = models.ExpenseShare{ExpenseID: expenseID, UserID: s.UserID, ShareAmount: s.Amount}
	}
	return out
}

// loadExpenseForMember fetches an expense and verifies the caller belongs to
// its group.
func (h *Handler) loadExpenseForMember(r *http.Request, expenseID string) (*models.Expense, *models.Group, error) {
	expense, err := h.store.GetExpense(r.Context(), expenseID)
	if err != nil {
		return nil, nil, err
	}
	group, err := h.requireMembership(r.Context(), expense.GroupID, middleware.GetUserID(r.Context()))
	if err != nil {
		return nil, nil, err
	}
	return expense, group, nil
}

// loadExpenseForModify additionally requires the caller to be the payer or a
// group admin.
func (h *Handler) loadExpenseForModify(r *http.Request, expenseID string) (*models.Expense, *models.Group, error) {
	expense, group, err := h.loadExpenseForMember(r, expenseID)
	if err != nil {
		return nil, nil, err
	}

	userID := middleware.GetUserID(r.Context())
	if expense.PaidBy == userID {
		return expense, group, nil
	}
	for _, m := range group.Members {
		if m.UserID == userID && m.Role == models.RoleAdmin {
			return expense, group, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: only the payer or a group admin can modify this expense", errForbidden)
}
