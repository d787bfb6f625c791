package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/splitease/splitease/internal/ledger"
	"github.com/splitease/splitease/internal/middleware"
	"github.com/splitease/splitease/internal/models"
)

type groupBalancesResponse struct {
	Group   *models.Group `json:"group"`
	Balance ledger.Report `json:"balance"`
}

// getBalances reports the caller's net position against every counterparty
// across all groups.
func (h *Handler) getBalances(w http.ResponseWriter, r *http.Request) {
	report, err := h.buildReport(r.Context(), middleware.GetUserID(r.Context()), "")
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// getGroupBalances reports the caller's net position within a single group.
func (h *Handler) getGroupBalances(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	group, err := h.requireMembership(r.Context(), groupID, userID)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	report, err := h.buildReport(r.Context(), userID, groupID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groupBalancesResponse{Group: group, Balance: report})
}

// buildReport fetches the user's unsettled expenses and payments (optionally
// group-scoped), aggregates them into net balances and attaches counterparty
// identities.
func (h *Handler) buildReport(ctx context.Context, userID, groupID string) (ledger.Report, error) {
	expenses, err := h.store.ListUnsettledExpensesForUser(ctx, userID, groupID)
	if err != nil {
		return ledger.Report{}, err
	}
	payments, err := h.store.ListPaymentsForUser(ctx, userID, groupID)
	if err != nil {
		return ledger.Report{}, err
	}

	ledgerExpenses := make([]ledger.Expense, len(expenses))
	for i, e := range expenses {
		shares := make([]ledger.Share, len(e.Shares))
		for j, s := range e.Shares {
			shares[j] = ledger.Share{UserID: s.UserID, Amount: s.ShareAmount}
		}
		ledgerExpenses[i] = ledger.Expense{PaidBy: e.PaidBy, Settled: e.Settled, Shares: shares}
	}
	ledgerPayments := make([]ledger.Payment, len(payments))
	for i, p := range payments {
		ledgerPayments[i] = ledger.Payment{FromUserID: p.FromUserID, ToUserID: p.ToUserID, Amount: p.Amount}
	}

	net := ledger.Aggregate(userID, ledgerExpenses, ledgerPayments)

	ids := make([]string, 0, len(net))
	for id := range net {
		ids = append(ids, id)
	}
	users, err := h.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return ledger.Report{}, err
	}

	identities := make(map[string]models.User, len(users))
	for id, u := range users {
		identities[id] = u.Identity()
	}
	return ledger.BuildReport(net, identities), nil
}
