package api

import (
	"net/http"

	"github.com/splitease/splitease/internal/middleware"
	"github.com/splitease/splitease/internal/models"
)

type paymentRequest struct {
	ToUserID string  `json:"toUserId"`
	Amount   float64 `json:"amount"`
	GroupID  string  `json:"groupId,omitempty"`
	Date     int64   `json:"date,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// createPayment records a settlement transfer from the caller to another
// user. When scoped to a group, both parties must be members.
func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if req.ToUserID == "" {
		respondError(w, http.StatusBadRequest, "toUserId is required")
		return
	}
	if req.ToUserID == userID {
		respondError(w, http.StatusBadRequest, "cannot record a payment to yourself")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	recipient, err := h.store.GetUserByID(r.Context(), req.ToUserID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if recipient == nil {
		respondError(w, http.StatusNotFound, "recipient not found")
		return
	}

	if req.GroupID != "" {
		group, err := h.requireMembership(r.Context(), req.GroupID, userID)
		if err != nil {
			respondMappedError(w, err)
			return
		}
		if !group.HasMember(req.ToUserID) {
			respondError(w, http.StatusBadRequest, "recipient is not a member of the group")
			return
		}
	}

	payment := &models.Payment{
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		GroupID:    req.GroupID,
		Date:       req.Date,
		Note:       req.Note,
	}
	if err := h.store.CreatePayment(r.Context(), payment); err != nil {
		respondMappedError(w, err)
		return
	}

	identity := recipient.Identity()
	payment.To = &identity
	respondJSON(w, http.StatusCreated, payment)
}

// listPayments returns the caller's payments, optionally scoped via the
// groupId query parameter.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := r.URL.Query().Get("groupId")

	if groupID != "" {
		if _, err := h.requireMembership(r.Context(), groupID, userID); err != nil {
			respondMappedError(w, err)
			return
		}
	}

	payments, err := h.store.ListPaymentsForUser(r.Context(), userID, groupID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	respondJSON(w, http.StatusOK, payments)
}
