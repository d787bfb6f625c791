package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/splitease/splitease/internal/middleware"
	"github.com/splitease/splitease/internal/models"
)

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type memberRoleRequest struct {
	Role models.Role `json:"role"`
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "group name is required")
		return
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   middleware.GetUserID(r.Context()),
	}
	if err := h.store.CreateGroup(r.Context(), group); err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListGroupsForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	respondJSON(w, http.StatusOK, groups)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.requireMembership(r.Context(), chi.URLParam(r, "groupID"), middleware.GetUserID(r.Context()))
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if _, err := h.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondMappedError(w, err)
		return
	}

	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "group name is required")
		return
	}

	if err := h.store.UpdateGroup(r.Context(), groupID, req.Name, req.Description); err != nil {
		respondMappedError(w, err)
		return
	}
	group, err := h.store.GetGroup(r.Context(), groupID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if _, err := h.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondMappedError(w, err)
		return
	}
	if err := h.store.DeleteGroup(r.Context(), groupID); err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// addMember invites an existing account into the group by email.
func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	group, err := h.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context()))
	if err != nil {
		respondMappedError(w, err)
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		respondError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "no account with that email")
		return
	}
	if group.HasMember(user.ID) {
		respondError(w, http.StatusConflict, "user is already a member")
		return
	}

	if err := h.store.AddMember(r.Context(), groupID, user.ID, role); err != nil {
		respondMappedError(w, err)
		return
	}
	group, err = h.store.GetGroup(r.Context(), groupID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, group)
}

func (h *Handler) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	targetID := chi.URLParam(r, "userID")
	group, err := h.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context()))
	if err != nil {
		respondMappedError(w, err)
		return
	}

	var req memberRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		respondError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	// Demoting the last admin would leave the group unmanageable.
	if req.Role == models.RoleMember && group.AdminCount() == 1 {
		for _, m := range group.Members {
			if m.UserID == targetID && m.Role == models.RoleAdmin {
				respondError(w, http.StatusBadRequest, "cannot demote the last admin")
				return
			}
		}
	}

	if err := h.store.UpdateMemberRole(r.Context(), groupID, targetID, req.Role); err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// removeMember removes a member. Admins can remove anyone; a member can
// always leave on their own.
func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	targetID := chi.URLParam(r, "userID")
	userID := middleware.GetUserID(r.Context())

	var group *models.Group
	var err error
	if targetID == userID {
		group, err = h.requireMembership(r.Context(), groupID, userID)
	} else {
		group, err = h.requireAdmin(r.Context(), groupID, userID)
	}
	if err != nil {
		respondMappedError(w, err)
		return
	}

	for _, m := range group.Members {
		if m.UserID == targetID && m.Role == models.RoleAdmin && group.AdminCount() == 1 {
			respondError(w, http.StatusBadRequest, "cannot remove the last admin")
			return
		}
	}

	if err := h.store.RemoveMember(r.Context(), groupID, targetID); err != nil {
		respondMappedError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
