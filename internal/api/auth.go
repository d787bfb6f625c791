package api

import (
	"net/http"

	"github.com/splitease/splitease/internal/middleware"
	"github.com/splitease/splitease/internal/models"
)

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.FirstName == "" {
		respondError(w, http.StatusBadRequest, "email and firstName are required")
		return
	}

	user, err := h.authenticator.Register(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	h.startSession(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	h.startSession(w, http.StatusOK, user)
}

func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.store.GetUserByID(r.Context(), userID)
	if err != nil {
		respondMappedError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, user.Identity())
}

// startSession issues a token and delivers it both in the body and as a
// cookie, so browser and API clients can each use their preferred transport.
func (h *Handler) startSession(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.jwt.Generate(user)
	if err != nil {
		respondMappedError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, status, sessionResponse{User: user.Identity(), Token: token})
}
