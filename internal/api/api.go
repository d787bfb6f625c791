// Package api exposes the SplitEase REST surface. Handlers validate
// membership and permissions, delegate share and balance math to the ledger
// package, and persist through the storage interface.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitease/splitease/internal/auth"
	"github.com/splitease/splitease/internal/middleware"
	"github.com/splitease/splitease/internal/models"
	"github.com/splitease/splitease/internal/storage"
)

// Handler bundles the dependencies shared by all route handlers.
type Handler struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwt           *auth.JWTManager
}

// New creates the API handler.
func New(store storage.Store, authenticator auth.Authenticator, jwt *auth.JWTManager) *Handler {
	return &Handler{
		store:         store,
		authenticator: authenticator,
		jwt:           jwt,
	}
}

// Router assembles the full route tree with middleware.
func (h *Handler) Router(corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		// Everything below requires a session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwt))

			r.Post("/auth/logout", h.logout)
			r.Get("/auth/me", h.me)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", h.createGroup)
				r.Get("/", h.listGroups)
				r.Get("/{groupID}", h.getGroup)
				r.Put("/{groupID}", h.updateGroup)
				r.Delete("/{groupID}", h.deleteGroup)
				r.Get("/{groupID}/expenses", h.listGroupExpenses)
				r.Post("/{groupID}/members", h.addMember)
				r.Patch("/{groupID}/members/{userID}", h.updateMemberRole)
				r.Delete("/{groupID}/members/{userID}", h.removeMember)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", h.createExpense)
				r.Get("/", h.listExpenses)
				r.Get("/{expenseID}", h.getExpense)
				r.Put("/{expenseID}", h.updateExpense)
				r.Delete("/{expenseID}", h.deleteExpense)
				r.Patch("/{expenseID}/settle", h.settleExpense)
				r.Post("/{expenseID}/items", h.addItem)
				r.Put("/{expenseID}/items/{itemID}", h.updateItem)
				r.Delete("/{expenseID}/items/{itemID}", h.deleteItem)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/", h.createPayment)
				r.Get("/", h.listPayments)
			})

			r.Get("/balances", h.getBalances)
			r.Get("/balances/group/{groupID}", h.getGroupBalances)
		})
	})

	return r
}

// requireMembership loads the group and checks the user belongs to it.
func (h *Handler) requireMembership(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := h.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("%w: not a member of this group", errForbidden)
	}
	return group, nil
}

// requireAdmin loads the group and checks the user is one of its admins.
func (h *Handler) requireAdmin(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := h.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range group.Members {
		if m.UserID == userID {
			if m.Role != models.RoleAdmin {
				return nil, fmt.Errorf("%w: admin role required", errForbidden)
			}
			return group, nil
		}
	}
	return nil, fmt.Errorf("%w: not a member of this group", errForbidden)
}
