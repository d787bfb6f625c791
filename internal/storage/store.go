// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitease/splitease/internal/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface for the SplitEase backend. The
// abstraction keeps the API layer free of SQL and lets tests swap backends.
//
// Methods that mutate an expense's shares do so atomically: shares have no
// independent lifecycle and are always replaced wholesale together with the
// data they are derived from.
type Store interface {
	// Users

	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns (nil, nil) when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns (nil, nil) when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUsersByIDs returns a map of user ID to user; missing IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// Groups and memberships

	// CreateGroup persists the group and its creator's admin membership.
	CreateGroup(ctx context.Context, group *models.Group) error
	// GetGroup returns the group with memberships and member identities.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	// ListGroupsForUser returns the groups the user belongs to, newest
	// first, with memberships and aggregate expense totals attached.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, groupID, name, description string) error
	DeleteGroup(ctx context.Context, groupID string) error
	// GetMembership returns (nil, nil) when the user is not a member.
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	AddMember(ctx context.Context, groupID, userID string, role models.Role) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	UpdateMemberRole(ctx context.Context, groupID, userID string, role models.Role) error

	// Expenses

	// CreateExpense persists the expense together with its shares, items and
	// item allocations in a single transaction.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	// GetExpense returns the expense with shares, items and payer identity.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	// ListExpensesForUser returns all expenses in the user's groups, newest
	// first.
	ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error)
	// ListExpensesByGroup returns the group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// UpdateExpense updates the expense fields and, when expense.Shares is
	// non-nil, replaces all share rows in the same transaction.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	// ReplaceExpenseItems rewrites an itemized expense's items, allocations,
	// derived shares and derived amount in a single transaction.
	ReplaceExpenseItems(ctx context.Context, expenseID string, items []models.ExpenseItem, shares []models.ExpenseShare, amount float64) error
	SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error
	DeleteExpense(ctx context.Context, expenseID string) error
	// ListUnsettledExpensesForUser returns unsettled expenses where the user
	// is the payer or appears in the shares, optionally scoped to a group
	// (empty groupID means no scope). Shares are attached.
	ListUnsettledExpensesForUser(ctx context.Context, userID, groupID string) ([]*models.Expense, error)

	// Payments

	CreatePayment(ctx context.Context, payment *models.Payment) error
	// ListPaymentsForUser returns payments where the user is sender or
	// recipient, optionally scoped to a group, newest first.
	ListPaymentsForUser(ctx context.Context, userID, groupID string) ([]*models.Payment, error)

	// Close releases any resources held by the store.
	Close() error
}
