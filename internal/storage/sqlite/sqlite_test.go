package sqlite

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/splitease/splitease/internal/models"
	"github.com/splitease/splitease/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitease-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, store *SQLiteStore, email, firstName string) *models.User {
	t.Helper()
	user := models.NewUser(email, firstName, "Tester", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func mustCreateGroup(t *testing.T, store *SQLiteStore, name, creatorID string, memberIDs ...string) *models.Group {
	t.Helper()
	ctx := context.Background()
	group := &models.Group{Name: name, CreatedBy: creatorID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup(%s) failed: %v", name, err)
	}
	for _, id := range memberIDs {
		if err := store.AddMember(ctx, group.ID, id, models.RoleMember); err != nil {
			t.Fatalf("AddMember(%s) failed: %v", id, err)
		}
	}
	return group
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil || got.ID != alice.ID {
			t.Errorf("got %+v, want user %s", got, alice.ID)
		}
	})

	t.Run("GetUserByEmail not found returns nil", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil user, got %+v", got)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Other", "Tester", "hash")
		if err := store.CreateUser(ctx, dup); err == nil {
			t.Error("expected unique constraint error for duplicate email")
		}
	})

	t.Run("GetUsersByIDs omits missing", func(t *testing.T) {
		bob := mustCreateUser(t, store, "bob@example.com", "Bob")
		users, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "missing"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("got %d users, want 2", len(users))
		}
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")

	t.Run("creator becomes admin", func(t *testing.T) {
		group := mustCreateGroup(t, store, "Roommates", alice.ID)

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 1 {
			t.Fatalf("got %d members, want 1", len(got.Members))
		}
		if got.Members[0].Role != models.RoleAdmin {
			t.Errorf("creator role = %s, want admin", got.Members[0].Role)
		}
		if got.Members[0].User == nil || got.Members[0].User.Email != alice.Email {
			t.Error("member identity not attached")
		}
	})

	t.Run("membership queries", func(t *testing.T) {
		group := mustCreateGroup(t, store, "Trip", alice.ID, bob.ID)

		m, err := store.GetMembership(ctx, group.ID, bob.ID)
		if err != nil {
			t.Fatalf("GetMembership failed: %v", err)
		}
		if m == nil || m.Role != models.RoleMember {
			t.Errorf("membership = %+v, want member role", m)
		}

		if err := store.UpdateMemberRole(ctx, group.ID, bob.ID, models.RoleAdmin); err != nil {
			t.Fatalf("UpdateMemberRole failed: %v", err)
		}
		m, _ = store.GetMembership(ctx, group.ID, bob.ID)
		if m.Role != models.RoleAdmin {
			t.Errorf("role = %s, want admin after update", m.Role)
		}

		if err := store.RemoveMember(ctx, group.ID, bob.ID); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}
		m, _ = store.GetMembership(ctx, group.ID, bob.ID)
		if m != nil {
			t.Errorf("membership = %+v, want nil after removal", m)
		}
	})

	t.Run("group totals include expenses", func(t *testing.T) {
		group := mustCreateGroup(t, store, "Dinner Club", alice.ID, bob.ID)

		expense := &models.Expense{
			GroupID:     group.ID,
			PaidBy:      alice.ID,
			Description: "Dinner",
			Amount:      90,
			SplitType:   models.SplitEqual,
			Shares: []models.ExpenseShare{
				{UserID: alice.ID, ShareAmount: 45},
				{UserID: bob.ID, ShareAmount: 45},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if math.Abs(got.TotalExpenses-90) > 1e-9 {
			t.Errorf("totalExpenses = %v, want 90", got.TotalExpenses)
		}

		groups, err := store.ListGroupsForUser(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListGroupsForUser failed: %v", err)
		}
		found := false
		for _, g := range groups {
			if g.ID == group.ID {
				found = true
			}
		}
		if !found {
			t.Error("ListGroupsForUser missing group bob belongs to")
		}
	})

	t.Run("delete group not found", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteGroup error = %v, want ErrNotFound", err)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")
	carol := mustCreateUser(t, store, "carol@example.com", "Carol")
	group := mustCreateGroup(t, store, "Flat", alice.ID, bob.ID, carol.ID)

	t.Run("create and get itemized expense", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			PaidBy:      alice.ID,
			Description: "Groceries",
			Amount:      80,
			SplitType:   models.SplitItemized,
			Shares: []models.ExpenseShare{
				{UserID: bob.ID, ShareAmount: 50},
				{UserID: carol.ID, ShareAmount: 30},
			},
			Items: []models.ExpenseItem{
				{Name: "Steak", Price: 20, Quantity: 1, AllocatedTo: []string{bob.ID}},
				{Name: "Wine", Price: 30, Quantity: 2, AllocatedTo: []string{bob.ID, carol.ID}},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Fatal("expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(got.Shares) != 2 || len(got.Items) != 2 {
			t.Fatalf("got %d shares, %d items; want 2, 2", len(got.Shares), len(got.Items))
		}
		if got.Payer == nil || got.Payer.Email != alice.Email {
			t.Error("payer identity not attached")
		}
		for _, item := range got.Items {
			if item.Name == "Wine" && len(item.AllocatedTo) != 2 {
				t.Errorf("Wine allocations = %v, want 2 users", item.AllocatedTo)
			}
		}
	})

	t.Run("unsettled query covers payer and participant", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			PaidBy:      bob.ID,
			Description: "Taxi",
			Amount:      30,
			SplitType:   models.SplitEqual,
			Shares: []models.ExpenseShare{
				{UserID: bob.ID, ShareAmount: 15},
				{UserID: carol.ID, ShareAmount: 15},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		// carol is a participant, not payer
		expenses, err := store.ListUnsettledExpensesForUser(ctx, carol.ID, group.ID)
		if err != nil {
			t.Fatalf("ListUnsettledExpensesForUser failed: %v", err)
		}
		found := false
		for _, e := range expenses {
			if e.ID == expense.ID {
				found = true
			}
		}
		if !found {
			t.Error("participant's unsettled expense not returned")
		}

		// settling removes it
		if err := store.SetExpenseSettled(ctx, expense.ID, true); err != nil {
			t.Fatalf("SetExpenseSettled failed: %v", err)
		}
		expenses, _ = store.ListUnsettledExpensesForUser(ctx, carol.ID, group.ID)
		for _, e := range expenses {
			if e.ID == expense.ID {
				t.Error("settled expense still returned by unsettled query")
			}
		}
	})

	t.Run("ReplaceExpenseItems rewrites shares and amount atomically", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			PaidBy:      alice.ID,
			Description: "Receipt",
			Amount:      10,
			SplitType:   models.SplitItemized,
			Shares:      []models.ExpenseShare{{UserID: bob.ID, ShareAmount: 10}},
			Items: []models.ExpenseItem{
				{Name: "Coffee", Price: 10, Quantity: 1, AllocatedTo: []string{bob.ID}},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		newItems := []models.ExpenseItem{
			{Name: "Coffee", Price: 10, Quantity: 1, AllocatedTo: []string{bob.ID}},
			{Name: "Cake", Price: 8, Quantity: 1, AllocatedTo: []string{bob.ID, carol.ID}},
		}
		newShares := []models.ExpenseShare{
			{UserID: bob.ID, ShareAmount: 14},
			{UserID: carol.ID, ShareAmount: 4},
		}
		if err := store.ReplaceExpenseItems(ctx, expense.ID, newItems, newShares, 18); err != nil {
			t.Fatalf("ReplaceExpenseItems failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if math.Abs(got.Amount-18) > 1e-9 {
			t.Errorf("amount = %v, want 18", got.Amount)
		}
		if len(got.Items) != 2 || len(got.Shares) != 2 {
			t.Errorf("got %d items, %d shares; want 2, 2", len(got.Items), len(got.Shares))
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			PaidBy:      alice.ID,
			Description: "Short-lived",
			Amount:      5,
			SplitType:   models.SplitEqual,
			Shares:      []models.ExpenseShare{{UserID: bob.ID, ShareAmount: 5}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetExpense error = %v, want ErrNotFound", err)
		}
	})
}

func TestPayments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")
	group := mustCreateGroup(t, store, "Flat", alice.ID, bob.ID)

	global := &models.Payment{FromUserID: alice.ID, ToUserID: bob.ID, Amount: 20, Note: "lunch"}
	if err := store.CreatePayment(ctx, global); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	scoped := &models.Payment{FromUserID: bob.ID, ToUserID: alice.ID, Amount: 12.5, GroupID: group.ID}
	if err := store.CreatePayment(ctx, scoped); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	t.Run("list all payments for a user", func(t *testing.T) {
		payments, err := store.ListPaymentsForUser(ctx, alice.ID, "")
		if err != nil {
			t.Fatalf("ListPaymentsForUser failed: %v", err)
		}
		if len(payments) != 2 {
			t.Fatalf("got %d payments, want 2", len(payments))
		}
		for _, p := range payments {
			if p.From == nil || p.To == nil {
				t.Error("party identities not attached")
			}
		}
	})

	t.Run("group scope filters unscoped payments", func(t *testing.T) {
		payments, err := store.ListPaymentsForUser(ctx, alice.ID, group.ID)
		if err != nil {
			t.Fatalf("ListPaymentsForUser failed: %v", err)
		}
		if len(payments) != 1 || payments[0].ID != scoped.ID {
			t.Errorf("got %v, want only the group-scoped payment", payments)
		}
	})
}
