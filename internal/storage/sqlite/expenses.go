package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitease/splitease/internal/models"
	"github.com/splitease/splitease/internal/storage"
)

const expenseColumns = "id, group_id, paid_by, description, amount, category, split_type, settled, date, created_at"

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	e := &models.Expense{}
	err := row.Scan(
		&e.ID, &e.GroupID, &e.PaidBy, &e.Description, &e.Amount,
		&e.Category, &e.SplitType, &e.Settled, &e.Date, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExpense persists an expense with its shares, items and allocations
// in a single transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	if expense.Date == 0 {
		expense.Date = now
	}
	if expense.Category == "" {
		expense.Category = models.DefaultCategory
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.PaidBy, expense.Description, expense.Amount,
		expense.Category, expense.SplitType, expense.Settled, expense.Date, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, expense.ID, expense.Shares); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, expense.ID, expense.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with shares, items and payer identity.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.attachExpenseDetails(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesForUser returns all expenses in the user's groups, newest first.
func (s *SQLiteStore) ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE group_id IN (SELECT group_id FROM group_members WHERE user_id = ?)
		 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return s.collectExpenses(ctx, rows)
}

// ListExpensesByGroup returns a group's expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group expenses: %w", err)
	}
	return s.collectExpenses(ctx, rows)
}

// ListUnsettledExpensesForUser returns unsettled expenses where the user is
// payer or participant, optionally scoped to one group. Shares are attached.
func (s *SQLiteStore) ListUnsettledExpensesForUser(ctx context.Context, userID, groupID string) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses e
		 WHERE e.settled = 0
		   AND (e.paid_by = ? OR EXISTS (
		       SELECT 1 FROM expense_shares es WHERE es.expense_id = e.id AND es.user_id = ?))`
	args := []any{userID, userID}
	if groupID != "" {
		query += " AND e.group_id = ?"
		args = append(args, groupID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled expenses: %w", err)
	}
	return s.collectExpenses(ctx, rows)
}

// UpdateExpense updates the expense fields and, when Shares is non-nil,
// replaces the share rows in the same transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET description = ?, amount = ?, category = ?, split_type = ?, date = ?
		 WHERE id = ?`,
		expense.Description, expense.Amount, expense.Category,
		expense.SplitType, expense.Date, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if expense.Shares != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM expense_shares WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete old shares: %w", err)
		}
		if err := insertShares(ctx, tx, expense.ID, expense.Shares); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceExpenseItems rewrites an expense's items, allocations, derived
// shares and derived amount in a single transaction, closing the race window
// a discrete delete-then-insert sequence would leave open.
func (s *SQLiteStore) ReplaceExpenseItems(ctx context.Context, expenseID string, items []models.ExpenseItem, shares []models.ExpenseShare, amount float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET amount = ?, split_type = ? WHERE id = ?",
		amount, models.SplitItemized, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense amount: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	// Allocations cascade with their items.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense_items WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete old items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense_shares WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete old shares: %w", err)
	}

	if err := insertItems(ctx, tx, expenseID, items); err != nil {
		return err
	}
	if err := insertShares(ctx, tx, expenseID, shares); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetExpenseSettled flips the settled flag.
func (s *SQLiteStore) SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET settled = ? WHERE id = ?", settled, expenseID)
	if err != nil {
		return fmt.Errorf("failed to set settled flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense; shares, items and allocations cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// collectExpenses scans all rows and attaches shares, items and payer info.
func (s *SQLiteStore) collectExpenses(ctx context.Context, rows *sql.Rows) ([]*models.Expense, error) {
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := s.attachExpenseDetails(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// attachExpenseDetails loads shares, items, allocations and payer identity
// for each expense.
func (s *SQLiteStore) attachExpenseDetails(ctx context.Context, expenses []*models.Expense) error {
	for _, expense := range expenses {
		shares, err := s.expenseShares(ctx, expense.ID)
		if err != nil {
			return err
		}
		expense.Shares = shares

		items, err := s.expenseItems(ctx, expense.ID)
		if err != nil {
			return err
		}
		expense.Items = items

		payer, err := s.GetUserByID(ctx, expense.PaidBy)
		if err != nil {
			return err
		}
		if payer != nil {
			identity := payer.Identity()
			expense.Payer = &identity
		}
	}
	return nil
}

func (s *SQLiteStore) expenseShares(ctx context.Context, expenseID string) ([]models.ExpenseShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT es.expense_id, es.user_id, es.share_amount,
		        u.id, u.email, u.first_name, u.last_name
		 FROM expense_shares es
		 JOIN users u ON u.id = es.user_id
		 WHERE es.expense_id = ?
		 ORDER BY es.user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	var shares []models.ExpenseShare
	for rows.Next() {
		var share models.ExpenseShare
		user := &models.User{}
		if err := rows.Scan(&share.ExpenseID, &share.UserID, &share.ShareAmount,
			&user.ID, &user.Email, &user.FirstName, &user.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		share.User = user
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}
	return shares, nil
}

func (s *SQLiteStore) expenseItems(ctx context.Context, expenseID string) ([]models.ExpenseItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, expense_id, name, price, quantity FROM expense_items WHERE expense_id = ?",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.ExpenseItem
	for rows.Next() {
		var item models.ExpenseItem
		if err := rows.Scan(&item.ID, &item.ExpenseID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	for i := range items {
		allocRows, err := s.db.QueryContext(ctx,
			"SELECT user_id FROM item_allocations WHERE item_id = ? ORDER BY user_id",
			items[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get allocations: %w", err)
		}
		for allocRows.Next() {
			var userID string
			if err := allocRows.Scan(&userID); err != nil {
				allocRows.Close()
				return nil, fmt.Errorf("failed to scan allocation: %w", err)
			}
			items[i].AllocatedTo = append(items[i].AllocatedTo, userID)
		}
		err = allocRows.Err()
		allocRows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate allocations: %w", err)
		}
	}
	return items, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID string, shares []models.ExpenseShare) error {
	for _, share := range shares {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, user_id, share_amount) VALUES (?, ?, ?)",
			expenseID, share.UserID, share.ShareAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, expenseID string, items []models.ExpenseItem) error {
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		item.ExpenseID = expenseID

		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_items (id, expense_id, name, price, quantity) VALUES (?, ?, ?, ?, ?)",
			item.ID, expenseID, item.Name, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for _, userID := range item.AllocatedTo {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO item_allocations (item_id, user_id) VALUES (?, ?)",
				item.ID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert allocation: %w", err)
			}
		}
	}
	return nil
}
