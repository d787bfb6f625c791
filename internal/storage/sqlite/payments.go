package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitease/splitease/internal/models"
)

// CreatePayment persists a settlement payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if payment.CreatedAt == 0 {
		payment.CreatedAt = now
	}
	if payment.Date == 0 {
		payment.Date = now
	}

	var groupID, note any
	if payment.GroupID != "" {
		groupID = payment.GroupID
	}
	if payment.Note != "" {
		note = payment.Note
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, from_user_id, to_user_id, amount, group_id, date, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.FromUserID, payment.ToUserID, payment.Amount,
		groupID, payment.Date, note, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// ListPaymentsForUser returns payments where the user is sender or
// recipient, optionally scoped to a group, newest first. Party identities
// are attached.
func (s *SQLiteStore) ListPaymentsForUser(ctx context.Context, userID, groupID string) ([]*models.Payment, error) {
	query := `SELECT id, from_user_id, to_user_id, amount, group_id, date, note, created_at
		 FROM payments
		 WHERE (from_user_id = ? OR to_user_id = ?)`
	args := []any{userID, userID}
	if groupID != "" {
		query += " AND group_id = ?"
		args = append(args, groupID)
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	partyIDs := make(map[string]struct{})
	for rows.Next() {
		p := &models.Payment{}
		var gid, note sql.NullString
		if err := rows.Scan(&p.ID, &p.FromUserID, &p.ToUserID, &p.Amount,
			&gid, &p.Date, &note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.GroupID = gid.String
		p.Note = note.String
		payments = append(payments, p)
		partyIDs[p.FromUserID] = struct{}{}
		partyIDs[p.ToUserID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	ids := make([]string, 0, len(partyIDs))
	for id := range partyIDs {
		ids = append(ids, id)
	}
	users, err := s.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if u, ok := users[p.FromUserID]; ok {
			identity := u.Identity()
			p.From = &identity
		}
		if u, ok := users[p.ToUserID]; ok {
			identity := u.Identity()
			p.To = &identity
		}
	}
	return payments, nil
}
