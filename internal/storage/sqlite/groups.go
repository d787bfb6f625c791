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

// CreateGroup persists a group and the creator's admin membership in one
// transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var description any
	if group.Description != "" {
		description = group.Description
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, description, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		group.ID, group.CreatedBy, models.RoleAdmin, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	group.Members = []models.Membership{{
		GroupID:  group.ID,
		UserID:   group.CreatedBy,
		Role:     models.RoleAdmin,
		JoinedAt: group.CreatedAt,
	}}
	return nil
}

// GetGroup retrieves a group with its memberships and member identities.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var description sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_by, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &description, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Description = description.String

	members, err := s.groupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE group_id = ?", group.ID,
	).Scan(&group.TotalExpenses); err != nil {
		return nil, fmt.Errorf("failed to sum group expenses: %w", err)
	}

	return group, nil
}

// ListGroupsForUser returns the groups the user belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		var description sql.NullString
		if err := rows.Scan(&group.ID, &group.Name, &description, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group.Description = description.String
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for _, group := range groups {
		members, err := s.groupMembers(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		group.Members = members

		if err := s.db.QueryRowContext(ctx,
			"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE group_id = ?", group.ID,
		).Scan(&group.TotalExpenses); err != nil {
			return nil, fmt.Errorf("failed to sum group expenses: %w", err)
		}
	}

	return groups, nil
}

// UpdateGroup updates the group's name and description.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, groupID, name, description string) error {
	var desc any
	if description != "" {
		desc = description
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET name = ?, description = ? WHERE id = ?",
		name, desc, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// DeleteGroup removes the group; memberships, expenses and shares cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// GetMembership returns the user's membership in the group, or (nil, nil).
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.db.QueryRowContext(ctx,
		"SELECT group_id, user_id, role, joined_at FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	).Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// AddMember inserts a membership row.
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, userID string, role models.Role) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		groupID, userID, role, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership: %w", storage.ErrNotFound)
	}
	return nil
}

// UpdateMemberRole changes a member's role.
func (s *SQLiteStore) UpdateMemberRole(ctx context.Context, groupID, userID string, role models.Role) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE group_members SET role = ? WHERE group_id = ? AND user_id = ?",
		role, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership: %w", storage.ErrNotFound)
	}
	return nil
}

// groupMembers loads the memberships of a group with member identities.
func (s *SQLiteStore) groupMembers(ctx context.Context, groupID string) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at,
		        u.id, u.email, u.first_name, u.last_name
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = ?
		 ORDER BY gm.joined_at`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		user := &models.User{}
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt,
			&user.ID, &user.Email, &user.FirstName, &user.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.User = user
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}
