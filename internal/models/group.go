package models

// Role is a member's role within a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Group represents a named collection of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name"`

	// Description is an optional free-text description.
	Description string `json:"description,omitempty"`

	// CreatedBy is the ID of the user who created the group. The creator
	// becomes the group's first admin.
	CreatedBy string `json:"createdBy"`

	// Members holds the group's memberships. Populated by storage reads.
	Members []Membership `json:"members,omitempty"`

	// TotalExpenses is the sum of all expense amounts in the group.
	// Computed on read, not persisted.
	TotalExpenses float64 `json:"totalExpenses"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// Membership is a (group, user) pair carrying a role.
// Invariant: a group always has at least one admin.
type Membership struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
	Role    Role   `json:"role"`

	// User is the member's identity, attached by storage reads.
	User *User `json:"user,omitempty"`

	// JoinedAt is the Unix timestamp when the user joined the group.
	JoinedAt int64 `json:"joinedAt"`
}

// AdminCount returns the number of admin members in the group.
func (g *Group) AdminCount() int {
	n := 0
	for _, m := range g.Members {
		if m.Role == RoleAdmin {
			n++
		}
	}
	return n
}

// HasMember reports whether the user belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
