package models

// Payment is a direct settlement transfer between two users. It offsets
// outstanding shares but is never itself split: a payment is atomic and
// directional, and balance aggregation always includes it regardless of any
// expense's settled flag.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string `json:"id"`

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string `json:"fromUserId"`

	// ToUserID is the user who received the payment.
	ToUserID string `json:"toUserId"`

	// Amount is the transferred amount.
	Amount float64 `json:"amount"`

	// GroupID optionally scopes the payment to a group.
	GroupID string `json:"groupId,omitempty"`

	// Date is the Unix timestamp of the transfer.
	Date int64 `json:"date"`

	// Note is an optional description.
	Note string `json:"note,omitempty"`

	// From and To are the parties' identities, attached by storage reads.
	From *User `json:"from,omitempty"`
	To   *User `json:"to,omitempty"`

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64 `json:"createdAt"`
}
