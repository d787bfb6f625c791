package models

// SplitType describes how an expense's cost is divided among participants.
type SplitType string

const (
	// SplitEqual divides the expense amount evenly among participants.
	SplitEqual SplitType = "equal"
	// SplitCustom uses caller-supplied per-user amounts.
	SplitCustom SplitType = "custom"
	// SplitItemized derives shares from line items and their allocations.
	SplitItemized SplitType = "itemized"
)

// DefaultCategory is used when an expense is created without a category.
const DefaultCategory = "other"

// Expense is a cost incurred by one payer inside a group, owed by a set of
// participants according to its split. For itemized expenses the amount is
// derived from the items and recomputed on every item mutation.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// PaidBy is the ID of the user who paid.
	PaidBy string `json:"paidBy"`

	// Description is the human-readable label for the expense.
	Description string `json:"description"`

	// Amount is the total expense amount. For itemized expenses this equals
	// the sum of price*quantity over all items.
	Amount float64 `json:"amount"`

	// Category is a free-form category label (defaults to "other").
	Category string `json:"category"`

	// SplitType records how the shares were produced.
	SplitType SplitType `json:"splitType"`

	// Settled marks the expense as excluded from balance aggregation.
	Settled bool `json:"settled"`

	// Date is the Unix timestamp of when the expense occurred.
	Date int64 `json:"date"`

	// Shares are the per-participant owed amounts. Fully owned by the
	// expense; replaced wholesale whenever the split changes.
	Shares []ExpenseShare `json:"shares,omitempty"`

	// Items are the line items of an itemized expense.
	Items []ExpenseItem `json:"items,omitempty"`

	// Payer is the payer's identity, attached by storage reads.
	Payer *User `json:"payer,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`
}

// ExpenseShare is one participant's portion of an expense's cost.
type ExpenseShare struct {
	ExpenseID   string  `json:"expenseId"`
	UserID      string  `json:"userId"`
	ShareAmount float64 `json:"shareAmount"`

	// User is the participant's identity, attached by storage reads.
	User *User `json:"user,omitempty"`
}

// ExpenseItem is a single line item on an itemized expense. Its cost
// (price * quantity) is split evenly among its allocated users.
type ExpenseItem struct {
	ID        string  `json:"id"`
	ExpenseID string  `json:"expenseId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`

	// AllocatedTo lists the user IDs sharing this item.
	AllocatedTo []string `json:"allocatedTo"`
}
