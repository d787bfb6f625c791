// Package ledger implements the share allocation and balance computation
// engine. Everything here is a pure, synchronous computation over
// already-fetched data: the caller (the API layer) is responsible for
// membership validation and persistence.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrNoParticipants  = errors.New("split requires at least one participant")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrEmptyAllocation = errors.New("item must be allocated to at least one user")
	ErrShareMismatch   = errors.New("custom shares must sum to the expense amount")
	ErrInvalidSplit    = errors.New("unknown split type")
)

// Share is one participant's portion of an expense's cost.
type Share struct {
	UserID string
	Amount float64
}

// Item is a single line item of an itemized expense. Its cost
// (price * quantity) is split evenly among the allocated users.
type Item struct {
	Name        string
	Price       float64
	Quantity    int
	AllocatedTo []string
}

// Cost returns the item's total cost. A zero or negative quantity is
// treated as one.
func (i Item) Cost() float64 {
	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}
	return i.Price * float64(qty)
}

// EqualShares divides amount evenly among the participants. Repeated user
// IDs count once. The sum of the returned shares equals amount up to float
// rounding.
func EqualShares(amount float64, participants []string) ([]Share, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	seen := make(map[string]struct{}, len(participants))
	unique := make([]string, 0, len(participants))
	for _, userID := range participants {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		unique = append(unique, userID)
	}
	if len(unique) == 0 {
		return nil, ErrNoParticipants
	}

	per := amount / float64(len(unique))
	shares := make([]Share, len(unique))
	for i, userID := range unique {
		shares[i] = Share{UserID: userID, Amount: per}
	}
	return shares, nil
}

// CustomShares builds shares from caller-supplied per-user amounts.
// The amounts must sum to the expense amount within Epsilon.
func CustomShares(amount float64, amounts map[string]float64) ([]Share, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(amounts) == 0 {
		return nil, ErrNoParticipants
	}

	sum := 0.0
	shares := make([]Share, 0, len(amounts))
	for userID, v := range amounts {
		if v < 0 {
			return nil, fmt.Errorf("%w: negative share for user %s", ErrInvalidAmount, userID)
		}
		sum += v
		shares = append(shares, Share{UserID: userID, Amount: v})
	}
	if math.Abs(sum-amount) > Epsilon {
		return nil, fmt.Errorf("%w: shares sum to %.2f, expense is %.2f", ErrShareMismatch, sum, amount)
	}

	sortShares(shares)
	return shares, nil
}

// SharesFromItems derives per-user shares from an itemized receipt and
// returns them together with the derived total amount (sum of item costs).
// An item with an empty allocation set is rejected: accepting it would let
// the total drift away from the sum of shares.
func SharesFromItems(items []Item) ([]Share, float64, error) {
	if len(items) == 0 {
		return nil, 0, fmt.Errorf("%w: itemized expense requires at least one item", ErrNoParticipants)
	}

	total := 0.0
	perUser := make(map[string]float64)
	for _, item := range items {
		if len(item.AllocatedTo) == 0 {
			return nil, 0, fmt.Errorf("%w: %q", ErrEmptyAllocation, item.Name)
		}
		cost := item.Cost()
		total += cost

		per := cost / float64(len(item.AllocatedTo))
		for _, userID := range item.AllocatedTo {
			perUser[userID] += per
		}
	}

	shares := make([]Share, 0, len(perUser))
	for userID, amount := range perUser {
		if amount == 0 {
			continue
		}
		shares = append(shares, Share{UserID: userID, Amount: amount})
	}
	sortShares(shares)
	return shares, total, nil
}

// sortShares orders shares by user ID so output is deterministic.
func sortShares(shares []Share) {
	sort.Slice(shares, func(i, j int) bool { return shares[i].UserID < shares[j].UserID })
}
