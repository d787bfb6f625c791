package ledger

// Epsilon is the noise floor for monetary comparisons. Balances whose
// absolute value is at or below Epsilon are treated as settled and dropped
// from reports.
const Epsilon = 0.01

// Expense carries the minimal expense information needed for balance
// aggregation.
type Expense struct {
	PaidBy  string
	Settled bool
	Shares  []Share
}

// Payment carries the minimal payment information needed for balance
// aggregation. Payments are atomic completed transfers and are never
// filtered by any settled flag.
type Payment struct {
	FromUserID string
	ToUserID   string
	Amount     float64
}

// Aggregate computes the signed net balance of userID against every
// counterparty appearing in the given expenses and payments.
//
// Sign convention: positive means the counterparty owes userID, negative
// means userID owes the counterparty.
//
//   - Expense paid by userID: every other participant's share is added to
//     that participant's balance. The payer never owes their own share.
//   - Expense paid by someone else: userID's own share is subtracted from
//     the payer's balance.
//   - Payment sent by userID: cancels debt, added to the recipient's balance.
//   - Payment received by userID: subtracted from the sender's balance.
//
// Settled expenses are skipped; payments always count.
func Aggregate(userID string, expenses []Expense, payments []Payment) map[string]float64 {
	net := make(map[string]float64)

	for _, e := range expenses {
		if e.Settled {
			continue
		}
		if e.PaidBy == userID {
			for _, s := range e.Shares {
				if s.UserID == userID {
					continue
				}
				net[s.UserID] += s.Amount
			}
			continue
		}
		for _, s := range e.Shares {
			if s.UserID == userID {
				net[e.PaidBy] -= s.Amount
				break
			}
		}
	}

	for _, p := range payments {
		switch userID {
		case p.FromUserID:
			net[p.ToUserID] += p.Amount
		case p.ToUserID:
			net[p.FromUserID] -= p.Amount
		}
	}

	return net
}
