package ledger

import (
	"math"
	"sort"

	"github.com/splitease/splitease/internal/models"
)

// Balance entry types. "owed" means the counterparty owes the queried user,
// "owes" means the queried user owes the counterparty.
const (
	TypeOwed = "owed"
	TypeOwes = "owes"
)

// Entry is one counterparty line in a balance report. The JSON field names
// are the contract with the dashboard frontend.
type Entry struct {
	User   models.User `json:"user"`
	Amount float64     `json:"amount"`
	Type   string      `json:"type"`
}

// Report is the externally consumed balance summary for one user.
type Report struct {
	YouOwe       float64 `json:"youOwe"`
	YouAreOwed   float64 `json:"youAreOwed"`
	TotalBalance float64 `json:"totalBalance"`
	Detailed     []Entry `json:"detailed"`
}

// BuildReport classifies an aggregated balance mapping into owe/owed buckets
// and attaches counterparty identity. Entries within Epsilon of zero are
// dropped as float noise. Counterparties missing from users keep a bare
// identity with only the ID set, so a stale reference never hides a debt.
func BuildReport(net map[string]float64, users map[string]models.User) Report {
	report := Report{Detailed: make([]Entry, 0, len(net))}

	for otherID, amount := range net {
		if math.Abs(amount) <= Epsilon {
			continue
		}

		user, ok := users[otherID]
		if !ok {
			user = models.User{ID: otherID}
		}

		entry := Entry{User: user, Amount: amount}
		if amount > 0 {
			entry.Type = TypeOwed
			report.YouAreOwed += amount
		} else {
			entry.Type = TypeOwes
			report.YouOwe += math.Abs(amount)
		}
		report.Detailed = append(report.Detailed, entry)
	}

	sort.Slice(report.Detailed, func(i, j int) bool {
		return report.Detailed[i].User.ID < report.Detailed[j].User.ID
	})

	report.TotalBalance = report.YouAreOwed - report.YouOwe
	return report
}
