package ledger

import (
	"math"
	"testing"

	"github.com/splitease/splitease/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		expenses []Expense
		payments []Payment
		want     map[string]float64
	}{
		{
			name:   "payer is owed every other share",
			userID: "alice",
			expenses: []Expense{
				{
					PaidBy: "alice",
					Shares: []Share{
						{UserID: "alice", Amount: 30},
						{UserID: "bob", Amount: 30},
						{UserID: "carol", Amount: 30},
					},
				},
			},
			want: map[string]float64{"bob": 30, "carol": 30},
		},
		{
			name:   "participant owes their share to the payer",
			userID: "bob",
			expenses: []Expense{
				{
					PaidBy: "alice",
					Shares: []Share{
						{UserID: "alice", Amount: 30},
						{UserID: "bob", Amount: 30},
						{UserID: "carol", Amount: 30},
					},
				},
			},
			want: map[string]float64{"alice": -30},
		},
		{
			name:   "settled expenses are skipped",
			userID: "alice",
			expenses: []Expense{
				{
					PaidBy:  "alice",
					Settled: true,
					Shares:  []Share{{UserID: "bob", Amount: 50}},
				},
			},
			want: map[string]float64{},
		},
		{
			name:   "sent payment cancels debt",
			userID: "alice",
			expenses: []Expense{
				{
					PaidBy: "bob",
					Shares: []Share{
						{UserID: "alice", Amount: 40},
						{UserID: "bob", Amount: 40},
					},
				},
			},
			payments: []Payment{
				{FromUserID: "alice", ToUserID: "bob", Amount: 40},
			},
			want: map[string]float64{"bob": 0},
		},
		{
			name:   "received payment reduces what the sender owes",
			userID: "alice",
			expenses: []Expense{
				{
					PaidBy: "alice",
					Shares: []Share{
						{UserID: "alice", Amount: 25},
						{UserID: "bob", Amount: 25},
					},
				},
			},
			payments: []Payment{
				{FromUserID: "bob", ToUserID: "alice", Amount: 10},
			},
			want: map[string]float64{"bob": 15},
		},
		{
			name:   "payments always count even without expenses",
			userID: "alice",
			payments: []Payment{
				{FromUserID: "alice", ToUserID: "bob", Amount: 12.5},
			},
			want: map[string]float64{"bob": 12.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.userID, tt.expenses, tt.payments)
			if len(got) != len(tt.want) {
				t.Errorf("got %d counterparties, want %d: %v", len(got), len(tt.want), got)
			}
			for otherID, want := range tt.want {
				if !almostEqual(got[otherID], want) {
					t.Errorf("net[%s] = %v, want %v", otherID, got[otherID], want)
				}
			}
		})
	}
}

// TestAggregateAntisymmetry checks that if X's balance shows +k against Y,
// then Y's balance computed independently shows -k against X.
func TestAggregateAntisymmetry(t *testing.T) {
	expenses := []Expense{
		{
			PaidBy: "alice",
			Shares: []Share{
				{UserID: "alice", Amount: 30},
				{UserID: "bob", Amount: 30},
				{UserID: "carol", Amount: 30},
			},
		},
		{
			PaidBy: "bob",
			Shares: []Share{
				{UserID: "alice", Amount: 12.75},
				{UserID: "bob", Amount: 12.75},
			},
		},
	}
	payments := []Payment{
		{FromUserID: "carol", ToUserID: "alice", Amount: 10},
		{FromUserID: "alice", ToUserID: "bob", Amount: 5},
	}

	users := []string{"alice", "bob", "carol"}
	for _, x := range users {
		netX := Aggregate(x, expenses, payments)
		for _, y := range users {
			if x == y {
				continue
			}
			netY := Aggregate(y, expenses, payments)
			if !almostEqual(netX[y], -netY[x]) {
				t.Errorf("net(%s→%s) = %v, net(%s→%s) = %v, want antisymmetric",
					x, y, netX[y], y, x, netY[x])
			}
		}
	}
}

// TestPaymentCancellation checks that paying exactly the outstanding balance
// drives it to within Epsilon of zero and a second payment flips the sign.
func TestPaymentCancellation(t *testing.T) {
	expenses := []Expense{
		{
			PaidBy: "bob",
			Shares: []Share{
				{UserID: "alice", Amount: 40},
				{UserID: "bob", Amount: 40},
			},
		},
	}
	payment := Payment{FromUserID: "alice", ToUserID: "bob", Amount: 40}

	net := Aggregate("alice", expenses, []Payment{payment})
	if math.Abs(net["bob"]) > Epsilon {
		t.Errorf("balance after exact payment = %v, want within %v of zero", net["bob"], Epsilon)
	}

	report := BuildReport(net, nil)
	if len(report.Detailed) != 0 {
		t.Errorf("settled counterparty should be dropped from detailed, got %v", report.Detailed)
	}

	net = Aggregate("alice", expenses, []Payment{payment, payment})
	if net["bob"] <= 0 {
		t.Errorf("balance after double payment = %v, want positive (bob now owes alice)", net["bob"])
	}
}

func TestBuildReport(t *testing.T) {
	users := map[string]models.User{
		"bob":   {ID: "bob", FirstName: "Bob", Email: "bob@example.com"},
		"carol": {ID: "carol", FirstName: "Carol", Email: "carol@example.com"},
		"dave":  {ID: "dave", FirstName: "Dave", Email: "dave@example.com"},
	}

	t.Run("partitions into owe and owed buckets", func(t *testing.T) {
		net := map[string]float64{
			"bob":   30.0,
			"carol": -12.5,
			"dave":  45.0,
		}
		report := BuildReport(net, users)

		if !almostEqual(report.YouAreOwed, 75.0) {
			t.Errorf("youAreOwed = %v, want 75.0", report.YouAreOwed)
		}
		if !almostEqual(report.YouOwe, 12.5) {
			t.Errorf("youOwe = %v, want 12.5", report.YouOwe)
		}
		if !almostEqual(report.TotalBalance, 62.5) {
			t.Errorf("totalBalance = %v, want 62.5", report.TotalBalance)
		}
		if len(report.Detailed) != 3 {
			t.Fatalf("detailed has %d entries, want 3", len(report.Detailed))
		}
		for _, entry := range report.Detailed {
			wantType := TypeOwed
			if entry.Amount < 0 {
				wantType = TypeOwes
			}
			if entry.Type != wantType {
				t.Errorf("%s type = %q, want %q", entry.User.ID, entry.Type, wantType)
			}
			if entry.User.Email == "" {
				t.Errorf("%s entry missing user identity", entry.User.ID)
			}
		}
	})

	t.Run("noise floor drops near-zero balances", func(t *testing.T) {
		net := map[string]float64{
			"bob":   0.009,
			"carol": -0.01,
			"dave":  0.011,
		}
		report := BuildReport(net, users)

		if len(report.Detailed) != 1 || report.Detailed[0].User.ID != "dave" {
			t.Fatalf("detailed = %v, want only dave", report.Detailed)
		}
		if !almostEqual(report.YouAreOwed, 0.011) || !almostEqual(report.YouOwe, 0) {
			t.Errorf("totals = (%v, %v), want (0.011, 0)", report.YouAreOwed, report.YouOwe)
		}
	})

	t.Run("unknown counterparty keeps a bare identity", func(t *testing.T) {
		report := BuildReport(map[string]float64{"ghost": 5.0}, users)
		if len(report.Detailed) != 1 || report.Detailed[0].User.ID != "ghost" {
			t.Fatalf("detailed = %v, want bare ghost entry", report.Detailed)
		}
	})

	t.Run("empty mapping yields empty detailed not nil", func(t *testing.T) {
		report := BuildReport(map[string]float64{}, nil)
		if report.Detailed == nil {
			t.Error("detailed should be an empty slice, not nil")
		}
		if report.TotalBalance != 0 {
			t.Errorf("totalBalance = %v, want 0", report.TotalBalance)
		}
	})
}

// TestDinnerScenario walks the canonical three-person dinner: $90 paid by
// alice, split equally among alice, bob and carol.
func TestDinnerScenario(t *testing.T) {
	shares, err := EqualShares(90.0, []string{"alice", "bob", "carol"})
	if err != nil {
		t.Fatalf("EqualShares failed: %v", err)
	}

	expenses := []Expense{{PaidBy: "alice", Shares: shares}}
	report := BuildReport(Aggregate("alice", expenses, nil), nil)

	if !almostEqual(report.YouAreOwed, 60.0) {
		t.Errorf("youAreOwed = %v, want 60.0", report.YouAreOwed)
	}
	if !almostEqual(report.YouOwe, 0) {
		t.Errorf("youOwe = %v, want 0", report.YouOwe)
	}
	if len(report.Detailed) != 2 {
		t.Fatalf("detailed has %d entries, want 2", len(report.Detailed))
	}
	for _, entry := range report.Detailed {
		if !almostEqual(entry.Amount, 30.0) || entry.Type != TypeOwed {
			t.Errorf("entry %s = (%v, %s), want (30.0, owed)", entry.User.ID, entry.Amount, entry.Type)
		}
	}
}

// TestItemizedScenario: item1 ($20 x1 for bob) and item2 ($30 x2 for bob and
// carol) paid by alice: total $80, bob owes 50, carol owes 30.
func TestItemizedScenario(t *testing.T) {
	shares, total, err := SharesFromItems([]Item{
		{Name: "item1", Price: 20, Quantity: 1, AllocatedTo: []string{"bob"}},
		{Name: "item2", Price: 30, Quantity: 2, AllocatedTo: []string{"bob", "carol"}},
	})
	if err != nil {
		t.Fatalf("SharesFromItems failed: %v", err)
	}
	if !almostEqual(total, 80.0) {
		t.Errorf("total = %v, want 80.0", total)
	}

	net := Aggregate("alice", []Expense{{PaidBy: "alice", Shares: shares}}, nil)
	if !almostEqual(net["bob"], 50.0) {
		t.Errorf("bob owes %v, want 50.0", net["bob"])
	}
	if !almostEqual(net["carol"], 30.0) {
		t.Errorf("carol owes %v, want 30.0", net["carol"])
	}
}
