package calculator

import (
	"reflect"
	"testing"
)

func TestOptimize(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]int64
		want     []Instruction
	}{
		{
			name:     "all zero balances yield no instructions",
			balances: map[string]int64{"A": 0, "B": 0, "C": 0},
			want:     nil,
		},
		{
			name:     "single pair collapses to one instruction",
			balances: map[string]int64{"A": 70, "B": -70},
			want:     []Instruction{{DebtorID: "B", CreditorID: "A", Amount: 70}},
		},
		{
			name:     "two equal debtors pay one creditor, lower id first",
			balances: map[string]int64{"A": 60, "B": -30, "C": -30},
			want: []Instruction{
				{DebtorID: "B", CreditorID: "A", Amount: 30},
				{DebtorID: "C", CreditorID: "A", Amount: 30},
			},
		},
		{
			name:     "largest debtor matched with largest creditor",
			balances: map[string]int64{"A": 100, "B": 20, "C": -90, "D": -30},
			want: []Instruction{
				{DebtorID: "C", CreditorID: "A", Amount: 90},
				{DebtorID: "D", CreditorID: "B", Amount: 20},
				{DebtorID: "D", CreditorID: "A", Amount: 10},
			},
		},
		{
			name:     "zero-balance members are dropped",
			balances: map[string]int64{"A": 15, "B": 0, "C": -15},
			want:     []Instruction{{DebtorID: "C", CreditorID: "A", Amount: 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats, err := Optimize(tt.balances)
			if err != nil {
				t.Fatalf("Optimize() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Optimize() = %v, want %v", got, tt.want)
			}

			if stats.TransactionCount != len(got) {
				t.Errorf("stats.TransactionCount = %d, want %d", stats.TransactionCount, len(got))
			}
			var flow int64
			for _, in := range got {
				flow += in.Amount
			}
			if stats.TotalFlow != flow {
				t.Errorf("stats.TotalFlow = %d, want %d", stats.TotalFlow, flow)
			}
		})
	}
}

// Applying every instruction must drive each balance to exactly zero, and
// the instruction count is bounded by nonzero members minus one.
func TestOptimizeProperties(t *testing.T) {
	cases := []map[string]int64{
		{"A": 1, "B": -1},
		{"A": 333, "B": -111, "C": -111, "D": -111},
		{"A": 5000, "B": -2999, "C": -2001},
		{"A": 7, "B": 13, "C": 29, "D": -17, "E": -32},
		{"A": 1, "B": 2, "C": 3, "D": -1, "E": -2, "F": -3},
	}

	for _, balances := range cases {
		instructions, _, err := Optimize(balances)
		if err != nil {
			t.Fatalf("Optimize(%v) error: %v", balances, err)
		}

		remaining := make(map[string]int64, len(balances))
		nonzero := 0
		for id, b := range balances {
			remaining[id] = b
			if b != 0 {
				nonzero++
			}
		}
		for _, in := range instructions {
			if in.Amount <= 0 {
				t.Fatalf("Optimize(%v) emitted non-positive amount %d", balances, in.Amount)
			}
			remaining[in.DebtorID] += in.Amount
			remaining[in.CreditorID] -= in.Amount
		}
		for id, r := range remaining {
			if r != 0 {
				t.Errorf("Optimize(%v): member %s left at %d", balances, id, r)
			}
		}
		if nonzero > 0 && len(instructions) > nonzero-1 {
			t.Errorf("Optimize(%v): %d instructions exceeds bound %d", balances, len(instructions), nonzero-1)
		}
	}
}

// The same balances must always produce the same instruction sequence,
// regardless of map iteration order.
func TestOptimizeDeterminism(t *testing.T) {
	balances := map[string]int64{"A": 40, "B": 40, "C": -20, "D": -20, "E": -40}

	first, _, err := Optimize(balances)
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, _, err := Optimize(balances)
		if err != nil {
			t.Fatalf("Optimize() error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Optimize() not deterministic: %v then %v", first, again)
		}
	}
}
