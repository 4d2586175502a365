package calculator

import (
	"errors"
	"fmt"
)

// ErrSettlementDrift indicates the emitted instructions do not reproduce the
// source balances exactly. Like ErrUnbalancedLedger it is an invariant
// violation: it guards against integer drift from division elsewhere in the
// pipeline and must abort the settlement run rather than emit a partial set.
var ErrSettlementDrift = errors.New("settlement invariant violated: instruction totals do not match balances")

// Instruction is one directed payment: the debtor pays the creditor the
// amount, in minor units.
type Instruction struct {
	DebtorID   string
	CreditorID string
	Amount     int64
}

// Stats summarizes a settlement run for reporting.
type Stats struct {
	// TotalFlow is the sum of all instruction amounts.
	TotalFlow int64

	// TransactionCount is the number of instructions emitted.
	TransactionCount int
}

type party struct {
	id  string
	amt int64 // always positive: credit for creditors, deficit for debtors
}

// Optimize collapses net balances into a minimal set of payment
// instructions using greedy cash-flow minimization: repeatedly match the
// largest creditor with the largest debtor and settle the smaller of the
// two amounts. Ties break toward the lower member ID so the output is
// deterministic. The instruction count is bounded by n-1 where n is the
// number of members with nonzero balance.
//
// A group whose balances are all zero yields an empty sequence; that is the
// already-settled state, not an error.
func Optimize(balances map[string]int64) ([]Instruction, Stats, error) {
	var creditors, debtors []party
	for id, b := range balances {
		switch {
		case b > 0:
			creditors = append(creditors, party{id: id, amt: b})
		case b < 0:
			debtors = append(debtors, party{id: id, amt: -b})
		}
	}

	var instructions []Instruction
	for len(creditors) > 0 && len(debtors) > 0 {
		ci := largest(creditors)
		di := largest(debtors)

		amount := creditors[ci].amt
		if debtors[di].amt < amount {
			amount = debtors[di].amt
		}

		instructions = append(instructions, Instruction{
			DebtorID:   debtors[di].id,
			CreditorID: creditors[ci].id,
			Amount:     amount,
		})

		creditors[ci].amt -= amount
		debtors[di].amt -= amount
		if creditors[ci].amt == 0 {
			creditors = remove(creditors, ci)
		}
		if debtors[di].amt == 0 {
			debtors = remove(debtors, di)
		}
	}

	if err := checkConservation(balances, instructions); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{TransactionCount: len(instructions)}
	for _, in := range instructions {
		stats.TotalFlow += in.Amount
	}
	return instructions, stats, nil
}

// largest returns the index of the party with the greatest amount,
// breaking ties toward the lower ID.
func largest(parties []party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		if parties[i].amt > parties[best].amt ||
			(parties[i].amt == parties[best].amt && parties[i].id < parties[best].id) {
			best = i
		}
	}
	return best
}

func remove(parties []party, i int) []party {
	return append(parties[:i], parties[i+1:]...)
}

// checkConservation verifies that applying every instruction to the source
// balances drives each one to exactly zero.
func checkConservation(balances map[string]int64, instructions []Instruction) error {
	remaining := make(map[string]int64, len(balances))
	for id, b := range balances {
		remaining[id] = b
	}
	for _, in := range instructions {
		remaining[in.DebtorID] += in.Amount
		remaining[in.CreditorID] -= in.Amount
	}
	for id, r := range remaining {
		if r != 0 {
			return fmt.Errorf("%w: member %s left at %d", ErrSettlementDrift, id, r)
		}
	}
	return nil
}
