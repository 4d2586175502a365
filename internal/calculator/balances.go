package calculator

import (
	"errors"
	"fmt"

	"github.com/hisab/hisab/internal/models"
)

// ErrUnbalancedLedger indicates the balance fold did not sum to zero. It is
// an invariant violation, never an expected outcome of valid input: every
// expense credits and debits the same amount, so a nonzero sum means a
// corrupt share somewhere upstream.
var ErrUnbalancedLedger = errors.New("ledger invariant violated: balances do not sum to zero")

// ComputeBalances folds a group's expenses and acknowledged peer loans into
// one net balance per member. Positive means the member is owed money,
// negative means the member owes.
//
// For each expense the payer is credited the full amount and every
// participant (payer included) is debited their share; the net effect is
// that the payer's own share cancels out of what they are owed. Loans credit
// the lender and debit the receiver. The fold is pure accumulation with no
// ordering dependency, so recomputing on the same inputs always yields the
// same result.
func ComputeBalances(expenses []*models.Expense, loans []*models.Loan, memberIDs []string) (map[string]int64, error) {
	balances := make(map[string]int64, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = 0
	}

	for _, e := range expenses {
		var shareSum int64
		for _, s := range e.Shares {
			shareSum += s.Amount
		}
		if shareSum != e.Amount {
			return nil, fmt.Errorf("expense %s: %w", e.ID, ErrSplitMismatch)
		}

		balances[e.PayerID] += e.Amount
		for _, s := range e.Shares {
			balances[s.MemberID] -= s.Amount
		}
	}

	for _, l := range loans {
		if !l.CountsTowardBalance() {
			continue
		}
		balances[l.LenderID] += l.Amount
		balances[l.ReceiverID] -= l.Amount
	}

	var sum int64
	for _, b := range balances {
		sum += b
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: sum is %d", ErrUnbalancedLedger, sum)
	}

	return balances, nil
}
