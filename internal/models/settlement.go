package models

// SettlementStatus is derived from the materialized loan: an instruction is
// completed once its loan reaches paid.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCompleted SettlementStatus = "completed"
)

// Settlement represents one payment instruction produced by a settlement
// run: the debtor pays the creditor the fixed amount. The amount is
// immutable; progress is tracked on the loan it materialized into.
type Settlement struct {
	// ID is the unique identifier for the instruction (UUID format).
	ID string

	// GroupID is the group this instruction belongs to.
	GroupID string

	// DebtorID is the member who must pay.
	DebtorID string

	// CreditorID is the member being paid.
	CreditorID string

	// Amount is the payment amount in minor units.
	Amount int64

	// LoanID is the settlement-kind loan driving this instruction's
	// lifecycle.
	LoanID string

	// CreatedAt is the Unix timestamp of the settlement run.
	CreatedAt int64
}
