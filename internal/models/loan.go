package models

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	// LoanPending means the loan was recorded by the lender but the receiver
	// has not yet acknowledged it.
	LoanPending LoanStatus = "pending"

	// LoanConfirmed means the receiver acknowledged the debt.
	LoanConfirmed LoanStatus = "confirmed"

	// LoanPaymentRequested means the receiver claims to have paid and is
	// waiting for the lender to confirm.
	LoanPaymentRequested LoanStatus = "payment_requested"

	// LoanPaid is terminal; the loan is retained as history.
	LoanPaid LoanStatus = "paid"
)

// LoanKind tags where a loan came from. The kind is display metadata only;
// it never alters which transitions are legal.
type LoanKind string

const (
	LoanPersonal   LoanKind = "personal"
	LoanBusiness   LoanKind = "business"
	LoanSettlement LoanKind = "settlement"
)

// Loan represents a single debt obligation between two users.
// Loans are created directly by a lender, or materialized by a settlement
// run (one per settlement instruction). They are never deleted.
type Loan struct {
	// ID is the unique identifier for the loan (UUID format).
	ID string

	// GroupID is the owning group for settlement-generated loans;
	// empty for standalone personal/business loans.
	GroupID string

	// LenderID is the user who is owed the money.
	LenderID string

	// ReceiverID is the user who owes the money.
	ReceiverID string

	// Amount is the loan amount in minor units.
	Amount int64

	// Reason is a short description of why the loan exists.
	Reason string

	// DueDate is an optional Unix timestamp the parties agreed on.
	DueDate *int64

	// Status is mutated only through the lifecycle transition table.
	Status LoanStatus

	// Kind distinguishes personal, business, and settlement-generated loans.
	Kind LoanKind

	// CreatedAt is the Unix timestamp when the loan was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64
}

// CountsTowardBalance reports whether this loan participates in the balance
// fold: only outstanding debt does. Pending loans were never acknowledged by
// the receiver, paid loans are extinguished, and settlement loans repay
// expense debt that is already on the ledger.
func (l *Loan) CountsTowardBalance() bool {
	if l.Kind == LoanSettlement {
		return false
	}
	return l.Status == LoanConfirmed || l.Status == LoanPaymentRequested
}
