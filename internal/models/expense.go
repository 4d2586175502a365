package models

// Expense represents one shared expense within a group.
//
// Invariant: the share amounts sum exactly to Amount, in minor units. The
// calculator enforces this at creation; the ledger depends on it.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is a short human-readable label (e.g., "Groceries").
	Description string

	// Amount is the full expense amount in minor units (cents/paisa).
	Amount int64

	// PayerID is the member who paid the full amount up front.
	PayerID string

	// Shares lists each participant's exact portion of the amount,
	// in the order participants were selected.
	Shares []Share

	// CreatedBy is the member who recorded the expense. Only they may
	// delete it, and only while the group is active.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Share is one participant's portion of an expense.
type Share struct {
	// MemberID is the participant owing this share.
	MemberID string

	// Amount is the share in minor units.
	Amount int64
}
