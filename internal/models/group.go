package models

// GroupPhase is the coarse lock distinguishing the expense-accumulation
// period from the payout period. The transition is one-way: active groups
// become settled, never the reverse.
type GroupPhase string

const (
	// PhaseActive permits recording and deleting expenses.
	PhaseActive GroupPhase = "active"

	// PhaseSettlement freezes the expense set; settlement instructions have
	// been generated and only loan transitions remain.
	PhaseSettlement GroupPhase = "settlement"
)

// Group represents an expense-sharing group.
// The group is the aggregate owning the phase flag, its member list, and
// (via foreign keys) its expenses, loans, and settlement instructions.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Flat 4B", "Goa Trip").
	Name string

	// OwnerID is the user who created the group. Only the owner may trigger
	// settlement.
	OwnerID string

	// Members is the list of member user IDs, including the owner.
	Members []string

	// Phase gates expense mutation and settlement triggering.
	Phase GroupPhase

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// IsMember reports whether the given user belongs to the group.
func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
