// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/hisab/hisab/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadySettled is returned when a settlement is triggered on a
	// group whose phase is already settlement. The losing side of a
	// double-submitted settle race observes this, never a duplicate run.
	ErrAlreadySettled = errors.New("group is already settled")

	// ErrExpenseFrozen is returned for expense creation or deletion on a
	// group in the settlement phase.
	ErrExpenseFrozen = errors.New("expenses are frozen once the group enters settlement")

	// ErrStaleStatus is returned when a loan status compare-and-set loses to
	// a concurrent transition.
	ErrStaleStatus = errors.New("loan status changed concurrently")
)

// SettlementBuilder computes one settlement run from the group's frozen
// expense and loan sets. It is called inside the settlement transaction, so
// the sets it sees are exactly the sets the instructions cover.
type SettlementBuilder func(expenses []*models.Expense, loans []*models.Loan) ([]*models.Settlement, []*models.Loan, error)

// Store defines the interface for ledger persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email, or (nil, nil) if absent.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID, or (nil, nil) if absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users keyed by ID; missing users are
	// omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateGroup persists a new group with its member list.
	// The group.ID and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group including members and phase.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// SettleGroup runs one settlement in a single transaction: it flips the
	// group phase from active to settlement as a compare-and-set, hands the
	// frozen expense and loan sets to build, and persists the returned
	// instructions with the loans they materialize into. Returns
	// ErrAlreadySettled if the group is not active. Any build or persistence
	// error rolls the whole run back, phase flip included, so a failed
	// settlement never wedges the group.
	SettleGroup(ctx context.Context, groupID string, build SettlementBuilder) error

	// CreateExpense persists an expense with its shares, atomically
	// verifying the group is still active (ErrExpenseFrozen otherwise).
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its shares.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// DeleteExpense removes an expense entirely; deletion is a real
	// retraction, not a soft mark. Fails with ErrExpenseFrozen if the
	// group has entered settlement.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup returns a group's expenses ordered by creation.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// CreateLoan persists a new loan.
	CreateLoan(ctx context.Context, loan *models.Loan) error

	// GetLoan retrieves a loan by ID.
	GetLoan(ctx context.Context, loanID string) (*models.Loan, error)

	// ListLoansForUser returns loans where the user is lender or receiver.
	ListLoansForUser(ctx context.Context, userID string) ([]*models.Loan, error)

	// ListLoansByGroup returns a group's loans (settlement-generated ones
	// included).
	ListLoansByGroup(ctx context.Context, groupID string) ([]*models.Loan, error)

	// UpdateLoanStatus applies a status transition as a compare-and-set on
	// the current status. Returns ErrStaleStatus if the stored status no
	// longer matches from.
	UpdateLoanStatus(ctx context.Context, loanID string, from, to models.LoanStatus) error

	// ListSettlementsByGroup returns a group's settlement instructions.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
