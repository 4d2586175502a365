package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hisab/hisab/internal/loans"
	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

// LoanService creates loans and drives their lifecycle.
type LoanService struct {
	store storage.Store
}

// NewLoanService creates a new LoanService with the given storage backend.
func NewLoanService(store storage.Store) *LoanService {
	return &LoanService{store: store}
}

// CreateLoan records a new personal or business loan from the acting user
// (the lender) to the receiver. Settlement loans are created only by
// settlement runs, never directly.
func (s *LoanService) CreateLoan(ctx context.Context, lenderID, receiverID string, amount int64, reason string, kind models.LoanKind, dueDate *int64) (*models.Loan, error) {
	if lenderID == receiverID {
		return nil, ErrSelfLoan
	}
	if amount <= 0 {
		return nil, fmt.Errorf("loan amount must be positive")
	}
	if kind != models.LoanPersonal && kind != models.LoanBusiness {
		return nil, fmt.Errorf("unsupported loan kind %q", kind)
	}

	receiver, err := s.store.GetUserByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUnknownMember
	}

	loan := &models.Loan{
		LenderID:   lenderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Reason:     reason,
		DueDate:    dueDate,
		Status:     models.LoanPending,
		Kind:       kind,
	}
	if err := s.store.CreateLoan(ctx, loan); err != nil {
		slog.Error("CreateLoan failed", "error", err)
		return nil, err
	}

	slog.Info("Loan created", "loan_id", loan.ID, "lender_id", lenderID, "receiver_id", receiverID, "amount", amount)
	return loan, nil
}

// GetLoan retrieves a loan for one of its parties.
func (s *LoanService) GetLoan(ctx context.Context, actorID, loanID string) (*models.Loan, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.LenderID != actorID && loan.ReceiverID != actorID {
		return nil, ErrNotLoanParty
	}
	return loan, nil
}

// ListLoans returns every loan the user is a party to, newest first.
func (s *LoanService) ListLoans(ctx context.Context, userID string) ([]*models.Loan, error) {
	return s.store.ListLoansForUser(ctx, userID)
}

// Transition applies a lifecycle event to a loan on behalf of actorID. The
// state machine validates the (state, event, actor) triple against the
// loaded loan; the store then applies the write as a compare-and-set on the
// status that was validated, so a concurrent transition makes this one fail
// instead of clobbering it.
func (s *LoanService) Transition(ctx context.Context, actorID, loanID string, event loans.Event) (*models.Loan, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	next, err := loans.Next(loan, event, actorID)
	if err != nil {
		slog.Warn("Loan transition rejected",
			"loan_id", loanID,
			"event", string(event),
			"status", string(loan.Status),
			"actor_id", actorID,
		)
		return nil, err
	}

	if err := s.store.UpdateLoanStatus(ctx, loanID, loan.Status, next); err != nil {
		if errors.Is(err, storage.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: loan status changed concurrently", loans.ErrIllegalTransition)
		}
		return nil, err
	}

	slog.Info("Loan transitioned",
		"loan_id", loanID,
		"event", string(event),
		"from", string(loan.Status),
		"to", string(next),
	)
	return s.store.GetLoan(ctx, loanID)
}
