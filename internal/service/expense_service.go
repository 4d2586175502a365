package service

import (
	"context"
	"log/slog"

	"github.com/hisab/hisab/internal/calculator"
	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

// ExpenseService records and retracts shared expenses.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// CreateExpense records an expense in a group. Participants are given in
// selection order; with no custom shares the amount is split equally with
// the remainder going to the earliest participants. Custom shares must sum
// exactly to the amount. The store rejects the write if the group has
// entered settlement.
func (s *ExpenseService) CreateExpense(ctx context.Context, actorID, groupID, description string, amount int64, payerID string, participantIDs []string, customShares []int64) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(actorID) {
		return nil, ErrNotMember
	}
	if !group.IsMember(payerID) {
		return nil, ErrUnknownMember
	}

	seen := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		if !group.IsMember(id) {
			return nil, ErrUnknownMember
		}
		if seen[id] {
			return nil, calculator.ErrInvalidSplit
		}
		seen[id] = true
	}

	var shareAmounts []int64
	if len(customShares) > 0 {
		if len(customShares) != len(participantIDs) {
			return nil, calculator.ErrSplitMismatch
		}
		if err := calculator.ValidateShares(amount, customShares); err != nil {
			return nil, err
		}
		shareAmounts = customShares
	} else {
		shareAmounts, err = calculator.SplitEqual(amount, len(participantIDs))
		if err != nil {
			return nil, err
		}
	}

	shares := make([]models.Share, len(participantIDs))
	for i, id := range participantIDs {
		shares[i] = models.Share{MemberID: id, Amount: shareAmounts[i]}
	}

	expense := &models.Expense{
		GroupID:     groupID,
		Description: description,
		Amount:      amount,
		PayerID:     payerID,
		Shares:      shares,
		CreatedBy:   actorID,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"group_id", groupID,
		"amount", amount,
		"participants", len(shares),
	)
	return expense, nil
}

// DeleteExpense retracts an expense. Only its creator may delete it, and
// only while the group is active.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actorID, expenseID string) error {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense.CreatedBy != actorID {
		return ErrNotExpenseCreator
	}

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}

	slog.Info("Expense deleted", "expense_id", expenseID, "group_id", expense.GroupID)
	return nil
}

// ListExpenses returns a group's expenses for a member.
func (s *ExpenseService) ListExpenses(ctx context.Context, actorID, groupID string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(actorID) {
		return nil, ErrNotMember
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}
