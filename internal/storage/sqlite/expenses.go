package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

// CreateExpense persists an expense and its shares. The group's phase is
// re-checked inside the same transaction, so an insert racing a settlement
// flip cannot land after the expense set was frozen.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkGroupActive(ctx, tx, expense.GroupID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses (id, group_id, description, amount, payer_id, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		expense.PayerID, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, share := range expense.Shares {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, member_id, amount, position) VALUES (?, ?, ?, ?)",
			expense.ID, share.MemberID, share.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with its shares in allocation order.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, description, amount, payer_id, created_by, created_at FROM expenses WHERE id = ?",
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount,
		&expense.PayerID, &expense.CreatedBy, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	shares, err := sharesForExpense(ctx, s.db, expenseID)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares
	return expense, nil
}

// DeleteExpense removes an expense and its shares. Deletion is a real
// retraction: future balance computations never see the expense again.
// The phase is checked inside the transaction, same as on create.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID string
	err = tx.QueryRowContext(ctx, "SELECT group_id FROM expenses WHERE id = ?", expenseID).Scan(&groupID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get expense group: %w", err)
	}

	if err := checkGroupActive(ctx, tx, groupID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpensesByGroup returns a group's expenses in creation order.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return listExpensesByGroup(ctx, s.db, groupID)
}

func listExpensesByGroup(ctx context.Context, q querier, groupID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, group_id, description, amount, payer_id, created_by, created_at FROM expenses WHERE group_id = ? ORDER BY created_at, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount,
			&expense.PayerID, &expense.CreatedBy, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		shares, err := sharesForExpense(ctx, q, expense.ID)
		if err != nil {
			return nil, err
		}
		expense.Shares = shares
	}
	return expenses, nil
}

func sharesForExpense(ctx context.Context, q querier, expenseID string) ([]models.Share, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT member_id, amount FROM expense_shares WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var share models.Share
		if err := rows.Scan(&share.MemberID, &share.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return shares, nil
}

// checkGroupActive verifies the group exists and is still accumulating
// expenses, within the caller's transaction.
func checkGroupActive(ctx context.Context, tx *sql.Tx, groupID string) error {
	var phase string
	err := tx.QueryRowContext(ctx, "SELECT phase FROM groups WHERE id = ?", groupID).Scan(&phase)
	if err == sql.ErrNoRows {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check group phase: %w", err)
	}
	if models.GroupPhase(phase) != models.PhaseActive {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrExpenseFrozen)
	}
	return nil
}
