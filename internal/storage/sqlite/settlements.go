package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

// SettleGroup performs one settlement run in a single transaction: phase
// flip, frozen-set reads, build, and persistence. Because the reads happen
// after the flip in the same transaction, the instructions cover exactly
// the expense set the flip froze; and because everything commits together,
// a failure anywhere rolls the flip back instead of wedging the group in
// the settlement phase with no instructions.
func (s *SQLiteStore) SettleGroup(ctx context.Context, groupID string, build storage.SettlementBuilder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := flipToSettlement(ctx, tx, groupID); err != nil {
		return err
	}

	expenses, err := listExpensesByGroup(ctx, tx, groupID)
	if err != nil {
		return err
	}
	groupLoans, err := listLoansByGroup(ctx, tx, groupID)
	if err != nil {
		return err
	}

	settlements, runLoans, err := build(expenses, groupLoans)
	if err != nil {
		return err
	}
	if len(settlements) != len(runLoans) {
		return fmt.Errorf("settlement run mismatch: %d instructions, %d loans", len(settlements), len(runLoans))
	}

	now := time.Now().Unix()
	for i, settlement := range settlements {
		loan := runLoans[i]
		prepareLoan(loan)

		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.CreatedAt == 0 {
			settlement.CreatedAt = now
		}
		settlement.LoanID = loan.ID

		_, err = tx.ExecContext(ctx,
			"INSERT INTO loans ("+loanColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			loanArgs(loan)...,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement loan: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO settlements (id, group_id, debtor_id, creditor_id, amount, loan_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			settlement.ID, settlement.GroupID, settlement.DebtorID, settlement.CreditorID,
			settlement.Amount, settlement.LoanID, settlement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves a group's settlement instructions in
// creation order.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, debtor_id, creditor_id, amount, loan_id, created_at
		 FROM settlements WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.DebtorID,
			&settlement.CreditorID, &settlement.Amount, &settlement.LoanID, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
