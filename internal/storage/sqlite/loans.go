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

const loanColumns = "id, group_id, lender_id, receiver_id, amount, reason, due_date, status, kind, created_at, updated_at"

// CreateLoan persists a new loan.
func (s *SQLiteStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	prepareLoan(loan)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO loans ("+loanColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		loanArgs(loan)...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by ID.
func (s *SQLiteStore) GetLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+loanColumns+" FROM loans WHERE id = ?", loanID)
	loan, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loan %s: %w", loanID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// ListLoansForUser returns every loan where the user is lender or receiver,
// newest first.
func (s *SQLiteStore) ListLoansForUser(ctx context.Context, userID string) ([]*models.Loan, error) {
	return listLoans(ctx, s.db,
		"SELECT "+loanColumns+" FROM loans WHERE lender_id = ? OR receiver_id = ? ORDER BY created_at DESC, id",
		userID, userID)
}

// ListLoansByGroup returns a group's loans in creation order.
func (s *SQLiteStore) ListLoansByGroup(ctx context.Context, groupID string) ([]*models.Loan, error) {
	return listLoansByGroup(ctx, s.db, groupID)
}

func listLoansByGroup(ctx context.Context, q querier, groupID string) ([]*models.Loan, error) {
	return listLoans(ctx, q,
		"SELECT "+loanColumns+" FROM loans WHERE group_id = ? ORDER BY created_at, id",
		groupID)
}

// UpdateLoanStatus moves a loan from one status to another as an atomic
// compare-and-set. A transition validated against a stale read loses here
// with ErrStaleStatus instead of being applied blindly.
func (s *SQLiteStore) UpdateLoanStatus(ctx context.Context, loanID string, from, to models.LoanStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE loans SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), time.Now().Unix(), loanID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM loans WHERE id = ?", loanID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("loan %s: %w", loanID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check loan existence: %w", err)
		}
		return fmt.Errorf("loan %s: %w", loanID, storage.ErrStaleStatus)
	}
	return nil
}

func listLoans(ctx context.Context, q querier, query string, args ...interface{}) ([]*models.Loan, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}
	return loans, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(row scanner) (*models.Loan, error) {
	loan := &models.Loan{}
	var groupID sql.NullString
	var dueDate sql.NullInt64
	var status, kind string

	err := row.Scan(&loan.ID, &groupID, &loan.LenderID, &loan.ReceiverID, &loan.Amount,
		&loan.Reason, &dueDate, &status, &kind, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if groupID.Valid {
		loan.GroupID = groupID.String
	}
	if dueDate.Valid {
		d := dueDate.Int64
		loan.DueDate = &d
	}
	loan.Status = models.LoanStatus(status)
	loan.Kind = models.LoanKind(kind)
	return loan, nil
}

func prepareLoan(loan *models.Loan) {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if loan.CreatedAt == 0 {
		loan.CreatedAt = now
	}
	if loan.UpdatedAt == 0 {
		loan.UpdatedAt = now
	}
	if loan.Status == "" {
		loan.Status = models.LoanPending
	}
	if loan.Kind == "" {
		loan.Kind = models.LoanPersonal
	}
}

func loanArgs(loan *models.Loan) []interface{} {
	var groupID interface{}
	if loan.GroupID != "" {
		groupID = loan.GroupID
	}
	var dueDate interface{}
	if loan.DueDate != nil {
		dueDate = *loan.DueDate
	}
	return []interface{}{
		loan.ID, groupID, loan.LenderID, loan.ReceiverID, loan.Amount,
		loan.Reason, dueDate, string(loan.Status), string(loan.Kind),
		loan.CreatedAt, loan.UpdatedAt,
	}
}
