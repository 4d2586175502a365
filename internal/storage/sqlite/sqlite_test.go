package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "hisab-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUsers(t *testing.T, store *SQLiteStore, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		user := models.NewUser(id+"@example.com", id, "hash")
		user.ID = id
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", id, err)
		}
	}
}

// noRun is a settlement build that emits no instructions; the flip still
// happens.
func noRun([]*models.Expense, []*models.Loan) ([]*models.Settlement, []*models.Loan, error) {
	return nil, nil, nil
}

func seedGroup(t *testing.T, store *SQLiteStore, owner string, members ...string) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Flat 4B", OwnerID: owner, Members: members}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestGroupLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob")

	t.Run("CreateGroup generates ID and defaults to active", func(t *testing.T) {
		group := seedGroup(t, store, "alice", "alice", "bob")
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Phase != models.PhaseActive {
			t.Errorf("phase = %s, want active", got.Phase)
		}
		if len(got.Members) != 2 || got.Members[0] != "alice" || got.Members[1] != "bob" {
			t.Errorf("members = %v, want [alice bob] in order", got.Members)
		}
	})

	t.Run("GetGroup returns ErrNotFound for unknown ID", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("SettleGroup wins once and only once", func(t *testing.T) {
		group := seedGroup(t, store, "alice", "alice", "bob")

		if err := store.SettleGroup(ctx, group.ID, noRun); err != nil {
			t.Fatalf("first SettleGroup failed: %v", err)
		}

		err := store.SettleGroup(ctx, group.ID, noRun)
		if !errors.Is(err, storage.ErrAlreadySettled) {
			t.Errorf("second SettleGroup error = %v, want ErrAlreadySettled", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Phase != models.PhaseSettlement {
			t.Errorf("phase = %s, want settlement", got.Phase)
		}
	})
}

func TestExpenseStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob")
	group := seedGroup(t, store, "alice", "alice", "bob")

	makeExpense := func() *models.Expense {
		return &models.Expense{
			GroupID:     group.ID,
			Description: "Groceries",
			Amount:      100,
			PayerID:     "alice",
			CreatedBy:   "alice",
			Shares: []models.Share{
				{MemberID: "alice", Amount: 50},
				{MemberID: "bob", Amount: 50},
			},
		}
	}

	t.Run("CreateExpense round-trips shares in order", func(t *testing.T) {
		expense := makeExpense()
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Amount != 100 || len(got.Shares) != 2 {
			t.Fatalf("got amount=%d shares=%d, want 100 and 2", got.Amount, len(got.Shares))
		}
		if got.Shares[0].MemberID != "alice" || got.Shares[1].MemberID != "bob" {
			t.Errorf("share order = %s,%s, want alice,bob", got.Shares[0].MemberID, got.Shares[1].MemberID)
		}
	})

	t.Run("DeleteExpense removes it from listings", func(t *testing.T) {
		expense := makeExpense()
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		before, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}

		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}

		after, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(after) != len(before)-1 {
			t.Errorf("expenses after delete = %d, want %d", len(after), len(before)-1)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetExpense after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("expense writes are frozen after settlement", func(t *testing.T) {
		frozen := seedGroup(t, store, "alice", "alice", "bob")
		held := &models.Expense{
			GroupID: frozen.ID, Description: "Before", Amount: 10, PayerID: "alice", CreatedBy: "alice",
			Shares: []models.Share{{MemberID: "alice", Amount: 5}, {MemberID: "bob", Amount: 5}},
		}
		if err := store.CreateExpense(ctx, held); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.SettleGroup(ctx, frozen.ID, noRun); err != nil {
			t.Fatalf("SettleGroup failed: %v", err)
		}

		late := &models.Expense{
			GroupID: frozen.ID, Description: "Late", Amount: 10, PayerID: "alice", CreatedBy: "alice",
			Shares: []models.Share{{MemberID: "alice", Amount: 10}},
		}
		if err := store.CreateExpense(ctx, late); !errors.Is(err, storage.ErrExpenseFrozen) {
			t.Errorf("CreateExpense error = %v, want ErrExpenseFrozen", err)
		}
		if err := store.DeleteExpense(ctx, held.ID); !errors.Is(err, storage.ErrExpenseFrozen) {
			t.Errorf("DeleteExpense error = %v, want ErrExpenseFrozen", err)
		}
	})
}

func TestLoanStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob")

	t.Run("CreateLoan applies defaults", func(t *testing.T) {
		loan := &models.Loan{LenderID: "alice", ReceiverID: "bob", Amount: 500, Reason: "Rent"}
		if err := store.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("CreateLoan failed: %v", err)
		}

		got, err := store.GetLoan(ctx, loan.ID)
		if err != nil {
			t.Fatalf("GetLoan failed: %v", err)
		}
		if got.Status != models.LoanPending {
			t.Errorf("status = %s, want pending", got.Status)
		}
		if got.Kind != models.LoanPersonal {
			t.Errorf("kind = %s, want personal", got.Kind)
		}
		if got.DueDate != nil {
			t.Errorf("due date = %v, want nil", got.DueDate)
		}
	})

	t.Run("UpdateLoanStatus is a compare-and-set", func(t *testing.T) {
		loan := &models.Loan{LenderID: "alice", ReceiverID: "bob", Amount: 500, Reason: "Rent"}
		if err := store.CreateLoan(ctx, loan); err != nil {
			t.Fatalf("CreateLoan failed: %v", err)
		}

		if err := store.UpdateLoanStatus(ctx, loan.ID, models.LoanPending, models.LoanConfirmed); err != nil {
			t.Fatalf("UpdateLoanStatus failed: %v", err)
		}

		// Same transition again: the stored status is stale now.
		err := store.UpdateLoanStatus(ctx, loan.ID, models.LoanPending, models.LoanConfirmed)
		if !errors.Is(err, storage.ErrStaleStatus) {
			t.Errorf("stale UpdateLoanStatus error = %v, want ErrStaleStatus", err)
		}

		got, err := store.GetLoan(ctx, loan.ID)
		if err != nil {
			t.Fatalf("GetLoan failed: %v", err)
		}
		if got.Status != models.LoanConfirmed {
			t.Errorf("status = %s, want confirmed", got.Status)
		}
	})

	t.Run("ListLoansForUser covers both sides", func(t *testing.T) {
		fresh := newTestStore(t)
		seedUsers(t, fresh, "carol", "dave")

		lent := &models.Loan{LenderID: "carol", ReceiverID: "dave", Amount: 100, Reason: "Lunch"}
		borrowed := &models.Loan{LenderID: "dave", ReceiverID: "carol", Amount: 200, Reason: "Tickets"}
		for _, l := range []*models.Loan{lent, borrowed} {
			if err := fresh.CreateLoan(ctx, l); err != nil {
				t.Fatalf("CreateLoan failed: %v", err)
			}
		}

		loans, err := fresh.ListLoansForUser(ctx, "carol")
		if err != nil {
			t.Fatalf("ListLoansForUser failed: %v", err)
		}
		if len(loans) != 2 {
			t.Errorf("loans = %d, want 2", len(loans))
		}
	})
}

func TestSettlementStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob", "carol")

	t.Run("run persists instructions with materialized loans", func(t *testing.T) {
		group := seedGroup(t, store, "alice", "alice", "bob", "carol")

		held := &models.Expense{
			GroupID: group.ID, Description: "Fuel", Amount: 60, PayerID: "alice", CreatedBy: "alice",
			Shares: []models.Share{{MemberID: "bob", Amount: 30}, {MemberID: "carol", Amount: 30}},
		}
		if err := store.CreateExpense(ctx, held); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		err := store.SettleGroup(ctx, group.ID, func(expenses []*models.Expense, _ []*models.Loan) ([]*models.Settlement, []*models.Loan, error) {
			if len(expenses) != 1 {
				t.Errorf("frozen expense set = %d, want 1", len(expenses))
			}
			settlements := []*models.Settlement{
				{GroupID: group.ID, DebtorID: "bob", CreditorID: "alice", Amount: 30},
				{GroupID: group.ID, DebtorID: "carol", CreditorID: "alice", Amount: 30},
			}
			loans := []*models.Loan{
				{GroupID: group.ID, LenderID: "alice", ReceiverID: "bob", Amount: 30, Reason: "Settlement", Kind: models.LoanSettlement},
				{GroupID: group.ID, LenderID: "alice", ReceiverID: "carol", Amount: 30, Reason: "Settlement", Kind: models.LoanSettlement},
			}
			return settlements, loans, nil
		})
		if err != nil {
			t.Fatalf("SettleGroup failed: %v", err)
		}

		got, err := store.ListSettlementsByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListSettlementsByGroup failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("settlements = %d, want 2", len(got))
		}
		for i, st := range got {
			if st.LoanID == "" {
				t.Errorf("settlement %d has no loan ID", i)
			}
			loan, err := store.GetLoan(ctx, st.LoanID)
			if err != nil {
				t.Fatalf("GetLoan(%s) failed: %v", st.LoanID, err)
			}
			if loan.Kind != models.LoanSettlement {
				t.Errorf("loan kind = %s, want settlement", loan.Kind)
			}
			if loan.Amount != st.Amount {
				t.Errorf("loan amount = %d, want %d", loan.Amount, st.Amount)
			}
		}

		groupLoans, err := store.ListLoansByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListLoansByGroup failed: %v", err)
		}
		if len(groupLoans) != 2 {
			t.Errorf("group loans = %d, want 2", len(groupLoans))
		}
	})

	t.Run("failed run rolls the phase flip back", func(t *testing.T) {
		group := seedGroup(t, store, "alice", "alice", "bob")

		boom := errors.New("optimizer rejected the balances")
		err := store.SettleGroup(ctx, group.ID, func([]*models.Expense, []*models.Loan) ([]*models.Settlement, []*models.Loan, error) {
			return nil, nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("SettleGroup error = %v, want the build error", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Phase != models.PhaseActive {
			t.Errorf("phase after failed run = %s, want active", got.Phase)
		}
		if n := mustListSettlements(t, store, group.ID); n != 0 {
			t.Errorf("settlements after failed run = %d, want 0", n)
		}

		// A retry with a working build succeeds.
		if err := store.SettleGroup(ctx, group.ID, noRun); err != nil {
			t.Errorf("retry after failed run error = %v, want success", err)
		}
	})
}

func mustListSettlements(t *testing.T, store *SQLiteStore, groupID string) int {
	t.Helper()
	settlements, err := store.ListSettlementsByGroup(context.Background(), groupID)
	if err != nil {
		t.Fatalf("ListSettlementsByGroup failed: %v", err)
	}
	return len(settlements)
}

func TestUserStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail = %+v, want ID %s", byEmail, user.ID)
	}

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown email, got %+v", missing)
	}

	byIDs, err := store.GetUsersByIDs(ctx, []string{user.ID, "missing"})
	if err != nil {
		t.Fatalf("GetUsersByIDs failed: %v", err)
	}
	if len(byIDs) != 1 || byIDs[user.ID] == nil {
		t.Errorf("GetUsersByIDs = %v, want only %s", byIDs, user.ID)
	}
}
