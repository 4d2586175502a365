package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hisab/hisab/internal/calculator"
	"github.com/hisab/hisab/internal/models"
)

func TestExpenseService(t *testing.T) {
	store := newTestStore(t)
	groupSvc := NewGroupService(store)
	svc := NewExpenseService(store)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob", "carol", "mallory")

	group, err := groupSvc.CreateGroup(ctx, "alice", "Flat", []string{"bob", "carol"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("equal split favors earlier participants", func(t *testing.T) {
		expense, err := svc.CreateExpense(ctx, "alice", group.ID, "Pizza", 100, "alice", []string{"alice", "bob", "carol"}, nil)
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		wantShares := []models.Share{
			{MemberID: "alice", Amount: 34},
			{MemberID: "bob", Amount: 33},
			{MemberID: "carol", Amount: 33},
		}
		for i, want := range wantShares {
			if expense.Shares[i] != want {
				t.Errorf("share %d = %+v, want %+v", i, expense.Shares[i], want)
			}
		}
	})

	t.Run("custom shares must sum to the amount", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, "alice", group.ID, "Dinner", 100, "alice", []string{"alice", "bob"}, []int64{60, 50})
		if !errors.Is(err, calculator.ErrSplitMismatch) {
			t.Errorf("error = %v, want ErrSplitMismatch", err)
		}
	})

	t.Run("duplicate participants are rejected", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, "alice", group.ID, "Dinner", 100, "alice", []string{"bob", "bob"}, nil)
		if !errors.Is(err, calculator.ErrInvalidSplit) {
			t.Errorf("error = %v, want ErrInvalidSplit", err)
		}
	})

	t.Run("payer and participants must be members", func(t *testing.T) {
		if _, err := svc.CreateExpense(ctx, "alice", group.ID, "Dinner", 100, "mallory", []string{"alice"}, nil); !errors.Is(err, ErrUnknownMember) {
			t.Errorf("outside payer error = %v, want ErrUnknownMember", err)
		}
		if _, err := svc.CreateExpense(ctx, "alice", group.ID, "Dinner", 100, "alice", []string{"mallory"}, nil); !errors.Is(err, ErrUnknownMember) {
			t.Errorf("outside participant error = %v, want ErrUnknownMember", err)
		}
		if _, err := svc.CreateExpense(ctx, "mallory", group.ID, "Dinner", 100, "alice", []string{"alice"}, nil); !errors.Is(err, ErrNotMember) {
			t.Errorf("outside actor error = %v, want ErrNotMember", err)
		}
	})

	t.Run("only the creator may delete", func(t *testing.T) {
		expense, err := svc.CreateExpense(ctx, "alice", group.ID, "Taxi", 40, "alice", []string{"alice", "bob"}, nil)
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := svc.DeleteExpense(ctx, "bob", expense.ID); !errors.Is(err, ErrNotExpenseCreator) {
			t.Errorf("error = %v, want ErrNotExpenseCreator", err)
		}
		if err := svc.DeleteExpense(ctx, "alice", expense.ID); err != nil {
			t.Errorf("creator delete failed: %v", err)
		}
	})

	t.Run("deleting an expense restores balances", func(t *testing.T) {
		fresh, err := groupSvc.CreateGroup(ctx, "alice", "Weekend", []string{"bob"})
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		expense, err := svc.CreateExpense(ctx, "alice", fresh.ID, "Fuel", 80, "alice", []string{"alice", "bob"}, nil)
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := svc.DeleteExpense(ctx, "alice", expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		net, err := groupSvc.MyBalance(ctx, "bob", fresh.ID)
		if err != nil {
			t.Fatalf("MyBalance failed: %v", err)
		}
		if net != 0 {
			t.Errorf("bob's balance = %d, want 0 after deletion", net)
		}
	})
}
