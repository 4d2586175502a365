package service

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hisab/hisab/internal/calculator"
	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

var (
	settlementRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hisab_settlement_runs_total",
		Help: "Number of completed settlement runs.",
	})
	settlementInstructions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hisab_settlement_instructions_total",
		Help: "Number of settlement instructions emitted.",
	})
)

// GroupService owns groups: creation, balances, and settlement.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// MemberBalance is one member's net position for display.
type MemberBalance struct {
	MemberID string
	Name     string
	Net      int64 // positive = owed money, negative = owes money
}

// SettlementView pairs an instruction with its derived status.
type SettlementView struct {
	*models.Settlement
	Status models.SettlementStatus
}

// CreateGroup creates a group owned by ownerID. The owner is always a
// member; every other member must be a registered user.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID, name string, memberIDs []string) (*models.Group, error) {
	members := []string{ownerID}
	for _, id := range memberIDs {
		if id != ownerID {
			members = append(members, id)
		}
	}

	users, err := s.store.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, err
	}
	for _, id := range members {
		if users[id] == nil {
			return nil, ErrUnknownMember
		}
	}

	group := &models.Group{
		Name:    name,
		OwnerID: ownerID,
		Members: members,
		Phase:   models.PhaseActive,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "owner_id", ownerID, "members", len(members))
	return group, nil
}

// GetGroup retrieves a group for one of its members.
func (s *GroupService) GetGroup(ctx context.Context, actorID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(actorID) {
		return nil, ErrNotMember
	}
	return group, nil
}

// Balances recomputes the group's net balances from its full expense set
// and acknowledged peer loans. Balances are derived, never stored, so the
// result reflects every deletion and confirmation up to this moment.
func (s *GroupService) Balances(ctx context.Context, actorID, groupID string) ([]MemberBalance, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(actorID) {
		return nil, ErrNotMember
	}

	balances, err := s.computeBalances(ctx, group)
	if err != nil {
		return nil, err
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, err
	}

	result := make([]MemberBalance, 0, len(group.Members))
	for _, id := range group.Members {
		mb := MemberBalance{MemberID: id, Net: balances[id]}
		if u := users[id]; u != nil {
			mb.Name = u.Name
		}
		result = append(result, mb)
	}
	return result, nil
}

// MyBalance returns the acting member's own net balance in the group.
func (s *GroupService) MyBalance(ctx context.Context, actorID, groupID string) (int64, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if !group.IsMember(actorID) {
		return 0, ErrNotMember
	}

	balances, err := s.computeBalances(ctx, group)
	if err != nil {
		return 0, err
	}
	return balances[actorID], nil
}

// Settle flips the group into the settlement phase, computes balances once,
// and materializes one loan per settlement instruction. Only the owner may
// trigger it; a second trigger fails with storage.ErrAlreadySettled. The
// whole run is one store transaction: the phase flip is a compare-and-set,
// so of two racing requests exactly one generates instructions, and any
// failure rolls the flip back instead of leaving a frozen group with no
// instructions.
func (s *GroupService) Settle(ctx context.Context, actorID, groupID string) ([]SettlementView, calculator.Stats, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, calculator.Stats{}, err
	}
	if group.OwnerID != actorID {
		return nil, calculator.Stats{}, ErrNotOwner
	}

	var settlements []*models.Settlement
	var stats calculator.Stats
	err = s.store.SettleGroup(ctx, groupID, func(expenses []*models.Expense, groupLoans []*models.Loan) ([]*models.Settlement, []*models.Loan, error) {
		balances, err := calculator.ComputeBalances(expenses, groupLoans, group.Members)
		if err != nil {
			slog.Error("Balance computation failed", "group_id", groupID, "error", err)
			return nil, nil, err
		}

		instructions, optStats, err := calculator.Optimize(balances)
		if err != nil {
			slog.Error("Settlement aborted", "group_id", groupID, "error", err)
			return nil, nil, err
		}
		stats = optStats

		settlements = make([]*models.Settlement, len(instructions))
		loans := make([]*models.Loan, len(instructions))
		for i, in := range instructions {
			loans[i] = &models.Loan{
				GroupID:    groupID,
				LenderID:   in.CreditorID,
				ReceiverID: in.DebtorID,
				Amount:     in.Amount,
				Reason:     "Settlement of " + group.Name,
				Status:     models.LoanPending,
				Kind:       models.LoanSettlement,
			}
			settlements[i] = &models.Settlement{
				GroupID:    groupID,
				DebtorID:   in.DebtorID,
				CreditorID: in.CreditorID,
				Amount:     in.Amount,
			}
		}
		return settlements, loans, nil
	})
	if err != nil {
		return nil, calculator.Stats{}, err
	}

	settlementRuns.Inc()
	settlementInstructions.Add(float64(len(settlements)))
	slog.Info("Group settled",
		"group_id", groupID,
		"instructions", stats.TransactionCount,
		"total_flow", stats.TotalFlow,
	)

	views := make([]SettlementView, len(settlements))
	for i, st := range settlements {
		views[i] = SettlementView{Settlement: st, Status: models.SettlementPending}
	}
	return views, stats, nil
}

// ListSettlements returns a group's settlement instructions with their
// derived status: completed once the materialized loan is paid.
func (s *GroupService) ListSettlements(ctx context.Context, actorID, groupID string) ([]SettlementView, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(actorID) {
		return nil, ErrNotMember
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	loans, err := s.store.ListLoansByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	statusByLoan := make(map[string]models.LoanStatus, len(loans))
	for _, l := range loans {
		statusByLoan[l.ID] = l.Status
	}

	views := make([]SettlementView, len(settlements))
	for i, st := range settlements {
		status := models.SettlementPending
		if statusByLoan[st.LoanID] == models.LoanPaid {
			status = models.SettlementCompleted
		}
		views[i] = SettlementView{Settlement: st, Status: status}
	}
	return views, nil
}

// computeBalances loads the group's current expenses and loans and folds
// them into net balances.
func (s *GroupService) computeBalances(ctx context.Context, group *models.Group) (map[string]int64, error) {
	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	loans, err := s.store.ListLoansByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	balances, err := calculator.ComputeBalances(expenses, loans, group.Members)
	if err != nil {
		slog.Error("Balance computation failed", "group_id", group.ID, "error", err)
		return nil, err
	}
	return balances, nil
}
