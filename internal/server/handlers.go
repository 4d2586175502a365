package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hisab/hisab/internal/auth"
	"github.com/hisab/hisab/internal/calculator"
	"github.com/hisab/hisab/internal/loans"
	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/service"
	"github.com/hisab/hisab/internal/storage"
	"github.com/hisab/hisab/pkg/money"
)

// Handler bundles the application services behind the HTTP routes.
type Handler struct {
	authSvc    *service.AuthService
	groupSvc   *service.GroupService
	expenseSvc *service.ExpenseService
	loanSvc    *service.LoanService
}

// NewHandler creates the route handler.
func NewHandler(authSvc *service.AuthService, groupSvc *service.GroupService, expenseSvc *service.ExpenseService, loanSvc *service.LoanService) *Handler {
	return &Handler{
		authSvc:    authSvc,
		groupSvc:   groupSvc,
		expenseSvc: expenseSvc,
		loanSvc:    loanSvc,
	}
}

// writeError maps domain errors to HTTP status codes. Validation errors are
// 400, auth 401, permission 403, missing records 404, state conflicts 409.
// Anything else, including ledger invariant violations, is a 500 with no
// partial result.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, calculator.ErrInvalidSplit),
		errors.Is(err, calculator.ErrSplitMismatch),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, service.ErrUnknownMember),
		errors.Is(err, service.ErrSelfLoan),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotMember),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotExpenseCreator),
		errors.Is(err, service.ErrNotLoanParty):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadySettled),
		errors.Is(err, storage.ErrExpenseFrozen),
		errors.Is(err, loans.ErrIllegalTransition),
		errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authSvc.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user), "token": token})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user), "token": token})
}

type createGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"member_ids"`
}

type groupResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	OwnerID string   `json:"owner_id"`
	Members []string `json:"members"`
	Phase   string   `json:"phase"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:      g.ID,
		Name:    g.Name,
		OwnerID: g.OwnerID,
		Members: g.Members,
		Phase:   string(g.Phase),
	}
}

func (h *Handler) createGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupSvc.CreateGroup(c.Request.Context(), UserID(c), req.Name, req.MemberIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGroupResponse(group))
}

func (h *Handler) getGroup(c *gin.Context) {
	group, err := h.groupSvc.GetGroup(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(group))
}

type createExpenseRequest struct {
	Description    string   `json:"description" binding:"required"`
	Amount         string   `json:"amount" binding:"required"`
	PayerID        string   `json:"payer_id" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
	// Shares, if present, are custom per-participant amounts that must sum
	// exactly to Amount. Absent means equal split.
	Shares []string `json:"shares"`
}

type shareResponse struct {
	MemberID    string `json:"member_id"`
	Amount      string `json:"amount"`
	AmountMinor int64  `json:"amount_minor"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Description string          `json:"description"`
	Amount      string          `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	PayerID     string          `json:"payer_id"`
	Shares      []shareResponse `json:"shares"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	shares := make([]shareResponse, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = shareResponse{
			MemberID:    s.MemberID,
			Amount:      money.FromMinor(s.Amount),
			AmountMinor: s.Amount,
		}
	}
	return expenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      money.FromMinor(e.Amount),
		AmountMinor: e.Amount,
		PayerID:     e.PayerID,
		Shares:      shares,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
	}
}

func (h *Handler) createExpense(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := money.ToMinor(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	var customShares []int64
	for _, s := range req.Shares {
		minor, err := money.ToMinor(s)
		if err != nil {
			writeError(c, err)
			return
		}
		customShares = append(customShares, minor)
	}

	expense, err := h.expenseSvc.CreateExpense(c.Request.Context(), UserID(c), c.Param("id"),
		req.Description, amount, req.PayerID, req.ParticipantIDs, customShares)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

func (h *Handler) listExpenses(c *gin.Context) {
	expenses, err := h.expenseSvc.ListExpenses(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	c.JSON(http.StatusOK, gin.H{"expenses": resp})
}

func (h *Handler) deleteExpense(c *gin.Context) {
	if err := h.expenseSvc.DeleteExpense(c.Request.Context(), UserID(c), c.Param("expenseID")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type balanceResponse struct {
	MemberID    string `json:"member_id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	AmountMinor int64  `json:"amount_minor"`
}

func (h *Handler) getBalances(c *gin.Context) {
	balances, err := h.groupSvc.Balances(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]balanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = balanceResponse{
			MemberID:    b.MemberID,
			Name:        b.Name,
			Amount:      money.FromMinor(b.Net),
			AmountMinor: b.Net,
		}
	}
	c.JSON(http.StatusOK, gin.H{"balances": resp})
}

func (h *Handler) getMyBalance(c *gin.Context) {
	net, err := h.groupSvc.MyBalance(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"amount":       money.FromMinor(net),
		"amount_minor": net,
	})
}

type settlementResponse struct {
	ID          string `json:"id"`
	DebtorID    string `json:"debtor_id"`
	CreditorID  string `json:"creditor_id"`
	Amount      string `json:"amount"`
	AmountMinor int64  `json:"amount_minor"`
	LoanID      string `json:"loan_id"`
	Status      string `json:"status"`
}

func toSettlementResponses(views []service.SettlementView) []settlementResponse {
	resp := make([]settlementResponse, len(views))
	for i, v := range views {
		resp[i] = settlementResponse{
			ID:          v.ID,
			DebtorID:    v.DebtorID,
			CreditorID:  v.CreditorID,
			Amount:      money.FromMinor(v.Amount),
			AmountMinor: v.Amount,
			LoanID:      v.LoanID,
			Status:      string(v.Status),
		}
	}
	return resp
}

func (h *Handler) settleGroup(c *gin.Context) {
	views, stats, err := h.groupSvc.Settle(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"instructions": toSettlementResponses(views),
		"stats": gin.H{
			"total_flow":        money.FromMinor(stats.TotalFlow),
			"total_flow_minor":  stats.TotalFlow,
			"transaction_count": stats.TransactionCount,
		},
	})
}

func (h *Handler) listSettlements(c *gin.Context) {
	views, err := h.groupSvc.ListSettlements(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": toSettlementResponses(views)})
}

type createLoanRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Reason     string `json:"reason"`
	Kind       string `json:"kind"`
	DueDate    *int64 `json:"due_date"`
}

type loanResponse struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id,omitempty"`
	LenderID    string `json:"lender_id"`
	ReceiverID  string `json:"receiver_id"`
	Amount      string `json:"amount"`
	AmountMinor int64  `json:"amount_minor"`
	Reason      string `json:"reason"`
	DueDate     *int64 `json:"due_date,omitempty"`
	Status      string `json:"status"`
	Kind        string `json:"kind"`
	CreatedAt   int64  `json:"created_at"`
}

func toLoanResponse(l *models.Loan) loanResponse {
	return loanResponse{
		ID:          l.ID,
		GroupID:     l.GroupID,
		LenderID:    l.LenderID,
		ReceiverID:  l.ReceiverID,
		Amount:      money.FromMinor(l.Amount),
		AmountMinor: l.Amount,
		Reason:      l.Reason,
		DueDate:     l.DueDate,
		Status:      string(l.Status),
		Kind:        string(l.Kind),
		CreatedAt:   l.CreatedAt,
	}
}

func (h *Handler) createLoan(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := money.ToMinor(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	kind := models.LoanKind(req.Kind)
	if req.Kind == "" {
		kind = models.LoanPersonal
	}

	loan, err := h.loanSvc.CreateLoan(c.Request.Context(), UserID(c), req.ReceiverID, amount, req.Reason, kind, req.DueDate)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLoanResponse(loan))
}

func (h *Handler) listLoans(c *gin.Context) {
	userLoans, err := h.loanSvc.ListLoans(c.Request.Context(), UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]loanResponse, len(userLoans))
	for i, l := range userLoans {
		resp[i] = toLoanResponse(l)
	}
	c.JSON(http.StatusOK, gin.H{"loans": resp})
}

// loanTransition returns a handler applying the given lifecycle event.
func (h *Handler) loanTransition(event loans.Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		loan, err := h.loanSvc.Transition(c.Request.Context(), UserID(c), c.Param("id"), event)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toLoanResponse(loan))
	}
}
