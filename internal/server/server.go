// Package server exposes the ledger engine over a REST API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hisab/hisab/internal/auth"
	"github.com/hisab/hisab/internal/loans"
)

// Server wraps the gin engine and its lifecycle.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

// New builds the router with all routes and middleware registered.
func New(addr string, handler *Handler, jwtManager *auth.JWTManager) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), Metrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/auth/register", handler.register)
	api.POST("/auth/login", handler.login)

	authed := api.Group("", RequireAuth(jwtManager))
	{
		authed.POST("/groups", handler.createGroup)
		authed.GET("/groups/:id", handler.getGroup)
		authed.POST("/groups/:id/expenses", handler.createExpense)
		authed.GET("/groups/:id/expenses", handler.listExpenses)
		authed.DELETE("/groups/:id/expenses/:expenseID", handler.deleteExpense)
		authed.GET("/groups/:id/balances", handler.getBalances)
		authed.GET("/groups/:id/my-balance", handler.getMyBalance)
		authed.POST("/groups/:id/settle", handler.settleGroup)
		authed.GET("/groups/:id/settlements", handler.listSettlements)

		authed.POST("/loans", handler.createLoan)
		authed.GET("/loans", handler.listLoans)
		authed.POST("/loans/:id/confirm", handler.loanTransition(loans.EventConfirm))
		authed.POST("/loans/:id/request-payment", handler.loanTransition(loans.EventRequestPayment))
		authed.POST("/loans/:id/confirm-payment", handler.loanTransition(loans.EventConfirmPayment))
		authed.POST("/loans/:id/decline-payment", handler.loanTransition(loans.EventDeclinePayment))
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
	}
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	slog.Info("Server starting", "address", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-stopChan:
	}

	slog.Info("Shutdown signal received, draining requests")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
