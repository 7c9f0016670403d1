// Package httpapi gives the operation-proposal and wallet-state surface
// a concrete transport shape, adapted from
// ai-powered-p256-smart-wallet/backend/internal/api/routes.go's gin
// route-group layout. This is an illustrative ambient transport, not a
// contract spec.md fixes — a deployment is free to expose the same
// operations over any wire format it likes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/protocol-bank/custody-engine/internal/operation"
	"github.com/protocol-bank/custody-engine/internal/walletactor"
)

// WalletLookup resolves a wallet id to its running actor, the HTTP
// layer's view into whatever registry cmd/server wires up (in-memory
// map, sharded store, etc).
type WalletLookup func(walletID string) (*walletactor.Wallet, bool)

type proposeRequest struct {
	Proposer    string `json:"proposer" binding:"required"`
	Kind        string `json:"kind" binding:"required"`
	Account     string `json:"account_id"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	ChainID     uint64 `json:"chain_id"`
	Name        string `json:"name"`
	Environment string `json:"environment"`
}

type respondRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// NewRouter builds the wallet-facing gin router: propose/confirm/reject
// against a single wallet's operation engine, plus its accounts and
// pending/processed views.
func NewRouter(lookup WalletLookup) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Principal"}
	router.Use(cors.New(config))

	api := router.Group("/api/wallets/:walletID")
	{
		api.GET("/accounts", withWallet(lookup, listAccounts))
		api.GET("/operations/pending", withWallet(lookup, listPending))
		api.GET("/operations/:id", withWallet(lookup, getProcessed))
		api.POST("/operations", withWallet(lookup, proposeOperation))
		api.POST("/operations/:id/confirm", withWallet(lookup, confirmOperation))
		api.POST("/operations/:id/reject", withWallet(lookup, rejectOperation))
	}

	return router
}

func withWallet(lookup WalletLookup, fn func(*gin.Context, *walletactor.Wallet)) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, ok := lookup(c.Param("walletID"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
			return
		}
		fn(c, w)
	}
}

func listAccounts(c *gin.Context, w *walletactor.Wallet) {
	c.JSON(http.StatusOK, gin.H{"accounts": w.Accounts.All()})
}

func listPending(c *gin.Context, w *walletactor.Wallet) {
	c.JSON(http.StatusOK, gin.H{"pending": w.GetPending()})
}

func getProcessed(c *gin.Context, w *walletactor.Wallet) {
	id, err := parseOpID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proc, ok := w.GetProcessed(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	c.JSON(http.StatusOK, proc)
}

func proposeOperation(c *gin.Context, w *walletactor.Wallet) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op, err := buildOperation(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := w.Propose(c.Request.Context(), req.Proposer, op, nil)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation_id": id})
}

func confirmOperation(c *gin.Context, w *walletactor.Wallet) {
	respondTo(c, w, w.Confirm)
}

func rejectOperation(c *gin.Context, w *walletactor.Wallet) {
	respondTo(c, w, w.Reject)
}

func respondTo(c *gin.Context, w *walletactor.Wallet, action func(ctx context.Context, id uint64, caller string) (*operation.ProcessedOperation, error)) {
	id, err := parseOpID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proc, err := action(c.Request.Context(), id, req.Caller)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, proc)
}
