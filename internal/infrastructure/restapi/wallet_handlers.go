package restapi

import (
	"errors"
	"net/http"

	"cryptoledger_exchange/internal/app/port"
	"cryptoledger_exchange/internal/domain/entity"
	"cryptoledger_exchange/internal/pkg/amount"

	"github.com/gin-gonic/gin"
)

// APIError is the error envelope for every non-2xx response.
type APIError struct {
	Error string `json:"error"`
}

// SubmitRequest is the request body for POST /operations.
type SubmitRequest struct {
	Kind         string `json:"kind" binding:"required"`
	Amount       string `json:"amount"`
	Counterparty string `json:"counterparty"`
	ReferralCode string `json:"referralCode"`
}

// WalletHandler serves wallet, operation and contract-read endpoints.
type WalletHandler struct {
	exchange port.ExchangeService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(exchange port.ExchangeService) *WalletHandler {
	return &WalletHandler{exchange: exchange}
}

// ConnectHandler handles POST /wallet/connect.
func (h *WalletHandler) ConnectHandler(c *gin.Context) {
	session, err := h.exchange.Connect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// DisconnectHandler handles POST /wallet/disconnect. Always succeeds.
func (h *WalletHandler) DisconnectHandler(c *gin.Context) {
	h.exchange.Disconnect()
	c.JSON(http.StatusOK, h.exchange.Session())
}

// SessionHandler handles GET /wallet/session.
func (h *WalletHandler) SessionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.exchange.Session())
}

// BalancesHandler handles GET /wallet/balances. Without an address query
// parameter it reads the connected session's balances.
func (h *WalletHandler) BalancesHandler(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		session := h.exchange.Session()
		if !session.IsConnected {
			respondError(c, entity.ErrNotConnected)
			return
		}
		address = session.Address
	}

	balances, err := h.exchange.GetBalances(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

// AllowanceHandler handles GET /wallet/allowance.
func (h *WalletHandler) AllowanceHandler(c *gin.Context) {
	session := h.exchange.Session()
	if !session.IsConnected {
		respondError(c, entity.ErrNotConnected)
		return
	}
	allowance, err := h.exchange.GetAllowance(c.Request.Context(), session.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowance": allowance})
}

// SubmitHandler handles POST /operations.
func (h *WalletHandler) SubmitHandler(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
		return
	}

	params := entity.OperationParams{
		Counterparty: req.Counterparty,
		ReferralCode: req.ReferralCode,
	}
	if req.Amount != "" {
		parsed, err := amount.Parse(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
			return
		}
		params.Amount = parsed
	}

	op, err := h.exchange.Submit(c.Request.Context(), entity.OperationKind(req.Kind), params)
	if err != nil {
		if op.Status == entity.StatusFailed {
			// Dispatched but refused by the wallet; the handle still tells
			// the caller which terminal state it landed in.
			c.JSON(http.StatusBadGateway, op)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, op)
}

// OperationHandler handles GET /operations/:id. Only in-flight operations
// resolve; terminal ones are discarded after their notification.
func (h *WalletHandler) OperationHandler(c *gin.Context) {
	op, err := h.exchange.Operation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

// ExchangePriceHandler handles GET /exchange/price.
func (h *WalletHandler) ExchangePriceHandler(c *gin.Context) {
	price, err := h.exchange.GetPrice(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": price})
}

// BonusRateHandler handles GET /exchange/bonus-rate.
func (h *WalletHandler) BonusRateHandler(c *gin.Context) {
	rate, err := h.exchange.GetBonusRate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bonusRate": rate})
}

// ReferralCodeHandler handles GET /referrals/:address/code.
func (h *WalletHandler) ReferralCodeHandler(c *gin.Context) {
	code, err := h.exchange.GetReferralCode(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referralCode": code})
}

// ReferralRewardsHandler handles GET /referrals/:address/rewards.
func (h *WalletHandler) ReferralRewardsHandler(c *gin.Context) {
	rewards, err := h.exchange.GetReferralRewards(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referralRewards": rewards})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case entity.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotConnected):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrNoProviderFound):
		status = http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrUserRejected):
		status = http.StatusForbidden
	case errors.Is(err, entity.ErrOperationNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, APIError{Error: err.Error()})
}
