package restapi

import (
	"net/http"
	"strconv"

	"cryptoledger_exchange/internal/app/port"

	"github.com/gin-gonic/gin"
)

// PriceHandler serves the market data endpoints. Upstream failures never
// surface here: the price service degrades to synthetic data and marks it
// with a fallback flag.
type PriceHandler struct {
	prices port.PriceService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(prices port.PriceService) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// SpotHandler handles GET /prices/spot?id=ethereum.
func (h *PriceHandler) SpotHandler(c *gin.Context) {
	tokenID := c.DefaultQuery("id", "ethereum")
	price, err := h.prices.TokenPrice(c.Request.Context(), tokenID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, price)
}

// HistoryHandler handles GET /prices/history?id=ethereum&timeframe=7d.
// Timeframe accepts the UI aliases 24h/7d/30d or a plain day count.
func (h *PriceHandler) HistoryHandler(c *gin.Context) {
	tokenID := c.DefaultQuery("id", "ethereum")
	days := parseTimeframe(c.DefaultQuery("timeframe", "7d"))

	series, err := h.prices.TokenPriceHistory(c.Request.Context(), tokenID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, series)
}

// CoinInfoHandler handles GET /prices/coins/:id.
func (h *PriceHandler) CoinInfoHandler(c *gin.Context) {
	info, err := h.prices.TokenInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// MarketsHandler handles GET /prices/markets?page=1&perPage=20.
func (h *PriceHandler) MarketsHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))

	coins, err := h.prices.TokenList(c.Request.Context(), page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

func parseTimeframe(tf string) int {
	switch tf {
	case "24h":
		return 1
	case "7d":
		return 7
	case "30d":
		return 30
	}
	if n, err := strconv.Atoi(tf); err == nil && n > 0 {
		return n
	}
	return 7
}
