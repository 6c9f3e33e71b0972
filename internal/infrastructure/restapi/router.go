package restapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router for the dashboard API.
func SetupRouter(wallet *WalletHandler, prices *PriceHandler, hub *NotificationHub) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/wallet/connect", wallet.ConnectHandler)
		v1.POST("/wallet/disconnect", wallet.DisconnectHandler)
		v1.GET("/wallet/session", wallet.SessionHandler)
		v1.GET("/wallet/balances", wallet.BalancesHandler)
		v1.GET("/wallet/allowance", wallet.AllowanceHandler)

		v1.POST("/operations", wallet.SubmitHandler)
		v1.GET("/operations/:id", wallet.OperationHandler)

		v1.GET("/exchange/price", wallet.ExchangePriceHandler)
		v1.GET("/exchange/bonus-rate", wallet.BonusRateHandler)
		v1.GET("/referrals/:address/code", wallet.ReferralCodeHandler)
		v1.GET("/referrals/:address/rewards", wallet.ReferralRewardsHandler)

		v1.GET("/prices/spot", prices.SpotHandler)
		v1.GET("/prices/history", prices.HistoryHandler)
		v1.GET("/prices/coins/:id", prices.CoinInfoHandler)
		v1.GET("/prices/markets", prices.MarketsHandler)
	}

	router.GET("/ws/notifications", hub.ServeHandler)
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
