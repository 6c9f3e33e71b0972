package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptoledger_exchange/internal/app/port"
	"cryptoledger_exchange/internal/client"
	"cryptoledger_exchange/internal/config"
	"cryptoledger_exchange/internal/infrastructure/contract"
	"cryptoledger_exchange/internal/infrastructure/restapi"
	"cryptoledger_exchange/internal/infrastructure/walletprovider"
	"cryptoledger_exchange/internal/pkg/logger"
	"cryptoledger_exchange/internal/service"
	"cryptoledger_exchange/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	// .env carries the CoinGecko API key in development; absence is fine.
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("No .env file loaded: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		logrus.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Bridge zap into slog for libraries that log through the default slog.
	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	// The wallet provider is an external collaborator; running without one
	// is a supported (price-only) mode, not a startup failure.
	var provider port.WalletProvider
	var receipts port.ReceiptReader
	var token port.TokenContract
	var exchange port.ExchangeContract

	if cfg.Network.ProviderURL != "" {
		rpcProvider, err := walletprovider.Dial(
			context.Background(),
			cfg.Network.ProviderURL,
			time.Duration(cfg.Network.ConnectTimeout)*time.Second,
			time.Duration(cfg.Network.RPCTimeoutMs)*time.Millisecond,
			zapLogger,
		)
		if err != nil {
			zapLogger.Warn("Wallet provider unreachable, starting in price-only mode", zap.Error(err))
		} else {
			defer rpcProvider.Close()
			provider = rpcProvider
			receipts = contract.NewReceiptReader(rpcProvider)
			token = contract.NewCLXToken(rpcProvider, common.HexToAddress(cfg.Contracts.TokenAddress), zapLogger)
			exchange = contract.NewCryptoExchange(rpcProvider, common.HexToAddress(cfg.Contracts.ExchangeAddress), zapLogger)

			watchCtx, cancelWatch := context.WithCancel(context.Background())
			defer cancelWatch()
			go rpcProvider.WatchAccounts(watchCtx, 5*time.Second)
			zapLogger.Info("Wallet provider connected", zap.String("url", cfg.Network.ProviderURL))
		}
	} else {
		zapLogger.Warn("No wallet provider configured, starting in price-only mode")
	}

	exchangeService := service.NewExchangeService(zapLogger, cfg, provider, token, exchange, receipts)
	defer exchangeService.Close()

	feedTimeout := time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond
	feedClient := client.NewCoinGeckoClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.ApiKey, feedTimeout, zapLogger)
	priceService := service.NewPriceService(zapLogger, cfg, feedClient)
	zapLogger.Info("Price service initialized", zap.String("baseURL", cfg.CoinGecko.BaseURL))

	walletHandler := restapi.NewWalletHandler(exchangeService)
	priceHandler := restapi.NewPriceHandler(priceService)
	hub := restapi.NewNotificationHub(exchangeService.Notifications(), zapLogger)

	router := restapi.SetupRouter(walletHandler, priceHandler, hub)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Dashboard API listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
