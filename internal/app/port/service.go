package port

import (
	"context"

	"cryptoledger_exchange/internal/domain/entity"
)

// ExchangeService owns the wallet session and the submit/confirm/settle
// lifecycle of every state-changing contract call.
type ExchangeService interface {
	Connect(ctx context.Context) (entity.WalletSession, error)
	Disconnect()
	Session() entity.WalletSession

	Submit(ctx context.Context, kind entity.OperationKind, params entity.OperationParams) (entity.PendingOperation, error)
	Operation(id string) (entity.PendingOperation, error)

	GetBalances(ctx context.Context, address string) (entity.Balances, error)
	GetPrice(ctx context.Context) (string, error)
	GetBonusRate(ctx context.Context) (string, error)
	GetReferralCode(ctx context.Context, address string) (string, error)
	GetReferralRewards(ctx context.Context, address string) (string, error)
	GetAllowance(ctx context.Context, owner string) (string, error)

	Notifications() <-chan entity.Notification
	Close()
}

// PriceService converts the unreliable, quota-limited upstream feed into a
// bounded-latency, always-available source: cache, spacing, retry, fallback.
type PriceService interface {
	TokenPrice(ctx context.Context, tokenID string) (entity.SpotPrice, error)
	TokenPriceHistory(ctx context.Context, tokenID string, days int) (entity.PriceSeries, error)
	TokenInfo(ctx context.Context, tokenID string) (entity.CoinInfo, error)
	TokenList(ctx context.Context, page, perPage int) ([]entity.CoinMarket, error)
}
