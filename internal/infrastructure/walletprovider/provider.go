package walletprovider

import (
	"context"
	"fmt"
	"time"

	"cryptoledger_exchange/internal/app/port"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RPCProvider bridges the EIP-1193 request surface onto a go-ethereum RPC
// connection to a node that manages the user's accounts (the signing key
// never enters this process). eth_requestAccounts degrades to eth_accounts,
// which is what node-managed wallets answer.
type RPCProvider struct {
	client         *rpc.Client
	rpcCallTimeout time.Duration
	logger         *zap.Logger
	events         chan port.ProviderEvent
}

// Dial connects to the wallet node. All RPC URLs failing is a hard
// precondition failure for the dashboard, reported as-is to the caller.
func Dial(ctx context.Context, rawURL string, connectTimeout, rpcCallTimeout time.Duration, logger *zap.Logger) (*RPCProvider, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := rpc.DialContext(dialCtx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wallet provider %s: %w", rawURL, err)
	}

	return &RPCProvider{
		client:         client,
		rpcCallTimeout: rpcCallTimeout,
		logger:         logger.Named("WalletProvider"),
		events:         make(chan port.ProviderEvent, 8),
	}, nil
}

// Request implements port.WalletProvider.
func (p *RPCProvider) Request(ctx context.Context, result any, method string, params ...any) error {
	if method == "eth_requestAccounts" {
		method = "eth_accounts"
	}

	callCtx, cancel := context.WithTimeout(ctx, p.rpcCallTimeout)
	defer cancel()

	if err := p.client.CallContext(callCtx, result, method, params...); err != nil {
		p.logger.Debug("Provider request failed", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("provider request %s failed: %w", method, err)
	}
	return nil
}

// Events implements port.WalletProvider.
func (p *RPCProvider) Events() <-chan port.ProviderEvent {
	return p.events
}

// EmitAccountsChanged injects an accountsChanged event, used by the polling
// bridge below and by integration setups that watch the node directly.
func (p *RPCProvider) EmitAccountsChanged(accounts []string) {
	select {
	case p.events <- port.ProviderEvent{Type: port.EventAccountsChanged, Accounts: accounts}:
	default:
		p.logger.Warn("Dropping accountsChanged event, subscriber is not draining")
	}
}

// WatchAccounts polls eth_accounts and synthesizes accountsChanged events
// until ctx is cancelled. Plain JSON-RPC nodes have no push channel for
// account switches, so the boundary polls on the caller's interval.
func (p *RPCProvider) WatchAccounts(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var accounts []string
			if err := p.Request(ctx, &accounts, "eth_accounts"); err != nil {
				p.logger.Debug("Account poll failed", zap.Error(err))
				continue
			}
			if !sameAccounts(last, accounts) {
				last = accounts
				p.EmitAccountsChanged(accounts)
			}
		}
	}
}

// Close tears the provider connection down.
func (p *RPCProvider) Close() {
	p.client.Close()
	close(p.events)
}

func sameAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
