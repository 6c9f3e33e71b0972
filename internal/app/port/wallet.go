package port

import "context"

// ProviderEventType names the EIP-1193 events the core subscribes to.
type ProviderEventType string

const (
	EventAccountsChanged ProviderEventType = "accountsChanged"
	EventChainChanged    ProviderEventType = "chainChanged"
)

// ProviderEvent is one event emitted by the wallet provider.
type ProviderEvent struct {
	Type     ProviderEventType
	Accounts []string
	ChainID  string
}

// WalletProvider is the EIP-1193-shaped boundary to the externally owned
// wallet. The application never holds signing keys; everything goes through
// Request. A nil provider means no wallet is injected at all.
type WalletProvider interface {
	// Request performs one provider call (eth_requestAccounts, eth_call,
	// eth_sendTransaction, ...) and unmarshals the response into result.
	Request(ctx context.Context, result any, method string, params ...any) error

	// Events returns the channel of accountsChanged/chainChanged events.
	Events() <-chan ProviderEvent
}
