package entity

import "time"

// WalletSession represents the currently connected external account.
// There is at most one active session per process.
type WalletSession struct {
	Address     string    `json:"address,omitempty"`
	ConnectedAt time.Time `json:"connectedAt,omitempty"`
	IsConnected bool      `json:"isConnected"`
}
