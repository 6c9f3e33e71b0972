package entity

import "time"

// Balances is a point-in-time read of everything the dashboard shows for
// one address. Values are human-decimal strings (18-decimal fixed point on
// the wire).
type Balances struct {
	Address         string    `json:"address"`
	TokenBalance    string    `json:"tokenBalance"`
	ExchangeBalance string    `json:"exchangeBalance"`
	NativeBalance   string    `json:"nativeBalance"`
	FetchedAt       time.Time `json:"fetchedAt"`
}

// Receipt is the inclusion proof for a submitted transaction.
// Status follows the EVM convention: 1 success, 0 revert.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
}
