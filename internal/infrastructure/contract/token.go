package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"cryptoledger_exchange/internal/app/port"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Minimal CLX token ABI: the ERC-20 subset the dashboard touches.
const clxTokenABI = `[
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"success","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedTokenABI  abi.ABI
	parsedTokenOnce sync.Once
)

func tokenABI() abi.ABI {
	parsedTokenOnce.Do(func() {
		var err error
		parsedTokenABI, err = abi.JSON(strings.NewReader(clxTokenABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse CLX token ABI: %v", err))
		}
	})
	return parsedTokenABI
}

// CLXToken implements port.TokenContract over the wallet provider.
type CLXToken struct {
	binding
}

// NewCLXToken binds the token contract at the given address.
func NewCLXToken(provider port.WalletProvider, address common.Address, logger *zap.Logger) *CLXToken {
	return &CLXToken{binding: newBinding(provider, address, tokenABI(), logger.Named("CLXToken"))}
}

// BalanceOf returns the token balance of owner.
func (t *CLXToken) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := t.call(ctx, "balanceOf", []any{owner}, &balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// Allowance returns the amount spender may still move on behalf of owner.
func (t *CLXToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var remaining *big.Int
	if err := t.call(ctx, "allowance", []any{owner, spender}, &remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

// Approve dispatches an approval and returns the tx hash.
func (t *CLXToken) Approve(ctx context.Context, from, spender common.Address, value *big.Int) (string, error) {
	return t.send(ctx, from, "approve", spender, value)
}
