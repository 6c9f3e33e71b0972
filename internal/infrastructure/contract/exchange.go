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

const cryptoExchangeABI = `[
{"constant":true,"inputs":[{"name":"_account","type":"address"}],"name":"getBalance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"getPrice","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"getBonusRate","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"_account","type":"address"}],"name":"getReferralCode","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[{"name":"_account","type":"address"}],"name":"getReferralRewards","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"}],"name":"transfer","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"_amount","type":"uint256"}],"name":"deposit","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"_amount","type":"uint256"}],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"_amount","type":"uint256"}],"name":"trade","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[{"name":"_code","type":"string"}],"name":"useReferralCode","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[],"name":"claimReferralRewards","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"constant":false,"inputs":[],"name":"generateReferralCode","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

var (
	parsedExchangeABI  abi.ABI
	parsedExchangeOnce sync.Once
)

func exchangeABI() abi.ABI {
	parsedExchangeOnce.Do(func() {
		var err error
		parsedExchangeABI, err = abi.JSON(strings.NewReader(cryptoExchangeABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse CryptoExchange ABI: %v", err))
		}
	})
	return parsedExchangeABI
}

// CryptoExchange implements port.ExchangeContract over the wallet provider.
type CryptoExchange struct {
	binding
}

// NewCryptoExchange binds the exchange contract at the given address.
func NewCryptoExchange(provider port.WalletProvider, address common.Address, logger *zap.Logger) *CryptoExchange {
	return &CryptoExchange{binding: newBinding(provider, address, exchangeABI(), logger.Named("CryptoExchange"))}
}

// GetBalance returns the exchange-held balance of addr.
func (e *CryptoExchange) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var v *big.Int
	if err := e.call(ctx, "getBalance", []any{addr}, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetPrice returns the current exchange token price.
func (e *CryptoExchange) GetPrice(ctx context.Context) (*big.Int, error) {
	var v *big.Int
	if err := e.call(ctx, "getPrice", nil, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetBonusRate returns the bonus rate in basis points.
func (e *CryptoExchange) GetBonusRate(ctx context.Context) (*big.Int, error) {
	var v *big.Int
	if err := e.call(ctx, "getBonusRate", nil, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetReferralCode returns the referral code assigned to addr, if any.
func (e *CryptoExchange) GetReferralCode(ctx context.Context, addr common.Address) (string, error) {
	var code string
	if err := e.call(ctx, "getReferralCode", []any{addr}, &code); err != nil {
		return "", err
	}
	return code, nil
}

// GetReferralRewards returns the unclaimed referral rewards of addr.
func (e *CryptoExchange) GetReferralRewards(ctx context.Context, addr common.Address) (*big.Int, error) {
	var v *big.Int
	if err := e.call(ctx, "getReferralRewards", []any{addr}, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Transfer moves exchange-held tokens to another account.
func (e *CryptoExchange) Transfer(ctx context.Context, from, to common.Address, value *big.Int) (string, error) {
	return e.send(ctx, from, "transfer", to, value)
}

// Deposit moves tokens into the exchange.
func (e *CryptoExchange) Deposit(ctx context.Context, from common.Address, value *big.Int) (string, error) {
	return e.send(ctx, from, "deposit", value)
}

// Withdraw moves tokens out of the exchange.
func (e *CryptoExchange) Withdraw(ctx context.Context, from common.Address, value *big.Int) (string, error) {
	return e.send(ctx, from, "withdraw", value)
}

// Trade executes a trade for value tokens.
func (e *CryptoExchange) Trade(ctx context.Context, from common.Address, value *big.Int) (string, error) {
	return e.send(ctx, from, "trade", value)
}

// UseReferralCode applies a referral code to the sender's account.
func (e *CryptoExchange) UseReferralCode(ctx context.Context, from common.Address, code string) (string, error) {
	return e.send(ctx, from, "useReferralCode", code)
}

// ClaimReferralRewards claims the sender's accumulated rewards.
func (e *CryptoExchange) ClaimReferralRewards(ctx context.Context, from common.Address) (string, error) {
	return e.send(ctx, from, "claimReferralRewards")
}

// GenerateReferralCode creates a referral code for the sender.
func (e *CryptoExchange) GenerateReferralCode(ctx context.Context, from common.Address) (string, error) {
	return e.send(ctx, from, "generateReferralCode")
}
