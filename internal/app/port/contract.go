package port

import (
	"context"
	"math/big"

	"cryptoledger_exchange/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// TokenContract is the read/write surface of the CLX ERC-20 token used by
// the dashboard.
type TokenContract interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, from, spender common.Address, value *big.Int) (string, error)
}

// ExchangeContract is the surface of the CryptoExchange contract. Write
// methods dispatch through the connected signer and return the tx hash;
// confirmation is the watcher's job, not theirs.
type ExchangeContract interface {
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	GetPrice(ctx context.Context) (*big.Int, error)
	GetBonusRate(ctx context.Context) (*big.Int, error)
	GetReferralCode(ctx context.Context, addr common.Address) (string, error)
	GetReferralRewards(ctx context.Context, addr common.Address) (*big.Int, error)

	Transfer(ctx context.Context, from, to common.Address, value *big.Int) (string, error)
	Deposit(ctx context.Context, from common.Address, value *big.Int) (string, error)
	Withdraw(ctx context.Context, from common.Address, value *big.Int) (string, error)
	Trade(ctx context.Context, from common.Address, value *big.Int) (string, error)
	UseReferralCode(ctx context.Context, from common.Address, code string) (string, error)
	ClaimReferralRewards(ctx context.Context, from common.Address) (string, error)
	GenerateReferralCode(ctx context.Context, from common.Address) (string, error)
}

// ReceiptReader resolves inclusion receipts for submitted transactions.
// A (nil, nil) return means the transaction is still pending.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash string) (*entity.Receipt, error)
}
