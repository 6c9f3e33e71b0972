package contract

import (
	"context"
	"fmt"
	"math/big"

	"cryptoledger_exchange/internal/app/port"
	"cryptoledger_exchange/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// binding dispatches reads (eth_call) and writes (eth_sendTransaction) for
// one deployed contract through the wallet provider. Writes are signed by
// the wallet side; this layer only packs call data and hands it over.
type binding struct {
	provider port.WalletProvider
	address  common.Address
	abi      abi.ABI
	logger   *zap.Logger
}

func newBinding(provider port.WalletProvider, address common.Address, parsed abi.ABI, logger *zap.Logger) binding {
	return binding{
		provider: provider,
		address:  address,
		abi:      parsed,
		logger:   logger,
	}
}

// call performs a read-only eth_call and unpacks the outputs into results.
func (b *binding) call(ctx context.Context, method string, args []any, results ...any) error {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	callArgs := map[string]any{
		"to":   b.address,
		"data": hexutil.Bytes(data),
	}

	var raw hexutil.Bytes
	if err := b.provider.Request(ctx, &raw, "eth_call", callArgs, "latest"); err != nil {
		return err
	}

	unpacked, err := b.abi.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("failed to unpack %s result: %w. Raw: %s", method, err, hexutil.Encode(raw))
	}
	if len(unpacked) < len(results) {
		return fmt.Errorf("%s returned %d values, want %d", method, len(unpacked), len(results))
	}
	for i, out := range results {
		if err := assign(out, unpacked[i]); err != nil {
			return fmt.Errorf("%s output %d: %w", method, i, err)
		}
	}
	return nil
}

// send dispatches a state-changing call through the signer and returns the
// transaction hash. It does not wait for inclusion.
func (b *binding) send(ctx context.Context, from common.Address, method string, args ...any) (string, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	txArgs := map[string]any{
		"from": from,
		"to":   b.address,
		"data": hexutil.Bytes(data),
	}

	var txHash common.Hash
	if err := b.provider.Request(ctx, &txHash, "eth_sendTransaction", txArgs); err != nil {
		b.logger.Debug("sendTransaction dispatch failed", zap.String("method", method), zap.Error(err))
		return "", err
	}
	return txHash.Hex(), nil
}

// ReceiptReader resolves receipts through the same provider the contracts
// use. A pending transaction yields (nil, nil).
type ReceiptReader struct {
	provider port.WalletProvider
}

// NewReceiptReader creates a ReceiptReader over the given provider.
func NewReceiptReader(provider port.WalletProvider) *ReceiptReader {
	return &ReceiptReader{provider: provider}
}

type rpcReceipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	Status          hexutil.Uint64 `json:"status"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
}

// TransactionReceipt implements port.ReceiptReader.
func (r *ReceiptReader) TransactionReceipt(ctx context.Context, txHash string) (*entity.Receipt, error) {
	var rec *rpcReceipt
	if err := r.provider.Request(ctx, &rec, "eth_getTransactionReceipt", common.HexToHash(txHash)); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &entity.Receipt{
		TxHash:      rec.TransactionHash.Hex(),
		Status:      uint64(rec.Status),
		BlockNumber: uint64(rec.BlockNumber),
	}, nil
}

func assign(dst any, src any) error {
	switch d := dst.(type) {
	case nil:
		return nil
	case *string:
		s, ok := src.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", src)
		}
		*d = s
		return nil
	case *bool:
		v, ok := src.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", src)
		}
		*d = v
		return nil
	case **big.Int:
		v, ok := src.(*big.Int)
		if !ok {
			return fmt.Errorf("expected *big.Int, got %T", src)
		}
		*d = v
		return nil
	default:
		return fmt.Errorf("unsupported output type %T", dst)
	}
}
