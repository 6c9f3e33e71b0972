package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"cryptoledger_exchange/internal/app/port"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

type scriptedProvider struct {
	callResult []byte
	callErr    error
	txHash     common.Hash
	receipt    *rpcReceipt
	lastMethod string
	lastParams []any
}

func (p *scriptedProvider) Request(_ context.Context, result any, method string, params ...any) error {
	p.lastMethod = method
	p.lastParams = params
	if p.callErr != nil {
		return p.callErr
	}
	switch out := result.(type) {
	case *hexutil.Bytes:
		*out = p.callResult
	case *common.Hash:
		*out = p.txHash
	case **rpcReceipt:
		*out = p.receipt
	}
	return nil
}

func (p *scriptedProvider) Events() <-chan port.ProviderEvent { return nil }

func packOutputs(t *testing.T, parsed func() ([]byte, error)) []byte {
	t.Helper()
	data, err := parsed()
	if err != nil {
		t.Fatalf("Failed to pack outputs: %v", err)
	}
	return data
}

func TestCLXToken_BalanceOf(t *testing.T) {
	want := big.NewInt(5e18)
	provider := &scriptedProvider{
		callResult: packOutputs(t, func() ([]byte, error) {
			return tokenABI().Methods["balanceOf"].Outputs.Pack(want)
		}),
	}
	token := NewCLXToken(provider, common.HexToAddress("0x1"), zap.NewNop())

	got, err := token.BalanceOf(context.Background(), common.HexToAddress("0x2"))
	if err != nil {
		t.Fatalf("BalanceOf failed: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if provider.lastMethod != "eth_call" {
		t.Errorf("Expected eth_call, got %s", provider.lastMethod)
	}
}

func TestCLXToken_BalanceOf_ProviderError(t *testing.T) {
	wantErr := errors.New("execution reverted")
	provider := &scriptedProvider{callErr: wantErr}
	token := NewCLXToken(provider, common.HexToAddress("0x1"), zap.NewNop())

	if _, err := token.BalanceOf(context.Background(), common.HexToAddress("0x2")); !errors.Is(err, wantErr) {
		t.Errorf("Expected provider error to propagate, got %v", err)
	}
}

func TestCryptoExchange_GetReferralCode(t *testing.T) {
	provider := &scriptedProvider{
		callResult: packOutputs(t, func() ([]byte, error) {
			return exchangeABI().Methods["getReferralCode"].Outputs.Pack("REF123")
		}),
	}
	exchange := NewCryptoExchange(provider, common.HexToAddress("0x3"), zap.NewNop())

	code, err := exchange.GetReferralCode(context.Background(), common.HexToAddress("0x2"))
	if err != nil {
		t.Fatalf("GetReferralCode failed: %v", err)
	}
	if code != "REF123" {
		t.Errorf("Expected REF123, got %s", code)
	}
}

func TestCryptoExchange_TradeReturnsTxHash(t *testing.T) {
	hash := common.HexToHash("0xabc123")
	provider := &scriptedProvider{txHash: hash}
	exchange := NewCryptoExchange(provider, common.HexToAddress("0x3"), zap.NewNop())

	txHash, err := exchange.Trade(context.Background(), common.HexToAddress("0x2"), big.NewInt(1e18))
	if err != nil {
		t.Fatalf("Trade failed: %v", err)
	}
	if txHash != hash.Hex() {
		t.Errorf("Expected %s, got %s", hash.Hex(), txHash)
	}
	if provider.lastMethod != "eth_sendTransaction" {
		t.Errorf("Expected eth_sendTransaction, got %s", provider.lastMethod)
	}
}

func TestReceiptReader_Pending(t *testing.T) {
	reader := NewReceiptReader(&scriptedProvider{})

	receipt, err := reader.TransactionReceipt(context.Background(), "0xdeadbeef")
	if err != nil {
		t.Fatalf("TransactionReceipt failed: %v", err)
	}
	if receipt != nil {
		t.Errorf("Pending transaction must yield a nil receipt, got %+v", receipt)
	}
}

func TestReceiptReader_Included(t *testing.T) {
	hash := common.HexToHash("0xdeadbeef")
	provider := &scriptedProvider{
		receipt: &rpcReceipt{TransactionHash: hash, Status: 1, BlockNumber: 42},
	}
	reader := NewReceiptReader(provider)

	receipt, err := reader.TransactionReceipt(context.Background(), hash.Hex())
	if err != nil {
		t.Fatalf("TransactionReceipt failed: %v", err)
	}
	if receipt == nil {
		t.Fatal("Expected a receipt for an included transaction")
	}
	if receipt.Status != 1 || receipt.BlockNumber != 42 {
		t.Errorf("Receipt fields not mapped: %+v", receipt)
	}
	if receipt.TxHash != hash.Hex() {
		t.Errorf("Expected %s, got %s", hash.Hex(), receipt.TxHash)
	}
}
