package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoledger_exchange/internal/app/port"
	"cryptoledger_exchange/internal/config"
	"cryptoledger_exchange/internal/domain/entity"
	"cryptoledger_exchange/internal/pkg/amount"
	"cryptoledger_exchange/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// exchangeServiceImpl implements port.ExchangeService. It is the sole owner
// of the wallet session and of every pending operation; nothing else
// mutates them.
type exchangeServiceImpl struct {
	logger       *zap.Logger
	provider     port.WalletProvider
	token        port.TokenContract
	exchange     port.ExchangeContract
	receipts     port.ReceiptReader
	exchangeAddr common.Address

	confirmTimeout time.Duration
	receiptPoll    time.Duration
	refreshPeriod  time.Duration

	mu            sync.RWMutex
	session       entity.WalletSession
	operations    map[string]*entity.PendingOperation
	refreshCancel context.CancelFunc

	notifications chan entity.Notification

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewExchangeService creates the connection & transaction manager. provider
// may be nil, in which case every Connect fails with ErrNoProviderFound
// (the dashboard runs price-only).
func NewExchangeService(
	logger *zap.Logger,
	cfg *config.Config,
	provider port.WalletProvider,
	token port.TokenContract,
	exchange port.ExchangeContract,
	receipts port.ReceiptReader,
) port.ExchangeService {
	rootCtx, rootCancel := context.WithCancel(context.Background())

	s := &exchangeServiceImpl{
		logger:         logger.Named("ExchangeService"),
		provider:       provider,
		token:          token,
		exchange:       exchange,
		receipts:       receipts,
		exchangeAddr:   common.HexToAddress(cfg.Contracts.ExchangeAddress),
		confirmTimeout: time.Duration(cfg.Exchange.ConfirmTimeoutSeconds) * time.Second,
		receiptPoll:    time.Duration(cfg.Exchange.ReceiptPollMs) * time.Millisecond,
		refreshPeriod:  time.Duration(cfg.Exchange.BalanceRefreshSeconds) * time.Second,
		operations:     make(map[string]*entity.PendingOperation),
		notifications:  make(chan entity.Notification, 32),
		rootCtx:        rootCtx,
		rootCancel:     rootCancel,
	}

	if provider != nil {
		s.wg.Add(1)
		go s.watchProviderEvents()
	}
	return s
}

// Connect implements port.ExchangeService.
func (s *exchangeServiceImpl) Connect(ctx context.Context) (entity.WalletSession, error) {
	if s.provider == nil {
		return entity.WalletSession{}, entity.ErrNoProviderFound
	}

	var accounts []string
	if err := s.provider.Request(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if entity.ClassifyFailure(err) == entity.ReasonUserRejected {
			return entity.WalletSession{}, fmt.Errorf("%w: %s", entity.ErrUserRejected, err)
		}
		return entity.WalletSession{}, fmt.Errorf("failed to request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return entity.WalletSession{}, fmt.Errorf("%w: provider returned no accounts", entity.ErrUserRejected)
	}

	session := s.adoptAccount(accounts[0])
	s.notify("Wallet connected successfully", entity.NoteSuccess)
	s.logger.Info("Wallet connected", zap.String("address", session.Address))
	return session, nil
}

// adoptAccount replaces the singleton session with the given account and
// (re)starts the periodic balance refresher for it.
func (s *exchangeServiceImpl) adoptAccount(account string) entity.WalletSession {
	checksummed := common.HexToAddress(account).Hex()

	s.mu.Lock()
	if s.refreshCancel != nil {
		s.refreshCancel()
	}
	refreshCtx, cancel := context.WithCancel(s.rootCtx)
	s.refreshCancel = cancel
	s.session = entity.WalletSession{
		Address:     checksummed,
		ConnectedAt: time.Now(),
		IsConnected: true,
	}
	session := s.session
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runBalanceRefresher(refreshCtx, checksummed)
	return session
}

// Disconnect implements port.ExchangeService. It only clears local state
// and is idempotent.
func (s *exchangeServiceImpl) Disconnect() {
	s.mu.Lock()
	wasConnected := s.session.IsConnected
	if s.refreshCancel != nil {
		s.refreshCancel()
		s.refreshCancel = nil
	}
	s.session = entity.WalletSession{}
	s.mu.Unlock()

	if wasConnected {
		s.notify("Wallet disconnected", entity.NoteInfo)
		s.logger.Info("Wallet disconnected")
	}
}

// Session implements port.ExchangeService.
func (s *exchangeServiceImpl) Session() entity.WalletSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Submit implements port.ExchangeService. Validation failures are resolved
// locally: no contract call is dispatched and no operation is registered.
func (s *exchangeServiceImpl) Submit(ctx context.Context, kind entity.OperationKind, params entity.OperationParams) (entity.PendingOperation, error) {
	session := s.Session()
	if !session.IsConnected {
		return entity.PendingOperation{}, entity.ErrNotConnected
	}
	if err := validateParams(kind, params); err != nil {
		return entity.PendingOperation{}, err
	}

	from := common.HexToAddress(session.Address)
	txHash, err := s.dispatch(ctx, kind, from, params)

	op := &entity.PendingOperation{
		ID:           uuid.NewString(),
		Kind:         kind,
		Amount:       params.Amount,
		Counterparty: params.Counterparty,
		TxHash:       txHash,
		Status:       entity.StatusSubmitted,
		SubmittedAt:  time.Now(),
	}

	s.mu.Lock()
	s.operations[op.ID] = op
	s.mu.Unlock()

	if err != nil {
		// The wallet refused the dispatch itself; the operation fails
		// without ever reaching the chain. No resubmission is attempted
		// here, that is the user's call.
		s.finalize(op.ID, entity.StatusFailed, entity.ClassifyFailure(err))
		s.logger.Warn("Operation dispatch failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		return s.snapshot(op), err
	}

	s.logger.Info("Operation submitted",
		zap.String("id", op.ID),
		zap.String("kind", string(kind)),
		zap.String("txHash", txHash))

	s.wg.Add(1)
	go s.watchOperation(op.ID, txHash)

	return s.snapshot(op), nil
}

func (s *exchangeServiceImpl) snapshot(op *entity.PendingOperation) entity.PendingOperation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *op
}

func (s *exchangeServiceImpl) dispatch(ctx context.Context, kind entity.OperationKind, from common.Address, params entity.OperationParams) (string, error) {
	switch kind {
	case entity.OpApprove:
		// Allowance is always granted to the exchange; the dashboard never
		// approves arbitrary spenders.
		return s.token.Approve(ctx, from, s.exchangeAddr, amount.ToWei(params.Amount))
	case entity.OpTransfer:
		return s.exchange.Transfer(ctx, from, common.HexToAddress(params.Counterparty), amount.ToWei(params.Amount))
	case entity.OpDeposit:
		return s.exchange.Deposit(ctx, from, amount.ToWei(params.Amount))
	case entity.OpWithdraw:
		return s.exchange.Withdraw(ctx, from, amount.ToWei(params.Amount))
	case entity.OpTrade:
		return s.exchange.Trade(ctx, from, amount.ToWei(params.Amount))
	case entity.OpReferralUse:
		return s.exchange.UseReferralCode(ctx, from, params.ReferralCode)
	case entity.OpReferralClaim:
		return s.exchange.ClaimReferralRewards(ctx, from)
	case entity.OpReferralGenerate:
		return s.exchange.GenerateReferralCode(ctx, from)
	default:
		return "", entity.NewValidationError("kind", fmt.Sprintf("unknown operation kind %q", kind))
	}
}

func validateParams(kind entity.OperationKind, params entity.OperationParams) error {
	switch kind {
	case entity.OpTransfer, entity.OpTrade, entity.OpDeposit, entity.OpWithdraw, entity.OpApprove:
		if err := amount.Validate(params.Amount); err != nil {
			return entity.NewValidationError("amount", err.Error())
		}
		if kind == entity.OpTransfer {
			if params.Counterparty == "" {
				return entity.NewValidationError("counterparty", "recipient address is required")
			}
			if !common.IsHexAddress(params.Counterparty) {
				return entity.NewValidationError("counterparty", "invalid recipient address")
			}
		}
	case entity.OpReferralUse:
		if params.ReferralCode == "" {
			return entity.NewValidationError("referralCode", "referral code is required")
		}
	case entity.OpReferralClaim, entity.OpReferralGenerate:
		// No parameters.
	default:
		return entity.NewValidationError("kind", fmt.Sprintf("unknown operation kind %q", kind))
	}
	return nil
}

// watchOperation awaits exactly one inclusion receipt for the transaction
// and drives the operation to its terminal state. The wait is bounded by
// the confirmation timeout; expiry is a UX timeout, not a statement about
// the eventual on-chain outcome.
func (s *exchangeServiceImpl) watchOperation(opID, txHash string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.rootCtx, s.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.receiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := s.receipts.TransactionReceipt(ctx, txHash)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				s.finalize(opID, entity.StatusFailed, entity.ReasonTimeout)
				return
			}
			s.finalize(opID, entity.StatusFailed, entity.ClassifyFailure(err))
			return
		case receipt != nil && receipt.Status == 1:
			s.finalize(opID, entity.StatusConfirmed, "")
			s.refreshAfterConfirmation()
			return
		case receipt != nil:
			s.finalize(opID, entity.StatusFailed, entity.ReasonContractReverted)
			return
		}

		select {
		case <-ctx.Done():
			s.finalize(opID, entity.StatusFailed, entity.ReasonTimeout)
			return
		case <-ticker.C:
		}
	}
}

// finalize performs the single monotonic transition out of Submitted and
// emits the one terminal notification. Finalized operations are discarded.
func (s *exchangeServiceImpl) finalize(opID string, status entity.OperationStatus, reason entity.FailReason) {
	s.mu.Lock()
	op, ok := s.operations[opID]
	if !ok || op.Terminal() {
		s.mu.Unlock()
		return
	}
	op.Status = status
	op.Reason = reason
	delete(s.operations, opID)
	kind := op.Kind
	s.mu.Unlock()

	metrics.OperationsTotal.WithLabelValues(string(kind), string(status)).Inc()

	if status == entity.StatusConfirmed {
		s.notify(successMessage(kind), entity.NoteSuccess)
		s.logger.Info("Operation confirmed", zap.String("id", opID), zap.String("kind", string(kind)))
		return
	}
	s.notify(fmt.Sprintf("Transaction failed: %s", reason), entity.NoteError)
	s.logger.Warn("Operation failed",
		zap.String("id", opID),
		zap.String("kind", string(kind)),
		zap.String("reason", string(reason)))
}

func successMessage(kind entity.OperationKind) string {
	switch kind {
	case entity.OpTransfer:
		return "Tokens transferred successfully"
	case entity.OpDeposit:
		return "Deposit successful"
	case entity.OpWithdraw:
		return "Withdrawal successful"
	case entity.OpApprove:
		return "Token allowance approved"
	case entity.OpTrade:
		return "Trade executed successfully"
	case entity.OpReferralUse:
		return "Referral code applied successfully"
	case entity.OpReferralClaim:
		return "Rewards claimed successfully"
	case entity.OpReferralGenerate:
		return "Referral code generated successfully"
	default:
		return "Transaction completed successfully"
	}
}

// Operation implements port.ExchangeService. Terminal operations are
// discarded once their notification has been emitted, so only in-flight
// handles resolve.
func (s *exchangeServiceImpl) Operation(id string) (entity.PendingOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.operations[id]
	if !ok {
		return entity.PendingOperation{}, entity.ErrOperationNotFound
	}
	return *op, nil
}

// GetBalances implements port.ExchangeService. The three reads are
// independent and idempotent, so they run concurrently and the freshest
// result simply wins.
func (s *exchangeServiceImpl) GetBalances(ctx context.Context, address string) (entity.Balances, error) {
	if s.provider == nil {
		return entity.Balances{}, entity.ErrNoProviderFound
	}
	if !common.IsHexAddress(address) {
		return entity.Balances{}, entity.NewValidationError("address", "invalid address")
	}
	addr := common.HexToAddress(address)

	var tokenBal, exchangeBal, nativeBal string
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		v, err := s.token.BalanceOf(egCtx, addr)
		if err != nil {
			return fmt.Errorf("token balance: %w", err)
		}
		tokenBal = amount.Format(v)
		return nil
	})
	eg.Go(func() error {
		v, err := s.exchange.GetBalance(egCtx, addr)
		if err != nil {
			return fmt.Errorf("exchange balance: %w", err)
		}
		exchangeBal = amount.Format(v)
		return nil
	})
	eg.Go(func() error {
		var v hexutil.Big
		if err := s.provider.Request(egCtx, &v, "eth_getBalance", addr, "latest"); err != nil {
			return fmt.Errorf("native balance: %w", err)
		}
		nativeBal = amount.Format(v.ToInt())
		return nil
	})

	if err := eg.Wait(); err != nil {
		return entity.Balances{}, err
	}

	return entity.Balances{
		Address:         addr.Hex(),
		TokenBalance:    tokenBal,
		ExchangeBalance: exchangeBal,
		NativeBalance:   nativeBal,
		FetchedAt:       time.Now(),
	}, nil
}

// GetPrice implements port.ExchangeService.
func (s *exchangeServiceImpl) GetPrice(ctx context.Context) (string, error) {
	v, err := s.exchange.GetPrice(ctx)
	if err != nil {
		return "", err
	}
	return amount.Format(v), nil
}

// GetBonusRate implements port.ExchangeService. The contract stores basis
// points; the result is a percentage string.
func (s *exchangeServiceImpl) GetBonusRate(ctx context.Context) (string, error) {
	v, err := s.exchange.GetBonusRate(ctx)
	if err != nil {
		return "", err
	}
	return amount.FormatUnits(v, 2), nil
}

// GetReferralCode implements port.ExchangeService.
func (s *exchangeServiceImpl) GetReferralCode(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", entity.NewValidationError("address", "invalid address")
	}
	return s.exchange.GetReferralCode(ctx, common.HexToAddress(address))
}

// GetReferralRewards implements port.ExchangeService.
func (s *exchangeServiceImpl) GetReferralRewards(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", entity.NewValidationError("address", "invalid address")
	}
	v, err := s.exchange.GetReferralRewards(ctx, common.HexToAddress(address))
	if err != nil {
		return "", err
	}
	return amount.Format(v), nil
}

// GetAllowance implements port.ExchangeService. It reports how much the
// exchange may still move on behalf of owner.
func (s *exchangeServiceImpl) GetAllowance(ctx context.Context, owner string) (string, error) {
	if !common.IsHexAddress(owner) {
		return "", entity.NewValidationError("address", "invalid address")
	}
	v, err := s.token.Allowance(ctx, common.HexToAddress(owner), s.exchangeAddr)
	if err != nil {
		return "", err
	}
	return amount.Format(v), nil
}

// Notifications implements port.ExchangeService.
func (s *exchangeServiceImpl) Notifications() <-chan entity.Notification {
	return s.notifications
}

// Close cancels all background work: watchers, refresher and the provider
// event loop.
func (s *exchangeServiceImpl) Close() {
	s.rootCancel()
	s.wg.Wait()
}

func (s *exchangeServiceImpl) notify(message string, kind entity.NotificationKind) {
	select {
	case s.notifications <- entity.NewNotification(message, kind):
	default:
		s.logger.Debug("Dropping notification, subscriber is not draining",
			zap.String("message", message))
	}
}

// runBalanceRefresher re-reads balances on a fixed period while the session
// that started it is alive. Balances are idempotently re-read, so a race
// with the post-confirmation refresh resolves to whichever finished last.
func (s *exchangeServiceImpl) runBalanceRefresher(ctx context.Context, address string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.GetBalances(ctx, address); err != nil && ctx.Err() == nil {
				s.logger.Debug("Periodic balance refresh failed", zap.Error(err))
				continue
			}
			metrics.BalanceRefreshesTotal.WithLabelValues("periodic").Inc()
		}
	}
}

// refreshAfterConfirmation re-reads balances once for the current session.
func (s *exchangeServiceImpl) refreshAfterConfirmation() {
	session := s.Session()
	if !session.IsConnected {
		return
	}

	ctx, cancel := context.WithTimeout(s.rootCtx, 30*time.Second)
	defer cancel()

	if _, err := s.GetBalances(ctx, session.Address); err != nil {
		s.logger.Debug("Post-confirmation balance refresh failed", zap.Error(err))
		return
	}
	metrics.BalanceRefreshesTotal.WithLabelValues("confirmation").Inc()
}

// watchProviderEvents consumes accountsChanged/chainChanged from the wallet
// provider. A different active account is adopted in place (the UI is told
// to re-confirm); zero accounts means the wallet revoked access.
func (s *exchangeServiceImpl) watchProviderEvents() {
	defer s.wg.Done()

	for {
		select {
		case <-s.rootCtx.Done():
			return
		case ev, ok := <-s.provider.Events():
			if !ok {
				return
			}
			s.handleProviderEvent(ev)
		}
	}
}

func (s *exchangeServiceImpl) handleProviderEvent(ev port.ProviderEvent) {
	switch ev.Type {
	case port.EventAccountsChanged:
		session := s.Session()
		if !session.IsConnected {
			return
		}
		if len(ev.Accounts) == 0 {
			s.logger.Info("Provider reports zero accounts, clearing session")
			s.Disconnect()
			return
		}
		next := common.HexToAddress(ev.Accounts[0]).Hex()
		if next == session.Address {
			return
		}
		s.logger.Info("Active account switched",
			zap.String("previous", session.Address),
			zap.String("current", next))
		s.adoptAccount(ev.Accounts[0])
		s.notify("Active account changed, please re-confirm pending actions", entity.NoteInfo)
	case port.EventChainChanged:
		s.notify("Network changed", entity.NoteInfo)
	}
}
