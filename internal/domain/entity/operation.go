package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind identifies which contract method a submitted operation maps to.
type OperationKind string

const (
	OpTransfer         OperationKind = "transfer"
	OpTrade            OperationKind = "trade"
	OpDeposit          OperationKind = "deposit"
	OpWithdraw         OperationKind = "withdraw"
	OpApprove          OperationKind = "approve"
	OpReferralUse      OperationKind = "referral_use"
	OpReferralClaim    OperationKind = "referral_claim"
	OpReferralGenerate OperationKind = "referral_generate"
)

// OperationStatus is the lifecycle state of a pending operation.
// Transitions are monotonic: Submitted -> Confirmed or Submitted -> Failed.
type OperationStatus string

const (
	StatusSubmitted OperationStatus = "submitted"
	StatusConfirmed OperationStatus = "confirmed"
	StatusFailed    OperationStatus = "failed"
)

// FailReason classifies why an operation ended in StatusFailed.
type FailReason string

const (
	ReasonUserRejected      FailReason = "user_rejected"
	ReasonInsufficientFunds FailReason = "insufficient_funds"
	ReasonContractReverted  FailReason = "contract_reverted"
	ReasonTimeout           FailReason = "timeout"
	ReasonUnknown           FailReason = "unknown"
)

// OperationParams carries the kind-specific payload for a submit request.
// Amount is in human token units; Counterparty is required for transfers,
// ReferralCode for referral_use.
type OperationParams struct {
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	ReferralCode string          `json:"referralCode,omitempty"`
}

// PendingOperation represents one in-flight state-changing contract call.
// It is owned by the exchange service and discarded once its terminal
// notification has been emitted.
type PendingOperation struct {
	ID           string          `json:"id"`
	Kind         OperationKind   `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	TxHash       string          `json:"txHash,omitempty"`
	Status       OperationStatus `json:"status"`
	Reason       FailReason      `json:"reason,omitempty"`
	SubmittedAt  time.Time       `json:"submittedAt"`
}

// Terminal reports whether the operation has reached a final state.
func (op *PendingOperation) Terminal() bool {
	return op.Status == StatusConfirmed || op.Status == StatusFailed
}
