package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotuspay/internal/application/payment/paymentgateway"
	"lotuspay/internal/domain/order"
	vo "lotuspay/internal/domain/order/valueobjects"
	"lotuspay/internal/shared/goroutine"
	"lotuspay/internal/shared/logger"
)

// PaymentMethodVNPay is recorded on the order by the settlement winner.
const PaymentMethodVNPay = "vnpay"

// settledCacheTTL bounds how long a settled (order, txn) tuple is remembered
// for fast replay answers. The database remains the source of truth.
const settledCacheTTL = 24 * time.Hour

type SettlementOutcome int

const (
	// OutcomePaid: the order was settled as paid by this call.
	OutcomePaid SettlementOutcome = iota
	// OutcomeFailed: the gateway declined and the order was settled as failed.
	OutcomeFailed
	// OutcomeAmountMismatch: the gateway approved but the paid amount does
	// not equal the expected amount; the order was settled as failed.
	OutcomeAmountMismatch
	// OutcomeAlreadyProcessed: the order was already settled, either before
	// this call or by a concurrent one that won the conditional update.
	OutcomeAlreadyProcessed
)

type SettleOrderCommand struct {
	OrderNo       string
	GatewayTxnRef string
	ResponseCode  string
	PaidAmount    int64
}

type SettlementResult struct {
	Outcome SettlementOutcome
	// PaymentStatus is the order's payment status after the attempt. For
	// OutcomeAlreadyProcessed it lets callers tell a replayed success from
	// a replayed decline; it may be empty if the re-read failed.
	PaymentStatus vo.PaymentStatus
}

// SettlementCache remembers settled (order, txn) tuples with an explicit TTL
// so repeated gateway notifications get an already-processed answer without a
// write attempt. Externally owned (redis), injected as a collaborator.
type SettlementCache interface {
	IsSettled(ctx context.Context, orderNo, gatewayTxnRef string) (bool, error)
	MarkSettled(ctx context.Context, orderNo, gatewayTxnRef string, ttl time.Duration) error
}

// PaymentConfirmation carries the data for the post-settlement notification.
type PaymentConfirmation struct {
	OrderNo       string
	Amount        int64
	GatewayTxnRef string
	PaidAt        time.Time
}

// ConfirmationNotifier delivers the one-time payment confirmation.
type ConfirmationNotifier interface {
	SendPaymentConfirmation(ctx context.Context, confirmation PaymentConfirmation) error
}

// SettleOrderUseCase is the single authority over an order's payment status.
// Both the browser return and the IPN hand off here; the conditional
// repository update guarantees exactly one of them applies the transition and
// fires side effects.
type SettleOrderUseCase struct {
	orderRepo order.Repository
	cache     SettlementCache      // Optional
	notifier  ConfirmationNotifier // Optional
	logger    logger.Interface
}

func NewSettleOrderUseCase(orderRepo order.Repository, logger logger.Interface) *SettleOrderUseCase {
	return &SettleOrderUseCase{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// SetSettlementCache sets the settlement cache (optional dependency injection)
func (uc *SettleOrderUseCase) SetSettlementCache(cache SettlementCache) {
	uc.cache = cache
}

// SetConfirmationNotifier sets the confirmation notifier (optional dependency injection)
func (uc *SettleOrderUseCase) SetConfirmationNotifier(notifier ConfirmationNotifier) {
	uc.notifier = notifier
}

func (uc *SettleOrderUseCase) Execute(ctx context.Context, cmd SettleOrderCommand) (*SettlementResult, error) {
	if uc.cache != nil {
		settled, err := uc.cache.IsSettled(ctx, cmd.OrderNo, cmd.GatewayTxnRef)
		if err != nil {
			// Cache trouble must not block settlement; the conditional
			// update below still guards correctness.
			uc.logger.Warnw("settlement cache lookup failed", "order_no", cmd.OrderNo, "error", err)
		} else if settled {
			return uc.alreadyProcessed(ctx, cmd.OrderNo), nil
		}
	}

	ord, err := uc.orderRepo.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			uc.logger.Warnw("settlement requested for unknown order", "order_no", cmd.OrderNo)
			return nil, err
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !ord.IsPayable() {
		uc.logger.Infow("order already settled", "order_no", cmd.OrderNo)
		return &SettlementResult{
			Outcome:       OutcomeAlreadyProcessed,
			PaymentStatus: ord.PaymentStatus(),
		}, nil
	}

	approved := cmd.ResponseCode == paymentgateway.ResponseCodeApproved
	amountMismatch := approved && cmd.PaidAmount != ord.Amount()

	ord.MarkPaymentMethod(PaymentMethodVNPay)

	if approved && !amountMismatch {
		err = ord.SettleAsPaid(cmd.PaidAmount, cmd.GatewayTxnRef)
	} else {
		err = ord.SettleAsFailed(cmd.GatewayTxnRef)
	}
	if err != nil {
		if errors.Is(err, order.ErrAlreadySettled) {
			return uc.alreadyProcessed(ctx, cmd.OrderNo), nil
		}
		return nil, err
	}

	applied, err := uc.orderRepo.SettleIfPending(ctx, ord)
	if err != nil {
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}
	if !applied {
		// A concurrent return/notification won the compare-and-swap.
		uc.logger.Infow("lost settlement race", "order_no", cmd.OrderNo)
		return uc.alreadyProcessed(ctx, cmd.OrderNo), nil
	}

	uc.markSettled(ctx, cmd)

	if amountMismatch {
		uc.logger.Warnw("settled as failed: paid amount mismatch",
			"order_no", cmd.OrderNo,
			"expected_amount", ord.Amount(),
			"paid_amount", cmd.PaidAmount,
		)
		return &SettlementResult{Outcome: OutcomeAmountMismatch, PaymentStatus: ord.PaymentStatus()}, nil
	}

	if !approved {
		uc.logger.Infow("payment declined",
			"order_no", cmd.OrderNo,
			"response_code", cmd.ResponseCode,
		)
		return &SettlementResult{Outcome: OutcomeFailed, PaymentStatus: ord.PaymentStatus()}, nil
	}

	uc.logger.Infow("payment settled",
		"order_no", cmd.OrderNo,
		"amount", cmd.PaidAmount,
		"gateway_txn_ref", cmd.GatewayTxnRef,
	)
	uc.notifyConfirmation(ord, cmd)

	return &SettlementResult{Outcome: OutcomePaid, PaymentStatus: ord.PaymentStatus()}, nil
}

// alreadyProcessed re-reads the order so callers can report the terminal
// status the winner left behind.
func (uc *SettleOrderUseCase) alreadyProcessed(ctx context.Context, orderNo string) *SettlementResult {
	result := &SettlementResult{Outcome: OutcomeAlreadyProcessed}
	if ord, err := uc.orderRepo.GetByOrderNo(ctx, orderNo); err == nil {
		result.PaymentStatus = ord.PaymentStatus()
	}
	return result
}

func (uc *SettleOrderUseCase) markSettled(ctx context.Context, cmd SettleOrderCommand) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.MarkSettled(ctx, cmd.OrderNo, cmd.GatewayTxnRef, settledCacheTTL); err != nil {
		uc.logger.Warnw("failed to mark settlement in cache", "order_no", cmd.OrderNo, "error", err)
	}
}

// notifyConfirmation fires the one-time confirmation, async and non-blocking.
// Only the settlement winner reaches this point.
func (uc *SettleOrderUseCase) notifyConfirmation(ord *order.Order, cmd SettleOrderCommand) {
	if uc.notifier == nil {
		return
	}

	confirmation := PaymentConfirmation{
		OrderNo:       ord.OrderNo(),
		Amount:        cmd.PaidAmount,
		GatewayTxnRef: cmd.GatewayTxnRef,
	}
	if ord.PaidAt() != nil {
		confirmation.PaidAt = *ord.PaidAt()
	}

	goroutine.SafeGo(uc.logger, "settle-order-confirmation", func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := uc.notifier.SendPaymentConfirmation(notifyCtx, confirmation); err != nil {
			uc.logger.Warnw("failed to send payment confirmation", "order_no", ord.OrderNo(), "error", err)
		}
	})
}
