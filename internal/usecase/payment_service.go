package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/events"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/stripe"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/metrics"
)

type PaymentRepo interface {
	PutPayment(*domain.Payment) error
	GetPayment(id string) (*domain.Payment, bool)
	ListPayments(status domain.PaymentStatus, page, pageSize int) ([]domain.Payment, int)
	PaymentsForOrder(orderID string) []domain.Payment
	PendingPaymentsBefore(cutoff time.Time) []domain.Payment
}

// Gateway is the only seam to the payment processor. Implementations perform
// no retries; the snapshot statuses come back raw.
type Gateway interface {
	CreateIntent(ctx context.Context, amount domain.Money, metadata map[string]string) (stripe.Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (stripe.IntentSnapshot, error)
	CreateRefund(ctx context.Context, chargeID string, amountCents *int64, reason string) (stripe.Refund, error)
}

type PaymentService struct {
	Payments PaymentRepo
	Orders   OrderRepo
	Gateway  Gateway
	Engine   Engine
	Events   events.Publisher
	Metrics  *metrics.Registry

	// ToleranceCents bounds how far an initiated amount may deviate from the
	// order's final amount. Zero means the default of one cent.
	ToleranceCents int64

	locks keyedLocks
}

// InitiatedPayment is returned from Initiate; the client completes the card
// flow against ClientSecret and then calls Confirm.
type InitiatedPayment struct {
	Payment      *domain.Payment
	ClientSecret string
}

func (s *PaymentService) tolerance() int64 {
	if s.ToleranceCents == 0 {
		return 1
	}
	return s.ToleranceCents
}

// Initiate creates the processor intent first and the local record second.
// If persistence fails the remote intent is left orphaned on purpose: it can
// never charge anyone without an explicit confirmation.
func (s *PaymentService) Initiate(ctx context.Context, orderID string, amount domain.Money, description string) (InitiatedPayment, error) {
	o, ok := s.Orders.GetOrder(orderID)
	if !ok {
		return InitiatedPayment{}, ErrNotFound("order")
	}
	if o.Status == domain.OrderPaid {
		return InitiatedPayment{}, ErrConflict("order already paid")
	}
	// One active payment per order. A failed attempt does not count; the
	// pending one must settle or be swept before another can start.
	if s.hasPendingPayment(orderID) {
		return InitiatedPayment{}, ErrConflict("a payment is already pending for this order")
	}
	if amount.Currency != o.FinalAmount.Currency {
		return InitiatedPayment{}, ErrBadRequest("amount does not match order total")
	}
	if diff := amount.Cents - o.FinalAmount.Cents; diff > s.tolerance() || diff < -s.tolerance() {
		return InitiatedPayment{}, ErrBadRequest("amount does not match order total")
	}

	intent, err := s.createIntent(ctx, amount, map[string]string{
		"orderId":     orderID,
		"description": description,
	})
	if err != nil {
		return InitiatedPayment{}, translateGateway(err)
	}

	now := time.Now().UTC()
	p := &domain.Payment{
		PaymentID:     uuid.NewString(),
		Amount:        amount,
		Method:        domain.MethodCard,
		IntentID:      intent.ID,
		Status:        domain.PaymentPending,
		Description:   description,
		OrderID:       orderID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Payments.PutPayment(p); err != nil {
		return InitiatedPayment{}, ErrInternal("persist payment: " + err.Error())
	}
	if s.Metrics != nil {
		s.Metrics.PaymentsInitiated.Inc()
	}
	return InitiatedPayment{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// Confirm reconciles the payment against the processor's authoritative intent
// state. It is idempotent: confirming an already-completed payment returns
// the record unchanged (and repairs the order link if an earlier run crashed
// between the two writes).
func (s *PaymentService) Confirm(ctx context.Context, paymentID, intentID string) (*domain.Payment, Outcome, error) {
	unlock := s.locks.acquire(paymentID)
	defer unlock()

	p, ok := s.Payments.GetPayment(paymentID)
	if !ok {
		return nil, "", ErrNotFound("payment")
	}
	if intentID != "" && p.IntentID != "" && intentID != p.IntentID {
		return nil, "", ErrConflict("intent does not belong to this payment")
	}
	id := p.IntentID
	if id == "" {
		id = intentID
	}
	if id == "" {
		return nil, "", ErrBadRequest("intent id required")
	}

	// Terminal entry states are answered locally, without a processor call
	// and without touching the record again.
	switch p.Status {
	case domain.PaymentRefunded:
		return p, OutcomeRefunded, nil
	case domain.PaymentFailed:
		return p, OutcomeFailed, nil
	case domain.PaymentCompleted:
		o := s.linkedOrder(p)
		needRepair := o != nil && o.Status == domain.OrderPending
		outcome := s.Engine.Apply(p, o, stripe.IntentSnapshot{})
		if needRepair {
			if err := s.Orders.PutOrder(o); err != nil {
				return nil, "", ErrInternal("persist order: " + err.Error())
			}
		}
		return p, outcome, nil
	}

	snap, err := s.retrieveIntent(ctx, id)
	if err != nil {
		return nil, "", translateGateway(err)
	}

	o := s.linkedOrder(p)
	outcome := s.Engine.Apply(p, o, snap)
	switch outcome {
	case OutcomeCompleted:
		// Payment first, then order; a crash in between is recovered by the
		// idempotent re-confirmation above.
		if err := s.Payments.PutPayment(p); err != nil {
			return nil, "", ErrInternal("persist payment: " + err.Error())
		}
		if o != nil {
			if err := s.Orders.PutOrder(o); err != nil {
				return nil, "", ErrInternal("persist order: " + err.Error())
			}
		}
		s.emitConfirmed(ctx, p, o)
	case OutcomeFailed:
		if err := s.Payments.PutPayment(p); err != nil {
			return nil, "", ErrInternal("persist payment: " + err.Error())
		}
		s.emitFailed(ctx, p)
	}
	return p, outcome, nil
}

// Refund moves a completed payment to refunded. The linked order's
// fulfillment status is not touched. A nil amount refunds in full; a partial
// amount arrives as a major-unit decimal and is parsed against the payment's
// own currency under the per-payment lock.
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amount *decimal.Decimal, reason string) (*domain.Payment, error) {
	if reason == "" {
		reason = "requested_by_customer"
	}
	if !validRefundReason(reason) {
		return nil, ErrBadRequest("invalid refund reason")
	}

	unlock := s.locks.acquire(paymentID)
	defer unlock()

	p, ok := s.Payments.GetPayment(paymentID)
	if !ok {
		return nil, ErrNotFound("payment")
	}
	var requested *domain.Money
	if amount != nil {
		m, err := domain.FromDecimal(*amount, p.Amount.Currency)
		if err != nil {
			return nil, ErrBadRequest("invalid refund amount")
		}
		requested = &m
	}
	refundAmount, err := s.Engine.RefundableAmount(p, requested)
	if err != nil {
		return nil, err
	}
	if p.ChargeID == "" {
		return nil, ErrConflict("payment has no charge to refund")
	}

	var cents *int64
	if requested != nil {
		c := refundAmount.Cents
		cents = &c
	}
	refund, err := s.createRefund(ctx, p.ChargeID, cents, reason)
	if err != nil {
		return nil, translateGateway(err)
	}

	s.Engine.ApplyRefund(p, refund.ID, refundAmount, reason)
	if err := s.Payments.PutPayment(p); err != nil {
		return nil, ErrInternal("persist payment: " + err.Error())
	}
	if s.Metrics != nil {
		s.Metrics.PaymentsRefunded.Inc()
	}
	if s.Events != nil {
		_ = s.Events.Publish(ctx, events.Event{
			Type:        events.TypePaymentRefunded,
			PaymentID:   p.PaymentID,
			OrderID:     p.OrderID,
			Status:      string(p.Status),
			AmountCents: refundAmount.Cents,
			Currency:    refundAmount.Currency,
			TS:          time.Now().UnixMilli(),
		})
	}
	return p, nil
}

func (s *PaymentService) Get(id string) (*domain.Payment, error) {
	p, ok := s.Payments.GetPayment(id)
	if !ok {
		return nil, ErrNotFound("payment")
	}
	return p, nil
}

func (s *PaymentService) List(status string, page, pageSize int) ([]domain.Payment, int, error) {
	if page < 1 || pageSize < 1 {
		return nil, 0, ErrBadRequest("invalid page")
	}
	st := domain.PaymentStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, ErrBadRequest("invalid status filter")
	}
	items, total := s.Payments.ListPayments(st, page, pageSize)
	return items, total, nil
}

// SweepPending re-runs confirmation over stale pending payments as a safety
// net for clients that never called confirm. Per-payment failures are logged
// and skipped.
func (s *PaymentService) SweepPending(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	pending := s.Payments.PendingPaymentsBefore(cutoff)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range pending {
		p := p
		if p.IntentID == "" {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			_, outcome, err := s.Confirm(ctx, p.PaymentID, p.IntentID)
			if err != nil {
				slog.Warn("sweep: confirm failed", "paymentId", p.PaymentID, "kind", Kind(err), "err", err)
				return nil
			}
			if outcome != OutcomePending {
				slog.Info("sweep: reconciled", "paymentId", p.PaymentID, "outcome", string(outcome))
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *PaymentService) hasPendingPayment(orderID string) bool {
	for _, p := range s.Payments.PaymentsForOrder(orderID) {
		if p.Status == domain.PaymentPending {
			return true
		}
	}
	return false
}

func (s *PaymentService) linkedOrder(p *domain.Payment) *domain.Order {
	if p.OrderID == "" {
		return nil
	}
	o, ok := s.Orders.GetOrder(p.OrderID)
	if !ok {
		return nil
	}
	return o
}

func (s *PaymentService) emitConfirmed(ctx context.Context, p *domain.Payment, o *domain.Order) {
	if s.Metrics != nil {
		s.Metrics.PaymentsConfirmed.Inc()
	}
	if s.Events == nil {
		return
	}
	now := time.Now().UnixMilli()
	_ = s.Events.Publish(ctx, events.Event{
		Type:        events.TypePaymentCompleted,
		PaymentID:   p.PaymentID,
		OrderID:     p.OrderID,
		Status:      string(p.Status),
		AmountCents: p.Amount.Cents,
		Currency:    p.Amount.Currency,
		TS:          now,
	})
	if o != nil && o.Status == domain.OrderPaid {
		_ = s.Events.Publish(ctx, events.Event{
			Type:        events.TypeOrderPaid,
			OrderID:     o.OrderID,
			PaymentID:   p.PaymentID,
			Status:      string(o.Status),
			AmountCents: o.FinalAmount.Cents,
			Currency:    o.FinalAmount.Currency,
			TS:          now,
		})
	}
}

func (s *PaymentService) emitFailed(ctx context.Context, p *domain.Payment) {
	if s.Metrics != nil {
		s.Metrics.PaymentsFailed.Inc()
	}
	if s.Events == nil {
		return
	}
	_ = s.Events.Publish(ctx, events.Event{
		Type:        events.TypePaymentFailed,
		PaymentID:   p.PaymentID,
		OrderID:     p.OrderID,
		Status:      string(p.Status),
		AmountCents: p.Amount.Cents,
		Currency:    p.Amount.Currency,
		TS:          time.Now().UnixMilli(),
	})
}

func (s *PaymentService) createIntent(ctx context.Context, amount domain.Money, md map[string]string) (stripe.Intent, error) {
	start := time.Now()
	intent, err := s.Gateway.CreateIntent(ctx, amount, md)
	s.observeGateway(start)
	return intent, err
}

func (s *PaymentService) retrieveIntent(ctx context.Context, id string) (stripe.IntentSnapshot, error) {
	start := time.Now()
	snap, err := s.Gateway.RetrieveIntent(ctx, id)
	s.observeGateway(start)
	return snap, err
}

func (s *PaymentService) createRefund(ctx context.Context, chargeID string, cents *int64, reason string) (stripe.Refund, error) {
	start := time.Now()
	refund, err := s.Gateway.CreateRefund(ctx, chargeID, cents, reason)
	s.observeGateway(start)
	return refund, err
}

func (s *PaymentService) observeGateway(start time.Time) {
	if s.Metrics != nil {
		s.Metrics.GatewayLatencySec.Observe(time.Since(start).Seconds())
	}
}

func validRefundReason(reason string) bool {
	switch reason {
	case "requested_by_customer", "duplicate", "fraudulent":
		return true
	}
	return false
}

// keyedLocks serializes confirm/refund per payment id. Entries are
// refcounted and dropped from the map once the last holder releases, so the
// map stays bounded by in-flight operations rather than payment history.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) acquire(id string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*lockEntry)
	}
	e, ok := k.m[id]
	if !ok {
		e = &lockEntry{}
		k.m[id] = e
	}
	e.refs++
	k.mu.Unlock()
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.m, id)
		}
		k.mu.Unlock()
	}
}
