package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/stripe"
)

func pendingPair() (*domain.Payment, *domain.Order) {
	now := time.Now().UTC().Add(-time.Minute)
	p := &domain.Payment{
		PaymentID: "pay-1",
		Amount:    domain.FromCents(17498, "usd"),
		Method:    domain.MethodCard,
		IntentID:  "pi_1",
		Status:    domain.PaymentPending,
		OrderID:   "ord-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	o := &domain.Order{
		OrderID:     "ord-1",
		FinalAmount: domain.FromCents(17498, "usd"),
		Status:      domain.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return p, o
}

func TestApply_RequiresAction(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	out := e.Apply(p, o, stripe.IntentSnapshot{Status: "requires_action"})
	if out != OutcomeRequiresAction {
		t.Fatalf("outcome = %s", out)
	}
	if p.Status != domain.PaymentPending || o.Status != domain.OrderPending {
		t.Fatalf("requires_action must not mutate: payment=%s order=%s", p.Status, o.Status)
	}
}

func TestApply_Succeeded(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	snap := stripe.IntentSnapshot{
		Status:   "succeeded",
		ChargeID: "ch_1",
		Card:     &domain.CardSummary{Last4: "4242", Brand: "visa", ExpiryMonth: 12, ExpiryYear: 2030},
	}
	out := e.Apply(p, o, snap)
	if out != OutcomeCompleted {
		t.Fatalf("outcome = %s", out)
	}
	if p.Status != domain.PaymentCompleted {
		t.Fatalf("payment status = %s", p.Status)
	}
	if p.ChargeID != "ch_1" || p.Card == nil || p.Card.Last4 != "4242" {
		t.Fatalf("charge identity not populated: %+v", p)
	}
	if o.Status != domain.OrderPaid || o.PaymentID != "pay-1" {
		t.Fatalf("order not paid/linked: %+v", o)
	}
	if !p.UpdatedAt.After(p.CreatedAt) {
		t.Fatalf("updatedAt not advanced")
	}
}

func TestApply_CompletedIsIdempotent(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	e.Apply(p, o, stripe.IntentSnapshot{Status: "succeeded", ChargeID: "ch_1"})

	// A second snapshot must not overwrite the charge identity of a
	// completed payment.
	out := e.Apply(p, o, stripe.IntentSnapshot{Status: "succeeded", ChargeID: "ch_other"})
	if out != OutcomeCompleted {
		t.Fatalf("outcome = %s", out)
	}
	if p.ChargeID != "ch_1" {
		t.Fatalf("chargeId overwritten: %s", p.ChargeID)
	}
	if o.Status != domain.OrderPaid {
		t.Fatalf("order status = %s", o.Status)
	}
}

func TestApply_CompletedRepairsOrderLink(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	p.Status = domain.PaymentCompleted

	out := e.Apply(p, o, stripe.IntentSnapshot{})
	if out != OutcomeCompleted {
		t.Fatalf("outcome = %s", out)
	}
	if o.Status != domain.OrderPaid || o.PaymentID != p.PaymentID {
		t.Fatalf("order link not repaired: %+v", o)
	}
}

func TestApply_RefundedIsTerminal(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	e.Apply(p, o, stripe.IntentSnapshot{Status: "succeeded", ChargeID: "ch_1"})
	e.ApplyRefund(p, "re_1", p.Amount, "requested_by_customer")

	// The processor keeps reporting succeeded after a refund; that must not
	// resurrect the payment into a refundable state.
	out := e.Apply(p, o, stripe.IntentSnapshot{Status: "succeeded", ChargeID: "ch_1"})
	if out != OutcomeRefunded {
		t.Fatalf("outcome = %s", out)
	}
	if p.Status != domain.PaymentRefunded {
		t.Fatalf("status = %s", p.Status)
	}
	if p.Refund == nil || p.Refund.RefundID != "re_1" {
		t.Fatalf("refund details lost: %+v", p.Refund)
	}
	if _, err := e.RefundableAmount(p, nil); Kind(err) != "conflict" {
		t.Fatalf("refunded payment refundable again: kind=%s", Kind(err))
	}
}

func TestApply_FailedIsTerminal(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	e.Apply(p, o, stripe.IntentSnapshot{Status: "canceled", LastError: "card was declined"})

	// A later succeeded snapshot for the same intent does not revive the
	// record; a retry starts a new payment.
	out := e.Apply(p, o, stripe.IntentSnapshot{Status: "succeeded", ChargeID: "ch_1"})
	if out != OutcomeFailed {
		t.Fatalf("outcome = %s", out)
	}
	if p.Status != domain.PaymentFailed || p.ChargeID != "" {
		t.Fatalf("failed payment mutated: %+v", p)
	}
	if p.ErrorMessage != "card was declined" {
		t.Fatalf("errorMessage = %q", p.ErrorMessage)
	}
	if o.Status != domain.OrderPending {
		t.Fatalf("order = %s", o.Status)
	}
}

func TestApply_FailureLeavesOrderUntouched(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	out := e.Apply(p, o, stripe.IntentSnapshot{Status: "canceled", LastError: "card was declined"})
	if out != OutcomeFailed {
		t.Fatalf("outcome = %s", out)
	}
	if p.Status != domain.PaymentFailed {
		t.Fatalf("payment status = %s", p.Status)
	}
	if p.ErrorMessage != "card was declined" {
		t.Fatalf("errorMessage = %q", p.ErrorMessage)
	}
	if o.Status != domain.OrderPending || o.PaymentID != "" {
		t.Fatalf("failed confirmation must not touch the order: %+v", o)
	}
}

func TestApply_ErrorMessageIsAppendOnly(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	p.ErrorMessage = "earlier attempt declined"
	e.Apply(p, o, stripe.IntentSnapshot{Status: "failed", LastError: "insufficient funds"})
	if p.ErrorMessage != "earlier attempt declined; insufficient funds" {
		t.Fatalf("errorMessage = %q", p.ErrorMessage)
	}
}

func TestApply_UnknownStatusIsPending(t *testing.T) {
	var e Engine
	for _, status := range []string{"processing", "something_new", ""} {
		p, o := pendingPair()
		out := e.Apply(p, o, stripe.IntentSnapshot{Status: status})
		if out != OutcomePending {
			t.Fatalf("status %q: outcome = %s", status, out)
		}
		if p.Status != domain.PaymentPending || o.Status != domain.OrderPending {
			t.Fatalf("status %q mutated state", status)
		}
	}
}

func TestApply_DoesNotTouchCancelledOrder(t *testing.T) {
	var e Engine
	p, o := pendingPair()
	o.Status = domain.OrderCancelled
	e.Apply(p, o, stripe.IntentSnapshot{Status: "succeeded", ChargeID: "ch_1"})
	if o.Status != domain.OrderCancelled {
		t.Fatalf("cancelled order was mutated: %s", o.Status)
	}
	if p.Status != domain.PaymentCompleted {
		t.Fatalf("payment should still complete: %s", p.Status)
	}
}

func TestRefundableAmount(t *testing.T) {
	var e Engine
	p, _ := pendingPair()

	if _, err := e.RefundableAmount(p, nil); Kind(err) != "conflict" {
		t.Fatalf("pending payment refund: kind=%s err=%v", Kind(err), err)
	}

	p.Status = domain.PaymentCompleted
	amt, err := e.RefundableAmount(p, nil)
	if err != nil {
		t.Fatalf("full refund: %v", err)
	}
	if amt.Cents != p.Amount.Cents {
		t.Fatalf("full refund amount = %d", amt.Cents)
	}

	partial := domain.FromCents(5000, "usd")
	amt, err = e.RefundableAmount(p, &partial)
	if err != nil || amt.Cents != 5000 {
		t.Fatalf("partial refund: %v %d", err, amt.Cents)
	}

	over := domain.FromCents(p.Amount.Cents+1, "usd")
	if _, err := e.RefundableAmount(p, &over); Kind(err) != "bad_request" {
		t.Fatalf("excess refund: kind=%s", Kind(err))
	}

	wrongCur := domain.FromCents(100, "eur")
	if _, err := e.RefundableAmount(p, &wrongCur); Kind(err) != "bad_request" {
		t.Fatalf("currency mismatch: kind=%s", Kind(err))
	}
}

func TestApplyRefund(t *testing.T) {
	var e Engine
	p, _ := pendingPair()
	p.Status = domain.PaymentCompleted
	e.ApplyRefund(p, "re_1", p.Amount, "requested_by_customer")
	if p.Status != domain.PaymentRefunded {
		t.Fatalf("status = %s", p.Status)
	}
	if p.Refund == nil || p.Refund.RefundID != "re_1" || p.Refund.Amount.Cents != p.Amount.Cents {
		t.Fatalf("refund details: %+v", p.Refund)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{ErrNotFound("payment"), "not_found"},
		{ErrConflict("order already paid"), "conflict"},
		{ErrBadRequest("invalid page"), "bad_request"},
		{&GatewayError{Message: "boom", Retryable: true}, "gateway"},
		{&GatewayError{Message: "slow", Timeout: true}, "gateway_timeout"},
		{ErrInternal("db"), "internal"},
		{errors.New("other"), "internal"},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.kind {
			t.Fatalf("Kind(%v) = %s, want %s", c.err, got, c.kind)
		}
	}
}
