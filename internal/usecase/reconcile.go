package usecase

import (
	"time"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/stripe"
)

// Outcome is what a reconciliation pass tells the caller.
type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeRequiresAction Outcome = "requires_action"
	OutcomeFailed         Outcome = "failed"
	// OutcomePending means the processor state was indeterminate; nothing was
	// mutated and the caller should retry later.
	OutcomePending Outcome = "pending"
	// OutcomeRefunded means the payment was already refunded; the record is
	// returned unchanged.
	OutcomeRefunded Outcome = "refunded"
)

type snapshotClass int

const (
	classIndeterminate snapshotClass = iota
	classRequiresAction
	classSucceeded
	classFailed
)

// classify maps the processor's raw status vocabulary onto the transition
// rules. Anything unrecognized is indeterminate, never assumed successful.
func classify(status string) snapshotClass {
	switch status {
	case "requires_action", "requires_confirmation", "requires_payment_method", "requires_capture":
		return classRequiresAction
	case "succeeded":
		return classSucceeded
	case "canceled", "failed", "payment_failed":
		return classFailed
	default:
		return classIndeterminate
	}
}

// Engine applies processor snapshots to Payment/Order pairs. It performs no
// IO; callers persist the mutated records, payment first.
type Engine struct{}

// Apply runs one reconciliation step. Completed, failed, and refunded are
// terminal entry states: the snapshot cannot move a payment out of them, no
// matter what the processor reports. The processor keeps answering
// "succeeded" for an intent whose charge was later refunded, so without the
// guard a refunded payment would be resurrected and become refundable again.
// A completed payment is left untouched except for re-linking its order, so
// duplicate confirmations cannot credit the order twice and a crash between
// the payment and order writes is repaired by re-running confirmation. A
// failed payment stays failed; another attempt starts a new payment.
func (Engine) Apply(p *domain.Payment, o *domain.Order, snap stripe.IntentSnapshot) Outcome {
	now := time.Now().UTC()
	switch p.Status {
	case domain.PaymentCompleted:
		linkOrder(p, o, now)
		return OutcomeCompleted
	case domain.PaymentRefunded:
		return OutcomeRefunded
	case domain.PaymentFailed:
		return OutcomeFailed
	}
	switch classify(snap.Status) {
	case classRequiresAction:
		return OutcomeRequiresAction
	case classSucceeded:
		p.Status = domain.PaymentCompleted
		if p.ChargeID == "" && snap.ChargeID != "" {
			p.ChargeID = snap.ChargeID
		}
		if p.Card == nil && snap.Card != nil {
			card := *snap.Card
			p.Card = &card
		}
		p.UpdatedAt = now
		linkOrder(p, o, now)
		return OutcomeCompleted
	case classFailed:
		p.Status = domain.PaymentFailed
		appendError(p, failureMessage(snap))
		p.UpdatedAt = now
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// RefundableAmount validates a refund request against the payment's state and
// returns the amount to refund (full amount when none is requested).
func (Engine) RefundableAmount(p *domain.Payment, requested *domain.Money) (domain.Money, error) {
	if p.Status != domain.PaymentCompleted {
		return domain.Money{}, ErrConflict("only completed payments can be refunded")
	}
	if requested == nil {
		return p.Amount, nil
	}
	if requested.Currency != p.Amount.Currency {
		return domain.Money{}, ErrBadRequest("refund currency does not match payment")
	}
	if requested.Cents <= 0 || requested.Cents > p.Amount.Cents {
		return domain.Money{}, ErrBadRequest("refund amount cannot exceed original payment")
	}
	return *requested, nil
}

// ApplyRefund records a processor-accepted refund. Order fulfillment status
// is deliberately left alone: a refund is a financial reversal, not a
// cancellation.
func (Engine) ApplyRefund(p *domain.Payment, refundID string, amount domain.Money, reason string) {
	p.Status = domain.PaymentRefunded
	p.Refund = &domain.RefundDetails{RefundID: refundID, Amount: amount, Reason: reason}
	p.UpdatedAt = time.Now().UTC()
}

// linkOrder promotes a pending order to paid. Only pending→paid is engine
// territory; any other order status is owned by fulfillment and not touched.
func linkOrder(p *domain.Payment, o *domain.Order, now time.Time) {
	if o == nil || o.Status != domain.OrderPending {
		return
	}
	o.Status = domain.OrderPaid
	o.PaymentID = p.PaymentID
	o.UpdatedAt = now
}

func failureMessage(snap stripe.IntentSnapshot) string {
	if snap.LastError != "" {
		return snap.LastError
	}
	return "payment " + snap.Status
}

// errorMessage is append-only diagnostic state.
func appendError(p *domain.Payment, msg string) {
	if msg == "" {
		return
	}
	if p.ErrorMessage != "" {
		p.ErrorMessage += "; " + msg
		return
	}
	p.ErrorMessage = msg
}
