package domain

import "time"

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodWallet       PaymentMethod = "wallet"
)

// CardSummary is populated once, after a successful confirmation.
type CardSummary struct {
	Last4       string `json:"last4"`
	Brand       string `json:"brand"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
}

// RefundDetails is set only when the payment transitions to refunded.
type RefundDetails struct {
	RefundID string `json:"refundId"`
	Amount   Money  `json:"amount"`
	Reason   string `json:"reason"`
}

type Payment struct {
	PaymentID     string         `json:"paymentId"`
	Amount        Money          `json:"amount"`
	Method        PaymentMethod  `json:"paymentMethod"`
	IntentID      string         `json:"intentId,omitempty"`
	ChargeID      string         `json:"chargeId,omitempty"`
	Status        PaymentStatus  `json:"status"`
	Description   string         `json:"description,omitempty"`
	OrderID       string         `json:"orderId,omitempty"`
	CustomerEmail string         `json:"customerEmail,omitempty"`
	CustomerName  string         `json:"customerName,omitempty"`
	CustomerPhone string         `json:"customerPhone,omitempty"`
	Card          *CardSummary   `json:"cardDetails,omitempty"`
	Refund        *RefundDetails `json:"refund,omitempty"`
	ErrorMessage  string         `json:"errorMessage,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
