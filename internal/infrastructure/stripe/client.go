package stripe

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
)

// Client talks to the Stripe REST API. It performs no retries and does not
// interpret intent statuses; both are the caller's job.
type Client struct {
	Key     string
	BaseURL string
	HTTP    *http.Client
	Mock    bool
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// IntentSnapshot carries the processor's raw view of one intent.
type IntentSnapshot struct {
	ID        string
	Status    string
	ChargeID  string
	Card      *domain.CardSummary
	LastError string
}

type Refund struct {
	ID     string
	Status string
}

// APIError is a non-transport rejection reported by the processor.
type APIError struct {
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s %s: %s", e.Type, e.Code, e.Message)
}

// Retryable reports whether the caller may usefully retry with backoff.
func (e *APIError) Retryable() bool {
	if e.HTTPStatus == http.StatusTooManyRequests || e.HTTPStatus >= 500 {
		return true
	}
	return e.Type == "api_error"
}

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "stripe: transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func (c *Client) CreateIntent(ctx context.Context, amount domain.Money, metadata map[string]string) (Intent, error) {
	if amount.Cents <= 0 {
		return Intent{}, &APIError{Type: "invalid_request_error", Code: "amount_too_small", Message: "amount must be positive", HTTPStatus: http.StatusBadRequest}
	}
	if c.Mock {
		id := "pi_mock_" + randomSuffix()
		return Intent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}, nil
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount.Cents, 10))
	form.Set("currency", amount.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}
	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Status       string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &out); err != nil {
		return Intent{}, err
	}
	return Intent{ID: out.ID, ClientSecret: out.ClientSecret, Status: out.Status}, nil
}

type intentResp struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
	LatestCharge *struct {
		ID                   string `json:"id"`
		PaymentMethodDetails *struct {
			Card *struct {
				Last4    string `json:"last4"`
				Brand    string `json:"brand"`
				ExpMonth int    `json:"exp_month"`
				ExpYear  int    `json:"exp_year"`
			} `json:"card"`
		} `json:"payment_method_details"`
	} `json:"latest_charge"`
}

func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (IntentSnapshot, error) {
	if strings.TrimSpace(intentID) == "" {
		return IntentSnapshot{}, &APIError{Type: "invalid_request_error", Message: "intent id required", HTTPStatus: http.StatusBadRequest}
	}
	if c.Mock {
		return mockSnapshot(intentID), nil
	}
	var out intentResp
	path := "/v1/payment_intents/" + url.PathEscape(intentID) + "?expand[]=latest_charge"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return IntentSnapshot{}, err
	}
	snap := IntentSnapshot{ID: out.ID, Status: out.Status}
	if out.LastPaymentError != nil {
		snap.LastError = out.LastPaymentError.Message
	}
	if ch := out.LatestCharge; ch != nil {
		snap.ChargeID = ch.ID
		if ch.PaymentMethodDetails != nil && ch.PaymentMethodDetails.Card != nil {
			card := ch.PaymentMethodDetails.Card
			snap.Card = &domain.CardSummary{
				Last4:       card.Last4,
				Brand:       card.Brand,
				ExpiryMonth: card.ExpMonth,
				ExpiryYear:  card.ExpYear,
			}
		}
	}
	return snap, nil
}

// CreateRefund refunds a charge. A nil amount refunds the full remaining
// chargeable amount, mirroring the processor's own default.
func (c *Client) CreateRefund(ctx context.Context, chargeID string, amountCents *int64, reason string) (Refund, error) {
	if strings.TrimSpace(chargeID) == "" {
		return Refund{}, &APIError{Type: "invalid_request_error", Message: "charge id required", HTTPStatus: http.StatusBadRequest}
	}
	if c.Mock {
		return Refund{ID: "re_mock_" + randomSuffix(), Status: "succeeded"}, nil
	}
	form := url.Values{}
	form.Set("charge", chargeID)
	if amountCents != nil {
		form.Set("amount", strconv.FormatInt(*amountCents, 10))
	}
	if reason != "" {
		form.Set("reason", reason)
	}
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", form, &out); err != nil {
		return Refund{}, err
	}
	return Refund{ID: out.ID, Status: out.Status}, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	base := c.BaseURL
	if base == "" {
		base = "https://api.stripe.com"
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Key)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var wrapped struct {
			Error *APIError `json:"error"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Error != nil {
			wrapped.Error.HTTPStatus = resp.StatusCode
			return wrapped.Error
		}
		return &APIError{Type: "api_error", Message: strings.TrimSpace(string(raw)), HTTPStatus: resp.StatusCode}
	}
	return json.Unmarshal(raw, out)
}

func randomSuffix() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// mockSnapshot lets dev flows drive the state machine without a processor
// account: the intent id suffix selects the reported status.
func mockSnapshot(intentID string) IntentSnapshot {
	snap := IntentSnapshot{ID: intentID, Status: "succeeded"}
	switch {
	case strings.HasSuffix(intentID, "_fail"):
		snap.Status = "canceled"
		snap.LastError = "card was declined"
	case strings.HasSuffix(intentID, "_action"):
		snap.Status = "requires_action"
	case strings.HasSuffix(intentID, "_slow"):
		snap.Status = "processing"
	default:
		snap.ChargeID = "ch_mock_" + strings.TrimPrefix(intentID, "pi_mock_")
		snap.Card = &domain.CardSummary{Last4: "4242", Brand: "visa", ExpiryMonth: 12, ExpiryYear: 2030}
	}
	return snap
}
