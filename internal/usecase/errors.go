package usecase

import (
	"context"
	"errors"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/infrastructure/stripe"
)

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) + " not found" }

type ErrConflict string

func (e ErrConflict) Error() string { return string(e) }

type ErrBadRequest string

func (e ErrBadRequest) Error() string { return string(e) }

type ErrInternal string

func (e ErrInternal) Error() string { return string(e) }

// GatewayError wraps a processor failure without losing its diagnostic.
type GatewayError struct {
	Message   string
	Retryable bool
	Timeout   bool
}

func (e *GatewayError) Error() string { return "gateway: " + e.Message }

// Kind classifies an error for transports and logs.
func Kind(err error) string {
	var (
		nf ErrNotFound
		cf ErrConflict
		br ErrBadRequest
		in ErrInternal
		gw *GatewayError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &cf):
		return "conflict"
	case errors.As(err, &br):
		return "bad_request"
	case errors.As(err, &gw):
		if gw.Timeout {
			return "gateway_timeout"
		}
		return "gateway"
	case errors.As(err, &in):
		return "internal"
	default:
		return "internal"
	}
}

// translateGateway maps processor client errors into the service taxonomy,
// keeping the original message.
func translateGateway(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &GatewayError{Message: "payment processor timed out", Retryable: true, Timeout: true}
	}
	var api *stripe.APIError
	if errors.As(err, &api) {
		if api.Code == "charge_already_refunded" {
			return ErrConflict("charge is not refundable: " + api.Message)
		}
		return &GatewayError{Message: api.Error(), Retryable: api.Retryable()}
	}
	var tr *stripe.TransportError
	if errors.As(err, &tr) {
		return &GatewayError{Message: tr.Error(), Retryable: true}
	}
	return &GatewayError{Message: err.Error(), Retryable: false}
}
