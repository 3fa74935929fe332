package services

import (
	"context"
	"net/url"

	"robokassa/entity"
)

// Gateway is the merchant-facing surface of the payment gateway client.
//
// CreatePaymentURL, ParseNotification and the two Verify methods are pure
// local computations; the remaining methods perform one HTTP round trip
// each and honour the passed context.
type Gateway interface {
	// CreatePaymentURL builds a signed payment link. No network call.
	CreatePaymentURL(params *entity.PaymentParams) (string, error)

	// ParseNotification extracts OutSum, InvId, SignatureValue and Shp_
	// parameters from an inbound parameter set, tolerant of key case.
	ParseNotification(values url.Values) (*entity.Notification, error)

	// VerifyResultURL checks a server-to-server notification signed with
	// password #2. No network call.
	VerifyResultURL(notification *entity.Notification) error
	// VerifySuccessURL checks a browser redirect signed with password #1.
	// No network call.
	VerifySuccessURL(notification *entity.Notification) error

	// CreateInvoice creates an invoice through the XML API and returns the
	// response fields.
	CreateInvoice(ctx context.Context, params *entity.InvoiceParams) (map[string]string, error)

	// CreateRefund requests a refund through the legacy API. A nil amount
	// requests a full refund.
	CreateRefund(ctx context.Context, invoiceID int64, amount *entity.Amount, algorithm entity.SignatureAlgorithm) (map[string]string, error)
	// GetRefundStatus queries the legacy refund state.
	GetRefundStatus(ctx context.Context, invoiceID int64, algorithm entity.SignatureAlgorithm) (map[string]string, error)

	// CreateRefundV2 requests a refund through the token-based API.
	// Requires password #3.
	CreateRefundV2(ctx context.Context, params *entity.RefundV2Params) (*entity.RefundV2Result, error)
	// GetRefundStatusV2 queries the token-based refund state.
	// Requires password #3.
	GetRefundStatusV2(ctx context.Context, requestID string) (*entity.RefundV2Status, error)

	// Close releases the transport. Idempotent; further calls on the
	// client fail with a configuration error.
	Close() error
}
