package internal

import (
	"context"
	"fmt"
	"strconv"

	"robokassa/entity"
)

// CreateRefund requests a refund for an invoice through the legacy XML
// API. A nil amount requests a full refund; a partial amount is
// transmitted but, matching the gateway contract, takes no part in the
// signed string.
func (c *Client) CreateRefund(ctx context.Context, invoiceID int64, amount *entity.Amount, algorithm entity.SignatureAlgorithm) (map[string]string, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if invoiceID <= 0 {
		return nil, &entity.ValidationError{Field: "invoice_id", Reason: "must be positive"}
	}
	if amount != nil {
		if err := amount.Validate(); err != nil {
			return nil, err
		}
	}
	resolved, err := c.algorithm(algorithm)
	if err != nil {
		return nil, err
	}

	merchant := c.conf.Merchant
	invoice := strconv.FormatInt(invoiceID, 10)
	signature, err := NewSigner(resolved).Digest(RefundCanonical(merchant.Login, invoice, merchant.Password1))
	if err != nil {
		return nil, err
	}

	request := entity.RefundRequest{
		MerchantLogin:  merchant.Login,
		InvoiceID:      invoice,
		SignatureValue: signature,
	}
	if amount != nil {
		request.Amount = amount.String()
	}
	if resolved != entity.DefaultAlgorithm {
		request.HashAlgorithm = string(resolved)
	}

	fields, err := c.postXML(ctx, merchant.RefundURL+"/Create", request)
	if err != nil {
		return nil, err
	}
	c.logger.Info(fmt.Sprintf("refund requested for invoice %s", invoice))
	return fields, nil
}

// GetRefundStatus queries the state of a legacy refund.
func (c *Client) GetRefundStatus(ctx context.Context, invoiceID int64, algorithm entity.SignatureAlgorithm) (map[string]string, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if invoiceID <= 0 {
		return nil, &entity.ValidationError{Field: "invoice_id", Reason: "must be positive"}
	}
	resolved, err := c.algorithm(algorithm)
	if err != nil {
		return nil, err
	}

	merchant := c.conf.Merchant
	invoice := strconv.FormatInt(invoiceID, 10)
	signature, err := NewSigner(resolved).Digest(RefundCanonical(merchant.Login, invoice, merchant.Password1))
	if err != nil {
		return nil, err
	}

	request := entity.RefundStatusRequest{
		MerchantLogin:  merchant.Login,
		InvoiceID:      invoice,
		SignatureValue: signature,
	}
	if resolved != entity.DefaultAlgorithm {
		request.HashAlgorithm = string(resolved)
	}

	return c.postXML(ctx, merchant.RefundURL+"/State", request)
}
