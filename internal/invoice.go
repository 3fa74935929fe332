package internal

import (
	"context"
	"fmt"
	"time"

	"robokassa/entity"
)

// CreateInvoice creates an invoice through the XML API and returns the
// response fields. The signed string is the same one used for payment
// links; the amount keeps its exact decimal rendering.
func (c *Client) CreateInvoice(ctx context.Context, params *entity.InvoiceParams) (map[string]string, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	algorithm, err := c.algorithm(params.Algorithm)
	if err != nil {
		return nil, err
	}

	merchant := c.conf.Merchant
	canonical := PaymentCanonical(merchant.Login, params.OutSum.String(), params.InvIDString(), merchant.Password1, params.Custom)
	signature, err := NewSigner(algorithm).Digest(canonical)
	if err != nil {
		return nil, err
	}

	request := entity.InvoiceRequest{
		MerchantLogin:  merchant.Login,
		OutSum:         params.OutSum.String(),
		InvID:          params.InvIDString(),
		Description:    params.Description,
		Email:          params.Email,
		UserParameters: userParameters(params.Custom),
		SignatureValue: signature,
	}
	if params.ExpirationDate != nil {
		request.ExpirationDate = params.ExpirationDate.Format(time.RFC3339)
	}
	if algorithm != entity.DefaultAlgorithm {
		request.HashAlgorithm = string(algorithm)
	}

	fields, err := c.postXML(ctx, merchant.InvoiceURL, request)
	if err != nil {
		return nil, err
	}
	c.logger.Info(fmt.Sprintf("invoice %q created, sum %s", params.InvIDString(), params.OutSum.String()))
	return fields, nil
}
