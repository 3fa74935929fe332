package entity

import (
	"encoding/xml"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RefundRequest is the XML payload of the legacy refund API. Amount is
// transmitted for partial refunds but is not part of the signed string;
// the gateway signs only login, invoice id and password.
type RefundRequest struct {
	XMLName        xml.Name `xml:"RefundRequest"`
	MerchantLogin  string   `xml:"MerchantLogin"`
	InvoiceID      string   `xml:"InvoiceID"`
	Amount         string   `xml:"Amount,omitempty"`
	SignatureValue string   `xml:"SignatureValue"`
	HashAlgorithm  string   `xml:"HashAlgorithm,omitempty"`
}

// RefundStatusRequest is the XML payload of the legacy refund status API.
type RefundStatusRequest struct {
	XMLName        xml.Name `xml:"RefundStatusRequest"`
	MerchantLogin  string   `xml:"MerchantLogin"`
	InvoiceID      string   `xml:"InvoiceID"`
	SignatureValue string   `xml:"SignatureValue"`
	HashAlgorithm  string   `xml:"HashAlgorithm,omitempty"`
}

// RefundItem is one invoice position in a v2 refund request.
type RefundItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Cost     Amount  `json:"cost"`
	Tax      TaxRate `json:"tax"`
}

func (i RefundItem) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required),
		validation.Field(&i.Quantity, validation.Min(1)),
	)
	if err != nil {
		return &ValidationError{Field: "refund item", Reason: err.Error()}
	}
	return i.Cost.Validate()
}

// RefundV2Params is the input for a refund through the token-based API.
// OpKey references the payment operation being refunded; a nil RefundSum
// requests a full refund.
type RefundV2Params struct {
	OpKey        string
	RefundSum    *Amount
	InvoiceItems []RefundItem
	Algorithm    SignatureAlgorithm
}

func (p RefundV2Params) Validate() error {
	if p.OpKey == "" {
		return &ValidationError{Field: "op_key", Reason: "cannot be blank"}
	}
	if p.RefundSum != nil {
		if err := p.RefundSum.Validate(); err != nil {
			return err
		}
	}
	for _, item := range p.InvoiceItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RefundV2Result is the response of the v2 refund create endpoint.
type RefundV2Result struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	Message   string `json:"message,omitempty"`
}

// RefundV2Status is the response of the v2 refund state endpoint.
type RefundV2Status struct {
	RequestID string `json:"requestId"`
	Amount    Amount `json:"amount"`
	Label     string `json:"label"`
	Message   string `json:"message,omitempty"`
}
