package entity

import (
	"encoding/xml"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// InvoiceParams is the input for invoice creation through the XML API.
type InvoiceParams struct {
	OutSum         Amount
	Description    string
	InvID          *int64
	Email          string
	ExpirationDate *time.Time
	Custom         CustomParams
	Algorithm      SignatureAlgorithm
}

func (p InvoiceParams) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Description, validation.Required),
		validation.Field(&p.Email, is.Email),
	)
	if err != nil {
		return &ValidationError{Field: "invoice", Reason: err.Error()}
	}
	if err := p.OutSum.Validate(); err != nil {
		return err
	}
	if p.InvID != nil && *p.InvID <= 0 {
		return &ValidationError{Field: "inv_id", Reason: "must be positive"}
	}
	return nil
}

func (p InvoiceParams) InvIDString() string {
	if p.InvID == nil {
		return ""
	}
	return strconv.FormatInt(*p.InvID, 10)
}

// InvoiceRequest is the XML payload posted to the invoice endpoint.
type InvoiceRequest struct {
	XMLName        xml.Name        `xml:"InvoiceRequest"`
	MerchantLogin  string          `xml:"MerchantLogin"`
	OutSum         string          `xml:"OutSum"`
	InvID          string          `xml:"InvId,omitempty"`
	Description    string          `xml:"Description"`
	Email          string          `xml:"Email,omitempty"`
	ExpirationDate string          `xml:"ExpirationDate,omitempty"`
	UserParameters []UserParameter `xml:"UserParameters>Parameter,omitempty"`
	SignatureValue string          `xml:"SignatureValue"`
	HashAlgorithm  string          `xml:"HashAlgorithm,omitempty"`
}

// UserParameter is one merchant-defined parameter in an XML request,
// transmitted with its full Shp_ name.
type UserParameter struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}
