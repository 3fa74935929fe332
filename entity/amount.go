package entity

import (
	"github.com/shopspring/decimal"
)

// Amount is an exact monetary value. It keeps the scale of the text it was
// parsed from, so "100.00" renders back as "100.00" and never as a float
// approximation or scientific notation.
type Amount struct {
	dec decimal.Decimal
}

// AmountFromString parses a decimal amount. The value must be a positive
// number with a dot decimal separator and no grouping.
func AmountFromString(value string) (Amount, error) {
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, &ValidationError{Field: "amount", Reason: "not a decimal number"}
	}
	amount := Amount{dec: dec}
	if err := amount.Validate(); err != nil {
		return Amount{}, err
	}
	return amount, nil
}

// AmountFromDecimal wraps an already constructed decimal value.
func AmountFromDecimal(dec decimal.Decimal) Amount {
	return Amount{dec: dec}
}

// Validate rejects non-positive amounts before they reach the signer.
func (a Amount) Validate() error {
	if a.dec.Sign() <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return nil
}

func (a Amount) IsZero() bool {
	return a.dec.IsZero()
}

func (a Amount) Decimal() decimal.Decimal {
	return a.dec
}

// String renders the amount with a fixed dot separator, preserving the
// scale of the source value: "100.00" stays "100.00", never "100". The
// gateway digests this exact text, so trailing zeros must survive.
func (a Amount) String() string {
	exp := a.dec.Exponent()
	if exp >= 0 {
		return a.dec.String()
	}
	return a.dec.StringFixed(-exp)
}

// MarshalJSON renders the amount as exact decimal text.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.dec.UnmarshalJSON(data)
}
