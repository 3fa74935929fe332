package entity

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ShpPrefix marks merchant-defined parameters on the wire. The gateway
// echoes them back in notifications and they take part in the signature.
const ShpPrefix = "Shp_"

// CustomParams holds merchant-defined key/value pairs keyed by their
// unprefixed names.
type CustomParams map[string]string

// CanonicalPairs returns "Shp_key=value" pairs sorted case-insensitively
// by the full prefixed name. Values are taken raw: the canonical string is
// digested, not URL-encoded. An empty set yields nil, so no suffix is
// appended at all.
func (c CustomParams) CanonicalPairs() []string {
	if len(c) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a := strings.ToLower(ShpPrefix + keys[i])
		b := strings.ToLower(ShpPrefix + keys[j])
		if a == b {
			return keys[i] < keys[j]
		}
		return a < b
	})
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, ShpPrefix+key+"="+c[key])
	}
	return pairs
}

// AddToQuery expands the set into individually named Shp_ query parameters.
func (c CustomParams) AddToQuery(values url.Values) {
	for key, value := range c {
		values.Set(ShpPrefix+key, value)
	}
}

// CustomParamsFromValues collects Shp_ parameters from an inbound parameter
// set. The prefix is matched case-insensitively; the remainder of the key is
// preserved as sent. A bare prefix with no name after it is ignored.
func CustomParamsFromValues(values url.Values) CustomParams {
	params := CustomParams{}
	for key := range values {
		if len(key) > len(ShpPrefix) && strings.EqualFold(key[:len(ShpPrefix)], ShpPrefix) {
			params[key[len(ShpPrefix):]] = values.Get(key)
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// PaymentParams is the input for payment link generation.
type PaymentParams struct {
	// Payment amount, positive
	OutSum Amount
	// Purpose of the payment shown to the payer
	Description string
	// Invoice ID; nil lets the gateway assign one
	InvID *int64
	// Customer email, optional
	Email string
	// Payment page language, optional
	Culture Culture
	// Text encoding of the description, e.g. utf-8, optional
	Encoding string
	// Payment link expiration, optional
	ExpirationDate *time.Time
	// Merchant-defined parameters echoed back in notifications
	Custom CustomParams
	// Digest algorithm override; empty means the configured default
	Algorithm SignatureAlgorithm
}

func (p PaymentParams) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Description, validation.Required),
		validation.Field(&p.Email, is.Email),
	)
	if err != nil {
		return &ValidationError{Field: "payment", Reason: err.Error()}
	}
	if err := p.OutSum.Validate(); err != nil {
		return err
	}
	if p.InvID != nil && *p.InvID <= 0 {
		return &ValidationError{Field: "inv_id", Reason: "must be positive"}
	}
	return nil
}

// InvIDString renders the invoice id for the canonical string: an empty
// string when the id is not supplied.
func (p PaymentParams) InvIDString() string {
	if p.InvID == nil {
		return ""
	}
	return strconv.FormatInt(*p.InvID, 10)
}
