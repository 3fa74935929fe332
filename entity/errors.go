package entity

import "fmt"

// ConfigurationError reports missing or invalid merchant credentials and
// client misuse, such as calling the v2 refund API without password #3
// or using a closed client.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}

// ValidationError reports malformed or out-of-range input detected before
// any network call is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// SignatureError reports a mismatch between a supplied signature and the
// recomputed one. It deliberately carries no digest values.
type SignatureError struct{}

func (e *SignatureError) Error() string {
	return "signature mismatch"
}

// APIError reports a non-success HTTP status or a gateway-reported error
// code. Body keeps the raw response for diagnostics.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway http status %d: %s", e.StatusCode, e.Message)
}
