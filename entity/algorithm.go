package entity

import (
	"fmt"
	"strings"
)

// SignatureAlgorithm selects the digest function used for request signing
// and notification verification.
type SignatureAlgorithm string

const (
	AlgorithmMD5    SignatureAlgorithm = "MD5"
	AlgorithmSHA256 SignatureAlgorithm = "SHA256"
	AlgorithmSHA512 SignatureAlgorithm = "SHA512"

	// DefaultAlgorithm matches the gateway's legacy expectation.
	DefaultAlgorithm = AlgorithmMD5
)

// ParseAlgorithm converts a string to a SignatureAlgorithm, case-insensitive.
func ParseAlgorithm(value string) (SignatureAlgorithm, error) {
	algorithm := SignatureAlgorithm(strings.ToUpper(strings.TrimSpace(value)))
	switch algorithm {
	case AlgorithmMD5, AlgorithmSHA256, AlgorithmSHA512:
		return algorithm, nil
	}
	return "", &ValidationError{
		Field:  "algorithm",
		Reason: fmt.Sprintf("unsupported algorithm %q", value),
	}
}
