package internal

import (
	"crypto/subtle"
	"strings"

	"gitee.com/golang-module/dongle"

	"robokassa/entity"
)

// PaymentCanonical builds the string signed for payment links and invoice
// creation: {login}:{outSum}:{invId}:{password} plus the ordered custom
// parameter suffix. An absent invoice id stays an empty segment.
func PaymentCanonical(login, outSum, invID, password string, custom entity.CustomParams) string {
	parts := []string{login, outSum, invID, password}
	parts = append(parts, custom.CanonicalPairs()...)
	return strings.Join(parts, ":")
}

// NotificationCanonical builds the string signed for ResultURL and
// SuccessURL callbacks: {outSum}:{invId}:{password} plus the ordered
// custom parameter suffix.
func NotificationCanonical(outSum, invID, password string, custom entity.CustomParams) string {
	parts := []string{outSum, invID, password}
	parts = append(parts, custom.CanonicalPairs()...)
	return strings.Join(parts, ":")
}

// RefundCanonical builds the string signed for the legacy refund API:
// {login}:{invoiceID}:{password}. The refund amount is transmitted but
// deliberately not signed; the gateway verifies exactly this string.
func RefundCanonical(login, invoiceID, password string) string {
	return strings.Join([]string{login, invoiceID, password}, ":")
}

// Signer computes and checks hex digests of canonical strings with a
// fixed algorithm.
type Signer struct {
	algorithm entity.SignatureAlgorithm
}

func NewSigner(algorithm entity.SignatureAlgorithm) *Signer {
	return &Signer{algorithm: algorithm}
}

// Digest returns the lowercase hex digest of the canonical string.
// Unknown algorithms fail before any network call is made.
func (s *Signer) Digest(canonical string) (string, error) {
	encrypter := dongle.Encrypt.FromString(canonical)
	switch s.algorithm {
	case entity.AlgorithmMD5:
		return encrypter.ByMd5().ToHexString(), nil
	case entity.AlgorithmSHA256:
		return encrypter.BySha256().ToHexString(), nil
	case entity.AlgorithmSHA512:
		return encrypter.BySha512().ToHexString(), nil
	}
	return "", &entity.ValidationError{Field: "algorithm", Reason: "unsupported algorithm"}
}

// Verify recomputes the digest of the canonical string and compares it to
// the supplied value, case-insensitive, length-checked and constant-time.
// The expected digest is never part of the returned error.
func (s *Signer) Verify(canonical, supplied string) error {
	expected, err := s.Digest(canonical)
	if err != nil {
		return err
	}
	received := strings.ToLower(strings.TrimSpace(supplied))
	if len(received) != len(expected) {
		return &entity.SignatureError{}
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		return &entity.SignatureError{}
	}
	return nil
}
