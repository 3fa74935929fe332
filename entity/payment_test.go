package entity

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomParams_CanonicalPairs(t *testing.T) {
	custom := CustomParams{"zeta": "1", "Alpha": "2", "beta": "3"}
	assert.Equal(t, []string{"Shp_Alpha=2", "Shp_beta=3", "Shp_zeta=1"}, custom.CanonicalPairs())
}

func TestCustomParams_CanonicalPairs_Empty(t *testing.T) {
	assert.Nil(t, CustomParams(nil).CanonicalPairs())
	assert.Nil(t, CustomParams{}.CanonicalPairs())
}

func TestCustomParams_CanonicalPairs_RawValues(t *testing.T) {
	// values go into the canonical string as sent, without URL encoding
	custom := CustomParams{"label": "a b&c"}
	assert.Equal(t, []string{"Shp_label=a b&c"}, custom.CanonicalPairs())
}

func TestCustomParams_AddToQuery(t *testing.T) {
	values := url.Values{}
	CustomParams{"user": "alice", "oid": "55"}.AddToQuery(values)
	assert.Equal(t, "alice", values.Get("Shp_user"))
	assert.Equal(t, "55", values.Get("Shp_oid"))
}

func TestCustomParamsFromValues(t *testing.T) {
	values := url.Values{}
	values.Set("OutSum", "100.00")
	values.Set("Shp_user", "alice")
	values.Set("shp_oid", "55")
	values.Set("SHP_label", "x")

	custom := CustomParamsFromValues(values)
	assert.Equal(t, CustomParams{"user": "alice", "oid": "55", "label": "x"}, custom)
}

func TestCustomParamsFromValues_None(t *testing.T) {
	values := url.Values{}
	values.Set("OutSum", "100.00")
	assert.Nil(t, CustomParamsFromValues(values))
}

func TestCustomParamsFromValues_BarePrefix(t *testing.T) {
	// a key that is only the prefix carries no parameter name and is
	// dropped instead of signing as Shp_=...
	values := url.Values{}
	values.Set("Shp_", "orphan")
	assert.Nil(t, CustomParamsFromValues(values))

	values.Set("Shp_user", "alice")
	assert.Equal(t, CustomParams{"user": "alice"}, CustomParamsFromValues(values))
}

func TestPaymentParams_Validate(t *testing.T) {
	amount, err := AmountFromString("10.00")
	require.NoError(t, err)

	params := PaymentParams{OutSum: amount, Description: "order"}
	require.NoError(t, params.Validate())

	params.Email = "not-an-email"
	var validationErr *ValidationError
	require.ErrorAs(t, params.Validate(), &validationErr)

	params.Email = "payer@example.com"
	require.NoError(t, params.Validate())
}

func TestPaymentParams_InvIDString(t *testing.T) {
	assert.Equal(t, "", PaymentParams{}.InvIDString())

	invID := int64(123)
	assert.Equal(t, "123", PaymentParams{InvID: &invID}.InvIDString())
}

func TestParseAlgorithm(t *testing.T) {
	for raw, expected := range map[string]SignatureAlgorithm{
		"md5":    AlgorithmMD5,
		"MD5":    AlgorithmMD5,
		"sha256": AlgorithmSHA256,
		"SHA512": AlgorithmSHA512,
	} {
		algorithm, err := ParseAlgorithm(raw)
		require.NoError(t, err)
		assert.Equal(t, expected, algorithm)
	}

	_, err := ParseAlgorithm("sha1")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
