package internal

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robokassa/config"
	"robokassa/entity"
)

func testConfig() *config.Config {
	conf := &config.Config{}
	conf.Merchant.Login = "demo"
	conf.Merchant.Password1 = "pass1"
	conf.Merchant.Password2 = "pass2"
	conf.Merchant.Algorithm = "MD5"
	conf.Merchant.RequestTimeout = 5
	conf.Merchant.PaymentURL = "https://auth.robokassa.ru/Merchant/Index.aspx"
	conf.Merchant.InvoiceURL = "https://auth.robokassa.ru/Merchant/Invoice/Create"
	conf.Merchant.RefundURL = "https://auth.robokassa.ru/Merchant/Refund"
	conf.Merchant.RefundV2URL = "https://services.robokassa.ru/RefundService"
	return conf
}

func mustAmount(t *testing.T, value string) entity.Amount {
	t.Helper()
	amount, err := entity.AmountFromString(value)
	require.NoError(t, err)
	return amount
}

func TestCreatePaymentURL(t *testing.T) {
	client := NewClient(testConfig())
	invID := int64(123)

	link, err := client.CreatePaymentURL(&entity.PaymentParams{
		OutSum:      mustAmount(t, "100.00"),
		Description: "Order 123",
		InvID:       &invID,
	})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	values := parsed.Query()

	assert.Equal(t, "demo", values.Get("MerchantLogin"))
	assert.Equal(t, "100.00", values.Get("OutSum"))
	assert.Equal(t, "123", values.Get("InvId"))
	assert.Equal(t, "Order 123", values.Get("Description"))
	assert.Equal(t, "641a2329e1beac5121408f53c451f0cc", values.Get("SignatureValue"))

	// no custom parameters were supplied, so no Shp_ keys at all
	for key := range values {
		assert.NotContains(t, key, "Shp_")
	}
}

func TestCreatePaymentURL_OmittedOptionalsAbsent(t *testing.T) {
	client := NewClient(testConfig())

	link, err := client.CreatePaymentURL(&entity.PaymentParams{
		OutSum:      mustAmount(t, "1.50"),
		Description: "minimal",
	})
	require.NoError(t, err)

	values, err := url.ParseQuery(mustQuery(t, link))
	require.NoError(t, err)
	for _, key := range []string{"InvId", "Email", "Culture", "Encoding", "IsTest", "ExpirationDate"} {
		_, present := values[key]
		assert.Falsef(t, present, "unexpected key %s", key)
	}
}

func mustQuery(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	return parsed.RawQuery
}

func TestCreatePaymentURL_OptionalFields(t *testing.T) {
	conf := testConfig()
	conf.Merchant.IsTest = true
	client := NewClient(conf)

	expires := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	link, err := client.CreatePaymentURL(&entity.PaymentParams{
		OutSum:         mustAmount(t, "9.90"),
		Description:    "full",
		Email:          "payer@example.com",
		Culture:        entity.CultureEN,
		Encoding:       "utf-8",
		ExpirationDate: &expires,
		Custom:         entity.CustomParams{"user": "alice"},
	})
	require.NoError(t, err)

	values, err := url.ParseQuery(mustQuery(t, link))
	require.NoError(t, err)
	assert.Equal(t, "payer@example.com", values.Get("Email"))
	assert.Equal(t, "en", values.Get("Culture"))
	assert.Equal(t, "utf-8", values.Get("Encoding"))
	assert.Equal(t, "1", values.Get("IsTest"))
	assert.Equal(t, "2026-09-01T12:30:00Z", values.Get("ExpirationDate"))
	assert.Equal(t, "alice", values.Get("Shp_user"))
}

func TestCreatePaymentURL_Validation(t *testing.T) {
	client := NewClient(testConfig())
	var validationErr *entity.ValidationError

	_, err := client.CreatePaymentURL(&entity.PaymentParams{
		OutSum: mustAmount(t, "10.00"),
	})
	require.ErrorAs(t, err, &validationErr)

	badInvID := int64(-1)
	_, err = client.CreatePaymentURL(&entity.PaymentParams{
		OutSum:      mustAmount(t, "10.00"),
		Description: "x",
		InvID:       &badInvID,
	})
	require.ErrorAs(t, err, &validationErr)

	_, err = client.CreatePaymentURL(&entity.PaymentParams{
		OutSum:      mustAmount(t, "10.00"),
		Description: "x",
		Algorithm:   "SHA1",
	})
	require.ErrorAs(t, err, &validationErr)
}

func TestParseNotification_CaseInsensitive(t *testing.T) {
	client := NewClient(testConfig())

	values := url.Values{}
	values.Set("outsum", "100.00")
	values.Set("INVID", "123")
	values.Set("signaturevalue", "abc")
	values.Set("shp_user", "alice")

	notification, err := client.ParseNotification(values)
	require.NoError(t, err)
	assert.Equal(t, "100.00", notification.OutSum)
	assert.Equal(t, "123", notification.InvID)
	assert.Equal(t, "abc", notification.SignatureValue)
	assert.Equal(t, entity.CustomParams{"user": "alice"}, notification.Custom)
}

func TestParseNotification_ExactKeyWins(t *testing.T) {
	client := NewClient(testConfig())

	// both spellings present: the exact name must win every time
	values := url.Values{}
	values.Set("OutSum", "100.00")
	values.Set("outsum", "999.99")
	values.Set("InvId", "123")
	values.Set("SignatureValue", "abc")

	for i := 0; i < 20; i++ {
		notification, err := client.ParseNotification(values)
		require.NoError(t, err)
		assert.Equal(t, "100.00", notification.OutSum)
	}
}

func TestParseNotification_MissingField(t *testing.T) {
	client := NewClient(testConfig())

	values := url.Values{}
	values.Set("OutSum", "100.00")
	values.Set("InvId", "123")

	_, err := client.ParseNotification(values)
	var validationErr *entity.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestVerifyResultURL(t *testing.T) {
	client := NewClient(testConfig())

	notification := &entity.Notification{
		OutSum:         "100.00",
		InvID:          "123",
		SignatureValue: "7423585a73d9125e048801a3c9d908a2", // md5 of 100.00:123:pass2
	}
	require.NoError(t, client.VerifyResultURL(notification))
}

func TestVerifyResultURL_CustomParams(t *testing.T) {
	client := NewClient(testConfig())

	notification := &entity.Notification{
		OutSum:         "100.00",
		InvID:          "123",
		SignatureValue: "ae8443bb4adadf03ee49291783f49aad", // includes Shp_oid and Shp_user
		Custom:         entity.CustomParams{"user": "alice", "oid": "55"},
	}
	require.NoError(t, client.VerifyResultURL(notification))
}

func TestVerifyResultURL_Forged(t *testing.T) {
	client := NewClient(testConfig())

	notification := &entity.Notification{
		OutSum:         "100.00",
		InvID:          "123",
		SignatureValue: "deadbeefdeadbeefdeadbeefdeadbeef",
	}
	err := client.VerifyResultURL(notification)
	var signatureErr *entity.SignatureError
	require.ErrorAs(t, err, &signatureErr)
}

func TestVerifySuccessURL_UsesPassword1(t *testing.T) {
	client := NewClient(testConfig())

	notification := &entity.Notification{
		OutSum:         "100.00",
		InvID:          "123",
		SignatureValue: "c27d4682f8c0f7e7844a5b37f65c1837", // md5 of 100.00:123:pass1
	}
	require.NoError(t, client.VerifySuccessURL(notification))

	// the same signature must not pass ResultURL verification
	var signatureErr *entity.SignatureError
	require.ErrorAs(t, client.VerifyResultURL(notification), &signatureErr)
}

func TestVerifyResultURL_MissingPassword2(t *testing.T) {
	conf := testConfig()
	conf.Merchant.Password2 = ""
	client := NewClient(conf)

	err := client.VerifyResultURL(&entity.Notification{OutSum: "1", InvID: "1", SignatureValue: "x"})
	var configurationErr *entity.ConfigurationError
	require.ErrorAs(t, err, &configurationErr)
}

func TestClient_Close(t *testing.T) {
	client := NewClient(testConfig())
	require.NoError(t, client.Close())
	// idempotent
	require.NoError(t, client.Close())

	var configurationErr *entity.ConfigurationError
	_, err := client.CreatePaymentURL(&entity.PaymentParams{
		OutSum:      mustAmount(t, "10.00"),
		Description: "closed",
	})
	require.ErrorAs(t, err, &configurationErr)

	err = client.VerifyResultURL(&entity.Notification{OutSum: "1", InvID: "1", SignatureValue: "x"})
	require.ErrorAs(t, err, &configurationErr)
}
