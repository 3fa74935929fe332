package internal

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	conf := testConfig()
	server := NewServer(conf)
	server.SetLogger(NewLogger("server", false, nil))
	server.SetGateway(NewClient(conf))

	ts := httptest.NewServer(server.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) (int, string) {
	t.Helper()
	response, err := http.PostForm(ts.URL+path, form)
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	return response.StatusCode, string(body)
}

func TestHandleResult(t *testing.T) {
	ts := testServer(t)

	form := url.Values{}
	form.Set("OutSum", "100.00")
	form.Set("InvId", "123")
	form.Set("SignatureValue", "7423585a73d9125e048801a3c9d908a2")

	status, body := postForm(t, ts, "/result", form)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK123", body)
}

func TestHandleResult_ForgedSignature(t *testing.T) {
	ts := testServer(t)

	form := url.Values{}
	form.Set("OutSum", "100.00")
	form.Set("InvId", "123")
	form.Set("SignatureValue", "deadbeefdeadbeefdeadbeefdeadbeef")

	status, body := postForm(t, ts, "/result", form)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad sign", body)
	assert.NotContains(t, body, "OK")
}

func TestHandleResult_MissingField(t *testing.T) {
	ts := testServer(t)

	form := url.Values{}
	form.Set("OutSum", "100.00")
	form.Set("InvId", "123")

	status, _ := postForm(t, ts, "/result", form)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleSuccess(t *testing.T) {
	ts := testServer(t)

	query := url.Values{}
	query.Set("OutSum", "100.00")
	query.Set("InvId", "123")
	query.Set("SignatureValue", "c27d4682f8c0f7e7844a5b37f65c1837")

	response, err := http.Get(ts.URL + "/success?" + query.Encode())
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), "123")
}

func TestHandleSuccess_ResultSignatureRejected(t *testing.T) {
	ts := testServer(t)

	// a ResultURL signature must not pass the SuccessURL check
	query := url.Values{}
	query.Set("OutSum", "100.00")
	query.Set("InvId", "123")
	query.Set("SignatureValue", "7423585a73d9125e048801a3c9d908a2")

	response, err := http.Get(ts.URL + "/success?" + query.Encode())
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestHandleLink(t *testing.T) {
	ts := testServer(t)

	payload := `{"out_sum":"100.00","description":"Order 123","inv_id":123}`
	response, err := http.Post(ts.URL+"/link", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), "641a2329e1beac5121408f53c451f0cc")
}

func TestHandleLink_BadAmount(t *testing.T) {
	ts := testServer(t)

	payload := `{"out_sum":"ten","description":"Order"}`
	response, err := http.Post(ts.URL+"/link", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestHandleRefund_BadInvoiceID(t *testing.T) {
	ts := testServer(t)

	response, err := http.Post(ts.URL+"/refund/legacy/abc", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestHandleRefundV2_MissingPassword3(t *testing.T) {
	ts := testServer(t)

	payload := `{"op_key":"op-1"}`
	response, err := http.Post(ts.URL+"/refund/v2", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer func() { _ = response.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
}
