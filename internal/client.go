package internal

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"robokassa/config"
	"robokassa/entity"
	"robokassa/services"
)

// Client talks to the Robokassa gateway on behalf of one merchant.
// It holds the credentials and a pooled HTTP client; it keeps no
// per-call state, so concurrent calls are safe without extra locking.
type Client struct {
	conf       *config.Config
	logger     services.LogHandler
	httpClient *http.Client

	mu     sync.Mutex
	closed bool
}

// NewClient creates a gateway client with a configured HTTP transport.
// The transport includes timeouts and connection pooling for reliable
// external API calls; SetHTTPClient replaces it when the caller wants to
// control pooling and retries itself.
func NewClient(conf *config.Config) *Client {
	timeout := time.Duration(conf.Merchant.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		conf:   conf,
		logger: NewLogger("client", conf.IsDebug, nil),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
	}
}

func (c *Client) SetLogger(logger services.LogHandler) {
	c.logger = logger
}

// SetHTTPClient injects a caller-supplied transport. Retry policy, if
// any, belongs to this transport, not to the client.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

// Close releases the transport. Safe to call more than once; every call
// after the first is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
	c.logger.Info("client closed")
	return nil
}

func (c *Client) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &entity.ConfigurationError{Reason: "client is closed"}
	}
	return nil
}

func (c *Client) checkCredentials() error {
	if c.conf.Merchant.Login == "" || c.conf.Merchant.Password1 == "" {
		return &entity.ConfigurationError{Reason: "merchant login and password1 must be set"}
	}
	return nil
}

// algorithm resolves the per-call override against the configured default.
func (c *Client) algorithm(override entity.SignatureAlgorithm) (entity.SignatureAlgorithm, error) {
	if override != "" {
		return entity.ParseAlgorithm(string(override))
	}
	if c.conf.Merchant.Algorithm != "" {
		return entity.ParseAlgorithm(c.conf.Merchant.Algorithm)
	}
	return entity.DefaultAlgorithm, nil
}

// CreatePaymentURL builds a signed payment link. Pure local computation:
// canonical string, digest, query string. Omitted optional fields do not
// appear in the query at all.
func (c *Client) CreatePaymentURL(params *entity.PaymentParams) (string, error) {
	if err := c.ensureOpen(); err != nil {
		return "", err
	}
	if err := c.checkCredentials(); err != nil {
		return "", err
	}
	if err := params.Validate(); err != nil {
		return "", err
	}
	algorithm, err := c.algorithm(params.Algorithm)
	if err != nil {
		return "", err
	}

	merchant := c.conf.Merchant
	canonical := PaymentCanonical(merchant.Login, params.OutSum.String(), params.InvIDString(), merchant.Password1, params.Custom)
	signature, err := NewSigner(algorithm).Digest(canonical)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("MerchantLogin", merchant.Login)
	values.Set("OutSum", params.OutSum.String())
	values.Set("Description", params.Description)
	values.Set("SignatureValue", signature)
	if params.InvID != nil {
		values.Set("InvId", params.InvIDString())
	}
	if params.Email != "" {
		values.Set("Email", params.Email)
	}
	if params.Culture != "" {
		values.Set("Culture", string(params.Culture))
	}
	if params.Encoding != "" {
		values.Set("Encoding", params.Encoding)
	}
	if params.ExpirationDate != nil {
		values.Set("ExpirationDate", params.ExpirationDate.Format(time.RFC3339))
	}
	if merchant.IsTest {
		values.Set("IsTest", "1")
	}
	params.Custom.AddToQuery(values)

	c.logger.Debug(fmt.Sprintf("payment link for invoice %q, sum %s", params.InvIDString(), params.OutSum.String()))
	return merchant.PaymentURL + "?" + values.Encode(), nil
}

// ParseNotification extracts the expected fields from an inbound
// parameter set. Field names are matched case-insensitively; a missing
// required field is a validation error, not a signature error.
func (c *Client) ParseNotification(values url.Values) (*entity.Notification, error) {
	outSum, ok := lookupValue(values, "OutSum")
	if !ok {
		return nil, &entity.ValidationError{Field: "OutSum", Reason: "missing required field"}
	}
	invID, ok := lookupValue(values, "InvId")
	if !ok {
		return nil, &entity.ValidationError{Field: "InvId", Reason: "missing required field"}
	}
	signature, ok := lookupValue(values, "SignatureValue")
	if !ok {
		return nil, &entity.ValidationError{Field: "SignatureValue", Reason: "missing required field"}
	}
	return &entity.Notification{
		OutSum:         outSum,
		InvID:          invID,
		SignatureValue: signature,
		Custom:         entity.CustomParamsFromValues(values),
	}, nil
}

// VerifyResultURL checks a server-to-server notification against
// password #2. Local computation only.
func (c *Client) VerifyResultURL(notification *entity.Notification) error {
	return c.verifyNotification(notification, c.conf.Merchant.Password2, "password2")
}

// VerifySuccessURL checks a browser redirect against password #1.
// Local computation only.
func (c *Client) VerifySuccessURL(notification *entity.Notification) error {
	return c.verifyNotification(notification, c.conf.Merchant.Password1, "password1")
}

func (c *Client) verifyNotification(notification *entity.Notification, password, passwordName string) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if password == "" {
		return &entity.ConfigurationError{Reason: passwordName + " must be set"}
	}
	algorithm, err := c.algorithm("")
	if err != nil {
		return err
	}
	canonical := NotificationCanonical(notification.OutSum, notification.InvID, password, notification.Custom)
	if err := NewSigner(algorithm).Verify(canonical, notification.SignatureValue); err != nil {
		c.logger.Warn(fmt.Sprintf("rejected notification for invoice %s", notification.InvID))
		return err
	}
	return nil
}

// lookupValue prefers an exact key match; the case-insensitive scan runs
// only as a fallback, so a parameter set carrying both spellings resolves
// deterministically.
func lookupValue(values url.Values, name string) (string, bool) {
	if matched, ok := values[name]; ok && len(matched) > 0 {
		return matched[0], true
	}
	for key := range values {
		if strings.EqualFold(key, name) {
			return values.Get(key), true
		}
	}
	return "", false
}

// postXML sends an XML API request and parses the response into a field
// mapping. A non-success HTTP status or a non-zero gateway code is
// surfaced as an APIError carrying the raw body.
func (c *Client) postXML(ctx context.Context, endpoint string, payload interface{}) (map[string]string, error) {
	data, err := xml.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	body := append([]byte(xml.Header), data...)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	request.Header.Set("Content-Type", "application/xml")

	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			c.logger.Error("close response body", err)
		}
	}()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, &entity.APIError{StatusCode: response.StatusCode, Message: "unexpected http status", Body: string(raw)}
	}

	fields, err := parseXMLFields(raw)
	if err != nil {
		return nil, &entity.APIError{StatusCode: response.StatusCode, Message: "unparsable response", Body: string(raw)}
	}
	if code, ok := fields["Code"]; ok && code != "0" {
		return nil, &entity.APIError{
			StatusCode: response.StatusCode,
			Code:       code,
			Message:    fields["Description"],
			Body:       string(raw),
		}
	}
	return fields, nil
}

// parseXMLFields maps the direct children of the response root element to
// their text content.
func parseXMLFields(data []byte) (map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	fields := map[string]string{}
	depth := 0
	current := ""
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				current = t.Name.Local
				fields[current] = ""
			}
		case xml.EndElement:
			if depth == 2 {
				current = ""
			}
			depth--
		case xml.CharData:
			if depth == 2 && current != "" {
				fields[current] += string(t)
			}
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no response fields")
	}
	return fields, nil
}

// userParameters expands custom parameters into their transmitted XML
// form, in canonical order.
func userParameters(custom entity.CustomParams) []entity.UserParameter {
	pairs := custom.CanonicalPairs()
	if len(pairs) == 0 {
		return nil
	}
	parameters := make([]entity.UserParameter, 0, len(pairs))
	for _, pair := range pairs {
		name, value, _ := strings.Cut(pair, "=")
		parameters = append(parameters, entity.UserParameter{Name: name, Value: value})
	}
	return parameters
}

func secret(some string) string {
	if len(some) > 5 {
		return fmt.Sprintf("%s***", some[0:5])
	}
	if some == "" {
		return "?"
	}
	return "***"
}
