package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"

	"robokassa/entity"
)

// refundClaims is the signed payload of a v2 refund request. Field order
// is fixed by the gateway contract and must stay stable across client
// versions.
type refundClaims struct {
	OpKey        string              `json:"opKey"`
	Amount       string              `json:"amount,omitempty"`
	InvoiceItems []entity.RefundItem `json:"invoiceItems,omitempty"`
	MerchantID   string              `json:"merchantId"`
	jwt.RegisteredClaims
}

// stateClaims is the signed payload of a v2 refund state query.
type stateClaims struct {
	RequestID  string `json:"id"`
	MerchantID string `json:"merchantId"`
	jwt.RegisteredClaims
}

func (c *Client) checkPassword3() error {
	if c.conf.Merchant.Password3 == "" {
		return &entity.ConfigurationError{Reason: "password3 is required for refund v2 operations"}
	}
	return nil
}

// signingMethod maps the digest selector onto a JWT HMAC method. The
// token API has no MD5 mode, so the legacy default falls back to HS256.
func signingMethod(algorithm entity.SignatureAlgorithm) jwt.SigningMethod {
	if algorithm == entity.AlgorithmSHA512 {
		return jwt.SigningMethodHS512
	}
	return jwt.SigningMethodHS256
}

func (c *Client) refundToken(claims jwt.Claims, algorithm entity.SignatureAlgorithm) (string, error) {
	merchant := c.conf.Merchant
	key := []byte(merchant.Login + ":" + merchant.Password3)
	token, err := jwt.NewWithClaims(signingMethod(algorithm), claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// CreateRefundV2 requests a refund through the token-based API. Requires
// password #3; fails before any network call when it is absent.
func (c *Client) CreateRefundV2(ctx context.Context, params *entity.RefundV2Params) (*entity.RefundV2Result, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if err := c.checkPassword3(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	algorithm, err := c.algorithm(params.Algorithm)
	if err != nil {
		return nil, err
	}

	claims := refundClaims{
		OpKey:        params.OpKey,
		InvoiceItems: params.InvoiceItems,
		MerchantID:   c.conf.Merchant.Login,
	}
	if params.RefundSum != nil {
		claims.Amount = params.RefundSum.String()
	}
	token, err := c.refundToken(claims, algorithm)
	if err != nil {
		return nil, err
	}

	var result entity.RefundV2Result
	if err := c.postToken(ctx, c.conf.Merchant.RefundV2URL+"/Create", token, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &entity.APIError{StatusCode: http.StatusOK, Message: "refund creation failed: " + result.Message}
	}
	c.logger.Info(fmt.Sprintf("refund %s accepted for operation %s", result.RequestID, secret(params.OpKey)))
	return &result, nil
}

// GetRefundStatusV2 queries the state of a token-based refund by the
// request id issued on creation. Requires password #3.
func (c *Client) GetRefundStatusV2(ctx context.Context, requestID string) (*entity.RefundV2Status, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if err := c.checkPassword3(); err != nil {
		return nil, err
	}
	if requestID == "" {
		return nil, &entity.ValidationError{Field: "request_id", Reason: "cannot be blank"}
	}
	algorithm, err := c.algorithm("")
	if err != nil {
		return nil, err
	}

	token, err := c.refundToken(stateClaims{RequestID: requestID, MerchantID: c.conf.Merchant.Login}, algorithm)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("id", requestID)
	query.Set("token", token)

	var status entity.RefundV2Status
	if err := c.getJSON(ctx, c.conf.Merchant.RefundV2URL+"/GetState?"+query.Encode(), &status); err != nil {
		return nil, err
	}
	if status.Label == "" {
		return nil, &entity.APIError{StatusCode: http.StatusOK, Message: "failed to get refund status: " + status.Message}
	}
	return &status, nil
}

// postToken sends the signed token as a JSON string body, the form the
// token endpoints expect.
func (c *Client) postToken(ctx context.Context, endpoint, token string, out interface{}) error {
	body, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	return c.doJSON(request, out)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	return c.doJSON(request, out)
}

func (c *Client) doJSON(request *http.Request, out interface{}) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		if request.Context().Err() != nil {
			return fmt.Errorf("request cancelled: %w", request.Context().Err())
		}
		return fmt.Errorf("%s request: %w", request.Method, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			c.logger.Error("close response body", err)
		}
	}()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return &entity.APIError{StatusCode: response.StatusCode, Message: "unexpected http status", Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &entity.APIError{StatusCode: response.StatusCode, Message: "unparsable response", Body: string(raw)}
	}
	return nil
}
