package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"couture-commerce/config"

	"github.com/go-resty/resty/v2"
)

// Payment status reported by the gateway once funds are captured
const PaymentStatusCaptured = "captured"

// Order is a payment order as represented by the Razorpay API
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Payment is a single payment attempt against a gateway order
type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type paymentCollection struct {
	Count int       `json:"count"`
	Items []Payment `json:"items"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Client talks to the Razorpay REST API. Outbound calls carry a bounded
// timeout and a small retry budget for transient upstream failures.
type Client struct {
	http      *resty.Client
	keyID     string
	keySecret string
}

// NewClient creates a gateway client from configuration
func NewClient(cfg config.RazorpayConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second)

	return &Client{
		http:      httpClient,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
	}
}

// KeyID returns the public key the browser checkout widget needs
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder opens a gateway order for the given minor-unit amount,
// keyed by the internal order id as the receipt
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	var order Order
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway order creation failed: status=%d code=%s %s",
			resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description)
	}
	return &order, nil
}

// FetchPayments retrieves all payment attempts recorded against a gateway
// order. This is the authoritative source the reconciliation sweep trusts.
func (c *Client) FetchPayments(ctx context.Context, gatewayOrderID string) ([]Payment, error) {
	var collection paymentCollection
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&collection).
		SetError(&apiErr).
		Get(fmt.Sprintf("/v1/orders/%s/payments", gatewayOrderID))
	if err != nil {
		return nil, fmt.Errorf("gateway payment lookup failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gateway payment lookup failed: status=%d code=%s %s",
			resp.StatusCode(), apiErr.Error.Code, apiErr.Error.Description)
	}
	return collection.Items, nil
}

// SignPayment computes the checkout signature for a gateway order/payment
// pair: hex(HMAC-SHA256("<order_id>|<payment_id>", key_secret))
func (c *Client) SignPayment(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a client-reported payment signature in constant
// time. This is the sole gate for marking an order paid from the client
// path and must never be skipped.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	expected := c.SignPayment(gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
