package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"couture-commerce/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "s3cret",
		BaseURL:   baseURL,
		Currency:  "INR",
		Timeout:   2 * time.Second,
	})
}

func TestSignPayment(t *testing.T) {
	c := testClient("http://unused")

	// HMAC-SHA256("order_abc|pay_123", "s3cret")
	sig := c.SignPayment("order_abc", "pay_123")
	assert.Equal(t,
		"85fe2073d0f4d9dcfa1975b4804eee657cfa330ad893c7f326ccddec1ba10bc9",
		sig)
}

func TestVerifySignature(t *testing.T) {
	c := testClient("http://unused")

	good := c.SignPayment("order_abc", "pay_123")
	assert.True(t, c.VerifySignature("order_abc", "pay_123", good))

	assert.False(t, c.VerifySignature("order_abc", "pay_123", "deadbeef"))
	assert.False(t, c.VerifySignature("order_abc", "pay_123", ""))
	assert.False(t, c.VerifySignature("order_abc", "pay_999", good))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "s3cret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(250000), body["amount"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "42", body["receipt"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Order{
			ID: "order_abc", Amount: 250000, Currency: "INR",
			Receipt: "42", Status: "created",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	order, err := c.CreateOrder(context.Background(), 250000, "INR", "42")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(250000), order.Amount)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount missing"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	_, err := c.CreateOrder(context.Background(), 0, "INR", "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
}

func TestFetchPayments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders/order_abc/payments", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(paymentCollection{
			Count: 2,
			Items: []Payment{
				{ID: "pay_failed", OrderID: "order_abc", Status: "failed"},
				{ID: "pay_123", OrderID: "order_abc", Amount: 250000, Status: PaymentStatusCaptured},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	payments, err := c.FetchPayments(context.Background(), "order_abc")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, PaymentStatusCaptured, payments[1].Status)
}
