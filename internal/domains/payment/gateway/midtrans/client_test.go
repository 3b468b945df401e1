package midtrans

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/model"
)

func TestNotificationSignature(t *testing.T) {
	sig := NotificationSignature("CO-1", "200", "255000.00", "server-key")
	assert.Len(t, sig, 128)

	assert.True(t, VerifyNotificationSignature("CO-1", "200", "255000.00", "server-key", sig))
	assert.True(t, VerifyNotificationSignature("CO-1", "200", "255000.00", "server-key", " "+sig+" "))
	assert.False(t, VerifyNotificationSignature("CO-1", "200", "255001.00", "server-key", sig))
	assert.False(t, VerifyNotificationSignature("CO-1", "200", "255000.00", "other-key", sig))
}

func TestClientVerifyNotification(t *testing.T) {
	c, err := NewClient(&Config{ServerKey: "sk", BaseURL: "http://unused"})
	require.NoError(t, err)

	n := model.MidtransNotification{OrderID: "CO-9", StatusCode: "200", GrossAmount: FormatGrossAmount(1000)}
	n.SignatureKey = NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, "sk")
	assert.True(t, c.VerifyNotification(n))

	n.SignatureKey = "deadbeef"
	assert.False(t, c.VerifyNotification(n))
}

func TestCreateTransaction(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk", user)
		assert.Empty(t, pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"tok-1","redirect_url":"https://snap/redirect/tok-1"}`))
	}))
	defer srv.Close()

	c, err := NewClient(&Config{ServerKey: "sk", BaseURL: srv.URL, FinishURL: "https://app/finish"})
	require.NoError(t, err)

	resp, err := c.CreateTransaction(context.Background(), gateway.SnapRequest{
		OrderID:     "CO-1",
		GrossAmount: 255000,
		Items:       []gateway.Item{{ID: "c1", Name: "Go Fundamentals", Price: 255000, Quantity: 1}},
		Customer:    gateway.Customer{Name: "Ana", Email: "ana@example.com"},
		Expiry:      2 * time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)

	details := got["transaction_details"].(map[string]interface{})
	assert.Equal(t, "CO-1", details["order_id"])
	assert.Equal(t, float64(255000), details["gross_amount"])
	expiry := got["expiry"].(map[string]interface{})
	assert.Equal(t, float64(120), expiry["duration"])
}

func TestCreateTransaction_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_messages":["Access denied"]}`))
	}))
	defer srv.Close()

	c, err := NewClient(&Config{ServerKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.CreateTransaction(context.Background(), gateway.SnapRequest{OrderID: "CO-1", GrossAmount: 1000})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrGatewayUnavailable)
}

func TestNewClientRequiresServerKey(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: SandboxSnapURL})
	assert.Error(t, err)
}
