package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/model"
)

// =====================================================
// MIDTRANS SNAP CLIENT
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (gateway.SnapGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Midtrans config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type snapItem struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type snapCustomer struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type snapCallbacks struct {
	Finish string `json:"finish"`
}

type snapExpiry struct {
	Unit     string `json:"unit"`
	Duration int    `json:"duration"`
}

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapRequestBody struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	ItemDetails        []snapItem             `json:"item_details,omitempty"`
	CustomerDetails    *snapCustomer          `json:"customer_details,omitempty"`
	Callbacks          *snapCallbacks         `json:"callbacks,omitempty"`
	Expiry             *snapExpiry            `json:"expiry,omitempty"`
}

func (c *Client) CreateTransaction(ctx context.Context, req gateway.SnapRequest) (*gateway.SnapResponse, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("order_id is required")
	}
	if req.GrossAmount <= 0 {
		return nil, fmt.Errorf("gross_amount must be positive")
	}

	body := snapRequestBody{
		TransactionDetails: snapTransactionDetails{OrderID: req.OrderID, GrossAmount: req.GrossAmount},
	}
	for _, it := range req.Items {
		body.ItemDetails = append(body.ItemDetails, snapItem{ID: it.ID, Price: it.Price, Quantity: it.Quantity, Name: truncate(it.Name, 50)})
	}
	if req.Customer.Email != "" || req.Customer.Name != "" {
		body.CustomerDetails = &snapCustomer{FirstName: req.Customer.Name, Email: req.Customer.Email, Phone: req.Customer.Phone}
	}
	if c.config.FinishURL != "" {
		body.Callbacks = &snapCallbacks{Finish: c.config.FinishURL}
	}
	if req.Expiry > 0 {
		body.Expiry = &snapExpiry{Unit: "minutes", Duration: int(req.Expiry.Minutes())}
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TransactionsURL(), bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.config.ServerKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, model.NewGatewayError(model.ChannelMidtrans, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr struct {
			ErrorMessages []string `json:"error_messages"`
		}
		_ = json.Unmarshal(respBytes, &apiErr)
		return nil, model.NewGatewayError(model.ChannelMidtrans,
			fmt.Errorf("snap returned %d: %v", resp.StatusCode, apiErr.ErrorMessages))
	}

	var out gateway.SnapResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("token not found in response")
	}

	return &out, nil
}

func (c *Client) VerifyNotification(n model.MidtransNotification) bool {
	return VerifyNotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, c.config.ServerKey, n.SignatureKey)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatGrossAmount renders an amount the way Midtrans echoes it in notifications.
func FormatGrossAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}
