package tripay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/model"
)

// =====================================================
// TRIPAY CLIENT
// =====================================================

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (gateway.TripayGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Tripay config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type orderItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type createRequest struct {
	Method        string      `json:"method"`
	MerchantRef   string      `json:"merchant_ref"`
	Amount        int64       `json:"amount"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	OrderItems    []orderItem `json:"order_items"`
	ReturnURL     string      `json:"return_url,omitempty"`
	CallbackURL   string      `json:"callback_url,omitempty"`
	ExpiredTime   int64       `json:"expired_time"`
	Signature     string      `json:"signature"`
}

type apiResponse struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Data    *gateway.TripayTransaction `json:"data"`
}

func (c *Client) CreateTransaction(ctx context.Context, req gateway.TripayRequest) (*gateway.TripayTransaction, error) {
	if req.MerchantRef == "" {
		return nil, fmt.Errorf("merchant_ref is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	expiresAt := req.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(c.config.ExpiryWindow)
	}

	body := createRequest{
		Method:        req.Method,
		MerchantRef:   req.MerchantRef,
		Amount:        req.Amount,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
		ReturnURL:     c.config.ReturnURL,
		CallbackURL:   c.config.CallbackURL,
		ExpiredTime:   expiresAt.Unix(),
		Signature:     TransactionSignature(c.config.MerchantCode, req.MerchantRef, req.Amount, c.config.PrivateKey),
	}
	for _, it := range req.Items {
		body.OrderItems = append(body.OrderItems, orderItem{SKU: it.ID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.CreateTransactionURL(), bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, model.NewGatewayError(model.ChannelTripay, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, model.NewGatewayError(model.ChannelTripay,
			fmt.Errorf("unexpected response (%d): %w", resp.StatusCode, err))
	}
	if !out.Success || out.Data == nil {
		return nil, model.NewGatewayError(model.ChannelTripay,
			fmt.Errorf("tripay returned %d: %s", resp.StatusCode, out.Message))
	}

	return out.Data, nil
}

func (c *Client) VerifyCallback(rawBody []byte, signature string) bool {
	return VerifyCallbackSignature(rawBody, signature, c.config.PrivateKey)
}
