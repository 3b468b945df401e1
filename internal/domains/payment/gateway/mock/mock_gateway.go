package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"course-payments/internal/domains/payment/gateway"
	"course-payments/internal/domains/payment/model"
)

// =====================================================
// MOCK GATEWAYS FOR DEVELOPMENT AND TESTING
// =====================================================

// SnapGateway issues fake tokens and accepts every notification unless told otherwise.
type SnapGateway struct {
	mu            sync.Mutex
	shouldFail    bool
	rejectSig     bool
	CreatedOrders []string
	LastRequest   gateway.SnapRequest
}

func NewSnapGateway() *SnapGateway {
	return &SnapGateway{}
}

func (m *SnapGateway) CreateTransaction(_ context.Context, req gateway.SnapRequest) (*gateway.SnapResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, model.NewGatewayError(model.ChannelMidtrans, fmt.Errorf("mock snap failure"))
	}
	m.CreatedOrders = append(m.CreatedOrders, req.OrderID)
	m.LastRequest = req
	token := fmt.Sprintf("mock-snap-%s", req.OrderID)
	return &gateway.SnapResponse{
		Token:       token,
		RedirectURL: "https://mock-midtrans.local/snap/v2/vtweb/" + token,
	}, nil
}

func (m *SnapGateway) VerifyNotification(model.MidtransNotification) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.rejectSig
}

func (m *SnapGateway) SetFail(fail bool) {
	m.mu.Lock()
	m.shouldFail = fail
	m.mu.Unlock()
}

func (m *SnapGateway) SetRejectSignature(reject bool) {
	m.mu.Lock()
	m.rejectSig = reject
	m.mu.Unlock()
}

// TripayGateway mirrors SnapGateway for the Tripay channel.
type TripayGateway struct {
	mu         sync.Mutex
	shouldFail bool
	rejectSig  bool
	Requests   []gateway.TripayRequest
}

func NewTripayGateway() *TripayGateway {
	return &TripayGateway{}
}

func (m *TripayGateway) CreateTransaction(_ context.Context, req gateway.TripayRequest) (*gateway.TripayTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return nil, model.NewGatewayError(model.ChannelTripay, fmt.Errorf("mock tripay failure"))
	}
	m.Requests = append(m.Requests, req)
	ref := "MOCK" + req.MerchantRef
	return &gateway.TripayTransaction{
		Reference:   ref,
		MerchantRef: req.MerchantRef,
		CheckoutURL: "https://mock-tripay.local/checkout/" + ref,
		Status:      "UNPAID",
		Amount:      req.Amount,
		ExpiredTime: time.Now().Add(24 * time.Hour).Unix(),
	}, nil
}

func (m *TripayGateway) VerifyCallback([]byte, string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.rejectSig
}

func (m *TripayGateway) SetFail(fail bool) {
	m.mu.Lock()
	m.shouldFail = fail
	m.mu.Unlock()
}

func (m *TripayGateway) SetRejectSignature(reject bool) {
	m.mu.Lock()
	m.rejectSig = reject
	m.mu.Unlock()
}
