package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"course-payments/internal/domains/discount/model"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Resolve(ctx context.Context, code string, amount int64) (*model.Application, error) {
	args := m.Called(ctx, code, amount)
	app, _ := args.Get(0).(*model.Application)
	return app, args.Error(1)
}

func (m *mockService) Preview(ctx context.Context, req model.ValidateDiscountRequest) (*model.ValidateDiscountResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*model.ValidateDiscountResponse)
	return resp, args.Error(1)
}

func (m *mockService) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockService) Create(ctx context.Context, req model.CreateDiscountRequest) (*model.Discount, error) {
	args := m.Called(ctx, req)
	d, _ := args.Get(0).(*model.Discount)
	return d, args.Error(1)
}

func (m *mockService) GetByCode(ctx context.Context, code string) (*model.Discount, error) {
	args := m.Called(ctx, code)
	d, _ := args.Get(0).(*model.Discount)
	return d, args.Error(1)
}

func (m *mockService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func newRouter(h *DiscountHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/discounts/validate", h.ValidateCode)
	r.GET("/admin/discounts/:code", h.GetByCode)
	r.PATCH("/admin/discounts/:id/deactivate", h.Deactivate)
	return r
}

func TestValidateCode_InvalidIs422(t *testing.T) {
	svc := new(mockService)
	svc.On("Preview", mock.Anything, model.ValidateDiscountRequest{Code: "NOPE", Amount: 100000}).
		Return(nil, model.NewDiscountInvalid("not_found"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/discounts/validate", strings.NewReader(`{"code":"NOPE","amount":100000}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(NewDiscountHandler(svc)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error struct {
			Code    string                 `json:"code"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DISCOUNT_INVALID", body.Error.Code)
	assert.Equal(t, "not_found", body.Error.Details["reason"])
}

func TestValidateCode_OK(t *testing.T) {
	svc := new(mockService)
	svc.On("Preview", mock.Anything, mock.Anything).Return(&model.ValidateDiscountResponse{
		Code: "SAVE10", Discount: 20000, NetAmount: 230000,
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/discounts/validate", strings.NewReader(`{"code":"SAVE10","amount":250000}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(NewDiscountHandler(svc)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"net_amount":230000`)
}

func TestValidateCode_RejectsMissingAmount(t *testing.T) {
	svc := new(mockService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/discounts/validate", strings.NewReader(`{"code":"SAVE10"}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(NewDiscountHandler(svc)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Preview", mock.Anything, mock.Anything)
}

func TestDeactivate_NotFound(t *testing.T) {
	svc := new(mockService)
	id := uuid.New()
	svc.On("Deactivate", mock.Anything, id).Return(model.ErrDiscountNotFound)

	w := httptest.NewRecorder()
	newRouter(NewDiscountHandler(svc)).ServeHTTP(w,
		httptest.NewRequest(http.MethodPatch, "/admin/discounts/"+id.String()+"/deactivate", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetByCode_Unknown(t *testing.T) {
	svc := new(mockService)
	svc.On("GetByCode", mock.Anything, "NOPE").Return(nil, model.ErrDiscountNotFound)

	w := httptest.NewRecorder()
	newRouter(NewDiscountHandler(svc)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/discounts/NOPE", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), string(model.ErrCodeDiscountNotFound))
}
