package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"course-payments/internal/domains/checkout/model"
	"course-payments/internal/domains/checkout/repository"
	courseModel "course-payments/internal/domains/course/model"
	courseRepo "course-payments/internal/domains/course/repository"
	discountModel "course-payments/internal/domains/discount/model"
	"course-payments/internal/domains/payment/gateway"
	settingsModel "course-payments/internal/domains/settings/model"
	userRepo "course-payments/internal/domains/user/repository"
	"course-payments/pkg/logger"
)

// =====================================================
// CHECKOUT SERVICE INTERFACE
// =====================================================
type Service interface {
	// Quote prices a course for purchase, applying code when non-empty.
	Quote(ctx context.Context, courseID uuid.UUID, code string) (*model.Quote, error)

	// Open stages a Snap checkout. Nothing is persisted when the discount is invalid
	// or the gateway refuses.
	Open(ctx context.Context, userID uuid.UUID, req model.OpenCheckoutRequest) (*model.OpenCheckoutResponse, error)

	FindByOrderID(ctx context.Context, orderID string) (*model.PendingCheckout, error)
	GetForUser(ctx context.Context, userID uuid.UUID, orderID string) (*model.PendingCheckout, error)
	Remove(ctx context.Context, orderID string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// DiscountResolver is the part of the discount engine checkout needs.
type DiscountResolver interface {
	Resolve(ctx context.Context, code string, amount int64) (*discountModel.Application, error)
}

type SettingsReader interface {
	Get(ctx context.Context) (*settingsModel.SiteSettings, error)
}

type checkoutService struct {
	repo      repository.Repository
	courses   courseRepo.Reader
	discounts DiscountResolver
	settings  SettingsReader
	contacts  userRepo.ContactReader
	snap      gateway.SnapGateway
	now       func() time.Time
}

func NewCheckoutService(
	repo repository.Repository,
	courses courseRepo.Reader,
	discounts DiscountResolver,
	settings SettingsReader,
	contacts userRepo.ContactReader,
	snap gateway.SnapGateway,
) Service {
	return &checkoutService{
		repo:      repo,
		courses:   courses,
		discounts: discounts,
		settings:  settings,
		contacts:  contacts,
		snap:      snap,
		now:       time.Now,
	}
}

func (s *checkoutService) Quote(ctx context.Context, courseID uuid.UUID, code string) (*model.Quote, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return s.quote(ctx, courseID, code, settings)
}

func (s *checkoutService) quote(ctx context.Context, courseID uuid.UUID, code string, settings *settingsModel.SiteSettings) (*model.Quote, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, courseModel.ErrCourseNotFound) {
			return nil, model.ErrCourseUnavailable
		}
		return nil, err
	}
	if !course.IsActive {
		return nil, model.ErrCourseUnavailable
	}

	var applied *discountModel.Application
	if strings.TrimSpace(code) != "" {
		applied, err = s.discounts.Resolve(ctx, code, course.Price)
		if err != nil {
			return nil, err
		}
	}

	quote := model.NewQuote(course, settings.AdminFee, applied)
	if quote.GrandTotal <= 0 {
		return nil, model.ErrNothingToPay
	}
	return quote, nil
}

func (s *checkoutService) Open(ctx context.Context, userID uuid.UUID, req model.OpenCheckoutRequest) (*model.OpenCheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	quote, err := s.quote(ctx, req.CourseID, req.DiscountCode, settings)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pending := &model.PendingCheckout{
		ID:               uuid.New(),
		OrderID:          NewOrderID(),
		UserID:           userID,
		CourseID:         quote.Course.ID,
		Subtotal:         quote.Subtotal,
		AdminFee:         quote.AdminFee,
		DiscountAmount:   quote.DiscountAmount,
		DiscountID:       quote.DiscountID(),
		GrandTotal:       quote.GrandTotal,
		DiscountSnapshot: quote.Discount.Snapshot(),
		ExpiresAt:        now.Add(model.CheckoutTTL),
	}

	snapReq := gateway.SnapRequest{
		OrderID:     pending.OrderID,
		GrossAmount: pending.GrandTotal,
		Items:       quoteItems(quote),
		Expiry:      model.CheckoutTTL,
	}
	if s.contacts != nil {
		if contact, err := s.contacts.FindContact(ctx, userID); err == nil {
			snapReq.Customer = gateway.Customer{Name: contact.DisplayName(), Email: contact.Email, Phone: contact.Phone}
		} else {
			logger.Warn("checkout without customer details", map[string]interface{}{
				"user_id": userID.String(),
				"error":   err.Error(),
			})
		}
	}

	snap, err := s.snap.CreateTransaction(ctx, snapReq)
	if err != nil {
		return nil, fmt.Errorf("create snap transaction: %w", err)
	}
	pending.SnapToken = snap.Token
	pending.RedirectURL = snap.RedirectURL

	if err := s.repo.Create(ctx, pending); err != nil {
		return nil, err
	}

	logger.Info("Checkout opened", map[string]interface{}{
		"order_id":    pending.OrderID,
		"user_id":     userID.String(),
		"course_id":   pending.CourseID.String(),
		"grand_total": pending.GrandTotal,
	})

	return model.ToOpenCheckoutResponse(pending), nil
}

func (s *checkoutService) FindByOrderID(ctx context.Context, orderID string) (*model.PendingCheckout, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}

func (s *checkoutService) GetForUser(ctx context.Context, userID uuid.UUID, orderID string) (*model.PendingCheckout, error) {
	p, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, model.ErrNotOwner
	}
	return p, nil
}

func (s *checkoutService) Remove(ctx context.Context, orderID string) error {
	if _, err := s.repo.DeleteByOrderID(ctx, orderID); err != nil {
		return err
	}
	return nil
}

func (s *checkoutService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("Expired checkouts removed", map[string]interface{}{"deleted_count": deleted})
	}
	return deleted, nil
}

// NewOrderID returns a Midtrans order_id (max 50 chars).
func NewOrderID() string {
	return "CO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// quoteItems lists the line items so they sum to the gross amount, as Snap requires.
func quoteItems(q *model.Quote) []gateway.Item {
	items := []gateway.Item{{
		ID:       q.Course.ID.String(),
		Name:     q.Course.Title,
		Price:    q.Subtotal,
		Quantity: 1,
	}}
	if q.AdminFee > 0 {
		items = append(items, gateway.Item{ID: "admin-fee", Name: "Admin fee", Price: q.AdminFee, Quantity: 1})
	}
	if q.DiscountAmount > 0 {
		name := "Discount"
		if q.Discount != nil && q.Discount.Discount != nil {
			name = "Discount " + q.Discount.Discount.Code
		}
		items = append(items, gateway.Item{ID: "discount", Name: name, Price: -q.DiscountAmount, Quantity: 1})
	}
	return items
}
