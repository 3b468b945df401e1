package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"course-payments/internal/domains/revenue/model"
	"course-payments/internal/domains/revenue/repository"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

// exportRowLimit caps a single workbook.
const exportRowLimit = 10000

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Service interface {
	Summary(ctx context.Context, actor model.Actor, req model.ReportRequest) (*model.Summary, error)
	Transactions(ctx context.Context, actor model.Actor, req model.ReportRequest) ([]model.Row, *response.Meta, error)
	// Export writes the filtered rows to an xlsx file in object storage and
	// returns a presigned download link.
	Export(ctx context.Context, actor model.Actor, req model.ReportRequest) (*model.ExportResponse, error)
}

// ReportStore is where generated workbooks go.
type ReportStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type revenueService struct {
	repo      repository.Repository
	store     ReportStore
	location  *time.Location
	exportTTL time.Duration
	now       func() time.Time
}

func NewRevenueService(repo repository.Repository, store ReportStore, location *time.Location, exportTTL time.Duration) Service {
	if location == nil {
		location = time.UTC
	}
	return &revenueService{
		repo:      repo,
		store:     store,
		location:  location,
		exportTTL: exportTTL,
		now:       time.Now,
	}
}

func (s *revenueService) filter(actor model.Actor, req model.ReportRequest) (*repository.Filter, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f, err := repository.Scope(actor)
	if err != nil {
		return nil, err
	}
	criteria, err := req.Criteria(s.location)
	if err != nil {
		return nil, err
	}
	return repository.ApplyFilters(f, criteria), nil
}

func (s *revenueService) Summary(ctx context.Context, actor model.Actor, req model.ReportRequest) (*model.Summary, error) {
	f, err := s.filter(actor, req)
	if err != nil {
		return nil, err
	}
	return s.repo.Summarize(ctx, f)
}

func (s *revenueService) Transactions(ctx context.Context, actor model.Actor, req model.ReportRequest) ([]model.Row, *response.Meta, error) {
	f, err := s.filter(actor, req)
	if err != nil {
		return nil, nil, err
	}
	page, limit := req.Pagination()
	rows, total, err := s.repo.List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, err
	}
	return rows, response.NewMeta(page, limit, total), nil
}

func (s *revenueService) Export(ctx context.Context, actor model.Actor, req model.ReportRequest) (*model.ExportResponse, error) {
	f, err := s.filter(actor, req)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.Summarize(ctx, f)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.List(ctx, f, exportRowLimit, 0)
	if err != nil {
		return nil, err
	}
	if total > exportRowLimit {
		logger.Warn("Revenue export truncated", map[string]interface{}{
			"total": total,
			"limit": exportRowLimit,
		})
	}

	data, err := buildWorkbook(rows, summary, s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to build revenue workbook: %w", err)
	}

	now := s.now().In(s.location)
	key := fmt.Sprintf("reports/revenue/%s/%s.xlsx", now.Format(time.DateOnly), uuid.NewString())
	if err := s.store.Upload(ctx, key, data, xlsxContentType); err != nil {
		return nil, err
	}

	filename := exportFilename(req, now)
	url, err := s.store.PresignedURL(ctx, key, filename, s.exportTTL)
	if err != nil {
		// Nobody can download an object without a link
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.ErrorWithFields("Failed to remove unreachable export", delErr, map[string]interface{}{"key": key})
		}
		return nil, err
	}

	logger.Info("Revenue export created", map[string]interface{}{
		"key":     key,
		"rows":    len(rows),
		"role":    actor.Role,
		"user_id": actor.UserID.String(),
	})

	return &model.ExportResponse{
		URL:       url,
		ExpiresAt: s.now().Add(s.exportTTL),
		Rows:      len(rows),
	}, nil
}

func exportFilename(req model.ReportRequest, now time.Time) string {
	from, to := req.From, req.To
	if from == "" {
		from = "all"
	}
	if to == "" {
		to = now.Format(time.DateOnly)
	}
	return fmt.Sprintf("revenue_%s_%s.xlsx", from, to)
}
