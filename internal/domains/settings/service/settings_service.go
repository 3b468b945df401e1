package service

import (
	"context"
	"time"

	"course-payments/internal/domains/settings/model"
	"course-payments/internal/domains/settings/repository"
	"course-payments/pkg/cache"
	"course-payments/pkg/logger"
)

const (
	cacheKey = "settings:site"
	cacheTTL = 10 * time.Minute
)

// Service is a read-through cache over the site settings row.
// Writers invalidate, readers repopulate.
type Service interface {
	Get(ctx context.Context) (*model.SiteSettings, error)
	Update(ctx context.Context, req model.UpdateSettingsRequest) (*model.SiteSettings, error)
}

type settingsService struct {
	repo  repository.Repository
	cache cache.Cache
	ttl   time.Duration
}

func NewSettingsService(repo repository.Repository, c cache.Cache) Service {
	return &settingsService{repo: repo, cache: c, ttl: cacheTTL}
}

// Get serves from cache when possible. Cache errors degrade to a database read.
func (s *settingsService) Get(ctx context.Context) (*model.SiteSettings, error) {
	var cached model.SiteSettings
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.Warn("settings cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if found {
		return &cached, nil
	}

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, settings, s.ttl); err != nil {
		logger.Warn("settings cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, req model.UpdateSettingsRequest) (*model.SiteSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	settings := &model.SiteSettings{
		AdminFee:     req.AdminFee,
		SupportEmail: req.SupportEmail,
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}

	// A stale entry would survive for the full TTL, so failure here is logged loudly.
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		logger.Error("settings cache invalidation failed", err)
	}

	logger.Info("Site settings updated", map[string]interface{}{
		"admin_fee":     settings.AdminFee,
		"support_email": settings.SupportEmail,
	})
	return settings, nil
}
