package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"course-payments/internal/domains/payment/model"
	"course-payments/pkg/database"
)

// =====================================================
// WEBHOOK LOG REPOSITORY
// =====================================================
type WebhookRepository interface {
	// Create is called as soon as a notification arrives, before any processing.
	Create(ctx context.Context, log *model.WebhookLog) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkInvalid(ctx context.Context, id uuid.UUID, reason string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// ListRetryable returns failed rows with a valid signature and retries left, oldest first.
	ListRetryable(ctx context.Context, maxRetries, limit int) ([]*model.WebhookLog, error)
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}

type webhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepository {
	return &webhookRepository{pool: pool}
}

func (r *webhookRepository) Create(ctx context.Context, log *model.WebhookLog) error {
	query := `
		INSERT INTO payment_webhook_logs (
			id, gateway, merchant_ref, event, headers, body,
			signature_valid, status, retry_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	headersJSON, err := json.Marshal(log.Headers)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	_, err = database.Conn(ctx, r.pool).Exec(ctx, query,
		log.ID,
		log.Gateway,
		log.MerchantRef,
		log.Event,
		headersJSON,
		[]byte(log.Body),
		log.SignatureValid,
		log.Status,
		log.RetryCount,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook log: %w", err)
	}
	return nil
}

func (r *webhookRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE payment_webhook_logs
		SET status = $2, signature_valid = true, error_message = NULL, processed_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "mark webhook as processed", query, id, model.WebhookStatusProcessed)
}

// MarkInvalid flags a notification whose signature or payload did not check out.
func (r *webhookRepository) MarkInvalid(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE payment_webhook_logs
		SET status = $2, error_message = $3, processed_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "mark webhook as invalid", query, id, model.WebhookStatusInvalid, reason)
}

// MarkFailed records a transient processing error; the signature was good.
func (r *webhookRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE payment_webhook_logs
		SET status = $2, signature_valid = true, error_message = $3
		WHERE id = $1
	`
	return r.exec(ctx, "mark webhook as failed", query, id, model.WebhookStatusFailed, reason)
}

func (r *webhookRepository) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE payment_webhook_logs
		SET retry_count = retry_count + 1
		WHERE id = $1
	`
	return r.exec(ctx, "increment webhook retry", query, id)
}

func (r *webhookRepository) ListRetryable(ctx context.Context, maxRetries, limit int) ([]*model.WebhookLog, error) {
	query := `
		SELECT id, gateway, merchant_ref, event, headers, body,
			signature_valid, status, error_message, retry_count, processed_at, created_at
		FROM payment_webhook_logs
		WHERE status = $1
		AND signature_valid = true
		AND retry_count < $2
		AND created_at > NOW() - INTERVAL '24 hours'
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, model.WebhookStatusFailed, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable webhooks: %w", err)
	}
	defer rows.Close()

	var logs []*model.WebhookLog
	for rows.Next() {
		var (
			log         model.WebhookLog
			headersJSON []byte
			bodyJSON    []byte
		)
		err := rows.Scan(
			&log.ID, &log.Gateway, &log.MerchantRef, &log.Event, &headersJSON, &bodyJSON,
			&log.SignatureValid, &log.Status, &log.ErrorMessage, &log.RetryCount,
			&log.ProcessedAt, &log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		if headersJSON != nil {
			if err := json.Unmarshal(headersJSON, &log.Headers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal webhook headers: %w", err)
			}
		}
		log.Body = bodyJSON
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhook logs: %w", err)
	}
	return logs, nil
}

func (r *webhookRepository) exec(ctx context.Context, action, query string, args ...interface{}) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook log not found: %v", args[0])
	}
	return nil
}
