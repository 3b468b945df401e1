package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"course-payments/internal/domains/settlement/model"
	"course-payments/internal/shared"
)

// TaskEnqueuer is the slice of *asynq.Client used here.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqNotifier hands paid settlements to the worker, which sends the receipt.
type AsynqNotifier struct {
	client   TaskEnqueuer
	queue    string
	maxRetry int
}

func NewAsynqNotifier(client TaskEnqueuer, queue string, maxRetry int) *AsynqNotifier {
	if queue == "" {
		queue = shared.QueueHigh
	}
	if maxRetry <= 0 {
		maxRetry = 3
	}
	return &AsynqNotifier{client: client, queue: queue, maxRetry: maxRetry}
}

// SettlementPaid enqueues at most one task per booking id.
func (n *AsynqNotifier) SettlementPaid(ctx context.Context, trx *model.Transaction) error {
	payload, err := json.Marshal(shared.SettlementNotificationPayload{
		BookingTrxID: trx.BookingTrxID,
		UserID:       trx.UserID.String(),
		CourseID:     trx.CourseID.String(),
		GrandTotal:   trx.GrandTotal,
		PaymentType:  trx.PaymentType,
	})
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeSendSettlementNotification, payload)
	_, err = n.client.EnqueueContext(ctx, task,
		asynq.Queue(n.queue),
		asynq.MaxRetry(n.maxRetry),
		asynq.TaskID("settlement:"+trx.BookingTrxID),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue settlement notification: %w", err)
	}
	return nil
}
