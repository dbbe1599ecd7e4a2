package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/provider"
	"github.com/quirkcart/quirkcart/internal/queue"
	"github.com/quirkcart/quirkcart/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles queued tasks against the shared container.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the task consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register binds task handlers onto the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotifyDispatch, c.handleNotifyDispatch)
	mux.HandleFunc(queue.TaskGiftCardExpire, c.handleGiftCardExpire)
}

func (c *Consumer) handleNotifyDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notify_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotifyDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notify_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Event) == "" {
		logger.Debugw("worker_notify_dispatch_skip_invalid_payload", "event", payload.Event)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notify_dispatch_skip_service_nil", "event", payload.Event)
		return nil
	}
	if err := c.NotificationService.Deliver(ctx, payload); err != nil {
		switch {
		case errors.Is(err, service.ErrNotifierDisabled):
			logger.Debugw("worker_notify_dispatch_skip_disabled", "event", payload.Event)
			return nil
		case errors.Is(err, service.ErrNotifyEventUnknown):
			logger.Warnw("worker_notify_dispatch_skip_unknown_event", "event", payload.Event)
			return nil
		default:
			logger.Warnw("worker_notify_dispatch_failed",
				"event", payload.Event,
				"ref_type", payload.RefType,
				"ref_id", payload.RefID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleGiftCardExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_gift_card_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GiftCardExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_gift_card_expire_unmarshal_failed", "error", err)
		return err
	}
	if c.GiftCardService == nil {
		logger.Warnw("worker_gift_card_expire_skip_service_nil")
		return nil
	}
	expired, err := c.GiftCardService.ExpireDueCards()
	if err != nil {
		logger.Warnw("worker_gift_card_expire_failed", "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_gift_card_expire_done", "expired", expired)
	}
	return nil
}
