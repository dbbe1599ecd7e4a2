package queue

import (
	"encoding/json"

	"github.com/quirkcart/quirkcart/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotifyDispatch delivers a customer email through the mail provider.
	TaskNotifyDispatch = constants.TaskNotifyDispatch
	// TaskGiftCardExpire sweeps active gift cards past their expiry date.
	TaskGiftCardExpire = constants.TaskGiftCardExpire
)

// NotifyDispatchPayload carries one outbound email. RefID points at the
// order or gift card the event concerns.
type NotifyDispatchPayload struct {
	Event   string            `json:"event"`
	Email   string            `json:"email"`
	RefType string            `json:"ref_type,omitempty"`
	RefID   uint              `json:"ref_id,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// GiftCardExpirePayload triggers an expiry sweep. Empty means sweep
// everything due at execution time.
type GiftCardExpirePayload struct {
	GiftCardID uint `json:"gift_card_id,omitempty"`
}

// NewNotifyDispatchTask builds a notification delivery task.
func NewNotifyDispatchTask(payload NotifyDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyDispatch, body), nil
}

// NewGiftCardExpireTask builds an expiry sweep task.
func NewGiftCardExpireTask(payload GiftCardExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftCardExpire, body), nil
}
