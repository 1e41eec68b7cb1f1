package tasks

import (
	"encoding/json"

	"fixhive/models"

	"github.com/hibiken/asynq"
)

const TypePushSend = "push:send"

// NewPushTask wraps a push payload into an asynq task for the worker.
func NewPushTask(payload models.PushPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePushSend, b), nil
}
