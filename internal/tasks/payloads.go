package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names shared by producers and the worker.
const (
	TypeEmailDeliver = "email:deliver"
)

// EmailDeliverPayload is a fully rendered email waiting for a transport.
type EmailDeliverPayload struct {
	Kind          string `json:"kind"`
	To            string `json:"to"`
	Subject       string `json:"subject"`
	HTML          string `json:"html"`
	Text          string `json:"text"`
	CorrelationID string `json:"correlation_id"`
}

// NewEmailDeliverTask builds an email delivery task.
func NewEmailDeliverTask(p EmailDeliverPayload, opts ...asynq.Option) (*asynq.Task, error) {
	if p.To == "" {
		return nil, fmt.Errorf("email task for %s has no recipient", p.Kind)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailDeliver, payload, opts...), nil
}

// ParseEmailDeliverPayload decodes a task payload.
func ParseEmailDeliverPayload(t *asynq.Task) (EmailDeliverPayload, error) {
	var p EmailDeliverPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return p, nil
}
