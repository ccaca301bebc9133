// Package tasks defines the asynq task types and payloads exchanged
// between the API surface and the worker.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	QueueName       = "ousd:swaps"
	TypeSwapExecute = "swap:execute"
)

// SwapPayload is the queued form of one swap intent. Amount is in the
// input coin's base units; tolerance is a decimal fraction like "0.005".
type SwapPayload struct {
	ID         uuid.UUID `json:"id"`
	Direction  string    `json:"direction"`
	Stablecoin string    `json:"stablecoin"`
	AmountIn   string    `json:"amount_in"`
	Tolerance  string    `json:"tolerance"`
}

// NewSwapTask builds the asynq task for one intent.
func NewSwapTask(p SwapPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap payload: %w", err)
	}
	return asynq.NewTask(TypeSwapExecute, data, asynq.Queue(QueueName)), nil
}

// ParseSwapTask decodes the payload back out of a task.
func ParseSwapTask(t *asynq.Task) (SwapPayload, error) {
	var p SwapPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return SwapPayload{}, fmt.Errorf("failed to unmarshal swap payload: %w", err)
	}
	return p, nil
}
