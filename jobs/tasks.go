// Package jobs contains the background task definitions and the Asynq
// worker that runs them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeQuotaRollPeriod seeds the next billing period's quota rows.
	TaskTypeQuotaRollPeriod = "quota:roll_period"
)

// QuotaRollPayload names the period boundary to roll over. Empty keys mean
// "derive from the current time", which is what the scheduled run uses.
type QuotaRollPayload struct {
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
}

// NewQuotaRollTask constructs an Asynq task.
func NewQuotaRollTask(payload QuotaRollPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeQuotaRollPeriod, data), nil
}
