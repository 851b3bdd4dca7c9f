package jobs

import (
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWorkOrderAssignBin assigns the pick bin of a saved work order.
	TaskWorkOrderAssignBin = "workorder:assign_bin"
)

// ErrAlreadyQueued is returned when a task for the same invocation exists.
var ErrAlreadyQueued = errors.New("jobs: task already queued")

// WorkOrderComponent is one bill of materials line in a task payload.
type WorkOrderComponent struct {
	ItemID   string `json:"item_id"`
	ItemType string `json:"item_type"`
}

// WorkOrderBinPayload describes the work order to assign a bin to.
type WorkOrderBinPayload struct {
	InvocationID string               `json:"invocation_id"`
	WorkOrderID  string               `json:"work_order_id"`
	Components   []WorkOrderComponent `json:"components"`
}

// WorkOrderBinTaskID is the task id used for an invocation.
func WorkOrderBinTaskID(invocationID string) string {
	return "wo-bin:" + invocationID
}

// NewWorkOrderBinTask constructs an Asynq task. Tasks of one invocation share
// an id so the queue rejects duplicates.
func NewWorkOrderBinTask(payload WorkOrderBinPayload) (*asynq.Task, error) {
	if payload.WorkOrderID == "" {
		return nil, errors.New("jobs: work order id required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)}
	if payload.InvocationID != "" {
		opts = append(opts, asynq.TaskID(WorkOrderBinTaskID(payload.InvocationID)))
	}
	return asynq.NewTask(TaskWorkOrderAssignBin, data, opts...), nil
}
