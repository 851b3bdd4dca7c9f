package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/nabeeghrb/netsuite-rb/internal/jobs"
	"github.com/nabeeghrb/netsuite-rb/internal/workorders"
)

// BinAssigner is the work order service used by the job.
type BinAssigner interface {
	AssignBin(ctx context.Context, req workorders.AssignRequest) (workorders.Result, error)
}

// WorkOrderBinJob processes TaskWorkOrderAssignBin tasks.
type WorkOrderBinJob struct {
	Assigner BinAssigner
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewWorkOrderBinJob initialises the handler.
func NewWorkOrderBinJob(assigner BinAssigner, logger *slog.Logger, metrics *jobmetrics.Metrics) *WorkOrderBinJob {
	return &WorkOrderBinJob{Assigner: assigner, Logger: logger, Metrics: metrics}
}

// Handle decodes the payload and runs the assignment.
func (j *WorkOrderBinJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Assigner == nil {
		return errors.New("workorder bin: handler not configured")
	}
	var payload WorkOrderBinPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WorkOrderID == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskWorkOrderAssignBin)
	defer func() {
		err = tracker.End(err)
	}()

	req := workorders.AssignRequest{
		InvocationID: payload.InvocationID,
		WorkOrder:    workorders.WorkOrder{ID: payload.WorkOrderID},
	}
	for _, c := range payload.Components {
		req.WorkOrder.Components = append(req.WorkOrder.Components, workorders.Component{ItemID: c.ItemID, ItemType: c.ItemType})
	}

	res, err := j.Assigner.AssignBin(ctx, req)
	if err != nil {
		j.logger().Error("work order bin assignment failed", slog.String("work_order_id", payload.WorkOrderID), slog.Any("error", err))
		return err
	}
	j.Metrics.AddOutcome(TaskWorkOrderAssignBin, res.Reason)
	return nil
}

func (j *WorkOrderBinJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
