package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/nabeeghrb/netsuite-rb/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// AssignBinOptions describes a manual bin assignment.
type AssignBinOptions struct {
	WorkOrderID string
	ItemID      string
	ItemType    string
}

func (o AssignBinOptions) payload() (jobs.WorkOrderBinPayload, error) {
	if o.WorkOrderID == "" {
		return jobs.WorkOrderBinPayload{}, errors.New("assign-bin: --work-order required")
	}
	p := jobs.WorkOrderBinPayload{InvocationID: "cli-" + uuid.NewString(), WorkOrderID: o.WorkOrderID}
	if o.ItemID != "" {
		p.Components = []jobs.WorkOrderComponent{{ItemID: o.ItemID, ItemType: o.ItemType}}
	}
	return p, nil
}

// AssignBin enqueues a bin assignment for one work order.
func (c *JobsCLI) AssignBin(ctx context.Context, opts AssignBinOptions) (*asynq.TaskInfo, error) {
	payload, err := opts.payload()
	if err != nil {
		return nil, err
	}
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := jobs.NewWorkOrderBinTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

func redisAddr() string {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		return v
	}
	return "127.0.0.1:6379"
}

// NewAssignBinCommand enqueues a bin assignment outside the hook flow.
func NewAssignBinCommand() *cobra.Command {
	var opts AssignBinOptions
	cmd := &cobra.Command{
		Use:           "assign-bin",
		Short:         "Queue a work order bin assignment",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.payload(); err != nil {
				return err
			}
			c := NewJobsCLI(redisAddr())
			defer c.Close()
			info, err := c.AssignBin(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "queued %s on %s\n", info.ID, info.Queue)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.WorkOrderID, "work-order", "", "work order id")
	cmd.Flags().StringVar(&opts.ItemID, "item", "", "inventory component item id")
	cmd.Flags().StringVar(&opts.ItemType, "type", "InvtPart", "inventory component item type")
	return cmd
}

// NewQueueStatsCommand prints the default queue counters.
func NewQueueStatsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:           "queue-stats",
		Short:         "Show job queue counters",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := NewJobsCLI(redisAddr())
			defer c.Close()
			stats, err := c.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), stats, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeStats(w io.Writer, stats QueueStats, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(stats)
	}
	_, err := fmt.Fprintf(w, "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return err
}
