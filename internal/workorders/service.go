package workorders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nabeeghrb/netsuite-rb/internal/binrank"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
)

// idempotencyModule scopes processed invocation keys.
const idempotencyModule = "workorders.assign_bin"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	PickingBins(ctx context.Context, itemID, locationID string) ([]binrank.Bin, error)
	UpdateBin(ctx context.Context, workOrderID string, bin binrank.Bin) error
}

// IdempotencyPort records processed invocations.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service picks and stores work order bins.
type Service struct {
	repo       RepositoryPort
	idem       IdempotencyPort
	audit      AuditPort
	locationID string
	logger     *slog.Logger
}

// NewService builds Service. idem and audit may be nil; locationID narrows the
// bin search when set.
func NewService(repo RepositoryPort, idem IdempotencyPort, audit AuditPort, locationID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, idem: idem, audit: audit, locationID: locationID, logger: logger}
}

// AssignBin ranks the picking bins of the work order's inventory component and
// writes the best one back. Repeated invocations are skipped.
func (s *Service) AssignBin(ctx context.Context, req AssignRequest) (res Result, err error) {
	wo := req.WorkOrder
	if wo.ID == "" {
		return Result{}, errors.New("workorders: work order id required")
	}
	logger := s.logger.With(slog.String("work_order_id", wo.ID), slog.String("invocation_id", req.InvocationID))

	if s.idem != nil && req.InvocationID != "" {
		key := "wo-bin:" + req.InvocationID
		if err := s.idem.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				logger.Info("bin assignment already processed")
				return Result{Reason: ReasonDuplicate}, nil
			}
			return Result{}, fmt.Errorf("workorders: idempotency: %w", err)
		}
		defer func() {
			if err == nil {
				return
			}
			if delErr := s.idem.Delete(context.WithoutCancel(ctx), key); delErr != nil {
				logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}()
	}

	itemID, ok := wo.InventoryComponent()
	if !ok {
		logger.Debug("no inventory component found")
		return Result{Reason: ReasonNoComponent}, nil
	}

	bins, err := s.repo.PickingBins(ctx, itemID, s.locationID)
	if err != nil {
		return Result{}, fmt.Errorf("workorders: picking bins for item %s: %w", itemID, err)
	}
	best, ok := binrank.Rank(bins)
	if !ok {
		location := s.locationID
		if location == "" {
			location = "(no location filter)"
		}
		logger.Info("no picking bins with qty > 0", slog.String("item_id", itemID), slog.String("location_id", location))
		s.record(ctx, req, "no_bin", map[string]any{"item_id": itemID, "location_id": s.locationID})
		return Result{Reason: ReasonNoBin, ItemID: itemID}, nil
	}

	if err := s.repo.UpdateBin(ctx, wo.ID, best); err != nil {
		return Result{}, fmt.Errorf("workorders: update work order: %w", err)
	}

	seq := any(nil)
	if best.HasSequence() {
		seq = best.PickSequence
	}
	logger.Info("work order bin updated",
		slog.String("item_id", itemID),
		slog.String("bin_id", best.BinID),
		slog.String("bin_label", best.Label),
		slog.Any("pick_sequence", seq),
		slog.String("qty_used", best.RankQuantity().String()),
	)
	s.record(ctx, req, "assign_bin", map[string]any{
		"item_id":       itemID,
		"bin_id":        best.BinID,
		"bin_label":     best.Label,
		"pick_sequence": seq,
		"on_hand":       best.OnHand.String(),
		"available":     best.Available.String(),
	})
	return Result{Assigned: true, Reason: ReasonAssigned, ItemID: itemID, Bin: best}, nil
}

func (s *Service) record(ctx context.Context, req AssignRequest, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		InvocationID: req.InvocationID,
		Hook:         "work_order.after_submit",
		Action:       action,
		Entity:       "work_order",
		EntityID:     req.WorkOrder.ID,
		Meta:         meta,
	})
	if err != nil {
		s.logger.Warn("audit work order", slog.Any("error", err))
	}
}
