// Package orders implements the sales order hooks: shortage line splitting,
// delivery flag sourcing, duplicate PO validation and the shipping reminder.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/nabeeghrb/netsuite-rb/internal/allocation"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	FindShipAddress(ctx context.Context, customerID, addressRef string) (DeliveryFlags, error)
	CustomerOrdersWithPO(ctx context.Context, customerID string) ([]PORecord, error)
	FindOrderByPO(ctx context.Context, poNumber, excludeID string) (PORecord, bool, error)
}

// StockPort answers the item lookups the split needs.
type StockPort interface {
	IsAssembly(ctx context.Context, itemID string) (bool, error)
	LocationAvailable(ctx context.Context, itemID, locationID string) (decimal.Decimal, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Duplicate PO scopes.
const (
	POScopeCustomer = "customer"
	POScopeGlobal   = "global"
)

// ServiceConfig groups the hook parameters.
type ServiceConfig struct {
	SplitLocationID   string
	SplitCustomerID   string
	SplitShipMethodID string
	// LookupConcurrency bounds parallel availability lookups per order.
	LookupConcurrency int
	POScope           string
}

func (c ServiceConfig) splitEnabled() bool {
	return c.SplitLocationID != "" && c.SplitCustomerID != "" && c.SplitShipMethodID != ""
}

// Service coordinates the sales order hooks.
type Service struct {
	repo   RepositoryPort
	stock  StockPort
	audit  AuditPort
	cfg    ServiceConfig
	logger *slog.Logger
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, stock StockPort, audit AuditPort, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 1
	}
	if cfg.POScope == "" {
		cfg.POScope = POScopeCustomer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, stock: stock, audit: audit, cfg: cfg, logger: logger}
}

// Skip reasons reported in SplitResult.
const (
	SkipEvent              = "event is not create or edit"
	SkipMissingParams      = "split parameters not configured"
	SkipCustomerMismatch   = "customer does not match split target"
	SkipShipMethodMismatch = "ship method does not match split target"
)

// SplitShortLines splits assembly lines the split location cannot cover. The
// returned lines replace order.Lines; each shortage line follows its source.
func (s *Service) SplitShortLines(ctx context.Context, order SalesOrder) (SplitResult, error) {
	result := SplitResult{Lines: unchanged(order.Lines)}
	switch {
	case !order.Event.IsCreateOrEdit():
		result.SkipReason = SkipEvent
	case !s.cfg.splitEnabled():
		result.SkipReason = SkipMissingParams
	case order.CustomerID != s.cfg.SplitCustomerID:
		result.SkipReason = SkipCustomerMismatch
	case order.ShipMethodID != s.cfg.SplitShipMethodID:
		result.SkipReason = SkipShipMethodMismatch
	}
	if result.SkipReason != "" {
		s.logger.Debug("split skipped", slog.String("order_id", order.ID), slog.String("reason", result.SkipReason))
		return result, nil
	}

	decisions, err := s.decideLines(ctx, order.Lines)
	if err != nil {
		return SplitResult{}, err
	}

	lines := make([]allocation.Line, 0, len(order.Lines)+len(decisions))
	applied := make([]LineDecision, 0, len(decisions))
	for i, src := range order.Lines {
		d, ok := decisions[i]
		if !ok {
			lines = append(lines, allocation.Line{OrderLine: src})
			continue
		}
		src.IsAssembly = true
		lines = append(lines, d.Decision.Apply(src)...)
		applied = append(applied, d)
		if d.Decision.Split() {
			s.logger.Info("split complete",
				slog.String("order_id", order.ID),
				slog.Int("line", i),
				slog.String("item_id", src.ItemID),
				slog.String("ordered", src.Quantity.String()),
				slog.String("available", d.Available.String()),
				slog.String("shortage", d.Decision.ShortageQuantity.String()),
			)
			s.recordSplit(ctx, order, d)
		}
	}
	result.Applied = true
	result.Lines = lines
	result.Decisions = applied
	return result, nil
}

// decideLines looks up eligible lines concurrently and returns decisions keyed
// by source line index. Ineligible lines have no entry.
func (s *Service) decideLines(ctx context.Context, lines []allocation.OrderLine) (map[int]LineDecision, error) {
	found := make([]*LineDecision, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LookupConcurrency)
	for i, line := range lines {
		if line.ItemID == "" || !line.Quantity.IsPositive() {
			s.logger.Debug("split line skipped: missing item or qty", slog.Int("line", i))
			continue
		}
		g.Go(func() error {
			asm, err := s.stock.IsAssembly(gctx, line.ItemID)
			if err != nil {
				return fmt.Errorf("item %s type: %w", line.ItemID, err)
			}
			if !asm {
				s.logger.Debug("split line skipped: not assembly", slog.Int("line", i), slog.String("item_id", line.ItemID))
				return nil
			}
			available, err := s.stock.LocationAvailable(gctx, line.ItemID, s.cfg.SplitLocationID)
			if err != nil {
				return fmt.Errorf("item %s availability: %w", line.ItemID, err)
			}
			decision, err := allocation.Decide(line.Quantity, available)
			if err != nil {
				return err
			}
			s.logger.Debug("split line decided",
				slog.Int("line", i),
				slog.String("item_id", line.ItemID),
				slog.String("available", available.String()),
				slog.String("outcome", string(decision.Outcome)),
			)
			found[i] = &LineDecision{Index: i, ItemID: line.ItemID, Available: available, Decision: decision}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("orders: split lookups: %w", err)
	}
	out := make(map[int]LineDecision, len(lines))
	for i, d := range found {
		if d != nil {
			out[i] = *d
		}
	}
	return out, nil
}

func (s *Service) recordSplit(ctx context.Context, order SalesOrder, d LineDecision) {
	if s.audit == nil {
		return
	}
	entityID := order.ID
	if entityID == "" {
		entityID = "new"
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		InvocationID: shared.InvocationFromContext(ctx),
		Hook:         "sales_order.before_submit",
		Action:       "split_line",
		Entity:       "sales_order",
		EntityID:     entityID,
		Meta: map[string]any{
			"line":      d.Index,
			"item_id":   d.ItemID,
			"available": d.Available.String(),
			"fulfilled": d.Decision.FulfilledQuantity.String(),
			"shortage":  d.Decision.ShortageQuantity.String(),
		},
	})
	if err != nil {
		s.logger.Warn("audit split", slog.Any("error", err))
	}
}

func unchanged(src []allocation.OrderLine) []allocation.Line {
	out := make([]allocation.Line, len(src))
	for i, l := range src {
		out[i] = allocation.Line{OrderLine: l}
	}
	return out
}

// SourceDeliveryFlags returns the delivery flags of the order's saved ship
// address. The boolean is false when the order keeps its own values: delete
// events, missing customer or address, custom addresses and lookup failures.
func (s *Service) SourceDeliveryFlags(ctx context.Context, order SalesOrder) (DeliveryFlags, bool) {
	if order.Event == EventDelete || order.CustomerID == "" || order.ShipAddressID == "" {
		return DeliveryFlags{}, false
	}
	flags, err := s.repo.FindShipAddress(ctx, order.CustomerID, order.ShipAddressID)
	if err != nil {
		if !errors.Is(err, ErrAddressNotFound) {
			s.logger.Error("delivery flags sourcing failed",
				slog.String("customer_id", order.CustomerID),
				slog.String("address_id", order.ShipAddressID),
				slog.Any("error", err),
			)
		}
		return DeliveryFlags{}, false
	}
	return flags, true
}

// CheckDuplicatePO reports whether the order's PO number is already used.
func (s *Service) CheckDuplicatePO(ctx context.Context, order SalesOrder) (POCheck, error) {
	if s.cfg.POScope == POScopeGlobal {
		return s.checkPOGlobal(ctx, order)
	}
	return s.checkPOCustomer(ctx, order)
}

func (s *Service) checkPOCustomer(ctx context.Context, order SalesOrder) (POCheck, error) {
	po := strings.TrimSpace(order.PONumber)
	if po == "" || order.CustomerID == "" {
		return POCheck{}, nil
	}
	candidates, err := s.repo.CustomerOrdersWithPO(ctx, order.CustomerID)
	if err != nil {
		return POCheck{}, fmt.Errorf("orders: customer po search: %w", err)
	}
	target := cases.Fold().String(po)
	for _, c := range candidates {
		if order.ID != "" && c.ID == order.ID {
			continue
		}
		if cases.Fold().String(strings.TrimSpace(c.PONumber)) != target {
			continue
		}
		s.logger.Debug("duplicate po confirmed",
			slog.String("customer_id", order.CustomerID),
			slog.String("duplicate_id", c.ID),
			slog.String("tran_id", c.TranID),
		)
		return POCheck{
			Duplicate: true,
			Existing:  c,
			Alert: Alert{
				Title:   "Duplicate PO Number for Customer",
				Message: fmt.Sprintf("The PO Number %q is already used on Sales Order %s for this customer.", po, c.TranID),
			},
		}, nil
	}
	return POCheck{}, nil
}

func (s *Service) checkPOGlobal(ctx context.Context, order SalesOrder) (POCheck, error) {
	if order.PONumber == "" {
		return POCheck{}, nil
	}
	rec, found, err := s.repo.FindOrderByPO(ctx, order.PONumber, order.ID)
	if err != nil {
		return POCheck{}, fmt.Errorf("orders: po search: %w", err)
	}
	if !found {
		return POCheck{}, nil
	}
	return POCheck{
		Duplicate: true,
		Existing:  rec,
		Alert: Alert{
			Title:   "Duplicate PO Number",
			Message: fmt.Sprintf("The PO Number %q is already used on another Sales Order. Please use a unique PO Number.", order.PONumber),
		},
	}, nil
}

// ShippingReminder returns the recalculate-shipping notice when item lines
// changed. It never blocks the save.
func ShippingReminder(itemsChanged bool) (Alert, bool) {
	if !itemsChanged {
		return Alert{}, false
	}
	return Alert{
		Title:   "Recalculate Shipping",
		Message: "Items were added, modified, or removed. Please remember to recalculate shipping.",
	}, true
}
