package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabeeghrb/netsuite-rb/internal/allocation"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
)

type fakeRepo struct {
	flags       DeliveryFlags
	flagsErr    error
	customerPOs []PORecord
	byPO        map[string]PORecord
	searchErr   error
}

func (f *fakeRepo) FindShipAddress(ctx context.Context, customerID, addressRef string) (DeliveryFlags, error) {
	if f.flagsErr != nil {
		return DeliveryFlags{}, f.flagsErr
	}
	return f.flags, nil
}

func (f *fakeRepo) CustomerOrdersWithPO(ctx context.Context, customerID string) ([]PORecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.customerPOs, nil
}

func (f *fakeRepo) FindOrderByPO(ctx context.Context, poNumber, excludeID string) (PORecord, bool, error) {
	if f.searchErr != nil {
		return PORecord{}, false, f.searchErr
	}
	rec, ok := f.byPO[poNumber]
	if !ok || rec.ID == excludeID {
		return PORecord{}, false, nil
	}
	return rec, true, nil
}

type fakeStock struct {
	assembly  map[string]bool
	available map[string]decimal.Decimal
	err       error
}

func (f *fakeStock) IsAssembly(ctx context.Context, itemID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.assembly[itemID], nil
}

func (f *fakeStock) LocationAvailable(ctx context.Context, itemID, locationID string) (decimal.Decimal, error) {
	if locationID != "LINDEN" {
		return decimal.Zero, nil
	}
	return f.available[itemID], nil
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
	return nil
}

func splitConfig() ServiceConfig {
	return ServiceConfig{
		SplitLocationID:   "LINDEN",
		SplitCustomerID:   "C1",
		SplitShipMethodID: "SM1",
		LookupConcurrency: 2,
	}
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func splitOrder(lines ...allocation.OrderLine) SalesOrder {
	return SalesOrder{ID: "900", Event: EventCreate, CustomerID: "C1", ShipMethodID: "SM1", Lines: lines}
}

func TestSplitShortLines(t *testing.T) {
	stock := &fakeStock{
		assembly:  map[string]bool{"A": true, "B": true, "P": false},
		available: map[string]decimal.Decimal{"A": qty(4), "B": qty(20), "P": qty(0)},
	}
	audit := &fakeAudit{}
	svc := NewService(&fakeRepo{}, stock, audit, splitConfig(), nil)

	rate := allocation.Some(decimal.RequireFromString("2.50"))
	order := splitOrder(
		allocation.OrderLine{ItemID: "A", Quantity: qty(10), Rate: rate},
		allocation.OrderLine{ItemID: "P", Quantity: qty(3)},
		allocation.OrderLine{ItemID: "B", Quantity: qty(5)},
		allocation.OrderLine{ItemID: "", Quantity: qty(1)},
	)

	res, err := svc.SplitShortLines(context.Background(), order)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Len(t, res.Lines, 5)
	assert.Equal(t, 1, res.Splits())

	assert.Equal(t, "A", res.Lines[0].ItemID)
	assert.True(t, res.Lines[0].Quantity.Equal(qty(4)))
	assert.False(t, res.Lines[0].Shortage)
	assert.Equal(t, "A", res.Lines[1].ItemID)
	assert.True(t, res.Lines[1].Quantity.Equal(qty(6)))
	assert.True(t, res.Lines[1].Shortage)
	assert.Equal(t, rate, res.Lines[1].Rate)
	assert.True(t, res.Lines[0].IsAssembly)
	assert.True(t, res.Lines[1].IsAssembly)
	assert.Equal(t, "P", res.Lines[2].ItemID)
	assert.True(t, res.Lines[2].Quantity.Equal(qty(3)))
	assert.False(t, res.Lines[2].Shortage)
	assert.Equal(t, "B", res.Lines[3].ItemID)
	assert.True(t, res.Lines[3].IsAssembly)
	assert.False(t, res.Lines[3].Shortage)
	assert.Equal(t, "", res.Lines[4].ItemID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "split_line", audit.logs[0].Action)
	assert.Equal(t, "900", audit.logs[0].EntityID)
}

func TestSplitShortLinesZeroAvailableFlagsWholeLine(t *testing.T) {
	stock := &fakeStock{assembly: map[string]bool{"A": true}, available: map[string]decimal.Decimal{}}
	svc := NewService(&fakeRepo{}, stock, nil, splitConfig(), nil)

	res, err := svc.SplitShortLines(context.Background(), splitOrder(
		allocation.OrderLine{ItemID: "A", Quantity: qty(7), IsAssembly: true},
	))
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Shortage)
	assert.True(t, res.Lines[0].Quantity.Equal(qty(7)))
	assert.Equal(t, 0, res.Splits())
}

func TestSplitShortLinesSkips(t *testing.T) {
	stock := &fakeStock{assembly: map[string]bool{"A": true}, available: map[string]decimal.Decimal{"A": qty(1)}}
	line := allocation.OrderLine{ItemID: "A", Quantity: qty(5), IsAssembly: true}

	cases := []struct {
		name   string
		cfg    ServiceConfig
		mutate func(*SalesOrder)
		reason string
	}{
		{"delete event", splitConfig(), func(o *SalesOrder) { o.Event = EventDelete }, SkipEvent},
		{"xedit event", splitConfig(), func(o *SalesOrder) { o.Event = EventXEdit }, SkipEvent},
		{"missing params", ServiceConfig{SplitCustomerID: "C1"}, func(*SalesOrder) {}, SkipMissingParams},
		{"other customer", splitConfig(), func(o *SalesOrder) { o.CustomerID = "C2" }, SkipCustomerMismatch},
		{"other ship method", splitConfig(), func(o *SalesOrder) { o.ShipMethodID = "SM9" }, SkipShipMethodMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeRepo{}, stock, nil, tc.cfg, nil)
			order := splitOrder(line)
			tc.mutate(&order)
			res, err := svc.SplitShortLines(context.Background(), order)
			require.NoError(t, err)
			assert.False(t, res.Applied)
			assert.Equal(t, tc.reason, res.SkipReason)
			require.Len(t, res.Lines, 1)
			assert.True(t, res.Lines[0].Quantity.Equal(qty(5)))
		})
	}
}

func TestSplitShortLinesLookupError(t *testing.T) {
	stock := &fakeStock{err: errors.New("db down")}
	svc := NewService(&fakeRepo{}, stock, nil, splitConfig(), nil)

	_, err := svc.SplitShortLines(context.Background(), splitOrder(
		allocation.OrderLine{ItemID: "A", Quantity: qty(5)},
	))
	require.Error(t, err)
}

func TestSourceDeliveryFlags(t *testing.T) {
	want := DeliveryFlags{Liftgate: true, AppointmentDelivery: true}
	svc := NewService(&fakeRepo{flags: want}, &fakeStock{}, nil, ServiceConfig{}, nil)
	order := SalesOrder{Event: EventEdit, CustomerID: "C1", ShipAddressID: "77"}

	got, ok := svc.SourceDeliveryFlags(context.Background(), order)
	require.True(t, ok)
	assert.Equal(t, want, got)

	order.Event = EventDelete
	_, ok = svc.SourceDeliveryFlags(context.Background(), order)
	assert.False(t, ok)

	order.Event = EventCreate
	order.ShipAddressID = ""
	_, ok = svc.SourceDeliveryFlags(context.Background(), order)
	assert.False(t, ok)
}

func TestSourceDeliveryFlagsErrorsLeaveOrderAlone(t *testing.T) {
	order := SalesOrder{Event: EventCreate, CustomerID: "C1", ShipAddressID: "77"}
	for _, err := range []error{ErrAddressNotFound, errors.New("timeout")} {
		svc := NewService(&fakeRepo{flagsErr: err}, &fakeStock{}, nil, ServiceConfig{}, nil)
		_, ok := svc.SourceDeliveryFlags(context.Background(), order)
		assert.False(t, ok)
	}
}

func TestCheckDuplicatePOCustomerScope(t *testing.T) {
	repo := &fakeRepo{customerPOs: []PORecord{
		{ID: "900", TranID: "SO900", PONumber: "PO-1"},
		{ID: "901", TranID: "SO901", PONumber: " po-1 "},
	}}
	svc := NewService(repo, &fakeStock{}, nil, ServiceConfig{}, nil)

	check, err := svc.CheckDuplicatePO(context.Background(), SalesOrder{ID: "900", CustomerID: "C1", PONumber: "PO-1"})
	require.NoError(t, err)
	require.True(t, check.Duplicate)
	assert.Equal(t, "SO901", check.Existing.TranID)
	assert.Equal(t, "Duplicate PO Number for Customer", check.Alert.Title)
	assert.Equal(t, `The PO Number "PO-1" is already used on Sales Order SO901 for this customer.`, check.Alert.Message)

	check, err = svc.CheckDuplicatePO(context.Background(), SalesOrder{ID: "900", CustomerID: "C1", PONumber: "PO-2"})
	require.NoError(t, err)
	assert.False(t, check.Duplicate)

	check, err = svc.CheckDuplicatePO(context.Background(), SalesOrder{CustomerID: "C1", PONumber: "   "})
	require.NoError(t, err)
	assert.False(t, check.Duplicate)
}

func TestCheckDuplicatePOGlobalScope(t *testing.T) {
	repo := &fakeRepo{byPO: map[string]PORecord{"PO-9": {ID: "500", TranID: "SO500", PONumber: "PO-9"}}}
	svc := NewService(repo, &fakeStock{}, nil, ServiceConfig{POScope: POScopeGlobal}, nil)

	check, err := svc.CheckDuplicatePO(context.Background(), SalesOrder{ID: "1", PONumber: "PO-9"})
	require.NoError(t, err)
	require.True(t, check.Duplicate)
	assert.Equal(t, "Duplicate PO Number", check.Alert.Title)

	check, err = svc.CheckDuplicatePO(context.Background(), SalesOrder{ID: "500", PONumber: "PO-9"})
	require.NoError(t, err)
	assert.False(t, check.Duplicate)

	repo.searchErr = errors.New("search failed")
	_, err = svc.CheckDuplicatePO(context.Background(), SalesOrder{ID: "1", PONumber: "PO-9"})
	require.Error(t, err)
}

func TestShippingReminder(t *testing.T) {
	_, ok := ShippingReminder(false)
	assert.False(t, ok)

	alert, ok := ShippingReminder(true)
	require.True(t, ok)
	assert.Equal(t, "Recalculate Shipping", alert.Title)
}
