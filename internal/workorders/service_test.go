package workorders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabeeghrb/netsuite-rb/internal/binrank"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
)

type fakeRepo struct {
	bins      map[string][]binrank.Bin
	locations []string
	updated   map[string]binrank.Bin
	updateErr error
}

func (f *fakeRepo) PickingBins(ctx context.Context, itemID, locationID string) ([]binrank.Bin, error) {
	f.locations = append(f.locations, locationID)
	return f.bins[itemID], nil
}

func (f *fakeRepo) UpdateBin(ctx context.Context, workOrderID string, bin binrank.Bin) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = map[string]binrank.Bin{}
	}
	f.updated[workOrderID] = bin
	return nil
}

type fakeIdem struct {
	keys    map[string]bool
	deleted []string
}

func (f *fakeIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdem) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeAudit struct{ logs []shared.AuditLog }

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func pickBin(label string, seq float64, qty int64) binrank.Bin {
	return binrank.Bin{BinID: "b-" + label, Label: label, OnHand: decimal.NewFromInt(qty), Available: decimal.Zero, PickSequence: seq}
}

func workOrder() WorkOrder {
	return WorkOrder{ID: "WO1", Components: []Component{
		{ItemID: "ASM", ItemType: "Assembly"},
		{ItemID: "RAW", ItemType: "InvtPart"},
		{ItemID: "RAW2", ItemType: "InvtPart"},
	}}
}

func TestAssignBinWritesBestBin(t *testing.T) {
	repo := &fakeRepo{bins: map[string][]binrank.Bin{
		"RAW": {pickBin("B-2", 2, 50), pickBin("B-1", 1, 3), pickBin("B-0", binrank.NoSequence, 99)},
	}}
	audit := &fakeAudit{}
	svc := NewService(repo, nil, audit, "LINDEN", nil)

	res, err := svc.AssignBin(context.Background(), AssignRequest{InvocationID: "inv-1", WorkOrder: workOrder()})
	require.NoError(t, err)
	require.True(t, res.Assigned)
	assert.Equal(t, "RAW", res.ItemID)
	assert.Equal(t, "B-1", repo.updated["WO1"].Label)
	assert.Equal(t, []string{"LINDEN"}, repo.locations)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "assign_bin", audit.logs[0].Action)
}

func TestAssignBinNoComponent(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil, "", nil)

	res, err := svc.AssignBin(context.Background(), AssignRequest{WorkOrder: WorkOrder{
		ID:         "WO2",
		Components: []Component{{ItemID: "SVC", ItemType: "Service"}},
	}})
	require.NoError(t, err)
	assert.False(t, res.Assigned)
	assert.Equal(t, ReasonNoComponent, res.Reason)
	assert.Empty(t, repo.locations)
}

func TestAssignBinNoBinLeavesWorkOrder(t *testing.T) {
	repo := &fakeRepo{bins: map[string][]binrank.Bin{}}
	audit := &fakeAudit{}
	svc := NewService(repo, nil, audit, "", nil)

	res, err := svc.AssignBin(context.Background(), AssignRequest{WorkOrder: workOrder()})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoBin, res.Reason)
	assert.Empty(t, repo.updated)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "no_bin", audit.logs[0].Action)
}

func TestAssignBinSkipsDuplicateInvocation(t *testing.T) {
	repo := &fakeRepo{bins: map[string][]binrank.Bin{"RAW": {pickBin("A", 1, 1)}}}
	idem := &fakeIdem{keys: map[string]bool{}}
	svc := NewService(repo, idem, nil, "", nil)
	req := AssignRequest{InvocationID: "inv-9", WorkOrder: workOrder()}

	res, err := svc.AssignBin(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Assigned)

	res, err = svc.AssignBin(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ReasonDuplicate, res.Reason)
}

func TestAssignBinFailureReleasesKey(t *testing.T) {
	repo := &fakeRepo{
		bins:      map[string][]binrank.Bin{"RAW": {pickBin("A", 1, 1)}},
		updateErr: errors.New("db down"),
	}
	idem := &fakeIdem{keys: map[string]bool{}}
	svc := NewService(repo, idem, nil, "", nil)

	_, err := svc.AssignBin(context.Background(), AssignRequest{InvocationID: "inv-3", WorkOrder: workOrder()})
	require.Error(t, err)
	assert.Equal(t, []string{"wo-bin:inv-3"}, idem.deleted)
	assert.False(t, idem.keys["wo-bin:inv-3"])
}

func TestAssignBinRequiresID(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil, nil, "", nil)
	_, err := svc.AssignBin(context.Background(), AssignRequest{})
	require.Error(t, err)
}

func TestComponentIsInventory(t *testing.T) {
	assert.True(t, Component{ItemType: "InvtPart"}.IsInventory())
	assert.True(t, Component{ItemType: "Inventory Item"}.IsInventory())
	assert.True(t, Component{ItemType: "invpart"}.IsInventory())
	assert.False(t, Component{ItemType: "Assembly"}.IsInventory())
	assert.False(t, Component{}.IsInventory())
}
