package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/your-org/forms-backend/internal/domain/challan"
	"github.com/your-org/forms-backend/internal/domain/inventory"
	"github.com/your-org/forms-backend/internal/domain/lifecycle"
	"github.com/your-org/forms-backend/internal/domain/quality"
	"github.com/your-org/forms-backend/internal/domain/sequence"
	"github.com/your-org/forms-backend/internal/domain/supervisor"
	"github.com/your-org/forms-backend/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []lifecycle.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e lifecycle.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc    *lifecycle.Service
	ledger *inventory.Service
	store  *memory.Store
	events *recordingPublisher
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, store lifecycle.Store, mem *memory.Store) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	numbers := sequence.NewService(mem, sequence.Config{MaxRetries: 3}, nil).WithClock(clock)
	ledger := inventory.NewService(mem, nil)
	events := &recordingPublisher{}
	svc := lifecycle.NewService(numbers, ledger, store, events, nil).WithClock(clock)
	return &fixture{svc: svc, ledger: ledger, store: mem, events: events}
}

func setup(t *testing.T) *fixture {
	mem := memory.New()
	return newFixture(t, mem, mem)
}

func TestAllocateNumber(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, want := range []string{"ORD-2024-0001", "ORD-2024-0002"} {
		got, err := f.svc.AllocateNumber(ctx, sequence.PrefixOrder)
		if err != nil || got != want {
			t.Fatalf("AllocateNumber() = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := f.svc.AllocateNumber(ctx, "BAD"); !errors.Is(err, sequence.ErrInvalidPrefix) {
		t.Fatalf("err = %v", err)
	}
}

func TestChallanLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in, err := f.svc.CreateChallan(ctx, &lifecycle.CreateChallanRequest{
		Direction: inventory.DirectionInward,
		Location:  "Main Store",
		Items:     []lifecycle.ChallanItemRequest{{ProductID: 1, Quantity: 20}},
	}, 5)
	if err != nil {
		t.Fatalf("CreateChallan() error = %v", err)
	}
	if in.Number != "INW-2024-0001" || in.Status != inventory.DocumentDraft {
		t.Fatalf("unexpected challan %s %s", in.Number, in.Status)
	}

	res, err := f.svc.CompleteChallan(ctx, in.ID, 5)
	if err != nil {
		t.Fatalf("CompleteChallan() error = %v", err)
	}
	if res.AlreadyApplied || res.Challan.Status != inventory.DocumentCompleted {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = f.svc.CompleteChallan(ctx, in.ID, 5)
	if err != nil {
		t.Fatalf("second CompleteChallan() error = %v", err)
	}
	if !res.AlreadyApplied {
		t.Fatal("second completion should report AlreadyApplied")
	}

	rec, err := f.ledger.GetStock(ctx, 1, "Main Store")
	if err != nil || rec.Quantity != 20 {
		t.Fatalf("stock = %+v, %v; want 20", rec, err)
	}

	out, err := f.svc.CreateChallan(ctx, &lifecycle.CreateChallanRequest{
		Direction: inventory.DirectionOutward,
		Location:  "Main Store",
		Items:     []lifecycle.ChallanItemRequest{{ProductID: 1, Quantity: 25}},
	}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if out.Number != "OUT-2024-0001" {
		t.Fatalf("number = %s", out.Number)
	}
	if _, err := f.svc.CompleteChallan(ctx, out.ID, 5); !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	stored, _ := f.svc.GetChallan(ctx, out.ID)
	if stored.Status != inventory.DocumentDraft {
		t.Fatalf("status = %s, want Draft", stored.Status)
	}

	cancelled, err := f.svc.CancelChallan(ctx, out.ID, 5)
	if err != nil {
		t.Fatalf("CancelChallan() error = %v", err)
	}
	if cancelled.Status != inventory.DocumentCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled challan %+v", cancelled)
	}
	if _, err := f.svc.CompleteChallan(ctx, out.ID, 5); !errors.Is(err, inventory.ErrDocumentCancelled) {
		t.Fatalf("err = %v, want ErrDocumentCancelled", err)
	}
	if _, err := f.svc.CancelChallan(ctx, in.ID, 5); !errors.Is(err, challan.ErrInvalidTransition) {
		t.Fatalf("cancel completed: err = %v, want ErrInvalidTransition", err)
	}

	got := f.events.types()
	want := []string{lifecycle.EventChallanCompleted, lifecycle.EventChallanCancelled}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestCreateChallanValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  lifecycle.CreateChallanRequest
		want error
	}{
		{"bad direction", lifecycle.CreateChallanRequest{Direction: "Up", Location: "L", Items: []lifecycle.ChallanItemRequest{{ProductID: 1, Quantity: 1}}}, inventory.ErrInvalidDirection},
		{"blank location", lifecycle.CreateChallanRequest{Direction: inventory.DirectionInward, Location: " ", Items: []lifecycle.ChallanItemRequest{{ProductID: 1, Quantity: 1}}}, inventory.ErrInvalidLocation},
		{"no items", lifecycle.CreateChallanRequest{Direction: inventory.DirectionInward, Location: "L"}, inventory.ErrEmptyDocument},
		{"zero quantity", lifecycle.CreateChallanRequest{Direction: inventory.DirectionInward, Location: "L", Items: []lifecycle.ChallanItemRequest{{ProductID: 1}}}, inventory.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateChallan(ctx, &tt.req, 1); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	// rejected requests must not consume numbers
	if got := f.store.Counter(sequence.Key{Prefix: sequence.PrefixInward, Year: 2024}); got != 0 {
		t.Fatalf("counter = %d, want 0", got)
	}
}

func TestQualityCheckFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	qc, err := f.svc.CreateQualityCheck(ctx, &lifecycle.CreateQualityCheckRequest{
		OrderNumber: "ORD-2024-0001",
		Items: []lifecycle.QualityItemRequest{
			{Parameter: "Thickness"},
			{Parameter: "Finish"},
		},
	}, 1)
	if err != nil {
		t.Fatalf("CreateQualityCheck() error = %v", err)
	}
	if qc.Number != "QC-2024-0001" {
		t.Fatalf("number = %s", qc.Number)
	}
	if qc.OverallStatus != quality.StatusInProgress {
		t.Fatalf("initial status = %s", qc.OverallStatus)
	}

	updated, err := f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{
			{ItemID: qc.Items[0].ID, Status: quality.StatusPassed},
			{ItemID: qc.Items[1].ID, Status: quality.StatusPartial},
		},
	}, 1)
	if err != nil {
		t.Fatalf("UpdateQualityItems() error = %v", err)
	}
	if updated.OverallStatus != quality.StatusPartial {
		t.Fatalf("status = %s, want Partial", updated.OverallStatus)
	}

	observed := "1.02mm"
	updated, err = f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{{ItemID: qc.Items[1].ID, Status: quality.StatusFailed, Observed: &observed}},
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if updated.OverallStatus != quality.StatusFailed {
		t.Fatalf("status = %s, want Failed", updated.OverallStatus)
	}
	if updated.Items[1].Observed != observed {
		t.Fatalf("observed = %q", updated.Items[1].Observed)
	}

	stored, _ := f.svc.GetQualityCheck(ctx, qc.ID)
	if stored.OverallStatus != quality.StatusFailed || stored.Version != 3 {
		t.Fatalf("stored status %s version %d", stored.OverallStatus, stored.Version)
	}
	if n := len(f.events.types()); n != 2 {
		t.Fatalf("events = %d, want 2", n)
	}
}

func TestUpdateQualityItemsErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	qc, err := f.svc.CreateQualityCheck(ctx, &lifecycle.CreateQualityCheckRequest{
		Items: []lifecycle.QualityItemRequest{{Parameter: "Weight"}},
	}, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{{ItemID: qc.Items[0].ID, Status: "Great"}},
	}, 1); !errors.Is(err, quality.ErrInvalidStatus) {
		t.Fatalf("invalid status: err = %v", err)
	}
	if _, err := f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{{ItemID: 999, Status: quality.StatusPassed}},
	}, 1); !errors.Is(err, quality.ErrItemNotFound) {
		t.Fatalf("unknown item: err = %v", err)
	}
	if _, err := f.svc.UpdateQualityItems(ctx, 999, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{{ItemID: 1, Status: quality.StatusPassed}},
	}, 1); !errors.Is(err, quality.ErrNotFound) {
		t.Fatalf("unknown check: err = %v", err)
	}

	stale := 7
	if _, err := f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Version: &stale,
		Items:   []lifecycle.QualityItemUpdate{{ItemID: qc.Items[0].ID, Status: quality.StatusPassed}},
	}, 1); !errors.Is(err, lifecycle.ErrVersionConflict) {
		t.Fatalf("stale version: err = %v", err)
	}
}

// racyStore lets another writer bump a check just before each save
type racyStore struct {
	*memory.Store
	races int
}

func (r *racyStore) SaveQualityCheck(ctx context.Context, qc *quality.QualityCheck) error {
	if r.races > 0 {
		r.races--
		other, err := r.Store.GetQualityCheck(ctx, qc.ID)
		if err != nil {
			return err
		}
		other.Notes = "edited elsewhere"
		if err := r.Store.SaveQualityCheck(ctx, other); err != nil {
			return err
		}
	}
	return r.Store.SaveQualityCheck(ctx, qc)
}

func TestUpdateQualityItemsRetriesOnConflict(t *testing.T) {
	mem := memory.New()
	racy := &racyStore{Store: mem}
	f := newFixture(t, racy, mem)
	ctx := context.Background()

	qc, err := f.svc.CreateQualityCheck(ctx, &lifecycle.CreateQualityCheckRequest{
		Items: []lifecycle.QualityItemRequest{{Parameter: "Weight"}},
	}, 1)
	if err != nil {
		t.Fatal(err)
	}

	racy.races = 2
	updated, err := f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{{ItemID: qc.Items[0].ID, Status: quality.StatusPassed}},
	}, 1)
	if err != nil {
		t.Fatalf("UpdateQualityItems() error = %v", err)
	}
	if updated.OverallStatus != quality.StatusPassed || updated.Notes != "edited elsewhere" {
		t.Fatalf("unexpected result %+v", updated)
	}

	racy.races = 10
	if _, err := f.svc.UpdateQualityItems(ctx, qc.ID, &lifecycle.UpdateQualityItemsRequest{
		Items: []lifecycle.QualityItemUpdate{{ItemID: qc.Items[0].ID, Status: quality.StatusFailed}},
	}, 1); !errors.Is(err, lifecycle.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestSupervisorCheckFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sc, err := f.svc.CreateSupervisorCheck(ctx, &lifecycle.CreateSupervisorCheckRequest{
		OrderNumber: "ORD-2024-0009",
		Dimensions: []lifecycle.DimensionRequest{
			{Dimension: "Length", Expected: "100mm"},
			{Dimension: "Width", Expected: "40mm"},
		},
	}, 2)
	if err != nil {
		t.Fatalf("CreateSupervisorCheck() error = %v", err)
	}
	if sc.Number != "CHK-2024-0001" || sc.OverallStatus != supervisor.OverallInProgress {
		t.Fatalf("unexpected check %s %s", sc.Number, sc.OverallStatus)
	}

	pass := supervisor.CheckPass
	updated, err := f.svc.UpdateSupervisorCheck(ctx, sc.ID, &lifecycle.UpdateSupervisorCheckRequest{
		Dimensions: []lifecycle.DimensionUpdate{
			{DimensionID: sc.Dimensions[0].ID, Status: supervisor.CheckPass},
			{DimensionID: sc.Dimensions[1].ID, Status: supervisor.CheckPass},
		},
		MaterialCheck: &pass,
	}, 2)
	if err != nil {
		t.Fatalf("UpdateSupervisorCheck() error = %v", err)
	}
	// visual inspection is still pending: no rule matches and the prior status stays
	if updated.OverallStatus != supervisor.OverallInProgress {
		t.Fatalf("status = %s, want In Progress kept", updated.OverallStatus)
	}

	updated, err = f.svc.UpdateSupervisorCheck(ctx, sc.ID, &lifecycle.UpdateSupervisorCheckRequest{
		VisualInspection: &pass,
	}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if updated.OverallStatus != supervisor.OverallPassed {
		t.Fatalf("status = %s, want Passed", updated.OverallStatus)
	}

	updated, err = f.svc.UpdateSupervisorCheck(ctx, sc.ID, &lifecycle.UpdateSupervisorCheckRequest{
		Dimensions: []lifecycle.DimensionUpdate{{DimensionID: sc.Dimensions[1].ID, Status: supervisor.CheckFail}},
	}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if updated.OverallStatus != supervisor.OverallFailed {
		t.Fatalf("status = %s, want Failed", updated.OverallStatus)
	}

	bad := supervisor.CheckStatus("Maybe")
	if _, err := f.svc.UpdateSupervisorCheck(ctx, sc.ID, &lifecycle.UpdateSupervisorCheckRequest{MaterialCheck: &bad}, 2); !errors.Is(err, supervisor.ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
	if _, err := f.svc.UpdateSupervisorCheck(ctx, sc.ID, &lifecycle.UpdateSupervisorCheckRequest{
		Dimensions: []lifecycle.DimensionUpdate{{DimensionID: 404, Status: supervisor.CheckPass}},
	}, 2); !errors.Is(err, supervisor.ErrDimensionNotFound) {
		t.Fatalf("err = %v, want ErrDimensionNotFound", err)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := setup(t)
	f.events.err = errors.New("broker down")
	ctx := context.Background()

	c, err := f.svc.CreateChallan(ctx, &lifecycle.CreateChallanRequest{
		Direction: inventory.DirectionInward,
		Location:  "Yard",
		Items:     []lifecycle.ChallanItemRequest{{ProductID: 3, Quantity: 1}},
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CompleteChallan(ctx, c.ID, 1); err != nil {
		t.Fatalf("CompleteChallan() error = %v", err)
	}
}
