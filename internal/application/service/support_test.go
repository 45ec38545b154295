package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/openfin/budget-approval/internal/application/dispatcher"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"github.com/openfin/budget-approval/internal/domain/event"
	"github.com/openfin/budget-approval/internal/domain/routing"
)

// In-memory fakes. They keep real state so multi-step workflow scenarios can
// run end to end, and they mirror the sqlite repositories' contract: GetByID
// returns (nil, nil) for a missing row, guarded updates return false instead
// of erroring.

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// memTxManager serializes transactions with a mutex and joins nested calls,
// the same way the sqlite TxManager joins a transaction already on the context.
type memTxManager struct {
	mu sync.Mutex
}

type memTxKey struct{}

func (m *memTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

type memLineRepo struct {
	mu    sync.Mutex
	seq   int64
	lines map[int64]*entity.BudgetLine
}

func newMemLineRepo() *memLineRepo {
	return &memLineRepo{lines: make(map[int64]*entity.BudgetLine)}
}

func (r *memLineRepo) Create(ctx context.Context, line *entity.BudgetLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	line.ID = r.seq
	clone := *line
	r.lines[line.ID] = &clone
	return nil
}

func (r *memLineRepo) GetByID(ctx context.Context, id int64) (*entity.BudgetLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[id]
	if !ok {
		return nil, nil
	}
	clone := *line
	return &clone, nil
}

func (r *memLineRepo) List(ctx context.Context, fiscalYear int) ([]*entity.BudgetLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.BudgetLine
	for _, line := range r.lines {
		if line.FiscalYear == fiscalYear {
			clone := *line
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memLineRepo) AdjustTotals(ctx context.Context, id, committedDeltaCents, actualDeltaCents, expectedCommittedCents int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[id]
	if !ok {
		return false, nil
	}
	if line.CommittedCents != expectedCommittedCents {
		return false, nil
	}
	newCommitted := line.CommittedCents + committedDeltaCents
	newActual := line.ActualCents + actualDeltaCents
	if newCommitted < 0 || newActual < 0 || newCommitted+newActual > line.ApprovedCents {
		return false, nil
	}
	line.CommittedCents = newCommitted
	line.ActualCents = newActual
	return true, nil
}

type memCommitmentRepo struct {
	mu          sync.Mutex
	seq         int64
	commitments map[int64]*entity.Commitment
}

func newMemCommitmentRepo() *memCommitmentRepo {
	return &memCommitmentRepo{commitments: make(map[int64]*entity.Commitment)}
}

func (r *memCommitmentRepo) Create(ctx context.Context, c *entity.Commitment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	clone := *c
	r.commitments[c.ID] = &clone
	return nil
}

func (r *memCommitmentRepo) GetByID(ctx context.Context, id int64) (*entity.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.commitments[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (r *memCommitmentRepo) GetActiveByRequestID(ctx context.Context, requestID int64) (*entity.Commitment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.commitments {
		if c.RequestID == requestID && c.Status == entity.CommitmentStatusActive {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memCommitmentRepo) UpdateStatus(ctx context.Context, id int64, status string, closedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.commitments[id]
	if !ok || c.Status != entity.CommitmentStatusActive {
		return fmt.Errorf("commitment %d is not active", id)
	}
	c.Status = status
	c.ClosedAt = &closedAt
	return nil
}

type memRequestRepo struct {
	mu       sync.Mutex
	seq      int64
	itemSeq  int64
	requests map[int64]*entity.Request
	items    map[int64][]*entity.RequestItem

	// beforeUpdate, when set, runs once inside UpdateState ahead of the
	// version check. Tests use it to land a competing write in the window
	// between a transition's read and its guarded write.
	beforeUpdate func()
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{
		requests: make(map[int64]*entity.Request),
		items:    make(map[int64][]*entity.RequestItem),
	}
}

func (r *memRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	req.ID = r.seq
	req.Version = 1
	clone := *req
	clone.Items = nil
	r.requests[req.ID] = &clone
	return nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (r *memRequestRepo) GetByNumber(ctx context.Context, number string) (*entity.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.Number == number {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memRequestRepo) List(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Request
	for _, req := range r.requests {
		if status == "" || req.Status == status {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memRequestRepo) UpdateState(ctx context.Context, req *entity.Request, fromVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook()
	}
	stored, ok := r.requests[req.ID]
	if !ok || stored.Version != fromVersion {
		return false, nil
	}
	clone := *req
	clone.Items = nil
	clone.Version = fromVersion + 1
	r.requests[req.ID] = &clone
	req.Version = fromVersion + 1
	return true, nil
}

func (r *memRequestRepo) CreateItem(ctx context.Context, item *entity.RequestItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.itemSeq++
	item.ID = r.itemSeq
	clone := *item
	r.items[item.RequestID] = append(r.items[item.RequestID], &clone)
	return nil
}

func (r *memRequestRepo) GetItems(ctx context.Context, requestID int64) ([]*entity.RequestItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RequestItem
	for _, item := range r.items[requestID] {
		clone := *item
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memRequestRepo) ReplaceItems(ctx context.Context, requestID int64, items []*entity.RequestItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	replacement := make([]*entity.RequestItem, 0, len(items))
	for _, item := range items {
		r.itemSeq++
		item.ID = r.itemSeq
		clone := *item
		replacement = append(replacement, &clone)
	}
	r.items[requestID] = replacement
	return nil
}

type memAuditRepo struct {
	mu     sync.Mutex
	seq    int64
	events []*entity.ApprovalEvent
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (r *memAuditRepo) Append(ctx context.Context, evt *entity.ApprovalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	evt.ID = r.seq
	clone := *evt
	r.events = append(r.events, &clone)
	return nil
}

func (r *memAuditRepo) ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ApprovalEvent
	for _, evt := range r.events {
		if evt.RequestID == requestID {
			clone := *evt
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMemSequenceRepo() *memSequenceRepo {
	return &memSequenceRepo{counters: make(map[string]int64)}
}

func (r *memSequenceRepo) Next(ctx context.Context, kind string, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s-%d", kind, year)
	r.counters[key]++
	return r.counters[key], nil
}

type memNotificationRepo struct {
	mu      sync.Mutex
	seq     int64
	records []*entity.NotificationRecord
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{}
}

func (r *memNotificationRepo) Create(ctx context.Context, rec *entity.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rec.ID = r.seq
	clone := *rec
	r.records = append(r.records, &clone)
	return nil
}

func (r *memNotificationRepo) ListPending(ctx context.Context, limit int) ([]*entity.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.NotificationRecord
	for _, rec := range r.records {
		if rec.Status == entity.NotificationStatusPending {
			clone := *rec
			out = append(out, &clone)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memNotificationRepo) MarkSent(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Status = entity.NotificationStatusSent
			now := time.Now()
			rec.SentAt = &now
			return nil
		}
	}
	return fmt.Errorf("notification %d not found", id)
}

func (r *memNotificationRepo) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Status = entity.NotificationStatusFailed
			rec.ErrorMessage = errorMsg
			return nil
		}
	}
	return fmt.Errorf("notification %d not found", id)
}

// recordingBus captures dispatched events synchronously so tests can assert
// on them without racing the real async dispatcher.
type recordingBus struct {
	mu     sync.Mutex
	events []*event.Event
}

func (b *recordingBus) Subscribe(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (b *recordingBus) Dispatch(ctx context.Context, evt *event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) DispatchAsync(ctx context.Context, evt *event.Event) {
	_ = b.Dispatch(ctx, evt)
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) byType(t event.Type) []*event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*event.Event
	for _, evt := range b.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

// fixture wires the full service stack over the in-memory fakes with a
// 5000.00 planning threshold.
type fixture struct {
	lineRepo         *memLineRepo
	commitmentRepo   *memCommitmentRepo
	requestRepo      *memRequestRepo
	auditRepo        *memAuditRepo
	sequenceRepo     *memSequenceRepo
	notificationRepo *memNotificationRepo
	bus              *recordingBus

	ledger   LedgerService
	workflow WorkflowService
}

const testThresholdCents = 500000

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		lineRepo:         newMemLineRepo(),
		commitmentRepo:   newMemCommitmentRepo(),
		requestRepo:      newMemRequestRepo(),
		auditRepo:        newMemAuditRepo(),
		sequenceRepo:     newMemSequenceRepo(),
		notificationRepo: newMemNotificationRepo(),
		bus:              &recordingBus{},
	}

	txManager := &memTxManager{}
	logger := nopLogger{}

	f.ledger = NewLedgerService(f.lineRepo, f.commitmentRepo, txManager, logger)

	router, err := routing.NewRouter(routing.DefaultRules(testThresholdCents))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	f.workflow = NewWorkflowService(
		f.requestRepo,
		f.commitmentRepo,
		f.auditRepo,
		f.sequenceRepo,
		f.ledger,
		router,
		txManager,
		f.bus,
		logger,
	)
	return f
}

func (f *fixture) addLine(approvedCents int64) *entity.BudgetLine {
	line := &entity.BudgetLine{
		CostCentre:    "CC-100",
		FiscalYear:    2026,
		AccountCode:   "6010",
		Description:   "Operations",
		ApprovedCents: approvedCents,
		Active:        true,
	}
	_ = f.lineRepo.Create(context.Background(), line)
	return line
}

func (f *fixture) line(id int64) *entity.BudgetLine {
	line, _ := f.lineRepo.GetByID(context.Background(), id)
	return line
}
