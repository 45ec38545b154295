package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openfin/budget-approval/internal/application/dispatcher"
	"github.com/openfin/budget-approval/internal/application/port"
	"github.com/openfin/budget-approval/internal/domain/entity"
	"github.com/openfin/budget-approval/internal/domain/event"
	"github.com/openfin/budget-approval/internal/domain/routing"
	"github.com/openfin/budget-approval/internal/domain/workflow"
)

// DraftInput creates a new draft request.
type DraftInput struct {
	RequesterID   string
	LineID        int64
	Title         string
	Justification string
	Items         []DraftItem
}

// DraftItem is one line item of a draft.
type DraftItem struct {
	Description string
	AmountCents int64
}

// Corrections are applied on resubmission after a query. Nil slices / empty
// strings leave the corresponding field untouched.
type Corrections struct {
	Title         string
	Justification string
	Items         []DraftItem
}

// WorkflowService orchestrates the request lifecycle. Every mutation runs in
// one transaction with an optimistic version check, appends to the audit log,
// and emits event descriptors after the transaction commits.
type WorkflowService interface {
	CreateDraft(ctx context.Context, input DraftInput) (*entity.Request, error)
	Get(ctx context.Context, requestID int64) (*entity.Request, error)
	GetByNumber(ctx context.Context, number string) (*entity.Request, error)
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error)

	Submit(ctx context.Context, requestID int64) (*entity.Request, error)
	Approve(ctx context.Context, requestID int64, actorID, role string) (*entity.Request, error)
	Query(ctx context.Context, requestID int64, actorID, role, reason string) (*entity.Request, error)
	Deny(ctx context.Context, requestID int64, actorID, role, reason string) (*entity.Request, error)
	Resubmit(ctx context.Context, requestID int64, corrections Corrections) (*entity.Request, error)
	BeginPayment(ctx context.Context, requestID int64) (*entity.Request, error)
	CompletePayment(ctx context.Context, requestID int64, paymentRef string) (*entity.Request, error)
	Cancel(ctx context.Context, requestID int64, actorID string) (*entity.Request, error)
}

type workflowService struct {
	requestRepo    port.RequestRepository
	commitmentRepo port.CommitmentRepository
	auditRepo      port.AuditRepository
	sequenceRepo   port.SequenceRepository
	ledger         LedgerService
	router         *routing.Router
	machine        *workflow.Machine
	txManager      port.TransactionManager
	bus            dispatcher.Dispatcher
	logger         Logger
	requestKind    string
	now            func() time.Time
}

// WorkflowOption configures the workflow service
type WorkflowOption func(*workflowService)

// WithRequestKind overrides the request number prefix (KIND-YEAR-NNNNNN)
func WithRequestKind(kind string) WorkflowOption {
	return func(s *workflowService) {
		if kind != "" {
			s.requestKind = kind
		}
	}
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	requestRepo port.RequestRepository,
	commitmentRepo port.CommitmentRepository,
	auditRepo port.AuditRepository,
	sequenceRepo port.SequenceRepository,
	ledger LedgerService,
	router *routing.Router,
	txManager port.TransactionManager,
	bus dispatcher.Dispatcher,
	logger Logger,
	opts ...WorkflowOption,
) WorkflowService {
	s := &workflowService{
		requestRepo:    requestRepo,
		commitmentRepo: commitmentRepo,
		auditRepo:      auditRepo,
		sequenceRepo:   sequenceRepo,
		ledger:         ledger,
		router:         router,
		machine:        workflow.NewMachine(),
		txManager:      txManager,
		bus:            bus,
		logger:         logger,
		requestKind:    entity.DefaultRequestKind,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *workflowService) CreateDraft(ctx context.Context, input DraftInput) (*entity.Request, error) {
	if strings.TrimSpace(input.RequesterID) == "" {
		return nil, &ValidationError{Field: "requester_id", Message: "required"}
	}
	if input.LineID <= 0 {
		return nil, &ValidationError{Field: "line_id", Message: "required"}
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "required"}
	}
	for i, item := range input.Items {
		if item.AmountCents <= 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("items[%d].amount", i), Message: "must be positive"}
		}
	}

	req := &entity.Request{
		RequesterID:         input.RequesterID,
		LineID:              input.LineID,
		Title:               input.Title,
		Justification:       input.Justification,
		Status:              entity.StatusDraft,
		CurrentApproverRole: entity.RoleRequester,
		CreatedAt:           s.now(),
		UpdatedAt:           s.now(),
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		for _, item := range input.Items {
			it := &entity.RequestItem{
				RequestID:   req.ID,
				Description: item.Description,
				AmountCents: item.AmountCents,
				CreatedAt:   s.now(),
			}
			if err := s.requestRepo.CreateItem(txCtx, it); err != nil {
				return fmt.Errorf("create item: %w", err)
			}
			req.Items = append(req.Items, it)
		}
		return s.audit(txCtx, req, input.RequesterID, entity.RoleRequester, entity.ActionCreated, "", "")
	})
	if err != nil {
		s.logger.Error("Failed to create draft", "error", err)
		return nil, err
	}

	s.logger.Info("Draft created", "request_id", req.ID, "requester", input.RequesterID)
	return req, nil
}

func (s *workflowService) Get(ctx context.Context, requestID int64) (*entity.Request, error) {
	return s.load(ctx, requestID)
}

func (s *workflowService) GetByNumber(ctx context.Context, number string) (*entity.Request, error) {
	req, err := s.requestRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: number %s", ErrRequestNotFound, number)
	}
	items, err := s.requestRepo.GetItems(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	req.Items = items
	return req, nil
}

func (s *workflowService) List(ctx context.Context, status string, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.List(ctx, status, limit, offset)
}

func (s *workflowService) Submit(ctx context.Context, requestID int64) (*entity.Request, error) {
	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		if len(req.Items) == 0 {
			return &ValidationError{Field: "items", Message: "at least one line item is required"}
		}
		if strings.TrimSpace(req.Justification) == "" {
			return &ValidationError{Field: "justification", Message: "required"}
		}

		current := workflow.State(req.Status)
		total := req.TotalItemCents()
		hop, err := s.router.NextHop(total, workflow.StateSubmitted)
		if err != nil {
			return err
		}
		if err := s.machine.Step(current, workflow.TriggerSubmit, hop.NextState); err != nil {
			return err
		}

		number, err := s.assignNumber(txCtx, req)
		if err != nil {
			return err
		}

		now := s.now()
		req.Number = number
		req.TotalCents = total
		req.Status = string(hop.NextState)
		req.CurrentApproverRole = hop.Role
		req.SubmittedAt = &now

		if err := s.audit(txCtx, req, req.RequesterID, entity.RoleRequester, entity.ActionSubmitted, "", string(current)); err != nil {
			return err
		}

		evts = append(evts, event.New(event.TypeRequestSubmitted, req.ID, req.Number).
			ForRole(hop.Role).
			WithAmount(total).
			WithTitle(req.Title))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Request submitted", "request_id", req.ID, "number", req.Number, "approver_role", req.CurrentApproverRole)
	return req, nil
}

func (s *workflowService) Approve(ctx context.Context, requestID int64, actorID, role string) (*entity.Request, error) {
	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		if err := s.requireApprover(req, workflow.TriggerApprove, role); err != nil {
			return err
		}

		current := workflow.State(req.Status)
		hop, err := s.router.NextHop(req.TotalCents, current)
		if err != nil {
			return err
		}
		if err := s.machine.Step(current, workflow.TriggerApprove, hop.NextState); err != nil {
			return err
		}

		if hop.Terminal() {
			// Reservation gates the terminal approval. An InsufficientFunds
			// failure rolls the whole transaction back and the request stays
			// in its prior pending state.
			if _, err := s.ledger.Reserve(txCtx, req.LineID, req.ID, req.TotalCents); err != nil {
				return err
			}
			if err := s.machine.Step(workflow.StateApproved, workflow.TriggerAdvance, workflow.StatePendingPayment); err != nil {
				return err
			}
			now := s.now()
			req.Status = entity.StatusPendingPayment
			req.ApprovedAt = &now
			req.CurrentApproverRole = hop.Role

			evts = append(evts,
				event.New(event.TypeRequestApproved, req.ID, req.Number).
					ForUser(req.RequesterID).
					WithAmount(req.TotalCents).
					WithTitle(req.Title),
				event.New(event.TypeApprovalRequested, req.ID, req.Number).
					ForRole(hop.Role).
					WithAmount(req.TotalCents).
					WithTitle(req.Title))
		} else {
			req.Status = string(hop.NextState)
			req.CurrentApproverRole = hop.Role

			evts = append(evts, event.New(event.TypeApprovalRequested, req.ID, req.Number).
				ForRole(hop.Role).
				WithAmount(req.TotalCents).
				WithTitle(req.Title))
		}

		return s.audit(txCtx, req, actorID, role, entity.ActionApproved, "", string(current))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Request approved", "request_id", req.ID, "by_role", role, "new_status", req.Status)
	return req, nil
}

func (s *workflowService) Query(ctx context.Context, requestID int64, actorID, role, reason string) (*entity.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Message: "required"}
	}

	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		if err := s.requireApprover(req, workflow.TriggerQuery, role); err != nil {
			return err
		}

		current := workflow.State(req.Status)
		if err := s.machine.Step(current, workflow.TriggerQuery, workflow.StateQueried); err != nil {
			return err
		}

		req.Status = entity.StatusQueried
		req.CurrentApproverRole = entity.RoleRequester

		evts = append(evts, event.New(event.TypeRequestQueried, req.ID, req.Number).
			ForUser(req.RequesterID).
			WithTitle(req.Title).
			WithComment(reason))

		return s.audit(txCtx, req, actorID, role, entity.ActionQueried, reason, string(current))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Request queried", "request_id", req.ID, "by_role", role)
	return req, nil
}

func (s *workflowService) Deny(ctx context.Context, requestID int64, actorID, role, reason string) (*entity.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Field: "reason", Message: "required"}
	}

	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		if err := s.requireApprover(req, workflow.TriggerDeny, role); err != nil {
			return err
		}

		current := workflow.State(req.Status)
		if err := s.machine.Step(current, workflow.TriggerDeny, workflow.StateDenied); err != nil {
			return err
		}

		// A commitment should not exist before terminal approval, but if one
		// does the funds must come back.
		if err := s.releaseActiveCommitment(txCtx, req.ID); err != nil {
			return err
		}

		req.Status = entity.StatusDenied
		req.CurrentApproverRole = ""

		evts = append(evts, event.New(event.TypeRequestDenied, req.ID, req.Number).
			ForUser(req.RequesterID).
			WithTitle(req.Title).
			WithComment(reason))

		return s.audit(txCtx, req, actorID, role, entity.ActionDenied, reason, string(current))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Request denied", "request_id", req.ID, "by_role", role)
	return req, nil
}

func (s *workflowService) Resubmit(ctx context.Context, requestID int64, corrections Corrections) (*entity.Request, error) {
	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		current := workflow.State(req.Status)
		if current != workflow.StateQueried {
			return s.machine.Step(current, workflow.TriggerResubmit, workflow.StatePendingManager)
		}

		if corrections.Title != "" {
			req.Title = corrections.Title
		}
		if corrections.Justification != "" {
			req.Justification = corrections.Justification
		}
		if corrections.Items != nil {
			items := make([]*entity.RequestItem, 0, len(corrections.Items))
			for i, item := range corrections.Items {
				if item.AmountCents <= 0 {
					return &ValidationError{Field: fmt.Sprintf("items[%d].amount", i), Message: "must be positive"}
				}
				items = append(items, &entity.RequestItem{
					RequestID:   req.ID,
					Description: item.Description,
					AmountCents: item.AmountCents,
					CreatedAt:   s.now(),
				})
			}
			if err := s.requestRepo.ReplaceItems(txCtx, req.ID, items); err != nil {
				return fmt.Errorf("replace items: %w", err)
			}
			req.Items = items
		}

		if len(req.Items) == 0 {
			return &ValidationError{Field: "items", Message: "at least one line item is required"}
		}
		if strings.TrimSpace(req.Justification) == "" {
			return &ValidationError{Field: "justification", Message: "required"}
		}

		// Routing restarts from the first stage, not from the stage that
		// raised the query.
		total := req.TotalItemCents()
		hop, err := s.router.NextHop(total, workflow.StateSubmitted)
		if err != nil {
			return err
		}
		if err := s.machine.Step(current, workflow.TriggerResubmit, hop.NextState); err != nil {
			return err
		}

		req.TotalCents = total
		req.Status = string(hop.NextState)
		req.CurrentApproverRole = hop.Role

		evts = append(evts, event.New(event.TypeRequestResubmitted, req.ID, req.Number).
			ForRole(hop.Role).
			WithAmount(total).
			WithTitle(req.Title))

		return s.audit(txCtx, req, req.RequesterID, entity.RoleRequester, entity.ActionResubmitted, "", string(current))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Request resubmitted", "request_id", req.ID, "approver_role", req.CurrentApproverRole)
	return req, nil
}

func (s *workflowService) BeginPayment(ctx context.Context, requestID int64) (*entity.Request, error) {
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		current := workflow.State(req.Status)
		if err := s.machine.Step(current, workflow.TriggerBeginPayment, workflow.StateProcessingPayment); err != nil {
			return err
		}

		// Funds were committed at approval time; this is bookkeeping only.
		req.Status = entity.StatusProcessingPayment

		return s.audit(txCtx, req, "", entity.RoleFinance, entity.ActionPaymentStarted, "", string(current))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment started", "request_id", req.ID)
	return req, nil
}

func (s *workflowService) CompletePayment(ctx context.Context, requestID int64, paymentRef string) (*entity.Request, error) {
	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		current := workflow.State(req.Status)
		if err := s.machine.Step(current, workflow.TriggerCompletePayment, workflow.StatePaid); err != nil {
			return err
		}

		commitment, err := s.commitmentRepo.GetActiveByRequestID(txCtx, req.ID)
		if err != nil {
			return fmt.Errorf("get commitment: %w", err)
		}
		if commitment == nil {
			return fmt.Errorf("%w: no active commitment for request %d", ErrCommitmentNotFound, req.ID)
		}
		if err := s.ledger.MarkPaid(txCtx, commitment.ID); err != nil {
			return err
		}

		now := s.now()
		req.Status = entity.StatusPaid
		req.CurrentApproverRole = ""
		req.PaidAt = &now

		evts = append(evts, event.New(event.TypeRequestPaid, req.ID, req.Number).
			ForUser(req.RequesterID).
			WithAmount(req.TotalCents).
			WithTitle(req.Title).
			WithComment(paymentRef))

		return s.audit(txCtx, req, "", entity.RoleFinance, entity.ActionPaid, paymentRef, string(current))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Payment completed", "request_id", req.ID, "payment_ref", paymentRef)
	return req, nil
}

func (s *workflowService) Cancel(ctx context.Context, requestID int64, actorID string) (*entity.Request, error) {
	var evts []*event.Event
	req, err := s.transition(ctx, requestID, func(txCtx context.Context, req *entity.Request) error {
		current := workflow.State(req.Status)
		if err := s.machine.Step(current, workflow.TriggerCancel, workflow.StateCancelled); err != nil {
			return err
		}

		if err := s.releaseActiveCommitment(txCtx, req.ID); err != nil {
			return err
		}

		req.Status = entity.StatusCancelled
		req.CurrentApproverRole = ""

		evts = append(evts, event.New(event.TypeRequestCancelled, req.ID, req.Number).
			ForUser(req.RequesterID).
			WithTitle(req.Title))

		return s.audit(txCtx, req, actorID, entity.RoleRequester, entity.ActionCancelled, "", string(current))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, evts)
	s.logger.Info("Request cancelled", "request_id", req.ID)
	return req, nil
}

// transition loads the request, applies fn inside one transaction and persists
// the new state with an optimistic version check.
func (s *workflowService) transition(ctx context.Context, requestID int64, fn func(txCtx context.Context, req *entity.Request) error) (*entity.Request, error) {
	var req *entity.Request
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.load(txCtx, requestID)
		if err != nil {
			return err
		}
		fromVersion := req.Version

		if err := fn(txCtx, req); err != nil {
			return err
		}

		req.UpdatedAt = s.now()
		ok, err := s.requestRepo.UpdateState(txCtx, req, fromVersion)
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: request %d was modified concurrently", ErrConcurrencyConflict, requestID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Transition failed", "request_id", requestID, "error", err)
		return nil, err
	}
	return req, nil
}

func (s *workflowService) load(ctx context.Context, requestID int64) (*entity.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: id %d", ErrRequestNotFound, requestID)
	}
	items, err := s.requestRepo.GetItems(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	req.Items = items
	return req, nil
}

// requireApprover checks that the request is pending and the acting role is
// the one the router assigned. The role string is trusted as supplied by the
// identity resolver.
func (s *workflowService) requireApprover(req *entity.Request, trigger workflow.Trigger, role string) error {
	current := workflow.State(req.Status)
	if !current.IsPendingApproval() {
		return &workflow.TransitionError{From: current, Trigger: trigger, Allowed: s.machine.PermittedTriggers(current)}
	}
	if req.CurrentApproverRole != role {
		return &ValidationError{
			Field:   "role",
			Message: fmt.Sprintf("%s is not the current approver (expected %s)", role, req.CurrentApproverRole),
		}
	}
	return nil
}

func (s *workflowService) assignNumber(ctx context.Context, req *entity.Request) (string, error) {
	if req.Number != "" {
		return req.Number, nil
	}
	year := s.now().Year()
	n, err := s.sequenceRepo.Next(ctx, s.requestKind, year)
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}
	return fmt.Sprintf("%s-%d-%06d", s.requestKind, year, n), nil
}

func (s *workflowService) releaseActiveCommitment(ctx context.Context, requestID int64) error {
	commitment, err := s.commitmentRepo.GetActiveByRequestID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get commitment: %w", err)
	}
	if commitment == nil {
		return nil
	}
	return s.ledger.Release(ctx, commitment.ID)
}

func (s *workflowService) audit(ctx context.Context, req *entity.Request, actorID, role, action, comment, previousStatus string) error {
	evt := &entity.ApprovalEvent{
		RequestID:      req.ID,
		ActorID:        actorID,
		Role:           role,
		Action:         action,
		Comment:        comment,
		PreviousStatus: previousStatus,
		NewStatus:      req.Status,
		Timestamp:      s.now(),
	}
	if err := s.auditRepo.Append(ctx, evt); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *workflowService) emit(ctx context.Context, evts []*event.Event) {
	for _, evt := range evts {
		s.bus.DispatchAsync(ctx, evt)
	}
}
