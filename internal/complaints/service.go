package complaints

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk/internal/ledger"
	"github.com/opsdesk/opsdesk/internal/platform/httpx"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// AuditRecorder persists an audit trail entry.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator drops derived report caches after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	repo        Repository
	audit       AuditRecorder
	invalidator CacheInvalidator
	logger      *slog.Logger
}

func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// SetCacheInvalidator registers the hook run after successful writes.
func (s *Service) SetCacheInvalidator(inv CacheInvalidator) {
	s.invalidator = inv
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("analytics cache invalidation failed", "error", err)
	}
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Complaint, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Complaint, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a complaint in OPEN. Intake failures are collected the
// same way the document gate collects them.
func (s *Service) Create(ctx context.Context, input Complaint) (Complaint, error) {
	c := input
	c.ID = 0
	c.Status = StatusOpen
	c.AssigneeID = nil
	c.ResolvedAt = nil
	if c.Priority == "" {
		c.Priority = PriorityMedium
	}

	fields := ledger.FieldErrors{}
	if strings.TrimSpace(c.Subject) == "" {
		fields["subject"] = "subject is required"
	}
	if strings.TrimSpace(c.Description) == "" {
		fields["description"] = "description is required"
	}
	if !c.Priority.Valid() {
		fields["priority"] = "unknown priority"
	}
	if len(fields) > 0 {
		return Complaint{}, &ledger.ValidationError{Fields: fields}
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Complaint{}, err
	}
	s.recordAudit(ctx, "complaint.create", created.ID, map[string]any{"subject": created.Subject})
	s.invalidateCache(ctx)
	return created, nil
}

// Assign hands the complaint to an agent and moves it to ASSIGNED. Open
// and already-assigned complaints can be (re)assigned; resolved ones not.
func (s *Service) Assign(ctx context.Context, id, assigneeID int64) (Complaint, error) {
	if assigneeID <= 0 {
		return Complaint{}, fmt.Errorf("%w: assignee is required", httpx.ErrValidation)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	switch c.Status {
	case StatusOpen, StatusAssigned, StatusInProgress:
	default:
		return Complaint{}, fmt.Errorf("%w: cannot assign a %s complaint", httpx.ErrValidation, c.Status)
	}

	c.AssigneeID = &assigneeID
	if c.Status == StatusOpen {
		c.Status = StatusAssigned
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return Complaint{}, err
	}
	s.recordAudit(ctx, "complaint.assign", id, map[string]any{"assignee_id": assigneeID})
	return c, nil
}

// Transition moves the complaint along the workflow. RESOLVED stamps the
// resolution time; reopening clears it.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (Complaint, error) {
	if !to.Valid() {
		return Complaint{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, to)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if !c.Status.CanTransition(to) {
		return Complaint{}, fmt.Errorf("%w: cannot move %s complaint to %s", httpx.ErrValidation, c.Status, to)
	}

	c.Status = to
	switch to {
	case StatusResolved:
		now := time.Now()
		c.ResolvedAt = &now
	case StatusInProgress:
		c.ResolvedAt = nil
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return Complaint{}, err
	}
	s.recordAudit(ctx, "complaint.transition", id, map[string]any{"to": string(to)})
	s.invalidateCache(ctx)
	return c, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if principal := shared.PrincipalFromContext(ctx); principal != nil {
		actorID = principal.UserID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "complaint",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "complaint_id", id, "error", err)
	}
}
