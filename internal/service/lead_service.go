// Package service — LeadService implements the owner-scoped lead CRUD and
// the filtered, paginated listing.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/infra/observability"
	"github.com/vinayakry63/lead-manager/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var leadTracer = otel.Tracer("service/lead")

// LeadService orchestrates lead operations. Every method takes the owner id
// from the authenticated session; it is never part of a request body.
type LeadService struct {
	store   port.LeadStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLeadService creates a new lead service.
func NewLeadService(store port.LeadStore, metrics *observability.Metrics, logger *zap.Logger) *LeadService {
	return &LeadService{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// ============================================================
// Create — POST /v1/leads
// ============================================================

func (s *LeadService) Create(ctx context.Context, ownerID string, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Create")
	defer span.End()
	defer s.observe("create", time.Now())

	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Fast-path duplicate check. The unique constraint remains the
	// authoritative guard against concurrent creates.
	existing, err := s.store.GetByEmail(ctx, ownerID, req.Email)
	if err != nil {
		return nil, s.storeErr("get_by_email", err)
	}
	if existing != nil {
		return nil, &domain.ErrDuplicateEmail{Email: req.Email}
	}

	now := time.Now().UTC()
	lead := &domain.Lead{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		City:           req.City,
		State:          req.State,
		Source:         req.Source,
		Status:         req.Status,
		Score:          req.Score,
		LeadValue:      req.LeadValue,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if req.IsQualified != nil {
		lead.IsQualified = *req.IsQualified
	}
	if req.LastActivityAt != nil {
		lead.LastActivityAt = *req.LastActivityAt
	}

	created, err := s.store.Insert(ctx, lead)
	if err != nil {
		return nil, s.storeErr("insert", err)
	}

	s.logger.Info("lead created",
		zap.String("lead_id", created.ID),
		zap.String("owner_id", ownerID),
	)
	return created, nil
}

// ============================================================
// List — GET /v1/leads
// ============================================================

// List returns one page of the owner's leads matching the filter spec.
// Count and window queries run concurrently; both see the same compiled
// filter, so the metadata is always consistent with the data.
func (s *LeadService) List(ctx context.Context, ownerID string, spec domain.FilterSpec, page domain.PageRequest) (*domain.LeadPage, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.List")
	defer span.End()
	span.SetAttributes(
		attribute.Int("page", page.Page),
		attribute.Int("limit", page.Limit),
		attribute.Int("filters", len(spec)),
	)
	defer s.observe("list", time.Now())

	var (
		total int64
		leads []domain.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.store.Count(gctx, ownerID, spec)
		total = t
		return err
	})
	g.Go(func() error {
		l, err := s.store.List(gctx, ownerID, spec, page)
		leads = l
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.storeErr("list", err)
	}

	if leads == nil {
		leads = []domain.Lead{}
	}
	return &domain.LeadPage{
		Data:     leads,
		PageMeta: domain.NewPageMeta(page, total),
	}, nil
}

// ============================================================
// Get — GET /v1/leads/{leadId}
// ============================================================

func (s *LeadService) Get(ctx context.Context, ownerID, id string) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Get")
	defer span.End()
	defer s.observe("get", time.Now())

	lead, err := s.store.Get(ctx, ownerID, id)
	if err != nil {
		return nil, s.storeErr("get", err)
	}
	return lead, nil
}

// ============================================================
// Update — PUT /v1/leads/{leadId}
// ============================================================

func (s *LeadService) Update(ctx context.Context, ownerID, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Update")
	defer span.End()
	defer s.observe("update", time.Now())

	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Any change counts as activity unless the caller set the timestamp
	// explicitly.
	if req.LastActivityAt == nil {
		now := time.Now().UTC()
		req.LastActivityAt = &now
	}

	updated, err := s.store.Update(ctx, ownerID, id, req)
	if err != nil {
		return nil, s.storeErr("update", err)
	}

	s.logger.Info("lead updated",
		zap.String("lead_id", id),
		zap.String("owner_id", ownerID),
	)
	return updated, nil
}

// ============================================================
// Delete — DELETE /v1/leads/{leadId}
// ============================================================

func (s *LeadService) Delete(ctx context.Context, ownerID, id string) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Delete")
	defer span.End()
	defer s.observe("delete", time.Now())

	deleted, err := s.store.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, s.storeErr("delete", err)
	}

	s.logger.Info("lead deleted",
		zap.String("lead_id", id),
		zap.String("owner_id", ownerID),
	)
	return deleted, nil
}

// ============================================================
// Internal helpers
// ============================================================

func (s *LeadService) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOpDuration(op, time.Since(start))
	}
}

// storeErr counts transient store failures before passing the error on.
func (s *LeadService) storeErr(op string, err error) error {
	var unavailable *domain.ErrUnavailable
	if errors.As(err, &unavailable) && s.metrics != nil {
		s.metrics.IncrStoreError(op)
	}
	return err
}
