package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/infra/observability"
	"github.com/vinayakry63/lead-manager/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockLeadStore struct {
	insertFn     func(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	countFn      func(ctx context.Context, ownerID string, spec domain.FilterSpec) (int64, error)
	listFn       func(ctx context.Context, ownerID string, spec domain.FilterSpec, page domain.PageRequest) ([]domain.Lead, error)
	getFn        func(ctx context.Context, ownerID, id string) (*domain.Lead, error)
	getByEmailFn func(ctx context.Context, ownerID, email string) (*domain.Lead, error)
	updateFn     func(ctx context.Context, ownerID, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error)
	deleteFn     func(ctx context.Context, ownerID, id string) (*domain.Lead, error)
}

func (m *mockLeadStore) Insert(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	return m.insertFn(ctx, lead)
}

func (m *mockLeadStore) Count(ctx context.Context, ownerID string, spec domain.FilterSpec) (int64, error) {
	return m.countFn(ctx, ownerID, spec)
}

func (m *mockLeadStore) List(ctx context.Context, ownerID string, spec domain.FilterSpec, page domain.PageRequest) ([]domain.Lead, error) {
	return m.listFn(ctx, ownerID, spec, page)
}

func (m *mockLeadStore) Get(ctx context.Context, ownerID, id string) (*domain.Lead, error) {
	return m.getFn(ctx, ownerID, id)
}

func (m *mockLeadStore) GetByEmail(ctx context.Context, ownerID, email string) (*domain.Lead, error) {
	if m.getByEmailFn == nil {
		return nil, nil
	}
	return m.getByEmailFn(ctx, ownerID, email)
}

func (m *mockLeadStore) Update(ctx context.Context, ownerID, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	return m.updateFn(ctx, ownerID, id, req)
}

func (m *mockLeadStore) Delete(ctx context.Context, ownerID, id string) (*domain.Lead, error) {
	return m.deleteFn(ctx, ownerID, id)
}

const owner = "owner-1"

func validCreateRequest() *domain.CreateLeadRequest {
	return &domain.CreateLeadRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1-555-0100",
		Company:   "Analytical Engines",
		City:      "London",
		State:     "LDN",
		Source:    "referral",
		Status:    "new",
		Score:     80,
		LeadValue: 1200,
	}
}

// --- Tests ---

func TestLeadCreate_Success(t *testing.T) {
	store := &mockLeadStore{
		insertFn: func(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
			return lead, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	lead, err := svc.Create(context.Background(), owner, validCreateRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if lead.ID == "" {
		t.Error("expected generated lead id")
	}
	if lead.OwnerID != owner {
		t.Errorf("expected owner %q, got %q", owner, lead.OwnerID)
	}
	if lead.IsQualified {
		t.Error("expected is_qualified to default to false")
	}
	if lead.CreatedAt.IsZero() || lead.LastActivityAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestLeadCreate_InvalidSource(t *testing.T) {
	svc := service.NewLeadService(&mockLeadStore{}, observability.NewMetrics(), zap.NewNop())

	req := validCreateRequest()
	req.Source = "carrier_pigeon"

	_, err := svc.Create(context.Background(), owner, req)
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) || vErr.Field != "source" {
		t.Fatalf("expected validation error on source, got %v", err)
	}
}

func TestLeadCreate_DuplicateEmailPreCheck(t *testing.T) {
	store := &mockLeadStore{
		getByEmailFn: func(_ context.Context, _, email string) (*domain.Lead, error) {
			return &domain.Lead{ID: "existing", Email: email}, nil
		},
		insertFn: func(_ context.Context, _ *domain.Lead) (*domain.Lead, error) {
			t.Fatal("insert must not be reached when the email is taken")
			return nil, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Create(context.Background(), owner, validCreateRequest())
	var dup *domain.ErrDuplicateEmail
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestLeadCreate_DuplicateEmailFromConstraint(t *testing.T) {
	// The pre-check can miss a concurrent create; the store's constraint
	// violation must surface the same way.
	store := &mockLeadStore{
		insertFn: func(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
			return nil, &domain.ErrDuplicateEmail{Email: lead.Email}
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Create(context.Background(), owner, validCreateRequest())
	var dup *domain.ErrDuplicateEmail
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestLeadList_PageMetadata(t *testing.T) {
	store := &mockLeadStore{
		countFn: func(context.Context, string, domain.FilterSpec) (int64, error) {
			return 45, nil
		},
		listFn: func(_ context.Context, _ string, _ domain.FilterSpec, page domain.PageRequest) ([]domain.Lead, error) {
			leads := make([]domain.Lead, page.Limit)
			return leads, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	page, err := svc.List(context.Background(), owner, domain.FilterSpec{}, domain.NewPageRequest(2, 20))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Page != 2 || page.Limit != 20 {
		t.Errorf("expected page=2 limit=20, got page=%d limit=%d", page.Page, page.Limit)
	}
	if page.Total != 45 {
		t.Errorf("expected total=45, got %d", page.Total)
	}
	if page.TotalPages != 3 {
		t.Errorf("expected totalPages=3, got %d", page.TotalPages)
	}
}

func TestLeadList_EmptyResultIsNotNil(t *testing.T) {
	store := &mockLeadStore{
		countFn: func(context.Context, string, domain.FilterSpec) (int64, error) {
			return 0, nil
		},
		listFn: func(context.Context, string, domain.FilterSpec, domain.PageRequest) ([]domain.Lead, error) {
			return nil, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	page, err := svc.List(context.Background(), owner, domain.FilterSpec{}, domain.NewPageRequest(1, 20))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Data == nil {
		t.Error("expected empty slice, not nil, so the JSON renders as []")
	}
	if page.TotalPages != 0 {
		t.Errorf("expected totalPages=0 for empty result, got %d", page.TotalPages)
	}
}

func TestLeadGet_NotFound(t *testing.T) {
	store := &mockLeadStore{
		getFn: func(_ context.Context, _, id string) (*domain.Lead, error) {
			return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Get(context.Background(), owner, "missing-id")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLeadUpdate_EmptyBodyRejected(t *testing.T) {
	svc := service.NewLeadService(&mockLeadStore{}, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Update(context.Background(), owner, "lead-1", &domain.UpdateLeadRequest{})
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) || vErr.Field != "body" {
		t.Fatalf("expected validation error on body, got %v", err)
	}
}

func TestLeadDelete_ReturnsSnapshot(t *testing.T) {
	snapshot := &domain.Lead{ID: "lead-1", OwnerID: owner, Email: "ada@example.com"}
	store := &mockLeadStore{
		deleteFn: func(context.Context, string, string) (*domain.Lead, error) {
			return snapshot, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	deleted, err := svc.Delete(context.Background(), owner, "lead-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted.ID != "lead-1" || deleted.Email != "ada@example.com" {
		t.Errorf("expected final snapshot of the deleted lead, got %+v", deleted)
	}
}

func TestLeadCreate_LastActivityOverride(t *testing.T) {
	store := &mockLeadStore{
		insertFn: func(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
			return lead, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	qualified := true
	req := validCreateRequest()
	req.LastActivityAt = &at
	req.IsQualified = &qualified

	lead, err := svc.Create(context.Background(), owner, req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !lead.LastActivityAt.Equal(at) {
		t.Errorf("expected supplied last_activity_at, got %v", lead.LastActivityAt)
	}
	if !lead.IsQualified {
		t.Error("expected is_qualified to honor the supplied value")
	}
}

func TestLeadUpdate_RefreshesLastActivity(t *testing.T) {
	var seen *domain.UpdateLeadRequest
	store := &mockLeadStore{
		updateFn: func(_ context.Context, _, _ string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
			seen = req
			return &domain.Lead{}, nil
		},
	}
	svc := service.NewLeadService(store, observability.NewMetrics(), zap.NewNop())

	status := "contacted"
	if _, err := svc.Update(context.Background(), owner, "lead-1", &domain.UpdateLeadRequest{Status: &status}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if seen.LastActivityAt == nil {
		t.Fatal("expected update to stamp last_activity_at when not supplied")
	}

	// An explicit timestamp is kept as-is.
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	if _, err := svc.Update(context.Background(), owner, "lead-1", &domain.UpdateLeadRequest{Status: &status, LastActivityAt: &at}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !seen.LastActivityAt.Equal(at) {
		t.Errorf("expected supplied last_activity_at, got %v", seen.LastActivityAt)
	}
}
