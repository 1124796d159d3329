package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/handler"
	"github.com/vinayakry63/lead-manager/internal/infra/cache"
	"github.com/vinayakry63/lead-manager/internal/infra/observability"
	"github.com/vinayakry63/lead-manager/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// In-memory stores implementing the port interfaces
// ============================================================

type memUserStore struct {
	mu    sync.Mutex
	users []*domain.User
}

func (s *memUserStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, &domain.ErrDuplicateEmail{Email: user.Email}
		}
	}
	s.users = append(s.users, user)
	return user, nil
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// memLeadStore implements enough of the filter semantics for end-to-end
// assertions: equals and contains on strings, equals on enums.
type memLeadStore struct {
	mu    sync.Mutex
	leads []*domain.Lead
}

func (s *memLeadStore) matches(l *domain.Lead, ownerID string, spec domain.FilterSpec) bool {
	if l.OwnerID != ownerID {
		return false
	}
	for field, clause := range spec {
		var v string
		switch field {
		case "company":
			v = l.Company
		case "status":
			v = l.Status
		case "city":
			v = l.City
		case "email":
			v = l.Email
		default:
			continue
		}
		want, _ := clause.Value.(string)
		switch clause.Operator {
		case domain.OpEquals:
			if v != want {
				return false
			}
		case domain.OpContains:
			if !strings.Contains(strings.ToLower(v), strings.ToLower(want)) {
				return false
			}
		}
	}
	return true
}

func (s *memLeadStore) filtered(ownerID string, spec domain.FilterSpec) []*domain.Lead {
	var out []*domain.Lead
	for _, l := range s.leads {
		if s.matches(l, ownerID, spec) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *memLeadStore) Insert(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.OwnerID == lead.OwnerID && l.Email == lead.Email {
			return nil, &domain.ErrDuplicateEmail{Email: lead.Email}
		}
	}
	s.leads = append(s.leads, lead)
	return lead, nil
}

func (s *memLeadStore) Count(_ context.Context, ownerID string, spec domain.FilterSpec) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filtered(ownerID, spec))), nil
}

func (s *memLeadStore) List(_ context.Context, ownerID string, spec domain.FilterSpec, page domain.PageRequest) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filtered(ownerID, spec)
	start := page.Offset()
	if start >= len(all) {
		return []domain.Lead{}, nil
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]domain.Lead, 0, end-start)
	for _, l := range all[start:end] {
		out = append(out, *l)
	}
	return out, nil
}

func (s *memLeadStore) Get(_ context.Context, ownerID, id string) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == id && l.OwnerID == ownerID {
			return l, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

func (s *memLeadStore) GetByEmail(_ context.Context, ownerID, email string) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.OwnerID == ownerID && l.Email == email {
			return l, nil
		}
	}
	return nil, nil
}

func (s *memLeadStore) Update(_ context.Context, ownerID, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID != id || l.OwnerID != ownerID {
			continue
		}
		if req.Email != nil {
			for _, other := range s.leads {
				if other.ID != l.ID && other.OwnerID == ownerID && other.Email == *req.Email {
					return nil, &domain.ErrDuplicateEmail{Email: *req.Email}
				}
			}
			l.Email = *req.Email
		}
		if req.Status != nil {
			l.Status = *req.Status
		}
		if req.Score != nil {
			l.Score = *req.Score
		}
		if req.Company != nil {
			l.Company = *req.Company
		}
		return l, nil
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

func (s *memLeadStore) Delete(_ context.Context, ownerID, id string) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.leads {
		if l.ID == id && l.OwnerID == ownerID {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			return l, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
}

// ============================================================
// Test client
// ============================================================

type apiClient struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

func newStack() http.Handler {
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	authSvc := service.NewAuthService(&memUserStore{}, "integration-secret", time.Hour, logger)
	leadSvc := service.NewLeadService(&memLeadStore{}, metrics, logger)

	return handler.NewRouter(handler.Deps{
		Leads:      leadSvc,
		Auth:       authSvc,
		Users:      cache.New[*domain.User](time.Minute),
		Metrics:    metrics,
		Logger:     logger,
		CORSOrigin: "http://localhost:5173",
	})
}

func leadBody(email, company, status string) map[string]any {
	return map[string]any{
		"first_name": "Lin",
		"last_name":  "Chen",
		"email":      email,
		"phone":      "+1-555-0102",
		"company":    company,
		"city":       "Austin",
		"state":      "TX",
		"source":     "google_ads",
		"status":     status,
		"score":      60,
		"lead_value": 2500,
	}
}

// TestIntegration_FullFlow exercises the complete lifecycle through the
// real router, services and middleware: register, create, duplicate
// conflict, filtered listing with pagination, cross-owner isolation,
// update and delete.
func TestIntegration_FullFlow(t *testing.T) {
	router := newStack()
	alice := &apiClient{t: t, router: router}

	// --- Register ---
	rec := alice.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "alice@example.com", "password": "hunter22",
		"firstName": "Alice", "lastName": "Doe",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// --- Create three leads ---
	var firstLead domain.Lead
	for i, company := range []string{"Acme Corp", "Globex", "Initech"} {
		rec = alice.do(http.MethodPost, "/v1/leads", leadBody(
			fmt.Sprintf("lead%d@example.com", i), company, "new",
		))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create lead %d: expected 201, got %d: %s", i, rec.Code, rec.Body.String())
		}
		if i == 0 {
			firstLead = decode[domain.Lead](t, rec)
		}
	}

	// --- Duplicate email conflicts ---
	rec = alice.do(http.MethodPost, "/v1/leads", leadBody("lead0@example.com", "Acme Corp", "new"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate lead: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// --- Paginated listing ---
	rec = alice.do(http.MethodGet, "/v1/leads?page=1&limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[domain.LeadPage](t, rec)
	if len(page.Data) != 2 {
		t.Errorf("expected 2 leads in window, got %d", len(page.Data))
	}
	if page.Total != 3 || page.TotalPages != 2 {
		t.Errorf("expected total=3 totalPages=2, got total=%d totalPages=%d", page.Total, page.TotalPages)
	}

	// --- Filtered listing ---
	filters := url.QueryEscape(`{"company":{"operator":"contains","value":"acme"}}`)
	rec = alice.do(http.MethodGet, "/v1/leads?filters="+filters, nil)
	page = decode[domain.LeadPage](t, rec)
	if page.Total != 1 || len(page.Data) != 1 {
		t.Fatalf("expected exactly one Acme lead, got total=%d", page.Total)
	}
	if page.Data[0].Company != "Acme Corp" {
		t.Errorf("expected Acme Corp, got %q", page.Data[0].Company)
	}

	// --- Page past the end stays truthful ---
	rec = alice.do(http.MethodGet, "/v1/leads?page=50&limit=2", nil)
	page = decode[domain.LeadPage](t, rec)
	if len(page.Data) != 0 {
		t.Errorf("expected empty window past the end, got %d leads", len(page.Data))
	}
	if page.Page != 50 || page.Total != 3 {
		t.Errorf("metadata must stay truthful: got page=%d total=%d", page.Page, page.Total)
	}

	// --- Update ---
	rec = alice.do(http.MethodPut, "/v1/leads/"+firstLead.ID, map[string]any{"status": "qualified"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[domain.Lead](t, rec)
	if updated.Status != "qualified" {
		t.Errorf("expected status qualified, got %q", updated.Status)
	}

	// --- Cross-owner isolation ---
	bob := &apiClient{t: t, router: router}
	rec = bob.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "bob@example.com", "password": "hunter22",
		"firstName": "Bob", "lastName": "Roe",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register bob: expected 201, got %d", rec.Code)
	}

	rec = bob.do(http.MethodGet, "/v1/leads/"+firstLead.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign-owned lead must look missing: expected 404, got %d", rec.Code)
	}
	rec = bob.do(http.MethodDelete, "/v1/leads/"+firstLead.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign-owned delete: expected 404, got %d", rec.Code)
	}

	// --- Delete and verify gone ---
	rec = alice.do(http.MethodDelete, "/v1/leads/"+firstLead.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	deleted := decode[domain.Lead](t, rec)
	if deleted.ID != firstLead.ID {
		t.Errorf("expected snapshot of deleted lead, got %q", deleted.ID)
	}

	rec = alice.do(http.MethodGet, "/v1/leads/"+firstLead.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted lead: expected 404, got %d", rec.Code)
	}
}

// TestIntegration_SessionLifecycle verifies login, me and logout behavior.
func TestIntegration_SessionLifecycle(t *testing.T) {
	router := newStack()
	client := &apiClient{t: t, router: router}

	rec := client.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "carol@example.com", "password": "hunter22",
		"firstName": "Carol", "lastName": "Poe",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	// --- Me ---
	rec = client.do(http.MethodGet, "/v1/auth/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	me := decode[domain.AuthResponse](t, rec)
	if me.User == nil || me.User.Email != "carol@example.com" {
		t.Errorf("unexpected me response: %+v", me.User)
	}

	// --- Logout clears the cookie ---
	rec = client.do(http.MethodPost, "/v1/auth/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "lead_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected logout to expire the session cookie")
	}

	// --- Fresh login works ---
	login := &apiClient{t: t, router: router}
	rec = login.do(http.MethodPost, "/v1/auth/login", map[string]string{
		"email": "carol@example.com", "password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = login.do(http.MethodGet, "/v1/auth/me", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("me after login: expected 200, got %d", rec.Code)
	}
}
