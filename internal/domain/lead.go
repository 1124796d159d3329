package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Lead funnel enums. These mirror the values the frontend renders; the
// database CHECK constraints enforce the same sets.
var (
	LeadSources  = []string{"website", "facebook_ads", "google_ads", "referral", "events", "other"}
	LeadStatuses = []string{"new", "contacted", "qualified", "lost", "won"}
)

// Lead is a sales lead owned by exactly one user.
type Lead struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	Score          int       `json:"score"`
	LeadValue      float64   `json:"lead_value"`
	IsQualified    bool      `json:"is_qualified"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// CreateLeadRequest is the body for POST /v1/leads.
// The owner is always taken from the authenticated session, never from the body.
type CreateLeadRequest struct {
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Company        string     `json:"company"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Source         string     `json:"source"`
	Status         string     `json:"status"`
	Score          int        `json:"score"`
	LeadValue      float64    `json:"lead_value"`
	IsQualified    *bool      `json:"is_qualified,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// Validate checks the create payload before anything touches the store.
func (r *CreateLeadRequest) Validate() error {
	for field, value := range map[string]string{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"phone":      r.Phone,
		"company":    r.Company,
		"city":       r.City,
		"state":      r.State,
	} {
		if strings.TrimSpace(value) == "" {
			return &ErrValidation{Field: field, Message: "must not be empty"}
		}
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if !contains(LeadSources, r.Source) {
		return &ErrValidation{Field: "source", Message: "must be one of " + strings.Join(LeadSources, ", ")}
	}
	if !contains(LeadStatuses, r.Status) {
		return &ErrValidation{Field: "status", Message: "must be one of " + strings.Join(LeadStatuses, ", ")}
	}
	if r.Score < 0 || r.Score > 100 {
		return &ErrValidation{Field: "score", Message: "must be between 0 and 100"}
	}
	if r.LeadValue < 0 {
		return &ErrValidation{Field: "lead_value", Message: "must not be negative"}
	}
	return nil
}

// UpdateLeadRequest is the body for PUT /v1/leads/{leadId}.
// All fields are optional; nil means "leave unchanged".
type UpdateLeadRequest struct {
	FirstName      *string    `json:"first_name,omitempty"`
	LastName       *string    `json:"last_name,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Company        *string    `json:"company,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
	Source         *string    `json:"source,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Score          *int       `json:"score,omitempty"`
	LeadValue      *float64   `json:"lead_value,omitempty"`
	IsQualified    *bool      `json:"is_qualified,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// Empty reports whether the update carries no changes at all.
func (r *UpdateLeadRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil &&
		r.Phone == nil && r.Company == nil && r.City == nil && r.State == nil &&
		r.Source == nil && r.Status == nil && r.Score == nil &&
		r.LeadValue == nil && r.IsQualified == nil && r.LastActivityAt == nil
}

// Validate checks every supplied field of the update payload.
func (r *UpdateLeadRequest) Validate() error {
	if r.Empty() {
		return &ErrValidation{Field: "body", Message: "no fields to update"}
	}
	for field, value := range map[string]*string{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"phone":      r.Phone,
		"company":    r.Company,
		"city":       r.City,
		"state":      r.State,
	} {
		if value != nil && strings.TrimSpace(*value) == "" {
			return &ErrValidation{Field: field, Message: "must not be empty"}
		}
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Source != nil && !contains(LeadSources, *r.Source) {
		return &ErrValidation{Field: "source", Message: "must be one of " + strings.Join(LeadSources, ", ")}
	}
	if r.Status != nil && !contains(LeadStatuses, *r.Status) {
		return &ErrValidation{Field: "status", Message: "must be one of " + strings.Join(LeadStatuses, ", ")}
	}
	if r.Score != nil && (*r.Score < 0 || *r.Score > 100) {
		return &ErrValidation{Field: "score", Message: "must be between 0 and 100"}
	}
	if r.LeadValue != nil && *r.LeadValue < 0 {
		return &ErrValidation{Field: "lead_value", Message: "must not be negative"}
	}
	return nil
}

// LeadPage is the response for GET /v1/leads: one window of the result set
// plus the navigation metadata the client echoes back verbatim.
type LeadPage struct {
	Data []Lead `json:"data"`
	PageMeta
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ErrValidation{Field: "email", Message: "must not be empty"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ErrValidation{Field: "email", Message: "must be a valid email address"}
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
