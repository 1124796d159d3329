// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/vinayakry63/lead-manager/internal/domain"
)

// LeadStore defines all data operations for leads.
// Every method is owner-scoped: the owner id is part of the lookup
// predicate, never a post-fetch comparison, so foreign-owned records are
// indistinguishable from missing ones.
type LeadStore interface {
	// Insert persists a new lead. Returns *domain.ErrDuplicateEmail when
	// the (owner, email) pair is already taken; the database uniqueness
	// constraint is the authoritative guard.
	Insert(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)

	// Count returns the number of leads matching the filter for this owner.
	Count(ctx context.Context, ownerID string, spec domain.FilterSpec) (int64, error)

	// List returns one window of the filtered result set, newest first.
	List(ctx context.Context, ownerID string, spec domain.FilterSpec, page domain.PageRequest) ([]domain.Lead, error)

	// Get returns the lead or *domain.ErrNotFound.
	Get(ctx context.Context, ownerID, id string) (*domain.Lead, error)

	// GetByEmail returns (nil, nil) when no lead with that email exists
	// for the owner.
	GetByEmail(ctx context.Context, ownerID, email string) (*domain.Lead, error)

	// Update applies the non-nil fields and returns the updated record,
	// or *domain.ErrNotFound / *domain.ErrDuplicateEmail.
	Update(ctx context.Context, ownerID, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error)

	// Delete removes the lead and returns its final snapshot,
	// or *domain.ErrNotFound.
	Delete(ctx context.Context, ownerID, id string) (*domain.Lead, error)
}

// UserStore defines all data operations for user accounts.
type UserStore interface {
	// CreateUser persists a new account. Returns *domain.ErrDuplicateEmail
	// when the email is already registered.
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	// GetUserByEmail returns (nil, nil) when no such account exists.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID returns (nil, nil) when no such account exists.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
