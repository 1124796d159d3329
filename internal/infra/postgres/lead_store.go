package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vinayakry63/lead-manager/internal/domain"
)

const leadColumns = `id, owner_id, first_name, last_name, email, phone, company, city, state,
	source, status, score, lead_value, is_qualified, created_at, last_activity_at`

func scanLead(row pgx.Row, l *domain.Lead) error {
	return row.Scan(
		&l.ID, &l.OwnerID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
		&l.Company, &l.City, &l.State, &l.Source, &l.Status, &l.Score,
		&l.LeadValue, &l.IsQualified, &l.CreatedAt, &l.LastActivityAt,
	)
}

// Insert persists a new lead. The (owner, email) uniqueness constraint is
// the authoritative duplicate guard.
func (s *Store) Insert(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	var out domain.Lead
	err := s.do(ctx, "insert", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `
			INSERT INTO leads (id, owner_id, first_name, last_name, email, phone,
				company, city, state, source, status, score, lead_value,
				is_qualified, created_at, last_activity_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING `+leadColumns,
			lead.ID, lead.OwnerID, lead.FirstName, lead.LastName, lead.Email,
			lead.Phone, lead.Company, lead.City, lead.State, lead.Source,
			lead.Status, lead.Score, lead.LeadValue, lead.IsQualified,
			lead.CreatedAt, lead.LastActivityAt,
		)
		if err := scanLead(row, &out); err != nil {
			if isUniqueViolation(err, "leads_owner_email_key") {
				return &domain.ErrDuplicateEmail{Email: lead.Email}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Count returns the number of leads matching the filter for this owner.
func (s *Store) Count(ctx context.Context, ownerID string, spec domain.FilterSpec) (int64, error) {
	where, args := compileFilter(ownerID, spec)

	var total int64
	err := s.do(ctx, "count", func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+where, args...).Scan(&total)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// List returns one window of the filtered result set, newest first. The id
// tiebreak keeps page boundaries stable when created_at values collide.
func (s *Store) List(ctx context.Context, ownerID string, spec domain.FilterSpec, page domain.PageRequest) ([]domain.Lead, error) {
	where, args := compileFilter(ownerID, spec)
	query := fmt.Sprintf(
		"SELECT %s FROM leads WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		leadColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, page.Limit, page.Offset())

	var leads []domain.Lead
	err := s.do(ctx, "list", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		leads = make([]domain.Lead, 0, page.Limit)
		for rows.Next() {
			var l domain.Lead
			if err := scanLead(rows, &l); err != nil {
				return err
			}
			leads = append(leads, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return leads, nil
}

// Get returns the lead or *domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, ownerID, id string) (*domain.Lead, error) {
	var out domain.Lead
	err := s.do(ctx, "get", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx,
			"SELECT "+leadColumns+" FROM leads WHERE owner_id = $1 AND id = $2",
			ownerID, id,
		)
		if err := scanLead(row, &out); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.ErrNotFound{Resource: "lead", ID: id}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByEmail returns (nil, nil) when no lead with that email exists for
// the owner.
func (s *Store) GetByEmail(ctx context.Context, ownerID, email string) (*domain.Lead, error) {
	var out domain.Lead
	found := false
	err := s.do(ctx, "get_by_email", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx,
			"SELECT "+leadColumns+" FROM leads WHERE owner_id = $1 AND email = $2",
			ownerID, email,
		)
		if err := scanLead(row, &out); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

// Update applies the non-nil fields of req and returns the updated record.
func (s *Store) Update(ctx context.Context, ownerID, id string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	set := make([]string, 0, 13)
	args := make([]any, 0, 15)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.FirstName != nil {
		add("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		add("last_name", *req.LastName)
	}
	if req.Email != nil {
		add("email", *req.Email)
	}
	if req.Phone != nil {
		add("phone", *req.Phone)
	}
	if req.Company != nil {
		add("company", *req.Company)
	}
	if req.City != nil {
		add("city", *req.City)
	}
	if req.State != nil {
		add("state", *req.State)
	}
	if req.Source != nil {
		add("source", *req.Source)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.Score != nil {
		add("score", *req.Score)
	}
	if req.LeadValue != nil {
		add("lead_value", *req.LeadValue)
	}
	if req.IsQualified != nil {
		add("is_qualified", *req.IsQualified)
	}
	if req.LastActivityAt != nil {
		add("last_activity_at", *req.LastActivityAt)
	}

	args = append(args, ownerID, id)
	query := fmt.Sprintf(
		"UPDATE leads SET %s WHERE owner_id = $%d AND id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args)-1, len(args), leadColumns,
	)

	var out domain.Lead
	err := s.do(ctx, "update", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, query, args...)
		if err := scanLead(row, &out); err != nil {
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				return &domain.ErrNotFound{Resource: "lead", ID: id}
			case req.Email != nil && isUniqueViolation(err, "leads_owner_email_key"):
				return &domain.ErrDuplicateEmail{Email: *req.Email}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the lead and returns its final snapshot.
func (s *Store) Delete(ctx context.Context, ownerID, id string) (*domain.Lead, error) {
	var out domain.Lead
	err := s.do(ctx, "delete", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx,
			"DELETE FROM leads WHERE owner_id = $1 AND id = $2 RETURNING "+leadColumns,
			ownerID, id,
		)
		if err := scanLead(row, &out); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.ErrNotFound{Resource: "lead", ID: id}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
