package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// leadID validates the {leadId} URL parameter. Rejecting malformed ids here
// keeps invalid-uuid noise out of the store.
func leadID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "leadId")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ============================================================
// Create — POST /v1/leads
// ============================================================

func createLeadHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/leads")
		defer span.End()

		var req domain.CreateLeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := svc.Create(ctx, OwnerIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("lead.id", lead.ID))

		writeJSON(w, http.StatusCreated, lead)
	}
}

// ============================================================
// List — GET /v1/leads
// ============================================================

func listLeadsHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leads")
		defer span.End()

		spec, err := parseFilters(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		page, err := svc.List(ctx, OwnerIDFromContext(ctx), spec, parsePageRequest(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

// ============================================================
// Get — GET /v1/leads/{leadId}
// ============================================================

func getLeadHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leads/{leadId}")
		defer span.End()

		id, ok := leadID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "leadId must be a valid UUID")
			return
		}
		span.SetAttributes(attribute.String("lead.id", id))

		lead, err := svc.Get(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, lead)
	}
}

// ============================================================
// Update — PUT /v1/leads/{leadId}
// ============================================================

func updateLeadHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/leads/{leadId}")
		defer span.End()

		id, ok := leadID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "leadId must be a valid UUID")
			return
		}
		span.SetAttributes(attribute.String("lead.id", id))

		var req domain.UpdateLeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := svc.Update(ctx, OwnerIDFromContext(ctx), id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, lead)
	}
}

// ============================================================
// Delete — DELETE /v1/leads/{leadId}
// ============================================================

func deleteLeadHandler(svc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/leads/{leadId}")
		defer span.End()

		id, ok := leadID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "leadId must be a valid UUID")
			return
		}
		span.SetAttributes(attribute.String("lead.id", id))

		lead, err := svc.Delete(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, lead)
	}
}
