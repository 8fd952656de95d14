package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/northbeam-labs/harbor-saas/domains/organizations/be/service"
	"github.com/northbeam-labs/harbor-saas/platform/go/logging"
	"github.com/northbeam-labs/harbor-saas/platform/go/slug"
)

// Handler wires the organizations service to HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("organizations service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the organization endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/by-slug/{slug}", h.getBySlug)
	r.Get("/{orgID}", h.get)
	r.Patch("/{orgID}", h.update)
	return r
}

type organizationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	TrialEnd  *time.Time `json:"trialEnd"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type listResponse struct {
	Items      []organizationResponse `json:"items"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalItems int                    `json:"totalItems"`
	TotalPages int                    `json:"totalPages"`
}

// createRequest keeps trialEnd as raw JSON so an omitted field can be told
// apart from an explicit null: only true absence triggers the trial default.
type createRequest struct {
	Name     string          `json:"name"`
	Slug     *string         `json:"slug"`
	TrialEnd json.RawMessage `json:"trialEnd"`
}

type updateRequest struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		h.writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	input := service.CreateInput{Name: body.Name}
	if body.Slug != nil {
		input.Slug = slug.Normalize(*body.Slug)
	}

	trialEnd, err := parseTrialEnd(body.TrialEnd)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	input.TrialEnd = trialEnd

	org, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/orgs/%s", org.ID))
	h.writeJSON(w, r, http.StatusCreated, toResponse(org))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid organization id")
		return
	}

	var body updateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.UpdateInput{Name: body.Name}
	if body.Slug != nil {
		normalized := slug.Normalize(*body.Slug)
		input.Slug = &normalized
	}

	org, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toResponse(org))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid organization id")
		return
	}

	org, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toResponse(org))
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	org, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toResponse(org))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]organizationResponse, 0, len(result.Organizations))
	for _, org := range result.Organizations {
		items = append(items, toResponse(org))
	}

	h.writeJSON(w, r, http.StatusOK, listResponse{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

// parseTrialEnd maps the raw field to the tri-state input: a nil message is an
// omitted field, the JSON null literal is an explicit "no trial".
func parseTrialEnd(raw json.RawMessage) (service.OptionalTime, error) {
	if raw == nil {
		return service.OptionalTime{}, nil
	}

	var value *time.Time
	if err := json.Unmarshal(raw, &value); err != nil {
		return service.OptionalTime{}, errors.New("trialEnd must be an RFC 3339 timestamp or null")
	}
	return service.OptionalTime{Set: true, Value: value}, nil
}

func toResponse(org service.Organization) organizationResponse {
	return organizationResponse{
		ID:        org.ID,
		Slug:      org.Slug,
		Name:      org.Name,
		TrialEnd:  org.TrialEnd,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, "organization not found")
	case errors.Is(err, service.ErrSlugTaken):
		h.writeError(w, r, http.StatusConflict, "organization slug already exists")
	default:
		logging.FromRequest(r, h.logger).Error("organizations request failed", zap.Error(err))
		h.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, map[string]string{"error": message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r, h.logger).Error("encode response", zap.Error(err))
	}
}
