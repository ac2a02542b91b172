package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/port"
	"github.com/hapkiduki/boxpack/internal/domain/entity"
	"github.com/hapkiduki/boxpack/internal/domain/repository"
	"github.com/hapkiduki/boxpack/internal/interfaces/http/middleware"
	"github.com/hapkiduki/boxpack/pkg/logger"
)

// Paging bounds for list requests.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// LayoutUseCases is the part of the application the layout API drives.
type LayoutUseCases interface {
	Pack(ctx context.Context, req dto.PackRequest) (*dto.LayoutResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.LayoutResponse, error)
	Export(ctx context.Context, id uuid.UUID) (*entity.LayoutSnapshot, error)
	List(ctx context.Context, q dto.ListLayoutsQuery) (dto.PaginateResponse[dto.LayoutSummaryResponse], error)
	AddItems(ctx context.Context, id uuid.UUID, req dto.AddItemsRequest) (*dto.LayoutResponse, error)
	Normalize(ctx context.Context, id uuid.UUID, req dto.NormalizeRequest) (*dto.LayoutResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CheckFit(ctx context.Context, req dto.FitRequest) (*dto.FitResponse, error)
}

// LayoutHandler serves the /v1 layout routes.
type LayoutHandler struct {
	svc      LayoutUseCases
	log      port.Logger
	maxBytes int64
	version  string
}

// NewLayoutHandler creates a new LayoutHandler.
//
// Parameters:
//   - svc: the layout use cases
//   - log: logger for unexpected failures
//   - maxBytes: request body limit, 0 for none
//   - version: API version reported in response metadata
//
// Returns:
//   - *LayoutHandler: the handler
func NewLayoutHandler(svc LayoutUseCases, log port.Logger, maxBytes int64, version string) *LayoutHandler {
	return &LayoutHandler{svc: svc, log: log, maxBytes: maxBytes, version: version}
}

// Routes returns the router to mount under /v1.
func (h *LayoutHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/fit", h.CheckFit)
	r.Route("/layouts", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(layoutID)
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Get("/snapshot", h.Export)
			r.Post("/items", h.AddItems)
			r.Post("/normalize", h.Normalize)
		})
	})
	return r
}

type layoutIDKey struct{}

// layoutID parses the {id} URL parameter once for every layout route.
func layoutID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			middleware.WriteError(w, r, http.StatusBadRequest, CodeValidation, "layout id must be a UUID")
			return
		}
		ctx := context.WithValue(r.Context(), layoutIDKey{}, id)
		ctx = logger.ContextWithLayoutID(ctx, id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func idFrom(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(layoutIDKey{}).(uuid.UUID)
	return id
}

// Create handles POST /v1/layouts.
func (h *LayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PackRequest
	if err := decode(w, r, h.maxBytes, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	resp, err := h.svc.Pack(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Location", "/v1/layouts/"+resp.ID.String())
	respond(w, r, http.StatusCreated, h.version, resp)
}

// List handles GET /v1/layouts.
//
// Query parameters: name, min_volume, max_volume, sort_by
// (created_at, name, volume), sort_order (asc, desc), limit, offset.
func (h *LayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}
	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	respond(w, r, http.StatusOK, h.version, page)
}

// Get handles GET /v1/layouts/{id}.
func (h *LayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Get(r.Context(), idFrom(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	respond(w, r, http.StatusOK, h.version, resp)
}

// Export handles GET /v1/layouts/{id}/snapshot.
func (h *LayoutHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Export(r.Context(), idFrom(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	respond(w, r, http.StatusOK, h.version, snap)
}

// Delete handles DELETE /v1/layouts/{id}.
func (h *LayoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), idFrom(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItems handles POST /v1/layouts/{id}/items.
func (h *LayoutHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	var req dto.AddItemsRequest
	if err := decode(w, r, h.maxBytes, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	resp, err := h.svc.AddItems(r.Context(), idFrom(r), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	respond(w, r, http.StatusOK, h.version, resp)
}

// Normalize handles POST /v1/layouts/{id}/normalize. The body is optional.
func (h *LayoutHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req dto.NormalizeRequest
	if err := decode(w, r, h.maxBytes, &req, true); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	resp, err := h.svc.Normalize(r.Context(), idFrom(r), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	respond(w, r, http.StatusOK, h.version, resp)
}

// CheckFit handles POST /v1/fit.
func (h *LayoutHandler) CheckFit(w http.ResponseWriter, r *http.Request) {
	var req dto.FitRequest
	if err := decode(w, r, h.maxBytes, &req, false); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	resp, err := h.svc.CheckFit(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	respond(w, r, http.StatusOK, h.version, resp)
}

func parseListQuery(r *http.Request) (dto.ListLayoutsQuery, error) {
	v := r.URL.Query()
	q := dto.ListLayoutsQuery{
		Name:      v.Get("name"),
		SortBy:    v.Get("sort_by"),
		SortOrder: v.Get("sort_order"),
		Limit:     DefaultPageSize,
	}

	switch q.SortBy {
	case "", repository.SortByCreatedAt, repository.SortByName, repository.SortByVolume:
	default:
		return q, fmt.Errorf("unknown sort_by %q", q.SortBy)
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		return q, fmt.Errorf("sort_order must be asc or desc")
	}

	var err error
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 1 || q.Limit > MaxPageSize {
			return q, fmt.Errorf("limit must be between 1 and %d", MaxPageSize)
		}
	}
	if s := v.Get("offset"); s != "" {
		if q.Offset, err = strconv.Atoi(s); err != nil || q.Offset < 0 {
			return q, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	if q.MinVolume, err = parseOptionalFloat(v.Get("min_volume"), "min_volume"); err != nil {
		return q, err
	}
	if q.MaxVolume, err = parseOptionalFloat(v.Get("max_volume"), "max_volume"); err != nil {
		return q, err
	}
	return q, nil
}

func parseOptionalFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &f, nil
}
