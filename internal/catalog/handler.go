package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/partshelf/partshelf/internal/auth"
	"github.com/partshelf/partshelf/internal/platform/httpx"
)

var searchGroup singleflight.Group

// Handler wires HTTP endpoints for the parts catalog.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      auth.Middleware
	validator *validator.Validate
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service, authMW auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auth: authMW, validator: validator.New()}
}

// MountRoutes registers catalog routes. The router group is already behind
// bearer authentication; mutations additionally require the admin role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleSearch)
	r.Get("/{sku}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireRole(auth.RoleAdmin))
		r.Post("/", h.handleCreate)
		r.Patch("/{sku}", h.handleUpdate)
		r.Delete("/{sku}", h.handleDelete)
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter := searchFilterFromQuery(r.URL.Query())

	// Identical concurrent searches collapse to a single store round trip.
	// The shared lookup runs on a detached context so one caller hanging up
	// does not fail every request waiting on the same key.
	key := searchCacheToken(filter)
	searchCtx := context.WithoutCancel(r.Context())
	resultChan := searchGroup.DoChan(key, func() (any, error) {
		return h.service.Search(searchCtx, filter)
	})
	select {
	case <-r.Context().Done():
		return
	case res := <-resultChan:
		if res.Err != nil {
			h.logger.Error("catalog search", slog.Any("error", res.Err))
			httpx.RespondError(w, res.Err)
			return
		}
		httpx.JSON(w, http.StatusOK, res.Val)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	detail, err := h.service.Get(r.Context(), sku)
	if err != nil {
		if errors.Is(err, ErrPartNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "part "+sku+" not found")
			return
		}
		h.logger.Error("get part", slog.Any("error", err), slog.String("sku", sku))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	part, suppliers := req.toDomain()
	created, err := h.service.Create(r.Context(), part, suppliers, h.actor(r))
	if err != nil {
		if errors.Is(err, ErrDuplicateSKU) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "sku "+req.SKU+" already exists")
			return
		}
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("create part", slog.Any("error", err), slog.String("sku", req.SKU))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	var req updatePartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}
	detail, err := h.service.Update(r.Context(), sku, req.toDomain(sku), h.actor(r))
	if err != nil {
		if errors.Is(err, ErrPartNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "part "+sku+" not found")
			return
		}
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("update part", slog.Any("error", err), slog.String("sku", sku))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	err := h.service.Delete(r.Context(), sku, h.actor(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrPartNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "part "+sku+" not found")
		case errors.Is(err, ErrPartHasStock):
			httpx.Problem(w, http.StatusConflict, "Conflict", "part "+sku+" still has inventory with quantity > 0")
		default:
			h.logger.Error("delete part", slog.Any("error", err), slog.String("sku", sku))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) actor(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return identity.Subject
	}
	return ""
}

// searchFilterFromQuery maps query parameters onto the facet set. Multi-value
// facets accept both repeated parameters and comma-separated values.
func searchFilterFromQuery(q url.Values) SearchFilter {
	return SearchFilter{
		Name:         q.Get("name"),
		SKU:          q.Get("sku"),
		SupplierCode: q.Get("supplierCode"),
		PackageCodes: csvParam(q, "packageCode"),
		Categories:   csvParam(q, "category"),
		Description:  q.Get("description"),
		Keyword:      q.Get("q"),
	}
}

func csvParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		return "invalid fields: " + strings.Join(fields, ", ")
	}
	return err.Error()
}
