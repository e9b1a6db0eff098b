// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/service"
	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	service    service.ProductService
	validate   *validator.Validate
	pagination config.PaginationConfig
	ready      Pinger
	protect    func(http.Handler) http.Handler
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithAuth guards the mutating routes with mw.
func WithAuth(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.protect = mw
	}
}

// WithReadiness makes /readyz report the state of p.
func WithReadiness(p Pinger) Option {
	return func(h *Handler) {
		h.ready = p
	}
}

// NewHandler creates a new instance of the product REST API.
func NewHandler(svc service.ProductService, pagination config.PaginationConfig, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:    svc,
		validate:   service.NewValidator(),
		pagination: pagination,
		logger:     logger.With("component", "rest"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Get("/{id}", h.FindOne)

		r.Group(func(r chi.Router) {
			if h.protect != nil {
				r.Use(h.protect)
			}
			r.Post("/", h.Create)
			r.Post("/validate", h.ValidateProducts)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Remove)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
}

// FindAll returns one page of available products.
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Param		page	query		int	false	"Page number"	minimum(1)	default(1)
//	@Param		limit	query		int	false	"Page size"		minimum(1)	default(10)
//	@Success	200		{object}	service.ProductPage
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/v1/products [get]
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	page, ok := web.ParseQueryInt(r, w, h.logger, "page", 1, web.Gte(1))
	if !ok {
		return
	}
	limit, ok := web.ParseQueryInt(r, w, h.logger, "limit", int64(h.pagination.DefaultLimit),
		web.Gte(1))
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find all products", "page", page, "limit", limit)
	result, err := h.service.FindAll(r.Context(), service.PaginationDto{Page: page, Limit: limit})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(result.Data))
	web.RespondJSON(w, h.logger, http.StatusOK, result)
}

// FindOne retrieves an available product by its ID.
//
//	@Summary	Get a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"Product ID"
//	@Success	200	{object}	service.ProductDto
//	@Failure	400	{object}	CatalogErrorResponse
//	@Router		/api/v1/products/{id} [get]
func (h *Handler) FindOne(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	found, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve product")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
//
//	@Summary	Create a product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		product	body		service.ProductCreateDto	true	"New product"
//	@Success	201		{object}	service.ProductDto
//	@Failure	400		{object}	ValidationErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductCreateDto
	if !web.DecodeJSON(w, r, h.logger, &dto) || !web.ValidateStruct(w, r, h.logger, h.validate, dto) {
		return
	}
	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Update applies a partial update.
//
//	@Summary	Update a product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int							true	"Product ID"
//	@Param		changes	body		service.ProductUpdateDto	true	"Fields to change"
//	@Success	200		{object}	service.ProductDto
//	@Failure	400		{object}	CatalogErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/products/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.ProductUpdateDto
	if !web.DecodeJSON(w, r, h.logger, &dto) || !web.ValidateStruct(w, r, h.logger, h.validate, dto) {
		return
	}
	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to update product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// Remove soft-deletes a product and returns it.
//
//	@Summary	Remove a product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"Product ID"
//	@Success	200	{object}	service.ProductDto
//	@Failure	400	{object}	CatalogErrorResponse
//	@Failure	401	{object}	ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/products/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	removed, err := h.service.Remove(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to remove product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product removed successfully", "ID", removed.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, removed)
}

// ValidateProducts confirms that every id is an available product.
//
//	@Summary	Validate product IDs
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		ids	body		service.ValidateProductsDto	true	"Product IDs"
//	@Success	200	{array}		service.ProductDto
//	@Failure	400	{object}	CatalogErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/products/validate [post]
func (h *Handler) ValidateProducts(w http.ResponseWriter, r *http.Request) {
	var dto service.ValidateProductsDto
	if !web.DecodeJSON(w, r, h.logger, &dto) || !web.ValidateStruct(w, r, h.logger, h.validate, dto) {
		return
	}
	products, err := h.service.ValidateProducts(r.Context(), dto.IDs)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to validate products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, products)
}

// HealthCheck is a simple liveness endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck reports 503 while the database is unreachable.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Service unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// respondServiceError writes catalog errors with their own status and anything else as a 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if ce, ok := perrors.AsCatalogError(err); ok {
		h.logger.WarnContext(r.Context(), "Request rejected", "kind", ce.Kind, "error", err)
		web.RespondJSON(w, h.logger, ce.Status, ce)
		return
	}
	h.logger.ErrorContext(r.Context(), message, "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, message)
}

// ErrorResponse is the body of infrastructure and authentication failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CatalogErrorResponse is the body of catalog errors.
type CatalogErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// ValidationErrorResponse maps rejected fields to the failed rule.
type ValidationErrorResponse struct {
	ValidationErrors map[string]string `json:"validation_errors"`
}
