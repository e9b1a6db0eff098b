// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/store"
	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	"github.com/abgdnv/productcatalog/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// Create adds a new product and returns it with its assigned ID.
	Create(ctx context.Context, dto ProductCreateDto) (*ProductDto, error)

	// FindAll returns one page of available products ordered by ID.
	// A page past the last one has empty data and populated meta.
	FindAll(ctx context.Context, pagination PaginationDto) (*ProductPage, error)

	// FindOne returns an available product.
	// Returns ErrProductNotFound if no available product exists with the given ID.
	FindOne(ctx context.Context, id int64) (*ProductDto, error)

	// Update applies the provided fields to an available product.
	// Returns ErrProductNotFound if no available product exists with the given ID.
	Update(ctx context.Context, id int64, dto ProductUpdateDto) (*ProductDto, error)

	// Remove marks an available product unavailable and returns it.
	// Returns ErrProductNotFound if no available product exists with the given ID.
	Remove(ctx context.Context, id int64) (*ProductDto, error)

	// ValidateProducts returns the products for the distinct ids, ordered by ID.
	// Returns ErrSomeProductsNotFound unless every id is an available product.
	ValidateProducts(ctx context.Context, ids []int64) ([]ProductDto, error)
}

// TxManager runs fn in a transaction carried by the context passed to fn.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements ProductService.
type Service struct {
	store      store.ProductStore
	trManager  TxManager
	publisher  messaging.Publisher
	pagination config.PaginationConfig
	logger     *slog.Logger

	createdCounter    metric.Int64Counter
	removedCounter    metric.Int64Counter
	validationCounter metric.Int64Counter
}

// NewService creates a new instance of ProductService.
func NewService(productStore store.ProductStore, trManager TxManager, publisher messaging.Publisher,
	pagination config.PaginationConfig, logger *slog.Logger) *Service {
	meter := otel.Meter("product-service")
	return &Service{
		store:             productStore,
		trManager:         trManager,
		publisher:         publisher,
		pagination:        pagination,
		logger:            logger,
		createdCounter:    mustCounter(meter, "products_created", "Total number of created products"),
		removedCounter:    mustCounter(meter, "products_removed", "Total number of soft-deleted products"),
		validationCounter: mustCounter(meter, "product_validation_failures", "Total number of failed product batch validations"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// Create inserts a product. Available defaults to true.
func (s *Service) Create(ctx context.Context, dto ProductCreateDto) (*ProductDto, error) {
	available := true
	if dto.Available != nil {
		available = *dto.Available
	}
	if dto.Price == nil {
		return nil, fmt.Errorf("failed to create product: price is required")
	}
	product, err := s.store.Create(ctx, dto.Name, *dto.Price, available)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publish(ctx, events.TypeCreated, product)
	s.createdCounter.Add(ctx, 1)
	return toDto(product), nil
}

// FindAll returns the requested page together with the listing meta.
func (s *Service) FindAll(ctx context.Context, pagination PaginationDto) (*ProductPage, error) {
	page, limit := pagination.Page, pagination.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = int64(s.pagination.DefaultLimit)
	}

	total, err := s.store.CountAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	meta := PageMeta{Total: total, Page: page, LastPage: lastPage(total, limit)}

	// pages past the end are empty; their offset may not even fit in int64
	if page-1 > math.MaxInt64/limit || (page-1)*limit >= total {
		return &ProductPage{Data: []ProductDto{}, Meta: meta}, nil
	}
	products, err := s.store.FindAll(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return &ProductPage{Data: toDtos(products), Meta: meta}, nil
}

// lastPage is ceil(total/limit) without overflowing for limits near MaxInt64.
func lastPage(total, limit int64) int64 {
	if total <= 0 {
		return 0
	}
	return (total-1)/limit + 1
}

// FindOne retrieves an available product by its ID.
func (s *Service) FindOne(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// Update checks that the product is available and applies the provided fields in one transaction.
func (s *Service) Update(ctx context.Context, id int64, dto ProductUpdateDto) (*ProductDto, error) {
	var updated *store.Product
	err := s.trManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.FindOne(ctx, id); err != nil {
			return err
		}
		var err error
		updated, err = s.store.Update(ctx, id, dto.changes())
		if err != nil {
			return fmt.Errorf("failed to update product with ID %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.TypeUpdated, updated)
	return toDto(updated), nil
}

// Remove soft-deletes an available product in one transaction.
func (s *Service) Remove(ctx context.Context, id int64) (*ProductDto, error) {
	var removed *store.Product
	err := s.trManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.FindOne(ctx, id); err != nil {
			return err
		}
		var err error
		removed, err = s.store.Deactivate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to remove product with ID %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, events.TypeRemoved, removed)
	s.removedCounter.Add(ctx, 1)
	return toDto(removed), nil
}

// ValidateProducts confirms that every distinct id is an available product.
func (s *Service) ValidateProducts(ctx context.Context, ids []int64) ([]ProductDto, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	products, err := s.store.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	if len(products) != len(unique) {
		s.validationCounter.Add(ctx, 1)
		s.logger.WarnContext(ctx, "product validation failed", "requested", len(unique), "found", len(products))
		return nil, perrors.ErrSomeProductsNotFound
	}
	return toDtos(products), nil
}

// invalidate drops cached copies of id once the transaction has committed.
func (s *Service) invalidate(ctx context.Context, id int64) {
	if inv, ok := s.store.(store.CacheInvalidator); ok {
		inv.Invalidate(ctx, id)
	}
}

// publish emits a product event. Failures are logged; the change is already committed.
func (s *Service) publish(ctx context.Context, eventType string, product *store.Product) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.ProductEvent{
		Type:       eventType,
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		Available:  product.Available,
		OccurredAt: time.Now().UTC(),
		Carrier:    carrier,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}
