package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	perrors "github.com/abgdnv/productcatalog/internal/errors"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productsTable = "products"

var productColumns = []string{"id", "name", "price", "available", "created_at", "updated_at"}

// returning is the RETURNING clause shared by the write queries.
var returning = "RETURNING id, name, price, available, created_at, updated_at"

// PgStore implements ProductStore using PostgreSQL as the data store.
// Queries run inside the transaction carried by ctx, if any.
type PgStore struct {
	db     *pgxpool.Pool
	getter *trmpgx.CtxGetter
	sb     squirrel.StatementBuilderType
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db:     dbp,
		getter: trmpgx.DefaultCtxGetter,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *PgStore) conn(ctx context.Context) trmpgx.Tr {
	return p.getter.DefaultTrOrDB(ctx, p.db)
}

// Create inserts a product and returns it with the assigned ID.
func (p *PgStore) Create(ctx context.Context, name string, price decimal.Decimal, available bool) (*Product, error) {
	query, args, err := p.sb.Insert(productsTable).
		Columns("name", "price", "available").
		Values(name, price, available).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}
	product, err := p.queryOne(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// CountAvailable returns the number of available products.
func (p *PgStore) CountAvailable(ctx context.Context) (int64, error) {
	query, args, err := p.sb.Select("COUNT(*)").
		From(productsTable).
		Where(squirrel.Eq{"available": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := p.conn(ctx).QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// FindAll returns a page of available products ordered by ID.
func (p *PgStore) FindAll(ctx context.Context, offset, limit int64) ([]Product, error) {
	query, args, err := p.sb.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"available": true}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}
	products, err := p.queryMany(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindByID returns an available product.
// Returns ErrProductNotFound if the product does not exist or is unavailable.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	query, args, err := p.sb.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": id, "available": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}
	product, err := p.queryOne(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindByIDs returns the available products among ids, ordered by ID.
func (p *PgStore) FindByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	query, args, err := p.sb.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": ids, "available": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}
	products, err := p.queryMany(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	return products, nil
}

// Update applies changes to an available product.
// An empty change set returns the current row.
func (p *PgStore) Update(ctx context.Context, id int64, changes ProductChanges) (*Product, error) {
	if changes.IsEmpty() {
		return p.FindByID(ctx, id)
	}
	set := map[string]any{"updated_at": squirrel.Expr("NOW()")}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Price != nil {
		set["price"] = *changes.Price
	}
	if changes.Available != nil {
		set["available"] = *changes.Available
	}
	query, args, err := p.sb.Update(productsTable).
		SetMap(set).
		Where(squirrel.Eq{"id": id, "available": true}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}
	product, err := p.queryOne(ctx, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Deactivate sets available = false.
// Returns ErrProductNotFound if the product does not exist or is already unavailable.
func (p *PgStore) Deactivate(ctx context.Context, id int64) (*Product, error) {
	unavailable := false
	product, err := p.Update(ctx, id, ProductChanges{Available: &unavailable})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (p *PgStore) queryOne(ctx context.Context, query string, args ...any) (*Product, error) {
	rows, err := p.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	product, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Product])
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (p *PgStore) queryMany(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := p.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Product])
}
