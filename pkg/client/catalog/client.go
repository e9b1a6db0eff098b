// Package catalog is a resilient gRPC client for the product catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	pb "github.com/abgdnv/productcatalog/pkg/api/catalog/v1"
	"github.com/abgdnv/productcatalog/pkg/client/grpc/interceptors"
	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Messages the catalog puts on InvalidArgument statuses.
const (
	productNotFoundMessage      = "Product not exist"
	someProductsNotFoundMessage = "Some products were not found"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrSomeProductsNotFound = errors.New("some products were not found")
)

type Product = pb.Product

type Client struct {
	conn *grpc.ClientConn
	api  pb.ProductCatalogClient
}

// New dials the catalog at cfg.Addr. Every call is bounded by cfg.Timeout and guarded by a
// circuit breaker. Reads are retried on transient codes; writes are not, since a retried
// Create can insert the product twice. Unset config values take the catalog client defaults.
// Extra options are appended to the defaults.
func New(cfg config.GrpcClientConfig, resilience config.ResilienceConfig, opts ...grpc.DialOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := resilience.Validate(); err != nil {
		return nil, err
	}
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			interceptors.UnaryClientTimeoutInterceptor(cfg.Timeout),
			interceptors.NewRetryInterceptor(resilience.Retry),
			interceptors.NewCircuitBreaker("product-catalog", resilience.CircuitBreaker),
		),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	conn, err := grpc.NewClient(cfg.Addr, append(dialOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	return &Client{conn: conn, api: pb.NewProductCatalogClient(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Create(ctx context.Context, name string, price decimal.Decimal, available bool) (*Product, error) {
	p, err := c.api.Create(ctx, &pb.CreateRequest{Name: name, Price: &price, Available: &available}, retry.Disable())
	return p, mapError(err)
}

func (c *Client) FindAll(ctx context.Context, page, limit int64) (*pb.FindAllResponse, error) {
	resp, err := c.api.FindAll(ctx, &pb.FindAllRequest{Page: page, Limit: limit})
	return resp, mapError(err)
}

func (c *Client) FindOne(ctx context.Context, id int64) (*Product, error) {
	p, err := c.api.FindOne(ctx, &pb.FindOneRequest{Id: id})
	return p, mapError(err)
}

func (c *Client) Update(ctx context.Context, req *pb.UpdateRequest) (*Product, error) {
	p, err := c.api.Update(ctx, req, retry.Disable())
	return p, mapError(err)
}

func (c *Client) Remove(ctx context.Context, id int64) (*Product, error) {
	p, err := c.api.Remove(ctx, &pb.RemoveRequest{Id: id}, retry.Disable())
	return p, mapError(err)
}

// ValidateProducts returns the products for ids, or ErrSomeProductsNotFound.
func (c *Client) ValidateProducts(ctx context.Context, ids []int64) ([]*Product, error) {
	resp, err := c.api.ValidateProducts(ctx, &pb.ValidateProductsRequest{Ids: ids})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Products, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		return err
	}
	switch st.Message() {
	case productNotFoundMessage:
		return fmt.Errorf("%w: %s", ErrProductNotFound, st.Message())
	case someProductsNotFoundMessage:
		return fmt.Errorf("%w: %s", ErrSomeProductsNotFound, st.Message())
	}
	return err
}
