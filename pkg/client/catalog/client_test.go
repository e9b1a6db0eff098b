package catalog

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	pb "github.com/abgdnv/productcatalog/pkg/api/catalog/v1"
	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// fakeCatalog answers ValidateProducts, FindOne and Create. Other methods must not be called.
type fakeCatalog struct {
	pb.ProductCatalogServer
	known       map[int64]*pb.Product
	unavailable atomic.Int32
	calls       atomic.Int32
}

func (f *fakeCatalog) FindOne(_ context.Context, req *pb.FindOneRequest) (*pb.Product, error) {
	f.calls.Add(1)
	if f.unavailable.Load() > 0 {
		f.unavailable.Add(-1)
		return nil, status.Error(codes.Unavailable, "try again")
	}
	p, ok := f.known[req.Id]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, productNotFoundMessage)
	}
	return p, nil
}

func (f *fakeCatalog) Create(_ context.Context, req *pb.CreateRequest) (*pb.Product, error) {
	f.calls.Add(1)
	if f.unavailable.Load() > 0 {
		f.unavailable.Add(-1)
		return nil, status.Error(codes.Unavailable, "try again")
	}
	return &pb.Product{Id: 3, Name: req.Name, Price: *req.Price, Available: true}, nil
}

func (f *fakeCatalog) ValidateProducts(_ context.Context, req *pb.ValidateProductsRequest) (*pb.ValidateProductsResponse, error) {
	var out []*pb.Product
	for _, id := range req.Ids {
		p, ok := f.known[id]
		if !ok {
			return nil, status.Error(codes.InvalidArgument, someProductsNotFoundMessage)
		}
		out = append(out, p)
	}
	return &pb.ValidateProductsResponse{Products: out}, nil
}

func startCatalog(t *testing.T, fake *fakeCatalog) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	pb.RegisterProductCatalogServer(srv, fake)
	go func() {
		_ = srv.Serve(lis)
	}()

	client, err := New(
		config.GrpcClientConfig{Addr: "passthrough://bufnet", Timeout: time.Second},
		config.ResilienceConfig{
			Retry:          config.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond},
			CircuitBreaker: config.CircuitBreakerConfig{ConsecutiveFailures: 5, ErrorRatePercent: 50, OpenTimeout: time.Second},
		},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
		srv.Stop()
		_ = lis.Close()
	})
	return client
}

func newFake() *fakeCatalog {
	return &fakeCatalog{known: map[int64]*pb.Product{
		1: {Id: 1, Name: "Widget", Price: decimal.RequireFromString("9.99"), Available: true},
		2: {Id: 2, Name: "Gadget", Price: decimal.RequireFromString("19.99"), Available: true},
	}}
}

func TestClient_ValidateProducts(t *testing.T) {
	testCases := []struct {
		name    string
		ids     []int64
		wantLen int
		wantErr error
	}{
		{"all known", []int64{1, 2}, 2, nil},
		{"one missing", []int64{1, 999}, 0, ErrSomeProductsNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			client := startCatalog(t, newFake())

			// when
			products, err := client.ValidateProducts(context.Background(), tc.ids)

			// then
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, products, tc.wantLen)
		})
	}
}

func TestClient_FindOne_NotFound(t *testing.T) {
	client := startCatalog(t, newFake())

	_, err := client.FindOne(context.Background(), 42)

	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestClient_FindOne_RetriesTransientErrors(t *testing.T) {
	// given
	fake := newFake()
	fake.unavailable.Store(2)
	client := startCatalog(t, fake)

	// when
	p, err := client.FindOne(context.Background(), 1)

	// then
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, int32(3), fake.calls.Load())
}

func TestClient_Create_IsNotRetried(t *testing.T) {
	// given
	fake := newFake()
	fake.unavailable.Store(1)
	client := startCatalog(t, fake)

	// when
	_, err := client.Create(context.Background(), "Lamp", decimal.RequireFromString("12.50"), true)

	// then
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestNew_Config(t *testing.T) {
	testCases := []struct {
		name       string
		cfg        config.GrpcClientConfig
		resilience config.ResilienceConfig
		wantErr    bool
	}{
		{"defaults fill unset values", config.GrpcClientConfig{Addr: "passthrough://catalog"}, config.ResilienceConfig{}, false},
		{"missing address", config.GrpcClientConfig{}, config.ResilienceConfig{}, true},
		{"error rate above 100", config.GrpcClientConfig{Addr: "passthrough://catalog"},
			config.ResilienceConfig{CircuitBreaker: config.CircuitBreakerConfig{ErrorRatePercent: 150}}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			client, err := New(tc.cfg, tc.resilience)

			// then
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, client.Close())
		})
	}
}

func TestResilienceConfig_Defaults(t *testing.T) {
	// given
	var cfg config.ResilienceConfig

	// when
	err := cfg.Validate()

	// then
	require.NoError(t, err)
	assert.Equal(t, uint(3), cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.ConsecutiveFailures)
	assert.Equal(t, 50, cfg.CircuitBreaker.ErrorRatePercent)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreaker.OpenTimeout)
}
