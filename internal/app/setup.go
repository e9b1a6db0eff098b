// Package app contains the application setup for the product service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/productcatalog/internal/config"
	_ "github.com/abgdnv/productcatalog/internal/docs" // registers the OpenAPI document
	"github.com/abgdnv/productcatalog/internal/service"
	"github.com/abgdnv/productcatalog/internal/store"
	grpcImpl "github.com/abgdnv/productcatalog/internal/transport/grpc"
	msgserver "github.com/abgdnv/productcatalog/internal/transport/messaging"
	"github.com/abgdnv/productcatalog/internal/transport/rest"
	pb "github.com/abgdnv/productcatalog/pkg/api/catalog/v1"
	"github.com/abgdnv/productcatalog/pkg/auth"
	pkgconfig "github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/kafka"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	pnats "github.com/abgdnv/productcatalog/pkg/nats"
	"github.com/abgdnv/productcatalog/pkg/server"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

const serviceName = "product-service"

// Infrastructure holds the connections the service is built on.
type Infrastructure struct {
	DB *pgxpool.Pool
	// Redis enables the product cache when set.
	Redis *redis.Client
	// Publisher receives product events; nil discards them.
	Publisher messaging.Publisher
	// Verifier guards the mutating REST routes when set.
	Verifier auth.Verifier
}

type Dependencies struct {
	ProductService service.ProductService
	DB             *pgxpool.Pool
	Verifier       auth.Verifier
	Config         *config.Config
	Logger         *slog.Logger
}

func SetupDependencies(infra Infrastructure, cfg *config.Config, logger *slog.Logger) *Dependencies {
	var productStore store.ProductStore = store.NewPgStore(infra.DB)
	if infra.Redis != nil {
		productStore = store.NewCachedStore(productStore, infra.Redis, cfg.Cache.TTL, logger.With("component", "cache"))
	}
	publisher := infra.Publisher
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	trManager := manager.Must(trmpgx.NewDefaultFactory(infra.DB))
	pService := service.NewService(productStore, trManager, publisher, cfg.Pagination, logger.With("component", "service"))

	return &Dependencies{
		ProductService: pService,
		DB:             infra.DB,
		Verifier:       infra.Verifier,
		Config:         cfg,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes and middleware of the REST API.
// Used by E2E tests to drive the service without a listener.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, serviceName)
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	opts := []rest.Option{rest.WithReadiness(deps.DB)}
	if deps.Verifier != nil {
		opts = append(opts, rest.WithAuth(auth.Middleware(deps.Verifier, deps.Logger)))
	}
	productHandler := rest.NewHandler(deps.ProductService, deps.Config.Pagination, deps.Logger, opts...)
	productHandler.RegisterRoutes(mux)

	mux.Handle("/metrics", promhttp.Handler())
	if deps.Config.HTTPServer.Swagger {
		mux.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	handler := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, handler)
}

// SetupGrpcServer initializes the gRPC server.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	catalogRegisterFunc := func(s *grpc.Server) {
		pb.RegisterProductCatalogServer(s, grpcImpl.NewServer(deps.ProductService, deps.Logger))
	}
	opts := []grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}
	return server.NewGRPCServer(reflectionEnabled, opts, catalogRegisterFunc)
}

// SetupMessageServer builds the NATS request-reply server.
func SetupMessageServer(deps *Dependencies) *msgserver.Server {
	return msgserver.NewServer(deps.ProductService, deps.Config.Messaging, deps.Logger)
}

// SetupPublisher builds the event publisher selected by events.driver.
// The returned closer releases driver resources and is never nil.
func SetupPublisher(ctx context.Context, cfg pkgconfig.EventsConfig, nc *nats.Conn, logger *slog.Logger) (messaging.Publisher, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case pkgconfig.EventsDriverNATS:
		if nc == nil {
			return nil, noop, fmt.Errorf("nats events driver requires a NATS connection")
		}
		js, err := pnats.NewJetStreamContext(nc)
		if err != nil {
			return nil, noop, err
		}
		if err := pnats.EnsureStream(ctx, js, cfg.Stream, messaging.ProductsStreamSubjects); err != nil {
			return nil, noop, err
		}
		return pnats.NewNatsPublisher(js), noop, nil
	case pkgconfig.EventsDriverKafka:
		p := kafka.NewPublisher(cfg.Kafka, logger.With("component", "kafka"))
		return p, p.Close, nil
	default:
		return messaging.NoopPublisher{}, noop, nil
	}
}
