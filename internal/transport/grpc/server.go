// Package grpc provides a gRPC server for the product catalog.
package grpc

import (
	"context"
	"log/slog"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/service"
	pb "github.com/abgdnv/productcatalog/pkg/api/catalog/v1"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	service    service.ProductService
	validate   *validator.Validate
	logger     *slog.Logger
}

var _ pb.ProductCatalogServer = (*Server)(nil)

func NewServer(svc service.ProductService, logger *slog.Logger) *Server {
	return &Server{
		service:    svc,
		validate:   service.NewValidator(),
		logger:     logger.With("component", "grpc"),
	}
}

func (s *Server) Create(ctx context.Context, req *pb.CreateRequest) (*pb.Product, error) {
	dto := service.ProductCreateDto{Name: req.Name, Price: req.Price, Available: req.Available}
	if err := s.validateRequest(ctx, dto); err != nil {
		return nil, err
	}
	created, err := s.service.Create(ctx, dto)
	if err != nil {
		return nil, s.toStatus(ctx, "Create", err)
	}
	return toProduct(created), nil
}

func (s *Server) FindAll(ctx context.Context, req *pb.FindAllRequest) (*pb.FindAllResponse, error) {
	dto := service.PaginationDto{Page: req.Page, Limit: req.Limit}
	if err := s.validateRequest(ctx, dto); err != nil {
		return nil, err
	}
	page, err := s.service.FindAll(ctx, dto)
	if err != nil {
		return nil, s.toStatus(ctx, "FindAll", err)
	}
	return &pb.FindAllResponse{
		Data: toProducts(page.Data),
		Meta: pb.PageMeta{Total: page.Meta.Total, Page: page.Meta.Page, LastPage: page.Meta.LastPage},
	}, nil
}

func (s *Server) FindOne(ctx context.Context, req *pb.FindOneRequest) (*pb.Product, error) {
	if req.Id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", req.Id)
	}
	found, err := s.service.FindOne(ctx, req.Id)
	if err != nil {
		return nil, s.toStatus(ctx, "FindOne", err)
	}
	return toProduct(found), nil
}

func (s *Server) Update(ctx context.Context, req *pb.UpdateRequest) (*pb.Product, error) {
	if req.Id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", req.Id)
	}
	dto := service.ProductUpdateDto{Name: req.Name, Price: req.Price, Available: req.Available}
	if err := s.validateRequest(ctx, dto); err != nil {
		return nil, err
	}
	updated, err := s.service.Update(ctx, req.Id, dto)
	if err != nil {
		return nil, s.toStatus(ctx, "Update", err)
	}
	return toProduct(updated), nil
}

func (s *Server) Remove(ctx context.Context, req *pb.RemoveRequest) (*pb.Product, error) {
	if req.Id <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", req.Id)
	}
	removed, err := s.service.Remove(ctx, req.Id)
	if err != nil {
		return nil, s.toStatus(ctx, "Remove", err)
	}
	return toProduct(removed), nil
}

func (s *Server) ValidateProducts(ctx context.Context, req *pb.ValidateProductsRequest) (*pb.ValidateProductsResponse, error) {
	dto := service.ValidateProductsDto{IDs: req.Ids}
	if err := s.validateRequest(ctx, dto); err != nil {
		return nil, err
	}
	products, err := s.service.ValidateProducts(ctx, dto.IDs)
	if err != nil {
		return nil, s.toStatus(ctx, "ValidateProducts", err)
	}
	return &pb.ValidateProductsResponse{Products: toProducts(products)}, nil
}

func (s *Server) validateRequest(ctx context.Context, dto any) error {
	err := s.validate.Struct(dto)
	if err == nil {
		return nil
	}
	if fields, ok := web.ValidationErrors(err); ok {
		s.logger.WarnContext(ctx, "Validation errors occurred", "errors", fields)
		return status.Errorf(codes.InvalidArgument, "validation failed: %v", fields)
	}
	return status.Error(codes.InvalidArgument, "invalid request")
}

// toStatus maps catalog errors to InvalidArgument carrying their message; anything else is Internal.
func (s *Server) toStatus(ctx context.Context, method string, err error) error {
	if ce, ok := perrors.AsCatalogError(err); ok {
		s.logger.WarnContext(ctx, "request rejected", "method", method, "kind", ce.Kind)
		return status.Error(codes.InvalidArgument, ce.Message)
	}
	s.logger.ErrorContext(ctx, "service call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal server error")
}

func toProduct(dto *service.ProductDto) *pb.Product {
	return &pb.Product{
		Id:        dto.ID,
		Name:      dto.Name,
		Price:     dto.Price,
		Available: dto.Available,
	}
}

func toProducts(dtos []service.ProductDto) []*pb.Product {
	products := make([]*pb.Product, len(dtos))
	for i := range dtos {
		products[i] = toProduct(&dtos[i])
	}
	return products
}
