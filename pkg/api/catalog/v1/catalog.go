// Package catalogv1 declares the catalog.v1.ProductCatalog gRPC service.
// Messages are plain structs carried by the JSON codec registered in pkg/codec.
package catalogv1

import (
	"context"

	_ "github.com/abgdnv/productcatalog/pkg/codec" // registers the json content-subtype
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "catalog.v1.ProductCatalog"

const (
	ProductCatalog_Create_FullMethodName           = "/catalog.v1.ProductCatalog/Create"
	ProductCatalog_FindAll_FullMethodName          = "/catalog.v1.ProductCatalog/FindAll"
	ProductCatalog_FindOne_FullMethodName          = "/catalog.v1.ProductCatalog/FindOne"
	ProductCatalog_Update_FullMethodName           = "/catalog.v1.ProductCatalog/Update"
	ProductCatalog_Remove_FullMethodName           = "/catalog.v1.ProductCatalog/Remove"
	ProductCatalog_ValidateProducts_FullMethodName = "/catalog.v1.ProductCatalog/ValidateProducts"
)

type Product struct {
	Id        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

type CreateRequest struct {
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Available *bool            `json:"available,omitempty"`
}

type FindAllRequest struct {
	Page  int64 `json:"page,omitempty"`
	Limit int64 `json:"limit,omitempty"`
}

type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	LastPage int64 `json:"lastPage"`
}

type FindAllResponse struct {
	Data []*Product `json:"data"`
	Meta PageMeta   `json:"meta"`
}

type FindOneRequest struct {
	Id int64 `json:"id"`
}

type UpdateRequest struct {
	Id        int64            `json:"id"`
	Name      *string          `json:"name,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Available *bool            `json:"available,omitempty"`
}

type RemoveRequest struct {
	Id int64 `json:"id"`
}

type ValidateProductsRequest struct {
	Ids []int64 `json:"ids"`
}

type ValidateProductsResponse struct {
	Products []*Product `json:"products"`
}

// ProductCatalogClient is the client API for the ProductCatalog service.
type ProductCatalogClient interface {
	Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*Product, error)
	FindAll(ctx context.Context, in *FindAllRequest, opts ...grpc.CallOption) (*FindAllResponse, error)
	FindOne(ctx context.Context, in *FindOneRequest, opts ...grpc.CallOption) (*Product, error)
	Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*Product, error)
	Remove(ctx context.Context, in *RemoveRequest, opts ...grpc.CallOption) (*Product, error)
	ValidateProducts(ctx context.Context, in *ValidateProductsRequest, opts ...grpc.CallOption) (*ValidateProductsResponse, error)
}

type productCatalogClient struct {
	cc grpc.ClientConnInterface
}

// NewProductCatalogClient returns a client that always negotiates the JSON codec.
func NewProductCatalogClient(cc grpc.ClientConnInterface) ProductCatalogClient {
	return &productCatalogClient{cc}
}

func (c *productCatalogClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype("json")}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *productCatalogClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*Product, error) {
	out := new(Product)
	if err := c.invoke(ctx, ProductCatalog_Create_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *productCatalogClient) FindAll(ctx context.Context, in *FindAllRequest, opts ...grpc.CallOption) (*FindAllResponse, error) {
	out := new(FindAllResponse)
	if err := c.invoke(ctx, ProductCatalog_FindAll_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *productCatalogClient) FindOne(ctx context.Context, in *FindOneRequest, opts ...grpc.CallOption) (*Product, error) {
	out := new(Product)
	if err := c.invoke(ctx, ProductCatalog_FindOne_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *productCatalogClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*Product, error) {
	out := new(Product)
	if err := c.invoke(ctx, ProductCatalog_Update_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *productCatalogClient) Remove(ctx context.Context, in *RemoveRequest, opts ...grpc.CallOption) (*Product, error) {
	out := new(Product)
	if err := c.invoke(ctx, ProductCatalog_Remove_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *productCatalogClient) ValidateProducts(ctx context.Context, in *ValidateProductsRequest, opts ...grpc.CallOption) (*ValidateProductsResponse, error) {
	out := new(ValidateProductsResponse)
	if err := c.invoke(ctx, ProductCatalog_ValidateProducts_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductCatalogServer is the server API for the ProductCatalog service.
type ProductCatalogServer interface {
	Create(context.Context, *CreateRequest) (*Product, error)
	FindAll(context.Context, *FindAllRequest) (*FindAllResponse, error)
	FindOne(context.Context, *FindOneRequest) (*Product, error)
	Update(context.Context, *UpdateRequest) (*Product, error)
	Remove(context.Context, *RemoveRequest) (*Product, error)
	ValidateProducts(context.Context, *ValidateProductsRequest) (*ValidateProductsResponse, error)
}

func RegisterProductCatalogServer(s grpc.ServiceRegistrar, srv ProductCatalogServer) {
	s.RegisterService(&ProductCatalog_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodDesc, running the server interceptor chain.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ProductCatalogServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProductCatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProductCatalogServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ProductCatalog_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductCatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Create",
			Handler: unaryHandler(ProductCatalog_Create_FullMethodName,
				func(s ProductCatalogServer, ctx context.Context, in *CreateRequest) (*Product, error) {
					return s.Create(ctx, in)
				}),
		},
		{
			MethodName: "FindAll",
			Handler: unaryHandler(ProductCatalog_FindAll_FullMethodName,
				func(s ProductCatalogServer, ctx context.Context, in *FindAllRequest) (*FindAllResponse, error) {
					return s.FindAll(ctx, in)
				}),
		},
		{
			MethodName: "FindOne",
			Handler: unaryHandler(ProductCatalog_FindOne_FullMethodName,
				func(s ProductCatalogServer, ctx context.Context, in *FindOneRequest) (*Product, error) {
					return s.FindOne(ctx, in)
				}),
		},
		{
			MethodName: "Update",
			Handler: unaryHandler(ProductCatalog_Update_FullMethodName,
				func(s ProductCatalogServer, ctx context.Context, in *UpdateRequest) (*Product, error) {
					return s.Update(ctx, in)
				}),
		},
		{
			MethodName: "Remove",
			Handler: unaryHandler(ProductCatalog_Remove_FullMethodName,
				func(s ProductCatalogServer, ctx context.Context, in *RemoveRequest) (*Product, error) {
					return s.Remove(ctx, in)
				}),
		},
		{
			MethodName: "ValidateProducts",
			Handler: unaryHandler(ProductCatalog_ValidateProducts_FullMethodName,
				func(s ProductCatalogServer, ctx context.Context, in *ValidateProductsRequest) (*ValidateProductsResponse, error) {
					return s.ValidateProducts(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
}
