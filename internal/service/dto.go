package service

import (
	"reflect"

	"github.com/abgdnv/productcatalog/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price" swaggertype:"number"`
	Available bool            `json:"available"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
// Available defaults to true when omitted.
type ProductCreateDto struct {
	Name      string           `json:"name"                validate:"required,max=100"`
	Price     *decimal.Decimal `json:"price"               validate:"required,min=0" swaggertype:"number"`
	Available *bool            `json:"available,omitempty"`
}

// ProductUpdateDto carries a partial update; nil fields are left unchanged.
type ProductUpdateDto struct {
	Name      *string          `json:"name,omitempty"      validate:"omitempty,max=100"`
	Price     *decimal.Decimal `json:"price,omitempty"     validate:"omitempty,min=0" swaggertype:"number"`
	Available *bool            `json:"available,omitempty"`
}

// PaginationDto selects a page; zero values take the defaults.
type PaginationDto struct {
	Page  int64 `json:"page,omitempty"  validate:"omitempty,min=1"`
	Limit int64 `json:"limit,omitempty" validate:"omitempty,min=1"`
}

// PageMeta describes the position of a page in the listing.
type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	LastPage int64 `json:"lastPage"`
}

// ProductPage is one page of available products.
type ProductPage struct {
	Data []ProductDto `json:"data"`
	Meta PageMeta     `json:"meta"`
}

// ValidateProductsDto lists the product IDs to validate.
type ValidateProductsDto struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,min=1"`
}

// NewValidator returns a validator that understands decimal prices.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Available: product.Available,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}

func (d ProductUpdateDto) changes() store.ProductChanges {
	return store.ProductChanges{
		Name:      d.Name,
		Price:     d.Price,
		Available: d.Available,
	}
}
