// Package errors defines the structured errors returned by the product catalog.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a catalog error.
type Kind string

const (
	KindNotFound             Kind = "NotFound"
	KindPartialBatchMismatch Kind = "PartialBatchMismatch"
)

// CatalogError is a terminal, caller-facing error.
type CatalogError struct {
	Kind    Kind   `json:"kind"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any CatalogError of the same kind.
func (e *CatalogError) Is(target error) bool {
	var t *CatalogError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrProductNotFound = &CatalogError{
		Kind:    KindNotFound,
		Status:  http.StatusBadRequest,
		Message: "Product not exist",
	}
	ErrSomeProductsNotFound = &CatalogError{
		Kind:    KindPartialBatchMismatch,
		Status:  http.StatusBadRequest,
		Message: "Some products were not found",
	}
)

// AsCatalogError extracts a CatalogError from err's chain.
func AsCatalogError(err error) (*CatalogError, bool) {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
