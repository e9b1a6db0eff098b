package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/service"
	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockProductService is a mock implementation of the ProductService interface
type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) Create(ctx context.Context, dto service.ProductCreateDto) (*service.ProductDto, error) {
	args := m.Called(ctx, dto)
	p, _ := args.Get(0).(*service.ProductDto)
	return p, args.Error(1)
}

func (m *mockProductService) FindAll(ctx context.Context, pagination service.PaginationDto) (*service.ProductPage, error) {
	args := m.Called(ctx, pagination)
	p, _ := args.Get(0).(*service.ProductPage)
	return p, args.Error(1)
}

func (m *mockProductService) FindOne(ctx context.Context, id int64) (*service.ProductDto, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*service.ProductDto)
	return p, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id int64, dto service.ProductUpdateDto) (*service.ProductDto, error) {
	args := m.Called(ctx, id, dto)
	p, _ := args.Get(0).(*service.ProductDto)
	return p, args.Error(1)
}

func (m *mockProductService) Remove(ctx context.Context, id int64) (*service.ProductDto, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*service.ProductDto)
	return p, args.Error(1)
}

func (m *mockProductService) ValidateProducts(ctx context.Context, ids []int64) ([]service.ProductDto, error) {
	args := m.Called(ctx, ids)
	p, _ := args.Get(0).([]service.ProductDto)
	return p, args.Error(1)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(svc service.ProductService, opts ...Option) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, config.PaginationConfig{DefaultLimit: 10}, logger, opts...)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var widget = &service.ProductDto{ID: 1, Name: "Widget", Price: decimal.RequireFromString("9.99"), Available: true}

func Test_ProductAPI_FindOne(t *testing.T) {
	testCases := []struct {
		name         string
		target       string
		setup        func(m *mockProductService)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "Success - product found",
			target: "/api/v1/products/1",
			setup: func(m *mockProductService) {
				m.On("FindOne", mock.Anything, int64(1)).Return(widget, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"id":1,"name":"Widget","price":9.99,"available":true}`,
		},
		{
			name:   "Error - product not found",
			target: "/api/v1/products/2",
			setup: func(m *mockProductService) {
				m.On("FindOne", mock.Anything, int64(2)).Return(nil, perrors.ErrProductNotFound)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"kind":"NotFound","status":400,"message":"Product not exist"}`,
		},
		{
			name:         "Error - invalid id",
			target:       "/api/v1/products/abc",
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid ID: abc"}`,
		},
		{
			name:   "Error - service error",
			target: "/api/v1/products/3",
			setup: func(m *mockProductService) {
				m.On("FindOne", mock.Anything, int64(3)).Return(nil, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Failed to retrieve product"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(mockProductService)
			tc.setup(svc)

			// when
			rr := do(t, newTestRouter(svc), http.MethodGet, tc.target, "")

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func Test_ProductAPI_FindAll(t *testing.T) {
	page := &service.ProductPage{
		Data: []service.ProductDto{*widget},
		Meta: service.PageMeta{Total: 1, Page: 1, LastPage: 1},
	}
	testCases := []struct {
		name         string
		query        string
		expected     *service.PaginationDto
		expectedCode int
	}{
		{"defaults", "", &service.PaginationDto{Page: 1, Limit: 10}, http.StatusOK},
		{"explicit page", "?page=3&limit=5", &service.PaginationDto{Page: 3, Limit: 5}, http.StatusOK},
		{"zero page", "?page=0", nil, http.StatusBadRequest},
		{"large limit", "?limit=1000", &service.PaginationDto{Page: 1, Limit: 1000}, http.StatusOK},
		{"zero limit", "?limit=0", nil, http.StatusBadRequest},
		{"non-numeric limit", "?limit=ten", nil, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(mockProductService)
			if tc.expected != nil {
				svc.On("FindAll", mock.Anything, *tc.expected).Return(page, nil)
			}

			// when
			rr := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/products"+tc.query, "")

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expected != nil {
				assert.JSONEq(t, `{"data":[{"id":1,"name":"Widget","price":9.99,"available":true}],"meta":{"total":1,"page":1,"lastPage":1}}`, rr.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func Test_ProductAPI_Create(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		callsService bool
		expectedCode int
	}{
		{"Success", `{"name":"Widget","price":9.99}`, true, http.StatusCreated},
		{"Error - missing price", `{"name":"Widget"}`, false, http.StatusBadRequest},
		{"Error - negative price", `{"name":"Widget","price":-1}`, false, http.StatusBadRequest},
		{"Error - unknown field", `{"name":"Widget","price":1,"id":5}`, false, http.StatusBadRequest},
		{"Error - malformed", `{"name":`, false, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(mockProductService)
			if tc.callsService {
				svc.On("Create", mock.Anything, mock.MatchedBy(func(dto service.ProductCreateDto) bool {
					return dto.Name == "Widget" && dto.Price != nil && dto.Price.Equal(decimal.RequireFromString("9.99")) && dto.Available == nil
				})).Return(widget, nil)
			}

			// when
			rr := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/products", tc.body)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, rr.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func Test_ProductAPI_Create_ValidationBody(t *testing.T) {
	rr := do(t, newTestRouter(new(mockProductService)), http.MethodPost, "/api/v1/products", `{"price":1}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "failed on rule: required", body.ValidationErrors["Name"])
}

func Test_ProductAPI_Update(t *testing.T) {
	// given
	svc := new(mockProductService)
	svc.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(dto service.ProductUpdateDto) bool {
		return dto.Name == nil && dto.Available == nil && dto.Price != nil && dto.Price.Equal(decimal.RequireFromString("12"))
	})).Return(&service.ProductDto{ID: 1, Name: "Widget", Price: decimal.RequireFromString("12"), Available: true}, nil)

	// when
	rr := do(t, newTestRouter(svc), http.MethodPatch, "/api/v1/products/1", `{"price":12}`)

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"name":"Widget","price":12,"available":true}`, rr.Body.String())
	svc.AssertExpectations(t)
}

func Test_ProductAPI_Update_IDIsNotUpdatable(t *testing.T) {
	svc := new(mockProductService)

	rr := do(t, newTestRouter(svc), http.MethodPatch, "/api/v1/products/1", `{"id":2}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func Test_ProductAPI_Remove(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
	}{
		{"Success", nil, http.StatusOK, `{"id":1,"name":"Widget","price":9.99,"available":false}`},
		{"Error - already removed", perrors.ErrProductNotFound, http.StatusBadRequest, `{"kind":"NotFound","status":400,"message":"Product not exist"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(mockProductService)
			if tc.err != nil {
				svc.On("Remove", mock.Anything, int64(1)).Return(nil, tc.err)
			} else {
				removed := *widget
				removed.Available = false
				svc.On("Remove", mock.Anything, int64(1)).Return(&removed, nil)
			}

			// when
			rr := do(t, newTestRouter(svc), http.MethodDelete, "/api/v1/products/1", "")

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_ProductAPI_ValidateProducts(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		setup        func(m *mockProductService)
		expectedCode int
	}{
		{
			name: "Success",
			body: `{"ids":[1,1]}`,
			setup: func(m *mockProductService) {
				m.On("ValidateProducts", mock.Anything, []int64{1, 1}).Return([]service.ProductDto{*widget}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Error - some missing",
			body: `{"ids":[1,999]}`,
			setup: func(m *mockProductService) {
				m.On("ValidateProducts", mock.Anything, []int64{1, 999}).Return(nil, perrors.ErrSomeProductsNotFound)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Error - empty list",
			body:         `{"ids":[]}`,
			setup:        func(*mockProductService) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := new(mockProductService)
			tc.setup(svc)

			// when
			rr := do(t, newTestRouter(svc), http.MethodPost, "/api/v1/products/validate", tc.body)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func Test_ProductAPI_AuthGuardsMutatingRoutes(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	svc := new(mockProductService)
	svc.On("FindOne", mock.Anything, int64(1)).Return(widget, nil)
	router := newTestRouter(svc, WithAuth(deny))

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/products/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/v1/products", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPatch, "/api/v1/products/1", `{}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodDelete, "/api/v1/products/1", "").Code)
}

func Test_ProductAPI_Readiness(t *testing.T) {
	testCases := []struct {
		name         string
		pingErr      error
		expectedCode int
	}{
		{"ready", nil, http.StatusOK},
		{"database down", errors.New("dial tcp: refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(new(mockProductService), WithReadiness(pingerFunc(func(context.Context) error { return tc.pingErr })))

			rr := do(t, router, http.MethodGet, "/readyz", "")

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}
