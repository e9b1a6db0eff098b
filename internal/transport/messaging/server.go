// Package messaging serves the catalog operations as NATS request-reply subjects.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/service"
	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

// Patterns, appended to the configured prefix.
const (
	PatternCreate   = "create"
	PatternFindAll  = "find_all"
	PatternFindOne  = "find_one"
	PatternUpdate   = "update"
	PatternRemove   = "remove"
	PatternValidate = "validate"
)

const kindBadRequest = "BadRequest"

type handlerFunc func(ctx context.Context, data []byte) (any, error)

// Reply is the envelope sent back to the requester: exactly one of Data and Error is set.
type Reply struct {
	Data  any         `json:"data,omitempty"`
	Error *ReplyError `json:"error,omitempty"`
}

type ReplyError struct {
	Kind             string            `json:"kind"`
	Status           int               `json:"status"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type idRequest struct {
	ID int64 `json:"id" validate:"required,min=1"`
}

type updateRequest struct {
	ID int64 `json:"id" validate:"required,min=1"`
	service.ProductUpdateDto
}

type Server struct {
	service    service.ProductService
	validate   *validator.Validate
	cfg        config.MessagingConfig
	logger     *slog.Logger
	handlers   map[string]handlerFunc
}

func NewServer(svc service.ProductService, cfg config.MessagingConfig, logger *slog.Logger) *Server {
	s := &Server{
		service:    svc,
		validate:   service.NewValidator(),
		cfg:        cfg,
		logger:     logger.With("component", "messaging"),
	}
	s.handlers = map[string]handlerFunc{
		PatternCreate:   s.create,
		PatternFindAll:  s.findAll,
		PatternFindOne:  s.findOne,
		PatternUpdate:   s.update,
		PatternRemove:   s.remove,
		PatternValidate: s.validateProducts,
	}
	return s
}

// Subject returns the NATS subject of a pattern.
func (s *Server) Subject(pattern string) string {
	return s.cfg.Prefix + "." + pattern
}

// Start subscribes every pattern in the configured queue group and serves requests
// with cfg.Workers goroutines until ctx is done.
func (s *Server) Start(ctx context.Context, nc *nats.Conn) error {
	msgs := make(chan *nats.Msg, s.cfg.Buffer)
	subs := make([]*nats.Subscription, 0, len(s.handlers))
	defer func() {
		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				s.logger.Warn("failed to unsubscribe", "subject", sub.Subject, "error", err)
			}
		}
	}()
	for pattern := range s.handlers {
		sub, err := nc.ChanQueueSubscribe(s.Subject(pattern), s.cfg.Queue, msgs)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.Subject(pattern), err)
		}
		subs = append(subs, sub)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush subscriptions: %w", err)
	}
	s.logger.Info("message server started", "prefix", s.cfg.Prefix, "queue", s.cfg.Queue, "workers", s.cfg.Workers)

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			return s.runWorker(gCtx, msgs)
		})
	}
	return g.Wait()
}

func (s *Server) runWorker(ctx context.Context, msgs <-chan *nats.Msg) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, msg *nats.Msg) {
	if msg == nil {
		return
	}
	if msg.Reply == "" {
		s.logger.Warn("dropping message without reply subject", "subject", msg.Subject)
		return
	}
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	pattern := strings.TrimPrefix(msg.Subject, s.cfg.Prefix+".")
	if err := msg.Respond(s.Dispatch(ctx, pattern, msg.Data)); err != nil {
		s.logger.ErrorContext(ctx, "failed to send reply", "subject", msg.Subject, "error", err)
	}
}

// Dispatch runs pattern against data and returns the encoded reply envelope.
func (s *Server) Dispatch(ctx context.Context, pattern string, data []byte) []byte {
	var reply Reply
	handler, ok := s.handlers[pattern]
	if !ok {
		reply.Error = &ReplyError{Kind: kindBadRequest, Status: http.StatusBadRequest, Message: "Unknown pattern: " + pattern}
	} else if result, err := handler(ctx, data); err != nil {
		reply.Error = s.toReplyError(ctx, pattern, err)
	} else {
		reply.Data = result
	}

	encoded, err := json.Marshal(reply)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode reply", "pattern", pattern, "error", err)
		encoded, _ = json.Marshal(Reply{Error: internalError()})
	}
	return encoded
}

func (s *Server) create(ctx context.Context, data []byte) (any, error) {
	var dto service.ProductCreateDto
	if err := s.decode(data, &dto); err != nil {
		return nil, err
	}
	return s.service.Create(ctx, dto)
}

func (s *Server) findAll(ctx context.Context, data []byte) (any, error) {
	var dto service.PaginationDto
	if len(data) > 0 {
		if err := s.decode(data, &dto); err != nil {
			return nil, err
		}
	}
	return s.service.FindAll(ctx, dto)
}

func (s *Server) findOne(ctx context.Context, data []byte) (any, error) {
	var req idRequest
	if err := s.decode(data, &req); err != nil {
		return nil, err
	}
	return s.service.FindOne(ctx, req.ID)
}

func (s *Server) update(ctx context.Context, data []byte) (any, error) {
	var req updateRequest
	if err := s.decode(data, &req); err != nil {
		return nil, err
	}
	return s.service.Update(ctx, req.ID, req.ProductUpdateDto)
}

func (s *Server) remove(ctx context.Context, data []byte) (any, error) {
	var req idRequest
	if err := s.decode(data, &req); err != nil {
		return nil, err
	}
	return s.service.Remove(ctx, req.ID)
}

func (s *Server) validateProducts(ctx context.Context, data []byte) (any, error) {
	var dto service.ValidateProductsDto
	if err := s.decode(data, &dto); err != nil {
		return nil, err
	}
	return s.service.ValidateProducts(ctx, dto.IDs)
}

// decode unmarshals and validates a request payload.
func (s *Server) decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return &ReplyError{Kind: kindBadRequest, Status: http.StatusBadRequest, Message: "Invalid request body"}
	}
	if err := s.validate.Struct(dst); err != nil {
		fields, _ := web.ValidationErrors(err)
		return &ReplyError{
			Kind:             kindBadRequest,
			Status:           http.StatusBadRequest,
			Message:          "Validation failed",
			ValidationErrors: fields,
		}
	}
	return nil
}

func (s *Server) toReplyError(ctx context.Context, pattern string, err error) *ReplyError {
	var re *ReplyError
	if errors.As(err, &re) {
		return re
	}
	if ce, ok := perrors.AsCatalogError(err); ok {
		s.logger.WarnContext(ctx, "request rejected", "pattern", pattern, "kind", ce.Kind)
		return &ReplyError{Kind: string(ce.Kind), Status: ce.Status, Message: ce.Message}
	}
	s.logger.ErrorContext(ctx, "request failed", "pattern", pattern, "error", err)
	return internalError()
}

func internalError() *ReplyError {
	return &ReplyError{Kind: "Internal", Status: http.StatusInternalServerError, Message: "Internal server error"}
}
