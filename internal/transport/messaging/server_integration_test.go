package messaging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/errors"
	"github.com/abgdnv/productcatalog/internal/service"
	natsgo "github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

const skipIntegrationTests = "PRODUCT_SVC_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// MessageServerSuite serves requests over a real NATS server.
type MessageServerSuite struct {
	suite.Suite
	ctx           context.Context
	cancel        context.CancelFunc
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	svc           *mockProductService
	done          chan error
}

func (s *MessageServerSuite) SetupSuite() {
	var err error
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = natsgo.Connect(natsURL)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.svc = new(mockProductService)
	srv := newTestServer(s.svc)
	s.done = make(chan error, 1)
	go func() {
		s.done <- srv.Start(s.ctx, s.nc)
	}()
	// wait until the subscriptions are live; a malformed request never reaches the service
	require.Eventually(s.T(), func() bool {
		_, err := s.nc.Request(srv.Subject(PatternFindOne), []byte(`{"id":`), 200*time.Millisecond)
		return err == nil
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *MessageServerSuite) TearDownSuite() {
	s.cancel()
	select {
	case err := <-s.done:
		assert.True(s.T(), err == nil || errors.Is(err, context.Canceled), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		s.T().Error("message server did not stop")
	}
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		slog.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestMessageServerIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(MessageServerSuite))
}

func (s *MessageServerSuite) TestRequestReply() {
	// given
	s.svc.On("FindOne", mock.Anything, int64(10)).
		Return(&service.ProductDto{ID: 10, Name: "Widget", Price: decimal.RequireFromString("9.99"), Available: true}, nil).Once()

	// when
	msg, err := s.nc.Request("products.find_one", []byte(`{"id":10}`), 5*time.Second)

	// then
	require.NoError(s.T(), err)
	data, replyErr := decodeReply(s.T(), msg.Data)
	require.Nil(s.T(), replyErr)
	assert.Equal(s.T(), "Widget", data["name"])
}

func (s *MessageServerSuite) TestRequestReply_Error() {
	s.svc.On("Remove", mock.Anything, int64(11)).Return(nil, perrors.ErrProductNotFound).Once()

	msg, err := s.nc.Request("products.remove", []byte(`{"id":11}`), 5*time.Second)

	require.NoError(s.T(), err)
	_, replyErr := decodeReply(s.T(), msg.Data)
	require.NotNil(s.T(), replyErr)
	assert.Equal(s.T(), "NotFound", replyErr.Kind)
}
