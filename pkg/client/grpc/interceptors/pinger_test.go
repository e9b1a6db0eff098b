package interceptors

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/productcatalog/pkg/codec"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// A one-method JSON service used to drive the interceptors.

const pingMethod = "/test.Pinger/Ping"

type pingRequest struct {
	N int `json:"n"`
}

type pingResponse struct {
	N int `json:"n"`
}

type pinger interface {
	Ping(ctx context.Context, req *pingRequest) (*pingResponse, error)
}

var pingerServiceDesc = grpc.ServiceDesc{
	ServiceName: "test.Pinger",
	HandlerType: (*pinger)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Ping",
		Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := new(pingRequest)
			if err := dec(in); err != nil {
				return nil, err
			}
			return srv.(pinger).Ping(ctx, in)
		},
	}},
}

// scriptedPinger answers with a queue of codes; an empty queue means OK.
// Not safe for concurrent calls.
type scriptedPinger struct {
	callCount atomic.Int32
	responses []codes.Code
	delay     time.Duration
}

func (s *scriptedPinger) Ping(ctx context.Context, req *pingRequest) (*pingResponse, error) {
	s.callCount.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, status.FromContextError(ctx.Err()).Err()
		}
	}
	if len(s.responses) > 0 {
		code := s.responses[0]
		s.responses = s.responses[1:]
		if code != codes.OK {
			return nil, status.Error(code, "scripted error")
		}
	}
	return &pingResponse{N: req.N}, nil
}

func (s *scriptedPinger) setResponses(responses ...codes.Code) {
	s.responses = responses
	s.callCount.Store(0)
}

// startPinger serves svc over bufconn and returns a client connection using the given interceptors.
func startPinger(t *testing.T, svc *scriptedPinger, interceptors ...grpc.UnaryClientInterceptor) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	srv.RegisterService(&pingerServiceDesc, svc)
	go func() {
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(codec.CallOption()),
		grpc.WithChainUnaryInterceptor(interceptors...),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		_ = lis.Close()
	})
	return conn
}

func ping(conn *grpc.ClientConn) error {
	return conn.Invoke(context.Background(), pingMethod, &pingRequest{N: 1}, &pingResponse{})
}
