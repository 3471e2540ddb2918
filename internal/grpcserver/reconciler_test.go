package grpcserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/example/checkout-reconciler/internal/gateway"
	"github.com/example/checkout-reconciler/internal/grpcserver"
	"github.com/example/checkout-reconciler/internal/inflight"
	"github.com/example/checkout-reconciler/internal/reconcile"
	"github.com/example/checkout-reconciler/internal/store"
	perr "github.com/example/checkout-reconciler/pkg/errors"
)

type scriptedGateway map[string]string

func (g scriptedGateway) GetPaymentStatus(_ context.Context, id string) (string, error) {
	raw, ok := g[id]
	if !ok {
		return "", perr.Wrap(perr.CodeGatewayStatus, "unknown payment", nil)
	}
	return raw, nil
}

func startServer(t *testing.T, ms *store.MemoryStore, gw gateway.StatusGetter) *grpcserver.Client {
	t.Helper()

	f := gateway.NewFetcher(gw)
	f.BaseDelay = time.Millisecond
	shared := gateway.NewSharedFetcher(f, inflight.New[gateway.FetchResult](0, nil))
	poller := reconcile.NewPoller(reconcile.NewLocalReconciler(ms, nil), shared, reconcile.Config{
		TickInterval:     5 * time.Millisecond,
		MaxAttempts:      3,
		PlaceholderDelay: 5 * time.Millisecond,
	}, nil, nil)
	svc := reconcile.NewService(ms, poller, shared, nil, nil)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(gp.UnaryServerInterceptor))
	grpcserver.Register(srv, &grpcserver.ReconcilerServer{Service: svc})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpcserver.NewClient(conn)
}

func TestAwaitDecision(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.UpsertOrder(ctx, &store.OrderRecord{ID: "ord-1", Status: "PENDING", GatewayPaymentID: "pay_1"}))
	c := startServer(t, ms, scriptedGateway{"pay_1": "RECEIVED"})

	reply, err := c.AwaitDecision(ctx, "ord-1", "")
	require.NoError(t, err)

	assert.Equal(t, "success", reply.Outcome)
	assert.Equal(t, "CONFIRMED", reply.Status)
	assert.Equal(t, "gateway", reply.Source)
	assert.Equal(t, "pay_1", reply.GatewayPaymentID)
	assert.Equal(t, 1, reply.Attempts)
	assert.NotEmpty(t, reply.SessionID)
}

func TestAwaitDecision_GatewayIDOnlyResolvesOrder(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.UpsertOrder(ctx, &store.OrderRecord{ID: "ord-3", Status: "PENDING", GatewayPaymentID: "pay_3"}))
	c := startServer(t, ms, scriptedGateway{"pay_3": "RECEIVED"})

	reply, err := c.AwaitDecision(ctx, "", "pay_3")
	require.NoError(t, err)

	assert.Equal(t, "success", reply.Outcome)
	assert.Equal(t, "ord-3", reply.OrderID)
}

func TestAwaitDecision_RequiresAnID(t *testing.T) {
	c := startServer(t, store.NewMemoryStore(), scriptedGateway{})

	_, err := c.AwaitDecision(context.Background(), "", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), perr.CodeInvalidInput)
}

func TestAwaitDecision_DeadlineBecomesGRPCStatus(t *testing.T) {
	c := startServer(t, store.NewMemoryStore(), scriptedGateway{"pay_slow": "PENDING"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
	defer cancel()

	_, err := c.AwaitDecision(ctx, "", "pay_slow")
	require.Error(t, err)
	assert.Contains(t, []codes.Code{codes.DeadlineExceeded, codes.Canceled}, status.Code(err))
}

func TestCheckStatus(t *testing.T) {
	c := startServer(t, store.NewMemoryStore(), scriptedGateway{"pay_1": "declined"})
	ctx := context.Background()

	reply, err := c.CheckStatus(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, "DECLINED", reply.Status)
	assert.Equal(t, "gateway", reply.Source)
	assert.False(t, reply.Degraded)

	reply, err = c.CheckStatus(ctx, "pay_missing")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", reply.Status)
	assert.True(t, reply.Degraded)
	assert.Contains(t, reply.Error, "unknown payment")
	assert.Equal(t, perr.CodeGatewayStatus, reply.ErrorCode)

	reply, err = c.CheckStatus(ctx, "temp_123")
	require.NoError(t, err)
	assert.Equal(t, "placeholder", reply.Source)

	_, err = c.CheckStatus(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
