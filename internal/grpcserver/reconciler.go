// Package grpcserver exposes the reconciler over gRPC. Messages are
// google.protobuf.Struct so the service needs no generated stubs.
package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/checkout-reconciler/internal/reconcile"
	perr "github.com/example/checkout-reconciler/pkg/errors"
)

const ServiceName = "reconciler.v1.ReconcilerService"

const (
	methodAwaitDecision = "/" + ServiceName + "/AwaitDecision"
	methodCheckStatus   = "/" + ServiceName + "/CheckStatus"
)

// ReconcilerServiceServer is the server API for ReconcilerService.
type ReconcilerServiceServer interface {
	AwaitDecision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var ReconcilerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReconcilerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AwaitDecision", Handler: awaitDecisionHandler},
		{MethodName: "CheckStatus", Handler: checkStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reconciler/v1/reconciler.proto",
}

func Register(r grpc.ServiceRegistrar, srv ReconcilerServiceServer) {
	r.RegisterService(&ReconcilerServiceDesc, srv)
}

func awaitDecisionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReconcilerServiceServer).AwaitDecision(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAwaitDecision}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReconcilerServiceServer).AwaitDecision(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func checkStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReconcilerServiceServer).CheckStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCheckStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ReconcilerServiceServer).CheckStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ReconcilerServer serves ReconcilerService from a reconcile.Service.
type ReconcilerServer struct {
	Service *reconcile.Service
}

func (s *ReconcilerServer) AwaitDecision(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ref := reconcile.PaymentAttemptRef{
		OrderID:          stringField(in, "order_id"),
		GatewayPaymentID: stringField(in, "gateway_payment_id"),
	}
	if ref.OrderID == "" && ref.GatewayPaymentID == "" {
		return nil, invalidArgument("order_id or gateway_payment_id is required")
	}

	d, err := s.Service.Await(ctx, ref)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return structpb.NewStruct(map[string]any{
		"session_id":         d.SessionID,
		"order_id":           d.Ref.OrderID,
		"gateway_payment_id": d.Ref.GatewayPaymentID,
		"outcome":            string(d.Outcome),
		"status":             string(d.Status),
		"source":             string(d.Source),
		"attempts":           d.Attempts,
	})
}

func (s *ReconcilerServer) CheckStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(in, "gateway_payment_id")
	if id == "" {
		return nil, invalidArgument("gateway_payment_id is required")
	}

	res := s.Service.CheckStatus(ctx, id)
	out := map[string]any{
		"gateway_payment_id": id,
		"status":             string(res.Status),
		"source":             string(res.Source),
		"degraded":           res.Degraded(),
	}
	if msg := res.ErrorText(); msg != "" {
		out["error"] = msg
		out["error_code"] = perr.CodeOf(res.Err)
	}
	return structpb.NewStruct(out)
}

func invalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, perr.Wrap(perr.CodeInvalidInput, msg, nil).Error())
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
