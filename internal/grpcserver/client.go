package grpcserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// DecisionReply is the client-side view of an AwaitDecision response.
type DecisionReply struct {
	SessionID        string `json:"session_id"`
	OrderID          string `json:"order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Outcome          string `json:"outcome"`
	Status           string `json:"status"`
	Source           string `json:"source"`
	Attempts         int    `json:"attempts"`
}

// StatusReply is the client-side view of a CheckStatus response.
type StatusReply struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	Status           string `json:"status"`
	Source           string `json:"source"`
	Degraded         bool   `json:"degraded"`
	Error            string `json:"error,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial connects to a ReconcilerService at addr without TLS.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial reconciler %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) AwaitDecision(ctx context.Context, orderID, gatewayPaymentID string) (DecisionReply, error) {
	in, err := structpb.NewStruct(map[string]any{
		"order_id":           orderID,
		"gateway_payment_id": gatewayPaymentID,
	})
	if err != nil {
		return DecisionReply{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodAwaitDecision, in, out); err != nil {
		return DecisionReply{}, err
	}
	return DecisionReply{
		SessionID:        stringField(out, "session_id"),
		OrderID:          stringField(out, "order_id"),
		GatewayPaymentID: stringField(out, "gateway_payment_id"),
		Outcome:          stringField(out, "outcome"),
		Status:           stringField(out, "status"),
		Source:           stringField(out, "source"),
		Attempts:         int(out.GetFields()["attempts"].GetNumberValue()),
	}, nil
}

func (c *Client) CheckStatus(ctx context.Context, gatewayPaymentID string) (StatusReply, error) {
	in, err := structpb.NewStruct(map[string]any{"gateway_payment_id": gatewayPaymentID})
	if err != nil {
		return StatusReply{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodCheckStatus, in, out); err != nil {
		return StatusReply{}, err
	}
	return StatusReply{
		GatewayPaymentID: stringField(out, "gateway_payment_id"),
		Status:           stringField(out, "status"),
		Source:           stringField(out, "source"),
		Degraded:         out.GetFields()["degraded"].GetBoolValue(),
		Error:            stringField(out, "error"),
		ErrorCode:        stringField(out, "error_code"),
	}, nil
}
