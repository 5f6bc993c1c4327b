package collab

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/router"
)

// handleMethod is the fixed fully-qualified gRPC method every out-of-
// process agent handler must implement: it takes a Struct describing the
// task+decision and returns a Struct describing the outcome.
const handleMethod = "/cynic.collab.AgentHandler/Handle"

// GRPCAgentHandler dispatches router.Handler.Handle calls over a gRPC
// connection to an out-of-process agent, using a generic Struct-based
// wire contract so no per-agent generated client stub is required.
type GRPCAgentHandler struct {
	conn     *grpc.ClientConn
	endpoint string
}

var _ router.Handler = (*GRPCAgentHandler)(nil)

// DialGRPCAgentHandler opens a new gRPC connection to endpoint.
// Connections are insecure by default; callers needing TLS should wrap
// the returned handler's Close and dial manually via NewGRPCAgentHandler.
func DialGRPCAgentHandler(ctx context.Context, endpoint string) (*GRPCAgentHandler, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{Time: 10 * time.Second, Timeout: 5 * time.Second, PermitWithoutStream: true}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial agent handler %s: %w", endpoint, err)
	}
	return &GRPCAgentHandler{conn: conn, endpoint: endpoint}, nil
}

// NewGRPCAgentHandler wraps an already-established connection, e.g. one
// dialed with TLS credentials by the caller.
func NewGRPCAgentHandler(conn *grpc.ClientConn, endpoint string) *GRPCAgentHandler {
	return &GRPCAgentHandler{conn: conn, endpoint: endpoint}
}

// WithTLSDial is a convenience for establishing a TLS-secured connection.
func WithTLSDial(ctx context.Context, endpoint string, creds credentials.TransportCredentials) (*GRPCAgentHandler, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dial agent handler %s: %w", endpoint, err)
	}
	return &GRPCAgentHandler{conn: conn, endpoint: endpoint}, nil
}

// Close releases the underlying gRPC connection.
func (h *GRPCAgentHandler) Close() error {
	return h.conn.Close()
}

// CheckHealth implements HealthChecker by inspecting the connection's
// connectivity state; it does not perform an RPC round trip.
func (h *GRPCAgentHandler) CheckHealth() HealthStatus {
	start := time.Now()
	switch h.conn.GetState() {
	case connectivity.Ready, connectivity.Idle:
		return NewHealthyStatus(time.Since(start))
	case connectivity.Connecting:
		return NewDegradedStatus("connecting", time.Since(start))
	default:
		return NewUnhealthyStatus("connection state: " + h.conn.GetState().String())
	}
}

// Handle implements router.Handler by marshaling the task and decision
// into a protobuf Struct, invoking the fixed Handle RPC, and unmarshaling
// the response into a HandlerOutcome.
func (h *GRPCAgentHandler) Handle(ctx context.Context, task judgment.Task, decision router.Decision) (router.HandlerOutcome, error) {
	req, err := structpb.NewStruct(map[string]any{
		"taskId":        task.ID,
		"taskType":      task.Type,
		"payload":       fmt.Sprintf("%v", task.Payload),
		"selectedAgent": decision.SelectedAgent,
		"confidence":    decision.Confidence,
		"escalated":     decision.Escalated,
	})
	if err != nil {
		return router.HandlerOutcome{}, fmt.Errorf("marshal handle request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := h.conn.Invoke(ctx, handleMethod, req, resp); err != nil {
		return router.HandlerOutcome{}, fmt.Errorf("invoke %s on %s: %w", handleMethod, h.endpoint, err)
	}

	return outcomeFromStruct(resp), nil
}

func outcomeFromStruct(s *structpb.Struct) router.HandlerOutcome {
	fields := s.GetFields()
	outcome := router.HandlerOutcome{
		Success: fields["success"].GetBoolValue(),
		Score:   fields["score"].GetNumberValue(),
		Reason:  fields["reason"].GetStringValue(),
		Blocked: fields["blocked"].GetBoolValue(),
	}
	if v, ok := fields["verdict"]; ok {
		outcome.Verdict = judgment.Verdict(v.GetStringValue())
	}
	if v, ok := fields["response"]; ok {
		outcome.Response = judgment.VoteResponse(v.GetStringValue())
	}
	if dims, ok := fields["dimensions"]; ok {
		outcome.Dimensions = make(map[string]float64)
		for k, v := range dims.GetStructValue().GetFields() {
			outcome.Dimensions[k] = v.GetNumberValue()
		}
	}
	if insights, ok := fields["insights"]; ok {
		for _, v := range insights.GetListValue().GetValues() {
			outcome.Insights = append(outcome.Insights, v.GetStringValue())
		}
	}
	return outcome
}
