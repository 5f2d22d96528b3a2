package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/dictum/internal/extract"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// ExtractMethod is the unary extraction RPC. Request and response are
// google.protobuf.Struct messages.
const ExtractMethod = "/dictum.inference.v1.Extraction/Extract"

// GRPCExtractor calls a remote extraction service.
type GRPCExtractor struct {
	conn *grpc.ClientConn
}

// DialExtractor creates a lazy client for endpoint. Extra dial options are
// appended after the default insecure transport.
func DialExtractor(endpoint string, opts ...grpc.DialOption) (*GRPCExtractor, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("extraction endpoint is empty")
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial extraction grpc %q: %w", endpoint, err)
	}
	return &GRPCExtractor{conn: conn}, nil
}

// Extract implements extract.Primary.
func (g *GRPCExtractor) Extract(ctx context.Context, req extract.Request) (map[string]extract.Candidate, error) {
	fields := make([]any, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = f
	}
	in, err := structpb.NewStruct(map[string]any{
		"text":      req.Text,
		"macro_key": req.MacroKey,
		"fields":    fields,
	})
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}

	out := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, ExtractMethod, in, out); err != nil {
		return nil, fmt.Errorf("invoke %s: %w", ExtractMethod, err)
	}
	return ParseFields(out.AsMap())
}

// Health reports the remote service's serving status.
func (g *GRPCExtractor) Health(ctx context.Context) (string, error) {
	return CheckHealth(ctx, g.conn)
}

// Close releases the connection.
func (g *GRPCExtractor) Close() error {
	return g.conn.Close()
}

// CheckHealth queries the standard gRPC health service.
func CheckHealth(ctx context.Context, conn grpc.ClientConnInterface) (string, error) {
	client := grpc_health_v1.NewHealthClient(conn)
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return "", fmt.Errorf("grpc health check: %w", err)
	}
	status := resp.GetStatus()
	if status != grpc_health_v1.HealthCheckResponse_SERVING {
		return status.String(), fmt.Errorf("grpc health status %s", status)
	}
	return status.String(), nil
}
