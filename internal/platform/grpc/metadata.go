package grpc

import (
	"context"
	"strings"

	"github.com/louisbranch/flatline/internal/platform/requestctx"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDHeader is the metadata key carrying a caller request id.
const RequestIDHeader = "x-request-id"

// RequestIDUnaryInterceptor copies the x-request-id metadata value into the
// handler context.
func RequestIDUnaryInterceptor() gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		return handler(withRequestID(ctx), req)
	}
}

func withRequestID(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	values := md.Get(RequestIDHeader)
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return ctx
	}
	return requestctx.WithRequestID(ctx, strings.TrimSpace(values[0]))
}

// OutgoingRequestID attaches id as x-request-id when it is not blank.
func OutgoingRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, RequestIDHeader, id)
}
