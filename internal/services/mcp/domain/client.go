package domain

import (
	"context"
	"time"

	gamegrpc "github.com/louisbranch/flatline/internal/services/game/api/grpc/game"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"google.golang.org/grpc"
)

// grpcCallTimeout caps one game server call made by a tool handler.
const grpcCallTimeout = 5 * time.Second

// GameClient is the game server surface the tools use.
type GameClient interface {
	GetState(ctx context.Context, opts ...grpc.CallOption) (gamegrpc.StateResponse, error)
	ListLogs(ctx context.Context, req gamegrpc.ListLogsRequest, opts ...grpc.CallOption) ([]logfeed.Entry, error)
	Execute(ctx context.Context, typ string, payload any, opts ...grpc.CallOption) (engine.Result, error)
}

// ResourceUpdateNotifier tells subscribed MCP clients that uri changed.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NotifyResourceUpdates calls notify for each uri when notify is set.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	for _, uri := range uris {
		notify(ctx, uri)
	}
}
