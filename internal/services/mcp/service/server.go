package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/flatline/internal/platform/grpc"
	"github.com/louisbranch/flatline/internal/platform/timeouts"
	gamegrpc "github.com/louisbranch/flatline/internal/services/game/api/grpc/game"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

const (
	serverName    = "flatline MCP"
	serverVersion = "0.1.0"

	defaultGRPCAddr = "localhost:8082"
	defaultHTTPAddr = "localhost:8081"

	// dialTimeout bounds the wait for the game server to report SERVING.
	dialTimeout = 10 * time.Second
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	TransportStdio TransportKind = "stdio"
	TransportHTTP  TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	GRPCAddr  string
	Transport TransportKind
	// HTTPAddr is only used by the HTTP transport.
	HTTPAddr string
	Logger   *log.Logger
}

// GameClient is what the server needs from the game service client.
type GameClient interface {
	domain.GameClient
	SubscribeLogs(ctx context.Context, fn func(logfeed.Entry), opts ...grpc.CallOption) error
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	client    GameClient
	conn      io.Closer
	logger    *log.Logger
}

// New dials the game server at grpcAddr and builds the MCP server on top of it.
func New(ctx context.Context, grpcAddr string, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	addr := strings.TrimSpace(grpcAddr)
	if addr == "" {
		addr = defaultGRPCAddr
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := platformgrpc.Dial(dialCtx, addr, gamegrpc.ServiceName, logger.Printf)
	if err != nil {
		return nil, fmt.Errorf("connect to game server at %s: %w", addr, err)
	}
	return newServer(gamegrpc.NewClient(conn), conn, logger), nil
}

func newServer(client GameClient, conn io.Closer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	s := &Server{mcpServer: mcpServer, client: client, conn: conn, logger: logger}
	registerTools(mcpServer, client, s.notifyResource)
	registerResources(mcpServer, client)
	return s
}

func (s *Server) notifyResource(ctx context.Context, uri string) {
	if strings.TrimSpace(uri) == "" {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
		s.logger.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
	}
}

func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// watchLogs forwards game log activity made by other clients as resource
// updates until ctx ends or the stream fails.
func (s *Server) watchLogs(ctx context.Context) {
	err := s.client.SubscribeLogs(ctx, func(logfeed.Entry) {
		s.notifyResource(ctx, domain.LogsResourceURI)
		s.notifyResource(ctx, domain.StateResourceURI)
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Printf("game log stream ended: %v", err)
	}
}

// Close releases the game server connection.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Run is the MCP entrypoint. It blocks until ctx ends or the transport fails.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	server, err := New(ctx, cfg.GRPCAddr, cfg.Logger)
	if err != nil {
		return err
	}
	if cfg.Transport == TransportHTTP {
		return server.serveHTTP(ctx, cfg.HTTPAddr)
	}
	return server.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport runs the server on transport and closes the game
// connection on the way out.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.watchLogs(watchCtx)

	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return s.finish(err)
}

func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		addr = defaultHTTPAddr
	}
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.watchLogs(watchCtx)

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcpServer }, nil)
	httpServer := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: timeouts.ReadHeader}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Printf("MCP HTTP listening on %s", addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err = httpServer.Shutdown(shutdownCtx)
		cancelShutdown()
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}
	return s.finish(err)
}

func (s *Server) finish(err error) error {
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
