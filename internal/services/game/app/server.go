package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	platformgrpc "github.com/louisbranch/flatline/internal/platform/grpc"
	"github.com/louisbranch/flatline/internal/platform/timeouts"
	gamegrpc "github.com/louisbranch/flatline/internal/services/game/api/grpc/game"
	gamehttp "github.com/louisbranch/flatline/internal/services/game/api/http"
	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/storage"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// maxHTTPConns caps concurrent HTTP connections, websocket streams included.
const maxHTTPConns = 1024

// Options configures a game server.
type Options struct {
	HTTPAddr string
	GRPCAddr string
	// Storage is one of StorageBBolt, StorageSQLite or StorageMemory.
	Storage     string
	DBPath      string
	LogCapacity int
	// ActionDelay is the simulated processing time; negative disables it.
	ActionDelay time.Duration
	// Seed makes outcomes reproducible when nonzero.
	Seed        uint64
	BalancePath string
	SessionKey  string
	RateLimit   float64
	RateBurst   int
	// Origins extends the websocket same-host origin check.
	Origins []string
	Logger  *log.Logger
}

// Server owns the engine and both API listeners.
type Server struct {
	engine       *engine.Engine
	kv           storage.KV
	grpcListener net.Listener
	httpListener net.Listener
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	logger       *log.Logger
}

// New opens storage, restores the engine and binds both listeners.
func New(ctx context.Context, opts Options) (server *Server, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	decider, err := buildDecider(opts)
	if err != nil {
		return nil, err
	}

	kv, err := openStore(opts.Storage, opts.DBPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = kv.Close()
		}
	}()

	bridge := storage.NewBridge(kv, nil)
	eng, err := engine.New(engine.Config{
		Snapshots:   bridge,
		Profiles:    bridge,
		Decider:     decider,
		LogCapacity: opts.LogCapacity,
		Delay:       opts.ActionDelay,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if err := eng.Init(ctx); err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	defer func() {
		if err != nil {
			_ = eng.Teardown(context.Background())
		}
	}()

	grpcListener, err := net.Listen("tcp", opts.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.GRPCAddr, err)
	}
	defer func() {
		if err != nil {
			_ = grpcListener.Close()
		}
	}()
	httpListener, err := net.Listen("tcp", opts.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.HTTPAddr, err)
	}

	grpcServer := grpc.NewServer(platformgrpc.ServerOptions()...)
	healthServer := platformgrpc.RegisterHealth(grpcServer, gamegrpc.ServiceName)
	gamegrpc.RegisterGameServiceServer(grpcServer, gamegrpc.NewService(eng))

	handler := gamehttp.NewHandler(eng, gamehttp.Options{
		Auth:      gamehttp.NewAuth(opts.SessionKey, gamehttp.DefaultTokenTTL, nil),
		RateLimit: opts.RateLimit,
		RateBurst: opts.RateBurst,
		Origins:   opts.Origins,
		Logger:    logger,
	})

	return &Server{
		engine:       eng,
		kv:           kv,
		grpcListener: grpcListener,
		httpListener: netutil.LimitListener(httpListener, maxHTTPConns),
		grpcServer:   grpcServer,
		httpServer:   &http.Server{Handler: handler, ReadHeaderTimeout: timeouts.ReadHeader},
		health:       healthServer,
		logger:       logger,
	}, nil
}

func buildDecider(opts Options) (*action.Decider, error) {
	balance := action.DefaultBalance()
	if path := strings.TrimSpace(opts.BalancePath); path != "" {
		loaded, err := action.LoadBalanceFile(path)
		if err != nil {
			return nil, fmt.Errorf("load balance: %w", err)
		}
		balance = loaded
	}
	var rng action.Rand
	if opts.Seed != 0 {
		rng = action.NewRand(opts.Seed)
	}
	decider, err := action.NewDecider(balance, rng)
	if err != nil {
		return nil, fmt.Errorf("build decider: %w", err)
	}
	return decider, nil
}

// Engine exposes the running engine.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// GRPCAddr returns the bound gRPC address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves a game server until ctx ends.
func Run(ctx context.Context, opts Options) error {
	server, err := New(ctx, opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both APIs until ctx ends or one of them fails, then drains
// in-flight actions and closes storage.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	s.logger.Printf("game gRPC listening at %v", s.grpcListener.Addr())
	s.logger.Printf("game HTTP listening at %v", s.httpListener.Addr())

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- s.grpcServer.Serve(s.grpcListener)
	}()
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	platformgrpc.SetServing(s.health, gamegrpc.ServiceName)

	var err error
	select {
	case <-ctx.Done():
	case err = <-grpcErr:
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve gRPC: %w", err)
		}
	case err = <-httpErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("serve HTTP: %w", err)
		}
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if shutdownErr := s.httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		s.logger.Printf("shutdown HTTP: %v", shutdownErr)
	}
	if teardownErr := s.engine.Teardown(shutdownCtx); teardownErr != nil {
		s.logger.Printf("teardown engine: %v", teardownErr)
	}
	s.grpcServer.GracefulStop()
	return err
}

func (s *Server) close() {
	if s.kv != nil {
		if err := s.kv.Close(); err != nil {
			s.logger.Printf("close store: %v", err)
		}
		s.kv = nil
	}
}
