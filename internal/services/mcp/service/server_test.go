package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"testing"
	"time"

	gamegrpc "github.com/louisbranch/flatline/internal/services/game/api/grpc/game"
	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	engine  *engine.Engine
	session *mcp.ClientSession
}

func startHarness(t *testing.T) harness {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)

	d, err := action.NewDecider(action.DefaultBalance(), action.NewRand(3))
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	eng, err := engine.New(engine.Config{Decider: d, Delay: -1, Logger: quiet})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := eng.Init(context.Background()); err != nil {
		t.Fatalf("init engine: %v", err)
	}

	listener := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	gamegrpc.RegisterGameServiceServer(grpcServer, gamegrpc.NewService(eng))
	go func() { _ = grpcServer.Serve(listener) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	server := newServer(gamegrpc.NewClient(conn), conn, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.serveWithTransport(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		select {
		case <-serveErr:
		case <-time.After(2 * time.Second):
			t.Error("MCP server did not stop")
		}
		grpcServer.Stop()
		_ = eng.Teardown(context.Background())
	})
	return harness{engine: eng, session: session}
}

func callTool[T any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("call %s: tool error %+v", name, res.Content)
	}
	data, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal %s output: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s output: %v", name, err)
	}
	return out
}

func TestListsGameTools(t *testing.T) {
	h := startHarness(t)
	res, err := h.session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"game_state": false, "game_logs": false, "attack": false, "craft_firewall": false,
		"start_virus_wave": false, "deploy_bot": false, "recall_bot": false,
	}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing tool %s", name)
		}
	}
}

func TestToolsDriveTheEngine(t *testing.T) {
	h := startHarness(t)

	state := callTool[domain.GameStateResult](t, h.session, "game_state", nil)
	if state.Status != "ready" || state.Username != "anon" {
		t.Fatalf("unexpected state %+v", state)
	}

	deployed := callTool[domain.ActionResult](t, h.session, "deploy_bot", map[string]any{"model": "scout-alpha"})
	if !deployed.Success || len(deployed.Entries) == 0 {
		t.Fatalf("expected deploy success, got %+v", deployed)
	}
	after := h.engine.State()
	if len(after.Bots) != 1 {
		t.Fatalf("expected 1 bot, got %d", len(after.Bots))
	}

	recalled := callTool[domain.ActionResult](t, h.session, "recall_bot", map[string]any{"bot_id": after.Bots[0].ID})
	if !recalled.Success {
		t.Fatalf("expected recall success, got %+v", recalled)
	}

	refused := callTool[domain.ActionResult](t, h.session, "attack", map[string]any{"target": "HUB-7735"})
	if refused.Success || refused.Code != "TARGET_NOT_FOUND" || refused.Suggestion != "hub-7734" {
		t.Fatalf("expected TARGET_NOT_FOUND with suggestion, got %+v", refused)
	}

	logs := callTool[domain.GameLogsResult](t, h.session, "game_logs", map[string]any{"filter": `level = "warn"`})
	if len(logs.Entries) != 1 {
		t.Fatalf("expected one warn entry, got %+v", logs.Entries)
	}
}

func TestReadStateResource(t *testing.T) {
	h := startHarness(t)
	res, err := h.session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: domain.StateResourceURI})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected one content, got %d", len(res.Contents))
	}
	var state domain.GameStateResult
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &state); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	if state.Credits != h.engine.State().Credits {
		t.Fatalf("expected credits %d, got %d", h.engine.State().Credits, state.Credits)
	}
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	if err := Run(context.Background(), Config{Transport: "carrier-pigeon"}); err == nil {
		t.Fatal("expected unsupported transport error")
	}
}

func TestNewFailsWithoutGameServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	// Nothing listens on port 1.
	if _, err := New(ctx, "127.0.0.1:1", log.New(io.Discard, "", 0)); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	var s *Server
	if err := s.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
