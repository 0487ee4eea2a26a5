package game

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/louisbranch/flatline/internal/services/game/domain/action"
	"github.com/louisbranch/flatline/internal/services/game/domain/engine"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
	"github.com/louisbranch/flatline/internal/services/game/domain/player"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	d, err := action.NewDecider(action.DefaultBalance(), action.NewRand(3))
	if err != nil {
		t.Fatalf("new decider: %v", err)
	}
	eng, err := engine.New(engine.Config{Decider: d, Delay: -1, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := eng.Init(context.Background()); err != nil {
		t.Fatalf("init engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Teardown(context.Background()) })
	return eng
}

func startServer(t *testing.T, eng Engine) *Client {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterGameServiceServer(server, NewService(eng))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestGetState(t *testing.T) {
	eng := newTestEngine(t)
	client := startServer(t, eng)

	resp, err := client.GetState(context.Background())
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if resp.Status != engine.StatusReady {
		t.Fatalf("expected ready, got %s", resp.Status)
	}
	want := eng.State()
	if resp.Player.Credits != want.Credits || resp.Player.Server != want.Server || resp.Player.Username != want.Username {
		t.Fatalf("state mismatch: got %+v want %+v", resp.Player, want)
	}
}

func TestExecuteCommand(t *testing.T) {
	eng := newTestEngine(t)
	client := startServer(t, eng)
	before := eng.State()

	result, err := client.Execute(context.Background(), string(action.CommandTypeCraftWall), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Entries) == 0 || result.Entries[0].TS == 0 {
		t.Fatalf("expected entries with timestamps, got %+v", result.Entries)
	}
	if after := eng.State(); after.Server.Firewall <= before.Server.Firewall {
		t.Fatalf("expected firewall raised, got %d", after.Server.Firewall)
	}
}

func TestExecuteRejection(t *testing.T) {
	client := startServer(t, newTestEngine(t))

	result, err := client.Execute(context.Background(), string(action.CommandTypeAttack), action.AttackPayload{Target: "nowhere"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Success || result.Code != "TARGET_NOT_FOUND" {
		t.Fatalf("expected TARGET_NOT_FOUND, got %+v", result)
	}
}

func TestExecuteRequiresType(t *testing.T) {
	client := startServer(t, newTestEngine(t))

	_, err := client.Execute(context.Background(), " ", nil)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestExecuteBeforeInit(t *testing.T) {
	eng, err := engine.New(engine.Config{Delay: -1, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	client := startServer(t, eng)

	_, err = client.Execute(context.Background(), string(action.CommandTypeReboot), nil)
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}

func TestListLogsFilter(t *testing.T) {
	eng := newTestEngine(t)
	client := startServer(t, eng)
	if _, err := eng.Attack(context.Background(), "missing-node"); err != nil {
		t.Fatalf("attack: %v", err)
	}

	entries, err := client.ListLogs(context.Background(), ListLogsRequest{Filter: `level = "warn"`})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(entries) != 1 || entries[0].Level != logfeed.LevelWarn {
		t.Fatalf("expected one warn entry, got %+v", entries)
	}

	limited, err := client.ListLogs(context.Background(), ListLogsRequest{Limit: 2})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(limited))
	}

	_, err = client.ListLogs(context.Background(), ListLogsRequest{Filter: "level = "})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for bad filter, got %v", err)
	}
}

func TestSetUsernameAndProfile(t *testing.T) {
	eng := newTestEngine(t)
	client := startServer(t, eng)
	ctx := context.Background()

	if _, err := client.SetUsername(ctx, "case"); err != nil {
		t.Fatalf("set username: %v", err)
	}
	if eng.State().Username != "case" {
		t.Fatalf("expected username case, got %q", eng.State().Username)
	}

	result, err := client.UpdateProfile(ctx, player.Profile{Nickname: "molly", Gender: "female"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	resp, err := client.GetState(ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if resp.Profile.Nickname != "molly" {
		t.Fatalf("expected profile nickname molly, got %+v", resp.Profile)
	}
}

func TestSubscribeLogsStreamsNewEntries(t *testing.T) {
	eng := newTestEngine(t)
	client := startServer(t, eng)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan logfeed.Entry, 16)
	errs := make(chan error, 1)
	go func() {
		errs <- client.SubscribeLogs(ctx, func(e logfeed.Entry) { received <- e })
	}()

	// Wait for the server side subscription before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for eng.LogStats().Subscribers == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	result, err := eng.CraftFirewall(context.Background())
	if err != nil {
		t.Fatalf("craft firewall: %v", err)
	}
	for i, want := range result.Entries {
		select {
		case got := <-received:
			if got.ID != want.ID || got.Text != want.Text {
				t.Fatalf("entry %d: expected %+v, got %+v", i, want, got)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for entry %d", i)
		}
	}
	cancel()
	if err := <-errs; status.Code(err) != codes.Canceled {
		t.Fatalf("expected canceled stream, got %v", err)
	}
}
