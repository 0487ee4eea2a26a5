package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/louisbranch/flatline/internal/services/game/domain/logfeed"
)

func TestLogStreamPushesEntries(t *testing.T) {
	eng := newTestEngine(t)
	server := httptest.NewServer(NewHandler(eng, quietOptions(Options{})))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/logs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for eng.LogStats().Subscribers == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	result, err := eng.CraftFirewall(context.Background())
	if err != nil {
		t.Fatalf("craft firewall: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, want := range result.Entries {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read entry %d: %v", i, err)
		}
		var got logfeed.Entry
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("decode entry %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestLogStreamClosesOnTeardown(t *testing.T) {
	eng := newTestEngine(t)
	server := httptest.NewServer(NewHandler(eng, quietOptions(Options{})))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/logs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for eng.LogStats().Subscribers == 0 {
		if time.Now().After(deadline) {
			t.Fatal("websocket never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := eng.Teardown(context.Background()); err != nil {
		t.Fatalf("teardown: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestLogStreamRequiresToken(t *testing.T) {
	eng := newTestEngine(t)
	server := httptest.NewServer(NewHandler(eng, quietOptions(Options{Auth: NewAuth("secret", time.Hour, nil)})))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/logs"
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected dial without token to fail")
	} else if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestLogStreamChecksOrigin(t *testing.T) {
	eng := newTestEngine(t)
	server := httptest.NewServer(NewHandler(eng, quietOptions(Options{Origins: []string{"https://ops.flatline.test/"}})))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/logs"

	cases := []struct {
		name   string
		origin string
		ok     bool
	}{
		{name: "no origin", ok: true},
		{name: "same host", origin: server.URL, ok: true},
		{name: "allowed", origin: "https://OPS.flatline.test", ok: true},
		{name: "foreign", origin: "https://evil.example", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.origin != "" {
				header.Set("Origin", tc.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tc.ok {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("expected foreign origin to be refused")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Fatalf("expected 403, got %v", resp)
			}
		})
	}
}
