package observer

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"lanewars.io/internal/protocol"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/tuning"
)

func startRunner(t *testing.T) *game.Runner {
	t.Helper()
	cfg := tuning.Defaults()
	cfg.TickRateHz = 100
	g, err := game.New(cfg, game.Collaborators{}, nil)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	g.StartNewGame()
	r := game.NewRunner(g, game.RunnerConfig{MatchID: "match-1"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil reads messages until one of type typ arrives and decodes it into v.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type != typ {
			continue
		}
		if err := json.Unmarshal(msg, v); err != nil {
			t.Fatalf("decode %s: %v", typ, err)
		}
		return
	}
}

func TestObserver_HandshakeStateAndPurchase(t *testing.T) {
	r := startRunner(t)
	srv := httptest.NewServer(NewServer(r, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})

	var welcome protocol.WelcomeMsg
	readUntil(t, conn, protocol.TypeWelcome, &welcome)
	if welcome.MatchID != "match-1" || welcome.Lanes != 3 || welcome.TickRateHz != 100 || welcome.SessionID == "" {
		t.Fatalf("welcome: %+v", welcome)
	}
	if welcome.Difficulty != "EASY" {
		t.Fatalf("difficulty: %s", welcome.Difficulty)
	}

	var st protocol.StateMsg
	readUntil(t, conn, protocol.TypeState, &st)
	if st.State == nil || len(st.Lanes) != 3 || st.Digest == "" {
		t.Fatalf("state: tick=%d lanes=%d", st.Tick, len(st.Lanes))
	}
	if len(st.State.Turrets) != 6 || !st.Game.PlayerHasBase || !st.Game.EnemyHasBase {
		t.Fatalf("state layout: turrets=%d game=%+v", len(st.State.Turrets), st.Game)
	}

	send(t, conn, protocol.PurchaseMsg{Type: protocol.TypePurchase, ProtocolVersion: protocol.Version, ID: "p1", Lane: 0})
	var res protocol.PurchaseResultMsg
	readUntil(t, conn, protocol.TypePurchaseResult, &res)
	if !res.OK || res.ID != "p1" || res.Code != "" {
		t.Fatalf("purchase: %+v", res)
	}

	send(t, conn, protocol.PurchaseMsg{Type: protocol.TypePurchase, ProtocolVersion: protocol.Version, ID: "p2", Lane: 9})
	readUntil(t, conn, protocol.TypePurchaseResult, &res)
	if res.OK || res.ID != "p2" || res.Code != protocol.ErrBadRequest {
		t.Fatalf("bad lane: %+v", res)
	}

	send(t, conn, protocol.PurchaseMsg{Type: protocol.TypePurchase, ProtocolVersion: "0.1", ID: "p3", Lane: 0})
	readUntil(t, conn, protocol.TypePurchaseResult, &res)
	if res.OK || res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("bad version: %+v", res)
	}
}

func TestObserver_SpectatorCannotPurchase(t *testing.T) {
	r := startRunner(t)
	srv := httptest.NewServer(NewServer(r, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv)
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, Spectator: true})
	var welcome protocol.WelcomeMsg
	readUntil(t, conn, protocol.TypeWelcome, &welcome)

	send(t, conn, protocol.PurchaseMsg{Type: protocol.TypePurchase, ProtocolVersion: protocol.Version, Lane: 0})
	var res protocol.PurchaseResultMsg
	readUntil(t, conn, protocol.TypePurchaseResult, &res)
	if res.OK || res.Code != protocol.ErrNoPermission {
		t.Fatalf("spectator purchase: %+v", res)
	}
}

func TestObserver_RejectsBadHandshake(t *testing.T) {
	r := startRunner(t)
	srv := httptest.NewServer(NewServer(r, nil).Handler())
	defer srv.Close()

	for _, first := range []any{
		protocol.PurchaseMsg{Type: protocol.TypePurchase, ProtocolVersion: protocol.Version},
		protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"},
	} {
		conn := dial(t, srv)
		send(t, conn, first)
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, _, err := conn.ReadMessage()
		if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
			t.Fatalf("expected policy close, got %v", err)
		}
	}
}
