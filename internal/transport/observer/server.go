package observer

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lanewars.io/internal/protocol"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/state"
	"lanewars.io/internal/sim/tuning"
)

// Feed is the slice of game.Runner the observer needs.
type Feed interface {
	Subscribe() (<-chan game.Frame, func())
	Purchase(ctx context.Context, lane int) error
	MatchID() string
	Tuning() tuning.Tuning
	Difficulty() state.Difficulty
}

type Server struct {
	feed Feed
	log  *log.Logger

	upgrader websocket.Upgrader

	PurchaseTimeout time.Duration
}

func NewServer(feed Feed, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		feed: feed,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		PurchaseTimeout: 2 * time.Second,
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		hello, sessionID, ok := s.handshake(conn)
		if !ok {
			return
		}
		s.log.Printf("observer %s connected name=%q spectator=%v", sessionID, hello.ClientName, hello.Spectator)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		frames, unsubscribe := s.feed.Subscribe()
		defer unsubscribe()
		out := make(chan any, 16)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case f := <-frames:
					if err := writeJSON(conn, stateMsg(f)); err != nil {
						cancel()
						return
					}
				case m := <-out:
					if err := writeJSON(conn, m); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for ctx.Err() == nil {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypePurchase {
				continue
			}
			res := s.handlePurchase(ctx, hello, msg)
			select {
			case out <- res:
			case <-ctx.Done():
			}
		}
		cancel()
		s.log.Printf("observer %s disconnected", sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (protocol.HelloMsg, string, bool) {
	var hello protocol.HelloMsg
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return hello, "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return hello, "", false
	}
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return hello, "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return hello, "", false
	}

	cfg := s.feed.Tuning()
	sessionID := uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		MatchID:         s.feed.MatchID(),
		SessionID:       sessionID,
		Lanes:           cfg.Lanes,
		TickRateHz:      cfg.TickRateHz,
		PurchaseCost:    cfg.PurchaseCost,
		Difficulty:      s.feed.Difficulty().String(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return hello, "", false
	}
	return hello, sessionID, true
}

func (s *Server) handlePurchase(ctx context.Context, hello protocol.HelloMsg, msg []byte) protocol.PurchaseResultMsg {
	res := protocol.PurchaseResultMsg{Type: protocol.TypePurchaseResult, ProtocolVersion: protocol.Version}

	var p protocol.PurchaseMsg
	if err := json.Unmarshal(msg, &p); err != nil {
		res.Code = protocol.ErrProtoBadRequest
		res.Message = "bad PURCHASE"
		return res
	}
	res.ID = p.ID
	res.Lane = p.Lane
	if p.ProtocolVersion != protocol.Version {
		res.Code = protocol.ErrProtoBadRequest
		res.Message = "bad protocol_version"
		return res
	}
	if hello.Spectator {
		res.Code = protocol.ErrNoPermission
		res.Message = "spectators cannot purchase"
		return res
	}

	pctx, cancel := context.WithTimeout(ctx, s.PurchaseTimeout)
	defer cancel()
	if err := s.feed.Purchase(pctx, p.Lane); err != nil {
		res.Code = protocol.CodeFor(err)
		res.Message = err.Error()
		return res
	}
	res.OK = true
	return res
}

func stateMsg(f game.Frame) protocol.StateMsg {
	return protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		MatchID:         f.MatchID,
		Tick:            f.Tick,
		State:           f.State,
		Lanes:           f.Lanes,
		Game:            f.Game,
		Digest:          f.Digest,
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
