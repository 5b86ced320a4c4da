package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"lanewars.io/internal/protocol"
	"lanewars.io/internal/sim/game"
	"lanewars.io/internal/sim/tuning"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return v
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(compile(t, "hello.schema.json"), decode(t, `{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"viewer",
	  "spectator":true,
	  "max_queue":4
	}`))
	validate(compile(t, "welcome.schema.json"), decode(t, `{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "match_id":"6f0c1f9e-7d55-4b7a-9d61-1c1f1c5bb0a1",
	  "session_id":"S1",
	  "lanes":3,
	  "tick_rate_hz":30,
	  "purchase_cost":1,
	  "difficulty":"MEDIUM"
	}`))
	validate(compile(t, "purchase.schema.json"), decode(t, `{
	  "type":"PURCHASE",
	  "protocol_version":"1.0",
	  "id":"P1",
	  "lane":2
	}`))
	validate(compile(t, "purchase_result.schema.json"), decode(t, `{
	  "type":"PURCHASE_RESULT",
	  "protocol_version":"1.0",
	  "id":"P1",
	  "lane":2,
	  "ok":false,
	  "code":"E_NO_RESOURCE",
	  "message":"no resources"
	}`))
}

func TestSchemas_RejectMalformed(t *testing.T) {
	purchase := compile(t, "purchase.schema.json")
	for _, raw := range []string{
		`{"type":"PURCHASE","protocol_version":"1.0"}`,
		`{"type":"PURCHASE","protocol_version":"1.0","lane":-1}`,
		`{"type":"BUY","protocol_version":"1.0","lane":0}`,
		`{"type":"PURCHASE","protocol_version":"1.0","lane":0,"side":"ENEMY"}`,
	} {
		if err := purchase.Validate(decode(t, raw)); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}

func TestSchemas_LiveStateMessage(t *testing.T) {
	g, err := game.New(tuning.Defaults(), game.Collaborators{}, nil)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	g.StartNewGame()
	for i := 0; i < 30; i++ {
		g.ProcessEventsAndSync()
	}
	if err := g.RequestPurchase(1); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	g.ProcessEventsAndSync()

	ix := g.Queries()
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		MatchID:         "m1",
		Tick:            g.State().Tick,
		State:           g.State(),
		Lanes:           ix.AllLaneMetrics(),
		Game:            ix.GameMetrics(),
		Digest:          game.StateDigest(g.State()),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := compile(t, "state.schema.json").Validate(decode(t, string(b))); err != nil {
		t.Fatalf("live STATE does not match schema: %v", err)
	}

	res := protocol.PurchaseResultMsg{
		Type:            protocol.TypePurchaseResult,
		ProtocolVersion: protocol.Version,
		Lane:            9,
		Code:            protocol.CodeFor(g.RequestPurchase(9)),
		Message:         "invalid lane",
	}
	b, _ = json.Marshal(res)
	if err := compile(t, "purchase_result.schema.json").Validate(decode(t, string(b))); err != nil {
		t.Fatalf("purchase result: %v", err)
	}
}
