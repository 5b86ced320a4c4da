package protocol

import (
	"lanewars.io/internal/sim/metrics"
	"lanewars.io/internal/sim/state"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
	// Spectators never send PURCHASE; the server rejects it if they do.
	Spectator bool `json:"spectator,omitempty"`
	MaxQueue  int  `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	MatchID         string `json:"match_id"`
	SessionID       string `json:"session_id"`
	Lanes           int    `json:"lanes"`
	TickRateHz      int    `json:"tick_rate_hz"`
	PurchaseCost    int    `json:"purchase_cost"`
	Difficulty      string `json:"difficulty"`
}

// STATE (server -> client), one per published tick. Slow clients only get the newest.
type StateMsg struct {
	Type            string                `json:"type"`
	ProtocolVersion string                `json:"protocol_version"`
	MatchID         string                `json:"match_id,omitempty"`
	Tick            uint64                `json:"tick"`
	State           *state.GameState      `json:"state"`
	Lanes           []metrics.LaneMetrics `json:"lanes"`
	Game            metrics.GameMetrics   `json:"game"`
	Digest          string                `json:"digest,omitempty"`
}

// PURCHASE (client -> server): buy one soldier in a lane for the player side.
type PurchaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Lane            int    `json:"lane"`
}

type PurchaseResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Lane            int    `json:"lane"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
