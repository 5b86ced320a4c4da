package protocol

import (
	"errors"

	"lanewars.io/internal/sim/game"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrGameOver      = "E_GAME_OVER"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrNoResource:      {},
	ErrInvalidTarget:   {},
	ErrGameOver:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor maps a purchase error from the simulation to its wire code.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrInvalidLane):
		return ErrBadRequest
	case errors.Is(err, game.ErrNoResources):
		return ErrNoResource
	case errors.Is(err, game.ErrBaseDestroyed):
		return ErrInvalidTarget
	case errors.Is(err, game.ErrGameOver):
		return ErrGameOver
	default:
		return ErrInternal
	}
}
