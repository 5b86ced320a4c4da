package game

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"lanewars.io/internal/sim/state"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// StateDigest hashes every simulated field of s in list order. Two runs that agree on the
// digest agree on the state.
func StateDigest(s *state.GameState) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, s.Tick)
	digestWriteU64(h, &tmp, s.NextID)
	h.Write([]byte{byte(s.Winner), byte(s.Difficulty)})
	digestWriteI64(h, &tmp, int64(s.PlayerResources))
	digestWriteI64(h, &tmp, int64(s.EnemyResources))
	if s.EnemyAI != nil {
		h.Write([]byte{1})
		digestWriteF64(h, &tmp, s.EnemyAI.SpawnCooldown)
	} else {
		h.Write([]byte{0})
	}

	for _, list := range [][]*state.Unit{s.Soldiers, s.ControlPoints, s.Turrets} {
		digestWriteU64(h, &tmp, uint64(len(list)))
		for _, u := range list {
			digestUnit(h, &tmp, u)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestUnit(h hashWriter, tmp *[8]byte, u *state.Unit) {
	digestWriteString(h, tmp, u.ID)
	digestWriteString(h, tmp, u.LaneKey)
	digestWriteString(h, tmp, u.TargetID)
	h.Write([]byte{byte(u.Type), byte(u.Side)})
	for _, f := range []float64{
		u.Pos.X, u.Pos.Y, u.Angle,
		u.Health, u.ShootCooldown, u.ProductionCooldown, u.Effectiveness,
	} {
		digestWriteF64(h, tmp, f)
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteF64(h hashWriter, tmp *[8]byte, v float64) {
	digestWriteU64(h, tmp, math.Float64bits(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}
