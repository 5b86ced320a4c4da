// Package queries holds the per-tick lookup structures built over a GameState.
package queries

import (
	"lanewars.io/internal/sim/metrics"
	"lanewars.io/internal/sim/state"
)

// Predicate filters units; nil accepts everything.
type Predicate func(u *state.Unit) bool

type NearestUnitQuery struct {
	From        state.Vec2
	MaxDistance float64
	LaneKey     string
	PreferredID string
}

// Tuple pairs a candidate with its distance from the query origin.
type Tuple struct {
	Distance float64
	Unit     *state.Unit
}

// Index buckets units by lane and id. It stores pointers into the state it was built over,
// so writes through it land in that state.
type Index struct {
	lanes           int
	maxTurretHealth float64

	byLane [][]*state.Unit
	byID   map[string]*state.Unit

	laneMetrics []metrics.LaneMetrics
	gameMetrics metrics.GameMetrics
}

func New(lanes int, maxTurretHealth float64) *Index {
	ix := &Index{lanes: lanes, maxTurretHealth: maxTurretHealth}
	ix.reset()
	return ix
}

func (ix *Index) reset() {
	ix.byLane = make([][]*state.Unit, ix.lanes)
	ix.byID = make(map[string]*state.Unit)
	ix.laneMetrics = make([]metrics.LaneMetrics, ix.lanes)
	ix.gameMetrics = metrics.GameMetrics{}
}

func (ix *Index) Lanes() int { return ix.lanes }

// RebuildLookups re-buckets every unit of s and recomputes metrics.
func (ix *Index) RebuildLookups(s *state.GameState) {
	ix.reset()
	if s == nil {
		return
	}
	for _, u := range s.Units() {
		lane := state.LaneIndex(u.LaneKey)
		ix.byLane[lane] = append(ix.byLane[lane], u)
		ix.byID[u.ID] = u
	}
	ix.RecomputeMetrics()
}

// RecomputeMetrics refreshes lane and game metrics from the current buckets.
func (ix *Index) RecomputeMetrics() {
	for lane := range ix.byLane {
		ix.laneMetrics[lane] = metrics.Accumulate(ix.byLane[lane], ix.maxTurretHealth)
	}
	ix.gameMetrics = metrics.Summarize(ix.laneMetrics)
}

// UnitByID returns nil when the id is unknown.
func (ix *Index) UnitByID(id string) *state.Unit {
	if id == "" {
		return nil
	}
	return ix.byID[id]
}

// Lane returns the raw bucket for a lane. Callers may mutate units but not the slice.
func (ix *Index) Lane(laneKey string) []*state.Unit {
	return ix.byLane[state.LaneIndex(laneKey)]
}

func (ix *Index) UnitsByLane(laneKey string, pred Predicate) []*state.Unit {
	var out []*state.Unit
	for _, u := range ix.Lane(laneKey) {
		if pred == nil || pred(u) {
			out = append(out, u)
		}
	}
	return out
}

// NearestUnitTuples returns every candidate within MaxDistance, in bucket order.
func (ix *Index) NearestUnitTuples(q NearestUnitQuery, pred Predicate) []Tuple {
	var out []Tuple
	for _, u := range ix.Lane(q.LaneKey) {
		if pred != nil && !pred(u) {
			continue
		}
		d := q.From.Dist(u.Pos)
		if d <= q.MaxDistance {
			out = append(out, Tuple{Distance: d, Unit: u})
		}
	}
	return out
}

// NearestUnit returns the preferred unit whenever it is a candidate, else the closest one.
// Ties keep the first unit found.
func (ix *Index) NearestUnit(q NearestUnitQuery, pred Predicate) *state.Unit {
	var best *state.Unit
	bestDist := 0.0
	for _, t := range ix.NearestUnitTuples(q, pred) {
		if q.PreferredID != "" && t.Unit.ID == q.PreferredID {
			return t.Unit
		}
		if best == nil || t.Distance < bestDist {
			best, bestDist = t.Unit, t.Distance
		}
	}
	return best
}

// NearestFrom finds the closest opposing combat unit in from's lane, sticking to from's
// current target while it stays in range.
func (ix *Index) NearestFrom(from *state.Unit, maxDistance float64) *state.Unit {
	opp := from.Side.Opponent()
	return ix.NearestUnit(NearestUnitQuery{
		From:        from.Pos,
		MaxDistance: maxDistance,
		LaneKey:     from.LaneKey,
		PreferredID: from.TargetID,
	}, func(u *state.Unit) bool {
		return u != from && u.ID != from.ID && u.Side == opp && u.Type != state.UnitControlPoint
	})
}

func (ix *Index) LaneMetrics(laneKey string) metrics.LaneMetrics {
	return ix.laneMetrics[state.LaneIndex(laneKey)]
}

// AllLaneMetrics returns a copy ordered by lane index.
func (ix *Index) AllLaneMetrics() []metrics.LaneMetrics {
	return append([]metrics.LaneMetrics(nil), ix.laneMetrics...)
}

func (ix *Index) GameMetrics() metrics.GameMetrics { return ix.gameMetrics }
