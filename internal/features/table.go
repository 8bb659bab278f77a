// Package features turns per-player stat records into the wide feature row
// consumed by the win-probability model.
//
// The transforms run in a fixed order on a long table keyed by
// (SnapID, PlayerID) and, after the pivot, on one wide row per SnapID.
package features

import (
	"gonum.org/v1/gonum/mat"

	"scoreboard-analyzer/internal/scoreboard"
)

// Stat column indexes of LongTable.Stats, in scoreboard.FieldNames order.
const (
	ColK = iota
	ColA
	ColD
	ColDamage
	ColH
	ColMIT
)

// LongTable has one row per (SnapID, PlayerID).
type LongTable struct {
	// Stats is rows x scoreboard.FieldCount.
	Stats    *mat.Dense
	Time     []float64
	SnapID   []int
	PlayerID []int
}

// BuildLongTable creates a single-snapshot table with SnapID 0 and
// PlayerID equal to each record's position.
func BuildLongTable(stats []scoreboard.StatRecord, minutes float64) *LongTable {
	t := &LongTable{}
	t.AddSnapshot(0, stats, minutes)
	return t
}

// AddSnapshot appends one snapshot's player rows.
func (t *LongTable) AddSnapshot(snapID int, stats []scoreboard.StatRecord, minutes float64) {
	if len(stats) == 0 {
		return
	}
	add := mat.NewDense(len(stats), scoreboard.FieldCount, nil)
	for i, s := range stats {
		v := s.Values()
		add.SetRow(i, v[:])

		t.Time = append(t.Time, minutes)
		t.SnapID = append(t.SnapID, snapID)
		t.PlayerID = append(t.PlayerID, i)
	}

	if t.Stats == nil {
		t.Stats = add
		return
	}
	var stacked mat.Dense
	stacked.Stack(t.Stats, add)
	t.Stats = &stacked
}

// Len returns the number of rows.
func (t *LongTable) Len() int {
	return len(t.PlayerID)
}

// Value returns the stat at row i and column col.
func (t *LongTable) Value(i, col int) float64 {
	return t.Stats.At(i, col)
}

// Clone returns a deep copy.
func (t *LongTable) Clone() *LongTable {
	c := &LongTable{
		Time:     append([]float64(nil), t.Time...),
		SnapID:   append([]int(nil), t.SnapID...),
		PlayerID: append([]int(nil), t.PlayerID...),
	}
	if t.Stats != nil {
		c.Stats = mat.DenseCopyOf(t.Stats)
	}
	return c
}

// apply returns a copy of t with fn applied to every stat cell.
func (t *LongTable) apply(fn func(row, col int, v float64) float64) *LongTable {
	out := t.Clone()
	if out.Stats != nil {
		out.Stats.Apply(fn, t.Stats)
	}
	return out
}
