package features

import (
	"fmt"
	"math"
	"sort"

	"scoreboard-analyzer/internal/scoreboard"
)

// ScaleRates divides every stat by the match duration, giving per-minute rates.
// Durations are clamped to at least a minute before they reach this stage.
func ScaleRates(t *LongTable) *LongTable {
	return t.apply(func(i, _ int, v float64) float64 {
		return v / t.Time[i]
	})
}

// ResetRates multiplies per-minute rates back into match totals.
func ResetRates(t *LongTable) *LongTable {
	return t.apply(func(i, _ int, v float64) float64 {
		return v * t.Time[i]
	})
}

// Per-field ceilings applied to every player.
var columnCaps = map[int]float64{
	ColK:      5,
	ColA:      4,
	ColD:      3,
	ColDamage: 2500,
	ColMIT:    2500,
}

// Healing ceilings by PlayerID. Player 4 and the enemy team have none.
var healingCaps = map[int]float64{
	0: 600,
	1: 400,
	2: 400,
	3: 2500,
}

// CapOutliers clips per-minute rates to fixed ceilings. It is idempotent.
func CapOutliers(t *LongTable) *LongTable {
	return t.apply(func(i, col int, v float64) float64 {
		if ceiling, ok := columnCaps[col]; ok {
			return math.Min(v, ceiling)
		}
		if col == ColH {
			if ceiling, ok := healingCaps[t.PlayerID[i]]; ok {
				return math.Min(v, ceiling)
			}
		}
		return v
	})
}

// ColumnName returns the pivoted column name for a feature and player.
func ColumnName(feature string, player int) string {
	return fmt.Sprintf("%s_player%d", feature, player)
}

// pivotFeatures are the pivoted features in column order.
var pivotFeatures = func() []string {
	names := append([]string(nil), scoreboard.FieldNames[:]...)
	sort.Strings(names)
	return names
}()

// Pivot reshapes the long table into one wide row per SnapID, ascending.
// Columns are <feature>_player<id> for every player slot; combinations
// missing from the table are 0 and repeated ones are averaged.
func Pivot(t *LongTable) []*Row {
	type key struct{ snap, player int }
	sums := map[key][]float64{}
	counts := map[key]int{}
	players := map[int]bool{}
	for p := 0; p < scoreboard.PlayerCount; p++ {
		players[p] = true
	}

	var snaps []int
	seen := map[int]bool{}
	for i := 0; i < t.Len(); i++ {
		k := key{t.SnapID[i], t.PlayerID[i]}
		if sums[k] == nil {
			sums[k] = make([]float64, scoreboard.FieldCount)
		}
		for col := 0; col < scoreboard.FieldCount; col++ {
			sums[k][col] += t.Value(i, col)
		}
		counts[k]++
		players[k.player] = true
		if !seen[k.snap] {
			seen[k.snap] = true
			snaps = append(snaps, k.snap)
		}
	}
	sort.Ints(snaps)

	ids := make([]int, 0, len(players))
	for p := range players {
		ids = append(ids, p)
	}
	sort.Ints(ids)

	fieldIndex := map[string]int{}
	for i, f := range scoreboard.FieldNames {
		fieldIndex[f] = i
	}

	rows := make([]*Row, 0, len(snaps))
	for _, snap := range snaps {
		row := NewRow()
		for _, f := range pivotFeatures {
			col := fieldIndex[f]
			for _, p := range ids {
				k := key{snap, p}
				v := 0.0
				if n := counts[k]; n > 0 {
					v = sums[k][col] / float64(n)
				}
				row.Set(ColumnName(f, p), v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Engineered ratio thresholds. Each chain is checked in order and the first
// matching condition wins.
const (
	epsilon = 1e-6

	tankPoorMax    = 0.05 // ratio <= tankPoorMax
	tankAverageMax = 0.08 // ratio <  tankAverageMax

	supportPoorMax    = 0.14 // ratio <  supportPoorMax
	supportAverageMax = 0.32 // ratio <= supportAverageMax
)

// Status labels of the engineered categorical columns.
const (
	StatusPoor    = "poor"
	StatusAverage = "average"
	StatusGood    = "good"
)

// TankStatus buckets the engineered tank ratio.
func TankStatus(ratio float64) string {
	switch {
	case ratio <= tankPoorMax:
		return StatusPoor
	case ratio < tankAverageMax:
		return StatusAverage
	default:
		return StatusGood
	}
}

// SupportStatus buckets the engineered support ratio.
func SupportStatus(ratio float64) string {
	switch {
	case ratio < supportPoorMax:
		return StatusPoor
	case ratio <= supportAverageMax:
		return StatusAverage
	default:
		return StatusGood
	}
}

// Engineer derives role ratios and statuses and folds per-player columns
// into role aggregates. It returns a new row.
func Engineer(in *Row) *Row {
	r := in.Clone()

	k0 := r.Get("K_player0")
	tankRatio := k0 / (k0 + math.Sqrt(r.Get("MIT_player0")+epsilon))

	supDamage := r.Get("Damage_player3") + r.Get("Damage_player4")
	supHealing := r.Get("H_player3") + r.Get("H_player4")
	supportRatio := supDamage / (supDamage + supHealing + epsilon)

	r.SetLabel("tank_status", TankStatus(tankRatio))
	r.SetLabel("support_status", SupportStatus(supportRatio))

	r.Drop("Damage_player0")
	r.DropPrefix("MIT_player")

	r.Set("A_dps", r.Get("A_player1")+r.Get("A_player2"))
	r.Set("A_support", r.Get("A_player3")+r.Get("A_player4"))
	r.Set("Damage_support", r.Get("Damage_player3")+r.Get("Damage_player4"))
	// Same inputs as Damage_support; the trained model expects both columns.
	r.Set("Damage_dps", r.Get("Damage_player3")+r.Get("Damage_player4"))

	r.Drop(
		"A_player1", "A_player2", "A_player3", "A_player4",
		"Damage_player1", "Damage_player2", "Damage_player3", "Damage_player4",
	)
	return r
}

// Cleanup is the final pruning stage. It currently passes rows through.
func Cleanup(r *Row) *Row {
	return r
}
