// Package roles grades the own team's tank, damage and support players from
// raw scoreboard stats and derives the outcome bucket used for rule lookup.
package roles

import (
	"math"
	"strconv"

	"scoreboard-analyzer/internal/scoreboard"
)

// Status is a per-role performance grade.
type Status string

const (
	NotEnoughData Status = "not enough data"
	Poor          Status = "poor"
	Average       Status = "average"
	Good          Status = "good"
)

// Grading thresholds.
const (
	tankPoorMax       = 0.05
	tankAverageMin    = 0.04
	tankAverageMax    = 0.08
	damageMargin      = 274
	supportPoorMax    = 0.14
	supportAverageMin = 0.185
	supportAverageMax = 0.32

	// Probabilities above this threshold predict a win.
	winThreshold = 0.5
)

// Statuses holds the three role grades.
type Statuses struct {
	Tank    Status `json:"tank"`
	Damage  Status `json:"damage"`
	Support Status `json:"support"`
}

// Incomplete reports whether any role lacks data.
func (s Statuses) Incomplete() bool {
	return s.Tank == NotEnoughData || s.Damage == NotEnoughData || s.Support == NotEnoughData
}

// Evaluate grades the roles. Slots beyond len(stats) count as zero stats.
func Evaluate(stats []scoreboard.StatRecord) Statuses {
	var rows [scoreboard.PlayerCount]scoreboard.StatRecord
	copy(rows[:], stats)

	return Statuses{
		Tank:    TankStatus(rows[0].Kills, rows[0].Mitigated),
		Damage:  DamageStatus(rows[1].Damage+rows[2].Damage, rows[6].Damage+rows[7].Damage),
		Support: SupportStatus(rows[3].Damage+rows[4].Damage, rows[3].Healing+rows[4].Healing),
	}
}

// TankStatus grades the tank on kills against the square root of mitigation.
func TankStatus(kills, mitigated int) Status {
	if kills == 0 || mitigated == 0 {
		return NotEnoughData
	}
	k := float64(kills)
	return tankGrade(k / (k + math.Sqrt(float64(mitigated))))
}

func tankGrade(ratio float64) Status {
	switch {
	case ratio <= tankPoorMax:
		return Poor
	case ratio > tankAverageMin && ratio < tankAverageMax:
		return Average
	default:
		return Good
	}
}

// DamageStatus compares the own damage pair with the mirrored enemy pair.
func DamageStatus(own, enemy int) Status {
	if own == 0 || enemy == 0 {
		return NotEnoughData
	}
	diff := own - enemy
	switch {
	case diff < damageMargin && diff > -damageMargin:
		return Average
	case diff >= damageMargin:
		return Good
	default:
		return Poor
	}
}

// SupportStatus grades the supports on the damage share of damage plus healing.
// Ratios in [0.14, 0.185) fall through to Good.
func SupportStatus(damage, healing int) Status {
	if damage == 0 || healing == 0 {
		return NotEnoughData
	}
	return supportGrade(float64(damage) / float64(damage+healing))
}

func supportGrade(ratio float64) Status {
	switch {
	case ratio < supportPoorMax:
		return Poor
	case ratio >= supportAverageMin && ratio <= supportAverageMax:
		return Average
	default:
		return Good
	}
}

// OutcomeBucket returns 1 when any role lacks data or the probability is
// unknown, otherwise 1 for p > 0.5 and 0 below.
func OutcomeBucket(s Statuses, p *float64) int {
	if s.Incomplete() || p == nil || *p > winThreshold {
		return 1
	}
	return 0
}

// RuleItems returns the items a rule's left-hand side must contain to match
// the given grades and bucket, in the "KEY=value" form of the rule tables.
func RuleItems(s Statuses, bucket int) []string {
	if s.Incomplete() {
		return []string{"RESULT=1"}
	}
	return []string{
		"TANK=" + string(s.Tank),
		"DPS=" + string(s.Damage),
		"SUP=" + string(s.Support),
		"RESULT=" + strconv.Itoa(bucket),
	}
}
