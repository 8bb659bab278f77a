// Package hero identifies the hero played in each scoreboard slot from its
// portrait crop, gating low-confidence predictions to Hidden.
package hero

import (
	"context"
	"image"
	"math"
	"strings"
)

// ConfidenceThreshold is the minimum softmax confidence for a named hero.
const ConfidenceThreshold = 0.9

// LabelPrefix is the class-name prefix used by the trained classifier and
// the external rule tables.
const LabelPrefix = "label_"

// Hero is a hero name without the label prefix, e.g. "Soldier_76".
type Hero string

// Hidden marks a portrait that could not be identified with enough confidence.
const Hidden Hero = "Hidden"

// Label returns the prefixed class name, e.g. "label_Ana".
func (h Hero) Label() string {
	return LabelPrefix + string(h)
}

// FromLabel strips the label prefix from a class name.
func FromLabel(label string) Hero {
	return Hero(strings.TrimPrefix(label, LabelPrefix))
}

// IsHidden reports whether h is the Hidden sentinel.
func (h Hero) IsHidden() bool {
	return h == Hidden
}

// Classes is the output order of the trained classifier, Hidden included.
var Classes = []Hero{
	"Ana", "Ashe", "Baptiste", "Bastion", "Brigitte", "Cassidy",
	"DVa", "Doomfist", "Echo", "Genji", "Hanzo", "Hazard", "Hidden",
	"Illari", "Junker_Queen", "Junkrat", "Juno", "Kiriko",
	"Lifeweaver", "Lucio", "Mauga", "Mei", "Mercy", "Moira",
	"Orisa", "Pharah", "Ramattra", "Reaper", "Reinhardt", "Roadhog",
	"Sigma", "Sojourn", "Soldier_76", "Sombra", "Symmetra", "Torbjorn",
	"Tracer", "Venture", "Widowmaker", "Winston", "Wrecking_Ball",
	"Zarya", "Zenyatta",
}

// Teams holds the predicted heroes for each side, in slot order.
// Enemy is nil when only the own team was requested.
type Teams struct {
	Own   []Hero `json:"own"`
	Enemy []Hero `json:"enemy"`
}

// All returns own then enemy heroes.
func (t Teams) All() []Hero {
	out := make([]Hero, 0, len(t.Own)+len(t.Enemy))
	out = append(out, t.Own...)
	return append(out, t.Enemy...)
}

// Empty reports whether no hero data is available.
func (t Teams) Empty() bool {
	return len(t.Own) == 0 && len(t.Enemy) == 0
}

// Classifier predicts heroes for up to ten portrait crops in slot order.
// With ownOnly set only the first five predictions are returned.
type Classifier interface {
	Classify(ctx context.Context, icons []image.Image, ownOnly bool) (Teams, error)
}

// Unavailable is the Classifier used when no model could be loaded.
// It returns no hero data for either team.
type Unavailable struct{}

// Classify returns empty teams.
func (Unavailable) Classify(context.Context, []image.Image, bool) (Teams, error) {
	return Teams{Own: []Hero{}, Enemy: []Hero{}}, nil
}

// Softmax converts logits to probabilities.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxV := logits[0]
	for _, v := range logits[1:] {
		maxV = math.Max(maxV, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Gate picks the arg-max class when its probability reaches
// ConfidenceThreshold and Hidden otherwise.
func Gate(probs []float64, classes []Hero) Hero {
	if len(probs) == 0 {
		return Hidden
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	if probs[best] < ConfidenceThreshold || best >= len(classes) {
		return Hidden
	}
	return classes[best]
}

// SplitTeams splits slot-ordered predictions into own and enemy teams.
func SplitTeams(heroes []Hero, teamSize int, ownOnly bool) Teams {
	n := min(teamSize, len(heroes))
	t := Teams{Own: heroes[:n:n]}
	if !ownOnly {
		t.Enemy = heroes[n:]
	}
	return t
}
