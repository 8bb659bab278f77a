// Package scoreboard turns a post-match scoreboard screenshot into per-player
// stat records: it segments the image, reads the match timer from the header
// and extracts the six numeric stat fields of every player row.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
)

// Player slots. Slot 0 is the own-team tank, 1-2 own damage, 3-4 own support;
// slots 5-9 mirror that order for the enemy team.
const (
	PlayerCount = 10
	TeamSize    = 5
	FieldCount  = 6
)

// Role is the scoreboard role of a player slot.
type Role int

const (
	RoleTank Role = iota
	RoleDamage
	RoleSupport
)

func (r Role) String() string {
	switch r {
	case RoleTank:
		return "tank"
	case RoleDamage:
		return "damage"
	case RoleSupport:
		return "support"
	default:
		return "unknown"
	}
}

// SlotRole returns the role of a slot. Enemy slots mirror the own team.
func SlotRole(slot int) Role {
	switch slot % TeamSize {
	case 0:
		return RoleTank
	case 1, 2:
		return RoleDamage
	default:
		return RoleSupport
	}
}

// IsOwnTeam reports whether the slot belongs to the screenshot owner's team.
func IsOwnTeam(slot int) bool {
	return slot >= 0 && slot < TeamSize
}

// Field names in scoreboard column order.
var FieldNames = [FieldCount]string{"K", "A", "D", "Damage", "H", "MIT"}

// RawFields holds the OCR text of the six stat fields of one player, in band order.
type RawFields [FieldCount]string

// Empty returns how many fields produced no text.
func (f RawFields) Empty() int {
	n := 0
	for _, s := range f {
		if s == "" {
			n++
		}
	}
	return n
}

// StatRecord holds the six end-of-match counters of one player.
type StatRecord struct {
	Kills     int `json:"k"`
	Assists   int `json:"a"`
	Deaths    int `json:"d"`
	Damage    int `json:"damage"`
	Healing   int `json:"h"`
	Mitigated int `json:"mit"`
}

// Values returns the counters in FieldNames order.
func (r StatRecord) Values() [FieldCount]float64 {
	return [FieldCount]float64{
		float64(r.Kills),
		float64(r.Assists),
		float64(r.Deaths),
		float64(r.Damage),
		float64(r.Healing),
		float64(r.Mitigated),
	}
}

// ParseStatFields converts OCR text into a StatRecord.
// Empty or unparseable fields become 0.
func ParseStatFields(f RawFields) StatRecord {
	var v [FieldCount]int
	for i, s := range f {
		v[i] = parseCount(s)
	}
	return StatRecord{
		Kills:     v[0],
		Assists:   v[1],
		Deaths:    v[2],
		Damage:    v[3],
		Healing:   v[4],
		Mitigated: v[5],
	}
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// TextReader runs text recognition on an image.
// Implementations must be safe for concurrent use.
type TextReader interface {
	// ReadText recognises free text, one block per image.
	ReadText(ctx context.Context, img image.Image) (string, error)
	// ReadDigits recognises digits only.
	ReadDigits(ctx context.Context, img image.Image) (string, error)
}

var (
	// ErrImageRead is matched by every ImageReadError.
	ErrImageRead = errors.New("image could not be read")
	// ErrDimension is matched by every DimensionError.
	ErrDimension = errors.New("image dimensions too small")
)

// ImageReadError reports a screenshot that could not be opened or decoded.
type ImageReadError struct {
	Path string
	Err  error
}

func (e *ImageReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("error reading image: %v", e.Err)
	}
	return fmt.Sprintf("error reading image %s: %v", e.Path, e.Err)
}

func (e *ImageReadError) Unwrap() error { return e.Err }

func (e *ImageReadError) Is(target error) bool { return target == ErrImageRead }

// DimensionError reports a screenshot smaller than MinWidth x MinHeight.
type DimensionError struct {
	Width, Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("image dimensions are too small: %dx%d (need at least %dx%d)",
		e.Width, e.Height, MinWidth, MinHeight)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimension }
