package scoreboard

import (
	"image"

	"github.com/disintegration/imaging"
)

// Layout contract with the scoreboard screenshot format.
const (
	MinWidth  = 750
	MinHeight = 100

	// IconWidth is the column at which each player row splits into the hero
	// portrait and the stat columns. It is the same for every player.
	IconWidth = 91

	// minPlayerArea is the smallest area below the header that still gives
	// every player row at least one pixel.
	minPlayerArea = PlayerCount
)

// HeaderBox is the region holding the match timer.
var HeaderBox = image.Rect(120, 0, 750, 100)

// PlayerImage is the scoreboard row of one player.
type PlayerImage struct {
	Slot  int
	Row   image.Image
	Icon  image.Image
	Stats image.Image
}

// Segments is a screenshot cut into its header and ten ordered player rows.
type Segments struct {
	Header  image.Image
	Players [PlayerCount]PlayerImage
}

// Icons returns the hero portraits in slot order.
func (s *Segments) Icons() []image.Image {
	out := make([]image.Image, PlayerCount)
	for i, p := range s.Players {
		out[i] = p.Icon
	}
	return out
}

// StatImages returns the stat crops in slot order.
func (s *Segments) StatImages() []image.Image {
	out := make([]image.Image, PlayerCount)
	for i, p := range s.Players {
		out[i] = p.Stats
	}
	return out
}

// Segment cuts a screenshot into header and player rows.
// Rows are full-width strips tiling the area below the header, own team first.
// If that area is too short the rows tile the whole image instead.
func Segment(img image.Image) (*Segments, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h < MinHeight || w < MinWidth {
		return nil, &DimensionError{Width: w, Height: h}
	}

	seg := &Segments{
		Header: imaging.Crop(img, HeaderBox.Add(b.Min)),
	}

	top := HeaderBox.Max.Y
	if h-top < minPlayerArea {
		top = 0
	}
	area := h - top

	for slot := 0; slot < PlayerCount; slot++ {
		y0 := top + slot*area/PlayerCount
		y1 := top + (slot+1)*area/PlayerCount
		row := image.Rect(0, y0, w, y1).Add(b.Min)

		seg.Players[slot] = PlayerImage{
			Slot:  slot,
			Row:   imaging.Crop(img, row),
			Icon:  imaging.Crop(img, image.Rect(0, y0, IconWidth, y1).Add(b.Min)),
			Stats: imaging.Crop(img, image.Rect(IconWidth, y0, w, y1).Add(b.Min)),
		}
	}
	return seg, nil
}
