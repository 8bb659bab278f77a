package scoreboard

import (
	"context"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"scoreboard-analyzer/internal/workpool"
)

// Band is a horizontal column range of the stat crop. End < 0 runs to the edge.
type Band struct {
	Start, End int
}

// StatBands are the six stat columns, in FieldNames order.
var StatBands = [FieldCount]Band{
	{275, 339},
	{339, 394},
	{394, 455},
	{455, 569},
	{569, 655},
	{655, -1},
}

// BandRect returns the band's rectangle within bounds, clipped to them.
func (b Band) BandRect(bounds image.Rectangle) image.Rectangle {
	end := bounds.Max.X
	if b.End >= 0 {
		end = bounds.Min.X + b.End
	}
	r := image.Rect(bounds.Min.X+b.Start, bounds.Min.Y, end, bounds.Max.Y)
	return r.Intersect(bounds)
}

// StatExtractor reads the six stat fields of player rows.
type StatExtractor struct {
	reader TextReader
	pool   *workpool.Pool
	logger *zap.SugaredLogger

	observe func(time.Duration)
}

// NewStatExtractor creates an extractor that runs band OCR on pool.
func NewStatExtractor(reader TextReader, pool *workpool.Pool, logger *zap.Logger) *StatExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatExtractor{reader: reader, pool: pool, logger: logger.Sugar()}
}

// OnBand registers a callback receiving the OCR duration of every band.
func (e *StatExtractor) OnBand(fn func(time.Duration)) {
	e.observe = fn
}

// ExtractFields reads one stat crop. Bands run concurrently; results are
// returned in band order. An unreadable band yields "" rather than an error;
// only context cancellation aborts.
func (e *StatExtractor) ExtractFields(ctx context.Context, stats image.Image) (RawFields, error) {
	var fields RawFields
	err := e.pool.Map(ctx, FieldCount, func(ctx context.Context, i int) error {
		r := StatBands[i].BandRect(stats.Bounds())
		if r.Empty() {
			return nil
		}
		band := ToGray(imaging.Crop(stats, r))

		start := time.Now()
		text, err := e.reader.ReadDigits(ctx, band)
		if e.observe != nil {
			e.observe(time.Since(start))
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Debugw("stat band OCR failed", "band", FieldNames[i], "error", err)
			return nil
		}
		fields[i] = CleanDigits(text)
		return nil
	})
	return fields, err
}

// ExtractAll reads every stat crop in order. With returnEmpty false, rows
// whose six fields are all empty are skipped.
func (e *StatExtractor) ExtractAll(ctx context.Context, crops []image.Image, returnEmpty bool) ([]RawFields, error) {
	out := make([]RawFields, 0, len(crops))
	for slot, crop := range crops {
		fields, err := e.ExtractFields(ctx, crop)
		if err != nil {
			return nil, err
		}
		if !returnEmpty && fields.Empty() == FieldCount {
			e.logger.Debugw("skipping empty stat row", "slot", slot)
			continue
		}
		out = append(out, fields)
	}
	return out, nil
}

// CleanDigits strips spaces and line breaks from OCR output.
func CleanDigits(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}

// ToGray returns a single-channel copy of img, or img itself when it already is one.
func ToGray(img image.Image) image.Image {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return img
	}
	g := imaging.Grayscale(img)
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: g.NRGBAAt(x, y).R})
		}
	}
	return out
}

// RowMissing reports a player row that is effectively unreadable: a hidden
// hero together with at least four empty stat fields.
func RowMissing(hidden bool, fields RawFields) bool {
	return hidden && fields.Empty() >= 4
}

// AnyRowMissing pairs hidden flags with stat rows and reports whether any row is missing.
func AnyRowMissing(hidden []bool, rows []RawFields) bool {
	for i := 0; i < len(hidden) && i < len(rows); i++ {
		if RowMissing(hidden[i], rows[i]) {
			return true
		}
	}
	return false
}
