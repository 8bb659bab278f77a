package scoreboard

import (
	"context"
	"image"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// TimeMarker prefixes the match timer in the header text.
const TimeMarker = "TIME:"

// MinDuration is the shortest duration used for per-minute normalisation.
const MinDuration = 1.0

// timePattern matches "MM:SS", "SS" and "SS.fff" at the start of the timer text.
// The fractional part is matched but not used.
var timePattern = regexp.MustCompile(`^(?:(\d+):)?(\d+)(?:\.(\d+))?`)

// HeaderParser reads the match duration from the scoreboard header.
type HeaderParser struct {
	reader TextReader
	logger *zap.SugaredLogger
}

// NewHeaderParser creates a header parser.
func NewHeaderParser(reader TextReader, logger *zap.Logger) *HeaderParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeaderParser{reader: reader, logger: logger.Sugar()}
}

// Parse returns the match duration in minutes. ok is false when the header
// carries no readable timer; that is not an error.
func (p *HeaderParser) Parse(ctx context.Context, header image.Image) (minutes float64, ok bool) {
	text, err := p.reader.ReadText(ctx, header)
	if err != nil {
		p.logger.Warnw("header OCR failed", "error", err)
		return 0, false
	}
	minutes, ok = ParseHeaderText(text)
	if !ok {
		p.logger.Debugw("no match duration in header", "text", text)
	}
	return minutes, ok
}

// ParseHeaderText finds the first line carrying the timer marker and parses it.
func ParseHeaderText(text string) (float64, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, TimeMarker) {
			continue
		}
		parts := strings.Split(line, TimeMarker)
		return ParseTime(strings.TrimSpace(parts[len(parts)-1]))
	}
	return 0, false
}

// ParseTime converts timer text to minutes. It tries, in order, the
// minutes:seconds pattern, a plain float, and finally gives up.
func ParseTime(s string) (float64, bool) {
	if m := timePattern.FindStringSubmatch(s); m != nil {
		minutes := 0
		if m[1] != "" {
			minutes, _ = strconv.Atoi(m[1])
		}
		seconds, _ := strconv.Atoi(m[2])
		return float64(minutes) + float64(seconds)/60.0, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ClampDuration raises durations shorter than a minute to MinDuration.
func ClampDuration(minutes float64) float64 {
	if minutes < MinDuration {
		return MinDuration
	}
	return minutes
}
