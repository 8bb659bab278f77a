package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scoreboard-analyzer/internal/features"
	"scoreboard-analyzer/internal/hero"
	"scoreboard-analyzer/internal/metrics"
	"scoreboard-analyzer/internal/predict"
	"scoreboard-analyzer/internal/roles"
	"scoreboard-analyzer/internal/scoreboard"
	"scoreboard-analyzer/internal/workpool"
)

type fakeReader struct {
	text   func(ctx context.Context, img image.Image) (string, error)
	digits func(ctx context.Context, img image.Image) (string, error)
}

func (f *fakeReader) ReadText(ctx context.Context, img image.Image) (string, error) {
	return f.text(ctx, img)
}

func (f *fakeReader) ReadDigits(ctx context.Context, img image.Image) (string, error) {
	return f.digits(ctx, img)
}

func constReader(header, digits string) *fakeReader {
	return &fakeReader{
		text:   func(context.Context, image.Image) (string, error) { return header, nil },
		digits: func(context.Context, image.Image) (string, error) { return digits, nil },
	}
}

type fakeClassifier struct {
	classify func(ctx context.Context, icons []image.Image, ownOnly bool) (hero.Teams, error)
	observer func(int, time.Duration)
}

func (f *fakeClassifier) Classify(ctx context.Context, icons []image.Image, ownOnly bool) (hero.Teams, error) {
	return f.classify(ctx, icons, ownOnly)
}

func (f *fakeClassifier) OnBatch(fn func(int, time.Duration)) {
	f.observer = fn
}

func fixedTeams(heroes ...hero.Hero) *fakeClassifier {
	return &fakeClassifier{
		classify: func(_ context.Context, icons []image.Image, ownOnly bool) (hero.Teams, error) {
			return hero.SplitTeams(heroes[:len(icons)], scoreboard.TeamSize, ownOnly), nil
		},
	}
}

type fixedEstimator float64

func (f fixedEstimator) PredictProba(*features.Row) float64 { return float64(f) }

var lobby = []hero.Hero{
	"Reinhardt", "Tracer", "Sojourn", "Ana", "Lucio",
	"Winston", "Genji", "Cassidy", "Kiriko", "Mercy",
}

func screenshot() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 1280, 1100))
}

func newAnalyzer(t *testing.T, deps Deps, opts Options) *Analyzer {
	t.Helper()
	if deps.Pool == nil {
		deps.Pool = workpool.New(workpool.Config{Size: 4, Logger: zap.NewNop()})
	}
	a, err := New(deps, opts)
	require.NoError(t, err)
	return a
}

func TestNewRequiresReader(t *testing.T) {
	_, err := New(Deps{}, Options{})
	assert.Error(t, err)
}

func TestNewWiresClassifierMetrics(t *testing.T) {
	c := fixedTeams(lobby...)
	newAnalyzer(t, Deps{Reader: constReader("", ""), Classifier: c, Metrics: metrics.New()}, Options{})
	assert.NotNil(t, c.observer)
}

func TestExtract(t *testing.T) {
	a := newAnalyzer(t, Deps{
		Reader:     constReader("COMPETITIVE\nTIME: 12:30\nKING'S ROW", "100"),
		Classifier: fixedTeams(lobby...),
	}, Options{})

	ext, err := a.Extract(context.Background(), screenshot())
	require.NoError(t, err)

	require.Len(t, ext.Stats, scoreboard.PlayerCount)
	want := scoreboard.StatRecord{Kills: 100, Assists: 100, Deaths: 100, Damage: 100, Healing: 100, Mitigated: 100}
	for _, s := range ext.Stats {
		assert.Equal(t, want, s)
	}
	require.NotNil(t, ext.Duration)
	assert.InDelta(t, 12.5, *ext.Duration, 1e-9)
	assert.Equal(t, lobby[:5], ext.Heroes.Own)
	assert.Equal(t, lobby[5:], ext.Heroes.Enemy)
	assert.False(t, ext.AnyRowMissing)
	assert.Len(t, ext.MissingRows, scoreboard.PlayerCount)
}

func TestExtractUnknownDuration(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("COMPETITIVE", "5")}, Options{})

	ext, err := a.Extract(context.Background(), screenshot())
	require.NoError(t, err)
	assert.Nil(t, ext.Duration)
	assert.True(t, ext.Minutes() != ext.Minutes(), "unknown duration is NaN")
}

func TestExtractOwnTeamOnly(t *testing.T) {
	var gotOwnOnly atomic.Bool
	c := &fakeClassifier{classify: func(_ context.Context, icons []image.Image, ownOnly bool) (hero.Teams, error) {
		gotOwnOnly.Store(ownOnly)
		assert.Len(t, icons, scoreboard.PlayerCount)
		return hero.SplitTeams(lobby, scoreboard.TeamSize, ownOnly), nil
	}}
	a := newAnalyzer(t, Deps{Reader: constReader("TIME: 9:00", "1"), Classifier: c}, Options{OwnTeamOnly: true})

	ext, err := a.Extract(context.Background(), screenshot())
	require.NoError(t, err)
	assert.True(t, gotOwnOnly.Load())
	assert.Len(t, ext.Heroes.Own, scoreboard.TeamSize)
	assert.Nil(t, ext.Heroes.Enemy)
}

func TestExtractClassifierFailureDegrades(t *testing.T) {
	c := &fakeClassifier{classify: func(context.Context, []image.Image, bool) (hero.Teams, error) {
		return hero.Teams{}, errors.New("forward pass failed")
	}}
	a := newAnalyzer(t, Deps{Reader: constReader("TIME: 9:00", "1"), Classifier: c}, Options{})

	ext, err := a.Extract(context.Background(), screenshot())
	require.NoError(t, err)
	assert.True(t, ext.Heroes.Empty())
	assert.Len(t, ext.Stats, scoreboard.PlayerCount)
}

func TestExtractMissingRows(t *testing.T) {
	heroes := append([]hero.Hero(nil), lobby...)
	heroes[3] = hero.Hidden
	a := newAnalyzer(t, Deps{
		Reader:     constReader("TIME: 9:00", ""),
		Classifier: fixedTeams(heroes...),
	}, Options{})

	ext, err := a.Extract(context.Background(), screenshot())
	require.NoError(t, err)
	assert.True(t, ext.AnyRowMissing)
	for i, missing := range ext.MissingRows {
		assert.Equal(t, i == 3, missing, "slot %d", i)
	}
	for _, s := range ext.Stats {
		assert.Equal(t, scoreboard.StatRecord{}, s)
	}
}

func TestExtractSkipEmptyRows(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("TIME: 9:00", "")}, Options{SkipEmptyRows: true})

	ext, err := a.Extract(context.Background(), screenshot())
	require.NoError(t, err)
	assert.Empty(t, ext.Stats)
}

func TestExtractDimensionError(t *testing.T) {
	m := metrics.New()
	a := newAnalyzer(t, Deps{Reader: constReader("", ""), Metrics: m}, Options{})

	_, err := a.Extract(context.Background(), image.NewRGBA(image.Rect(0, 0, 700, 100)))
	assert.ErrorIs(t, err, scoreboard.ErrDimension)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteFile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `scoreboard_extractions_total{outcome="dimension_error"} 1`))
}

func TestExtractFileReadError(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("", "")}, Options{})

	_, err := a.ExtractFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, scoreboard.ErrImageRead)
}

func TestExtractCancelled(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("TIME: 9:00", "1")}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Extract(ctx, screenshot())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractCallTimeout(t *testing.T) {
	reader := &fakeReader{
		text: func(context.Context, image.Image) (string, error) { return "TIME: 9:00", nil },
		digits: func(ctx context.Context, _ image.Image) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	a := newAnalyzer(t, Deps{Reader: reader}, Options{CallTimeout: 20 * time.Millisecond})

	_, err := a.Extract(context.Background(), screenshot())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPredict(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("", ""), Model: fixedEstimator(0.8)}, Options{})
	stats := make([]scoreboard.StatRecord, scoreboard.PlayerCount)

	p, err := a.Predict(context.Background(), stats, 0.5, hero.Teams{})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, predict.Calibrate(0.8), *p, 1e-12)

	p, err = a.Predict(context.Background(), stats[:4], 10, hero.Teams{})
	require.NoError(t, err)
	assert.Nil(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Predict(ctx, stats, 10, hero.Teams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze(t *testing.T) {
	a := newAnalyzer(t, Deps{
		Reader:     constReader("TIME: 12:30", "100"),
		Classifier: fixedTeams(lobby...),
		Model:      fixedEstimator(0.8),
		Metrics:    metrics.New(),
	}, Options{})

	r, err := a.Analyze(context.Background(), screenshot())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.AnalysisID)
	require.NotNil(t, r.Probability)
	assert.InDelta(t, predict.Calibrate(0.8), *r.Probability, 1e-12)
	// Tank 100/(100+10), damage pairs equal, supports at a 0.5 damage share.
	assert.Equal(t, roles.Statuses{Tank: roles.Good, Damage: roles.Average, Support: roles.Good}, r.Roles)
	assert.Equal(t, 1, r.OutcomeBucket)
	assert.Equal(t, []string{"TANK=good", "DPS=average", "SUP=good", "RESULT=1"}, r.RuleItems)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"analysis_id"`)
	assert.Contains(t, string(b), `"duration_minutes":12.5`)
}

func TestAnalyzeWithoutModel(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("TIME: 12:30", "100")}, Options{})

	r, err := a.Analyze(context.Background(), screenshot())
	require.NoError(t, err)
	assert.Nil(t, r.Probability)
	assert.Equal(t, 1, r.OutcomeBucket)
	assert.True(t, r.Extraction.Heroes.Empty())
}

func TestAnalyzeNotEnoughData(t *testing.T) {
	a := newAnalyzer(t, Deps{
		Reader: constReader("TIME: 12:30", ""),
		Model:  fixedEstimator(0.1),
	}, Options{})

	r, err := a.Analyze(context.Background(), screenshot())
	require.NoError(t, err)
	assert.True(t, r.Roles.Incomplete())
	assert.Equal(t, 1, r.OutcomeBucket)
	assert.Equal(t, []string{"RESULT=1"}, r.RuleItems)
}

func TestAnalyzeFile(t *testing.T) {
	a := newAnalyzer(t, Deps{Reader: constReader("TIME: 12:30", "100")}, Options{})

	_, err := a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, scoreboard.ErrImageRead)
}
