// Package analyzer ties segmentation, OCR, hero classification, win
// prediction and role grading into one per-screenshot analysis.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scoreboard-analyzer/internal/features"
	"scoreboard-analyzer/internal/hero"
	"scoreboard-analyzer/internal/metrics"
	"scoreboard-analyzer/internal/predict"
	"scoreboard-analyzer/internal/roles"
	"scoreboard-analyzer/internal/scoreboard"
	"scoreboard-analyzer/internal/workpool"
)

// Extractor turns a screenshot into raw match data.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) (*Extraction, error)
}

// Predictor produces a calibrated win probability.
type Predictor interface {
	Predict(ctx context.Context, stats []scoreboard.StatRecord, minutes float64, composition hero.Teams) (*float64, error)
}

// RoleEvaluator grades the own team's roles.
type RoleEvaluator interface {
	EvaluateRoles(stats []scoreboard.StatRecord) roles.Statuses
}

var (
	_ Extractor     = (*Analyzer)(nil)
	_ Predictor     = (*Analyzer)(nil)
	_ RoleEvaluator = (*Analyzer)(nil)
)

// Options tune per-call behaviour.
type Options struct {
	// OwnTeamOnly classifies only the first five portraits.
	OwnTeamOnly bool
	// SkipEmptyRows drops players whose six stat fields are all empty.
	SkipEmptyRows bool
	// CallTimeout bounds each public call; zero means no deadline.
	CallTimeout time.Duration
}

// Deps are the shared, read-only collaborators of an Analyzer.
type Deps struct {
	Reader     scoreboard.TextReader
	Classifier hero.Classifier
	Model      predict.Estimator
	Pool       *workpool.Pool
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Analyzer is safe for concurrent use once constructed.
type Analyzer struct {
	header     *scoreboard.HeaderParser
	stats      *scoreboard.StatExtractor
	classifier hero.Classifier
	predictor  *predict.Predictor
	metrics    *metrics.Metrics
	opts       Options
	logger     *zap.SugaredLogger
}

// batchObserver is implemented by classifiers that report forward passes.
type batchObserver interface {
	OnBatch(fn func(batch int, d time.Duration))
}

// New wires an Analyzer. Reader is required; a nil Classifier disables hero
// classification and a nil Model disables prediction.
func New(deps Deps, opts Options) (*Analyzer, error) {
	if deps.Reader == nil {
		return nil, errors.New("analyzer: text reader is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pool := deps.Pool
	if pool == nil {
		pool = workpool.New(workpool.Config{Logger: logger})
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = hero.Unavailable{}
	}

	if deps.Metrics != nil {
		pool.OnInFlight(deps.Metrics.PoolInFlight)
		if obs, ok := classifier.(batchObserver); ok {
			obs.OnBatch(deps.Metrics.ClassifierBatch)
		}
	}

	stats := scoreboard.NewStatExtractor(deps.Reader, pool, logger)
	if deps.Metrics != nil {
		stats.OnBand(deps.Metrics.OCRBand)
	}

	return &Analyzer{
		header:     scoreboard.NewHeaderParser(deps.Reader, logger),
		stats:      stats,
		classifier: classifier,
		predictor:  predict.NewPredictor(deps.Model, features.NewPipeline(logger), logger),
		metrics:    deps.Metrics,
		opts:       opts,
		logger:     logger.Sugar(),
	}, nil
}

func (a *Analyzer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, a.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// Extraction is the raw data read from one screenshot.
type Extraction struct {
	Stats  []scoreboard.StatRecord `json:"stats"`
	Heroes hero.Teams              `json:"heroes"`
	// Duration in minutes as read from the header; nil when unknown.
	Duration      *float64 `json:"duration_minutes"`
	MissingRows   []bool   `json:"missing_rows"`
	AnyRowMissing bool     `json:"any_row_missing"`
}

// Minutes returns the duration, or NaN when it is unknown.
func (e *Extraction) Minutes() float64 {
	if e.Duration == nil {
		return math.NaN()
	}
	return *e.Duration
}

// ExtractFile loads and extracts a screenshot from disk.
func (a *Analyzer) ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	img, err := scoreboard.Load(path)
	if err != nil {
		a.metrics.Extraction(outcomeOf(err))
		return nil, err
	}
	return a.Extract(ctx, img)
}

// Extract segments the screenshot, reads the header and stat bands and
// classifies hero portraits. Classification and OCR run concurrently.
func (a *Analyzer) Extract(ctx context.Context, img image.Image) (*Extraction, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	ext, err := a.extract(ctx, img)
	a.metrics.Extraction(outcomeOf(err))
	return ext, err
}

func (a *Analyzer) extract(ctx context.Context, img image.Image) (*Extraction, error) {
	seg, err := scoreboard.Segment(img)
	if err != nil {
		return nil, err
	}

	ext := &Extraction{}
	if minutes, ok := a.header.Parse(ctx, seg.Header); ok {
		ext.Duration = &minutes
	}

	var raw []scoreboard.RawFields
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := a.classifier.Classify(gctx, seg.Icons(), a.opts.OwnTeamOnly)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			a.logger.Warnw("hero classification failed; continuing without heroes", "error", err)
			teams, _ = hero.Unavailable{}.Classify(gctx, nil, a.opts.OwnTeamOnly)
		}
		ext.Heroes = teams
		return nil
	})
	g.Go(func() error {
		rows, err := a.stats.ExtractAll(gctx, seg.StatImages(), !a.opts.SkipEmptyRows)
		raw = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to extract stats: %w", err)
	}

	ext.Stats = make([]scoreboard.StatRecord, len(raw))
	for i, f := range raw {
		ext.Stats[i] = scoreboard.ParseStatFields(f)
	}

	heroes := ext.Heroes.All()
	hidden := make([]bool, len(heroes))
	for i, h := range heroes {
		hidden[i] = h.IsHidden()
	}
	ext.MissingRows = make([]bool, len(raw))
	for i := range raw {
		ext.MissingRows[i] = i < len(hidden) && scoreboard.RowMissing(hidden[i], raw[i])
	}
	ext.AnyRowMissing = scoreboard.AnyRowMissing(hidden, raw)

	a.logger.Debugw("screenshot extracted",
		"players", len(ext.Stats),
		"heroes", len(heroes),
		"duration_known", ext.Duration != nil,
		"any_row_missing", ext.AnyRowMissing)
	return ext, nil
}

// Predict returns the calibrated win probability, nil when there are too few
// rows or the duration is unknown. The composition is accepted for callers
// that track it; the current model does not use it.
func (a *Analyzer) Predict(ctx context.Context, stats []scoreboard.StatRecord, minutes float64, _ hero.Teams) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.predictor.Predict(stats, minutes)
}

// EvaluateRoles grades tank, damage and support from raw stats.
func (a *Analyzer) EvaluateRoles(stats []scoreboard.StatRecord) roles.Statuses {
	return roles.Evaluate(stats)
}

// Report is the full result of one analysis.
type Report struct {
	AnalysisID    uuid.UUID      `json:"analysis_id"`
	Source        string         `json:"source,omitempty"`
	Extraction    *Extraction    `json:"extraction"`
	Probability   *float64       `json:"win_probability"`
	Roles         roles.Statuses `json:"roles"`
	OutcomeBucket int            `json:"outcome_bucket"`
	RuleItems     []string       `json:"rule_items"`
}

// AnalyzeFile loads a screenshot from disk and analyzes it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	img, err := scoreboard.Load(path)
	if err != nil {
		a.metrics.Extraction(outcomeOf(err))
		return nil, err
	}
	r, err := a.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	r.Source = path
	return r, nil
}

// Analyze runs extraction, prediction and role grading on one screenshot.
// A missing probability model is logged and yields an unknown probability.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (*Report, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	id := uuid.New()
	log := a.logger.With("analysis_id", id.String())

	ext, err := a.Extract(ctx, img)
	if err != nil {
		log.Warnw("extraction failed", "error", err)
		return nil, err
	}

	p, err := a.Predict(ctx, ext.Stats, ext.Minutes(), ext.Heroes)
	switch {
	case errors.Is(err, predict.ErrNoModel):
		log.Warnw("no probability model; win probability unknown")
	case err != nil:
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	statuses := a.EvaluateRoles(ext.Stats)
	bucket := roles.OutcomeBucket(statuses, p)
	a.metrics.Prediction(bucket)

	report := &Report{
		AnalysisID:    id,
		Extraction:    ext,
		Probability:   p,
		Roles:         statuses,
		OutcomeBucket: bucket,
		RuleItems:     roles.RuleItems(statuses, bucket),
	}
	log.Infow("screenshot analyzed",
		"players", len(ext.Stats),
		"probability_known", p != nil,
		"tank", statuses.Tank,
		"damage", statuses.Damage,
		"support", statuses.Support,
		"bucket", bucket)
	return report, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, scoreboard.ErrDimension):
		return metrics.OutcomeDimension
	case errors.Is(err, scoreboard.ErrImageRead):
		return metrics.OutcomeImage
	default:
		return metrics.OutcomeError
	}
}
