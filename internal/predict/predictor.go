package predict

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"scoreboard-analyzer/internal/features"
	"scoreboard-analyzer/internal/scoreboard"
)

// MinPlayers is the fewest stat rows a prediction accepts.
const MinPlayers = 5

// ErrNoModel is returned when no probability model was loaded.
var ErrNoModel = errors.New("no probability model loaded")

// Estimator scores a single feature row.
type Estimator interface {
	PredictProba(row *features.Row) float64
}

var _ Estimator = (*Model)(nil)

// Predictor runs stats through the feature pipeline, the model and the
// calibrator.
type Predictor struct {
	model    Estimator
	pipeline *features.Pipeline
	logger   *zap.SugaredLogger
}

// NewPredictor creates a predictor. model may be nil, in which case Predict
// returns ErrNoModel for otherwise valid input.
func NewPredictor(model Estimator, pipeline *features.Pipeline, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipeline == nil {
		pipeline = features.NewPipeline(logger)
	}
	return &Predictor{model: model, pipeline: pipeline, logger: logger.Sugar()}
}

// Predict returns the calibrated win probability, or nil when there are
// fewer than MinPlayers rows or the duration is unknown (NaN or infinite).
// Durations under a minute are clamped to one.
func (p *Predictor) Predict(stats []scoreboard.StatRecord, minutes float64) (*float64, error) {
	if len(stats) < MinPlayers {
		p.logger.Debugw("too few players for prediction", "rows", len(stats))
		return nil, nil
	}
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		p.logger.Debugw("unknown match duration; skipping prediction")
		return nil, nil
	}
	if p.model == nil {
		return nil, ErrNoModel
	}
	minutes = scoreboard.ClampDuration(minutes)

	rows := p.pipeline.Transform(features.BuildLongTable(stats, minutes))
	if len(rows) == 0 {
		return nil, nil
	}
	raw := p.model.PredictProba(rows[0])
	calibrated := Calibrate(raw)
	p.logger.Debugw("win probability", "raw", raw, "calibrated", calibrated, "minutes", minutes)
	return &calibrated, nil
}
