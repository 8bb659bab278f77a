package predict

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoreboard-analyzer/internal/features"
	"scoreboard-analyzer/internal/scoreboard"
)

func TestCalibrateRange(t *testing.T) {
	for _, p := range []float64{-1, 0, 1e-9, 0.1, 0.4999, 0.5, 0.5001, 0.9, 0.9999, 1, 2, math.NaN()} {
		got := Calibrate(p)
		assert.GreaterOrEqual(t, got, 0.0, "p=%v", p)
		assert.LessOrEqual(t, got, 1.0, "p=%v", p)
	}
}

func TestCalibrateThresholdBoundary(t *testing.T) {
	// At exactly 0.5 the prior odds are 1 and the negative ratio applies.
	want := NegativeLR / (1 + NegativeLR)
	assert.InDelta(t, want, Calibrate(0.5), 1e-12)
	assert.Less(t, Calibrate(0.5), 0.5)

	above := Calibrate(0.5 + 1e-9)
	assert.Greater(t, above, 0.5)
}

func TestCalibrateMonotonicWithinBranches(t *testing.T) {
	assert.Less(t, Calibrate(0.1), Calibrate(0.3))
	assert.Less(t, Calibrate(0.6), Calibrate(0.9))
	assert.Equal(t, 0.0, Calibrate(0))
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel(strings.NewReader(`{
		"name": "test",
		"intercept": -1,
		"coefficients": {"K_player0": 2, "tank_status=good": 0.5, "unused": 10}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "test", m.Name)

	row := features.NewRow()
	row.Set("K_player0", 1)
	row.SetLabel("tank_status", features.StatusGood)

	// z = -1 + 2*1 + 0.5; the missing numeric column contributes 0.
	assert.InDelta(t, sigmoid(1.5), m.PredictProba(row), 1e-12)

	row.SetLabel("tank_status", features.StatusPoor)
	assert.InDelta(t, sigmoid(1), m.PredictProba(row), 1e-12)
}

func TestParseModelErrors(t *testing.T) {
	_, err := ParseModel(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = ParseModel(strings.NewReader(`{"intercept": 0, "coefficients": {"a": "x"}}`))
	assert.Error(t, err)
}

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intercept": 0, "coefficients": {}}`), 0o644))

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.PredictProba(features.NewRow()))

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type recordingEstimator struct {
	rows []*features.Row
	p    float64
}

func (r *recordingEstimator) PredictProba(row *features.Row) float64 {
	r.rows = append(r.rows, row)
	return r.p
}

func statRows(n int, s scoreboard.StatRecord) []scoreboard.StatRecord {
	out := make([]scoreboard.StatRecord, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestPredictTooFewRows(t *testing.T) {
	est := &recordingEstimator{p: 0.7}
	got, err := NewPredictor(est, nil, nil).Predict(statRows(4, scoreboard.StatRecord{Kills: 1}), 10)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, est.rows)
}

func TestPredictUnknownDuration(t *testing.T) {
	est := &recordingEstimator{p: 0.7}
	pr := NewPredictor(est, nil, nil)

	for _, d := range []float64{math.NaN(), math.Inf(1)} {
		got, err := pr.Predict(statRows(10, scoreboard.StatRecord{}), d)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	assert.Empty(t, est.rows)
}

func TestPredictClampsShortDuration(t *testing.T) {
	est := &recordingEstimator{p: 0.7}
	stats := statRows(10, scoreboard.StatRecord{Healing: 200})

	got, err := NewPredictor(est, nil, nil).Predict(stats, 0.5)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, est.rows, 1)

	// Player 4 healing is uncapped, so it shows the one-minute divisor.
	assert.Equal(t, 200.0, est.rows[0].Get("H_player4"))
	assert.InDelta(t, Calibrate(0.7), *got, 1e-12)
}

func TestPredictScenario(t *testing.T) {
	est := &recordingEstimator{p: 0.4}
	stats := statRows(10, scoreboard.StatRecord{Kills: 10, Assists: 5, Deaths: 2, Damage: 1000, Healing: 200, Mitigated: 300})

	got, err := NewPredictor(est, nil, nil).Predict(stats, 12.5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, Calibrate(0.4), *got, 1e-12)
	assert.InDelta(t, 0.8, est.rows[0].Get("K_player0"), 1e-9)
}

func TestPredictWithoutModel(t *testing.T) {
	got, err := NewPredictor(nil, nil, nil).Predict(statRows(10, scoreboard.StatRecord{}), 10)
	assert.ErrorIs(t, err, ErrNoModel)
	assert.Nil(t, got)
}
