package features

import (
	"go.uber.org/zap"
)

// Pipeline runs the stateless transforms in their fixed order:
// rate scaling, outlier capping, pivot, engineering, cleanup.
type Pipeline struct {
	logger *zap.SugaredLogger
}

// NewPipeline creates a pipeline. A nil logger discards output.
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger.Sugar()}
}

// Transform converts a long table into one model row per snapshot.
func (p *Pipeline) Transform(t *LongTable) []*Row {
	if t.Len() == 0 {
		return nil
	}
	scaled := CapOutliers(ScaleRates(t))
	rows := Pivot(scaled)
	for i, row := range rows {
		rows[i] = Cleanup(Engineer(row))
	}
	p.logger.Debugw("features transformed", "input_rows", t.Len(), "output_rows", len(rows))
	return rows
}
