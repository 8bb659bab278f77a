package predict

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"

	"scoreboard-analyzer/internal/features"
)

// Model is a logistic win model exported from the training pipeline.
// Numeric columns are keyed by name; categorical columns by "name=value".
type Model struct {
	Name         string             `json:"name"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`

	// numeric column names and their coefficients, sorted by name.
	names   []string
	weights []float64
}

// LoadModel reads a model artifact from disk.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	m, err := ParseModel(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseModel decodes a model artifact.
func ParseModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) init() error {
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("intercept is not finite")
	}
	m.names = m.names[:0]
	m.weights = m.weights[:0]
	for name, w := range m.Coefficients {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("coefficient %q is not finite", name)
		}
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	for _, name := range m.names {
		m.weights = append(m.weights, m.Coefficients[name])
	}
	return nil
}

// PredictProba returns the win probability for one row.
func (m *Model) PredictProba(row *features.Row) float64 {
	values := make([]float64, len(m.names))
	for i, name := range m.names {
		values[i] = row.Get(name)
	}
	z := m.Intercept + floats.Dot(m.weights, values)

	for col, v := range row.Labels() {
		z += m.Coefficients[col+"="+v]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
