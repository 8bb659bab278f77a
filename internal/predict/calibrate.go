// Package predict scores engineered feature rows with the trained win model
// and calibrates the result with fixed likelihood ratios.
package predict

import "math"

// Calibration constants measured on the model's validation set.
const (
	Sensitivity = 0.6925
	Specificity = 0.6923
	Threshold   = 0.5

	// maxPrior keeps the prior odds finite at p = 1.
	maxPrior = 0.9999
)

// Likelihood ratios applied above and at-or-below the threshold.
var (
	PositiveLR = Sensitivity / (1 - Specificity)
	NegativeLR = (1 - Sensitivity) / Specificity
)

// Calibrate converts a model probability into a posterior probability.
// The input is clamped to [0, 1]; NaN is treated as 0.
func Calibrate(p float64) float64 {
	if !(p > 0) {
		p = 0
	}
	p = math.Min(p, 1)

	prior := p / (1 - math.Min(p, maxPrior))
	lr := NegativeLR
	if p > Threshold {
		lr = PositiveLR
	}
	posterior := prior * lr
	return posterior / (1 + posterior)
}
