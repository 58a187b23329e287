package bomp

import (
	"math"
)

type flip struct {
	atom   int
	active bool //the value written into the support
	noop   bool //every toggle of the signal was a no-op
}

//argMinFloat returns the index of the smallest value, the lowest index wins ties
func argMinFloat(values []float64) int {
	result := 0
	min := values[0]
	for i := 1; i < len(values); i++ {
		v := values[i]
		if v < min {
			result = i
			min = v
		}
	}
	return result
}

// selectionCosts returns the cost of toggling each atom of one signal.
//
// With x̄_m = c_m*s_m/(σ_n/σ_x+1) the target amplitude (c_m the candidate flag)
// and δ_m = x̄_m - x_m the change in amplitude:
//  cost_m = ‖r‖² - 2δ_m<φ_m,r> + δ_m²‖φ_m‖²
//         - (σ_n/σ_x)x̄_m²
//         + σ_n(S_m - c_m)b c_m
// Toggles that would leave the support unchanged cost +Inf.
func selectionCosts(cfg Config, residualNorm float64, atomNorms, correlation, score, coefficients []float64, candidate, support []bool) []float64 {
	ratio := cfg.ratio()
	costs := make([]float64, len(score))
	for m := range score {
		if candidate[m] == support[m] {
			costs[m] = math.Inf(1)
			continue
		}

		c := indicator(candidate[m])
		target := c * score[m] / (ratio + 1)
		delta := target - coefficients[m]

		cost := residualNorm - 2*delta*correlation[m] + delta*delta*atomNorms[m]
		cost -= ratio * target * target
		cost += cfg.NoiseStd * (indicator(support[m]) - c) * cfg.BernoulliWeight * c
		costs[m] = cost
	}
	return costs
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
