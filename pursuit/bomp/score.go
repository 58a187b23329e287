package bomp

import (
	"gonum.org/v1/gonum/floats"
)

func dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// correlate returns <φ_m, r> for every atom
func correlate(atoms [][]float64, residual []float64) []float64 {
	result := make([]float64, len(atoms))
	for m, atom := range atoms {
		result[m] = dot(atom, residual)
	}
	return result
}

// scores returns s_m = <φ_m, r> + x_m
func scores(correlation, coefficients []float64) []float64 {
	result := make([]float64, len(correlation))
	floats.AddTo(result, correlation, coefficients)
	return result
}

// candidates marks an atom as a candidate when s_m^2 > T, i.e. when the
// posterior odds under the Bernoulli-Gaussian model favor it being active
func candidates(score []float64, threshold float64) []bool {
	result := make([]bool, len(score))
	for m, s := range score {
		result[m] = s*s > threshold
	}
	return result
}

// guard makes every atom a candidate while the support is smaller than minSupport
func guard(candidate []bool, cardinality, minSupport int) {
	if cardinality >= minSupport {
		return
	}
	for m := range candidate {
		candidate[m] = true
	}
}
