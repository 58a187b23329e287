package benchmarking

import (
	"fmt"
	"math"
	"math/rand"

	mat "github.com/nathanhack/sparsemat"
	mat2 "gonum.org/v1/gonum/mat"
)

// RandomSupport creates a support of length atoms where every atom is active with probability p.
func RandomSupport(atoms int, p float64) mat.SparseVector {
	support := mat.CSRVec(atoms)
	for i := 0; i < atoms; i++ {
		if rand.Float64() < p {
			support.Set(i, 1)
		}
	}
	return support
}

// RandomSupportCount creates a support of length atoms with exactly activeCount active atoms.
func RandomSupportCount(atoms int, activeCount int) mat.SparseVector {
	if activeCount > atoms {
		panic(fmt.Sprintf("activeCount (%v) must be <= atoms (%v)", activeCount, atoms))
	}
	support := mat.CSRVec(atoms)
	for support.HammingWeight() < activeCount {
		support.Set(rand.Intn(atoms), 1)
	}
	return support
}

// RandomAmplitudes draws N(0,σ_x²) amplitudes for every active atom of the support.
func RandomAmplitudes(support mat.SparseVector, activationStd float64) *mat2.VecDense {
	coefficients := mat2.NewVecDense(support.Len(), nil)
	for _, i := range support.NonzeroArray() {
		coefficients.SetVec(i, rand.NormFloat64()*activationStd)
	}
	return coefficients
}

// RandomBernoulliGaussian draws a coefficient vector from the Bernoulli-Gaussian model.
func RandomBernoulliGaussian(atoms int, p, activationStd float64) *mat2.VecDense {
	return RandomAmplitudes(RandomSupport(atoms, p), activationStd)
}

// RandomNoise creates a copy of v with N(0,σ²) noise added to every entry
func RandomNoise(v mat2.Vector, noiseStd float64) *mat2.VecDense {
	result := mat2.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		result.SetVec(i, rand.NormFloat64()*noiseStd)
	}
	result.AddVec(result, v)
	return result
}

// SNR returns the signal to noise ratio in dB of a signal with the given noise standard deviation.
func SNR(signal mat2.Vector, noiseStd float64) float64 {
	power := mat2.Dot(signal, signal) / float64(signal.Len())
	return 10 * math.Log10(power/(noiseStd*noiseStd))
}
