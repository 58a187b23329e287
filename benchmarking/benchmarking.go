package benchmarking

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/nathanhack/avgstd"
	mat "github.com/nathanhack/sparsemat"
	"github.com/nathanhack/threadpool"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	mat2 "gonum.org/v1/gonum/mat"
)

type Stats struct {
	SupportError     avgstd.AvgStd // fraction of atoms whose activity was recovered wrong
	CoefficientError avgstd.AvgStd // ‖x̂-x‖/‖x‖
	ResidualNorm     avgstd.AvgStd // ‖y-Φx̂‖/‖y‖
}

func (s Stats) String() string {
	return fmt.Sprintf("{Support:%0.02f(+/-%0.02f), Coefficient:%0.02f(+/-%0.02f), Residual:%0.02f(+/-%0.02f)}",
		s.SupportError.Mean, math.Sqrt(s.SupportError.SampledVariance()),
		s.CoefficientError.Mean, math.Sqrt(s.CoefficientError.SampledVariance()),
		s.ResidualNorm.Mean, math.Sqrt(s.ResidualNorm.SampledVariance()),
	)
}

type Checkpoints func(updatedStats Stats)

type SignalConstructor func(trial int) (coefficients *mat2.VecDense)
type Observation func(coefficients *mat2.VecDense) (observation *mat2.VecDense)
type Recovery func(observation *mat2.VecDense) (recovered *mat2.VecDense, err error)
type RecoveryMetrics func(originalCoefficients, observation, recovered *mat2.VecDense) (supportError, coefficientError, residualNorm float64)

func Benchmark(ctx context.Context,
	trials int, threads int,
	createSignal SignalConstructor,
	observe Observation,
	recoverSignal Recovery,
	metrics RecoveryMetrics,
	checkpoints Checkpoints,
	showProgress bool) Stats {
	return BenchmarkContinueStats(ctx, trials, threads, createSignal, observe, recoverSignal, metrics, checkpoints, Stats{}, showProgress)
}

func BenchmarkContinueStats(ctx context.Context,
	trials int, threads int,
	createSignal SignalConstructor,
	observe Observation,
	recoverSignal Recovery,
	metrics RecoveryMetrics,
	checkpoints Checkpoints,
	previousStats Stats,
	showProgress bool) Stats {
	trialsToRun := trials - previousStats.SupportError.Count
	if trialsToRun <= 0 {
		return previousStats
	}

	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.StartNew(trialsToRun)
	}

	pool := threadpool.NewFixedSize(ctx, threads, trialsToRun)
	statsMux := sync.Mutex{}

	trial := func(i int) {
		if showProgress {
			bar.Increment()
		}
		//we create a random sparse signal
		coefficients := createSignal(i)

		// observe it through the dictionary (and the noise)
		observation := observe(coefficients)

		// recover the coefficients from the observation, a failed trial is not counted
		recovered, err := recoverSignal(observation)
		if err != nil {
			logrus.Debugf("trial %v not counted: %v", i, err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		// get metrics
		supportError, coefficientError, residualNorm := metrics(coefficients, observation, recovered)

		statsMux.Lock()
		previousStats.SupportError.Update(supportError)
		previousStats.CoefficientError.Update(coefficientError)
		previousStats.ResidualNorm.Update(residualNorm)
		if checkpoints != nil {
			checkpoints(previousStats) //give them the updated checkpoint
		}
		statsMux.Unlock()
	}

	for i := previousStats.SupportError.Count; i < trials; i++ {
		tmp := i
		pool.Add(func() { trial(tmp) })
	}
	pool.Wait()
	if showProgress {
		bar.Finish()
	}
	return previousStats
}

//Support returns the binary vector with a 1 for every nonzero coefficient
func Support(coefficients mat2.Vector) mat.SparseVector {
	result := mat.CSRVec(coefficients.Len())
	for i := 0; i < coefficients.Len(); i++ {
		if coefficients.AtVec(i) != 0 {
			result.Set(i, 1)
		}
	}
	return result
}

//SupportDistance returns the number of atoms active in only one of a and b.
func SupportDistance(a, b mat2.Vector) int {
	if a.Len() != b.Len() {
		panic(fmt.Sprintf("vectors of the same length required but found %v and %v", a.Len(), b.Len()))
	}
	return Support(a).HammingDistance(Support(b))
}

//RelativeError returns ‖x-expected‖/‖expected‖, or ‖x‖ when expected is zero.
func RelativeError(x, expected mat2.Vector) float64 {
	diff := mat2.NewVecDense(x.Len(), nil)
	diff.SubVec(x, expected)
	norm := floats.Norm(diff.RawVector().Data, 2)

	reference := mat2.Norm(expected, 2)
	if reference == 0 {
		return norm
	}
	return norm / reference
}

//Metrics returns the default RecoveryMetrics for the given dictionary.
func Metrics(dictionary mat2.Matrix) RecoveryMetrics {
	rows, atoms := dictionary.Dims()
	return func(originalCoefficients, observation, recovered *mat2.VecDense) (supportError, coefficientError, residualNorm float64) {
		supportError = float64(SupportDistance(originalCoefficients, recovered)) / float64(atoms)
		coefficientError = RelativeError(recovered, originalCoefficients)

		synthesized := mat2.NewVecDense(rows, nil)
		synthesized.MulVec(dictionary, recovered)
		residualNorm = RelativeError(synthesized, observation)
		return
	}
}
