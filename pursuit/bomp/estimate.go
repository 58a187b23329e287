package bomp

import (
	"context"
	"fmt"
	"sync"

	"github.com/nathanhack/bomp/pursuit/internal"
	"github.com/nathanhack/threadpool"
	"gonum.org/v1/gonum/floats"
)

// estimate re-solves the coefficients of every signal on its support and
// recomputes the residual from them
func (p *pursuit) estimate(ctx context.Context) error {
	signals := len(p.observations)
	actives := p.state.activeSets()
	lambda := p.cfg.ridge()

	pool := threadpool.NewFixedSize(ctx, p.cfg.Threads, signals)
	var firstErr error
	mux := sync.Mutex{}
	for n := 0; n < signals; n++ {
		index := n
		pool.Add(func() {
			coefficients, residual, err := p.estimateSignal(actives[index], p.observations[index], lambda)
			if err != nil {
				mux.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%w: signal %v: %v", ErrIllConditioned, index, err)
				}
				mux.Unlock()
				return
			}
			// each worker owns its column so no locking is needed here
			p.state.Coefficients.SetCol(index, coefficients)
			p.state.Residual.SetCol(index, residual)
		})
	}
	pool.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// estimateSignal returns the full coefficient column and the residual of a single signal
func (p *pursuit) estimateSignal(active []int, y []float64, lambda float64) (coefficients, residual []float64, err error) {
	x, err := internal.RidgeSolve(p.atoms, active, y, lambda)
	if err != nil {
		return nil, nil, err
	}

	coefficients = make([]float64, len(p.atoms))
	for i, m := range active {
		coefficients[m] = x[i]
	}
	return coefficients, residualOf(p.atoms, active, x, y), nil
}

// residualOf returns y - Σ x_i φ_active[i]
func residualOf(atoms [][]float64, active []int, x, y []float64) []float64 {
	residual := make([]float64, len(y))
	copy(residual, y)
	for i, m := range active {
		floats.AddScaled(residual, -x[i], atoms[m])
	}
	return residual
}
