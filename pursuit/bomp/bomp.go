//Package bomp is a Bayesian Orthogonal Matching Pursuit based on the paper
// "Bayesian Pursuit Algorithms" by Cédric Herzet and Angélique Drémeau.
//
// Each signal is modelled as y = Φx + w where every atom of the dictionary Φ is
// active with a Bernoulli prior, active amplitudes are Gaussian N(0,σ_x²) and
// w is white Gaussian noise N(0,σ_n²). Every iteration toggles exactly one atom
// per signal and re-estimates the amplitudes on the resulting support.
package bomp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/nathanhack/bomp/pursuit/internal"
	"github.com/nathanhack/threadpool"
	"github.com/sirupsen/logrus"
	mat2 "gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("bomp: dimension mismatch")
	ErrInvalidParameter  = errors.New("bomp: invalid parameter")
	ErrIllConditioned    = errors.New("bomp: ill-conditioned restricted system")
)

//Config holds the hyperparameters of a run. They are constant for the whole run.
type Config struct {
	NoiseStd        float64 //σ_n: standard deviation of the observation noise (>=0)
	ActivationStd   float64 //σ_x: standard deviation of an active amplitude (>0)
	BernoulliWeight float64 //b: prior log odds of an atom being active, see LogOdds
	MinSupport      int     //signals with fewer active atoms are forced to grow
	Iterations      int     //the exact number of iterations performed

	// Threads is the number of workers used per stage, <=0 means runtime.NumCPU()
	Threads int

	// Monitor, when set, is called after every iteration with the live state.
	// It must not modify the state.
	Monitor func(iteration int, state *State)
}

//LogOdds converts the probability p of an atom being active into the Bernoulli
// weight ln(p/(1-p)).
func LogOdds(p float64) float64 {
	return math.Log(p / (1 - p))
}

func (c Config) ratio() float64 {
	return c.NoiseStd / c.ActivationStd
}

// ridge is the diagonal loading of the restricted normal equations
func (c Config) ridge() float64 {
	return c.ratio()
}

// threshold is T = -2σ_n(σ_n/σ_x+1)b, the squared score an atom has to beat
func (c Config) threshold() float64 {
	return -2 * c.NoiseStd * (c.ratio() + 1) * c.BernoulliWeight
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

//Validate checks the hyperparameters against a dictionary with the given number of atoms.
func (c Config) Validate(atoms int) error {
	switch {
	case !finite(c.NoiseStd) || c.NoiseStd < 0:
		return fmt.Errorf("%w: noise standard deviation must be finite and >=0 but found %v", ErrInvalidParameter, c.NoiseStd)
	case !finite(c.ActivationStd) || c.ActivationStd <= 0:
		return fmt.Errorf("%w: activation standard deviation must be finite and >0 but found %v", ErrInvalidParameter, c.ActivationStd)
	case !finite(c.BernoulliWeight):
		return fmt.Errorf("%w: bernoulli weight must be finite but found %v", ErrInvalidParameter, c.BernoulliWeight)
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations must be >=0 but found %v", ErrInvalidParameter, c.Iterations)
	case c.MinSupport < 0 || c.MinSupport > atoms:
		return fmt.Errorf("%w: minimum support must be in [0,%v] but found %v", ErrInvalidParameter, atoms, c.MinSupport)
	}
	return nil
}

//Recover returns the sparse coefficients (atoms x signals) of the observations
// (one signal per column) over the dictionary (one atom per column).
// The dictionary's atoms are expected to have unit norm.
func Recover(ctx context.Context, dictionary, observations mat2.Matrix, cfg Config) (*mat2.Dense, error) {
	state, err := Run(ctx, dictionary, observations, cfg)
	if err != nil {
		return nil, err
	}
	return state.Coefficients, nil
}

//Run is Recover but returns the whole terminal state.
func Run(ctx context.Context, dictionary, observations mat2.Matrix, cfg Config) (*State, error) {
	if dictionary == nil || observations == nil {
		return nil, fmt.Errorf("%w: dictionary and observations are required", ErrDimensionMismatch)
	}
	rows, atoms := dictionary.Dims()
	obsRows, signals := observations.Dims()
	if rows == 0 || atoms == 0 || signals == 0 {
		return nil, fmt.Errorf("%w: empty dictionary (%vx%v) or observations (%vx%v)", ErrDimensionMismatch, rows, atoms, obsRows, signals)
	}
	if rows != obsRows {
		return nil, fmt.Errorf("%w: dictionary has %v rows but observations have %v", ErrDimensionMismatch, rows, obsRows)
	}
	if err := cfg.Validate(atoms); err != nil {
		return nil, err
	}

	p := newPursuit(dictionary, observations, cfg)
	for i := 1; i <= cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.iterate(ctx, i); err != nil {
			return nil, err
		}
		if cfg.Monitor != nil {
			cfg.Monitor(i, p.state)
		}
	}
	return p.state, nil
}

type pursuit struct {
	cfg          Config
	atoms        [][]float64 //φ_m
	atomNorms    []float64   //‖φ_m‖²
	observations [][]float64 //y_n
	state        *State
}

func newPursuit(dictionary, observations mat2.Matrix, cfg Config) *pursuit {
	p := &pursuit{
		cfg:          cfg,
		atoms:        internal.Columns(dictionary),
		observations: internal.Columns(observations),
		state:        newState(dictionary, observations),
	}
	p.atomNorms = make([]float64, len(p.atoms))
	for m, atom := range p.atoms {
		p.atomNorms[m] = dot(atom, atom)
	}
	return p
}

// iterate runs one full iteration over the whole batch
func (p *pursuit) iterate(ctx context.Context, iteration int) error {
	// stages 1-3 only read the state so every signal can be done at once
	flips := p.propose(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	noops := p.commit(flips)
	if noops > 0 {
		logrus.Debugf("iteration %v: %v signal(s) had no possible toggle", iteration, noops)
	}

	if err := p.estimate(ctx); err != nil {
		return err
	}

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debugf("iteration %v: mean support %v", iteration, p.state.MeanCardinality())
	}
	return nil
}

// propose scores, guards and selects one atom per signal
func (p *pursuit) propose(ctx context.Context) []flip {
	signals := len(p.observations)
	actives := p.state.activeSets()
	flips := make([]flip, signals)

	pool := threadpool.NewFixedSize(ctx, p.cfg.Threads, signals)
	for n := 0; n < signals; n++ {
		index := n
		pool.Add(func() {
			flips[index] = p.proposeSignal(index, actives[index])
		})
	}
	pool.Wait()
	return flips
}

func (p *pursuit) proposeSignal(n int, active []int) flip {
	residual := mat2.Col(nil, n, p.state.Residual)
	coefficients := mat2.Col(nil, n, p.state.Coefficients)

	support := make([]bool, len(p.atoms))
	for _, m := range active {
		support[m] = true
	}

	correlation := correlate(p.atoms, residual)
	score := scores(correlation, coefficients)
	candidate := candidates(score, p.cfg.threshold())
	guard(candidate, len(active), p.cfg.MinSupport)

	costs := selectionCosts(p.cfg, dot(residual, residual), p.atomNorms, correlation, score, coefficients, candidate, support)
	atom := argMinFloat(costs)
	return flip{
		atom:   atom,
		active: candidate[atom],
		noop:   candidate[atom] == support[atom],
	}
}

// commit writes the selected toggles into the support, it returns the
// number of signals that had nothing but no-op toggles
func (p *pursuit) commit(flips []flip) (noops int) {
	for n, f := range flips {
		if f.noop {
			// every cost was +Inf so atom 0 was selected; writing its candidate
			// value leaves the support as is. This is not a toggle of atom 0.
			noops++
		}
		p.state.set(f.atom, n, f.active)
	}
	return
}
