package bomp

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// randomDictionary returns a gaussian dictionary with unit norm atoms
func randomDictionary(rnd *rand.Rand, rows, atoms int) *mat.Dense {
	m := mat.NewDense(rows, atoms, nil)
	for c := 0; c < atoms; c++ {
		col := make([]float64, rows)
		for r := range col {
			col[r] = rnd.NormFloat64()
		}
		floats.Scale(1/floats.Norm(col, 2), col)
		m.SetCol(c, col)
	}
	return m
}

// randomObservations returns dictionary*x+noise where every x has k random active atoms
func randomObservations(rnd *rand.Rand, dictionary *mat.Dense, signals, k int, noise float64) *mat.Dense {
	rows, atoms := dictionary.Dims()
	x := mat.NewDense(atoms, signals, nil)
	for n := 0; n < signals; n++ {
		for _, m := range rnd.Perm(atoms)[:k] {
			x.Set(m, n, rnd.NormFloat64()+math.Copysign(1, rnd.NormFloat64()))
		}
	}
	y := mat.NewDense(rows, signals, nil)
	y.Mul(dictionary, x)
	y.Apply(func(_, _ int, v float64) float64 { return v + noise*rnd.NormFloat64() }, y)
	return y
}

func defaultConfig() Config {
	return Config{
		NoiseStd:        0.01,
		ActivationStd:   1,
		BernoulliWeight: LogOdds(0.1),
		MinSupport:      0,
		Iterations:      10,
		Threads:         4,
	}
}

func TestRecoverOrthonormal(t *testing.T) {
	dictionary := identity(8)
	y := mat.NewVecDense(8, []float64{0, 3, 0, 0, -2, 0, 1.5, 0})

	cfg := Config{
		NoiseStd:        1e-6,
		ActivationStd:   1,
		BernoulliWeight: LogOdds(0.1),
		Iterations:      5,
	}
	state, err := Run(context.Background(), dictionary, y, cfg)
	if err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}

	expectedSupport := []int{1, 4, 6}
	actualSupport := state.ActiveSet(0)
	if !slices.Equal(expectedSupport, actualSupport) {
		t.Fatalf("expected %v but found %v", expectedSupport, actualSupport)
	}

	actual := mat.Col(nil, 0, state.Coefficients)
	if !floats.EqualApprox(actual, y.RawVector().Data, 1e-5) {
		t.Fatalf("expected %v but found %v", y.RawVector().Data, actual)
	}
}

func TestRecoverOrthonormalSelectionOrder(t *testing.T) {
	dictionary := identity(8)
	y := mat.NewVecDense(8, []float64{0, 3, 0, 0, -2, 0, 1.5, 0})

	// the largest amplitudes are picked first
	expected := [][]int{{1}, {1, 4}, {1, 4, 6}, {1, 4, 6}}
	cfg := Config{
		NoiseStd:        1e-6,
		ActivationStd:   1,
		BernoulliWeight: LogOdds(0.1),
		Iterations:      len(expected),
		Monitor: func(iteration int, state *State) {
			actual := state.ActiveSet(0)
			if !slices.Equal(expected[iteration-1], actual) {
				t.Fatalf("iteration %v: expected %v but found %v", iteration, expected[iteration-1], actual)
			}
		},
	}
	if _, err := Run(context.Background(), dictionary, y, cfg); err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}
}

func TestRecoverZeroIterations(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	dictionary := randomDictionary(rnd, 16, 32)
	y := randomObservations(rnd, dictionary, 5, 3, 0.01)

	cfg := defaultConfig()
	cfg.Iterations = 0
	actual, err := Recover(context.Background(), dictionary, y, cfg)
	if err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}

	expected := mat.NewDense(32, 5, nil)
	if !mat.Equal(expected, actual) {
		t.Fatalf("expected all zero coefficients but found %v", mat.Formatted(actual))
	}
}

func TestRecoverDeterminism(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	dictionary := randomDictionary(rnd, 16, 32)
	y := randomObservations(rnd, dictionary, 20, 4, 0.01)

	cfg := defaultConfig()
	cfg.MinSupport = 2
	first, err := Recover(context.Background(), dictionary, y, cfg)
	if err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}

	cfg.Threads = 1
	second, err := Recover(context.Background(), dictionary, y, cfg)
	if err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}

	if !mat.Equal(first, second) {
		t.Fatalf("expected identical results but found\n%v\n%v", mat.Formatted(first), mat.Formatted(second))
	}
}

func TestRecoverSupportConsistency(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	dictionary := randomDictionary(rnd, 16, 32)
	y := randomObservations(rnd, dictionary, 10, 4, 0.05)
	_, signals := y.Dims()

	previous := make([][]int, signals)
	for n := range previous {
		previous[n] = []int{}
	}

	cfg := defaultConfig()
	cfg.Iterations = 12
	cfg.Monitor = func(iteration int, state *State) {
		for n := 0; n < signals; n++ {
			active := state.ActiveSet(n)

			// at most one atom flips per iteration
			if d := symmetricDifference(previous[n], active); d > 1 {
				t.Fatalf("iteration %v signal %v: expected at most one flip but found %v (%v -> %v)", iteration, n, d, previous[n], active)
			}
			previous[n] = active

			// and so the support can not grow faster than the iterations
			if len(active) > iteration {
				t.Fatalf("iteration %v signal %v: expected at most %v active atoms but found %v", iteration, n, iteration, len(active))
			}

			column := mat.Col(nil, n, state.Coefficients)
			for m, v := range column {
				_, isActive := slices.BinarySearch(active, m)
				if isActive && v == 0 {
					t.Fatalf("iteration %v signal %v: expected a nonzero coefficient for active atom %v", iteration, n, m)
				}
				if !isActive && v != 0 {
					t.Fatalf("iteration %v signal %v: expected a zero coefficient for inactive atom %v but found %v", iteration, n, m, v)
				}
			}
		}
	}

	if _, err := Run(context.Background(), dictionary, y, cfg); err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}
}

func TestRecoverAllNoopLeavesStateUnchanged(t *testing.T) {
	y := mat.NewVecDense(2, []float64{3, 2})

	supports := make([][]int, 0)
	coefficients := make([][]float64, 0)
	cfg := defaultConfig()
	cfg.Iterations = 4
	cfg.Monitor = func(iteration int, state *State) {
		supports = append(supports, state.ActiveSet(0))
		coefficients = append(coefficients, mat.Col(nil, 0, state.Coefficients))
	}

	if _, err := Run(context.Background(), identity(2), y, cfg); err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}

	expected := [][]int{{0}, {0, 1}, {0, 1}, {0, 1}}
	for i := range expected {
		if !slices.Equal(expected[i], supports[i]) {
			t.Fatalf("iteration %v: expected %v but found %v", i+1, expected[i], supports[i])
		}
	}

	// once both atoms are active every toggle is a no-op
	for i := 2; i < 4; i++ {
		if !slices.Equal(coefficients[1], coefficients[i]) {
			t.Fatalf("iteration %v: expected %v but found %v", i+1, coefficients[1], coefficients[i])
		}
	}
}

func TestRecoverSupportChangesWhenCandidatesDiffer(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	dictionary := randomDictionary(rnd, 12, 24)
	y := randomObservations(rnd, dictionary, 8, 3, 0.05)
	_, atoms := dictionary.Dims()
	_, signals := y.Dims()

	columns := make([][]float64, atoms)
	for m := range columns {
		columns[m] = mat.Col(nil, m, dictionary)
	}

	// the state before the first iteration
	residual := mat.DenseCopyOf(y)
	coefficients := mat.NewDense(atoms, signals, nil)
	previous := make([][]int, signals)
	for n := range previous {
		previous[n] = []int{}
	}

	cfg := defaultConfig()
	cfg.MinSupport = 2
	cfg.Iterations = 10
	cfg.Monitor = func(iteration int, state *State) {
		for n := 0; n < signals; n++ {
			score := scores(correlate(columns, mat.Col(nil, n, residual)), mat.Col(nil, n, coefficients))
			candidate := candidates(score, cfg.threshold())
			guard(candidate, len(previous[n]), cfg.MinSupport)

			differs := false
			for m, c := range candidate {
				_, active := slices.BinarySearch(previous[n], m)
				if c != active {
					differs = true
				}
			}

			active := state.ActiveSet(n)
			d := symmetricDifference(previous[n], active)
			if differs && d != 1 {
				t.Fatalf("iteration %v signal %v: expected one flip but found %v (%v -> %v)", iteration, n, d, previous[n], active)
			}
			if !differs && d != 0 {
				t.Fatalf("iteration %v signal %v: expected no flip but found %v (%v -> %v)", iteration, n, d, previous[n], active)
			}
			previous[n] = active
		}
		residual = mat.DenseCopyOf(state.Residual)
		coefficients = mat.DenseCopyOf(state.Coefficients)
	}

	if _, err := Run(context.Background(), dictionary, y, cfg); err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}
}

func symmetricDifference(a, b []int) int {
	count := 0
	for _, v := range a {
		if !slices.Contains(b, v) {
			count++
		}
	}
	for _, v := range b {
		if !slices.Contains(a, v) {
			count++
		}
	}
	return count
}

func TestRecoverMinimumSupport(t *testing.T) {
	tests := []struct {
		minSupport int
	}{
		{1},
		{4},
		{12},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(int64(i)))
			dictionary := randomDictionary(rnd, 16, 32)
			y := randomObservations(rnd, dictionary, 6, 2, 0.01)
			_, signals := y.Dims()

			cfg := defaultConfig()
			cfg.MinSupport = test.minSupport
			cfg.Iterations = test.minSupport
			cfg.Monitor = func(iteration int, state *State) {
				// below the floor every iteration must add exactly one atom
				for n := 0; n < signals; n++ {
					if c := state.Cardinality(n); c != iteration {
						t.Fatalf("iteration %v signal %v: expected %v active atoms but found %v", iteration, n, iteration, c)
					}
				}
			}
			state, err := Run(context.Background(), dictionary, y, cfg)
			if err != nil {
				t.Fatalf("expected no error but found: %v", err)
			}
			if state.MeanCardinality() != float64(test.minSupport) {
				t.Fatalf("expected %v but found %v", test.minSupport, state.MeanCardinality())
			}
		})
	}
}

func TestRecoverResidualShrinkage(t *testing.T) {
	dictionary := identity(10)
	y := mat.NewDense(10, 2, []float64{
		0, 1,
		4, 0,
		0, 0,
		-1, 0,
		0, -3,
		0, 0,
		2, 0,
		0, 0.5,
		0, 0,
		0, 2,
	})
	_, signals := y.Dims()

	norms := make([]float64, signals)
	for n := range norms {
		norms[n] = floats.Norm(mat.Col(nil, n, y), 2)
	}

	cfg := Config{
		NoiseStd:        1e-4,
		ActivationStd:   1,
		BernoulliWeight: LogOdds(0.2),
		Iterations:      8,
		Monitor: func(iteration int, state *State) {
			for n := 0; n < signals; n++ {
				norm := floats.Norm(mat.Col(nil, n, state.Residual), 2)
				if norm > norms[n]+1e-12 {
					t.Fatalf("iteration %v signal %v: expected residual norm <= %v but found %v", iteration, n, norms[n], norm)
				}
				norms[n] = norm
			}
		},
	}
	if _, err := Run(context.Background(), dictionary, y, cfg); err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}
	for n, norm := range norms {
		if norm > 1e-3 {
			t.Fatalf("signal %v: expected a residual close to zero but found %v", n, norm)
		}
	}
}

func TestRecoverBatchIndependence(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	dictionary := randomDictionary(rnd, 12, 24)
	y := randomObservations(rnd, dictionary, 4, 3, 0.02)
	_, signals := y.Dims()

	cfg := defaultConfig()
	cfg.MinSupport = 1
	batch, err := Recover(context.Background(), dictionary, y, cfg)
	if err != nil {
		t.Fatalf("expected no error but found: %v", err)
	}

	for n := 0; n < signals; n++ {
		single, err := Recover(context.Background(), dictionary, y.ColView(n), cfg)
		if err != nil {
			t.Fatalf("expected no error but found: %v", err)
		}
		expected := mat.Col(nil, n, batch)
		actual := mat.Col(nil, 0, single)
		if !floats.EqualApprox(expected, actual, 1e-12) {
			t.Fatalf("signal %v: expected %v but found %v", n, expected, actual)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dictionary := identity(4)
	y := mat.NewDense(4, 2, nil)

	tests := []struct {
		dictionary   mat.Matrix
		observations mat.Matrix
		modify       func(c *Config)
		expected     error
	}{
		{dictionary, mat.NewDense(3, 2, nil), func(c *Config) {}, ErrDimensionMismatch},
		{nil, y, func(c *Config) {}, ErrDimensionMismatch},
		{dictionary, nil, func(c *Config) {}, ErrDimensionMismatch},
		{dictionary, y, func(c *Config) { c.NoiseStd = -1 }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.NoiseStd = math.NaN() }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.ActivationStd = 0 }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.ActivationStd = -1 }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.BernoulliWeight = math.Inf(-1) }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.Iterations = -1 }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.MinSupport = -1 }, ErrInvalidParameter},
		{dictionary, y, func(c *Config) { c.MinSupport = 5 }, ErrInvalidParameter},
	}
	for i, test := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			cfg := defaultConfig()
			test.modify(&cfg)
			_, err := Run(context.Background(), test.dictionary, test.observations, cfg)
			if !errors.Is(err, test.expected) {
				t.Fatalf("expected %v but found %v", test.expected, err)
			}
		})
	}
}

func TestRunIllConditioned(t *testing.T) {
	// two copies of the same atom and no noise leave no ridge to keep the system solvable
	dictionary := mat.NewDense(2, 2, []float64{
		1, 1,
		0, 0,
	})
	y := mat.NewDense(2, 1, []float64{1, 0})

	cfg := Config{
		NoiseStd:        0,
		ActivationStd:   1,
		BernoulliWeight: LogOdds(0.1),
		MinSupport:      2,
		Iterations:      2,
	}
	_, err := Run(context.Background(), dictionary, y, cfg)
	if !errors.Is(err, ErrIllConditioned) {
		t.Fatalf("expected %v but found %v", ErrIllConditioned, err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, identity(4), mat.NewDense(4, 1, nil), defaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected %v but found %v", context.Canceled, err)
	}
}

func BenchmarkRecover(b *testing.B) {
	rnd := rand.New(rand.NewSource(5))
	dictionary := randomDictionary(rnd, 64, 128)
	y := randomObservations(rnd, dictionary, 32, 6, 0.01)
	cfg := defaultConfig()
	cfg.Iterations = 8
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Recover(context.Background(), dictionary, y, cfg)
	}
}
