package bomp

import (
	mat "github.com/nathanhack/sparsemat"
	mat2 "gonum.org/v1/gonum/mat"
)

//State is the state carried from one iteration to the next.
type State struct {
	Residual     *mat2.Dense   //observations - dictionary*coefficients, rows x signals
	Support      mat.SparseMat //1 where an atom is active, atoms x signals
	Coefficients *mat2.Dense   //zero outside of Support, atoms x signals
}

func newState(dictionary, observations mat2.Matrix) *State {
	_, atoms := dictionary.Dims()
	_, signals := observations.Dims()
	return &State{
		Residual:     mat2.DenseCopyOf(observations),
		Support:      mat.CSRMat(atoms, signals),
		Coefficients: mat2.NewDense(atoms, signals, nil),
	}
}

//ActiveSet returns the sorted indices of the atoms active for signal n.
func (s *State) ActiveSet(n int) []int {
	return s.Support.Column(n).NonzeroArray()
}

//Cardinality returns the number of atoms active for signal n.
func (s *State) Cardinality(n int) int {
	return s.Support.Column(n).HammingWeight()
}

//MeanCardinality is the average number of active atoms over all signals.
func (s *State) MeanCardinality() float64 {
	_, signals := s.Support.Dims()
	total := 0
	for n := 0; n < signals; n++ {
		total += s.Cardinality(n)
	}
	return float64(total) / float64(signals)
}

// activeSets takes a snapshot of every support column so the workers
// never touch the sparse matrix
func (s *State) activeSets() [][]int {
	_, signals := s.Support.Dims()
	result := make([][]int, signals)
	for n := 0; n < signals; n++ {
		result[n] = s.ActiveSet(n)
	}
	return result
}

func (s *State) set(atom, n int, active bool) {
	if active {
		s.Support.Set(atom, n, 1)
	} else {
		s.Support.Set(atom, n, 0)
	}
}
