package internal

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//RidgeSolve solves (A^T*A + lambda*I) x = A^T*y where A is made of the atoms
// listed in active (in that order). The returned slice has len(active) entries,
// x[i] being the amplitude of atoms[active[i]]. An empty active set gives an
// empty (non-nil) result.
func RidgeSolve(atoms [][]float64, active []int, y []float64, lambda float64) ([]float64, error) {
	k := len(active)
	if k == 0 {
		return []float64{}, nil
	}

	gram := mat.NewSymDense(k, nil)
	rhs := mat.NewVecDense(k, nil)
	for i, a := range active {
		ai := atoms[a]
		if len(ai) != len(y) {
			panic(fmt.Sprintf("atom length == %v is required but found %v", len(y), len(ai)))
		}
		// only the upper triangle is needed for a SymDense
		for j := i; j < k; j++ {
			v := floats.Dot(ai, atoms[active[j]])
			if i == j {
				v += lambda
			}
			gram.SetSym(i, j, v)
		}
		rhs.SetVec(i, floats.Dot(ai, y))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return nil, fmt.Errorf("restricted system of %v atoms is not positive definite", k)
	}

	x := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(x, rhs); err != nil {
		return nil, fmt.Errorf("restricted system of %v atoms: %v", k, err)
	}

	return x.RawVector().Data, nil
}

//Columns copies every column of m into its own slice so the atoms can be
// read concurrently without going through the mat.Matrix interface.
func Columns(m mat.Matrix) [][]float64 {
	_, cols := m.Dims()
	result := make([][]float64, cols)
	for c := 0; c < cols; c++ {
		result[c] = mat.Col(nil, c, m)
	}
	return result
}
