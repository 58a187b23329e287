package dct

import (
	"fmt"
	"math"

	"github.com/nathanhack/bomp/dictionary"
	"gonum.org/v1/gonum/mat"
)

//New creates the orthonormal DCT-II basis of the given size, atom k being
// sqrt(c_k/size)*cos(π(2i+1)k/(2*size)) with c_0=1 and c_k=2 otherwise.
func New(size int) (*dictionary.Dictionary, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be > 0 but found %v", size)
	}

	atoms := mat.NewDense(size, size, nil)
	for k := 0; k < size; k++ {
		scale := math.Sqrt(2 / float64(size))
		if k == 0 {
			scale = math.Sqrt(1 / float64(size))
		}
		for i := 0; i < size; i++ {
			atoms.Set(i, k, scale*math.Cos(math.Pi*float64((2*i+1)*k)/float64(2*size)))
		}
	}
	return dictionary.New(atoms), nil
}

//Overcomplete creates a redundant cosine frame with atoms >= rows unit norm
// atoms, the frequencies being spread evenly over [0,π).
func Overcomplete(rows, atoms int) (*dictionary.Dictionary, error) {
	if rows <= 0 || atoms < rows {
		return nil, fmt.Errorf("0 < rows (%v) <= atoms (%v) required", rows, atoms)
	}

	m := mat.NewDense(rows, atoms, nil)
	for k := 0; k < atoms; k++ {
		for i := 0; i < rows; i++ {
			m.Set(i, k, math.Cos(math.Pi*float64((2*i+1)*k)/float64(2*atoms)))
		}
	}

	d := dictionary.New(m)
	d.Normalize()
	return d, nil
}
