package gaussian

import (
	"fmt"
	"math/rand"

	"github.com/nathanhack/bomp/dictionary"
	"gonum.org/v1/gonum/mat"
)

//New creates a random sensing dictionary with i.i.d. N(0,1) entries and
// unit norm atoms. With rows << atoms such dictionaries have low coherence
// with high probability.
func New(rows, atoms int, rnd *rand.Rand) (*dictionary.Dictionary, error) {
	if rows <= 0 || atoms <= 0 {
		return nil, fmt.Errorf("rows (%v) and atoms (%v) must be > 0", rows, atoms)
	}

	data := make([]float64, rows*atoms)
	for i := range data {
		data[i] = rnd.NormFloat64()
	}

	d := dictionary.New(mat.NewDense(rows, atoms, data))
	d.Normalize()
	return d, nil
}
