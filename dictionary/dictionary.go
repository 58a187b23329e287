package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/nathanhack/threadpool"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//Dictionary holds the atoms (one per column) used to represent signals.
type Dictionary struct {
	Atoms *mat.Dense
}

//// For JSON marshalling
type dictionary struct {
	Rows  int
	Atoms int
	Data  []float64 // row major
}

func (d *Dictionary) MarshalJSON() ([]byte, error) {
	rows, atoms := d.Atoms.Dims()
	return json.Marshal(dictionary{
		Rows:  rows,
		Atoms: atoms,
		Data:  mat.DenseCopyOf(d.Atoms).RawMatrix().Data,
	})
}

//UnmarshalJSON is needed because mat.Dense does not do JSON
func (d *Dictionary) UnmarshalJSON(bytes []byte) error {
	var dict dictionary
	err := json.Unmarshal(bytes, &dict)
	if err != nil {
		return err
	}
	if dict.Rows <= 0 || dict.Atoms <= 0 || len(dict.Data) != dict.Rows*dict.Atoms {
		return fmt.Errorf("dictionary of %vx%v requires %v values but found %v", dict.Rows, dict.Atoms, dict.Rows*dict.Atoms, len(dict.Data))
	}

	d.Atoms = mat.NewDense(dict.Rows, dict.Atoms, dict.Data)
	return nil
}

//New wraps the atoms into a Dictionary.
func New(atoms *mat.Dense) *Dictionary {
	return &Dictionary{Atoms: atoms}
}

//Dims returns the signal length (rows) and the number of atoms.
func (d *Dictionary) Dims() (rows, atoms int) {
	return d.Atoms.Dims()
}

func (d *Dictionary) Atom(m int) []float64 {
	return mat.Col(nil, m, d.Atoms)
}

//ColumnNorms returns the euclidean norm of every atom.
func (d *Dictionary) ColumnNorms() []float64 {
	_, atoms := d.Dims()
	norms := make([]float64, atoms)
	for m := range norms {
		norms[m] = floats.Norm(d.Atom(m), 2)
	}
	return norms
}

//IsUnitNorm is true when every atom's norm is within tol of 1.
func (d *Dictionary) IsUnitNorm(tol float64) bool {
	for m, norm := range d.ColumnNorms() {
		if math.Abs(norm-1) > tol {
			logrus.Debugf("atom %v has norm %v", m, norm)
			return false
		}
	}
	return true
}

//Normalize scales every nonzero atom to unit norm.
func (d *Dictionary) Normalize() {
	for m, norm := range d.ColumnNorms() {
		if norm == 0 {
			logrus.Warnf("atom %v is zero and can not be normalized", m)
			continue
		}
		atom := d.Atom(m)
		floats.Scale(1/norm, atom)
		d.Atoms.SetCol(m, atom)
	}
}

//Synthesize returns Atoms*coefficients.
func (d *Dictionary) Synthesize(coefficients mat.Matrix) *mat.Dense {
	_, atoms := d.Dims()
	r, c := coefficients.Dims()
	if r != atoms {
		panic(fmt.Sprintf("coefficients with %v rows are required but found %v", atoms, r))
	}
	rows, _ := d.Dims()
	result := mat.NewDense(rows, c, nil)
	result.Mul(d.Atoms, coefficients)
	return result
}

//Coherence returns the largest |<φ_i,φ_j>| with i!=j over normalized atoms.
// threads specifies the number of threads to use if <=0 will use runtime.NumCPU()
func (d *Dictionary) Coherence(ctx context.Context, threads int, showProgressBar bool) float64 {
	_, atoms := d.Dims()
	normalized := make([][]float64, atoms)
	for m, norm := range d.ColumnNorms() {
		normalized[m] = d.Atom(m)
		if norm > 0 {
			floats.Scale(1/norm, normalized[m])
		}
	}

	bar := pb.Full.New(atoms)
	bar.Set("prefix", "Processing Atom ")
	bar.SetWriter(os.Stdout)
	if showProgressBar {
		bar.Start()
	}

	pool := threadpool.NewFixedSize(ctx, threads, atoms)
	coherence := 0.0
	mux := sync.Mutex{}
	for i := 0; i < atoms; i++ {
		index := i
		pool.Add(func() {
			max := 0.0
			for j := index + 1; j < atoms; j++ {
				max = math.Max(max, math.Abs(floats.Dot(normalized[index], normalized[j])))
			}
			mux.Lock()
			coherence = math.Max(coherence, max)
			mux.Unlock()
			bar.Increment()
		})
	}
	pool.Wait()

	if showProgressBar {
		bar.Finish()
	}
	return coherence
}

func (d *Dictionary) String() string {
	rows, atoms := d.Dims()
	buf := strings.Builder{}
	buf.WriteString(fmt.Sprintf("{\nDictionary %vx%v:\n", rows, atoms))
	buf.WriteString(fmt.Sprintf("%v", mat.Formatted(d.Atoms)))
	buf.WriteString("\n}\n")
	return buf.String()
}
