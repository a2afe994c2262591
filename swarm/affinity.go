package swarm

import (
	"encoding/json"
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
)

// HueRange is the exclusive upper bound of species values
const HueRange = 360.0

// Affinity is an immutable N x N table of interaction weights.
// At(i, j) is what a species-i agent feels toward a species-j agent:
// positive attracts, negative repels, zero ignores.
type Affinity struct {
	n int
	w []float64 // row-major
}

// NewAffinity copies rows into a new matrix. rows must be non-empty and square.
func NewAffinity(rows [][]float64) (*Affinity, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.Wrap(ErrAffinity, "empty matrix")
	}
	a := &Affinity{n: n, w: make([]float64, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, errors.Wrapf(ErrAffinity, "row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(ErrAffinity, "entry [%d][%d] is %v", i, j, v)
			}
		}
		copy(a.w[i*n:], row)
	}
	return a, nil
}

// RandomAffinity draws every weight uniformly from [-1, 1)
func RandomAffinity(n int, rng *rand.Rand) *Affinity {
	if n < 1 {
		n = 1
	}
	a := &Affinity{n: n, w: make([]float64, n*n)}
	for i := range a.w {
		a.w[i] = rng.Float64()*2 - 1
	}
	return a
}

// Size is the number of species buckets
func (a *Affinity) Size() int {
	return a.n
}

// At returns the weight of species i toward species j
func (a *Affinity) At(i, j int) float64 {
	return a.w[i*a.n+j]
}

// Bucket maps a hue onto [0, N). The hue circle is split into N equal
// half-open intervals; hues outside [0, 360) are folded back first.
func (a *Affinity) Bucket(hue float64) int {
	hue = wrapCoord(hue, HueRange)
	b := int(hue / (HueRange / float64(a.n)))
	if b >= a.n {
		b = a.n - 1
	} else if b < 0 {
		b = 0
	}
	return b
}

// Between looks up the weight between two hues
func (a *Affinity) Between(from, to float64) float64 {
	return a.At(a.Bucket(from), a.Bucket(to))
}

// Rows returns a copy of the matrix as nested slices
func (a *Affinity) Rows() [][]float64 {
	rows := make([][]float64, a.n)
	for i := range rows {
		rows[i] = append([]float64(nil), a.w[i*a.n:(i+1)*a.n]...)
	}
	return rows
}

// Mutate returns a copy with Gaussian noise of the given sigma added to every
// weight, clamped to [-1, 1]. The receiver is left untouched.
func (a *Affinity) Mutate(rng *rand.Rand, sigma float64) *Affinity {
	m := &Affinity{n: a.n, w: make([]float64, len(a.w))}
	for i, v := range a.w {
		v += rng.NormFloat64() * sigma
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		m.w[i] = v
	}
	return m
}

func (a *Affinity) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Rows())
}

func (a *Affinity) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(ErrAffinity, err.Error())
	}
	m, err := NewAffinity(rows)
	if err != nil {
		return err
	}
	*a = *m
	return nil
}

// LoadAffinity reads a matrix saved by SaveAffinity
func LoadAffinity(path string) (*Affinity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read affinity")
	}
	a := new(Affinity)
	if err := json.Unmarshal(data, a); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return a, nil
}

// SaveAffinity writes the matrix as a JSON array of rows
func SaveAffinity(path string, a *Affinity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "encode affinity")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write affinity")
}
