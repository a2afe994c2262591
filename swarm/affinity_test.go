package swarm

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pkg/errors"
)

func mustAffinity(t testing.TB, rows ...[]float64) *Affinity {
	t.Helper()
	a, err := NewAffinity(rows)
	if err != nil {
		t.Fatalf("NewAffinity: %v", err)
	}
	return a
}

func TestBucketCoversHueCircle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	top := math.Nextafter(HueRange, 0)
	for n := 1; n <= 12; n++ {
		a := RandomAffinity(n, rng)

		hues := []float64{0, top, 359.9999}
		for k := 0; k < n; k++ {
			hues = append(hues, float64(k)*HueRange/float64(n))
		}
		for i := 0; i < 200; i++ {
			hues = append(hues, rng.Float64()*HueRange)
		}
		slices.Sort(hues)

		prev := 0
		for _, h := range hues {
			b := a.Bucket(h)
			if b < 0 || b >= n {
				t.Fatalf("n=%d: Bucket(%v) = %d out of range", n, h, b)
			}
			if b < prev {
				t.Fatalf("n=%d: Bucket not monotonic at hue %v (%d after %d)", n, h, b, prev)
			}
			prev = b
		}
		if got := a.Bucket(0); got != 0 {
			t.Errorf("n=%d: expected hue 0 in bucket 0, got %d", n, got)
		}
		if got := a.Bucket(top); got != n-1 {
			t.Errorf("n=%d: expected hue just under 360 in bucket %d, got %d", n, n-1, got)
		}
		for k := 0; k < n; k++ {
			mid := (float64(k) + 0.5) * HueRange / float64(n)
			if got := a.Bucket(mid); got != k {
				t.Errorf("n=%d: expected hue %v in bucket %d, got %d", n, mid, k, got)
			}
		}
	}
}

func TestBucketFoldsOutOfRangeHues(t *testing.T) {
	a := RandomAffinity(6, rand.New(rand.NewSource(2)))
	tests := []struct {
		hue  float64
		want int
	}{
		{360, 0},
		{-1, 5},
		{730, 0},
		{-300, 1},
	}
	for _, tt := range tests {
		if got := a.Bucket(tt.hue); got != tt.want {
			t.Errorf("Bucket(%v): expected %d, got %d", tt.hue, tt.want, got)
		}
	}
}

func TestNewAffinityRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"empty", nil},
		{"not square", [][]float64{{1, 2}, {3}}},
		{"too wide", [][]float64{{1, 2}}},
		{"nan", [][]float64{{math.NaN()}}},
		{"inf", [][]float64{{1, 0}, {0, math.Inf(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAffinity(tt.rows); !errors.Is(err, ErrAffinity) {
				t.Errorf("Expected ErrAffinity, got %v", err)
			}
		})
	}
}

func TestAffinityIsAsymmetric(t *testing.T) {
	a := mustAffinity(t, []float64{0, 1}, []float64{-1, 0})
	if got := a.Between(10, 200); got != 1 {
		t.Errorf("Expected species 0 attracted to species 1, got %v", got)
	}
	if got := a.Between(200, 10); got != -1 {
		t.Errorf("Expected species 1 repelled by species 0, got %v", got)
	}
}

func TestNewAffinityCopiesRows(t *testing.T) {
	rows := [][]float64{{0.5}}
	a := mustAffinity(t, rows...)
	rows[0][0] = -1
	if a.At(0, 0) != 0.5 {
		t.Errorf("Expected matrix unaffected by caller edits, got %v", a.At(0, 0))
	}
	a.Rows()[0][0] = -1
	if a.At(0, 0) != 0.5 {
		t.Errorf("Expected Rows to return a copy, got %v", a.At(0, 0))
	}
}

func TestRandomAffinityRange(t *testing.T) {
	a := RandomAffinity(8, rand.New(rand.NewSource(3)))
	for _, row := range a.Rows() {
		for _, v := range row {
			if v < -1 || v >= 1 {
				t.Fatalf("weight %v outside [-1,1)", v)
			}
		}
	}
}

func TestMutate(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := RandomAffinity(5, rng)
	before := a.Rows()

	m := a.Mutate(rng, 5)
	if m.Size() != a.Size() {
		t.Fatalf("Expected size %d, got %d", a.Size(), m.Size())
	}
	for i, row := range m.Rows() {
		if !slices.Equal(a.Rows()[i], before[i]) {
			t.Fatalf("Mutate modified the receiver at row %d", i)
		}
		for _, v := range row {
			if v < -1 || v > 1 {
				t.Fatalf("mutated weight %v not clamped", v)
			}
		}
	}

	if same := a.Mutate(rng, 0); !slices.EqualFunc(same.Rows(), before, slices.Equal[[]float64]) {
		t.Error("Expected zero sigma to reproduce the matrix")
	}
}

func TestSaveLoadAffinity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.json")

	a := mustAffinity(t, []float64{0.25, -1}, []float64{1, 0})
	if err := SaveAffinity(path, a); err != nil {
		t.Fatalf("SaveAffinity: %v", err)
	}
	got, err := LoadAffinity(path)
	if err != nil {
		t.Fatalf("LoadAffinity: %v", err)
	}
	if !slices.EqualFunc(got.Rows(), a.Rows(), slices.Equal[[]float64]) {
		t.Errorf("Expected %v, got %v", a.Rows(), got.Rows())
	}
}

func TestLoadAffinityErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadAffinity(filepath.Join(dir, "missing.json"))
	if !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("Expected not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[[1, 2], [3]]`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAffinity(bad); !errors.Is(err, ErrAffinity) {
		t.Errorf("Expected ErrAffinity for ragged matrix, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte(`{"rows": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAffinity(garbage); !errors.Is(err, ErrAffinity) {
		t.Errorf("Expected ErrAffinity for wrong shape, got %v", err)
	}
}
