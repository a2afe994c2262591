package tune

import (
	"io"
	"log"
	"math/rand"
	"os"
	"testing"

	"github.com/pkg/errors"

	"github.com/olivierh59500/torus-swarm/swarm"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newEngine(t *testing.T) *swarm.Engine {
	t.Helper()
	cfg := swarm.DefaultConfig()
	cfg.Population = 300
	cfg.Width, cfg.Height = 200, 100
	rng := rand.New(rand.NewSource(1))
	e, err := swarm.New(cfg, swarm.RandomAffinity(cfg.Species, rng), rng)
	if err != nil {
		t.Fatalf("swarm.New: %v", err)
	}
	return e
}

func TestCellSizeExplicitDivisors(t *testing.T) {
	e := newEngine(t)
	before := e.Agents()
	cw, ch := e.CellSize()

	res, err := CellSize(e, Options{Divisors: []float64{2, 5, 10}, Measure: 1, Warmup: -1})
	if err != nil {
		t.Fatalf("CellSize: %v", err)
	}
	if len(res.Trials) != 3 {
		t.Fatalf("Expected 3 trials, got %d", len(res.Trials))
	}
	for i, div := range []float64{2, 5, 10} {
		tr := res.Trials[i]
		if tr.Divisor != div || tr.CellW != 200/div || tr.CellH != 100/div {
			t.Errorf("trial %d: expected divisor %v with %vx%v cells, got %+v", i, div, 200/div, 100/div, tr)
		}
		if res.Best.Duration > tr.Duration {
			t.Errorf("Best %v is slower than trial %d (%v)", res.Best.Duration, i, tr.Duration)
		}
	}

	// calibration runs on clones only
	if e.Stats().Tick != 0 {
		t.Errorf("Expected the engine not to tick, got tick %d", e.Stats().Tick)
	}
	if w, h := e.CellSize(); w != cw || h != ch {
		t.Errorf("Expected cell size %vx%v untouched, got %vx%v", cw, ch, w, h)
	}
	for i, a := range e.View() {
		if a != before[i] {
			t.Fatalf("agent %d changed during calibration", i)
		}
	}
}

func TestCellSizeRandomDivisors(t *testing.T) {
	e := newEngine(t)
	opts := Options{Trials: 4, MinDiv: 3, MaxDiv: 6, Measure: 1, Rand: rand.New(rand.NewSource(2))}
	res, err := CellSize(e, opts)
	if err != nil {
		t.Fatalf("CellSize: %v", err)
	}
	if len(res.Trials) != 4 {
		t.Fatalf("Expected 4 trials, got %d", len(res.Trials))
	}
	for _, tr := range res.Trials {
		if tr.Divisor < 3 || tr.Divisor >= 6 {
			t.Errorf("divisor %v outside [3,6)", tr.Divisor)
		}
	}
	if err := e.SetCellSize(res.Best.CellW, res.Best.CellH); err != nil {
		t.Errorf("Expected the best cell size to apply, got %v", err)
	}
}

func TestCellSizeRejectsBadDivisor(t *testing.T) {
	e := newEngine(t)
	_, err := CellSize(e, Options{Divisors: []float64{4, 0}, Measure: 1})
	if !errors.Is(err, swarm.ErrCellSize) {
		t.Errorf("Expected ErrCellSize, got %v", err)
	}

	_, err = CellSize(e, Options{Divisors: []float64{1e5}, Measure: 1})
	if !errors.Is(err, swarm.ErrCellSize) {
		t.Errorf("Expected ErrCellSize for a divisor past MaxGridCells, got %v", err)
	}
	if e.Stats().Tick != 0 {
		t.Errorf("Expected the engine not to tick, got tick %d", e.Stats().Tick)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.withDefaults()
	if o.Trials != defaultTrials || o.Warmup != defaultWarmup || o.Measure != defaultMeasure {
		t.Errorf("Unexpected defaults %+v", o)
	}
	if o.MinDiv != defaultMinDiv || o.MaxDiv != defaultMaxDiv || o.Rand == nil {
		t.Errorf("Unexpected divisor range %v..%v", o.MinDiv, o.MaxDiv)
	}

	o = Options{Warmup: -1, MinDiv: 50, MaxDiv: 20}
	o.withDefaults()
	if o.Warmup != 0 {
		t.Errorf("Expected negative warm-up to skip, got %d", o.Warmup)
	}
	if o.MaxDiv <= o.MinDiv {
		t.Errorf("Expected an empty range to be widened, got %v..%v", o.MinDiv, o.MaxDiv)
	}
}
