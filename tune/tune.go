// Package tune picks a grid resolution for an engine by timing real ticks.
// It runs on a clone before a simulation starts and never touches the live engine.
package tune

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/olivierh59500/torus-swarm/swarm"
)

// Options controls a calibration run. Zero fields take the defaults below.
type Options struct {
	// Divisors are the cells-per-axis candidates. When empty, Trials random
	// divisors are drawn from [MinDiv, MaxDiv).
	Divisors []float64
	Trials   int
	MinDiv   float64
	MaxDiv   float64

	// Untimed ticks before measuring; negative skips warm-up
	Warmup  int
	Measure int

	Tick swarm.TickOptions
	Rand *rand.Rand
}

const (
	defaultTrials  = 10
	defaultMinDiv  = 10
	defaultMaxDiv  = 110
	defaultWarmup  = 1
	defaultMeasure = 4
)

var ErrNoCandidates = errors.New("no cell size candidates")

// Trial is the timing of one candidate
type Trial struct {
	Divisor  float64
	CellW    float64
	CellH    float64
	Duration time.Duration
}

// Result holds every trial and the fastest one
type Result struct {
	Best   Trial
	Trials []Trial
}

func (o *Options) withDefaults() {
	if o.Trials <= 0 {
		o.Trials = defaultTrials
	}
	if o.MinDiv <= 0 {
		o.MinDiv = defaultMinDiv
	}
	if o.MaxDiv <= o.MinDiv {
		o.MaxDiv = o.MinDiv + defaultMaxDiv - defaultMinDiv
	}
	if o.Warmup < 0 {
		o.Warmup = 0
	} else if o.Warmup == 0 {
		o.Warmup = defaultWarmup
	}
	if o.Measure <= 0 {
		o.Measure = defaultMeasure
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

func (o *Options) candidates() []float64 {
	if len(o.Divisors) > 0 {
		return o.Divisors
	}
	out := make([]float64, o.Trials)
	for i := range out {
		out[i] = o.MinDiv + float64(o.Rand.Intn(max(1, int(o.MaxDiv-o.MinDiv))))
	}
	return out
}

// CellSize times opts.Measure ticks (after opts.Warmup untimed ones) for
// every candidate divisor on a fresh clone of e and returns the fastest.
// Apply the result with e.SetCellSize(res.Best.CellW, res.Best.CellH).
func CellSize(e *swarm.Engine, opts Options) (Result, error) {
	opts.withDefaults()
	divs := opts.candidates()
	if len(divs) == 0 {
		return Result{}, ErrNoCandidates
	}
	logHost()

	w, h := e.World()
	var res Result
	for i, div := range divs {
		// div cells per axis
		if !(div > 0) || math.Round(div)*math.Round(div) > swarm.MaxGridCells {
			return res, errors.Wrapf(swarm.ErrCellSize, "divisor %g", div)
		}
		trial, err := run(e, div, w/div, h/div, &opts)
		if err != nil {
			return res, err
		}
		log.Printf("tune: div %g cell %.2fx%.2f: %v", div, trial.CellW, trial.CellH, trial.Duration)
		res.Trials = append(res.Trials, trial)
		if i == 0 || trial.Duration < res.Best.Duration {
			res.Best = trial
		}
	}
	log.Printf("tune: best div %g (%v)", res.Best.Divisor, res.Best.Duration)
	return res, nil
}

func run(e *swarm.Engine, div, cw, ch float64, opts *Options) (Trial, error) {
	c := e.Clone()
	if err := c.SetCellSize(cw, ch); err != nil {
		return Trial{}, err
	}
	for i := 0; i < opts.Warmup; i++ {
		c.Tick(opts.Tick)
	}
	start := time.Now()
	for i := 0; i < opts.Measure; i++ {
		c.Tick(opts.Tick)
	}
	gw, gh := c.CellSize()
	return Trial{Divisor: div, CellW: gw, CellH: gh, Duration: time.Since(start)}, nil
}

// logHost records what the timings were measured on
func logHost() {
	cores, err := cpu.Counts(true)
	if err != nil {
		log.Printf("tune: cpu count unavailable: %v", err)
		return
	}
	model := "unknown"
	if info, err := cpu.Info(); err == nil && len(info) > 0 {
		model = info[0].ModelName
	}
	load := -1.0
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		load = pct[0]
	}
	log.Printf("tune: host %s, %d logical cores, load %.1f%%", model, cores, load)
}
