package swarm

import (
	"log"
	"math/rand"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// minChunk is the smallest slice of agents worth handing to its own goroutine
const minChunk = 64

// DefaultBrushStrength scales Brush impulses when no strength is given
const DefaultBrushStrength = 0.3

// TickOptions carries the per-tick inputs that are not part of the
// population: gravity wells, speed-up and scheduling
type TickOptions struct {
	// Gravity wells pulling every agent, strength taken from GravityStrength
	// or Config.GravityStrength when zero or not finite
	Gravity         []Vec2
	GravityStrength float64

	// Steps is the number of full ticks to run; values below 1 mean 1
	Steps int

	// Serial runs every agent update on the calling goroutine
	Serial bool
}

// Engine owns the population and advances it one tick at a time.
// Tick, Brush, Nudge and the setters must not be called concurrently;
// accessors are safe between ticks.
type Engine struct {
	cfg   Config
	aff   *Affinity
	model ForceModel
	grid  *Grid

	agents []Agent // state after the last tick
	next   []Agent // write buffer for the tick in progress
	points []Vec2

	scratch []scratch
	stats   Stats
	history History
}

// scratch is per-worker reusable buffer space
type scratch struct {
	ids  []int
	near nearest
}

// New validates cfg against aff and seeds a population from rng
func New(cfg Config, aff *Affinity, rng *rand.Rand) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if aff == nil {
		return nil, errors.Wrap(ErrAffinity, "nil matrix")
	}
	if cfg.Species != 0 && cfg.Species != aff.Size() {
		return nil, errors.Wrapf(ErrSpecies, "config wants %d, matrix is %dx%d", cfg.Species, aff.Size(), aff.Size())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	if cfg.Accel == "" {
		cfg.Accel = AccelPerNeighbor
	}

	model, err := ModelByName(cfg.Model, cfg)
	if err != nil {
		return nil, err
	}

	grid, err := NewGrid(cfg.CellWidth, cfg.CellHeight, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	logCellSnap(grid, cfg.CellWidth, cfg.CellHeight)

	e := &Engine{
		cfg:   cfg,
		aff:   aff,
		model: model,
		grid:  grid,
	}
	e.agents = seedAgents(cfg, rng)
	e.next = make([]Agent, len(e.agents))
	e.grid.Build(e.positions())
	return e, nil
}

func logCellSnap(g *Grid, cw, ch float64) {
	gw, gh := g.CellSize()
	if gw != cw || gh != ch {
		cols, rows := g.Dims()
		log.Printf("swarm: cell %gx%g snapped to %gx%g (%dx%d grid)", cw, ch, gw, gh, cols, rows)
	}
}

// Tick advances the population by opts.Steps ticks and returns the stats of the last one
func (e *Engine) Tick(opts TickOptions) Stats {
	steps := opts.Steps
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		e.step(&opts)
	}
	return e.stats
}

// step is one tick: index, fan out, join, swap, summarise
func (e *Engine) step(opts *TickOptions) {
	n := len(e.agents)
	e.grid.Build(e.positions())

	strength := opts.GravityStrength
	if strength == 0 || !isFinite(strength) {
		strength = e.cfg.GravityStrength
	}
	tc := &tickContext{
		env:             Env{Width: e.cfg.Width, Height: e.cfg.Height, Affinity: e.aff},
		grid:            e.grid,
		prev:            e.agents,
		model:           e.model,
		gravity:         opts.Gravity,
		gravityStrength: strength,
		topK:            e.cfg.TopK,
		accel:           e.cfg.Accel,
		limit:           e.cfg.LimitVelocity,
	}
	if cap(e.next) < n {
		e.next = make([]Agent, n)
	}
	e.next = e.next[:n]

	workers := e.workers(n, opts.Serial)
	e.ensureScratch(workers)
	if workers == 1 {
		tc.updateRange(e.next, 0, n, &e.scratch[0])
	} else {
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		g.SetLimit(workers)
		for w := 0; w*chunk < n; w++ {
			lo, hi := w*chunk, min((w+1)*chunk, n)
			sc := &e.scratch[w]
			g.Go(func() error {
				tc.updateRange(e.next, lo, hi, sc)
				return nil
			})
		}
		_ = g.Wait()
	}

	e.agents, e.next = e.next, e.agents
	e.stats = collectStats(e.stats.Tick+1, e.agents)
	e.history.push(e.stats)
}

func (e *Engine) workers(n int, serial bool) int {
	if serial || n <= minChunk {
		return 1
	}
	w := e.cfg.Workers
	if w == 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if most := (n + minChunk - 1) / minChunk; w > most {
		w = most
	}
	return max(w, 1)
}

func (e *Engine) ensureScratch(workers int) {
	for len(e.scratch) < workers {
		e.scratch = append(e.scratch, scratch{})
	}
}

func (e *Engine) positions() []Vec2 {
	e.points = e.points[:0]
	for i := range e.agents {
		e.points = append(e.points, e.agents[i].Pos)
	}
	return e.points
}

// Len is the population size
func (e *Engine) Len() int {
	return len(e.agents)
}

// Agent returns a copy of agent id
func (e *Engine) Agent(id int) (Agent, error) {
	if id < 0 || id >= len(e.agents) {
		return Agent{}, errors.Wrapf(ErrAgentID, "%d of %d", id, len(e.agents))
	}
	return e.agents[id], nil
}

// Agents returns a copy of the whole population
func (e *Engine) Agents() []Agent {
	return append([]Agent(nil), e.agents...)
}

// View exposes the population without copying. The slice is replaced by the
// next Tick and must be treated as read-only.
func (e *Engine) View() []Agent {
	return e.agents
}

func (e *Engine) Positions() []Vec2 {
	out := make([]Vec2, len(e.agents))
	for i := range e.agents {
		out[i] = e.agents[i].Pos
	}
	return out
}

func (e *Engine) Velocities() []Vec2 {
	out := make([]Vec2, len(e.agents))
	for i := range e.agents {
		out[i] = e.agents[i].Vel
	}
	return out
}

func (e *Engine) Species() []float64 {
	out := make([]float64, len(e.agents))
	for i := range e.agents {
		out[i] = e.agents[i].Species
	}
	return out
}

// Stats returns the summary of the last tick
func (e *Engine) Stats() Stats {
	return e.stats
}

// History returns the rolling window of recent maxima
func (e *Engine) History() *History {
	return &e.history
}

func (e *Engine) Affinity() *Affinity {
	return e.aff
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) Model() ForceModel {
	return e.model
}

// World returns the world size
func (e *Engine) World() (w, h float64) {
	return e.cfg.Width, e.cfg.Height
}

// CellSize returns the effective grid cell size
func (e *Engine) CellSize() (w, h float64) {
	return e.grid.CellSize()
}

// Near returns the ids of agents within toroidal distance r of p, using
// positions as of now
func (e *Engine) Near(p Vec2, r float64) []int {
	e.grid.Build(e.positions())
	return e.grid.Within(p, r)
}

// Nudge adds dv to the velocity of agent id
func (e *Engine) Nudge(id int, dv Vec2) error {
	if id < 0 || id >= len(e.agents) {
		return errors.Wrapf(ErrAgentID, "%d of %d", id, len(e.agents))
	}
	e.agents[id].Vel = e.agents[id].Vel.Add(dv)
	return nil
}

// Brush pushes every agent within radius of center along motion, fading
// linearly to nothing at the rim. strength 0 uses DefaultBrushStrength.
// It returns the number of agents touched.
func (e *Engine) Brush(center Vec2, radius float64, motion Vec2, strength float64) int {
	if radius <= 0 {
		return 0
	}
	if strength == 0 {
		strength = DefaultBrushStrength
	}
	w, h := e.World()
	touched := 0
	for _, id := range e.Near(center, radius) {
		a := &e.agents[id]
		d := a.Pos.DistMod(center, w, h)
		a.Vel = a.Vel.Add(motion.Scale((1 - d/radius) * strength))
		touched++
	}
	return touched
}

// SetAffinity swaps in a new matrix of the same size
func (e *Engine) SetAffinity(a *Affinity) error {
	if a == nil {
		return errors.Wrap(ErrAffinity, "nil matrix")
	}
	if a.Size() != e.aff.Size() {
		return errors.Wrapf(ErrSpecies, "matrix is %dx%d, engine uses %d species", a.Size(), a.Size(), e.aff.Size())
	}
	e.aff = a
	return nil
}

// SetCellSize replaces the grid with one of the given resolution
func (e *Engine) SetCellSize(w, h float64) error {
	g, err := NewGrid(w, h, e.cfg.Width, e.cfg.Height)
	if err != nil {
		return err
	}
	logCellSnap(g, w, h)
	g.Build(e.positions())
	e.grid = g
	e.cfg.CellWidth, e.cfg.CellHeight = w, h
	return nil
}

// Clone returns an independent engine with the same population, matrix and
// model. The matrix and model are shared; both are read-only.
func (e *Engine) Clone() *Engine {
	cw, ch := e.grid.CellSize()
	g, _ := NewGrid(cw, ch, e.cfg.Width, e.cfg.Height)
	c := &Engine{
		cfg:     e.cfg,
		aff:     e.aff,
		model:   e.model,
		grid:    g,
		agents:  append([]Agent(nil), e.agents...),
		next:    make([]Agent, len(e.agents)),
		stats:   e.stats,
		history: History{
			speed:     append([]float64(nil), e.history.speed...),
			neighbors: append([]float64(nil), e.history.neighbors...),
			next:      e.history.next,
		},
	}
	c.grid.Build(c.positions())
	return c
}
