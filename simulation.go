package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivierh59500/torus-swarm/palette"
	"github.com/olivierh59500/torus-swarm/swarm"
	"github.com/olivierh59500/torus-swarm/tune"
)

// Viewer constants
const (
	AgentSize      = 2.0
	BrushRadius    = 100.0
	EvolutionEvery = 1000
	MutationSigma  = 0.1
	TrailLength    = 10
	MinZoom        = 0.1 // Limit zoom out to prevent excessive tiling
)

// Visualisation modes
const (
	VisAgents = iota
	VisTrails
	VisCrowding
	visModes
)

// Gravity modes
const (
	GravityOff = iota
	GravityCentre
	GravityOrbit
	GravityCentreCursor
	GravityCursor
)

// Simulation is the ebiten Game driving a swarm engine
type Simulation struct {
	engine *swarm.Engine
	rng    *rand.Rand

	MatrixPath    string
	Paused        bool
	EvolutionMode bool
	VisMode       int
	GravityMode   int
	GravityForce  int // well strength, 0 uses the configured one
	Fast          int // substep selector, ticks per frame = max(1, 2*Fast)

	Zoom           float64
	CamX, CamY     float64 // Camera pan
	PrevMX, PrevMY float64 // Previous mouse position for drag

	frames uint64
	trails [][]swarm.Vec2
}

// NewSimulation wraps an engine for interactive display
func NewSimulation(engine *swarm.Engine, rng *rand.Rand, matrixPath string) *Simulation {
	return &Simulation{
		engine:     engine,
		rng:        rng,
		MatrixPath: matrixPath,
		Zoom:       1.0,
	}
}

// Update is called each tick by Ebitengine
func (s *Simulation) Update() error {
	// Handle input
	s.handleInput()

	if s.Paused {
		return nil
	}

	steps := max(1, s.Fast*2)
	s.engine.Tick(s.tickOptions(steps))
	s.frames += uint64(steps)

	if s.VisMode == VisTrails {
		s.recordTrails()
	}

	// Evolution if enabled
	if s.EvolutionMode && s.frames%EvolutionEvery < uint64(steps) {
		s.mutateMatrix()
	}

	return nil
}

func (s *Simulation) tickOptions(steps int) swarm.TickOptions {
	return swarm.TickOptions{
		Gravity:         s.gravityPoints(),
		GravityStrength: float64(s.GravityForce),
		Steps:           steps,
	}
}

// gravityPoints turns the gravity mode into explicit wells for this tick
func (s *Simulation) gravityPoints() []swarm.Vec2 {
	w, h := s.engine.World()
	centre := swarm.V(w*0.5, h*0.5)
	switch s.GravityMode {
	case GravityCentre:
		return []swarm.Vec2{centre}
	case GravityOrbit:
		t := float64(s.frames) * 0.03
		return []swarm.Vec2{centre, swarm.V(w*(0.5+math.Cos(t)*0.3), h*(0.5+math.Sin(t)*0.3))}
	case GravityCentreCursor:
		return []swarm.Vec2{centre, s.cursorWorld()}
	case GravityCursor:
		return []swarm.Vec2{s.cursorWorld()}
	}
	return nil
}

func (s *Simulation) recordTrails() {
	agents := s.engine.View()
	if len(s.trails) != len(agents) {
		s.trails = make([][]swarm.Vec2, len(agents))
	}
	for i := range agents {
		t := append(s.trails[i], agents[i].Pos)
		if len(t) > TrailLength {
			t = t[1:]
		}
		s.trails[i] = t
	}
}

// Draw is called each frame by Ebitengine
func (s *Simulation) Draw(screen *ebiten.Image) {
	screenWidth := float64(screen.Bounds().Dx())
	screenHeight := float64(screen.Bounds().Dy())
	w, h := s.engine.World()

	// Calculate tile ranges
	dxFrom := math.Floor(s.CamX / w)
	dxTo := math.Ceil((s.CamX + screenWidth/s.Zoom) / w)
	dyFrom := math.Floor(s.CamY / h)
	dyTo := math.Ceil((s.CamY + screenHeight/s.Zoom) / h)

	agents := s.engine.View()
	hist := s.engine.History()
	maxSpeed := hist.AvgMaxSpeed()
	maxCrowd := hist.AvgMaxNeighbors()
	radius := float32(AgentSize * s.Zoom)

	for dx := dxFrom; dx < dxTo; dx++ {
		for dy := dyFrom; dy < dyTo; dy++ {
			offsetX := dx * w
			offsetY := dy * h
			for i := range agents {
				a := &agents[i]
				sx := s.worldToScreenX(a.Pos.X + offsetX)
				sy := s.worldToScreenY(a.Pos.Y + offsetY)
				if sx < -AgentSize || sx > screenWidth+AgentSize || sy < -AgentSize || sy > screenHeight+AgentSize {
					continue
				}

				switch s.VisMode {
				case VisAgents:
					col := palette.RGBA(a.Species, speedAlpha(a.Speed, maxSpeed))
					vector.DrawFilledCircle(screen, float32(sx), float32(sy), radius, col, true)
				case VisTrails:
					s.drawTrail(screen, i, offsetX, offsetY, a.Species)
				case VisCrowding:
					crowd := 0.0
					if maxCrowd > 0 {
						crowd = math.Min(float64(a.Neighbors)/maxCrowd, 1)
					}
					col := palette.RGBA(240*(1-crowd), 1)
					vector.DrawFilledCircle(screen, float32(sx), float32(sy), radius, col, true)
				}
			}
		}
	}

	st := s.engine.Stats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"TPS %.1f  tick %d  agents %d  max speed %.2f  gravity %d/%d  fast %d  evo %v",
		ebiten.ActualTPS(), st.Tick, st.Agents, st.MaxSpeed, s.GravityMode, s.GravityForce, s.Fast, s.EvolutionMode))
}

// speedAlpha fades slow agents, relative to the recent maximum speed
func speedAlpha(speed, maxSpeed float64) float64 {
	g := 0.0
	if maxSpeed > 0 {
		g = speed / maxSpeed * 1.5
	}
	return math.Min((1+g)/2, 1)
}

func (s *Simulation) drawTrail(screen *ebiten.Image, i int, offsetX, offsetY, hue float64) {
	if i >= len(s.trails) {
		return
	}
	w, h := s.engine.World()
	col := palette.RGBA(hue, 1)
	t := s.trails[i]
	for j := 1; j < len(t); j++ {
		prev, curr := t[j-1], t[j]
		// skip the segment that jumps across the seam
		if math.Abs(curr.X-prev.X) > w/2 || math.Abs(curr.Y-prev.Y) > h/2 {
			continue
		}
		vector.StrokeLine(screen,
			float32(s.worldToScreenX(prev.X+offsetX)), float32(s.worldToScreenY(prev.Y+offsetY)),
			float32(s.worldToScreenX(curr.X+offsetX)), float32(s.worldToScreenY(curr.Y+offsetY)),
			1, col, true)
	}
}

// Layout returns the screen size
func (s *Simulation) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := s.engine.World()
	return int(w), int(h)
}

// handleInput processes keyboard and mouse input
func (s *Simulation) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.Paused = !s.Paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.randomizeMatrix()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		s.EvolutionMode = !s.EvolutionMode
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		s.VisMode = (s.VisMode + 1) % visModes
		s.trails = nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		s.saveMatrix()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		s.loadMatrix()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		s.calibrate()
	}

	// G+digit selects gravity, X+digit its force, F+digit speed
	if d, ok := justPressedDigit(); ok {
		switch {
		case ebiten.IsKeyPressed(ebiten.KeyG):
			if d <= GravityCursor {
				s.GravityMode = d
			}
		case ebiten.IsKeyPressed(ebiten.KeyX):
			s.GravityForce = d
		case ebiten.IsKeyPressed(ebiten.KeyF):
			s.Fast = d
		}
	}

	// Zoom
	_, wheelY := ebiten.Wheel()
	s.Zoom += wheelY * 0.1
	if s.Zoom < MinZoom {
		s.Zoom = MinZoom
	}

	mx, my := ebiten.CursorPosition()
	moveX := (float64(mx) - s.PrevMX) / s.Zoom
	moveY := (float64(my) - s.PrevMY) / s.Zoom

	// Brush (left drag)
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && (moveX != 0 || moveY != 0) {
		s.engine.Brush(s.cursorWorld(), BrushRadius, swarm.V(moveX, moveY), swarm.DefaultBrushStrength)
	}

	// Pan (right drag)
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		s.CamX -= moveX
		s.CamY -= moveY
	}
	s.PrevMX = float64(mx)
	s.PrevMY = float64(my)
}

var digitKeys = [...]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

func justPressedDigit() (int, bool) {
	for d, k := range digitKeys {
		if inpututil.IsKeyJustPressed(k) {
			return d, true
		}
	}
	return 0, false
}

// cursorWorld is the mouse position in wrapped world coordinates
func (s *Simulation) cursorWorld() swarm.Vec2 {
	mx, my := ebiten.CursorPosition()
	w, h := s.engine.World()
	return swarm.Wrap(swarm.V(float64(mx)/s.Zoom+s.CamX, float64(my)/s.Zoom+s.CamY), w, h)
}

// mutateMatrix slightly changes the affinity matrix
func (s *Simulation) mutateMatrix() {
	if err := s.engine.SetAffinity(s.engine.Affinity().Mutate(s.rng, MutationSigma)); err != nil {
		log.Printf("mutate: %v", err)
	}
}

// randomizeMatrix resets the matrix to random values
func (s *Simulation) randomizeMatrix() {
	a := swarm.RandomAffinity(s.engine.Affinity().Size(), s.rng)
	if err := s.engine.SetAffinity(a); err != nil {
		log.Printf("randomize: %v", err)
	}
}

func (s *Simulation) saveMatrix() {
	if err := swarm.SaveAffinity(s.MatrixPath, s.engine.Affinity()); err != nil {
		log.Printf("save matrix: %v", err)
		return
	}
	log.Printf("matrix saved to %s", s.MatrixPath)
}

func (s *Simulation) loadMatrix() {
	a, err := swarm.LoadAffinity(s.MatrixPath)
	if err != nil {
		log.Printf("load matrix: %v", err)
		return
	}
	if err := s.engine.SetAffinity(a); err != nil {
		log.Printf("load matrix: %v", err)
	}
}

// calibrate searches for the fastest grid resolution and applies it
func (s *Simulation) calibrate() {
	res, err := tune.CellSize(s.engine, tune.Options{
		Rand: s.rng,
		Tick: s.tickOptions(1),
	})
	if err != nil {
		log.Printf("calibrate: %v", err)
		return
	}
	if err := s.engine.SetCellSize(res.Best.CellW, res.Best.CellH); err != nil {
		log.Printf("calibrate: %v", err)
	}
}

// worldToScreenX/Y for camera
func (s *Simulation) worldToScreenX(wx float64) float64 {
	return (wx - s.CamX) * s.Zoom
}
func (s *Simulation) worldToScreenY(wy float64) float64 {
	return (wy - s.CamY) * s.Zoom
}
