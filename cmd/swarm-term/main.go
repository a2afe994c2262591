package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/olivierh59500/torus-swarm/logging"
	"github.com/olivierh59500/torus-swarm/palette"
	"github.com/olivierh59500/torus-swarm/swarm"
)

const frameTime = 33 * time.Millisecond

// view holds terminal state; the engine is only touched from the main loop
type view struct {
	screen  tcell.Screen
	engine  *swarm.Engine
	rng     *rand.Rand
	paused  bool
	gravity bool

	// per-cell species histogram, reused every frame
	counts [][]int
}

func main() {
	cfg := swarm.DefaultConfig()
	cfg.Population = 3000
	cfg.Width, cfg.Height = 400, 200

	if path := swarm.ConfigArg(os.Args[1:]); path != "" {
		loaded, err := swarm.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "swarm-term: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet("swarm-term", flag.ExitOnError)
	fs.String("config", "", "JSON configuration file, other flags override it")
	debugLog := fs.Bool("debug", false, "write logs to logs/swarm-term.log")
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	if f := logging.Setup("swarm-term", *debugLog); f != nil {
		defer f.Close()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	engine, err := swarm.New(cfg, swarm.RandomAffinity(cfg.Species, rng), rng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarm-term: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "swarm-term: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "swarm-term: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal even if a tick panics
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "swarm-term crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()

	v := &view{screen: screen, engine: engine, rng: rng}
	v.run()
}

func (v *view) run() {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if !v.handle(ev) {
				return
			}
		case <-ticker.C:
			if !v.paused {
				v.engine.Tick(swarm.TickOptions{Gravity: v.wells()})
			}
			v.draw()
		}
	}
}

// handle reacts to one event and reports whether to keep running
func (v *view) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			case 'g':
				v.gravity = !v.gravity
			case 'r':
				a := swarm.RandomAffinity(v.engine.Affinity().Size(), v.rng)
				if err := v.engine.SetAffinity(a); err != nil {
					log.Printf("randomize: %v", err)
				}
			}
		}
	}
	return true
}

func (v *view) wells() []swarm.Vec2 {
	if !v.gravity {
		return nil
	}
	w, h := v.engine.World()
	return []swarm.Vec2{swarm.V(w/2, h/2)}
}

// draw bins agents into terminal cells and shows the dominant species of each
func (v *view) draw() {
	cols, rows := v.screen.Size()
	rows-- // status line
	if cols <= 0 || rows <= 0 {
		return
	}
	n := v.engine.Affinity().Size()
	v.resize(cols*rows, n)

	w, h := v.engine.World()
	aff := v.engine.Affinity()
	for _, a := range v.engine.View() {
		cx := min(int(a.Pos.X/w*float64(cols)), cols-1)
		cy := min(int(a.Pos.Y/h*float64(rows)), rows-1)
		v.counts[cy*cols+cx][aff.Bucket(a.Species)]++
	}

	v.screen.Clear()
	for i, c := range v.counts {
		best, total := 0, 0
		for s, k := range c {
			total += k
			if k > c[best] {
				best = s
			}
		}
		if total == 0 {
			continue
		}
		c := palette.Bucket(best, n)
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
		v.screen.SetContent(i%cols, i/cols, glyph(total), nil, style)
	}

	st := v.engine.Stats()
	status := fmt.Sprintf(" tick %d  agents %d  max speed %.2f  gravity %v  [space] pause [g] gravity [r] matrix [q] quit",
		st.Tick, st.Agents, st.MaxSpeed, v.gravity)
	for x, r := range status {
		if x >= cols {
			break
		}
		v.screen.SetContent(x, rows, r, nil, tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
}

func (v *view) resize(cells, species int) {
	if len(v.counts) != cells || (cells > 0 && len(v.counts[0]) != species) {
		v.counts = make([][]int, cells)
		for i := range v.counts {
			v.counts[i] = make([]int, species)
		}
		return
	}
	for _, c := range v.counts {
		clear(c)
	}
}

// glyph gets denser with the number of agents in a cell
func glyph(count int) rune {
	switch {
	case count >= 8:
		return '█'
	case count >= 4:
		return '▓'
	case count >= 2:
		return '▒'
	}
	return '░'
}
