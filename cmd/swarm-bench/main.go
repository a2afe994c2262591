package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/olivierh59500/torus-swarm/logging"
	"github.com/olivierh59500/torus-swarm/swarm"
	"github.com/olivierh59500/torus-swarm/tune"
)

type options struct {
	ticks     int
	every     int
	calibrate bool
	serial    bool
	gravity   bool
	csvPath   string
	matrix    string
}

func main() {
	logging.Stderr()

	cfg := swarm.DefaultConfig()
	if path := swarm.ConfigArg(os.Args[1:]); path != "" {
		loaded, err := swarm.LoadConfig(path)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	var opts options
	fs := flag.NewFlagSet("swarm-bench", flag.ExitOnError)
	fs.String("config", "", "JSON configuration file, other flags override it")
	fs.IntVar(&opts.ticks, "ticks", 500, "ticks to run")
	fs.IntVar(&opts.every, "every", 50, "log stats every n ticks")
	fs.BoolVar(&opts.calibrate, "calibrate", false, "pick the fastest cell size before running")
	fs.BoolVar(&opts.serial, "serial", false, "run every agent update on one goroutine")
	fs.BoolVar(&opts.gravity, "centre", false, "add a gravity well at the world centre")
	fs.StringVar(&opts.csvPath, "csv", "", "write per-tick durations to this CSV file")
	fs.StringVar(&opts.matrix, "matrix", "", "affinity matrix JSON (random when empty)")
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	if err := run(cfg, opts); err != nil {
		log.Fatal(err)
	}
}

func run(cfg swarm.Config, opts options) error {
	rng := rand.New(rand.NewSource(cfg.Seed))

	aff := swarm.RandomAffinity(cfg.Species, rng)
	if opts.matrix != "" {
		loaded, err := swarm.LoadAffinity(opts.matrix)
		if err != nil {
			return err
		}
		aff = loaded
	}

	engine, err := swarm.New(cfg, aff, rng)
	if err != nil {
		return err
	}

	tick := swarm.TickOptions{Serial: opts.serial}
	if opts.gravity {
		w, h := engine.World()
		tick.Gravity = []swarm.Vec2{swarm.V(w/2, h/2)}
	}

	if opts.calibrate {
		res, err := tune.CellSize(engine, tune.Options{Rand: rng, Tick: tick})
		if err != nil {
			return err
		}
		if err := engine.SetCellSize(res.Best.CellW, res.Best.CellH); err != nil {
			return err
		}
	}

	cw, ch := engine.CellSize()
	log.Printf("bench: %d agents, %gx%g world, cell %.2fx%.2f, model %s, serial %v",
		engine.Len(), cfg.Width, cfg.Height, cw, ch, engine.Model().Name(), opts.serial)

	durations := make([]time.Duration, 0, opts.ticks)
	start := time.Now()
	for i := 0; i < opts.ticks; i++ {
		t0 := time.Now()
		st := engine.Tick(tick)
		durations = append(durations, time.Since(t0))

		if opts.every > 0 && st.Tick%uint64(opts.every) == 0 {
			log.Printf("tick %d: max speed %.3f mean speed %.3f max neighbours %d mean neighbours %.1f",
				st.Tick, st.MaxSpeed, st.MeanSpeed, st.MaxNeighbors, st.MeanNeighbors)
		}
	}
	total := time.Since(start)
	if opts.ticks > 0 {
		log.Printf("bench: %d ticks in %v (%.2f ticks/s)", opts.ticks, total, float64(opts.ticks)/total.Seconds())
	}

	if opts.csvPath != "" {
		return writeCSV(opts.csvPath, engine.Len(), durations)
	}
	return nil
}

// writeCSV records one row per tick: tick, agents, microseconds
func writeCSV(path string, agents int, durations []time.Duration) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "agents", "micros"}); err != nil {
		return errors.Wrap(err, "write csv")
	}
	for i, d := range durations {
		row := []string{strconv.Itoa(i + 1), strconv.Itoa(agents), fmt.Sprint(d.Microseconds())}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write csv")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush csv")
}
