package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"

	"github.com/olivierh59500/torus-swarm/logging"
	"github.com/olivierh59500/torus-swarm/swarm"
)

func main() {
	cfg := swarm.DefaultConfig()

	// -config is read before the other flags so they override the file
	if path := swarm.ConfigArg(os.Args[1:]); path != "" {
		loaded, err := swarm.LoadConfig(path)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}

	fs := flag.NewFlagSet("torus-swarm", flag.ExitOnError)
	fs.String("config", "", "JSON configuration file")
	matrixPath := fs.String("matrix", "matrix.json", "affinity matrix file (S saves, L loads; read at start when present)")
	debug := fs.Bool("debug", false, "write logs to logs/torus-swarm.log")
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	if f := logging.Setup("torus-swarm", *debug); f != nil {
		defer f.Close()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	aff, err := swarm.LoadAffinity(*matrixPath)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			log.Printf("matrix: %v", err)
		}
		aff = swarm.RandomAffinity(cfg.Species, rng)
	}

	engine, err := swarm.New(cfg, aff, rng)
	if errors.Is(err, swarm.ErrSpecies) {
		log.Printf("ignoring %s: %v", *matrixPath, err)
		engine, err = swarm.New(cfg, swarm.RandomAffinity(cfg.Species, rng), rng)
	}
	if err != nil {
		fatal(err)
	}
	sim := NewSimulation(engine, rng, *matrixPath)

	// Set up Ebitengine game
	ebiten.SetWindowSize(int(cfg.Width), int(cfg.Height))
	ebiten.SetWindowTitle("Torus Swarm")
	ebiten.SetTPS(60) // Target 60 ticks per second

	// Run the game loop
	if err := ebiten.RunGame(sim); err != nil {
		fatal(err)
	}
}

// fatal reports on stderr since the logger may be discarding output
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "torus-swarm: %v\n", err)
	os.Exit(1)
}
