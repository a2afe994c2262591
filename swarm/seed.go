package swarm

import (
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Perlin parameters for the species field
const (
	noiseAlpha  = 2.0
	noiseBeta   = 2.0
	noiseOctave = 3
	// hue laps covered by the noise range, so every bucket shows up
	noiseLaps = 2.0
)

// speciesFunc picks a species hue for an agent placed at p
type speciesFunc func(p Vec2) float64

func newSpeciesFunc(cfg Config, rng *rand.Rand) speciesFunc {
	if cfg.Seeding != SeedNoise {
		return func(Vec2) float64 {
			return wrapCoord(rng.Float64()*HueRange, HueRange)
		}
	}
	field := perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, rng.Int63())
	scale := cfg.NoiseScale
	return func(p Vec2) float64 {
		v := field.Noise2D(p.X/scale, p.Y/scale)
		return wrapCoord(v*noiseLaps*HueRange, HueRange)
	}
}

// seedAgents places cfg.Population agents uniformly at rest with species
// drawn according to cfg.Seeding
func seedAgents(cfg Config, rng *rand.Rand) []Agent {
	species := newSpeciesFunc(cfg, rng)
	agents := make([]Agent, cfg.Population)
	for i := range agents {
		pos := Wrap(V(rng.Float64()*cfg.Width, rng.Float64()*cfg.Height), cfg.Width, cfg.Height)
		agents[i] = Agent{
			ID:        i,
			Pos:       pos,
			Species:   species(pos),
			ViewRange: cfg.ViewRange,
			MaxAcc:    cfg.MaxAcc,
			Drag:      cfg.Drag,
			PosWeight: cfg.PosWeight,
			VelWeight: cfg.VelWeight,
			Weirdness: cfg.Weirdness,
		}
	}
	return agents
}
