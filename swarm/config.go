package swarm

import (
	"bytes"
	"encoding/json"
	"flag"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// AccelMode selects how a model's summed force is scaled by MaxAcc
type AccelMode string

const (
	// AccelFlat adds force * MaxAcc
	AccelFlat AccelMode = "flat"
	// AccelPerNeighbor adds force * MaxAcc / contributors
	AccelPerNeighbor AccelMode = "per-neighbor"
)

// Species seeding strategies
const (
	SeedUniform = "uniform"
	SeedNoise   = "noise"
)

// Config holds everything needed to create an Engine. Zero-valued optional
// fields fall back to sensible values inside New; DefaultConfig fills all of them.
type Config struct {
	Population int     `json:"population"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`

	// Grid resolution, snapped so whole cells tile the world
	CellWidth  float64 `json:"cell_width"`
	CellHeight float64 `json:"cell_height"`

	// Species is the expected affinity matrix size; zero accepts any.
	Species int `json:"species"`

	Model         string    `json:"model"`
	TopK          int       `json:"top_k"`
	Accel         AccelMode `json:"accel"`
	LimitVelocity bool      `json:"limit_velocity"`

	// Per-agent defaults
	ViewRange float64 `json:"view_range"`
	MaxAcc    float64 `json:"max_acc"`
	Drag      float64 `json:"drag"`
	PosWeight float64 `json:"pos_weight"`
	VelWeight float64 `json:"vel_weight"`
	Weirdness float64 `json:"weirdness"`

	// Affinity and linear model shaping
	Cutoff            float64 `json:"cutoff"`
	Separation        float64 `json:"separation"`
	Spring            float64 `json:"spring"`
	Repulsion         float64 `json:"repulsion"`
	Epsilon           float64 `json:"epsilon"`
	TaperPower        int     `json:"taper_power"`
	MinDist           float64 `json:"min_dist"`
	CollisionRadius   float64 `json:"collision_radius"`
	CollisionStrength float64 `json:"collision_strength"`

	// Pull of gravity wells, overridable per tick
	GravityStrength float64 `json:"gravity_strength"`

	// Workers is the tick fan-out; zero uses GOMAXPROCS
	Workers int `json:"workers"`

	Seeding    string  `json:"seeding"`
	NoiseScale float64 `json:"noise_scale"`
	Seed       int64   `json:"seed"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() Config {
	return Config{
		Population: 6000,
		Width:      800,
		Height:     600,
		Species:    6,

		CellWidth:  24,
		CellHeight: 24,

		Model: ModelAffinity,
		TopK:  0,
		Accel: AccelPerNeighbor,

		ViewRange: 24,
		MaxAcc:    1,
		Drag:      0.05,
		PosWeight: -0.1,
		VelWeight: 1,
		Weirdness: 1,

		Separation:        8,
		Spring:            0.05,
		Repulsion:         2,
		Epsilon:           1e-3,
		TaperPower:        2,
		MinDist:           1e-3,
		CollisionRadius:   5,
		CollisionStrength: 2,

		GravityStrength: 1,

		Seeding:    SeedUniform,
		NoiseScale: 200,
		Seed:       1,
	}
}

// LoadConfig reads a JSON file over DefaultConfig. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, cfg.Validate()
}

// ConfigArg returns the value of a -config flag in args without parsing
// anything else, so a file can be loaded before flags override it
func ConfigArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name := strings.TrimPrefix(strings.TrimPrefix(a, "-"), "-")
		if name == a {
			continue
		}
		if name == "config" {
			if i+1 < len(args) {
				return args[i+1]
			}
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
	}
	return ""
}

// RegisterFlags binds the commonly tuned fields to fs, using the current
// values as defaults
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Population, "n", c.Population, "number of agents")
	fs.Float64Var(&c.Width, "width", c.Width, "world width")
	fs.Float64Var(&c.Height, "height", c.Height, "world height")
	fs.Float64Var(&c.CellWidth, "cell-w", c.CellWidth, "grid cell width")
	fs.Float64Var(&c.CellHeight, "cell-h", c.CellHeight, "grid cell height")
	fs.IntVar(&c.Species, "species", c.Species, "number of species buckets")
	fs.StringVar(&c.Model, "model", c.Model, "force model: affinity, linear, flock")
	fs.IntVar(&c.TopK, "k", c.TopK, "nearest neighbours considered per agent (0 = all)")
	fs.StringVar((*string)(&c.Accel), "accel", string(c.Accel), "acceleration scaling: flat, per-neighbor")
	fs.BoolVar(&c.LimitVelocity, "limit", c.LimitVelocity, "clamp velocity to max acceleration")
	fs.Float64Var(&c.ViewRange, "view", c.ViewRange, "agent view range")
	fs.Float64Var(&c.MaxAcc, "max-acc", c.MaxAcc, "agent max acceleration")
	fs.Float64Var(&c.Drag, "drag", c.Drag, "velocity drag per tick [0,1]")
	fs.Float64Var(&c.GravityStrength, "gravity", c.GravityStrength, "gravity well strength")
	fs.IntVar(&c.Workers, "workers", c.Workers, "tick workers (0 = GOMAXPROCS)")
	fs.StringVar(&c.Seeding, "seeding", c.Seeding, "species seeding: uniform, noise")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "random seed")
}

// Validate reports the first configuration error found
func (c *Config) Validate() error {
	if c.Population < 0 {
		return errors.Wrapf(ErrPopulation, "%d agents", c.Population)
	}
	if !finitePositive(c.Width) || !finitePositive(c.Height) {
		return errors.Wrapf(ErrWorld, "%gx%g", c.Width, c.Height)
	}
	if !finitePositive(c.CellWidth) || !finitePositive(c.CellHeight) {
		return errors.Wrapf(ErrCellSize, "%gx%g", c.CellWidth, c.CellHeight)
	}
	if _, _, err := gridDims(c.CellWidth, c.CellHeight, c.Width, c.Height); err != nil {
		return err
	}
	if c.Species < 0 {
		return errors.Wrapf(ErrSpecies, "%d species", c.Species)
	}
	if c.TopK < 0 {
		return errors.Wrapf(ErrParam, "top_k %d", c.TopK)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrParam, "workers %d", c.Workers)
	}
	switch c.Accel {
	case AccelFlat, AccelPerNeighbor, "":
	default:
		return errors.Wrapf(ErrParam, "accel %q", c.Accel)
	}
	switch c.Model {
	case ModelAffinity, ModelLinear, ModelFlock, "":
	default:
		return errors.Wrapf(ErrParam, "model %q", c.Model)
	}
	switch c.Seeding {
	case SeedUniform, SeedNoise, "":
	default:
		return errors.Wrapf(ErrParam, "seeding %q", c.Seeding)
	}
	if !(c.Drag >= 0 && c.Drag <= 1) {
		return errors.Wrapf(ErrParam, "drag %g outside [0,1]", c.Drag)
	}
	if !finitePositive(c.ViewRange) {
		return errors.Wrapf(ErrParam, "view_range %g", c.ViewRange)
	}
	if !finiteNonNegative(c.MaxAcc) {
		return errors.Wrapf(ErrParam, "max_acc %g", c.MaxAcc)
	}
	if !finiteNonNegative(c.Cutoff) {
		return errors.Wrapf(ErrParam, "cutoff %g", c.Cutoff)
	}
	if c.TaperPower < 1 {
		return errors.Wrapf(ErrParam, "taper_power %d", c.TaperPower)
	}
	if c.Seeding == SeedNoise && !finitePositive(c.NoiseScale) {
		return errors.Wrapf(ErrParam, "noise_scale %g", c.NoiseScale)
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"epsilon", c.Epsilon},
		{"min_dist", c.MinDist},
		{"collision_radius", c.CollisionRadius},
		{"separation", c.Separation},
	}
	for _, f := range nonNegative {
		if !finiteNonNegative(f.v) {
			return errors.Wrapf(ErrParam, "%s %g", f.name, f.v)
		}
	}

	// signed, but a non-finite value turns every position NaN within a tick
	finite := []struct {
		name string
		v    float64
	}{
		{"spring", c.Spring},
		{"repulsion", c.Repulsion},
		{"collision_strength", c.CollisionStrength},
		{"pos_weight", c.PosWeight},
		{"vel_weight", c.VelWeight},
		{"weirdness", c.Weirdness},
		{"gravity_strength", c.GravityStrength},
		{"noise_scale", c.NoiseScale},
	}
	for _, f := range finite {
		if !isFinite(f.v) {
			return errors.Wrapf(ErrParam, "%s %g", f.name, f.v)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
