package swarm

import (
	"flag"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"negative population", func(c *Config) { c.Population = -1 }, ErrPopulation},
		{"zero width", func(c *Config) { c.Width = 0 }, ErrWorld},
		{"infinite height", func(c *Config) { c.Height = math.Inf(1) }, ErrWorld},
		{"negative cell", func(c *Config) { c.CellWidth = -1 }, ErrCellSize},
		{"zero cell", func(c *Config) { c.CellHeight = 0 }, ErrCellSize},
		{"microscopic cell", func(c *Config) { c.CellWidth, c.CellHeight = 1e-6, 1e-6 }, ErrCellSize},
		{"infinite gravity", func(c *Config) { c.GravityStrength = math.Inf(1) }, ErrParam},
		{"nan spring", func(c *Config) { c.Spring = math.NaN() }, ErrParam},
		{"infinite repulsion", func(c *Config) { c.Repulsion = math.Inf(-1) }, ErrParam},
		{"negative epsilon", func(c *Config) { c.Epsilon = -1 }, ErrParam},
		{"negative min dist", func(c *Config) { c.MinDist = -0.5 }, ErrParam},
		{"negative collision radius", func(c *Config) { c.CollisionRadius = -2 }, ErrParam},
		{"infinite weirdness", func(c *Config) { c.Weirdness = math.Inf(1) }, ErrParam},
		{"nan pos weight", func(c *Config) { c.PosWeight = math.NaN() }, ErrParam},
		{"negative species", func(c *Config) { c.Species = -2 }, ErrSpecies},
		{"negative top k", func(c *Config) { c.TopK = -1 }, ErrParam},
		{"negative workers", func(c *Config) { c.Workers = -1 }, ErrParam},
		{"unknown accel", func(c *Config) { c.Accel = "sideways" }, ErrParam},
		{"unknown model", func(c *Config) { c.Model = "boids" }, ErrParam},
		{"unknown seeding", func(c *Config) { c.Seeding = "stripes" }, ErrParam},
		{"drag above one", func(c *Config) { c.Drag = 1.5 }, ErrParam},
		{"nan drag", func(c *Config) { c.Drag = math.NaN() }, ErrParam},
		{"zero view range", func(c *Config) { c.ViewRange = 0 }, ErrParam},
		{"negative max acc", func(c *Config) { c.MaxAcc = -1 }, ErrParam},
		{"negative taper", func(c *Config) { c.TaperPower = -1 }, ErrParam},
		{"taper below one", func(c *Config) { c.TaperPower = 0 }, ErrParam},
		{"noise without scale", func(c *Config) { c.Seeding, c.NoiseScale = SeedNoise, 0 }, ErrParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "swarm.json", `{"population": 10, "model": "linear", "top_k": 4}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Population != 10 || cfg.Model != ModelLinear || cfg.TopK != 4 {
		t.Errorf("Expected overrides applied, got %+v", cfg)
	}
	if cfg.Width != DefaultConfig().Width {
		t.Errorf("Expected unset fields to keep defaults, got width %v", cfg.Width)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(writeFile(t, "typo.json", `{"populaton": 10}`)); err == nil {
		t.Error("Expected unknown key to be rejected")
	}
	if _, err := LoadConfig(writeFile(t, "bad.json", `{"width": -1}`)); !errors.Is(err, ErrWorld) {
		t.Errorf("Expected ErrWorld, got %v", err)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestConfigArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"-n", "10"}, ""},
		{[]string{"-config", "a.json"}, "a.json"},
		{[]string{"--config", "b.json", "-n", "3"}, "b.json"},
		{[]string{"-n", "3", "-config=c.json"}, "c.json"},
		{[]string{"--config=d.json"}, "d.json"},
		{[]string{"-config"}, ""},
		{[]string{"--", "-config", "e.json"}, ""},
		{[]string{"config", "f.json"}, ""},
	}
	for _, tt := range tests {
		if got := ConfigArg(tt.args); got != tt.want {
			t.Errorf("ConfigArg(%q): expected %q, got %q", tt.args, tt.want, got)
		}
	}
}

func TestRegisterFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	err := fs.Parse([]string{"-n", "42", "-model", "flock", "-accel", "flat", "-limit", "-seed", "9", "-cell-w", "12.5"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Population != 42 || cfg.Model != ModelFlock || cfg.Accel != AccelFlat {
		t.Errorf("Expected flags applied, got %+v", cfg)
	}
	if !cfg.LimitVelocity || cfg.Seed != 9 || cfg.CellWidth != 12.5 {
		t.Errorf("Expected limit, seed and cell width applied, got %+v", cfg)
	}
	if cfg.Drag != DefaultConfig().Drag {
		t.Errorf("Expected untouched flags to keep defaults, got drag %v", cfg.Drag)
	}
}
