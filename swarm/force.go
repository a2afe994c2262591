package swarm

import (
	"math"

	"github.com/pkg/errors"
)

// Env is the read-only context a force model sees during a tick
type Env struct {
	Width, Height float64
	Affinity      *Affinity
}

// ForceModel turns an agent's neighbourhood into a velocity change.
// Implementations are shared by every worker of a tick and must not keep
// per-call state.
type ForceModel interface {
	Name() string

	// Range is the neighbourhood radius used for the agent's grid query
	Range(self *Agent) float64

	// Force returns the summed, unscaled contribution of near and how many
	// neighbours contributed to it. The engine applies MaxAcc afterwards.
	Force(self *Agent, near []Neighbor, env *Env) (delta Vec2, contributors int)
}

// Model names accepted by ModelByName
const (
	ModelAffinity = "affinity"
	ModelLinear   = "linear"
	ModelFlock    = "flock"
)

// ModelByName builds the named force model from cfg
func ModelByName(name string, cfg Config) (ForceModel, error) {
	switch name {
	case ModelAffinity, "":
		return &AffinityModel{
			Cutoff:     cfg.Cutoff,
			Separation: cfg.Separation,
			Spring:     cfg.Spring,
			Repulsion:  cfg.Repulsion,
			Epsilon:    cfg.Epsilon,
			TaperPower: cfg.TaperPower,
			MinDist:    cfg.MinDist,
		}, nil
	case ModelLinear:
		return &LinearModel{
			Radius:            cfg.Cutoff,
			CollisionRadius:   cfg.CollisionRadius,
			CollisionStrength: cfg.CollisionStrength,
			MinDist:           cfg.MinDist,
		}, nil
	case ModelFlock:
		return &FlockModel{MinDist: cfg.MinDist}, nil
	}
	return nil, errors.Wrapf(ErrParam, "unknown force model %q", name)
}

// AffinityModel is the spring/exponential rule. Attractive pairs pull toward
// a preferred separation, repulsive pairs get a push that decays
// exponentially with distance. Both fade to zero at the cutoff.
type AffinityModel struct {
	Cutoff     float64 // 0 uses the agent's ViewRange
	Separation float64
	Spring     float64
	Repulsion  float64
	Epsilon    float64
	TaperPower int
	MinDist    float64
}

func (m *AffinityModel) Name() string { return ModelAffinity }

func (m *AffinityModel) Range(self *Agent) float64 {
	if m.Cutoff > 0 {
		return m.Cutoff
	}
	return self.ViewRange
}

func (m *AffinityModel) Force(self *Agent, near []Neighbor, env *Env) (Vec2, int) {
	cutoff := m.Range(self)
	if cutoff <= 0 {
		return Vec2{}, 0
	}
	aff := env.Affinity
	own := aff.Bucket(self.Species)

	var delta Vec2
	n := 0
	for i := range near {
		nb := &near[i]
		d := math.Sqrt(nb.DistSq)
		if d > cutoff || d < minDist(m.MinDist) {
			continue
		}
		f := aff.At(own, aff.Bucket(nb.Agent.Species))
		if f == 0 {
			continue
		}

		dir := nb.Offset.Scale(1 / d)
		t := taper(d/cutoff, m.TaperPower)
		var mag float64
		if f > 0 {
			mag = m.Spring * (d - m.Separation) * f * t
		} else {
			mag = m.Repulsion * f / (m.Epsilon + math.Exp(10*d/cutoff)) * t
		}
		delta = delta.Add(dir.Scale(mag))
		n++
	}
	return delta, n
}

// LinearModel is the classic particle-life rule: a soft collision push inside
// CollisionRadius plus an interaction that falls off linearly to zero at Radius.
type LinearModel struct {
	Radius            float64 // 0 uses the agent's ViewRange
	CollisionRadius   float64
	CollisionStrength float64
	MinDist           float64
}

func (m *LinearModel) Name() string { return ModelLinear }

func (m *LinearModel) Range(self *Agent) float64 {
	if m.Radius > 0 {
		return m.Radius
	}
	return self.ViewRange
}

func (m *LinearModel) Force(self *Agent, near []Neighbor, env *Env) (Vec2, int) {
	radius := m.Range(self)
	if radius <= 0 {
		return Vec2{}, 0
	}
	aff := env.Affinity
	own := aff.Bucket(self.Species)

	var delta Vec2
	n := 0
	for i := range near {
		nb := &near[i]
		r := math.Sqrt(nb.DistSq)
		if r < minDist(m.MinDist) || r >= radius {
			continue
		}
		toward := nb.Offset.Scale(1 / r)
		contributed := false

		if r < m.CollisionRadius {
			f := m.CollisionStrength * (m.CollisionRadius - r) / m.CollisionRadius
			delta = delta.Sub(toward.Scale(f))
			contributed = true
		}

		if a := aff.At(own, aff.Bucket(nb.Agent.Species)); a != 0 {
			delta = delta.Add(toward.Scale(a * (radius - r) / radius))
			contributed = true
		}
		if contributed {
			n++
		}
	}
	return delta, n
}

// FlockModel steers by velocity alignment and inverse-square cohesion,
// blended by the agent's VelWeight and PosWeight. A negative PosWeight turns
// cohesion into separation. Species are ignored.
type FlockModel struct {
	MinDist float64
}

func (m *FlockModel) Name() string { return ModelFlock }

func (m *FlockModel) Range(self *Agent) float64 {
	return self.ViewRange
}

func (m *FlockModel) Force(self *Agent, near []Neighbor, env *Env) (Vec2, int) {
	if len(near) == 0 || self.ViewRange <= 0 {
		return Vec2{}, 0
	}
	wsum := math.Abs(self.PosWeight) + math.Abs(self.VelWeight)
	if wsum == 0 {
		return Vec2{}, 0
	}

	var align, cohere Vec2
	for i := range near {
		nb := &near[i]
		d := math.Sqrt(nb.DistSq)
		closeness := 1 - d/self.ViewRange
		align = align.Add(nb.Agent.Vel.Sub(self.Vel).Scale(closeness))

		m2 := math.Max(d, math.Max(1, minDist(m.MinDist)))
		cohere = cohere.Add(nb.Offset.Scale(1 / (m2 * m2)))
	}
	count := float64(len(near))
	align = align.Div(count).Norm(1)
	cohere = cohere.Div(count).Norm(1)

	delta := align.Scale(self.VelWeight).
		Add(cohere.Scale(self.PosWeight)).
		Div(wsum).
		Scale(self.Weirdness * 0.1)
	return delta, len(near)
}

// taper is (1-x)^p for x in [0,1], clamped outside that range
func taper(x float64, p int) float64 {
	if x >= 1 {
		return 0
	}
	if x <= 0 {
		return 1
	}
	base := 1 - x
	t := 1.0
	for i := 0; i < p; i++ {
		t *= base
	}
	return t
}

const defaultMinDist = 1e-6

func minDist(v float64) float64 {
	if v > defaultMinDist {
		return v
	}
	return defaultMinDist
}
