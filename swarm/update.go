package swarm

// tickContext is the frozen view every agent update of one tick reads from.
// Nothing in it is written while workers run.
type tickContext struct {
	env   Env
	grid  *Grid
	prev  []Agent
	model ForceModel

	gravity         []Vec2
	gravityStrength float64

	topK  int
	accel AccelMode
	limit bool
}

// gravitySoftening keeps the pull of a well finite at its centre
const gravitySoftening = 100.0

func (tc *tickContext) updateRange(out []Agent, lo, hi int, sc *scratch) {
	for i := lo; i < hi; i++ {
		out[i] = tc.update(i, sc)
	}
}

// update computes agent i's next state from the snapshot alone
func (tc *tickContext) update(i int, sc *scratch) Agent {
	ag := tc.prev[i]
	w, h := tc.env.Width, tc.env.Height

	// neighbourhood, re-projected across the seam
	r := tc.model.Range(&ag)
	r2 := r * r
	sc.ids = tc.grid.QueryInto(sc.ids[:0], ag.Pos, r)
	sc.near.reset(tc.topK)
	for _, id := range sc.ids {
		if id == i {
			continue
		}
		other := &tc.prev[id]
		pos := ag.Pos.Rel(other.Pos, w, h)
		off := pos.Sub(ag.Pos)
		d2 := off.MagSq()
		if d2 > r2 {
			continue
		}
		sc.near.offer(Neighbor{ID: id, Pos: pos, Offset: off, DistSq: d2, Agent: other})
	}
	near := sc.near.list()

	delta, contributors := tc.model.Force(&ag, near, &tc.env)
	if !delta.IsZero() {
		scale := ag.MaxAcc
		if tc.accel == AccelPerNeighbor && contributors > 0 {
			scale /= float64(contributors)
		}
		ag.Vel = ag.Vel.Add(delta.Scale(scale))
		if tc.limit {
			ag.Vel = ag.Vel.Limit(ag.MaxAcc)
		}
	}

	ag.Pos = ag.Pos.Add(ag.Vel)
	ag.Vel = ag.Vel.Scale(1 - ag.Drag)

	for _, g := range tc.gravity {
		d := g.Sub(ag.Pos)
		ag.Vel = ag.Vel.Add(d.Scale(tc.gravityStrength / (gravitySoftening + d.MagSq())))
	}

	ag.Pos = Wrap(ag.Pos, w, h)

	ag.Speed = ag.Vel.Mag()
	ag.Neighbors = len(near)
	return ag
}
