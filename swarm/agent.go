package swarm

// Agent is one point in the swarm. ID is its index in the engine's agent
// slice and never changes; spatial queries hand back IDs.
type Agent struct {
	ID  int
	Pos Vec2
	Vel Vec2

	// Species is a hue in [0, 360); the affinity matrix buckets it.
	Species float64

	// Force shaping
	ViewRange float64
	MaxAcc    float64
	Drag      float64
	PosWeight float64
	VelWeight float64
	Weirdness float64

	// Filled at the end of each tick for renderers; never read by the force models.
	Speed     float64
	Neighbors int
}

// Bucket returns the agent's species bucket in a
func (ag *Agent) Bucket(a *Affinity) int {
	return a.Bucket(ag.Species)
}

// Neighbor is another agent as seen from the agent being updated
type Neighbor struct {
	ID int

	// Pos is the neighbour's position re-projected to its nearest wrapped image,
	// Offset is Pos minus the observer's position.
	Pos    Vec2
	Offset Vec2
	DistSq float64

	// Agent points into the tick snapshot and must not be modified
	Agent *Agent
}
