package swarm

// HistoryLen is the number of ticks averaged by History
const HistoryLen = 40

// Stats summarises the population after a tick
type Stats struct {
	Tick          uint64
	Agents        int
	MaxSpeed      float64
	MeanSpeed     float64
	MaxNeighbors  int
	MeanNeighbors float64
}

func collectStats(tick uint64, agents []Agent) Stats {
	s := Stats{Tick: tick, Agents: len(agents)}
	if len(agents) == 0 {
		return s
	}
	var speed, neighbors float64
	for i := range agents {
		a := &agents[i]
		speed += a.Speed
		neighbors += float64(a.Neighbors)
		if a.Speed > s.MaxSpeed {
			s.MaxSpeed = a.Speed
		}
		if a.Neighbors > s.MaxNeighbors {
			s.MaxNeighbors = a.Neighbors
		}
	}
	n := float64(len(agents))
	s.MeanSpeed = speed / n
	s.MeanNeighbors = neighbors / n
	return s
}

// History keeps the most recent per-tick maxima so renderers can normalise
// colours without flicker
type History struct {
	speed     []float64
	neighbors []float64
	next      int
}

func (h *History) push(s Stats) {
	if len(h.speed) < HistoryLen {
		h.speed = append(h.speed, s.MaxSpeed)
		h.neighbors = append(h.neighbors, float64(s.MaxNeighbors))
		return
	}
	h.speed[h.next] = s.MaxSpeed
	h.neighbors[h.next] = float64(s.MaxNeighbors)
	h.next = (h.next + 1) % HistoryLen
}

// Len is the number of samples held
func (h *History) Len() int {
	return len(h.speed)
}

// AvgMaxSpeed averages the recorded maximum speeds; zero when empty
func (h *History) AvgMaxSpeed() float64 {
	return avg(h.speed)
}

// AvgMaxNeighbors averages the recorded maximum neighbour counts
func (h *History) AvgMaxNeighbors() float64 {
	return avg(h.neighbors)
}

func avg(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
