// Package swarm simulates agents on a wrapping 2D world. Each tick rebuilds a
// uniform grid over the previous positions, updates every agent in parallel
// from that snapshot, and wraps the results back into the world.
package swarm
