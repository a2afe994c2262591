package swarm

import "github.com/pkg/errors"

// Configuration errors. They are returned wrapped with context, test with errors.Is.
var (
	ErrWorld      = errors.New("invalid world size")
	ErrCellSize   = errors.New("invalid cell size")
	ErrPopulation = errors.New("invalid population")
	ErrAffinity   = errors.New("invalid affinity matrix")
	ErrSpecies    = errors.New("species count does not match affinity matrix")
	ErrParam      = errors.New("invalid parameter")
	ErrAgentID    = errors.New("agent id out of range")
)
