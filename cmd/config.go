package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qftphys/fk-mc/fkmc"
)

// loadParams reads a YAML parameter file into fkmc.Params, starting from
// DefaultParams so an omitted field keeps its default — the same layered
// config idiom the teacher applies to its own YAML-backed config structs.
func loadParams(path string) (fkmc.Params, error) {
	params := fkmc.DefaultParams()
	if path == "" {
		return params, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("loadParams: %w: %v", fkmc.ErrIOFailure, err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("loadParams: %w: %v", fkmc.ErrInvalidConfig, err)
	}
	return params, nil
}

// buildLattice constructs the lattice adapter named by latticeKind, sized
// per params.L (§6 "Lattice adapter").
func buildLattice(latticeKind string, dims []int, t float64) (fkmc.Lattice, error) {
	switch latticeKind {
	case "", "hypercubic":
		return fkmc.NewHypercubicLattice(dims, t), nil
	case "triangular":
		if len(dims) != 2 {
			return nil, fmt.Errorf("buildLattice: %w: triangular lattice requires 2 dims", fkmc.ErrInvalidConfig)
		}
		return fkmc.NewTriangularLattice(dims[0], dims[1], t), nil
	default:
		return nil, fmt.Errorf("buildLattice: %w: unknown lattice kind %q", fkmc.ErrInvalidConfig, latticeKind)
	}
}
