package solve

import (
	"fmt"
	"sort"
	"strings"
)

// Config carries the solver settings shared by all registered maximizers.
type Config struct {
	Restarts int
	GridSize int
	Seed     int64
	Parallel int
}

// Factory builds a maximizer from shared solver settings.
type Factory func(cfg Config) Maximizer

// maximizers maps normalized solver names to constructors. The registry is
// fixed at startup; lookups are case-insensitive.
var maximizers = map[string]Factory{
	"lbfgs": func(cfg Config) Maximizer {
		opts := []Option{WithSeed(cfg.Seed)}
		if cfg.Restarts > 0 {
			opts = append(opts, WithRestarts(cfg.Restarts))
		}
		if cfg.GridSize > 0 {
			opts = append(opts, WithGridSize(cfg.GridSize))
		}
		if cfg.Parallel > 0 {
			opts = append(opts, WithParallel(cfg.Parallel))
		}
		return NewRestart(opts...)
	},
	"mayfly": func(cfg Config) Maximizer {
		iters := cfg.GridSize / 10
		if iters < 1 {
			iters = 1000
		}
		return NewMayfly(iters, 30, cfg.Seed)
	},
}

// New resolves a solver name against the registry and builds the maximizer.
// Unknown names fail immediately with the list of known solvers.
func New(name string, cfg Config) (Maximizer, error) {
	factory, ok := maximizers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown solver %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(cfg), nil
}

// Names returns the registered solver names, sorted.
func Names() []string {
	names := make([]string, 0, len(maximizers))
	for name := range maximizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
