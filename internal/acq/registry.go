package acq

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a criterion from the shared parameter block.
type Factory func(p Params) Criterion

var criteria = map[string]Factory{
	"ei":       func(p Params) Criterion { return EI{Xi: p.Xi} },
	"pi":       func(p Params) Criterion { return PI{Xi: p.Xi} },
	"ucb":      func(p Params) Criterion { return UCB{Beta: p.Beta} },
	"thompson": func(p Params) Criterion { return Thompson{Seed: p.Seed} },
}

// New returns the named criterion. Names are case-insensitive.
func New(name string, p Params) (Criterion, error) {
	factory, ok := criteria[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown acquisition criterion %q (known: %s)",
			name, strings.Join(Names(), ", "))
	}
	return factory(p), nil
}

// Names returns the registered criterion names, sorted.
func Names() []string {
	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
