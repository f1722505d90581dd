package rules

import (
	"errors"
	"fmt"
)

// ErrConfigNotFound is returned for unknown programs, categories, or
// keys. Callers must treat it as fatal for that program; rules are
// never silently defaulted.
var ErrConfigNotFound = errors.New("rule configuration not found")

// Catalog is an immutable set of rule sets keyed by program ID.
type Catalog struct {
	programs map[string]*RuleSet
}

// NewCatalog builds a catalog from the given rule sets.
func NewCatalog(sets ...*RuleSet) *Catalog {
	programs := make(map[string]*RuleSet, len(sets))
	for _, rs := range sets {
		programs[rs.Program] = rs
	}
	return &Catalog{programs: programs}
}

// Rules returns the rule set for a program.
func (c *Catalog) Rules(program string) (*RuleSet, error) {
	rs, ok := c.programs[program]
	if !ok {
		return nil, fmt.Errorf("program %q: %w", program, ErrConfigNotFound)
	}
	return rs, nil
}

// Programs lists the configured program IDs.
func (c *Catalog) Programs() []string {
	out := make([]string, 0, len(c.programs))
	for p := range c.programs {
		out = append(out, p)
	}
	return out
}

// Lookup resolves a single rule value by category and key, e.g.
// Lookup("geico_arx", "labor_rates", "body"). It exists for callers
// that address rules dynamically; typed access through Rules is
// preferred inside the pipeline.
func (c *Catalog) Lookup(program, category, key string) (any, error) {
	rs, err := c.Rules(program)
	if err != nil {
		return nil, err
	}

	switch category {
	case "labor_rates":
		v, ok := rs.LaborRates[key]
		if !ok {
			return nil, fmt.Errorf("program %q labor rate category %q: %w", program, key, ErrConfigNotFound)
		}
		return v, nil
	case "included_operations":
		v, ok := rs.IncludedOperations[key]
		if !ok {
			return nil, fmt.Errorf("program %q included operations for %q: %w", program, key, ErrConfigNotFound)
		}
		return v, nil
	case "weld_specs":
		v, ok := rs.Welds.Specs[key]
		if !ok {
			return nil, fmt.Errorf("program %q weld spec %q: %w", program, key, ErrConfigNotFound)
		}
		return v, nil
	case "color_thresholds":
		v, ok := rs.Color.MatchThresholds[key]
		if !ok {
			return nil, fmt.Errorf("program %q color threshold %q: %w", program, key, ErrConfigNotFound)
		}
		return v, nil
	case "safety":
		v, ok := rs.Safety.Systems[key]
		if !ok {
			return nil, fmt.Errorf("program %q safety spec %q: %w", program, key, ErrConfigNotFound)
		}
		return v, nil
	case "corrosion":
		v, ok := rs.Corrosion.Required[key]
		if !ok {
			return nil, fmt.Errorf("program %q corrosion requirement %q: %w", program, key, ErrConfigNotFound)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("program %q category %q: %w", program, category, ErrConfigNotFound)
	}
}
