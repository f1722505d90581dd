package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkStructural verifies sectioning locations against the OEM
// approved list and that sectioning at a location uses the weld types
// the location requires.
func checkStructural(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	weldsByLocation := make(map[string]map[string]bool)
	for _, op := range e.Operations {
		if op.Weld == nil || op.Location == "" {
			continue
		}
		if weldsByLocation[op.Location] == nil {
			weldsByLocation[op.Location] = make(map[string]bool)
		}
		weldsByLocation[op.Location][string(op.Weld.Type)] = true
	}

	for _, op := range e.Operations {
		if op.SectionLocation == "" {
			continue
		}
		if !rs.Structural.SectioningApproved(op.SectionLocation) {
			violations = append(violations, Violation{
				Type:     TypeStructural,
				Severity: SeverityCritical,
				Message: fmt.Sprintf("operation %s sections at %q, which is not an OEM approved sectioning location",
					op.ID, op.SectionLocation),
				Ref: op.ID,
			})
		}
	}

	locations := make([]string, 0, len(rs.Structural.RequiredWelds))
	for loc := range rs.Structural.RequiredWelds {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	for _, loc := range locations {
		present := weldsByLocation[loc]
		if present == nil {
			continue
		}
		var missing []string
		for _, wt := range rs.Structural.RequiredWelds[loc] {
			if !present[wt] {
				missing = append(missing, wt)
			}
		}
		if len(missing) > 0 {
			violations = append(violations, Violation{
				Type:     TypeStructural,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("structural repair at %s is missing required weld types: %s",
					loc, strings.Join(missing, ", ")),
				Ref: loc,
			})
		}
	}

	return violations, nil
}
