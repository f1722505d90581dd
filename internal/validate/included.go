package validate

import (
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkIncludedOperations flags sub-operations billed as separate line
// items while their parent operation is also on the estimate. The
// parent's published time already includes the sub-operation.
func checkIncludedOperations(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	byCode := make(map[string][]string)
	for _, op := range e.Operations {
		byCode[op.Code] = append(byCode[op.Code], op.ID)
	}

	parents := make([]string, 0, len(rs.IncludedOperations))
	for parent := range rs.IncludedOperations {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	var violations []Violation
	for _, parent := range parents {
		if len(byCode[parent]) == 0 {
			continue
		}
		for _, sub := range rs.IncludedOperations[parent] {
			for _, id := range byCode[sub] {
				violations = append(violations, Violation{
					Type:     TypeIncludedOperation,
					Severity: SeverityHigh,
					Message: fmt.Sprintf("operation %s (%s) is included in %s and must not be billed separately",
						id, sub, parent),
					Ref: id,
				})
			}
		}
	}
	return violations, nil
}
