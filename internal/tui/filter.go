package tui

import (
	"sort"
	"strings"

	"github.com/tdstark/SodaOperator/internal/engine"
)

// filterState holds current active filters.
type filterState struct {
	Outcome    string
	SearchText string
}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortByOutcome sortField = iota
	sortByTable
	sortByName
)

// sortFieldCount is the total number of sortable columns.
const sortFieldCount = 3

var outcomePriority = map[string]int{
	engine.OutcomeFail: 0, engine.OutcomeWarn: 1, engine.OutcomePass: 2,
}

// applyFilters returns checks matching all active filters.
func applyFilters(checks []engine.Check, f filterState) []engine.Check {
	result := make([]engine.Check, 0, len(checks))
	searchLower := strings.ToLower(f.SearchText)

	for _, check := range checks {
		if f.Outcome != "" && check.Outcome != f.Outcome {
			continue
		}
		if searchLower != "" && !matchesSearch(check, searchLower) {
			continue
		}
		result = append(result, check)
	}
	return result
}

func matchesSearch(check engine.Check, searchLower string) bool {
	return strings.Contains(strings.ToLower(check.Name), searchLower) ||
		strings.Contains(strings.ToLower(check.Table), searchLower) ||
		strings.Contains(strings.ToLower(check.Column), searchLower) ||
		strings.Contains(strings.ToLower(check.Definition), searchLower) ||
		strings.Contains(strings.ToLower(check.Outcome), searchLower)
}

// sortChecks sorts a slice of checks in place by the given field.
func sortChecks(checks []engine.Check, field sortField) {
	sort.SliceStable(checks, func(i, j int) bool {
		switch field {
		case sortByOutcome:
			return outcomePriority[checks[i].Outcome] < outcomePriority[checks[j].Outcome]
		case sortByTable:
			return checks[i].Table < checks[j].Table
		case sortByName:
			return checks[i].Name < checks[j].Name
		default:
			return false
		}
	})
}

// uniqueOutcomes returns the outcomes present in the checks, worst first.
func uniqueOutcomes(checks []engine.Check) []string {
	seen := make(map[string]bool)
	for _, check := range checks {
		seen[check.Outcome] = true
	}

	var outcomes []string
	for _, outcome := range []string{engine.OutcomeFail, engine.OutcomeWarn, engine.OutcomePass} {
		if seen[outcome] {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortByOutcome:
		return "outcome"
	case sortByTable:
		return "table"
	case sortByName:
		return "name"
	default:
		return "unknown"
	}
}
