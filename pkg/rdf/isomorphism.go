package rdf

import (
	"sort"
)

// AreGraphsIsomorphic checks if two sets of triples are isomorphic,
// accounting for blank node label differences.
// Two graphs are isomorphic if there exists a bijection between their
// blank nodes such that when applied, the graphs are identical.
// Duplicate triples are ignored on both sides.
func AreGraphsIsomorphic(expected, actual []*Triple) bool {
	expected = dedupe(expected)
	actual = dedupe(actual)
	if len(expected) != len(actual) {
		return false
	}

	expectedBlanks := blankNodeLabels(expected)
	actualBlanks := blankNodeLabels(actual)
	if len(expectedBlanks) != len(actualBlanks) {
		return false
	}

	if len(expectedBlanks) == 0 {
		return verifyMapping(expected, actual, nil)
	}

	// match high-degree nodes first
	expectedBlanks = sortByDegree(expectedBlanks, expected)
	actualBlanks = sortByDegree(actualBlanks, actual)

	actualKeys := make(map[string]bool, len(actual))
	for _, triple := range actual {
		actualKeys[tripleKey(triple, nil)] = true
	}

	mapping := make(map[string]string)
	usedTargets := make(map[string]bool)
	return backtrack(expected, actual, actualKeys, expectedBlanks, actualBlanks, mapping, usedTargets, 0)
}

func dedupe(triples []*Triple) []*Triple {
	seen := make(map[string]bool, len(triples))
	out := make([]*Triple, 0, len(triples))
	for _, triple := range triples {
		key := tripleKey(triple, nil)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, triple)
	}
	return out
}

// blankNodeLabels returns the sorted unique blank node labels of a graph
func blankNodeLabels(triples []*Triple) []string {
	blanks := make(map[string]bool)
	for _, triple := range triples {
		if b, ok := triple.Subject.(*BlankNode); ok {
			blanks[b.ID] = true
		}
		if b, ok := triple.Object.(*BlankNode); ok {
			blanks[b.ID] = true
		}
	}

	result := make([]string, 0, len(blanks))
	for label := range blanks {
		result = append(result, label)
	}
	sort.Strings(result)
	return result
}

// sortByDegree sorts blank nodes by the number of triples they appear in, descending
func sortByDegree(blanks []string, triples []*Triple) []string {
	degrees := make(map[string]int, len(blanks))
	for _, triple := range triples {
		if b, ok := triple.Subject.(*BlankNode); ok {
			degrees[b.ID]++
		}
		if b, ok := triple.Object.(*BlankNode); ok {
			degrees[b.ID]++
		}
	}

	sort.SliceStable(blanks, func(i, j int) bool {
		return degrees[blanks[i]] > degrees[blanks[j]]
	})
	return blanks
}

// backtrack recursively tries to find a valid mapping between blank nodes
func backtrack(expected, actual []*Triple, actualKeys map[string]bool, expectedBlanks, actualBlanks []string,
	mapping map[string]string, usedTargets map[string]bool, index int) bool {

	if index == len(expectedBlanks) {
		return verifyMapping(expected, actual, mapping)
	}

	current := expectedBlanks[index]
	for _, candidate := range actualBlanks {
		if usedTargets[candidate] {
			continue
		}

		mapping[current] = candidate
		usedTargets[candidate] = true

		if isConsistentSoFar(expected, actualKeys, mapping) &&
			backtrack(expected, actual, actualKeys, expectedBlanks, actualBlanks, mapping, usedTargets, index+1) {
			return true
		}

		delete(mapping, current)
		delete(usedTargets, candidate)
	}

	return false
}

func isMapped(term Term, mapping map[string]string) bool {
	b, ok := term.(*BlankNode)
	if !ok {
		return true
	}
	_, exists := mapping[b.ID]
	return exists
}

// isConsistentSoFar prunes mappings under which a fully mapped expected
// triple has no counterpart in actual
func isConsistentSoFar(expected []*Triple, actualKeys map[string]bool, mapping map[string]string) bool {
	for _, triple := range expected {
		if isMapped(triple.Subject, mapping) && isMapped(triple.Object, mapping) {
			if !actualKeys[tripleKey(triple, mapping)] {
				return false
			}
		}
	}
	return true
}

// verifyMapping checks if the given mapping makes the graphs identical
func verifyMapping(expected, actual []*Triple, mapping map[string]string) bool {
	expectedMapped := make(map[string]bool, len(expected))
	for _, triple := range expected {
		expectedMapped[tripleKey(triple, mapping)] = true
	}

	actualSet := make(map[string]bool, len(actual))
	for _, triple := range actual {
		actualSet[tripleKey(triple, nil)] = true
	}

	if len(expectedMapped) != len(actualSet) {
		return false
	}
	for key := range expectedMapped {
		if !actualSet[key] {
			return false
		}
	}
	return true
}

// tripleKey creates a string key for a triple, applying blank node mapping if provided
func tripleKey(triple *Triple, mapping map[string]string) string {
	return termString(triple.Subject, mapping) + "|" +
		termString(triple.Predicate, mapping) + "|" +
		termString(triple.Object, mapping)
}

func termString(term Term, mapping map[string]string) string {
	if b, ok := term.(*BlankNode); ok && mapping != nil {
		if mapped, exists := mapping[b.ID]; exists {
			return "_:" + mapped
		}
	}
	if l, ok := term.(*Literal); ok {
		// language tags compare case-insensitively
		return serializeLiteralCanonical(l)
	}
	return term.String()
}
