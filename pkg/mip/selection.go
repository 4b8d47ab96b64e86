package mip

import "sort"

// SelectionMode controls how selection groups are extracted from equality-1
// set-partitioning constraints at setup.
type SelectionMode int

const (
	// SelectionModeNone extracts no selections.
	SelectionModeNone SelectionMode = iota
	// SelectionModeDefined extracts only constraints built with
	// VariableProxy.Selection or marked with Relation.DefinedSelection.
	SelectionModeDefined
	// SelectionModeIndependent extracts set-partitioning constraints whose
	// variables appear in no other set-partitioning constraint.
	SelectionModeIndependent
	// SelectionModeLarger greedily extracts the largest set-partitioning
	// constraints first, skipping ones overlapping an extracted group.
	SelectionModeLarger
)

// String returns the mode name.
func (m SelectionMode) String() string {
	switch m {
	case SelectionModeNone:
		return "None"
	case SelectionModeDefined:
		return "Defined"
	case SelectionModeIndependent:
		return "Independent"
	case SelectionModeLarger:
		return "Larger"
	default:
		return "Unknown"
	}
}

// Selection is a maximal group of binary variables covered by an equality-1
// set-partitioning constraint, of which exactly one is selected. The covering
// constraint is disabled after extraction; the invariant is enforced
// structurally by selection swap moves.
type Selection struct {
	variables  []*Variable
	constraint *Constraint
	selected   *Variable
}

// Variables returns the group members.
func (s *Selection) Variables() []*Variable { return s.variables }

// Constraint returns the covering set-partitioning constraint.
func (s *Selection) Constraint() *Constraint { return s.constraint }

// Selected returns the member currently holding value 1.
func (s *Selection) Selected() *Variable { return s.selected }

// extractSelections builds selection groups per mode. Candidate constraints
// are enabled set-partitioning constraints; extracted groups are disjoint.
// Members become VariableSenseSelection and the covering constraint is
// disabled.
func (m *Model) extractSelections(mode SelectionMode) {
	if mode == SelectionModeNone {
		return
	}

	var candidates []*Constraint
	for _, c := range m.constraintsFlat {
		if !c.isEnabled || c.class != ClassSetPartitioning {
			continue
		}
		if mode == SelectionModeDefined && !c.isDefinedSelection {
			continue
		}
		candidates = append(candidates, c)
	}

	if mode == SelectionModeIndependent {
		// Count set-partitioning memberships per variable; a candidate
		// qualifies only when every member is covered once.
		memberships := map[*Variable]int{}
		for _, c := range candidates {
			for i := range c.expression.terms {
				memberships[c.expression.terms[i].variable]++
			}
		}
		qualified := candidates[:0]
		for _, c := range candidates {
			ok := true
			for i := range c.expression.terms {
				if memberships[c.expression.terms[i].variable] > 1 {
					ok = false
					break
				}
			}
			if ok {
				qualified = append(qualified, c)
			}
		}
		candidates = qualified
	}

	if mode == SelectionModeLarger {
		sort.SliceStable(candidates, func(i, j int) bool {
			return len(candidates[i].expression.terms) > len(candidates[j].expression.terms)
		})
	}

	covered := map[*Variable]bool{}
	for _, c := range candidates {
		overlap := false
		fixed := false
		for i := range c.expression.terms {
			v := c.expression.terms[i].variable
			if covered[v] {
				overlap = true
			}
			if v.isFixed {
				fixed = true
			}
		}
		if overlap || fixed {
			continue
		}

		selection := &Selection{constraint: c}
		for i := range c.expression.terms {
			v := c.expression.terms[i].variable
			covered[v] = true
			v.selection = selection
			v.sense = VariableSenseSelection
			selection.variables = append(selection.variables, v)
		}
		c.Disable()
		m.selections = append(m.selections, selection)
	}
}
