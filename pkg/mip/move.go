package mip

// MoveSense tags the neighborhood a move came from.
type MoveSense int

const (
	MoveSenseBinary MoveSense = iota
	MoveSenseInteger
	MoveSenseSelection
	MoveSenseAggregation
	MoveSensePrecedence
	MoveSenseVariableBound
	MoveSenseExclusive
	MoveSenseChain
	MoveSenseUserDefined
)

// String returns the neighborhood name of the sense.
func (s MoveSense) String() string {
	switch s {
	case MoveSenseBinary:
		return "Binary"
	case MoveSenseInteger:
		return "Integer"
	case MoveSenseSelection:
		return "Selection"
	case MoveSenseAggregation:
		return "Aggregation"
	case MoveSensePrecedence:
		return "Precedence"
	case MoveSenseVariableBound:
		return "VariableBound"
	case MoveSenseExclusive:
		return "Exclusive"
	case MoveSenseChain:
		return "Chain"
	case MoveSenseUserDefined:
		return "UserDefined"
	default:
		return "Unknown"
	}
}

// Alteration is one (variable, new value) pair of a move.
type Alteration struct {
	Variable *Variable
	Value    int64
}

// Move is a candidate perturbation: an ordered list of alterations plus an
// optional precomputed set of constraints whose values the move can change.
// When RelatedConstraints is nil, the evaluation kernel derives the touched
// set from the altered variables' related-constraint indices.
type Move struct {
	Sense              MoveSense
	Alterations        []Alteration
	RelatedConstraints []*Constraint
}

// HasAlteration reports whether the move alters v.
func (m *Move) HasAlteration(v *Variable) bool {
	for i := range m.Alterations {
		if m.Alterations[i].Variable == v {
			return true
		}
	}
	return false
}

// Inverse returns a move that restores the current values of all altered
// variables. It must be built before the move is applied.
func (m *Move) Inverse() Move {
	inv := Move{Sense: m.Sense, RelatedConstraints: m.RelatedConstraints}
	inv.Alterations = make([]Alteration, len(m.Alterations))
	for i, alt := range m.Alterations {
		inv.Alterations[i] = Alteration{Variable: alt.Variable, Value: alt.Variable.value}
	}
	return inv
}
