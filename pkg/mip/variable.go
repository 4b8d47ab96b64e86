package mip

import "fmt"

// VariableSense classifies a decision variable. Binary variables have bounds
// [0, 1]; selection variables are binaries covered by an extracted selection
// group; everything else is a general integer.
type VariableSense int

const (
	VariableSenseBinary VariableSense = iota
	VariableSenseInteger
	VariableSenseSelection
)

// String returns the class name.
func (s VariableSense) String() string {
	switch s {
	case VariableSenseBinary:
		return "Binary"
	case VariableSenseInteger:
		return "Integer"
	case VariableSenseSelection:
		return "Selection"
	default:
		return "Unknown"
	}
}

// relatedConstraint pairs a constraint the variable appears in with the
// variable's coefficient there. The slice on each variable is the
// variable-to-constraint direction of the sensitivity index built at setup.
type relatedConstraint struct {
	constraint  *Constraint
	coefficient float64
}

// relatedExpression is the analogous index entry for registered expressions,
// used to keep their caches current during ApplyMove.
type relatedExpression struct {
	expression  *Expression
	coefficient float64
}

// Variable is an integer decision variable with inclusive bounds. Its
// sensitivities to the objective and to every constraint it appears in are
// cached at setup and stay read-only during search.
type Variable struct {
	proxyID   int
	flatIndex int
	name      string

	value      int64
	lower      int64
	upper      int64
	isFixed    bool
	sense      VariableSense
	selection  *Selection
	objectiveSensitivity float64

	related      []relatedConstraint
	relatedExprs []relatedExpression
}

// Name returns the variable's exported name: the proxy name plus the index
// label, e.g. "x[3]".
func (v *Variable) Name() string { return v.name }

// ProxyID returns the owning proxy's id.
func (v *Variable) ProxyID() int { return v.proxyID }

// FlatIndex returns the variable's flat position within its proxy.
func (v *Variable) FlatIndex() int { return v.flatIndex }

// Value returns the current value.
func (v *Variable) Value() int64 { return v.value }

// Lower returns the inclusive lower bound.
func (v *Variable) Lower() int64 { return v.lower }

// Upper returns the inclusive upper bound.
func (v *Variable) Upper() int64 { return v.upper }

// IsFixed reports whether the variable is excluded from search.
func (v *Variable) IsFixed() bool { return v.isFixed }

// Sense returns the variable class computed at setup.
func (v *Variable) Sense() VariableSense { return v.sense }

// SetValue assigns the current value. Assigning a fixed variable is an error.
func (v *Variable) SetValue(value int64) error {
	if v.isFixed {
		return fmt.Errorf("Variable %s: cannot assign a fixed variable", v.name)
	}
	v.value = value
	return nil
}

// setValueForce assigns the value bypassing the fixed check. The evaluation
// kernel and setup corrections use it; user code goes through SetValue.
func (v *Variable) setValueForce(value int64) { v.value = value }

// SetBound replaces the bounds. The current value is not clamped here; setup
// verifies and corrects initial values.
func (v *Variable) SetBound(lower, upper int64) error {
	if lower > upper {
		return fmt.Errorf("Variable %s: lower bound %d exceeds upper bound %d", v.name, lower, upper)
	}
	v.lower = lower
	v.upper = upper
	v.setupSense()
	return nil
}

// Fix freezes the variable at its current value.
func (v *Variable) Fix() { v.isFixed = true }

// FixTo assigns value and freezes the variable.
func (v *Variable) FixTo(value int64) {
	v.value = value
	v.isFixed = true
}

// Unfix releases a fixed variable back into the search.
func (v *Variable) Unfix() { v.isFixed = false }

// Evaluate returns the variable's value under a candidate move: the altered
// value when the move touches it, the current value otherwise.
func (v *Variable) Evaluate(move *Move) int64 {
	for i := range move.Alterations {
		if move.Alterations[i].Variable == v {
			return move.Alterations[i].Value
		}
	}
	return v.value
}

// ObjectiveSensitivity returns the variable's coefficient in the objective,
// zero when absent or when the objective is opaque.
func (v *Variable) ObjectiveSensitivity() float64 { return v.objectiveSensitivity }

// ConstraintSensitivity returns the variable's coefficient in c, zero if the
// variable does not appear there.
func (v *Variable) ConstraintSensitivity(c *Constraint) float64 {
	for i := range v.related {
		if v.related[i].constraint == c {
			return v.related[i].coefficient
		}
	}
	return 0
}

// RelatedConstraints returns the constraints whose evaluation the variable
// influences, in constraint creation order.
func (v *Variable) RelatedConstraints() []*Constraint {
	constraints := make([]*Constraint, len(v.related))
	for i := range v.related {
		constraints[i] = v.related[i].constraint
	}
	return constraints
}

func (v *Variable) setupSense() {
	if v.selection != nil {
		v.sense = VariableSenseSelection
		return
	}
	if v.lower == 0 && v.upper == 1 {
		v.sense = VariableSenseBinary
		return
	}
	v.sense = VariableSenseInteger
}

// VariableProxy is a shape-aware collection of variables created together
// under one name.
type VariableProxy struct {
	MultiArray
	name      string
	variables []*Variable
}

// Name returns the proxy name.
func (p *VariableProxy) Name() string { return p.name }

// Variables returns the flat variable slice.
func (p *VariableProxy) Variables() []*Variable { return p.variables }

// At returns the variable at a multi-dimensional index.
func (p *VariableProxy) At(index ...int) *Variable {
	return p.variables[p.FlatIndex(index)]
}

// Flat returns the variable at a flat index.
func (p *VariableProxy) Flat(flat int) *Variable { return p.variables[flat] }

// Sum returns the expression summing every variable of the proxy.
func (p *VariableProxy) Sum() *Expression {
	e := NewExpression()
	for _, v := range p.variables {
		e.Term(1, v)
	}
	return e
}

// Dot returns the expression Σ coefficients[i] * variable[i]. The coefficient
// slice must match the proxy's element count.
func (p *VariableProxy) Dot(coefficients []float64) *Expression {
	e := NewExpression()
	for i, v := range p.variables {
		e.Term(coefficients[i], v)
	}
	return e
}

// Selection builds the relation Σ variables == 1 flagged as a user-defined
// selection, which SelectionModeDefined extracts as a selection group.
func (p *VariableProxy) Selection() Relation {
	r := p.Sum().EqualTo(1)
	r.isDefinedSelection = true
	return r
}

// exportValues snapshots the current variable values into a value proxy
// sharing the entity proxy's id and shape.
func (p *VariableProxy) exportValues() ValueProxy[int64] {
	values := newValueProxy[int64](p.id, p.shape, 0)
	for i, v := range p.variables {
		values.values[i] = v.value
	}
	return values
}
