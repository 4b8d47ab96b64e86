package mip

import "math"

// ConstraintSense is the relational operator of a constraint normalized to
// "expression <sense> 0".
type ConstraintSense int

const (
	SenseLess    ConstraintSense = iota // expression <= 0
	SenseEqual                          // expression == 0
	SenseGreater                        // expression >= 0
)

// String returns the operator spelling.
func (s ConstraintSense) String() string {
	switch s {
	case SenseLess:
		return "<="
	case SenseEqual:
		return "=="
	case SenseGreater:
		return ">="
	default:
		return "?"
	}
}

// ConstraintClass is the structural category assigned at setup. The category
// decides which special neighborhood moves a constraint seeds.
type ConstraintClass int

const (
	ClassSingleton ConstraintClass = iota
	ClassAggregation
	ClassPrecedence
	ClassVariableBound
	ClassSetPartitioning
	ClassSetPacking
	ClassSetCovering
	ClassCardinality
	ClassInvariantKnapsack
	ClassEquationKnapsack
	ClassBinPacking
	ClassKnapsack
	ClassIntegerKnapsack
	ClassGeneralLinear
	ClassNonlinear
)

// String returns the category name.
func (c ConstraintClass) String() string {
	switch c {
	case ClassSingleton:
		return "Singleton"
	case ClassAggregation:
		return "Aggregation"
	case ClassPrecedence:
		return "Precedence"
	case ClassVariableBound:
		return "VariableBound"
	case ClassSetPartitioning:
		return "SetPartitioning"
	case ClassSetPacking:
		return "SetPacking"
	case ClassSetCovering:
		return "SetCovering"
	case ClassCardinality:
		return "Cardinality"
	case ClassInvariantKnapsack:
		return "InvariantKnapsack"
	case ClassEquationKnapsack:
		return "EquationKnapsack"
	case ClassBinPacking:
		return "BinPacking"
	case ClassKnapsack:
		return "Knapsack"
	case ClassIntegerKnapsack:
		return "IntegerKnapsack"
	case ClassGeneralLinear:
		return "GeneralLinear"
	case ClassNonlinear:
		return "Nonlinear"
	default:
		return "Unknown"
	}
}

// Constraint owns a normalized expression and a sense. The cached value is
// the expression value (the signed slack against zero); the violation is its
// nonnegative infeasibility measure.
type Constraint struct {
	proxyID   int
	flatIndex int
	name      string

	expression *Expression
	sense      ConstraintSense
	isEnabled  bool
	class      ConstraintClass

	isDefinedSelection bool

	value     float64
	violation float64

	// ordinal is the position in the model's flat constraint list; evaluator
	// scratch arrays are indexed by it.
	ordinal int
}

// Name returns the constraint's exported name.
func (c *Constraint) Name() string { return c.name }

// ProxyID returns the owning proxy's id.
func (c *Constraint) ProxyID() int { return c.proxyID }

// FlatIndex returns the constraint's flat position within its proxy.
func (c *Constraint) FlatIndex() int { return c.flatIndex }

// Expression returns the normalized left-hand side.
func (c *Constraint) Expression() *Expression { return c.expression }

// Sense returns the relational operator.
func (c *Constraint) Sense() ConstraintSense { return c.sense }

// Class returns the structural category assigned at setup.
func (c *Constraint) Class() ConstraintClass { return c.class }

// IsEnabled reports whether the constraint participates in evaluation.
func (c *Constraint) IsEnabled() bool { return c.isEnabled }

// Enable puts the constraint back into evaluation.
func (c *Constraint) Enable() { c.isEnabled = true }

// Disable removes the constraint from evaluation. It stays addressable and
// its caches keep their last values.
func (c *Constraint) Disable() { c.isEnabled = false }

// Value returns the cached expression value.
func (c *Constraint) Value() float64 { return c.value }

// Violation returns the cached violation.
func (c *Constraint) Violation() float64 { return c.violation }

// violationOf maps an expression value to the violation under the sense.
func (c *Constraint) violationOf(value float64) float64 {
	switch c.sense {
	case SenseLess:
		return math.Max(0, value)
	case SenseEqual:
		return math.Abs(value)
	default:
		return math.Max(0, -value)
	}
}

// Update recomputes and caches value and violation from current variable
// values.
func (c *Constraint) Update() {
	c.expression.Update()
	c.value = c.expression.Value()
	c.violation = c.violationOf(c.value)
}

// Evaluate returns the value and violation under a candidate move without
// touching the caches.
func (c *Constraint) Evaluate(move *Move) (value, violation float64) {
	value = c.expression.Evaluate(move)
	return value, c.violationOf(value)
}

// classify assigns the structural category. The decision tree follows the
// coefficient patterns of the normalized expression; rhs below denotes the
// negated constant, i.e. the right-hand side before normalization.
func (c *Constraint) classify() {
	e := c.expression
	if !e.IsLinear() {
		c.class = ClassNonlinear
		return
	}
	if len(e.terms) == 1 {
		c.class = ClassSingleton
		return
	}

	if len(e.terms) == 2 {
		a0 := e.terms[0].coefficient
		a1 := e.terms[1].coefficient
		bothBinary := e.terms[0].variable.isBinaryLike() && e.terms[1].variable.isBinaryLike()
		switch {
		case c.sense == SenseEqual:
			c.class = ClassAggregation
			return
		case a0 == -a1:
			c.class = ClassPrecedence
			return
		case bothBinary:
			c.class = ClassVariableBound
			return
		}
	}

	allBinary := true
	allCoefficientOne := true
	for i := range e.terms {
		if !e.terms[i].variable.isBinaryLike() {
			allBinary = false
		}
		if e.terms[i].coefficient != 1 {
			allCoefficientOne = false
		}
	}
	rhs := -e.constant

	if allBinary && allCoefficientOne {
		switch {
		case c.sense == SenseEqual && rhs == 1:
			c.class = ClassSetPartitioning
			return
		case c.sense == SenseLess && rhs == 1:
			c.class = ClassSetPacking
			return
		case c.sense == SenseGreater && rhs == 1:
			c.class = ClassSetCovering
			return
		case c.sense == SenseEqual && rhs > 1:
			c.class = ClassCardinality
			return
		case c.sense == SenseLess && rhs > 1:
			c.class = ClassInvariantKnapsack
			return
		}
	}

	if allBinary {
		if c.sense == SenseEqual {
			c.class = ClassEquationKnapsack
			return
		}
		// A binary knapsack where some variable's coefficient matches the
		// right-hand side acts as an indicator: bin packing.
		for i := range e.terms {
			coefficient := e.terms[i].coefficient
			if (c.sense == SenseLess && coefficient == rhs) ||
				(c.sense == SenseGreater && coefficient == rhs) {
				c.class = ClassBinPacking
				return
			}
		}
		c.class = ClassKnapsack
		return
	}

	if c.sense != SenseEqual {
		c.class = ClassIntegerKnapsack
		return
	}
	c.class = ClassGeneralLinear
}

// isBinaryLike reports whether the variable's bounds are {0,1}; selection
// extraction has not necessarily run when constraints are classified, so the
// check is on bounds rather than on the sense.
func (v *Variable) isBinaryLike() bool {
	return v.lower == 0 && v.upper == 1
}

// ConstraintProxy is a shape-aware collection of constraints created together
// under one name.
type ConstraintProxy struct {
	MultiArray
	name        string
	constraints []*Constraint
}

// Name returns the proxy name.
func (p *ConstraintProxy) Name() string { return p.name }

// Constraints returns the flat constraint slice.
func (p *ConstraintProxy) Constraints() []*Constraint { return p.constraints }

// At returns the constraint at a multi-dimensional index.
func (p *ConstraintProxy) At(index ...int) *Constraint {
	return p.constraints[p.FlatIndex(index)]
}

func (p *ConstraintProxy) exportValues() (values, violations ValueProxy[float64]) {
	values = newValueProxy[float64](p.id, p.shape, 0)
	violations = newValueProxy[float64](p.id, p.shape, 0)
	for i, c := range p.constraints {
		values.values[i] = c.value
		violations.values[i] = c.violation
	}
	return values, violations
}
