package mip

// SolutionScore bundles everything the search needs to rank one solution or
// candidate move. Augmented objectives are stored in minimization form
// (sign-adjusted), so smaller is always better regardless of the model's
// optimization direction; Objective keeps the raw user-facing value.
type SolutionScore struct {
	Objective      float64
	TotalViolation float64

	LocalPenalty  float64
	GlobalPenalty float64

	LocalAugmentedObjective  float64
	GlobalAugmentedObjective float64

	IsObjectiveImprovable  bool
	IsConstraintImprovable bool
	IsFeasible             bool
}

// Solution is a full snapshot of the model state: variable values plus the
// cached expression, constraint, and violation values.
type Solution struct {
	VariableValueProxies   []ValueProxy[int64]
	ExpressionValueProxies []ValueProxy[float64]
	ConstraintValueProxies []ValueProxy[float64]
	ViolationValueProxies  []ValueProxy[float64]

	Objective      float64
	TotalViolation float64
	IsFeasible     bool
}

// NamedSolution is a solution keyed by entity names for export.
type NamedSolution struct {
	Name           string
	Objective      float64
	TotalViolation float64
	IsFeasible     bool

	VariableValues   map[string]ValueProxy[int64]
	ExpressionValues map[string]ValueProxy[float64]
	ConstraintValues map[string]ValueProxy[float64]
	ViolationValues  map[string]ValueProxy[float64]

	variableNames   []string
	expressionNames []string
	constraintNames []string
}

// VariableNames returns the variable proxy names in creation order.
func (s *NamedSolution) VariableNames() []string { return s.variableNames }

// ExpressionNames returns the expression proxy names in creation order.
func (s *NamedSolution) ExpressionNames() []string { return s.expressionNames }

// ConstraintNames returns the constraint proxy names in creation order.
func (s *NamedSolution) ConstraintNames() []string { return s.constraintNames }

// PlainSolution is the compact form kept in the historical pool: variable
// values and the headline numbers only.
type PlainSolution struct {
	VariableValueProxies []ValueProxy[int64]
	Objective            float64
	TotalViolation       float64
	IsFeasible           bool
}

func (s *Solution) plain() PlainSolution {
	return PlainSolution{
		VariableValueProxies: cloneProxies(s.VariableValueProxies),
		Objective:            s.Objective,
		TotalViolation:       s.TotalViolation,
		IsFeasible:           s.IsFeasible,
	}
}
