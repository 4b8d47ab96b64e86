package mip

import (
	"fmt"
	"strings"
)

// MoveUpdater is the user-defined move callback. It appends candidate moves
// to the supplied slice; the neighborhood invokes it once per iteration when
// user-defined moves are enabled. A returned error aborts the current phase.
type MoveUpdater func(moves *[]Move) error

// Model owns every entity of one optimization problem and is the authority
// for its state: variable values, cached expression and constraint values,
// and the objective. Search phases borrow it; evaluation is read-only and
// ApplyMove is the only mutation during search.
type Model struct {
	name string

	variableProxies   []*VariableProxy
	expressionProxies []*ExpressionProxy
	constraintProxies []*ConstraintProxy

	variablesFlat   []*Variable
	constraintsFlat []*Constraint

	objective          *Expression
	objectiveValue     float64
	isDefinedObjective bool
	isMinimization     bool

	selections   []*Selection
	neighborhood *Neighborhood

	moveUpdater MoveUpdater
	callback    func() error

	isSolved                bool
	isLinear                bool
	isEnabledFastEvaluation bool

	eval *Evaluator

	names map[string]bool
}

// NewModel returns an empty model with the given name. An empty name is
// allowed; named entities still require whitespace-free names.
func NewModel(name string) *Model {
	return &Model{
		name:           name,
		isMinimization: true,
		names:          map[string]bool{},
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// SetName replaces the model name.
func (m *Model) SetName(name string) { m.name = name }

// IsMinimization reports the optimization direction.
func (m *Model) IsMinimization() bool { return m.isMinimization }

// Sign returns +1 for minimization and -1 for maximization. Augmented
// objectives are sign*objective + penalty, so comparisons are minimization
// form either way.
func (m *Model) Sign() float64 {
	if m.isMinimization {
		return 1
	}
	return -1
}

// IsLinear reports whether the objective and all constraints are linear.
func (m *Model) IsLinear() bool { return m.isLinear }

// IsSolved reports whether Solve has already consumed this model.
func (m *Model) IsSolved() bool { return m.isSolved }

// ObjectiveValue returns the cached raw objective value.
func (m *Model) ObjectiveValue() float64 { return m.objectiveValue }

// Selections returns the extracted selection groups.
func (m *Model) Selections() []*Selection { return m.selections }

// Neighborhood returns the move generator; it is nil before Setup.
func (m *Model) Neighborhood() *Neighborhood { return m.neighborhood }

// VariableProxies returns the variable proxies in creation order.
func (m *Model) VariableProxies() []*VariableProxy { return m.variableProxies }

// ExpressionProxies returns the expression proxies in creation order.
func (m *Model) ExpressionProxies() []*ExpressionProxy { return m.expressionProxies }

// ConstraintProxies returns the constraint proxies in creation order.
func (m *Model) ConstraintProxies() []*ConstraintProxy { return m.constraintProxies }

// Variables returns every variable in creation order.
func (m *Model) Variables() []*Variable { return m.variablesFlat }

// Constraints returns every constraint in creation order.
func (m *Model) Constraints() []*Constraint { return m.constraintsFlat }

func (m *Model) registerName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s: name must not be empty", kind)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("%s %q: name must not contain whitespace", kind, name)
	}
	if m.names[name] {
		return fmt.Errorf("%s %q: name already exists", kind, name)
	}
	m.names[name] = true
	return nil
}

// NewVariable creates a scalar integer variable with inclusive bounds.
func (m *Model) NewVariable(name string, lower, upper int64) (*Variable, error) {
	proxy, err := m.NewVariablesWithShape(name, []int{1}, lower, upper)
	if err != nil {
		return nil, err
	}
	return proxy.variables[0], nil
}

// NewVariables creates a one-dimensional variable proxy of n elements.
func (m *Model) NewVariables(name string, n int, lower, upper int64) (*VariableProxy, error) {
	return m.NewVariablesWithShape(name, []int{n}, lower, upper)
}

// NewVariablesWithShape creates an N-dimensional variable proxy.
func (m *Model) NewVariablesWithShape(name string, shape []int, lower, upper int64) (*VariableProxy, error) {
	if err := m.registerName("Variable", name); err != nil {
		return nil, err
	}
	if len(m.variableProxies) >= MaxNumberOfProxies {
		return nil, fmt.Errorf("Variable %q: capacity of %d proxies exceeded", name, MaxNumberOfProxies)
	}
	if lower > upper {
		return nil, fmt.Errorf("Variable %q: lower bound %d exceeds upper bound %d", name, lower, upper)
	}
	proxy := &VariableProxy{
		MultiArray: newMultiArray(len(m.variableProxies), shape),
		name:       name,
	}
	proxy.variables = make([]*Variable, proxy.numElement)
	for i := range proxy.variables {
		v := &Variable{
			proxyID:   proxy.id,
			flatIndex: i,
			lower:     lower,
			upper:     upper,
		}
		if lower > 0 {
			v.value = lower
		} else if upper < 0 {
			v.value = upper
		}
		v.setupSense()
		proxy.variables[i] = v
		m.variablesFlat = append(m.variablesFlat, v)
	}
	m.variableProxies = append(m.variableProxies, proxy)
	return proxy, nil
}

// NewExpression creates a scalar registered expression. Registered
// expressions are exported with solutions; build them with Term/Constant/Add.
func (m *Model) NewExpression(name string) (*Expression, error) {
	proxy, err := m.NewExpressions(name, 1)
	if err != nil {
		return nil, err
	}
	return proxy.expressions[0], nil
}

// NewExpressions creates a one-dimensional registered expression proxy.
func (m *Model) NewExpressions(name string, n int) (*ExpressionProxy, error) {
	if err := m.registerName("Expression", name); err != nil {
		return nil, err
	}
	if len(m.expressionProxies) >= MaxNumberOfProxies {
		return nil, fmt.Errorf("Expression %q: capacity of %d proxies exceeded", name, MaxNumberOfProxies)
	}
	proxy := &ExpressionProxy{
		MultiArray: newMultiArray(len(m.expressionProxies), []int{n}),
		name:       name,
	}
	proxy.expressions = make([]*Expression, proxy.numElement)
	for i := range proxy.expressions {
		e := NewExpression()
		e.proxyID = proxy.id
		e.flatIndex = i
		proxy.expressions[i] = e
	}
	m.expressionProxies = append(m.expressionProxies, proxy)
	return proxy, nil
}

// NewConstraint creates a scalar constraint from a relation built with
// EqualTo, LessEqual, or GreaterEqual.
func (m *Model) NewConstraint(name string, r Relation) (*Constraint, error) {
	proxy, err := m.NewConstraints(name, []Relation{r})
	if err != nil {
		return nil, err
	}
	return proxy.constraints[0], nil
}

// NewConstraints creates a one-dimensional constraint proxy from relations.
func (m *Model) NewConstraints(name string, rs []Relation) (*ConstraintProxy, error) {
	if err := m.registerName("Constraint", name); err != nil {
		return nil, err
	}
	if len(m.constraintProxies) >= MaxNumberOfProxies {
		return nil, fmt.Errorf("Constraint %q: capacity of %d proxies exceeded", name, MaxNumberOfProxies)
	}
	if len(rs) == 0 {
		return nil, fmt.Errorf("Constraint %q: at least one relation is required", name)
	}
	proxy := &ConstraintProxy{
		MultiArray: newMultiArray(len(m.constraintProxies), []int{len(rs)}),
		name:       name,
	}
	proxy.constraints = make([]*Constraint, len(rs))
	for i, r := range rs {
		c := &Constraint{
			proxyID:            proxy.id,
			flatIndex:          i,
			expression:         r.expression,
			sense:              r.sense,
			isEnabled:          true,
			isDefinedSelection: r.isDefinedSelection,
			ordinal:            len(m.constraintsFlat),
		}
		proxy.constraints[i] = c
		m.constraintsFlat = append(m.constraintsFlat, c)
	}
	m.constraintProxies = append(m.constraintProxies, proxy)
	return proxy, nil
}

// Minimize sets the objective to minimize the expression. The expression may
// be linear or function-backed (NewFunctionExpression).
func (m *Model) Minimize(e *Expression) {
	m.objective = e
	m.isDefinedObjective = true
	m.isMinimization = true
}

// Maximize sets the objective to maximize the expression.
func (m *Model) Maximize(e *Expression) {
	m.objective = e
	m.isDefinedObjective = true
	m.isMinimization = false
}

// IsDefinedObjective reports whether an objective was set. Without one the
// solver searches for feasibility and stops at the first feasible solution.
func (m *Model) IsDefinedObjective() bool { return m.isDefinedObjective }

// RegisterMoveUpdater installs the user-defined move callback.
func (m *Model) RegisterMoveUpdater(updater MoveUpdater) { m.moveUpdater = updater }

// RegisterCallback installs the end-of-phase callback invoked by the outer
// controller after each tabu phase.
func (m *Model) RegisterCallback(callback func() error) { m.callback = callback }

// Callback invokes the registered end-of-phase callback, if any.
func (m *Model) Callback() error {
	if m.callback == nil {
		return nil
	}
	return m.callback()
}

// Setup performs the one-time preparation before search: verification,
// sensitivity caching, optional presolve, categorization, selection
// extraction, neighborhood construction, and initial value correction.
func (m *Model) Setup(option *Option, printer *Printer) error {
	if len(m.variablesFlat) == 0 {
		return ErrNoDecisionVariables
	}

	m.setupUniqueNames()
	m.setupIsLinear()
	m.setupSensitivities()

	if option.IsEnabledPresolve {
		if err := m.presolve(printer); err != nil {
			return err
		}
	}

	m.categorizeVariables()
	m.categorizeConstraints()
	m.extractSelections(option.SelectionMode)

	if err := m.verifyAndCorrectInitialValues(option.IsEnabledInitialValueCorrection, printer); err != nil {
		return err
	}

	m.setupFastEvaluation()
	m.neighborhood = newNeighborhood(m)
	m.neighborhood.setup(option)

	m.eval = m.NewEvaluator()
	m.Update()
	return nil
}

func (m *Model) setupUniqueNames() {
	for _, proxy := range m.variableProxies {
		for i, v := range proxy.variables {
			v.name = proxy.name + proxy.IndexLabel(i)
		}
	}
	for _, proxy := range m.constraintProxies {
		for i, c := range proxy.constraints {
			c.name = proxy.name + proxy.IndexLabel(i)
		}
	}
}

func (m *Model) setupIsLinear() {
	m.isLinear = true
	if m.isDefinedObjective && !m.objective.IsLinear() {
		m.isLinear = false
	}
	for _, c := range m.constraintsFlat {
		if !c.expression.IsLinear() {
			m.isLinear = false
		}
	}
}

// setupSensitivities rebuilds the bidirectional variable/constraint index:
// each variable's related-constraint list with coefficients, the related
// registered expressions, and the objective sensitivities.
func (m *Model) setupSensitivities() {
	for _, v := range m.variablesFlat {
		v.related = nil
		v.relatedExprs = nil
		v.objectiveSensitivity = 0
	}
	for _, c := range m.constraintsFlat {
		for i := range c.expression.terms {
			t := &c.expression.terms[i]
			t.variable.related = append(t.variable.related,
				relatedConstraint{constraint: c, coefficient: t.coefficient})
		}
	}
	for _, proxy := range m.expressionProxies {
		for _, e := range proxy.expressions {
			for i := range e.terms {
				t := &e.terms[i]
				t.variable.relatedExprs = append(t.variable.relatedExprs,
					relatedExpression{expression: e, coefficient: t.coefficient})
			}
		}
	}
	if m.isDefinedObjective && m.objective.IsLinear() {
		for i := range m.objective.terms {
			t := &m.objective.terms[i]
			t.variable.objectiveSensitivity = t.coefficient
		}
	}
}

func (m *Model) categorizeVariables() {
	for _, v := range m.variablesFlat {
		v.setupSense()
	}
}

func (m *Model) categorizeConstraints() {
	for _, c := range m.constraintsFlat {
		c.classify()
	}
}

// setupFastEvaluation decides whether delta scoring is available: it needs a
// fully linear model so that every touched constraint is reachable through
// the sensitivity index.
func (m *Model) setupFastEvaluation() {
	m.isEnabledFastEvaluation = m.isLinear
}

// IsEnabledFastEvaluation reports whether delta scoring is available.
func (m *Model) IsEnabledFastEvaluation() bool { return m.isEnabledFastEvaluation }

func (m *Model) verifyAndCorrectInitialValues(isEnabledCorrection bool, printer *Printer) error {
	for _, v := range m.variablesFlat {
		if v.value < v.lower || v.value > v.upper {
			if !isEnabledCorrection {
				return fmt.Errorf("%w: variable %s value %d is out of bounds [%d, %d]",
					ErrInconsistentInitialValue, v.name, v.value, v.lower, v.upper)
			}
			clamped := v.value
			if clamped < v.lower {
				clamped = v.lower
			}
			if clamped > v.upper {
				clamped = v.upper
			}
			printer.Warning(fmt.Sprintf("The initial value of %s was corrected to %d.", v.name, clamped))
			v.setValueForce(clamped)
		}
	}

	for _, s := range m.selections {
		var fixedSelected *Variable
		for _, v := range s.variables {
			if v.isFixed && v.value == 1 {
				if fixedSelected != nil {
					if !isEnabledCorrection {
						return fmt.Errorf("%w: selection group of %s fixes multiple variables to 1",
							ErrInconsistentInitialValue, fixedSelected.name)
					}
					printer.Warning(fmt.Sprintf("The initial value of %s was corrected to 0.", v.name))
					v.setValueForce(0)
					continue
				}
				fixedSelected = v
			}
		}

		var selected *Variable
		for _, v := range s.variables {
			if v.value != 1 {
				continue
			}
			if selected == nil {
				selected = v
				continue
			}
			if !isEnabledCorrection {
				return fmt.Errorf("%w: selection group of %s has multiple selected variables",
					ErrInconsistentInitialValue, selected.name)
			}
			printer.Warning(fmt.Sprintf("The initial value of %s was corrected to 0.", v.name))
			v.setValueForce(0)
		}
		if fixedSelected != nil && selected != fixedSelected {
			if selected != nil {
				selected.setValueForce(0)
			}
			selected = fixedSelected
			selected.setValueForce(1)
		}
		if selected == nil {
			for _, v := range s.variables {
				if !v.isFixed {
					selected = v
					break
				}
			}
			if selected == nil {
				return fmt.Errorf("%w: selection group has no selectable variable",
					ErrInconsistentInitialValue)
			}
			printer.Warning(fmt.Sprintf("The initial value of %s was corrected to 1.", selected.name))
			selected.setValueForce(1)
		}
		s.selected = selected
	}
	return nil
}

// Update recomputes every cached value from the current variable values:
// registered expressions, enabled constraints, and the objective.
func (m *Model) Update() {
	for _, proxy := range m.expressionProxies {
		for _, e := range proxy.expressions {
			e.Update()
		}
	}
	for _, c := range m.constraintsFlat {
		if c.isEnabled {
			c.Update()
		}
	}
	if m.isDefinedObjective {
		m.objective.Update()
		m.objectiveValue = m.objective.Value()
	}
}

// ApplyMove commits a move: variable values, selection bookkeeping, and the
// incremental refresh of every affected cache. Moves are applied atomically;
// there is no partial-apply state.
func (m *Model) ApplyMove(move *Move) {
	if !m.isEnabledFastEvaluation {
		m.applyAlterations(move)
		m.Update()
		return
	}

	ev := m.eval
	ev.stampTouched(move)
	for _, c := range ev.touched {
		c.value += ev.deltas[c.ordinal]
		c.violation = c.violationOf(c.value)
	}
	for i := range move.Alterations {
		alt := &move.Alterations[i]
		d := float64(alt.Value - alt.Variable.value)
		if d == 0 {
			continue
		}
		m.objectiveValue += alt.Variable.objectiveSensitivity * d
		for _, re := range alt.Variable.relatedExprs {
			re.expression.value += re.coefficient * d
		}
	}
	m.applyAlterations(move)
}

func (m *Model) applyAlterations(move *Move) {
	for i := range move.Alterations {
		alt := &move.Alterations[i]
		v := alt.Variable
		if v.sense == VariableSenseSelection && alt.Value == 1 && v.selection != nil {
			v.selection.selected = v
		}
		v.setValueForce(alt.Value)
	}
}

// TotalViolation sums the cached violations of enabled constraints.
func (m *Model) TotalViolation() float64 {
	total := 0.0
	for _, c := range m.constraintsFlat {
		if c.isEnabled {
			total += c.violation
		}
	}
	return total
}

// ExportSolution snapshots the model state.
func (m *Model) ExportSolution() Solution {
	s := Solution{}
	for _, proxy := range m.variableProxies {
		s.VariableValueProxies = append(s.VariableValueProxies, proxy.exportValues())
	}
	for _, proxy := range m.expressionProxies {
		s.ExpressionValueProxies = append(s.ExpressionValueProxies, proxy.exportValues())
	}
	for _, proxy := range m.constraintProxies {
		values, violations := proxy.exportValues()
		s.ConstraintValueProxies = append(s.ConstraintValueProxies, values)
		s.ViolationValueProxies = append(s.ViolationValueProxies, violations)
	}
	s.Objective = m.objectiveValue
	s.TotalViolation = m.TotalViolation()
	s.IsFeasible = s.TotalViolation <= epsilon
	return s
}

// ImportVariableValues overwrites the variable values from value proxies
// produced by ExportSolution. Caches are stale afterwards; call Update.
func (m *Model) ImportVariableValues(proxies []ValueProxy[int64]) {
	for _, proxy := range m.variableProxies {
		values := proxies[proxy.id].values
		for i, v := range proxy.variables {
			v.setValueForce(values[i])
		}
	}
	for _, s := range m.selections {
		for _, v := range s.variables {
			if v.value == 1 {
				s.selected = v
				break
			}
		}
	}
}

// ConvertToNamedSolution re-keys a solution by entity names for export.
func (m *Model) ConvertToNamedSolution(s *Solution) NamedSolution {
	named := NamedSolution{
		Name:             m.name,
		Objective:        s.Objective,
		TotalViolation:   s.TotalViolation,
		IsFeasible:       s.IsFeasible,
		VariableValues:   map[string]ValueProxy[int64]{},
		ExpressionValues: map[string]ValueProxy[float64]{},
		ConstraintValues: map[string]ValueProxy[float64]{},
		ViolationValues:  map[string]ValueProxy[float64]{},
	}
	for _, proxy := range m.variableProxies {
		named.VariableValues[proxy.name] = s.VariableValueProxies[proxy.id]
		named.variableNames = append(named.variableNames, proxy.name)
	}
	for _, proxy := range m.expressionProxies {
		named.ExpressionValues[proxy.name] = s.ExpressionValueProxies[proxy.id]
		named.expressionNames = append(named.expressionNames, proxy.name)
	}
	for _, proxy := range m.constraintProxies {
		named.ConstraintValues[proxy.name] = s.ConstraintValueProxies[proxy.id]
		named.ViolationValues[proxy.name] = s.ViolationValueProxies[proxy.id]
		named.constraintNames = append(named.constraintNames, proxy.name)
	}
	return named
}

// ModelSummary is the compact problem description embedded in exports.
type ModelSummary struct {
	Name                string `json:"name"`
	NumberOfVariables   int    `json:"number_of_variables"`
	NumberOfConstraints int    `json:"number_of_constraints"`
}

// ExportSummary returns the problem summary.
func (m *Model) ExportSummary() ModelSummary {
	return ModelSummary{
		Name:                m.name,
		NumberOfVariables:   m.NumberOfVariables(),
		NumberOfConstraints: m.NumberOfConstraints(),
	}
}

// NumberOfVariables returns the total variable count.
func (m *Model) NumberOfVariables() int { return len(m.variablesFlat) }

// NumberOfFixedVariables counts fixed variables.
func (m *Model) NumberOfFixedVariables() int {
	n := 0
	for _, v := range m.variablesFlat {
		if v.isFixed {
			n++
		}
	}
	return n
}

// NumberOfNotFixedVariables counts variables still searchable.
func (m *Model) NumberOfNotFixedVariables() int {
	return len(m.variablesFlat) - m.NumberOfFixedVariables()
}

// NumberOfBinaryVariables counts binary variables.
func (m *Model) NumberOfBinaryVariables() int { return m.countVariables(VariableSenseBinary) }

// NumberOfIntegerVariables counts general integer variables.
func (m *Model) NumberOfIntegerVariables() int { return m.countVariables(VariableSenseInteger) }

// NumberOfSelectionVariables counts selection variables.
func (m *Model) NumberOfSelectionVariables() int { return m.countVariables(VariableSenseSelection) }

func (m *Model) countVariables(sense VariableSense) int {
	n := 0
	for _, v := range m.variablesFlat {
		if v.sense == sense {
			n++
		}
	}
	return n
}

// NumberOfConstraints returns the total constraint count.
func (m *Model) NumberOfConstraints() int { return len(m.constraintsFlat) }

// NumberOfDisabledConstraints counts constraints excluded from evaluation.
func (m *Model) NumberOfDisabledConstraints() int {
	n := 0
	for _, c := range m.constraintsFlat {
		if !c.isEnabled {
			n++
		}
	}
	return n
}

// NumberOfSelectionConstraints counts constraints consumed by selection
// extraction.
func (m *Model) NumberOfSelectionConstraints() int { return len(m.selections) }

// markSolved flips the solve guard; Solve calls it exactly once.
func (m *Model) markSolved() error {
	if m.isSolved {
		return ErrAlreadySolved
	}
	m.isSolved = true
	return nil
}

// GenerateVariableParameterProxies builds per-variable parallel arrays with
// matching ids and shapes, filled with the given value.
func GenerateVariableParameterProxies[T comparable](m *Model, fill T) []ValueProxy[T] {
	proxies := make([]ValueProxy[T], len(m.variableProxies))
	for i, proxy := range m.variableProxies {
		proxies[i] = newValueProxy(proxy.id, proxy.shape, fill)
	}
	return proxies
}

// GenerateConstraintParameterProxies builds per-constraint parallel arrays
// with matching ids and shapes, filled with the given value.
func GenerateConstraintParameterProxies[T comparable](m *Model, fill T) []ValueProxy[T] {
	proxies := make([]ValueProxy[T], len(m.constraintProxies))
	for i, proxy := range m.constraintProxies {
		proxies[i] = newValueProxy(proxy.id, proxy.shape, fill)
	}
	return proxies
}
