package mip

// term is one (variable, coefficient) entry of a linear expression. Terms are
// kept in insertion order so that summation order, and therefore floating
// point rounding, is reproducible between evaluations.
type term struct {
	variable    *Variable
	coefficient float64
}

// Expression is a sparse linear map from variables to coefficients plus a
// constant, or an opaque user function of a candidate move. The expression is
// linear iff no function is attached; only the linear form carries
// sensitivities.
type Expression struct {
	proxyID   int
	flatIndex int

	terms    []term
	index    map[*Variable]int
	constant float64
	value    float64

	fn func(*Move) float64
}

// NewExpression returns an empty linear expression not registered with any
// model. Registered, exportable expressions are created through
// Model.NewExpression.
func NewExpression() *Expression {
	return &Expression{proxyID: -1, index: map[*Variable]int{}}
}

// NewFunctionExpression returns an opaque expression evaluated by fn. The fn
// receives the candidate move and must compute its value from the variables'
// values under that move (see Variable.Evaluate).
func NewFunctionExpression(fn func(*Move) float64) *Expression {
	return &Expression{proxyID: -1, index: map[*Variable]int{}, fn: fn}
}

// Term adds coefficient*v to the expression, merging with an existing term
// for the same variable. It returns the expression for chaining.
func (e *Expression) Term(coefficient float64, v *Variable) *Expression {
	if pos, ok := e.index[v]; ok {
		e.terms[pos].coefficient += coefficient
		return e
	}
	e.index[v] = len(e.terms)
	e.terms = append(e.terms, term{variable: v, coefficient: coefficient})
	return e
}

// Constant adds c to the constant part.
func (e *Expression) Constant(c float64) *Expression {
	e.constant += c
	return e
}

// Add accumulates another expression's terms and constant into e.
func (e *Expression) Add(other *Expression) *Expression {
	for _, t := range other.terms {
		e.Term(t.coefficient, t.variable)
	}
	e.constant += other.constant
	return e
}

// Coefficient returns the coefficient of v, zero if absent.
func (e *Expression) Coefficient(v *Variable) float64 {
	if pos, ok := e.index[v]; ok {
		return e.terms[pos].coefficient
	}
	return 0
}

// IsLinear reports whether the expression carries no opaque function.
func (e *Expression) IsLinear() bool { return e.fn == nil }

// Value returns the cached value computed by the latest Update.
func (e *Expression) Value() float64 { return e.value }

// Update recomputes and caches the value from current variable values.
// Opaque expressions invoke the user function with an empty move.
func (e *Expression) Update() {
	e.value = e.Evaluate(&Move{})
}

// Evaluate computes the expression value under a candidate move without
// touching the cache. Linear expressions walk their term list; opaque ones
// invoke the user function on the move.
func (e *Expression) Evaluate(move *Move) float64 {
	if e.fn != nil {
		return e.fn(move)
	}
	value := e.constant
	for i := range e.terms {
		value += e.terms[i].coefficient * float64(e.terms[i].variable.Evaluate(move))
	}
	return value
}

// ExpressionProxy is a shape-aware collection of registered expressions
// created together under one name. Registered expressions exist for export;
// constraints and objectives may also reference them.
type ExpressionProxy struct {
	MultiArray
	name        string
	expressions []*Expression
}

// Name returns the proxy name.
func (p *ExpressionProxy) Name() string { return p.name }

// Expressions returns the flat expression slice.
func (p *ExpressionProxy) Expressions() []*Expression { return p.expressions }

// At returns the expression at a multi-dimensional index.
func (p *ExpressionProxy) At(index ...int) *Expression {
	return p.expressions[p.FlatIndex(index)]
}

func (p *ExpressionProxy) exportValues() ValueProxy[float64] {
	values := newValueProxy[float64](p.id, p.shape, 0)
	for i, e := range p.expressions {
		values.values[i] = e.value
	}
	return values
}

// Relation pairs an expression with a constraint sense; it is what the
// comparison builders produce and Model.NewConstraint consumes.
type Relation struct {
	expression *Expression
	sense      ConstraintSense

	isDefinedSelection bool
}

// EqualTo builds the relation e == rhs, normalized to e - rhs == 0.
func (e *Expression) EqualTo(rhs float64) Relation {
	return Relation{expression: e.normalized(rhs), sense: SenseEqual}
}

// LessEqual builds the relation e <= rhs, normalized to e - rhs <= 0.
func (e *Expression) LessEqual(rhs float64) Relation {
	return Relation{expression: e.normalized(rhs), sense: SenseLess}
}

// GreaterEqual builds the relation e >= rhs, normalized to e - rhs >= 0.
func (e *Expression) GreaterEqual(rhs float64) Relation {
	return Relation{expression: e.normalized(rhs), sense: SenseGreater}
}

// DefinedSelection marks the relation as a user-defined selection group;
// SelectionModeDefined extracts exactly these.
func (r Relation) DefinedSelection() Relation {
	r.isDefinedSelection = true
	return r
}

func (e *Expression) normalized(rhs float64) *Expression {
	n := &Expression{
		proxyID:  -1,
		terms:    append([]term(nil), e.terms...),
		index:    make(map[*Variable]int, len(e.index)),
		constant: e.constant - rhs,
		fn:       e.fn,
	}
	for v, pos := range e.index {
		n.index[v] = pos
	}
	return n
}
