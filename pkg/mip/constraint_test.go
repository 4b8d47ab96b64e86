package mip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintViolation(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", -10, 10)
	require.NoError(t, err)

	less, err := model.NewConstraint("less", NewExpression().Term(1, x).LessEqual(3))
	require.NoError(t, err)
	equal, err := model.NewConstraint("equal", NewExpression().Term(1, x).EqualTo(3))
	require.NoError(t, err)
	greater, err := model.NewConstraint("greater", NewExpression().Term(1, x).GreaterEqual(3))
	require.NoError(t, err)

	require.NoError(t, x.SetValue(5))
	less.Update()
	equal.Update()
	greater.Update()

	assert.Equal(t, 2.0, less.Value())
	assert.Equal(t, 2.0, less.Violation())
	assert.Equal(t, 2.0, equal.Violation())
	assert.Equal(t, 0.0, greater.Violation())

	require.NoError(t, x.SetValue(1))
	less.Update()
	equal.Update()
	greater.Update()

	assert.Equal(t, 0.0, less.Violation())
	assert.Equal(t, 2.0, equal.Violation())
	assert.Equal(t, 2.0, greater.Violation())
}

func TestConstraintClassification(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", -10, 10)
	require.NoError(t, err)
	y, err := model.NewVariable("y", -10, 10)
	require.NoError(t, err)
	z, err := model.NewVariables("z", 10, 0, 1)
	require.NoError(t, err)
	w, err := model.NewVariable("w", 0, 1)
	require.NoError(t, err)
	r, err := model.NewVariables("r", 10, -10, 10)
	require.NoError(t, err)

	coefficients := make([]float64, 10)
	for i := range coefficients {
		coefficients[i] = float64(i + 1)
	}

	cases := []struct {
		name     string
		relation Relation
		expected ConstraintClass
	}{
		{"singleton", NewExpression().Term(2, x).LessEqual(10), ClassSingleton},
		{"aggregation", NewExpression().Term(2, x).Term(3, y).EqualTo(10), ClassAggregation},
		{"precedence_0", NewExpression().Term(2, x).Term(-2, y).LessEqual(5), ClassPrecedence},
		{"precedence_1", NewExpression().Term(-2, x).Term(2, y).LessEqual(5), ClassPrecedence},
		{"precedence_2", NewExpression().Term(2, x).Term(-2, y).GreaterEqual(5), ClassPrecedence},
		{"precedence_3", NewExpression().Term(-2, x).Term(2, y).GreaterEqual(5), ClassPrecedence},
		{"variable_bound_0", NewExpression().Term(2, z.At(0)).Term(3, z.At(1)).GreaterEqual(5), ClassVariableBound},
		{"variable_bound_1", NewExpression().Term(2, z.At(0)).Term(3, z.At(1)).LessEqual(5), ClassVariableBound},
		{"set_partitioning", z.Sum().EqualTo(1), ClassSetPartitioning},
		{"set_packing", z.Sum().LessEqual(1), ClassSetPacking},
		{"set_covering", z.Sum().GreaterEqual(1), ClassSetCovering},
		{"cardinality", z.Sum().EqualTo(5), ClassCardinality},
		{"invariant_knapsack", z.Sum().LessEqual(5), ClassInvariantKnapsack},
		{"equation_knapsack", z.Dot(coefficients).EqualTo(30), ClassEquationKnapsack},
		{"bin_packing_0", z.Dot(coefficients).Term(5, w).LessEqual(5), ClassBinPacking},
		{"bin_packing_1", z.Dot(coefficients).Term(-5, w).GreaterEqual(-5), ClassBinPacking},
		{"knapsack_0", z.Dot(coefficients).LessEqual(50), ClassKnapsack},
		{"knapsack_1", z.Dot(coefficients).GreaterEqual(-50), ClassKnapsack},
		{"integer_knapsack_0", r.Dot(coefficients).LessEqual(50), ClassIntegerKnapsack},
		{"integer_knapsack_1", r.Dot(coefficients).GreaterEqual(-50), ClassIntegerKnapsack},
		{"general_linear", NewExpression().Term(1, x).Add(r.Sum()).EqualTo(50), ClassGeneralLinear},
	}

	constraints := map[string]*Constraint{}
	for _, tc := range cases {
		c, err := model.NewConstraint(tc.name, tc.relation)
		require.NoError(t, err)
		constraints[tc.name] = c
	}

	nonlinear, err := model.NewConstraint("nonlinear",
		NewFunctionExpression(func(move *Move) float64 {
			return float64(x.Evaluate(move)) - 1
		}).LessEqual(5))
	require.NoError(t, err)

	model.categorizeVariables()
	model.categorizeConstraints()

	for _, tc := range cases {
		assert.Equal(t, tc.expected, constraints[tc.name].Class(), tc.name)
	}
	assert.Equal(t, ClassNonlinear, nonlinear.Class())
}

func TestConstraintEnableDisable(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)

	c, err := model.NewConstraint("c", NewExpression().Term(1, x).EqualTo(1))
	require.NoError(t, err)

	assert.True(t, c.IsEnabled())
	c.Disable()
	assert.False(t, c.IsEnabled())
	assert.Equal(t, 1, model.NumberOfDisabledConstraints())
	c.Enable()
	assert.True(t, c.IsEnabled())
}
