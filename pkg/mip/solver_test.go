package mip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveUnconstrainedIntegerMinimization(t *testing.T) {
	model := NewModel("unconstrained")
	x, err := model.NewVariables("x", 10, -1, 1)
	require.NoError(t, err)
	model.Minimize(x.Sum())

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 10

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.True(t, result.Solution.IsFeasible)
	assert.Equal(t, -10.0, result.Solution.Objective)
	xValues := result.Solution.VariableValues["x"]
	for _, value := range xValues.Values() {
		assert.Equal(t, int64(-1), value)
	}
}

func TestSolveSetPartitioning(t *testing.T) {
	model := NewModel("setpartitioning")
	x, err := model.NewVariables("x", 10, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("partition", x.Sum().EqualTo(1))
	require.NoError(t, err)
	costs := make([]float64, 10)
	for i := range costs {
		costs[i] = float64(i)
	}
	model.Minimize(x.Dot(costs))

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 20

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.True(t, result.Solution.IsFeasible)
	assert.Equal(t, 0.0, result.Solution.Objective)
	xValues := result.Solution.VariableValues["x"]
	values := xValues.Values()
	assert.Equal(t, int64(1), values[0])
	for i := 1; i < 10; i++ {
		assert.Equal(t, int64(0), values[i])
	}
}

func TestSolveKnapsack(t *testing.T) {
	weights := []float64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}

	model := NewModel("knapsack")
	x, err := model.NewVariables("x", 10, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("capacity", x.Dot(weights).LessEqual(30))
	require.NoError(t, err)
	model.Maximize(x.Dot(weights))

	option := DefaultOption()
	option.TimeMax = 20
	option.IterationMax = 50

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.True(t, result.Solution.IsFeasible)
	assert.Equal(t, 30.0, result.Solution.Objective)

	packed := 0.0
	xValues := result.Solution.VariableValues["x"]
	for i, value := range xValues.Values() {
		packed += weights[i] * float64(value)
	}
	assert.Equal(t, 30.0, packed)
}

func TestSolveAggregation(t *testing.T) {
	model := NewModel("aggregation")
	x, err := model.NewVariable("x", 0, 10)
	require.NoError(t, err)
	y, err := model.NewVariable("y", 0, 10)
	require.NoError(t, err)
	_, err = model.NewConstraint("equality", NewExpression().Term(2, x).Term(3, y).EqualTo(12))
	require.NoError(t, err)

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 20
	option.IsEnabledPresolve = false

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	require.True(t, result.Solution.IsFeasible)
	xProxy := result.Solution.VariableValues["x"]
	yProxy := result.Solution.VariableValues["y"]
	xs := xProxy.Values()[0]
	ys := yProxy.Values()[0]
	assert.Equal(t, 12.0, 2*float64(xs)+3*float64(ys))
}

func TestSolveInfeasibleModel(t *testing.T) {
	model := NewModel("infeasible")
	x, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("zero", NewExpression().Term(1, x).EqualTo(0))
	require.NoError(t, err)
	_, err = model.NewConstraint("one", NewExpression().Term(1, x).EqualTo(1))
	require.NoError(t, err)
	model.Minimize(NewExpression().Term(1, x))

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 30
	option.IsEnabledPresolve = false
	option.PenaltyCoefficientResetCountThreshold = 3

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	// Either assignment violates one of the two equalities by exactly 1; the
	// incumbent is the best global augmented solution.
	assert.False(t, result.Status.IsFoundFeasibleSolution)
	assert.False(t, result.Solution.IsFeasible)
	assert.Equal(t, 1.0, result.Solution.TotalViolation)
}

func TestSolveAlreadySolved(t *testing.T) {
	model := NewModel("twice")
	_, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	model.Minimize(NewExpression())

	option := DefaultOption()
	option.TimeMax = 5
	option.IterationMax = 1

	_, err = Solve(context.Background(), model, option)
	require.NoError(t, err)

	_, err = Solve(context.Background(), model, option)
	assert.ErrorIs(t, err, ErrAlreadySolved)
}

func TestSolveNoDecisionVariables(t *testing.T) {
	model := NewModel("empty")
	_, err := Solve(context.Background(), model, DefaultOption())
	assert.ErrorIs(t, err, ErrNoDecisionVariables)
}

func TestSolveTargetObjective(t *testing.T) {
	model := NewModel("target")
	x, err := model.NewVariables("x", 10, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	target := 2.0
	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 100
	option.TargetObjectiveValue = &target

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.True(t, result.Solution.IsFeasible)
	assert.LessOrEqual(t, result.Solution.Objective, 2.0)
	// The target cuts the outer loop short.
	assert.Less(t, result.Status.NumberOfTabuSearchLoops, 100)
}

func TestSolveEndOfPhaseCallback(t *testing.T) {
	model := NewModel("callback")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	calls := 0
	model.RegisterCallback(func() error {
		calls++
		return nil
	})

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 3

	_, err = Solve(context.Background(), model, option)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestSolveCallbackErrorSurfaces(t *testing.T) {
	model := NewModel("callback-error")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())
	model.RegisterCallback(func() error { return assert.AnError })

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 10

	result, err := Solve(context.Background(), model, option)
	assert.ErrorIs(t, err, ErrUserCallback)
	// The partial result is still populated.
	assert.True(t, result.Solution.IsFeasible)
	assert.Equal(t, 1, result.Status.NumberOfTabuSearchLoops)
}

func TestSolveWithLagrangeDual(t *testing.T) {
	weights := []float64{3, 5, 7, 9}

	model := NewModel("lagrange")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("capacity", x.Dot(weights).LessEqual(12))
	require.NoError(t, err)
	model.Maximize(x.Dot(weights))

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 20
	option.IsEnabledLagrangeDual = true
	option.LagrangeDual.IterationMax = 50

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.Positive(t, result.Status.NumberOfLagrangeDualIterations)
	assert.True(t, result.Solution.IsFeasible)
	assert.Equal(t, 12.0, result.Solution.Objective)
}

func TestSolveLagrangeDualSkippedForSelections(t *testing.T) {
	model := NewModel("lagrange-skip")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("partition", x.Selection())
	require.NoError(t, err)
	costs := []float64{0, 1, 2, 3}
	model.Minimize(x.Dot(costs))

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 5
	option.IsEnabledLagrangeDual = true
	option.SelectionMode = SelectionModeDefined

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)
	assert.Zero(t, result.Status.NumberOfLagrangeDualIterations)
}

func TestSolveWithLocalSearch(t *testing.T) {
	model := NewModel("localsearch")
	x, err := model.NewVariables("x", 6, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(2))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 10
	option.IsEnabledLocalSearch = true

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.Positive(t, result.Status.NumberOfLocalSearchIterations)
	assert.True(t, result.Solution.IsFeasible)
	assert.Equal(t, 2.0, result.Solution.Objective)
}

func TestSolveCollectsFeasibleSolutions(t *testing.T) {
	model := NewModel("history")
	x, err := model.NewVariables("x", 5, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 5
	option.HistoricalDataCapacity = 8

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)

	assert.NotEmpty(t, result.History.FeasibleSolutions)
	assert.LessOrEqual(t, len(result.History.FeasibleSolutions), 8)
	for _, s := range result.History.FeasibleSolutions {
		assert.True(t, s.IsFeasible)
	}
}

func TestSolveWithCallbackReachesKnapsackOptimum(t *testing.T) {
	model := NewModel("monotone")
	x, err := model.NewVariables("x", 8, 0, 1)
	require.NoError(t, err)
	weights := []float64{2, 3, 5, 7, 2, 3, 5, 7}
	_, err = model.NewConstraint("capacity", x.Dot(weights).LessEqual(10))
	require.NoError(t, err)
	model.Maximize(x.Dot(weights))

	best := -1.0
	model.RegisterCallback(func() error { return nil })

	option := DefaultOption()
	option.TimeMax = 10
	option.IterationMax = 20

	result, err := Solve(context.Background(), model, option)
	require.NoError(t, err)
	require.True(t, result.Solution.IsFeasible)
	assert.GreaterOrEqual(t, result.Solution.Objective, best)
	assert.Equal(t, 10.0, result.Solution.Objective)
}
