package mip

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTabuPhase(t *testing.T, model *Model, option *Option) TabuSearchResult {
	t.Helper()
	local := GenerateConstraintParameterProxies(model, option.InitialPenaltyCoefficient)
	global := cloneProxies(local)
	memory := NewMemory(model)
	holder := NewIncumbentHolder()

	model.Update()
	solution := model.ExportSolution()
	holder.TryUpdate(&solution, model.Evaluate(&Move{}, local, global), model.Sign())

	result, err := tabuSearch(context.Background(), model, option,
		local, global, solution.VariableValueProxies, holder, memory, nil, NewTimeKeeper())
	require.NoError(t, err)
	return result
}

func TestTabuSearchFindsFeasibleSolution(t *testing.T) {
	model := NewModel("test")
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
	option.IsEnabledPresolve = false
	option.IsEnabledParallelNeighborhoodUpdate = false
	require.NoError(t, model.Setup(option, nil))
	model.Neighborhood().EnableBinaryMove()

	result := runTabuPhase(t, model, option)

	assert.True(t, result.IncumbentHolder.IsFoundFeasibleSolution())
	assert.Equal(t, 0.0, result.IncumbentHolder.FeasibleIncumbentObjective())
}

func TestTabuSearchEarlyStopsWithoutCandidates(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("limit", NewExpression().Term(1, x).LessEqual(1))
	require.NoError(t, err)
	model.Minimize(NewExpression().Term(1, x))

	option := DefaultOption()
	option.IsEnabledPresolve = false
	option.IsEnabledParallelNeighborhoodUpdate = false
	option.TabuSearch.IterationMax = 50
	require.NoError(t, model.Setup(option, nil))
	model.Neighborhood().EnableBinaryMove()

	// The start point is the optimum: the only move worsens the objective
	// and no constraint is violated, so screening leaves nothing and the
	// phase early-stops immediately.
	result := runTabuPhase(t, model, option)

	assert.True(t, result.IsEarlyStopped)
	assert.True(t, result.IncumbentHolder.IsFoundFeasibleSolution())
	assert.Less(t, result.NumberOfIterations, 50)
}

func TestTabuSearchWithShortTenureFindsFeasibleSolution(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 6, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cardinality", x.Sum().EqualTo(3))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	option := DefaultOption()
	option.IsEnabledPresolve = false
	option.IsEnabledParallelNeighborhoodUpdate = false
	option.TabuSearch.InitialTabuTenure = 3
	option.TabuSearch.IterationMax = 30
	require.NoError(t, model.Setup(option, nil))
	model.Neighborhood().EnableBinaryMove()

	result := runTabuPhase(t, model, option)
	assert.True(t, result.IncumbentHolder.IsFoundFeasibleSolution())
}

func TestTabuSearchInitialModification(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 8, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	option := DefaultOption()
	option.IsEnabledPresolve = false
	option.IsEnabledParallelNeighborhoodUpdate = false
	option.TabuSearch.NumberOfInitialModification = 3
	option.TabuSearch.IterationMax = 20
	require.NoError(t, model.Setup(option, nil))
	model.Neighborhood().EnableBinaryMove()

	result := runTabuPhase(t, model, option)
	assert.True(t, result.IncumbentHolder.IsFoundFeasibleSolution())
}

func TestTabuSearchUserCallbackError(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 2, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())
	model.RegisterMoveUpdater(func(moves *[]Move) error {
		return assert.AnError
	})

	option := DefaultOption()
	option.IsEnabledPresolve = false
	option.IsEnabledParallelNeighborhoodUpdate = false
	option.IsEnabledUserDefinedMove = true
	require.NoError(t, model.Setup(option, nil))
	model.Neighborhood().EnableUserDefinedMove()

	local := GenerateConstraintParameterProxies(model, option.InitialPenaltyCoefficient)
	global := cloneProxies(local)
	memory := NewMemory(model)
	holder := NewIncumbentHolder()
	model.Update()
	solution := model.ExportSolution()
	holder.TryUpdate(&solution, model.Evaluate(&Move{}, local, global), model.Sign())

	_, err = tabuSearch(context.Background(), model, option,
		local, global, solution.VariableValueProxies, holder, memory, nil, NewTimeKeeper())
	assert.ErrorIs(t, err, ErrUserCallback)
}

func TestTabuSearchCancelledContext(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	option := DefaultOption()
	option.IsEnabledPresolve = false
	option.IsEnabledParallelNeighborhoodUpdate = false
	option.TabuSearch.TimeCheckInterval = 1
	require.NoError(t, model.Setup(option, nil))
	model.Neighborhood().EnableBinaryMove()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	local := GenerateConstraintParameterProxies(model, option.InitialPenaltyCoefficient)
	global := cloneProxies(local)
	memory := NewMemory(model)
	holder := NewIncumbentHolder()
	model.Update()
	solution := model.ExportSolution()
	holder.TryUpdate(&solution, model.Evaluate(&Move{}, local, global), model.Sign())

	result, err := tabuSearch(ctx, model, option,
		local, global, solution.VariableValueProxies, holder, memory, nil, NewTimeKeeper())
	require.NoError(t, err)
	assert.Equal(t, 0, result.NumberOfIterations)
}
