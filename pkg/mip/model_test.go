package mip

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCreateVariables(t *testing.T) {
	model := NewModel("test")

	x, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, VariableSenseBinary, x.Sense())

	y, err := model.NewVariables("y", 10, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, y.NumberOfElements())

	z, err := model.NewVariablesWithShape("z", []int{20, 30}, -10, 10)
	require.NoError(t, err)
	assert.Equal(t, 600, z.NumberOfElements())
	assert.Equal(t, VariableSenseInteger, z.At(0, 0).Sense())

	assert.Equal(t, 1+10+600, model.NumberOfVariables())
}

func TestModelInvalidNames(t *testing.T) {
	model := NewModel("test")

	_, err := model.NewVariable("bad name", 0, 1)
	assert.Error(t, err)

	_, err = model.NewVariable("", 0, 1)
	assert.Error(t, err)

	_, err = model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	_, err = model.NewVariable("x", 0, 1)
	assert.Error(t, err)
}

func TestModelProxyCapacity(t *testing.T) {
	model := NewModel("test")
	for i := 0; i < MaxNumberOfProxies; i++ {
		_, err := model.NewVariable(fmt.Sprintf("x%d", i), 0, 1)
		require.NoError(t, err)
	}
	_, err := model.NewVariable("overflow", 0, 1)
	assert.Error(t, err)
}

func TestModelInvalidBounds(t *testing.T) {
	model := NewModel("test")
	_, err := model.NewVariable("x", 5, 3)
	assert.Error(t, err)
}

func TestSetupRequiresVariables(t *testing.T) {
	model := NewModel("test")
	err := model.Setup(DefaultOption(), nil)
	assert.ErrorIs(t, err, ErrNoDecisionVariables)
}

func TestSetupUniqueNames(t *testing.T) {
	model := NewModel("test")
	_, err := model.NewVariable("s", 0, 1)
	require.NoError(t, err)
	x, err := model.NewVariables("x", 3, 0, 1)
	require.NoError(t, err)

	require.NoError(t, model.Setup(DefaultOption(), nil))
	assert.Equal(t, "s", model.variableProxies[0].variables[0].Name())
	assert.Equal(t, "x[2]", x.At(2).Name())
}

func TestPresolve(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 10, -10, 10)
	require.NoError(t, err)
	model.Minimize(x.Sum())

	g0, err := model.NewConstraint("g_0", NewExpression().Term(2, x.At(0)).EqualTo(4))
	require.NoError(t, err)
	g1, err := model.NewConstraint("g_1", NewExpression().Term(3, x.At(1)).LessEqual(10))
	require.NoError(t, err)
	g2, err := model.NewConstraint("g_2", NewExpression().Term(8, x.At(1)).GreaterEqual(20))
	require.NoError(t, err)
	g3, err := model.NewConstraint("g_3",
		NewExpression().Term(1, x.At(1)).Term(1, x.At(2)).Constant(1).EqualTo(8))
	require.NoError(t, err)

	require.NoError(t, model.Setup(DefaultOption(), nil))

	assert.Equal(t, 10, model.NumberOfFixedVariables())
	assert.Equal(t, 4, model.NumberOfDisabledConstraints())

	assert.True(t, x.At(0).IsFixed())
	assert.Equal(t, int64(2), x.At(0).Value())
	assert.True(t, x.At(1).IsFixed())
	assert.Equal(t, int64(3), x.At(1).Value())
	assert.True(t, x.At(2).IsFixed())
	assert.Equal(t, int64(4), x.At(2).Value())
	for i := 3; i < 10; i++ {
		assert.True(t, x.At(i).IsFixed())
		assert.Equal(t, int64(-10), x.At(i).Value())
	}
	for _, c := range []*Constraint{g0, g1, g2, g3} {
		assert.False(t, c.IsEnabled())
	}
}

func TestPresolveIndependentVariables(t *testing.T) {
	cases := []struct {
		minimize bool
		negate   bool
		expected int64
	}{
		{true, false, 0},
		{false, false, 1},
		{true, true, 1},
		{false, true, 0},
	}
	for _, tc := range cases {
		model := NewModel("test")
		x, err := model.NewVariables("x", 10, 0, 1)
		require.NoError(t, err)
		objective := x.Sum()
		if tc.negate {
			objective = NewExpression()
			for _, v := range x.Variables() {
				objective.Term(-1, v)
			}
		}
		if tc.minimize {
			model.Minimize(objective)
		} else {
			model.Maximize(objective)
		}

		require.NoError(t, model.Setup(DefaultOption(), nil))
		assert.Equal(t, 10, model.NumberOfFixedVariables())
		for i := 0; i < 10; i++ {
			assert.Equal(t, tc.expected, x.At(i).Value())
		}
	}
}

func TestPresolveInfeasible(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("impossible", NewExpression().Term(2, x).EqualTo(5))
	require.NoError(t, err)
	model.Minimize(NewExpression().Term(1, x))

	err = model.Setup(DefaultOption(), nil)
	assert.ErrorIs(t, err, ErrInfeasibleBySetup)
}

func TestImplicitFixedVariables(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 10, -10, 10)
	require.NoError(t, err)
	require.NoError(t, x.At(0).SetBound(5, 5))
	model.Minimize(x.Sum())
	_, err = model.NewConstraint("g", x.Sum().LessEqual(100))
	require.NoError(t, err)

	require.NoError(t, model.Setup(DefaultOption(), nil))
	assert.True(t, x.At(0).IsFixed())
	assert.Equal(t, int64(5), x.At(0).Value())
}

func TestInitialValueCorrection(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", 0, 5)
	require.NoError(t, err)
	require.NoError(t, x.SetValue(9))
	_, err = model.NewConstraint("g", NewExpression().Term(1, x).LessEqual(5))
	require.NoError(t, err)

	option := DefaultOption()
	option.IsEnabledPresolve = false
	require.NoError(t, model.Setup(option, nil))
	assert.Equal(t, int64(5), x.Value())
}

func TestInitialValueCorrectionDisabled(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariable("x", 0, 5)
	require.NoError(t, err)
	require.NoError(t, x.SetValue(9))
	_, err = model.NewConstraint("g", NewExpression().Term(1, x).LessEqual(5))
	require.NoError(t, err)

	option := DefaultOption()
	option.IsEnabledPresolve = false
	option.IsEnabledInitialValueCorrection = false
	err = model.Setup(option, nil)
	assert.ErrorIs(t, err, ErrInconsistentInitialValue)
}

func TestUpdateMatchesIncrementalCaches(t *testing.T) {
	model, x := buildLinearTestModel(t)

	option := DefaultOption()
	option.IsEnabledPresolve = false
	require.NoError(t, model.Setup(option, nil))

	moves := []Move{
		{Alterations: []Alteration{{Variable: x.At(0), Value: 1}}},
		{Alterations: []Alteration{{Variable: x.At(1), Value: 1}, {Variable: x.At(2), Value: 1}}},
		{Alterations: []Alteration{{Variable: x.At(0), Value: 0}, {Variable: x.At(3), Value: 1}}},
	}
	for i := range moves {
		model.ApplyMove(&moves[i])

		cached := make([]float64, 0, len(model.Constraints()))
		for _, c := range model.Constraints() {
			cached = append(cached, c.Value())
		}
		objective := model.ObjectiveValue()

		model.Update()
		for j, c := range model.Constraints() {
			assert.InDelta(t, c.Value(), cached[j], 1e-9)
		}
		assert.InDelta(t, model.ObjectiveValue(), objective, 1e-9)
	}
}

func TestApplyInverseRestoresCaches(t *testing.T) {
	model, x := buildLinearTestModel(t)
	option := DefaultOption()
	option.IsEnabledPresolve = false
	require.NoError(t, model.Setup(option, nil))

	before := make([]float64, 0)
	for _, c := range model.Constraints() {
		before = append(before, c.Value())
	}
	objectiveBefore := model.ObjectiveValue()

	move := Move{Alterations: []Alteration{
		{Variable: x.At(0), Value: 1},
		{Variable: x.At(1), Value: 1},
	}}
	inverse := move.Inverse()
	model.ApplyMove(&move)
	model.ApplyMove(&inverse)

	for i, c := range model.Constraints() {
		assert.InDelta(t, before[i], c.Value(), 1e-9)
	}
	assert.InDelta(t, objectiveBefore, model.ObjectiveValue(), 1e-9)
}

func TestExportImportRoundTrip(t *testing.T) {
	model, x := buildLinearTestModel(t)
	option := DefaultOption()
	option.IsEnabledPresolve = false
	require.NoError(t, model.Setup(option, nil))

	move := Move{Alterations: []Alteration{
		{Variable: x.At(0), Value: 1},
		{Variable: x.At(4), Value: 1},
	}}
	model.ApplyMove(&move)
	exported := model.ExportSolution()

	// Perturb, then re-import the snapshot.
	perturb := Move{Alterations: []Alteration{{Variable: x.At(2), Value: 1}}}
	model.ApplyMove(&perturb)

	model.ImportVariableValues(exported.VariableValueProxies)
	model.Update()
	restored := model.ExportSolution()

	assert.True(t, equalProxies(exported.VariableValueProxies, restored.VariableValueProxies))
	assert.InDelta(t, exported.Objective, restored.Objective, 1e-9)
	assert.InDelta(t, exported.TotalViolation, restored.TotalViolation, 1e-9)
}

func TestConvertToNamedSolution(t *testing.T) {
	model, _ := buildLinearTestModel(t)
	option := DefaultOption()
	option.IsEnabledPresolve = false
	require.NoError(t, model.Setup(option, nil))

	solution := model.ExportSolution()
	named := model.ConvertToNamedSolution(&solution)

	assert.Equal(t, "linear", named.Name)
	assert.Contains(t, named.VariableValues, "x")
	assert.Contains(t, named.ConstraintValues, "budget")
	assert.Contains(t, named.ViolationValues, "budget")
}

func TestAlreadySolvedGuard(t *testing.T) {
	model := NewModel("test")
	_, err := model.NewVariable("x", 0, 1)
	require.NoError(t, err)
	model.Minimize(NewExpression())

	require.NoError(t, model.markSolved())
	assert.ErrorIs(t, model.markSolved(), ErrAlreadySolved)
}

// buildLinearTestModel creates a small knapsack-like model used by several
// kernel tests: 10 binaries, one capacity constraint, one covering
// constraint, and a registered expression.
func buildLinearTestModel(t *testing.T) (*Model, *VariableProxy) {
	t.Helper()
	model := NewModel("linear")
	x, err := model.NewVariables("x", 10, 0, 1)
	require.NoError(t, err)

	weights := make([]float64, 10)
	for i := range weights {
		weights[i] = float64(i + 1)
	}
	_, err = model.NewConstraint("budget", x.Dot(weights).LessEqual(12))
	require.NoError(t, err)
	_, err = model.NewConstraint("cover", x.Sum().GreaterEqual(1))
	require.NoError(t, err)

	total, err := model.NewExpression("total")
	require.NoError(t, err)
	total.Add(x.Sum())

	model.Minimize(x.Dot(weights))
	return model, x
}
