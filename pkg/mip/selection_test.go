package mip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionExtractionDefined(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	y, err := model.NewVariables("y", 4, 0, 1)
	require.NoError(t, err)

	_, err = model.NewConstraint("defined", x.Selection())
	require.NoError(t, err)
	_, err = model.NewConstraint("plain", y.Sum().EqualTo(1))
	require.NoError(t, err)
	model.Minimize(x.Sum().Add(y.Sum()))

	setupModel(t, model, func(o *Option) { o.SelectionMode = SelectionModeDefined })

	require.Len(t, model.Selections(), 1)
	assert.Equal(t, 4, model.NumberOfSelectionVariables())
	assert.Equal(t, VariableSenseSelection, x.At(0).Sense())
	assert.Equal(t, VariableSenseBinary, y.At(0).Sense())
	assert.False(t, model.Selections()[0].Constraint().IsEnabled())

	// Exactly one member selected after setup.
	ones := 0
	for _, v := range x.Variables() {
		if v.Value() == 1 {
			ones++
		}
	}
	assert.Equal(t, 1, ones)
	assert.NotNil(t, model.Selections()[0].Selected())
}

func TestSelectionExtractionIndependent(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	y, err := model.NewVariables("y", 4, 0, 1)
	require.NoError(t, err)

	// The x group overlaps another set-partitioning constraint, the y group
	// does not.
	overlap := NewExpression().Term(1, x.At(0)).Term(1, x.At(1)).Term(1, x.At(2))
	_, err = model.NewConstraint("overlap", overlap.EqualTo(1))
	require.NoError(t, err)
	_, err = model.NewConstraint("x_partition", x.Sum().EqualTo(1))
	require.NoError(t, err)
	_, err = model.NewConstraint("y_partition", y.Sum().EqualTo(1))
	require.NoError(t, err)
	model.Minimize(x.Sum().Add(y.Sum()))

	setupModel(t, model, func(o *Option) { o.SelectionMode = SelectionModeIndependent })

	require.Len(t, model.Selections(), 1)
	assert.Equal(t, VariableSenseSelection, y.At(0).Sense())
	assert.Equal(t, VariableSenseBinary, x.At(0).Sense())
}

func TestSelectionExtractionLarger(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 6, 0, 1)
	require.NoError(t, err)

	small := NewExpression().Term(1, x.At(0)).Term(1, x.At(1)).Term(1, x.At(2))
	_, err = model.NewConstraint("small", small.EqualTo(1))
	require.NoError(t, err)
	_, err = model.NewConstraint("large", x.Sum().EqualTo(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	setupModel(t, model, func(o *Option) { o.SelectionMode = SelectionModeLarger })

	// The larger constraint wins; the smaller overlaps it and is skipped.
	require.Len(t, model.Selections(), 1)
	assert.Len(t, model.Selections()[0].Variables(), 6)
}

func TestSelectionModeNone(t *testing.T) {
	model := NewModel("test")
	x, err := model.NewVariables("x", 4, 0, 1)
	require.NoError(t, err)
	_, err = model.NewConstraint("partition", x.Sum().EqualTo(1))
	require.NoError(t, err)
	model.Minimize(x.Sum())

	setupModel(t, model, nil)

	assert.Empty(t, model.Selections())
	assert.Equal(t, 0, model.NumberOfSelectionVariables())
}
