package mip

import (
	"context"
	"math"
)

// LagrangeDualResult is what the subgradient bootstrap hands back.
type LagrangeDualResult struct {
	IncumbentHolder   *IncumbentHolder
	TotalUpdateStatus int

	NumberOfIterations int
	DualBound          float64
}

// lagrangeDual runs subgradient ascent on the Lagrangian relaxation to seed
// the primal search with a good starting point. It applies only to linear
// models without selections: each iteration sets every unfixed variable to
// the bound minimizing its reduced cost, offers the resulting point to the
// incumbent holder, and steps the multipliers along the constraint values.
// Multipliers stay inside the sign range of their sense, capped by the local
// penalty coefficients.
func lagrangeDual(ctx context.Context, m *Model, option *Option,
	localPenalties, globalPenalties []ValueProxy[float64],
	initialValues []ValueProxy[int64],
	incumbentHolder *IncumbentHolder,
	timeKeeper *TimeKeeper) (LagrangeDualResult, error) {

	result := LagrangeDualResult{
		IncumbentHolder: incumbentHolder,
		DualBound:       math.Inf(-1),
	}

	m.ImportVariableValues(initialValues)
	m.Update()

	multipliers := GenerateConstraintParameterProxies(m, 0.0)
	sign := m.Sign()
	stepSize := 1.0 / float64(len(m.constraintsFlat)+1)
	bestBound := math.Inf(-1)

	for iteration := 0; iteration < option.LagrangeDual.IterationMax; iteration++ {
		if ctx.Err() != nil {
			break
		}
		elapsed := timeKeeper.Clock()
		if elapsed > option.TimeMax ||
			elapsed-option.LagrangeDual.TimeOffset > option.LagrangeDual.TimeMax {
			break
		}
		result.NumberOfIterations = iteration + 1

		// Primal step: minimize each variable's reduced cost independently.
		for _, v := range m.variablesFlat {
			if v.isFixed {
				continue
			}
			reducedCost := sign * v.objectiveSensitivity
			for i := range v.related {
				c := v.related[i].constraint
				if !c.isEnabled {
					continue
				}
				reducedCost += multipliers[c.proxyID].values[c.flatIndex] * v.related[i].coefficient
			}
			switch {
			case reducedCost > 0:
				v.setValueForce(v.lower)
			case reducedCost < 0:
				v.setValueForce(v.upper)
			}
		}
		m.Update()

		score := m.Evaluate(&Move{}, localPenalties, globalPenalties)
		result.TotalUpdateStatus |= incumbentHolder.TryUpdateFromModel(m, score)

		// Dual bound and step-size control.
		bound := sign * m.objectiveValue
		for _, c := range m.constraintsFlat {
			if c.isEnabled {
				bound += multipliers[c.proxyID].values[c.flatIndex] * c.value
			}
		}
		result.DualBound = math.Max(result.DualBound, bound)
		if bound > bestBound+option.LagrangeDual.Tolerance {
			stepSize *= option.LagrangeDual.StepSizeExtendRate
		} else {
			stepSize *= option.LagrangeDual.StepSizeReduceRate
		}
		bestBound = math.Max(bestBound, bound)

		// Dual step: move multipliers along the subgradient, projected onto
		// the sign range of each sense and capped by the local penalties.
		largestChange := 0.0
		for _, c := range m.constraintsFlat {
			if !c.isEnabled {
				continue
			}
			mu := &multipliers[c.proxyID].values[c.flatIndex]
			limit := localPenalties[c.proxyID].values[c.flatIndex]
			next := *mu + stepSize*c.value
			switch c.sense {
			case SenseLess:
				next = math.Min(math.Max(next, 0), limit)
			case SenseGreater:
				next = math.Max(math.Min(next, 0), -limit)
			default:
				next = math.Min(math.Max(next, -limit), limit)
			}
			largestChange = math.Max(largestChange, math.Abs(next-*mu))
			*mu = next
		}
		if largestChange < option.LagrangeDual.Tolerance {
			break
		}
	}

	return result, nil
}
