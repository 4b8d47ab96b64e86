package mip

// Evaluator scores candidate moves against the model without mutating it.
// Each evaluator owns its scratch buffers, so several evaluators can score
// disjoint move sets concurrently over the same immutable model snapshot;
// the model keeps one for the serial path. Scratch arrays are sized to the
// constraint count at construction, so steady-state scoring allocates
// nothing.
type Evaluator struct {
	model *Model

	stamps  []int
	counter int
	deltas  []float64
	touched []*Constraint
}

// NewEvaluator returns an evaluator with fresh scratch buffers.
func (m *Model) NewEvaluator() *Evaluator {
	return &Evaluator{
		model:   m,
		stamps:  make([]int, len(m.constraintsFlat)),
		deltas:  make([]float64, len(m.constraintsFlat)),
		touched: make([]*Constraint, 0, len(m.constraintsFlat)),
	}
}

// stampTouched rebuilds the touched-constraint set for a move: either the
// move's precomputed related constraints, or the union of the altered
// variables' related-constraint indices. Linear expression deltas are
// accumulated per constraint along the way.
func (ev *Evaluator) stampTouched(move *Move) {
	ev.counter++
	ev.touched = ev.touched[:0]

	if move.RelatedConstraints != nil {
		for _, c := range move.RelatedConstraints {
			if !c.isEnabled {
				continue
			}
			ev.stamps[c.ordinal] = ev.counter
			ev.deltas[c.ordinal] = 0
			ev.touched = append(ev.touched, c)
		}
	}

	for i := range move.Alterations {
		alt := &move.Alterations[i]
		d := float64(alt.Value - alt.Variable.value)
		for j := range alt.Variable.related {
			rc := &alt.Variable.related[j]
			c := rc.constraint
			if !c.isEnabled {
				continue
			}
			if ev.stamps[c.ordinal] != ev.counter {
				if move.RelatedConstraints != nil {
					// The precomputed set bounds the touched set; skip
					// anything outside it.
					continue
				}
				ev.stamps[c.ordinal] = ev.counter
				ev.deltas[c.ordinal] = 0
				ev.touched = append(ev.touched, c)
			}
			ev.deltas[c.ordinal] += rc.coefficient * d
		}
	}
}

// Evaluate scores a move by full recomputation: every enabled constraint is
// re-evaluated under the move. This is the only valid path for nonlinear
// models; an empty move scores the current state.
func (ev *Evaluator) Evaluate(move *Move, localPenalties, globalPenalties []ValueProxy[float64]) SolutionScore {
	m := ev.model

	objective := 0.0
	if m.isDefinedObjective {
		objective = m.objective.Evaluate(move)
	}

	totalViolation := 0.0
	localPenalty := 0.0
	globalPenalty := 0.0
	isConstraintImprovable := false
	for _, c := range m.constraintsFlat {
		if !c.isEnabled {
			continue
		}
		_, violation := c.Evaluate(move)
		totalViolation += violation
		if violation < c.violation {
			isConstraintImprovable = true
		}
		localPenalty += localPenalties[c.proxyID].values[c.flatIndex] * violation
		globalPenalty += globalPenalties[c.proxyID].values[c.flatIndex] * violation
	}

	isObjectiveImprovable := true
	if m.isDefinedObjective && m.objective.IsLinear() {
		isObjectiveImprovable = m.Sign()*(objective-m.objectiveValue) < 0
	}

	return ev.finish(objective, totalViolation, localPenalty, globalPenalty,
		isObjectiveImprovable, isConstraintImprovable)
}

// EvaluateDelta scores a move as the baseline score plus the deltas of the
// constraints the move touches, avoiding work proportional to the constraint
// count. It requires fast evaluation (a fully linear model).
func (ev *Evaluator) EvaluateDelta(move *Move, base *SolutionScore,
	localPenalties, globalPenalties []ValueProxy[float64]) SolutionScore {
	m := ev.model

	objective := base.Objective
	isObjectiveImprovable := true
	if m.isDefinedObjective {
		delta := 0.0
		for i := range move.Alterations {
			alt := &move.Alterations[i]
			delta += alt.Variable.objectiveSensitivity * float64(alt.Value-alt.Variable.value)
		}
		objective += delta
		isObjectiveImprovable = m.Sign()*delta < 0
	}

	ev.stampTouched(move)

	totalViolation := base.TotalViolation
	localPenalty := base.LocalPenalty
	globalPenalty := base.GlobalPenalty
	for _, c := range ev.touched {
		newViolation := c.violationOf(c.value + ev.deltas[c.ordinal])
		dv := newViolation - c.violation
		if dv == 0 {
			continue
		}
		totalViolation += dv
		localPenalty += localPenalties[c.proxyID].values[c.flatIndex] * dv
		globalPenalty += globalPenalties[c.proxyID].values[c.flatIndex] * dv
	}

	return ev.finish(objective, totalViolation, localPenalty, globalPenalty,
		isObjectiveImprovable, totalViolation < base.TotalViolation)
}

func (ev *Evaluator) finish(objective, totalViolation, localPenalty, globalPenalty float64,
	isObjectiveImprovable, isConstraintImprovable bool) SolutionScore {
	sign := ev.model.Sign()
	return SolutionScore{
		Objective:                objective,
		TotalViolation:           totalViolation,
		LocalPenalty:             localPenalty,
		GlobalPenalty:            globalPenalty,
		LocalAugmentedObjective:  sign*objective + localPenalty,
		GlobalAugmentedObjective: sign*objective + globalPenalty,
		IsObjectiveImprovable:    isObjectiveImprovable,
		IsConstraintImprovable:   isConstraintImprovable,
		IsFeasible:               totalViolation <= epsilon,
	}
}

// Evaluate scores a move with the model's own evaluator. An empty move
// scores the current state.
func (m *Model) Evaluate(move *Move, localPenalties, globalPenalties []ValueProxy[float64]) SolutionScore {
	return m.eval.Evaluate(move, localPenalties, globalPenalties)
}

// EvaluateDelta scores a move incrementally against a baseline with the
// model's own evaluator.
func (m *Model) EvaluateDelta(move *Move, base *SolutionScore,
	localPenalties, globalPenalties []ValueProxy[float64]) SolutionScore {
	return m.eval.EvaluateDelta(move, base, localPenalties, globalPenalties)
}
