package mip

import "math"

// Update-status bits returned by IncumbentHolder.TryUpdate. The controller
// reads the mask to drive penalty, tenure, and neighborhood adaptation.
const (
	StatusNoUpdate                       = 0
	StatusLocalAugmentedIncumbentUpdate  = 1
	StatusGlobalAugmentedIncumbentUpdate = 2
	StatusFeasibleIncumbentUpdate        = 4
)

// IncumbentHolder tracks the three best solutions seen: the best
// local-augmented (phase-scoped; the controller resets it between phases),
// the best global-augmented, and the best strictly feasible. All internal
// comparisons are on minimization-form values so the holder works for either
// optimization direction.
type IncumbentHolder struct {
	foundFeasibleSolution bool

	localAugmentedIncumbentSolution  Solution
	globalAugmentedIncumbentSolution Solution
	feasibleIncumbentSolution        Solution

	localAugmentedIncumbentObjective  float64
	globalAugmentedIncumbentObjective float64
	feasibleIncumbentObjective        float64

	localAugmentedIncumbentScore  SolutionScore
	globalAugmentedIncumbentScore SolutionScore
	feasibleIncumbentScore        SolutionScore
}

// NewIncumbentHolder returns a holder with all incumbents unset.
func NewIncumbentHolder() *IncumbentHolder {
	return &IncumbentHolder{
		localAugmentedIncumbentObjective:  math.Inf(1),
		globalAugmentedIncumbentObjective: math.Inf(1),
		feasibleIncumbentObjective:        math.Inf(1),
	}
}

// Clone returns an independent copy; the controller hands phase holders to
// searches this way.
func (h *IncumbentHolder) Clone() *IncumbentHolder {
	clone := *h
	clone.localAugmentedIncumbentSolution = cloneSolution(&h.localAugmentedIncumbentSolution)
	clone.globalAugmentedIncumbentSolution = cloneSolution(&h.globalAugmentedIncumbentSolution)
	clone.feasibleIncumbentSolution = cloneSolution(&h.feasibleIncumbentSolution)
	return &clone
}

func cloneSolution(s *Solution) Solution {
	return Solution{
		VariableValueProxies:   cloneProxies(s.VariableValueProxies),
		ExpressionValueProxies: cloneProxies(s.ExpressionValueProxies),
		ConstraintValueProxies: cloneProxies(s.ConstraintValueProxies),
		ViolationValueProxies:  cloneProxies(s.ViolationValueProxies),
		Objective:              s.Objective,
		TotalViolation:         s.TotalViolation,
		IsFeasible:             s.IsFeasible,
	}
}

// TryUpdate offers a solution with its score and returns the bitmask of
// incumbents it improved. The feasible incumbent compares sign-adjusted
// objectives so that smaller is better for both directions.
func (h *IncumbentHolder) TryUpdate(solution *Solution, score SolutionScore, sign float64) int {
	status := StatusNoUpdate

	if score.LocalAugmentedObjective < h.localAugmentedIncumbentObjective {
		status += StatusLocalAugmentedIncumbentUpdate
		h.localAugmentedIncumbentSolution = cloneSolution(solution)
		h.localAugmentedIncumbentScore = score
		h.localAugmentedIncumbentObjective = score.LocalAugmentedObjective
	}

	if score.GlobalAugmentedObjective < h.globalAugmentedIncumbentObjective {
		status += StatusGlobalAugmentedIncumbentUpdate
		h.globalAugmentedIncumbentSolution = cloneSolution(solution)
		h.globalAugmentedIncumbentScore = score
		h.globalAugmentedIncumbentObjective = score.GlobalAugmentedObjective
	}

	if score.IsFeasible {
		h.foundFeasibleSolution = true
		if sign*score.Objective < h.feasibleIncumbentObjective {
			status += StatusFeasibleIncumbentUpdate
			h.feasibleIncumbentSolution = cloneSolution(solution)
			h.feasibleIncumbentScore = score
			h.feasibleIncumbentObjective = sign * score.Objective
		}
	}
	return status
}

// TryUpdateFromModel offers the model's current state, exporting a snapshot
// only when at least one incumbent actually improves.
func (h *IncumbentHolder) TryUpdateFromModel(m *Model, score SolutionScore) int {
	sign := m.Sign()
	needsExport := score.LocalAugmentedObjective < h.localAugmentedIncumbentObjective ||
		score.GlobalAugmentedObjective < h.globalAugmentedIncumbentObjective ||
		(score.IsFeasible && sign*score.Objective < h.feasibleIncumbentObjective)
	if score.IsFeasible {
		h.foundFeasibleSolution = true
	}
	if !needsExport {
		return StatusNoUpdate
	}
	solution := m.ExportSolution()
	return h.TryUpdate(&solution, score, sign)
}

// ResetLocalAugmentedIncumbent forgets the phase-scoped incumbent so the next
// phase competes from scratch.
func (h *IncumbentHolder) ResetLocalAugmentedIncumbent() {
	h.localAugmentedIncumbentObjective = math.Inf(1)
}

// IsFoundFeasibleSolution reports whether any feasible solution was seen.
func (h *IncumbentHolder) IsFoundFeasibleSolution() bool { return h.foundFeasibleSolution }

// LocalAugmentedIncumbentSolution returns the phase-scoped incumbent.
func (h *IncumbentHolder) LocalAugmentedIncumbentSolution() *Solution {
	return &h.localAugmentedIncumbentSolution
}

// GlobalAugmentedIncumbentSolution returns the best global-augmented solution.
func (h *IncumbentHolder) GlobalAugmentedIncumbentSolution() *Solution {
	return &h.globalAugmentedIncumbentSolution
}

// FeasibleIncumbentSolution returns the best feasible solution.
func (h *IncumbentHolder) FeasibleIncumbentSolution() *Solution {
	return &h.feasibleIncumbentSolution
}

// LocalAugmentedIncumbentObjective returns the phase incumbent's augmented
// objective in minimization form.
func (h *IncumbentHolder) LocalAugmentedIncumbentObjective() float64 {
	return h.localAugmentedIncumbentObjective
}

// GlobalAugmentedIncumbentObjective returns the global incumbent's augmented
// objective in minimization form.
func (h *IncumbentHolder) GlobalAugmentedIncumbentObjective() float64 {
	return h.globalAugmentedIncumbentObjective
}

// FeasibleIncumbentObjective returns the feasible incumbent's objective in
// minimization form.
func (h *IncumbentHolder) FeasibleIncumbentObjective() float64 {
	return h.feasibleIncumbentObjective
}

// LocalAugmentedIncumbentScore returns the phase incumbent's score.
func (h *IncumbentHolder) LocalAugmentedIncumbentScore() SolutionScore {
	return h.localAugmentedIncumbentScore
}

// GlobalAugmentedIncumbentScore returns the global incumbent's score.
func (h *IncumbentHolder) GlobalAugmentedIncumbentScore() SolutionScore {
	return h.globalAugmentedIncumbentScore
}

// FeasibleIncumbentScore returns the feasible incumbent's score.
func (h *IncumbentHolder) FeasibleIncumbentScore() SolutionScore {
	return h.feasibleIncumbentScore
}
