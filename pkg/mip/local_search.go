package mip

import "context"

// LocalSearchResult is what the warm-start descent hands back.
type LocalSearchResult struct {
	IncumbentHolder   *IncumbentHolder
	TotalUpdateStatus int

	NumberOfIterations int
}

// localSearch is the optional warm-start phase: best-improvement descent
// under the same augmented scoring as the tabu phases, without any tabu
// restriction. It stops at the first iteration with no strictly improving
// candidate or on its budget.
func localSearch(ctx context.Context, m *Model, option *Option,
	localPenalties, globalPenalties []ValueProxy[float64],
	initialValues []ValueProxy[int64],
	incumbentHolder *IncumbentHolder, memory *Memory,
	timeKeeper *TimeKeeper) (LocalSearchResult, error) {

	result := LocalSearchResult{IncumbentHolder: incumbentHolder}

	m.ImportVariableValues(initialValues)
	m.Update()

	score := m.Evaluate(&Move{}, localPenalties, globalPenalties)
	result.TotalUpdateStatus |= incumbentHolder.TryUpdateFromModel(m, score)

	var scores []SolutionScore
	for iteration := 0; iteration < option.LocalSearch.IterationMax; iteration++ {
		if ctx.Err() != nil {
			break
		}
		elapsed := timeKeeper.Clock()
		if elapsed > option.TimeMax ||
			elapsed-option.LocalSearch.TimeOffset > option.LocalSearch.TimeMax {
			break
		}
		result.NumberOfIterations = iteration + 1

		moves, err := m.neighborhood.GenerateMoves()
		if err != nil {
			return result, err
		}
		if option.IsEnabledImprovabilityScreening {
			kept := moves[:0]
			for _, move := range moves {
				if m.IsMoveImprovable(move) {
					kept = append(kept, move)
				}
			}
			moves = kept
		}
		if len(moves) == 0 {
			break
		}

		if cap(scores) < len(moves) {
			scores = make([]SolutionScore, len(moves))
		}
		scores = scores[:len(moves)]
		for i, move := range moves {
			if m.isEnabledFastEvaluation {
				scores[i] = m.EvaluateDelta(move, &score, localPenalties, globalPenalties)
			} else {
				scores[i] = m.Evaluate(move, localPenalties, globalPenalties)
			}
		}

		selected := -1
		for i := range moves {
			if scores[i].LocalAugmentedObjective >= score.LocalAugmentedObjective {
				continue
			}
			if selected < 0 ||
				scores[i].LocalAugmentedObjective < scores[selected].LocalAugmentedObjective ||
				(scores[i].LocalAugmentedObjective == scores[selected].LocalAugmentedObjective &&
					scores[i].TotalViolation < scores[selected].TotalViolation) {
				selected = i
			}
		}
		if selected < 0 {
			break
		}

		move := moves[selected]
		m.ApplyMove(move)
		score = scores[selected]
		memory.Update(move, iteration)
		result.TotalUpdateStatus |= incumbentHolder.TryUpdateFromModel(m, score)
	}

	return result, nil
}
