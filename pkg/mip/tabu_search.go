package mip

import (
	"context"
	"errors"
	"math/rand"

	"github.com/gitrdm/gomip/internal/parallel"
)

// TabuSearchResult is what one tabu phase hands back to the controller.
type TabuSearchResult struct {
	IncumbentHolder   *IncumbentHolder
	TotalUpdateStatus int

	NumberOfIterations                         int
	LastLocalAugmentedIncumbentUpdateIteration int
	IsEarlyStopped                             bool

	HistoricalFeasibleSolutions []PlainSolution
}

// tabuSearch runs one tabu phase: candidate generation, scoring, tabu and
// aspiration selection, apply, and memory bookkeeping. The phase owns the
// model exclusively; scoring borrows it immutably and only ApplyMove
// mutates. It terminates on its iteration budget, the time budgets, context
// cancellation, the target objective, the no-improvement window, or an
// all-tabu deadlock (early stop).
func tabuSearch(ctx context.Context, m *Model, option *Option,
	localPenalties, globalPenalties []ValueProxy[float64],
	initialValues []ValueProxy[int64],
	incumbentHolder *IncumbentHolder, memory *Memory,
	pool *parallel.WorkerPool, timeKeeper *TimeKeeper) (TabuSearchResult, error) {

	result := TabuSearchResult{
		IncumbentHolder: incumbentHolder,
		LastLocalAugmentedIncumbentUpdateIteration: -1,
	}

	rng := rand.New(rand.NewSource(option.TabuSearch.Seed))
	neighborhood := m.neighborhood

	m.ImportVariableValues(initialValues)
	m.Update()

	tenure := option.TabuSearch.InitialTabuTenure
	if notFixed := m.NumberOfNotFixedVariables(); tenure > notFixed {
		tenure = notFixed
	}
	if tenure < 1 {
		tenure = 1
	}

	applyInitialModification(m, option.TabuSearch.NumberOfInitialModification, memory, rng)

	score := m.Evaluate(&Move{}, localPenalties, globalPenalties)
	result.TotalUpdateStatus |= incumbentHolder.TryUpdateFromModel(m, score)
	collectFeasible(&result, m, option, score)

	// Per-worker evaluators keep parallel scoring free of shared scratch.
	var evaluators []*Evaluator
	useParallel := pool != nil && option.IsEnabledParallelNeighborhoodUpdate && m.isEnabledFastEvaluation
	if useParallel {
		evaluators = make([]*Evaluator, pool.MaxWorkers())
		for i := range evaluators {
			evaluators[i] = m.NewEvaluator()
		}
	}

	var scores []SolutionScore
	checkInterval := option.TabuSearch.TimeCheckInterval
	if checkInterval < 1 {
		checkInterval = 1
	}
	noImprovementCount := 0

	for iteration := 0; iteration < option.TabuSearch.IterationMax; iteration++ {
		if iteration%checkInterval == 0 {
			if ctx.Err() != nil {
				break
			}
			elapsed := timeKeeper.Clock()
			if elapsed > option.TimeMax ||
				elapsed-option.TabuSearch.TimeOffset > option.TabuSearch.TimeMax {
				break
			}
		}
		result.NumberOfIterations = iteration + 1

		moves, err := neighborhood.GenerateMoves()
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
			result.IsEarlyStopped = true
			break
		}

		if cap(scores) < len(moves) {
			scores = make([]SolutionScore, len(moves))
		}
		scores = scores[:len(moves)]

		if useParallel {
			err := pool.ForEach(ctx, len(moves), func(worker, i int) {
				scores[i] = evaluators[worker].EvaluateDelta(moves[i], &score, localPenalties, globalPenalties)
			})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break
				}
				return result, err
			}
		} else if m.isEnabledFastEvaluation {
			for i, move := range moves {
				scores[i] = m.EvaluateDelta(move, &score, localPenalties, globalPenalties)
			}
		} else {
			for i, move := range moves {
				scores[i] = m.Evaluate(move, localPenalties, globalPenalties)
			}
		}

		selected := -1
		for i, move := range moves {
			tabu := true
			for j := range move.Alterations {
				if iteration-memory.LastUpdateIteration(move.Alterations[j].Variable) >= tenure {
					tabu = false
					break
				}
			}
			if tabu {
				// Aspiration: a tabu move passes only by beating the best
				// global augmented objective ever seen.
				if scores[i].GlobalAugmentedObjective >=
					incumbentHolder.GlobalAugmentedIncumbentObjective() {
					continue
				}
			}
			if selected < 0 ||
				scores[i].LocalAugmentedObjective < scores[selected].LocalAugmentedObjective ||
				(scores[i].LocalAugmentedObjective == scores[selected].LocalAugmentedObjective &&
					scores[i].TotalViolation < scores[selected].TotalViolation) {
				selected = i
			}
		}

		if selected < 0 {
			result.IsEarlyStopped = true
			break
		}

		move := moves[selected]
		m.ApplyMove(move)
		score = scores[selected]

		status := incumbentHolder.TryUpdateFromModel(m, score)
		result.TotalUpdateStatus |= status
		if status&StatusLocalAugmentedIncumbentUpdate != 0 {
			result.LastLocalAugmentedIncumbentUpdateIteration = iteration
			noImprovementCount = 0
		} else {
			noImprovementCount++
		}

		memory.Update(move, iteration)
		if option.IsEnabledChainMove {
			neighborhood.RegisterChainMove(move)
		}
		collectFeasible(&result, m, option, score)

		if option.TargetObjectiveValue != nil && incumbentHolder.IsFoundFeasibleSolution() &&
			incumbentHolder.FeasibleIncumbentObjective() <= m.Sign()*(*option.TargetObjectiveValue) {
			break
		}
		if window := option.TabuSearch.NoImprovementIterationMax; window > 0 && noImprovementCount >= window {
			break
		}
	}

	return result, nil
}

// applyInitialModification perturbs the restart point with random
// single-variable flips (selection groups swap instead) to push a stalled
// search off its previous trajectory.
func applyInitialModification(m *Model, count int, memory *Memory, rng *rand.Rand) {
	if count <= 0 {
		return
	}
	var targets []*Variable
	for _, v := range m.variablesFlat {
		if !v.isFixed {
			targets = append(targets, v)
		}
	}
	if len(targets) == 0 {
		return
	}

	move := Move{Alterations: make([]Alteration, 0, 2)}
	for i := 0; i < count; i++ {
		v := targets[rng.Intn(len(targets))]
		move.Alterations = move.Alterations[:0]
		switch v.sense {
		case VariableSenseSelection:
			selected := v.selection.selected
			if v == selected {
				continue
			}
			move.Sense = MoveSenseSelection
			move.Alterations = append(move.Alterations,
				Alteration{Variable: selected, Value: 0},
				Alteration{Variable: v, Value: 1})
		case VariableSenseBinary:
			move.Sense = MoveSenseBinary
			move.Alterations = append(move.Alterations,
				Alteration{Variable: v, Value: 1 - v.value})
		default:
			value := v.value
			if value >= v.upper || (value > v.lower && rng.Intn(2) == 0) {
				value--
			} else {
				value++
			}
			move.Sense = MoveSenseInteger
			move.Alterations = append(move.Alterations,
				Alteration{Variable: v, Value: value})
		}
		m.ApplyMove(&move)
		memory.Update(&move, 0)
	}
}

func collectFeasible(result *TabuSearchResult, m *Model, option *Option, score SolutionScore) {
	if !option.IsEnabledCollectHistoricalData || !score.IsFeasible {
		return
	}
	if len(result.HistoricalFeasibleSolutions) >= option.HistoricalDataCapacity {
		return
	}
	solution := m.ExportSolution()
	result.HistoricalFeasibleSolutions = append(result.HistoricalFeasibleSolutions, solution.plain())
}
