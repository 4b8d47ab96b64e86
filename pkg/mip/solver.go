package mip

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/gitrdm/gomip/internal/parallel"
)

// Status summarizes a finished solve.
type Status struct {
	ModelSummary            ModelSummary
	PenaltyCoefficients     map[string]ValueProxy[float64]
	UpdateCounts            map[string]ValueProxy[int]
	IsFoundFeasibleSolution bool
	ElapsedTime             float64

	NumberOfLagrangeDualIterations int
	NumberOfLocalSearchIterations  int
	NumberOfTabuSearchIterations   int
	NumberOfTabuSearchLoops        int
}

// History carries the collected feasible solutions.
type History struct {
	ModelSummary      ModelSummary
	FeasibleSolutions []PlainSolution
}

// Result is what Solve always returns, even on early termination: the best
// solution seen (feasible if one was ever found, otherwise the best global
// augmented), plus status and history.
type Result struct {
	Solution NamedSolution
	Status   Status
	History  History
}

// Solve runs the layered search: setup, optional Lagrange dual bootstrap,
// optional local search warm start, then tabu phases under the adaptive
// controller until a budget or the target objective is hit. The model is
// consumed; solving it twice is an error.
func Solve(ctx context.Context, model *Model, option *Option) (Result, error) {
	if err := model.markSolved(); err != nil {
		return Result{}, err
	}
	if option == nil {
		option = DefaultOption()
	}
	timeKeeper := NewTimeKeeper()
	printer := NewPrinter(option.Verbose)
	sign := model.Sign()

	target := option.TargetObjectiveValue
	if target == nil && !model.isDefinedObjective {
		// Without an objective the search is for feasibility only; the
		// constant zero objective makes the first feasible solution final.
		zero := 0.0
		target = &zero
	}

	if err := model.Setup(option, printer); err != nil {
		return Result{}, err
	}

	printer.Message(fmt.Sprintf("Optimization starts: %d variables, %d constraints.",
		model.NumberOfVariables(), model.NumberOfConstraints()))

	neighborhood := model.neighborhood
	if option.IsEnabledBinaryMove {
		neighborhood.EnableBinaryMove()
	}
	if option.IsEnabledIntegerMove {
		neighborhood.EnableIntegerMove()
	}
	if option.IsEnabledUserDefinedMove {
		neighborhood.EnableUserDefinedMove()
	}
	if option.SelectionMode != SelectionModeNone {
		neighborhood.EnableSelectionMove()
	}
	// Special neighborhood moves stay disabled until stagnation.
	hasSpecialMoves := neighborhood.HasSpecialMoves() || option.IsEnabledChainMove

	rng := rand.New(rand.NewSource(option.Seed))

	globalPenalties := GenerateConstraintParameterProxies(model, option.InitialPenaltyCoefficient)
	localPenalties := cloneProxies(globalPenalties)

	memory := NewMemory(model)
	pool := newSolutionPool(option.HistoricalDataCapacity, model.isMinimization)

	var workers *parallel.WorkerPool
	if option.IsEnabledParallelNeighborhoodUpdate {
		workers = parallel.NewWorkerPool(0)
		defer workers.Shutdown()
	}

	model.Update()
	currentSolution := model.ExportSolution()
	incumbentHolder := NewIncumbentHolder()
	incumbentHolder.TryUpdate(&currentSolution,
		model.Evaluate(&Move{}, localPenalties, globalPenalties), sign)

	status := Status{ModelSummary: model.ExportSummary()}
	var callbackErr error

	// Optional Lagrange dual bootstrap.
	if option.IsEnabledLagrangeDual {
		switch {
		case !model.isLinear:
			printer.Warning("Solving Lagrange dual was skipped because the problem is nonlinear.")
		case model.NumberOfSelectionVariables() > 0:
			printer.Warning("Solving Lagrange dual was skipped because it is not applicable to selection variables.")
		default:
			phaseOption := *option
			phaseOption.LagrangeDual.TimeOffset = timeKeeper.Clock()
			phaseHolder := incumbentHolder.Clone()
			result, err := lagrangeDual(ctx, model, &phaseOption,
				localPenalties, globalPenalties,
				currentSolution.VariableValueProxies, phaseHolder, timeKeeper)
			if err != nil {
				callbackErr = err
			}
			mergePhaseIncumbents(incumbentHolder, result.IncumbentHolder, sign)
			currentSolution = cloneSolution(result.IncumbentHolder.GlobalAugmentedIncumbentSolution())
			status.NumberOfLagrangeDualIterations = result.NumberOfIterations
			printer.Message(fmt.Sprintf("Solving Lagrange dual was finished (%d iterations).",
				result.NumberOfIterations))
		}
	}

	// Optional local search warm start.
	if option.IsEnabledLocalSearch && callbackErr == nil {
		phaseOption := *option
		phaseOption.LocalSearch.TimeOffset = timeKeeper.Clock()
		phaseHolder := incumbentHolder.Clone()
		result, err := localSearch(ctx, model, &phaseOption,
			localPenalties, globalPenalties,
			currentSolution.VariableValueProxies, phaseHolder, memory, timeKeeper)
		if err != nil {
			callbackErr = err
		}
		mergePhaseIncumbents(incumbentHolder, result.IncumbentHolder, sign)
		currentSolution = cloneSolution(result.IncumbentHolder.GlobalAugmentedIncumbentSolution())
		status.NumberOfLocalSearchIterations = result.NumberOfIterations
		printer.Message(fmt.Sprintf("Local search was finished (%d iterations).",
			result.NumberOfIterations))
	}

	// Tabu search loop with the adaptive controller.
	outerIteration := 0
	notUpdateCount := 0
	nextNumberOfInitialModification := 0
	nextInitialTabuTenure := option.TabuSearch.InitialTabuTenure
	nextIterationMax := option.TabuSearch.IterationMax
	penaltyResetFlag := false
	bias := memory.Bias()

	for callbackErr == nil {
		if ctx.Err() != nil {
			printer.Message("Outer loop was terminated by cancellation.")
			break
		}
		elapsed := timeKeeper.Clock()
		if elapsed > option.TimeMax {
			printer.Message(fmt.Sprintf("Outer loop was terminated because of time-over (%.3f sec).", elapsed))
			break
		}
		if outerIteration >= option.IterationMax {
			printer.Message(fmt.Sprintf("Outer loop was terminated because of the iteration limit (%d iterations).", outerIteration))
			break
		}
		if target != nil && incumbentHolder.IsFoundFeasibleSolution() &&
			incumbentHolder.FeasibleIncumbentObjective() <= sign*(*target) {
			printer.Message("Outer loop was terminated because the feasible objective reached the target.")
			break
		}

		phaseOption := *option
		if option.TabuSearch.IsEnabledAutomaticIterationAdjustment {
			phaseOption.TabuSearch.IterationMax = nextIterationMax
		}
		phaseOption.TabuSearch.TimeOffset = elapsed
		phaseOption.TabuSearch.Seed += int64(outerIteration)
		phaseOption.TabuSearch.NumberOfInitialModification = nextNumberOfInitialModification
		phaseOption.TabuSearch.InitialTabuTenure = nextInitialTabuTenure

		phaseHolder := incumbentHolder.Clone()
		phaseHolder.ResetLocalAugmentedIncumbent()

		result, err := tabuSearch(ctx, model, &phaseOption,
			localPenalties, globalPenalties,
			currentSolution.VariableValueProxies, phaseHolder, memory, workers, timeKeeper)
		if err != nil {
			printer.Warning(err.Error())
			callbackErr = err
		}

		resultLocal := result.IncumbentHolder.LocalAugmentedIncumbentSolution()
		resultGlobal := result.IncumbentHolder.GlobalAugmentedIncumbentSolution()

		var isChanged bool
		switch option.TabuSearch.RestartMode {
		case RestartModeLocal:
			isChanged = !equalProxies(resultLocal.VariableValueProxies, currentSolution.VariableValueProxies)
			currentSolution = cloneSolution(resultLocal)
		default:
			isChanged = !equalProxies(resultGlobal.VariableValueProxies, currentSolution.VariableValueProxies)
			currentSolution = cloneSolution(resultGlobal)
		}

		if option.IsEnabledCollectHistoricalData {
			pool.push(result.HistoricalFeasibleSolutions)
		}

		updateStatus := mergePhaseIncumbents(incumbentHolder, result.IncumbentHolder, sign)
		if updateStatus&StatusGlobalAugmentedIncumbentUpdate != 0 {
			notUpdateCount = 0
			penaltyResetFlag = false
		} else {
			notUpdateCount++
			penaltyResetFlag = false
			if notUpdateCount == option.PenaltyCoefficientResetCountThreshold {
				penaltyResetFlag = true
				notUpdateCount = 0
			}
		}

		// Penalty coefficient adaptation: reset on stagnation, tighten while
		// the phase incumbent is infeasible and below the global incumbent,
		// relax the satisfied constraints otherwise.
		gap := incumbentHolder.GlobalAugmentedIncumbentObjective() -
			result.IncumbentHolder.LocalAugmentedIncumbentObjective()
		if penaltyResetFlag {
			localPenalties = cloneProxies(globalPenalties)
			printer.Message("The penalty coefficients were reset due to search stagnation.")
		} else if gap > epsilon && !resultLocal.IsFeasible {
			tightenPenalties(localPenalties, resultLocal, gap, option)
		} else {
			relaxPenalties(localPenalties, resultLocal, option)
		}

		// Tenure drift: toward longer tenures when updates concentrate on
		// few variables, shorter when they spread; reset on a new global
		// incumbent.
		previousBias := bias
		bias = memory.Bias()
		if option.TabuSearch.IsEnabledAutomaticTabuTenureAdjustment {
			notFixed := model.NumberOfNotFixedVariables()
			switch {
			case result.TotalUpdateStatus&StatusGlobalAugmentedIncumbentUpdate != 0:
				nextInitialTabuTenure = minInt(option.TabuSearch.InitialTabuTenure, notFixed)
			case bias > previousBias:
				nextInitialTabuTenure = minInt(phaseOption.TabuSearch.InitialTabuTenure+1, notFixed)
			case bias < previousBias:
				nextInitialTabuTenure = maxInt(phaseOption.TabuSearch.InitialTabuTenure-1, 1)
			}
		} else {
			nextInitialTabuTenure = option.TabuSearch.InitialTabuTenure
		}

		// Initial modification for the next phase when this one went nowhere.
		if result.TotalUpdateStatus&(StatusFeasibleIncumbentUpdate|StatusGlobalAugmentedIncumbentUpdate) != 0 {
			nextNumberOfInitialModification = 0
		} else if option.TabuSearch.IsEnabledInitialModification && !isChanged {
			nominal := int(math.Floor(option.TabuSearch.InitialModificationFixedRate * float64(nextInitialTabuTenure)))
			width := int(option.TabuSearch.InitialModificationRandomizeRate * float64(nominal))
			count := nominal
			if width > 0 {
				count += rng.Intn(2*width) - width
			}
			nextNumberOfInitialModification = maxInt(1, count)
		}

		// Iteration budget adjustment for the next phase.
		if option.TabuSearch.IsEnabledAutomaticIterationAdjustment && !result.IsEarlyStopped {
			var next int
			if result.TotalUpdateStatus&StatusGlobalAugmentedIncumbentUpdate != 0 {
				next = int(math.Ceil(float64(result.LastLocalAugmentedIncumbentUpdateIteration) *
					option.TabuSearch.IterationIncreaseRate))
			} else {
				next = int(math.Ceil(float64(phaseOption.TabuSearch.IterationMax) *
					option.TabuSearch.IterationIncreaseRate))
			}
			nextIterationMax = maxInt(option.TabuSearch.InitialTabuTenure,
				minInt(option.TabuSearch.IterationMax, next))
		}

		// Special neighborhood toggling: back to basic moves on improvement,
		// widen the neighborhood after a full phase without progress.
		if result.TotalUpdateStatus&StatusGlobalAugmentedIncumbentUpdate != 0 {
			if disableSpecialMoves(neighborhood, option) && hasSpecialMoves {
				printer.Message("Special neighborhood moves were disabled.")
			}
		} else if !result.IsEarlyStopped &&
			phaseOption.TabuSearch.IterationMax == option.TabuSearch.IterationMax {
			if enableSpecialMoves(neighborhood, option) && hasSpecialMoves {
				printer.Message("Special neighborhood moves were enabled.")
			}
		}

		status.NumberOfTabuSearchIterations += result.NumberOfIterations
		status.NumberOfTabuSearchLoops++

		printer.Message(fmt.Sprintf(
			"Tabu search loop (%d/%d) was finished. Total elapsed time: %.3f sec",
			outerIteration+1, option.IterationMax, timeKeeper.Clock()))
		printer.Info(fmt.Sprintf("Global augmented incumbent objective: %.3f",
			incumbentHolder.GlobalAugmentedIncumbentObjective()*sign))
		printer.Info(fmt.Sprintf("Feasible incumbent objective: %.3f",
			incumbentHolder.FeasibleIncumbentObjective()*sign))

		if callbackErr == nil {
			if err := model.Callback(); err != nil {
				callbackErr = fmt.Errorf("%w: end-of-phase callback: %v", ErrUserCallback, err)
				printer.Warning(callbackErr.Error())
			}
		}
		outerIteration++
	}

	// The final incumbent is the best feasible solution when one was found,
	// otherwise the best global augmented solution. Re-import and update so
	// disabled constraints are reported with fresh values too.
	incumbent := incumbentHolder.GlobalAugmentedIncumbentSolution()
	if incumbentHolder.IsFoundFeasibleSolution() {
		incumbent = incumbentHolder.FeasibleIncumbentSolution()
	}
	model.ImportVariableValues(incumbent.VariableValueProxies)
	model.Update()
	final := model.ExportSolution()

	status.PenaltyCoefficients = map[string]ValueProxy[float64]{}
	for _, proxy := range model.constraintProxies {
		status.PenaltyCoefficients[proxy.name] = localPenalties[proxy.id].Clone()
	}
	status.UpdateCounts = map[string]ValueProxy[int]{}
	for _, proxy := range model.variableProxies {
		status.UpdateCounts[proxy.name] = memory.updateCounts[proxy.id].Clone()
	}
	status.IsFoundFeasibleSolution = incumbentHolder.IsFoundFeasibleSolution()
	status.ElapsedTime = timeKeeper.Clock()

	return Result{
		Solution: model.ConvertToNamedSolution(&final),
		Status:   status,
		History: History{
			ModelSummary:      model.ExportSummary(),
			FeasibleSolutions: pool.solutions(),
		},
	}, callbackErr
}

// mergePhaseIncumbents folds a phase holder's global and feasible incumbents
// back into the master holder and returns the update status mask.
func mergePhaseIncumbents(master, phase *IncumbentHolder, sign float64) int {
	status := master.TryUpdate(phase.GlobalAugmentedIncumbentSolution(),
		phase.GlobalAugmentedIncumbentScore(), sign)
	if phase.IsFoundFeasibleSolution() {
		status |= master.TryUpdate(phase.FeasibleIncumbentSolution(),
			phase.FeasibleIncumbentScore(), sign)
	}
	return status
}

// tightenPenalties raises the local penalty of every violated constraint by
// a blend of a uniform share and a violation-proportional share of the gap,
// optionally group-smoothed, capped at the initial penalty coefficient.
func tightenPenalties(localPenalties []ValueProxy[float64], local *Solution, gap float64, option *Option) {
	totalViolation := 0.0
	totalSquaredViolation := 0.0
	for i := range local.ViolationValueProxies {
		for _, violation := range local.ViolationValueProxies[i].values {
			totalViolation += violation
			totalSquaredViolation += violation * violation
		}
	}
	if totalViolation <= 0 || totalSquaredViolation <= 0 {
		return
	}

	balance := option.PenaltyCoefficientUpdatingBalance
	positiveGap := math.Max(0, gap)
	for i := range localPenalties {
		proxy := &localPenalties[i]
		violations := local.ViolationValueProxies[proxy.id].values
		for j := range proxy.values {
			if violations[j] < epsilon {
				continue
			}
			constantShare := positiveGap / totalViolation
			proportionalShare := positiveGap / totalSquaredViolation * violations[j]
			proxy.values[j] += option.PenaltyCoefficientTighteningRate *
				(balance*constantShare + (1-balance)*proportionalShare)
		}
		if option.IsEnabledGroupingPenaltyCoefficient {
			largest := 0.0
			for _, value := range proxy.values {
				largest = math.Max(largest, value)
			}
			for j := range proxy.values {
				proxy.values[j] = largest
			}
		}
		for j := range proxy.values {
			proxy.values[j] = math.Min(proxy.values[j], option.InitialPenaltyCoefficient)
		}
	}
}

// relaxPenalties multiplies the local penalty of every satisfied constraint
// by the relaxing rate.
func relaxPenalties(localPenalties []ValueProxy[float64], local *Solution, option *Option) {
	for i := range localPenalties {
		proxy := &localPenalties[i]
		violations := local.ViolationValueProxies[proxy.id].values
		for j := range proxy.values {
			if violations[j] < epsilon {
				proxy.values[j] *= option.PenaltyCoefficientRelaxingRate
			}
		}
	}
}

func enableSpecialMoves(n *Neighborhood, option *Option) bool {
	changed := false
	if option.IsEnabledAggregationMove && !n.IsEnabledAggregationMove() {
		n.EnableAggregationMove()
		changed = true
	}
	if option.IsEnabledPrecedenceMove && !n.IsEnabledPrecedenceMove() {
		n.EnablePrecedenceMove()
		changed = true
	}
	if option.IsEnabledVariableBoundMove && !n.IsEnabledVariableBoundMove() {
		n.EnableVariableBoundMove()
		changed = true
	}
	if option.IsEnabledExclusiveMove && !n.IsEnabledExclusiveMove() {
		n.EnableExclusiveMove()
		changed = true
	}
	if option.IsEnabledChainMove && !n.IsEnabledChainMove() {
		n.EnableChainMove()
		changed = true
	}
	return changed
}

func disableSpecialMoves(n *Neighborhood, option *Option) bool {
	changed := false
	if option.IsEnabledAggregationMove && n.IsEnabledAggregationMove() {
		n.DisableAggregationMove()
		changed = true
	}
	if option.IsEnabledPrecedenceMove && n.IsEnabledPrecedenceMove() {
		n.DisablePrecedenceMove()
		changed = true
	}
	if option.IsEnabledVariableBoundMove && n.IsEnabledVariableBoundMove() {
		n.DisableVariableBoundMove()
		changed = true
	}
	if option.IsEnabledExclusiveMove && n.IsEnabledExclusiveMove() {
		n.DisableExclusiveMove()
		changed = true
	}
	if option.IsEnabledChainMove && n.IsEnabledChainMove() {
		n.DisableChainMove()
		changed = true
	}
	return changed
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
