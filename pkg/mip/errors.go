package mip

import "errors"

// Sentinel errors for conditions callers are expected to branch on. All other
// construction and setup failures are returned as formatted errors that wrap
// one of these where a category applies.
var (
	// ErrAlreadySolved indicates Solve was invoked on a model whose solve
	// flag is already set. A model instance runs at most one solve.
	ErrAlreadySolved = errors.New("model has already been solved")

	// ErrNoDecisionVariables indicates setup ran on a model without any
	// decision variables.
	ErrNoDecisionVariables = errors.New("model has no decision variables")

	// ErrInfeasibleBySetup indicates presolve proved the model infeasible
	// before any search started.
	ErrInfeasibleBySetup = errors.New("model is infeasible by setup")

	// ErrInconsistentInitialValue indicates a variable's initial value lies
	// outside its bounds, or a selection group has more than one member at 1.
	// Setup clamps or zeroes instead when initial value correction is enabled.
	ErrInconsistentInitialValue = errors.New("inconsistent initial value")

	// ErrUserCallback indicates a user-supplied move updater or end-of-phase
	// callback reported an error. The current phase is aborted and the best
	// result found so far is still returned.
	ErrUserCallback = errors.New("user callback failed")
)
