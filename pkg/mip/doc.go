// Package mip provides a metaheuristic solver for mixed-integer programming
// models: minimize or maximize a possibly nonlinear objective over integer
// and binary decision variables under linear-style constraints.
//
// The search is layered stochastic local search centered on tabu search:
//   - Model: the evaluation kernel with incremental (delta) scoring of
//     candidate moves against objective, constraints, and penalized
//     augmented objectives.
//   - Neighborhood: binary flips, integer steps, selection swaps, and
//     structural moves derived from constraint topology (aggregation,
//     precedence, variable bound, exclusive, chain), plus user-defined moves.
//   - Solve: the outer controller driving repeated tabu phases with adaptive
//     penalty coefficients, tabu tenure, initial perturbation, and iteration
//     budgets, optionally bootstrapped by a Lagrange dual phase and a local
//     search warm start.
//
// A model is assembled through the creation API, solved once with Solve, and
// exported as a named solution:
//
//	model := mip.NewModel("example")
//	x, _ := model.NewVariables("x", 10, 0, 1)
//	model.NewConstraint("budget", x.Dot(weights).LessEqual(30))
//	model.Maximize(x.Dot(profits))
//	result, err := mip.Solve(ctx, model, mip.DefaultOption())
//
// The solver proves nothing: it searches for feasible high-quality solutions
// and always reports the best solution seen, feasible or not.
package mip
