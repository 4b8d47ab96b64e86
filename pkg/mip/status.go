package mip

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// solutionPool is the bounded archive of feasible solutions collected during
// search. It keeps the best solutions by objective, deduplicating identical
// variable assignments.
type solutionPool struct {
	capacity       int
	isMinimization bool
	items          []PlainSolution
}

func newSolutionPool(capacity int, isMinimization bool) *solutionPool {
	if capacity < 1 {
		capacity = 1
	}
	return &solutionPool{capacity: capacity, isMinimization: isMinimization}
}

func (p *solutionPool) push(batch []PlainSolution) {
	for i := range batch {
		duplicate := false
		for j := range p.items {
			if equalProxies(p.items[j].VariableValueProxies, batch[i].VariableValueProxies) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			p.items = append(p.items, batch[i])
		}
	}
	sort.SliceStable(p.items, func(i, j int) bool {
		if p.isMinimization {
			return p.items[i].Objective < p.items[j].Objective
		}
		return p.items[i].Objective > p.items[j].Objective
	})
	if len(p.items) > p.capacity {
		p.items = p.items[:p.capacity]
	}
}

func (p *solutionPool) solutions() []PlainSolution { return p.items }

// proxyJSON is the wire form of a value proxy.
type proxyJSON[T any] struct {
	Shape  []int `json:"shape"`
	Values []T   `json:"values"`
}

func toProxyJSON[T comparable](p ValueProxy[T]) proxyJSON[T] {
	return proxyJSON[T]{Shape: p.shape, Values: p.values}
}

func toProxyJSONMap[T comparable](m map[string]ValueProxy[T]) map[string]proxyJSON[T] {
	out := make(map[string]proxyJSON[T], len(m))
	for name, p := range m {
		out[name] = toProxyJSON(p)
	}
	return out
}

// WriteSolutionFile writes the plain-text solution: one variable per line,
// "name value", in creation order.
func (s *NamedSolution) WriteSolutionFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Solution: %w", err)
	}
	defer f.Close()
	for _, name := range s.variableNames {
		proxy := s.VariableValues[name]
		for i, value := range proxy.values {
			if _, err := fmt.Fprintf(f, "%s%s %d\n", name, proxy.IndexLabel(i), value); err != nil {
				return fmt.Errorf("Solution: %w", err)
			}
		}
	}
	return nil
}

type namedSolutionJSON struct {
	Name           string                      `json:"name"`
	Objective      float64                     `json:"objective"`
	TotalViolation float64                     `json:"total_violation"`
	IsFeasible     bool                        `json:"is_feasible"`
	Variables      map[string]proxyJSON[int64] `json:"variables"`
	Expressions    map[string]proxyJSON[float64] `json:"expressions"`
	Constraints    map[string]proxyJSON[float64] `json:"constraints"`
	Violations     map[string]proxyJSON[float64] `json:"violations"`
}

// WriteJSON writes the solution as a JSON object keyed by entity names.
func (s *NamedSolution) WriteJSON(path string) error {
	doc := namedSolutionJSON{
		Name:           s.Name,
		Objective:      s.Objective,
		TotalViolation: s.TotalViolation,
		IsFeasible:     s.IsFeasible,
		Variables:      toProxyJSONMap(s.VariableValues),
		Expressions:    toProxyJSONMap(s.ExpressionValues),
		Constraints:    toProxyJSONMap(s.ConstraintValues),
		Violations:     toProxyJSONMap(s.ViolationValues),
	}
	return writeJSONFile(path, doc)
}

type statusJSON struct {
	ModelSummary            ModelSummary                  `json:"model_summary"`
	IsFoundFeasibleSolution bool                          `json:"is_found_feasible_solution"`
	ElapsedTime             float64                       `json:"elapsed_time"`
	LagrangeDualIterations  int                           `json:"number_of_lagrange_dual_iterations"`
	LocalSearchIterations   int                           `json:"number_of_local_search_iterations"`
	TabuSearchIterations    int                           `json:"number_of_tabu_search_iterations"`
	TabuSearchLoops         int                           `json:"number_of_tabu_search_loops"`
	PenaltyCoefficients     map[string]proxyJSON[float64] `json:"penalty_coefficients"`
	UpdateCounts            map[string]proxyJSON[int]     `json:"update_counts"`
}

// WriteJSON writes the solve status.
func (s *Status) WriteJSON(path string) error {
	doc := statusJSON{
		ModelSummary:            s.ModelSummary,
		IsFoundFeasibleSolution: s.IsFoundFeasibleSolution,
		ElapsedTime:             s.ElapsedTime,
		LagrangeDualIterations:  s.NumberOfLagrangeDualIterations,
		LocalSearchIterations:   s.NumberOfLocalSearchIterations,
		TabuSearchIterations:    s.NumberOfTabuSearchIterations,
		TabuSearchLoops:         s.NumberOfTabuSearchLoops,
		PenaltyCoefficients:     toProxyJSONMap(s.PenaltyCoefficients),
		UpdateCounts:            toProxyJSONMap(s.UpdateCounts),
	}
	return writeJSONFile(path, doc)
}

type plainSolutionJSON struct {
	Objective      float64            `json:"objective"`
	TotalViolation float64            `json:"total_violation"`
	IsFeasible     bool               `json:"is_feasible"`
	Variables      []proxyJSON[int64] `json:"variables"`
}

type historyJSON struct {
	ModelSummary      ModelSummary        `json:"model_summary"`
	FeasibleSolutions []plainSolutionJSON `json:"feasible_solutions"`
}

// WriteJSON writes the collected feasible solutions.
func (h *History) WriteJSON(path string) error {
	doc := historyJSON{ModelSummary: h.ModelSummary}
	for i := range h.FeasibleSolutions {
		s := &h.FeasibleSolutions[i]
		entry := plainSolutionJSON{
			Objective:      s.Objective,
			TotalViolation: s.TotalViolation,
			IsFeasible:     s.IsFeasible,
		}
		for _, proxy := range s.VariableValueProxies {
			entry.Variables = append(entry.Variables, toProxyJSON(proxy))
		}
		doc.FeasibleSolutions = append(doc.FeasibleSolutions, entry)
	}
	return writeJSONFile(path, doc)
}

func writeJSONFile(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("JSON %s: %w", path, err)
	}
	return nil
}
