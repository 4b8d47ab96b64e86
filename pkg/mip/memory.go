package mip

import "math/rand"

// Memory is the tabu search's per-variable history: short-term memory is the
// iteration at which each variable last changed, long-term memory is how
// often it changed. The short-term initial value is a finite negative number
// so that iteration - lastUpdate is always a valid comparison against the
// tenure.
type Memory struct {
	lastUpdateIterations []ValueProxy[int]
	updateCounts         []ValueProxy[int]
	totalUpdateCount     int64
}

// NewMemory builds memory parallel to the model's variable proxies.
func NewMemory(m *Model) *Memory {
	return &Memory{
		lastUpdateIterations: GenerateVariableParameterProxies(m, initialLastUpdateIteration),
		updateCounts:         GenerateVariableParameterProxies(m, 0),
	}
}

// LastUpdateIteration returns the short-term memory entry for v.
func (mem *Memory) LastUpdateIteration(v *Variable) int {
	return mem.lastUpdateIterations[v.proxyID].values[v.flatIndex]
}

// UpdateCount returns the long-term memory entry for v.
func (mem *Memory) UpdateCount(v *Variable) int {
	return mem.updateCounts[v.proxyID].values[v.flatIndex]
}

// TotalUpdateCount returns the total number of recorded alterations.
func (mem *Memory) TotalUpdateCount() int64 { return mem.totalUpdateCount }

// UpdateCountProxies returns the long-term memory arrays for export.
func (mem *Memory) UpdateCountProxies() []ValueProxy[int] { return mem.updateCounts }

// Update records an applied move at the given iteration.
func (mem *Memory) Update(move *Move, iteration int) {
	for i := range move.Alterations {
		v := move.Alterations[i].Variable
		mem.lastUpdateIterations[v.proxyID].values[v.flatIndex] = iteration
		mem.updateCounts[v.proxyID].values[v.flatIndex]++
		mem.totalUpdateCount++
	}
}

// UpdateWithRandomness records an applied move with the short-term entry
// jittered uniformly in [iteration-width, iteration+width), spreading tabu
// expiries of jointly moved variables.
func (mem *Memory) UpdateWithRandomness(move *Move, iteration, width int, rng *rand.Rand) {
	if width <= 0 {
		mem.Update(move, iteration)
		return
	}
	for i := range move.Alterations {
		v := move.Alterations[i].Variable
		jitter := rng.Intn(2*width) - width
		mem.lastUpdateIterations[v.proxyID].values[v.flatIndex] = iteration + jitter
		mem.updateCounts[v.proxyID].values[v.flatIndex]++
		mem.totalUpdateCount++
	}
}

// ResetLastUpdateIterations clears the short-term memory; the long-term
// memory survives across phases.
func (mem *Memory) ResetLastUpdateIterations() {
	for i := range mem.lastUpdateIterations {
		mem.lastUpdateIterations[i].Fill(initialLastUpdateIteration)
	}
}

// Bias is the concentration of updates across variables: the sum of squared
// update frequencies. It approaches 1 when the search hammers one variable
// and 1/n when updates spread evenly; the outer controller reads it as a
// diversity proxy to drift the tabu tenure.
func (mem *Memory) Bias() float64 {
	if mem.totalUpdateCount == 0 {
		return 0
	}
	total := float64(mem.totalUpdateCount)
	bias := 0.0
	for i := range mem.updateCounts {
		for _, count := range mem.updateCounts[i].values {
			frequency := float64(count) / total
			bias += frequency * frequency
		}
	}
	return bias
}
