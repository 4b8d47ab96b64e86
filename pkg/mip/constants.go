package mip

// epsilon is the feasibility and comparison tolerance used throughout the
// evaluation kernel. A constraint whose violation does not exceed epsilon is
// treated as satisfied.
const epsilon = 1e-5

// MaxNumberOfProxies bounds how many variable, expression, or constraint
// proxies a single model may own. Creating more fails with a capacity error.
const MaxNumberOfProxies = 100

// initialLastUpdateIteration is the initial value of the short-term memory.
// It must be a finite negative value so that iteration - lastUpdate stays a
// finite integer for variables that have never been updated.
const initialLastUpdateIteration = -1000

// defaultChainMoveCapacity bounds the chain-move FIFO. Accepted multi-variable
// moves beyond this capacity evict the oldest entry.
const defaultChainMoveCapacity = 10000
