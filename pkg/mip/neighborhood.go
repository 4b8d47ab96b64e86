package mip

import "fmt"

// Neighborhood produces the candidate moves of every enabled kind. Move
// skeletons are prebuilt at setup and only their target values are refreshed
// per iteration, so steady-state generation allocates nothing. Fixed
// variables never appear in generated moves.
type Neighborhood struct {
	model *Model

	isEnabledBinaryMove        bool
	isEnabledIntegerMove       bool
	isEnabledSelectionMove     bool
	isEnabledUserDefinedMove   bool
	isEnabledAggregationMove   bool
	isEnabledPrecedenceMove    bool
	isEnabledVariableBoundMove bool
	isEnabledExclusiveMove     bool
	isEnabledChainMove         bool

	binaryTargets    []*Variable
	integerTargets   []*Variable
	binaryMoves      []Move
	integerMoves     []Move
	selectionMoves   []Move
	selectionOwners  []*Selection
	aggregationMoves []aggregationMove
	precedenceMoves  []Move
	variableBound    []variableBoundMove
	exclusiveMoves   []Move

	chain *chainBuffer

	userDefinedMoves []Move

	candidates []*Move
}

// aggregationMove carries the closed form of a two-variable equality: the
// move re-solves target = (-constant - other·otherCoefficient)/coefficient
// at generation time.
type aggregationMove struct {
	move             Move
	target           *Variable
	other            *Variable
	coefficient      float64
	otherCoefficient float64
	constant         float64
}

// variableBoundMove is one joint assignment of a binary pair; generation
// keeps only assignments that satisfy the seeding constraint.
type variableBoundMove struct {
	move       Move
	constraint *Constraint
	x, y       *Variable
	valueX     int64
	valueY     int64
}

func newNeighborhood(m *Model) *Neighborhood {
	return &Neighborhood{model: m, chain: newChainBuffer(defaultChainMoveCapacity)}
}

// setup builds the move tables. Structural tables are built only for kinds
// the option admits; the kinds themselves start disabled and the outer
// controller toggles them on stagnation.
func (n *Neighborhood) setup(option *Option) {
	m := n.model

	for _, v := range m.variablesFlat {
		if v.isFixed {
			continue
		}
		switch v.sense {
		case VariableSenseBinary:
			n.binaryTargets = append(n.binaryTargets, v)
		case VariableSenseInteger:
			n.integerTargets = append(n.integerTargets, v)
		}
	}

	n.binaryMoves = make([]Move, len(n.binaryTargets))
	for i, v := range n.binaryTargets {
		n.binaryMoves[i] = Move{Sense: MoveSenseBinary, Alterations: []Alteration{{Variable: v}}}
	}

	n.integerMoves = make([]Move, 2*len(n.integerTargets))
	for i, v := range n.integerTargets {
		n.integerMoves[2*i] = Move{Sense: MoveSenseInteger, Alterations: []Alteration{{Variable: v}}}
		n.integerMoves[2*i+1] = Move{Sense: MoveSenseInteger, Alterations: []Alteration{{Variable: v}}}
	}

	for _, s := range m.selections {
		for _, v := range s.variables {
			if v.isFixed {
				continue
			}
			n.selectionMoves = append(n.selectionMoves, Move{
				Sense:       MoveSenseSelection,
				Alterations: []Alteration{{Value: 0}, {Variable: v, Value: 1}},
			})
			n.selectionOwners = append(n.selectionOwners, s)
		}
	}

	if option.IsEnabledAggregationMove {
		n.setupAggregationMoves()
	}
	if option.IsEnabledPrecedenceMove {
		n.setupPrecedenceMoves()
	}
	if option.IsEnabledVariableBoundMove {
		n.setupVariableBoundMoves()
	}
	if option.IsEnabledExclusiveMove {
		n.setupExclusiveMoves()
	}
}

// GenerateMoves refreshes every enabled move table against the current state
// and returns the candidate list. The returned slice is reused between
// calls; callers must consume it before the next generation.
func (n *Neighborhood) GenerateMoves() ([]*Move, error) {
	n.candidates = n.candidates[:0]

	if n.isEnabledBinaryMove {
		for i := range n.binaryMoves {
			move := &n.binaryMoves[i]
			v := move.Alterations[0].Variable
			move.Alterations[0].Value = 1 - v.value
			n.candidates = append(n.candidates, move)
		}
	}

	if n.isEnabledIntegerMove {
		for i := range n.integerTargets {
			v := n.integerTargets[i]
			if v.value < v.upper {
				move := &n.integerMoves[2*i]
				move.Alterations[0].Value = v.value + 1
				n.candidates = append(n.candidates, move)
			}
			if v.value > v.lower {
				move := &n.integerMoves[2*i+1]
				move.Alterations[0].Value = v.value - 1
				n.candidates = append(n.candidates, move)
			}
		}
	}

	if n.isEnabledSelectionMove {
		for i := range n.selectionMoves {
			move := &n.selectionMoves[i]
			selected := n.selectionOwners[i].selected
			v := move.Alterations[1].Variable
			if v == selected || selected == nil || selected.isFixed {
				continue
			}
			move.Alterations[0].Variable = selected
			n.candidates = append(n.candidates, move)
		}
	}

	if n.isEnabledAggregationMove {
		n.generateAggregationMoves()
	}
	if n.isEnabledPrecedenceMove {
		n.generatePrecedenceMoves()
	}
	if n.isEnabledVariableBoundMove {
		n.generateVariableBoundMoves()
	}
	if n.isEnabledExclusiveMove {
		n.generateExclusiveMoves()
	}

	if n.isEnabledChainMove {
		n.chain.each(func(move *Move) {
			if n.isChainMoveApplicable(move) {
				n.candidates = append(n.candidates, move)
			}
		})
	}

	if n.isEnabledUserDefinedMove && n.model.moveUpdater != nil {
		n.userDefinedMoves = n.userDefinedMoves[:0]
		if err := n.model.moveUpdater(&n.userDefinedMoves); err != nil {
			return nil, fmt.Errorf("%w: move updater: %v", ErrUserCallback, err)
		}
		for i := range n.userDefinedMoves {
			move := &n.userDefinedMoves[i]
			move.Sense = MoveSenseUserDefined
			if !n.hasFixedVariable(move) {
				n.candidates = append(n.candidates, move)
			}
		}
	}

	return n.candidates, nil
}

func (n *Neighborhood) hasFixedVariable(move *Move) bool {
	for i := range move.Alterations {
		if move.Alterations[i].Variable.isFixed {
			return true
		}
	}
	return false
}

func (n *Neighborhood) isChainMoveApplicable(move *Move) bool {
	if n.hasFixedVariable(move) {
		return false
	}
	for i := range move.Alterations {
		alt := &move.Alterations[i]
		if alt.Value < alt.Variable.lower || alt.Value > alt.Variable.upper {
			return false
		}
		if alt.Value != alt.Variable.value {
			return true
		}
	}
	return false
}

// RegisterChainMove stores an accepted multi-variable move for later replay.
func (n *Neighborhood) RegisterChainMove(move *Move) {
	if len(move.Alterations) >= 2 {
		n.chain.push(move)
	}
}

// NumberOfChainMoves returns the chain buffer population.
func (n *Neighborhood) NumberOfChainMoves() int { return n.chain.len() }

// HasSpecialMoves reports whether any structural move table is non-empty;
// the chain buffer counts once it has content.
func (n *Neighborhood) HasSpecialMoves() bool {
	return len(n.aggregationMoves) > 0 ||
		len(n.precedenceMoves) > 0 ||
		len(n.variableBound) > 0 ||
		len(n.exclusiveMoves) > 0 ||
		n.chain.len() > 0
}

// EnableBinaryMove enables binary flips.
func (n *Neighborhood) EnableBinaryMove() { n.isEnabledBinaryMove = true }

// DisableBinaryMove disables binary flips.
func (n *Neighborhood) DisableBinaryMove() { n.isEnabledBinaryMove = false }

// IsEnabledBinaryMove reports whether binary flips are enabled.
func (n *Neighborhood) IsEnabledBinaryMove() bool { return n.isEnabledBinaryMove }

// EnableIntegerMove enables integer steps.
func (n *Neighborhood) EnableIntegerMove() { n.isEnabledIntegerMove = true }

// DisableIntegerMove disables integer steps.
func (n *Neighborhood) DisableIntegerMove() { n.isEnabledIntegerMove = false }

// IsEnabledIntegerMove reports whether integer steps are enabled.
func (n *Neighborhood) IsEnabledIntegerMove() bool { return n.isEnabledIntegerMove }

// EnableSelectionMove enables selection swaps.
func (n *Neighborhood) EnableSelectionMove() { n.isEnabledSelectionMove = true }

// DisableSelectionMove disables selection swaps.
func (n *Neighborhood) DisableSelectionMove() { n.isEnabledSelectionMove = false }

// IsEnabledSelectionMove reports whether selection swaps are enabled.
func (n *Neighborhood) IsEnabledSelectionMove() bool { return n.isEnabledSelectionMove }

// EnableUserDefinedMove enables the registered move updater.
func (n *Neighborhood) EnableUserDefinedMove() { n.isEnabledUserDefinedMove = true }

// DisableUserDefinedMove disables the registered move updater.
func (n *Neighborhood) DisableUserDefinedMove() { n.isEnabledUserDefinedMove = false }

// IsEnabledUserDefinedMove reports whether user-defined moves are enabled.
func (n *Neighborhood) IsEnabledUserDefinedMove() bool { return n.isEnabledUserDefinedMove }

// EnableAggregationMove enables aggregation moves.
func (n *Neighborhood) EnableAggregationMove() { n.isEnabledAggregationMove = true }

// DisableAggregationMove disables aggregation moves.
func (n *Neighborhood) DisableAggregationMove() { n.isEnabledAggregationMove = false }

// IsEnabledAggregationMove reports whether aggregation moves are enabled.
func (n *Neighborhood) IsEnabledAggregationMove() bool { return n.isEnabledAggregationMove }

// EnablePrecedenceMove enables precedence moves.
func (n *Neighborhood) EnablePrecedenceMove() { n.isEnabledPrecedenceMove = true }

// DisablePrecedenceMove disables precedence moves.
func (n *Neighborhood) DisablePrecedenceMove() { n.isEnabledPrecedenceMove = false }

// IsEnabledPrecedenceMove reports whether precedence moves are enabled.
func (n *Neighborhood) IsEnabledPrecedenceMove() bool { return n.isEnabledPrecedenceMove }

// EnableVariableBoundMove enables variable-bound moves.
func (n *Neighborhood) EnableVariableBoundMove() { n.isEnabledVariableBoundMove = true }

// DisableVariableBoundMove disables variable-bound moves.
func (n *Neighborhood) DisableVariableBoundMove() { n.isEnabledVariableBoundMove = false }

// IsEnabledVariableBoundMove reports whether variable-bound moves are enabled.
func (n *Neighborhood) IsEnabledVariableBoundMove() bool { return n.isEnabledVariableBoundMove }

// EnableExclusiveMove enables exclusive moves.
func (n *Neighborhood) EnableExclusiveMove() { n.isEnabledExclusiveMove = true }

// DisableExclusiveMove disables exclusive moves.
func (n *Neighborhood) DisableExclusiveMove() { n.isEnabledExclusiveMove = false }

// IsEnabledExclusiveMove reports whether exclusive moves are enabled.
func (n *Neighborhood) IsEnabledExclusiveMove() bool { return n.isEnabledExclusiveMove }

// EnableChainMove enables chain-move replay.
func (n *Neighborhood) EnableChainMove() { n.isEnabledChainMove = true }

// DisableChainMove disables chain-move replay.
func (n *Neighborhood) DisableChainMove() { n.isEnabledChainMove = false }

// IsEnabledChainMove reports whether chain-move replay is enabled.
func (n *Neighborhood) IsEnabledChainMove() bool { return n.isEnabledChainMove }
