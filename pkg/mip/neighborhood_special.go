package mip

import "math"

// Structural moves are derived from the constraint classification at setup.
// Each table entry keeps the seeding constraint's closed form so generation
// only plugs in current values.

func (n *Neighborhood) setupAggregationMoves() {
	for _, c := range n.model.constraintsFlat {
		if !c.isEnabled || c.class != ClassAggregation {
			continue
		}
		t0 := &c.expression.terms[0]
		t1 := &c.expression.terms[1]
		if t0.variable.isFixed || t1.variable.isFixed {
			continue
		}
		related := relatedConstraintUnion(t0.variable, t1.variable)
		n.aggregationMoves = append(n.aggregationMoves,
			aggregationMove{
				move: Move{
					Sense:              MoveSenseAggregation,
					Alterations:        []Alteration{{Variable: t0.variable}},
					RelatedConstraints: related,
				},
				target:           t0.variable,
				other:            t1.variable,
				coefficient:      t0.coefficient,
				otherCoefficient: t1.coefficient,
				constant:         c.expression.constant,
			},
			aggregationMove{
				move: Move{
					Sense:              MoveSenseAggregation,
					Alterations:        []Alteration{{Variable: t1.variable}},
					RelatedConstraints: related,
				},
				target:           t1.variable,
				other:            t0.variable,
				coefficient:      t1.coefficient,
				otherCoefficient: t0.coefficient,
				constant:         c.expression.constant,
			})
	}
}

// generateAggregationMoves solves the equality for one side at the other's
// current value. Non-integral or out-of-bound targets yield no move.
func (n *Neighborhood) generateAggregationMoves() {
	for i := range n.aggregationMoves {
		a := &n.aggregationMoves[i]
		target := (-a.constant - a.otherCoefficient*float64(a.other.value)) / a.coefficient
		rounded := math.Round(target)
		if math.Abs(target-rounded) > epsilon {
			continue
		}
		value := int64(rounded)
		if value < a.target.lower || value > a.target.upper || value == a.target.value {
			continue
		}
		a.move.Alterations[0].Value = value
		n.candidates = append(n.candidates, &a.move)
	}
}

func (n *Neighborhood) setupPrecedenceMoves() {
	for _, c := range n.model.constraintsFlat {
		if !c.isEnabled || c.class != ClassPrecedence {
			continue
		}
		x := c.expression.terms[0].variable
		y := c.expression.terms[1].variable
		if x.isFixed || y.isFixed {
			continue
		}
		related := relatedConstraintUnion(x, y)
		for _, step := range []int64{1, -1} {
			n.precedenceMoves = append(n.precedenceMoves, Move{
				Sense: MoveSensePrecedence,
				Alterations: []Alteration{
					{Variable: x, Value: step},
					{Variable: y, Value: step},
				},
				RelatedConstraints: related,
			})
		}
	}
}

// generatePrecedenceMoves shifts both sides of a precedence pair jointly,
// preserving their difference. The step is stored in the skeleton's value
// slot and replaced by the shifted values here.
func (n *Neighborhood) generatePrecedenceMoves() {
	for i := range n.precedenceMoves {
		move := &n.precedenceMoves[i]
		x := move.Alterations[0].Variable
		y := move.Alterations[1].Variable
		var step int64 = 1
		if i%2 == 1 {
			step = -1
		}
		newX := x.value + step
		newY := y.value + step
		if newX < x.lower || newX > x.upper || newY < y.lower || newY > y.upper {
			continue
		}
		move.Alterations[0].Value = newX
		move.Alterations[1].Value = newY
		n.candidates = append(n.candidates, move)
	}
}

func (n *Neighborhood) setupVariableBoundMoves() {
	for _, c := range n.model.constraintsFlat {
		if !c.isEnabled || c.class != ClassVariableBound {
			continue
		}
		x := c.expression.terms[0].variable
		y := c.expression.terms[1].variable
		if x.isFixed || y.isFixed {
			continue
		}
		related := relatedConstraintUnion(x, y)
		for _, vx := range []int64{0, 1} {
			for _, vy := range []int64{0, 1} {
				n.variableBound = append(n.variableBound, variableBoundMove{
					move: Move{
						Sense: MoveSenseVariableBound,
						Alterations: []Alteration{
							{Variable: x, Value: vx},
							{Variable: y, Value: vy},
						},
						RelatedConstraints: related,
					},
					constraint: c,
					x:          x,
					y:          y,
					valueX:     vx,
					valueY:     vy,
				})
			}
		}
	}
}

// generateVariableBoundMoves emits the joint assignments of a binary pair
// that differ from the current point and keep the seeding constraint
// satisfied.
func (n *Neighborhood) generateVariableBoundMoves() {
	for i := range n.variableBound {
		vb := &n.variableBound[i]
		if vb.valueX == vb.x.value && vb.valueY == vb.y.value {
			continue
		}
		c := vb.constraint
		value := c.expression.constant +
			c.expression.terms[0].coefficient*float64(vb.valueX) +
			c.expression.terms[1].coefficient*float64(vb.valueY)
		if c.violationOf(value) > epsilon {
			continue
		}
		n.candidates = append(n.candidates, &vb.move)
	}
}

func (n *Neighborhood) setupExclusiveMoves() {
	for _, c := range n.model.constraintsFlat {
		if !c.isEnabled || c.class != ClassSetPacking {
			continue
		}
		fixed := false
		for i := range c.expression.terms {
			if c.expression.terms[i].variable.isFixed {
				fixed = true
				break
			}
		}
		if fixed {
			continue
		}
		members := make([]*Variable, len(c.expression.terms))
		for i := range c.expression.terms {
			members[i] = c.expression.terms[i].variable
		}
		related := relatedConstraintUnionAll(members)
		for _, chosen := range members {
			alterations := make([]Alteration, 0, len(members))
			alterations = append(alterations, Alteration{Variable: chosen, Value: 1})
			for _, other := range members {
				if other != chosen {
					alterations = append(alterations, Alteration{Variable: other, Value: 0})
				}
			}
			n.exclusiveMoves = append(n.exclusiveMoves, Move{
				Sense:              MoveSenseExclusive,
				Alterations:        alterations,
				RelatedConstraints: related,
			})
		}
	}
}

// generateExclusiveMoves forces exactly one member of a mutually-exclusive
// group to 1; moves that would not change anything are skipped.
func (n *Neighborhood) generateExclusiveMoves() {
	for i := range n.exclusiveMoves {
		move := &n.exclusiveMoves[i]
		differs := false
		for j := range move.Alterations {
			if move.Alterations[j].Value != move.Alterations[j].Variable.value {
				differs = true
				break
			}
		}
		if differs {
			n.candidates = append(n.candidates, move)
		}
	}
}

// relatedConstraintUnion merges two variables' related-constraint lists in
// ordinal order without duplicates.
func relatedConstraintUnion(x, y *Variable) []*Constraint {
	return relatedConstraintUnionAll([]*Variable{x, y})
}

func relatedConstraintUnionAll(variables []*Variable) []*Constraint {
	seen := map[*Constraint]bool{}
	var union []*Constraint
	for _, v := range variables {
		for i := range v.related {
			c := v.related[i].constraint
			if !seen[c] {
				seen[c] = true
				union = append(union, c)
			}
		}
	}
	return union
}
