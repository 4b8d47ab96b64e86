package mip

// IsMoveImprovable is the improvability screen: it reports whether a move
// could improve the objective or reduce any currently-violated constraint,
// judged only by sensitivity signs. The check is conservative; a move it
// rejects cannot be improving, so screening never discards improving moves.
// Models with a nonlinear objective or constraint pass every move, because
// sensitivities do not cover their nonlinear parts.
func (m *Model) IsMoveImprovable(move *Move) bool {
	if !m.isLinear {
		return true
	}
	for i := range move.Alterations {
		alt := &move.Alterations[i]
		v := alt.Variable
		d := float64(alt.Value - v.value)
		if d == 0 {
			continue
		}
		if m.isDefinedObjective && m.Sign()*v.objectiveSensitivity*d < 0 {
			return true
		}
		for j := range v.related {
			rc := &v.related[j]
			c := rc.constraint
			if !c.isEnabled || c.violation <= epsilon {
				continue
			}
			delta := rc.coefficient * d
			switch c.sense {
			case SenseLess:
				if delta < 0 {
					return true
				}
			case SenseGreater:
				if delta > 0 {
					return true
				}
			case SenseEqual:
				if (c.value > 0 && delta < 0) || (c.value < 0 && delta > 0) {
					return true
				}
			}
		}
	}
	return false
}
