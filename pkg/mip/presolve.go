package mip

import (
	"fmt"
	"math"
)

// presolve simplifies the model before search: variables outside every
// constraint are fixed at their objective-preferred bound, zero-range
// variables are fixed, and constraints reduced to a single unfixed variable
// fix that variable (equalities) or tighten its bounds (inequalities) and are
// disabled. The constraint pass repeats until a fixpoint; a contradiction is
// an infeasibility error.
func (m *Model) presolve(printer *Printer) error {
	m.removeIndependentVariables(printer)
	m.fixImplicitFixedVariables(printer)

	for {
		changed, err := m.reduceConstraints(printer)
		if err != nil {
			return err
		}
		if m.fixImplicitFixedVariables(printer) {
			changed = true
		}
		if !changed {
			return nil
		}
	}
}

// removeIndependentVariables fixes variables that appear in no enabled
// constraint at the bound their objective sensitivity prefers.
func (m *Model) removeIndependentVariables(printer *Printer) {
	for _, v := range m.variablesFlat {
		if v.isFixed {
			continue
		}
		hasEnabled := false
		for i := range v.related {
			if v.related[i].constraint.isEnabled {
				hasEnabled = true
				break
			}
		}
		if hasEnabled {
			continue
		}
		preference := m.Sign() * v.objectiveSensitivity
		switch {
		case preference > 0:
			v.FixTo(v.lower)
		case preference < 0:
			v.FixTo(v.upper)
		default:
			v.Fix()
		}
		printer.Info(fmt.Sprintf("The value of the independent variable %s was fixed at %d.", v.name, v.value))
	}
}

// fixImplicitFixedVariables fixes variables whose bounds collapsed to one
// value. It reports whether anything changed.
func (m *Model) fixImplicitFixedVariables(printer *Printer) bool {
	changed := false
	for _, v := range m.variablesFlat {
		if v.isFixed || v.lower != v.upper {
			continue
		}
		v.FixTo(v.lower)
		printer.Info(fmt.Sprintf("The value of the variable %s was fixed at %d by its bounds.", v.name, v.value))
		changed = true
	}
	return changed
}

// reduceConstraints substitutes fixed variables into every enabled linear
// constraint and handles the residue: no unfixed variable left means the
// constraint is either redundant or a contradiction; exactly one unfixed
// variable fixes it (equality) or tightens its bounds (inequality).
func (m *Model) reduceConstraints(printer *Printer) (bool, error) {
	changed := false
	for _, c := range m.constraintsFlat {
		if !c.isEnabled || !c.expression.IsLinear() {
			continue
		}

		constant := c.expression.constant
		var unfixed *term
		unfixedCount := 0
		for i := range c.expression.terms {
			t := &c.expression.terms[i]
			if t.variable.isFixed {
				constant += t.coefficient * float64(t.variable.value)
			} else {
				unfixed = t
				unfixedCount++
			}
		}
		if unfixedCount > 1 {
			continue
		}

		if unfixedCount == 0 {
			if c.violationOf(constant) > epsilon {
				return false, fmt.Errorf("%w: constraint %s is violated by fixed variable values",
					ErrInfeasibleBySetup, c.name)
			}
			c.Disable()
			printer.Info(fmt.Sprintf("The redundant constraint %s was removed.", c.name))
			changed = true
			continue
		}

		v := unfixed.variable
		a := unfixed.coefficient
		switch c.sense {
		case SenseEqual:
			target := -constant / a
			rounded := math.Round(target)
			if math.Abs(target-rounded) > epsilon {
				return false, fmt.Errorf("%w: constraint %s requires the non-integral value %g for %s",
					ErrInfeasibleBySetup, c.name, target, v.name)
			}
			value := int64(rounded)
			if value < v.lower || value > v.upper {
				return false, fmt.Errorf("%w: constraint %s requires %s = %d outside its bounds [%d, %d]",
					ErrInfeasibleBySetup, c.name, v.name, value, v.lower, v.upper)
			}
			v.FixTo(value)
			printer.Info(fmt.Sprintf("The value of the variable %s was fixed at %d by the constraint %s.", v.name, value, c.name))
		case SenseLess:
			// a*v + constant <= 0
			if a > 0 {
				bound := int64(math.Floor(-constant/a + epsilon))
				if bound < v.upper {
					v.upper = bound
				}
			} else {
				bound := int64(math.Ceil(-constant/a - epsilon))
				if bound > v.lower {
					v.lower = bound
				}
			}
			printer.Info(fmt.Sprintf("The bounds of the variable %s were tightened to [%d, %d] by the constraint %s.", v.name, v.lower, v.upper, c.name))
		case SenseGreater:
			// a*v + constant >= 0
			if a > 0 {
				bound := int64(math.Ceil(-constant/a - epsilon))
				if bound > v.lower {
					v.lower = bound
				}
			} else {
				bound := int64(math.Floor(-constant/a + epsilon))
				if bound < v.upper {
					v.upper = bound
				}
			}
			printer.Info(fmt.Sprintf("The bounds of the variable %s were tightened to [%d, %d] by the constraint %s.", v.name, v.lower, v.upper, c.name))
		}
		if v.lower > v.upper {
			return false, fmt.Errorf("%w: constraint %s empties the domain of %s",
				ErrInfeasibleBySetup, c.name, v.name)
		}
		if !v.isFixed {
			if v.value < v.lower {
				v.setValueForce(v.lower)
			}
			if v.value > v.upper {
				v.setValueForce(v.upper)
			}
			v.setupSense()
		}
		c.Disable()
		changed = true
	}
	return changed, nil
}
