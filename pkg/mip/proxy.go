package mip

// ValueProxy is the universal flat-indexed, shape-aware container used for
// per-variable and per-constraint parallel arrays: current values, penalty
// coefficients, update counts, and last-update iterations. Proxies carrying
// parameters for the same entities share the entity proxy's id and shape, so
// an entity's (proxy id, flat index) pair addresses every parallel array.
type ValueProxy[T comparable] struct {
	MultiArray
	values []T
}

func newValueProxy[T comparable](id int, shape []int, fill T) ValueProxy[T] {
	p := ValueProxy[T]{MultiArray: newMultiArray(id, shape)}
	p.values = make([]T, p.numElement)
	for i := range p.values {
		p.values[i] = fill
	}
	return p
}

// Values returns the flat value slice. The slice is owned by the proxy;
// callers mutate elements in place.
func (p *ValueProxy[T]) Values() []T { return p.values }

// Value returns the element at a flat index.
func (p *ValueProxy[T]) Value(flat int) T { return p.values[flat] }

// SetValue stores an element at a flat index.
func (p *ValueProxy[T]) SetValue(flat int, v T) { p.values[flat] = v }

// Fill sets every element to v.
func (p *ValueProxy[T]) Fill(v T) {
	for i := range p.values {
		p.values[i] = v
	}
}

// Clone returns a deep copy.
func (p *ValueProxy[T]) Clone() ValueProxy[T] {
	c := ValueProxy[T]{MultiArray: p.MultiArray}
	c.values = append([]T(nil), p.values...)
	return c
}

// Equal reports whether two proxies hold identical values.
func (p *ValueProxy[T]) Equal(other *ValueProxy[T]) bool {
	if len(p.values) != len(other.values) {
		return false
	}
	for i, v := range p.values {
		if v != other.values[i] {
			return false
		}
	}
	return true
}

func cloneProxies[T comparable](proxies []ValueProxy[T]) []ValueProxy[T] {
	clones := make([]ValueProxy[T], len(proxies))
	for i := range proxies {
		clones[i] = proxies[i].Clone()
	}
	return clones
}

func equalProxies[T comparable](a, b []ValueProxy[T]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}
