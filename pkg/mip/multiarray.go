package mip

import (
	"fmt"
	"strings"
)

// MultiArray carries the shape metadata shared by every flat-indexed entity
// container (variable, expression, and constraint proxies as well as the
// generic ValueProxy). Elements live in a flat slice; the shape and strides
// convert between flat and multi-dimensional indices.
type MultiArray struct {
	id         int
	shape      []int
	strides    []int
	numElement int
}

func newMultiArrayScalar(id int) MultiArray {
	return newMultiArray(id, []int{1})
}

func newMultiArray(id int, shape []int) MultiArray {
	n := 1
	for _, s := range shape {
		n *= s
	}
	strides := make([]int, len(shape))
	strides[len(shape)-1] = 1
	for i := len(shape) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * shape[i+1]
	}
	return MultiArray{
		id:         id,
		shape:      append([]int(nil), shape...),
		strides:    strides,
		numElement: n,
	}
}

// ID returns the stable proxy id assigned at creation.
func (m *MultiArray) ID() int { return m.id }

// Shape returns the dimension sizes.
func (m *MultiArray) Shape() []int { return m.shape }

// Strides returns the flat-index stride of each dimension.
func (m *MultiArray) Strides() []int { return m.strides }

// NumberOfDimensions returns how many dimensions the container has.
func (m *MultiArray) NumberOfDimensions() int { return len(m.shape) }

// NumberOfElements returns the total element count.
func (m *MultiArray) NumberOfElements() int { return m.numElement }

// FlatIndex converts a multi-dimensional index to its flat position.
func (m *MultiArray) FlatIndex(index []int) int {
	flat := 0
	for i, v := range index {
		flat += v * m.strides[i]
	}
	return flat
}

// MultiIndex converts a flat position back to its multi-dimensional index.
func (m *MultiArray) MultiIndex(flat int) []int {
	index := make([]int, len(m.shape))
	remain := flat
	for i := range m.shape {
		index[i] = remain / m.strides[i]
		remain = remain % m.strides[i]
	}
	return index
}

// IndexLabel renders the multi-dimensional index of a flat position as a
// bracketed suffix, e.g. "[2, 0]". Scalar containers yield an empty label so
// that a scalar entity is addressed by its bare name.
func (m *MultiArray) IndexLabel(flat int) string {
	if m.numElement == 1 && len(m.shape) == 1 {
		return ""
	}
	index := m.MultiIndex(flat)
	parts := make([]string, len(index))
	for i, v := range index {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
