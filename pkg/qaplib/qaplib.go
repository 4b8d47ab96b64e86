// Package qaplib reads QAPLIB instances and converts them into solver
// models. A QAPLIB file is a whitespace-separated token stream: the size n,
// then the n*n flow matrix row-major, then the n*n distance matrix.
package qaplib

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/gitrdm/gomip/pkg/mip"
)

// Instance is one quadratic assignment problem: assign n facilities to n
// locations minimizing the flow-weighted distance.
type Instance struct {
	N        int
	Flow     *mat.Dense
	Distance *mat.Dense
}

// Read parses a QAPLIB file. Line breaks are insignificant; only token order
// matters.
func Read(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("qaplib: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	next := func() (float64, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("unexpected end of file")
		}
		return strconv.ParseFloat(scanner.Text(), 64)
	}

	size, err := next()
	if err != nil {
		return nil, fmt.Errorf("qaplib %s: reading size: %w", path, err)
	}
	n := int(size)
	if n <= 0 {
		return nil, fmt.Errorf("qaplib %s: invalid size %d", path, n)
	}

	instance := &Instance{
		N:        n,
		Flow:     mat.NewDense(n, n, nil),
		Distance: mat.NewDense(n, n, nil),
	}
	for _, matrix := range []*mat.Dense{instance.Flow, instance.Distance} {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				value, err := next()
				if err != nil {
					return nil, fmt.Errorf("qaplib %s: reading matrices: %w", path, err)
				}
				matrix.Set(i, j, value)
			}
		}
	}
	return instance, nil
}

// CreateModel builds the assignment model: binary x[i][j] meaning facility i
// sits at location j, one selection per facility row, an equality per
// location column, and the quadratic objective evaluated through a function
// expression. Search over the model should use the swap updater from
// RegisterSwapMoveUpdater instead of single flips, which cannot keep the
// column constraints satisfied.
func CreateModel(name string, instance *Instance) (*mip.Model, *mip.VariableProxy, error) {
	n := instance.N
	model := mip.NewModel(name)

	x, err := model.NewVariablesWithShape("x", []int{n, n}, 0, 1)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < n; i++ {
		row := mip.NewExpression()
		for j := 0; j < n; j++ {
			row.Term(1, x.At(i, j))
		}
		if _, err := model.NewConstraint(fmt.Sprintf("facility_%d", i),
			row.EqualTo(1).DefinedSelection()); err != nil {
			return nil, nil, err
		}
	}
	for j := 0; j < n; j++ {
		column := mip.NewExpression()
		for i := 0; i < n; i++ {
			column.Term(1, x.At(i, j))
		}
		if _, err := model.NewConstraint(fmt.Sprintf("location_%d", j),
			column.EqualTo(1)); err != nil {
			return nil, nil, err
		}
	}

	// Initial assignment: facility i at location i.
	for i := 0; i < n; i++ {
		if err := x.At(i, i).SetValue(1); err != nil {
			return nil, nil, err
		}
	}

	locations := make([]int, n)
	objective := mip.NewFunctionExpression(func(move *mip.Move) float64 {
		for i := 0; i < n; i++ {
			locations[i] = -1
			for j := 0; j < n; j++ {
				if x.At(i, j).Evaluate(move) == 1 {
					locations[i] = j
					break
				}
			}
		}
		total := 0.0
		for i := 0; i < n; i++ {
			if locations[i] < 0 {
				continue
			}
			for k := 0; k < n; k++ {
				if locations[k] < 0 {
					continue
				}
				total += instance.Flow.At(i, k) * instance.Distance.At(locations[i], locations[k])
			}
		}
		return total
	})
	model.Minimize(objective)

	return model, x, nil
}

// RegisterSwapMoveUpdater installs the user-defined neighborhood: every pair
// of facilities exchanges locations, which preserves both the row and the
// column constraints.
func RegisterSwapMoveUpdater(model *mip.Model, x *mip.VariableProxy, n int) {
	model.RegisterMoveUpdater(func(moves *[]mip.Move) error {
		locations := make([]int, n)
		for i := 0; i < n; i++ {
			locations[i] = -1
			for j := 0; j < n; j++ {
				if x.At(i, j).Value() == 1 {
					locations[i] = j
					break
				}
			}
		}
		for i := 0; i < n; i++ {
			for k := i + 1; k < n; k++ {
				ji, jk := locations[i], locations[k]
				if ji < 0 || jk < 0 || ji == jk {
					continue
				}
				*moves = append(*moves, mip.Move{
					Alterations: []mip.Alteration{
						{Variable: x.At(i, ji), Value: 0},
						{Variable: x.At(i, jk), Value: 1},
						{Variable: x.At(k, jk), Value: 0},
						{Variable: x.At(k, ji), Value: 1},
					},
				})
			}
		}
		return nil
	})
}
