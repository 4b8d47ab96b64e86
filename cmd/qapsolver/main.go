// Command qapsolver solves a QAPLIB instance with the tabu search solver.
//
// Usage:
//
//	qapsolver [-p OPTION_FILE] INPUT_FILE
//
// The incumbent solution and the solve status are written to incumbent.sol,
// incumbent.json, and status.json in the working directory; feasible.json is
// written when historical data collection is enabled. The exit status is 0 on
// completion regardless of feasibility, 1 on a usage or input error.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitrdm/gomip/pkg/mip"
	"github.com/gitrdm/gomip/pkg/qaplib"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var inputFile string
	var optionFile string

	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-p":
			if i+1 >= len(args) {
				usage()
				return 1
			}
			optionFile = args[i+1]
			i += 2
		default:
			inputFile = args[i]
			i++
		}
	}
	if inputFile == "" {
		usage()
		return 1
	}

	instance, err := qaplib.Read(inputFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	name := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
	model, x, err := qaplib.CreateModel(name, instance)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	qaplib.RegisterSwapMoveUpdater(model, x, instance.N)

	option := mip.DefaultOption()
	if optionFile != "" {
		option, err = mip.LoadOption(optionFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	// Single flips cannot keep the assignment constraints satisfied; the
	// swap updater is the productive neighborhood for this problem.
	option.IsEnabledBinaryMove = false
	option.IsEnabledIntegerMove = false
	option.IsEnabledUserDefinedMove = true
	option.IsEnabledChainMove = false
	option.IsEnabledImprovabilityScreening = false
	option.SelectionMode = mip.SelectionModeDefined

	result, err := mip.Solve(context.Background(), model, option)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	fmt.Printf("status: %t\n", result.Solution.IsFeasible)
	fmt.Printf("objective: %f\n", result.Solution.Objective)

	if err := result.Solution.WriteJSON("incumbent.json"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := result.Solution.WriteSolutionFile("incumbent.sol"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if err := result.Status.WriteJSON("status.json"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	if option.IsEnabledCollectHistoricalData {
		if err := result.History.WriteJSON("feasible.json"); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return 0
}

func usage() {
	fmt.Println("Usage: qapsolver [-p OPTION_FILE] INPUT_FILE")
	fmt.Println()
	fmt.Println("  -p OPTION_FILE: read solver options from a YAML file")
}
