package mip

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RestartMode selects the solution a tabu phase restarts from: the global
// augmented incumbent or the phase's own local augmented incumbent.
type RestartMode int

const (
	RestartModeGlobal RestartMode = iota
	RestartModeLocal
)

// String returns the mode name.
func (m RestartMode) String() string {
	switch m {
	case RestartModeGlobal:
		return "Global"
	case RestartModeLocal:
		return "Local"
	default:
		return "Unknown"
	}
}

// Option is the flat solver configuration. Zero values are not meaningful
// defaults; start from DefaultOption and override.
type Option struct {
	IsEnabledLagrangeDual               bool `yaml:"is_enabled_lagrange_dual"`
	IsEnabledLocalSearch                bool `yaml:"is_enabled_local_search"`
	IsEnabledBinaryMove                 bool `yaml:"is_enabled_binary_move"`
	IsEnabledIntegerMove                bool `yaml:"is_enabled_integer_move"`
	IsEnabledUserDefinedMove            bool `yaml:"is_enabled_user_defined_move"`
	IsEnabledChainMove                  bool `yaml:"is_enabled_chain_move"`
	IsEnabledAggregationMove            bool `yaml:"is_enabled_aggregation_move"`
	IsEnabledPrecedenceMove             bool `yaml:"is_enabled_precedence_move"`
	IsEnabledVariableBoundMove          bool `yaml:"is_enabled_variable_bound_move"`
	IsEnabledExclusiveMove              bool `yaml:"is_enabled_exclusive_move"`
	IsEnabledImprovabilityScreening     bool `yaml:"is_enabled_improvability_screening"`
	IsEnabledPresolve                   bool `yaml:"is_enabled_presolve"`
	IsEnabledInitialValueCorrection     bool `yaml:"is_enabled_initial_value_correction"`
	IsEnabledParallelNeighborhoodUpdate bool `yaml:"is_enabled_parallel_neighborhood_update"`
	IsEnabledCollectHistoricalData      bool `yaml:"is_enabled_collect_historical_data"`
	IsEnabledGroupingPenaltyCoefficient bool `yaml:"is_enabled_grouping_penalty_coefficient"`

	TimeMax      float64 `yaml:"time_max"`
	IterationMax int     `yaml:"iteration_max"`
	Seed         int64   `yaml:"seed"`

	InitialPenaltyCoefficient             float64 `yaml:"initial_penalty_coefficient"`
	PenaltyCoefficientTighteningRate      float64 `yaml:"penalty_coefficient_tightening_rate"`
	PenaltyCoefficientRelaxingRate        float64 `yaml:"penalty_coefficient_relaxing_rate"`
	PenaltyCoefficientUpdatingBalance     float64 `yaml:"penalty_coefficient_updating_balance"`
	PenaltyCoefficientResetCountThreshold int     `yaml:"penalty_coefficient_reset_count_threshold"`

	// TargetObjectiveValue is optional; nil means no target. An explicit
	// pointer avoids the sentinel-value ambiguity of "not set".
	TargetObjectiveValue *float64 `yaml:"target_objective_value"`

	HistoricalDataCapacity int `yaml:"historical_data_capacity"`

	SelectionMode SelectionMode `yaml:"selection_mode"`
	Verbose       Verbose       `yaml:"verbose"`

	LagrangeDual LagrangeDualOption `yaml:"lagrange_dual"`
	LocalSearch  LocalSearchOption  `yaml:"local_search"`
	TabuSearch   TabuSearchOption   `yaml:"tabu_search"`
}

// LagrangeDualOption configures the optional subgradient bootstrap phase.
type LagrangeDualOption struct {
	IterationMax int     `yaml:"iteration_max"`
	TimeMax      float64 `yaml:"time_max"`
	Seed         int64   `yaml:"seed"`
	TimeOffset   float64 `yaml:"-"`

	StepSizeExtendRate float64 `yaml:"step_size_extend_rate"`
	StepSizeReduceRate float64 `yaml:"step_size_reduce_rate"`
	Tolerance          float64 `yaml:"tolerance"`
}

// LocalSearchOption configures the optional warm-start descent phase.
type LocalSearchOption struct {
	IterationMax int     `yaml:"iteration_max"`
	TimeMax      float64 `yaml:"time_max"`
	Seed         int64   `yaml:"seed"`
	TimeOffset   float64 `yaml:"-"`
}

// TabuSearchOption configures one tabu phase; the outer controller rewrites
// several fields between phases.
type TabuSearchOption struct {
	IterationMax int     `yaml:"iteration_max"`
	TimeMax      float64 `yaml:"time_max"`
	Seed         int64   `yaml:"seed"`
	TimeOffset   float64 `yaml:"-"`

	InitialTabuTenure                int     `yaml:"initial_tabu_tenure"`
	IterationIncreaseRate            float64 `yaml:"iteration_increase_rate"`
	InitialModificationFixedRate     float64 `yaml:"initial_modification_fixed_rate"`
	InitialModificationRandomizeRate float64 `yaml:"initial_modification_randomize_rate"`

	IsEnabledAutomaticIterationAdjustment  bool `yaml:"is_enabled_automatic_iteration_adjustment"`
	IsEnabledAutomaticTabuTenureAdjustment bool `yaml:"is_enabled_automatic_tabu_tenure_adjustment"`
	IsEnabledInitialModification           bool `yaml:"is_enabled_initial_modification"`

	RestartMode RestartMode `yaml:"restart_mode"`

	// NoImprovementIterationMax stops a phase after that many iterations
	// without a local augmented incumbent update; zero disables the window.
	NoImprovementIterationMax int `yaml:"no_improvement_iteration_max"`

	// TimeCheckInterval is how many inner iterations pass between time and
	// cancellation checks.
	TimeCheckInterval int `yaml:"time_check_interval"`

	// NumberOfInitialModification is set by the controller for stalled
	// phases; it is not read from option files.
	NumberOfInitialModification int `yaml:"-"`
}

// DefaultOption returns the solver defaults.
func DefaultOption() *Option {
	return &Option{
		IsEnabledLagrangeDual:               false,
		IsEnabledLocalSearch:                false,
		IsEnabledBinaryMove:                 true,
		IsEnabledIntegerMove:                true,
		IsEnabledUserDefinedMove:            false,
		IsEnabledChainMove:                  false,
		IsEnabledAggregationMove:            true,
		IsEnabledPrecedenceMove:             true,
		IsEnabledVariableBoundMove:          true,
		IsEnabledExclusiveMove:              true,
		IsEnabledImprovabilityScreening:     true,
		IsEnabledPresolve:                   true,
		IsEnabledInitialValueCorrection:     true,
		IsEnabledParallelNeighborhoodUpdate: true,
		IsEnabledCollectHistoricalData:      true,
		IsEnabledGroupingPenaltyCoefficient: false,

		TimeMax:      120,
		IterationMax: 100,
		Seed:         1,

		InitialPenaltyCoefficient:             1e7,
		PenaltyCoefficientTighteningRate:      1.0,
		PenaltyCoefficientRelaxingRate:        0.9,
		PenaltyCoefficientUpdatingBalance:     0.5,
		PenaltyCoefficientResetCountThreshold: 10,

		HistoricalDataCapacity: 1000,

		SelectionMode: SelectionModeNone,
		Verbose:       VerboseNone,

		LagrangeDual: LagrangeDualOption{
			IterationMax:       1000,
			TimeMax:            120,
			Seed:               1,
			StepSizeExtendRate: 1.05,
			StepSizeReduceRate: 0.5,
			Tolerance:          1e-5,
		},
		LocalSearch: LocalSearchOption{
			IterationMax: 10000,
			TimeMax:      120,
			Seed:         1,
		},
		TabuSearch: TabuSearchOption{
			IterationMax:                           200,
			TimeMax:                                120,
			Seed:                                   1,
			InitialTabuTenure:                      10,
			IterationIncreaseRate:                  1.5,
			InitialModificationFixedRate:           1.0,
			InitialModificationRandomizeRate:       0.5,
			IsEnabledAutomaticIterationAdjustment:  true,
			IsEnabledAutomaticTabuTenureAdjustment: true,
			IsEnabledInitialModification:           true,
			RestartMode:                            RestartModeGlobal,
			NoImprovementIterationMax:              0,
			TimeCheckInterval:                      10,
		},
	}
}

// LoadOption reads a YAML option file over the defaults: absent keys keep
// their default values.
func LoadOption(path string) (*Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Option: %w", err)
	}
	option := DefaultOption()
	if err := yaml.Unmarshal(data, option); err != nil {
		return nil, fmt.Errorf("Option %s: %w", path, err)
	}
	return option, nil
}

// UnmarshalYAML reads a verbose level from its name.
func (v *Verbose) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "none":
		*v = VerboseNone
	case "warning":
		*v = VerboseWarning
	case "outer":
		*v = VerboseOuter
	case "full":
		*v = VerboseFull
	default:
		return fmt.Errorf("Option: invalid verbose level %q", s)
	}
	return nil
}

// MarshalYAML writes a verbose level as its name.
func (v Verbose) MarshalYAML() (interface{}, error) { return v.String(), nil }

// UnmarshalYAML reads a selection mode from its name.
func (m *SelectionMode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "none":
		*m = SelectionModeNone
	case "defined":
		*m = SelectionModeDefined
	case "independent":
		*m = SelectionModeIndependent
	case "larger":
		*m = SelectionModeLarger
	default:
		return fmt.Errorf("Option: invalid selection mode %q", s)
	}
	return nil
}

// MarshalYAML writes a selection mode as its name.
func (m SelectionMode) MarshalYAML() (interface{}, error) { return m.String(), nil }

// UnmarshalYAML reads a restart mode from its name.
func (m *RestartMode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "global":
		*m = RestartModeGlobal
	case "local":
		*m = RestartModeLocal
	default:
		return fmt.Errorf("Option: invalid restart mode %q", s)
	}
	return nil
}

// MarshalYAML writes a restart mode as its name.
func (m RestartMode) MarshalYAML() (interface{}, error) { return m.String(), nil }
