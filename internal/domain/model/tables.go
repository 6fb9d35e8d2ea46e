package model

// Static reference tables consumed by the simulator unchanged throughout
// calibration. The engine passes them through and never adjusts them.

// ControlPlanPhase is one signal phase within a junction's plan.
type ControlPlanPhase struct {
	Name            string  `yaml:"name" json:"name"`
	DurationSeconds float64 `yaml:"duration_seconds" json:"duration_seconds"`
}

// ControlPlanEntry is the signal timing for one junction.
type ControlPlanEntry struct {
	Junction      string             `yaml:"junction" json:"junction"`
	OffsetSeconds float64            `yaml:"offset_seconds" json:"offset_seconds"`
	Phases        []ControlPlanPhase `yaml:"phases" json:"phases"`
}

// ControlPlan is the time-varying traffic control supplied to the simulator.
type ControlPlan struct {
	ID      string             `yaml:"id" json:"id"`
	Entries []ControlPlanEntry `yaml:"entries" json:"entries"`
}

// SpeedCapacityEntry gives the speed limit and capacity of one section.
type SpeedCapacityEntry struct {
	Section     SectionID `yaml:"section" json:"section"`
	SpeedKPH    float64   `yaml:"speed_kph" json:"speed_kph"`
	CapacityVPH float64   `yaml:"capacity_vph" json:"capacity_vph"`
}

type SpeedCapacityTable struct {
	Entries []SpeedCapacityEntry `yaml:"entries" json:"entries"`
}

// CentroidConnection links a centroid to the section it loads demand onto
// or collects demand from.
type CentroidConnection struct {
	Centroid  CentroidID `yaml:"centroid" json:"centroid"`
	Section   SectionID  `yaml:"section" json:"section"`
	Direction string     `yaml:"direction" json:"direction"` // "from" or "to"
}

type CentroidConfiguration struct {
	ID          string               `yaml:"id" json:"id"`
	Connections []CentroidConnection `yaml:"connections" json:"connections"`
}

// StaticTables bundles the pass-through inputs for one calibration run.
type StaticTables struct {
	ControlPlan   *ControlPlan
	SpeedCapacity *SpeedCapacityTable
	CentroidConf  *CentroidConfiguration
}
