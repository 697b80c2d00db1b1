package entities

// Range is a closed numeric interval. Salinity only carries a Max.
type Range struct {
	Min float64 `json:"min,omitempty" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// OptimalConditions are the growing conditions a crop prefers.
type OptimalConditions struct {
	Temperature Range `json:"temperature" yaml:"temperature"`
	PH          Range `json:"ph" yaml:"ph"`
	Salinity    Range `json:"salinity" yaml:"salinity"`
}

// Crop is an entry of the crops database.
type Crop struct {
	Name       string            `json:"name" yaml:"name"`
	Varieties  []string          `json:"varieties" yaml:"varieties"`
	Conditions OptimalConditions `json:"optimal_conditions" yaml:"optimal_conditions"`
}

// CropProfile holds the headline economics shown on the crop detail page.
type CropProfile struct {
	Crop    string `json:"crop" yaml:"crop"`
	Cycle   string `json:"cycle" yaml:"cycle"`
	Yield   string `json:"yield" yaml:"yield"`
	Revenue string `json:"revenue" yaml:"revenue"`
	Cost    string `json:"cost" yaml:"cost"`
}

// ScheduleStage is one row of a planting timeline.
type ScheduleStage struct {
	Stage     string `json:"stage" yaml:"stage"`
	Period    string `json:"period" yaml:"period"`
	Operation string `json:"operation" yaml:"operation"`
}

// CropPlan is the detailed planting plan attached to a recommended crop.
type CropPlan struct {
	Crop     string          `json:"crop" yaml:"crop"`
	Emoji    string          `json:"emoji" yaml:"emoji"`
	Variety  string          `json:"variety" yaml:"variety"`
	Image    string          `json:"image" yaml:"image"`
	Reasons  []string        `json:"reasons" yaml:"reasons"`
	Schedule []ScheduleStage `json:"schedule" yaml:"schedule"`
}

// CropCategory groups "<crop> <variety>" labels under a category name.
type CropCategory struct {
	Name      string   `json:"name" yaml:"name"`
	Varieties []string `json:"varieties" yaml:"varieties"`
}
