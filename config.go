package reina

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config represents any top level TOML configuration that can create a
// new simulation context.
type Config interface {
	Validate() error
	NewContext() (*Context, error)
	Days() int
	NumInstances() int
	LogFreq() int
	LogPath() string
	LogTransmission() bool
}

// LoadScenarioConfig parses a TOML scenario file into a ScenarioConfig.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	spec := new(ScenarioConfig)
	_, err := toml.DecodeFile(path, spec)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// ScenarioConfig contains the parameters to simulate an epidemic in a
// named area: the simulation horizon, the population and its contact
// structure, healthcare capacity, the disease constants and the
// intervention timeline.
type ScenarioConfig struct {
	SimParams     *scenarioSimConfig  `toml:"simulation"`
	PopParams     *populationConfig   `toml:"population"`
	HCParams      *healthcareConfig   `toml:"healthcare"`
	DiseaseParams *diseaseConfig      `toml:"disease"`
	Interventions []*Intervention     `toml:"intervention"`

	validated bool
}

type scenarioSimConfig struct {
	AreaName        string `toml:"area_name"`
	SimulationDays  int    `toml:"days"`
	StartDate       string `toml:"start_date"`
	RandomSeed      int64  `toml:"random_seed"`
	Instances       int    `toml:"num_instances"`
	LogPathValue    string `toml:"log_path"`
	LogFreqValue    int    `toml:"log_freq"`
	LogTransmission bool   `toml:"log_transmission"`
}

func (c *scenarioSimConfig) Validate() error {
	if c.SimulationDays < 1 {
		return fmt.Errorf(InvalidIntParameterError, "days", c.SimulationDays, "must be at least 1")
	}
	if c.StartDate == "" {
		return fmt.Errorf(InvalidStringParameterError, "start_date", c.StartDate, "must be an ISO date")
	}
	if c.Instances == 0 {
		c.Instances = 1
	}
	if c.LogFreqValue == 0 {
		c.LogFreqValue = 1
	}
	return nil
}

type populationConfig struct {
	AgeStructurePath string  `toml:"age_structure_path"`
	AgeStructure     [][]int `toml:"age_structure"`

	ContactsPath string           `toml:"contacts_path"`
	Contacts     []*contactConfig `toml:"contact"`

	ImportedInfectionAges [][]float64 `toml:"imported_infection_ages"`

	Initial *initialConditionConfig `toml:"initial"`
}

type contactConfig struct {
	Place           string  `toml:"place"`
	ParticipantAges string  `toml:"participant_ages"`
	ContactAges     string  `toml:"contact_ages"`
	Contacts        float64 `toml:"contacts"`
}

type initialConditionConfig struct {
	Dead           int `toml:"dead"`
	InICU          int `toml:"in_icu"`
	InWard         int `toml:"in_ward"`
	ConfirmedCases int `toml:"confirmed_cases"`
	Incubating     int `toml:"incubating"`
	Ill            int `toml:"ill"`
	Recovered      int `toml:"recovered"`
}

func (c *populationConfig) Validate() error {
	if c.AgeStructurePath == "" && len(c.AgeStructure) == 0 {
		return fmt.Errorf(InvalidStringParameterError, "age_structure_path", "", "population needs an age structure")
	}
	if c.AgeStructurePath != "" && len(c.AgeStructure) > 0 {
		return fmt.Errorf(InvalidStringParameterError, "age_structure_path", c.AgeStructurePath, "cannot combine with an inline age structure")
	}
	for _, row := range c.AgeStructure {
		if len(row) != 3 {
			return fmt.Errorf(InvalidIntParameterError, "age structure row length", len(row), "rows are [min_age, max_age, count]")
		}
		if row[0] < 0 || row[1] < row[0] || row[2] < 0 {
			return fmt.Errorf(InvalidIntParameterError, "age structure row start", row[0], "rows are [min_age, max_age, count]")
		}
	}
	if c.ContactsPath == "" && len(c.Contacts) == 0 {
		return fmt.Errorf(InvalidStringParameterError, "contacts_path", "", "population needs a contact matrix")
	}
	for i, w := range c.ImportedInfectionAges {
		if len(w) != 2 {
			return fmt.Errorf(InvalidIntParameterError, "imported infection age row length", len(w), "rows are [bracket_start, weight]")
		}
		if i > 0 && int(w[0]) <= int(c.ImportedInfectionAges[i-1][0]) {
			return fmt.Errorf(InvalidIntParameterError, "imported infection age bracket", int(w[0]), "brackets must be ascending")
		}
	}
	return nil
}

// ageStructure expands the configured structure into per-age counts. A
// bracket's count is spread evenly over its ages, remainder to the
// youngest.
func (c *populationConfig) ageStructure() ([]int, error) {
	if c.AgeStructurePath != "" {
		return LoadAgeStructure(c.AgeStructurePath)
	}
	maxAge := 0
	for _, row := range c.AgeStructure {
		if row[1] > maxAge {
			maxAge = row[1]
		}
	}
	out := make([]int, maxAge+1)
	for _, row := range c.AgeStructure {
		span := row[1] - row[0] + 1
		for age := row[0]; age <= row[1]; age++ {
			out[age] += row[2] / span
			if age-row[0] < row[2]%span {
				out[age]++
			}
		}
	}
	return out, nil
}

func (c *populationConfig) contactRows() ([]ContactRow, error) {
	if c.ContactsPath != "" {
		return LoadContactMatrix(c.ContactsPath)
	}
	var rows []ContactRow
	for i, cc := range c.Contacts {
		pLo, pHi, err := parseAgeRange(cc.ParticipantAges)
		if err != nil {
			return nil, errors.Wrapf(err, "contact row %d", i)
		}
		cLo, cHi, err := parseAgeRange(cc.ContactAges)
		if err != nil {
			return nil, errors.Wrapf(err, "contact row %d", i)
		}
		rows = append(rows, ContactRow{
			Place:         cc.Place,
			ParticipantLo: pLo,
			ParticipantHi: pHi,
			ContactLo:     cLo,
			ContactHi:     cHi,
			Contacts:      cc.Contacts,
		})
	}
	return rows, nil
}

type healthcareConfig struct {
	HospitalBeds int `toml:"hospital_beds"`
	ICUUnits     int `toml:"icu_units"`
}

func (c *healthcareConfig) Validate() error {
	if c.HospitalBeds < 0 {
		return fmt.Errorf(InvalidIntParameterError, "hospital_beds", c.HospitalBeds, "must not be negative")
	}
	if c.ICUUnits < 0 {
		return fmt.Errorf(InvalidIntParameterError, "icu_units", c.ICUUnits, "must not be negative")
	}
	return nil
}

// diseaseConfig carries the disease constants the way scenario files
// write them: probabilities and ratios as percentages, age-bracketed
// values as [bracket_start, percent] pairs.
type diseaseConfig struct {
	PInfection   [][]float64 `toml:"p_infection"`
	PSymptomatic [][]float64 `toml:"p_symptomatic"`
	PSevere      [][]float64 `toml:"p_severe"`
	PCritical    [][]float64 `toml:"p_critical"`
	PFatal       [][]float64 `toml:"p_fatal"`

	PAsymptomaticInfection   float64 `toml:"p_asymptomatic_infection"`
	InfectiousnessMultiplier float64 `toml:"infectiousness_multiplier"`

	PMaskProtectsWearer float64 `toml:"p_mask_protects_wearer"`
	PMaskProtectsOthers float64 `toml:"p_mask_protects_others"`

	PHospitalDeath        float64     `toml:"p_hospital_death"`
	PICUDeath             float64     `toml:"p_icu_death"`
	PHospitalDeathNoBeds  float64     `toml:"p_hospital_death_no_beds"`
	PICUDeathNoBeds       float64     `toml:"p_icu_death_no_beds"`
	PDeathOutsideHospital [][]float64 `toml:"p_death_outside_hospital"`

	MeanIncubationDuration          float64 `toml:"mean_incubation_duration"`
	MeanDurationFromOnsetToDeath    float64 `toml:"mean_duration_from_onset_to_death"`
	MeanDurationFromOnsetToRecovery float64 `toml:"mean_duration_from_onset_to_recovery"`

	RatioOfDurationBeforeHospitalisation float64 `toml:"ratio_of_duration_before_hospitalisation"`
	RatioOfDurationInWard                float64 `toml:"ratio_of_duration_in_ward"`

	InfectiousnessProfile [][]float64 `toml:"infectiousness_profile"`

	Variants []*variantConfig `toml:"variant"`
}

type variantConfig struct {
	Name                     string  `toml:"name"`
	InfectiousnessMultiplier float64 `toml:"infectiousness_multiplier"`
}

func validPercent(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf(InvalidFloatParameterError, name, v, "must be a percentage between 0 and 100")
	}
	return nil
}

func validAgeBrackets(name string, pairs [][]float64) error {
	lastAge := -1
	for _, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf(InvalidIntParameterError, name+" bracket length", len(pair), "brackets are [age, percent]")
		}
		age := int(pair[0])
		if age <= lastAge {
			return fmt.Errorf(InvalidIntParameterError, name+" bracket age", age, "brackets must be ascending")
		}
		lastAge = age
		if err := validPercent(name, pair[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *diseaseConfig) Validate() error {
	bracketed := []struct {
		name  string
		pairs [][]float64
	}{
		{"p_infection", c.PInfection},
		{"p_symptomatic", c.PSymptomatic},
		{"p_severe", c.PSevere},
		{"p_critical", c.PCritical},
		{"p_fatal", c.PFatal},
		{"p_death_outside_hospital", c.PDeathOutsideHospital},
	}
	for _, b := range bracketed {
		if len(b.pairs) == 0 {
			return fmt.Errorf(InvalidIntParameterError, b.name+" bracket count", 0, "at least one bracket is required")
		}
		if err := validAgeBrackets(b.name, b.pairs); err != nil {
			return err
		}
	}
	scalars := []struct {
		name  string
		value float64
	}{
		{"p_asymptomatic_infection", c.PAsymptomaticInfection},
		{"p_mask_protects_wearer", c.PMaskProtectsWearer},
		{"p_mask_protects_others", c.PMaskProtectsOthers},
		{"p_hospital_death", c.PHospitalDeath},
		{"p_icu_death", c.PICUDeath},
		{"p_hospital_death_no_beds", c.PHospitalDeathNoBeds},
		{"p_icu_death_no_beds", c.PICUDeathNoBeds},
		{"ratio_of_duration_before_hospitalisation", c.RatioOfDurationBeforeHospitalisation},
		{"ratio_of_duration_in_ward", c.RatioOfDurationInWard},
	}
	for _, s := range scalars {
		if err := validPercent(s.name, s.value); err != nil {
			return err
		}
	}
	if c.MeanIncubationDuration <= 0 {
		return fmt.Errorf(InvalidFloatParameterError, "mean_incubation_duration", c.MeanIncubationDuration, "must be positive")
	}
	if c.MeanDurationFromOnsetToDeath <= 0 {
		return fmt.Errorf(InvalidFloatParameterError, "mean_duration_from_onset_to_death", c.MeanDurationFromOnsetToDeath, "must be positive")
	}
	if c.MeanDurationFromOnsetToRecovery <= 0 {
		return fmt.Errorf(InvalidFloatParameterError, "mean_duration_from_onset_to_recovery", c.MeanDurationFromOnsetToRecovery, "must be positive")
	}
	if c.InfectiousnessMultiplier <= 0 {
		c.InfectiousnessMultiplier = 1.0
	}
	for _, pair := range c.InfectiousnessProfile {
		if len(pair) != 2 {
			return fmt.Errorf(InvalidIntParameterError, "infectiousness_profile entry length", len(pair), "entries are [day_offset, value]")
		}
	}
	for _, v := range c.Variants {
		if v.Name == "" {
			return fmt.Errorf(InvalidStringParameterError, "variant name", v.Name, "must not be empty")
		}
		if v.InfectiousnessMultiplier <= 0 {
			return fmt.Errorf(InvalidFloatParameterError, "variant infectiousness_multiplier", v.InfectiousnessMultiplier, "must be positive")
		}
	}
	return nil
}

func toAgeRates(pairs [][]float64) []AgeRate {
	out := make([]AgeRate, len(pairs))
	for i, pair := range pairs {
		out[i] = AgeRate{Age: int(pair[0]), Rate: pair[1] / 100}
	}
	return out
}

// toDisease converts the percent-valued configuration into the fraction
// domain of the Disease policy.
func (c *diseaseConfig) toDisease() *Disease {
	d := &Disease{
		Susceptibility: toAgeRates(c.PInfection),
		PSymptomatic:   toAgeRates(c.PSymptomatic),
		PSevere:        toAgeRates(c.PSevere),
		PCritical:      toAgeRates(c.PCritical),
		PFatal:         toAgeRates(c.PFatal),

		PAsymptomaticInfection:   c.PAsymptomaticInfection / 100,
		InfectiousnessMultiplier: c.InfectiousnessMultiplier,

		PMaskProtectsWearer: c.PMaskProtectsWearer / 100,
		PMaskProtectsOthers: c.PMaskProtectsOthers / 100,

		PHospitalDeath:        c.PHospitalDeath / 100,
		PICUDeath:             c.PICUDeath / 100,
		PHospitalDeathNoBeds:  c.PHospitalDeathNoBeds / 100,
		PICUDeathNoBeds:       c.PICUDeathNoBeds / 100,
		PDeathOutsideHospital: toAgeRates(c.PDeathOutsideHospital),

		MeanIncubationDuration:          c.MeanIncubationDuration,
		MeanDurationFromOnsetToDeath:    c.MeanDurationFromOnsetToDeath,
		MeanDurationFromOnsetToRecovery: c.MeanDurationFromOnsetToRecovery,

		RatioOfDurationBeforeHospitalisation: c.RatioOfDurationBeforeHospitalisation / 100,
		RatioOfDurationInWard:                c.RatioOfDurationInWard / 100,
	}
	if len(c.InfectiousnessProfile) > 0 {
		d.InfectiousnessProfile = make(map[int]float64, len(c.InfectiousnessProfile))
		for _, pair := range c.InfectiousnessProfile {
			d.InfectiousnessProfile[int(pair[0])] = pair[1]
		}
	}
	// Index 0 is the unnamed baseline strain.
	d.Variants = []Variant{{Name: "", InfectiousnessMultiplier: 1.0}}
	for _, v := range c.Variants {
		d.Variants = append(d.Variants, Variant{
			Name:                     v.Name,
			InfectiousnessMultiplier: v.InfectiousnessMultiplier,
		})
	}
	return d
}

// Validate checks the validity of the whole scenario configuration.
// Interventions are checked against the disease and population when the
// context is constructed.
func (c *ScenarioConfig) Validate() error {
	if c.SimParams == nil {
		return fmt.Errorf(InvalidStringParameterError, "simulation section", "", "missing from configuration")
	}
	if err := c.SimParams.Validate(); err != nil {
		return errors.Wrap(err, "cannot create scenario")
	}
	if c.PopParams == nil {
		return fmt.Errorf(InvalidStringParameterError, "population section", "", "missing from configuration")
	}
	if err := c.PopParams.Validate(); err != nil {
		return errors.Wrap(err, "cannot create scenario")
	}
	if c.HCParams == nil {
		return fmt.Errorf(InvalidStringParameterError, "healthcare section", "", "missing from configuration")
	}
	if err := c.HCParams.Validate(); err != nil {
		return errors.Wrap(err, "cannot create scenario")
	}
	if c.DiseaseParams == nil {
		return fmt.Errorf(InvalidStringParameterError, "disease section", "", "missing from configuration")
	}
	if err := c.DiseaseParams.Validate(); err != nil {
		return errors.Wrap(err, "cannot create scenario")
	}
	c.validated = true
	return nil
}

// NewContext builds a simulation context from the scenario. The whole
// intervention timeline is validated here, before the simulation starts.
func (c *ScenarioConfig) NewContext() (*Context, error) {
	if !c.validated {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	ageStructure, err := c.PopParams.ageStructure()
	if err != nil {
		return nil, errors.Wrap(err, "loading age structure")
	}
	contactRows, err := c.PopParams.contactRows()
	if err != nil {
		return nil, errors.Wrap(err, "loading contact matrix")
	}
	popParams := &PopulationParams{
		AgeStructure:   ageStructure,
		ContactsPerDay: contactRows,
	}
	for _, w := range c.PopParams.ImportedInfectionAges {
		popParams.ImportedInfectionAges = append(popParams.ImportedInfectionAges, AgeWeight{
			Age:    int(w[0]),
			Weight: w[1],
		})
	}
	if ic := c.PopParams.Initial; ic != nil {
		popParams.InitialCondition = &InitialPopulationCondition{
			Dead:           ic.Dead,
			InICU:          ic.InICU,
			InWard:         ic.InWard,
			ConfirmedCases: ic.ConfirmedCases,
			Incubating:     ic.Incubating,
			Ill:            ic.Ill,
			Recovered:      ic.Recovered,
		}
	}
	hcParams := &HealthcareParams{
		HospitalBeds: c.HCParams.HospitalBeds,
		ICUUnits:     c.HCParams.ICUUnits,
	}
	ctx, err := NewContext(popParams, hcParams, c.DiseaseParams.toDisease(), c.SimParams.StartDate, c.SimParams.RandomSeed)
	if err != nil {
		return nil, err
	}
	// Interventions sharing a day keep file order; the sort only
	// arranges the days themselves.
	ivs := make([]*Intervention, len(c.Interventions))
	copy(ivs, c.Interventions)
	for _, iv := range ivs {
		if err := ctx.AddIntervention(iv); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(ctx.interventions, func(i, j int) bool {
		return ctx.interventions[i].day < ctx.interventions[j].day
	})
	return ctx, nil
}

// SetRandomSeed overrides the configured seed, used by multi-instance
// drivers to give every instance its own stream.
func (c *ScenarioConfig) SetRandomSeed(seed int64) {
	c.SimParams.RandomSeed = seed
}

// RandomSeed returns the configured seed.
func (c *ScenarioConfig) RandomSeed() int64 { return c.SimParams.RandomSeed }

// AreaName returns the name of the simulated area.
func (c *ScenarioConfig) AreaName() string { return c.SimParams.AreaName }

// Days returns the simulation horizon in days.
func (c *ScenarioConfig) Days() int { return c.SimParams.SimulationDays }

// NumInstances returns how many Monte Carlo instances to run.
func (c *ScenarioConfig) NumInstances() int { return c.SimParams.Instances }

// LogFreq returns the day interval between data logger writes.
func (c *ScenarioConfig) LogFreq() int { return c.SimParams.LogFreqValue }

// LogPath returns the base path for data logger output.
func (c *ScenarioConfig) LogPath() string { return c.SimParams.LogPathValue }

// LogTransmission reports whether infection edges should be recorded.
func (c *ScenarioConfig) LogTransmission() bool { return c.SimParams.LogTransmission }
