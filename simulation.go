package reina

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// StepCallback is invoked after every completed day with the snapshots
// accumulated so far. Returning false cancels the run; the cancellation
// is observed before the next day starts.
type StepCallback func(rs *ResultSet) bool

// ResultSet aggregates the per-day snapshots of one run.
type ResultSet struct {
	RunID      ksuid.KSUID
	InstanceID int
	StartDate  time.Time
	AgeGroups  []string
	Days       []*State
}

// Attribute returns the day series of a population attribute summed over
// the age groups.
func (rs *ResultSet) Attribute(attr string) []int {
	out := make([]int, len(rs.Days))
	for i, s := range rs.Days {
		out[i] = s.AttributeTotal(attr)
	}
	return out
}

// Tensor returns the day x attribute x age-group breakdown of the
// population attributes, attribute order per PopulationAttributes.
func (rs *ResultSet) Tensor() [][][]int {
	out := make([][][]int, len(rs.Days))
	for i, s := range rs.Days {
		out[i] = make([][]int, len(PopulationAttributes))
		for j, attr := range PopulationAttributes {
			out[i][j] = s.AttributeGroups(attr)
		}
	}
	return out
}

// Last returns the snapshot of the most recent completed day, or nil
// before the first day.
func (rs *ResultSet) Last() *State {
	if len(rs.Days) == 0 {
		return nil
	}
	return rs.Days[len(rs.Days)-1]
}

// Simulation drives a Context through the configured horizon, one day at
// a time, recording snapshots and optionally streaming them to a
// DataLogger.
type Simulation struct {
	ctx    *Context
	logger DataLogger

	days            int
	logFreq         int
	instanceID      int
	runID           ksuid.KSUID
	callback        StepCallback
	stopConditions  []StopCondition
}

// NewSimulation creates a simulation from a validated configuration and
// an optional data logger.
func NewSimulation(config Config, logger DataLogger) (*Simulation, error) {
	ctx, err := config.NewContext()
	if err != nil {
		return nil, err
	}
	ctx.SetLogTransmission(config.LogTransmission())
	sim := &Simulation{
		ctx:     ctx,
		logger:  logger,
		days:    config.Days(),
		logFreq: config.LogFreq(),
		runID:   ksuid.New(),
	}
	return sim, nil
}

// NewSimulationFromContext wraps an already constructed context. Used by
// drivers that assemble parameters in code instead of a scenario file.
func NewSimulationFromContext(ctx *Context, days int) *Simulation {
	return &Simulation{ctx: ctx, days: days, logFreq: 1, runID: ksuid.New()}
}

// Context returns the underlying context.
func (sim *Simulation) Context() *Context { return sim.ctx }

// SetDataLogger installs or replaces the data logger.
func (sim *Simulation) SetDataLogger(l DataLogger) { sim.logger = l }

// RunID returns the unique identifier stamped on this run's output.
func (sim *Simulation) RunID() ksuid.KSUID { return sim.runID }

// SetStepCallback installs the per-day callback.
func (sim *Simulation) SetStepCallback(cb StepCallback) { sim.callback = cb }

// AddStopCondition registers a condition that can end the run early.
func (sim *Simulation) AddStopCondition(cond StopCondition) {
	sim.stopConditions = append(sim.stopConditions, cond)
}

// Run executes the day loop for instance i. On cancellation the partial
// result set is returned together with ErrSimulationInterrupted.
func (sim *Simulation) Run(i int) (*ResultSet, error) {
	sim.instanceID = i
	if sim.logger != nil {
		if err := sim.logger.Init(); err != nil {
			return nil, err
		}
	}
	rs := &ResultSet{
		RunID:      sim.runID,
		InstanceID: i,
		StartDate:  sim.ctx.StartDate(),
		AgeGroups:  sim.ctx.AgeGroupLabels(),
	}
	log.Info().
		Int("instance", i).
		Str("run", sim.runID.String()).
		Int("days", sim.days).
		Int("population", sim.ctx.Population().Size()).
		Msg("starting simulation")

	for day := 0; day < sim.days; day++ {
		start := time.Now()
		if err := sim.ctx.Iterate(); err != nil {
			return rs, err
		}
		s := sim.ctx.GenerateState()
		rs.Days = append(rs.Days, s)

		if sim.logger != nil && (sim.logFreq <= 1 || day%sim.logFreq == 0 || day == sim.days-1) {
			sim.writeDay(s)
		}
		log.Debug().
			Int("day", day).
			Int("infected", s.AttributeTotal("infected")).
			Dur("elapsed", time.Since(start)).
			Msg("day complete")

		if sim.callback != nil && !sim.callback(rs) {
			log.Warn().Int("day", day).Msg("simulation interrupted by step callback")
			return rs, ErrSimulationInterrupted
		}
		stopped := false
		for _, cond := range sim.stopConditions {
			if !cond.Check(sim.ctx) {
				log.Info().Str("reason", cond.Reason()).Int("day", day).Msg("stopping simulation early")
				stopped = true
				break
			}
		}
		if stopped {
			break
		}
	}
	return rs, nil
}

// writeDay streams one day's snapshot to the data logger through the
// package channels.
func (sim *Simulation) writeDay(s *State) {
	c := make(chan DayStatePackage)
	d := make(chan AgeGroupPackage)
	e := make(chan InfectionPackage)

	go func() {
		for _, attr := range PopulationAttributes {
			c <- DayStatePackage{
				runID:      sim.runID,
				instanceID: sim.instanceID,
				day:        s.Day,
				attr:       attr,
				value:      float64(s.AttributeTotal(attr)),
			}
		}
		scalars := []struct {
			attr  string
			value float64
		}{
			{"exposed_per_day", float64(s.ExposedPerDay)},
			{"available_hospital_beds", float64(s.AvailableHospitalBeds)},
			{"available_icu_units", float64(s.AvailableICUUnits)},
			{"total_icu_units", float64(s.TotalICUUnits)},
			{"ct_cases_per_day", float64(s.CTCasesPerDay)},
			{"tests_run_per_day", float64(s.TestsRunPerDay)},
			{"r", s.R},
			{"mobility_limitation", s.MobilityLimitation},
		}
		for _, sc := range scalars {
			c <- DayStatePackage{
				runID:      sim.runID,
				instanceID: sim.instanceID,
				day:        s.Day,
				attr:       sc.attr,
				value:      sc.value,
			}
		}
		for place := 0; place < NumContactPlaces; place++ {
			c <- DayStatePackage{
				runID:      sim.runID,
				instanceID: sim.instanceID,
				day:        s.Day,
				attr:       "exposures_" + ContactPlaceNames[place],
				value:      float64(s.DailyContacts[ContactPlaceNames[place]]),
			}
		}
		close(c)
	}()
	go func() {
		for _, attr := range PopulationAttributes {
			groups := s.AttributeGroups(attr)
			for g, v := range groups {
				d <- AgeGroupPackage{
					runID:      sim.runID,
					instanceID: sim.instanceID,
					day:        s.Day,
					attr:       attr,
					group:      sim.ctx.AgeGroupLabels()[g],
					value:      v,
				}
			}
		}
		close(d)
	}()
	go func() {
		for _, pack := range sim.ctx.drainInfections() {
			pack.runID = sim.runID
			pack.instanceID = sim.instanceID
			e <- pack
		}
		close(e)
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		sim.logger.WriteDayStates(c)
		wg.Done()
	}()
	go func() {
		sim.logger.WriteAgeGroupStates(d)
		wg.Done()
	}()
	go func() {
		sim.logger.WriteInfections(e)
		wg.Done()
	}()
	wg.Wait()
}
