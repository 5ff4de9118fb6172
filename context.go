package reina

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Attempts per imported infection before the import is given up. Draws
// that land on infected, immune or dead people are retried up to this
// many times; an import whose attempts all miss is dropped, so when
// susceptible targets are rare fewer than the requested number may be
// infected.
const importAttempts = 100

// HealthcareParams is the construction input for the healthcare system.
type HealthcareParams struct {
	HospitalBeds int
	ICUUnits     int
}

// Context aggregates the population, the healthcare system, the disease
// policy and the random source, and drives one simulated day at a time.
// All global mutable state of a run lives here; nothing is shared
// between contexts, so Monte Carlo runs are independent.
type Context struct {
	rnd        *Rand
	pop        *Population
	healthcare *HealthcareSystem
	disease    *Disease

	startDate time.Time
	day       int

	interventions []*Intervention

	vaccinationProgram *vaccinationProgram
	importProgram      *importProgram

	totalInfectors  int
	totalInfections int
	exposedPerDay   int

	logTransmission bool
	infections      []InfectionPackage
}

// NewContext constructs a ready-to-run context. The initial population
// condition is seeded here with the disease policy's stage-duration
// samplers, so reading the state before the first Iterate returns the
// configured initial condition.
func NewContext(popParams *PopulationParams, hcParams *HealthcareParams, disease *Disease, startDate string, seed int64) (*Context, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, errors.Wrap(err, "invalid start date")
	}
	if hcParams.HospitalBeds < 0 || hcParams.ICUUnits < 0 {
		return nil, fmt.Errorf(InvalidIntParameterError, "healthcare capacity", hcParams.HospitalBeds, "must not be negative")
	}
	pop, err := NewPopulation(popParams)
	if err != nil {
		return nil, err
	}
	if disease.InfectiousnessProfile == nil {
		disease.InfectiousnessProfile = DefaultInfectiousnessProfile
	}
	ctx := &Context{
		rnd:        NewRand(seed),
		pop:        pop,
		healthcare: NewHealthcareSystem(hcParams.HospitalBeds, hcParams.ICUUnits),
		disease:    disease,
		startDate:  start,
	}
	if popParams.InitialCondition != nil {
		if err := ctx.seedInitialCondition(popParams.InitialCondition); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// Population returns the context's population.
func (ctx *Context) Population() *Population { return ctx.pop }

// Healthcare returns the context's healthcare system.
func (ctx *Context) Healthcare() *HealthcareSystem { return ctx.healthcare }

// Disease returns the context's disease policy.
func (ctx *Context) Disease() *Disease { return ctx.disease }

// Day returns the number of completed days.
func (ctx *Context) Day() int { return ctx.day }

// StartDate returns the calendar date of day zero.
func (ctx *Context) StartDate() time.Time { return ctx.startDate }

// SetLogTransmission toggles recording of individual infection edges.
func (ctx *Context) SetLogTransmission(enabled bool) { ctx.logTransmission = enabled }

// AddIntervention validates an intervention, resolves its date to a day
// offset and appends it to the schedule. Interventions sharing a day
// apply in insertion order.
func (ctx *Context) AddIntervention(iv *Intervention) error {
	if err := iv.Validate(ctx.pop.MaxAge(), ctx.disease); err != nil {
		return err
	}
	if err := iv.resolveDay(ctx.startDate); err != nil {
		return err
	}
	ctx.interventions = append(ctx.interventions, iv)
	return nil
}

// ApplyIntervention validates and applies an intervention immediately,
// outside the schedule. Used by the sampling interface to inspect
// parameter distributions under a policy.
func (ctx *Context) ApplyIntervention(iv *Intervention) error {
	if err := iv.Validate(ctx.pop.MaxAge(), ctx.disease); err != nil {
		return err
	}
	return iv.apply(ctx)
}

// seedInitialCondition applies the pre-day-zero population state. People
// are drawn uniformly from the susceptible pool; stage timers come from
// the disease policy so partially progressed cases look like organically
// infected ones.
func (ctx *Context) seedInitialCondition(ipc *InitialPopulationCondition) error {
	needed := ipc.Dead + ipc.InICU + ipc.InWard + ipc.Incubating + ipc.Ill + ipc.Recovered
	if needed > ctx.pop.Size() {
		return fmt.Errorf(InvalidIntParameterError, "initial population condition total", needed, "exceeds the population size")
	}

	pick := func() *Person {
		for {
			p := ctx.pop.Person(int32(ctx.rnd.Intn(ctx.pop.Size())))
			if p.state == SusceptibleStateCode && !p.hasImmunity {
				return p
			}
		}
	}

	for i := 0; i < ipc.Recovered; i++ {
		p := pick()
		ctx.pop.susceptible[p.age]--
		ctx.pop.recovered[p.age]++
		p.state = RecoveredStateCode
		p.hasImmunity = true
	}
	for i := 0; i < ipc.Dead; i++ {
		p := pick()
		ctx.pop.susceptible[p.age]--
		ctx.pop.dead[p.age]++
		p.state = DeadStateCode
		p.hasImmunity = true
	}
	for i := 0; i < ipc.Incubating; i++ {
		p := pick()
		p.infect(ctx, 0, NoInfector)
	}
	var active []*Person
	for i := 0; i < ipc.Ill; i++ {
		p := pick()
		p.infect(ctx, 0, NoInfector)
		p.becomeIll(ctx)
		// Part-way through the illness stage.
		progress := int16(ctx.rnd.Intn(int(p.daysLeft)))
		p.dayOfIllness = progress
		p.daysLeft -= progress
		active = append(active, p)
	}
	for i := 0; i < ipc.InWard; i++ {
		p := pick()
		p.infect(ctx, 0, NoInfector)
		p.state = HospitalizedStateCode
		p.symptomSeverity = SevereSeverityCode
		p.daysLeft = int16(ctx.disease.WardDays(ctx.rnd, SevereSeverityCode))
		p.dayOfIllness = 0
		ctx.healthcare.Hospitalize()
		ctx.pop.toWard(p)
		active = append(active, p)
	}
	for i := 0; i < ipc.InICU; i++ {
		p := pick()
		p.infect(ctx, 0, NoInfector)
		p.state = InICUStateCode
		p.symptomSeverity = CriticalSeverityCode
		p.daysLeft = int16(ctx.disease.ICUDays(ctx.rnd))
		p.dayOfIllness = 0
		ctx.healthcare.ToICU()
		ctx.pop.toICU(p)
		active = append(active, p)
	}
	confirmed := ipc.ConfirmedCases
	for _, p := range active {
		if confirmed == 0 {
			break
		}
		if !p.wasDetected {
			ctx.pop.detect(p)
			confirmed--
		}
	}
	return nil
}

// ImportInfections infects amount people drawn from the import-age
// weighting, crediting the given variant. Non-susceptible draws are
// retried a bounded number of times, so the call is a no-op once the
// population has no susceptible targets left.
func (ctx *Context) ImportInfections(amount int, variant uint8) {
	for i := 0; i < amount; i++ {
		for attempt := 0; attempt < importAttempts; attempt++ {
			p := ctx.pop.SampleImportTarget(ctx.rnd)
			if p == nil {
				return
			}
			if p.isInfected || p.hasImmunity || p.state != SusceptibleStateCode {
				continue
			}
			p.infect(ctx, variant, NoInfector)
			break
		}
	}
}

// infectionProb combines the source's viral load, the target's
// age-dependent susceptibility, the asymptomatic transmission discount
// and mask protection at the contact place.
func (ctx *Context) infectionProb(source, target *Person, place int) float64 {
	d := ctx.disease
	p := d.SourceInfectiousness(source) * rateForAge(d.Susceptibility, int(target.age))
	if source.state == IllnessStateCode && source.symptomSeverity == AsymptomaticSeverityCode {
		p *= d.PAsymptomaticInfection
	}
	if place >= 0 {
		srcShare := ctx.pop.MaskShare(int(source.age), place)
		tgtShare := ctx.pop.MaskShare(int(target.age), place)
		p *= (1 - srcShare*d.PMaskProtectsOthers) * (1 - tgtShare*d.PMaskProtectsWearer)
	}
	return p
}

// recordInfection buffers an infection edge for the transmission log.
func (ctx *Context) recordInfection(source, target *Person, place int) {
	if !ctx.logTransmission {
		return
	}
	ctx.infections = append(ctx.infections, InfectionPackage{
		day:      ctx.day,
		sourceID: source.idx,
		targetID: target.idx,
		place:    place,
		variant:  int(target.variant),
	})
}

// drainInfections hands the buffered infection edges to the caller and
// resets the buffer.
func (ctx *Context) drainInfections() []InfectionPackage {
	out := ctx.infections
	ctx.infections = nil
	return out
}

// Iterate advances the simulation by one day:
//
//  1. zero the per-day tallies
//  2. apply the interventions due today and run the weekly programs
//  3. run the tests queued during the previous day
//  4. advance every infected person in index order
//  5. close the day
//
// Intervention effects are visible to every person advanced on the same
// day. Cases imported in step 2 advance on their arrival day; people
// infected during step 4 first advance on the next day.
func (ctx *Context) Iterate() error {
	ctx.pop.resetDailyCounters()
	ctx.healthcare.resetDailyCounters()
	ctx.totalInfectors = 0
	ctx.totalInfections = 0
	ctx.exposedPerDay = 0

	for _, iv := range ctx.interventions {
		if iv.day != ctx.day {
			continue
		}
		if err := iv.apply(ctx); err != nil {
			return errors.Wrapf(err, "applying %s intervention on day %d", iv.Type, ctx.day)
		}
	}
	if ctx.importProgram != nil {
		ctx.importProgram.runDay(ctx)
	}
	if ctx.vaccinationProgram != nil {
		ctx.vaccinationProgram.runDay(ctx)
	}

	ctx.healthcare.Iterate(ctx)

	// Snapshot the infected set first so today's new infections wait
	// until tomorrow, keeping the person order fixed and deterministic.
	infected := make([]int32, 0, 256)
	for i := range ctx.pop.people {
		if ctx.pop.people[i].isInfected {
			infected = append(infected, int32(i))
		}
	}
	for _, idx := range infected {
		p := ctx.pop.Person(idx)
		p.advance(ctx)
		ctx.exposedPerDay += int(p.otherPeopleExposedToday)
		if p.state == IllnessStateCode {
			ctx.totalInfectors++
			ctx.totalInfections += int(p.otherPeopleInfected)
		}
	}

	ctx.day++
	return nil
}

// R returns the effective reproductive number of the just-completed day:
// mean secondary infections per currently-ill person. Zero when nobody
// is ill.
func (ctx *Context) R() float64 {
	if ctx.totalInfectors == 0 {
		return 0
	}
	return float64(ctx.totalInfections) / float64(ctx.totalInfectors)
}

// State is the per-day snapshot handed to the driver. The population
// arrays are indexed by reporting age group.
type State struct {
	Day  int
	Date string

	Susceptible       []int
	Vaccinated        []int
	Infected          []int
	Detected          []int
	AllDetected       []int
	InWard            []int
	InICU             []int
	Dead              []int
	NonHospitalDeaths []int
	Recovered         []int
	AllInfected       []int
	NewInfections     []int

	ExposedPerDay         int
	AvailableHospitalBeds int
	AvailableICUUnits     int
	TotalICUUnits         int
	CTCasesPerDay         int
	TestsRunPerDay        int
	R                     float64
	MobilityLimitation    float64

	DailyContacts map[string]int
}

// PopulationAttributes lists the per-age-group attributes of a State in
// report order.
var PopulationAttributes = []string{
	"susceptible",
	"vaccinated",
	"infected",
	"detected",
	"all_detected",
	"in_ward",
	"in_icu",
	"dead",
	"non_hospital_deaths",
	"recovered",
	"all_infected",
	"new_infections",
}

// AttributeGroups returns the per-group array for a named population
// attribute.
func (s *State) AttributeGroups(attr string) []int {
	switch attr {
	case "susceptible":
		return s.Susceptible
	case "vaccinated":
		return s.Vaccinated
	case "infected":
		return s.Infected
	case "detected":
		return s.Detected
	case "all_detected":
		return s.AllDetected
	case "in_ward":
		return s.InWard
	case "in_icu":
		return s.InICU
	case "dead":
		return s.Dead
	case "non_hospital_deaths":
		return s.NonHospitalDeaths
	case "recovered":
		return s.Recovered
	case "all_infected":
		return s.AllInfected
	case "new_infections":
		return s.NewInfections
	}
	return nil
}

// AttributeTotal sums a named attribute over the age groups.
func (s *State) AttributeTotal(attr string) int {
	total := 0
	for _, v := range s.AttributeGroups(attr) {
		total += v
	}
	return total
}

// GenerateState builds the snapshot of the current population and
// healthcare state. Before the first Iterate it reflects the initial
// condition exactly.
func (ctx *Context) GenerateState() *State {
	pop := ctx.pop
	date := ctx.startDate.AddDate(0, 0, ctx.day)
	s := &State{
		Day:  ctx.day,
		Date: date.Format("2006-01-02"),

		Susceptible:       pop.groupTotals(pop.susceptible),
		Vaccinated:        pop.groupTotals(pop.vaccinated),
		Infected:          pop.groupTotals(pop.infected),
		Detected:          pop.groupTotals(pop.detected),
		AllDetected:       pop.groupTotals(pop.allDetected),
		InWard:            pop.groupTotals(pop.inWard),
		InICU:             pop.groupTotals(pop.inICU),
		Dead:              pop.groupTotals(pop.dead),
		NonHospitalDeaths: pop.groupTotals(pop.nonHospitalDeaths),
		Recovered:         pop.groupTotals(pop.recovered),
		AllInfected:       pop.groupTotals(pop.allInfected),
		NewInfections:     pop.groupTotals(pop.newInfections),

		ExposedPerDay:         ctx.exposedPerDay,
		AvailableHospitalBeds: ctx.healthcare.AvailableBeds(),
		AvailableICUUnits:     ctx.healthcare.AvailableICUUnits(),
		TotalICUUnits:         ctx.healthcare.ICUUnits(),
		CTCasesPerDay:         ctx.healthcare.tracedPerDay,
		TestsRunPerDay:        ctx.healthcare.testsRunPerDay,
		R:                     ctx.R(),
		MobilityLimitation:    pop.MobilityLimitation(),

		DailyContacts: make(map[string]int, NumContactPlaces),
	}
	for place, n := range pop.dailyContacts {
		s.DailyContacts[ContactPlaceNames[place]] = n
	}
	return s
}

// AgeGroupLabels returns the reporting group labels.
func (ctx *Context) AgeGroupLabels() []string {
	return ctx.pop.ageGroups.Labels
}
