package reina

// The following are status codes for the health compartments a person
// moves through during the simulation.
const (
	SusceptibleStateCode  = 1
	IncubationStateCode   = 2
	IllnessStateCode      = 3
	HospitalizedStateCode = 4
	InICUStateCode        = 5
	RecoveredStateCode    = 6
	DeadStateCode         = 7
)

// StateToStr maps person state codes to their display names.
var StateToStr = map[int]string{
	SusceptibleStateCode:  "susceptible",
	IncubationStateCode:   "incubation",
	IllnessStateCode:      "illness",
	HospitalizedStateCode: "hospitalized",
	InICUStateCode:        "in_icu",
	RecoveredStateCode:    "recovered",
	DeadStateCode:         "dead",
}

// NoInfector marks a seeded or imported infection with no source person
// inside the population.
const NoInfector = int32(-1)

// Person is one agent in the population. The identity fields are fixed at
// construction; the health state mutates as the person advances through
// the day loop. The struct stays small so the whole population fits in a
// single preallocated slice.
type Person struct {
	idx int32
	age uint8

	state           uint8
	symptomSeverity uint8
	variant         uint8

	hasImmunity      bool
	isInfected       bool
	wasDetected      bool
	queuedForTesting bool
	vaccinated       bool

	// Countdown of the current stage and days since symptom onset.
	// dayOfIllness is negative during incubation.
	daysLeft     int16
	dayOfIllness int16

	otherPeopleInfected     int16
	otherPeopleExposedToday int16

	infector  int32
	infectees []int32
}

// State returns the person's current compartment code.
func (p *Person) State() int { return int(p.state) }

// Age returns the person's age in years.
func (p *Person) Age() int { return int(p.age) }

// Infector returns the index of the person this person was infected by,
// or NoInfector for seeded and imported cases.
func (p *Person) Infector() int32 { return p.infector }

// Infectees returns the indexes of everyone this person directly infected.
func (p *Person) Infectees() []int32 { return p.infectees }

// WasDetected reports whether the person's infection is known to the
// healthcare system.
func (p *Person) WasDetected() bool { return p.wasDetected }

// expose subjects the person to one infectious contact from source at the
// given place. Returns true when the contact leads to an infection.
// Already infected, immune and dead people cannot be infected again.
func (p *Person) expose(ctx *Context, source *Person, place int) bool {
	if p.isInfected || p.hasImmunity || p.state == DeadStateCode {
		return false
	}
	prob := ctx.infectionProb(source, p, place)
	if !ctx.rnd.Chance(prob) {
		return false
	}
	p.infect(ctx, source.variant, source.idx)
	source.infectees = append(source.infectees, p.idx)
	source.otherPeopleInfected++
	ctx.recordInfection(source, p, place)
	return true
}

// infect moves the person into incubation and starts the stage timers.
// The caller is responsible for the infection edge bookkeeping.
func (p *Person) infect(ctx *Context, variant uint8, infector int32) {
	ctx.pop.infect(p)
	incubation := ctx.disease.IncubationDays(ctx.rnd)
	p.state = IncubationStateCode
	p.isInfected = true
	p.variant = variant
	p.infector = infector
	p.daysLeft = int16(incubation)
	p.dayOfIllness = int16(-incubation)
}

// advance executes one simulated day for an infected person: expose
// others while infectious, run down the stage timer and transition when
// it expires.
func (p *Person) advance(ctx *Context) {
	p.otherPeopleExposedToday = 0
	switch p.state {
	case IncubationStateCode:
		p.exposeOthers(ctx)
		p.dayOfIllness++
		p.daysLeft--
		if p.daysLeft <= 0 {
			p.becomeIll(ctx)
		}
	case IllnessStateCode:
		p.exposeOthers(ctx)
		if p.dayOfIllness == 0 && p.symptomSeverity != AsymptomaticSeverityCode && !p.wasDetected {
			ctx.healthcare.SeekTesting(ctx, p)
		}
		p.dayOfIllness++
		p.daysLeft--
		if p.daysLeft <= 0 {
			p.endIllness(ctx)
		}
	case HospitalizedStateCode, InICUStateCode:
		p.dayOfIllness++
		p.daysLeft--
		if p.daysLeft <= 0 {
			p.releaseFromCare(ctx)
		}
	}
}

// becomeIll transitions incubation to illness: the severity class is
// sampled once and the illness timer set from it.
func (p *Person) becomeIll(ctx *Context) {
	p.state = IllnessStateCode
	p.symptomSeverity = uint8(ctx.disease.SymptomSeverity(ctx.rnd, int(p.age)))
	p.daysLeft = int16(ctx.disease.IllnessDays(ctx.rnd, int(p.symptomSeverity)))
}

// endIllness resolves the illness stage: mild and asymptomatic cases
// recover, the rest go through hospitalize.
func (p *Person) endIllness(ctx *Context) {
	switch p.symptomSeverity {
	case AsymptomaticSeverityCode, MildSeverityCode:
		p.recover(ctx)
	default:
		p.hospitalize(ctx)
	}
}

// hospitalize requests care for a severe, critical or fatal case. Every
// hospitalize transition marks the person detected.
func (p *Person) hospitalize(ctx *Context) {
	if !p.wasDetected {
		ctx.pop.detect(p)
	}
	switch p.symptomSeverity {
	case CriticalSeverityCode:
		if ctx.healthcare.ToICU() {
			ctx.pop.toICU(p)
			p.state = InICUStateCode
			p.daysLeft = int16(ctx.disease.ICUDays(ctx.rnd))
			return
		}
		if ctx.rnd.Chance(ctx.disease.PICUDeathNoBeds) {
			p.die(ctx, true)
		} else {
			p.recover(ctx)
		}
	case SevereSeverityCode:
		if ctx.healthcare.Hospitalize() {
			ctx.pop.toWard(p)
			p.state = HospitalizedStateCode
			p.daysLeft = int16(ctx.disease.WardDays(ctx.rnd, int(p.symptomSeverity)))
			return
		}
		if ctx.rnd.Chance(ctx.disease.PHospitalDeathNoBeds) {
			p.die(ctx, true)
		} else {
			p.recover(ctx)
		}
	case FatalSeverityCode:
		// A share of fatal cases never reaches a hospital.
		if ctx.rnd.Chance(rateForAge(ctx.disease.PDeathOutsideHospital, int(p.age))) {
			p.die(ctx, true)
			return
		}
		if ctx.healthcare.Hospitalize() {
			ctx.pop.toWard(p)
			p.state = HospitalizedStateCode
			p.daysLeft = int16(ctx.disease.WardDays(ctx.rnd, int(p.symptomSeverity)))
			return
		}
		p.die(ctx, true)
	}
}

// releaseFromCare ends a ward or ICU stay. Fatal cases die; the rest
// sample the hospital-outcome table.
func (p *Person) releaseFromCare(ctx *Context) {
	inICU := p.state == InICUStateCode
	if inICU {
		ctx.healthcare.ReleaseFromICU()
		ctx.pop.fromICU(p)
	} else {
		ctx.healthcare.Release()
		ctx.pop.fromWard(p)
	}
	if p.symptomSeverity == FatalSeverityCode {
		p.die(ctx, false)
		return
	}
	if ctx.disease.DiesInHospital(ctx.rnd, inICU, true) {
		p.die(ctx, false)
	} else {
		p.recover(ctx)
	}
}

// exposeOthers draws today's contacts for an infectious person and
// exposes each contact. Targets are drawn uniformly over the whole
// population; attempts on dead or immune people simply fail, which keeps
// the mixing well-mixed at a slight efficiency cost.
func (p *Person) exposeOthers(ctx *Context) {
	if ctx.disease.SourceInfectiousness(p) <= 0 {
		return
	}
	counts := ctx.pop.PlaceContacts(ctx.rnd, p, 1.0, maxDailyContacts)
	n := len(ctx.pop.people)
	for place := 0; place < NumContactPlaces; place++ {
		for i := 0; i < counts[place]; i++ {
			target := &ctx.pop.people[ctx.rnd.Intn(n)]
			ctx.pop.dailyContacts[place]++
			p.otherPeopleExposedToday++
			target.expose(ctx, p, place)
		}
	}
}

// die terminates the person. outsideHospital marks deaths that happened
// without a care place, which are tallied separately.
func (p *Person) die(ctx *Context, outsideHospital bool) {
	ctx.pop.die(p, outsideHospital)
	p.state = DeadStateCode
	p.isInfected = false
	p.hasImmunity = true
}

// recover ends the infection with immunity.
func (p *Person) recover(ctx *Context) {
	ctx.pop.recover(p)
	p.state = RecoveredStateCode
	p.isInfected = false
	p.hasImmunity = true
}
