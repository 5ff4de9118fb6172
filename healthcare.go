package reina

import "fmt"

// The following are codes for the testing policy the healthcare system
// operates under.
const (
	NoTestingMode             = 1
	SevereOnlyTestingMode     = 2
	AllSymptomsTestingMode    = 3
	ContactTracingTestingMode = 4
)

// TestingModeToStr maps testing mode codes to their display names.
var TestingModeToStr = map[int]string{
	NoTestingMode:             "none",
	SevereOnlyTestingMode:     "severe-only",
	AllSymptomsTestingMode:    "all-symptoms",
	ContactTracingTestingMode: "contact-tracing",
}

// Contacts are traced this many infection-graph hops away from a
// confirmed case.
const contactTracingDepth = 3

// HealthcareSystem tracks ward and ICU capacity, the active testing
// policy and the day's testing queue. Tests queued today run at the head
// of the next day, which models the real-world result delay.
type HealthcareSystem struct {
	beds     int
	icuUnits int

	availableBeds     int
	availableICUUnits int

	testingMode              int
	contactTracingSuccessRate float64
	mildDetectionRate        float64

	testingQueue []int32

	testsRunPerDay int
	tracedPerDay   int
}

// NewHealthcareSystem creates a system with the given total capacity and
// no testing.
func NewHealthcareSystem(beds, icuUnits int) *HealthcareSystem {
	return &HealthcareSystem{
		beds:              beds,
		icuUnits:          icuUnits,
		availableBeds:     beds,
		availableICUUnits: icuUnits,
		testingMode:       NoTestingMode,
	}
}

// SetTestingMode switches the testing policy. The efficiency, a fraction
// in [0, 1], parameterizes the active mode: the tracing success rate for
// contact-tracing, the mild detection rate for severe-only.
func (hc *HealthcareSystem) SetTestingMode(mode int, efficiency float64) error {
	switch mode {
	case NoTestingMode, AllSymptomsTestingMode:
	case SevereOnlyTestingMode:
		hc.mildDetectionRate = efficiency
	case ContactTracingTestingMode:
		hc.contactTracingSuccessRate = efficiency
	default:
		return fmt.Errorf(InvalidIntParameterError, "testing mode", mode, "unknown mode code")
	}
	hc.testingMode = mode
	return nil
}

// TestingMode returns the active testing policy code.
func (hc *HealthcareSystem) TestingMode() int { return hc.testingMode }

// SeekTesting handles a symptomatic person presenting for a test on the
// first day of illness. Whether the person is queued depends on the
// active policy.
func (hc *HealthcareSystem) SeekTesting(ctx *Context, p *Person) {
	switch hc.testingMode {
	case AllSymptomsTestingMode, ContactTracingTestingMode:
		hc.QueueForTesting(ctx, p.idx)
	case SevereOnlyTestingMode:
		switch p.symptomSeverity {
		case SevereSeverityCode, CriticalSeverityCode, FatalSeverityCode:
			hc.QueueForTesting(ctx, p.idx)
		default:
			if ctx.rnd.Chance(hc.mildDetectionRate) {
				hc.QueueForTesting(ctx, p.idx)
			}
		}
	}
}

// QueueForTesting enqueues a person for the next testing round. Dead,
// already detected and already queued people are skipped.
func (hc *HealthcareSystem) QueueForTesting(ctx *Context, idx int32) {
	p := ctx.pop.Person(idx)
	if p.state == DeadStateCode || p.wasDetected || p.queuedForTesting {
		return
	}
	p.queuedForTesting = true
	hc.testingQueue = append(hc.testingQueue, idx)
}

// Iterate runs the tests queued during the previous day. Infectious
// people test positive and are detected; under contact tracing a
// positive case has its contact chain queued for the following day.
func (hc *HealthcareSystem) Iterate(ctx *Context) {
	queue := hc.testingQueue
	hc.testingQueue = nil
	hc.testsRunPerDay = len(queue)
	for _, idx := range queue {
		p := ctx.pop.Person(idx)
		p.queuedForTesting = false
		if !p.isInfected || ctx.disease.SourceInfectiousness(p) <= 0 {
			continue
		}
		if !p.wasDetected {
			ctx.pop.detect(p)
		}
		if hc.testingMode == ContactTracingTestingMode {
			hc.PerformContactTracing(ctx, p)
		}
	}
}

// PerformContactTracing walks the infection graph around a confirmed
// case breadth-first up to the tracing depth. Each hop succeeds with the
// tracing success rate; reached people are queued and traced onward.
// Infection edges form a tree rooted at seeds, so the visited set only
// keeps the walk from stepping back over the edge it arrived by. A
// neighbor whose hop fails is marked visited as well and is not retried.
func (hc *HealthcareSystem) PerformContactTracing(ctx *Context, p *Person) {
	visited := map[int32]bool{p.idx: true}
	frontier := []int32{p.idx}
	for depth := 0; depth < contactTracingDepth && len(frontier) > 0; depth++ {
		var next []int32
		for _, idx := range frontier {
			person := ctx.pop.Person(idx)
			neighbors := make([]int32, 0, len(person.infectees)+1)
			if person.infector != NoInfector {
				neighbors = append(neighbors, person.infector)
			}
			neighbors = append(neighbors, person.infectees...)
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				if !ctx.rnd.Chance(hc.contactTracingSuccessRate) {
					continue
				}
				hc.QueueForTesting(ctx, n)
				hc.tracedPerDay++
				next = append(next, n)
			}
		}
		frontier = next
	}
}

// Hospitalize claims a ward bed. Returns false when none is available.
func (hc *HealthcareSystem) Hospitalize() bool {
	if hc.availableBeds <= 0 {
		return false
	}
	hc.availableBeds--
	return true
}

// Release returns a ward bed.
func (hc *HealthcareSystem) Release() {
	hc.availableBeds++
	if hc.availableBeds > hc.beds {
		panic("healthcare: available beds exceed total beds")
	}
}

// ToICU claims an ICU unit. Returns false when none is available.
func (hc *HealthcareSystem) ToICU() bool {
	if hc.availableICUUnits <= 0 {
		return false
	}
	hc.availableICUUnits--
	return true
}

// ReleaseFromICU returns an ICU unit.
func (hc *HealthcareSystem) ReleaseFromICU() {
	hc.availableICUUnits++
	if hc.availableICUUnits > hc.icuUnits {
		panic("healthcare: available ICU units exceed total units")
	}
}

// AddBeds expands ward capacity; the new beds are immediately free.
func (hc *HealthcareSystem) AddBeds(n int) {
	hc.beds += n
	hc.availableBeds += n
}

// AddICUUnits expands ICU capacity; the new units are immediately free.
func (hc *HealthcareSystem) AddICUUnits(n int) {
	hc.icuUnits += n
	hc.availableICUUnits += n
}

// Beds returns total ward capacity.
func (hc *HealthcareSystem) Beds() int { return hc.beds }

// ICUUnits returns total ICU capacity.
func (hc *HealthcareSystem) ICUUnits() int { return hc.icuUnits }

// AvailableBeds returns free ward capacity.
func (hc *HealthcareSystem) AvailableBeds() int { return hc.availableBeds }

// AvailableICUUnits returns free ICU capacity.
func (hc *HealthcareSystem) AvailableICUUnits() int { return hc.availableICUUnits }

// resetDailyCounters zeroes the per-day testing tallies.
func (hc *HealthcareSystem) resetDailyCounters() {
	hc.testsRunPerDay = 0
	hc.tracedPerDay = 0
}
