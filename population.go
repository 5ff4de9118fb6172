package reina

import (
	"fmt"
	"math"
)

// The following are codes for the places where contacts happen. They
// index the per-place arrays throughout the package.
const (
	HomePlace = iota
	WorkPlace
	SchoolPlace
	TransportPlace
	LeisurePlace
	OtherPlace
	NumContactPlaces
)

// ContactPlaceNames maps place codes to their names, in code order.
var ContactPlaceNames = [NumContactPlaces]string{
	"home", "work", "school", "transport", "leisure", "other",
}

// ParsePlace returns the code for a place name.
func ParsePlace(name string) (int, error) {
	for i, s := range ContactPlaceNames {
		if s == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf(UnrecognizedKeywordError, name, "contact place")
}

// Hard cap on the contacts a single person can have in one day.
const maxDailyContacts = 100

// The per-day contact multiplier is lognormal with unit mean and this
// spread, so the configured expected contacts stay the expectation.
const (
	contactsSigma = 0.7
	contactsMu    = -contactsSigma * contactsSigma / 2
)

// ContactRow is one row of the contact matrix: the expected daily
// contacts at a place between a participant age range and a contact age
// range.
type ContactRow struct {
	Place          string
	ParticipantLo  int
	ParticipantHi  int
	ContactLo      int
	ContactHi      int
	Contacts       float64
}

// AgeWeight weights an age bracket for imported infections. The bracket
// runs from Age to the next entry's starting age.
type AgeWeight struct {
	Age    int
	Weight float64
}

// AgeGroups maps single years of age onto reporting groups.
type AgeGroups struct {
	Labels     []string
	AgeToGroup []int
}

// DefaultAgeGroups builds ten-year reporting bands up to 80+.
func DefaultAgeGroups(maxAge int) *AgeGroups {
	ag := &AgeGroups{AgeToGroup: make([]int, maxAge+1)}
	for age := 0; age <= maxAge; age++ {
		grp := age / 10
		if grp > 8 {
			grp = 8
		}
		ag.AgeToGroup[age] = grp
	}
	n := 0
	for _, g := range ag.AgeToGroup {
		if g+1 > n {
			n = g + 1
		}
	}
	for g := 0; g < n; g++ {
		if g == 8 {
			ag.Labels = append(ag.Labels, "80+")
		} else {
			ag.Labels = append(ag.Labels, fmt.Sprintf("%d-%d", g*10, g*10+9))
		}
	}
	return ag
}

// InitialPopulationCondition seeds the population state before day zero.
type InitialPopulationCondition struct {
	Dead           int
	InICU          int
	InWard         int
	ConfirmedCases int
	Incubating     int
	Ill            int
	Recovered      int
}

// PopulationParams is the construction input for a Population.
type PopulationParams struct {
	// AgeStructure[age] is the head count at that age; its length fixes
	// the maximum age.
	AgeStructure []int

	ContactsPerDay []ContactRow

	InitialCondition *InitialPopulationCondition

	// Optional; ten-year bands are used when nil.
	AgeGroups *AgeGroups

	// Optional; a single uniform bracket is used when empty.
	ImportedInfectionAges []AgeWeight
}

// Population owns the person vector, the per-age counters and the contact
// distribution. Mobility and mask factors mutated by interventions live
// here because they modify contact drawing.
type Population struct {
	people      []Person
	peopleByAge [][]int32
	ageCounts   []int
	maxAge      int

	susceptible       []int
	infected          []int
	detected          []int
	allDetected       []int
	inWard            []int
	inICU             []int
	dead              []int
	nonHospitalDeaths []int
	recovered         []int
	vaccinated        []int
	allInfected       []int
	newInfections     []int

	avgContactsByPlace [][NumContactPlaces]float64
	avgContacts        []float64

	mobilityFactor float64
	ageMobility    [][NumContactPlaces]float64
	maskShare      [][NumContactPlaces]float64

	ageGroups *AgeGroups

	importAges  []AgeWeight
	importPools [][]int32

	dailyContacts [NumContactPlaces]int
}

// NewPopulation builds the person vector and the expanded contact
// distribution from the construction parameters. The initial population
// condition is seeded by the Context, which owns the disease policy and
// the random source.
func NewPopulation(params *PopulationParams) (*Population, error) {
	if len(params.AgeStructure) == 0 {
		return nil, fmt.Errorf(InvalidIntParameterError, "age structure length", 0, "must cover at least one age")
	}
	maxAge := len(params.AgeStructure) - 1
	total := 0
	for age, count := range params.AgeStructure {
		if count < 0 {
			return nil, fmt.Errorf(InvalidIntParameterError, fmt.Sprintf("population count at age %d", age), count, "must not be negative")
		}
		total += count
	}
	if total == 0 {
		return nil, fmt.Errorf(InvalidIntParameterError, "total population", 0, "must be positive")
	}

	pop := new(Population)
	pop.maxAge = maxAge
	pop.ageCounts = make([]int, maxAge+1)
	copy(pop.ageCounts, params.AgeStructure)

	newCounter := func() []int { return make([]int, maxAge+1) }
	pop.susceptible = newCounter()
	pop.infected = newCounter()
	pop.detected = newCounter()
	pop.allDetected = newCounter()
	pop.inWard = newCounter()
	pop.inICU = newCounter()
	pop.dead = newCounter()
	pop.nonHospitalDeaths = newCounter()
	pop.recovered = newCounter()
	pop.vaccinated = newCounter()
	pop.allInfected = newCounter()
	pop.newInfections = newCounter()

	// The person vector is allocated once and never grows.
	pop.people = make([]Person, total)
	pop.peopleByAge = make([][]int32, maxAge+1)
	idx := int32(0)
	for age, count := range params.AgeStructure {
		pop.susceptible[age] = count
		for i := 0; i < count; i++ {
			pop.people[idx] = Person{
				idx:      idx,
				age:      uint8(age),
				state:    SusceptibleStateCode,
				infector: NoInfector,
			}
			pop.peopleByAge[age] = append(pop.peopleByAge[age], idx)
			idx++
		}
	}

	// Expand the contact matrix into per-age, per-place expectations.
	// The contact-age dimension collapses here: targets are drawn
	// uniformly, so only the participant-side expectation matters.
	pop.avgContactsByPlace = make([][NumContactPlaces]float64, maxAge+1)
	pop.avgContacts = make([]float64, maxAge+1)
	for _, row := range params.ContactsPerDay {
		place, err := ParsePlace(row.Place)
		if err != nil {
			return nil, err
		}
		if row.ParticipantLo > row.ParticipantHi || row.ParticipantLo < 0 {
			return nil, fmt.Errorf(InvalidIntParameterError, "participant age range start", row.ParticipantLo, "must be a valid range")
		}
		for age := row.ParticipantLo; age <= row.ParticipantHi && age <= maxAge; age++ {
			pop.avgContactsByPlace[age][place] += row.Contacts
			pop.avgContacts[age] += row.Contacts
		}
	}

	pop.mobilityFactor = 1.0
	pop.ageMobility = make([][NumContactPlaces]float64, maxAge+1)
	pop.maskShare = make([][NumContactPlaces]float64, maxAge+1)
	for age := 0; age <= maxAge; age++ {
		for place := 0; place < NumContactPlaces; place++ {
			pop.ageMobility[age][place] = 1.0
		}
	}

	pop.ageGroups = params.AgeGroups
	if pop.ageGroups == nil {
		pop.ageGroups = DefaultAgeGroups(maxAge)
	}
	if len(pop.ageGroups.AgeToGroup) != maxAge+1 {
		return nil, fmt.Errorf(InvalidIntParameterError, "age group mapping length", len(pop.ageGroups.AgeToGroup), "must cover every age")
	}

	pop.importAges = params.ImportedInfectionAges
	if len(pop.importAges) == 0 {
		pop.importAges = []AgeWeight{{Age: 0, Weight: 1}}
	}
	pop.importPools = make([][]int32, len(pop.importAges))
	for i := range pop.importAges {
		lo := pop.importAges[i].Age
		hi := maxAge
		if i+1 < len(pop.importAges) {
			hi = pop.importAges[i+1].Age - 1
		}
		for age := lo; age <= hi && age <= maxAge; age++ {
			if age < 0 {
				continue
			}
			pop.importPools[i] = append(pop.importPools[i], pop.peopleByAge[age]...)
		}
	}
	return pop, nil
}

// Size returns the total head count.
func (pop *Population) Size() int { return len(pop.people) }

// MaxAge returns the highest age in the population.
func (pop *Population) MaxAge() int { return pop.maxAge }

// Person returns the person at the given index.
func (pop *Population) Person(idx int32) *Person { return &pop.people[idx] }

// AgeGroupCount returns the number of reporting groups.
func (pop *Population) AgeGroupCount() int { return len(pop.ageGroups.Labels) }

// PlaceContacts draws today's contact counts per place for a person. One
// lognormal multiplier is shared across the places; the total is capped
// at limit in place order.
func (pop *Population) PlaceContacts(rnd *Rand, p *Person, factor float64, limit int) [NumContactPlaces]int {
	var counts [NumContactPlaces]int
	mult := rnd.Lognormal(contactsMu, contactsSigma)
	age := int(p.age)
	total := 0
	for place := 0; place < NumContactPlaces; place++ {
		expected := mult * pop.avgContactsByPlace[age][place] * factor *
			pop.mobilityFactor * pop.ageMobility[age][place]
		n := int(math.Floor(expected))
		if n < 0 {
			n = 0
		}
		if total+n > limit {
			n = limit - total
		}
		counts[place] = n
		total += n
		if total >= limit {
			break
		}
	}
	return counts
}

// ContactsPerDay draws the number of contacts a person has today at the
// given place, or over all places when place is negative. The count is
// clamped to [0, limit].
func (pop *Population) ContactsPerDay(rnd *Rand, p *Person, place int, factor float64, limit int) int {
	if place < 0 {
		counts := pop.PlaceContacts(rnd, p, factor, limit)
		total := 0
		for _, n := range counts {
			total += n
		}
		return total
	}
	mult := rnd.Lognormal(contactsMu, contactsSigma)
	age := int(p.age)
	expected := mult * pop.avgContactsByPlace[age][place] * factor *
		pop.mobilityFactor * pop.ageMobility[age][place]
	n := int(math.Floor(expected))
	if n < 0 {
		n = 0
	}
	if n > limit {
		n = limit
	}
	return n
}

// SetMobilityFactor sets the global mobility level. 1.0 is unrestricted.
func (pop *Population) SetMobilityFactor(f float64) {
	pop.mobilityFactor = f
}

// MobilityLimitation returns the current global limitation as a
// percentage, rounded to nine decimals so whole-percent limits read back
// exactly.
func (pop *Population) MobilityLimitation() float64 {
	return math.Round((1-pop.mobilityFactor)*100*1e9) / 1e9
}

// LimitMobility scales the per-age, per-place mobility factor down for an
// age range and place. Successive narrowed limits compose
// multiplicatively. A negative place applies to all places.
func (pop *Population) LimitMobility(factor float64, minAge, maxAge, place int) {
	for age := minAge; age <= maxAge && age <= pop.maxAge; age++ {
		if place >= 0 {
			pop.ageMobility[age][place] *= factor
			continue
		}
		for pl := 0; pl < NumContactPlaces; pl++ {
			pop.ageMobility[age][pl] *= factor
		}
	}
}

// SetMaskShare sets the share of masked contacts for an age range and
// place. A negative place applies to all places.
func (pop *Population) SetMaskShare(share float64, minAge, maxAge, place int) {
	for age := minAge; age <= maxAge && age <= pop.maxAge; age++ {
		if place >= 0 {
			pop.maskShare[age][place] = share
			continue
		}
		for pl := 0; pl < NumContactPlaces; pl++ {
			pop.maskShare[age][pl] = share
		}
	}
}

// MaskShare returns the masked-contact share for an age at a place.
func (pop *Population) MaskShare(age, place int) float64 {
	return pop.maskShare[age][place]
}

// SampleImportTarget draws a candidate for an imported infection: an age
// bracket weighted by the configured import weights, then a person drawn
// uniformly within the bracket.
func (pop *Population) SampleImportTarget(rnd *Rand) *Person {
	weights := make([]float64, len(pop.importAges))
	for i, aw := range pop.importAges {
		if len(pop.importPools[i]) > 0 {
			weights[i] = aw.Weight
		}
	}
	pool := pop.importPools[rnd.WeightedChoice(weights)]
	if len(pool) == 0 {
		return nil
	}
	return &pop.people[pool[rnd.Intn(len(pool))]]
}

// Vaccinate samples count susceptible, unvaccinated persons in the age
// range uniformly without replacement and grants them immunity. Returns
// the number of people actually vaccinated.
func (pop *Population) Vaccinate(rnd *Rand, minAge, maxAge, count int) int {
	if count <= 0 {
		return 0
	}
	var eligible []int32
	for _, p := range pop.people {
		age := int(p.age)
		if p.state == SusceptibleStateCode && !p.vaccinated && age >= minAge && age <= maxAge {
			eligible = append(eligible, p.idx)
		}
	}
	if count > len(eligible) {
		count = len(eligible)
	}
	// Partial Fisher-Yates: the first count slots end up a uniform
	// sample without replacement.
	for i := 0; i < count; i++ {
		j := i + rnd.Intn(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
		p := &pop.people[eligible[i]]
		p.vaccinated = true
		p.hasImmunity = true
		pop.vaccinated[p.age]++
	}
	return count
}

// The counter mutators below mirror the person state transitions. They
// take the person so every update is indexed by the right age.

func (pop *Population) infect(p *Person) {
	pop.susceptible[p.age]--
	pop.infected[p.age]++
	pop.allInfected[p.age]++
	pop.newInfections[p.age]++
}

func (pop *Population) detect(p *Person) {
	p.wasDetected = true
	pop.detected[p.age]++
	pop.allDetected[p.age]++
}

func (pop *Population) recover(p *Person) {
	pop.infected[p.age]--
	pop.recovered[p.age]++
	if p.wasDetected {
		pop.detected[p.age]--
	}
}

func (pop *Population) die(p *Person, outsideHospital bool) {
	pop.infected[p.age]--
	pop.dead[p.age]++
	if outsideHospital {
		pop.nonHospitalDeaths[p.age]++
	}
	if p.wasDetected {
		pop.detected[p.age]--
	}
}

func (pop *Population) toWard(p *Person)  { pop.inWard[p.age]++ }
func (pop *Population) fromWard(p *Person) { pop.inWard[p.age]-- }
func (pop *Population) toICU(p *Person)   { pop.inICU[p.age]++ }
func (pop *Population) fromICU(p *Person) { pop.inICU[p.age]-- }

// groupTotals folds a per-age counter into the reporting groups.
func (pop *Population) groupTotals(counter []int) []int {
	out := make([]int, len(pop.ageGroups.Labels))
	for age, count := range counter {
		out[pop.ageGroups.AgeToGroup[age]] += count
	}
	return out
}

// resetDailyCounters zeroes the per-day tallies at the head of a day.
func (pop *Population) resetDailyCounters() {
	for i := range pop.newInfections {
		pop.newInfections[i] = 0
	}
	for i := range pop.dailyContacts {
		pop.dailyContacts[i] = 0
	}
}
