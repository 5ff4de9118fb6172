package reina

import "testing"

func TestNewPopulation_Validation(t *testing.T) {
	_, err := NewPopulation(&PopulationParams{})
	if err == nil {
		t.Errorf(ExpectedErrorWhileError, "creating population without an age structure")
	}
	_, err = NewPopulation(&PopulationParams{AgeStructure: []int{0, 0}})
	if err == nil {
		t.Errorf(ExpectedErrorWhileError, "creating an empty population")
	}
	_, err = NewPopulation(&PopulationParams{
		AgeStructure:   []int{10},
		ContactsPerDay: []ContactRow{{Place: "castle", ParticipantLo: 0, ParticipantHi: 0, Contacts: 1}},
	})
	if err == nil {
		t.Errorf(ExpectedErrorWhileError, "creating population with an unknown contact place")
	}
}

func TestNewPopulation_Structure(t *testing.T) {
	pop, err := NewPopulation(samplePopulationParams(1000, 40))
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "creating population", err)
	}
	if pop.Size() != 1000 {
		t.Errorf(UnequalIntParameterError, "population size", 1000, pop.Size())
	}
	if pop.susceptible[40] != 1000 {
		t.Errorf(UnequalIntParameterError, "initial susceptible count", 1000, pop.susceptible[40])
	}
	for i := 0; i < pop.Size(); i++ {
		p := pop.Person(int32(i))
		if p.Age() != 40 || p.State() != SusceptibleStateCode {
			t.Fatalf("person %d not initialized as a susceptible 40-year-old", i)
		}
		if p.Infector() != NoInfector {
			t.Fatalf(UnequalIntParameterError, "initial infector", int(NoInfector), int(p.Infector()))
		}
	}
	// Contact expectations summed over places.
	want := 3.0 + 2.0 + 1.0 + 1.5 + 2.0 + 1.5
	if got := pop.avgContacts[40]; got != want {
		t.Errorf(UnequalFloatParameterError, "expected contacts at age 40", want, got)
	}
}

func TestPopulation_ContactsUnderMobilityLimit(t *testing.T) {
	pop, err := NewPopulation(samplePopulationParams(100, 40))
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "creating population", err)
	}
	rnd := NewRand(11)
	p := pop.Person(0)

	pop.SetMobilityFactor(0)
	for i := 0; i < 100; i++ {
		if n := pop.ContactsPerDay(rnd, p, -1, 1.0, maxDailyContacts); n != 0 {
			t.Fatalf(UnequalIntParameterError, "contacts under a full mobility stop", 0, n)
		}
	}
	if lim := pop.MobilityLimitation(); lim != 100 {
		t.Errorf(UnequalFloatParameterError, "mobility limitation", 100.0, lim)
	}

	pop.SetMobilityFactor(1)
	total := 0
	for i := 0; i < 1000; i++ {
		counts := pop.PlaceContacts(rnd, p, 1.0, maxDailyContacts)
		sum := 0
		for _, n := range counts {
			sum += n
		}
		if sum > maxDailyContacts {
			t.Fatalf(InvalidIntParameterError, "daily contacts", sum, "exceeds the daily cap")
		}
		total += sum
	}
	if total == 0 {
		t.Errorf("unrestricted mobility produced no contacts at all")
	}
}

func TestPopulation_PlaceTargetedMobility(t *testing.T) {
	pop, err := NewPopulation(samplePopulationParams(100, 40))
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "creating population", err)
	}
	rnd := NewRand(11)
	p := pop.Person(0)

	// Two successive 50% limits on work compose to 25%.
	pop.LimitMobility(0.5, 0, 100, WorkPlace)
	pop.LimitMobility(0.5, 0, 100, WorkPlace)
	if got := pop.ageMobility[40][WorkPlace]; got != 0.25 {
		t.Errorf(UnequalFloatParameterError, "composed work mobility factor", 0.25, got)
	}
	if got := pop.ageMobility[40][HomePlace]; got != 1.0 {
		t.Errorf(UnequalFloatParameterError, "home mobility factor", 1.0, got)
	}

	// A full stop on work zeroes work contacts only.
	pop.LimitMobility(0, 0, 100, WorkPlace)
	for i := 0; i < 100; i++ {
		if n := pop.ContactsPerDay(rnd, p, WorkPlace, 1.0, maxDailyContacts); n != 0 {
			t.Fatalf(UnequalIntParameterError, "work contacts under a work stop", 0, n)
		}
	}
}

func TestPopulation_Vaccinate(t *testing.T) {
	pop, err := NewPopulation(samplePopulationParams(100, 40))
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "creating population", err)
	}
	rnd := NewRand(4)

	n := pop.Vaccinate(rnd, 0, 100, 30)
	if n != 30 {
		t.Fatalf(UnequalIntParameterError, "vaccinated count", 30, n)
	}
	if pop.vaccinated[40] != 30 {
		t.Errorf(UnequalIntParameterError, "vaccinated counter", 30, pop.vaccinated[40])
	}
	marked := 0
	for i := 0; i < pop.Size(); i++ {
		p := pop.Person(int32(i))
		if p.vaccinated {
			marked++
			if !p.hasImmunity {
				t.Fatalf("vaccinated person %d has no immunity", i)
			}
			if p.State() != SusceptibleStateCode {
				t.Fatalf(UnequalIntParameterError, "vaccinated person state", SusceptibleStateCode, p.State())
			}
		}
	}
	if marked != 30 {
		t.Errorf(UnequalIntParameterError, "marked vaccinated persons", 30, marked)
	}

	// Vaccinating more than remain caps at the eligible pool.
	n = pop.Vaccinate(rnd, 0, 100, 1000)
	if n != 70 {
		t.Errorf(UnequalIntParameterError, "vaccinated count capped at pool", 70, n)
	}

	// Outside the age range nothing happens.
	n = pop.Vaccinate(rnd, 0, 30, 10)
	if n != 0 {
		t.Errorf(UnequalIntParameterError, "vaccinated count outside age range", 0, n)
	}
}

func TestPopulation_AgeSumInvariant(t *testing.T) {
	ctx := certainInfectionContext(t, &HealthcareParams{HospitalBeds: 0, ICUUnits: 0})
	pop := ctx.Population()

	check := func(when string) {
		t.Helper()
		total := pop.susceptible[40] + pop.infected[40] + pop.recovered[40] + pop.dead[40]
		if total != 1000 {
			t.Fatalf(UnequalIntParameterError, "age compartment sum "+when, 1000, total)
		}
	}

	check("initially")
	a := pop.Person(0)
	a.infect(ctx, 0, NoInfector)
	check("after infection")
	a.recover(ctx)
	check("after recovery")

	b := pop.Person(1)
	b.infect(ctx, 0, NoInfector)
	b.die(ctx, true)
	check("after death")
}

func TestDefaultAgeGroups(t *testing.T) {
	ag := DefaultAgeGroups(100)
	if len(ag.Labels) != 9 {
		t.Fatalf(UnequalIntParameterError, "age group count", 9, len(ag.Labels))
	}
	if ag.Labels[0] != "0-9" {
		t.Errorf(UnequalStringParameterError, "first group label", "0-9", ag.Labels[0])
	}
	if ag.Labels[8] != "80+" {
		t.Errorf(UnequalStringParameterError, "last group label", "80+", ag.Labels[8])
	}
	if ag.AgeToGroup[45] != 4 {
		t.Errorf(UnequalIntParameterError, "group of age 45", 4, ag.AgeToGroup[45])
	}
	if ag.AgeToGroup[95] != 8 {
		t.Errorf(UnequalIntParameterError, "group of age 95", 8, ag.AgeToGroup[95])
	}
}
