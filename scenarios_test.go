package reina

import (
	"testing"
)

// The scenarios below run the reference setup of the engine: seed 1234,
// 1000 people aged 40, one ward bed and one ICU unit.

func scenarioContext(t *testing.T, ivs ...*Intervention) *Context {
	t.Helper()
	ctx, err := sampleContext(1234)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "creating context", err)
	}
	for _, iv := range ivs {
		if err := ctx.AddIntervention(iv); err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "adding intervention", err)
		}
	}
	return ctx
}

func runDays(t *testing.T, ctx *Context, days int) []*State {
	t.Helper()
	var states []*State
	for day := 0; day < days; day++ {
		if err := ctx.Iterate(); err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating", err)
		}
		states = append(states, ctx.GenerateState())
	}
	return states
}

func TestScenario_NothingHappensWithoutSeeds(t *testing.T) {
	ctx := scenarioContext(t)
	states := runDays(t, ctx, 30)
	last := states[len(states)-1]
	for _, attr := range []string{"infected", "all_infected", "detected", "dead", "recovered", "in_ward", "in_icu", "new_infections"} {
		if got := last.AttributeTotal(attr); got != 0 {
			t.Errorf(UnequalIntParameterError, attr+" after 30 empty days", 0, got)
		}
	}
	if got := last.AttributeTotal("susceptible"); got != 1000 {
		t.Errorf(UnequalIntParameterError, "susceptible after 30 empty days", 1000, got)
	}
}

func TestScenario_ImportSeedsIncubation(t *testing.T) {
	ctx := scenarioContext(t, &Intervention{
		Type: ImportInfectionsType, Date: "2020-02-18", Amount: 10,
	})
	states := runDays(t, ctx, 2)
	if got := states[0].AttributeTotal("all_infected"); got != 10 {
		t.Fatalf(UnequalIntParameterError, "infections on the import day", 10, got)
	}
	if got := states[0].AttributeTotal("new_infections"); got != 10 {
		t.Fatalf(UnequalIntParameterError, "new infections on the import day", 10, got)
	}
	// On the next day the seeded cases are incubating; the shortest
	// possible incubation period may already have produced symptoms in
	// a stray case.
	pop := ctx.Population()
	incubating, ill := 0, 0
	for i := 0; i < pop.Size(); i++ {
		switch pop.Person(int32(i)).State() {
		case IncubationStateCode:
			incubating++
		case IllnessStateCode:
			ill++
		}
	}
	if incubating+ill != 10 {
		t.Fatalf(UnequalIntParameterError, "seeded active cases on day one", 10, incubating+ill)
	}
	if incubating < 8 {
		t.Errorf(UnequalIntParameterError, "incubating cases on day one (at least)", 8, incubating)
	}
}

func TestScenario_FullMobilityStopPreventsSpread(t *testing.T) {
	ctx := scenarioContext(t,
		&Intervention{Type: LimitMobilityType, Date: "2020-02-18", Reduction: 100},
		&Intervention{Type: ImportInfectionsType, Date: "2020-02-18", Amount: 50},
	)
	states := runDays(t, ctx, 30)
	if got := states[0].AttributeTotal("new_infections"); got != 50 {
		t.Fatalf(UnequalIntParameterError, "imported infections on day zero", 50, got)
	}
	for day := 1; day < len(states); day++ {
		if got := states[day].AttributeTotal("new_infections"); got != 0 {
			t.Fatalf(UnequalIntParameterError, "onward infections under a full mobility stop", 0, got)
		}
	}
	if got := states[len(states)-1].AttributeTotal("all_infected"); got != 50 {
		t.Errorf(UnequalIntParameterError, "total infections under a full mobility stop", 50, got)
	}
}

func TestScenario_ICUExpansionOnSchedule(t *testing.T) {
	ctx := scenarioContext(t, &Intervention{
		Type: BuildNewICUUnitsType, Date: "2020-02-28", Units: 5,
	})
	states := runDays(t, ctx, 15)
	if got := states[9].TotalICUUnits; got != 1 {
		t.Errorf(UnequalIntParameterError, "ICU units the day before expansion", 1, got)
	}
	if got := states[10].TotalICUUnits; got != 6 {
		t.Errorf(UnequalIntParameterError, "ICU units on the expansion day", 6, got)
	}
	if got := states[10].AvailableICUUnits; got != 6 {
		t.Errorf(UnequalIntParameterError, "available ICU units on the expansion day", 6, got)
	}
}

func TestScenario_ContactTracingDetectsChains(t *testing.T) {
	ctx := scenarioContext(t,
		&Intervention{Type: TestWithContactTracingType, Date: "2020-02-18", Efficiency: 100},
		&Intervention{Type: ImportInfectionsType, Date: "2020-02-18", Amount: 1},
	)
	pop := ctx.Population()
	for day := 0; day < 60; day++ {
		if err := ctx.Iterate(); err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "iterating", err)
		}
		// Every symptomatic case is tested the day after onset, so two
		// days into the illness it must be known.
		for i := 0; i < pop.Size(); i++ {
			p := pop.Person(int32(i))
			if p.State() == IllnessStateCode &&
				p.symptomSeverity != AsymptomaticSeverityCode &&
				p.dayOfIllness >= 2 && !p.WasDetected() {
				t.Fatalf("symptomatic person %d still unknown %d days into illness on day %d", i, p.dayOfIllness, day)
			}
		}
	}
	s := ctx.GenerateState()
	if got := s.AttributeTotal("all_infected"); got == 0 {
		t.Fatalf("seed infection did not take hold")
	}
}

func TestScenario_VaccinationShieldsEveryone(t *testing.T) {
	ctx := scenarioContext(t,
		&Intervention{Type: VaccinateType, Date: "2020-02-18", WeeklyAmount: 1000},
		&Intervention{Type: ImportInfectionsType, Date: "2020-02-28", Amount: 20},
	)
	states := runDays(t, ctx, 30)
	if got := states[6].AttributeTotal("vaccinated"); got != 1000 {
		t.Fatalf(UnequalIntParameterError, "vaccinated after one week", 1000, got)
	}
	for day := 7; day < len(states); day++ {
		if got := states[day].AttributeTotal("new_infections"); got != 0 {
			t.Fatalf(UnequalIntParameterError, "infections in a vaccinated population", 0, got)
		}
	}
	if got := states[len(states)-1].AttributeTotal("all_infected"); got != 0 {
		t.Errorf(UnequalIntParameterError, "total infections in a vaccinated population", 0, got)
	}
}
