package reina

import "testing"

func TestHealthcareSystem_BedAccounting(t *testing.T) {
	hc := NewHealthcareSystem(2, 1)
	if !hc.Hospitalize() || !hc.Hospitalize() {
		t.Fatalf("could not claim available beds")
	}
	if hc.Hospitalize() {
		t.Errorf("claimed a bed beyond capacity")
	}
	if hc.AvailableBeds() != 0 {
		t.Errorf(UnequalIntParameterError, "available beds", 0, hc.AvailableBeds())
	}
	hc.Release()
	if hc.AvailableBeds() != 1 {
		t.Errorf(UnequalIntParameterError, "available beds after release", 1, hc.AvailableBeds())
	}

	if !hc.ToICU() {
		t.Fatalf("could not claim the available ICU unit")
	}
	if hc.ToICU() {
		t.Errorf("claimed an ICU unit beyond capacity")
	}
	hc.ReleaseFromICU()
	if hc.AvailableICUUnits() != 1 {
		t.Errorf(UnequalIntParameterError, "available ICU units after release", 1, hc.AvailableICUUnits())
	}

	hc.AddBeds(3)
	if hc.Beds() != 5 || hc.AvailableBeds() != 4 {
		t.Errorf("bed expansion not applied: total=%d available=%d", hc.Beds(), hc.AvailableBeds())
	}
	hc.AddICUUnits(2)
	if hc.ICUUnits() != 3 || hc.AvailableICUUnits() != 3 {
		t.Errorf("ICU expansion not applied: total=%d available=%d", hc.ICUUnits(), hc.AvailableICUUnits())
	}
}

func TestHealthcareSystem_SeekTestingModes(t *testing.T) {
	ctx := certainInfectionContext(t, &HealthcareParams{HospitalBeds: 1, ICUUnits: 1})
	hc := ctx.Healthcare()
	pop := ctx.Population()

	mild := pop.Person(0)
	mild.isInfected = true
	mild.state = IllnessStateCode
	mild.symptomSeverity = MildSeverityCode

	severe := pop.Person(1)
	severe.isInfected = true
	severe.state = IllnessStateCode
	severe.symptomSeverity = SevereSeverityCode

	// No testing: nobody is queued.
	hc.SeekTesting(ctx, mild)
	hc.SeekTesting(ctx, severe)
	if len(hc.testingQueue) != 0 {
		t.Fatalf(UnequalIntParameterError, "queue length without testing", 0, len(hc.testingQueue))
	}

	// Severe-only with zero mild detection: only the severe case queues.
	hc.SetTestingMode(SevereOnlyTestingMode, 0)
	hc.SeekTesting(ctx, mild)
	hc.SeekTesting(ctx, severe)
	if len(hc.testingQueue) != 1 || hc.testingQueue[0] != severe.idx {
		t.Fatalf("severe-only mode queued the wrong people: %v", hc.testingQueue)
	}

	// Re-seeking does not duplicate the queue entry.
	hc.SeekTesting(ctx, severe)
	if len(hc.testingQueue) != 1 {
		t.Errorf(UnequalIntParameterError, "queue length after duplicate seek", 1, len(hc.testingQueue))
	}

	// Everyone with symptoms queues under the broad mode.
	hc.SetTestingMode(AllSymptomsTestingMode, 0)
	hc.SeekTesting(ctx, mild)
	if len(hc.testingQueue) != 2 {
		t.Errorf(UnequalIntParameterError, "queue length under broad testing", 2, len(hc.testingQueue))
	}

	if err := hc.SetTestingMode(99, 0); err == nil {
		t.Errorf(ExpectedErrorWhileError, "setting an unknown testing mode")
	}
}

func TestHealthcareSystem_QueueForTestingSkips(t *testing.T) {
	ctx := certainInfectionContext(t, &HealthcareParams{HospitalBeds: 1, ICUUnits: 1})
	hc := ctx.Healthcare()
	pop := ctx.Population()

	dead := pop.Person(0)
	dead.state = DeadStateCode
	hc.QueueForTesting(ctx, dead.idx)

	detected := pop.Person(1)
	detected.wasDetected = true
	hc.QueueForTesting(ctx, detected.idx)

	if len(hc.testingQueue) != 0 {
		t.Errorf(UnequalIntParameterError, "queue length after skipped entries", 0, len(hc.testingQueue))
	}
}

func TestHealthcareSystem_IterateDetectsInfectious(t *testing.T) {
	ctx := certainInfectionContext(t, &HealthcareParams{HospitalBeds: 1, ICUUnits: 1})
	hc := ctx.Healthcare()
	pop := ctx.Population()
	hc.SetTestingMode(AllSymptomsTestingMode, 0)

	infectious := pop.Person(0)
	infectious.isInfected = true
	infectious.state = IllnessStateCode
	infectious.dayOfIllness = 0
	infectious.symptomSeverity = MildSeverityCode
	hc.QueueForTesting(ctx, infectious.idx)

	healthy := pop.Person(1)
	hc.QueueForTesting(ctx, healthy.idx)

	hc.Iterate(ctx)
	if hc.testsRunPerDay != 2 {
		t.Errorf(UnequalIntParameterError, "tests run", 2, hc.testsRunPerDay)
	}
	if !infectious.WasDetected() {
		t.Errorf("infectious person tested negative")
	}
	if healthy.WasDetected() {
		t.Errorf("healthy person tested positive")
	}
	if len(hc.testingQueue) != 0 {
		t.Errorf(UnequalIntParameterError, "queue length after iterate", 0, len(hc.testingQueue))
	}
	if infectious.queuedForTesting || healthy.queuedForTesting {
		t.Errorf("queued flags not cleared after testing")
	}
}

func TestHealthcareSystem_ContactTracing(t *testing.T) {
	ctx := certainInfectionContext(t, &HealthcareParams{HospitalBeds: 1, ICUUnits: 1})
	hc := ctx.Healthcare()
	pop := ctx.Population()
	hc.SetTestingMode(ContactTracingTestingMode, 1.0)

	// Build a four-hop infection chain 0 -> 1 -> 2 -> 3 -> 4 by hand.
	chain := []*Person{
		pop.Person(0), pop.Person(1), pop.Person(2), pop.Person(3), pop.Person(4),
	}
	for i, p := range chain {
		p.isInfected = true
		p.state = IllnessStateCode
		p.dayOfIllness = 0
		p.symptomSeverity = MildSeverityCode
		if i > 0 {
			p.infector = chain[i-1].idx
			chain[i-1].infectees = append(chain[i-1].infectees, p.idx)
		}
	}

	hc.QueueForTesting(ctx, chain[0].idx)
	hc.Iterate(ctx)

	if !chain[0].WasDetected() {
		t.Fatalf("index case was not detected")
	}
	// Tracing reaches three hops; the fourth chain member stays unknown.
	for i := 1; i <= 3; i++ {
		if !chain[i].queuedForTesting {
			t.Errorf("person %d hops away was not traced", i)
		}
	}
	if chain[4].queuedForTesting {
		t.Errorf("tracing exceeded its depth limit")
	}
	if hc.tracedPerDay != 3 {
		t.Errorf(UnequalIntParameterError, "traced cases", 3, hc.tracedPerDay)
	}

	// The traced contacts are detected on the next round.
	hc.Iterate(ctx)
	for i := 1; i <= 3; i++ {
		if !chain[i].WasDetected() {
			t.Errorf("traced person %d was not detected the following day", i)
		}
	}
}
