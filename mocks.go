package reina

// The constructors below build small sample models shared by the tests.

// sampleDisease returns a disease policy with plausible parameter values
// in the fraction domain.
func sampleDisease() *Disease {
	return &Disease{
		Susceptibility: []AgeRate{{0, 0.25}},
		PSymptomatic:   []AgeRate{{0, 0.5}},
		PSevere: []AgeRate{
			{0, 0.0}, {10, 0.0004}, {20, 0.011}, {30, 0.034}, {40, 0.043},
			{50, 0.082}, {60, 0.118}, {70, 0.166}, {80, 0.184},
		},
		PCritical: []AgeRate{{0, 0.25}},
		PFatal:    []AgeRate{{0, 0.4}},

		PAsymptomaticInfection:   0.5,
		InfectiousnessMultiplier: 1.0,

		PMaskProtectsWearer: 0.3,
		PMaskProtectsOthers: 0.6,

		PHospitalDeath:        0.1,
		PICUDeath:             0.2,
		PHospitalDeathNoBeds:  0.2,
		PICUDeathNoBeds:       1.0,
		PDeathOutsideHospital: []AgeRate{{0, 0.05}, {70, 0.25}},

		MeanIncubationDuration:          5,
		MeanDurationFromOnsetToDeath:    19,
		MeanDurationFromOnsetToRecovery: 21,

		RatioOfDurationBeforeHospitalisation: 0.3,
		RatioOfDurationInWard:                0.6,

		InfectiousnessProfile: DefaultInfectiousnessProfile,
		Variants:              []Variant{{Name: "", InfectiousnessMultiplier: 1.0}},
	}
}

// sampleContactRows returns a small contact matrix covering all places
// for the whole age range.
func sampleContactRows() []ContactRow {
	places := []struct {
		place    string
		contacts float64
	}{
		{"home", 3.0},
		{"work", 2.0},
		{"school", 1.0},
		{"transport", 1.5},
		{"leisure", 2.0},
		{"other", 1.5},
	}
	var rows []ContactRow
	for _, p := range places {
		rows = append(rows, ContactRow{
			Place:         p.place,
			ParticipantLo: 0,
			ParticipantHi: 100,
			ContactLo:     0,
			ContactHi:     100,
			Contacts:      p.contacts,
		})
	}
	return rows
}

// samplePopulationParams returns a population of count people, all of
// the given age.
func samplePopulationParams(count, age int) *PopulationParams {
	structure := make([]int, 101)
	structure[age] = count
	return &PopulationParams{
		AgeStructure:   structure,
		ContactsPerDay: sampleContactRows(),
	}
}

// sampleContext returns the reference test setup: 1000 people aged 40,
// one ward bed and one ICU unit.
func sampleContext(seed int64) (*Context, error) {
	return NewContext(
		samplePopulationParams(1000, 40),
		&HealthcareParams{HospitalBeds: 1, ICUUnits: 1},
		sampleDisease(),
		"2020-02-18",
		seed,
	)
}
