package reina

import "math"

// The following are codes for the symptom severity classes a case is
// assigned on symptom onset. The class is sampled once and latched.
const (
	AsymptomaticSeverityCode = 1
	MildSeverityCode         = 2
	SevereSeverityCode       = 3
	CriticalSeverityCode     = 4
	FatalSeverityCode        = 5
)

// SeverityToStr maps severity codes to their display names.
var SeverityToStr = map[int]string{
	AsymptomaticSeverityCode: "asymptomatic",
	MildSeverityCode:         "mild",
	SevereSeverityCode:       "severe",
	CriticalSeverityCode:     "critical",
	FatalSeverityCode:        "fatal",
}

// Incubation period draws are clamped to this range, in days.
const (
	minIncubationDays = 1
	maxIncubationDays = 14
)

// Spread of the lognormal incubation period distribution.
const incubationSigma = 0.5

// AgeRate is one bracket of an age-dependent rate: the rate applies from
// Age up to the next bracket's starting age.
type AgeRate struct {
	Age  int
	Rate float64
}

// rateForAge returns the rate of the bracket covering the given age.
// Brackets are ordered by starting age; ages below the first bracket get
// the first bracket's rate.
func rateForAge(rates []AgeRate, age int) float64 {
	if len(rates) == 0 {
		return 0
	}
	out := rates[0].Rate
	for _, r := range rates {
		if age < r.Age {
			break
		}
		out = r.Rate
	}
	return out
}

// Variant is a named strain of the disease. The multiplier scales the
// infectiousness of cases carrying the variant on top of the base
// viral-load curve.
type Variant struct {
	Name                     string
	InfectiousnessMultiplier float64
}

// Disease is a stateless policy object parameterized by the disease
// constants. It decides stage durations, symptom severity, per-day
// infectiousness and death outcomes. All probabilities are fractions
// in [0, 1].
type Disease struct {
	// Age-bracketed probability chain sampled on symptom onset.
	Susceptibility []AgeRate
	PSymptomatic   []AgeRate
	PSevere        []AgeRate
	PCritical      []AgeRate
	PFatal         []AgeRate

	// Transmission discount applied when the spreader is asymptomatic.
	PAsymptomaticInfection float64

	// Scales the whole viral-load curve.
	InfectiousnessMultiplier float64

	// Mask protection at the two endpoints of a contact.
	PMaskProtectsWearer float64
	PMaskProtectsOthers float64

	// Death probabilities by care tier and availability.
	PHospitalDeath        float64
	PICUDeath             float64
	PHospitalDeathNoBeds  float64
	PICUDeathNoBeds       float64
	PDeathOutsideHospital []AgeRate

	// Mean durations in days.
	MeanIncubationDuration        float64
	MeanDurationFromOnsetToDeath  float64
	MeanDurationFromOnsetToRecovery float64

	// Duration ratios splitting the onset-to-outcome period.
	RatioOfDurationBeforeHospitalisation float64
	RatioOfDurationInWard                float64

	// Relative infectiousness by day-offset from symptom onset.
	// Zero outside the listed support.
	InfectiousnessProfile map[int]float64

	// Known strains. Index 0 is the baseline; person records carry the
	// index of the strain that infected them.
	Variants []Variant
}

// DefaultInfectiousnessProfile is the baseline viral-load curve, keyed by
// day-offset from symptom onset.
var DefaultInfectiousnessProfile = map[int]float64{
	-2: 0.12, -1: 0.29, 0: 0.27, 1: 0.07, 2: 0.05, 3: 0.04, 4: 0.03,
	5: 0.03, 6: 0.02, 7: 0.02, 8: 0.02, 9: 0.01, 10: 0.01,
}

// VariantMultiplier returns the infectiousness multiplier of the given
// strain index. Index 0 and unknown indexes are the baseline.
func (d *Disease) VariantMultiplier(variant uint8) float64 {
	i := int(variant)
	if i <= 0 || i >= len(d.Variants) {
		return 1.0
	}
	m := d.Variants[i].InfectiousnessMultiplier
	if m <= 0 {
		return 1.0
	}
	return m
}

// VariantIndex returns the index for a variant name, or -1 when the name
// is unknown. The empty name is the baseline.
func (d *Disease) VariantIndex(name string) int {
	if name == "" {
		return 0
	}
	for i, v := range d.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// SourceInfectiousness returns the probability weight with which the
// source person infects a contact today. It looks up the day-offset from
// symptom onset in the viral-load profile and scales it by the global and
// variant multipliers. Returns 0 outside the profile support and for
// people who are not infected.
func (d *Disease) SourceInfectiousness(source *Person) float64 {
	if !source.isInfected {
		return 0
	}
	val, ok := d.InfectiousnessProfile[int(source.dayOfIllness)]
	if !ok {
		return 0
	}
	return val * d.InfectiousnessMultiplier * d.VariantMultiplier(source.variant)
}

// SymptomSeverity samples the severity class for a person of the given
// age through the conditional chain symptomatic -> severe -> critical ->
// fatal. Sampled once on the incubation-to-illness transition.
func (d *Disease) SymptomSeverity(rnd *Rand, age int) int {
	if !rnd.Chance(rateForAge(d.PSymptomatic, age)) {
		return AsymptomaticSeverityCode
	}
	if !rnd.Chance(rateForAge(d.PSevere, age)) {
		return MildSeverityCode
	}
	if !rnd.Chance(rateForAge(d.PCritical, age)) {
		return SevereSeverityCode
	}
	if !rnd.Chance(rateForAge(d.PFatal, age)) {
		return CriticalSeverityCode
	}
	return FatalSeverityCode
}

// IncubationDays samples the incubation period. The draw is lognormal
// with its mode at the configured mean duration, clamped to 1..14 days.
func (d *Disease) IncubationDays(rnd *Rand) int {
	mu := math.Log(d.MeanIncubationDuration) + incubationSigma*incubationSigma
	days := int(math.Round(rnd.Lognormal(mu, incubationSigma)))
	if days < minIncubationDays {
		days = minIncubationDays
	}
	if days > maxIncubationDays {
		days = maxIncubationDays
	}
	return days
}

// IllnessDays samples the duration of the illness stage for the given
// severity. Mild and asymptomatic cases carry the whole onset-to-recovery
// period; hospitalizing cases only the portion before admission.
func (d *Disease) IllnessDays(rnd *Rand, severity int) int {
	switch severity {
	case AsymptomaticSeverityCode, MildSeverityCode:
		return atLeastOne(rnd.Poisson(d.MeanDurationFromOnsetToRecovery))
	case FatalSeverityCode:
		return atLeastOne(rnd.Poisson(d.MeanDurationFromOnsetToDeath * d.RatioOfDurationBeforeHospitalisation))
	default:
		return atLeastOne(rnd.Poisson(d.MeanDurationFromOnsetToRecovery * d.RatioOfDurationBeforeHospitalisation))
	}
}

// WardDays samples the hospital-ward stay. Recovering severe cases stay
// for the onset-to-recovery remainder; fatal cases for the in-ward share
// of the onset-to-death remainder.
func (d *Disease) WardDays(rnd *Rand, severity int) int {
	if severity == FatalSeverityCode {
		hospital := d.MeanDurationFromOnsetToDeath * (1 - d.RatioOfDurationBeforeHospitalisation)
		return atLeastOne(rnd.Poisson(hospital * d.RatioOfDurationInWard))
	}
	hospital := d.MeanDurationFromOnsetToRecovery * (1 - d.RatioOfDurationBeforeHospitalisation)
	return atLeastOne(rnd.Poisson(hospital))
}

// ICUDays samples the intensive-care stay of a critical case.
func (d *Disease) ICUDays(rnd *Rand) int {
	hospital := d.MeanDurationFromOnsetToRecovery * (1 - d.RatioOfDurationBeforeHospitalisation)
	return atLeastOne(rnd.Poisson(hospital))
}

// DiesInHospital decides the outcome of a hospital episode from the care
// tier and whether a unit was actually available.
func (d *Disease) DiesInHospital(rnd *Rand, inICU, careAvailable bool) bool {
	var p float64
	switch {
	case inICU && careAvailable:
		p = d.PICUDeath
	case inICU && !careAvailable:
		p = d.PICUDeathNoBeds
	case !inICU && careAvailable:
		p = d.PHospitalDeath
	default:
		p = d.PHospitalDeathNoBeds
	}
	return rnd.Chance(p)
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
