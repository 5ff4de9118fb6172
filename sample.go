package reina

import (
	"fmt"
	"sort"

	rv "github.com/kentwait/randomvariate"
)

// The parameter distributions the sampling interface can draw from.
const (
	IncubationPeriodSample      = "incubation_period"
	IllnessPeriodSample         = "illness_period"
	HospitalizationPeriodSample = "hospitalization_period"
	ICUPeriodSample             = "icu_period"
	SymptomSeveritySample       = "symptom_severity"
	ContactsPerDaySample        = "contacts_per_day"
	InfectiousnessSample        = "infectiousness"
)

// SampleResult holds draws from one parameter distribution. Days is only
// set for the infectiousness curve, where Values[i] is the relative
// infectiousness on day-offset Days[i].
type SampleResult struct {
	Values []float64
	Days   []int
}

// Sample draws n values from a model parameter distribution for
// inspection. This interface exists for exploring a configuration and is
// never called during simulated runs, so the severity draw may use the
// process-global randomvariate source without touching the context's
// seeded stream.
func (ctx *Context) Sample(what string, age, severity, n int) (*SampleResult, error) {
	if age < 0 || age > ctx.pop.MaxAge() {
		return nil, fmt.Errorf(InvalidIntParameterError, "sample age", age, "outside the population age range")
	}
	if n < 1 {
		n = 1
	}
	d := ctx.disease
	out := &SampleResult{}
	switch what {
	case IncubationPeriodSample:
		for i := 0; i < n; i++ {
			out.Values = append(out.Values, float64(d.IncubationDays(ctx.rnd)))
		}
	case IllnessPeriodSample:
		if severity == 0 {
			severity = MildSeverityCode
		}
		for i := 0; i < n; i++ {
			out.Values = append(out.Values, float64(d.IllnessDays(ctx.rnd, severity)))
		}
	case HospitalizationPeriodSample:
		if severity == 0 {
			severity = SevereSeverityCode
		}
		for i := 0; i < n; i++ {
			out.Values = append(out.Values, float64(d.WardDays(ctx.rnd, severity)))
		}
	case ICUPeriodSample:
		for i := 0; i < n; i++ {
			out.Values = append(out.Values, float64(d.ICUDays(ctx.rnd)))
		}
	case SymptomSeveritySample:
		counts := rv.Multinomial(n, severityProbs(d, age))
		for class, count := range counts {
			for i := 0; i < count; i++ {
				out.Values = append(out.Values, float64(class+AsymptomaticSeverityCode))
			}
		}
	case ContactsPerDaySample:
		p := &Person{age: uint8(age)}
		for i := 0; i < n; i++ {
			out.Values = append(out.Values, float64(ctx.pop.ContactsPerDay(ctx.rnd, p, -1, 1.0, maxDailyContacts)))
		}
	case InfectiousnessSample:
		for day := range d.InfectiousnessProfile {
			out.Days = append(out.Days, day)
		}
		sort.Ints(out.Days)
		for _, day := range out.Days {
			out.Values = append(out.Values, d.InfectiousnessProfile[day]*d.InfectiousnessMultiplier)
		}
	default:
		return nil, fmt.Errorf(UnrecognizedKeywordError, what, "sample kind")
	}
	return out, nil
}

// severityProbs expands the conditional severity chain for one age into
// the marginal probability of each class, in code order.
func severityProbs(d *Disease, age int) []float64 {
	pSym := rateForAge(d.PSymptomatic, age)
	pSev := rateForAge(d.PSevere, age)
	pCrit := rateForAge(d.PCritical, age)
	pFatal := rateForAge(d.PFatal, age)
	return []float64{
		1 - pSym,
		pSym * (1 - pSev),
		pSym * pSev * (1 - pCrit),
		pSym * pSev * pCrit * (1 - pFatal),
		pSym * pSev * pCrit * pFatal,
	}
}
