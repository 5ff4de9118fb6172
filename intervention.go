package reina

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// The following are the intervention type keywords accepted in scenario
// configurations.
const (
	TestAllWithSymptomsType    = "test-all-with-symptoms"
	TestOnlySevereSymptomsType = "test-only-severe-symptoms"
	TestWithContactTracingType = "test-with-contact-tracing"
	LimitMobilityType          = "limit-mobility"
	WearMasksType              = "wear-masks"
	VaccinateType              = "vaccinate"
	ImportInfectionsType       = "import-infections"
	ImportInfectionsWeeklyType = "import-infections-weekly"
	BuildNewHospitalBedsType   = "build-new-hospital-beds"
	BuildNewICUUnitsType       = "build-new-icu-units"
)

// Intervention is a tagged record: the Type keyword selects which of the
// parameter fields are meaningful. Percentages are whole percent values.
// A MaxAge of zero means no upper age limit; an empty Place means all
// places.
type Intervention struct {
	Type string `toml:"type"`
	Date string `toml:"date"`

	Reduction         int            `toml:"reduction"`
	ShareOfContacts   int            `toml:"share_of_contacts"`
	MinAge            int            `toml:"min_age"`
	MaxAge            int            `toml:"max_age"`
	Place             string         `toml:"place"`
	MildDetectionRate int            `toml:"mild_detection_rate"`
	Efficiency        int            `toml:"efficiency"`
	Amount            int            `toml:"amount"`
	WeeklyAmount      int            `toml:"weekly_amount"`
	Variant           string         `toml:"variant"`
	VariantShares     map[string]int `toml:"variant_shares"`
	Beds              int            `toml:"beds"`
	Units             int            `toml:"units"`

	// Day offset from the simulation start, resolved from Date when the
	// intervention is added to a Context.
	day int
}

// Day returns the resolved day offset from the simulation start.
func (iv *Intervention) Day() int { return iv.day }

func percentInRange(name string, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf(InvalidIntParameterError, name, v, "must be a percentage between 0 and 100")
	}
	return nil
}

// Validate checks the intervention parameters against the population and
// disease the scenario runs with. Unknown types are a configuration
// error; the simulation never starts.
func (iv *Intervention) Validate(maxAge int, disease *Disease) error {
	if iv.MinAge < 0 || iv.MinAge > maxAge {
		return errors.Wrapf(
			fmt.Errorf(InvalidIntParameterError, "min_age", iv.MinAge, "outside the population age range"),
			"cannot apply %s intervention", iv.Type)
	}
	if iv.MaxAge < 0 || iv.MaxAge > maxAge {
		return errors.Wrapf(
			fmt.Errorf(InvalidIntParameterError, "max_age", iv.MaxAge, "outside the population age range"),
			"cannot apply %s intervention", iv.Type)
	}
	if iv.Place != "" {
		if _, err := ParsePlace(iv.Place); err != nil {
			return errors.Wrapf(err, "cannot apply %s intervention", iv.Type)
		}
	}
	switch iv.Type {
	case TestAllWithSymptomsType:
	case TestOnlySevereSymptomsType:
		if err := percentInRange("mild_detection_rate", iv.MildDetectionRate); err != nil {
			return err
		}
	case TestWithContactTracingType:
		if err := percentInRange("efficiency", iv.Efficiency); err != nil {
			return err
		}
	case LimitMobilityType:
		if err := percentInRange("reduction", iv.Reduction); err != nil {
			return err
		}
	case WearMasksType:
		if err := percentInRange("share_of_contacts", iv.ShareOfContacts); err != nil {
			return err
		}
	case VaccinateType:
		if iv.WeeklyAmount < 0 {
			return fmt.Errorf(InvalidIntParameterError, "weekly_amount", iv.WeeklyAmount, "must not be negative")
		}
	case ImportInfectionsType:
		if iv.Amount < 0 {
			return fmt.Errorf(InvalidIntParameterError, "amount", iv.Amount, "must not be negative")
		}
		if disease.VariantIndex(iv.Variant) < 0 {
			return fmt.Errorf(InvalidStringParameterError, "variant", iv.Variant, "not a configured variant")
		}
	case ImportInfectionsWeeklyType:
		if iv.WeeklyAmount < 0 {
			return fmt.Errorf(InvalidIntParameterError, "weekly_amount", iv.WeeklyAmount, "must not be negative")
		}
		for name, share := range iv.VariantShares {
			if disease.VariantIndex(name) < 0 {
				return fmt.Errorf(InvalidStringParameterError, "variant", name, "not a configured variant")
			}
			if err := percentInRange("variant share", share); err != nil {
				return err
			}
		}
	case BuildNewHospitalBedsType:
		if iv.Beds < 0 {
			return fmt.Errorf(InvalidIntParameterError, "beds", iv.Beds, "must not be negative")
		}
	case BuildNewICUUnitsType:
		if iv.Units < 0 {
			return fmt.Errorf(InvalidIntParameterError, "units", iv.Units, "must not be negative")
		}
	default:
		return fmt.Errorf(UnrecognizedKeywordError, iv.Type, "intervention type")
	}
	return nil
}

// resolveDay converts the ISO date into a day offset from the start
// date. Interventions dated before the start apply on day zero.
func (iv *Intervention) resolveDay(start time.Time) error {
	d, err := time.Parse("2006-01-02", iv.Date)
	if err != nil {
		return errors.Wrapf(err, "invalid date for %s intervention", iv.Type)
	}
	iv.day = int(d.Sub(start).Hours() / 24)
	if iv.day < 0 {
		iv.day = 0
	}
	return nil
}

// ageRange returns the effective age range, expanding the zero MaxAge
// convention.
func (iv *Intervention) ageRange(maxAge int) (int, int) {
	hi := iv.MaxAge
	if hi == 0 {
		hi = maxAge
	}
	return iv.MinAge, hi
}

// apply mutates the context according to the intervention variant. The
// intervention has been validated when it was added, so an unknown type
// here is an internal bug.
func (iv *Intervention) apply(ctx *Context) error {
	switch iv.Type {
	case TestAllWithSymptomsType:
		return ctx.healthcare.SetTestingMode(AllSymptomsTestingMode, 0)
	case TestOnlySevereSymptomsType:
		return ctx.healthcare.SetTestingMode(SevereOnlyTestingMode, float64(iv.MildDetectionRate)/100)
	case TestWithContactTracingType:
		return ctx.healthcare.SetTestingMode(ContactTracingTestingMode, float64(iv.Efficiency)/100)
	case LimitMobilityType:
		factor := float64(100-iv.Reduction) / 100
		if iv.MinAge == 0 && iv.MaxAge == 0 && iv.Place == "" {
			// An unrestricted limit sets the absolute global level so
			// a scenario timeline can tighten it step by step.
			ctx.pop.SetMobilityFactor(factor)
			return nil
		}
		lo, hi := iv.ageRange(ctx.pop.MaxAge())
		place := -1
		if iv.Place != "" {
			place, _ = ParsePlace(iv.Place)
		}
		ctx.pop.LimitMobility(factor, lo, hi, place)
		return nil
	case WearMasksType:
		lo, hi := iv.ageRange(ctx.pop.MaxAge())
		place := -1
		if iv.Place != "" {
			place, _ = ParsePlace(iv.Place)
		}
		ctx.pop.SetMaskShare(float64(iv.ShareOfContacts)/100, lo, hi, place)
		return nil
	case ImportInfectionsType:
		variant := ctx.disease.VariantIndex(iv.Variant)
		ctx.ImportInfections(iv.Amount, uint8(variant))
		return nil
	case ImportInfectionsWeeklyType:
		ctx.importProgram = newImportProgram(ctx, iv)
		return nil
	case VaccinateType:
		lo, hi := iv.ageRange(ctx.pop.MaxAge())
		ctx.vaccinationProgram = &vaccinationProgram{
			weeklyAmount: iv.WeeklyAmount,
			minAge:       lo,
			maxAge:       hi,
			startDay:     ctx.day,
		}
		return nil
	case BuildNewHospitalBedsType:
		ctx.healthcare.AddBeds(iv.Beds)
		return nil
	case BuildNewICUUnitsType:
		ctx.healthcare.AddICUUnits(iv.Units)
		return nil
	}
	return fmt.Errorf(UnrecognizedKeywordError, iv.Type, "intervention type")
}

// weeklyShare splits a weekly amount over seven days: the remainder goes
// to the first days of each program week.
func weeklyShare(weekly, dayInProgram int) int {
	amount := weekly / 7
	if dayInProgram%7 < weekly%7 {
		amount++
	}
	return amount
}

// vaccinationProgram is the ongoing weekly vaccination installed by a
// vaccinate intervention. It persists until replaced.
type vaccinationProgram struct {
	weeklyAmount int
	minAge       int
	maxAge       int
	startDay     int
}

func (vp *vaccinationProgram) runDay(ctx *Context) {
	amount := weeklyShare(vp.weeklyAmount, ctx.day-vp.startDay)
	ctx.pop.Vaccinate(ctx.rnd, vp.minAge, vp.maxAge, amount)
}

// importProgram is the ongoing weekly infection import installed by an
// import-infections-weekly intervention. Variant shares weight the
// strain of every imported case.
type importProgram struct {
	weeklyAmount   int
	startDay       int
	variantIndexes []int
	variantWeights []float64
}

func newImportProgram(ctx *Context, iv *Intervention) *importProgram {
	ip := &importProgram{weeklyAmount: iv.WeeklyAmount, startDay: ctx.day}
	// Walk the configured variant table rather than the share map so the
	// weight order, and with it the random stream, is deterministic.
	for i, v := range ctx.disease.Variants {
		share, ok := iv.VariantShares[v.Name]
		if !ok {
			continue
		}
		ip.variantIndexes = append(ip.variantIndexes, i)
		ip.variantWeights = append(ip.variantWeights, float64(share))
	}
	if len(ip.variantIndexes) == 0 {
		ip.variantIndexes = []int{0}
		ip.variantWeights = []float64{1}
	}
	return ip
}

func (ip *importProgram) runDay(ctx *Context) {
	amount := weeklyShare(ip.weeklyAmount, ctx.day-ip.startDay)
	for i := 0; i < amount; i++ {
		variant := ip.variantIndexes[ctx.rnd.WeightedChoice(ip.variantWeights)]
		ctx.ImportInfections(1, uint8(variant))
	}
}
