package reina

import "github.com/pkg/errors"

const (
	// InvalidFloatParameterError is the message printed when a float
	// parameter is outside its valid range.
	InvalidFloatParameterError = "invalid %s %f, %s"

	// InvalidIntParameterError is the message printed when an integer
	// parameter is outside its valid range.
	InvalidIntParameterError = "invalid %s %d, %s"

	// InvalidStringParameterError is the message printed when a string
	// parameter has an unexpected value.
	InvalidStringParameterError = "invalid %s %s, %s"

	// UnrecognizedKeywordError is the message printed when a keyword
	// is not in the list of valid keywords.
	UnrecognizedKeywordError = "%s is not a valid %s"

	// FileParsingError is the message printed when an input file cannot
	// be parsed.
	FileParsingError = "error parsing line %d: %s"

	// IntKeyNotFoundError is the message for "integer key not found" errors.
	IntKeyNotFoundError = "key %d not found"
)

// The following are test error message formats.
const (
	UnequalFloatParameterError  = "expected %s %f, instead got %f"
	UnequalIntParameterError    = "expected %s %d, instead got %d"
	UnequalStringParameterError = "expected %s %s, instead got %s"
	EqualIntParameterError      = "expected %s to change from %d, instead got %d"
	UnexpectedErrorWhileError   = "encountered error while %s: %s"
	ExpectedErrorWhileError     = "expected an error while %s, instead got none"
)

// ErrSimulationInterrupted is returned by Simulation.Run when the step
// callback requests cancellation. Snapshots accumulated up to the last
// completed day remain valid.
var ErrSimulationInterrupted = errors.New("simulation execution interrupted")
