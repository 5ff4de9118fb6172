package reina

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/segmentio/ksuid"
)

// DataLogger is the general definition of a logger that records
// simulation output whether it writes text files or a database.
type DataLogger interface {
	// SetBasePath sets the base path of the logger for instance i.
	SetBasePath(path string, i int)
	// Init initializes the logger. For example, if the logger writes
	// CSV files, Init can create the files and write header rows. Or if
	// the logger writes to a database, Init can create the tables.
	Init() error
	// WriteDayStates records the per-day aggregate attributes.
	WriteDayStates(c <-chan DayStatePackage)
	// WriteAgeGroupStates records the per-day, per-age-group breakdown
	// of the population attributes.
	WriteAgeGroupStates(c <-chan AgeGroupPackage)
	// WriteInfections records individual infection edges when
	// transmission logging is enabled.
	WriteInfections(c <-chan InfectionPackage)
}

// DayStatePackage encapsulates one aggregate attribute value of one
// simulated day.
type DayStatePackage struct {
	runID      ksuid.KSUID
	instanceID int
	day        int
	attr       string
	value      float64
}

// AgeGroupPackage encapsulates one population attribute value for one
// age group on one simulated day.
type AgeGroupPackage struct {
	runID      ksuid.KSUID
	instanceID int
	day        int
	attr       string
	group      string
	value      int
}

// InfectionPackage encapsulates one infection edge for the transmission
// log.
type InfectionPackage struct {
	runID      ksuid.KSUID
	instanceID int
	day        int
	sourceID   int32
	targetID   int32
	place      int
	variant    int
}

// CSVLogger is a DataLogger that writes simulation output as
// comma-delimited files.
type CSVLogger struct {
	dayPath       string
	ageGroupPath  string
	infectionPath string
}

// NewCSVLogger creates a new logger that writes data into CSV files.
func NewCSVLogger(basepath string, i int) *CSVLogger {
	l := new(CSVLogger)
	l.SetBasePath(basepath, i)
	return l
}

// SetBasePath sets the base path of the logger.
func (l *CSVLogger) SetBasePath(basepath string, i int) {
	if info, err := os.Stat(basepath); err == nil && info.IsDir() {
		basepath += "log"
	}
	l.dayPath = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%03d.%s.csv", i, "day")
	l.ageGroupPath = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%03d.%s.csv", i, "ag")
	l.infectionPath = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%03d.%s.csv", i, "inf")
}

// Init creates the CSV files and writes header information for each.
func (l *CSVLogger) Init() error {
	newFile := func(path, header string) error {
		var b bytes.Buffer
		_, err := b.WriteString(header)
		if err != nil {
			return err
		}
		return NewFile(path, b.Bytes())
	}
	err := newFile(l.dayPath, "run,instance,day,attr,value\n")
	if err != nil {
		return err
	}
	err = newFile(l.ageGroupPath, "run,instance,day,attr,age_group,value\n")
	if err != nil {
		return err
	}
	err = newFile(l.infectionPath, "run,instance,day,sourceID,targetID,place,variant\n")
	if err != nil {
		return err
	}
	return nil
}

// WriteDayStates records per-day aggregate attribute values.
func (l *CSVLogger) WriteDayStates(c <-chan DayStatePackage) {
	// Format
	// <runID>  <instance>  <day>  <attr>  <value>
	const template = "%s,%d,%d,%s,%g\n"
	var b bytes.Buffer
	for pack := range c {
		row := fmt.Sprintf(template,
			pack.runID.String(),
			pack.instanceID,
			pack.day,
			pack.attr,
			pack.value,
		)
		b.WriteString(row)
	}
	AppendToFile(l.dayPath, b.Bytes())
}

// WriteAgeGroupStates records the per-age-group attribute breakdown.
func (l *CSVLogger) WriteAgeGroupStates(c <-chan AgeGroupPackage) {
	// Format
	// <runID>  <instance>  <day>  <attr>  <ageGroup>  <value>
	const template = "%s,%d,%d,%s,%s,%d\n"
	var b bytes.Buffer
	for pack := range c {
		row := fmt.Sprintf(template,
			pack.runID.String(),
			pack.instanceID,
			pack.day,
			pack.attr,
			pack.group,
			pack.value,
		)
		b.WriteString(row)
	}
	AppendToFile(l.ageGroupPath, b.Bytes())
}

// WriteInfections records individual infection edges.
func (l *CSVLogger) WriteInfections(c <-chan InfectionPackage) {
	// Format
	// <runID>  <instance>  <day>  <sourceID>  <targetID>  <place>  <variant>
	const template = "%s,%d,%d,%d,%d,%s,%d\n"
	var b bytes.Buffer
	for pack := range c {
		row := fmt.Sprintf(template,
			pack.runID.String(),
			pack.instanceID,
			pack.day,
			pack.sourceID,
			pack.targetID,
			ContactPlaceNames[pack.place],
			pack.variant,
		)
		b.WriteString(row)
	}
	if b.Len() > 0 {
		AppendToFile(l.infectionPath, b.Bytes())
	}
}

// NewFile creates a new file on the given path if it does not exist.
// Returns an error if the file exists.
func NewFile(path string, b []byte) error {
	if exists, _ := Exists(path); exists {
		return fmt.Errorf("%s already exists", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(b)
	if err != nil {
		return err
	}
	return f.Sync()
}

// AppendToFile creates a new file on the given path if it does not
// exist, or appends to the end of the existing file if the file exists.
func AppendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(b)
	if err != nil {
		return err
	}
	return f.Sync()
}

// Exists reports whether a path exists on the filesystem.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
