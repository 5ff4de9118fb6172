package reina

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// parseAgeRange parses an age range of the form "25-29" or a single age
// "80" into inclusive bounds.
func parseAgeRange(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf(InvalidStringParameterError, "age range", s, "must not be empty")
	}
	parts := strings.SplitN(s, "-", 2)
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf(InvalidStringParameterError, "age range", s, "ages must be integers")
	}
	hi := lo
	if len(parts) == 2 {
		hi, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf(InvalidStringParameterError, "age range", s, "ages must be integers")
		}
	}
	if lo < 0 || hi < lo {
		return 0, 0, fmt.Errorf(InvalidStringParameterError, "age range", s, "bounds must be ascending and non-negative")
	}
	return lo, hi, nil
}

// LoadAgeStructure parses the age structure encoded in the text file at
// the given path.
func LoadAgeStructure(path string) ([]int, error) {
	/*
		Format:

		# This is a comment
		# Lines are <age or age range>,<count>
		0-9,58000
		10-19,61000
		...
		90-100,9000

		A range's count is spread evenly over its ages, remainder to the
		youngest ages.
	*/
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type bracket struct {
		lo, hi, count int
	}
	var brackets []bracket
	maxAge := 0
	lineNum := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf(FileParsingError, lineNum, "expected <ages>,<count>")
		}
		lo, hi, err := parseAgeRange(fields[0])
		if err != nil {
			return nil, fmt.Errorf(FileParsingError, lineNum, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || count < 0 {
			return nil, fmt.Errorf(FileParsingError, lineNum, "count must be a non-negative integer")
		}
		brackets = append(brackets, bracket{lo: lo, hi: hi, count: count})
		if hi > maxAge {
			maxAge = hi
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(brackets) == 0 {
		return nil, fmt.Errorf(InvalidStringParameterError, "age structure file", path, "contains no data rows")
	}
	out := make([]int, maxAge+1)
	for _, b := range brackets {
		span := b.hi - b.lo + 1
		for age := b.lo; age <= b.hi; age++ {
			out[age] += b.count / span
			if age-b.lo < b.count%span {
				out[age]++
			}
		}
	}
	return out, nil
}

// LoadContactMatrix parses the contact matrix encoded in the text file
// at the given path.
func LoadContactMatrix(path string) ([]ContactRow, error) {
	/*
		Format:

		# This is a comment
		# Lines are <place>,<participant ages>,<contact ages>,<contacts>
		home,0-4,0-4,0.48
		home,0-4,5-9,0.33
		work,25-29,25-29,1.21
		...

		The participant age range expands to one engine row per single
		year of age.
	*/
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []ContactRow
	lineNum := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf(FileParsingError, lineNum, "expected <place>,<participant ages>,<contact ages>,<contacts>")
		}
		place := strings.TrimSpace(fields[0])
		if _, err := ParsePlace(place); err != nil {
			return nil, fmt.Errorf(FileParsingError, lineNum, err)
		}
		pLo, pHi, err := parseAgeRange(fields[1])
		if err != nil {
			return nil, fmt.Errorf(FileParsingError, lineNum, err)
		}
		cLo, cHi, err := parseAgeRange(fields[2])
		if err != nil {
			return nil, fmt.Errorf(FileParsingError, lineNum, err)
		}
		contacts, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil || contacts < 0 {
			return nil, fmt.Errorf(FileParsingError, lineNum, "contacts must be a non-negative number")
		}
		rows = append(rows, ContactRow{
			Place:         place,
			ParticipantLo: pLo,
			ParticipantHi: pHi,
			ContactLo:     cLo,
			ContactHi:     cHi,
			Contacts:      contacts,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf(InvalidStringParameterError, "contact matrix file", path, "contains no data rows")
	}
	return rows, nil
}
