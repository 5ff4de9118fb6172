package reina

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "writing temp file", err)
	}
	return path
}

func TestParseAgeRange(t *testing.T) {
	lo, hi, err := parseAgeRange("25-29")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing age range", err)
	}
	if lo != 25 || hi != 29 {
		t.Errorf("parsed wrong bounds: %d-%d", lo, hi)
	}
	lo, hi, err = parseAgeRange("80")
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing single age", err)
	}
	if lo != 80 || hi != 80 {
		t.Errorf("parsed wrong bounds for single age: %d-%d", lo, hi)
	}
	for _, bad := range []string{"", "abc", "30-20", "-5-10"} {
		if _, _, err := parseAgeRange(bad); err == nil {
			t.Errorf(ExpectedErrorWhileError, "parsing age range "+bad)
		}
	}
}

func TestLoadAgeStructure(t *testing.T) {
	path := writeTempFile(t, "ages.csv", `
# test population
0-9,100
10-19,205
80,7
`)
	structure, err := LoadAgeStructure(path)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "loading age structure", err)
	}
	if len(structure) != 81 {
		t.Fatalf(UnequalIntParameterError, "age structure length", 81, len(structure))
	}
	if structure[0] != 10 || structure[9] != 10 {
		t.Errorf("bracket count not spread evenly: %d, %d", structure[0], structure[9])
	}
	// 205 over ten ages: the remainder lands on the youngest five.
	if structure[10] != 21 || structure[14] != 21 || structure[15] != 20 {
		t.Errorf("remainder not assigned to the youngest ages: %d, %d, %d",
			structure[10], structure[14], structure[15])
	}
	if structure[80] != 7 {
		t.Errorf(UnequalIntParameterError, "single age count", 7, structure[80])
	}

	total := 0
	for _, n := range structure {
		total += n
	}
	if total != 312 {
		t.Errorf(UnequalIntParameterError, "total population", 312, total)
	}
}

func TestLoadAgeStructure_Errors(t *testing.T) {
	path := writeTempFile(t, "bad.csv", "0-9\n")
	if _, err := LoadAgeStructure(path); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a malformed age structure")
	}
	path = writeTempFile(t, "empty.csv", "# nothing\n")
	if _, err := LoadAgeStructure(path); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading an empty age structure")
	}
	if _, err := LoadAgeStructure(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a missing file")
	}
}

func TestLoadContactMatrix(t *testing.T) {
	path := writeTempFile(t, "contacts.csv", `
# place,participant,contact,contacts
home,0-4,0-4,0.48
home,0-4,5-9,0.33
work,25-29,25-29,1.21
`)
	rows, err := LoadContactMatrix(path)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "loading contact matrix", err)
	}
	if len(rows) != 3 {
		t.Fatalf(UnequalIntParameterError, "contact rows", 3, len(rows))
	}
	if rows[0].Place != "home" || rows[0].ParticipantLo != 0 || rows[0].ParticipantHi != 4 {
		t.Errorf("first row parsed wrong: %+v", rows[0])
	}
	if rows[2].Contacts != 1.21 {
		t.Errorf(UnequalFloatParameterError, "work contacts", 1.21, rows[2].Contacts)
	}
}

func TestLoadContactMatrix_Errors(t *testing.T) {
	path := writeTempFile(t, "bad.csv", "castle,0-4,0-4,0.48\n")
	if _, err := LoadContactMatrix(path); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a contact matrix with an unknown place")
	}
	path = writeTempFile(t, "short.csv", "home,0-4\n")
	if _, err := LoadContactMatrix(path); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a contact matrix with missing fields")
	}
	path = writeTempFile(t, "negative.csv", "home,0-4,0-4,-1\n")
	if _, err := LoadContactMatrix(path); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a contact matrix with negative contacts")
	}
}
