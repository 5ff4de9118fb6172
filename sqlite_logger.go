package reina

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLogger is a DataLogger that writes simulation output to SQLite
// databases. Each writer function writes to an independent SQLite
// database so the writers never contend for one file lock.
type SQLiteLogger struct {
	dayPath       string
	ageGroupPath  string
	infectionPath string
	instanceID    int
}

// NewSQLiteLogger creates a new logger that writes to SQLite databases.
func NewSQLiteLogger(basepath string, i int) *SQLiteLogger {
	l := new(SQLiteLogger)
	l.SetBasePath(basepath, i)
	return l
}

// SetBasePath sets the base path of the logger.
func (l *SQLiteLogger) SetBasePath(basepath string, i int) {
	if info, err := os.Stat(basepath); err == nil && info.IsDir() {
		basepath += fmt.Sprintf("log.%03d", i)
	}
	l.dayPath = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%s.db", "day")
	l.ageGroupPath = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%s.db", "ag")
	l.infectionPath = strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%s.db", "inf")

	l.instanceID = i
}

// Init creates the tables in the databases. Each instance of the
// simulation gets its own set of tables.
func (l *SQLiteLogger) Init() error {
	newTable := func(path, tableName, cols string) error {
		db, err := OpenSQLiteDBOptimized(path)
		if err != nil {
			return err
		}
		defer db.Close()
		_sqlStmt := `
	create table %s %s;
	delete from %s;
	`
		fullTableName := fmt.Sprintf("%s%03d", tableName, l.instanceID)
		sqlStmt := fmt.Sprintf(_sqlStmt, fullTableName, cols, fullTableName)
		_, err = db.Exec(sqlStmt)
		if err != nil {
			return fmt.Errorf("%q: %s", err, sqlStmt)
		}
		return nil
	}

	err := newTable(l.dayPath, "DayState", "(id integer not null primary key, run text, day int, attr text, value real)")
	if err != nil {
		return err
	}
	err = newTable(l.ageGroupPath, "AgeGroupState", "(id integer not null primary key, run text, day int, attr text, ageGroup text, value int)")
	if err != nil {
		return err
	}
	err = newTable(l.infectionPath, "Infection", "(id integer not null primary key, run text, day int, sourceID int, targetID int, place text, variant int)")
	if err != nil {
		return err
	}
	return nil
}

// WriteDayStates records per-day aggregate attribute values.
func (l *SQLiteLogger) WriteDayStates(c <-chan DayStatePackage) {
	tableName := fmt.Sprintf("DayState%03d", l.instanceID)
	path := l.dayPath
	_stmt := "insert into " + tableName + "(run, day, attr, value) values(?, ?, ?, ?)"
	db, err := OpenSQLiteDBOptimized(path)
	if err != nil {
		log.Fatal(err)
		return
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		log.Fatal(err)
		return
	}
	stmt, err := tx.Prepare(_stmt)
	if err != nil {
		log.Fatal(err)
		return
	}
	defer stmt.Close()
	for pack := range c {
		_, err = stmt.Exec(
			pack.runID.String(),
			pack.day,
			pack.attr,
			pack.value,
		)
		if err != nil {
			log.Fatal(err)
			return
		}
	}
	tx.Commit()
}

// WriteAgeGroupStates records the per-age-group attribute breakdown.
func (l *SQLiteLogger) WriteAgeGroupStates(c <-chan AgeGroupPackage) {
	tableName := fmt.Sprintf("AgeGroupState%03d", l.instanceID)
	path := l.ageGroupPath
	_stmt := "insert into " + tableName + "(run, day, attr, ageGroup, value) values(?, ?, ?, ?, ?)"
	db, err := OpenSQLiteDBOptimized(path)
	if err != nil {
		log.Fatal(err)
		return
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		log.Fatal(err)
		return
	}
	stmt, err := tx.Prepare(_stmt)
	if err != nil {
		log.Fatal(err)
		return
	}
	defer stmt.Close()
	for pack := range c {
		_, err = stmt.Exec(
			pack.runID.String(),
			pack.day,
			pack.attr,
			pack.group,
			pack.value,
		)
		if err != nil {
			log.Fatal(err)
			return
		}
	}
	tx.Commit()
}

// WriteInfections records individual infection edges.
func (l *SQLiteLogger) WriteInfections(c <-chan InfectionPackage) {
	tableName := fmt.Sprintf("Infection%03d", l.instanceID)
	path := l.infectionPath
	_stmt := "insert into " + tableName + "(run, day, sourceID, targetID, place, variant) values(?, ?, ?, ?, ?, ?)"
	db, err := OpenSQLiteDBOptimized(path)
	if err != nil {
		log.Fatal(err)
		return
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		log.Fatal(err)
		return
	}
	stmt, err := tx.Prepare(_stmt)
	if err != nil {
		log.Fatal(err)
		return
	}
	defer stmt.Close()
	for pack := range c {
		_, err = stmt.Exec(
			pack.runID.String(),
			pack.day,
			pack.sourceID,
			pack.targetID,
			ContactPlaceNames[pack.place],
			pack.variant,
		)
		if err != nil {
			log.Fatal(err)
			return
		}
	}
	tx.Commit()
}

// OpenSQLiteDBOptimized establishes a database connection using WAL
// and exclusive locking.
func OpenSQLiteDBOptimized(path string) (*sql.DB, error) {
	return OpenSQLiteDB(path, "?_journal=WAL&_locking=EXCLUSIVE&_sync=NORMAL")
}

// OpenSQLiteDB establishes a database connection using the given
// connection string.
func OpenSQLiteDB(path, connectionString string) (*sql.DB, error) {
	dsn := "file:%s%s"
	db, err := sql.Open("sqlite3", fmt.Sprintf(dsn, path, connectionString))
	if err != nil {
		return nil, err
	}
	return db, nil
}
