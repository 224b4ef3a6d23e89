package printers

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/tcpping/tcpping/attempt"
	"github.com/tcpping/tcpping/option"
)

const (
	dataTableSchema = `CREATE TABLE %s (
    id INTEGER PRIMARY KEY,
    seq INTEGER NOT NULL,
    timestamp DATETIME NOT NULL,
    outcome TEXT NOT NULL, -- connected, connect failed, socket failed, bind failed
    hostname TEXT,
    ip_address TEXT NOT NULL,
    port INTEGER NOT NULL,
    source_addr TEXT,
    latency REAL, -- NULL unless connected
    error TEXT,

    payload_sent INTEGER,
    payload_received INTEGER,
    payload_response TEXT,
    payload_error TEXT
	);`

	attemptSaveSchema = `INSERT INTO %s (
	seq,
	timestamp,
	outcome,
	hostname,
	ip_address,
	port,
	source_addr,
	latency,
	error,
	payload_sent,
	payload_received,
	payload_response,
	payload_error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

// DatabasePrinter represents a SQLite database connection for storing probe results.
// Every attempt becomes one row in a table created for this run.
type DatabasePrinter struct {
	Conn      *sqlite.Conn
	DbPath    string
	TableName string
	opt       options
}

type DatabasePrinterOption = option.Option[DatabasePrinter]

func (p *DatabasePrinter) options() *options {
	return &p.opt
}

// NewDatabasePrinter opens (or creates) the database at dbPath and creates
// the data table for this run.
func NewDatabasePrinter(target, port, dbPath string, opts ...DatabasePrinterOption) (*DatabasePrinter, error) {
	filename := addDbExtension(dbPath)

	conn, err := sqlite.OpenConn(filename, sqlite.OpenCreate, sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("create database %q: %w", filename, err)
	}

	tableName := sanitizeTableName(target, port, time.Now())
	tableSchema := fmt.Sprintf(dataTableSchema, tableName)

	if err := sqlitex.Execute(conn, tableSchema, &sqlitex.ExecOptions{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create data table: %w", err)
	}

	return option.Apply(&DatabasePrinter{
		Conn:      conn,
		DbPath:    filename,
		TableName: tableName,
	}, opts...), nil
}

func addDbExtension(filename string) string {
	if strings.HasSuffix(filename, ".db") {
		return filename
	}

	return filename + ".db"
}

// sanitizeTableName will return the sanitized and correctly formatted table name
// formatting the table name as "example_com_port__year_month_day_hour_minute_sec".
// Every rune outside [A-Za-z0-9_] becomes '_' and the name can't start with a number.
func sanitizeTableName(hostname, port string, now time.Time) string {
	tableName := strings.Map(identifierRune, fmt.Sprintf("%s_%s__%s",
		hostname,
		port,
		now.Format(time.DateTime),
	))

	if tableName[0] >= '0' && tableName[0] <= '9' {
		tableName = "_" + tableName
	}

	return tableName
}

func identifierRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return r
	default:
		return '_'
	}
}

// PrintStart prints where the results are saved.
func (db *DatabasePrinter) PrintStart(_ string, target netip.AddrPort) {
	fmt.Printf("%s - saving results to: %s\n", startMessage(target), db.DbPath)
}

func (db *DatabasePrinter) saveAttempt(a *attempt.Attempt) error {
	var latency, sent, received, response, payloadErr any
	if a.Succeeded() {
		latency = a.LatencyMs()
	}

	if pl := a.Payload; pl != nil {
		sent = pl.Sent
		if pl.Failed() {
			payloadErr = pl.Err.Error()
		} else {
			received = len(pl.Received)
			response = pl.Text()
		}
	}

	var sourceAddr any
	if db.opt.ShowSourceAddress {
		sourceAddr = a.SourceAddr()
	}

	args := []any{
		a.Seq,
		a.StartTimeFormatted(),
		a.Outcome.String(),
		a.Hostname,
		a.Target.Addr().String(),
		a.Target.Port(),
		sourceAddr,
		latency,
		a.ErrStr(),
		sent,
		received,
		response,
		payloadErr,
	}

	return sqlitex.Execute(
		db.Conn,
		fmt.Sprintf(attemptSaveSchema, db.TableName),
		&sqlitex.ExecOptions{Args: args},
	)
}

func (db *DatabasePrinter) save(a *attempt.Attempt) {
	if err := db.saveAttempt(a); err != nil {
		db.PrintError("Error while writing attempt %d to the database %q: %s", a.Seq, db.DbPath, err)
	}
}

// PrintProbeSuccess saves a successful attempt, including its payload exchange.
func (db *DatabasePrinter) PrintProbeSuccess(a *attempt.Attempt) {
	db.save(a)
}

// PrintProbeFailure saves a failed attempt.
func (db *DatabasePrinter) PrintProbeFailure(a *attempt.Attempt) {
	db.save(a)
}

// PrintPayload satisfies the "printer" interface but does nothing in this implementation
func (db *DatabasePrinter) PrintPayload(*attempt.Attempt) {}

// PrintError prints an error message to stderr.
func (db *DatabasePrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Done closes the database connection.
func (db *DatabasePrinter) Done() error {
	if db.Conn == nil {
		return nil
	}
	return db.Conn.Close()
}
