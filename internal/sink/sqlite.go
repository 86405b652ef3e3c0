// internal/sink/sqlite.go
package sink

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinc-core/table"

	_ "modernc.org/sqlite"
)

func init() {
	Register(FormatSQLite, openSQLite)
}

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	input TEXT,
	table_name TEXT NOT NULL,
	window_ps INTEGER NOT NULL,
	illegal_flags TEXT,
	row_count INTEGER NOT NULL
);`

// sqliteSink stores each table as a SQL table and logs one runs row per
// table written.
type sqliteSink struct {
	path, tmp string
	db        *sql.DB
	run       RunInfo
	err       error
}

func openSQLite(path string, opt Options) (Sink, error) {
	if path == Stdout {
		return nil, errors.New("sqlite output needs a file path")
	}
	tmp := tempPath(path)
	db, err := openDB(tmp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		_ = commit(tmp, path, err)
		return nil, fmt.Errorf("%s: create runs table: %w", path, err)
	}
	return &sqliteSink{path: path, tmp: tmp, db: db, run: opt.Run}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// quoteIdent quotes a SQL identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (s *sqliteSink) Write(name string, cols []table.Column) error {
	if s.err != nil {
		return s.err
	}
	if err := s.writeTable(name, cols); err != nil {
		s.err = fmt.Errorf("%s: table %q: %w", s.path, name, err)
	}
	return s.err
}

func (s *sqliteSink) writeTable(name string, cols []table.Column) error {
	n, err := checkColumns(cols)
	if err != nil {
		return err
	}
	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		typ := "INTEGER"
		if c.IsFloat() {
			typ = "REAL"
		}
		names[i] = quoteIdent(c.Name)
		defs[i] = names[i] + " " + typ + " NOT NULL"
		marks[i] = "?"
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for r := 0; r < n; r++ {
		for i, c := range cols {
			if c.IsFloat() {
				args[i] = c.Floats[r]
			} else {
				args[i] = c.Ints[r]
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}

	id, err := s.runID(tx, name)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO runs (id, created_at, input, table_name, window_ps, illegal_flags, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, s.run.Started.UTC().Format(time.RFC3339), s.run.Input, name,
		int64(s.run.Window), s.run.IllegalFlags, n)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return tx.Commit()
}

// runID keys the runs row; extra tables of the same run get a suffix.
func (s *sqliteSink) runID(tx *sql.Tx, name string) (string, error) {
	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM runs WHERE id = ?`, s.run.ID).Scan(&exists); err != nil {
		return "", err
	}
	if exists == 0 {
		return s.run.ID, nil
	}
	return s.run.ID + "/" + name, nil
}

func (s *sqliteSink) Close() error {
	err := s.err
	if cerr := s.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return commit(s.tmp, s.path, err)
}

// readSQLite loads the five coincidence columns of a table in insertion order.
func readSQLite(path, name string) (*table.Table, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer db.Close()

	quoted := make([]string, len(table.Names))
	for i, nm := range table.Names {
		quoted[i] = quoteIdent(nm)
	}
	rows, err := db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid",
		strings.Join(quoted, ", "), quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("%s: table %q: %w", path, name, err)
	}
	defer rows.Close()

	t := table.New(0)
	for rows.Next() {
		var r table.Row
		if err := rows.Scan(&r.ChannelA, &r.ChannelB, &r.EnergyA, &r.EnergyB, &r.TimeDifference); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		t.Append(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t.Finalize(), nil
}
