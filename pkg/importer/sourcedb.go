package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnknownSource is returned for an adapter ID absent from the source table.
var ErrUnknownSource = errors.New("unknown source")

// Source is the persisted state of one synonym source.
type Source struct {
	AdapterID   string
	DictID      string
	Description string
	SourceURL   string
	License     string

	LastCheck  time.Time // zero until the checker first reached the source
	LastStatus int       // HTTP-style status of the last check, 0 on network error
	LastError  string

	LastImport  time.Time // zero until a successful import
	LastRecords int
	UpdatedAt   time.Time
}

// Imported reports whether the source was ever imported.
func (s Source) Imported() bool { return !s.LastImport.IsZero() }

// SourceDB keeps the dict_sources SQLite table: one row per adapter holding
// its (overridable) URL and the outcome of the last check and import.
type SourceDB struct {
	db *sql.DB
}

const sourcesDDL = `CREATE TABLE IF NOT EXISTS dict_sources (
	adapter_id   TEXT PRIMARY KEY,
	dict_id      TEXT NOT NULL,
	description  TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	license      TEXT NOT NULL DEFAULT '',
	last_check   INTEGER,
	last_status  INTEGER,
	last_error   TEXT,
	last_import  INTEGER,
	last_records INTEGER,
	updated_at   INTEGER NOT NULL
)`

const sourceColumns = `adapter_id, dict_id, description, source_url, license,
	last_check, last_status, last_error, last_import, last_records, updated_at`

// OpenSourceDB opens (or creates) the SQLite database at path.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}
	if _, err := db.Exec(sourcesDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create dict_sources: %w", err)
	}
	return &SourceDB{db: db}, nil
}

func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts a row per adapter. Existing rows are left alone so URL
// overrides survive restarts.
func (s *SourceDB) Seed(adapters []Adapter) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, a := range adapters {
		_, err := tx.Exec(`INSERT OR IGNORE INTO dict_sources
			(adapter_id, dict_id, description, source_url, license, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID(), a.DictID(), a.Description(), a.DefaultURL(), a.License(), now)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.ID(), err)
		}
	}
	return tx.Commit()
}

// GetURL returns the URL an import of adapterID should fetch.
func (s *SourceDB) GetURL(adapterID string) (string, error) {
	src, err := s.Get(adapterID)
	if err != nil {
		return "", err
	}
	return src.SourceURL, nil
}

// SetURL overrides the URL of adapterID.
func (s *SourceDB) SetURL(adapterID, url string) error {
	return s.update(adapterID, `source_url = ?, updated_at = ?`, url, time.Now().Unix())
}

// UpdateCheck stores the result of an availability check.
func (s *SourceDB) UpdateCheck(adapterID string, status int, checkErr string) error {
	return s.update(adapterID, `last_check = ?, last_status = ?, last_error = ?`,
		time.Now().Unix(), status, sql.NullString{String: checkErr, Valid: checkErr != ""})
}

// RecordImport stores the outcome of a successful import.
func (s *SourceDB) RecordImport(adapterID string, records int) error {
	return s.update(adapterID, `last_import = ?, last_records = ?`, time.Now().Unix(), records)
}

func (s *SourceDB) update(adapterID, set string, args ...any) error {
	res, err := s.db.Exec(`UPDATE dict_sources SET `+set+` WHERE adapter_id = ?`, append(args, adapterID)...)
	if err != nil {
		return fmt.Errorf("update source %s: %w", adapterID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSource, adapterID)
	}
	return nil
}

// Get returns the row of adapterID.
func (s *SourceDB) Get(adapterID string) (Source, error) {
	row := s.db.QueryRow(`SELECT `+sourceColumns+` FROM dict_sources WHERE adapter_id = ?`, adapterID)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("%w: %s", ErrUnknownSource, adapterID)
	}
	return src, err
}

// ListSources returns every row ordered by adapter ID.
func (s *SourceDB) ListSources() ([]Source, error) {
	return s.query(`SELECT ` + sourceColumns + ` FROM dict_sources ORDER BY adapter_id`)
}

// Stale returns the sources never imported or last imported before
// now-maxAge, ordered by adapter ID.
func (s *SourceDB) Stale(maxAge time.Duration) ([]Source, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	return s.query(`SELECT `+sourceColumns+` FROM dict_sources
		WHERE last_import IS NULL OR last_import < ? ORDER BY adapter_id`, cutoff)
}

func (s *SourceDB) query(q string, args ...any) ([]Source, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(sc scanner) (Source, error) {
	var (
		src             Source
		check, imported sql.NullInt64
		status, records sql.NullInt64
		lastErr         sql.NullString
		updated         int64
	)
	err := sc.Scan(&src.AdapterID, &src.DictID, &src.Description, &src.SourceURL, &src.License,
		&check, &status, &lastErr, &imported, &records, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return src, err
		}
		return src, fmt.Errorf("scan source: %w", err)
	}
	src.LastCheck = unixOrZero(check)
	src.LastStatus = int(status.Int64)
	src.LastError = lastErr.String
	src.LastImport = unixOrZero(imported)
	src.LastRecords = int(records.Int64)
	src.UpdatedAt = time.Unix(updated, 0)
	return src, nil
}

func unixOrZero(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0)
}
