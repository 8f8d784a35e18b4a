// SQLite Catalog adapter — the reference storage named in spec §6, against
// the tles(norad_id, name, epoch_utc, line1, line2, source_group,
// fetched_at_utc) schema with primary key (norad_id, epoch_utc, source_group).
//
// modernc.org/sqlite is named, not grounded: no SQLite driver appears
// anywhere in the retrieval pack, and this is the one dependency in
// AstraGuard's graph without a corpus example to ground it on (see
// DESIGN.md).
package catalog

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/astraguard/astraguard/pkg/errkind"
	"github.com/astraguard/astraguard/pkg/timeutil"
)

// SQLiteStore is a Catalog backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS tles (
	norad_id INTEGER NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	epoch_utc TEXT NOT NULL,
	line1 TEXT NOT NULL,
	line2 TEXT NOT NULL,
	source_group TEXT NOT NULL,
	fetched_at_utc TEXT NOT NULL,
	PRIMARY KEY (norad_id, epoch_utc, source_group)
);`

// OpenSQLiteStore opens (creating the schema if absent) a SQLite database at
// path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errkind.New(errkind.CatalogIOError, err, "path", path)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errkind.New(errkind.CatalogIOError, err, "path", path)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// PutAll upserts many TLE records within a single transaction.
func (s *SQLiteStore) PutAll(rows []TLE) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errkind.New(errkind.CatalogIOError, err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO tles (norad_id, name, epoch_utc, line1, line2, source_group, fetched_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(norad_id, epoch_utc, source_group) DO UPDATE SET
			name=excluded.name, line1=excluded.line1, line2=excluded.line2,
			fetched_at_utc=excluded.fetched_at_utc`)
	if err != nil {
		tx.Rollback()
		return errkind.New(errkind.CatalogIOError, err)
	}
	defer stmt.Close()

	for _, t := range rows {
		if _, err := stmt.Exec(t.NoradID, t.Name, timeutil.FormatISO(t.EpochUTC),
			t.Line1, t.Line2, t.SourceGroup, timeutil.FormatISO(t.FetchedAtUTC)); err != nil {
			tx.Rollback()
			return errkind.New(errkind.CatalogIOError, err, "norad_id", itoa(t.NoradID))
		}
	}
	if err := tx.Commit(); err != nil {
		return errkind.New(errkind.CatalogIOError, err)
	}
	return nil
}

// FetchByGroups implements Source via a single SQL query restricted to the
// requested groups, the SQL-CTE-equivalent of
// astragaurd/packages/orbit/load_catalog.py's filtered-rows query.
func (s *SQLiteStore) FetchByGroups(groups []string) ([]TLE, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(groups))
	args := make([]interface{}, len(groups))
	for i, g := range groups {
		placeholders[i] = "?"
		args[i] = g
	}
	query := `SELECT norad_id, name, epoch_utc, line1, line2, source_group, fetched_at_utc
	          FROM tles WHERE source_group IN (` + strings.Join(placeholders, ",") + `)`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errkind.New(errkind.CatalogIOError, err)
	}
	defer rows.Close()

	var out []TLE
	for rows.Next() {
		var t TLE
		var epochStr, fetchedStr string
		var noradID int64
		if err := rows.Scan(&noradID, &t.Name, &epochStr, &t.Line1, &t.Line2, &t.SourceGroup, &fetchedStr); err != nil {
			return nil, errkind.New(errkind.CatalogIOError, err)
		}
		t.NoradID = uint32(noradID)
		if t.EpochUTC, err = timeutil.ParseISO(epochStr); err != nil {
			return nil, errkind.New(errkind.CatalogIOError, err)
		}
		if t.FetchedAtUTC, err = timeutil.ParseISO(fetchedStr); err != nil {
			return nil, errkind.New(errkind.CatalogIOError, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errkind.New(errkind.CatalogIOError, err)
	}
	return out, nil
}

// ListTLEs implements Catalog by delegating to the shared Load semantics.
func (s *SQLiteStore) ListTLEs(groups []string, maxObjects int, preferLatestFetch, dedupeByNorad bool) ([]TLE, GroupCounts, []string, error) {
	return Load(s, groups, maxObjects, preferLatestFetch, dedupeByNorad)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}
