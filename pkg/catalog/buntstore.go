// File/in-memory Catalog adapter backed by tidwall/buntdb, grounded on
// spec §9's "file adapter for batch" and the embedded-ordered-KV pattern the
// retrieval pack's aistore example uses for its own metadata indices.
package catalog

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/astraguard/astraguard/pkg/errkind"
	"github.com/astraguard/astraguard/pkg/timeutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BuntStore is a Catalog backed by an embedded buntdb database, either
// on-disk (path given) or purely in-memory (path == ":memory:").
type BuntStore struct {
	db *buntdb.DB
}

// OpenBuntStore opens (creating if absent) a buntdb file at path, or an
// in-memory database when path is ":memory:".
func OpenBuntStore(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errkind.New(errkind.CatalogIOError, err, "path", path)
	}
	return &BuntStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BuntStore) Close() error { return s.db.Close() }

func tleKey(t TLE) string {
	return fmt.Sprintf("tle:%s:%010d:%s", t.SourceGroup, t.NoradID, timeutil.FormatISO(t.EpochUTC))
}

// Put upserts a TLE record.
func (s *BuntStore) Put(t TLE) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return errkind.New(errkind.CatalogIOError, err, "norad_id", fmt.Sprint(t.NoradID))
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(tleKey(t), string(payload), nil)
		return err
	})
}

// PutAll upserts many TLE records within a single transaction.
func (s *BuntStore) PutAll(rows []TLE) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		for _, t := range rows {
			payload, err := json.Marshal(t)
			if err != nil {
				return errkind.New(errkind.CatalogIOError, err, "norad_id", fmt.Sprint(t.NoradID))
			}
			if _, _, err := tx.Set(tleKey(t), string(payload), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// FetchByGroups implements Source: each normalized group maps to a key
// prefix, so group filtering is a glob-pattern ascend over the group's key
// range rather than a full-scan with field comparison.
func (s *BuntStore) FetchByGroups(groups []string) ([]TLE, error) {
	var out []TLE
	err := s.db.View(func(tx *buntdb.Tx) error {
		for _, g := range groups {
			pattern := fmt.Sprintf("tle:%s:*", g)
			var rangeErr error
			tx.AscendKeys(pattern, func(key, value string) bool {
				var t TLE
				if err := json.Unmarshal([]byte(value), &t); err != nil {
					rangeErr = errors.Wrap(err, "decode TLE record")
					return false
				}
				out = append(out, t)
				return true
			})
			if rangeErr != nil {
				return rangeErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, errkind.New(errkind.CatalogIOError, err)
	}
	return out, nil
}

// ListTLEs implements Catalog by delegating to the shared Load semantics.
func (s *BuntStore) ListTLEs(groups []string, maxObjects int, preferLatestFetch, dedupeByNorad bool) ([]TLE, GroupCounts, []string, error) {
	return Load(s, groups, maxObjects, preferLatestFetch, dedupeByNorad)
}
