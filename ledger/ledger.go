// Package ledger records which Tasks an extraction run has already
// completed, so an interrupted run can be resumed without repeating
// finished work. Grounded on the teacher's persist.BoltDatabase pattern
// (persist/boltdb_test.go) combined with bolt-backed state tracking as seen
// in modules/consensus/persist.go's metadata-checked database open.
package ledger

import (
	"github.com/NebulousLabs/bolt"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/encoding"
	"github.com/ARDIEY21/unblob/persist"
)

var doneBucket = []byte("CompletedTasks")

const (
	ledgerHeader  = "Unblob Ledger"
	ledgerVersion = "0.1"
)

// Ledger tracks completed task paths for one extraction root in a bolt
// database, so Resume can skip work a prior run already finished.
type Ledger struct {
	db *persist.BoltDatabase
}

// Open opens (creating if necessary) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := persist.OpenDatabase(persist.Metadata{Header: ledgerHeader, Version: ledgerVersion}, path)
	if err != nil {
		return nil, err
	}
	err = db.DB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(doneBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// MarkDone records t as completed, keyed by its path. The full Task
// (including Root and Depth) is stored, not just a boolean marker, using
// the teacher's reflection-based binary encoding so a resumed run can
// recover exactly what depth each completed path was processed at.
func (l *Ledger) MarkDone(t chunk.Task) error {
	return l.db.DB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(doneBucket).Put([]byte(t.Path), encoding.Marshal(t))
	})
}

// IsDone reports whether t.Path was recorded as completed by a prior run.
func (l *Ledger) IsDone(t chunk.Task) (bool, error) {
	var done bool
	err := l.db.DB.View(func(tx *bolt.Tx) error {
		done = tx.Bucket(doneBucket).Get([]byte(t.Path)) != nil
		return nil
	})
	return done, err
}

// ListDone returns every completed Task recorded in the ledger, decoded
// back from their stored binary encoding. Used to report resume progress.
func (l *Ledger) ListDone() ([]chunk.Task, error) {
	var tasks []chunk.Task
	err := l.db.DB.View(func(tx *bolt.Tx) error {
		return tx.Bucket(doneBucket).ForEach(func(k, v []byte) error {
			var t chunk.Task
			if err := encoding.Unmarshal(v, &t); err != nil {
				return err
			}
			tasks = append(tasks, t)
			return nil
		})
	})
	return tasks, err
}
