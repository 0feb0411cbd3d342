package persist

import (
	"errors"

	"github.com/NebulousLabs/bolt"
)

// Metadata identifies the schema of a bolt-backed store, written into a
// dedicated metadata bucket on first open and checked on every subsequent
// open. Grounded on persist/boltdb_test.go's TestOpenDatabase.
type Metadata struct {
	Header  string
	Version string
}

var (
	metadataBucket     = []byte("Metadata")
	metadataHeaderKey  = []byte("Header")
	metadataVersionKey = []byte("Version")
)

// ErrBadHeader and ErrBadVersion are returned by checkMetadata (and
// therefore OpenDatabase) when a bolt database's stored metadata disagrees
// with the caller's expected Metadata, per boltdb_test.go's
// TestErrCheckMetadata/TestErrIntegratedCheckMetadata, which compare against
// these exact sentinel values rather than unwrapping a composed error.
var (
	ErrBadHeader  = errors.New("persist: database header does not match expected header")
	ErrBadVersion = errors.New("persist: database version does not match expected version")
)

// BoltDatabase wraps a *bolt.DB whose metadata has been checked against an
// expected Metadata value.
type BoltDatabase struct {
	DB       *bolt.DB
	Metadata Metadata
}

// OpenDatabase opens (creating if necessary) a bolt database at path. If the
// database is new, md is written as its metadata; otherwise the stored
// metadata must match md exactly, or ErrBadHeader/ErrBadVersion is returned.
func OpenDatabase(md Metadata, path string) (*BoltDatabase, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	boltDB := &BoltDatabase{DB: db, Metadata: md}

	var isNew bool
	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(metadataBucket)
		if err != nil {
			return err
		}
		if bucket.Get(metadataHeaderKey) == nil {
			isNew = true
			return boltDB.updateMetadata(tx)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if !isNew {
		if err := boltDB.checkMetadata(md); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return boltDB, nil
}

// checkMetadata verifies that the database's stored metadata bucket matches
// md exactly, returning ErrBadHeader or ErrBadVersion on the first field
// that disagrees. It returns bolt.ErrDatabaseNotOpen if called on a closed
// database, since that's what the underlying db.View returns unmodified.
func (b *BoltDatabase) checkMetadata(md Metadata) error {
	return b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(metadataBucket)
		if header := string(bucket.Get(metadataHeaderKey)); header != md.Header {
			return ErrBadHeader
		}
		if version := string(bucket.Get(metadataVersionKey)); version != md.Version {
			return ErrBadVersion
		}
		return nil
	})
}

// updateMetadata writes b.Metadata into the database's metadata bucket
// using tx, which must be a writable transaction (bolt.ErrTxNotWritable
// otherwise).
func (b *BoltDatabase) updateMetadata(tx *bolt.Tx) error {
	bucket, err := tx.CreateBucketIfNotExists(metadataBucket)
	if err != nil {
		return err
	}
	if err := bucket.Put(metadataHeaderKey, []byte(b.Metadata.Header)); err != nil {
		return err
	}
	return bucket.Put(metadataVersionKey, []byte(b.Metadata.Version))
}

// Close closes the underlying bolt database.
func (b *BoltDatabase) Close() error {
	return b.DB.Close()
}
