package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ARDIEY21/unblob/build"
)

// persistDir is the subdirectory under build.TempDir that persist's own
// tests write their scratch fixtures into.
const persistDir = "persist"

// tempSuffix names the rolling backup copy SaveJSON keeps beside the main
// file, so that LoadJSON can still recover the previous good state if the
// most recent save was interrupted or the main file was otherwise damaged.
const tempSuffix = "_temp"

// ErrBadFilenameSuffix is returned by SaveJSON/LoadJSON when called with a
// filename that already carries tempSuffix, since that name is reserved for
// the backup copy and must never be treated as a primary target.
var ErrBadFilenameSuffix = errors.New("persist: filename must not already carry the backup suffix")

// ErrWrongMetadata is returned (wrapped) by decodeJSON when a JSON file's
// embedded Header or Version doesn't match the Metadata the caller expects.
var ErrWrongMetadata = errors.New("persist: wrong metadata")

// jsonEnvelope wraps a caller's object with the Metadata it was saved under
// and a checksum of the encoded object, so LoadJSON can detect both a
// mismatched schema and file corruption before handing data back to the
// caller. Grounded on persist/boltdb.go's Metadata-checked-on-open pattern,
// adapted here to file-based JSON persistence (persist/json_test.go).
type jsonEnvelope struct {
	Header   string
	Version  string
	Checksum string
	Data     json.RawMessage
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func encodeJSON(meta Metadata, object interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(object, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("persist: encoding object: %w", err)
	}
	env := jsonEnvelope{
		Header:   meta.Header,
		Version:  meta.Version,
		Checksum: checksum(data),
		Data:     data,
	}
	return json.MarshalIndent(env, "", "\t")
}

// decodeJSON unmarshals raw into object, requiring meta's header and version
// to match exactly. An empty Checksum field (the format used before
// checksums were introduced, or an explicitly hand-edited file) skips the
// integrity check rather than failing it.
func decodeJSON(meta Metadata, object interface{}, raw []byte) error {
	var env jsonEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("persist: corrupted file: %w", err)
	}
	if env.Header != meta.Header {
		return fmt.Errorf("persist: %w: got header %q, want %q", ErrWrongMetadata, env.Header, meta.Header)
	}
	if env.Version != meta.Version {
		return fmt.Errorf("persist: %w: got version %q, want %q", ErrWrongMetadata, env.Version, meta.Version)
	}
	if env.Checksum != "" && env.Checksum != checksum(env.Data) {
		return errors.New("persist: checksum mismatch")
	}
	return json.Unmarshal(env.Data, object)
}

// SaveJSON persists object to filename under the given Metadata, atomically
// (write to a temp file beside filename, then rename) so a crash mid-write
// never leaves a half-written main file. Before overwriting, if the existing
// main file is still valid, its contents are copied to filename+tempSuffix
// as a rolling backup; if the existing main file is already corrupted,
// the backup is left untouched rather than risk losing the last known-good
// copy, per persist/json_test.go's TestSaveJSONCorruptedMainFile.
func SaveJSON(meta Metadata, object interface{}, filename string) error {
	if strings.HasSuffix(filename, tempSuffix) {
		return ErrBadFilenameSuffix
	}
	backupName := filename + tempSuffix

	if raw, err := os.ReadFile(filename); err == nil {
		var throwaway json.RawMessage
		if decodeJSON(meta, &throwaway, raw) == nil {
			_ = build.CopyFile(filename, backupName)
		}
	}

	content, err := encodeJSON(meta, object)
	if err != nil {
		return err
	}

	sf, err := NewSafeFile(filename)
	if err != nil {
		return err
	}
	if _, err := sf.Write(content); err != nil {
		_ = sf.Discard()
		return err
	}
	return sf.Commit()
}

// LoadJSON reads filename into object, falling back to the backup copy
// (filename+tempSuffix) when the main file is missing, unparseable, carries
// the wrong Metadata, or fails its checksum.
func LoadJSON(meta Metadata, object interface{}, filename string) error {
	if strings.HasSuffix(filename, tempSuffix) {
		return ErrBadFilenameSuffix
	}

	if raw, err := os.ReadFile(filename); err == nil {
		if decodeJSON(meta, object, raw) == nil {
			return nil
		}
	}

	raw, err := os.ReadFile(filename + tempSuffix)
	if err != nil {
		return fmt.Errorf("persist: main file unreadable and no backup available: %w", err)
	}
	return decodeJSON(meta, object, raw)
}
