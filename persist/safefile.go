package persist

import (
	"os"
	"path/filepath"

	"github.com/NebulousLabs/fastrand"
)

// RandomSuffix returns a short random hex string suitable for disambiguating
// temporary filenames, as used by persist/persist_test.go's
// TestIntegrationRandomSuffix.
func RandomSuffix() string {
	return hexEncode(fastrand.Bytes(6))
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0x0f]
	}
	return string(out)
}

// SafeFile writes to a randomly-suffixed temporary file beside its final
// destination and only appears at the destination path once Commit
// succeeds, so a crash mid-carve never leaves a half-written artifact at
// the name downstream tooling expects. Grounded on
// persist/persist_test.go's TestAbsolutePathSafeFile /
// TestRelativePathSafeFile.
type SafeFile struct {
	*os.File
	tempName  string
	finalName string
}

// NewSafeFile creates the temporary backing file for finalName.
func NewSafeFile(finalName string) (*SafeFile, error) {
	dir := filepath.Dir(finalName)
	tempName := filepath.Join(dir, filepath.Base(finalName)+".tmp-"+RandomSuffix())
	f, err := os.OpenFile(tempName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	return &SafeFile{File: f, tempName: tempName, finalName: finalName}, nil
}

// Name returns the temporary filename currently being written to, which is
// never equal to finalName until Commit has run.
func (sf *SafeFile) Name() string {
	return sf.tempName
}

// Commit flushes, closes, and atomically renames the temporary file into
// place at finalName.
func (sf *SafeFile) Commit() error {
	if err := sf.File.Sync(); err != nil {
		return err
	}
	if err := sf.File.Close(); err != nil {
		return err
	}
	return os.Rename(sf.tempName, sf.finalName)
}

// Discard closes and removes the temporary file without committing it,
// used when a carve is aborted partway through (e.g. cancellation).
func (sf *SafeFile) Discard() error {
	_ = sf.File.Close()
	return os.Remove(sf.tempName)
}
