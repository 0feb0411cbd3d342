// Package carve copies byte ranges out of an input blob into standalone
// files under a deterministic extraction directory layout. Grounded on
// original_source/unblob/extractor.py's carving functions (out of scope to
// view directly — not present in original_source/_INDEX.md's four files —
// so the behavior is taken from spec.md §4.3/§6 and written using the
// teacher's atomic-write idiom, persist.SafeFile).
package carve

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/persist"
	"github.com/ARDIEY21/unblob/ratelimit"
)

// bufferSize bounds the streamed copy buffer so carving never holds a whole
// chunk in memory, per spec.md §4.3.
const bufferSize = 1 << 20 // 1 MiB

// MakeExtractDir returns extractRoot/relpath(path, root)+"_extract",
// creating it. It fails if the target already exists and is non-empty.
func MakeExtractDir(root, path, extractRoot string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	dir := filepath.Join(extractRoot, rel+"_extract")

	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) > 0 {
		return "", fmt.Errorf("carve: extract directory %s already exists and is not empty", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("carve: creating extract dir: %w", err)
	}
	return dir, nil
}

// GetExtractPaths returns the carved file's path alongside the directory
// its own extractor output would land in: carvedPath, and
// extractDir/carvedPath.name+"_extract".
func GetExtractPaths(extractDir, carvedPath string) (inpath, outdir string) {
	return carvedPath, filepath.Join(extractDir, filepath.Base(carvedPath)+"_extract")
}

// CarveValidChunk copies c's byte range from file into a new file under
// extractDir named "<range_hex>.<handler_name>", streaming through a
// bounded buffer, and returns its path.
func CarveValidChunk(extractDir string, file io.ReaderAt, c chunk.ValidChunk) (string, error) {
	name := c.RangeHex() + "." + c.HandlerName
	return carveRange(extractDir, file, c.Chunk, name)
}

// CarveUnknownChunks carves every gap region in chunks, naming each
// "<range_hex>.unknown", and returns their paths in order. There is no
// minimum size: every gap is carved, however small.
func CarveUnknownChunks(extractDir string, file io.ReaderAt, chunks []chunk.UnknownChunk) ([]string, error) {
	paths := make([]string, 0, len(chunks))
	for _, c := range chunks {
		name := c.RangeHex() + ".unknown"
		path, err := carveRange(extractDir, file, c.Chunk, name)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func carveRange(extractDir string, file io.ReaderAt, c chunk.Chunk, name string) (string, error) {
	finalPath := filepath.Join(extractDir, name)

	sf, err := persist.NewSafeFile(finalPath)
	if err != nil {
		return "", fmt.Errorf("carve: creating %s: %w", finalPath, err)
	}

	section := io.NewSectionReader(file, c.Start, c.Size())
	buf := make([]byte, bufferSize)
	throttled := ratelimit.NewRLReadWriter(sf.File)
	if _, err := io.CopyBuffer(throttled, section, buf); err != nil {
		_ = sf.Discard()
		return "", fmt.Errorf("carve: writing %s: %w", finalPath, err)
	}
	if err := sf.Commit(); err != nil {
		return "", fmt.Errorf("carve: committing %s: %w", finalPath, err)
	}
	return finalPath, nil
}
