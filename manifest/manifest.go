// Package manifest builds a tamper-evident record of every chunk carved
// during an extraction run: a Merkle tree over each chunk's content hash,
// written alongside the run's extract_root as MANIFEST.json plus its root
// hash. Grounded on crypto/merkle.go's use of merkletree.Tree (New/Push/Root)
// over blake2b leaf hashes, adapted from proving storage-contract data to
// proving carved-chunk provenance.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/NebulousLabs/merkletree"

	"github.com/ARDIEY21/unblob/chunk"
)

// Entry is one carved chunk's manifest record.
type Entry struct {
	Path        string `json:"path"`
	HandlerName string `json:"handler_name,omitempty"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	ContentHash string `json:"content_hash"`
}

// Manifest accumulates Entry records as chunks are carved and computes a
// Merkle root over their content hashes once the run finishes. Its methods
// are safe to call concurrently, since chunks from different files are
// routinely carved by different pool workers in the same run.
type Manifest struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{}
}

// AddValidChunk records a carved ValidChunk's content hash under path.
func (m *Manifest) AddValidChunk(path string, c chunk.ValidChunk, data []byte) {
	h := chunk.ContentHash(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		Path:        path,
		HandlerName: c.HandlerName,
		Start:       c.Start,
		End:         c.End,
		ContentHash: hex.EncodeToString(h[:]),
	})
}

// AddUnknownChunk records a carved UnknownChunk's content hash under path.
func (m *Manifest) AddUnknownChunk(path string, c chunk.UnknownChunk, data []byte) {
	h := chunk.ContentHash(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		Path:        path,
		Start:       c.Start,
		End:         c.End,
		ContentHash: hex.EncodeToString(h[:]),
	})
}

// Root computes the Merkle root over all recorded entries' content hashes,
// in the order they were added. An empty manifest has a nil root.
func (m *Manifest) Root() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	tree := merkletree.New(sha256.New())
	for _, e := range m.entries {
		raw, err := hex.DecodeString(e.ContentHash)
		if err != nil {
			continue
		}
		tree.Push(raw)
	}
	return tree.Root()
}

// document is the on-disk shape written to MANIFEST.json.
type document struct {
	Root    string  `json:"root_hash"`
	Entries []Entry `json:"entries"`
}

// Write serializes the manifest to extractRoot/MANIFEST.json.
func (m *Manifest) Write(extractRoot string) error {
	m.mu.Lock()
	entries := append([]Entry(nil), m.entries...)
	m.mu.Unlock()

	doc := document{Entries: entries}
	if root := m.Root(); root != nil {
		doc.Root = hex.EncodeToString(root)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshaling: %w", err)
	}

	path := filepath.Join(extractRoot, "MANIFEST.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("manifest: writing %s: %w", path, err)
	}
	return nil
}
