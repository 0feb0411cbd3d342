package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ARDIEY21/unblob/chunk"
)

func validChunk(t *testing.T, start, end int64, name string) chunk.ValidChunk {
	c, err := chunk.New(start, end)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return chunk.ValidChunk{Chunk: c, HandlerName: name}
}

func TestManifestRootEmpty(t *testing.T) {
	m := New()
	if root := m.Root(); root != nil {
		t.Error("an empty manifest should have a nil root")
	}
}

func TestManifestRootDeterministic(t *testing.T) {
	m1 := New()
	m1.AddValidChunk("a.gz", validChunk(t, 0, 10, "gzip"), []byte("payload-a"))
	m1.AddUnknownChunk("gap.unknown", chunk.UnknownChunk{Chunk: mustChunk(t, 10, 20)}, []byte("payload-b"))

	m2 := New()
	m2.AddValidChunk("a.gz", validChunk(t, 0, 10, "gzip"), []byte("payload-a"))
	m2.AddUnknownChunk("gap.unknown", chunk.UnknownChunk{Chunk: mustChunk(t, 10, 20)}, []byte("payload-b"))

	if string(m1.Root()) != string(m2.Root()) {
		t.Error("two manifests built from identical input should have equal roots")
	}

	m3 := New()
	m3.AddValidChunk("a.gz", validChunk(t, 0, 10, "gzip"), []byte("different"))
	if string(m1.Root()) == string(m3.Root()) {
		t.Error("changing the chunk content should change the root")
	}
}

func TestManifestWrite(t *testing.T) {
	dir := t.TempDir()
	m := New()
	m.AddValidChunk("a.gz", validChunk(t, 0, 10, "gzip"), []byte("payload"))

	if err := m.Write(dir); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "MANIFEST.json"))
	if err != nil {
		t.Fatalf("reading MANIFEST.json: %v", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshaling MANIFEST.json: %v", err)
	}
	if len(doc.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(doc.Entries))
	}
	if doc.Root == "" {
		t.Error("expected a non-empty root hash")
	}
}

func mustChunk(t *testing.T, start, end int64) chunk.Chunk {
	c, err := chunk.New(start, end)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}
