package gzip

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func gzipBytes(t *testing.T, name string, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		t.Fatalf("NewWriterLevel: %v", err)
	}
	w.Name = name
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("writing payload: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return buf.Bytes()
}

func TestCalculateChunkFindsCompressedLength(t *testing.T) {
	h := New()
	stream := gzipBytes(t, "fw.img", bytes.Repeat([]byte("firmware"), 100))
	data := append([]byte{0, 0, 0}, stream...)

	vc, err := h.CalculateChunk(bytes.NewReader(data), 3)
	if err != nil {
		t.Fatalf("CalculateChunk: %v", err)
	}
	if vc == nil {
		t.Fatal("expected a non-nil ValidChunk for a valid gzip stream")
	}
	want := int64(3 + len(stream))
	if vc.End != want {
		t.Errorf("vc.End = %d, want %d", vc.End, want)
	}
	if vc.HandlerName != "gzip" {
		t.Errorf("HandlerName = %s, want gzip", vc.HandlerName)
	}
}

func TestCalculateChunkWithTrailingGarbage(t *testing.T) {
	h := New()
	stream := gzipBytes(t, "", []byte("hello world"))
	data := append(append([]byte(nil), stream...), []byte("trailing garbage past the stream")...)

	vc, err := h.CalculateChunk(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("CalculateChunk: %v", err)
	}
	if vc == nil {
		t.Fatal("expected a non-nil ValidChunk")
	}
	if vc.End != int64(len(stream)) {
		t.Errorf("vc.End = %d, want %d (trailing bytes must not be included)", vc.End, len(stream))
	}
}

func TestCalculateChunkRejectsNonGzip(t *testing.T) {
	h := New()
	vc, err := h.CalculateChunk(bytes.NewReader([]byte("not a gzip stream at all")), 0)
	if err != nil {
		t.Fatalf("CalculateChunk: %v", err)
	}
	if vc != nil {
		t.Error("expected a nil ValidChunk for non-gzip input")
	}
}

func TestExtractorDecompressesToNamedFile(t *testing.T) {
	stream := gzipBytes(t, "payload.bin", []byte("decompressed content"))
	inPath := filepath.Join(t.TempDir(), "fw.gz")
	if err := os.WriteFile(inPath, stream, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	outdir := t.TempDir()

	ext := New().Extractor()
	if ext == nil {
		t.Fatal("gzip handler must expose a non-nil extractor")
	}
	if err := ext.Extract(inPath, outdir); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outdir, "payload.bin"))
	if err != nil {
		t.Fatalf("reading decompressed output: %v", err)
	}
	if string(got) != "decompressed content" {
		t.Errorf("decompressed content = %q, want %q", got, "decompressed content")
	}
}

func TestExtractorDefaultsNameWhenAbsent(t *testing.T) {
	stream := gzipBytes(t, "", []byte("x"))
	inPath := filepath.Join(t.TempDir(), "fw.gz")
	if err := os.WriteFile(inPath, stream, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	outdir := t.TempDir()

	if err := New().Extractor().Extract(inPath, outdir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outdir, "decompressed")); err != nil {
		t.Errorf("expected a file named 'decompressed' when gzip carries no name: %v", err)
	}
}

func TestExtractorRejectsInvalidStream(t *testing.T) {
	inPath := filepath.Join(t.TempDir(), "bad.gz")
	if err := os.WriteFile(inPath, []byte("not gzip"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := New().Extractor().Extract(inPath, t.TempDir()); err == nil {
		t.Error("expected an error extracting a non-gzip file")
	}
}
