package chk

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func encodeHeader(t *testing.T, headerLen, kernelLen, rootfsLen uint32) []byte {
	t.Helper()
	hdr := chkHeader{
		Magic:        binary.BigEndian.Uint32(magic),
		HeaderLen:    headerLen,
		KernelLen:    kernelLen,
		RootfsLen:    rootfsLen,
		KernelChksum: 1,
		RootfsChksum: 2,
		ImageChksum:  3,
		HeaderChksum: 4,
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, hdr); err != nil {
		t.Fatalf("encoding fixture header: %v", err)
	}
	return buf.Bytes()
}

func TestCalculateChunkValidHeader(t *testing.T) {
	h := New()
	data := encodeHeader(t, uint32(headerSize), 1000, 2000)

	vc, err := h.CalculateChunk(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("CalculateChunk: %v", err)
	}
	if vc == nil {
		t.Fatal("expected a non-nil ValidChunk for a well-formed header")
	}
	want := int64(headerSize) + 1000 + 2000
	if vc.End != want {
		t.Errorf("vc.End = %d, want %d", vc.End, want)
	}
	if vc.HandlerName != "chk" {
		t.Errorf("HandlerName = %s, want chk", vc.HandlerName)
	}
}

func TestCalculateChunkAtNonZeroOffset(t *testing.T) {
	h := New()
	prefix := make([]byte, 16)
	data := append(prefix, encodeHeader(t, uint32(headerSize), 10, 20)...)

	vc, err := h.CalculateChunk(bytes.NewReader(data), 16)
	if err != nil {
		t.Fatalf("CalculateChunk: %v", err)
	}
	if vc == nil {
		t.Fatal("expected a non-nil ValidChunk")
	}
	if vc.Start != 16 {
		t.Errorf("vc.Start = %d, want 16", vc.Start)
	}
}

func TestCalculateChunkRejectsShortHeaderLen(t *testing.T) {
	h := New()
	data := encodeHeader(t, uint32(headerSize-1), 10, 20)

	vc, err := h.CalculateChunk(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("CalculateChunk returned an error instead of silently rejecting: %v", err)
	}
	if vc != nil {
		t.Error("expected a nil ValidChunk when HeaderLen is smaller than the fixed header size")
	}
}

func TestCalculateChunkTruncatedInput(t *testing.T) {
	h := New()
	data := []byte{0x2a, 0x23}

	vc, err := h.CalculateChunk(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("CalculateChunk: %v", err)
	}
	if vc != nil {
		t.Error("expected a nil ValidChunk when there isn't enough data for the fixed header")
	}
}

func TestHandlerIdentity(t *testing.T) {
	h := New()
	if h.Name() != "chk" {
		t.Errorf("Name() = %s, want chk", h.Name())
	}
	if h.MatchOffset() != 0 {
		t.Errorf("MatchOffset() = %d, want 0", h.MatchOffset())
	}
	if h.Extractor() != nil {
		t.Error("chk has no extractor and must return nil")
	}
	patterns := h.Patterns()
	if len(patterns) != 1 || !bytes.Equal(patterns[0].Bytes, magic) {
		t.Errorf("Patterns() = %+v, want a single literal magic pattern", patterns)
	}
}
