// Package chk implements the Netgear CHK firmware image handler: a fixed
// binary header carrying kernel/rootfs lengths and checksums, magic
// "2a 23 24 5e". Grounded directly on
// original_source/unblob/handlers/filesystem/netgear.py's
// NetgearCHKHandler, replacing its C-struct text parser (StructHandler's
// C_DEFINITIONS) with a typed binary.Read decode, since no C-struct-parsing
// library is present anywhere in the example pack.
package chk

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/handler"
)

var magic = []byte{0x2a, 0x23, 0x24, 0x5e}

// chkHeader mirrors chk_header_t from the original C definition, minus the
// variable-length trailing board_id (read separately since its length
// depends on header_len).
type chkHeader struct {
	Magic        uint32
	HeaderLen    uint32
	Reserved     [8]byte
	KernelChksum uint32
	RootfsChksum uint32
	KernelLen    uint32
	RootfsLen    uint32
	ImageChksum  uint32
	HeaderChksum uint32
}

const headerSize = 4*8 + 8 // eight uint32 fields plus the 8-byte reserved array

// Handler recognizes Netgear CHK firmware images.
type Handler struct{}

// New returns a Handler for the chk format.
func New() Handler { return Handler{} }

func (Handler) Name() string { return "chk" }

func (Handler) Patterns() []handler.Pattern {
	return []handler.Pattern{handler.Literal(magic)}
}

func (Handler) MatchOffset() int64 { return 0 }

// CalculateChunk reads the fixed header (big-endian, as the firmware format
// predates any little-endian Netgear hardware) and sizes the chunk as
// header + kernel + rootfs, discarding the variable-length board_id trailer
// since it does not affect chunk bounds.
func (Handler) CalculateChunk(file io.ReaderAt, startOffset int64) (*chunk.ValidChunk, error) {
	buf := make([]byte, headerSize)
	if _, err := file.ReadAt(buf, startOffset); err != nil {
		return nil, nil
	}

	var hdr chkHeader
	if err := binary.Read(bytes.NewReader(buf), binary.BigEndian, &hdr); err != nil {
		return nil, nil
	}

	if hdr.HeaderLen < uint32(headerSize) {
		return nil, nil
	}

	end := startOffset + int64(hdr.HeaderLen) + int64(hdr.KernelLen) + int64(hdr.RootfsLen)
	c, err := chunk.New(startOffset, end)
	if err != nil {
		return nil, err
	}

	return &chunk.ValidChunk{
		Chunk:       c,
		HandlerName: "chk",
	}, nil
}

// Extractor returns nil: CHK images are carved, not unpacked, matching the
// original handler's EXTRACTOR = None.
func (Handler) Extractor() handler.Extractor { return nil }

var _ handler.Handler = Handler{}
