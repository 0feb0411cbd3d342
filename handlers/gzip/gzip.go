// Package gzip implements a handler for the gzip container format, chosen
// to exercise the extractor path end-to-end using only
// the standard library's compress/gzip — there is no concrete gzip handler
// in original_source/ (only netgear.py was retrieved), so this is written
// directly from spec.md §4.1/§4.4's handler contract in the chk handler's
// idiom, with an in-process Extractor instead of an external command.
package gzip

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/ARDIEY21/unblob/chunk"
	"github.com/ARDIEY21/unblob/handler"
	"github.com/ARDIEY21/unblob/report"
)

var magic = []byte{0x1f, 0x8b}

// Handler recognizes gzip streams and decompresses them in-process.
type Handler struct{}

// New returns a Handler for the gzip format.
func New() Handler { return Handler{} }

func (Handler) Name() string { return "gzip" }

func (Handler) Patterns() []handler.Pattern {
	return []handler.Pattern{handler.Literal(magic)}
}

func (Handler) MatchOffset() int64 { return 0 }

// CalculateChunk decompresses from startOffset to find the stream's
// compressed length: gzip carries no end-of-stream length in its header, so
// the only way to find the chunk boundary is to actually decode it,
// discarding the decompressed bytes and keeping count of how many
// compressed bytes the reader consumed.
func (Handler) CalculateChunk(file io.ReaderAt, startOffset int64) (*chunk.ValidChunk, error) {
	sr := io.NewSectionReader(file, startOffset, 1<<62)
	counting := &countingReader{r: sr}

	gz, err := gzip.NewReader(counting)
	if err != nil {
		return nil, nil
	}
	defer gz.Close()
	// Stop at the end of the first member so bytes that follow the stream
	// are neither parsed as another gzip header nor counted.
	gz.Multistream(false)

	if _, err := io.Copy(io.Discard, gz); err != nil {
		return nil, nil
	}

	c, err := chunk.New(startOffset, startOffset+counting.n)
	if err != nil {
		return nil, err
	}
	return &chunk.ValidChunk{Chunk: c, HandlerName: "gzip"}, nil
}

// Extractor returns an in-process gzip decompressor; gzip needs no external
// command, so Dependencies is empty.
func (Handler) Extractor() handler.Extractor { return extractor{} }

type extractor struct{}

func (extractor) Dependencies() []string { return nil }

func (extractor) Extract(inpath, outdir string) error {
	in, err := os.Open(inpath)
	if err != nil {
		return report.NewExtractError(err, report.Report{
			Severity: report.SeverityError,
			Kind:     report.KindExtractError,
			Path:     inpath,
			Message:  "gzip: opening input: " + err.Error(),
		})
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return report.NewExtractError(err, report.Report{
			Severity: report.SeverityError,
			Kind:     report.KindExtractError,
			Path:     inpath,
			Message:  "gzip: invalid stream: " + err.Error(),
		})
	}
	defer gz.Close()

	name := "decompressed"
	if gz.Name != "" {
		name = gz.Name
	}
	outPath := filepath.Join(outdir, name)

	out, err := os.Create(outPath)
	if err != nil {
		return report.NewExtractError(err, report.Report{
			Severity: report.SeverityError,
			Kind:     report.KindExtractError,
			Path:     inpath,
			Message:  "gzip: creating output: " + err.Error(),
		})
	}
	defer out.Close()

	if _, err := io.Copy(out, gz); err != nil {
		return report.NewExtractError(err, report.Report{
			Severity: report.SeverityError,
			Kind:     report.KindExtractError,
			Path:     inpath,
			Message:  "gzip: decompressing: " + err.Error(),
		})
	}
	return nil
}

// countingReader tracks how many bytes have been read through it, letting
// CalculateChunk learn the compressed stream length as a side effect of
// decoding it. It implements ReadByte as well as Read: compress/flate and
// compress/gzip both wrap a reader that lacks ReadByte in their own
// bufio.Reader, which would pull ahead past the true end of the gzip
// stream (e.g. into whatever follows it in a larger firmware image) and
// make n overcount. Exposing ReadByte keeps both packages reading one byte
// at a time straight from the underlying section, so n lands exactly on
// the stream's real compressed length.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, err
	}
	c.n++
	return b[0], nil
}

var _ handler.Handler = Handler{}
