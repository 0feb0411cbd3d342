// Package entropy computes Shannon entropy over sliding windows of a file,
// used to characterize regions the Pattern Finder could not attribute to a
// known handler. Grounded on spec.md §4.5; the windowing/percentage/plot
// behavior has no original_source/ reference (math.py was not retrieved),
// so it is written directly from the spec using the teacher's persist.Logger
// idiom for reporting summary statistics.
package entropy

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/NebulousLabs/entropy-mnemonics"

	"github.com/ARDIEY21/unblob/persist"
)

const (
	minWindowSize = 1 << 10 // 1 KiB
	maxWindowSize = 1 << 20 // 1 MiB
	targetWindows = 80
	// peakWindowBytes bounds how much of the peak-entropy window is fed
	// into mnemonics.ToPhrase, keeping the fingerprint phrase short.
	peakWindowBytes = 16
)

// ShannonEntropy returns the Shannon entropy of b's byte distribution, in
// bits, in the range [0, 8]. An empty slice has zero entropy.
func ShannonEntropy(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	var counts [256]int
	for _, c := range b {
		counts[c]++
	}
	entropy := 0.0
	total := float64(len(b))
	for _, n := range counts {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// Window holds the normalized entropy percentage of one file window.
type Window struct {
	Offset  int64
	Size    int64
	Percent float64 // round(entropy/8*100, 2)
}

// Report summarizes a full entropy pass over a file.
type Report struct {
	WindowSize int64
	Windows    []Window
	Mean       float64
	Min        float64
	Max        float64
	// Fingerprint is a human-comparable entropy-mnemonics phrase derived
	// from the highest-entropy window, useful for eyeballing whether two
	// unknown chunks with high entropy are plausibly the same material
	// (e.g. repeated encrypted firmware blocks).
	Fingerprint string
}

// windowSize picks a size such that path is split into ~targetWindows
// windows, clamped to [minWindowSize, maxWindowSize].
func windowSize(fileSize int64) int64 {
	if fileSize <= 0 {
		return minWindowSize
	}
	size := fileSize / targetWindows
	if size < minWindowSize {
		size = minWindowSize
	}
	if size > maxWindowSize {
		size = maxWindowSize
	}
	return size
}

// CalculateEntropy streams path window by window, computing per-window
// entropy normalized to a percentage, and logs mean/min/max through log. If
// drawPlot is set, a terminal scatter plot is also written to log.
func CalculateEntropy(log *persist.Logger, path string, drawPlot bool) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("entropy: opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Report{}, fmt.Errorf("entropy: stat %s: %w", path, err)
	}

	ws := windowSize(info.Size())
	buf := make([]byte, ws)

	var windows []Window
	var sum, min, max float64
	min = 100
	var offset int64
	var maxWindow Window
	var maxWindowData []byte

	for {
		n, readErr := io.ReadFull(f, buf)
		if n > 0 {
			bits := ShannonEntropy(buf[:n])
			pct := math.Round(bits/8*100*100) / 100
			w := Window{Offset: offset, Size: int64(n), Percent: pct}
			windows = append(windows, w)
			sum += pct
			if pct < min {
				min = pct
			}
			if pct > max {
				max = pct
				maxWindow = w
				maxWindowData = append([]byte(nil), buf[:n]...)
			}
			offset += int64(n)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return Report{}, fmt.Errorf("entropy: reading %s: %w", path, readErr)
		}
	}

	rep := Report{WindowSize: ws, Windows: windows}
	if len(windows) > 0 {
		rep.Mean = math.Round(sum/float64(len(windows))*100) / 100
		rep.Min = min
		rep.Max = max
		rep.Fingerprint = fingerprint(maxWindow, maxWindowData)
	}

	if log != nil {
		log.Printf("entropy %s: windows=%d size=%d mean=%.2f%% min=%.2f%% max=%.2f%%",
			path, len(rep.Windows), ws, rep.Mean, rep.Min, rep.Max)
		if drawPlot {
			log.Print(renderPlot(rep.Windows))
		}
	}

	return rep, nil
}

// fingerprint derives a short, human-comparable phrase for the window with
// peak entropy by feeding its leading bytes through entropy-mnemonics,
// normally used to make wallet seeds comparable by ear; here it lets two
// human reviewers confirm "same high-entropy blob" without diffing bytes.
func fingerprint(w Window, windowBuf []byte) string {
	n := peakWindowBytes
	if n > len(windowBuf) {
		n = len(windowBuf)
	}
	phrase, err := mnemonics.ToPhrase(windowBuf[:n], mnemonics.English)
	if err != nil || len(phrase) == 0 {
		return ""
	}
	words := []string(phrase)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}

// renderPlot draws an 80-column by 16-row ASCII scatter plot of windows'
// entropy percentages, y-axis 0-100 in 10% ticks. No terminal plotting
// library is present anywhere in the retrieved corpus, so this is
// stdlib-only by necessity rather than preference.
func renderPlot(windows []Window) string {
	const (
		cols = 80
		rows = 16
	)
	if len(windows) == 0 {
		return "(no data)"
	}

	grid := make([][]byte, rows)
	for i := range grid {
		grid[i] = blankRow(cols)
	}

	for i, w := range windows {
		col := i * cols / len(windows)
		if col >= cols {
			col = cols - 1
		}
		row := rows - 1 - int(w.Percent/100*float64(rows-1))
		if row < 0 {
			row = 0
		}
		if row >= rows {
			row = rows - 1
		}
		grid[row][col] = '*'
	}

	// Label the rows that 0%, 10%, ..., 100% map to, using the same
	// row mapping as the plotted points.
	ticks := make(map[int]int)
	for p := 0; p <= 100; p += 10 {
		ticks[rows-1-p*(rows-1)/100] = p
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		if tick, ok := ticks[r]; ok {
			fmt.Fprintf(&b, "%3d%% |%s\n", tick, string(grid[r]))
		} else {
			fmt.Fprintf(&b, "     |%s\n", string(grid[r]))
		}
	}
	return b.String()
}

func blankRow(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return b
}
