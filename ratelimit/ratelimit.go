// Package ratelimit throttles reads and writes to a configurable byte rate,
// so carving a very large firmware image doesn't saturate disk I/O on a
// shared host. Grounded on ratelimit_test.go's TestRLSimpleWriteRead (the
// only retrieved file — no implementation source), reimplemented here as a
// simple token-bucket sleeping in fixed packetSize increments to match the
// test's timing expectations.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

var (
	mu         sync.Mutex
	readBPS    int64
	writeBPS   int64
	packetSize uint64 = 1 << 16
)

// SetLimits configures the global read/write rate limits, in bytes per
// second, and the packet size increments reads/writes are split into. A
// limit of 0 disables throttling for that direction.
func SetLimits(readBytesPerSecond, writeBytesPerSecond int64, packet uint64) {
	mu.Lock()
	defer mu.Unlock()
	readBPS = readBytesPerSecond
	writeBPS = writeBytesPerSecond
	if packet > 0 {
		packetSize = packet
	}
}

func limits() (int64, int64, uint64) {
	mu.Lock()
	defer mu.Unlock()
	return readBPS, writeBPS, packetSize
}

// RLReadWriter wraps an io.ReadWriter, pacing Read and Write calls to the
// globally configured rate limits.
type RLReadWriter struct {
	rw io.ReadWriter
}

// NewRLReadWriter wraps rw with the globally configured rate limits.
func NewRLReadWriter(rw io.ReadWriter) *RLReadWriter {
	return &RLReadWriter{rw: rw}
}

// Read paces reads to the configured read rate limit.
func (r *RLReadWriter) Read(p []byte) (int, error) {
	readBPS, _, packet := limits()
	return throttledTransfer(p, readBPS, packet, r.rw.Read)
}

// Write paces writes to the configured write rate limit.
func (r *RLReadWriter) Write(p []byte) (int, error) {
	_, writeBPS, packet := limits()
	return throttledTransfer(p, writeBPS, packet, r.rw.Write)
}

// throttledTransfer runs xfer over p in packetSize chunks, sleeping between
// chunks so the aggregate rate does not exceed bps. A bps of 0 disables
// throttling.
func throttledTransfer(p []byte, bps int64, packet uint64, xfer func([]byte) (int, error)) (int, error) {
	if bps <= 0 || packet == 0 {
		return xfer(p)
	}

	var total int
	for total < len(p) {
		end := total + int(packet)
		if end > len(p) {
			end = len(p)
		}

		start := time.Now()
		n, err := xfer(p[total:end])
		total += n
		if err != nil {
			return total, err
		}

		want := time.Duration(float64(n) / float64(bps) * float64(time.Second))
		if elapsed := time.Since(start); elapsed < want {
			time.Sleep(want - elapsed)
		}
	}
	return total, nil
}
