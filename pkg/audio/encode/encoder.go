// ABOUTME: Encoder interface and whole-asset writing
// ABOUTME: Streams PCM through any encoder into a writer in fixed chunks
package encode

import (
	"fmt"
	"io"
)

// Encoder turns int32 samples in the 24-bit range into encoded bytes
type Encoder interface {
	// Encode converts one chunk of interleaved samples
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// WriteAll encodes samples chunk values at a time and writes each result
// to w. It returns the number of bytes written.
func WriteAll(w io.Writer, enc Encoder, samples []int32, chunk int) (int64, error) {
	if chunk <= 0 {
		return 0, fmt.Errorf("invalid chunk size %d", chunk)
	}

	var written int64
	for start := 0; start < len(samples); start += chunk {
		end := start + chunk
		if end > len(samples) {
			end = len(samples)
		}
		data, err := enc.Encode(samples[start:end])
		if err != nil {
			return written, fmt.Errorf("encode samples %d-%d: %w", start, end, err)
		}
		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write encoded audio: %w", err)
		}
	}
	return written, nil
}
