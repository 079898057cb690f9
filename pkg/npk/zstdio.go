// Package npk implements the .npk binary package container and its
// streaming zstd-compressed payload, per spec §4.8 and §4.10.
package npk

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Writer compresses writes to an underlying sink in zstd frames. Flush
// closes the current frame boundary, per spec §4.10.
type Writer struct {
	enc *zstd.Encoder
}

// NewWriter wraps dst with a streaming zstd encoder.
func NewWriter(dst io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return nil, fmt.Errorf("npk: zstd writer: %w", err)
	}
	return &Writer{enc: enc}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.enc.Write(p)
	if err != nil {
		return n, fmt.Errorf("npk: zstd write: %w", err)
	}
	return n, nil
}

// Flush emits a final frame boundary.
func (w *Writer) Flush() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("npk: zstd flush: %w", err)
	}
	return nil
}

// Reader decompresses a zstd stream on demand, bounded by the caller-supplied
// limit on compressed bytes given to NewReader, per spec §4.10.
type Reader struct {
	dec *zstd.Decoder
	lr  *io.LimitedReader
}

// NewReader wraps src, reading at most limit compressed bytes before
// treating the stream as exhausted.
func NewReader(src io.Reader, limit int64) (*Reader, error) {
	lr := &io.LimitedReader{R: src, N: limit}
	dec, err := zstd.NewReader(lr)
	if err != nil {
		return nil, fmt.Errorf("npk: zstd reader: %w", err)
	}
	return &Reader{dec: dec, lr: lr}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.dec.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("npk: zstd read: %w", err)
	}
	return n, err
}

// Close releases decoder resources.
func (r *Reader) Close() {
	r.dec.Close()
}

// Take reads exactly n bytes through the streaming decoder, the "take(n)"
// affordance from spec §4.10.
func (r *Reader) Take(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("npk: take(%d): %w", n, err)
	}
	return buf, nil
}
