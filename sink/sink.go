// Package sink provides output targets for scan results and exchanges: local
// files and in-memory buffers, with optional per-block compression and write
// statistics.
package sink

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"colscan/trace"
)

// Sink receives opaque byte blocks. Writes are buffered by the OS or the
// in-memory target; Flush forces them down, Close flushes and releases the
// target. A sink is single-writer.
type Sink interface {
	Write(data []byte) error
	Flush() error
	Close() error
	Size() int64
}

// WriteStats counts the traffic through a sink
type WriteStats struct {
	Writes int64
	Bytes  int64
}

// FileSink writes to a local file, creating parent directories on open
type FileSink struct {
	path  string
	file  *os.File
	stats WriteStats
}

// NewFileSink creates (or truncates) the file at path
func NewFileSink(path string) (*FileSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sink directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink file: %w", err)
	}
	return &FileSink{path: path, file: file}, nil
}

func (s *FileSink) Write(data []byte) error {
	n, err := s.file.Write(data)
	s.stats.Writes++
	s.stats.Bytes += int64(n)
	if err != nil {
		return fmt.Errorf("sink write to %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSink) Flush() error {
	return s.file.Sync()
}

func (s *FileSink) Close() error {
	tracer := trace.GetTracer()
	if tracer.IsEnabled(trace.LevelDebug, trace.ComponentSink) {
		tracer.Debug(trace.ComponentSink, "closing file sink", trace.Context(
			"path", s.path, "writes", s.stats.Writes, "bytes", s.stats.Bytes))
	}
	return s.file.Close()
}

func (s *FileSink) Size() int64 { return s.stats.Bytes }

// Stats returns the accumulated write statistics
func (s *FileSink) Stats() WriteStats { return s.stats }

// MemorySink buffers writes in memory
type MemorySink struct {
	buf   bytes.Buffer
	stats WriteStats
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Write(data []byte) error {
	s.buf.Write(data)
	s.stats.Writes++
	s.stats.Bytes += int64(len(data))
	return nil
}

func (s *MemorySink) Flush() error { return nil }
func (s *MemorySink) Close() error { return nil }
func (s *MemorySink) Size() int64  { return int64(s.buf.Len()) }

// Bytes returns the written content
func (s *MemorySink) Bytes() []byte { return s.buf.Bytes() }

// Stats returns the accumulated write statistics
func (s *MemorySink) Stats() WriteStats { return s.stats }

// CompressedSink frames every Write as one compressed block:
// a codec byte, the uncompressed length, the compressed length (both
// little-endian uint32), then the payload. ReadBlocks reverses the framing.
type CompressedSink struct {
	inner      Sink
	compressor Compressor
	codec      Codec
	raw        int64
	written    int64
}

// NewCompressedSink wraps a sink with per-block compression
func NewCompressedSink(inner Sink, codec Codec) (*CompressedSink, error) {
	compressor, err := NewCompressor(codec)
	if err != nil {
		return nil, err
	}
	return &CompressedSink{inner: inner, compressor: compressor, codec: codec}, nil
}

func (s *CompressedSink) Write(data []byte) error {
	payload := data
	if s.compressor != nil {
		compressed, err := s.compressor.Compress(data)
		if err != nil {
			return fmt.Errorf("block compression (%s): %w", s.codec, err)
		}
		payload = compressed
	}
	var header [9]byte
	header[0] = byte(s.codec)
	binary.LittleEndian.PutUint32(header[1:5], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[5:9], uint32(len(payload)))
	if err := s.inner.Write(header[:]); err != nil {
		return err
	}
	if err := s.inner.Write(payload); err != nil {
		return err
	}
	s.raw += int64(len(data))
	s.written += int64(len(header) + len(payload))
	return nil
}

func (s *CompressedSink) Flush() error { return s.inner.Flush() }

func (s *CompressedSink) Close() error {
	tracer := trace.GetTracer()
	if tracer.IsEnabled(trace.LevelDebug, trace.ComponentSink) && s.raw > 0 {
		tracer.Debug(trace.ComponentSink, "closing compressed sink", trace.Context(
			"codec", s.codec.String(),
			"raw_bytes", s.raw,
			"written_bytes", s.written,
			"ratio", float64(s.written)/float64(s.raw)))
	}
	return s.inner.Close()
}

func (s *CompressedSink) Size() int64 { return s.written }

// ReadBlocks decodes a stream written through a CompressedSink back into the
// original blocks.
func ReadBlocks(r io.Reader) ([][]byte, error) {
	var blocks [][]byte
	var header [9]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if err == io.EOF {
				return blocks, nil
			}
			return nil, fmt.Errorf("block header: %w", err)
		}
		codec := Codec(header[0])
		rawLen := binary.LittleEndian.Uint32(header[1:5])
		payloadLen := binary.LittleEndian.Uint32(header[5:9])
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("block payload: %w", err)
		}
		if codec == CodecNone {
			blocks = append(blocks, payload)
			continue
		}
		compressor, err := NewCompressor(codec)
		if err != nil {
			return nil, err
		}
		raw, err := compressor.Decompress(payload)
		if err != nil {
			return nil, fmt.Errorf("block decompression (%s): %w", codec, err)
		}
		if uint32(len(raw)) != rawLen {
			return nil, fmt.Errorf("block length mismatch: header says %d, decompressed %d", rawLen, len(raw))
		}
		blocks = append(blocks, raw)
	}
}
