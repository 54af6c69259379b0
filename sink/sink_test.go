package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	if err := s.Write([]byte("hello ")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte("world")); err != nil {
		t.Fatal(err)
	}
	if string(s.Bytes()) != "hello world" {
		t.Errorf("content = %q", s.Bytes())
	}
	if s.Size() != 11 || s.Stats().Writes != 2 || s.Stats().Bytes != 11 {
		t.Errorf("stats wrong: size=%d %+v", s.Size(), s.Stats())
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "data.bin")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write([]byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "payload" {
		t.Errorf("file content = %q", content)
	}
	if s.Size() != 7 {
		t.Errorf("size = %d", s.Size())
	}
}

func TestCompressedSinkRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("first block with some repetitive text text text text"),
		[]byte(""),
		bytes.Repeat([]byte("abcd"), 1000),
	}

	for _, codec := range []Codec{CodecNone, CodecSnappy, CodecZstd, CodecGzip} {
		t.Run(codec.String(), func(t *testing.T) {
			mem := NewMemorySink()
			cs, err := NewCompressedSink(mem, codec)
			if err != nil {
				t.Fatal(err)
			}
			for _, p := range payloads {
				if err := cs.Write(p); err != nil {
					t.Fatal(err)
				}
			}
			if err := cs.Close(); err != nil {
				t.Fatal(err)
			}

			blocks, err := ReadBlocks(bytes.NewReader(mem.Bytes()))
			if err != nil {
				t.Fatal(err)
			}
			if len(blocks) != len(payloads) {
				t.Fatalf("expected %d blocks, got %d", len(payloads), len(blocks))
			}
			for i, want := range payloads {
				if !bytes.Equal(blocks[i], want) {
					t.Errorf("block %d mismatch: %d bytes vs %d", i, len(blocks[i]), len(want))
				}
			}
			if codec != CodecNone && cs.Size() >= int64(4000+len(payloads[0]))+27 {
				t.Errorf("%s produced no compression on repetitive input: %d bytes", codec, cs.Size())
			}
		})
	}
}

func TestReadBlocksTruncated(t *testing.T) {
	mem := NewMemorySink()
	cs, err := NewCompressedSink(mem, CodecSnappy)
	if err != nil {
		t.Fatal(err)
	}
	if err := cs.Write([]byte("block")); err != nil {
		t.Fatal(err)
	}
	data := mem.Bytes()
	if _, err := ReadBlocks(bytes.NewReader(data[:len(data)-2])); err == nil {
		t.Error("expected an error for a truncated stream")
	}
}

func TestParseCodec(t *testing.T) {
	cases := map[string]Codec{"": CodecNone, "none": CodecNone, "snappy": CodecSnappy, "zstd": CodecZstd, "gzip": CodecGzip}
	for name, want := range cases {
		got, err := ParseCodec(name)
		if err != nil || got != want {
			t.Errorf("ParseCodec(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseCodec("lz77"); err == nil {
		t.Error("expected error for unknown codec")
	}
}
