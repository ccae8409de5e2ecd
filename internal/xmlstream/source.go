package xmlstream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/html/charset"
)

// Compression identifies how a document is encoded on disk
type Compression string

const (
	CompressionAuto Compression = "auto"
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseCompression validates a configured compression name
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionAuto:
		return CompressionAuto, nil
	case CompressionNone, CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported compression: %s (supported: auto, none, gzip, zstd)", s)
	}
}

// Document is an opened input document
type Document struct {
	Path        string
	Compression Compression

	r       io.Reader
	closers []func() error
}

// Read implements io.Reader over the decompressed stream
func (d *Document) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

// Close releases the decompressor and the underlying file
func (d *Document) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Cursor returns a streaming cursor over the document that understands
// non-UTF-8 encodings named in the XML declaration
func (d *Document) Cursor() *Cursor {
	return NewCursor(d, WithCharsetReader(charset.NewReaderLabel))
}

// Open opens path for streaming. With CompressionAuto the file extension is
// consulted first, then the leading magic bytes.
func Open(path string, compression Compression) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	doc, err := wrap(f, path, compression)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	doc.closers = append([]func() error{f.Close}, doc.closers...)
	return doc, nil
}

// wrap layers decompression over r
func wrap(r io.Reader, path string, compression Compression) (*Document, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	if compression == CompressionAuto || compression == "" {
		compression = detect(br, path)
	}

	doc := &Document{Path: path, Compression: compression}
	switch compression {
	case CompressionNone:
		doc.r = br

	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &SyntaxError{Err: fmt.Errorf("gzip: %w", err)}
		}
		doc.r = zr
		doc.closers = append(doc.closers, zr.Close)

	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, &SyntaxError{Err: fmt.Errorf("zstd: %w", err)}
		}
		doc.r = zr
		doc.closers = append(doc.closers, func() error {
			zr.Close()
			return nil
		})

	default:
		return nil, fmt.Errorf("unsupported compression: %s", compression)
	}

	return doc, nil
}

func detect(br *bufio.Reader, path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	}

	head, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	default:
		return CompressionNone
	}
}
