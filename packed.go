package specgloss

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Packed texture container.
//
// A packed file stores one PixelBuffer without row padding:
//
//	offset  size  field
//	0       4     magic "SGPK"
//	4       1     version (1)
//	5       1     Format
//	6       4     width, big-endian
//	10      4     height, big-endian
//	14      ...   zstd stream of height rows, width*BytesPerPixel bytes each
const (
	packedMagic      = "SGPK"
	packedVersion    = 1
	packedHeaderSize = 14

	// maxPackedDimension bounds width and height read from a header.
	maxPackedDimension = 1 << 16
)

// ErrPackedHeader is returned when a packed stream has a malformed header.
var ErrPackedHeader = errors.New("specgloss: invalid packed header")

// EncodePacked writes the buffer to w in the packed container format.
func (b *PixelBuffer) EncodePacked(w io.Writer) error {
	if b.width > maxPackedDimension || b.height > maxPackedDimension {
		return fmt.Errorf("%w: dimensions %dx%d exceed %d",
			ErrPackedHeader, b.width, b.height, maxPackedDimension)
	}

	var hdr [packedHeaderSize]byte
	copy(hdr[:4], packedMagic)
	hdr[4] = packedVersion
	hdr[5] = byte(b.format)
	binary.BigEndian.PutUint32(hdr[6:], uint32(b.width))
	binary.BigEndian.PutUint32(hdr[10:], uint32(b.height))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("specgloss: write packed header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("specgloss: zstd writer: %w", err)
	}
	for y := range b.height {
		if _, err := enc.Write(b.RowBytes(y)); err != nil {
			_ = enc.Close()
			return fmt.Errorf("specgloss: write packed rows: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("specgloss: finish packed rows: %w", err)
	}
	return nil
}

// DecodePacked reads a buffer written by EncodePacked. The result has a
// tight stride.
func DecodePacked(r io.Reader) (*PixelBuffer, error) {
	var hdr [packedHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("specgloss: read packed header: %w", err)
	}
	if string(hdr[:4]) != packedMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrPackedHeader, hdr[:4])
	}
	if hdr[4] != packedVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrPackedHeader, hdr[4])
	}

	format := Format(hdr[5])
	width := binary.BigEndian.Uint32(hdr[6:])
	height := binary.BigEndian.Uint32(hdr[10:])
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrPackedHeader, format)
	}
	if width == 0 || height == 0 || width > maxPackedDimension || height > maxPackedDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrPackedHeader, width, height)
	}

	// The header size is only an upper bound; data grows as rows decompress.
	rowBytes := format.RowBytes(int(width))
	want := int64(rowBytes) * int64(height)

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("specgloss: zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(io.LimitReader(dec, want))
	if err != nil {
		return nil, fmt.Errorf("specgloss: read packed rows: %w", err)
	}
	if int64(len(data)) != want {
		return nil, fmt.Errorf("specgloss: read packed rows: %w (%d of %d bytes)",
			io.ErrUnexpectedEOF, len(data), want)
	}

	return FromRaw(data, int(width), int(height), format, rowBytes)
}

// SavePacked writes the buffer to path in the packed container format.
func (b *PixelBuffer) SavePacked(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("specgloss: create file: %w", err)
	}

	if err := b.EncodePacked(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// LoadPacked reads a packed container file.
func LoadPacked(path string) (*PixelBuffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("specgloss: open packed: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodePacked(f)
}
