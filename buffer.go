package specgloss

import (
	"bytes"
	"errors"
)

// Buffer errors.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("specgloss: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("specgloss: invalid format")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("specgloss: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("specgloss: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("specgloss: coordinates out of bounds")
)

// PixelBuffer is a rectangular grid of pixels stored row-major in a
// contiguous byte slice. Rows are Stride bytes apart, which may be more than
// Width*BytesPerPixel when rows carry alignment padding.
//
// Thread safety: PixelBuffer is safe for concurrent read access. Writers
// must partition the buffer by row or synchronize externally.
type PixelBuffer struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// NewPixelBuffer creates a zeroed buffer with a tight stride.
func NewPixelBuffer(width, height int, format Format) (*PixelBuffer, error) {
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	return NewPixelBufferWithStride(width, height, format, format.RowBytes(width))
}

// NewPixelBufferWithStride creates a zeroed buffer with custom row padding.
// Stride must be at least format.RowBytes(width).
func NewPixelBufferWithStride(width, height int, format Format, stride int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if stride < format.RowBytes(width) {
		return nil, ErrInvalidStride
	}

	return &PixelBuffer{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// FromRaw wraps existing pixel data without copying.
// The caller must ensure data remains valid for the lifetime of the buffer.
// The last row may omit its trailing padding.
func FromRaw(data []byte, width, height int, format Format, stride int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	rowBytes := format.RowBytes(width)
	if stride < rowBytes {
		return nil, ErrInvalidStride
	}

	required := (height-1)*stride + rowBytes
	if len(data) < required {
		return nil, ErrDataTooSmall
	}
	if len(data) > height*stride {
		data = data[:height*stride]
	}

	return &PixelBuffer{
		data:   data,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// Clone creates a deep copy of the buffer.
func (b *PixelBuffer) Clone() *PixelBuffer {
	newData := make([]byte, len(b.data))
	copy(newData, b.data)

	return &PixelBuffer{
		data:   newData,
		width:  b.width,
		height: b.height,
		stride: b.stride,
		format: b.format,
	}
}

// Width returns the image width in pixels.
func (b *PixelBuffer) Width() int {
	return b.width
}

// Height returns the image height in pixels.
func (b *PixelBuffer) Height() int {
	return b.height
}

// Stride returns the number of bytes per row (including padding).
func (b *PixelBuffer) Stride() int {
	return b.stride
}

// Format returns the pixel format.
func (b *PixelBuffer) Format() Format {
	return b.format
}

// Bounds returns the image dimensions as (width, height).
func (b *PixelBuffer) Bounds() (int, int) {
	return b.width, b.height
}

// Data returns the raw pixel data slice, padding included.
func (b *PixelBuffer) Data() []byte {
	return b.data
}

// RowBytes returns the pixel bytes of row y without trailing padding.
// Returns nil if y is out of bounds.
func (b *PixelBuffer) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	return b.data[start : start+b.format.RowBytes(b.width)]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *PixelBuffer) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*b.format.BytesPerPixel()
}

// PixelBytes returns a slice of the raw bytes for pixel (x, y).
// Returns nil if coordinates are out of bounds.
func (b *PixelBuffer) PixelBytes(x, y int) []byte {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return nil
	}
	return b.data[offset : offset+b.format.BytesPerPixel()]
}

// GetRGBA returns the stored bytes of pixel (x, y) as (r, g, b, a).
// Premultiplied pixels are returned as stored. Formats without alpha report
// a=255; Gray8 reports r=g=b=gray.
// Returns (0,0,0,0) if coordinates are out of bounds.
func (b *PixelBuffer) GetRGBA(x, y int) (r, g, bl, a uint8) {
	pixel := b.PixelBytes(x, y)
	if pixel == nil {
		return 0, 0, 0, 0
	}

	switch b.format {
	case FormatRGB24, FormatRGB32:
		return pixel[0], pixel[1], pixel[2], 255
	case FormatARGB32, FormatPARGB32:
		return pixel[1], pixel[2], pixel[3], pixel[0]
	case FormatGray8:
		v := pixel[0]
		return v, v, v, 255
	default:
		return 0, 0, 0, 0
	}
}

// SetRGBA stores (r, g, b, a) at pixel (x, y) without any conversion.
// Alpha is dropped for formats without it; Gray8 stores the luminance.
// Returns ErrOutOfBounds if coordinates are outside image bounds.
func (b *PixelBuffer) SetRGBA(x, y int, r, g, bl, a uint8) error {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return ErrOutOfBounds
	}

	switch b.format {
	case FormatRGB24:
		b.data[offset] = r
		b.data[offset+1] = g
		b.data[offset+2] = bl
	case FormatRGB32:
		b.data[offset] = r
		b.data[offset+1] = g
		b.data[offset+2] = bl
		b.data[offset+3] = 0
	case FormatARGB32, FormatPARGB32:
		b.data[offset] = a
		b.data[offset+1] = r
		b.data[offset+2] = g
		b.data[offset+3] = bl
	case FormatGray8:
		// Standard luminance: 0.299*R + 0.587*G + 0.114*B
		b.data[offset] = byte((int(r)*299 + int(g)*587 + int(bl)*114) / 1000)
	}
	return nil
}

// Fill sets all pixels to the given color.
func (b *PixelBuffer) Fill(r, g, bl, a uint8) {
	for y := range b.height {
		for x := range b.width {
			_ = b.SetRGBA(x, y, r, g, bl, a)
		}
	}
}

// Equal reports whether two buffers have the same dimensions, format and
// pixel bytes. Row padding is not compared.
func (b *PixelBuffer) Equal(other *PixelBuffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.width != other.width || b.height != other.height || b.format != other.format {
		return false
	}
	for y := range b.height {
		if !bytes.Equal(b.RowBytes(y), other.RowBytes(y)) {
			return false
		}
	}
	return true
}

// ByteSize returns the total size of the image data in bytes.
func (b *PixelBuffer) ByteSize() int {
	return len(b.data)
}
