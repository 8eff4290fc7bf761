package specgloss

import "fmt"

// Format represents a pixel storage format.
//
// Byte order within one pixel, in increasing address order:
//
//	FormatRGB24    R G B
//	FormatRGB32    R G B X   (X is padding)
//	FormatARGB32   A R G B
//	FormatPARGB32  A R G B   (color premultiplied by alpha)
//	FormatGray8    Y
type Format uint8

const (
	// FormatRGB24 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB24 Format = iota

	// FormatRGB32 is 32-bit RGB with an unused padding byte (4 bytes per pixel).
	FormatRGB32

	// FormatARGB32 is 32-bit ARGB with straight alpha (4 bytes per pixel).
	// Merge always produces this format.
	FormatARGB32

	// FormatPARGB32 is 32-bit ARGB with premultiplied alpha (4 bytes per pixel).
	FormatPARGB32

	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	// Buffers may hold it but the merge kernel rejects it.
	FormatGray8

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool

	// IsPremultiplied indicates if alpha is premultiplied.
	IsPremultiplied bool

	// Mergeable reports whether the merge kernel can read this format.
	Mergeable bool

	// FirstChannelOffset is the byte offset of the red (or only) channel.
	FirstChannelOffset int
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatRGB24: {
		BytesPerPixel: 3,
		Mergeable:     true,
	},
	FormatRGB32: {
		BytesPerPixel: 4,
		Mergeable:     true,
	},
	FormatARGB32: {
		BytesPerPixel:      4,
		HasAlpha:           true,
		Mergeable:          true,
		FirstChannelOffset: 1,
	},
	FormatPARGB32: {
		BytesPerPixel:      4,
		HasAlpha:           true,
		IsPremultiplied:    true,
		Mergeable:          true,
		FirstChannelOffset: 1,
	},
	FormatGray8: {
		BytesPerPixel: 1,
	},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// IsPremultiplied returns true if alpha is premultiplied.
func (f Format) IsPremultiplied() bool {
	return f.Info().IsPremultiplied
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatRGB24:
		return "RGB24"
	case FormatRGB32:
		return "RGB32"
	case FormatARGB32:
		return "ARGB32"
	case FormatPARGB32:
		return "PARGB32"
	case FormatGray8:
		return "Gray8"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Layout is the addressing information the merge kernel needs for one format.
type Layout struct {
	// BytesPerPixel is the distance between two horizontally adjacent pixels.
	BytesPerPixel int

	// FirstChannelOffset is where red starts inside a pixel. For ARGB layouts
	// this skips the alpha byte, so glossiness stored in red is read instead
	// of the container's own alpha.
	FirstChannelOffset int
}

// Describe returns the merge layout of f, or an error wrapping
// ErrFormatUnsupported if the kernel cannot read it.
func Describe(f Format) (Layout, error) {
	info := f.Info()
	if !info.Mergeable {
		return Layout{}, fmt.Errorf("%w: %s", ErrFormatUnsupported, f)
	}
	return Layout{
		BytesPerPixel:      info.BytesPerPixel,
		FirstChannelOffset: info.FirstChannelOffset,
	}, nil
}
