package specgloss

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder.
	_ "image/jpeg" // Register JPEG decoder.
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"  // Register BMP decoder.
	_ "golang.org/x/image/tiff" // Register TIFF decoder.
	_ "golang.org/x/image/webp" // Register WebP decoder.
)

// LoadMap reads and decodes a specular or glossiness map from path.
// PNG, JPEG, GIF, BMP, TIFF and WebP are detected from content; TGA, which
// has no signature, is selected by the ".tga" extension.
func LoadMap(path string) (*PixelBuffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("specgloss: open map: %w", err)
	}
	defer func() { _ = f.Close() }()

	if strings.EqualFold(filepath.Ext(path), ".tga") {
		img, err := tga.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("specgloss: decode TGA %s: %w", path, err)
		}
		return FromStdImage(img), nil
	}

	buf, err := DecodeMap(f)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return buf, nil
}

// DecodeMap decodes a map from r, auto-detecting the format.
func DecodeMap(r io.Reader) (*PixelBuffer, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("specgloss: decode map: %w", err)
	}
	Logger().Debug("specgloss: decoded map",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return FromStdImage(img), nil
}

// FromStdImage copies a standard library image into a PixelBuffer.
//
// Fully opaque images become RGB24. Otherwise *image.RGBA keeps its
// premultiplied bytes as PARGB32 and everything else is converted to
// straight-alpha ARGB32.
func FromStdImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if g, ok := img.(*image.Gray); ok {
		buf, _ := NewPixelBuffer(width, height, FormatRGB24)
		for y := range height {
			src := g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			dst := buf.RowBytes(y)
			for x := range width {
				v := src[x]
				dst[x*3], dst[x*3+1], dst[x*3+2] = v, v, v
			}
		}
		return buf
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		buf, _ := NewPixelBuffer(width, height, FormatRGB24)
		for y := range height {
			dst := buf.RowBytes(y)
			for x := range width {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				// RGBA() returns 16-bit values; the high byte is the 8-bit value.
				dst[x*3], dst[x*3+1], dst[x*3+2] = byte(r>>8), byte(g>>8), byte(b>>8)
			}
		}
		return buf
	}

	if rgba, ok := img.(*image.RGBA); ok {
		buf, _ := NewPixelBuffer(width, height, FormatPARGB32)
		for y := range height {
			src := rgba.Pix[rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			copyRGBAToARGB(buf.RowBytes(y), src, width)
		}
		return buf
	}

	buf, _ := NewPixelBuffer(width, height, FormatARGB32)
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range height {
			src := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			copyRGBAToARGB(buf.RowBytes(y), src, width)
		}
		return buf
	}

	for y := range height {
		for x := range width {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			_ = buf.SetRGBA(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return buf
}

// copyRGBAToARGB moves width pixels from R G B A order to A R G B order.
func copyRGBAToARGB(dst, src []byte, width int) {
	for x := range width {
		s, d := x*4, x*4
		dst[d] = src[s+3]
		dst[d+1] = src[s]
		dst[d+2] = src[s+1]
		dst[d+3] = src[s+2]
	}
}

// ToStdImage converts the buffer to a standard library image.
// ARGB32 and opaque formats become *image.NRGBA, PARGB32 becomes
// *image.RGBA and Gray8 becomes *image.Gray.
func (b *PixelBuffer) ToStdImage() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)

	switch b.format {
	case FormatGray8:
		gray := image.NewGray(rect)
		for y := range b.height {
			copy(gray.Pix[y*gray.Stride:], b.RowBytes(y))
		}
		return gray

	case FormatPARGB32:
		rgba := image.NewRGBA(rect)
		b.copyToRGBA(rgba.Pix, rgba.Stride)
		return rgba

	default:
		nrgba := image.NewNRGBA(rect)
		b.copyToRGBA(nrgba.Pix, nrgba.Stride)
		return nrgba
	}
}

// copyToRGBA writes every pixel in R G B A byte order.
func (b *PixelBuffer) copyToRGBA(pix []byte, stride int) {
	for y := range b.height {
		dst := pix[y*stride:]
		for x := range b.width {
			r, g, bl, a := b.GetRGBA(x, y)
			d := x * 4
			dst[d], dst[d+1], dst[d+2], dst[d+3] = r, g, bl, a
		}
	}
}

// EncodePNG encodes the buffer as PNG to the given writer.
func (b *PixelBuffer) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, b.ToStdImage()); err != nil {
		return fmt.Errorf("specgloss: encode PNG: %w", err)
	}
	return nil
}

// SavePNG saves the buffer as a PNG file.
func (b *PixelBuffer) SavePNG(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("specgloss: create file: %w", err)
	}

	if err := b.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
