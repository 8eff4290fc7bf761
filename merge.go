package specgloss

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/specgloss/internal/parallel"
)

// Merge errors.
var (
	// ErrMissingSource is returned when neither a specular nor a glossiness
	// map is supplied.
	ErrMissingSource = errors.New("specgloss: either specular or glossiness map must be present")

	// ErrFormatUnsupported is returned when a map uses a pixel format the
	// merge kernel cannot read.
	ErrFormatUnsupported = errors.New("specgloss: pixel format not supported")

	// ErrSizeMismatch is returned when both maps are present but differ in
	// width or height.
	ErrSizeMismatch = errors.New("specgloss: specular and glossiness maps differ in size")
)

// Scalar fallbacks used when the caller has nothing better.
var (
	// DefaultSpecularColor is opaque white.
	DefaultSpecularColor = ScalarColor{R: 1, G: 1, B: 1}

	// DefaultGlossiness is fully glossy.
	DefaultGlossiness float32 = 1
)

// ScalarColor is a constant RGB color with channels in [0, 1], used in place
// of an absent specular map.
type ScalarColor struct {
	R, G, B float32
}

// Bytes converts the color to 8-bit channels with floor(v*255).
// Channels are clamped to [0, 1] first.
func (c ScalarColor) Bytes() (r, g, b uint8) {
	return unitToByte(c.R), unitToByte(c.G), unitToByte(c.B)
}

// unitToByte maps [0, 1] to [0, 255] as floor(v*255), computed in float32.
// NaN maps to 0.
func unitToByte(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v * 255)
}

// MergeRequest is the input of one merge: up to two maps plus the scalar
// fallbacks substituted for whichever map is nil. At least one map must be
// present. Maps are only read.
type MergeRequest struct {
	SpecularColor ScalarColor
	SpecularMap   *PixelBuffer
	Glossiness    float32
	GlossinessMap *PixelBuffer
}

// mergePath is the variant chosen from which maps are present.
type mergePath uint8

const (
	pathInvalid mergePath = iota
	pathBothMaps
	pathSpecularOnly
	pathGlossinessOnly
)

func (p mergePath) String() string {
	switch p {
	case pathBothMaps:
		return "both-maps"
	case pathSpecularOnly:
		return "specular-only"
	case pathGlossinessOnly:
		return "glossiness-only"
	default:
		return "invalid"
	}
}

func (r MergeRequest) path() mergePath {
	switch {
	case r.SpecularMap != nil && r.GlossinessMap != nil:
		return pathBothMaps
	case r.SpecularMap != nil:
		return pathSpecularOnly
	case r.GlossinessMap != nil:
		return pathGlossinessOnly
	default:
		return pathInvalid
	}
}

// colorRead selects how three color bytes are pulled out of one source pixel.
type colorRead uint8

const (
	// readBytes takes three consecutive bytes (RGB24 and scalar colors).
	readBytes colorRead = iota
	// readShift drops the trailing padding byte of an R G B X word.
	readShift
	// readMask drops the leading alpha byte of an A R G B word.
	readMask
)

// source is one side of a merge as the row kernel sees it: either a map or a
// single constant pixel. A constant has step 0, so every x reads the same
// bytes and the kernel needs no per-pixel branch on presence.
type source struct {
	buf      *PixelBuffer
	constant []byte
	layout   Layout
	read     colorRead
}

func mapSource(b *PixelBuffer) (source, error) {
	layout, err := Describe(b.Format())
	if err != nil {
		return source{}, err
	}
	read := readBytes
	if layout.BytesPerPixel == 4 {
		read = readShift
		if layout.FirstChannelOffset == 1 {
			read = readMask
		}
	}
	return source{buf: b, layout: layout, read: read}, nil
}

func constantSource(pixel ...byte) source {
	return source{constant: pixel, read: readBytes}
}

// row returns the bytes of row y, or the constant pixel.
func (s source) row(y int) []byte {
	if s.buf == nil {
		return s.constant
	}
	return s.buf.RowBytes(y)
}

// plan is a validated merge ready to run.
type plan struct {
	path          mergePath
	width, height int
	specular      source
	glossiness    source
}

// newPlan validates req and resolves both sides to sources. All errors are
// reported here, before any output is allocated.
func newPlan(req MergeRequest) (plan, error) {
	p := plan{path: req.path()}
	if p.path == pathInvalid {
		return plan{}, ErrMissingSource
	}

	var err error
	if req.SpecularMap != nil {
		if p.specular, err = mapSource(req.SpecularMap); err != nil {
			return plan{}, fmt.Errorf("specgloss: specular map: %w", err)
		}
		p.width, p.height = req.SpecularMap.Bounds()
	} else {
		r, g, b := req.SpecularColor.Bytes()
		p.specular = constantSource(r, g, b)
	}

	if req.GlossinessMap != nil {
		if p.glossiness, err = mapSource(req.GlossinessMap); err != nil {
			return plan{}, fmt.Errorf("specgloss: glossiness map: %w", err)
		}
		w, h := req.GlossinessMap.Bounds()
		if p.path == pathBothMaps && (w != p.width || h != p.height) {
			return plan{}, fmt.Errorf("%w: specular %dx%d, glossiness %dx%d",
				ErrSizeMismatch, p.width, p.height, w, h)
		}
		p.width, p.height = w, h
	} else {
		p.glossiness = constantSource(unitToByte(req.Glossiness))
	}

	return p, nil
}

// Merger packs specular and glossiness inputs into ARGB32 buffers, spreading
// rows over a worker pool. A Merger may be used by several goroutines at once.
// Call Close when done to stop its workers.
type Merger struct {
	pool *parallel.WorkerPool
	opts mergeOptions
}

// NewMerger creates a Merger and starts its workers.
func NewMerger(opts ...MergeOption) *Merger {
	o := defaultMergeOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Merger{
		pool: parallel.NewWorkerPool(o.workers),
		opts: o,
	}
}

// Close stops the Merger's workers. Merges in flight finish normally and
// merges started after Close run on the calling goroutine.
func (m *Merger) Close() {
	m.pool.Close()
}

// Workers returns the number of goroutines rows are spread across.
func (m *Merger) Workers() int {
	return m.pool.Workers()
}

// Merge produces a new ARGB32 buffer whose color comes from the specular map
// (or req.SpecularColor) and whose alpha comes from the first color channel
// of the glossiness map (or req.Glossiness).
//
// It fails with ErrMissingSource when both maps are nil, ErrFormatUnsupported
// when a map has a format the kernel cannot read, and ErrSizeMismatch when
// both maps are present with different dimensions. No buffer is returned on
// error.
func (m *Merger) Merge(req MergeRequest) (*PixelBuffer, error) {
	p, err := newPlan(req)
	if err != nil {
		return nil, err
	}

	dst, err := NewPixelBuffer(p.width, p.height, FormatARGB32)
	if err != nil {
		return nil, err
	}

	Logger().Debug("specgloss: merge",
		"path", p.path,
		"width", p.width,
		"height", p.height,
		"workers", m.pool.Workers())

	m.pool.ForRows(p.height, m.opts.rowsPerTask, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			packRow(dst.RowBytes(y), p.width,
				p.specular.row(y), p.specular.layout.BytesPerPixel, p.specular.read,
				p.glossiness.row(y), p.glossiness.layout.BytesPerPixel, p.glossiness.layout.FirstChannelOffset)
		}
	})

	return dst, nil
}

// Merge packs one request with a Merger that lives only for this call.
// See (*Merger).Merge for the semantics and errors.
func Merge(specularColor ScalarColor, specularMap *PixelBuffer, glossiness float32, glossinessMap *PixelBuffer, opts ...MergeOption) (*PixelBuffer, error) {
	req := MergeRequest{
		SpecularColor: specularColor,
		SpecularMap:   specularMap,
		Glossiness:    glossiness,
		GlossinessMap: glossinessMap,
	}
	if _, err := newPlan(req); err != nil {
		return nil, err
	}

	m := NewMerger(opts...)
	defer m.Close()
	return m.Merge(req)
}

// packRow fills one ARGB32 output row. spec and gloss are whole source rows;
// a step of 0 repeats the same pixel for every x. Alpha is the gloss byte at
// glossOff within each pixel.
func packRow(dst []byte, width int, spec []byte, specStep int, read colorRead, gloss []byte, glossStep, glossOff int) {
	switch read {
	case readShift:
		for x := range width {
			rgb := binary.BigEndian.Uint32(spec[x*specStep:]) >> 8
			binary.BigEndian.PutUint32(dst[x*4:], packARGB(gloss[x*glossStep+glossOff], rgb))
		}
	case readMask:
		for x := range width {
			rgb := binary.BigEndian.Uint32(spec[x*specStep:]) & 0x00FFFFFF
			binary.BigEndian.PutUint32(dst[x*4:], packARGB(gloss[x*glossStep+glossOff], rgb))
		}
	default:
		for x := range width {
			s := x * specStep
			rgb := uint32(spec[s])<<16 | uint32(spec[s+1])<<8 | uint32(spec[s+2])
			binary.BigEndian.PutUint32(dst[x*4:], packARGB(gloss[x*glossStep+glossOff], rgb))
		}
	}
}

// packARGB combines an alpha byte with a 0x00RRGGBB color.
func packARGB(a byte, rgb uint32) uint32 {
	return uint32(a)<<24 | rgb
}
