package specgloss

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
)

// mergeableFormats are the formats the kernel reads.
var mergeableFormats = []Format{FormatRGB24, FormatRGB32, FormatARGB32, FormatPARGB32}

// randomBuffer returns a buffer with padded rows and every byte, padding
// included, filled from a fixed seed.
func randomBuffer(t testing.TB, w, h int, f Format, pad int, seed uint64) *PixelBuffer {
	t.Helper()
	buf, err := NewPixelBufferWithStride(w, h, f, f.RowBytes(w)+pad)
	if err != nil {
		t.Fatalf("NewPixelBufferWithStride() error = %v", err)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	data := buf.Data()
	for i := range data {
		data[i] = byte(rng.UintN(256))
	}
	return buf
}

// solidBuffer returns a tight buffer with every pixel set to one color.
func solidBuffer(t testing.TB, w, h int, f Format, r, g, b, a uint8) *PixelBuffer {
	t.Helper()
	buf, err := NewPixelBuffer(w, h, f)
	if err != nil {
		t.Fatalf("NewPixelBuffer() error = %v", err)
	}
	buf.Fill(r, g, b, a)
	return buf
}

// checkEveryPixel fails unless every output pixel has bytes A R G B.
func checkEveryPixel(t *testing.T, out *PixelBuffer, a, r, g, b uint8) {
	t.Helper()
	for y := range out.Height() {
		for x := range out.Width() {
			got := out.PixelBytes(x, y)
			if got[0] != a || got[1] != r || got[2] != g || got[3] != b {
				t.Fatalf("pixel (%d,%d) = %v, want [%d %d %d %d]", x, y, got, a, r, g, b)
			}
		}
	}
}

func TestMerge_SpecularOnlyScenario(t *testing.T) {
	spec := solidBuffer(t, 2, 2, FormatRGB24, 255, 0, 0, 255)

	out, err := Merge(DefaultSpecularColor, spec, 1.0, nil)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if out.Format() != FormatARGB32 {
		t.Errorf("Format() = %v, want ARGB32", out.Format())
	}
	if w, h := out.Bounds(); w != 2 || h != 2 {
		t.Errorf("Bounds() = %dx%d, want 2x2", w, h)
	}
	if out.Stride() != 8 {
		t.Errorf("Stride() = %d, want 8", out.Stride())
	}
	checkEveryPixel(t, out, 255, 255, 0, 0)
}

func TestMerge_GlossinessOnlyScenario(t *testing.T) {
	gloss := solidBuffer(t, 2, 2, FormatRGB24, 128, 7, 9, 255)

	out, err := Merge(ScalarColor{0, 0, 0}, nil, DefaultGlossiness, gloss)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if w, h := out.Bounds(); w != 2 || h != 2 {
		t.Errorf("Bounds() = %dx%d, want 2x2", w, h)
	}
	checkEveryPixel(t, out, 128, 0, 0, 0)
}

func TestMerge_ARGBSpecularIgnoresItsAlpha(t *testing.T) {
	const w, h = 5, 3
	spec := randomBuffer(t, w, h, FormatARGB32, 4, 1)
	gloss := randomBuffer(t, w, h, FormatRGB24, 1, 2)

	out, err := Merge(DefaultSpecularColor, spec, DefaultGlossiness, gloss)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	for y := range h {
		for x := range w {
			sp := spec.PixelBytes(x, y)
			gp := gloss.PixelBytes(x, y)
			got := out.PixelBytes(x, y)
			want := []byte{gp[0], sp[1], sp[2], sp[3]}
			if string(got) != string(want) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestMerge_ARGBGlossinessReadsRed(t *testing.T) {
	// Alpha 0x11, red 0xC8: glossiness must come from red.
	gloss := solidBuffer(t, 3, 2, FormatARGB32, 0xC8, 0x22, 0x33, 0x11)

	out, err := Merge(ScalarColor{1, 0, 0}, nil, 0, gloss)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	checkEveryPixel(t, out, 0xC8, 255, 0, 0)
}

func TestMerge_RGB32IgnoresPadding(t *testing.T) {
	spec, _ := FromRaw([]byte{
		10, 20, 30, 0xFF, 40, 50, 60, 0xAB,
	}, 2, 1, FormatRGB32, 8)

	out, err := Merge(DefaultSpecularColor, spec, 0.5, nil)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	want := []byte{127, 10, 20, 30, 127, 40, 50, 60}
	if got := out.Data(); string(got) != string(want) {
		t.Errorf("Data() = %v, want %v", got, want)
	}
}

func TestMerge_MissingSource(t *testing.T) {
	out, err := Merge(DefaultSpecularColor, nil, DefaultGlossiness, nil)
	if !errors.Is(err, ErrMissingSource) {
		t.Errorf("Merge() error = %v, want ErrMissingSource", err)
	}
	if out != nil {
		t.Error("Merge() returned a buffer on error")
	}

	m := NewMerger()
	defer m.Close()
	if out, err := m.Merge(MergeRequest{}); !errors.Is(err, ErrMissingSource) || out != nil {
		t.Errorf("Merger.Merge() = %v, %v, want nil, ErrMissingSource", out, err)
	}
	if out, err := MergeReference(MergeRequest{}); !errors.Is(err, ErrMissingSource) || out != nil {
		t.Errorf("MergeReference() = %v, %v, want nil, ErrMissingSource", out, err)
	}
}

func TestMerge_FormatUnsupported(t *testing.T) {
	gray := solidBuffer(t, 2, 2, FormatGray8, 100, 100, 100, 255)
	rgb := solidBuffer(t, 2, 2, FormatRGB24, 1, 2, 3, 255)

	tests := []struct {
		name string
		req  MergeRequest
	}{
		{"gray specular only", MergeRequest{SpecularMap: gray}},
		{"gray glossiness only", MergeRequest{GlossinessMap: gray}},
		{"gray specular with map", MergeRequest{SpecularMap: gray, GlossinessMap: rgb}},
		{"gray glossiness with map", MergeRequest{SpecularMap: rgb, GlossinessMap: gray}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Merge(tt.req.SpecularColor, tt.req.SpecularMap, tt.req.Glossiness, tt.req.GlossinessMap)
			if !errors.Is(err, ErrFormatUnsupported) {
				t.Errorf("Merge() error = %v, want ErrFormatUnsupported", err)
			}
			if out != nil {
				t.Error("Merge() returned a buffer on error")
			}

			if _, err := MergeReference(tt.req); !errors.Is(err, ErrFormatUnsupported) {
				t.Errorf("MergeReference() error = %v, want ErrFormatUnsupported", err)
			}
		})
	}
}

func TestMerge_SizeMismatch(t *testing.T) {
	spec := solidBuffer(t, 4, 4, FormatRGB24, 1, 2, 3, 255)
	gloss := solidBuffer(t, 4, 3, FormatRGB24, 1, 2, 3, 255)

	out, err := Merge(DefaultSpecularColor, spec, DefaultGlossiness, gloss)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Merge() error = %v, want ErrSizeMismatch", err)
	}
	if out != nil {
		t.Error("Merge() returned a buffer on error")
	}
}

func TestMergeRequest_Path(t *testing.T) {
	buf := solidBuffer(t, 1, 1, FormatRGB24, 0, 0, 0, 255)

	tests := []struct {
		req  MergeRequest
		want mergePath
	}{
		{MergeRequest{}, pathInvalid},
		{MergeRequest{SpecularMap: buf}, pathSpecularOnly},
		{MergeRequest{GlossinessMap: buf}, pathGlossinessOnly},
		{MergeRequest{SpecularMap: buf, GlossinessMap: buf}, pathBothMaps},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := tt.req.path(); got != tt.want {
				t.Errorf("path() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMerge_MatchesReference checks the row-parallel kernels against the
// per-pixel reference for every format pair, every path, odd sizes and
// padded strides.
func TestMerge_MatchesReference(t *testing.T) {
	sizes := [][2]int{{1, 1}, {7, 5}, {33, 17}}
	color := ScalarColor{R: 0.25, G: 0.5, B: 0.75}
	const gloss = 0.6

	seed := uint64(0)
	for _, size := range sizes {
		w, h := size[0], size[1]
		for _, sf := range mergeableFormats {
			for _, gf := range mergeableFormats {
				seed++
				spec := randomBuffer(t, w, h, sf, 3, seed)
				glossMap := randomBuffer(t, w, h, gf, 5, seed+1000)

				reqs := map[string]MergeRequest{
					"both":       {SpecularColor: color, SpecularMap: spec, Glossiness: gloss, GlossinessMap: glossMap},
					"specular":   {SpecularColor: color, SpecularMap: spec, Glossiness: gloss},
					"glossiness": {SpecularColor: color, Glossiness: gloss, GlossinessMap: glossMap},
				}

				for kind, req := range reqs {
					name := fmt.Sprintf("%dx%d/%s/%s/%s", w, h, sf, gf, kind)
					t.Run(name, func(t *testing.T) {
						want, err := MergeReference(req)
						if err != nil {
							t.Fatalf("MergeReference() error = %v", err)
						}
						for _, opts := range [][]MergeOption{
							{WithWorkers(1)},
							{WithWorkers(3), WithRowsPerTask(1)},
							{WithWorkers(0)},
						} {
							m := NewMerger(opts...)
							got, err := m.Merge(req)
							m.Close()
							if err != nil {
								t.Fatalf("Merge() error = %v", err)
							}
							if string(got.Data()) != string(want.Data()) {
								t.Fatalf("Merge() with %d workers differs from MergeReference", m.Workers())
							}
						}
					})
				}
			}
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	spec := randomBuffer(t, 31, 9, FormatRGB24, 1, 7)
	gloss := randomBuffer(t, 31, 9, FormatPARGB32, 0, 8)

	first, err := Merge(DefaultSpecularColor, spec, DefaultGlossiness, gloss)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	second, err := Merge(DefaultSpecularColor, spec, DefaultGlossiness, gloss)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !first.Equal(second) {
		t.Error("merging the same inputs twice gave different output")
	}
}

func TestMerge_InputsUntouched(t *testing.T) {
	spec := randomBuffer(t, 9, 4, FormatARGB32, 2, 11)
	gloss := randomBuffer(t, 9, 4, FormatRGB32, 2, 12)
	specBefore := string(spec.Clone().Data())
	glossBefore := string(gloss.Clone().Data())

	if _, err := Merge(DefaultSpecularColor, spec, DefaultGlossiness, gloss); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if string(spec.Data()) != specBefore {
		t.Error("specular map modified")
	}
	if string(gloss.Data()) != glossBefore {
		t.Error("glossiness map modified")
	}
}

func TestMerger_ConcurrentUse(t *testing.T) {
	m := NewMerger(WithWorkers(4))
	defer m.Close()

	spec := randomBuffer(t, 64, 48, FormatRGB24, 0, 21)
	gloss := randomBuffer(t, 64, 48, FormatARGB32, 0, 22)
	req := MergeRequest{SpecularMap: spec, GlossinessMap: gloss}
	want, err := MergeReference(req)
	if err != nil {
		t.Fatalf("MergeReference() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Merge(req)
			if err != nil {
				t.Errorf("Merge() error = %v", err)
				return
			}
			if !got.Equal(want) {
				t.Error("concurrent Merge() differs from MergeReference")
			}
		}()
	}
	wg.Wait()
}

func TestMerger_AfterClose(t *testing.T) {
	m := NewMerger(WithWorkers(4))
	m.Close()

	spec := randomBuffer(t, 8, 8, FormatRGB24, 0, 31)
	got, err := m.Merge(MergeRequest{SpecularMap: spec, Glossiness: 1})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want, _ := MergeReference(MergeRequest{SpecularMap: spec, Glossiness: 1})
	if !got.Equal(want) {
		t.Error("Merge() after Close differs from MergeReference")
	}
}

func TestMerger_CloseDuringMerge(t *testing.T) {
	spec := randomBuffer(t, 31, 64, FormatARGB32, 4, 32)
	gloss := randomBuffer(t, 31, 64, FormatRGB24, 0, 33)
	req := MergeRequest{SpecularMap: spec, GlossinessMap: gloss}
	want, err := MergeReference(req)
	if err != nil {
		t.Fatal(err)
	}

	m := NewMerger(WithWorkers(4), WithRowsPerTask(1))

	const callers = 6
	errs := make(chan error, callers*10)
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			for range 10 {
				got, err := m.Merge(req)
				if err != nil {
					errs <- err
					return
				}
				if !got.Equal(want) {
					errs <- errors.New("output differs from MergeReference")
					return
				}
			}
		}()
	}
	m.Close()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestUnitToByte(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{0, 0},
		{1, 255},
		{0.5, 127},
		{0.999, 254},
		{0.999999, 254},
		{0.50196, 127},
		{0.0039, 0},
		{-0.5, 0},
		{2, 255},
		{float32(math.NaN()), 0},
		{float32(math.Inf(1)), 255},
	}

	for _, tt := range tests {
		if got := unitToByte(tt.in); got != tt.want {
			t.Errorf("unitToByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUnitToByte_ByteRoundTrip(t *testing.T) {
	for b := range 256 {
		c := colorFromBytes(uint8(b), uint8(b), uint8(b))
		if r, _, _ := c.Bytes(); r != uint8(b) {
			t.Errorf("Bytes() of %d/255 = %d", b, r)
		}
	}
}

func TestUnitToByte_Floor(t *testing.T) {
	for i := range 100001 {
		v := float32(i) / 100000
		product := v * 255
		want := uint8(math.Floor(float64(product)))
		if got := unitToByte(v); got != want {
			t.Fatalf("unitToByte(%v) = %d, want floor(%v) = %d", v, got, product, want)
		}
	}
}

func TestMerge_GlossinessJustBelowOne(t *testing.T) {
	spec := solidBuffer(t, 2, 2, FormatRGB24, 10, 20, 30, 255)
	out, err := Merge(DefaultSpecularColor, spec, 0.999999, nil)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	checkEveryPixel(t, out, 254, 10, 20, 30)
}

func TestPackARGB(t *testing.T) {
	if got := packARGB(0x80, 0x00112233); got != 0x80112233 {
		t.Errorf("packARGB() = %#08x, want 0x80112233", got)
	}
}
