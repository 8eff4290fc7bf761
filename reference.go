package specgloss

// MergeReference is the straightforward per-pixel merge: one goroutine,
// every pixel read through GetRGBA and written through SetRGBA, columns in
// the outer loop. It accepts and rejects the same requests as Merge and
// produces byte-identical output, so it serves as the oracle the row kernels
// are checked against and as the baseline they are timed against.
func MergeReference(req MergeRequest) (*PixelBuffer, error) {
	p, err := newPlan(req)
	if err != nil {
		return nil, err
	}

	dst, err := NewPixelBuffer(p.width, p.height, FormatARGB32)
	if err != nil {
		return nil, err
	}

	sr, sg, sb := req.SpecularColor.Bytes()
	gloss := unitToByte(req.Glossiness)

	for x := range p.width {
		for y := range p.height {
			a := gloss
			if req.GlossinessMap != nil {
				a, _, _, _ = req.GlossinessMap.GetRGBA(x, y)
			}
			r, g, b := sr, sg, sb
			if req.SpecularMap != nil {
				r, g, b, _ = req.SpecularMap.GetRGBA(x, y)
			}
			_ = dst.SetRGBA(x, y, r, g, b, a)
		}
	}
	return dst, nil
}
