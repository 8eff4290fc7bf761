// Package specgloss packs specular-glossiness material textures.
//
// # Overview
//
// A specular map (RGB) and a glossiness map (one channel) are merged into a
// single ARGB32 texture: RGB carries the specular color and alpha carries the
// glossiness. Either map may be absent, in which case a scalar fallback
// (a constant color or a constant glossiness) fills its channels.
//
// # Quick Start
//
//	spec, err := specgloss.LoadMap("metal_Specular.png")
//	if err != nil {
//	    return err
//	}
//	out, err := specgloss.Merge(specgloss.DefaultSpecularColor, spec, 0.8, nil)
//	if err != nil {
//	    return err
//	}
//	return out.SavePNG("metal_SpecGloss.png")
//
// # Pixel Formats
//
// Inputs may be RGB24, RGB32, ARGB32 or PARGB32 (see Format for the byte
// layouts). Glossiness is read from the red byte of the glossiness map, also
// for ARGB containers whose alpha byte comes first. Any other format fails
// with ErrFormatUnsupported.
//
// # Concurrency
//
// Rows are independent, so a Merger spreads contiguous row ranges over a
// worker pool. Each range writes only its own output rows; source maps are
// only read and may be shared by concurrent merges.
package specgloss
