package specgloss

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"
)

// ParseColor parses a specular fallback color. It accepts "#rgb", "#rrggbb"
// (the '#' is optional) and SVG 1.1 color names in any case, e.g. "Red".
//
// ParseColor never fails hard: malformed input is logged at Warn level and
// reported with ok == false so the caller can substitute
// DefaultSpecularColor. Empty input returns ok == false without logging.
func ParseColor(s string) (c ScalarColor, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ScalarColor{}, false
	}

	// A Caser is stateful, so each call gets its own.
	if rgb, found := colornames.Map[cases.Fold().String(s)]; found {
		return colorFromBytes(rgb.R, rgb.G, rgb.B), true
	}
	if c, ok = parseHexColor(s); ok {
		return c, true
	}

	Logger().Warn("specgloss: unable to parse specular color", "value", s)
	return ScalarColor{}, false
}

// ParseGlossiness parses a glossiness fallback in [0, 1].
//
// Like ParseColor it logs malformed or out-of-range input at Warn level and
// returns ok == false so the caller can substitute DefaultGlossiness.
func ParseGlossiness(s string) (g float32, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 32)
	if err != nil || math.IsNaN(v) || v < 0 || v > 1 {
		Logger().Warn("specgloss: unable to parse glossiness", "value", s)
		return 0, false
	}
	return float32(v), true
}

// ColorOrDefault returns the parsed color, or DefaultSpecularColor.
func ColorOrDefault(s string) ScalarColor {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return DefaultSpecularColor
}

// GlossinessOrDefault returns the parsed glossiness, or DefaultGlossiness.
func GlossinessOrDefault(s string) float32 {
	if g, ok := ParseGlossiness(s); ok {
		return g
	}
	return DefaultGlossiness
}

func colorFromBytes(r, g, b uint8) ScalarColor {
	return ScalarColor{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
	}
}

// parseHexColor handles "rgb" and "rrggbb" with an optional leading '#'.
func parseHexColor(s string) (ScalarColor, bool) {
	s = strings.TrimPrefix(s, "#")

	var v [3]uint8
	switch len(s) {
	case 3:
		for i := range 3 {
			n, ok := hexNibble(s[i])
			if !ok {
				return ScalarColor{}, false
			}
			v[i] = n * 17
		}
	case 6:
		for i := range 3 {
			hi, ok1 := hexNibble(s[2*i])
			lo, ok2 := hexNibble(s[2*i+1])
			if !ok1 || !ok2 {
				return ScalarColor{}, false
			}
			v[i] = hi<<4 | lo
		}
	default:
		return ScalarColor{}, false
	}
	return colorFromBytes(v[0], v[1], v[2]), true
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
