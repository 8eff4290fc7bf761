package specgloss_test

import (
	"fmt"

	"github.com/gogpu/specgloss"
)

func ExampleMerge() {
	// Two RGB24 pixels: red and blue.
	spec, _ := specgloss.FromRaw([]byte{255, 0, 0, 0, 0, 255}, 2, 1, specgloss.FormatRGB24, 6)

	out, err := specgloss.Merge(specgloss.DefaultSpecularColor, spec, 0.5, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out.Format(), out.Data())
	// Output: ARGB32 [127 255 0 0 127 0 0 255]
}

func ExampleParseColor() {
	c, ok := specgloss.ParseColor("CornflowerBlue")
	r, g, b := c.Bytes()
	fmt.Println(ok, r, g, b)
	// Output: true 100 149 237
}
