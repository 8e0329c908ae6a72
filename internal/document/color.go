package document

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor reads a CSS color: #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(),
// rgba(), a named color or "transparent".
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return color.NRGBA{}, false
	case s == "transparent":
		return color.NRGBA{}, true
	case s[0] == '#':
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFuncColor(s)
	}
	c, ok := colornames.Map[s]
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, ok
}

// ValidColor reports whether s is a color ParseColor understands.
func ValidColor(s string) bool {
	_, ok := ParseColor(s)
	return ok
}

func parseHexColor(h string) (color.NRGBA, bool) {
	switch len(h) {
	case 3, 4:
		var b strings.Builder
		for _, r := range h {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		h = b.String()
	case 6, 8:
	default:
		return color.NRGBA{}, false
	}
	if len(h) == 6 {
		h += "ff"
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}

func parseFuncColor(s string) (color.NRGBA, bool) {
	var body string
	var want int
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		body, want = s[len("rgba("):len(s)-1], 4
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		body, want = s[len("rgb("):len(s)-1], 3
	default:
		return color.NRGBA{}, false
	}
	parts := strings.Split(body, ",")
	if len(parts) != want {
		return color.NRGBA{}, false
	}
	var ch [4]uint8
	ch[3] = 255
	for i, part := range parts {
		part = strings.TrimSpace(part)
		scale := 255.0
		if i == 3 {
			scale = 1
		}
		if strings.HasSuffix(part, "%") {
			part = strings.TrimSuffix(part, "%")
			scale = 100
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil || f < 0 || f > scale {
			return color.NRGBA{}, false
		}
		ch[i] = uint8(f/scale*255 + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}
