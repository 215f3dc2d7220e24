package render

import (
	"math"
	"strconv"
	"strings"
)

// Vec is a screen position.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EdgePath returns the SVG path data of an edge from -> to.
//
// Endpoints nearly level on the sibling axis (screen y) get a straight
// segment; all others get a horizontal-tangent cubic curve. Either way the
// end is pulled back by offset along the depth axis so the arrowhead is
// not hidden under the target node.
func EdgePath(from, to Vec, offset, epsilon float64) string {
	end := to.X - offset
	if to.X < from.X {
		end = to.X + offset
	}

	var b strings.Builder
	b.WriteString("M")
	writePoint(&b, from.X, from.Y)
	if math.Abs(from.Y-to.Y) < epsilon {
		b.WriteString("L")
		writePoint(&b, end, to.Y)
		return b.String()
	}
	mid := (from.X + end) / 2
	b.WriteString("C")
	writePoint(&b, mid, from.Y)
	b.WriteString(" ")
	writePoint(&b, mid, to.Y)
	b.WriteString(" ")
	writePoint(&b, end, to.Y)
	return b.String()
}

func writePoint(b *strings.Builder, x, y float64) {
	b.WriteString(Num(x))
	b.WriteString(",")
	b.WriteString(Num(y))
}

// Num formats a coordinate with at most two decimals and no trailing zeros.
func Num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
