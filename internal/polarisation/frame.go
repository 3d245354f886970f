// Package polarisation names the polarisation bases used by visibilities and
// images and converts complex data between them through Stokes IQUV.
package polarisation

import (
	"fmt"
)

// Frame is a named polarisation basis.
type Frame string

const (
	StokesI    Frame = "stokesI"
	StokesIQUV Frame = "stokesIQUV"
	Linear     Frame = "linear"
	LinearNP   Frame = "linearnp"
	Circular   Frame = "circular"
	CircularNP Frame = "circularnp"
)

// matrices maps each frame to its (toStokes, fromStokes) conversion. toStokes
// is 4 x npol, fromStokes is npol x 4.
var matrices = map[Frame]struct {
	toStokes   [][]complex128
	fromStokes [][]complex128
}{
	StokesI: {
		toStokes:   [][]complex128{{1}, {0}, {0}, {0}},
		fromStokes: [][]complex128{{1, 0, 0, 0}},
	},
	StokesIQUV: {
		toStokes:   identity(4),
		fromStokes: identity(4),
	},
	// XX = I+Q, XY = U+iV, YX = U-iV, YY = I-Q
	Linear: {
		toStokes: [][]complex128{
			{0.5, 0, 0, 0.5},
			{0.5, 0, 0, -0.5},
			{0, 0.5, 0.5, 0},
			{0, -0.5i, 0.5i, 0},
		},
		fromStokes: [][]complex128{
			{1, 1, 0, 0},
			{0, 0, 1, 1i},
			{0, 0, 1, -1i},
			{1, -1, 0, 0},
		},
	},
	LinearNP: {
		toStokes: [][]complex128{
			{0.5, 0.5},
			{0.5, -0.5},
			{0, 0},
			{0, 0},
		},
		fromStokes: [][]complex128{
			{1, 1, 0, 0},
			{1, -1, 0, 0},
		},
	},
	// RR = I+V, RL = Q+iU, LR = Q-iU, LL = I-V
	Circular: {
		toStokes: [][]complex128{
			{0.5, 0, 0, 0.5},
			{0, 0.5, 0.5, 0},
			{0, -0.5i, 0.5i, 0},
			{0.5, 0, 0, -0.5},
		},
		fromStokes: [][]complex128{
			{1, 0, 0, 1},
			{0, 1, 1i, 0},
			{0, 1, -1i, 0},
			{1, 0, 0, -1},
		},
	},
	CircularNP: {
		toStokes: [][]complex128{
			{0.5, 0.5},
			{0, 0},
			{0, 0},
			{0.5, -0.5},
		},
		fromStokes: [][]complex128{
			{1, 0, 0, 1},
			{1, 0, 0, -1},
		},
	},
}

var names = map[Frame][]string{
	StokesI:    {"I"},
	StokesIQUV: {"I", "Q", "U", "V"},
	Linear:     {"XX", "XY", "YX", "YY"},
	LinearNP:   {"XX", "YY"},
	Circular:   {"RR", "RL", "LR", "LL"},
	CircularNP: {"RR", "LL"},
}

func identity(n int) [][]complex128 {
	m := make([][]complex128, n)
	for i := range m {
		m[i] = make([]complex128, n)
		m[i][i] = 1
	}
	return m
}

// Parse returns the frame called name.
func Parse(name string) (Frame, error) {
	f := Frame(name)
	if _, ok := matrices[f]; !ok {
		return "", fmt.Errorf("unknown polarisation frame %q", name)
	}
	return f, nil
}

// Valid reports whether f is a known frame.
func (f Frame) Valid() bool {
	_, ok := matrices[f]
	return ok
}

// NPol returns the number of correlations in the frame, or 0 if unknown.
func (f Frame) NPol() int {
	return len(names[f])
}

// Names returns the correlation labels of the frame.
func (f Frame) Names() []string {
	return append([]string(nil), names[f]...)
}

// Converter maps one polarisation vector from a frame to another.
type Converter struct {
	from, to Frame
	m        [][]complex128
}

// NewConverter prepares the conversion matrix from one frame to another.
func NewConverter(from, to Frame) (*Converter, error) {
	src, ok := matrices[from]
	if !ok {
		return nil, fmt.Errorf("unknown polarisation frame %q", from)
	}
	dst, ok := matrices[to]
	if !ok {
		return nil, fmt.Errorf("unknown polarisation frame %q", to)
	}
	c := &Converter{from: from, to: to}
	if from == to {
		return c, nil
	}
	// m = fromStokes(to) x toStokes(from)
	nOut, nIn := to.NPol(), from.NPol()
	c.m = make([][]complex128, nOut)
	for i := 0; i < nOut; i++ {
		c.m[i] = make([]complex128, nIn)
		for j := 0; j < nIn; j++ {
			var sum complex128
			for k := 0; k < 4; k++ {
				sum += dst.fromStokes[i][k] * src.toStokes[k][j]
			}
			c.m[i][j] = sum
		}
	}
	return c, nil
}

// Identity reports whether the conversion leaves data untouched.
func (c *Converter) Identity() bool { return c.m == nil }

// From returns the source frame.
func (c *Converter) From() Frame { return c.from }

// To returns the destination frame.
func (c *Converter) To() Frame { return c.to }

// Apply converts one polarisation vector. dst must hold To().NPol() values.
func (c *Converter) Apply(dst, src []complex128) {
	if c.m == nil {
		copy(dst, src)
		return
	}
	for i, row := range c.m {
		var sum complex128
		for j, coef := range row {
			sum += coef * src[j]
		}
		dst[i] = sum
	}
}

// Convert converts a (sample, pol) block stored as consecutive polarisation
// vectors. It returns a new slice.
func Convert(data []complex128, from, to Frame) ([]complex128, error) {
	c, err := NewConverter(from, to)
	if err != nil {
		return nil, err
	}
	nIn, nOut := from.NPol(), to.NPol()
	if len(data)%nIn != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %d correlations", len(data), nIn)
	}
	n := len(data) / nIn
	out := make([]complex128, n*nOut)
	for i := 0; i < n; i++ {
		c.Apply(out[i*nOut:(i+1)*nOut], data[i*nIn:(i+1)*nIn])
	}
	return out, nil
}
