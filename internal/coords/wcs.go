// Package coords implements the celestial and spectral coordinate descriptor
// attached to images: an orthographic (SIN) tangent-plane projection plus a
// linear frequency axis.
package coords

import (
	"fmt"
	"math"
)

// SpeedOfLight in metres per second.
const SpeedOfLight = 299792458.0

// ProjectionSIN is the only projection understood by WCS.
const ProjectionSIN = "SIN"

// Direction is a position on the sky in radians.
type Direction struct {
	RA  float64
	Dec float64
}

// Degrees builds a Direction from values in degrees.
func Degrees(ra, dec float64) Direction {
	return Direction{RA: ra * math.Pi / 180, Dec: dec * math.Pi / 180}
}

func (d Direction) String() string {
	return fmt.Sprintf("(%.6f°, %.6f°)", d.RA*180/math.Pi, d.Dec*180/math.Pi)
}

// Spectral describes the linear frequency axis of an image cube.
type Spectral struct {
	RefPixel     float64
	RefFrequency float64
	ChannelWidth float64
}

// Channel returns the fractional channel coordinate of freq.
func (s Spectral) Channel(freq float64) float64 {
	return s.RefPixel + (freq-s.RefFrequency)/s.ChannelWidth
}

// Frequency returns the frequency at the centre of channel ch.
func (s Spectral) Frequency(ch float64) float64 {
	return s.RefFrequency + (ch-s.RefPixel)*s.ChannelWidth
}

// WCS is the coordinate descriptor of an image. Pixel indices are zero based,
// x runs along RA and y along Dec.
type WCS struct {
	RefPixel   [2]float64
	RefValue   Direction
	PixelScale [2]float64
	Projection string
	Spectral   Spectral
}

// New returns a SIN descriptor for an npixel x npixel grid centred on centre.
// The RA axis increases to the east so its pixel scale is negative.
func New(centre Direction, npixel int, cellsize float64, spectral Spectral) WCS {
	return WCS{
		RefPixel:   [2]float64{float64(npixel / 2), float64(npixel / 2)},
		RefValue:   centre,
		PixelScale: [2]float64{-cellsize, cellsize},
		Projection: ProjectionSIN,
		Spectral:   spectral,
	}
}

// Valid reports whether the descriptor can be used for imaging.
func (w WCS) Valid() error {
	if w.Projection != ProjectionSIN {
		return fmt.Errorf("unsupported projection %q", w.Projection)
	}
	if w.PixelScale[0] == 0 || w.PixelScale[1] == 0 {
		return fmt.Errorf("pixel scale must be non-zero, got %v", w.PixelScale)
	}
	if w.Spectral.ChannelWidth == 0 {
		return fmt.Errorf("channel width must be non-zero")
	}
	if math.IsNaN(w.RefValue.RA) || math.IsNaN(w.RefValue.Dec) {
		return fmt.Errorf("reference value is not a number")
	}
	return nil
}

// Shift returns the descriptor of a sub-grid whose pixel (0, 0) sits at
// (xoff, yoff) of w. Both grids share the same tangent plane.
func (w WCS) Shift(xoff, yoff int) WCS {
	out := w
	out.RefPixel[0] -= float64(xoff)
	out.RefPixel[1] -= float64(yoff)
	return out
}

// PixelToLM returns the direction cosines of a pixel in the tangent plane.
func (w WCS) PixelToLM(x, y float64) (l, m float64) {
	return (x - w.RefPixel[0]) * w.PixelScale[0], (y - w.RefPixel[1]) * w.PixelScale[1]
}

// LMToPixel is the inverse of PixelToLM.
func (w WCS) LMToPixel(l, m float64) (x, y float64) {
	return l/w.PixelScale[0] + w.RefPixel[0], m/w.PixelScale[1] + w.RefPixel[1]
}

// PixelToWorld returns the sky direction of a pixel.
func (w WCS) PixelToWorld(x, y float64) (Direction, error) {
	l, m := w.PixelToLM(x, y)
	return LMToDirection(l, m, w.RefValue)
}

// WorldToPixel returns the pixel coordinate of a sky direction.
func (w WCS) WorldToPixel(d Direction) (x, y float64, err error) {
	l, m, n := DirectionToLM(d, w.RefValue)
	if n < 0 {
		return 0, 0, fmt.Errorf("direction %s is behind the tangent plane of %s", d, w.RefValue)
	}
	x, y = w.LMToPixel(l, m)
	return x, y, nil
}

// DirectionToLM projects d onto the tangent plane at centre.
func DirectionToLM(d, centre Direction) (l, m, n float64) {
	sinDec, cosDec := math.Sincos(d.Dec)
	sinDec0, cosDec0 := math.Sincos(centre.Dec)
	sinDRA, cosDRA := math.Sincos(d.RA - centre.RA)
	l = cosDec * sinDRA
	m = sinDec*cosDec0 - cosDec*sinDec0*cosDRA
	n = sinDec*sinDec0 + cosDec*cosDec0*cosDRA
	return l, m, n
}

// LMToDirection is the inverse of DirectionToLM for points in front of the
// tangent plane.
func LMToDirection(l, m float64, centre Direction) (Direction, error) {
	r2 := l*l + m*m
	if r2 > 1 {
		return Direction{}, fmt.Errorf("direction cosines (%g, %g) lie outside the unit circle", l, m)
	}
	n := math.Sqrt(1 - r2)
	sinDec0, cosDec0 := math.Sincos(centre.Dec)
	dec := math.Asin(m*cosDec0 + n*sinDec0)
	ra := centre.RA + math.Atan2(l, n*cosDec0-m*sinDec0)
	return Direction{RA: ra, Dec: dec}, nil
}

// N returns the third direction cosine for (l, m). Points outside the unit
// circle have no physical n and yield zero.
func N(l, m float64) float64 {
	r2 := l*l + m*m
	if r2 >= 1 {
		return 0
	}
	return math.Sqrt(1 - r2)
}
