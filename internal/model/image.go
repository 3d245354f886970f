// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the real and complex image containers.

package model

import (
	"fmt"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/imgerr"
	"github.com/vk/skygrid/internal/polarisation"
)

// Image is a (channel, polarisation, y, x) cube stored in row-major order.
type Image struct {
	NChan, NPol, NY, NX int
	Data                []float64
	WCS                 coords.WCS
	Frame               polarisation.Frame
}

// NewImage allocates a zero-valued image.
func NewImage(nchan, ny, nx int, wcs coords.WCS, frame polarisation.Frame) *Image {
	npol := frame.NPol()
	return &Image{
		NChan: nchan, NPol: npol, NY: ny, NX: nx,
		Data:  make([]float64, nchan*npol*ny*nx),
		WCS:   wcs,
		Frame: frame,
	}
}

// Index returns the offset of a pixel in Data.
func (im *Image) Index(c, p, y, x int) int {
	return ((c*im.NPol+p)*im.NY+y)*im.NX + x
}

// At returns a pixel value.
func (im *Image) At(c, p, y, x int) float64 { return im.Data[im.Index(c, p, y, x)] }

// Set stores a pixel value.
func (im *Image) Set(c, p, y, x int, v float64) { im.Data[im.Index(c, p, y, x)] = v }

// Plane returns the (y, x) slice for channel c and polarisation p. The slice
// aliases Data.
func (im *Image) Plane(c, p int) []float64 {
	start := im.Index(c, p, 0, 0)
	return im.Data[start : start+im.NY*im.NX]
}

// Centre returns the pixel used as the tangent point of the grid.
func (im *Image) Centre() (x, y int) { return im.NX / 2, im.NY / 2 }

// IsCanonical checks the axis layout, the coordinate descriptor and the
// polarisation frame.
func (im *Image) IsCanonical() error {
	const op = "image"
	if im == nil {
		return imgerr.Configurationf(op, "image is nil")
	}
	if im.NChan <= 0 || im.NPol <= 0 || im.NY <= 0 || im.NX <= 0 {
		return imgerr.Configurationf(op, "non-positive shape (%d, %d, %d, %d)", im.NChan, im.NPol, im.NY, im.NX)
	}
	if len(im.Data) != im.NChan*im.NPol*im.NY*im.NX {
		return imgerr.Configurationf(op, "data length %d does not match shape (%d, %d, %d, %d)", len(im.Data), im.NChan, im.NPol, im.NY, im.NX)
	}
	if err := im.WCS.Valid(); err != nil {
		return imgerr.Wrap(imgerr.ErrConfiguration, op, err)
	}
	if !im.Frame.Valid() {
		return imgerr.Configurationf(op, "unknown polarisation frame %q", im.Frame)
	}
	if im.Frame.NPol() != im.NPol {
		return imgerr.Configurationf(op, "frame %s has %d correlations, image has %d", im.Frame, im.Frame.NPol(), im.NPol)
	}
	return nil
}

// Copy returns a deep copy.
func (im *Image) Copy() *Image {
	out := *im
	out.Data = append([]float64(nil), im.Data...)
	return &out
}

// ZeroLike returns a zero-valued image with the same shape and coordinates.
func (im *Image) ZeroLike() *Image {
	out := *im
	out.Data = make([]float64, len(im.Data))
	return &out
}

// Region copies the nx x ny window whose first pixel is (xoff, yoff). The
// window keeps the tangent plane of the parent.
func (im *Image) Region(xoff, yoff, nx, ny int) (*Image, error) {
	if xoff < 0 || yoff < 0 || nx <= 0 || ny <= 0 || xoff+nx > im.NX || yoff+ny > im.NY {
		return nil, fmt.Errorf("region (%d, %d) size %dx%d exceeds image %dx%d", xoff, yoff, nx, ny, im.NX, im.NY)
	}
	out := &Image{
		NChan: im.NChan, NPol: im.NPol, NY: ny, NX: nx,
		Data:  make([]float64, im.NChan*im.NPol*ny*nx),
		WCS:   im.WCS.Shift(xoff, yoff),
		Frame: im.Frame,
	}
	for c := 0; c < im.NChan; c++ {
		for p := 0; p < im.NPol; p++ {
			for y := 0; y < ny; y++ {
				src := im.Index(c, p, yoff+y, xoff)
				copy(out.Data[out.Index(c, p, y, 0):out.Index(c, p, y, 0)+nx], im.Data[src:src+nx])
			}
		}
	}
	return out, nil
}

// AddRegion adds a window produced by Region back at (xoff, yoff).
func (im *Image) AddRegion(region *Image, xoff, yoff int) error {
	if region.NChan != im.NChan || region.NPol != im.NPol {
		return fmt.Errorf("region has %d channels and %d polarisations, image has %d and %d", region.NChan, region.NPol, im.NChan, im.NPol)
	}
	if xoff < 0 || yoff < 0 || xoff+region.NX > im.NX || yoff+region.NY > im.NY {
		return fmt.Errorf("region at (%d, %d) size %dx%d exceeds image %dx%d", xoff, yoff, region.NX, region.NY, im.NX, im.NY)
	}
	for c := 0; c < im.NChan; c++ {
		for p := 0; p < im.NPol; p++ {
			for y := 0; y < region.NY; y++ {
				dst := im.Index(c, p, yoff+y, xoff)
				src := region.Index(c, p, y, 0)
				for x := 0; x < region.NX; x++ {
					im.Data[dst+x] += region.Data[src+x]
				}
			}
		}
	}
	return nil
}

// ComplexImage is the complex-valued cube exchanged with gridding kernels.
type ComplexImage struct {
	NChan, NPol, NY, NX int
	Data                []complex128
	WCS                 coords.WCS
	Frame               polarisation.Frame
}

// NewComplexLike allocates a zero complex cube shaped like im.
func NewComplexLike(im *Image) *ComplexImage {
	return &ComplexImage{
		NChan: im.NChan, NPol: im.NPol, NY: im.NY, NX: im.NX,
		Data:  make([]complex128, len(im.Data)),
		WCS:   im.WCS,
		Frame: im.Frame,
	}
}

// ToComplex promotes a real image.
func ToComplex(im *Image) *ComplexImage {
	out := NewComplexLike(im)
	for i, v := range im.Data {
		out.Data[i] = complex(v, 0)
	}
	return out
}

// Index returns the offset of a pixel in Data.
func (ci *ComplexImage) Index(c, p, y, x int) int {
	return ((c*ci.NPol+p)*ci.NY+y)*ci.NX + x
}

// Plane returns the (y, x) slice for channel c and polarisation p.
func (ci *ComplexImage) Plane(c, p int) []complex128 {
	start := ci.Index(c, p, 0, 0)
	return ci.Data[start : start+ci.NY*ci.NX]
}

// Real drops the imaginary part.
func (ci *ComplexImage) Real() *Image {
	out := &Image{
		NChan: ci.NChan, NPol: ci.NPol, NY: ci.NY, NX: ci.NX,
		Data:  make([]float64, len(ci.Data)),
		WCS:   ci.WCS,
		Frame: ci.Frame,
	}
	for i, v := range ci.Data {
		out.Data[i] = real(v)
	}
	return out
}
