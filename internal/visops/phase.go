// Package visops holds the operations applied to visibility sets between
// partitioning and gridding: phase rotation, polarisation conversion, PSF
// substitution and subtraction.
package visops

import (
	"math"
	"math/cmplx"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/model"
)

// ShiftToCentre rotates vis in place so that the tangent-plane point
// (l0, m0) becomes the origin of the u and v phase terms. The w-term is left
// to the gridder, which evaluates it against the phase centre with whatever
// w it is configured to use. uvw are left untouched.
func ShiftToCentre(vis *model.Visibility, l0, m0 float64) {
	rotate(vis, l0, m0, 1, false)
}

// ShiftFromCentre undoes ShiftToCentre.
func ShiftFromCentre(vis *model.Visibility, l0, m0 float64) {
	rotate(vis, l0, m0, -1, false)
}

// PhaseRotate returns a copy of vis re-phased onto target. The tangent
// plane is kept, only the phases and the recorded phase centre change.
func PhaseRotate(vis *model.Visibility, target coords.Direction) *model.Visibility {
	out := vis.Copy()
	l, m, _ := coords.DirectionToLM(target, vis.PhaseCentre)
	if l == 0 && m == 0 {
		return out
	}
	rotate(out, l, m, 1, true)
	out.PhaseCentre = target
	return out
}

// rotate multiplies vis by exp(sign*2*pi*i*(u l0 + v m0)), adding the
// w(n0 - 1) term when withW is set.
func rotate(vis *model.Visibility, l0, m0 float64, sign float64, withW bool) {
	if l0 == 0 && m0 == 0 {
		return
	}
	dn := 0.0
	if withW {
		dn = coords.N(l0, m0) - 1
	}
	npol := vis.NPol()
	for i := range vis.Samples {
		s := &vis.Samples[i]
		for ch := range vis.Frequency {
			u, v, w := vis.UVWLambda(i, ch)
			phase := sign * 2 * math.Pi * (u*l0 + v*m0 + w*dn)
			sin, cos := math.Sincos(phase)
			rot := complex(cos, sin)
			for p := 0; p < npol; p++ {
				s.Vis[ch*npol+p] *= rot
			}
		}
	}
}

// Phasor returns exp(-2πi(u l + v m + w(n-1))), the response of a baseline
// to a unit point source at (l, m).
func Phasor(u, v, w, l, m float64) complex128 {
	n := coords.N(l, m)
	return cmplx.Exp(complex(0, -2*math.Pi*(u*l+v*m+w*(n-1))))
}
