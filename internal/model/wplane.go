// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

// WPlane models w (metres) as W0 + A*u + B*v. Kernels use it in place of the
// sample w when they do not handle the w-term exactly.
type WPlane struct {
	W0, A, B float64
}

// W evaluates the plane at (u, v) in metres.
func (p WPlane) W(u, v float64) float64 {
	return p.W0 + p.A*u + p.B*v
}

// IsZero reports whether the plane is identically zero.
func (p WPlane) IsZero() bool {
	return p.W0 == 0 && p.A == 0 && p.B == 0
}
