// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the weight accumulator used for normalisation.

package model

import "fmt"

// SumWeights accumulates imaging weight per (channel, polarisation).
type SumWeights struct {
	NChan, NPol int
	Data        []float64
}

// NewSumWeights returns a zeroed accumulator.
func NewSumWeights(nchan, npol int) *SumWeights {
	return &SumWeights{NChan: nchan, NPol: npol, Data: make([]float64, nchan*npol)}
}

// At returns the weight for (c, p).
func (w *SumWeights) At(c, p int) float64 { return w.Data[c*w.NPol+p] }

// Add accumulates v into (c, p).
func (w *SumWeights) Add(c, p int, v float64) { w.Data[c*w.NPol+p] += v }

// Merge adds other into w.
func (w *SumWeights) Merge(other *SumWeights) error {
	if other.NChan != w.NChan || other.NPol != w.NPol {
		return fmt.Errorf("cannot merge weights of shape (%d, %d) into (%d, %d)", other.NChan, other.NPol, w.NChan, w.NPol)
	}
	for i, v := range other.Data {
		w.Data[i] += v
	}
	return nil
}

// Copy returns a deep copy.
func (w *SumWeights) Copy() *SumWeights {
	return &SumWeights{NChan: w.NChan, NPol: w.NPol, Data: append([]float64(nil), w.Data...)}
}

// Total returns the sum over every channel and polarisation.
func (w *SumWeights) Total() float64 {
	t := 0.0
	for _, v := range w.Data {
		t += v
	}
	return t
}

