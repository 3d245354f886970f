// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the in-memory containers shared by every stage of the
// imaging pipeline.
//
// # Core Concepts
//
//   - Visibility: an ordered set of baseline samples. Each sample carries its
//     baseline coordinate, time, flag and one complex value plus one imaging
//     weight per (channel, polarisation). Frequencies and the polarisation
//     frame are shared by the whole set.
//
//   - Image: a 4-D real grid indexed by (channel, polarisation, y, x) with a
//     coordinate descriptor and a polarisation frame. ComplexImage is its
//     complex counterpart, exchanged with gridding kernels.
//
//   - SumWeights: the per-(channel, polarisation) weight accumulator produced
//     by an invert and consumed by normalisation.
//
// Containers are never shared for writes between partitions. Every operation
// that mutates data works on a deep copy returned by Copy, CopyZero, Subset or
// Region.
package model
