// Package report computes quality-assessment summaries of imaging products
// and publishes them to sinks.
package report

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/vk/skygrid/internal/model"
)

// QA is a named set of summary statistics.
type QA struct {
	Origin string
	Data   map[string]float64
}

// Keys returns the statistic names in sorted order.
func (q QA) Keys() []string {
	keys := make([]string, 0, len(q.Data))
	for k := range q.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QAImage summarises an image: extrema, rms, sum and the location of the
// peak.
func QAImage(origin string, im *model.Image) QA {
	q := QA{Origin: origin, Data: map[string]float64{
		"shape_nchan": float64(im.NChan),
		"shape_npol":  float64(im.NPol),
		"shape_ny":    float64(im.NY),
		"shape_nx":    float64(im.NX),
	}}
	if len(im.Data) == 0 {
		return q
	}
	maxVal, minVal := floats.Max(im.Data), floats.Min(im.Data)
	q.Data["max"] = maxVal
	q.Data["min"] = minVal
	q.Data["maxabs"] = math.Max(math.Abs(maxVal), math.Abs(minVal))
	q.Data["sum"] = floats.Sum(im.Data)
	q.Data["rms"] = math.Sqrt(floats.Dot(im.Data, im.Data) / float64(len(im.Data)))

	idx := floats.MaxIdx(im.Data)
	plane := im.NY * im.NX
	q.Data["peak_x"] = float64(idx % im.NX)
	q.Data["peak_y"] = float64((idx % plane) / im.NX)
	q.Data["peak_chan"] = float64(idx / (plane * im.NPol))
	return q
}

// QAVisibility summarises the amplitudes and weights of a visibility set.
func QAVisibility(origin string, vis *model.Visibility) QA {
	q := QA{Origin: origin, Data: map[string]float64{
		"nsamples": float64(vis.Len()),
		"nchan":    float64(vis.NChan()),
		"npol":     float64(vis.NPol()),
	}}
	var amps, weights []float64
	flagged := 0
	for i := range vis.Samples {
		s := &vis.Samples[i]
		if s.Flag {
			flagged++
			continue
		}
		for j, v := range s.Vis {
			amps = append(amps, cmplx.Abs(v))
			weights = append(weights, s.Weight[j])
		}
	}
	q.Data["nflagged"] = float64(flagged)
	if len(amps) == 0 {
		return q
	}
	q.Data["maxabs"] = floats.Max(amps)
	q.Data["minabs"] = floats.Min(amps)
	q.Data["rms"] = math.Sqrt(floats.Dot(amps, amps) / float64(len(amps)))
	q.Data["sumwt"] = floats.Sum(weights)
	return q
}
