package partition

import (
	"fmt"
	"strings"

	"github.com/vk/skygrid/internal/coords"
	"github.com/vk/skygrid/internal/model"
)

// Kind is the set of axes a descriptor partitions along. The zero value
// means the whole problem is handled in one piece.
type Kind uint8

const (
	KindFacet Kind = 1 << iota
	KindWSlice
	KindTimeSlice
)

// KindNone marks an unpartitioned descriptor.
const KindNone Kind = 0

func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	var parts []string
	if k&KindFacet != 0 {
		parts = append(parts, "facet")
	}
	if k&KindWSlice != 0 {
		parts = append(parts, "wslice")
	}
	if k&KindTimeSlice != 0 {
		parts = append(parts, "timeslice")
	}
	return strings.Join(parts, "+")
}

// Axis selects how visibility samples are sliced.
type Axis string

const (
	AxisNone Axis = "none"
	AxisW    Axis = "w"
	AxisTime Axis = "time"
)

// Config describes the requested partitioning.
type Config struct {
	// Facets is the number of facets along each image axis.
	Facets int
	Axis   Axis
	// VisSlices is the number of w or time bins.
	VisSlices int
	// WStep is a fixed w bin width in metres, used when VisSlices is zero.
	WStep float64
	// MaxPhaseError in radians sizes w bins from the field of view when
	// neither VisSlices nor WStep is given.
	MaxPhaseError float64
	// TimeBoundaries are caller-supplied cut points between time slices.
	TimeBoundaries []float64
}

// DefaultConfig returns a single-facet, unsliced configuration.
func DefaultConfig() Config {
	return Config{Facets: 1, Axis: AxisNone}
}

// FacetView is a pixel window of the image together with its coordinates.
type FacetView struct {
	Index    int
	Row, Col int
	XOff     int
	YOff     int
	NX, NY   int
	WCS      coords.WCS
}

// SliceView selects visibility rows and carries the w model used for them.
type SliceView struct {
	Axis  Axis
	Index int
	Rows  []int
	// Lo and Hi bound the w (metres) or time (seconds) covered by the slice.
	Lo, Hi float64
	Plane  model.WPlane
}

// Descriptor is one unit of work.
type Descriptor struct {
	Index int
	Kind  Kind
	Facet *FacetView
	Slice *SliceView
}

// Rows returns the selected visibility rows, or nil for all rows.
func (d Descriptor) Rows() []int {
	if d.Slice == nil {
		return nil
	}
	return d.Slice.Rows
}

// Plane returns the w model of the descriptor.
func (d Descriptor) Plane() model.WPlane {
	if d.Slice == nil {
		return model.WPlane{}
	}
	return d.Slice.Plane
}

// ID is a stable identifier suitable for task graph nodes.
func (d Descriptor) ID() string {
	return fmt.Sprintf("partition.%04d", d.Index)
}

func (d Descriptor) String() string {
	var parts []string
	if d.Facet != nil {
		parts = append(parts, fmt.Sprintf("facet[%d,%d]", d.Facet.Row, d.Facet.Col))
	}
	if d.Slice != nil {
		parts = append(parts, fmt.Sprintf("%sslice[%d]", d.Slice.Axis, d.Slice.Index))
	}
	if len(parts) == 0 {
		return "whole"
	}
	return strings.Join(parts, "/")
}
