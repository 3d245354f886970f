package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Block names used by run files.
const (
	BlockObservation = "observation"
	BlockImage       = "image"
	BlockComponent   = "component"
	BlockImaging     = "imaging"
	BlockReport      = "report"
)

// Report sink kinds.
const (
	ReportLog      = "log"
	ReportSocketIO = "socketio"
)

// Run is the unified, format-agnostic representation of one imaging run.
type Run struct {
	Observation Observation
	Image       Image
	Components  []Component `validate:"dive"`
	Imaging     Imaging
	Reports     []Report `validate:"dive"`
}

// Observation describes the simulated measurement set.
type Observation struct {
	Configuration    string    `skygrid:"configuration" validate:"required"`
	Frequencies      []float64 `skygrid:"frequencies" validate:"min=1,dive,gt=0"`
	ChannelBandwidth float64   `skygrid:"channel_bandwidth" validate:"gte=0"`
	// Hour angles are in hours.
	HourAngleStart float64 `skygrid:"hour_angle_start" validate:"gte=-12,lte=12"`
	HourAngleStop  float64 `skygrid:"hour_angle_stop" validate:"gte=-12,lte=12,gtefield=HourAngleStart"`
	Times          int     `skygrid:"times" validate:"gte=1"`
	// PhaseCentre is (ra, dec) in degrees.
	PhaseCentre  []float64 `skygrid:"phase_centre" validate:"len=2"`
	Polarisation string    `skygrid:"polarisation" validate:"polframe"`
	Weight       float64   `skygrid:"weight" validate:"gt=0"`
}

// Image describes the image template.
type Image struct {
	NPixel int `skygrid:"npixel" validate:"gt=0"`
	// CellDeg of zero picks a cell from the longest baseline.
	CellDeg      float64 `skygrid:"cellsize_deg" validate:"gte=0"`
	Cube         bool    `skygrid:"cube"`
	Polarisation string  `skygrid:"polarisation" validate:"polframe"`
}

// Component is a Stokes I point source. Flux holds one value per
// observation frequency.
type Component struct {
	Name      string    `skygrid:"name" validate:"required"`
	Direction []float64 `skygrid:"direction" validate:"len=2"`
	Flux      []float64 `skygrid:"flux" validate:"min=1"`
}

// Imaging selects the kernel and the partitioning.
type Imaging struct {
	Kernel        string  `skygrid:"kernel" validate:"required"`
	Facets        int     `skygrid:"facets" validate:"gte=1"`
	Axis          string  `skygrid:"axis" validate:"oneof=none w time"`
	Slices        int     `skygrid:"slices" validate:"gte=0"`
	MaxPhaseError float64 `skygrid:"max_phase_error" validate:"gte=0"`
	WProjection   bool    `skygrid:"w_projection"`
	Normalize     bool    `skygrid:"normalize"`
}

// Report configures one report sink.
type Report struct {
	Kind               string  `skygrid:"kind" validate:"oneof=log socketio"`
	URL                string  `skygrid:"url" validate:"omitempty,url"`
	Namespace          string  `skygrid:"namespace"`
	Event              string  `skygrid:"event"`
	AckEvent           string  `skygrid:"ack_event"`
	TimeoutSeconds     float64 `skygrid:"timeout_seconds" validate:"gte=0"`
	InsecureSkipVerify bool    `skygrid:"insecure_skip_verify"`
}

// InputDefinition defines a single attribute of a block.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}
