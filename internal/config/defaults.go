package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TagName is the struct tag naming a block attribute.
const TagName = "skygrid"

func input(name string, ty cty.Type, desc string, def *cty.Value) *InputDefinition {
	return &InputDefinition{Name: name, Type: ty, Description: desc, Default: def, Optional: def != nil}
}

func val(v cty.Value) *cty.Value { return &v }

func table(defs ...*InputDefinition) map[string]*InputDefinition {
	m := make(map[string]*InputDefinition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

// Inputs maps each block name to the definitions of its attributes.
var Inputs = map[string]map[string]*InputDefinition{
	BlockObservation: table(
		input("configuration", cty.String, "Named array configuration.", val(cty.StringVal("SPIRAL8"))),
		input("frequencies", cty.List(cty.Number), "Channel frequencies in Hz.", val(cty.ListVal([]cty.Value{cty.NumberFloatVal(1e8)}))),
		input("channel_bandwidth", cty.Number, "Channel bandwidth in Hz.", val(cty.NumberFloatVal(1e6))),
		input("hour_angle_start", cty.Number, "First hour angle in hours.", val(cty.NumberFloatVal(-1))),
		input("hour_angle_stop", cty.Number, "Last hour angle in hours.", val(cty.NumberFloatVal(1))),
		input("times", cty.Number, "Number of integrations.", val(cty.NumberIntVal(7))),
		input("phase_centre", cty.List(cty.Number), "Phase centre (ra, dec) in degrees.", nil),
		input("polarisation", cty.String, "Visibility polarisation frame.", val(cty.StringVal("stokesI"))),
		input("weight", cty.Number, "Per-sample weight.", val(cty.NumberFloatVal(1))),
	),
	BlockImage: table(
		input("npixel", cty.Number, "Image size along each axis.", val(cty.NumberIntVal(256))),
		input("cellsize_deg", cty.Number, "Cell size in degrees, 0 to derive it.", val(cty.NumberFloatVal(0))),
		input("cube", cty.Bool, "One image channel per visibility channel.", val(cty.False)),
		input("polarisation", cty.String, "Image polarisation frame.", val(cty.StringVal("stokesI"))),
	),
	BlockComponent: table(
		input("name", cty.String, "Component name.", nil),
		input("direction", cty.List(cty.Number), "Direction (ra, dec) in degrees.", nil),
		input("flux", cty.List(cty.Number), "Stokes I flux per observation frequency.", nil),
	),
	BlockImaging: table(
		input("kernel", cty.String, "Gridding kernel name.", val(cty.StringVal("dft"))),
		input("facets", cty.Number, "Facets along each image axis.", val(cty.NumberIntVal(1))),
		input("axis", cty.String, "Slicing axis: none, w or time.", val(cty.StringVal("none"))),
		input("slices", cty.Number, "Number of visibility slices, 0 to derive it.", val(cty.NumberIntVal(1))),
		input("max_phase_error", cty.Number, "Residual w phase error in radians used to size w slices.", val(cty.NumberFloatVal(0))),
		input("w_projection", cty.Bool, "Apply the exact w-term in the kernel.", val(cty.False)),
		input("normalize", cty.Bool, "Divide inverted images by the sum of weights.", val(cty.True)),
	),
	BlockReport: table(
		input("kind", cty.String, "Sink kind: log or socketio.", nil),
		input("url", cty.String, "Socket.IO endpoint.", val(cty.StringVal(""))),
		input("namespace", cty.String, "Socket.IO namespace.", val(cty.StringVal("/"))),
		input("event", cty.String, "Event the report is emitted under.", val(cty.StringVal("qa"))),
		input("ack_event", cty.String, "Event awaited after emitting.", val(cty.StringVal(""))),
		input("timeout_seconds", cty.Number, "Publish timeout.", val(cty.NumberFloatVal(10))),
		input("insecure_skip_verify", cty.Bool, "Skip TLS verification.", val(cty.False)),
	),
}

// Fields returns the tagged fields of the struct target points to, keyed by
// attribute name.
func Fields(target any) (map[string]reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a non-nil pointer to a struct, got %T", target)
	}
	v = v.Elem()
	t := v.Type()
	out := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get(TagName), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		out[name] = v.Field(i)
	}
	return out, nil
}

// ApplyDefault stores the default of def into ptr. It fails for required
// attributes, which have no default.
func ApplyDefault(def *InputDefinition, ptr any) error {
	if def.Default == nil {
		if def.Optional {
			return nil
		}
		return fmt.Errorf("missing required argument %q", def.Name)
	}
	v, err := convert.Convert(*def.Default, def.Type)
	if err != nil {
		return fmt.Errorf("invalid default for %q: %w", def.Name, err)
	}
	return gocty.FromCtyValue(v, ptr)
}
