package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Loader is the interface for a format-specific run file loader.
type Loader interface {
	// Load reads the run file at path, applies defaults and returns the
	// format-agnostic model. The result is not yet validated.
	Load(ctx context.Context, path string) (*Run, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It acts as the bridge between the raw
// configuration and the Go structs of the run model.
type Converter interface {
	// DecodeBody decodes the attributes of a single block into a target Go
	// struct, applying defaults from defs.
	DecodeBody(
		ctx context.Context,
		target any,
		args map[string]hcl.Expression,
		defs map[string]*InputDefinition,
		evalCtx *hcl.EvalContext,
	) error
}
