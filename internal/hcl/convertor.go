package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/skygrid/internal/config"
	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeBody evaluates HCL expressions, applies defaults, and populates the
// provided Go struct using reflection.
func (c *Converter) DecodeBody(
	ctx context.Context,
	target any,
	args map[string]hcl.Expression,
	defs map[string]*config.InputDefinition,
	evalCtx *hcl.EvalContext,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting HCL body decoding.")

	fields, err := config.Fields(target)
	if err != nil {
		return err
	}
	for name := range args {
		if _, ok := defs[name]; !ok {
			return fmt.Errorf("unsupported argument %q", name)
		}
	}

	for name, fieldVal := range fields {
		inputDef, defExists := defs[name]
		if !defExists {
			continue
		}

		targetPtr := fieldVal.Addr().Interface()
		argExpr, argProvided := args[name]

		if argProvided {
			val, diags := argExpr.Value(evalCtx)
			if diags.HasErrors() {
				return diags
			}
			if err := c.decode(ctx, val, inputDef.Type, targetPtr); err != nil {
				return fmt.Errorf("failed to decode argument '%s': %w", name, err)
			}
			continue
		}
		if err := config.ApplyDefault(inputDef, targetPtr); err != nil {
			return err
		}
	}
	logger.Debug("Finished HCL body decoding successfully.")
	return nil
}

// decode converts val to the declared type and binds it to goVal.
func (c *Converter) decode(ctx context.Context, val cty.Value, declared cty.Type, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	if reflect.ValueOf(goVal).Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}
	if val.IsNull() {
		return fmt.Errorf("value must not be null")
	}

	convertedVal, err := convert.Convert(val, declared)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), declared.FriendlyName(), err)
	}
	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}
	return gocty.FromCtyValue(convertedVal, goVal)
}
