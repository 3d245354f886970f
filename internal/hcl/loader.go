package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/skygrid/internal/config"
	"github.com/vk/skygrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	converter config.Converter
}

// NewLoader creates a new HCL run file loader.
func NewLoader() *Loader {
	return &Loader{converter: NewConverter()}
}

// Load parses a run file and decodes every block into the run model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Run, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("HCL loader started.")

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return l.decode(ctx, file)
}

// LoadBytes parses run file source held in memory. filename is only used in
// diagnostics.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Run, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.decode(ctx, file)
}

func (l *Loader) decode(ctx context.Context, file *hcl.File) (*config.Run, error) {
	logger := ctxlog.FromContext(ctx)

	var root runFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file: %w", diags)
	}

	run := &config.Run{}
	if err := l.decodeBlock(ctx, config.BlockObservation, root.Observation, &run.Observation); err != nil {
		return nil, err
	}
	if err := l.decodeBlock(ctx, config.BlockImage, root.Image, &run.Image); err != nil {
		return nil, err
	}
	if err := l.decodeBlock(ctx, config.BlockImaging, root.Imaging, &run.Imaging); err != nil {
		return nil, err
	}
	for _, b := range root.Components {
		var comp config.Component
		if err := l.decodeLabelled(ctx, config.BlockComponent, "name", b, &comp); err != nil {
			return nil, err
		}
		run.Components = append(run.Components, comp)
	}
	for _, b := range root.Reports {
		var rep config.Report
		if err := l.decodeLabelled(ctx, config.BlockReport, "kind", b, &rep); err != nil {
			return nil, err
		}
		run.Reports = append(run.Reports, rep)
	}

	logger.Debug("HCL loading complete.", "components", len(run.Components), "reports", len(run.Reports))
	return run, nil
}

// decodeBlock decodes an optional unlabelled block. A missing block takes
// every default.
func (l *Loader) decodeBlock(ctx context.Context, name string, b *blockBody, target any) error {
	var args map[string]hcl.Expression
	if b != nil {
		var err error
		if args, err = attributes(b.Body); err != nil {
			return fmt.Errorf("in %s block: %w", name, err)
		}
	}
	if err := l.converter.DecodeBody(ctx, target, args, config.Inputs[name], nil); err != nil {
		return fmt.Errorf("in %s block: %w", name, err)
	}
	return nil
}

// decodeLabelled decodes a labelled block, binding the label to the attribute
// labelAttr.
func (l *Loader) decodeLabelled(ctx context.Context, name, labelAttr string, b *labelledBody, target any) error {
	args, err := attributes(b.Body)
	if err != nil {
		return fmt.Errorf("in %s %q: %w", name, b.Label, err)
	}
	if _, dup := args[labelAttr]; dup {
		return fmt.Errorf("in %s %q: %q is set by the block label", name, b.Label, labelAttr)
	}
	if args == nil {
		args = make(map[string]hcl.Expression, 1)
	}
	args[labelAttr] = hcl.StaticExpr(cty.StringVal(b.Label), b.Body.MissingItemRange())
	if err := l.converter.DecodeBody(ctx, target, args, config.Inputs[name], nil); err != nil {
		return fmt.Errorf("in %s %q: %w", name, b.Label, err)
	}
	return nil
}

// attributes converts a block body into a map of expressions.
func attributes(body hcl.Body) (map[string]hcl.Expression, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	exprMap := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap, nil
}
