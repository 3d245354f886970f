// Package yamlcfg provides a YAML implementation of the config.Loader
// interface. Blocks are the same as in HCL run files, with repeated blocks
// written as lists.
package yamlcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/skygrid/internal/config"
	"github.com/vk/skygrid/internal/ctxlog"
)

type block map[string]yaml.Node

type runFile struct {
	Observation block   `yaml:"observation"`
	Image       block   `yaml:"image"`
	Components  []block `yaml:"components"`
	Imaging     block   `yaml:"imaging"`
	Reports     []block `yaml:"reports"`
}

// Loader reads YAML run files.
type Loader struct{}

// NewLoader creates a new YAML run file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and decodes the run file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	return l.LoadBytes(ctx, data)
}

// LoadBytes decodes run file source held in memory.
func (l *Loader) LoadBytes(ctx context.Context, src []byte) (*config.Run, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.")

	var root runFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	run := &config.Run{}
	if err := decodeBlock(config.BlockObservation, config.BlockObservation, root.Observation, &run.Observation); err != nil {
		return nil, err
	}
	if err := decodeBlock(config.BlockImage, config.BlockImage, root.Image, &run.Image); err != nil {
		return nil, err
	}
	if err := decodeBlock(config.BlockImaging, config.BlockImaging, root.Imaging, &run.Imaging); err != nil {
		return nil, err
	}
	for i, b := range root.Components {
		var comp config.Component
		if err := decodeBlock(config.BlockComponent, fmt.Sprintf("components[%d]", i), b, &comp); err != nil {
			return nil, err
		}
		run.Components = append(run.Components, comp)
	}
	for i, b := range root.Reports {
		var rep config.Report
		if err := decodeBlock(config.BlockReport, fmt.Sprintf("reports[%d]", i), b, &rep); err != nil {
			return nil, err
		}
		run.Reports = append(run.Reports, rep)
	}

	logger.Debug("YAML loading complete.", "components", len(run.Components), "reports", len(run.Reports))
	return run, nil
}

// decodeBlock binds the present keys of b onto target and applies defaults
// for the rest. label names the block in errors.
func decodeBlock(name, label string, b block, target any) error {
	defs := config.Inputs[name]

	fields, err := config.Fields(target)
	if err != nil {
		return err
	}
	for key := range b {
		if _, ok := defs[key]; !ok {
			return fmt.Errorf("in %s: unsupported argument %q", label, key)
		}
	}
	for key, field := range fields {
		def, ok := defs[key]
		if !ok {
			continue
		}
		ptr := field.Addr().Interface()
		if node, present := b[key]; present {
			if err := node.Decode(ptr); err != nil {
				return fmt.Errorf("in %s: failed to decode argument '%s': %w", label, key, err)
			}
			continue
		}
		if err := config.ApplyDefault(def, ptr); err != nil {
			return fmt.Errorf("in %s: %w", label, err)
		}
	}
	return nil
}
