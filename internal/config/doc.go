// Package config defines the format-agnostic model of an imaging run, along
// with the interfaces (Loader, Converter) for loading and interpreting run
// files from various sources.
//
// The `config.Run` is the single source of truth for the application. The
// attribute names, types and defaults of every block are described once by
// InputDefinition tables, and concrete loaders for HCL and YAML are provided
// in separate packages.
package config
