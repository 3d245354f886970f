// Package hcl provides the concrete HCL implementation for the run file
// loading and data conversion interfaces defined in the `config` package.
// It is responsible for file parsing, block extraction and CTY-to-Go data
// binding.
package hcl
