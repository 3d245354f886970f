// Package cli parses command-line arguments into the application
// configuration, validates user input and maps usage errors to process exit
// codes.
package cli
