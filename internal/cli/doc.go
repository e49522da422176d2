// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It merges
// CLI flags and the optional HCL config file into the application's
// configuration.
package cli
