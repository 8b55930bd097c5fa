// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags and OBJGRAPH_* environment defaults into the
// application's configuration and runs one command against it.
package cli
