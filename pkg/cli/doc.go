// Package cli provides shared helpers for the janus command line tool:
// output formatting, command error types, and signal handling.
//
// The helpers are deliberately small. Commands format their results through
// a Formatter so that every subcommand supports the same --format flag
// semantics, and long-running commands derive their lifetime from
// SetupSignalHandler so Ctrl-C always means a clean shutdown.
package cli
