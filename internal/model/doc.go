// Package model defines the domain types shared across the sciops CLI:
// the task target and package-manager enums, the exit code table, and
// the CLIError type that carries exit codes from any layer up to main.
package model
