// Package toolchain detects the Python tooling available on the machine
// and builds the command lines that depend on that detection.
//
// The central piece is package-manager selection: probe the PATH for a
// conda-compatible tool, preferring the faster mamba solver, and fall back
// to plain pip when neither is installed. This is a static three-way branch
// with no retries and no state beyond the presence of executables on the
// search path.
package toolchain
