// Package cli constructs the alisync command-line interface. It wires the
// Cobra command hierarchy to the configuration loader, the structured logger
// and the update, build, cleanup and report stages, and exposes helpers to
// run the application against an injected runtime environment.
package cli
