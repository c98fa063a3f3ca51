// Package buildtool drives the aliBuild-compatible command line used to build packages.
package buildtool
