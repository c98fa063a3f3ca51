// Package cleanup reclaims disk space in the build tool work area.
//
// A purge records where the "latest" links of the two anchor packages point, deletes
// every first-level symbolic link in their package directories and in sw/BUILD, rebuilds
// the anchors and restores the recorded links. A prune delegates to the build tool's
// clean command. Disk usage is measured before and after either phase.
package cleanup
