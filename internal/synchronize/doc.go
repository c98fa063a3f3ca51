// Package synchronize rebases managed repositories onto their fork and upstream remotes.
//
// Local modifications are stashed before any branch moves and restored once both the
// main branch and the branch that was checked out have been rebased and force-pushed.
package synchronize
