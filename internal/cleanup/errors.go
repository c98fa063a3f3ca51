package cleanup

import (
	"errors"
	"fmt"
)

const (
	missingPathMessageConstant  = "expected path is missing"
	notSymlinkMessageConstant   = "expected a symbolic link"
	notDirectoryMessageConstant = "expected a directory"
	symlinkLoopMessageConstant  = "too many levels of symbolic links"
	anchorCountMessageConstant  = "purge requires exactly two anchor packages"
	anchorNameMessageConstant   = "anchor package name is required"
	pathErrorTemplateConstant   = "%s: %v"
)

var (
	// ErrMissingPath indicates a directory or symlink required by the purge does not exist.
	ErrMissingPath = errors.New(missingPathMessageConstant)
	// ErrNotSymlink indicates a "latest" entry that is not a symbolic link.
	ErrNotSymlink = errors.New(notSymlinkMessageConstant)
	// ErrNotDirectory indicates a work area path that is not a directory.
	ErrNotDirectory = errors.New(notDirectoryMessageConstant)
	// ErrSymlinkLoop indicates a link chain that does not terminate.
	ErrSymlinkLoop = errors.New(symlinkLoopMessageConstant)
	// ErrAnchorCount indicates a purge configured with other than two anchor packages.
	ErrAnchorCount = errors.New(anchorCountMessageConstant)
	// ErrAnchorNameRequired indicates an anchor package without a name.
	ErrAnchorNameRequired = errors.New(anchorNameMessageConstant)
)

// PathError associates a purge failure with the filesystem path that caused it.
type PathError struct {
	Path  string
	Cause error
}

// Error describes the failing path.
func (pathError PathError) Error() string {
	return fmt.Sprintf(pathErrorTemplateConstant, pathError.Path, pathError.Cause)
}

// Unwrap exposes the cause.
func (pathError PathError) Unwrap() error {
	return pathError.Cause
}
