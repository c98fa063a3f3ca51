package cleanup

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

const hostRootDirectoryConstant = "/"

type linkReader interface {
	Readlink(link string) (string, error)
}

// hostFileSystem exposes the host filesystem rooted at "/". Link targets are read through the
// unchrooted OS filesystem so absolute targets are returned unchanged.
type hostFileSystem struct {
	billy.Filesystem
	links linkReader
}

// NewHostFileSystem returns a billy filesystem addressing host paths by their absolute names.
func NewHostFileSystem() billy.Filesystem {
	return hostFileSystem{Filesystem: osfs.New(hostRootDirectoryConstant), links: osfs.Default}
}

func (fileSystem hostFileSystem) Readlink(link string) (string, error) {
	return fileSystem.links.Readlink(link)
}
