package cleanup

import (
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// DiskUsage sums the apparent size of regular files below rootPath without following symbolic links.
func DiskUsage(fileSystem billy.Filesystem, rootPath string) (uint64, error) {
	var totalBytes uint64
	walkError := util.Walk(fileSystem, rootPath, func(path string, fileInfo os.FileInfo, visitError error) error {
		if visitError != nil {
			return classifyStatError(path, visitError)
		}
		if fileInfo.Mode().IsRegular() && fileInfo.Size() > 0 {
			totalBytes += uint64(fileInfo.Size())
		}
		return nil
	})
	if walkError != nil {
		return 0, walkError
	}
	return totalBytes, nil
}

// ReclaimedBytes returns before minus after, or zero when the tree grew.
func ReclaimedBytes(sizeBefore uint64, sizeAfter uint64) uint64 {
	if sizeAfter >= sizeBefore {
		return 0
	}
	return sizeBefore - sizeAfter
}

// FormatSize renders a byte count either as a plain integer or in IEC units such as "1.5 GiB".
func FormatSize(byteCount uint64, humanReadable bool) string {
	if humanReadable {
		return humanize.IBytes(byteCount)
	}
	return strconv.FormatUint(byteCount, 10)
}
