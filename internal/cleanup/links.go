package cleanup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

const (
	maximumLinkDepthConstant          = 40
	currentDirectoryComponentConstant = "."
	parentDirectoryComponentConstant  = ".."
)

// resolveLink returns the canonical path the symlink at linkPath designates. Every symlinked
// component along the way is resolved, and the final path must exist.
func resolveLink(fileSystem billy.Filesystem, linkPath string) (string, error) {
	linkInfo, lstatError := fileSystem.Lstat(linkPath)
	if lstatError != nil {
		return "", classifyStatError(linkPath, lstatError)
	}
	if linkInfo.Mode()&os.ModeSymlink == 0 {
		return "", PathError{Path: linkPath, Cause: ErrNotSymlink}
	}

	remainingLinks := maximumLinkDepthConstant
	return resolveRealPath(fileSystem, linkPath, &remainingLinks)
}

// resolveRealPath walks candidatePath one component at a time and substitutes symlink targets,
// spending one unit of remainingLinks per link followed.
func resolveRealPath(fileSystem billy.Filesystem, candidatePath string, remainingLinks *int) (string, error) {
	cleanPath := filepath.Clean(candidatePath)
	resolvedPath := ""
	if filepath.IsAbs(cleanPath) {
		resolvedPath = string(filepath.Separator)
	}

	for _, component := range strings.Split(cleanPath, string(filepath.Separator)) {
		if len(component) == 0 || component == currentDirectoryComponentConstant {
			continue
		}
		nextPath := filepath.Join(resolvedPath, component)
		if component == parentDirectoryComponentConstant {
			resolvedPath = nextPath
			continue
		}

		componentInfo, componentError := fileSystem.Lstat(nextPath)
		if componentError != nil {
			return "", classifyStatError(nextPath, componentError)
		}
		if componentInfo.Mode()&os.ModeSymlink == 0 {
			resolvedPath = nextPath
			continue
		}

		*remainingLinks--
		if *remainingLinks < 0 {
			return "", PathError{Path: candidatePath, Cause: ErrSymlinkLoop}
		}
		target, readError := fileSystem.Readlink(nextPath)
		if readError != nil {
			return "", PathError{Path: nextPath, Cause: readError}
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(resolvedPath, target)
		}
		resolvedTarget, targetError := resolveRealPath(fileSystem, target, remainingLinks)
		if targetError != nil {
			return "", targetError
		}
		resolvedPath = resolvedTarget
	}

	if len(resolvedPath) == 0 {
		return currentDirectoryComponentConstant, nil
	}
	return resolvedPath, nil
}

func requireDirectory(fileSystem billy.Filesystem, directoryPath string) error {
	directoryInfo, statError := fileSystem.Stat(directoryPath)
	if statError != nil {
		return classifyStatError(directoryPath, statError)
	}
	if !directoryInfo.IsDir() {
		return PathError{Path: directoryPath, Cause: ErrNotDirectory}
	}
	return nil
}

// linkDirectories lists the directories whose first-level links a purge deletes: the architecture
// directory, each real package directory inside it and the BUILD directory.
func linkDirectories(fileSystem billy.Filesystem, layout Layout) ([]string, error) {
	architectureDirectory := layout.ArchitectureDirectory()
	entries, readError := fileSystem.ReadDir(architectureDirectory)
	if readError != nil {
		return nil, classifyStatError(architectureDirectory, readError)
	}

	directories := []string{architectureDirectory}
	for _, entry := range entries {
		if entry.Mode()&os.ModeSymlink != 0 || !entry.IsDir() {
			continue
		}
		directories = append(directories, filepath.Join(architectureDirectory, entry.Name()))
	}
	return append(directories, layout.BuildDirectory()), nil
}

// removeFirstLevelLinks deletes the symbolic links directly inside directoryPath and returns their paths.
func removeFirstLevelLinks(fileSystem billy.Filesystem, directoryPath string) ([]string, error) {
	entries, readError := fileSystem.ReadDir(directoryPath)
	if readError != nil {
		return nil, classifyStatError(directoryPath, readError)
	}

	removedLinks := []string{}
	for _, entry := range entries {
		if entry.Mode()&os.ModeSymlink == 0 {
			continue
		}
		linkPath := filepath.Join(directoryPath, entry.Name())
		if removeError := fileSystem.Remove(linkPath); removeError != nil {
			return removedLinks, PathError{Path: linkPath, Cause: removeError}
		}
		removedLinks = append(removedLinks, linkPath)
	}
	return removedLinks, nil
}

// replaceLink points linkPath at target, removing whatever currently occupies linkPath.
func replaceLink(fileSystem billy.Filesystem, linkPath string, target string) error {
	if _, lstatError := fileSystem.Lstat(linkPath); lstatError == nil {
		if removeError := fileSystem.Remove(linkPath); removeError != nil {
			return PathError{Path: linkPath, Cause: removeError}
		}
	} else if !errors.Is(lstatError, os.ErrNotExist) {
		return PathError{Path: linkPath, Cause: lstatError}
	}

	if symlinkError := fileSystem.Symlink(target, linkPath); symlinkError != nil {
		return PathError{Path: linkPath, Cause: symlinkError}
	}
	return nil
}

func classifyStatError(path string, statError error) error {
	if errors.Is(statError, os.ErrNotExist) {
		return PathError{Path: path, Cause: ErrMissingPath}
	}
	return PathError{Path: path, Cause: statError}
}
