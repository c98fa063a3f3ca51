package cleanup

import "path/filepath"

const (
	softwareDirectoryNameConstant = "sw"
	buildDirectoryNameConstant    = "BUILD"
	latestLinkNameConstant        = "latest"
	developmentLinkSuffixConstant = "-latest"
)

// Layout locates the build tool work area below the root directory.
type Layout struct {
	Root         string
	Architecture string
}

// ArchitectureDirectory is <root>/sw/<arch>, holding one directory per built package.
func (layout Layout) ArchitectureDirectory() string {
	return filepath.Join(layout.Root, softwareDirectoryNameConstant, layout.Architecture)
}

// BuildDirectory is <root>/sw/BUILD, holding the development build symlinks.
func (layout Layout) BuildDirectory() string {
	return filepath.Join(layout.Root, softwareDirectoryNameConstant, buildDirectoryNameConstant)
}

// PackageDirectory is <root>/sw/<arch>/<package>.
func (layout Layout) PackageDirectory(packageName string) string {
	return filepath.Join(layout.ArchitectureDirectory(), packageName)
}

// LatestLink is the "latest" symlink inside the package directory.
func (layout Layout) LatestLink(packageName string) string {
	return filepath.Join(layout.PackageDirectory(packageName), latestLinkNameConstant)
}

// DevelopmentLink is <root>/sw/BUILD/<package>-latest.
func (layout Layout) DevelopmentLink(packageName string) string {
	return filepath.Join(layout.BuildDirectory(), packageName+developmentLinkSuffixConstant)
}
