package cleanup_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/temirov/alisync/internal/buildtool"
	"github.com/temirov/alisync/internal/cleanup"
)

const (
	testRootConstant               = "/alice"
	testArchitectureConstant       = "slc9_x86-64"
	testO2TargetConstant           = "/alice/sw/slc9_x86-64/O2/nightly-20240501-1"
	testPhysicsTargetConstant      = "/alice/sw/slc9_x86-64/O2Physics/nightly-20240501-1"
	testO2BuildTargetConstant      = "/alice/sw/BUILD/abc123"
	testPhysicsBuildTargetConstant = "/alice/sw/BUILD/def456"
)

var testAnchors = []cleanup.AnchorPackage{
	{Name: "O2", Options: "--defaults o2"},
	{Name: "O2Physics", Options: "--defaults o2"},
}

type recordingBuilder struct {
	fileSystem    billy.Filesystem
	buildRequests []buildtool.BuildRequest
	cleanedArches []string
	buildError    error
	cleanError    error
	relinkOnBuild bool
	growOnClean   bool
}

func (builder *recordingBuilder) Build(_ context.Context, request buildtool.BuildRequest) error {
	builder.buildRequests = append(builder.buildRequests, request)
	if builder.buildError != nil {
		return builder.buildError
	}
	if builder.relinkOnBuild {
		layout := cleanup.Layout{Root: testRootConstant, Architecture: request.Architecture}
		rebuiltTarget := layout.PackageDirectory(request.PackageName) + "/rebuilt"
		if mkdirError := builder.fileSystem.MkdirAll(rebuiltTarget, 0o755); mkdirError != nil {
			return mkdirError
		}
		if symlinkError := builder.fileSystem.Symlink(rebuiltTarget, layout.LatestLink(request.PackageName)); symlinkError != nil {
			return symlinkError
		}
	}
	return nil
}

func (builder *recordingBuilder) Clean(_ context.Context, architecture string) error {
	builder.cleanedArches = append(builder.cleanedArches, architecture)
	if builder.cleanError != nil {
		return builder.cleanError
	}
	if builder.growOnClean {
		return util.WriteFile(builder.fileSystem, testRootConstant+"/sw/clean.log", make([]byte, 512), 0o644)
	}
	return util.WriteFile(builder.fileSystem, testO2TargetConstant+"/lib/libO2.so", []byte{}, 0o644)
}

func newWorkArea(testInstance *testing.T) billy.Filesystem {
	fileSystem := memfs.New()
	for _, directoryPath := range []string{testO2TargetConstant + "/lib", testPhysicsTargetConstant, testO2BuildTargetConstant, testPhysicsBuildTargetConstant, "/alice/sw/BUILD/QualityControl-build"} {
		require.NoError(testInstance, fileSystem.MkdirAll(directoryPath, 0o755))
	}
	require.NoError(testInstance, util.WriteFile(fileSystem, testO2TargetConstant+"/lib/libO2.so", make([]byte, 4096), 0o644))
	require.NoError(testInstance, util.WriteFile(fileSystem, testPhysicsTargetConstant+"/libO2Physics.so", make([]byte, 1024), 0o644))

	links := map[string]string{
		"/alice/sw/slc9_x86-64/O2/latest":        testO2TargetConstant,
		"/alice/sw/slc9_x86-64/O2/latest-dev-o2": testO2TargetConstant,
		"/alice/sw/slc9_x86-64/O2Physics/latest": testPhysicsTargetConstant,
		"/alice/sw/BUILD/O2-latest":              testO2BuildTargetConstant,
		"/alice/sw/BUILD/O2Physics-latest":       testPhysicsBuildTargetConstant,
		"/alice/sw/BUILD/QualityControl-latest":  "/alice/sw/BUILD/QualityControl-build",
	}
	for linkPath, target := range links {
		require.NoError(testInstance, fileSystem.Symlink(target, linkPath))
	}
	return fileSystem
}

func readLink(testInstance *testing.T, fileSystem billy.Filesystem, linkPath string) string {
	target, readError := fileSystem.Readlink(linkPath)
	require.NoError(testInstance, readError)
	return target
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	_, creationError := cleanup.NewService(cleanup.Dependencies{Builder: &recordingBuilder{}})
	require.ErrorIs(testInstance, creationError, cleanup.ErrFileSystemNotConfigured)

	_, creationError = cleanup.NewService(cleanup.Dependencies{FileSystem: memfs.New()})
	require.ErrorIs(testInstance, creationError, cleanup.ErrBuilderNotConfigured)
}

func TestPurgeRestoresResolvedLinkTargets(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	builder := &recordingBuilder{fileSystem: fileSystem, relinkOnBuild: true}
	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: builder})
	require.NoError(testInstance, creationError)

	layout := cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}
	restoredLinks, purgeError := service.Purge(context.Background(), layout, testAnchors)
	require.NoError(testInstance, purgeError)
	require.Len(testInstance, restoredLinks, 4)

	require.Equal(testInstance, testO2TargetConstant, readLink(testInstance, fileSystem, layout.LatestLink("O2")))
	require.Equal(testInstance, testPhysicsTargetConstant, readLink(testInstance, fileSystem, layout.LatestLink("O2Physics")))
	require.Equal(testInstance, testO2BuildTargetConstant, readLink(testInstance, fileSystem, layout.DevelopmentLink("O2")))
	require.Equal(testInstance, testPhysicsBuildTargetConstant, readLink(testInstance, fileSystem, layout.DevelopmentLink("O2Physics")))

	for _, removedLink := range []string{"/alice/sw/slc9_x86-64/O2/latest-dev-o2", "/alice/sw/BUILD/QualityControl-latest"} {
		_, lstatError := fileSystem.Lstat(removedLink)
		require.ErrorIs(testInstance, lstatError, os.ErrNotExist, removedLink)
	}
	_, targetError := fileSystem.Stat(testO2TargetConstant + "/lib/libO2.so")
	require.NoError(testInstance, targetError)

	require.Len(testInstance, builder.buildRequests, 2)
	for index, request := range builder.buildRequests {
		require.Equal(testInstance, testAnchors[index].Name, request.PackageName)
		require.Equal(testInstance, testAnchors[index].Options, request.Options)
		require.Equal(testInstance, testArchitectureConstant, request.Architecture)
		require.True(testInstance, request.Silent)
	}
}

func TestPurgeFollowsRelativeLinkChains(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	layout := cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}
	require.NoError(testInstance, fileSystem.Remove(layout.LatestLink("O2")))
	require.NoError(testInstance, fileSystem.Symlink("latest-dev-o2", layout.LatestLink("O2")))

	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: &recordingBuilder{fileSystem: fileSystem}})
	require.NoError(testInstance, creationError)

	restoredLinks, purgeError := service.Purge(context.Background(), layout, testAnchors)
	require.NoError(testInstance, purgeError)
	require.Equal(testInstance, cleanup.LinkTarget{Link: layout.LatestLink("O2"), Target: testO2TargetConstant}, restoredLinks[0])
	require.Equal(testInstance, testO2TargetConstant, readLink(testInstance, fileSystem, layout.LatestLink("O2")))
}

func TestPurgeResolvesSymlinkedDirectories(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	layout := cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}
	require.NoError(testInstance, fileSystem.Symlink(layout.ArchitectureDirectory(), "/alice/sw/mirror"))
	require.NoError(testInstance, fileSystem.Remove(layout.LatestLink("O2")))
	require.NoError(testInstance, fileSystem.Symlink("/alice/sw/mirror/O2/nightly-20240501-1", layout.LatestLink("O2")))

	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: &recordingBuilder{fileSystem: fileSystem}})
	require.NoError(testInstance, creationError)

	restoredLinks, purgeError := service.Purge(context.Background(), layout, testAnchors)
	require.NoError(testInstance, purgeError)
	require.Equal(testInstance, cleanup.LinkTarget{Link: layout.LatestLink("O2"), Target: testO2TargetConstant}, restoredLinks[0])
	require.Equal(testInstance, testO2TargetConstant, readLink(testInstance, fileSystem, layout.LatestLink("O2")))
}

func TestPurgeRemovesLinksOfEveryPackage(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	layout := cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}
	rootTarget := layout.PackageDirectory("ROOT") + "/v6-30-01-1"
	require.NoError(testInstance, fileSystem.MkdirAll(rootTarget, 0o755))
	require.NoError(testInstance, fileSystem.Symlink(rootTarget, layout.LatestLink("ROOT")))
	require.NoError(testInstance, fileSystem.Symlink(rootTarget, layout.ArchitectureDirectory()+"/ROOT-latest"))

	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: &recordingBuilder{fileSystem: fileSystem}})
	require.NoError(testInstance, creationError)

	restoredLinks, purgeError := service.Purge(context.Background(), layout, testAnchors)
	require.NoError(testInstance, purgeError)
	require.Len(testInstance, restoredLinks, 4)

	for _, removedLink := range []string{layout.LatestLink("ROOT"), layout.ArchitectureDirectory() + "/ROOT-latest"} {
		_, lstatError := fileSystem.Lstat(removedLink)
		require.ErrorIs(testInstance, lstatError, os.ErrNotExist, removedLink)
	}
	_, targetError := fileSystem.Stat(rootTarget)
	require.NoError(testInstance, targetError)
	require.Equal(testInstance, testPhysicsTargetConstant, readLink(testInstance, fileSystem, layout.LatestLink("O2Physics")))
}

func TestPurgeFailsFastOnMissingPaths(testInstance *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(fileSystem billy.Filesystem) error
		anchors       []cleanup.AnchorPackage
		expectedError error
	}{
		{
			name: "missing_latest_link",
			mutate: func(fileSystem billy.Filesystem) error {
				return fileSystem.Remove("/alice/sw/slc9_x86-64/O2Physics/latest")
			},
			anchors:       testAnchors,
			expectedError: cleanup.ErrMissingPath,
		},
		{
			name: "missing_development_link",
			mutate: func(fileSystem billy.Filesystem) error {
				return fileSystem.Remove("/alice/sw/BUILD/O2-latest")
			},
			anchors:       testAnchors,
			expectedError: cleanup.ErrMissingPath,
		},
		{
			name: "dangling_link",
			mutate: func(fileSystem billy.Filesystem) error {
				if removeError := fileSystem.Remove("/alice/sw/BUILD/O2Physics-latest"); removeError != nil {
					return removeError
				}
				return fileSystem.Symlink("/alice/sw/BUILD/gone", "/alice/sw/BUILD/O2Physics-latest")
			},
			anchors:       testAnchors,
			expectedError: cleanup.ErrMissingPath,
		},
		{
			name:          "missing_package_directory",
			anchors:       []cleanup.AnchorPackage{{Name: "O2"}, {Name: "Absent"}},
			expectedError: cleanup.ErrMissingPath,
		},
		{
			name:          "wrong_anchor_count",
			anchors:       testAnchors[:1],
			expectedError: cleanup.ErrAnchorCount,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := newWorkArea(testInstance)
			if testCase.mutate != nil {
				require.NoError(testInstance, testCase.mutate(fileSystem))
			}
			builder := &recordingBuilder{fileSystem: fileSystem}
			service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: builder})
			require.NoError(testInstance, creationError)

			_, purgeError := service.Purge(context.Background(), cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}, testCase.anchors)

			require.ErrorIs(testInstance, purgeError, testCase.expectedError)
			require.Empty(testInstance, builder.buildRequests)
			_, lstatError := fileSystem.Lstat("/alice/sw/BUILD/QualityControl-latest")
			require.NoError(testInstance, lstatError)
		})
	}
}

func TestRunReportsReclaimedSpace(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	builder := &recordingBuilder{fileSystem: fileSystem}
	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: builder})
	require.NoError(testInstance, creationError)

	report, runError := service.Run(context.Background(), cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}, cleanup.Options{Prune: true})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, uint64(5120), report.SizeBefore)
	require.Equal(testInstance, uint64(1024), report.SizeAfter)
	require.Equal(testInstance, uint64(4096), report.ReclaimedBytes)
	require.Equal(testInstance, []string{testArchitectureConstant}, builder.cleanedArches)
	require.Empty(testInstance, report.RestoredLinks)
}

func TestRunNeverReportsNegativeReclaimedSpace(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: &recordingBuilder{fileSystem: fileSystem, growOnClean: true}})
	require.NoError(testInstance, creationError)

	report, runError := service.Run(context.Background(), cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}, cleanup.Options{Prune: true})
	require.NoError(testInstance, runError)

	require.Greater(testInstance, report.SizeAfter, report.SizeBefore)
	require.Zero(testInstance, report.ReclaimedBytes)
}

func TestRunPropagatesPruneFailure(testInstance *testing.T) {
	fileSystem := newWorkArea(testInstance)
	pruneFailure := errors.New("clean failed")
	service, creationError := cleanup.NewService(cleanup.Dependencies{FileSystem: fileSystem, Builder: &recordingBuilder{fileSystem: fileSystem, cleanError: pruneFailure}})
	require.NoError(testInstance, creationError)

	_, runError := service.Run(context.Background(), cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}, cleanup.Options{Prune: true})
	require.ErrorIs(testInstance, runError, pruneFailure)
}

func TestDiskUsageIgnoresSymlinks(testInstance *testing.T) {
	fileSystem := memfs.New()
	require.NoError(testInstance, util.WriteFile(fileSystem, "/root/data/blob", make([]byte, 300), 0o644))
	require.NoError(testInstance, util.WriteFile(fileSystem, "/outside/huge", make([]byte, 9000), 0o644))
	require.NoError(testInstance, fileSystem.Symlink("/outside", "/root/outside-link"))

	totalBytes, usageError := cleanup.DiskUsage(fileSystem, "/root")
	require.NoError(testInstance, usageError)
	require.Equal(testInstance, uint64(300), totalBytes)

	_, usageError = cleanup.DiskUsage(fileSystem, "/missing")
	require.ErrorIs(testInstance, usageError, cleanup.ErrMissingPath)
}

func TestReclaimedBytesAndFormatting(testInstance *testing.T) {
	require.Equal(testInstance, uint64(0), cleanup.ReclaimedBytes(10, 20))
	require.Equal(testInstance, uint64(0), cleanup.ReclaimedBytes(10, 10))
	require.Equal(testInstance, uint64(7), cleanup.ReclaimedBytes(10, 3))

	require.Equal(testInstance, "1536", cleanup.FormatSize(1536, false))
	require.Equal(testInstance, "1.5 KiB", cleanup.FormatSize(1536, true))
	require.Equal(testInstance, "0 B", cleanup.FormatSize(0, true))
}
