package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/buildtool"
)

const (
	fileSystemMissingMessageConstant = "cleanup filesystem not configured"
	builderMissingMessageConstant    = "cleanup builder not configured"
	measureBeforeTemplateConstant    = "failed to measure disk usage before cleanup: %w"
	measureAfterTemplateConstant     = "failed to measure disk usage after cleanup: %w"
	purgeFailureTemplateConstant     = "purge failed: %w"
	rebuildFailureTemplateConstant   = "failed to rebuild anchor %s: %w"
	pruneFailureTemplateConstant     = "prune failed: %w"
	purgeStartedMessageConstant      = "Purging build symlinks"
	linkRemovedMessageConstant       = "Removed symlink"
	linkRestoredMessageConstant      = "Restored symlink"
	treeGrewMessageConstant          = "Work area grew during cleanup"
	logFieldRootConstant             = "root"
	logFieldLinkConstant             = "link"
	logFieldTargetConstant           = "target"
	logFieldAnchorsConstant          = "anchors"
	logFieldSizeBeforeConstant       = "size_before"
	logFieldSizeAfterConstant        = "size_after"
)

// RequiredAnchorCount is the number of anchor packages a purge rebuilds.
const RequiredAnchorCount = 2

// ErrFileSystemNotConfigured indicates the service was created without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemMissingMessageConstant)

// ErrBuilderNotConfigured indicates the service was created without a builder.
var ErrBuilderNotConfigured = errors.New(builderMissingMessageConstant)

// Builder runs the build tool on behalf of the cleanup stage.
type Builder interface {
	Build(executionContext context.Context, request buildtool.BuildRequest) error
	Clean(executionContext context.Context, architecture string) error
}

// AnchorPackage names a package rebuilt during a purge so the build tool recreates its links.
type AnchorPackage struct {
	Name    string
	Options string
}

// Options selects the cleanup phases.
type Options struct {
	Purge   bool
	Prune   bool
	Anchors []AnchorPackage
}

// LinkTarget records where a symbolic link pointed before the purge.
type LinkTarget struct {
	Link   string
	Target string
}

// Report summarizes a cleanup run.
type Report struct {
	SizeBefore     uint64
	SizeAfter      uint64
	ReclaimedBytes uint64
	RestoredLinks  []LinkTarget
}

// Dependencies enumerates collaborators of the cleanup service.
type Dependencies struct {
	FileSystem billy.Filesystem
	Builder    Builder
	Logger     *zap.Logger
}

// Service purges build symlinks, prunes the build area and measures reclaimed space.
type Service struct {
	fileSystem billy.Filesystem
	builder    Builder
	logger     *zap.Logger
}

// NewService constructs a Service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Builder == nil {
		return nil, ErrBuilderNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fileSystem: dependencies.FileSystem, builder: dependencies.Builder, logger: logger}, nil
}

// Run measures the work area, applies the selected phases and measures it again.
func (service *Service) Run(executionContext context.Context, layout Layout, options Options) (Report, error) {
	report := Report{}

	sizeBefore, measureError := DiskUsage(service.fileSystem, layout.Root)
	if measureError != nil {
		return report, fmt.Errorf(measureBeforeTemplateConstant, measureError)
	}
	report.SizeBefore = sizeBefore

	if options.Purge {
		restoredLinks, purgeError := service.Purge(executionContext, layout, options.Anchors)
		if purgeError != nil {
			return report, fmt.Errorf(purgeFailureTemplateConstant, purgeError)
		}
		report.RestoredLinks = restoredLinks
	}

	if options.Prune {
		if pruneError := service.builder.Clean(executionContext, layout.Architecture); pruneError != nil {
			return report, fmt.Errorf(pruneFailureTemplateConstant, pruneError)
		}
	}

	sizeAfter, measureError := DiskUsage(service.fileSystem, layout.Root)
	if measureError != nil {
		return report, fmt.Errorf(measureAfterTemplateConstant, measureError)
	}
	report.SizeAfter = sizeAfter
	report.ReclaimedBytes = ReclaimedBytes(sizeBefore, sizeAfter)
	if sizeAfter > sizeBefore {
		service.logger.Debug(treeGrewMessageConstant,
			zap.String(logFieldRootConstant, layout.Root),
			zap.Uint64(logFieldSizeBeforeConstant, sizeBefore),
			zap.Uint64(logFieldSizeAfterConstant, sizeAfter),
		)
	}

	return report, nil
}

// Purge records the latest links of both anchors, deletes the first-level links of the architecture
// directory, of every package directory below it and of the BUILD directory, rebuilds the anchors
// silently and restores the recorded links.
func (service *Service) Purge(executionContext context.Context, layout Layout, anchors []AnchorPackage) ([]LinkTarget, error) {
	if len(anchors) != RequiredAnchorCount {
		return nil, ErrAnchorCount
	}
	anchorNames := make([]string, 0, len(anchors))
	for _, anchor := range anchors {
		if len(strings.TrimSpace(anchor.Name)) == 0 {
			return nil, ErrAnchorNameRequired
		}
		anchorNames = append(anchorNames, anchor.Name)
	}
	service.logger.Info(purgeStartedMessageConstant, zap.Strings(logFieldAnchorsConstant, anchorNames))

	for _, directoryPath := range []string{layout.ArchitectureDirectory(), layout.BuildDirectory()} {
		if directoryError := requireDirectory(service.fileSystem, directoryPath); directoryError != nil {
			return nil, directoryError
		}
	}

	recordedLinks := make([]LinkTarget, 0, len(anchors)*2)
	for _, anchor := range anchors {
		if directoryError := requireDirectory(service.fileSystem, layout.PackageDirectory(anchor.Name)); directoryError != nil {
			return nil, directoryError
		}
		for _, linkPath := range []string{layout.LatestLink(anchor.Name), layout.DevelopmentLink(anchor.Name)} {
			target, resolveError := resolveLink(service.fileSystem, linkPath)
			if resolveError != nil {
				return nil, resolveError
			}
			recordedLinks = append(recordedLinks, LinkTarget{Link: linkPath, Target: target})
		}
	}

	directoriesToClear, listError := linkDirectories(service.fileSystem, layout)
	if listError != nil {
		return nil, listError
	}
	for _, directoryPath := range directoriesToClear {
		removedLinks, removeError := removeFirstLevelLinks(service.fileSystem, directoryPath)
		for _, removedLink := range removedLinks {
			service.logger.Debug(linkRemovedMessageConstant, zap.String(logFieldLinkConstant, removedLink))
		}
		if removeError != nil {
			return nil, removeError
		}
	}

	for _, anchor := range anchors {
		buildError := service.builder.Build(executionContext, buildtool.BuildRequest{
			PackageName:  anchor.Name,
			Options:      anchor.Options,
			Architecture: layout.Architecture,
			Silent:       true,
		})
		if buildError != nil {
			return nil, fmt.Errorf(rebuildFailureTemplateConstant, anchor.Name, buildError)
		}
	}

	for _, recordedLink := range recordedLinks {
		if replaceError := replaceLink(service.fileSystem, recordedLink.Link, recordedLink.Target); replaceError != nil {
			return nil, replaceError
		}
		service.logger.Debug(linkRestoredMessageConstant,
			zap.String(logFieldLinkConstant, recordedLink.Link),
			zap.String(logFieldTargetConstant, recordedLink.Target),
		)
	}

	return recordedLinks, nil
}
