package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/buildtool"
	"github.com/temirov/alisync/internal/cleanup"
	"github.com/temirov/alisync/internal/config"
	"github.com/temirov/alisync/internal/packages"
	"github.com/temirov/alisync/internal/report"
	"github.com/temirov/alisync/internal/synchronize"
)

const (
	summaryRootTemplateConstant         = "Root: %s\n"
	summaryArchitectureTemplateConstant = "Architecture: %s\n"
	summaryPackagesHeaderConstant       = "Packages:\n"
	summaryPackageTemplateConstant      = "  %s [update: %s, build: %s]\n"
	summaryCleanupTemplateConstant      = "Cleanup: purge=%s prune=%s\n"
	summaryReportTemplateConstant       = "Report: %s\n"
	skipUpdateTemplateConstant          = "Skipping update of %s\n"
	detachedHeadTemplateConstant        = "%s: detached HEAD, not synchronized\n"
	diskUsageTemplateConstant           = "Disk usage of %s: %s before, %s after, %s reclaimed\n"
	affirmativeLabelConstant            = "yes"
	negativeLabelConstant               = "no"
	packageUpdatedMessageConstant       = "Package updated"
	packageBuiltMessageConstant         = "Package built"
	cleanupCompletedMessageConstant     = "Cleanup completed"
	logFieldPackageConstant             = "package"
	logFieldBranchConstant              = "branch"
	logFieldStashedConstant             = "stashed"
	logFieldArchitectureConstant        = "architecture"
	logFieldReclaimedBytesConstant      = "reclaimed_bytes"
)

// Synchronizer updates a repository from its remotes.
type Synchronizer interface {
	Synchronize(executionContext context.Context, descriptor packages.PackageDescriptor) (synchronize.Result, error)
}

// Builder builds one package.
type Builder interface {
	Build(executionContext context.Context, request buildtool.BuildRequest) error
}

// Cleaner runs the cleanup phases.
type Cleaner interface {
	Run(executionContext context.Context, layout cleanup.Layout, options cleanup.Options) (cleanup.Report, error)
}

// Reporter prints the state of every repository.
type Reporter interface {
	Report(executionContext context.Context, descriptors []packages.PackageDescriptor) ([]report.Entry, error)
}

// Dependencies enumerates the stage implementations used by the runner.
type Dependencies struct {
	Synchronizer Synchronizer
	Builder      Builder
	Cleaner      Cleaner
	Reporter     Reporter
	Output       io.Writer
	Logger       *zap.Logger
}

// Stages selects which steps a run performs.
type Stages struct {
	Synchronize bool
	Build       bool
	Cleanup     bool
	Report      bool
}

// DefaultStages runs every package update and the cleanup and report steps the configuration enables.
func DefaultStages(configuration config.RunConfiguration) Stages {
	return Stages{
		Synchronize: true,
		Build:       true,
		Cleanup:     configuration.Cleanup.Enabled(),
		Report:      configuration.Report,
	}
}

// Outcome collects what each stage did.
type Outcome struct {
	Synchronized []synchronize.Result
	Built        []string
	Cleanup      *cleanup.Report
	Report       []report.Entry
}

// Runner executes the stages in order and stops at the first failure.
type Runner struct {
	synchronizer Synchronizer
	builder      Builder
	cleaner      Cleaner
	reporter     Reporter
	output       io.Writer
	logger       *zap.Logger
}

// NewRunner constructs a Runner. Output defaults to standard output.
func NewRunner(dependencies Dependencies) (*Runner, error) {
	if dependencies.Synchronizer == nil {
		return nil, ErrSynchronizerNotConfigured
	}
	if dependencies.Builder == nil {
		return nil, ErrBuilderNotConfigured
	}
	if dependencies.Cleaner == nil {
		return nil, ErrCleanerNotConfigured
	}
	if dependencies.Reporter == nil {
		return nil, ErrReporterNotConfigured
	}
	output := dependencies.Output
	if output == nil {
		output = os.Stdout
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		synchronizer: dependencies.Synchronizer,
		builder:      dependencies.Builder,
		cleaner:      dependencies.Cleaner,
		reporter:     dependencies.Reporter,
		output:       output,
		logger:       logger,
	}, nil
}

// Run prints the configuration summary, updates every package, then cleans up and reports when selected.
func (runner *Runner) Run(executionContext context.Context, configuration config.RunConfiguration, stages Stages) (Outcome, error) {
	outcome := Outcome{}
	runner.printSummary(configuration)

	if stages.Synchronize || stages.Build {
		for _, descriptor := range configuration.Packages {
			if updateError := runner.updatePackage(executionContext, configuration, descriptor, stages, &outcome); updateError != nil {
				return outcome, updateError
			}
		}
	}

	if stages.Cleanup && configuration.Cleanup.Enabled() {
		cleanupReport, cleanupError := runner.cleaner.Run(executionContext, configuration.Layout(), configuration.Cleanup.Options())
		if cleanupError != nil {
			return outcome, StageError{Stage: StageCleanup, Cause: cleanupError}
		}
		outcome.Cleanup = &cleanupReport
		humanReadable := configuration.Cleanup.HumanReadable
		runner.printf(diskUsageTemplateConstant,
			configuration.Root,
			cleanup.FormatSize(cleanupReport.SizeBefore, humanReadable),
			cleanup.FormatSize(cleanupReport.SizeAfter, humanReadable),
			cleanup.FormatSize(cleanupReport.ReclaimedBytes, humanReadable),
		)
		runner.logger.Info(cleanupCompletedMessageConstant, zap.Uint64(logFieldReclaimedBytesConstant, cleanupReport.ReclaimedBytes))
	}

	if stages.Report {
		entries, reportError := runner.reporter.Report(executionContext, configuration.Packages)
		outcome.Report = entries
		if reportError != nil {
			return outcome, StageError{Stage: StageReport, Cause: reportError}
		}
	}

	return outcome, nil
}

func (runner *Runner) updatePackage(executionContext context.Context, configuration config.RunConfiguration, descriptor packages.PackageDescriptor, stages Stages, outcome *Outcome) error {
	if stages.Synchronize {
		if descriptor.UpdateEnabled {
			result, synchronizeError := runner.synchronizer.Synchronize(executionContext, descriptor)
			if synchronizeError != nil {
				return StageError{Stage: StageSynchronize, PackageName: descriptor.Name, Cause: synchronizeError}
			}
			outcome.Synchronized = append(outcome.Synchronized, result)
			if result.Detached {
				runner.printf(detachedHeadTemplateConstant, descriptor.Name)
			}
			runner.logger.Info(packageUpdatedMessageConstant,
				zap.String(logFieldPackageConstant, descriptor.Name),
				zap.String(logFieldBranchConstant, result.BranchName),
				zap.Bool(logFieldStashedConstant, result.Stashed),
			)
		} else {
			runner.printf(skipUpdateTemplateConstant, descriptor.Name)
		}
	}

	if stages.Build && descriptor.BuildEnabled() {
		buildError := runner.builder.Build(executionContext, buildtool.BuildRequest{
			PackageName:  descriptor.Name,
			Options:      descriptor.BuildOptions(),
			Architecture: configuration.Architecture,
		})
		if buildError != nil {
			return StageError{Stage: StageBuild, PackageName: descriptor.Name, Cause: buildError}
		}
		outcome.Built = append(outcome.Built, descriptor.Name)
		runner.logger.Info(packageBuiltMessageConstant,
			zap.String(logFieldPackageConstant, descriptor.Name),
			zap.String(logFieldArchitectureConstant, configuration.Architecture),
		)
	}

	return nil
}

func (runner *Runner) printSummary(configuration config.RunConfiguration) {
	runner.printf(summaryRootTemplateConstant, configuration.Root)
	if len(configuration.Architecture) > 0 {
		runner.printf(summaryArchitectureTemplateConstant, configuration.Architecture)
	}
	runner.printf(summaryPackagesHeaderConstant)
	for _, descriptor := range configuration.Packages {
		runner.printf(summaryPackageTemplateConstant, descriptor.Name, formatFlag(descriptor.UpdateEnabled), formatFlag(descriptor.BuildEnabled()))
	}
	runner.printf(summaryCleanupTemplateConstant, formatFlag(configuration.Cleanup.Purge), formatFlag(configuration.Cleanup.Prune))
	runner.printf(summaryReportTemplateConstant, formatFlag(configuration.Report))
}

func (runner *Runner) printf(format string, arguments ...any) {
	fmt.Fprintf(runner.output, format, arguments...)
}

func formatFlag(value bool) string {
	if value {
		return affirmativeLabelConstant
	}
	return negativeLabelConstant
}
