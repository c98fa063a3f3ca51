package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/buildtool"
	"github.com/temirov/alisync/internal/cleanup"
	"github.com/temirov/alisync/internal/config"
	"github.com/temirov/alisync/internal/execshell"
	"github.com/temirov/alisync/internal/gitrepo"
	"github.com/temirov/alisync/internal/pipeline"
	"github.com/temirov/alisync/internal/report"
	"github.com/temirov/alisync/internal/synchronize"
	"github.com/temirov/alisync/internal/ui"
)

const (
	architectureErrorTemplateConstant   = "unable to determine architecture: %w"
	architectureResolvedMessageConstant = "Architecture resolved"
	logFieldArchitectureConstant        = "architecture"
)

type pipelineRuntime struct {
	configuration config.RunConfiguration
	runner        *pipeline.Runner
}

func (application *Application) assembleRuntime(executionContext context.Context, output io.Writer, stages pipeline.Stages) (pipelineRuntime, error) {
	configuration := application.configuration

	verifier := execshell.NewExecutableVerifier(application.environment.PathLookup)
	if verificationError := verifier.Verify(execshell.CommandName(configuration.GitExecutable), execshell.CommandName(configuration.BuildTool)); verificationError != nil {
		return pipelineRuntime{}, verificationError
	}

	executorOptions := []execshell.ExecutorOption{
		execshell.WithGitExecutable(configuration.GitExecutable),
		execshell.WithBuildToolExecutable(configuration.BuildTool),
	}
	if application.humanReadableLoggingEnabled() {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(application.logger)))
	}
	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, application.environment.CommandRunner, executorOptions...)
	if executorError != nil {
		return pipelineRuntime{}, executorError
	}

	buildClient, buildClientError := buildtool.NewClient(buildtool.Dependencies{
		Executor:         shellExecutor,
		WorkingDirectory: configuration.Root,
		Output:           output,
	})
	if buildClientError != nil {
		return pipelineRuntime{}, buildClientError
	}

	if len(configuration.Architecture) == 0 && requiresBuildTool(configuration, stages) {
		architecture, architectureError := buildClient.Architecture(executionContext)
		if architectureError != nil {
			return pipelineRuntime{}, fmt.Errorf(architectureErrorTemplateConstant, architectureError)
		}
		configuration = configuration.WithArchitecture(architecture)
		application.logger.Debug(architectureResolvedMessageConstant, zap.String(logFieldArchitectureConstant, architecture))
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor)
	if managerError != nil {
		return pipelineRuntime{}, managerError
	}

	synchronizer, synchronizerError := synchronize.NewService(synchronize.Dependencies{
		RepositoryVerifier: application.environment.RepositoryVerifier,
		RepositoryManager:  repositoryManager,
		Logger:             application.logger,
	})
	if synchronizerError != nil {
		return pipelineRuntime{}, synchronizerError
	}

	cleaner, cleanerError := cleanup.NewService(cleanup.Dependencies{
		FileSystem: application.environment.FileSystem,
		Builder:    buildClient,
		Logger:     application.logger,
	})
	if cleanerError != nil {
		return pipelineRuntime{}, cleanerError
	}

	reporter, reporterError := report.NewService(report.Dependencies{
		RepositoryReader: repositoryManager,
		Output:           output,
		Logger:           application.logger,
	})
	if reporterError != nil {
		return pipelineRuntime{}, reporterError
	}

	runner, runnerError := pipeline.NewRunner(pipeline.Dependencies{
		Synchronizer: synchronizer,
		Builder:      buildClient,
		Cleaner:      cleaner,
		Reporter:     reporter,
		Output:       output,
		Logger:       application.logger,
	})
	if runnerError != nil {
		return pipelineRuntime{}, runnerError
	}

	return pipelineRuntime{configuration: configuration, runner: runner}, nil
}
