package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/buildtool"
	"github.com/temirov/alisync/internal/cleanup"
	"github.com/temirov/alisync/internal/config"
	"github.com/temirov/alisync/internal/execshell"
	"github.com/temirov/alisync/internal/gitrepo"
	"github.com/temirov/alisync/internal/packages"
	"github.com/temirov/alisync/internal/pipeline"
	"github.com/temirov/alisync/internal/report"
	"github.com/temirov/alisync/internal/synchronize"
)

const (
	testRootConstant         = "/alice"
	testArchitectureConstant = "slc9_x86-64"
)

type scriptedShellExecutor struct {
	gitOutputs       map[string]string
	buildFailures    map[string]error
	recordedCommands []string
	workingDirectory map[string]string
}

func (executor *scriptedShellExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	arguments := strings.Join(details.Arguments, " ")
	executor.record("git "+arguments, details.WorkingDirectory)
	return execshell.ExecutionResult{StandardOutput: executor.gitOutputs[arguments]}, nil
}

func (executor *scriptedShellExecutor) ExecuteBuildTool(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	command := "aliBuild " + strings.Join(details.Arguments, " ")
	executor.record(command, details.WorkingDirectory)
	if failure, failing := executor.buildFailures[command]; failing {
		return execshell.ExecutionResult{}, failure
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *scriptedShellExecutor) record(command string, workingDirectory string) {
	executor.recordedCommands = append(executor.recordedCommands, command)
	if executor.workingDirectory == nil {
		executor.workingDirectory = map[string]string{}
	}
	executor.workingDirectory[command] = workingDirectory
}

type acceptingVerifier struct {
	verifiedPaths []string
}

func (verifier *acceptingVerifier) Verify(repositoryPath string) error {
	verifier.verifiedPaths = append(verifier.verifiedPaths, repositoryPath)
	return nil
}

type stubCleaner struct {
	report      cleanup.Report
	failure     error
	invocations int
	lastOptions cleanup.Options
	lastLayout  cleanup.Layout
}

func (cleaner *stubCleaner) Run(_ context.Context, layout cleanup.Layout, options cleanup.Options) (cleanup.Report, error) {
	cleaner.invocations++
	cleaner.lastLayout = layout
	cleaner.lastOptions = options
	return cleaner.report, cleaner.failure
}

type stubReporter struct {
	failure     error
	invocations int
}

func (reporter *stubReporter) Report(_ context.Context, descriptors []packages.PackageDescriptor) ([]report.Entry, error) {
	reporter.invocations++
	if reporter.failure != nil {
		return nil, reporter.failure
	}
	entries := make([]report.Entry, 0, len(descriptors))
	for _, descriptor := range descriptors {
		entries = append(entries, report.Entry{PackageName: descriptor.Name})
	}
	return entries, nil
}

type pipelineFixture struct {
	executor *scriptedShellExecutor
	verifier *acceptingVerifier
	cleaner  *stubCleaner
	reporter *stubReporter
	output   *bytes.Buffer
	runner   *pipeline.Runner
}

func newPipelineFixture(testInstance *testing.T, executor *scriptedShellExecutor) pipelineFixture {
	testInstance.Helper()
	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, managerError)

	verifier := &acceptingVerifier{}
	synchronizer, synchronizerError := synchronize.NewService(synchronize.Dependencies{
		RepositoryVerifier: verifier,
		RepositoryManager:  repositoryManager,
		Logger:             zap.NewNop(),
	})
	require.NoError(testInstance, synchronizerError)

	output := &bytes.Buffer{}
	builder, builderError := buildtool.NewClient(buildtool.Dependencies{Executor: executor, WorkingDirectory: testRootConstant, Output: output})
	require.NoError(testInstance, builderError)

	cleaner := &stubCleaner{}
	reporter := &stubReporter{}
	runner, runnerError := pipeline.NewRunner(pipeline.Dependencies{
		Synchronizer: synchronizer,
		Builder:      builder,
		Cleaner:      cleaner,
		Reporter:     reporter,
		Output:       output,
	})
	require.NoError(testInstance, runnerError)

	return pipelineFixture{executor: executor, verifier: verifier, cleaner: cleaner, reporter: reporter, output: output, runner: runner}
}

func newConfiguration(testInstance *testing.T, descriptorFields ...[]any) config.RunConfiguration {
	testInstance.Helper()
	configuration := config.RunConfiguration{
		Root:         testRootConstant,
		Architecture: testArchitectureConstant,
		Cleanup: config.CleanupConfiguration{Anchors: []cleanup.AnchorPackage{
			{Name: "O2", Options: "--defaults o2"},
			{Name: "O2Physics", Options: "--defaults o2"},
		}},
	}
	for _, fields := range descriptorFields {
		descriptor, descriptorError := packages.DescriptorFromFields(fields)
		require.NoError(testInstance, descriptorError)
		configuration.Packages = append(configuration.Packages, descriptor)
	}
	return configuration
}

func TestNewRunnerValidatesDependencies(testInstance *testing.T) {
	_, creationError := pipeline.NewRunner(pipeline.Dependencies{})
	require.ErrorIs(testInstance, creationError, pipeline.ErrSynchronizerNotConfigured)
}

func TestRunSynchronizesForkedRepositoryWithoutBuilding(testInstance *testing.T) {
	executor := &scriptedShellExecutor{gitOutputs: map[string]string{"rev-parse --abbrev-ref HEAD": "dev\n"}}
	fixture := newPipelineFixture(testInstance, executor)
	configuration := newConfiguration(testInstance, []any{"O2", 1, "/repo/o2", "upstream", "myfork", "dev", "", 0})

	outcome, runError := fixture.runner.Run(context.Background(), configuration, pipeline.DefaultStages(configuration))
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{
		"git rev-parse --abbrev-ref HEAD",
		"git stash list",
		"git stash",
		"git stash list",
		"git checkout dev",
		"git pull --rebase myfork dev",
		"git pull --rebase upstream dev",
		"git push -f myfork dev",
	}, executor.recordedCommands)
	for _, command := range executor.recordedCommands {
		require.Equal(testInstance, "/repo/o2", executor.workingDirectory[command])
	}
	require.Equal(testInstance, []string{"/repo/o2"}, fixture.verifier.verifiedPaths)
	require.Len(testInstance, outcome.Synchronized, 1)
	require.Empty(testInstance, outcome.Built)
	require.Nil(testInstance, outcome.Cleanup)
	require.Zero(testInstance, fixture.cleaner.invocations)
	require.Zero(testInstance, fixture.reporter.invocations)
}

func TestRunBuildsWithoutSynchronizingWhenUpdateDisabled(testInstance *testing.T) {
	executor := &scriptedShellExecutor{}
	fixture := newPipelineFixture(testInstance, executor)
	configuration := newConfiguration(testInstance, []any{"QualityControl", 0, "/repo/qc", "upstream", "", "master", "--defaults o2 --debug", 1})

	outcome, runError := fixture.runner.Run(context.Background(), configuration, pipeline.DefaultStages(configuration))
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{"aliBuild build QualityControl --defaults o2 --debug -a slc9_x86-64"}, executor.recordedCommands)
	require.Equal(testInstance, testRootConstant, executor.workingDirectory[executor.recordedCommands[0]])
	require.Empty(testInstance, fixture.verifier.verifiedPaths)
	require.Equal(testInstance, []string{"QualityControl"}, outcome.Built)
	require.Contains(testInstance, fixture.output.String(), "Skipping update of QualityControl\n")
	require.Contains(testInstance, fixture.output.String(), "  QualityControl [update: no, build: yes]\n")
}

func TestRunStopsAtFirstBuildFailure(testInstance *testing.T) {
	buildFailure := errors.New("exit status 1")
	executor := &scriptedShellExecutor{buildFailures: map[string]error{"aliBuild build O2 -a slc9_x86-64": buildFailure}}
	fixture := newPipelineFixture(testInstance, executor)
	configuration := newConfiguration(testInstance,
		[]any{"O2", 0, "/repo/o2", "upstream", "", "dev", "", 1},
		[]any{"O2Physics", 0, "/repo/o2physics", "upstream", "", "master", "", 1},
	)
	configuration.Report = true

	_, runError := fixture.runner.Run(context.Background(), configuration, pipeline.DefaultStages(configuration))

	var stageError pipeline.StageError
	require.ErrorAs(testInstance, runError, &stageError)
	require.Equal(testInstance, pipeline.StageBuild, stageError.Stage)
	require.Equal(testInstance, "O2", stageError.PackageName)
	require.ErrorIs(testInstance, runError, buildFailure)
	require.Equal(testInstance, []string{"aliBuild build O2 -a slc9_x86-64"}, executor.recordedCommands)
	require.Zero(testInstance, fixture.reporter.invocations)
}

func TestRunCleansUpAndReports(testInstance *testing.T) {
	executor := &scriptedShellExecutor{}
	fixture := newPipelineFixture(testInstance, executor)
	fixture.cleaner.report = cleanup.Report{SizeBefore: 3 << 30, SizeAfter: 1 << 30, ReclaimedBytes: 2 << 30}
	configuration := newConfiguration(testInstance, []any{"O2", 0, "/repo/o2", "upstream", "", "dev"})
	configuration.Cleanup.Purge = true
	configuration.Cleanup.HumanReadable = true
	configuration.Report = true

	outcome, runError := fixture.runner.Run(context.Background(), configuration, pipeline.DefaultStages(configuration))
	require.NoError(testInstance, runError)

	require.Equal(testInstance, 1, fixture.cleaner.invocations)
	require.Equal(testInstance, cleanup.Layout{Root: testRootConstant, Architecture: testArchitectureConstant}, fixture.cleaner.lastLayout)
	require.True(testInstance, fixture.cleaner.lastOptions.Purge)
	require.False(testInstance, fixture.cleaner.lastOptions.Prune)
	require.Len(testInstance, fixture.cleaner.lastOptions.Anchors, 2)
	require.Contains(testInstance, fixture.output.String(), "Disk usage of /alice: 3.0 GiB before, 1.0 GiB after, 2.0 GiB reclaimed\n")
	require.NotNil(testInstance, outcome.Cleanup)
	require.Equal(testInstance, 1, fixture.reporter.invocations)
	require.Len(testInstance, outcome.Report, 1)
	require.Empty(testInstance, executor.recordedCommands)
}

func TestRunWrapsCleanupAndReportFailures(testInstance *testing.T) {
	testCases := []struct {
		name          string
		prepare       func(fixture pipelineFixture, configuration *config.RunConfiguration)
		expectedStage pipeline.Stage
	}{
		{
			name: "cleanup",
			prepare: func(fixture pipelineFixture, configuration *config.RunConfiguration) {
				fixture.cleaner.failure = cleanup.PathError{Path: "/alice/sw/BUILD/O2-latest", Cause: cleanup.ErrMissingPath}
				configuration.Cleanup.Prune = true
			},
			expectedStage: pipeline.StageCleanup,
		},
		{
			name: "report",
			prepare: func(fixture pipelineFixture, configuration *config.RunConfiguration) {
				fixture.reporter.failure = errors.New("git log failed")
				configuration.Report = true
			},
			expectedStage: pipeline.StageReport,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newPipelineFixture(testInstance, &scriptedShellExecutor{})
			configuration := newConfiguration(testInstance)
			testCase.prepare(fixture, &configuration)

			_, runError := fixture.runner.Run(context.Background(), configuration, pipeline.DefaultStages(configuration))

			var stageError pipeline.StageError
			require.ErrorAs(testInstance, runError, &stageError)
			require.Equal(testInstance, testCase.expectedStage, stageError.Stage)
			require.Empty(testInstance, stageError.PackageName)
		})
	}
}

func TestRunHonorsSelectedStages(testInstance *testing.T) {
	executor := &scriptedShellExecutor{}
	fixture := newPipelineFixture(testInstance, executor)
	configuration := newConfiguration(testInstance, []any{"O2", 1, "/repo/o2", "upstream", "", "dev", "", 1})
	configuration.Report = false

	_, runError := fixture.runner.Run(context.Background(), configuration, pipeline.Stages{Report: true})
	require.NoError(testInstance, runError)

	require.Empty(testInstance, executor.recordedCommands)
	require.Equal(testInstance, 1, fixture.reporter.invocations)
}

func TestStageErrorMessage(testInstance *testing.T) {
	cause := errors.New("boom")
	require.Equal(testInstance, "build O2: boom", pipeline.StageError{Stage: pipeline.StageBuild, PackageName: "O2", Cause: cause}.Error())
	require.Equal(testInstance, "cleanup: boom", pipeline.StageError{Stage: pipeline.StageCleanup, Cause: cause}.Error())
}

func TestRunOmitsArchitectureSummaryWhenUnresolved(testInstance *testing.T) {
	executor := &scriptedShellExecutor{gitOutputs: map[string]string{"rev-parse --abbrev-ref HEAD": "dev\n"}}
	fixture := newPipelineFixture(testInstance, executor)
	configuration := newConfiguration(testInstance, []any{"O2", 1, "/repo/o2", "upstream", "", "dev", "", 0})
	configuration.Architecture = ""

	_, runError := fixture.runner.Run(context.Background(), configuration, pipeline.Stages{Synchronize: true})
	require.NoError(testInstance, runError)

	require.NotContains(testInstance, fixture.output.String(), "Architecture:")
}
