package buildtool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/alisync/internal/execshell"
	"github.com/temirov/alisync/internal/utils"
)

const (
	executorMissingMessageConstant           = "build tool executor not configured"
	packageNameRequiredMessageConstant       = "package name must be provided"
	architectureRequiredMessageConstant      = "architecture must be provided"
	architectureEmptyMessageConstant         = "build tool reported an empty architecture"
	architectureQueryFailureTemplateConstant = "failed to query architecture: %w"
	buildFailureTemplateConstant             = "failed to build %s: %w"
	cleanFailureTemplateConstant             = "failed to prune build area for %s: %w"
	buildSubcommandConstant                  = "build"
	cleanSubcommandConstant                  = "clean"
	architectureSubcommandConstant           = "architecture"
	architectureFlagConstant                 = "-a"
	defaultWorkingDirectoryConstant          = "."
)

// ErrExecutorNotConfigured indicates the client was created without an executor.
var ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrPackageNameRequired indicates a build request without a package name.
var ErrPackageNameRequired = errors.New(packageNameRequiredMessageConstant)

// ErrArchitectureRequired indicates a build or clean request without an architecture.
var ErrArchitectureRequired = errors.New(architectureRequiredMessageConstant)

// ErrEmptyArchitecture indicates the architecture query printed nothing.
var ErrEmptyArchitecture = errors.New(architectureEmptyMessageConstant)

// Executor runs the build tool.
type Executor interface {
	ExecuteBuildTool(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Dependencies enumerates collaborators of the build tool client.
type Dependencies struct {
	Executor         Executor
	WorkingDirectory string
	Output           io.Writer
}

// BuildRequest describes a single package build.
type BuildRequest struct {
	PackageName  string
	Options      string
	Architecture string
	Silent       bool
}

// Client invokes the build tool from the work area root.
type Client struct {
	executor         Executor
	workingDirectory string
	output           io.Writer
}

// NewClient constructs a Client.
func NewClient(dependencies Dependencies) (*Client, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	workingDirectory := strings.TrimSpace(dependencies.WorkingDirectory)
	if len(workingDirectory) == 0 {
		workingDirectory = defaultWorkingDirectoryConstant
	}
	return &Client{executor: dependencies.Executor, workingDirectory: workingDirectory, output: dependencies.Output}, nil
}

// Architecture returns the platform identifier reported by the build tool.
func (client *Client) Architecture(executionContext context.Context) (string, error) {
	executionResult, executionError := client.executor.ExecuteBuildTool(executionContext, execshell.CommandDetails{
		Arguments:        []string{architectureSubcommandConstant},
		WorkingDirectory: client.workingDirectory,
	})
	if executionError != nil {
		return "", fmt.Errorf(architectureQueryFailureTemplateConstant, executionError)
	}

	architecture := strings.TrimSpace(executionResult.StandardOutput)
	if len(architecture) == 0 {
		return "", ErrEmptyArchitecture
	}
	return architecture, nil
}

// Build runs "build <package> <options...> -a <architecture>".
// Output is mirrored to the configured writer unless the request is silent.
func (client *Client) Build(executionContext context.Context, request BuildRequest) error {
	packageName := strings.TrimSpace(request.PackageName)
	if len(packageName) == 0 {
		return ErrPackageNameRequired
	}
	architecture := strings.TrimSpace(request.Architecture)
	if len(architecture) == 0 {
		return ErrArchitectureRequired
	}

	arguments := []string{buildSubcommandConstant, packageName}
	arguments = append(arguments, strings.Fields(request.Options)...)
	arguments = append(arguments, architectureFlagConstant, architecture)

	details := execshell.CommandDetails{Arguments: arguments, WorkingDirectory: client.workingDirectory}
	if !request.Silent && client.output != nil {
		details.OutputWriter = utils.NewFlushingWriter(client.output)
	}

	if _, executionError := client.executor.ExecuteBuildTool(executionContext, details); executionError != nil {
		return fmt.Errorf(buildFailureTemplateConstant, packageName, executionError)
	}
	return nil
}

// Clean runs "clean -a <architecture>" to prune obsolete build products.
func (client *Client) Clean(executionContext context.Context, architecture string) error {
	trimmedArchitecture := strings.TrimSpace(architecture)
	if len(trimmedArchitecture) == 0 {
		return ErrArchitectureRequired
	}

	_, executionError := client.executor.ExecuteBuildTool(executionContext, execshell.CommandDetails{
		Arguments:        []string{cleanSubcommandConstant, architectureFlagConstant, trimmedArchitecture},
		WorkingDirectory: client.workingDirectory,
	})
	if executionError != nil {
		return fmt.Errorf(cleanFailureTemplateConstant, trimmedArchitecture, executionError)
	}
	return nil
}
