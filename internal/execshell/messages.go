package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRevParseSubcommandNameConstant  = "rev-parse"
	gitAbbrevRefFlagConstant           = "--abbrev-ref"
	gitCheckoutSubcommandNameConstant  = "checkout"
	gitPullSubcommandNameConstant      = "pull"
	gitPushSubcommandNameConstant      = "push"
	gitStashSubcommandNameConstant     = "stash"
	gitStashPopSubcommandNameConstant  = "pop"
	gitStashListSubcommandNameConstant = "list"
	gitLogSubcommandNameConstant       = "log"
	buildToolBuildSubcommandConstant   = "build"
	buildToolCleanSubcommandConstant   = "clean"
	buildToolArchSubcommandConstant    = "architecture"
	buildToolArchitectureFlagConstant  = "-a"
)

const (
	gitCurrentBranchStartTemplateConstant            = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant          = "Identified current branch in %s"
	gitCurrentBranchFailureTemplateConstant          = "Failed to identify current branch in %s (exit code %d%s)"
	gitCurrentBranchExecutionFailureTemplateConstant = "Unable to identify current branch in %s: %s"
	gitCheckoutStartTemplateConstant                 = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant               = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant               = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplateConstant      = "Unable to switch %s to branch %s: %s"
	gitPullStartTemplateConstant                     = "Rebasing %s onto %s/%s"
	gitPullSuccessTemplateConstant                   = "Rebased %s onto %s/%s"
	gitPullFailureTemplateConstant                   = "Failed to rebase %s onto %s/%s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant          = "Unable to rebase %s onto %s/%s: %s"
	gitPushStartTemplateConstant                     = "Force pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                   = "Force pushed %s to %s from %s"
	gitPushFailureTemplateConstant                   = "Failed to force push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant          = "Unable to force push %s to %s from %s: %s"
	gitStashStartTemplateConstant                    = "Stashing local changes in %s"
	gitStashSuccessTemplateConstant                  = "Stashed local changes in %s"
	gitStashFailureTemplateConstant                  = "Failed to stash local changes in %s (exit code %d%s)"
	gitStashExecutionFailureTemplateConstant         = "Unable to stash local changes in %s: %s"
	gitStashPopStartTemplateConstant                 = "Restoring stashed changes in %s"
	gitStashPopSuccessTemplateConstant               = "Restored stashed changes in %s"
	gitStashPopFailureTemplateConstant               = "Failed to restore stashed changes in %s (exit code %d%s)"
	gitStashPopExecutionFailureTemplateConstant      = "Unable to restore stashed changes in %s: %s"
	gitStashListStartTemplateConstant                = "Counting stash entries in %s"
	gitStashListSuccessTemplateConstant              = "Counted stash entries in %s"
	gitStashListFailureTemplateConstant              = "Failed to count stash entries in %s (exit code %d%s)"
	gitStashListExecutionFailureTemplateConstant     = "Unable to count stash entries in %s: %s"
	gitLogStartTemplateConstant                      = "Reading latest commit in %s"
	gitLogSuccessTemplateConstant                    = "Read latest commit in %s"
	gitLogFailureTemplateConstant                    = "Failed to read latest commit in %s (exit code %d%s)"
	gitLogExecutionFailureTemplateConstant           = "Unable to read latest commit in %s: %s"
)

const (
	buildStartTemplateConstant                   = "Building %s for %s"
	buildSuccessTemplateConstant                 = "Built %s for %s"
	buildFailureTemplateConstant                 = "Failed to build %s for %s (exit code %d%s)"
	buildExecutionFailureTemplateConstant        = "Unable to build %s for %s: %s"
	cleanStartTemplateConstant                   = "Pruning build area for %s"
	cleanSuccessTemplateConstant                 = "Pruned build area for %s"
	cleanFailureTemplateConstant                 = "Failed to prune build area for %s (exit code %d%s)"
	cleanExecutionFailureTemplateConstant        = "Unable to prune build area for %s: %s"
	architectureStartTemplateConstant            = "Querying build architecture"
	architectureSuccessTemplateConstant          = "Queried build architecture"
	architectureFailureTemplateConstant          = "Failed to query build architecture (exit code %d%s)"
	architectureExecutionFailureTemplateConstant = "Unable to query build architecture: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	if command.Name == CommandGit || strings.HasSuffix(string(command.Name), commandGitStringConstant) {
		return formatter.describeGitMessage(subcommand, command, result, failure, stage)
	}

	switch subcommand {
	case buildToolBuildSubcommandConstant:
		return formatter.describeBuildMessage(command, result, failure, stage)
	case buildToolCleanSubcommandConstant:
		return formatter.describeCleanMessage(command, result, failure, stage)
	case buildToolArchSubcommandConstant:
		return formatter.describeArchitectureMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(subcommand string, command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch subcommand {
	case gitRevParseSubcommandNameConstant:
		if !containsArgument(arguments, gitAbbrevRefFlagConstant) {
			return formatter.buildGenericMessage(command, result, failure, stage)
		}
		return formatter.selectTemplate(stage, result, failure,
			fmt.Sprintf(gitCurrentBranchStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitCurrentBranchSuccessTemplateConstant, workingDirectory),
			gitCurrentBranchFailureTemplateConstant,
			gitCurrentBranchExecutionFailureTemplateConstant,
			workingDirectory,
		)
	case gitCheckoutSubcommandNameConstant:
		branchName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName)
		case messageStageSuccess:
			return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
		case messageStageFailure:
			return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitCheckoutExecutionFailureTemplateConstant, workingDirectory, branchName, formatter.describeFailure(failure))
		}
	case gitPullSubcommandNameConstant:
		remoteName, references := formatter.extractRemoteAndReferences(arguments[1:])
		remoteLabel := formatter.ensureValue(remoteName)
		branchLabel := formatter.ensureValue(strings.Join(references, commandArgumentsJoinSeparatorConstant))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitPullStartTemplateConstant, workingDirectory, remoteLabel, branchLabel)
		case messageStageSuccess:
			return fmt.Sprintf(gitPullSuccessTemplateConstant, workingDirectory, remoteLabel, branchLabel)
		case messageStageFailure:
			return fmt.Sprintf(gitPullFailureTemplateConstant, workingDirectory, remoteLabel, branchLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitPullExecutionFailureTemplateConstant, workingDirectory, remoteLabel, branchLabel, formatter.describeFailure(failure))
		}
	case gitPushSubcommandNameConstant:
		remoteName, references := formatter.extractRemoteAndReferences(arguments[1:])
		remoteLabel := formatter.ensureValue(remoteName)
		branchLabel := formatter.ensureValue(strings.Join(references, commandArgumentsJoinSeparatorConstant))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitPushStartTemplateConstant, branchLabel, remoteLabel, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitPushSuccessTemplateConstant, branchLabel, remoteLabel, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitPushFailureTemplateConstant, branchLabel, remoteLabel, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		default:
			return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, branchLabel, remoteLabel, workingDirectory, formatter.describeFailure(failure))
		}
	case gitStashSubcommandNameConstant:
		return formatter.describeGitStashMessage(command, result, failure, stage)
	case gitLogSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure,
			fmt.Sprintf(gitLogStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitLogSuccessTemplateConstant, workingDirectory),
			gitLogFailureTemplateConstant,
			gitLogExecutionFailureTemplateConstant,
			workingDirectory,
		)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitStashMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(formatter.argumentAtIndex(command.Details.Arguments, 1)) {
	case gitStashPopSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure,
			fmt.Sprintf(gitStashPopStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitStashPopSuccessTemplateConstant, workingDirectory),
			gitStashPopFailureTemplateConstant,
			gitStashPopExecutionFailureTemplateConstant,
			workingDirectory,
		)
	case gitStashListSubcommandNameConstant:
		return formatter.selectTemplate(stage, result, failure,
			fmt.Sprintf(gitStashListStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitStashListSuccessTemplateConstant, workingDirectory),
			gitStashListFailureTemplateConstant,
			gitStashListExecutionFailureTemplateConstant,
			workingDirectory,
		)
	default:
		return formatter.selectTemplate(stage, result, failure,
			fmt.Sprintf(gitStashStartTemplateConstant, workingDirectory),
			fmt.Sprintf(gitStashSuccessTemplateConstant, workingDirectory),
			gitStashFailureTemplateConstant,
			gitStashExecutionFailureTemplateConstant,
			workingDirectory,
		)
	}
}

func (formatter CommandMessageFormatter) describeBuildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	packageName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	architecture := formatter.ensureValue(findFlagValue(arguments, buildToolArchitectureFlagConstant))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(buildStartTemplateConstant, packageName, architecture)
	case messageStageSuccess:
		return fmt.Sprintf(buildSuccessTemplateConstant, packageName, architecture)
	case messageStageFailure:
		return fmt.Sprintf(buildFailureTemplateConstant, packageName, architecture, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(buildExecutionFailureTemplateConstant, packageName, architecture, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeCleanMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	architecture := formatter.ensureValue(findFlagValue(command.Details.Arguments, buildToolArchitectureFlagConstant))
	return formatter.selectTemplate(stage, result, failure,
		fmt.Sprintf(cleanStartTemplateConstant, architecture),
		fmt.Sprintf(cleanSuccessTemplateConstant, architecture),
		cleanFailureTemplateConstant,
		cleanExecutionFailureTemplateConstant,
		architecture,
	)
}

func (formatter CommandMessageFormatter) describeArchitectureMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch stage {
	case messageStageStart:
		return architectureStartTemplateConstant
	case messageStageSuccess:
		return architectureSuccessTemplateConstant
	case messageStageFailure:
		return fmt.Sprintf(architectureFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(architectureExecutionFailureTemplateConstant, formatter.describeFailure(failure))
	}
}

// selectTemplate renders templates whose failure variants take a single subject argument.
func (formatter CommandMessageFormatter) selectTemplate(stage messageStage, result ExecutionResult, failure error, startMessage string, successMessage string, failureTemplate string, executionFailureTemplate string, subject string) string {
	switch stage {
	case messageStageStart:
		return startMessage
	case messageStageSuccess:
		return successMessage
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionFailureTemplate, subject, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractRemoteAndReferences(arguments []string) (string, []string) {
	remoteName := emptyStringConstant
	references := []string{}
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		if len(remoteName) == 0 {
			remoteName = trimmed
			continue
		}
		references = append(references, trimmed)
	}
	return remoteName, references
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments)-1; index++ {
		if strings.TrimSpace(arguments[index]) == flag {
			return arguments[index+1]
		}
	}
	return emptyStringConstant
}
