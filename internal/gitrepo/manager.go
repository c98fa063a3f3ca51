package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/alisync/internal/execshell"
)

const (
	executorMissingMessageConstant              = "git executor not configured"
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
	remoteNameRequiredMessageConstant           = "remote name must be provided"
	unexpectedCommitFormatTemplateConstant      = "unexpected commit summary %q"
	gitRevParseSubcommandConstant               = "rev-parse"
	gitAbbreviatedReferenceFlagConstant         = "--abbrev-ref"
	gitHeadReferenceConstant                    = "HEAD"
	gitStashSubcommandConstant                  = "stash"
	gitStashListSubcommandConstant              = "list"
	gitStashPopSubcommandConstant               = "pop"
	gitCheckoutSubcommandConstant               = "checkout"
	gitPullSubcommandConstant                   = "pull"
	gitRebaseFlagConstant                       = "--rebase"
	gitPushSubcommandConstant                   = "push"
	gitForceFlagConstant                        = "-f"
	gitLogSubcommandConstant                    = "log"
	gitSingleEntryFlagConstant                  = "-1"
	gitCommitSummaryFormatFlagConstant          = "--format=%ci%x09%h%x09%s"
	commitSummaryFieldSeparatorConstant         = "\t"
	commitSummaryFieldCountConstant             = 3
	stashEntrySeparatorConstant                 = "\n"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
)

// DetachedHeadBranchName is reported by rev-parse --abbrev-ref when HEAD is detached.
const DetachedHeadBranchName = gitHeadReferenceConstant

// ErrGitExecutorNotConfigured indicates the manager was created without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// ErrRepositoryPathRequired indicates an empty repository path.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates an empty branch name.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrRemoteNameRequired indicates an empty remote name.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// GitExecutor exposes the subset of shell execution used by repository operations.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommitSummary describes the latest commit of a branch.
type CommitSummary struct {
	Timestamp string
	ShortHash string
	Subject   string
}

// RepositoryManager runs git commands against a repository working tree.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// GetCurrentBranch returns the abbreviated name of HEAD, or DetachedHeadBranchName when detached.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitAbbreviatedReferenceFlagConstant, gitHeadReferenceConstant)
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// CountStashEntries returns the number of entries in the stash.
func (manager *RepositoryManager) CountStashEntries(executionContext context.Context, repositoryPath string) (int, error) {
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitStashSubcommandConstant, gitStashListSubcommandConstant)
	if executionError != nil {
		return 0, executionError
	}

	entryCount := 0
	for _, line := range strings.Split(executionResult.StandardOutput, stashEntrySeparatorConstant) {
		if len(strings.TrimSpace(line)) > 0 {
			entryCount++
		}
	}
	return entryCount, nil
}

// Stash saves local modifications. A clean tree leaves the stash unchanged.
func (manager *RepositoryManager) Stash(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, gitStashSubcommandConstant)
	return executionError
}

// PopStash restores the most recent stash entry.
func (manager *RepositoryManager) PopStash(executionContext context.Context, repositoryPath string) error {
	_, executionError := manager.run(executionContext, repositoryPath, gitStashSubcommandConstant, gitStashPopSubcommandConstant)
	return executionError
}

// Checkout switches the working tree to branchName.
func (manager *RepositoryManager) Checkout(executionContext context.Context, repositoryPath string, branchName string) error {
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, branchName)
	return executionError
}

// PullRebase rebases the checked-out branch onto remoteName/branchName.
func (manager *RepositoryManager) PullRebase(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	if validationError := validateRemoteAndBranch(remoteName, branchName); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitPullSubcommandConstant, gitRebaseFlagConstant, remoteName, branchName)
	return executionError
}

// ForcePush overwrites remoteName/branchName with the local branch.
func (manager *RepositoryManager) ForcePush(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	if validationError := validateRemoteAndBranch(remoteName, branchName); validationError != nil {
		return validationError
	}
	_, executionError := manager.run(executionContext, repositoryPath, gitPushSubcommandConstant, gitForceFlagConstant, remoteName, branchName)
	return executionError
}

// LatestCommit returns the committer timestamp, short hash and subject of HEAD.
func (manager *RepositoryManager) LatestCommit(executionContext context.Context, repositoryPath string) (CommitSummary, error) {
	executionResult, executionError := manager.run(executionContext, repositoryPath, gitLogSubcommandConstant, gitSingleEntryFlagConstant, gitCommitSummaryFormatFlagConstant)
	if executionError != nil {
		return CommitSummary{}, executionError
	}

	summaryLine := strings.TrimRight(executionResult.StandardOutput, "\r\n")
	summaryFields := strings.SplitN(summaryLine, commitSummaryFieldSeparatorConstant, commitSummaryFieldCountConstant)
	if len(summaryFields) != commitSummaryFieldCountConstant {
		return CommitSummary{}, fmt.Errorf(unexpectedCommitFormatTemplateConstant, summaryLine)
	}

	return CommitSummary{
		Timestamp: summaryFields[0],
		ShortHash: summaryFields[1],
		Subject:   summaryFields[2],
	}, nil
}

func (manager *RepositoryManager) run(executionContext context.Context, repositoryPath string, arguments ...string) (execshell.ExecutionResult, error) {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return execshell.ExecutionResult{}, ErrRepositoryPathRequired
	}

	return manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: trimmedRepositoryPath,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	})
}

func validateRemoteAndBranch(remoteName string, branchName string) error {
	if len(strings.TrimSpace(remoteName)) == 0 {
		return ErrRemoteNameRequired
	}
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	return nil
}
