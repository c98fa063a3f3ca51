package gitrepo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/alisync/internal/execshell"
	"github.com/temirov/alisync/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/alice/O2"
	testRemoteNameConstant     = "upstream"
	testBranchNameConstant     = "dev"
)

type stubGitExecutor struct {
	standardOutput   string
	executionError   error
	recordedCommands []execshell.CommandDetails
}

func (executor *stubGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.executionError != nil {
		return execshell.ExecutionResult{}, executor.executionError
	}
	return execshell.ExecutionResult{StandardOutput: executor.standardOutput}, nil
}

func TestNewRepositoryManagerRequiresExecutor(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrGitExecutorNotConfigured)
	require.Nil(testInstance, manager)
}

func TestRepositoryManagerCommandArguments(testInstance *testing.T) {
	testCases := []struct {
		name              string
		invoke            func(manager *gitrepo.RepositoryManager) error
		expectedArguments []string
	}{
		{
			name: "checkout",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.Checkout(context.Background(), testRepositoryPathConstant, testBranchNameConstant)
			},
			expectedArguments: []string{"checkout", "dev"},
		},
		{
			name: "pull_rebase",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.PullRebase(context.Background(), testRepositoryPathConstant, testRemoteNameConstant, testBranchNameConstant)
			},
			expectedArguments: []string{"pull", "--rebase", "upstream", "dev"},
		},
		{
			name: "force_push",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.ForcePush(context.Background(), testRepositoryPathConstant, "myfork", testBranchNameConstant)
			},
			expectedArguments: []string{"push", "-f", "myfork", "dev"},
		},
		{
			name: "stash",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.Stash(context.Background(), testRepositoryPathConstant)
			},
			expectedArguments: []string{"stash"},
		},
		{
			name: "stash_pop",
			invoke: func(manager *gitrepo.RepositoryManager) error {
				return manager.PopStash(context.Background(), testRepositoryPathConstant)
			},
			expectedArguments: []string{"stash", "pop"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitExecutor{}
			manager, creationError := gitrepo.NewRepositoryManager(executor)
			require.NoError(testInstance, creationError)

			require.NoError(testInstance, testCase.invoke(manager))
			require.Len(testInstance, executor.recordedCommands, 1)

			recordedCommand := executor.recordedCommands[0]
			require.Equal(testInstance, testCase.expectedArguments, recordedCommand.Arguments)
			require.Equal(testInstance, testRepositoryPathConstant, recordedCommand.WorkingDirectory)
			require.Equal(testInstance, "0", recordedCommand.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
		})
	}
}

func TestRepositoryManagerValidatesInputsBeforeRunningGit(testInstance *testing.T) {
	executor := &stubGitExecutor{}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	require.ErrorIs(testInstance, manager.Checkout(context.Background(), testRepositoryPathConstant, " "), gitrepo.ErrBranchNameRequired)
	require.ErrorIs(testInstance, manager.PullRebase(context.Background(), testRepositoryPathConstant, "", testBranchNameConstant), gitrepo.ErrRemoteNameRequired)
	require.ErrorIs(testInstance, manager.Stash(context.Background(), ""), gitrepo.ErrRepositoryPathRequired)
	require.Empty(testInstance, executor.recordedCommands)
}

func TestGetCurrentBranchTrimsOutput(testInstance *testing.T) {
	executor := &stubGitExecutor{standardOutput: "HEAD\n"}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	branchName, branchError := manager.GetCurrentBranch(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, gitrepo.DetachedHeadBranchName, branchName)
	require.Equal(testInstance, []string{"rev-parse", "--abbrev-ref", "HEAD"}, executor.recordedCommands[0].Arguments)
}

func TestCountStashEntries(testInstance *testing.T) {
	testCases := []struct {
		name          string
		output        string
		expectedCount int
	}{
		{name: "empty", output: "", expectedCount: 0},
		{name: "two_entries", output: "stash@{0}: WIP on dev: abc fix\nstash@{1}: WIP on dev: def tune\n", expectedCount: 2},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager, creationError := gitrepo.NewRepositoryManager(&stubGitExecutor{standardOutput: testCase.output})
			require.NoError(testInstance, creationError)

			entryCount, countError := manager.CountStashEntries(context.Background(), testRepositoryPathConstant)
			require.NoError(testInstance, countError)
			require.Equal(testInstance, testCase.expectedCount, entryCount)
		})
	}
}

func TestLatestCommitParsesSummary(testInstance *testing.T) {
	executor := &stubGitExecutor{standardOutput: "2024-05-02 10:11:12 +0200\tabc1234\tFix\ttabbed subject\n"}
	manager, creationError := gitrepo.NewRepositoryManager(executor)
	require.NoError(testInstance, creationError)

	summary, summaryError := manager.LatestCommit(context.Background(), testRepositoryPathConstant)
	require.NoError(testInstance, summaryError)
	require.Equal(testInstance, gitrepo.CommitSummary{
		Timestamp: "2024-05-02 10:11:12 +0200",
		ShortHash: "abc1234",
		Subject:   "Fix\ttabbed subject",
	}, summary)
	require.Equal(testInstance, []string{"log", "-1", "--format=%ci%x09%h%x09%s"}, executor.recordedCommands[0].Arguments)
}

func TestLatestCommitRejectsUnexpectedOutput(testInstance *testing.T) {
	manager, creationError := gitrepo.NewRepositoryManager(&stubGitExecutor{standardOutput: "garbage"})
	require.NoError(testInstance, creationError)

	_, summaryError := manager.LatestCommit(context.Background(), testRepositoryPathConstant)
	require.Error(testInstance, summaryError)
}

func TestRepositoryManagerPropagatesExecutorErrors(testInstance *testing.T) {
	failure := errors.New("git exploded")
	manager, creationError := gitrepo.NewRepositoryManager(&stubGitExecutor{executionError: failure})
	require.NoError(testInstance, creationError)

	require.ErrorIs(testInstance, manager.PopStash(context.Background(), testRepositoryPathConstant), failure)
}
