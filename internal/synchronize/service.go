package synchronize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/gitrepo"
	"github.com/temirov/alisync/internal/packages"
)

const (
	repositoryVerifierMissingMessageConstant = "repository verifier not configured"
	repositoryManagerMissingMessageConstant  = "repository manager not configured"
	verificationFailureTemplateConstant      = "failed to verify repository: %w"
	currentBranchFailureTemplateConstant     = "failed to determine current branch: %w"
	stashCountFailureTemplateConstant        = "failed to count stash entries: %w"
	stashFailureTemplateConstant             = "failed to stash local changes: %w"
	stashPopFailureTemplateConstant          = "failed to restore stashed changes: %w"
	checkoutFailureTemplateConstant          = "failed to checkout branch %q: %w"
	rebaseFailureTemplateConstant            = "failed to rebase %q onto %s/%s: %w"
	forcePushFailureTemplateConstant         = "failed to force push %q to %s: %w"
	detachedHeadMessageConstant              = "Detached HEAD, skipping synchronization"
	stashLeftInPlaceMessageConstant          = "Local changes remain stashed after a failed update"
	branchSynchronizedMessageConstant        = "Branch synchronized"
	logFieldPackageConstant                  = "package"
	logFieldRepositoryPathConstant           = "repository_path"
	logFieldBranchConstant                   = "branch"
)

// ErrRepositoryVerifierNotConfigured indicates the verifier dependency was missing.
var ErrRepositoryVerifierNotConfigured = errors.New(repositoryVerifierMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// RepositoryVerifier confirms a path holds a git repository.
type RepositoryVerifier interface {
	Verify(repositoryPath string) error
}

// RepositoryManager exposes the git operations used during synchronization.
type RepositoryManager interface {
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	CountStashEntries(executionContext context.Context, repositoryPath string) (int, error)
	Stash(executionContext context.Context, repositoryPath string) error
	PopStash(executionContext context.Context, repositoryPath string) error
	Checkout(executionContext context.Context, repositoryPath string, branchName string) error
	PullRebase(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
	ForcePush(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
}

// Dependencies enumerates external collaborators required for synchronization.
type Dependencies struct {
	RepositoryVerifier RepositoryVerifier
	RepositoryManager  RepositoryManager
	Logger             *zap.Logger
}

// Result captures the observable outcomes of a synchronization.
type Result struct {
	RepositoryPath  string
	BranchName      string
	Detached        bool
	Stashed         bool
	UpdatedBranches []string
}

// Service rebases a repository's main and current branches onto its fork and upstream remotes.
type Service struct {
	verifier          RepositoryVerifier
	repositoryManager RepositoryManager
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryVerifier == nil {
		return nil, ErrRepositoryVerifierNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{verifier: dependencies.RepositoryVerifier, repositoryManager: dependencies.RepositoryManager, logger: logger}, nil
}

// Synchronize stashes local changes, updates the main branch and then the current branch, and restores the stash.
// A detached HEAD is left untouched.
func (service *Service) Synchronize(executionContext context.Context, descriptor packages.PackageDescriptor) (Result, error) {
	repositoryPath := descriptor.RepositoryPath
	result := Result{RepositoryPath: repositoryPath}
	repositoryLogger := service.logger.With(
		zap.String(logFieldPackageConstant, descriptor.Name),
		zap.String(logFieldRepositoryPathConstant, repositoryPath),
	)

	if verificationError := service.verifier.Verify(repositoryPath); verificationError != nil {
		return result, fmt.Errorf(verificationFailureTemplateConstant, verificationError)
	}

	currentBranch, branchError := service.repositoryManager.GetCurrentBranch(executionContext, repositoryPath)
	if branchError != nil {
		return result, fmt.Errorf(currentBranchFailureTemplateConstant, branchError)
	}
	result.BranchName = currentBranch
	if currentBranch == gitrepo.DetachedHeadBranchName {
		result.Detached = true
		repositoryLogger.Info(detachedHeadMessageConstant)
		return result, nil
	}

	stashed, stashError := service.stashLocalChanges(executionContext, repositoryPath)
	if stashError != nil {
		return result, stashError
	}
	result.Stashed = stashed

	branchesToUpdate := []string{descriptor.MainBranch}
	if currentBranch != descriptor.MainBranch {
		branchesToUpdate = append(branchesToUpdate, currentBranch)
	}

	for _, branchName := range branchesToUpdate {
		if updateError := service.updateBranch(executionContext, descriptor, branchName); updateError != nil {
			if stashed {
				repositoryLogger.Warn(stashLeftInPlaceMessageConstant)
			}
			return result, updateError
		}
		result.UpdatedBranches = append(result.UpdatedBranches, branchName)
		repositoryLogger.Debug(branchSynchronizedMessageConstant, zap.String(logFieldBranchConstant, branchName))
	}

	if stashed {
		if popError := service.repositoryManager.PopStash(executionContext, repositoryPath); popError != nil {
			return result, fmt.Errorf(stashPopFailureTemplateConstant, popError)
		}
	}

	return result, nil
}

func (service *Service) stashLocalChanges(executionContext context.Context, repositoryPath string) (bool, error) {
	entriesBefore, countError := service.repositoryManager.CountStashEntries(executionContext, repositoryPath)
	if countError != nil {
		return false, fmt.Errorf(stashCountFailureTemplateConstant, countError)
	}
	if stashError := service.repositoryManager.Stash(executionContext, repositoryPath); stashError != nil {
		return false, fmt.Errorf(stashFailureTemplateConstant, stashError)
	}
	entriesAfter, countError := service.repositoryManager.CountStashEntries(executionContext, repositoryPath)
	if countError != nil {
		return false, fmt.Errorf(stashCountFailureTemplateConstant, countError)
	}
	return entriesAfter > entriesBefore, nil
}

func (service *Service) updateBranch(executionContext context.Context, descriptor packages.PackageDescriptor, branchName string) error {
	repositoryPath := descriptor.RepositoryPath

	if checkoutError := service.repositoryManager.Checkout(executionContext, repositoryPath, branchName); checkoutError != nil {
		return fmt.Errorf(checkoutFailureTemplateConstant, branchName, checkoutError)
	}

	if descriptor.HasFork() {
		if rebaseError := service.repositoryManager.PullRebase(executionContext, repositoryPath, descriptor.ForkRemote, branchName); rebaseError != nil {
			return fmt.Errorf(rebaseFailureTemplateConstant, branchName, descriptor.ForkRemote, branchName, rebaseError)
		}
	}

	if rebaseError := service.repositoryManager.PullRebase(executionContext, repositoryPath, descriptor.UpstreamRemote, descriptor.MainBranch); rebaseError != nil {
		return fmt.Errorf(rebaseFailureTemplateConstant, branchName, descriptor.UpstreamRemote, descriptor.MainBranch, rebaseError)
	}

	if descriptor.HasFork() {
		if pushError := service.repositoryManager.ForcePush(executionContext, repositoryPath, descriptor.ForkRemote, branchName); pushError != nil {
			return fmt.Errorf(forcePushFailureTemplateConstant, branchName, descriptor.ForkRemote, pushError)
		}
	}

	return nil
}
