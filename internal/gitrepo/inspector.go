package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

const (
	repositoryMissingMessageConstant       = "repository path does not exist"
	repositoryNotDirectoryMessageConstant  = "repository path is not a directory"
	notGitRepositoryMessageConstant        = "path is not a git repository"
	repositoryVerificationTemplateConstant = "%s: %w"
	repositoryOpenFailureTemplateConstant  = "%s: unable to open repository: %w"
)

// ErrRepositoryMissing indicates the repository path does not exist.
var ErrRepositoryMissing = errors.New(repositoryMissingMessageConstant)

// ErrRepositoryNotDirectory indicates the repository path is a regular file.
var ErrRepositoryNotDirectory = errors.New(repositoryNotDirectoryMessageConstant)

// ErrNotGitRepository indicates the path exists but holds no git repository.
var ErrNotGitRepository = errors.New(notGitRepositoryMessageConstant)

// RepositoryInspector opens repositories with go-git to verify them before the git CLI runs.
type RepositoryInspector struct {
	openOptions git.PlainOpenOptions
}

// NewRepositoryInspector constructs an inspector that also recognizes linked worktrees
// and paths nested inside a working tree.
func NewRepositoryInspector() *RepositoryInspector {
	return &RepositoryInspector{openOptions: git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true}}
}

// Verify returns nil when repositoryPath is an existing directory that belongs to a git repository.
func (inspector *RepositoryInspector) Verify(repositoryPath string) error {
	trimmedRepositoryPath := strings.TrimSpace(repositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return ErrRepositoryPathRequired
	}

	fileInfo, statError := os.Stat(trimmedRepositoryPath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return fmt.Errorf(repositoryVerificationTemplateConstant, trimmedRepositoryPath, ErrRepositoryMissing)
		}
		return fmt.Errorf(repositoryVerificationTemplateConstant, trimmedRepositoryPath, statError)
	}
	if !fileInfo.IsDir() {
		return fmt.Errorf(repositoryVerificationTemplateConstant, trimmedRepositoryPath, ErrRepositoryNotDirectory)
	}

	openOptions := inspector.openOptions
	_, openError := git.PlainOpenWithOptions(trimmedRepositoryPath, &openOptions)
	if openError != nil {
		if errors.Is(openError, git.ErrRepositoryNotExists) {
			return fmt.Errorf(repositoryVerificationTemplateConstant, trimmedRepositoryPath, ErrNotGitRepository)
		}
		return fmt.Errorf(repositoryOpenFailureTemplateConstant, trimmedRepositoryPath, openError)
	}

	return nil
}
