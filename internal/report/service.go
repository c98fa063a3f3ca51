package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/alisync/internal/gitrepo"
	"github.com/temirov/alisync/internal/packages"
)

const (
	repositoryReaderMissingMessageConstant = "repository reader not configured"
	branchFailureTemplateConstant          = "failed to read branch of %s: %w"
	commitFailureTemplateConstant          = "failed to read latest commit of %s: %w"
	entryLineTemplateConstant              = "%s [%s] %s %s %s\n"
	reportedMessageConstant                = "Repository state reported"
	logFieldPackageConstant                = "package"
	logFieldBranchConstant                 = "branch"
	logFieldCommitConstant                 = "commit"
)

// ErrRepositoryReaderNotConfigured indicates the service was created without a repository reader.
var ErrRepositoryReaderNotConfigured = errors.New(repositoryReaderMissingMessageConstant)

// RepositoryReader exposes the read-only git queries used by the report.
type RepositoryReader interface {
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	LatestCommit(executionContext context.Context, repositoryPath string) (gitrepo.CommitSummary, error)
}

// Dependencies enumerates collaborators of the report service.
type Dependencies struct {
	RepositoryReader RepositoryReader
	Output           io.Writer
	Logger           *zap.Logger
}

// Entry is one reported repository.
type Entry struct {
	PackageName string
	BranchName  string
	Commit      gitrepo.CommitSummary
}

// Service writes one line per descriptor in configuration order.
type Service struct {
	repositoryReader RepositoryReader
	output           io.Writer
	logger           *zap.Logger
}

// NewService constructs a Service. Output defaults to standard output.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.RepositoryReader == nil {
		return nil, ErrRepositoryReaderNotConfigured
	}
	output := dependencies.Output
	if output == nil {
		output = os.Stdout
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repositoryReader: dependencies.RepositoryReader, output: output, logger: logger}, nil
}

// Report prints "<name> [<branch>] <timestamp> <hash> <subject>" for every descriptor and stops at the first failure.
func (service *Service) Report(executionContext context.Context, descriptors []packages.PackageDescriptor) ([]Entry, error) {
	entries := make([]Entry, 0, len(descriptors))
	for _, descriptor := range descriptors {
		branchName, branchError := service.repositoryReader.GetCurrentBranch(executionContext, descriptor.RepositoryPath)
		if branchError != nil {
			return entries, fmt.Errorf(branchFailureTemplateConstant, descriptor.Name, branchError)
		}
		commitSummary, commitError := service.repositoryReader.LatestCommit(executionContext, descriptor.RepositoryPath)
		if commitError != nil {
			return entries, fmt.Errorf(commitFailureTemplateConstant, descriptor.Name, commitError)
		}

		entry := Entry{PackageName: descriptor.Name, BranchName: branchName, Commit: commitSummary}
		entries = append(entries, entry)
		service.printf(entryLineTemplateConstant, entry.PackageName, entry.BranchName, commitSummary.Timestamp, commitSummary.ShortHash, commitSummary.Subject)
		service.logger.Debug(reportedMessageConstant,
			zap.String(logFieldPackageConstant, entry.PackageName),
			zap.String(logFieldBranchConstant, entry.BranchName),
			zap.String(logFieldCommitConstant, commitSummary.ShortHash),
		)
	}
	return entries, nil
}

func (service *Service) printf(format string, arguments ...any) {
	fmt.Fprintf(service.output, format, arguments...)
}
